package main

import (
	"alcyxob/wellbeing-app/internal/catalogview"
	"alcyxob/wellbeing-app/internal/client"
	"alcyxob/wellbeing-app/internal/domain"
	"alcyxob/wellbeing-app/internal/progress"
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"syscall"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"golang.org/x/term"
)

const dateLayout = "2006-01-02"

var (
	readPasswordFunc = term.ReadPassword // mockable

	errHelp = errors.New("help provided")
)

type commandLine struct {
	api *client.Client // carries a pre-issued token when WELLBEING_TOKEN is set
	out io.Writer
}

func (cli *commandLine) printUsage() {
	fmt.Fprintln(cli.out, "Usage:")
	fmt.Fprintln(cli.out, "  list [-search TEXT] [-status all|completed|incomplete] - show the catalog with your completions")
	fmt.Fprintln(cli.out, "  progress - show overall progress and streaks")
	fmt.Fprintln(cli.out, "  toggle -week ID -item ID - flip the completion of a challenge")
	fmt.Fprintln(cli.out, "  create-week -number N -theme THEME -start YYYY-MM-DD -end YYYY-MM-DD")
	fmt.Fprintln(cli.out, "  rename-week -week ID -theme THEME")
	fmt.Fprintln(cli.out, "  delete-week -week ID - delete a week with all its challenges")
	fmt.Fprintln(cli.out, "  create-item -week ID -title TITLE [-description TEXT]")
	fmt.Fprintln(cli.out, "  delete-item -week ID -item ID")
	fmt.Fprintln(cli.out, "Every command accepts -email EMAIL; the password is prompted next.")
	fmt.Fprintln(cli.out, "Set WELLBEING_TOKEN to reuse an issued token instead.")
}

func (cli *commandLine) run(args []string) error {
	if len(args) < 2 {
		cli.printUsage()
		return errHelp
	}

	fs := flag.NewFlagSet(args[1], flag.ContinueOnError)
	fs.SetOutput(cli.out)
	email := fs.String("email", "", "The account email. The password will be prompted next.")

	var action func(ctx context.Context, v *catalogview.View) error
	switch args[1] {
	case "list":
		search := fs.String("search", "", "Only show challenges matching this text.")
		status := fs.String("status", "all", "all, completed or incomplete.")
		action = func(_ context.Context, v *catalogview.View) error {
			cli.printCatalog(v, v.Filter(*search, progress.ParseStatusFilter(*status)))
			return nil
		}
	case "progress":
		action = func(_ context.Context, v *catalogview.View) error {
			cli.printProgress(v)
			return nil
		}
	case "toggle":
		weekID := fs.String("week", "", "The week id.")
		itemID := fs.String("item", "", "The challenge id.")
		action = func(ctx context.Context, v *catalogview.View) error {
			wid, iid, err := parseItemRef(fs, *weekID, *itemID)
			if err != nil {
				return err
			}
			item, err := v.ToggleCompletion(ctx, wid, iid)
			if err != nil {
				return err
			}
			fmt.Fprintf(cli.out, "%s %s\n", checkbox(item.Completed), item.Title)
			cli.printProgress(v)
			return nil
		}
	case "create-week":
		number := fs.Int("number", 0, "The week number.")
		theme := fs.String("theme", "", "The week theme.")
		start := fs.String("start", "", "First day, YYYY-MM-DD.")
		end := fs.String("end", "", "Last day, YYYY-MM-DD.")
		action = func(ctx context.Context, v *catalogview.View) error {
			if *number == 0 || *theme == "" || *start == "" || *end == "" {
				fs.Usage()
				return errHelp
			}
			startDate, err := time.Parse(dateLayout, *start)
			if err != nil {
				return fmt.Errorf("invalid -start: %w", err)
			}
			endDate, err := time.Parse(dateLayout, *end)
			if err != nil {
				return fmt.Errorf("invalid -end: %w", err)
			}
			week, err := v.CreateWeek(ctx, domain.WeekInput{
				WeekNumber: *number,
				Theme:      *theme,
				StartDate:  startDate,
				EndDate:    endDate,
			})
			if err != nil {
				return err
			}
			fmt.Fprintf(cli.out, "created week %d %s\n", week.WeekNumber, week.ID.Hex())
			return nil
		}
	case "rename-week":
		weekID := fs.String("week", "", "The week id.")
		theme := fs.String("theme", "", "The new theme.")
		action = func(ctx context.Context, v *catalogview.View) error {
			wid, err := parseWeekRef(fs, *weekID)
			if err != nil {
				return err
			}
			week, err := v.UpdateWeek(ctx, wid, domain.WeekPatch{Theme: theme})
			if err != nil {
				return err
			}
			fmt.Fprintf(cli.out, "week %d is now %q\n", week.WeekNumber, week.Theme)
			return nil
		}
	case "delete-week":
		weekID := fs.String("week", "", "The week id.")
		action = func(ctx context.Context, v *catalogview.View) error {
			wid, err := parseWeekRef(fs, *weekID)
			if err != nil {
				return err
			}
			if err := v.DeleteWeek(ctx, wid); err != nil {
				return err
			}
			fmt.Fprintf(cli.out, "deleted week %s\n", wid.Hex())
			return nil
		}
	case "create-item":
		weekID := fs.String("week", "", "The week id.")
		title := fs.String("title", "", "The challenge title.")
		description := fs.String("description", "", "Optional details.")
		action = func(ctx context.Context, v *catalogview.View) error {
			wid, err := parseWeekRef(fs, *weekID)
			if err != nil {
				return err
			}
			item, err := v.CreateItem(ctx, wid, domain.ItemInput{Title: *title, Description: *description})
			if err != nil {
				return err
			}
			fmt.Fprintf(cli.out, "created challenge %s %q\n", item.ID.Hex(), item.Title)
			return nil
		}
	case "delete-item":
		weekID := fs.String("week", "", "The week id.")
		itemID := fs.String("item", "", "The challenge id.")
		action = func(ctx context.Context, v *catalogview.View) error {
			wid, iid, err := parseItemRef(fs, *weekID, *itemID)
			if err != nil {
				return err
			}
			if err := v.DeleteItem(ctx, wid, iid); err != nil {
				return err
			}
			fmt.Fprintf(cli.out, "deleted challenge %s\n", iid.Hex())
			return nil
		}
	default:
		cli.printUsage()
		return errHelp
	}

	if err := fs.Parse(args[2:]); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return errHelp
		}
		return err
	}

	ctx := context.Background()
	actor, err := cli.authenticate(ctx, fs, *email)
	if err != nil {
		return err
	}

	view := catalogview.New(cli.api, actor, catalogview.WithNotifier(catalogview.NotifierFunc(func(n catalogview.Notice) {
		fmt.Fprintf(cli.out, "%s: %s\n", n.Op, n.Message)
	})))
	defer view.Close()

	if err := view.Load(ctx); err != nil {
		return err
	}
	return action(ctx, view)
}

// authenticate resolves the acting user from the client's token, or logs in
// with the email and a prompted password.
func (cli *commandLine) authenticate(ctx context.Context, fs *flag.FlagSet, email string) (domain.Actor, error) {
	if cli.api.Token() != "" {
		return cli.api.Me(ctx)
	}
	if email == "" {
		fs.Usage()
		return domain.Actor{}, errHelp
	}

	fmt.Fprint(cli.out, "Enter password:")
	pwd, err := readPasswordFunc(syscall.Stdin)
	fmt.Fprintln(cli.out)
	if err != nil {
		return domain.Actor{}, err
	}
	if len(pwd) == 0 {
		fs.Usage()
		return domain.Actor{}, errHelp
	}
	return cli.api.Login(ctx, email, string(pwd))
}

func (cli *commandLine) printCatalog(v *catalogview.View, weeks []domain.WeekWithItems) {
	if len(weeks) == 0 {
		fmt.Fprintln(cli.out, "no challenges found")
		return
	}
	for _, w := range weeks {
		wp, _ := v.WeekProgress(w.ID)
		fmt.Fprintf(cli.out, "Week %d: %s (%s - %s) %d/%d %d%% [%s]\n",
			w.WeekNumber, w.Theme, w.StartDate.Format(dateLayout), w.EndDate.Format(dateLayout),
			wp.CompletedCount, wp.TotalCount, wp.Percentage, w.ID.Hex())
		for _, item := range w.Items {
			fmt.Fprintf(cli.out, "  %s %s [%s]\n", checkbox(item.Completed), item.Title, item.ID.Hex())
		}
	}
	cli.printProgress(v)
}

func (cli *commandLine) printProgress(v *catalogview.View) {
	p := v.Progress()
	fmt.Fprintf(cli.out, "Overall: %d/%d %d%% (%s)\n", p.CompletedCount, p.TotalCount, p.Percentage, p.Source)
	if s := v.Summary(); s != nil {
		fmt.Fprintf(cli.out, "Weeks completed: %d/%d, current streak %d, longest %d\n",
			s.CompletedWeeks, s.TotalWeeks, s.CurrentStreak, s.LongestStreak)
	}
}

func checkbox(done bool) string {
	if done {
		return "[x]"
	}
	return "[ ]"
}

func parseWeekRef(fs *flag.FlagSet, weekID string) (primitive.ObjectID, error) {
	if weekID == "" {
		fs.Usage()
		return primitive.NilObjectID, errHelp
	}
	id, err := primitive.ObjectIDFromHex(weekID)
	if err != nil {
		return primitive.NilObjectID, fmt.Errorf("invalid -week %q: %w", weekID, err)
	}
	return id, nil
}

func parseItemRef(fs *flag.FlagSet, weekID, itemID string) (primitive.ObjectID, primitive.ObjectID, error) {
	wid, err := parseWeekRef(fs, weekID)
	if err != nil {
		return wid, primitive.NilObjectID, err
	}
	if itemID == "" {
		fs.Usage()
		return wid, primitive.NilObjectID, errHelp
	}
	iid, err := primitive.ObjectIDFromHex(itemID)
	if err != nil {
		return wid, primitive.NilObjectID, fmt.Errorf("invalid -item %q: %w", itemID, err)
	}
	return wid, iid, nil
}
