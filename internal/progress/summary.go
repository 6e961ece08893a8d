package progress

import (
	"alcyxob/wellbeing-app/internal/domain"
	"sort"
	"time"
)

// Streaks counts consecutive UTC calendar days with at least one completion.
type Streaks struct {
	Current      int
	Longest      int
	LastActivity *time.Time
}

// ComputeStreaks derives current and longest streaks from completion
// timestamps. The current streak only survives while the last active day is
// today or yesterday (relative to today, in UTC).
func ComputeStreaks(activity []time.Time, today time.Time) Streaks {
	if len(activity) == 0 {
		return Streaks{}
	}

	seen := make(map[time.Time]struct{}, len(activity))
	days := make([]time.Time, 0, len(activity))
	for _, t := range activity {
		if t.IsZero() {
			continue
		}
		d := domain.DateOnly(t)
		if _, dup := seen[d]; dup {
			continue
		}
		seen[d] = struct{}{}
		days = append(days, d)
	}
	if len(days) == 0 {
		return Streaks{}
	}
	sort.Slice(days, func(i, j int) bool { return days[i].Before(days[j]) })

	longest, run := 1, 1
	for i := 1; i < len(days); i++ {
		if days[i].Sub(days[i-1]) == 24*time.Hour {
			run++
		} else {
			run = 1
		}
		if run > longest {
			longest = run
		}
	}

	last := days[len(days)-1]
	current := 0
	gap := domain.DateOnly(today).Sub(last)
	if gap == 0 || gap == 24*time.Hour {
		// run holds the length of the trailing run at this point.
		current = run
	}

	return Streaks{Current: current, Longest: longest, LastActivity: &last}
}

// Summarize builds a user's progress summary from the catalog (with the
// user's completion flags resolved) and the user's completion records.
func Summarize(groups []domain.WeekWithItems, completions []domain.Completion, now time.Time) domain.ProgressSummary {
	overall := ComputeOverallProgress(groups, nil)

	completedWeeks := 0
	for _, g := range groups {
		if ComputeWeekProgress(g.Items).IsWeekComplete {
			completedWeeks++
		}
	}

	activity := make([]time.Time, 0, len(completions))
	for _, c := range completions {
		activity = append(activity, c.CompletedAt)
	}
	streaks := ComputeStreaks(activity, now)

	return domain.ProgressSummary{
		CompletedCount:              overall.CompletedCount,
		TotalCount:                  overall.TotalCount,
		CompletedWeeks:              completedWeeks,
		TotalWeeks:                  len(groups),
		CurrentStreak:               streaks.Current,
		LongestStreak:               streaks.Longest,
		OverallCompletionPercentage: overall.Percentage,
		LastActivityDate:            streaks.LastActivity,
	}
}
