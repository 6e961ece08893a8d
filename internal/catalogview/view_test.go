package catalogview

import (
	"alcyxob/wellbeing-app/internal/domain"
	"alcyxob/wellbeing-app/internal/progress"
	"alcyxob/wellbeing-app/internal/validation"
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func day(d int) time.Time { return time.Date(2024, time.January, d, 0, 0, 0, 0, time.UTC) }

func ptr[T any](v T) *T { return &v }

type fixture struct {
	store   *fakeStore
	view    *View
	notices *noticeRecorder

	week1, week2        primitive.ObjectID
	itemA, itemB, itemC primitive.ObjectID
}

// newFixture loads Week 1 "Self-Awareness" (A done, B open) and Week 2
// "Empathy" (C done).
func newFixture(t *testing.T, role domain.Role) *fixture {
	t.Helper()
	f := &fixture{
		week1: primitive.NewObjectID(), week2: primitive.NewObjectID(),
		itemA: primitive.NewObjectID(), itemB: primitive.NewObjectID(), itemC: primitive.NewObjectID(),
		notices: &noticeRecorder{},
	}
	f.store = &fakeStore{
		catalog: []domain.WeekWithItems{
			{
				Week: domain.Week{ID: f.week2, WeekNumber: 2, Theme: "Empathy", StartDate: day(8), EndDate: day(14)},
				Items: []domain.ChallengeItem{
					{ID: f.itemC, WeekID: f.week2, Title: "Listen fully", Sequence: 1, Completed: true},
				},
			},
			{
				Week: domain.Week{ID: f.week1, WeekNumber: 1, Theme: "Self-Awareness", StartDate: day(1), EndDate: day(7)},
				Items: []domain.ChallengeItem{
					{ID: f.itemA, WeekID: f.week1, Title: "Journal", Description: "Ten minutes", Sequence: 1, Completed: true},
					{ID: f.itemB, WeekID: f.week1, Title: "Breathe", Sequence: 2},
				},
			},
		},
		progressErr: errors.New("progress endpoint down"),
	}
	actor := domain.Actor{UserID: primitive.NewObjectID(), Role: role}
	f.view = New(f.store, actor, WithNotifier(f.notices))
	require.NoError(t, f.view.Load(context.Background()))
	return f
}

// serverSummary makes the store answer progress with summary and reloads.
func (f *fixture) serverSummary(t *testing.T, summary *domain.ProgressSummary) {
	t.Helper()
	f.store.mu.Lock()
	f.store.progressErr = nil
	f.store.summary = summary
	f.store.mu.Unlock()
	require.NoError(t, f.view.Load(context.Background()))
}

func (f *fixture) gate() {
	f.store.gate = make(chan struct{})
	f.store.started = make(chan string, 8)
}

func TestLoadOrdersWeeksAndComputesLocally(t *testing.T) {
	f := newFixture(t, domain.RoleUser)

	weeks := f.view.Weeks()
	require.Len(t, weeks, 2)
	assert.Equal(t, f.week1, weeks[0].ID)
	assert.Equal(t, f.week2, weeks[1].ID)

	assert.Nil(t, f.view.Summary())
	assert.Equal(t, progress.OverallProgress{CompletedCount: 2, TotalCount: 3, Percentage: 67, Source: progress.SourceLocal}, f.view.Progress())

	// Returned weeks are copies
	weeks[0].Items[0].Title = "changed"
	again, ok := f.view.Week(f.week1)
	require.True(t, ok)
	assert.Equal(t, "Journal", again.Items[0].Title)
}

func TestExampleScenario(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, domain.RoleUser)
	assert.False(t, f.view.CanManageChallenges())

	item, err := f.view.ToggleCompletion(ctx, f.week1, f.itemB)
	require.NoError(t, err)
	assert.True(t, item.Completed)

	overall := f.view.Progress()
	assert.Equal(t, 3, overall.CompletedCount)
	assert.Equal(t, 100, overall.Percentage)
	wp, ok := f.view.WeekProgress(f.week1)
	require.True(t, ok)
	assert.True(t, wp.IsWeekComplete)

	filtered := f.view.Filter("empathy", progress.StatusAll)
	require.Len(t, filtered, 1)
	assert.Equal(t, f.week2, filtered[0].ID)
	require.Len(t, filtered[0].Items, 1)
	assert.Equal(t, f.itemC, filtered[0].Items[0].ID)

	// Toggling again restores the original counts
	_, err = f.view.ToggleCompletion(ctx, f.week1, f.itemB)
	require.NoError(t, err)
	overall = f.view.Progress()
	assert.Equal(t, 2, overall.CompletedCount)
	assert.Equal(t, 67, overall.Percentage)
}

func TestPrivilegedMutationsDeniedForUsers(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, domain.RoleUser)
	before := f.view.Weeks()

	_, err := f.view.CreateWeek(ctx, domain.WeekInput{WeekNumber: 3, Theme: "Rest", StartDate: day(15), EndDate: day(21)})
	assert.ErrorIs(t, err, ErrPermissionDenied)
	_, err = f.view.UpdateWeek(ctx, f.week1, domain.WeekPatch{Theme: ptr("x")})
	assert.ErrorIs(t, err, ErrPermissionDenied)
	assert.ErrorIs(t, f.view.DeleteWeek(ctx, f.week1), ErrPermissionDenied)
	_, err = f.view.CreateItem(ctx, f.week1, domain.ItemInput{Title: "x"})
	assert.ErrorIs(t, err, ErrPermissionDenied)
	_, err = f.view.UpdateItem(ctx, f.week1, f.itemA, domain.ItemPatch{Title: ptr("x")})
	assert.ErrorIs(t, err, ErrPermissionDenied)
	assert.ErrorIs(t, f.view.DeleteItem(ctx, f.week1, f.itemA), ErrPermissionDenied)

	assert.Zero(t, f.store.mutationCount())
	assert.Equal(t, before, f.view.Weeks())

	notices := f.notices.all()
	require.Len(t, notices, 6)
	for _, n := range notices {
		assert.ErrorIs(t, n.Err, ErrPermissionDenied)
		assert.Equal(t, "You are not permitted to do that.", n.Message)
	}
}

func TestCompletionRequiresAuthenticatedActor(t *testing.T) {
	f := newFixture(t, domain.RoleUser)
	anonymous := New(f.store, domain.Actor{})
	require.NoError(t, anonymous.Load(context.Background()))

	_, err := anonymous.SetCompletion(context.Background(), f.week1, f.itemB, true)
	assert.ErrorIs(t, err, ErrPermissionDenied)
	assert.Zero(t, f.store.mutationCount())
}

func TestValidationFailuresSendNothing(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, domain.RoleSpecialist)
	assert.True(t, f.view.CanManageChallenges())

	tests := []struct {
		name  string
		field string
		run   func() error
	}{
		{"blank theme", "theme", func() error {
			_, err := f.view.CreateWeek(ctx, domain.WeekInput{WeekNumber: 3, Theme: "  ", StartDate: day(15), EndDate: day(21)})
			return err
		}},
		{"end before start", "endDate", func() error {
			_, err := f.view.CreateWeek(ctx, domain.WeekInput{WeekNumber: 3, Theme: "Rest", StartDate: day(21), EndDate: day(15)})
			return err
		}},
		{"missing week number", "weekNumber", func() error {
			_, err := f.view.CreateWeek(ctx, domain.WeekInput{Theme: "Rest", StartDate: day(15), EndDate: day(21)})
			return err
		}},
		{"duplicate week number", "weekNumber", func() error {
			_, err := f.view.CreateWeek(ctx, domain.WeekInput{WeekNumber: 2, Theme: "Rest", StartDate: day(15), EndDate: day(21)})
			return err
		}},
		{"renumber onto existing week", "weekNumber", func() error {
			_, err := f.view.UpdateWeek(ctx, f.week1, domain.WeekPatch{WeekNumber: ptr(2)})
			return err
		}},
		{"patched end before start", "endDate", func() error {
			_, err := f.view.UpdateWeek(ctx, f.week1, domain.WeekPatch{EndDate: ptr(day(1).Add(-24 * time.Hour))})
			return err
		}},
		{"blank item title", "title", func() error {
			_, err := f.view.CreateItem(ctx, f.week1, domain.ItemInput{Title: " ", Description: "ok"})
			return err
		}},
		{"cleared item title", "title", func() error {
			_, err := f.view.UpdateItem(ctx, f.week1, f.itemA, domain.ItemPatch{Title: ptr("")})
			return err
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fields, ok := validation.Fields(tt.run())
			require.True(t, ok)
			assert.Contains(t, fields, tt.field)
		})
	}
	assert.Zero(t, f.store.mutationCount())
	assert.Empty(t, f.notices.all())
}

func TestUnknownEntity(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, domain.RoleAdmin)

	_, err := f.view.SetCompletion(ctx, f.week1, primitive.NewObjectID(), true)
	assert.ErrorIs(t, err, ErrUnknownEntity)
	// The item exists, but not in that week
	_, err = f.view.SetCompletion(ctx, f.week2, f.itemA, true)
	assert.ErrorIs(t, err, ErrUnknownEntity)
	assert.ErrorIs(t, f.view.DeleteWeek(ctx, primitive.NewObjectID()), ErrUnknownEntity)
	assert.Zero(t, f.store.mutationCount())
}

func TestRejectedMutationRestoresState(t *testing.T) {
	ctx := context.Background()
	tests := []struct {
		name string
		op   string
		run  func(f *fixture) error
	}{
		{"create week", "create_week", func(f *fixture) error {
			_, err := f.view.CreateWeek(ctx, domain.WeekInput{WeekNumber: 3, Theme: "Rest", StartDate: day(15), EndDate: day(21)})
			return err
		}},
		{"update week", "update_week", func(f *fixture) error {
			_, err := f.view.UpdateWeek(ctx, f.week1, domain.WeekPatch{WeekNumber: ptr(5), Theme: ptr("Self-Care")})
			return err
		}},
		{"delete week", "delete_week", func(f *fixture) error {
			return f.view.DeleteWeek(ctx, f.week1)
		}},
		{"create item", "create_item", func(f *fixture) error {
			_, err := f.view.CreateItem(ctx, f.week1, domain.ItemInput{Title: "Stretch"})
			return err
		}},
		{"update item", "update_item", func(f *fixture) error {
			_, err := f.view.UpdateItem(ctx, f.week1, f.itemA, domain.ItemPatch{Description: ptr("")})
			return err
		}},
		{"delete item", "delete_item", func(f *fixture) error {
			return f.view.DeleteItem(ctx, f.week1, f.itemA)
		}},
		{"toggle completion", "set_completion", func(f *fixture) error {
			_, err := f.view.ToggleCompletion(ctx, f.week2, f.itemC)
			return err
		}},
	}
	summaries := []struct {
		name    string
		summary *domain.ProgressSummary
	}{
		{"local progress", nil},
		{"server progress", &domain.ProgressSummary{CompletedCount: 2, TotalCount: 3, CompletedWeeks: 1, TotalWeeks: 2, CurrentStreak: 4, LongestStreak: 9, OverallCompletionPercentage: 67, LastActivityDate: ptr(day(6))}},
	}
	for _, tt := range tests {
		for _, sm := range summaries {
			t.Run(tt.name+"/"+sm.name, func(t *testing.T) {
				f := newFixture(t, domain.RoleSpecialist)
				if sm.summary != nil {
					f.serverSummary(t, sm.summary)
				}
				f.store.setFail(fmt.Errorf("%w: 409 conflict", ErrMutationRejected))
				before := f.view.Weeks()
				progressBefore := f.view.Progress()
				summaryBefore := f.view.Summary()

				err := tt.run(f)
				assert.ErrorIs(t, err, ErrMutationRejected)
				assert.Equal(t, before, f.view.Weeks())
				assert.Equal(t, progressBefore, f.view.Progress())
				assert.Equal(t, summaryBefore, f.view.Summary())
				for _, w := range before {
					assert.False(t, f.view.IsUpdating(w.ID))
				}

				notices := f.notices.all()
				require.Len(t, notices, 1)
				assert.Equal(t, tt.op, notices[0].Op)
				assert.ErrorIs(t, notices[0].Err, ErrMutationRejected)
			})
		}
	}
}

func TestConcurrentRejectionsRestoreServerProgress(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, domain.RoleUser)
	summary := &domain.ProgressSummary{CompletedCount: 2, TotalCount: 3, CurrentStreak: 4, LongestStreak: 9, OverallCompletionPercentage: 67}
	f.serverSummary(t, summary)
	calls := f.store.progressCallCount()
	f.gate()
	f.store.setFail(ErrNetworkUnavailable)

	done := make(chan error, 2)
	go func() {
		_, err := f.view.SetCompletion(ctx, f.week1, f.itemB, true)
		done <- err
	}()
	require.Equal(t, "set_completion", <-f.store.started)
	go func() {
		_, err := f.view.SetCompletion(ctx, f.week2, f.itemC, false)
		done <- err
	}()
	require.Equal(t, "set_completion", <-f.store.started)
	assert.Nil(t, f.view.Summary())

	f.store.gate <- struct{}{}
	assert.ErrorIs(t, <-done, ErrNetworkUnavailable)
	// One change is still pending, so the old aggregate stays withheld
	assert.Nil(t, f.view.Summary())
	assert.Equal(t, progress.SourceLocal, f.view.Progress().Source)

	f.store.gate <- struct{}{}
	assert.ErrorIs(t, <-done, ErrNetworkUnavailable)
	assert.Equal(t, summary, f.view.Summary())
	assert.Equal(t, progress.OverallProgress{CompletedCount: 2, TotalCount: 3, Percentage: 67, Source: progress.SourceServer}, f.view.Progress())
	assert.Equal(t, calls, f.store.progressCallCount())
}

func TestStoreFailuresAreClassified(t *testing.T) {
	ctx := context.Background()
	tests := []struct {
		name    string
		fail    error
		want    error
		message string
	}{
		{"unknown error", errors.New("boom"), ErrMutationRejected, "The server rejected the change. Your change was undone."},
		{"timeout", context.DeadlineExceeded, ErrNetworkUnavailable, "Could not reach the server. Your change was undone."},
		{"network", ErrNetworkUnavailable, ErrNetworkUnavailable, "Could not reach the server. Your change was undone."},
		{"not found", ErrNotFound, ErrMutationRejected, "This entry was changed or removed by someone else. Your change was undone; refresh to see the latest catalog."},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t, domain.RoleUser)
			f.store.setFail(tt.fail)

			_, err := f.view.SetCompletion(ctx, f.week1, f.itemB, true)
			assert.ErrorIs(t, err, tt.want)
			assert.ErrorIs(t, err, tt.fail)

			notices := f.notices.all()
			require.Len(t, notices, 1)
			assert.Equal(t, tt.message, notices[0].Message)
		})
	}
}

func TestConcurrentMutationOnSameEntityIsRejected(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, domain.RoleUser)
	f.gate()

	first := make(chan error, 1)
	go func() {
		_, err := f.view.SetCompletion(ctx, f.week1, f.itemB, true)
		first <- err
	}()
	require.Equal(t, "set_completion", <-f.store.started)

	assert.True(t, f.view.IsUpdating(f.itemB))
	pending, _ := f.view.Week(f.week1)
	assert.True(t, pending.Items[1].Completed, "optimistic state visible while pending")

	_, err := f.view.ToggleCompletion(ctx, f.week1, f.itemB)
	assert.ErrorIs(t, err, ErrMutationInProgress)
	assert.ErrorIs(t, f.view.Load(ctx), ErrMutationInProgress)

	// Other entries stay interactive
	second := make(chan error, 1)
	go func() {
		_, err := f.view.SetCompletion(ctx, f.week2, f.itemC, false)
		second <- err
	}()
	require.Equal(t, "set_completion", <-f.store.started)

	f.store.gate <- struct{}{}
	f.store.gate <- struct{}{}
	require.NoError(t, <-first)
	require.NoError(t, <-second)

	assert.False(t, f.view.IsUpdating(f.itemB))
	assert.False(t, f.view.IsUpdating(f.itemC))
	assert.Equal(t, 2, f.store.mutationCount())
	assert.Equal(t, 2, f.view.Progress().CompletedCount)
}

func TestDeleteWeekIsAtomic(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, domain.RoleAdmin)
	before := f.view.Weeks()
	f.gate()

	done := make(chan error, 1)
	go func() { done <- f.view.DeleteWeek(ctx, f.week1) }()
	require.Equal(t, "delete_week", <-f.store.started)

	weeks := f.view.Weeks()
	require.Len(t, weeks, 1)
	for _, w := range weeks {
		assert.NotEqual(t, f.week1, w.ID)
		for _, item := range w.Items {
			assert.NotEqual(t, f.week1, item.WeekID)
		}
	}
	assert.True(t, f.view.IsUpdating(f.week1))
	assert.True(t, f.view.IsUpdating(f.itemA))
	assert.True(t, f.view.IsUpdating(f.itemB))
	assert.Equal(t, 1, f.view.Progress().TotalCount)

	f.store.setFail(ErrNetworkUnavailable)
	f.store.gate <- struct{}{}
	assert.ErrorIs(t, <-done, ErrNetworkUnavailable)
	assert.Equal(t, before, f.view.Weeks())
	assert.False(t, f.view.IsUpdating(f.itemA))
}

func TestCreateWeekReplacesTemporaryID(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, domain.RoleSpecialist)
	f.gate()

	done := make(chan *domain.WeekWithItems, 1)
	go func() {
		created, err := f.view.CreateWeek(ctx, domain.WeekInput{WeekNumber: 3, Theme: " Rest ", StartDate: day(15), EndDate: day(21)})
		assert.NoError(t, err)
		done <- created
	}()
	require.Equal(t, "create_week", <-f.store.started)

	weeks := f.view.Weeks()
	require.Len(t, weeks, 3)
	tempID := weeks[2].ID
	assert.Equal(t, "Rest", weeks[2].Theme)
	assert.True(t, f.view.IsUpdating(tempID))

	// Items cannot be added before the week has a server id
	_, err := f.view.CreateItem(ctx, tempID, domain.ItemInput{Title: "Nap"})
	assert.ErrorIs(t, err, ErrMutationInProgress)

	f.store.gate <- struct{}{}
	created := <-done
	require.NotNil(t, created)

	weeks = f.view.Weeks()
	require.Len(t, weeks, 3)
	assert.Equal(t, created.ID, weeks[2].ID)
	assert.NotEqual(t, tempID, weeks[2].ID)
	assert.NotNil(t, weeks[2].Items)
	assert.Empty(t, weeks[2].Items)
	assert.False(t, f.view.IsUpdating(created.ID))
}

func TestCreateAndEditItems(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, domain.RoleSuperAdmin)

	created, err := f.view.CreateItem(ctx, f.week2, domain.ItemInput{Title: "Call a friend"})
	require.NoError(t, err)
	assert.False(t, created.Completed)

	week, _ := f.view.Week(f.week2)
	require.Len(t, week.Items, 2)
	assert.Equal(t, created.ID, week.Items[1].ID)

	updated, err := f.view.UpdateItem(ctx, f.week2, created.ID, domain.ItemPatch{Title: ptr("Call two friends")})
	require.NoError(t, err)
	assert.Equal(t, "Call two friends", updated.Title)

	require.NoError(t, f.view.DeleteItem(ctx, f.week2, created.ID))
	week, _ = f.view.Week(f.week2)
	require.Len(t, week.Items, 1)

	saved, err := f.view.UpdateWeek(ctx, f.week2, domain.WeekPatch{WeekNumber: ptr(7)})
	require.NoError(t, err)
	assert.Equal(t, 7, saved.WeekNumber)
	weeks := f.view.Weeks()
	assert.Equal(t, f.week2, weeks[1].ID)
}

func TestCompletionRefetchesServerProgress(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, domain.RoleUser)

	f.store.mu.Lock()
	f.store.progressErr = nil
	f.store.summary = &domain.ProgressSummary{CompletedCount: 2, TotalCount: 3, OverallCompletionPercentage: 67}
	f.store.mu.Unlock()
	require.NoError(t, f.view.Load(ctx))
	assert.Equal(t, progress.SourceServer, f.view.Progress().Source)

	f.store.mu.Lock()
	f.store.summary = &domain.ProgressSummary{CompletedCount: 3, TotalCount: 3, OverallCompletionPercentage: 100, CurrentStreak: 1}
	f.store.mu.Unlock()

	_, err := f.view.SetCompletion(ctx, f.week1, f.itemB, true)
	require.NoError(t, err)
	require.NotNil(t, f.view.Summary())
	assert.Equal(t, 1, f.view.Summary().CurrentStreak)
	assert.Equal(t, progress.OverallProgress{CompletedCount: 3, TotalCount: 3, Percentage: 100, Source: progress.SourceServer}, f.view.Progress())

	// Refetch failure falls back to local computation
	f.store.mu.Lock()
	f.store.progressErr = errors.New("503")
	f.store.mu.Unlock()

	_, err = f.view.ToggleCompletion(ctx, f.week1, f.itemB)
	require.NoError(t, err)
	assert.Nil(t, f.view.Summary())
	assert.Equal(t, progress.OverallProgress{CompletedCount: 2, TotalCount: 3, Percentage: 67, Source: progress.SourceLocal}, f.view.Progress())
}

func TestClosedViewDiscardsLateResponses(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, domain.RoleUser)
	f.gate()

	done := make(chan error, 1)
	go func() {
		_, err := f.view.SetCompletion(ctx, f.week1, f.itemB, true)
		done <- err
	}()
	require.Equal(t, "set_completion", <-f.store.started)

	f.view.Close()
	f.store.setFail(ErrMutationRejected)
	f.store.gate <- struct{}{}

	assert.ErrorIs(t, <-done, ErrViewClosed)
	assert.Empty(t, f.notices.all())

	_, err := f.view.SetCompletion(ctx, f.week1, f.itemA, false)
	assert.ErrorIs(t, err, ErrViewClosed)
	assert.ErrorIs(t, f.view.Load(ctx), ErrViewClosed)
}

func TestServerProgressWithheldWhileCompletionsPending(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, domain.RoleUser)
	f.serverSummary(t, &domain.ProgressSummary{CompletedCount: 2, TotalCount: 3, OverallCompletionPercentage: 67})
	calls := f.store.progressCallCount()
	f.gate()

	done := make(chan error, 2)
	go func() {
		_, err := f.view.SetCompletion(ctx, f.week1, f.itemB, true)
		done <- err
	}()
	require.Equal(t, "set_completion", <-f.store.started)
	go func() {
		_, err := f.view.SetCompletion(ctx, f.week2, f.itemC, false)
		done <- err
	}()
	require.Equal(t, "set_completion", <-f.store.started)

	// Only one of the two changes has reached the server aggregate
	f.store.setSummary(&domain.ProgressSummary{CompletedCount: 3, TotalCount: 3, OverallCompletionPercentage: 100})
	f.store.gate <- struct{}{}
	require.NoError(t, <-done)

	assert.Equal(t, calls, f.store.progressCallCount(), "no refetch while a change is pending")
	assert.Nil(t, f.view.Summary())
	local := 0
	for _, w := range f.view.Weeks() {
		wp, ok := f.view.WeekProgress(w.ID)
		require.True(t, ok)
		local += wp.CompletedCount
	}
	assert.Equal(t, progress.OverallProgress{CompletedCount: local, TotalCount: 3, Percentage: 67, Source: progress.SourceLocal}, f.view.Progress())
	assert.Equal(t, 2, local)

	f.store.setSummary(&domain.ProgressSummary{CompletedCount: 2, TotalCount: 3, OverallCompletionPercentage: 67, CurrentStreak: 1})
	f.store.gate <- struct{}{}
	require.NoError(t, <-done)

	assert.Equal(t, calls+1, f.store.progressCallCount())
	require.NotNil(t, f.view.Summary())
	assert.Equal(t, 1, f.view.Summary().CurrentStreak)
	assert.Equal(t, progress.OverallProgress{CompletedCount: 2, TotalCount: 3, Percentage: 67, Source: progress.SourceServer}, f.view.Progress())
}

func TestOutdatedProgressRefetchIsDiscarded(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, domain.RoleUser)
	f.serverSummary(t, &domain.ProgressSummary{CompletedCount: 2, TotalCount: 3, OverallCompletionPercentage: 67})

	f.store.mu.Lock()
	f.store.progressHold = make(chan chan struct{}, 2)
	f.store.mu.Unlock()

	f.store.setSummary(&domain.ProgressSummary{CompletedCount: 3, TotalCount: 3, OverallCompletionPercentage: 100, CurrentStreak: 1})
	first := make(chan error, 1)
	go func() {
		_, err := f.view.SetCompletion(ctx, f.week1, f.itemB, true)
		first <- err
	}()
	releaseFirst := <-f.store.progressHold

	f.store.setSummary(&domain.ProgressSummary{CompletedCount: 2, TotalCount: 3, OverallCompletionPercentage: 67, CurrentStreak: 2})
	second := make(chan error, 1)
	go func() {
		_, err := f.view.SetCompletion(ctx, f.week2, f.itemC, false)
		second <- err
	}()
	releaseSecond := <-f.store.progressHold

	close(releaseSecond)
	require.NoError(t, <-second)
	require.NotNil(t, f.view.Summary())
	assert.Equal(t, 2, f.view.Summary().CurrentStreak)

	close(releaseFirst)
	require.NoError(t, <-first)
	require.NotNil(t, f.view.Summary())
	assert.Equal(t, 2, f.view.Summary().CurrentStreak)
	assert.Equal(t, 2, f.view.Progress().CompletedCount)
}

func TestPendingWeekChangesReserveWeekNumbers(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, domain.RoleAdmin)
	before := f.view.Weeks()
	f.gate()

	done := make(chan error, 1)
	go func() { done <- f.view.DeleteWeek(ctx, f.week1) }()
	require.Equal(t, "delete_week", <-f.store.started)

	_, err := f.view.CreateWeek(ctx, domain.WeekInput{WeekNumber: 1, Theme: "Fresh start", StartDate: day(1), EndDate: day(7)})
	assert.ErrorIs(t, err, ErrMutationInProgress)
	_, err = f.view.UpdateWeek(ctx, f.week2, domain.WeekPatch{WeekNumber: ptr(1)})
	assert.ErrorIs(t, err, ErrMutationInProgress)
	assert.Equal(t, 1, f.store.mutationCount())

	f.store.setFail(ErrNetworkUnavailable)
	f.store.gate <- struct{}{}
	assert.ErrorIs(t, <-done, ErrNetworkUnavailable)

	weeks := f.view.Weeks()
	assert.Equal(t, before, weeks)
	seen := map[int]bool{}
	for _, w := range weeks {
		assert.False(t, seen[w.WeekNumber], "week number %d held twice", w.WeekNumber)
		seen[w.WeekNumber] = true
	}

	// Once restored, the number is taken again
	_, err = f.view.CreateWeek(ctx, domain.WeekInput{WeekNumber: 1, Theme: "Fresh start", StartDate: day(1), EndDate: day(7)})
	fields, ok := validation.Fields(err)
	require.True(t, ok)
	assert.Contains(t, fields, "weekNumber")
}
