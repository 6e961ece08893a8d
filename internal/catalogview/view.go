// Package catalogview keeps a local, optimistically updated copy of the
// challenge catalog for one session and reconciles it against a Store.
package catalogview

import (
	"alcyxob/wellbeing-app/internal/domain"
	"alcyxob/wellbeing-app/internal/progress"
	"context"
	"log"
	"sort"
	"strconv"
	"sync"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// View is safe for concurrent use. Store calls are made without holding the
// lock, so entries other than the one being changed stay usable.
type View struct {
	store    Store
	actor    domain.Actor
	notifier Notifier

	mu       sync.Mutex
	weeks    []domain.WeekWithItems // ordered by week number
	summary  *domain.ProgressSummary
	updating map[string]struct{}
	closed   bool

	// The server aggregate is withheld while progressPending > 0. settled is
	// the aggregate from before the first of those mutations; it is restored
	// when all of them fail, and dropped once one of them commits.
	progressPending int
	settled         *domain.ProgressSummary
	settledValid    bool
	progressGen     uint64 // bumped on every change that can outdate a refetch
}

// Option configures a View.
type Option func(*View)

// WithNotifier routes failure notices to n.
func WithNotifier(n Notifier) Option {
	return func(v *View) {
		if n != nil {
			v.notifier = n
		}
	}
}

// New creates an empty view acting as actor. Call Load to populate it.
func New(store Store, actor domain.Actor, opts ...Option) *View {
	v := &View{
		store:    store,
		actor:    actor,
		notifier: discardNotifier{},
		updating: make(map[string]struct{}),
	}
	for _, opt := range opts {
		opt(v)
	}
	return v
}

func weekKey(id primitive.ObjectID) string { return "week:" + id.Hex() }
func itemKey(id primitive.ObjectID) string { return "item:" + id.Hex() }

// weekNumberKey reserves a week number while a week holding it is changed or
// deleted, so the number cannot be claimed twice if that change is undone.
func weekNumberKey(n int) string { return "weeknum:" + strconv.Itoa(n) }

// Load replaces the local catalog with the store's. It refuses to run while
// any mutation is pending. A failed progress fetch is not an error: progress
// is then computed locally.
func (v *View) Load(ctx context.Context) error {
	v.mu.Lock()
	if v.closed {
		v.mu.Unlock()
		return ErrViewClosed
	}
	if len(v.updating) > 0 {
		v.mu.Unlock()
		return ErrMutationInProgress
	}
	v.mu.Unlock()

	weeks, err := v.store.FetchCatalog(ctx)
	if err != nil {
		return classify(err)
	}
	summary, err := v.store.FetchProgress(ctx)
	if err != nil {
		log.Printf("WARN: progress unavailable, computing locally: %v", err)
		summary = nil
	}

	v.mu.Lock()
	defer v.mu.Unlock()
	if v.closed {
		return ErrViewClosed
	}
	v.weeks = make([]domain.WeekWithItems, len(weeks))
	for i := range weeks {
		v.weeks[i] = weeks[i].Clone()
		if v.weeks[i].Items == nil {
			v.weeks[i].Items = []domain.ChallengeItem{}
		}
	}
	v.sortWeeks()
	v.summary = summary
	v.progressGen++
	return nil
}

// Close detaches the view. Responses still in flight are discarded and
// further mutations fail with ErrViewClosed.
func (v *View) Close() {
	v.mu.Lock()
	v.closed = true
	v.mu.Unlock()
}

// --- Reads ---

// Weeks returns a deep copy of the catalog.
func (v *View) Weeks() []domain.WeekWithItems {
	v.mu.Lock()
	defer v.mu.Unlock()
	return cloneWeeks(v.weeks)
}

// Week returns a copy of one week.
func (v *View) Week(weekID primitive.ObjectID) (domain.WeekWithItems, bool) {
	v.mu.Lock()
	defer v.mu.Unlock()
	i := v.weekIndex(weekID)
	if i < 0 {
		return domain.WeekWithItems{}, false
	}
	return v.weeks[i].Clone(), true
}

// Progress is the overall progress, preferring the server aggregate when one
// is current.
func (v *View) Progress() progress.OverallProgress {
	v.mu.Lock()
	defer v.mu.Unlock()
	return progress.ComputeOverallProgress(v.weeks, v.summary)
}

// Summary returns the last server aggregate, or nil when it was invalidated
// and not yet refetched.
func (v *View) Summary() *domain.ProgressSummary {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.summary == nil {
		return nil
	}
	s := *v.summary
	return &s
}

// WeekProgress is always computed from the local items of the week.
func (v *View) WeekProgress(weekID primitive.ObjectID) (progress.WeekProgress, bool) {
	v.mu.Lock()
	defer v.mu.Unlock()
	i := v.weekIndex(weekID)
	if i < 0 {
		return progress.WeekProgress{}, false
	}
	return progress.ComputeWeekProgress(v.weeks[i].Items), true
}

// Filter narrows a copy of the catalog by search text and completion status.
func (v *View) Filter(search string, status progress.StatusFilter) []domain.WeekWithItems {
	v.mu.Lock()
	defer v.mu.Unlock()
	return progress.FilterByQueryAndStatus(v.weeks, search, status)
}

// IsUpdating reports whether a mutation on the week or item with this id is pending.
func (v *View) IsUpdating(id primitive.ObjectID) bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	_, week := v.updating[weekKey(id)]
	_, item := v.updating[itemKey(id)]
	return week || item
}

// CanManageChallenges decides whether management affordances are offered.
// Mutations check the same predicate again.
func (v *View) CanManageChallenges() bool {
	return v.actor.CanManageChallenges()
}

// --- State helpers; callers hold v.mu ---

func (v *View) weekIndex(id primitive.ObjectID) int {
	for i := range v.weeks {
		if v.weeks[i].ID == id {
			return i
		}
	}
	return -1
}

func (v *View) itemIndex(weekIdx int, itemID primitive.ObjectID) int {
	for j := range v.weeks[weekIdx].Items {
		if v.weeks[weekIdx].Items[j].ID == itemID {
			return j
		}
	}
	return -1
}

// findItem locates an item that must belong to weekID.
func (v *View) findItem(weekID, itemID primitive.ObjectID) (int, int, bool) {
	i := v.weekIndex(weekID)
	if i < 0 {
		return -1, -1, false
	}
	j := v.itemIndex(i, itemID)
	return i, j, j >= 0
}

func (v *View) weekNumberTaken(n int, self primitive.ObjectID) bool {
	for i := range v.weeks {
		if v.weeks[i].ID != self && v.weeks[i].WeekNumber == n {
			return true
		}
	}
	return false
}

func (v *View) sortWeeks() {
	sort.SliceStable(v.weeks, func(i, j int) bool { return v.weeks[i].WeekNumber < v.weeks[j].WeekNumber })
}

func cloneWeeks(weeks []domain.WeekWithItems) []domain.WeekWithItems {
	out := make([]domain.WeekWithItems, len(weeks))
	for i := range weeks {
		out[i] = weeks[i].Clone()
	}
	return out
}
