package catalogview

import (
	"alcyxob/wellbeing-app/internal/domain"
	"context"
	"sync"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// fakeStore answers mutations from canned state. When gate is set, every
// mutation announces itself on started and waits for a value on gate. When
// progressHold is set, every progress fetch reads the summary, hands over a
// release channel and answers once it is closed.
type fakeStore struct {
	mu          sync.Mutex
	catalog     []domain.WeekWithItems
	summary     *domain.ProgressSummary
	progressErr error
	fail        error

	gate    chan struct{}
	started chan string

	progressHold chan chan struct{}

	mutations     []string
	progressCalls int
}

func (s *fakeStore) record(op string) error {
	s.mu.Lock()
	s.mutations = append(s.mutations, op)
	gate, started := s.gate, s.started
	s.mu.Unlock()

	if gate != nil {
		started <- op
		<-gate
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	return s.fail
}

func (s *fakeStore) setFail(err error) {
	s.mu.Lock()
	s.fail = err
	s.mu.Unlock()
}

func (s *fakeStore) mutationCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.mutations)
}

func (s *fakeStore) FetchCatalog(context.Context) ([]domain.WeekWithItems, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return cloneWeeks(s.catalog), nil
}

func (s *fakeStore) FetchProgress(context.Context) (*domain.ProgressSummary, error) {
	s.mu.Lock()
	s.progressCalls++
	err := s.progressErr
	var out *domain.ProgressSummary
	if s.summary != nil {
		c := *s.summary
		out = &c
	}
	hold := s.progressHold
	s.mu.Unlock()

	if hold != nil {
		release := make(chan struct{})
		hold <- release
		<-release
	}
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (s *fakeStore) setSummary(summary *domain.ProgressSummary) {
	s.mu.Lock()
	s.summary = summary
	s.mu.Unlock()
}

func (s *fakeStore) progressCallCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.progressCalls
}

func (s *fakeStore) CreateWeek(_ context.Context, input domain.WeekInput) (*domain.WeekWithItems, error) {
	if err := s.record("create_week"); err != nil {
		return nil, err
	}
	return &domain.WeekWithItems{
		Week: domain.Week{
			ID:         primitive.NewObjectID(),
			WeekNumber: input.WeekNumber,
			Theme:      input.Theme,
			StartDate:  input.StartDate,
			EndDate:    input.EndDate,
			CreatedAt:  time.Now().UTC(),
		},
		Items: []domain.ChallengeItem{},
	}, nil
}

func (s *fakeStore) UpdateWeek(_ context.Context, weekID primitive.ObjectID, patch domain.WeekPatch) (*domain.Week, error) {
	if err := s.record("update_week"); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, w := range s.catalog {
		if w.ID == weekID {
			in := patch.Apply(w.Week)
			saved := w.Week
			saved.WeekNumber, saved.Theme, saved.StartDate, saved.EndDate = in.WeekNumber, in.Theme, in.StartDate, in.EndDate
			return &saved, nil
		}
	}
	return nil, ErrNotFound
}

func (s *fakeStore) DeleteWeek(context.Context, primitive.ObjectID) error {
	return s.record("delete_week")
}

func (s *fakeStore) CreateItem(_ context.Context, weekID primitive.ObjectID, input domain.ItemInput) (*domain.ChallengeItem, error) {
	if err := s.record("create_item"); err != nil {
		return nil, err
	}
	return &domain.ChallengeItem{ID: primitive.NewObjectID(), WeekID: weekID, Title: input.Title, Description: input.Description, Sequence: 99}, nil
}

func (s *fakeStore) UpdateItem(_ context.Context, weekID, itemID primitive.ObjectID, patch domain.ItemPatch) (*domain.ChallengeItem, error) {
	if err := s.record("update_item"); err != nil {
		return nil, err
	}
	in := patch.Apply(domain.ChallengeItem{})
	return &domain.ChallengeItem{ID: itemID, WeekID: weekID, Title: in.Title, Description: in.Description}, nil
}

func (s *fakeStore) DeleteItem(context.Context, primitive.ObjectID, primitive.ObjectID) error {
	return s.record("delete_item")
}

func (s *fakeStore) SetCompletion(_ context.Context, weekID, itemID primitive.ObjectID, completed bool) (*domain.ChallengeItem, error) {
	if err := s.record("set_completion"); err != nil {
		return nil, err
	}
	return &domain.ChallengeItem{ID: itemID, WeekID: weekID, Completed: completed}, nil
}

type noticeRecorder struct {
	mu      sync.Mutex
	notices []Notice
}

func (r *noticeRecorder) Notify(n Notice) {
	r.mu.Lock()
	r.notices = append(r.notices, n)
	r.mu.Unlock()
}

func (r *noticeRecorder) all() []Notice {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Notice(nil), r.notices...)
}
