package service

import (
	"alcyxob/wellbeing-app/internal/domain"
	"alcyxob/wellbeing-app/internal/repository/memory"
	"context"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type fakeStorage struct {
	mu      sync.Mutex
	deleted []string
}

func (f *fakeStorage) GeneratePresignedUploadURL(_ context.Context, objectKey, _ string, _ time.Duration) (string, error) {
	return "https://bucket.test/put/" + objectKey, nil
}

func (f *fakeStorage) GeneratePresignedDownloadURL(_ context.Context, objectKey string, _ time.Duration) (string, error) {
	return "https://bucket.test/get/" + objectKey, nil
}

func (f *fakeStorage) DeleteObject(_ context.Context, objectKey string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deleted = append(f.deleted, objectKey)
	return nil
}

func (f *fakeStorage) DeleteObjects(_ context.Context, objectKeys []string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deleted = append(f.deleted, objectKeys...)
	return nil
}

func (f *fakeStorage) Deleted() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := append([]string(nil), f.deleted...)
	sort.Strings(out)
	return out
}

type testEnv struct {
	db         *memory.DB
	storage    *fakeStorage
	challenges ChallengeService
	progress   *progressService
	resources  ResourceService
	auth       AuthService
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	db := memory.NewDB()
	weeks := memory.NewWeekRepository(db)
	items := memory.NewChallengeRepository(db)
	completions := memory.NewCompletionRepository(db)
	resources := memory.NewResourceRepository(db)
	store := &fakeStorage{}

	return &testEnv{
		db:         db,
		storage:    store,
		challenges: NewChallengeService(weeks, items, completions, resources, store),
		progress:   NewProgressService(weeks, items, completions).(*progressService),
		resources:  NewResourceService(weeks, resources, store),
		auth:       NewAuthService(memory.NewUserRepository(db), "test-secret", time.Hour),
	}
}

func actorWith(role domain.Role) domain.Actor {
	return domain.Actor{UserID: primitive.NewObjectID(), Role: role}
}

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func weekInput(n int, theme string) domain.WeekInput {
	start := day(2024, time.January, 1).AddDate(0, 0, 7*(n-1))
	return domain.WeekInput{WeekNumber: n, Theme: theme, StartDate: start, EndDate: start.AddDate(0, 0, 6)}
}

func (e *testEnv) seedWeek(t *testing.T, n int, theme string, titles ...string) (*domain.WeekWithItems, []domain.ChallengeItem) {
	t.Helper()
	admin := actorWith(domain.RoleAdmin)
	week, err := e.challenges.CreateWeek(context.Background(), admin, weekInput(n, theme))
	require.NoError(t, err)

	items := make([]domain.ChallengeItem, 0, len(titles))
	for _, title := range titles {
		item, err := e.challenges.CreateItem(context.Background(), admin, week.ID, domain.ItemInput{Title: title})
		require.NoError(t, err)
		items = append(items, *item)
	}
	return week, items
}

func ptr[T any](v T) *T { return &v }
