package memory

import (
	"alcyxob/wellbeing-app/internal/domain"
	"alcyxob/wellbeing-app/internal/repository"
	"context"
	"errors"
	"sort"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type challengeRepository struct {
	db *DB
}

func NewChallengeRepository(db *DB) repository.ChallengeRepository {
	return &challengeRepository{db: db}
}

// query must be called with the lock held.
func (repo *challengeRepository) query(match func(*domain.ChallengeItem) bool) []domain.ChallengeItem {
	items := make([]domain.ChallengeItem, 0)
	for _, item := range repo.db.items {
		if match(item) {
			items = append(items, *item)
		}
	}
	sort.Slice(items, func(i, j int) bool {
		if items[i].Sequence != items[j].Sequence {
			return items[i].Sequence < items[j].Sequence
		}
		return items[i].CreatedAt.Before(items[j].CreatedAt)
	})
	return items
}

func (repo *challengeRepository) Create(_ context.Context, item *domain.ChallengeItem) (primitive.ObjectID, error) {
	if item.Title == "" || item.WeekID == primitive.NilObjectID {
		return primitive.NilObjectID, errors.New("challenge title and week ID are required")
	}

	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	item.ID = primitive.NewObjectID()
	now := time.Now().UTC()
	item.CreatedAt = now
	item.UpdatedAt = now

	stored := *item
	stored.Completed = false
	repo.db.items[item.ID] = &stored
	return item.ID, nil
}

func (repo *challengeRepository) GetByID(_ context.Context, id primitive.ObjectID) (*domain.ChallengeItem, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	if item, ok := repo.db.items[id]; ok {
		found := *item
		return &found, nil
	}
	return nil, repository.ErrNotFound
}

func (repo *challengeRepository) GetByWeekID(_ context.Context, weekID primitive.ObjectID) ([]domain.ChallengeItem, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()
	return repo.query(func(item *domain.ChallengeItem) bool { return item.WeekID == weekID }), nil
}

func (repo *challengeRepository) ListAll(_ context.Context) ([]domain.ChallengeItem, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()
	return repo.query(func(*domain.ChallengeItem) bool { return true }), nil
}

func (repo *challengeRepository) NextSequence(_ context.Context, weekID primitive.ObjectID) (int, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	next := 1
	for _, item := range repo.db.items {
		if item.WeekID == weekID && item.Sequence >= next {
			next = item.Sequence + 1
		}
	}
	return next, nil
}

func (repo *challengeRepository) Update(_ context.Context, item *domain.ChallengeItem) error {
	if item.ID == primitive.NilObjectID {
		return errors.New("challenge ID is required for update")
	}
	if item.Title == "" {
		return errors.New("challenge title cannot be empty")
	}

	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	stored, ok := repo.db.items[item.ID]
	if !ok {
		return repository.ErrNotFound
	}
	item.UpdatedAt = time.Now().UTC()
	stored.Title = item.Title
	stored.Description = item.Description
	stored.UpdatedAt = item.UpdatedAt
	return nil
}

func (repo *challengeRepository) Delete(_ context.Context, id primitive.ObjectID) error {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	if _, ok := repo.db.items[id]; !ok {
		return repository.ErrNotFound
	}
	delete(repo.db.items, id)
	return nil
}

func (repo *challengeRepository) DeleteByWeekID(_ context.Context, weekID primitive.ObjectID) (int64, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	var n int64
	for id, item := range repo.db.items {
		if item.WeekID == weekID {
			delete(repo.db.items, id)
			n++
		}
	}
	return n, nil
}
