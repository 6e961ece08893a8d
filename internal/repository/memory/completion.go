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

type completionRepository struct {
	db *DB
}

func NewCompletionRepository(db *DB) repository.CompletionRepository {
	return &completionRepository{db: db}
}

func (repo *completionRepository) Upsert(_ context.Context, completion *domain.Completion) error {
	if completion.UserID == primitive.NilObjectID || completion.ItemID == primitive.NilObjectID {
		return errors.New("completion requires userId and itemId")
	}

	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	key := completionKey{userID: completion.UserID, itemID: completion.ItemID}
	if _, ok := repo.db.completions[key]; ok {
		return nil
	}
	if completion.CompletedAt.IsZero() {
		completion.CompletedAt = time.Now().UTC()
	}
	stored := *completion
	stored.ID = primitive.NewObjectID()
	repo.db.completions[key] = &stored
	return nil
}

func (repo *completionRepository) Delete(_ context.Context, userID, itemID primitive.ObjectID) error {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	delete(repo.db.completions, completionKey{userID: userID, itemID: itemID})
	return nil
}

func (repo *completionRepository) GetByUserID(_ context.Context, userID primitive.ObjectID) ([]domain.Completion, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	completions := make([]domain.Completion, 0)
	for key, c := range repo.db.completions {
		if key.userID == userID {
			completions = append(completions, *c)
		}
	}
	sort.Slice(completions, func(i, j int) bool { return completions[i].CompletedAt.Before(completions[j].CompletedAt) })
	return completions, nil
}

func (repo *completionRepository) DeleteByItemID(_ context.Context, itemID primitive.ObjectID) (int64, error) {
	return repo.deleteWhere(func(c *domain.Completion) bool { return c.ItemID == itemID }), nil
}

func (repo *completionRepository) DeleteByWeekID(_ context.Context, weekID primitive.ObjectID) (int64, error) {
	return repo.deleteWhere(func(c *domain.Completion) bool { return c.WeekID == weekID }), nil
}

func (repo *completionRepository) deleteWhere(match func(*domain.Completion) bool) int64 {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	var n int64
	for key, c := range repo.db.completions {
		if match(c) {
			delete(repo.db.completions, key)
			n++
		}
	}
	return n
}
