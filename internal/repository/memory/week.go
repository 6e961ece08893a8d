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

type weekRepository struct {
	db *DB
}

func NewWeekRepository(db *DB) repository.WeekRepository {
	return &weekRepository{db: db}
}

// numberTaken must be called with the lock held.
func (repo *weekRepository) numberTaken(weekNumber int, exclude primitive.ObjectID) bool {
	for id, w := range repo.db.weeks {
		if id != exclude && w.WeekNumber == weekNumber {
			return true
		}
	}
	return false
}

func (repo *weekRepository) Create(_ context.Context, week *domain.Week) (primitive.ObjectID, error) {
	if week.WeekNumber <= 0 || week.Theme == "" {
		return primitive.NilObjectID, errors.New("week requires a positive weekNumber and a theme")
	}

	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	if repo.numberTaken(week.WeekNumber, primitive.NilObjectID) {
		return primitive.NilObjectID, repository.ErrDuplicateKey
	}

	week.ID = primitive.NewObjectID()
	now := time.Now().UTC()
	week.CreatedAt = now
	week.UpdatedAt = now

	stored := *week
	repo.db.weeks[week.ID] = &stored
	return week.ID, nil
}

func (repo *weekRepository) GetByID(_ context.Context, id primitive.ObjectID) (*domain.Week, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	if w, ok := repo.db.weeks[id]; ok {
		found := *w
		return &found, nil
	}
	return nil, repository.ErrNotFound
}

func (repo *weekRepository) GetByWeekNumber(_ context.Context, weekNumber int) (*domain.Week, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	for _, w := range repo.db.weeks {
		if w.WeekNumber == weekNumber {
			found := *w
			return &found, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (repo *weekRepository) List(_ context.Context) ([]domain.Week, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	weeks := make([]domain.Week, 0, len(repo.db.weeks))
	for _, w := range repo.db.weeks {
		weeks = append(weeks, *w)
	}
	sort.Slice(weeks, func(i, j int) bool { return weeks[i].WeekNumber < weeks[j].WeekNumber })
	return weeks, nil
}

func (repo *weekRepository) Update(_ context.Context, week *domain.Week) error {
	if week.ID == primitive.NilObjectID {
		return errors.New("week ID is required for update")
	}

	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	stored, ok := repo.db.weeks[week.ID]
	if !ok {
		return repository.ErrNotFound
	}
	if repo.numberTaken(week.WeekNumber, week.ID) {
		return repository.ErrDuplicateKey
	}

	week.UpdatedAt = time.Now().UTC()
	stored.WeekNumber = week.WeekNumber
	stored.Theme = week.Theme
	stored.StartDate = week.StartDate
	stored.EndDate = week.EndDate
	stored.UpdatedAt = week.UpdatedAt
	return nil
}

func (repo *weekRepository) Delete(_ context.Context, id primitive.ObjectID) error {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	if _, ok := repo.db.weeks[id]; !ok {
		return repository.ErrNotFound
	}
	delete(repo.db.weeks, id)
	return nil
}
