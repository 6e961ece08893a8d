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

type resourceRepository struct {
	db *DB
}

func NewResourceRepository(db *DB) repository.ResourceRepository {
	return &resourceRepository{db: db}
}

func (repo *resourceRepository) Create(_ context.Context, resource *domain.WeekResource) (primitive.ObjectID, error) {
	if resource.WeekID == primitive.NilObjectID ||
		resource.UploadedBy == primitive.NilObjectID ||
		resource.S3ObjectKey == "" {
		return primitive.NilObjectID, errors.New("resource requires weekId, uploadedBy, and s3ObjectKey")
	}

	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	for _, r := range repo.db.resources {
		if r.S3ObjectKey == resource.S3ObjectKey {
			return primitive.NilObjectID, repository.ErrDuplicateKey
		}
	}

	resource.ID = primitive.NewObjectID()
	resource.UploadedAt = time.Now().UTC()
	stored := *resource
	repo.db.resources[resource.ID] = &stored
	return resource.ID, nil
}

func (repo *resourceRepository) GetByID(_ context.Context, id primitive.ObjectID) (*domain.WeekResource, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	if r, ok := repo.db.resources[id]; ok {
		found := *r
		return &found, nil
	}
	return nil, repository.ErrNotFound
}

func (repo *resourceRepository) GetByWeekID(_ context.Context, weekID primitive.ObjectID) ([]domain.WeekResource, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	resources := make([]domain.WeekResource, 0)
	for _, r := range repo.db.resources {
		if r.WeekID == weekID {
			resources = append(resources, *r)
		}
	}
	sort.Slice(resources, func(i, j int) bool { return resources[i].UploadedAt.After(resources[j].UploadedAt) })
	return resources, nil
}

func (repo *resourceRepository) Delete(_ context.Context, id primitive.ObjectID) error {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	if _, ok := repo.db.resources[id]; !ok {
		return repository.ErrNotFound
	}
	delete(repo.db.resources, id)
	return nil
}

func (repo *resourceRepository) DeleteByWeekID(_ context.Context, weekID primitive.ObjectID) (int64, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	var n int64
	for id, r := range repo.db.resources {
		if r.WeekID == weekID {
			delete(repo.db.resources, id)
			n++
		}
	}
	return n, nil
}
