package mongo

import (
	"alcyxob/wellbeing-app/internal/domain"
	"alcyxob/wellbeing-app/internal/repository"
	"context"
	"errors"
	"log"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const resourceCollectionName = "week_resources"

// mongoResourceRepository implements repository.ResourceRepository
type mongoResourceRepository struct {
	collection *mongo.Collection
}

// NewMongoResourceRepository creates a new week resource repository backed by MongoDB.
func NewMongoResourceRepository(db *mongo.Database) repository.ResourceRepository {
	return &mongoResourceRepository{
		collection: db.Collection(resourceCollectionName),
	}
}

// Create inserts new resource metadata into the database.
func (r *mongoResourceRepository) Create(ctx context.Context, resource *domain.WeekResource) (primitive.ObjectID, error) {
	if resource.WeekID == primitive.NilObjectID ||
		resource.UploadedBy == primitive.NilObjectID ||
		resource.S3ObjectKey == "" {
		return primitive.NilObjectID, errors.New("resource requires weekId, uploadedBy, and s3ObjectKey")
	}

	resource.ID = primitive.NewObjectID()
	resource.UploadedAt = time.Now().UTC()

	result, err := r.collection.InsertOne(ctx, resource)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return primitive.NilObjectID, repository.ErrDuplicateKey
		}
		return primitive.NilObjectID, err
	}

	insertedID, ok := result.InsertedID.(primitive.ObjectID)
	if !ok {
		return primitive.NilObjectID, errors.New("failed to convert inserted ID")
	}
	return insertedID, nil
}

// GetByID retrieves resource metadata by its ID.
func (r *mongoResourceRepository) GetByID(ctx context.Context, id primitive.ObjectID) (*domain.WeekResource, error) {
	var resource domain.WeekResource
	err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&resource)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	return &resource, nil
}

// GetByWeekID retrieves the resources attached to a week, newest first.
func (r *mongoResourceRepository) GetByWeekID(ctx context.Context, weekID primitive.ObjectID) ([]domain.WeekResource, error) {
	var resources []domain.WeekResource
	findOptions := options.Find().SetSort(bson.D{{Key: "uploadedAt", Value: -1}})

	cursor, err := r.collection.Find(ctx, bson.M{"weekId": weekID}, findOptions)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	if err = cursor.All(ctx, &resources); err != nil {
		return nil, err
	}
	if err = cursor.Err(); err != nil {
		return nil, err
	}
	return resources, nil
}

// Delete removes resource metadata. The S3 object is removed by the service.
func (r *mongoResourceRepository) Delete(ctx context.Context, id primitive.ObjectID) error {
	result, err := r.collection.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return err
	}
	if result.DeletedCount == 0 {
		return repository.ErrNotFound
	}
	return nil
}

// DeleteByWeekID removes all resource metadata of a week.
func (r *mongoResourceRepository) DeleteByWeekID(ctx context.Context, weekID primitive.ObjectID) (int64, error) {
	result, err := r.collection.DeleteMany(ctx, bson.M{"weekId": weekID})
	if err != nil {
		return 0, err
	}
	return result.DeletedCount, nil
}

// EnsureResourceIndexes creates necessary indexes for the resources collection.
func EnsureResourceIndexes(ctx context.Context, collection *mongo.Collection) {
	indexes := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "weekId", Value: 1}, {Key: "uploadedAt", Value: -1}},
			Options: options.Index(),
		},
		{
			// S3 keys are unique within the bucket
			Keys:    bson.D{{Key: "s3ObjectKey", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
	}

	if _, err := collection.Indexes().CreateMany(ctx, indexes); err != nil {
		log.Printf("WARN: Failed to create indexes for collection %s: %v", collection.Name(), err)
	}
}
