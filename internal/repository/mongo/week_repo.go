// internal/repository/mongo/week_repo.go
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

const weekCollectionName = "challenge_weeks"

// mongoWeekRepository implements repository.WeekRepository
type mongoWeekRepository struct {
	collection *mongo.Collection
}

// NewMongoWeekRepository creates a new Week repository backed by MongoDB.
func NewMongoWeekRepository(db *mongo.Database) repository.WeekRepository {
	return &mongoWeekRepository{
		collection: db.Collection(weekCollectionName),
	}
}

// Create inserts a new week. The unique index on weekNumber turns a
// concurrent duplicate into repository.ErrDuplicateKey.
func (r *mongoWeekRepository) Create(ctx context.Context, week *domain.Week) (primitive.ObjectID, error) {
	if week.WeekNumber <= 0 || week.Theme == "" {
		return primitive.NilObjectID, errors.New("week requires a positive weekNumber and a theme")
	}
	week.ID = primitive.NewObjectID()
	now := time.Now().UTC()
	week.CreatedAt = now
	week.UpdatedAt = now

	result, err := r.collection.InsertOne(ctx, week)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return primitive.NilObjectID, repository.ErrDuplicateKey
		}
		return primitive.NilObjectID, err
	}
	insertedID, ok := result.InsertedID.(primitive.ObjectID)
	if !ok {
		return primitive.NilObjectID, errors.New("failed to convert inserted week ID")
	}
	return insertedID, nil
}

// GetByID retrieves a single week by its ID.
func (r *mongoWeekRepository) GetByID(ctx context.Context, id primitive.ObjectID) (*domain.Week, error) {
	return r.findOne(ctx, bson.M{"_id": id})
}

// GetByWeekNumber retrieves the week holding the given number.
func (r *mongoWeekRepository) GetByWeekNumber(ctx context.Context, weekNumber int) (*domain.Week, error) {
	return r.findOne(ctx, bson.M{"weekNumber": weekNumber})
}

func (r *mongoWeekRepository) findOne(ctx context.Context, filter bson.M) (*domain.Week, error) {
	var week domain.Week
	err := r.collection.FindOne(ctx, filter).Decode(&week)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	return &week, nil
}

// List retrieves every week ordered by week number.
func (r *mongoWeekRepository) List(ctx context.Context) ([]domain.Week, error) {
	var weeks []domain.Week
	findOptions := options.Find().SetSort(bson.D{{Key: "weekNumber", Value: 1}})

	cursor, err := r.collection.Find(ctx, bson.M{}, findOptions)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	if err = cursor.All(ctx, &weeks); err != nil {
		return nil, err
	}
	if err = cursor.Err(); err != nil {
		return nil, err
	}
	return weeks, nil
}

// Update writes the editable fields of a week and refreshes UpdatedAt.
func (r *mongoWeekRepository) Update(ctx context.Context, week *domain.Week) error {
	if week.ID == primitive.NilObjectID {
		return errors.New("week ID is required for update")
	}

	week.UpdatedAt = time.Now().UTC()
	filter := bson.M{"_id": week.ID}
	update := bson.M{
		"$set": bson.M{
			"weekNumber": week.WeekNumber,
			"theme":      week.Theme,
			"startDate":  week.StartDate,
			"endDate":    week.EndDate,
			"updatedAt":  week.UpdatedAt,
			// createdBy and createdAt never change
		},
	}

	result, err := r.collection.UpdateOne(ctx, filter, update)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return repository.ErrDuplicateKey
		}
		return err
	}
	if result.MatchedCount == 0 {
		return repository.ErrNotFound
	}
	return nil
}

// Delete removes a week document. Children are removed by the service.
func (r *mongoWeekRepository) Delete(ctx context.Context, id primitive.ObjectID) error {
	result, err := r.collection.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return err
	}
	if result.DeletedCount == 0 {
		return repository.ErrNotFound
	}
	return nil
}

// EnsureWeekIndexes creates necessary indexes for the weeks collection.
func EnsureWeekIndexes(ctx context.Context, collection *mongo.Collection) {
	indexes := []mongo.IndexModel{
		{
			// Week numbers are unique within the catalog
			Keys:    bson.D{{Key: "weekNumber", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
		{
			Keys:    bson.D{{Key: "theme", Value: "text"}},
			Options: options.Index().SetName("week_theme_text"),
		},
	}

	if _, err := collection.Indexes().CreateMany(ctx, indexes); err != nil {
		log.Printf("WARN: Failed to create indexes for collection %s: %v", collection.Name(), err)
	}
}
