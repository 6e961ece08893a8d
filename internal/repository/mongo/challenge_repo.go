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

const challengeCollectionName = "challenge_items"

// mongoChallengeRepository implements repository.ChallengeRepository
type mongoChallengeRepository struct {
	collection *mongo.Collection
}

// NewMongoChallengeRepository creates a new challenge item repository backed by MongoDB.
func NewMongoChallengeRepository(db *mongo.Database) repository.ChallengeRepository {
	return &mongoChallengeRepository{
		collection: db.Collection(challengeCollectionName),
	}
}

// Create inserts a new challenge item into the database.
func (r *mongoChallengeRepository) Create(ctx context.Context, item *domain.ChallengeItem) (primitive.ObjectID, error) {
	if item.Title == "" || item.WeekID == primitive.NilObjectID {
		return primitive.NilObjectID, errors.New("challenge title and week ID are required")
	}

	item.ID = primitive.NewObjectID()
	now := time.Now().UTC()
	item.CreatedAt = now
	item.UpdatedAt = now

	result, err := r.collection.InsertOne(ctx, item)
	if err != nil {
		return primitive.NilObjectID, err
	}

	insertedID, ok := result.InsertedID.(primitive.ObjectID)
	if !ok {
		return primitive.NilObjectID, errors.New("failed to convert inserted ID")
	}
	return insertedID, nil
}

// GetByID retrieves a challenge item by its ID.
func (r *mongoChallengeRepository) GetByID(ctx context.Context, id primitive.ObjectID) (*domain.ChallengeItem, error) {
	var item domain.ChallengeItem
	err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&item)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	return &item, nil
}

// GetByWeekID retrieves the items of one week in display order.
func (r *mongoChallengeRepository) GetByWeekID(ctx context.Context, weekID primitive.ObjectID) ([]domain.ChallengeItem, error) {
	return r.find(ctx, bson.M{"weekId": weekID})
}

// ListAll retrieves every challenge item in display order.
func (r *mongoChallengeRepository) ListAll(ctx context.Context) ([]domain.ChallengeItem, error) {
	return r.find(ctx, bson.M{})
}

func (r *mongoChallengeRepository) find(ctx context.Context, filter bson.M) ([]domain.ChallengeItem, error) {
	var items []domain.ChallengeItem
	findOptions := options.Find().SetSort(bson.D{{Key: "sequence", Value: 1}, {Key: "createdAt", Value: 1}})

	cursor, err := r.collection.Find(ctx, filter, findOptions)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	if err = cursor.All(ctx, &items); err != nil {
		return nil, err
	}
	if err = cursor.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

// NextSequence returns the sequence number for an item appended to the week.
func (r *mongoChallengeRepository) NextSequence(ctx context.Context, weekID primitive.ObjectID) (int, error) {
	var last domain.ChallengeItem
	findOptions := options.FindOne().SetSort(bson.D{{Key: "sequence", Value: -1}})

	err := r.collection.FindOne(ctx, bson.M{"weekId": weekID}, findOptions).Decode(&last)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return 1, nil
		}
		return 0, err
	}
	return last.Sequence + 1, nil
}

// Update modifies the title and description of an existing item.
// The week an item belongs to never changes.
func (r *mongoChallengeRepository) Update(ctx context.Context, item *domain.ChallengeItem) error {
	if item.ID == primitive.NilObjectID {
		return errors.New("challenge ID is required for update")
	}
	if item.Title == "" {
		return errors.New("challenge title cannot be empty")
	}

	item.UpdatedAt = time.Now().UTC()
	filter := bson.M{"_id": item.ID}
	update := bson.M{
		"$set": bson.M{
			"title":       item.Title,
			"description": item.Description,
			"updatedAt":   item.UpdatedAt,
		},
	}

	result, err := r.collection.UpdateOne(ctx, filter, update)
	if err != nil {
		return err
	}
	if result.MatchedCount == 0 {
		return repository.ErrNotFound
	}
	return nil
}

// Delete removes a single challenge item.
func (r *mongoChallengeRepository) Delete(ctx context.Context, id primitive.ObjectID) error {
	result, err := r.collection.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return err
	}
	if result.DeletedCount == 0 {
		return repository.ErrNotFound
	}
	return nil
}

// DeleteByWeekID removes every item of a week and reports how many went.
func (r *mongoChallengeRepository) DeleteByWeekID(ctx context.Context, weekID primitive.ObjectID) (int64, error) {
	result, err := r.collection.DeleteMany(ctx, bson.M{"weekId": weekID})
	if err != nil {
		return 0, err
	}
	return result.DeletedCount, nil
}

// EnsureChallengeIndexes creates necessary indexes for the challenge items collection.
func EnsureChallengeIndexes(ctx context.Context, collection *mongo.Collection) {
	indexes := []mongo.IndexModel{
		{
			// Items of a week in display order
			Keys:    bson.D{{Key: "weekId", Value: 1}, {Key: "sequence", Value: 1}},
			Options: options.Index(),
		},
		{
			Keys:    bson.D{{Key: "title", Value: "text"}, {Key: "description", Value: "text"}},
			Options: options.Index().SetName("challenge_text_search"),
		},
	}

	if _, err := collection.Indexes().CreateMany(ctx, indexes); err != nil {
		log.Printf("WARN: Failed to create indexes for collection %s: %v", collection.Name(), err)
	}
}
