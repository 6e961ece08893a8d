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

const completionCollectionName = "challenge_completions"

// mongoCompletionRepository implements repository.CompletionRepository
type mongoCompletionRepository struct {
	collection *mongo.Collection
}

// NewMongoCompletionRepository creates a new completion repository backed by MongoDB.
func NewMongoCompletionRepository(db *mongo.Database) repository.CompletionRepository {
	return &mongoCompletionRepository{
		collection: db.Collection(completionCollectionName),
	}
}

// Upsert records that the user completed the item. Completing an already
// completed item keeps the original completion time.
func (r *mongoCompletionRepository) Upsert(ctx context.Context, completion *domain.Completion) error {
	if completion.UserID == primitive.NilObjectID || completion.ItemID == primitive.NilObjectID {
		return errors.New("completion requires userId and itemId")
	}
	if completion.CompletedAt.IsZero() {
		completion.CompletedAt = time.Now().UTC()
	}

	filter := bson.M{"userId": completion.UserID, "itemId": completion.ItemID}
	update := bson.M{
		"$setOnInsert": bson.M{
			"_id":         primitive.NewObjectID(),
			"userId":      completion.UserID,
			"itemId":      completion.ItemID,
			"weekId":      completion.WeekID,
			"completedAt": completion.CompletedAt,
		},
	}

	_, err := r.collection.UpdateOne(ctx, filter, update, options.Update().SetUpsert(true))
	if err != nil {
		// Two concurrent upserts can race on the unique index; the loser is a no-op.
		if mongo.IsDuplicateKeyError(err) {
			return nil
		}
		return err
	}
	return nil
}

// Delete removes the user's completion of an item. Missing records are not an error.
func (r *mongoCompletionRepository) Delete(ctx context.Context, userID, itemID primitive.ObjectID) error {
	_, err := r.collection.DeleteOne(ctx, bson.M{"userId": userID, "itemId": itemID})
	return err
}

// GetByUserID retrieves every completion of a user, oldest first.
func (r *mongoCompletionRepository) GetByUserID(ctx context.Context, userID primitive.ObjectID) ([]domain.Completion, error) {
	var completions []domain.Completion
	findOptions := options.Find().SetSort(bson.D{{Key: "completedAt", Value: 1}})

	cursor, err := r.collection.Find(ctx, bson.M{"userId": userID}, findOptions)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	if err = cursor.All(ctx, &completions); err != nil {
		return nil, err
	}
	if err = cursor.Err(); err != nil {
		return nil, err
	}
	return completions, nil
}

// DeleteByItemID removes every user's completion of an item.
func (r *mongoCompletionRepository) DeleteByItemID(ctx context.Context, itemID primitive.ObjectID) (int64, error) {
	result, err := r.collection.DeleteMany(ctx, bson.M{"itemId": itemID})
	if err != nil {
		return 0, err
	}
	return result.DeletedCount, nil
}

// DeleteByWeekID removes every completion of every item of a week.
func (r *mongoCompletionRepository) DeleteByWeekID(ctx context.Context, weekID primitive.ObjectID) (int64, error) {
	result, err := r.collection.DeleteMany(ctx, bson.M{"weekId": weekID})
	if err != nil {
		return 0, err
	}
	return result.DeletedCount, nil
}

// EnsureCompletionIndexes creates necessary indexes for the completions collection.
func EnsureCompletionIndexes(ctx context.Context, collection *mongo.Collection) {
	indexes := []mongo.IndexModel{
		{
			// One record per user and item
			Keys:    bson.D{{Key: "userId", Value: 1}, {Key: "itemId", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
		{
			Keys:    bson.D{{Key: "userId", Value: 1}, {Key: "completedAt", Value: 1}},
			Options: options.Index(),
		},
		{
			Keys:    bson.D{{Key: "itemId", Value: 1}},
			Options: options.Index(),
		},
		{
			Keys:    bson.D{{Key: "weekId", Value: 1}},
			Options: options.Index(),
		},
	}

	if _, err := collection.Indexes().CreateMany(ctx, indexes); err != nil {
		log.Printf("WARN: Failed to create indexes for collection %s: %v", collection.Name(), err)
	}
}
