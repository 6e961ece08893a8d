package repository

import (
	"alcyxob/wellbeing-app/internal/domain" // Import our defined domain models
	"context"

	"go.mongodb.org/mongo-driver/bson/primitive" // For using ObjectIDs
)

// Error constants for repository layer
var (
	ErrNotFound     = RepositoryError("not found")
	ErrDuplicateKey = RepositoryError("duplicate key")
	ErrUpdateFailed = RepositoryError("update failed")
	ErrDeleteFailed = RepositoryError("delete failed")
)

// RepositoryError helps distinguish repository errors
type RepositoryError string

func (e RepositoryError) Error() string {
	return string(e)
}

// UserRepository defines the interface for interacting with user data.
type UserRepository interface {
	Create(ctx context.Context, user *domain.User) (primitive.ObjectID, error)
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	GetByID(ctx context.Context, id primitive.ObjectID) (*domain.User, error)
	UpdateRole(ctx context.Context, id primitive.ObjectID, role domain.Role) error
}

// WeekRepository defines the interface for interacting with weekly challenge groups.
type WeekRepository interface {
	Create(ctx context.Context, week *domain.Week) (primitive.ObjectID, error) // ErrDuplicateKey when the week number is taken
	GetByID(ctx context.Context, id primitive.ObjectID) (*domain.Week, error)
	GetByWeekNumber(ctx context.Context, weekNumber int) (*domain.Week, error)
	List(ctx context.Context) ([]domain.Week, error) // Ordered by week number
	Update(ctx context.Context, week *domain.Week) error
	Delete(ctx context.Context, id primitive.ObjectID) error
}

// ChallengeRepository defines the interface for interacting with challenge items.
type ChallengeRepository interface {
	Create(ctx context.Context, item *domain.ChallengeItem) (primitive.ObjectID, error)
	GetByID(ctx context.Context, id primitive.ObjectID) (*domain.ChallengeItem, error)
	GetByWeekID(ctx context.Context, weekID primitive.ObjectID) ([]domain.ChallengeItem, error) // Ordered by sequence
	ListAll(ctx context.Context) ([]domain.ChallengeItem, error)                              // Ordered by sequence
	NextSequence(ctx context.Context, weekID primitive.ObjectID) (int, error)
	Update(ctx context.Context, item *domain.ChallengeItem) error
	Delete(ctx context.Context, id primitive.ObjectID) error
	DeleteByWeekID(ctx context.Context, weekID primitive.ObjectID) (int64, error)
}

// CompletionRepository defines the interface for per-user completion records.
type CompletionRepository interface {
	// Upsert marks the item completed for the user; an existing record keeps its timestamp.
	Upsert(ctx context.Context, completion *domain.Completion) error
	Delete(ctx context.Context, userID, itemID primitive.ObjectID) error
	GetByUserID(ctx context.Context, userID primitive.ObjectID) ([]domain.Completion, error)
	DeleteByItemID(ctx context.Context, itemID primitive.ObjectID) (int64, error)
	DeleteByWeekID(ctx context.Context, weekID primitive.ObjectID) (int64, error)
}

// ResourceRepository defines the interface for interacting with week resource metadata.
type ResourceRepository interface {
	Create(ctx context.Context, resource *domain.WeekResource) (primitive.ObjectID, error)
	GetByID(ctx context.Context, id primitive.ObjectID) (*domain.WeekResource, error)
	GetByWeekID(ctx context.Context, weekID primitive.ObjectID) ([]domain.WeekResource, error)
	Delete(ctx context.Context, id primitive.ObjectID) error
	DeleteByWeekID(ctx context.Context, weekID primitive.ObjectID) (int64, error)
}
