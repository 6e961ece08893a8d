package catalogview

import (
	"alcyxob/wellbeing-app/internal/domain"
	"context"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Store is the authoritative catalog the view reconciles against. Failures
// should wrap ErrMutationRejected (including ErrNotFound), ErrNetworkUnavailable
// or ErrPermissionDenied; anything else is treated as a rejection.
type Store interface {
	FetchCatalog(ctx context.Context) ([]domain.WeekWithItems, error)
	FetchProgress(ctx context.Context) (*domain.ProgressSummary, error)

	CreateWeek(ctx context.Context, input domain.WeekInput) (*domain.WeekWithItems, error)
	UpdateWeek(ctx context.Context, weekID primitive.ObjectID, patch domain.WeekPatch) (*domain.Week, error)
	DeleteWeek(ctx context.Context, weekID primitive.ObjectID) error

	CreateItem(ctx context.Context, weekID primitive.ObjectID, input domain.ItemInput) (*domain.ChallengeItem, error)
	UpdateItem(ctx context.Context, weekID, itemID primitive.ObjectID, patch domain.ItemPatch) (*domain.ChallengeItem, error)
	DeleteItem(ctx context.Context, weekID, itemID primitive.ObjectID) error

	SetCompletion(ctx context.Context, weekID, itemID primitive.ObjectID, completed bool) (*domain.ChallengeItem, error)
}
