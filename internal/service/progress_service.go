package service

import (
	"alcyxob/wellbeing-app/internal/domain"
	"alcyxob/wellbeing-app/internal/progress"
	"alcyxob/wellbeing-app/internal/repository"
	"context"
	"log"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// ProgressService covers the self-service side of challenges: any
// authenticated user may record their own completions and read their summary.
type ProgressService interface {
	// SetCompletion is idempotent; setting the current state again succeeds without change.
	SetCompletion(ctx context.Context, actor domain.Actor, weekID, itemID primitive.ObjectID, completed bool) (*domain.ChallengeItem, error)
	GetSummary(ctx context.Context, actor domain.Actor) (*domain.ProgressSummary, error)
}

type progressService struct {
	catalog      catalogReader
	itemRepo     repository.ChallengeRepository
	completeRepo repository.CompletionRepository
	now          func() time.Time
}

func NewProgressService(
	weekRepo repository.WeekRepository,
	itemRepo repository.ChallengeRepository,
	completeRepo repository.CompletionRepository,
) ProgressService {
	return &progressService{
		catalog:      catalogReader{weekRepo: weekRepo, challengeRepo: itemRepo, completionRepo: completeRepo},
		itemRepo:     itemRepo,
		completeRepo: completeRepo,
		now:          func() time.Time { return time.Now().UTC() },
	}
}

func (s *progressService) SetCompletion(ctx context.Context, actor domain.Actor, weekID, itemID primitive.ObjectID, completed bool) (*domain.ChallengeItem, error) {
	if !actor.Authenticated() {
		return nil, ErrPermissionDenied
	}
	item, err := getItemInWeek(ctx, s.itemRepo, weekID, itemID)
	if err != nil {
		return nil, err
	}

	if completed {
		err = s.completeRepo.Upsert(ctx, &domain.Completion{
			UserID:      actor.UserID,
			ItemID:      item.ID,
			WeekID:      item.WeekID,
			CompletedAt: s.now(),
		})
	} else {
		err = s.completeRepo.Delete(ctx, actor.UserID, item.ID)
	}
	if err != nil {
		log.Printf("ERROR: Failed to set completion of %s for user %s: %v", itemID.Hex(), actor.UserID.Hex(), err)
		return nil, err
	}

	item.Completed = completed
	return item, nil
}

func (s *progressService) GetSummary(ctx context.Context, actor domain.Actor) (*domain.ProgressSummary, error) {
	if !actor.Authenticated() {
		return nil, ErrPermissionDenied
	}
	groups, completions, err := s.catalog.load(ctx, actor.UserID)
	if err != nil {
		log.Printf("ERROR: Failed to load progress of user %s: %v", actor.UserID.Hex(), err)
		return nil, err
	}
	summary := progress.Summarize(groups, completions, s.now())
	return &summary, nil
}
