package service

import (
	"alcyxob/wellbeing-app/internal/domain"
	"alcyxob/wellbeing-app/internal/repository"
	"alcyxob/wellbeing-app/internal/storage"
	"alcyxob/wellbeing-app/internal/validation"
	"context"
	"errors"
	"log"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// --- Error Definitions ---
var (
	ErrPermissionDenied  = errors.New("permission denied")
	ErrWeekNotFound      = errors.New("week not found")
	ErrChallengeNotFound = errors.New("challenge not found")
	ErrWeekNumberTaken   = errors.New("a week with this number already exists")
)

// ChallengeService manages the weekly challenge catalog. Every mutating
// method checks the actor's role before touching storage, independently of
// any check made by the caller.
type ChallengeService interface {
	ListCatalog(ctx context.Context, actor domain.Actor) ([]domain.WeekWithItems, error)

	CreateWeek(ctx context.Context, actor domain.Actor, input domain.WeekInput) (*domain.WeekWithItems, error)
	UpdateWeek(ctx context.Context, actor domain.Actor, weekID primitive.ObjectID, patch domain.WeekPatch) (*domain.Week, error)
	DeleteWeek(ctx context.Context, actor domain.Actor, weekID primitive.ObjectID) error

	CreateItem(ctx context.Context, actor domain.Actor, weekID primitive.ObjectID, input domain.ItemInput) (*domain.ChallengeItem, error)
	UpdateItem(ctx context.Context, actor domain.Actor, weekID, itemID primitive.ObjectID, patch domain.ItemPatch) (*domain.ChallengeItem, error)
	DeleteItem(ctx context.Context, actor domain.Actor, weekID, itemID primitive.ObjectID) error
}

// challengeService implements the ChallengeService interface.
type challengeService struct {
	catalog      catalogReader
	weekRepo     repository.WeekRepository
	itemRepo     repository.ChallengeRepository
	completeRepo repository.CompletionRepository
	resourceRepo repository.ResourceRepository
	fileStorage  storage.FileStorage // nil when object storage is not configured
}

// NewChallengeService creates a new instance of challengeService.
func NewChallengeService(
	weekRepo repository.WeekRepository,
	itemRepo repository.ChallengeRepository,
	completeRepo repository.CompletionRepository,
	resourceRepo repository.ResourceRepository,
	fileStorage storage.FileStorage,
) ChallengeService {
	return &challengeService{
		catalog:      catalogReader{weekRepo: weekRepo, challengeRepo: itemRepo, completionRepo: completeRepo},
		weekRepo:     weekRepo,
		itemRepo:     itemRepo,
		completeRepo: completeRepo,
		resourceRepo: resourceRepo,
		fileStorage:  fileStorage,
	}
}

// ListCatalog returns every week with its items, flagged with the actor's completions.
func (s *challengeService) ListCatalog(ctx context.Context, actor domain.Actor) ([]domain.WeekWithItems, error) {
	groups, _, err := s.catalog.load(ctx, actor.UserID)
	if err != nil {
		log.Printf("ERROR: Failed to load challenge catalog: %v", err)
		return nil, err
	}
	return groups, nil
}

// === Weeks ===

func (s *challengeService) CreateWeek(ctx context.Context, actor domain.Actor, input domain.WeekInput) (*domain.WeekWithItems, error) {
	if !actor.CanManageChallenges() {
		return nil, ErrPermissionDenied
	}
	input = input.Normalize()
	if err := validation.Struct(input); err != nil {
		return nil, err
	}

	if err := s.ensureWeekNumberFree(ctx, input.WeekNumber, primitive.NilObjectID); err != nil {
		return nil, err
	}

	week := &domain.Week{
		WeekNumber: input.WeekNumber,
		Theme:      input.Theme,
		StartDate:  input.StartDate,
		EndDate:    input.EndDate,
		CreatedBy:  actor.UserID,
	}
	weekID, err := s.weekRepo.Create(ctx, week)
	if err != nil {
		if errors.Is(err, repository.ErrDuplicateKey) {
			return nil, ErrWeekNumberTaken
		}
		log.Printf("ERROR: Failed to create week %d: %v", input.WeekNumber, err)
		return nil, err
	}
	week.ID = weekID

	log.Printf("INFO: Week %d (%s) created by %s", week.WeekNumber, weekID.Hex(), actor.UserID.Hex())
	return &domain.WeekWithItems{Week: *week, Items: []domain.ChallengeItem{}}, nil
}

// UpdateWeek merges the patch into the stored week and validates the merged
// result with the same rules as creation.
func (s *challengeService) UpdateWeek(ctx context.Context, actor domain.Actor, weekID primitive.ObjectID, patch domain.WeekPatch) (*domain.Week, error) {
	if !actor.CanManageChallenges() {
		return nil, ErrPermissionDenied
	}
	week, err := s.getWeek(ctx, weekID)
	if err != nil {
		return nil, err
	}

	merged := patch.Apply(*week)
	if err := validation.Struct(merged); err != nil {
		return nil, err
	}
	if merged.WeekNumber != week.WeekNumber {
		if err := s.ensureWeekNumberFree(ctx, merged.WeekNumber, week.ID); err != nil {
			return nil, err
		}
	}

	week.WeekNumber = merged.WeekNumber
	week.Theme = merged.Theme
	week.StartDate = merged.StartDate
	week.EndDate = merged.EndDate
	if err := s.weekRepo.Update(ctx, week); err != nil {
		switch {
		case errors.Is(err, repository.ErrDuplicateKey):
			return nil, ErrWeekNumberTaken
		case errors.Is(err, repository.ErrNotFound):
			return nil, ErrWeekNotFound
		}
		log.Printf("ERROR: Failed to update week %s: %v", weekID.Hex(), err)
		return nil, err
	}
	return week, nil
}

// DeleteWeek removes the week and everything hanging off it. Removing the
// week document is the commit point: once it is gone the week is invisible to
// readers, so failures while cleaning up children are logged, not returned.
func (s *challengeService) DeleteWeek(ctx context.Context, actor domain.Actor, weekID primitive.ObjectID) error {
	if !actor.CanManageChallenges() {
		return ErrPermissionDenied
	}
	if _, err := s.getWeek(ctx, weekID); err != nil {
		return err
	}

	resources, err := s.resourceRepo.GetByWeekID(ctx, weekID)
	if err != nil {
		log.Printf("ERROR: Failed to list resources of week %s: %v", weekID.Hex(), err)
		return err
	}

	if err := s.weekRepo.Delete(ctx, weekID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrWeekNotFound
		}
		log.Printf("ERROR: Failed to delete week %s: %v", weekID.Hex(), err)
		return err
	}

	items, err := s.itemRepo.DeleteByWeekID(ctx, weekID)
	if err != nil {
		log.Printf("ERROR: Week %s deleted but its items were not: %v", weekID.Hex(), err)
	}
	completions, err := s.completeRepo.DeleteByWeekID(ctx, weekID)
	if err != nil {
		log.Printf("ERROR: Week %s deleted but its completions were not: %v", weekID.Hex(), err)
	}
	if _, err := s.resourceRepo.DeleteByWeekID(ctx, weekID); err != nil {
		log.Printf("ERROR: Week %s deleted but its resources were not: %v", weekID.Hex(), err)
	}
	if len(resources) > 0 && s.fileStorage != nil {
		keys := make([]string, 0, len(resources))
		for _, r := range resources {
			keys = append(keys, r.S3ObjectKey)
		}
		if err := s.fileStorage.DeleteObjects(ctx, keys); err != nil {
			log.Printf("ERROR: Week %s deleted but %d stored objects were not: %v", weekID.Hex(), len(keys), err)
		}
	}

	log.Printf("INFO: Week %s deleted by %s (%d items, %d completions, %d resources)",
		weekID.Hex(), actor.UserID.Hex(), items, completions, len(resources))
	return nil
}

func (s *challengeService) getWeek(ctx context.Context, weekID primitive.ObjectID) (*domain.Week, error) {
	week, err := s.weekRepo.GetByID(ctx, weekID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrWeekNotFound
		}
		return nil, err
	}
	return week, nil
}

func (s *challengeService) ensureWeekNumberFree(ctx context.Context, weekNumber int, self primitive.ObjectID) error {
	existing, err := s.weekRepo.GetByWeekNumber(ctx, weekNumber)
	switch {
	case err == nil:
		if existing.ID != self {
			return ErrWeekNumberTaken
		}
		return nil
	case errors.Is(err, repository.ErrNotFound):
		return nil
	default:
		return err
	}
}

// === Items ===

func (s *challengeService) CreateItem(ctx context.Context, actor domain.Actor, weekID primitive.ObjectID, input domain.ItemInput) (*domain.ChallengeItem, error) {
	if !actor.CanManageChallenges() {
		return nil, ErrPermissionDenied
	}
	input = input.Normalize()
	if err := validation.Struct(input); err != nil {
		return nil, err
	}
	if _, err := s.getWeek(ctx, weekID); err != nil {
		return nil, err
	}

	sequence, err := s.itemRepo.NextSequence(ctx, weekID)
	if err != nil {
		return nil, err
	}
	item := &domain.ChallengeItem{
		WeekID:      weekID,
		Title:       input.Title,
		Description: input.Description,
		Sequence:    sequence,
	}
	itemID, err := s.itemRepo.Create(ctx, item)
	if err != nil {
		log.Printf("ERROR: Failed to create challenge in week %s: %v", weekID.Hex(), err)
		return nil, err
	}
	item.ID = itemID
	item.Completed = false
	return item, nil
}

func (s *challengeService) UpdateItem(ctx context.Context, actor domain.Actor, weekID, itemID primitive.ObjectID, patch domain.ItemPatch) (*domain.ChallengeItem, error) {
	if !actor.CanManageChallenges() {
		return nil, ErrPermissionDenied
	}
	item, err := getItemInWeek(ctx, s.itemRepo, weekID, itemID)
	if err != nil {
		return nil, err
	}

	merged := patch.Apply(*item)
	if err := validation.Struct(merged); err != nil {
		return nil, err
	}

	item.Title = merged.Title
	item.Description = merged.Description
	if err := s.itemRepo.Update(ctx, item); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrChallengeNotFound
		}
		log.Printf("ERROR: Failed to update challenge %s: %v", itemID.Hex(), err)
		return nil, err
	}

	done, _, err := s.catalog.completedItems(ctx, actor.UserID)
	if err != nil {
		return nil, err
	}
	item.Completed = done[item.ID]
	return item, nil
}

// DeleteItem removes the item and every user's completion of it.
func (s *challengeService) DeleteItem(ctx context.Context, actor domain.Actor, weekID, itemID primitive.ObjectID) error {
	if !actor.CanManageChallenges() {
		return ErrPermissionDenied
	}
	if _, err := getItemInWeek(ctx, s.itemRepo, weekID, itemID); err != nil {
		return err
	}

	if err := s.itemRepo.Delete(ctx, itemID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrChallengeNotFound
		}
		log.Printf("ERROR: Failed to delete challenge %s: %v", itemID.Hex(), err)
		return err
	}
	if _, err := s.completeRepo.DeleteByItemID(ctx, itemID); err != nil {
		log.Printf("ERROR: Challenge %s deleted but its completions were not: %v", itemID.Hex(), err)
	}
	return nil
}

// getItemInWeek loads an item and verifies it belongs to weekID.
func getItemInWeek(ctx context.Context, repo repository.ChallengeRepository, weekID, itemID primitive.ObjectID) (*domain.ChallengeItem, error) {
	item, err := repo.GetByID(ctx, itemID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrChallengeNotFound
		}
		return nil, err
	}
	if item.WeekID != weekID {
		return nil, ErrChallengeNotFound
	}
	return item, nil
}
