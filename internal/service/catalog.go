package service

import (
	"alcyxob/wellbeing-app/internal/domain"
	"alcyxob/wellbeing-app/internal/repository"
	"context"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// catalogReader assembles the read model shared by the challenge and
// progress services.
type catalogReader struct {
	weekRepo       repository.WeekRepository
	challengeRepo  repository.ChallengeRepository
	completionRepo repository.CompletionRepository
}

// completedItems returns the set of item IDs the user has completed.
func (r catalogReader) completedItems(ctx context.Context, userID primitive.ObjectID) (map[primitive.ObjectID]bool, []domain.Completion, error) {
	if userID == primitive.NilObjectID {
		return map[primitive.ObjectID]bool{}, nil, nil
	}
	completions, err := r.completionRepo.GetByUserID(ctx, userID)
	if err != nil {
		return nil, nil, err
	}
	done := make(map[primitive.ObjectID]bool, len(completions))
	for _, c := range completions {
		done[c.ItemID] = true
	}
	return done, completions, nil
}

// load returns every week ordered by week number with its items in display
// order and the user's completion flags set. Items whose week no longer
// exists are skipped. The user's completion records that still refer to an
// existing item are returned as well.
func (r catalogReader) load(ctx context.Context, userID primitive.ObjectID) ([]domain.WeekWithItems, []domain.Completion, error) {
	weeks, err := r.weekRepo.List(ctx)
	if err != nil {
		return nil, nil, err
	}
	items, err := r.challengeRepo.ListAll(ctx)
	if err != nil {
		return nil, nil, err
	}
	done, completions, err := r.completedItems(ctx, userID)
	if err != nil {
		return nil, nil, err
	}

	byWeek := make(map[primitive.ObjectID][]domain.ChallengeItem, len(weeks))
	for _, item := range items {
		item.Completed = done[item.ID]
		byWeek[item.WeekID] = append(byWeek[item.WeekID], item)
	}

	groups := make([]domain.WeekWithItems, 0, len(weeks))
	known := make(map[primitive.ObjectID]bool, len(items))
	for _, w := range weeks {
		weekItems := byWeek[w.ID]
		if weekItems == nil {
			weekItems = []domain.ChallengeItem{}
		}
		for _, item := range weekItems {
			known[item.ID] = true
		}
		groups = append(groups, domain.WeekWithItems{Week: w, Items: weekItems})
	}

	live := make([]domain.Completion, 0, len(completions))
	for _, c := range completions {
		if known[c.ItemID] {
			live = append(live, c)
		}
	}
	return groups, live, nil
}
