package domain

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Completion records that a user completed a challenge item. There is at
// most one record per (user, item); un-completing removes it.
type Completion struct {
	ID          primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	UserID      primitive.ObjectID `bson:"userId" json:"userId"`
	ItemID      primitive.ObjectID `bson:"itemId" json:"itemId"`
	WeekID      primitive.ObjectID `bson:"weekId" json:"weekId"` // Denormalized for cascading deletes
	CompletedAt time.Time          `bson:"completedAt" json:"completedAt"`
}

// ProgressSummary is the derived progress of one user across the catalog.
// It is computed on every read and never stored.
type ProgressSummary struct {
	CompletedCount              int        `json:"completedCount"`
	TotalCount                  int        `json:"totalCount"`
	CompletedWeeks              int        `json:"completedWeeks"`
	TotalWeeks                  int        `json:"totalWeeks"`
	CurrentStreak               int        `json:"currentStreak"`
	LongestStreak               int        `json:"longestStreak"`
	OverallCompletionPercentage int        `json:"overallCompletionPercentage"`
	LastActivityDate            *time.Time `json:"lastActivityDate,omitempty"`
}
