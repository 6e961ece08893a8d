// internal/domain/challenge.go
package domain

import (
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Week is a themed group of challenge items bounded by a start and end date.
type Week struct {
	ID         primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	WeekNumber int                `bson:"weekNumber" json:"weekNumber"` // Unique within the catalog, need not be contiguous
	Theme      string             `bson:"theme" json:"theme"`
	StartDate  time.Time          `bson:"startDate" json:"startDate"` // UTC midnight
	EndDate    time.Time          `bson:"endDate" json:"endDate"`     // UTC midnight, never before StartDate
	CreatedBy  primitive.ObjectID `bson:"createdBy,omitempty" json:"createdBy,omitempty"`
	CreatedAt  time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt  time.Time          `bson:"updatedAt" json:"updatedAt"`
}

// ChallengeItem is a single actionable task within a week.
type ChallengeItem struct {
	ID          primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	WeekID      primitive.ObjectID `bson:"weekId" json:"weekId"`
	Title       string             `bson:"title" json:"title"`
	Description string             `bson:"description" json:"description"`
	Sequence    int                `bson:"sequence" json:"sequence"` // Order within the week
	CreatedAt   time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt   time.Time          `bson:"updatedAt" json:"updatedAt"`

	// Completed is resolved per viewing user at read time and never stored on the item.
	Completed bool `bson:"-" json:"completed"`
}

// WeekWithItems is the read model of the catalog: a week and its ordered items.
type WeekWithItems struct {
	Week
	Items []ChallengeItem `json:"items"`
}

// Clone returns a deep copy so callers can mutate the result freely.
func (w WeekWithItems) Clone() WeekWithItems {
	out := w
	if w.Items != nil {
		out.Items = make([]ChallengeItem, len(w.Items))
		copy(out.Items, w.Items)
	}
	return out
}

// WeekInput holds the fields required to create a week. It is also the
// shape every week update is validated against after merging.
type WeekInput struct {
	WeekNumber int       `json:"weekNumber" validate:"required,gt=0"`
	Theme      string    `json:"theme" validate:"required"`
	StartDate  time.Time `json:"startDate" validate:"required"`
	EndDate    time.Time `json:"endDate" validate:"required,gtefield=StartDate"`
}

// Normalize trims the theme and truncates both dates to UTC midnight.
func (in WeekInput) Normalize() WeekInput {
	in.Theme = strings.TrimSpace(in.Theme)
	in.StartDate = DateOnly(in.StartDate)
	in.EndDate = DateOnly(in.EndDate)
	return in
}

// WeekPatch is a partial week update; nil fields are left untouched.
type WeekPatch struct {
	WeekNumber *int       `json:"weekNumber,omitempty"`
	Theme      *string    `json:"theme,omitempty"`
	StartDate  *time.Time `json:"startDate,omitempty"`
	EndDate    *time.Time `json:"endDate,omitempty"`
}

// Apply merges the patch over the week's current values.
func (p WeekPatch) Apply(w Week) WeekInput {
	in := WeekInput{WeekNumber: w.WeekNumber, Theme: w.Theme, StartDate: w.StartDate, EndDate: w.EndDate}
	if p.WeekNumber != nil {
		in.WeekNumber = *p.WeekNumber
	}
	if p.Theme != nil {
		in.Theme = *p.Theme
	}
	if p.StartDate != nil {
		in.StartDate = *p.StartDate
	}
	if p.EndDate != nil {
		in.EndDate = *p.EndDate
	}
	return in.Normalize()
}

// ItemInput holds the fields of a challenge item.
type ItemInput struct {
	Title       string `json:"title" validate:"required"`
	Description string `json:"description"`
}

func (in ItemInput) Normalize() ItemInput {
	in.Title = strings.TrimSpace(in.Title)
	in.Description = strings.TrimSpace(in.Description)
	return in
}

// ItemPatch is a partial item update; nil fields are left untouched.
type ItemPatch struct {
	Title       *string `json:"title,omitempty"`
	Description *string `json:"description,omitempty"`
}

func (p ItemPatch) Apply(item ChallengeItem) ItemInput {
	in := ItemInput{Title: item.Title, Description: item.Description}
	if p.Title != nil {
		in.Title = *p.Title
	}
	if p.Description != nil {
		in.Description = *p.Description
	}
	return in.Normalize()
}

// DateOnly truncates t to midnight UTC of its UTC calendar day.
func DateOnly(t time.Time) time.Time {
	if t.IsZero() {
		return t
	}
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
