// Package memory provides process-local implementations of the repository
// interfaces. They back the "memory" database driver and the service tests.
package memory

import (
	"alcyxob/wellbeing-app/internal/domain"
	"sync"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// DB holds every table behind a single lock so cascading deletes made by the
// services observe a consistent state.
type DB struct {
	mutex       sync.RWMutex
	users       map[primitive.ObjectID]*domain.User
	weeks       map[primitive.ObjectID]*domain.Week
	items       map[primitive.ObjectID]*domain.ChallengeItem
	completions map[completionKey]*domain.Completion
	resources   map[primitive.ObjectID]*domain.WeekResource
}

type completionKey struct {
	userID primitive.ObjectID
	itemID primitive.ObjectID
}

func NewDB() *DB {
	return &DB{
		users:       make(map[primitive.ObjectID]*domain.User),
		weeks:       make(map[primitive.ObjectID]*domain.Week),
		items:       make(map[primitive.ObjectID]*domain.ChallengeItem),
		completions: make(map[completionKey]*domain.Completion),
		resources:   make(map[primitive.ObjectID]*domain.WeekResource),
	}
}
