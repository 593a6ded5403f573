// Package store defines the persistence contract of the collection server.
package store

import (
	"context"
	"errors"

	"github.com/Makepad-fr/tada/internal/model"
)

// ErrNotFound is returned when no todo has the requested id.
var ErrNotFound = errors.New("todo not found")

// Query is a list request: the client's filter plus the server's notion of today.
type Query struct {
	model.ListFilter
	Today model.Date
}

// Store persists todos. Implementations are safe for concurrent use and
// return items ordered by id.
type Store interface {
	List(ctx context.Context, q Query) ([]model.Item, error)
	Create(ctx context.Context, req model.CreateRequest) (model.Item, error)
	Update(ctx context.Context, id int64, req model.UpdateRequest) (model.Item, error)
	Delete(ctx context.Context, id int64) error
	Close() error
}

// Match reports whether it passes q.
// due=true keeps items due today or earlier; due=false keeps items due later
// or without a due date.
func (q Query) Match(it model.Item) bool {
	if q.Complete != nil && it.IsCompleted != *q.Complete {
		return false
	}
	if q.Due != nil {
		due := it.DueDate != nil && !q.Today.Before(*it.DueDate)
		if due != *q.Due {
			return false
		}
	}
	return true
}

// Apply patches it with the non-nil fields of req.
func Apply(it *model.Item, req model.UpdateRequest) {
	if req.IsCompleted != nil {
		it.IsCompleted = *req.IsCompleted
	}
	if req.Starred != nil {
		it.Starred = *req.Starred
	}
}
