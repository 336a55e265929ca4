// Package store persists uploaded feature-model texts so callers can refer
// to them by id instead of resubmitting the full text with every analysis.
// Two backends: an in-memory store for the CLI and tests, and a MongoDB
// store for the HTTP server.
package store

import (
	"context"
	"time"
)

// Model is one stored feature-model document. The text is kept verbatim;
// parsing happens at analysis time.
type Model struct {
	ID        string    `json:"id" bson:"_id"`
	Name      string    `json:"name" bson:"name"`
	Text      string    `json:"text" bson:"text"`
	CreatedAt time.Time `json:"created_at" bson:"created_at"`
}

// Store is the persistence interface shared by all backends.
type Store interface {
	// Put stores a model, overwriting any existing model with the same id.
	Put(ctx context.Context, m Model) error

	// Get retrieves a model by id; NotFound if absent.
	Get(ctx context.Context, id string) (Model, error)

	// List returns all models ordered by creation time, then id.
	List(ctx context.Context) ([]Model, error)

	// Delete removes a model by id; NotFound if absent.
	Delete(ctx context.Context, id string) error

	// Close releases backend resources.
	Close(ctx context.Context) error
}
