package store

import (
	"context"

	"github.com/avvvet/card-services/internal/cardsvc/models"
)

// SubscriberStore keeps one record per user id. Upsert must be a single
// conditional write so two first contacts from one user cannot both insert.
type SubscriberStore interface {
	// Upsert inserts sub if its user id is unknown and reports whether a row
	// was created. Existing records are never modified.
	Upsert(ctx context.Context, sub models.Subscriber) (bool, error)
	// List returns every subscriber in insertion order.
	List(ctx context.Context) ([]models.Subscriber, error)
	// Migrate creates the schema if it is missing.
	Migrate(ctx context.Context) error
}
