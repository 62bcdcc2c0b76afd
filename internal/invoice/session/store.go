// Package session provides the keyed continuity store for stage-one
// data. It is an alternative to the encoded token for deployments that
// allow server-side state; entries are ephemeral with a TTL, never
// durable records.
package session

import (
	"context"
	"time"

	"invoicebot/internal/invoice/models"
)

// Store parks stage-one data under a short opaque ID between the two
// submissions. Implementations return sentinel.ErrNotFound for unknown
// IDs and sentinel.ErrExpired for entries past their TTL.
type Store interface {
	Put(ctx context.Context, id string, data models.StageOne, ttl time.Duration) error
	Get(ctx context.Context, id string) (models.StageOne, error)
	Delete(ctx context.Context, id string) error
}
