// Package storage defines the persistence interface and its implementations.
package storage

import (
	"context"

	"feedmailer/internal/state"
)

// Storage persists the per-feed check state between cycles. LoadState is
// called once at cycle start; SaveState once after the sequential merge.
type Storage interface {
	LoadState(ctx context.Context) (*state.State, error)
	SaveState(ctx context.Context, st *state.State) error
	Close() error
}
