// Package store provides the append-only expertise log and its SQLite
// implementation.
package store

import (
	"context"
	"errors"

	"github.com/cmccabe/expertise-engine/internal/model"
)

// Store failure sentinels. Check with errors.Is.
var (
	// ErrInit means the backing store or schema could not be created.
	ErrInit = errors.New("store init failed")
	// ErrWrite means an append did not commit; nothing was partially written.
	ErrWrite = errors.New("store write failed")
)

// Store is the expertise log. It is strictly append-only: records are never
// updated or deleted. Deduplication of re-saved files is the pipeline's
// concern, not the store's.
type Store interface {
	// Append durably commits one record and returns its assigned id.
	// Ids are unique and monotonically increasing. The record's ID and
	// Timestamp fields are ignored; both are assigned at write time.
	Append(ctx context.Context, rec model.ExpertiseRecord) (int64, error)

	// Recent returns up to limit records, newest first.
	Recent(ctx context.Context, limit int) ([]model.ExpertiseRecord, error)

	// Close closes the store.
	Close() error
}
