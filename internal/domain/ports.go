package domain

import (
	"context"
	"errors"

	"github.com/blackmichael/skybridge/internal/bluesky"
)

// ErrNotFound is returned by ThreadLedger.Resolve when no entry exists for a
// source status ID. Absence means the status has not been processed yet and
// must not be resolved as a thread parent.
var ErrNotFound = errors.New("ledger entry not found")

// ThreadLedger is the durable source-status-id to destination-post mapping.
// Each key is written at most once, on first processing of a status, and is
// never updated or deleted afterwards.
type ThreadLedger interface {
	// Resolve looks up the entry for a source status ID. It returns
	// ErrNotFound if the status has never been processed, and (nil, nil)
	// if it was processed but cross-posting failed.
	Resolve(ctx context.Context, sourceID string) (*LedgerEntry, error)

	// Record writes the outcome for a source status ID. A nil entry marks
	// a failed cross-post; the marker is terminal and never retried.
	// Recording a key that already exists is a no-op.
	Record(ctx context.Context, sourceID string, entry *LedgerEntry) error
}

// Publisher submits an assembled record to the destination platform.
type Publisher interface {
	CreatePost(ctx context.Context, record *bluesky.PostRecord) (*bluesky.PostRef, error)
}

// BlobUploader stores raw bytes in the destination platform's blob store.
type BlobUploader interface {
	UploadBlob(ctx context.Context, data []byte, mimeType string) (*bluesky.BlobRef, error)
}

// RecordValidator checks a record against the destination schema.
type RecordValidator interface {
	Validate(record *bluesky.PostRecord) error
}
