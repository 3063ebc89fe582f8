package types

import (
	"context"
	"errors"
	"fmt"
)

// Store is the local persistence layer shared by every page of the
// application. Callers construct one Store, inject it where it is needed, and
// let it open lazily on first use.
//
// Each single-record operation is atomic in the underlying engine. There is no
// multi-operation transaction: a sequence such as Delete then Add can be left
// half applied if the process stops between the two calls.
type Store interface {
	// Open materializes the schema and keeps the handle for later calls.
	// Idempotent: a second call returns nil without re-running migrations.
	// Returns an error matching ErrStoreUnavailable when the engine cannot be
	// opened or holds a newer schema version.
	Open(ctx context.Context) error

	// Add inserts rec and returns its identifier. Returns ErrDuplicateKey if
	// the identifier is already present in the collection.
	Add(ctx context.Context, collection string, rec Record) (string, error)

	// Get returns the record with the given identifier. A missing record is
	// reported through found=false, never through an error.
	Get(ctx context.Context, collection, id string) (rec Record, found bool, err error)

	// GetAll returns every record of the collection in storage order. The
	// result is never nil.
	GetAll(ctx context.Context, collection string) ([]Record, error)

	// Update replaces the record with the same identifier, or inserts it.
	Update(ctx context.Context, collection string, rec Record) error

	// Delete removes the record if present and succeeds silently otherwise.
	Delete(ctx context.Context, collection, id string) error

	// GetByIndex returns the records whose indexed field equals value.
	// Returns ErrIndexNotFound if the index was not declared for the
	// collection. The result is never nil.
	GetByIndex(ctx context.Context, collection, index string, value any) ([]Record, error)

	// GetSetting returns the stored value for key, or def when the key is
	// absent or the read fails for any reason.
	GetSetting(ctx context.Context, key string, def any) any

	// SetSetting stores value under key.
	SetSetting(ctx context.Context, key string, value any) error

	// ExportAll returns a snapshot of every declared collection. Collections
	// are read one after another, so writes made during the export may be
	// visible in some collections and not in others.
	ExportAll(ctx context.Context) (*Snapshot, error)

	// ImportAll upserts every record of every collection present in snap.
	// Records missing from snap are left alone. On failure the returned error
	// is an *ImportError; collections written before the failure stay written.
	ImportAll(ctx context.Context, snap *Snapshot) error

	// Close releases the handle. A later operation opens it again.
	Close() error
}

// Store errors.
var (
	ErrStoreUnavailable  = errors.New("store unavailable")
	ErrVersionConflict   = errors.New("schema version conflict")
	ErrDuplicateKey      = errors.New("duplicate key")
	ErrIndexNotFound     = errors.New("index not found")
	ErrImportFailed      = errors.New("import failed")
	ErrUnknownCollection = errors.New("unknown collection")
	ErrInvalidID         = errors.New("invalid record ID")
	ErrInvalidData       = errors.New("invalid record data")
)

// ImportError reports the record at which ImportAll stopped. Applied counts
// the records written before the failure, across all collections.
type ImportError struct {
	Collection string
	ID         string
	Applied    int
	Err        error
}

func (e *ImportError) Error() string {
	if e.ID == "" {
		return fmt.Sprintf("%s: %v", ErrImportFailed, e.Err)
	}
	return fmt.Sprintf("%s at %s/%s after %d records: %v", ErrImportFailed, e.Collection, e.ID, e.Applied, e.Err)
}

func (e *ImportError) Unwrap() error { return e.Err }

// Is reports ErrImportFailed as a match so callers need not know the type.
func (e *ImportError) Is(target error) bool { return target == ErrImportFailed }

// Unavailable wraps cause so that it matches both ErrStoreUnavailable and cause.
func Unavailable(cause error) error {
	return fmt.Errorf("%w: %w", ErrStoreUnavailable, cause)
}
