package types

import (
	"context"
	"fmt"
	"log/slog"
)

// ApplySnapshot upserts every record of snap into s, collection by
// collection in schema order. It is the ImportAll of every backend.
//
// A snapshot from a newer schema, or naming a collection the schema does not
// declare, is rejected before anything is written. Any other failure stops
// the import at the offending record; records written before it stay written.
func ApplySnapshot(ctx context.Context, s Store, snap *Snapshot, logger *slog.Logger) error {
	if snap == nil {
		return &ImportError{Err: fmt.Errorf("%w: nil snapshot", ErrInvalidData)}
	}
	if snap.SchemaVersion > SchemaVersion {
		return &ImportError{Err: fmt.Errorf("%w: snapshot has schema version %d, this build supports %d",
			ErrVersionConflict, snap.SchemaVersion, SchemaVersion)}
	}
	for name := range snap.Collections {
		if _, ok := AppSchema.Collection(name); !ok {
			return &ImportError{Collection: name, Err: fmt.Errorf("%w: %q", ErrUnknownCollection, name)}
		}
	}

	applied := 0
	for _, name := range StandardCollectionNames {
		recs, ok := snap.Collections[name]
		if !ok {
			continue
		}
		for _, rec := range recs {
			if err := s.Update(ctx, name, rec); err != nil {
				id := ""
				if rec != nil {
					id = rec.RecordID()
				}
				return &ImportError{Collection: name, ID: id, Applied: applied, Err: err}
			}
			applied++
		}
		logger.Debug("collection imported", "collection", name, "records", len(recs))
	}
	logger.Info("store imported", "records", applied)
	return nil
}
