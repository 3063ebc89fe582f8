package sqlite

import (
	"context"
	"fmt"
	"time"

	"github.com/mesh-intelligence/keepsake/pkg/types"
)

// ExportAll reads every collection into a snapshot. Each collection is read
// in its own statement.
func (b *Backend) ExportAll(ctx context.Context) (*types.Snapshot, error) {
	if _, err := b.handle(ctx); err != nil {
		return nil, err
	}
	snap := types.NewSnapshot(time.Now())
	for _, name := range types.StandardCollectionNames {
		recs, err := b.GetAll(ctx, name)
		if err != nil {
			return nil, fmt.Errorf("exporting %s: %w", name, err)
		}
		snap.Collections[name] = recs
	}
	b.logger.Info("store exported", "records", snap.Len())
	return snap, nil
}

// ImportAll writes every record of snap with Update, one statement per
// record. Records already stored and absent from snap are kept.
func (b *Backend) ImportAll(ctx context.Context, snap *types.Snapshot) error {
	return types.ApplySnapshot(ctx, b, snap, b.logger)
}
