package sqlite

import (
	"context"

	"github.com/mesh-intelligence/keepsake/pkg/types"
)

// GetSetting returns the value stored under key, or def when the key is
// absent or cannot be read.
func (b *Backend) GetSetting(ctx context.Context, key string, def any) any {
	rec, found, err := b.Get(ctx, types.CollectionSettings, key)
	if err != nil {
		b.logger.Debug("setting read failed, using default", "key", key, "error", err)
		return def
	}
	if !found {
		return def
	}
	s, ok := rec.(*types.Setting)
	if !ok {
		return def
	}
	return s.Value
}

// SetSetting stores value under key.
func (b *Backend) SetSetting(ctx context.Context, key string, value any) error {
	return b.Update(ctx, types.CollectionSettings, &types.Setting{Key: key, Value: value})
}
