// Package memory implements an in-process store backend. Records are kept as
// JSON documents, so callers never share memory with the store. Data lives
// as long as the Backend value.
package memory

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"reflect"
	"sort"
	"sync"
	"time"

	"github.com/mesh-intelligence/keepsake/pkg/types"
)

// Backend implements types.Store in memory. Safe for concurrent use.
type Backend struct {
	mu          sync.Mutex
	schema      types.Schema
	logger      *slog.Logger
	open        bool
	collections map[string]map[string][]byte
}

// NewBackend returns an empty backend declaring types.AppSchema.
func NewBackend(config types.Config) *Backend {
	return NewBackendWithSchema(config, types.AppSchema)
}

// NewBackendWithSchema returns an empty backend declaring schema. Collection
// names must be ones types.NewRecord knows; indexes are free, and unique
// indexes are enforced on every write.
func NewBackendWithSchema(config types.Config, schema types.Schema) *Backend {
	b := &Backend{
		schema:      schema,
		logger:      config.LoggerOrDiscard().With("backend", types.BackendMemory),
		collections: make(map[string]map[string][]byte, len(schema.Collections)),
	}
	for _, c := range schema.Collections {
		b.collections[c.Name] = make(map[string][]byte)
	}
	return b
}

func (b *Backend) Open(ctx context.Context) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.openLocked()
	return nil
}

func (b *Backend) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.open = false
	return nil
}

func (b *Backend) openLocked() {
	if !b.open {
		b.open = true
		b.logger.Debug("store opened", "schema_version", b.schema.Version)
	}
}

func (b *Backend) Add(ctx context.Context, collection string, rec types.Record) (string, error) {
	cs, data, err := b.prepareWrite(collection, rec)
	if err != nil {
		return "", err
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	b.openLocked()

	id := rec.RecordID()
	if _, exists := b.collections[collection][id]; exists {
		return "", fmt.Errorf("%w: %s/%s", types.ErrDuplicateKey, collection, id)
	}
	if err := b.checkUnique(cs, id, data); err != nil {
		return "", err
	}
	b.collections[collection][id] = data
	return id, nil
}

func (b *Backend) Get(ctx context.Context, collection, id string) (types.Record, bool, error) {
	if _, err := b.lookup(collection); err != nil {
		return nil, false, err
	}
	if id == "" {
		return nil, false, nil
	}

	b.mu.Lock()
	b.openLocked()
	data, ok := b.collections[collection][id]
	b.mu.Unlock()

	if !ok {
		return nil, false, nil
	}
	rec, err := types.DecodeRecord(collection, data)
	if err != nil {
		return nil, false, err
	}
	return rec, true, nil
}

// GetAll returns the records ordered by key.
func (b *Backend) GetAll(ctx context.Context, collection string) ([]types.Record, error) {
	if _, err := b.lookup(collection); err != nil {
		return nil, err
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	b.openLocked()
	return b.collectLocked(collection, func([]byte) bool { return true })
}

func (b *Backend) Update(ctx context.Context, collection string, rec types.Record) error {
	cs, data, err := b.prepareWrite(collection, rec)
	if err != nil {
		return err
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	b.openLocked()

	id := rec.RecordID()
	if err := b.checkUnique(cs, id, data); err != nil {
		return err
	}
	b.collections[collection][id] = data
	return nil
}

func (b *Backend) Delete(ctx context.Context, collection, id string) error {
	if _, err := b.lookup(collection); err != nil {
		return err
	}
	if id == "" {
		return nil
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	b.openLocked()
	delete(b.collections[collection], id)
	return nil
}

// GetByIndex compares the JSON form of the indexed field with value, so 5
// and 5.0 match the same records.
func (b *Backend) GetByIndex(ctx context.Context, collection, index string, value any) ([]types.Record, error) {
	cs, err := b.lookup(collection)
	if err != nil {
		return nil, err
	}
	spec, ok := cs.Index(index)
	if !ok {
		return nil, fmt.Errorf("%w: %s.%s", types.ErrIndexNotFound, collection, index)
	}
	want, err := types.NormalizeIndexValue(value)
	if err != nil {
		return nil, err
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	b.openLocked()
	return b.collectLocked(collection, func(data []byte) bool {
		got, ok := fieldOf(data, spec.Field)
		return ok && reflect.DeepEqual(got, want)
	})
}

func (b *Backend) GetSetting(ctx context.Context, key string, def any) any {
	rec, found, err := b.Get(ctx, types.CollectionSettings, key)
	if err != nil {
		b.logger.Debug("setting read failed, using default", "key", key, "error", err)
		return def
	}
	if !found {
		return def
	}
	if s, ok := rec.(*types.Setting); ok {
		return s.Value
	}
	return def
}

func (b *Backend) SetSetting(ctx context.Context, key string, value any) error {
	return b.Update(ctx, types.CollectionSettings, &types.Setting{Key: key, Value: value})
}

// ExportAll copies every declared collection under one lock, so the
// snapshot is consistent across collections.
func (b *Backend) ExportAll(ctx context.Context) (*types.Snapshot, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.openLocked()

	snap := types.NewSnapshot(time.Now())
	for _, c := range b.schema.Collections {
		recs, err := b.collectLocked(c.Name, func([]byte) bool { return true })
		if err != nil {
			return nil, fmt.Errorf("exporting %s: %w", c.Name, err)
		}
		snap.Collections[c.Name] = recs
	}
	return snap, nil
}

func (b *Backend) ImportAll(ctx context.Context, snap *types.Snapshot) error {
	return types.ApplySnapshot(ctx, b, snap, b.logger)
}

func (b *Backend) lookup(collection string) (types.CollectionSchema, error) {
	cs, ok := b.schema.Collection(collection)
	if !ok {
		return types.CollectionSchema{}, fmt.Errorf("%w: %q", types.ErrUnknownCollection, collection)
	}
	return cs, nil
}

func (b *Backend) prepareWrite(collection string, rec types.Record) (types.CollectionSchema, []byte, error) {
	cs, err := b.lookup(collection)
	if err != nil {
		return cs, nil, err
	}
	if err := types.CheckRecord(collection, rec); err != nil {
		return cs, nil, err
	}
	data, err := json.Marshal(rec)
	if err != nil {
		return cs, nil, fmt.Errorf("%w: encoding %s/%s: %v", types.ErrInvalidData, collection, rec.RecordID(), err)
	}
	return cs, data, nil
}

// checkUnique rejects data when another record holds the same value on a
// unique index. Records without the field never conflict.
func (b *Backend) checkUnique(cs types.CollectionSchema, id string, data []byte) error {
	for _, idx := range cs.Indexes {
		if !idx.Unique {
			continue
		}
		v, ok := fieldOf(data, idx.Field)
		if !ok {
			continue
		}
		for otherID, other := range b.collections[cs.Name] {
			if otherID == id {
				continue
			}
			if ov, ok := fieldOf(other, idx.Field); ok && reflect.DeepEqual(ov, v) {
				return fmt.Errorf("%w: %s.%s=%v held by %s", types.ErrDuplicateKey, cs.Name, idx.Name, v, otherID)
			}
		}
	}
	return nil
}

func (b *Backend) collectLocked(collection string, match func([]byte) bool) ([]types.Record, error) {
	coll := b.collections[collection]
	ids := make([]string, 0, len(coll))
	for id, data := range coll {
		if match(data) {
			ids = append(ids, id)
		}
	}
	sort.Strings(ids)

	records := make([]types.Record, 0, len(ids))
	for _, id := range ids {
		rec, err := types.DecodeRecord(collection, coll[id])
		if err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	return records, nil
}

// fieldOf returns the decoded value of a top-level field of a JSON document.
func fieldOf(data []byte, field string) (any, bool) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil {
		return nil, false
	}
	raw, ok := fields[field]
	if !ok {
		return nil, false
	}
	var v any
	if err := json.Unmarshal(raw, &v); err != nil {
		return nil, false
	}
	return v, true
}

var _ types.Store = (*Backend)(nil)
