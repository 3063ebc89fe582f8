package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"

	"github.com/mesh-intelligence/keepsake/pkg/types"
)

// Add inserts rec. Returns types.ErrDuplicateKey when the key, or the value
// of a unique index, is already present.
func (b *Backend) Add(ctx context.Context, collection string, rec types.Record) (string, error) {
	st, data, err := prepareWrite(collection, rec)
	if err != nil {
		return "", err
	}
	db, err := b.handle(ctx)
	if err != nil {
		return "", err
	}

	res, err := db.ExecContext(ctx, st.insert, rec.RecordID(), data)
	if err != nil {
		return "", fmt.Errorf("inserting %s/%s: %w", collection, rec.RecordID(), mapConstraint(err))
	}
	n, err := res.RowsAffected()
	if err != nil {
		return "", fmt.Errorf("inserting %s/%s: %w", collection, rec.RecordID(), err)
	}
	if n == 0 {
		return "", fmt.Errorf("%w: %s/%s", types.ErrDuplicateKey, collection, rec.RecordID())
	}
	return rec.RecordID(), nil
}

// Get returns the record stored under id.
func (b *Backend) Get(ctx context.Context, collection, id string) (types.Record, bool, error) {
	st, err := lookup(collection)
	if err != nil {
		return nil, false, err
	}
	if id == "" {
		return nil, false, nil
	}
	db, err := b.handle(ctx)
	if err != nil {
		return nil, false, err
	}

	var data string
	err = db.QueryRowContext(ctx, st.get, id).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("reading %s/%s: %w", collection, id, err)
	}
	rec, err := types.DecodeRecord(collection, []byte(data))
	if err != nil {
		return nil, false, err
	}
	return rec, true, nil
}

// GetAll returns every record of the collection ordered by key.
func (b *Backend) GetAll(ctx context.Context, collection string) ([]types.Record, error) {
	st, err := lookup(collection)
	if err != nil {
		return nil, err
	}
	db, err := b.handle(ctx)
	if err != nil {
		return nil, err
	}
	return queryRecords(ctx, db, collection, st.all)
}

// Update writes rec, replacing any record with the same key.
func (b *Backend) Update(ctx context.Context, collection string, rec types.Record) error {
	st, data, err := prepareWrite(collection, rec)
	if err != nil {
		return err
	}
	db, err := b.handle(ctx)
	if err != nil {
		return err
	}
	if _, err := db.ExecContext(ctx, st.upsert, rec.RecordID(), data); err != nil {
		return fmt.Errorf("writing %s/%s: %w", collection, rec.RecordID(), mapConstraint(err))
	}
	return nil
}

// Delete removes the record stored under id, if any.
func (b *Backend) Delete(ctx context.Context, collection, id string) error {
	st, err := lookup(collection)
	if err != nil {
		return err
	}
	if id == "" {
		return nil
	}
	db, err := b.handle(ctx)
	if err != nil {
		return err
	}
	if _, err := db.ExecContext(ctx, st.delete, id); err != nil {
		return fmt.Errorf("deleting %s/%s: %w", collection, id, err)
	}
	return nil
}

// GetByIndex returns the records whose indexed field equals value.
func (b *Backend) GetByIndex(ctx context.Context, collection, index string, value any) ([]types.Record, error) {
	st, err := lookup(collection)
	if err != nil {
		return nil, err
	}
	query, err := st.byIndex(index)
	if err != nil {
		return nil, err
	}
	arg, err := types.NormalizeIndexValue(value)
	if err != nil {
		return nil, err
	}
	db, err := b.handle(ctx)
	if err != nil {
		return nil, err
	}
	return queryRecords(ctx, db, collection, query, arg)
}

func prepareWrite(collection string, rec types.Record) (statements, string, error) {
	st, err := lookup(collection)
	if err != nil {
		return statements{}, "", err
	}
	if err := types.CheckRecord(collection, rec); err != nil {
		return statements{}, "", err
	}
	data, err := json.Marshal(rec)
	if err != nil {
		return statements{}, "", fmt.Errorf("%w: encoding %s/%s: %v", types.ErrInvalidData, collection, rec.RecordID(), err)
	}
	return st, string(data), nil
}

func queryRecords(ctx context.Context, db *sql.DB, collection, query string, args ...any) ([]types.Record, error) {
	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying %s: %w", collection, err)
	}
	defer rows.Close()

	records := []types.Record{}
	for rows.Next() {
		var data string
		if err := rows.Scan(&data); err != nil {
			return nil, fmt.Errorf("scanning %s row: %w", collection, err)
		}
		rec, err := types.DecodeRecord(collection, []byte(data))
		if err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating %s rows: %w", collection, err)
	}
	return records, nil
}

// mapConstraint turns a unique constraint failure into types.ErrDuplicateKey.
func mapConstraint(err error) error {
	var serr *sqlite.Error
	if errors.As(err, &serr) {
		switch serr.Code() {
		case sqlite3.SQLITE_CONSTRAINT_UNIQUE, sqlite3.SQLITE_CONSTRAINT_PRIMARYKEY:
			return fmt.Errorf("%w: %v", types.ErrDuplicateKey, err)
		}
	}
	return err
}
