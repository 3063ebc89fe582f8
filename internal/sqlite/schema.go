package sqlite

import (
	"fmt"

	"github.com/mesh-intelligence/keepsake/pkg/types"
)

// statements holds the SQL for one collection table. Table and column names
// come from types.AppSchema only.
type statements struct {
	schema types.CollectionSchema

	insert string
	upsert string
	get    string
	all    string
	delete string
}

var collectionSQL = buildStatements(types.AppSchema)

func buildStatements(schema types.Schema) map[string]statements {
	out := make(map[string]statements, len(schema.Collections))
	for _, c := range schema.Collections {
		table, key := quoteIdent(c.Name), quoteIdent(c.KeyField)
		out[c.Name] = statements{
			schema: c,
			insert: fmt.Sprintf(`INSERT INTO %s (%s, data) VALUES (?, ?) ON CONFLICT DO NOTHING`, table, key),
			upsert: fmt.Sprintf(`INSERT INTO %s (%s, data) VALUES (?, ?) ON CONFLICT(%s) DO UPDATE SET data = excluded.data`, table, key, key),
			get:    fmt.Sprintf(`SELECT data FROM %s WHERE %s = ?`, table, key),
			all:    fmt.Sprintf(`SELECT data FROM %s ORDER BY %s`, table, key),
			delete: fmt.Sprintf(`DELETE FROM %s WHERE %s = ?`, table, key),
		}
	}
	return out
}

// lookup returns the statements of a declared collection.
func lookup(collection string) (statements, error) {
	st, ok := collectionSQL[collection]
	if !ok {
		return statements{}, fmt.Errorf("%w: %q", types.ErrUnknownCollection, collection)
	}
	return st, nil
}

// byIndex returns the query matching records on a declared index. The WHERE
// expression is the one the migration indexes, so SQLite can use the index.
func (s statements) byIndex(index string) (string, error) {
	spec, ok := s.schema.Index(index)
	if !ok {
		return "", fmt.Errorf("%w: %s.%s", types.ErrIndexNotFound, s.schema.Name, index)
	}
	return fmt.Sprintf(`SELECT data FROM %s WHERE json_extract(data, '$.%s') = ? ORDER BY %s`,
		quoteIdent(s.schema.Name), spec.Field, quoteIdent(s.schema.KeyField)), nil
}

// indexName is the name the migration gives the index over field.
func indexName(collection, index string) string {
	return "idx_" + collection + "_" + index
}

func quoteIdent(name string) string {
	return `"` + name + `"`
}
