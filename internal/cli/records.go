package cli

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/keepsake/pkg/types"
)

var collectionsHelp = "Collections: " + strings.Join(types.StandardCollectionNames, ", ")

func (a *app) addCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "add <collection> <json>",
		Short: "Add a record to a collection",
		Long: `Add inserts a new record. The record must not exist yet. When the JSON has no
identifier, a new one is generated.

` + collectionsHelp + `

Example:
  keepsake add accounts '{"type":"expense","amount":32.5,"category":"food","date":"2026-10-19"}'`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			rec, err := parseRecord(args[0], []byte(args[1]), true)
			if err != nil {
				return a.fail(err)
			}
			st, err := a.store(cmd.Context())
			if err != nil {
				return err
			}
			id, err := st.Add(cmd.Context(), args[0], rec)
			if err != nil {
				return a.fail(err)
			}
			fmt.Fprintln(a.stdout, id)
			return nil
		},
	}
}

func (a *app) updateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "update <collection> <json>",
		Short: "Create or replace a record",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			rec, err := parseRecord(args[0], []byte(args[1]), false)
			if err != nil {
				return a.fail(err)
			}
			st, err := a.store(cmd.Context())
			if err != nil {
				return err
			}
			if err := st.Update(cmd.Context(), args[0], rec); err != nil {
				return a.fail(err)
			}
			fmt.Fprintln(a.stdout, rec.RecordID())
			return nil
		},
	}
}

func (a *app) getCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "get <collection> <id>",
		Short: "Print a record as JSON",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := a.store(cmd.Context())
			if err != nil {
				return err
			}
			rec, found, err := st.Get(cmd.Context(), args[0], args[1])
			if err != nil {
				return a.fail(err)
			}
			if !found {
				return a.fail(fmt.Errorf("%w: %s/%s", errNotFound, args[0], args[1]))
			}
			return a.fail(writeJSON(a.stdout, rec))
		},
	}
}

func (a *app) deleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <collection> <id>",
		Short: "Delete a record; deleting a missing record succeeds",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := a.store(cmd.Context())
			if err != nil {
				return err
			}
			return a.fail(st.Delete(cmd.Context(), args[0], args[1]))
		},
	}
}

func (a *app) listCmd() *cobra.Command {
	var index, value string
	cmd := &cobra.Command{
		Use:   "list <collection>",
		Short: "List the records of a collection",
		Long: `List prints every record of a collection ordered by identifier. With --index
and --value only records whose indexed field equals the value are printed.
The value is read as JSON when it parses, as a plain string otherwise.

` + collectionsHelp + `

Example:
  keepsake list accounts --index type --value expense
  keepsake list diaries --json`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if (index == "") != (value == "") {
				return &exitError{code: exitUserError, err: fmt.Errorf("--index and --value go together")}
			}
			st, err := a.store(cmd.Context())
			if err != nil {
				return err
			}

			var recs []types.Record
			if index != "" {
				recs, err = st.GetByIndex(cmd.Context(), args[0], index, parseValue(value))
			} else {
				recs, err = st.GetAll(cmd.Context(), args[0])
			}
			if err != nil {
				return a.fail(err)
			}

			if a.flags.jsonMode {
				return a.fail(writeJSON(a.stdout, recs))
			}
			return a.fail(renderRecords(a.stdout, recs))
		},
	}
	cmd.Flags().StringVar(&index, "index", "", "secondary index to match on")
	cmd.Flags().StringVar(&value, "value", "", "value the indexed field must equal")
	return cmd
}

// parseRecord decodes a record of collection from JSON, fills its derived
// fields and validates it. When generateID is set and the key field is
// empty, a new identifier is filled in first.
func parseRecord(collection string, data []byte, generateID bool) (types.Record, error) {
	schema, ok := types.AppSchema.Collection(collection)
	if !ok {
		return nil, fmt.Errorf("%w: %q", types.ErrUnknownCollection, collection)
	}
	rec, err := types.DecodeRecord(collection, data)
	if err != nil {
		return nil, err
	}
	if rec.RecordID() == "" && generateID && schema.KeyField == "id" {
		var fields map[string]any
		if err := json.Unmarshal(data, &fields); err != nil {
			return nil, fmt.Errorf("%w: %v", types.ErrInvalidData, err)
		}
		fields[schema.KeyField] = types.NewID()
		withID, err := json.Marshal(fields)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", types.ErrInvalidData, err)
		}
		if rec, err = types.DecodeRecord(collection, withID); err != nil {
			return nil, err
		}
	}
	types.Normalize(rec)
	if err := rec.Validate(); err != nil {
		return nil, err
	}
	return rec, nil
}

// parseValue reads s as JSON, falling back to the raw string.
func parseValue(s string) any {
	var v any
	if err := json.Unmarshal([]byte(s), &v); err != nil {
		return s
	}
	return v
}
