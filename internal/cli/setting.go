package cli

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/keepsake/pkg/types"
)

func (a *app) settingCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "setting",
		Short: "Read and write settings",
	}

	var def string
	get := &cobra.Command{
		Use:   "get <key>",
		Short: "Print a setting as JSON, or the default when it is unset",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var defValue any
			if def != "" {
				if err := json.Unmarshal([]byte(def), &defValue); err != nil {
					return a.fail(fmt.Errorf("%w: --default: %v", types.ErrInvalidData, err))
				}
			}
			st, err := a.store(cmd.Context())
			if err != nil {
				return err
			}
			return a.fail(writeJSON(a.stdout, st.GetSetting(cmd.Context(), args[0], defValue)))
		},
	}
	get.Flags().StringVar(&def, "default", "", "JSON value printed when the setting is unset")

	set := &cobra.Command{
		Use:   "set <key> <json>",
		Short: "Store a setting",
		Example: `  keepsake setting set monthlyBudget 3000
  keepsake setting set theme '"dark"'`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			var value any
			if err := json.Unmarshal([]byte(args[1]), &value); err != nil {
				return a.fail(fmt.Errorf("%w: setting value: %v", types.ErrInvalidData, err))
			}
			st, err := a.store(cmd.Context())
			if err != nil {
				return err
			}
			return a.fail(st.SetSetting(cmd.Context(), args[0], value))
		},
	}

	cmd.AddCommand(get, set)
	return cmd
}
