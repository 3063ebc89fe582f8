package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

func (a *app) initCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "init",
		Short: "Initialize keepsake storage",
		Long:  "Create the configuration and data directories, then open the store so that its schema is in place.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, err := a.store(cmd.Context()); err != nil {
				return err
			}
			dataDir, err := a.dataDir()
			if err != nil {
				return a.fail(err)
			}
			fmt.Fprintln(a.stdout, "keepsake initialized")
			fmt.Fprintln(a.stdout, "  config:", a.configDir)
			fmt.Fprintln(a.stdout, "  data:  ", dataDir)
			fmt.Fprintln(a.stdout, "  backend:", a.config.GetString(cfgKeyBackend))
			return nil
		},
	}
}
