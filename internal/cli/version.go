package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/keepsake/pkg/keepsake"
	"github.com/mesh-intelligence/keepsake/pkg/types"
)

const modulePath = "github.com/mesh-intelligence/keepsake"

func (a *app) versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the keepsake version",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			fmt.Fprintf(a.stdout, "keepsake v%s\nmodule: %s\nschema: %d\n", keepsake.Version, modulePath, types.SchemaVersion)
			return nil
		},
	}
}
