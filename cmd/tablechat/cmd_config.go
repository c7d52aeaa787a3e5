package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"tablechat/internal/config"
)

// forceInit is set by config init --force.
var forceInit bool

// initConfig writes DefaultConfig to the config path. Keys from the
// environment are not written.
func initConfig(cmd *cobra.Command, args []string) error {
	path := resolveConfigPath()
	if _, err := os.Stat(path); err == nil && !forceInit {
		return fmt.Errorf("%s already exists (use --force to overwrite)", path)
	}
	if err := config.DefaultConfig().Save(path); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Wrote %s\n", path)
	return nil
}
