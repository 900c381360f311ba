// Init command for the freeform CLI.
package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Create the configuration directory and database file",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		configDir, err := resolveConfigDir()
		if err != nil {
			return err
		}
		if err := ensureConfigDir(configDir); err != nil {
			return err
		}
		if err := ensureDefaultConfigFile(configDir); err != nil {
			return err
		}

		ctx, err := openContext()
		if err != nil {
			return err
		}
		defer ctx.Close()

		fmt.Println("freeform initialized")
		fmt.Println("  config:", configDir)
		fmt.Println("  db:    ", resolveDBPath())
		return nil
	},
}
