// Schema, drop, reset, and version commands for the freeform CLI.
package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/freeform-db/freeform/pkg/freeform"
)

var schemaCmd = &cobra.Command{
	Use:   "schema [table]",
	Short: "Show virtual tables and their columns",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, err := openContext()
		if err != nil {
			return err
		}
		defer ctx.Close()

		table := ""
		if len(args) == 1 {
			table = args[0]
		}
		schema, err := ctx.GetSchema(table)
		if err != nil {
			return err
		}
		if len(schema.Tables) == 0 {
			fmt.Println("no tables")
			return nil
		}
		for _, name := range schema.Tables {
			fmt.Printf("%s: %s\n", name, strings.Join(schema.Columns[name], ", "))
		}
		return nil
	},
}

var dropCmd = &cobra.Command{
	Use:   "drop <table>",
	Short: "Remove a virtual table and all its rows and columns",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, err := openContext()
		if err != nil {
			return err
		}
		defer ctx.Close()

		dropped, err := ctx.Drop(args[0])
		if err != nil {
			return err
		}
		if !dropped {
			fmt.Printf("table %s does not exist\n", args[0])
			return nil
		}
		fmt.Printf("dropped %s\n", args[0])
		return nil
	},
}

var flagResetForce bool

var resetCmd = &cobra.Command{
	Use:   "reset",
	Short: "Wipe all virtual data back to empty",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if !flagResetForce {
			return fmt.Errorf("reset wipes every table; re-run with --force")
		}
		ctx, err := openContext()
		if err != nil {
			return err
		}
		defer ctx.Close()

		if err := ctx.Reset(); err != nil {
			return err
		}
		fmt.Println("reset complete")
		return nil
	},
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the freeform version",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Println("freeform", freeform.Version)
	},
}

func init() {
	resetCmd.Flags().BoolVar(&flagResetForce, "force", false, "confirm the wipe")
}
