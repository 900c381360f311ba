// Define and undefine commands for the freeform CLI.
package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/freeform-db/freeform/pkg/types"
)

var defineCmd = &cobra.Command{
	Use:   "define <table> <key> [name=value ...]",
	Short: "Upsert one row; tables and columns are created on demand",
	Long: `Upsert one row into a virtual table. The table and any new column
names are created on first reference. Values that parse as numbers are
stored as numbers; wrap a value in single quotes to force a string.`,
	Args: cobra.MinimumNArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		attrs, err := parseAttrs(args[2:])
		if err != nil {
			return err
		}

		ctx, err := openContext()
		if err != nil {
			return err
		}
		defer ctx.Close()

		if err := ctx.Define(args[0], parseScalar(args[1]), attrs); err != nil {
			return err
		}
		fmt.Printf("defined %s[%s] with %d column(s)\n", args[0], args[1], len(attrs))
		return nil
	},
}

var undefineCmd = &cobra.Command{
	Use:   "undefine <table> <key> <column>",
	Short: "Remove one column value from one row",
	Args:  cobra.ExactArgs(3),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, err := openContext()
		if err != nil {
			return err
		}
		defer ctx.Close()

		if err := ctx.Undefine(args[0], parseScalar(args[1]), args[2]); err != nil {
			return err
		}
		fmt.Printf("undefined %s[%s].%s\n", args[0], args[1], args[2])
		return nil
	},
}

var deleteCmd = &cobra.Command{
	Use:   "delete <table> <key> [key ...]",
	Short: "Delete rows by primary key",
	Args:  cobra.MinimumNArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, err := openContext()
		if err != nil {
			return err
		}
		defer ctx.Close()

		keys := make([]types.StrNum, 0, len(args)-1)
		for _, arg := range args[1:] {
			keys = append(keys, parseScalar(arg))
		}
		if err := ctx.DeleteRows(args[0], keys); err != nil {
			return err
		}
		fmt.Printf("deleted %d row(s) from %s\n", len(keys), args[0])
		return nil
	},
}
