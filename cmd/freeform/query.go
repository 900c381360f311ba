// Query command for the freeform CLI. With a query argument it runs
// one-shot; without arguments it drops into an interactive loop that
// reads SQL until a blank line, prompts for parameter values, and
// prints tab-separated rows.
package main

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/freeform-db/freeform/pkg/freeform"
	"github.com/freeform-db/freeform/pkg/types"
)

var flagParams []string

var queryCmd = &cobra.Command{
	Use:   "query [sql]",
	Short: "Run a query, or start an interactive query loop",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, err := openContext()
		if err != nil {
			return err
		}
		defer ctx.Close()

		if len(args) == 1 {
			return runOneQuery(ctx, args[0], flagParams)
		}
		return runQueryLoop(ctx)
	},
}

func init() {
	queryCmd.Flags().StringArrayVar(&flagParams, "param", nil, "parameter binding, name=value (repeatable)")
}

func runOneQuery(ctx *freeform.Context, sqlText string, params []string) error {
	sel, err := ctx.Parse(sqlText)
	if err != nil {
		return err
	}
	for _, p := range params {
		name, value, ok := strings.Cut(p, "=")
		if !ok {
			return fmt.Errorf("expected name=value, got %q", p)
		}
		if !strings.HasPrefix(name, "@") {
			name = "@" + name
		}
		sel.AddParam(name, parseScalar(value))
	}
	return printResults(ctx, sel)
}

func runQueryLoop(ctx *freeform.Context) error {
	fmt.Println("Enter your SQL on one or more lines, end with a blank line,")
	fmt.Println("then supply param values, and away we go!")

	scanner := bufio.NewScanner(os.Stdin)
	for {
		fmt.Print("\n> ")
		var lines []string
		for scanner.Scan() {
			line := scanner.Text()
			if strings.TrimSpace(line) == "" {
				break
			}
			lines = append(lines, line)
		}
		if len(lines) == 0 {
			return scanner.Err()
		}

		sel, err := ctx.Parse(strings.Join(lines, "\n"))
		if err != nil {
			fmt.Println("ERROR:", err)
			continue
		}

		if err := promptParams(scanner, sel); err != nil {
			return err
		}

		if err := printResults(ctx, sel); err != nil {
			fmt.Println("ERROR:", err)
		}
	}
}

// promptParams asks for a value for every parameter the WHERE clause
// references.
func promptParams(scanner *bufio.Scanner, sel *types.Select) error {
	for _, crits := range sel.Where {
		for _, crit := range crits.Criteria {
			fmt.Printf("%s: ", crit.ParamName)
			if !scanner.Scan() {
				return scanner.Err()
			}
			sel.AddParam(crit.ParamName, parseScalar(strings.TrimSpace(scanner.Text())))
		}
	}
	return nil
}

func printResults(ctx *freeform.Context, sel *types.Select) error {
	reader, err := ctx.ExecQuery(sel)
	if err != nil {
		return err
	}
	defer reader.Close()

	headers := make([]string, reader.GetColumnCount())
	for i := range headers {
		headers[i] = reader.GetColumnName(i)
	}
	fmt.Println(strings.Join(headers, "\t"))

	resultCount := 0
	for reader.Read() {
		row := make([]string, reader.GetColumnCount())
		for i := range row {
			row[i] = reader.GetString(i)
		}
		fmt.Println(strings.Join(row, "\t"))
		resultCount++
	}
	if err := reader.Err(); err != nil {
		return err
	}
	fmt.Println("Results:", resultCount)
	return nil
}
