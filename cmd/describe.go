package cmd

import (
	"fmt"
	"os"
	"strconv"

	"github.com/spf13/cobra"
)

var describeCmd = &cobra.Command{
	Use:   "describe <table>",
	Short: "Print the schema and statistics of a table",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		table, err := openTable(args[0])
		if err != nil {
			return err
		}
		schema, err := table.Schema()
		if err != nil {
			return fmt.Errorf("couldn't get schema: %w", err)
		}

		formatter := NewTableFormatter(os.Stdout)
		formatter.SetHeader([]string{"name", "type", "nullable"})
		for i := 0; i < schema.NumFields(); i++ {
			field := schema.Field(i)
			formatter.Append([]string{field.Name, field.Type.String(), strconv.FormatBool(field.Nullable)})
		}
		if err := formatter.Close(); err != nil {
			return err
		}

		if stats := table.Statistics(); stats != nil {
			if stats.RowCount != nil {
				fmt.Printf("rows: %d\n", *stats.RowCount)
			}
			if stats.SizeBytes != nil {
				fmt.Printf("size: %d bytes\n", *stats.SizeBytes)
			}
		}
		return nil
	},
}
