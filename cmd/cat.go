package cmd

import (
	"fmt"
	"log/slog"
	"os"
	"strings"
	"sync"

	"github.com/spf13/cobra"

	"github.com/arrowscan/arrowscan/datasource"
	"github.com/arrowscan/arrowscan/execution"
)

var (
	catColumns    string
	catPartitions int
)

var catCmd = &cobra.Command{
	Use:   "cat <table>",
	Short: "Scan a table and print its rows",
	Long: `Scan a table and print its rows. Each partition is driven by its own
goroutine; row order across partitions is unspecified.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		table, err := openTable(args[0])
		if err != nil {
			return err
		}
		schema, err := table.Schema()
		if err != nil {
			return fmt.Errorf("couldn't get schema: %w", err)
		}

		var projection datasource.Projection
		if catColumns != "" {
			for _, name := range strings.Split(catColumns, ",") {
				indices := schema.FieldIndices(strings.TrimSpace(name))
				if len(indices) == 0 {
					return fmt.Errorf("no such column: %s", name)
				}
				projection = append(projection, indices[0])
			}
		}

		result, err := table.Scan(projection, catPartitions)
		if err != nil {
			return fmt.Errorf("couldn't scan table: %w", err)
		}
		slog.Debug("scanning table", "table", args[0], "partitions", len(result.Partitions))

		records := make(chan execution.Record, len(result.Partitions))
		errs := make(chan error, len(result.Partitions))
		var wg sync.WaitGroup
		for i, it := range result.Partitions {
			wg.Add(1)
			go func(partition int, it execution.RecordIterator) {
				defer wg.Done()
				defer it.Close()
				for {
					record, err := it.Next(ctx)
					if err == execution.ErrEndOfStream {
						return
					} else if err != nil {
						slog.Error("partition failed", "partition", partition, "error", err)
						errs <- err
						return
					}
					records <- record
				}
			}(i, it)
		}
		go func() {
			wg.Wait()
			close(records)
			close(errs)
		}()

		formatter := NewTableFormatter(os.Stdout)
		formatter.SetSchema(result.Schema)
		for record := range records {
			if err := formatter.WriteRecord(record); err != nil {
				return err
			}
			record.Release()
		}
		if err := formatter.Close(); err != nil {
			return err
		}

		return <-errs
	},
}

func init() {
	catCmd.Flags().StringVar(&catColumns, "columns", "", "comma-separated columns to project")
	catCmd.Flags().IntVar(&catPartitions, "partitions", 1, "number of parallel scan partitions")
}
