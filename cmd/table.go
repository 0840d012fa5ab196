package cmd

import (
	"fmt"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"github.com/arrowscan/arrowscan/config"
	"github.com/arrowscan/arrowscan/datasource"
	"github.com/arrowscan/arrowscan/datasource/csv"
	"github.com/arrowscan/arrowscan/datasource/json"
	"github.com/arrowscan/arrowscan/datasource/parquet"
)

// openTable resolves the argument to a table provider. With a catalog configured,
// the argument may name a catalog entry; otherwise it's a file path and the
// format is picked by extension.
func openTable(name string) (datasource.TableProvider, error) {
	tableType := ""
	path := name
	var opts config.TableOptions

	if configPath != "" {
		cfg, err := config.ReadConfig(configPath)
		if err != nil {
			return nil, fmt.Errorf("couldn't read table catalog: %w", err)
		}
		table, err := cfg.GetTableConfig(name)
		if err == nil {
			tableType = table.Type
			path = table.Path
			opts = table.Options
		} else if err != config.ErrNotFound {
			return nil, err
		}
	}

	if tableType == "" {
		switch strings.ToLower(filepath.Ext(path)) {
		case ".csv":
			tableType = "csv"
		case ".json", ".ndjson", ".jsonl":
			tableType = "json"
		case ".parquet":
			tableType = "parquet"
		default:
			return nil, fmt.Errorf("couldn't detect table type of %s", path)
		}
	}

	switch tableType {
	case "csv":
		separator := rune(0)
		if opts.Separator != "" {
			r, _ := utf8.DecodeRuneInString(opts.Separator)
			if r == utf8.RuneError {
				return nil, fmt.Errorf("couldn't decode separator %s to rune", opts.Separator)
			}
			separator = r
		}
		return csv.NewTableProvider(path, csv.Options{
			Separator:         separator,
			BatchSize:         opts.BatchSize,
			TypeInferenceRows: opts.TypeInferenceRows,
			MinPartitionBytes: opts.MinPartitionBytes,
		})
	case "json":
		return json.NewTableProvider(path, json.Options{
			BatchSize:         opts.BatchSize,
			TypeInferenceRows: opts.TypeInferenceRows,
			MinPartitionBytes: opts.MinPartitionBytes,
		})
	case "parquet":
		return parquet.NewTableProvider(path, parquet.Options{
			BatchSize: opts.BatchSize,
		})
	default:
		return nil, fmt.Errorf("unknown table type %s", tableType)
	}
}
