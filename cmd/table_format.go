package cmd

import (
	"io"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/olekukonko/tablewriter"

	"github.com/arrowscan/arrowscan/execution"
)

type TableFormatter struct {
	table *tablewriter.Table
}

func NewTableFormatter(w io.Writer) *TableFormatter {
	table := tablewriter.NewWriter(w)
	table.SetColWidth(24)
	table.SetRowLine(false)

	return &TableFormatter{
		table: table,
	}
}

func (t *TableFormatter) SetHeader(header []string) {
	t.table.SetHeader(header)
	t.table.SetAutoFormatHeaders(false)
}

func (t *TableFormatter) SetSchema(schema *arrow.Schema) {
	header := make([]string, schema.NumFields())
	for i := range header {
		header[i] = schema.Field(i).Name
	}
	t.SetHeader(header)
}

func (t *TableFormatter) Append(row []string) {
	t.table.Append(row)
}

func (t *TableFormatter) WriteRecord(record execution.Record) error {
	for i := int64(0); i < record.NumRows(); i++ {
		row := make([]string, record.NumCols())
		for j := range row {
			column := record.Column(j)
			if column.IsNull(int(i)) {
				row[j] = "<null>"
			} else {
				row[j] = column.ValueStr(int(i))
			}
		}
		t.table.Append(row)
	}
	return nil
}

func (t *TableFormatter) Close() error {
	t.table.Render()
	return nil
}
