package formatter

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/tordrt/hasuratrack/internal/hasura"
	"github.com/tordrt/hasuratrack/internal/tracker"
)

// TextFormatter formats reports as compact text
type TextFormatter struct {
	writer    io.Writer
	errWriter io.Writer
}

// NewTextFormatter creates a new text formatter
func NewTextFormatter(w, errW io.Writer) *TextFormatter {
	if errW == nil {
		errW = w
	}
	return &TextFormatter{writer: w, errWriter: errW}
}

// FormatReport writes one line per item, a summary, then the failures
func (f *TextFormatter) FormatReport(r *tracker.Report) error {
	total := r.Total()
	for i, item := range r.Items {
		mark := "✓"
		if !item.OK() {
			mark = "✗"
		}
		_, _ = fmt.Fprintf(f.writer, "%d/%d %s %s\n", i+1, total, mark, item.Name())
	}

	elapsed := r.Elapsed.Round(time.Millisecond)
	failures := r.Failures()
	if len(failures) == 0 {
		_, _ = fmt.Fprintf(f.writer, "Done: %d %s (%s)\n", total, r.Kind, elapsed)
		return nil
	}

	_, _ = fmt.Fprintf(f.writer, "Finished with errors: %d/%d %s succeeded (%s)\n", r.Succeeded(), total, r.Kind, elapsed)
	for _, item := range failures {
		_, _ = fmt.Fprintln(f.errWriter, item.Failure())
	}
	return nil
}

// FormatDiscovery writes tables with their columns, then foreign keys
func (f *TextFormatter) FormatDiscovery(tables []hasura.TableInfo, fks []hasura.FKInfo) error {
	for i, table := range tables {
		if i > 0 {
			_, _ = fmt.Fprintln(f.writer) // Blank line between tables
		}
		_, _ = fmt.Fprintf(f.writer, "TABLE %s\n", table.QualifiedName())
		for j, col := range table.Columns {
			_, _ = fmt.Fprintf(f.writer, "  %s: %s\n", col, columnType(table, j))
		}
	}

	if len(fks) == 0 {
		return nil
	}

	_, _ = fmt.Fprintln(f.writer)
	_, _ = fmt.Fprintln(f.writer, "FOREIGN KEYS:")
	for _, fk := range fks {
		_, _ = fmt.Fprintf(f.writer, "  %s: %s.%s(%s) → %s.%s(%s) ON UPDATE %s ON DELETE %s\n",
			fk.ConstraintName,
			fk.TableSchema, fk.TableName, strings.Join(localColumns(fk), ", "),
			fk.RefTableTableSchema, fk.RefTable, strings.Join(refColumns(fk), ", "),
			fkAction(fk.OnUpdate), fkAction(fk.OnDelete))
	}
	return nil
}

// columnType returns the type of column i, tolerating a short types slice
func columnType(table hasura.TableInfo, i int) string {
	if i < len(table.ColumnTypes) {
		return table.ColumnTypes[i]
	}
	return "?"
}

func localColumns(fk hasura.FKInfo) []string {
	cols := make([]string, len(fk.ColumnMapping))
	for i, p := range fk.ColumnMapping {
		cols[i] = p.Column
	}
	return cols
}

func refColumns(fk hasura.FKInfo) []string {
	cols := make([]string, len(fk.ColumnMapping))
	for i, p := range fk.ColumnMapping {
		cols[i] = p.RefColumn
	}
	return cols
}
