package formatter

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/tordrt/hasuratrack/internal/hasura"
	"github.com/tordrt/hasuratrack/internal/tracker"
)

// MarkdownFormatter formats reports as markdown
type MarkdownFormatter struct {
	writer io.Writer
}

// NewMarkdownFormatter creates a new markdown formatter
func NewMarkdownFormatter(w io.Writer) *MarkdownFormatter {
	return &MarkdownFormatter{writer: w}
}

// FormatReport writes a summary, a per-item table and the failures
func (f *MarkdownFormatter) FormatReport(r *tracker.Report) error {
	_, _ = fmt.Fprintf(f.writer, "# Tracking report: %s\n\n", r.Kind)
	_, _ = fmt.Fprintf(f.writer, "- **Outcome:** %s\n", r.Outcome())
	_, _ = fmt.Fprintf(f.writer, "- **Succeeded:** %d/%d\n", r.Succeeded(), r.Total())
	_, _ = fmt.Fprintf(f.writer, "- **Elapsed:** %s\n", r.Elapsed.Round(time.Millisecond))
	_, _ = fmt.Fprintln(f.writer)

	if r.Total() > 0 {
		_, _ = fmt.Fprintln(f.writer, "| # | Item | Status |")
		_, _ = fmt.Fprintln(f.writer, "|---|------|--------|")
		for i, item := range r.Items {
			status := "ok"
			if !item.OK() {
				status = "failed"
			}
			_, _ = fmt.Fprintf(f.writer, "| %d | %s | %s |\n", i+1, item.Name(), status)
		}
		_, _ = fmt.Fprintln(f.writer)
	}

	failures := r.Failures()
	if len(failures) > 0 {
		_, _ = fmt.Fprintln(f.writer, "## Failures")
		_, _ = fmt.Fprintln(f.writer)
		for _, item := range failures {
			_, _ = fmt.Fprintf(f.writer, "- %s\n", item.Failure())
		}
		_, _ = fmt.Fprintln(f.writer)
	}
	return nil
}

// FormatDiscovery writes one section per table, then the foreign keys
func (f *MarkdownFormatter) FormatDiscovery(tables []hasura.TableInfo, fks []hasura.FKInfo) error {
	_, _ = fmt.Fprintln(f.writer, "# Database Schema")
	_, _ = fmt.Fprintln(f.writer)

	for _, table := range tables {
		_, _ = fmt.Fprintf(f.writer, "## %s\n\n", table.QualifiedName())
		for i, col := range table.Columns {
			_, _ = fmt.Fprintf(f.writer, "- **%s:** %s\n", col, columnType(table, i))
		}
		_, _ = fmt.Fprintln(f.writer)
	}

	if len(fks) > 0 {
		_, _ = fmt.Fprintln(f.writer, "## Foreign Keys")
		_, _ = fmt.Fprintln(f.writer)
		for _, fk := range fks {
			_, _ = fmt.Fprintf(f.writer, "- **%s:** %s.%s (%s) → %s.%s (%s), on update %s, on delete %s\n",
				fk.ConstraintName,
				fk.TableSchema, fk.TableName, strings.Join(localColumns(fk), ", "),
				fk.RefTableTableSchema, fk.RefTable, strings.Join(refColumns(fk), ", "),
				strings.ToLower(fkAction(fk.OnUpdate)), strings.ToLower(fkAction(fk.OnDelete)))
		}
		_, _ = fmt.Fprintln(f.writer)
	}
	return nil
}
