package formatter

import (
	"fmt"
	"io"

	"github.com/tordrt/hasuratrack/internal/hasura"
	"github.com/tordrt/hasuratrack/internal/tracker"
)

// Formatter renders tracking reports and discovery results
type Formatter interface {
	FormatReport(r *tracker.Report) error
	FormatDiscovery(tables []hasura.TableInfo, fks []hasura.FKInfo) error
}

// New returns the formatter for format ("text" or "markdown").
// Text output writes failures to errW; markdown keeps everything on w.
func New(format string, w, errW io.Writer) (Formatter, error) {
	switch format {
	case "text", "":
		return NewTextFormatter(w, errW), nil
	case "markdown":
		return NewMarkdownFormatter(w), nil
	default:
		return nil, fmt.Errorf("invalid format: %s (must be 'text' or 'markdown')", format)
	}
}

func fkAction(code string) string {
	switch code {
	case "a":
		return "NO ACTION"
	case "r":
		return "RESTRICT"
	case "c":
		return "CASCADE"
	case "n":
		return "SET NULL"
	case "d":
		return "SET DEFAULT"
	default:
		return code
	}
}
