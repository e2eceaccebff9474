// Package tracker discovers tables and foreign keys and registers them with
// the administrative API, one item at a time.
package tracker

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/tordrt/hasuratrack/internal/hasura"
)

// Catalog discovers tables and foreign keys of a source
type Catalog interface {
	Tables(ctx context.Context, source string) ([]hasura.TableInfo, error)
	ForeignKeys(ctx context.Context, source string, schemas []string, tables []hasura.TableInfo) ([]hasura.FKInfo, error)
}

// MetadataAPI applies metadata commands
type MetadataAPI interface {
	ExecuteMetadata(ctx context.Context, cmd hasura.Request) (json.RawMessage, error)
}

// Tracker runs discovery against a Catalog and registration against a MetadataAPI
type Tracker struct {
	catalog  Catalog
	metadata MetadataAPI
	logger   *slog.Logger
}

// New creates a tracker. A nil logger discards output.
func New(catalog Catalog, metadata MetadataAPI, logger *slog.Logger) *Tracker {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Tracker{
		catalog:  catalog,
		metadata: metadata,
		logger:   logger,
	}
}
