// Package hasuratrack tracks database tables and foreign key relationships
// with a Hasura GraphQL engine through its administrative API.
//
// Tables are discovered with catalog queries, sent either through the
// engine's run_sql endpoint or directly to Postgres, and registered one at a
// time. A failure to register one item is recorded and the batch continues;
// a failure to discover is returned as an error.
//
// # Quick Start
//
//	report, err := hasuratrack.TrackTables(ctx, &hasuratrack.Options{
//		Endpoint:     "http://localhost:8080",
//		AdminSecret:  os.Getenv("HASURA_GRAPHQL_ADMIN_SECRET"),
//		DatabaseName: "default",
//	})
//	if err != nil {
//		log.Fatal(err) // nothing was tracked
//	}
//	for _, item := range report.Failures() {
//		log.Println(item.Failure())
//	}
//
// # Relationships
//
// TrackRelationships registers, for every foreign key, an object relationship
// on the owning table and an array relationship on the referenced table in
// one bulk call. Only the first column of a composite key is used.
package hasuratrack

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/tordrt/hasuratrack/internal/db"
	"github.com/tordrt/hasuratrack/internal/hasura"
	"github.com/tordrt/hasuratrack/internal/tracker"
)

// Options configures a tracking run.
//
// Endpoint and DatabaseName are required. All other fields are optional.
type Options struct {
	// Endpoint is the base URL of the engine, e.g. http://localhost:8080
	Endpoint string

	// AdminSecret is sent as x-hasura-admin-secret. Empty sends an empty header.
	AdminSecret string

	// DatabaseName is the source name configured in the engine
	DatabaseName string

	// DatabaseURL, when set, runs discovery directly against Postgres with
	// this connection string instead of through run_sql.
	DatabaseURL string

	// Tables restricts processing to these tables, given as name or schema.name.
	Tables []string

	// ExcludeTables removes tables, given as name or schema.name.
	// Applied after Tables.
	ExcludeTables []string

	// HTTPClient sends the requests. Nil uses a client with a 30 second timeout.
	HTTPClient *http.Client

	// Timeout bounds each HTTP request. Zero uses the client default.
	Timeout time.Duration

	// RateLimit caps requests per second. Zero disables pacing.
	RateLimit float64

	// Logger receives per-item outcomes. Nil discards them.
	Logger *slog.Logger
}

// Discovery is what Inspect found in the database
type Discovery struct {
	Tables      []hasura.TableInfo
	ForeignKeys []hasura.FKInfo
}

// TrackTables discovers tables and tracks each one.
//
// Returns an error if the options are invalid or discovery fails. Per-table
// failures are reported in the returned report.
func TrackTables(ctx context.Context, opts *Options) (*tracker.Report, error) {
	s, err := open(ctx, opts)
	if err != nil {
		return nil, err
	}
	defer s.close(ctx)

	return s.tracker.TrackAll(ctx, opts.DatabaseName, opts.selection())
}

// TrackRelationships discovers tables and the foreign keys between them and
// creates the object and array relationship for each key.
func TrackRelationships(ctx context.Context, opts *Options) (*tracker.Report, error) {
	s, err := open(ctx, opts)
	if err != nil {
		return nil, err
	}
	defer s.close(ctx)

	return s.tracker.TrackAllRelationships(ctx, opts.DatabaseName, opts.selection())
}

// Inspect runs discovery only and issues no metadata commands
func Inspect(ctx context.Context, opts *Options) (*Discovery, error) {
	s, err := open(ctx, opts)
	if err != nil {
		return nil, err
	}
	defer s.close(ctx)

	sel := opts.selection()
	tables, err := s.tracker.SelectTables(ctx, opts.DatabaseName, sel)
	if err != nil {
		return nil, err
	}
	fks, err := s.tracker.SelectForeignKeys(ctx, opts.DatabaseName, tables, sel)
	if err != nil {
		return nil, err
	}
	return &Discovery{Tables: tables, ForeignKeys: fks}, nil
}

func (o *Options) selection() tracker.Selection {
	return tracker.Selection{Include: o.Tables, Exclude: o.ExcludeTables}
}

type session struct {
	tracker *tracker.Tracker
	pg      *db.PostgresClient
	logger  *slog.Logger
}

func open(ctx context.Context, opts *Options) (*session, error) {
	if opts == nil {
		return nil, fmt.Errorf("options are required")
	}
	if opts.DatabaseName == "" {
		return nil, fmt.Errorf("database name is required")
	}

	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	client, err := hasura.NewClient(opts.Endpoint, opts.AdminSecret,
		hasura.WithHTTPClient(opts.HTTPClient),
		hasura.WithTimeout(opts.Timeout),
		hasura.WithRateLimit(opts.RateLimit),
	)
	if err != nil {
		return nil, err
	}

	s := &session{logger: logger}

	var catalog tracker.Catalog = client
	if opts.DatabaseURL != "" {
		pg, err := db.NewPostgresClient(ctx, opts.DatabaseURL)
		if err != nil {
			return nil, fmt.Errorf("failed to connect to PostgreSQL: %w", err)
		}
		s.pg = pg
		catalog = db.NewPostgresCatalog(pg)
		logger.Debug("discovering through direct database connection")
	}

	s.tracker = tracker.New(catalog, client, logger)
	return s, nil
}

func (s *session) close(ctx context.Context) {
	if s.pg == nil {
		return
	}
	if err := s.pg.Close(ctx); err != nil {
		s.logger.Warn("failed to close PostgreSQL connection", "error", err)
	}
}
