package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/tordrt/hasuratrack"
	"github.com/tordrt/hasuratrack/internal/config"
	"github.com/tordrt/hasuratrack/internal/formatter"
	"github.com/tordrt/hasuratrack/internal/tracker"
)

// Exit codes
const (
	exitOK      = 0
	exitFatal   = 1
	exitPartial = 2
)

// errPartial is returned when --strict is set and some items failed
var errPartial = errors.New("finished with errors")

var (
	endpoint      string
	adminSecret   string
	dbURL         string
	envFile       string
	timeout       time.Duration
	rateLimit     float64
	logLevel      string
	format        string
	strict        bool
	databaseName  string
	tables        string
	excludeTables string

	cfg    config.Config
	logger *slog.Logger
)

var rootCmd = &cobra.Command{
	Use:           "hasura-track",
	Short:         "Track database tables and relationships in a Hasura GraphQL engine",
	Long:          `hasura-track discovers the tables and foreign keys of a database connected to a Hasura GraphQL engine and registers them through the engine's metadata API.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if skipSetup(cmd) {
			return nil
		}
		return setup(cmd.ErrOrStderr())
	},
}

var tablesCmd = &cobra.Command{
	Use:   "tables",
	Short: "Track every table of the database",
	RunE: func(cmd *cobra.Command, args []string) error {
		report, err := hasuratrack.TrackTables(cmd.Context(), options())
		if err != nil {
			return err
		}
		return render(cmd, report)
	},
}

var relationshipsCmd = &cobra.Command{
	Use:   "relationships",
	Short: "Create object and array relationships from foreign keys",
	RunE: func(cmd *cobra.Command, args []string) error {
		report, err := hasuratrack.TrackRelationships(cmd.Context(), options())
		if err != nil {
			return err
		}
		return render(cmd, report)
	},
}

var inspectCmd = &cobra.Command{
	Use:   "inspect",
	Short: "Print discovered tables and foreign keys without tracking them",
	RunE: func(cmd *cobra.Command, args []string) error {
		d, err := hasuratrack.Inspect(cmd.Context(), options())
		if err != nil {
			return err
		}
		f, err := formatter.New(format, cmd.OutOrStdout(), cmd.ErrOrStderr())
		if err != nil {
			return err
		}
		return f.FormatDiscovery(d.Tables, d.ForeignKeys)
	},
}

func init() {
	pf := rootCmd.PersistentFlags()
	pf.StringVar(&endpoint, "endpoint", "", "GraphQL engine endpoint (env "+config.EnvEndpoint+")")
	pf.StringVar(&adminSecret, "admin-secret", "", "Admin secret (env "+config.EnvAdminSecret+")")
	pf.StringVar(&dbURL, "db-url", "", "Run discovery directly against this PostgreSQL connection string (env "+config.EnvDatabaseURL+")")
	pf.StringVar(&envFile, "env-file", "", "Load environment variables from this file (default: .env if present)")
	pf.DurationVar(&timeout, "timeout", 0, "HTTP request timeout (default 30s, env "+config.EnvTimeout+")")
	pf.Float64Var(&rateLimit, "rate-limit", 0, "Max requests per second, 0 for unlimited (env "+config.EnvRateLimit+")")
	pf.StringVar(&logLevel, "log-level", "", "Log level: debug, info, warn, error (env "+config.EnvLogLevel+")")
	pf.StringVarP(&format, "format", "f", "text", "Output format: text or markdown")
	pf.BoolVar(&strict, "strict", false, "Exit with status 2 when some items failed")

	for _, cmd := range []*cobra.Command{tablesCmd, relationshipsCmd, inspectCmd} {
		cmd.Flags().StringVar(&databaseName, "database-name", "", "Source name of the database in the engine")
		cmd.Flags().StringVarP(&tables, "tables", "t", "", "Only these tables (comma-separated, name or schema.name)")
		cmd.Flags().StringVar(&excludeTables, "exclude-tables", "", "Skip these tables (comma-separated, name or schema.name)")
		_ = cmd.MarkFlagRequired("database-name")
		rootCmd.AddCommand(cmd)
	}
}

// skipSetup reports whether cmd is completion or help, which run without an
// endpoint.
func skipSetup(cmd *cobra.Command) bool {
	for c := cmd; c != nil; c = c.Parent() {
		switch c.Name() {
		case "completion", cobra.ShellCompRequestCmd, cobra.ShellCompNoDescRequestCmd, "help":
			return true
		}
	}
	return false
}

func setup(stderr io.Writer) error {
	if err := config.LoadEnvFile(envFile); err != nil {
		return err
	}

	cfg = config.Config{
		Endpoint:    endpoint,
		AdminSecret: adminSecret,
		DatabaseURL: dbURL,
		Timeout:     timeout,
		RateLimit:   rateLimit,
	}
	if err := cfg.FromEnv(); err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	if logLevel == "" {
		logLevel = os.Getenv(config.EnvLogLevel)
	}
	level, err := config.ParseLogLevel(logLevel)
	if err != nil {
		return err
	}

	logger = slog.New(slog.NewTextHandler(stderr, &slog.HandlerOptions{Level: level})).
		With("run_id", uuid.NewString())
	return nil
}

func options() *hasuratrack.Options {
	return &hasuratrack.Options{
		Endpoint:      cfg.Endpoint,
		AdminSecret:   cfg.AdminSecret,
		DatabaseName:  databaseName,
		DatabaseURL:   cfg.DatabaseURL,
		Tables:        parseTableList(tables),
		ExcludeTables: parseTableList(excludeTables),
		Timeout:       cfg.Timeout,
		RateLimit:     cfg.RateLimit,
		Logger:        logger,
	}
}

func render(cmd *cobra.Command, report *tracker.Report) error {
	f, err := formatter.New(format, cmd.OutOrStdout(), cmd.ErrOrStderr())
	if err != nil {
		return err
	}
	if err := f.FormatReport(report); err != nil {
		return fmt.Errorf("failed to format output: %w", err)
	}

	if strict && report.Outcome() == tracker.OutcomePartial {
		return errPartial
	}
	return nil
}

func parseTableList(s string) []string {
	if s == "" {
		return nil
	}
	list := strings.Split(s, ",")
	for i, t := range list {
		list[i] = strings.TrimSpace(t)
	}
	return list
}

func exitCode(err error) int {
	switch {
	case err == nil:
		return exitOK
	case errors.Is(err, errPartial):
		return exitPartial
	default:
		return exitFatal
	}
}

func main() {
	err := rootCmd.ExecuteContext(context.Background())
	if err != nil && !errors.Is(err, errPartial) {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
	}
	os.Exit(exitCode(err))
}
