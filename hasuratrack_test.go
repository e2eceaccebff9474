package hasuratrack

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tordrt/hasuratrack/internal/hasura"
	"github.com/tordrt/hasuratrack/internal/tracker"
)

// engine is a minimal fake of the administrative API
type engine struct {
	mu       sync.Mutex
	tables   []hasura.TableInfo
	fks      []map[string]any
	queries  []string
	metadata []string
}

func (e *engine) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	e.mu.Lock()
	defer e.mu.Unlock()

	var req struct {
		Type string          `json:"type"`
		Args json.RawMessage `json:"args"`
	}
	_ = json.NewDecoder(r.Body).Decode(&req)

	if r.URL.Path == "/v1/metadata" {
		e.metadata = append(e.metadata, req.Type)
		_, _ = io.WriteString(w, `{"message":"success"}`)
		return
	}

	var args hasura.RunSQLArgs
	_ = json.Unmarshal(req.Args, &args)
	e.queries = append(e.queries, args.SQL)

	var records any = e.tables
	if len(e.queries) > 1 {
		records = e.fks
	}
	inner, _ := json.Marshal(records)
	cell, _ := json.Marshal([]string{string(inner)})
	_, _ = io.WriteString(w, `{"result_type":"TuplesOk","result":[["coalesce"],`+string(cell)+`]}`)
}

func newEngine(t *testing.T) (*engine, string) {
	t.Helper()
	e := &engine{
		tables: []hasura.TableInfo{
			{TableSchema: "public", TableName: "users", Columns: []string{"id"}, ColumnTypes: []string{"integer"}},
			{TableSchema: "public", TableName: "posts", Columns: []string{"id", "user_id"}, ColumnTypes: []string{"integer", "integer"}},
		},
		fks: []map[string]any{{
			"table_name": "posts", "table_schema": "public", "constraint_name": "posts_user_id_fkey",
			"ref_table": "users", "ref_table_table_schema": "public",
			"column_mapping": map[string]string{"user_id": "id"}, "on_update": "a", "on_delete": "a",
		}},
	}
	srv := httptest.NewServer(e)
	t.Cleanup(srv.Close)
	return e, srv.URL
}

func TestTrackTables(t *testing.T) {
	e, endpoint := newEngine(t)

	report, err := TrackTables(context.Background(), &Options{
		Endpoint:      endpoint,
		DatabaseName:  "default",
		ExcludeTables: []string{"posts"},
	})
	require.NoError(t, err)

	assert.Equal(t, tracker.OutcomeSuccess, report.Outcome())
	require.Len(t, report.Items, 1)
	assert.Equal(t, "public.users", report.Items[0].Name())
	assert.Equal(t, []string{"pg_track_table"}, e.metadata)
}

func TestTrackRelationships(t *testing.T) {
	e, endpoint := newEngine(t)

	report, err := TrackRelationships(context.Background(), &Options{
		Endpoint:     endpoint,
		DatabaseName: "default",
	})
	require.NoError(t, err)

	assert.Equal(t, 1, report.Succeeded())
	assert.Equal(t, []string{"bulk"}, e.metadata)
	require.Len(t, e.queries, 2)
	assert.Contains(t, e.queries[1], "AND (ctn.nspname = 'public' or")
}

func TestTrackRelationshipsFilteredUsesTablesOnly(t *testing.T) {
	e, endpoint := newEngine(t)

	_, err := TrackRelationships(context.Background(), &Options{
		Endpoint:     endpoint,
		DatabaseName: "default",
		Tables:       []string{"public.posts"},
	})
	require.NoError(t, err)

	require.Len(t, e.queries, 2)
	assert.Contains(t, e.queries[1], "AND (ctn.nspname = 'public' and ct.relname = 'posts')")
}

func TestInspect(t *testing.T) {
	e, endpoint := newEngine(t)

	d, err := Inspect(context.Background(), &Options{Endpoint: endpoint, DatabaseName: "default"})
	require.NoError(t, err)

	assert.Len(t, d.Tables, 2)
	require.Len(t, d.ForeignKeys, 1)
	assert.Equal(t, "posts_user_id_fkey", d.ForeignKeys[0].ConstraintName)
	assert.Empty(t, e.metadata)
}

func TestTrackTablesUsesGivenHTTPClient(t *testing.T) {
	e := &engine{tables: []hasura.TableInfo{{TableSchema: "public", TableName: "users"}}}
	srv := httptest.NewTLSServer(e)
	t.Cleanup(srv.Close)

	report, err := TrackTables(context.Background(), &Options{
		Endpoint:     srv.URL,
		DatabaseName: "default",
		HTTPClient:   srv.Client(),
		Timeout:      5 * time.Second,
	})
	require.NoError(t, err)

	assert.Equal(t, 1, report.Succeeded())
	assert.Equal(t, []string{"pg_track_table"}, e.metadata)
}

func TestOptionsValidation(t *testing.T) {
	_, err := TrackTables(context.Background(), nil)
	assert.Error(t, err)

	_, err = TrackTables(context.Background(), &Options{Endpoint: "http://localhost:8080"})
	assert.ErrorContains(t, err, "database name")

	_, err = TrackTables(context.Background(), &Options{Endpoint: "not a url", DatabaseName: "default"})
	var cfgErr *hasura.ConfigError
	assert.ErrorAs(t, err, &cfgErr)
}
