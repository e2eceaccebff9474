//go:build integration
// +build integration

package db

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/tordrt/hasuratrack/internal/hasura"
)

const testSchema = `
	CREATE SCHEMA app;

	CREATE TABLE customers (
		id   SERIAL PRIMARY KEY,
		name TEXT NOT NULL
	);

	CREATE TABLE orders (
		id          SERIAL PRIMARY KEY,
		customer_id INTEGER NOT NULL REFERENCES customers(id) ON DELETE CASCADE,
		total       NUMERIC(10,2) NOT NULL DEFAULT 0
	);

	CREATE TABLE accounts (
		tenant_id INTEGER NOT NULL,
		id        INTEGER NOT NULL,
		PRIMARY KEY (tenant_id, id)
	);

	CREATE TABLE invoices (
		id         SERIAL PRIMARY KEY,
		account_id INTEGER NOT NULL,
		tenant_id  INTEGER NOT NULL,
		FOREIGN KEY (tenant_id, account_id) REFERENCES accounts (tenant_id, id)
	);

	CREATE TABLE app.notes (
		id       SERIAL PRIMARY KEY,
		order_id INTEGER REFERENCES public.orders(id),
		body     TEXT
	);
`

func setupCatalog(t *testing.T) *PostgresCatalog {
	t.Helper()
	ctx := context.Background()

	container, err := tcpostgres.Run(ctx,
		"postgres:16-alpine",
		tcpostgres.WithDatabase("testdb"),
		tcpostgres.WithUsername("test"),
		tcpostgres.WithPassword("test"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(30*time.Second),
		),
	)
	require.NoError(t, err)
	t.Cleanup(func() { _ = container.Terminate(ctx) })

	connStr, err := container.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	client, err := NewPostgresClient(ctx, connStr)
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Close(ctx) })

	_, err = client.conn.Exec(ctx, testSchema)
	require.NoError(t, err)

	return NewPostgresCatalog(client)
}

func TestPostgresCatalog(t *testing.T) {
	catalog := setupCatalog(t)
	ctx := context.Background()

	tables, err := catalog.Tables(ctx, "default")
	require.NoError(t, err)

	byName := make(map[string]hasura.TableInfo)
	for _, table := range tables {
		byName[table.QualifiedName()] = table
		assert.Len(t, table.ColumnTypes, len(table.Columns))
	}
	require.Contains(t, byName, "public.customers")
	require.Contains(t, byName, "public.orders")
	require.Contains(t, byName, "app.notes")
	require.Contains(t, byName, "public.invoices")
	assert.ElementsMatch(t, []string{"id", "customer_id", "total"}, byName["public.orders"].Columns)
	for name := range byName {
		assert.NotContains(t, name, "pg_catalog.")
		assert.NotContains(t, name, "information_schema.")
	}

	t.Run("all foreign keys", func(t *testing.T) {
		fks, err := catalog.ForeignKeys(ctx, "default", nil, nil)
		require.NoError(t, err)
		require.Len(t, fks, 3)
	})

	t.Run("composite key keeps position order", func(t *testing.T) {
		fks, err := catalog.ForeignKeys(ctx, "default", nil, []hasura.TableInfo{byName["public.invoices"]})
		require.NoError(t, err)
		require.Len(t, fks, 1)

		assert.Equal(t, hasura.ColumnMapping{
			{Column: "tenant_id", RefColumn: "tenant_id"},
			{Column: "account_id", RefColumn: "id"},
		}, fks[0].ColumnMapping)
	})

	t.Run("filtered by schema", func(t *testing.T) {
		fks, err := catalog.ForeignKeys(ctx, "default", []string{"public"}, nil)
		require.NoError(t, err)
		require.Len(t, fks, 2)

		byTable := make(map[string]hasura.FKInfo)
		for _, fk := range fks {
			byTable[fk.TableName] = fk
		}
		require.Contains(t, byTable, "orders")
		fk := byTable["orders"]
		assert.Equal(t, "orders", fk.TableName)
		assert.Equal(t, "customers", fk.RefTable)
		assert.Equal(t, "public", fk.RefTableTableSchema)
		assert.Equal(t, "c", fk.OnDelete)
		assert.Equal(t, hasura.ColumnMapping{{Column: "customer_id", RefColumn: "id"}}, fk.ColumnMapping)
	})

	t.Run("filtered by table", func(t *testing.T) {
		fks, err := catalog.ForeignKeys(ctx, "default", nil, []hasura.TableInfo{byName["app.notes"]})
		require.NoError(t, err)
		require.Len(t, fks, 1)
		assert.Equal(t, "app", fks[0].TableSchema)
		assert.Equal(t, "notes", fks[0].TableName)
	})
}
