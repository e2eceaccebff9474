package db

import (
	"context"
	"fmt"

	"github.com/tordrt/hasuratrack/internal/hasura"
)

// PostgresCatalog runs the discovery queries directly against Postgres
// instead of through the engine's run_sql endpoint. The source name is
// ignored: the connection already points at the database.
type PostgresCatalog struct {
	client *PostgresClient
}

// NewPostgresCatalog creates a catalog backed by client
func NewPostgresCatalog(client *PostgresClient) *PostgresCatalog {
	return &PostgresCatalog{client: client}
}

// Tables lists user tables with their columns
func (c *PostgresCatalog) Tables(ctx context.Context, _ string) ([]hasura.TableInfo, error) {
	payload, err := c.client.queryJSON(ctx, hasura.TableDiscoveryQuery())
	if err != nil {
		return nil, fmt.Errorf("finding tables from db failed: %w", err)
	}

	var tables []hasura.TableInfo
	if err := hasura.DecodeRecords(payload, &tables); err != nil {
		return nil, fmt.Errorf("finding tables from db failed: %w", err)
	}
	return tables, nil
}

// ForeignKeys lists foreign key constraints restricted to schemas and tables
func (c *PostgresCatalog) ForeignKeys(ctx context.Context, _ string, schemas []string, tables []hasura.TableInfo) ([]hasura.FKInfo, error) {
	payload, err := c.client.queryJSON(ctx, hasura.ForeignKeyDiscoveryQuery(schemas, tables))
	if err != nil {
		return nil, fmt.Errorf("finding foreign keys from db failed: %w", err)
	}

	var fks []hasura.FKInfo
	if err := hasura.DecodeRecords(payload, &fks); err != nil {
		return nil, fmt.Errorf("finding foreign keys from db failed: %w", err)
	}
	return fks, nil
}
