package tracker

import (
	"context"
	"fmt"
	"time"

	"github.com/tordrt/hasuratrack/internal/hasura"
)

// DiscoverTables lists the user tables of source
func (t *Tracker) DiscoverTables(ctx context.Context, source string) ([]hasura.TableInfo, error) {
	tables, err := t.catalog.Tables(ctx, source)
	if err != nil {
		return nil, err
	}
	t.logger.Debug("discovered tables", "source", source, "count", len(tables))
	return tables, nil
}

// TrackTable issues pg_track_table for one table. Any 200 JSON reply counts as success.
func (t *Tracker) TrackTable(ctx context.Context, source, table, schema string) error {
	_, err := t.metadata.ExecuteMetadata(ctx, hasura.Request{
		Type: hasura.TypeTrackTable,
		Args: hasura.TrackTableArgs{
			Source: source,
			Table:  hasura.QualifiedTable{Name: table, Schema: schema},
		},
	})
	return err
}

// SelectTables discovers the tables of source and applies sel
func (t *Tracker) SelectTables(ctx context.Context, source string, sel Selection) ([]hasura.TableInfo, error) {
	tables, err := t.DiscoverTables(ctx, source)
	if err != nil {
		return nil, err
	}
	if !sel.Active() {
		return tables, nil
	}

	tables = sel.Apply(tables)
	t.logger.Debug("selected tables", "source", source, "count", len(tables))
	return tables, nil
}

// TrackAll discovers the tables of source and tracks each selected one.
// A discovery error is returned; tracking errors are collected in the report.
func (t *Tracker) TrackAll(ctx context.Context, source string, sel Selection) (*Report, error) {
	tables, err := t.SelectTables(ctx, source, sel)
	if err != nil {
		return nil, err
	}
	return t.TrackTables(ctx, source, tables), nil
}

// TrackTables tracks tables sequentially in the given order, continuing past failures.
func (t *Tracker) TrackTables(ctx context.Context, source string, tables []hasura.TableInfo) *Report {
	started := time.Now()
	report := &Report{Kind: KindTables, Items: make([]Item, 0, len(tables))}

	for i, table := range tables {
		item := Item{Schema: table.TableSchema, Table: table.TableName}
		item.Err = t.TrackTable(ctx, source, table.TableName, table.TableSchema)
		report.Items = append(report.Items, item)

		progress := fmt.Sprintf("%d/%d", i+1, len(tables))
		if item.Err != nil {
			t.logger.Warn("failed to track table", "progress", progress, "schema", table.TableSchema, "table", table.TableName, "error", item.Err)
			continue
		}
		t.logger.Info("tracked table", "progress", progress, "schema", table.TableSchema, "table", table.TableName)
	}

	report.Elapsed = time.Since(started)
	return report
}
