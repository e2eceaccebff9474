package tracker

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/tordrt/hasuratrack/internal/hasura"
)

// DiscoverForeignKeys lists the foreign keys owned by any of schemas or tables.
// With both empty every foreign key of the database is returned.
func (t *Tracker) DiscoverForeignKeys(ctx context.Context, source string, schemas []string, tables []hasura.TableInfo) ([]hasura.FKInfo, error) {
	fks, err := t.catalog.ForeignKeys(ctx, source, schemas, tables)
	if err != nil {
		return nil, err
	}

	if t.logger.Enabled(ctx, slog.LevelDebug) {
		if data, err := json.MarshalIndent(fks, "", "  "); err == nil {
			t.logger.Debug("discovered foreign keys", "source", source, "count", len(fks), "foreign_keys", string(data))
		}
	}
	return fks, nil
}

// RelationshipCommands builds the object and array relationship pair for a foreign key.
//
// Only the first column mapping entry is used; composite keys are reduced to
// their first column.
func RelationshipCommands(source string, fk hasura.FKInfo) (hasura.Request, error) {
	pair, ok := fk.ColumnMapping.First()
	if !ok {
		return hasura.Request{}, &hasura.MissingColumnMappingError{
			Schema:     fk.TableSchema,
			Table:      fk.TableName,
			Constraint: fk.ConstraintName,
		}
	}

	owner := hasura.QualifiedTable{Name: fk.TableName, Schema: fk.TableSchema}
	referenced := hasura.QualifiedTable{Name: fk.RefTable, Schema: fk.RefTableTableSchema}

	object := hasura.Request{
		Type: hasura.TypeCreateObjectRelationship,
		Args: hasura.CreateObjectRelationshipArgs{
			Name:   fk.TableName,
			Source: source,
			Table:  owner,
			Using:  hasura.ObjectRelationshipUsing{ForeignKeyConstraintOn: pair.Column},
		},
	}
	array := hasura.Request{
		Type: hasura.TypeCreateArrayRelationship,
		Args: hasura.CreateArrayRelationshipArgs{
			Name:   fk.TableName,
			Source: source,
			Table:  referenced,
			Using: hasura.ArrayRelationshipUsing{
				ForeignKeyConstraintOn: hasura.ForeignKeyConstraintOn{Table: owner, Column: pair.Column},
			},
		},
	}
	return hasura.Bulk(object, array), nil
}

// TrackRelationships registers both directions of every foreign key, one bulk
// call per key. Failures are recorded and do not stop the loop.
func (t *Tracker) TrackRelationships(ctx context.Context, source string, fks []hasura.FKInfo) *Report {
	started := time.Now()
	report := &Report{Kind: KindRelationships, Items: make([]Item, 0, len(fks))}

	for i, fk := range fks {
		item := Item{Schema: fk.TableSchema, Table: fk.TableName, Constraint: fk.ConstraintName}

		cmd, err := RelationshipCommands(source, fk)
		if err == nil {
			_, err = t.metadata.ExecuteMetadata(ctx, cmd)
		}
		item.Err = err
		report.Items = append(report.Items, item)

		progress := fmt.Sprintf("%d/%d", i+1, len(fks))
		if err != nil {
			t.logger.Warn("failed to create relationships", "progress", progress, "schema", fk.TableSchema, "table", fk.TableName, "constraint", fk.ConstraintName, "error", err)
			continue
		}
		t.logger.Info("created relationships", "progress", progress, "schema", fk.TableSchema, "table", fk.TableName,
			"constraint", fk.ConstraintName, "ref_table", fk.RefTableTableSchema+"."+fk.RefTable)
	}

	report.Elapsed = time.Since(started)
	return report
}

// SelectForeignKeys discovers the foreign keys of the selected tables.
// Without an active selection whole schemas are searched; with one, only keys
// owned by the selected tables are returned.
func (t *Tracker) SelectForeignKeys(ctx context.Context, source string, tables []hasura.TableInfo, sel Selection) ([]hasura.FKInfo, error) {
	if !sel.Active() {
		return t.DiscoverForeignKeys(ctx, source, UniqueSchemas(tables), tables)
	}
	if len(tables) == 0 {
		return nil, nil
	}
	return t.DiscoverForeignKeys(ctx, source, nil, tables)
}

// TrackAllRelationships discovers tables, then their foreign keys, and registers them.
func (t *Tracker) TrackAllRelationships(ctx context.Context, source string, sel Selection) (*Report, error) {
	tables, err := t.SelectTables(ctx, source, sel)
	if err != nil {
		return nil, err
	}
	fks, err := t.SelectForeignKeys(ctx, source, tables, sel)
	if err != nil {
		return nil, err
	}
	return t.TrackRelationships(ctx, source, fks), nil
}

// UniqueSchemas returns the schemas of tables in first-seen order
func UniqueSchemas(tables []hasura.TableInfo) []string {
	seen := make(map[string]bool)
	var schemas []string
	for _, table := range tables {
		if seen[table.TableSchema] {
			continue
		}
		seen[table.TableSchema] = true
		schemas = append(schemas, table.TableSchema)
	}
	return schemas
}
