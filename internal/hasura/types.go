package hasura

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// TableInfo describes one table discovered in the catalog.
// Columns and ColumnTypes are parallel: index i describes the same column.
type TableInfo struct {
	TableName   string   `json:"table_name"`
	TableSchema string   `json:"table_schema"`
	Columns     []string `json:"columns"`
	ColumnTypes []string `json:"column_types"`
}

// QualifiedName returns schema.table
func (t TableInfo) QualifiedName() string {
	return t.TableSchema + "." + t.TableName
}

// ColumnPair maps a local column to the column it references
type ColumnPair struct {
	Column    string
	RefColumn string
}

// ColumnMapping is a foreign key's column mapping in key position order.
// It decodes from a JSON object and keeps the key order of the document,
// which the discovery query aggregates by position in the constraint.
type ColumnMapping []ColumnPair

// UnmarshalJSON decodes {"local":"referenced", ...} preserving key order.
func (m *ColumnMapping) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))

	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if tok == nil {
		*m = nil
		return nil
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return fmt.Errorf("column mapping: expected object, got %v", tok)
	}

	var pairs ColumnMapping
	seen := make(map[string]bool)
	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return err
		}
		key, ok := keyTok.(string)
		if !ok {
			return fmt.Errorf("column mapping: expected string key, got %v", keyTok)
		}
		var value string
		if err := dec.Decode(&value); err != nil {
			return fmt.Errorf("column mapping %q: %w", key, err)
		}
		if seen[key] {
			return fmt.Errorf("column mapping: duplicate column %q", key)
		}
		seen[key] = true
		pairs = append(pairs, ColumnPair{Column: key, RefColumn: value})
	}
	if _, err := dec.Token(); err != nil {
		return err
	}

	*m = pairs
	return nil
}

// MarshalJSON encodes the mapping as a JSON object in order.
func (m ColumnMapping) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, p := range m {
		if i > 0 {
			buf.WriteByte(',')
		}
		k, err := json.Marshal(p.Column)
		if err != nil {
			return nil, err
		}
		v, err := json.Marshal(p.RefColumn)
		if err != nil {
			return nil, err
		}
		buf.Write(k)
		buf.WriteByte(':')
		buf.Write(v)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// First returns the first mapping entry
func (m ColumnMapping) First() (ColumnPair, bool) {
	if len(m) == 0 {
		return ColumnPair{}, false
	}
	return m[0], true
}

// FKInfo is one foreign key constraint discovered in the catalog
type FKInfo struct {
	TableName           string        `json:"table_name"`
	TableSchema         string        `json:"table_schema"`
	ConstraintName      string        `json:"constraint_name"`
	RefTable            string        `json:"ref_table"`
	RefTableTableSchema string        `json:"ref_table_table_schema"`
	ColumnMapping       ColumnMapping `json:"column_mapping"`
	OnUpdate            string        `json:"on_update"`
	OnDelete            string        `json:"on_delete"`
}

// Request is the tagged command envelope accepted by the administrative API
type Request struct {
	Type string `json:"type"`
	Args any    `json:"args,omitempty"`
}

// RunSQLArgs are the arguments of a run_sql command
type RunSQLArgs struct {
	SQL    string `json:"sql"`
	Source string `json:"source"`
}

// RunSQLResponse is the body returned by /v2/query for run_sql
type RunSQLResponse struct {
	ResultType string            `json:"result_type"`
	Result     []json.RawMessage `json:"result"`
}

// QualifiedTable identifies a table by schema and name
type QualifiedTable struct {
	Name   string `json:"name"`
	Schema string `json:"schema"`
}

// TrackTableArgs are the arguments of pg_track_table
type TrackTableArgs struct {
	Source string         `json:"source"`
	Table  QualifiedTable `json:"table"`
}

// ObjectRelationshipUsing configures an object relationship
type ObjectRelationshipUsing struct {
	ForeignKeyConstraintOn string `json:"foreign_key_constraint_on"`
}

// ForeignKeyConstraintOn points an array relationship at the owning table's column
type ForeignKeyConstraintOn struct {
	Table  QualifiedTable `json:"table"`
	Column string         `json:"column"`
}

// ArrayRelationshipUsing configures an array relationship
type ArrayRelationshipUsing struct {
	ForeignKeyConstraintOn ForeignKeyConstraintOn `json:"foreign_key_constraint_on"`
}

// CreateObjectRelationshipArgs are the arguments of pg_create_object_relationship
type CreateObjectRelationshipArgs struct {
	Name   string                  `json:"name"`
	Source string                  `json:"source"`
	Table  QualifiedTable          `json:"table"`
	Using  ObjectRelationshipUsing `json:"using"`
}

// CreateArrayRelationshipArgs are the arguments of pg_create_array_relationship
type CreateArrayRelationshipArgs struct {
	Name   string                 `json:"name"`
	Source string                 `json:"source"`
	Table  QualifiedTable         `json:"table"`
	Using  ArrayRelationshipUsing `json:"using"`
}

// Metadata command types
const (
	TypeRunSQL                   = "run_sql"
	TypeBulk                     = "bulk"
	TypeTrackTable               = "pg_track_table"
	TypeCreateObjectRelationship = "pg_create_object_relationship"
	TypeCreateArrayRelationship  = "pg_create_array_relationship"
)

// Bulk wraps commands into a single bulk request
func Bulk(commands ...Request) Request {
	return Request{Type: TypeBulk, Args: commands}
}
