package hasura

import (
	"fmt"
	"strings"
)

// queryTableDiscovery returns
// { table_name, table_schema, columns: string[], column_types: string[] }[]
// as a single JSON value.
const queryTableDiscovery = `
SELECT
	COALESCE(json_agg(row_to_json(info)), '[]'::JSON)
FROM (
	SELECT
		table_name::text,
		table_schema::text,
		ARRAY_AGG("column_name"::text) AS columns,
		ARRAY_AGG("data_type"::text) AS column_types
	FROM
		information_schema.columns
	WHERE
		table_schema NOT IN ('information_schema', 'pg_catalog', 'hdb_catalog', '_timescaledb_internal', 'crdb_internal')
		AND table_schema NOT LIKE 'pg_toast%'
		AND table_schema NOT LIKE 'pg_temp_%'
	GROUP BY
		table_name,
		table_schema) AS info;`

// queryForeignKeyDiscovery has one %s placeholder for the filter clause.
const queryForeignKeyDiscovery = `
SELECT
	COALESCE(json_agg(row_to_json(info)), '[]'::JSON)
FROM (
	SELECT
		q.table_schema::text AS table_schema,
		q.table_name::text AS table_name,
		q.constraint_name::text AS constraint_name,
		min(q.ref_table_table_schema::text) AS ref_table_table_schema,
		min(q.ref_table::text) AS ref_table,
		json_object_agg(ac.attname, afc.attname ORDER BY q.key_position) AS column_mapping,
		min(q.confupdtype::text) AS on_update,
		min(q.confdeltype::text) AS on_delete
	FROM (
		SELECT
			ctn.nspname AS table_schema,
			ct.relname AS table_name,
			r.conrelid AS table_id,
			r.conname AS constraint_name,
			cftn.nspname AS ref_table_table_schema,
			cft.relname AS ref_table,
			r.confrelid AS ref_table_id,
			r.confupdtype,
			r.confdeltype,
			unnest(r.conkey) AS column_id,
			unnest(r.confkey) AS ref_column_id,
			generate_subscripts(r.conkey, 1) AS key_position
		FROM
			pg_constraint r
			JOIN pg_class ct ON r.conrelid = ct.oid
			JOIN pg_namespace ctn ON ct.relnamespace = ctn.oid
			JOIN pg_class cft ON r.confrelid = cft.oid
			JOIN pg_namespace cftn ON cft.relnamespace = cftn.oid
		WHERE
			r.contype = 'f'::"char"
			%s
		) q
		JOIN pg_attribute ac ON q.column_id = ac.attnum
			AND q.table_id = ac.attrelid
		JOIN pg_attribute afc ON q.ref_column_id = afc.attnum
			AND q.ref_table_id = afc.attrelid
	GROUP BY
		q.table_schema,
		q.table_name,
		q.constraint_name) AS info;`

// TableDiscoveryQuery returns the SQL listing every user table with its columns.
func TableDiscoveryQuery() string {
	return queryTableDiscovery
}

// ForeignKeyDiscoveryQuery returns the SQL listing foreign key constraints,
// restricted to the given schemas and tables when either is non-empty.
//
// Names are interpolated as literals; they must come from a prior catalog query.
func ForeignKeyDiscoveryQuery(schemas []string, tables []TableInfo) string {
	return fmt.Sprintf(queryForeignKeyDiscovery, whereClause(schemas, tables, "ct.relname", "ctn.nspname", "AND"))
}

func whereClause(schemas []string, tables []TableInfo, tableCol, schemaCol, prefix string) string {
	var conditions []string
	for _, schema := range schemas {
		conditions = append(conditions, fmt.Sprintf("%s = '%s'", schemaCol, schema))
	}
	for _, table := range tables {
		conditions = append(conditions, fmt.Sprintf("%s = '%s' and %s = '%s'",
			schemaCol, table.TableSchema, tableCol, table.TableName))
	}
	if len(conditions) == 0 {
		return ""
	}
	return fmt.Sprintf("%s (%s)", prefix, strings.Join(conditions, " or "))
}
