package store

import (
	"context"
	"fmt"
	"strings"
)

// QueryResult holds the rows returned by a read-only query. Values are
// decoded to Go primitives with []byte converted to string; nil values
// stay nil.
type QueryResult struct {
	Columns   []string `json:"columns"`
	Rows      [][]any  `json:"rows"`
	Truncated bool     `json:"truncated"`
}

// Query runs a read-only SELECT after passing the safety filter. At
// most maxRows rows are collected; the result is flagged truncated
// when the limit is hit.
func (s *Store) Query(ctx context.Context, query string, maxRows int) (*QueryResult, error) {
	if err := CheckReadOnly(query); err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("query failed: %w", err)
	}
	defer func() { _ = rows.Close() }()

	cols, err := rows.Columns()
	if err != nil {
		return nil, fmt.Errorf("read columns: %w", err)
	}

	result := &QueryResult{Columns: cols}
	for rows.Next() {
		if maxRows > 0 && len(result.Rows) >= maxRows {
			result.Truncated = true
			break
		}
		values := make([]any, len(cols))
		ptrs := make([]any, len(cols))
		for i := range values {
			ptrs[i] = &values[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, fmt.Errorf("scan row: %w", err)
		}
		for i, v := range values {
			if b, ok := v.([]byte); ok {
				values[i] = string(b)
			}
		}
		result.Rows = append(result.Rows, values)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate rows: %w", err)
	}
	return result, nil
}

// SchemaColumn describes one column of a table.
type SchemaColumn struct {
	Name       string `json:"name"`
	Type       string `json:"type"`
	NotNull    bool   `json:"not_null"`
	Default    string `json:"default,omitempty"`
	PrimaryKey bool   `json:"primary_key"`
}

// SchemaTable describes one table and its columns.
type SchemaTable struct {
	Name    string         `json:"name"`
	Columns []SchemaColumn `json:"columns"`
}

// DescribeSchema introspects every user table in the database.
func (s *Store) DescribeSchema(ctx context.Context) ([]SchemaTable, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT name FROM sqlite_master WHERE type = 'table' AND name NOT LIKE 'sqlite_%' AND name NOT LIKE 'goose_%' ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("list tables: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("scan table name: %w", err)
		}
		names = append(names, name)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate tables: %w", err)
	}

	tables := make([]SchemaTable, 0, len(names))
	for _, name := range names {
		table, err := s.describeTable(ctx, name)
		if err != nil {
			return nil, err
		}
		tables = append(tables, *table)
	}
	return tables, nil
}

func (s *Store) describeTable(ctx context.Context, name string) (*SchemaTable, error) {
	rows, err := s.db.QueryContext(ctx, fmt.Sprintf(`PRAGMA table_info(%q)`, name))
	if err != nil {
		return nil, fmt.Errorf("describe table %s: %w", name, err)
	}
	defer func() { _ = rows.Close() }()

	table := &SchemaTable{Name: name}
	for rows.Next() {
		var (
			cid        int
			colName    string
			colType    string
			notNull    int
			defaultVal *string
			pk         int
		)
		if err := rows.Scan(&cid, &colName, &colType, &notNull, &defaultVal, &pk); err != nil {
			return nil, fmt.Errorf("scan column of %s: %w", name, err)
		}
		col := SchemaColumn{
			Name:       colName,
			Type:       colType,
			NotNull:    notNull != 0,
			PrimaryKey: pk != 0,
		}
		if defaultVal != nil {
			col.Default = *defaultVal
		}
		table.Columns = append(table.Columns, col)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate columns of %s: %w", name, err)
	}
	return table, nil
}

// FormatSchema renders tables in the plain-text form used by the CLI
// and the MCP tool output.
func FormatSchema(tables []SchemaTable) string {
	var b strings.Builder
	for i, table := range tables {
		if i > 0 {
			b.WriteString("\n")
		}
		fmt.Fprintf(&b, "Table: %s\n", table.Name)
		for _, col := range table.Columns {
			var constraints []string
			if col.PrimaryKey {
				constraints = append(constraints, "PRIMARY KEY")
			}
			if col.NotNull {
				constraints = append(constraints, "NOT NULL")
			}
			if col.Default != "" {
				constraints = append(constraints, "DEFAULT "+col.Default)
			}
			suffix := ""
			if len(constraints) > 0 {
				suffix = " " + strings.Join(constraints, ", ")
			}
			fmt.Fprintf(&b, "  %s: %s%s\n", col.Name, col.Type, suffix)
		}
	}
	return b.String()
}
