package sqlbackend

import (
	"context"
	"fmt"
	"log"
	"strings"

	"github.com/spartasim/simdb/internal/schema"
	simdberrors "github.com/spartasim/simdb/pkg/errors"
)

// sqlType maps a schema.DataType to its SQLite storage class. SQLite is
// dynamically typed but the declared type still drives column affinity and
// self-documents the on-disk shape.
func sqlType(t schema.DataType) (string, error) {
	switch t {
	case schema.Char, schema.Int8, schema.Int16, schema.Int32,
		schema.UInt8, schema.UInt16, schema.UInt32, schema.FKey:
		return "INTEGER", nil
	case schema.Int64, schema.UInt64:
		return "BIGINT", nil
	case schema.Float, schema.Double:
		return "REAL", nil
	case schema.String:
		return "TEXT", nil
	case schema.Blob:
		return "BLOB", nil
	default:
		return "", fmt.Errorf("sqlbackend: no SQL type mapping for %s", t)
	}
}

// buildColumnDDL renders one column definition fragment, e.g.
// "`Age` INTEGER DEFAULT 0". Non-scalar (matrix) columns are
// rejected by ValidateSchema before this is ever called.
func buildColumnDDL(c schema.Column) (string, error) {
	typ, err := sqlType(c.Type)
	if err != nil {
		return "", err
	}
	var b strings.Builder
	fmt.Fprintf(&b, "`%s` %s", c.Name, typ)
	if c.Default != nil {
		fmt.Fprintf(&b, " DEFAULT %s", formatDefault(c.Default))
	}
	return b.String(), nil
}

func formatDefault(v any) string {
	switch val := v.(type) {
	case string:
		return "'" + strings.ReplaceAll(val, "'", "''") + "'"
	default:
		return fmt.Sprintf("%v", val)
	}
}

// buildIndexDDL renders a CREATE INDEX statement for an indexed column.
// SQLite (unlike MySQL) cannot declare a secondary index inline inside
// CREATE TABLE, so indexed columns are realized as a second statement.
func buildIndexDDL(table, column string) string {
	return fmt.Sprintf("CREATE INDEX IF NOT EXISTS `idx_%s_%s` ON `%s` (`%s`)", table, column, table, column)
}

// buildForeignKeyDDL renders the inline REFERENCES clause appended to a
// fkey column's definition.
func buildForeignKeyDDL(column, targetTable string) string {
	return fmt.Sprintf("FOREIGN KEY (`%s`) REFERENCES `%s`(`%s`)", column, targetTable, schema.IDColumnName)
}

// ValidateSchema rejects any table whose shape this back-end cannot
// express: non-scalar (matrix) columns have no row/column representation.
func (b *Backend) ValidateSchema(s *schema.Schema) error {
	for _, t := range s.Tables() {
		for _, c := range t.Columns {
			if !c.IsScalar() {
				return simdberrors.NewSchemaError(t.Name, c.Name, "sqlbackend does not support matrix-valued columns")
			}
			if _, err := sqlType(c.Type); err != nil {
				return simdberrors.NewSchemaError(t.Name, c.Name, err.Error())
			}
		}
	}
	return nil
}

// RealizeSchema creates one physical table per schema.Table not already
// realized under ns, following the teacher's CreatePhysicalTable shape
// (internal/infrastructure/persistence/schema_ddl_ops.go): build the DDL
// text with a strings.Builder, log it, execute it, then create any
// secondary indexes and register the table.
func (b *Backend) RealizeSchema(ctx context.Context, s *schema.Schema, ns string) error {
	for _, t := range s.Tables() {
		qualified := schema.QualifyTableName(ns, t.Name)
		if _, ok := b.realized[qualified]; ok {
			continue // already realized; append is a no-op (spec.md §3)
		}
		if err := b.createPhysicalTable(ctx, qualified, t); err != nil {
			return err
		}
		b.realized[qualified] = t
	}
	return nil
}

func (b *Backend) createPhysicalTable(ctx context.Context, qualified string, t schema.Table) error {
	var ddl strings.Builder
	fmt.Fprintf(&ddl, "CREATE TABLE IF NOT EXISTS `%s` (\n", qualified)
	ddl.WriteString(fmt.Sprintf("  `%s` INTEGER PRIMARY KEY AUTOINCREMENT,\n", schema.IDColumnName))

	for i, c := range t.Columns {
		colDDL, err := buildColumnDDL(c)
		if err != nil {
			return simdberrors.NewSchemaError(qualified, c.Name, err.Error())
		}
		if c.Type == schema.FKey && c.FKeyTarget != "" {
			colDDL += ",\n  " + buildForeignKeyDDL(c.Name, schema.QualifyTableName(tableNamespace(qualified), c.FKeyTarget))
		}
		ddl.WriteString("  ")
		ddl.WriteString(colDDL)
		if i < len(t.Columns)-1 {
			ddl.WriteString(",")
		}
		ddl.WriteString("\n")
	}
	ddl.WriteString(")")

	log.Printf("📐 sqlbackend: creating table %s", qualified)
	if _, err := b.exec().ExecContext(ctx, ddl.String()); err != nil {
		log.Printf("❌ sqlbackend: failed to create table %s: %v", qualified, err)
		return fmt.Errorf("sqlbackend: create table %s: %w", qualified, err)
	}

	for _, c := range t.Columns {
		if !c.Indexed {
			continue
		}
		idxDDL := buildIndexDDL(qualified, c.Name)
		if _, err := b.exec().ExecContext(ctx, idxDDL); err != nil {
			return fmt.Errorf("sqlbackend: create index on %s.%s: %w", qualified, c.Name, err)
		}
	}
	log.Printf("✅ sqlbackend: table %s realized", qualified)
	return nil
}

// tableNamespace extracts the namespace prefix of an already-qualified
// table name, or "" if unqualified.
func tableNamespace(qualified string) string {
	if i := strings.Index(qualified, schema.NamespaceDelimiter); i >= 0 {
		return qualified[:i]
	}
	return ""
}
