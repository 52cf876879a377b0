package schema

import (
	"fmt"
	"strings"

	"github.com/vantigo/teamdb/internal/sqltext"
)

// RenderDDL renders the model as synthetic, idempotent-looking DDL text.
//
// Fixed emission order: base tables, views, foreign keys, indexes. Foreign
// keys come after all table bodies so no statement references a table that
// has not appeared yet.
func RenderDDL(m *Model) string {
	var sb strings.Builder

	var tables, views []*Table
	for _, t := range m.Tables {
		if t.IsView {
			views = append(views, t)
		} else {
			tables = append(tables, t)
		}
	}

	for _, t := range tables {
		renderTable(&sb, t)
	}
	for _, t := range views {
		renderTable(&sb, t)
	}

	for _, t := range append(tables, views...) {
		for _, fk := range t.ForeignKeys {
			sb.WriteString(fmt.Sprintf("ALTER TABLE %s ADD CONSTRAINT %s FOREIGN KEY (%s) REFERENCES %s(%s);\n",
				sqltext.QualifiedIdent(t.Schema, t.Name),
				sqltext.Ident(fk.Name),
				sqltext.Ident(fk.Column),
				sqltext.QualifiedIdent(fk.RefSchema, fk.RefTable),
				sqltext.Ident(fk.RefColumn)))
		}
	}

	for _, t := range append(tables, views...) {
		for _, idx := range t.Indexes {
			cols := make([]string, len(idx.Columns))
			for i, c := range idx.Columns {
				cols[i] = sqltext.Ident(c)
			}
			sb.WriteString(fmt.Sprintf("CREATE INDEX %s ON %s (%s);\n",
				sqltext.Ident(idx.Name),
				sqltext.QualifiedIdent(t.Schema, t.Name),
				strings.Join(cols, ", ")))
		}
	}

	return sb.String()
}

func renderTable(sb *strings.Builder, t *Table) {
	if t.IsView {
		sb.WriteString(fmt.Sprintf("-- %s is a view; rendered as a table, view definition omitted\n",
			sqltext.QualifiedIdent(t.Schema, t.Name)))
	}

	sb.WriteString(fmt.Sprintf("CREATE TABLE %s (\n", sqltext.QualifiedIdent(t.Schema, t.Name)))

	var lines []string
	for _, col := range t.Columns {
		lines = append(lines, "  "+renderColumn(col))
	}
	if len(t.PrimaryKeys) > 0 {
		pks := make([]string, len(t.PrimaryKeys))
		for i, pk := range t.PrimaryKeys {
			pks[i] = sqltext.Ident(pk)
		}
		lines = append(lines, fmt.Sprintf("  PRIMARY KEY (%s)", strings.Join(pks, ", ")))
	}
	sb.WriteString(strings.Join(lines, ",\n"))
	sb.WriteString("\n);\n")

	for _, col := range t.Columns {
		if col.Comment != nil {
			sb.WriteString(fmt.Sprintf("COMMENT ON COLUMN %s.%s IS %s;\n",
				sqltext.QualifiedIdent(t.Schema, t.Name),
				sqltext.Ident(col.Name),
				sqltext.Literal(*col.Comment)))
		}
	}
}

func renderColumn(col *Column) string {
	dataType, def := normalizeType(col)

	line := sqltext.Ident(col.Name) + " " + dataType
	if !col.Nullable {
		line += " NOT NULL"
	}
	if def != nil {
		// Defaults come back from the catalog as SQL expressions
		// (e.g. now(), 'draft'::text) and are embedded verbatim.
		line += " DEFAULT " + *def
	}
	return line
}

// normalizeType applies the rendering-time type rules: character varying
// with a known max length becomes varchar(N); an integer-family column
// whose default is a sequence nextval becomes the corresponding serial
// pseudo-type with the default cleared, since serial already implies the
// sequence.
func normalizeType(col *Column) (string, *string) {
	dataType := col.DataType
	def := col.Default

	switch dataType {
	case "character varying", "varchar":
		if col.MaxLength != nil {
			return fmt.Sprintf("varchar(%d)", *col.MaxLength), def
		}
		return "varchar", def
	case "character":
		if col.MaxLength != nil {
			return fmt.Sprintf("char(%d)", *col.MaxLength), def
		}
		return "char", def
	}

	if def != nil && strings.HasPrefix(*def, "nextval(") {
		switch dataType {
		case "integer", "int4":
			return "serial", nil
		case "bigint", "int8":
			return "bigserial", nil
		case "smallint", "int2":
			return "smallserial", nil
		}
	}

	return dataType, def
}
