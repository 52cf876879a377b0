// Package sqltext is the single escaping choke point for SQL built from
// team-derived strings.
//
// Identifiers (database, role, user, table, and column names) and literals
// (passwords, default values, comments) must never be concatenated raw into
// DDL. Every driver and the DDL renderer funnel interpolation through
// Ident and Literal — there is deliberately no other way to build these
// statements in this codebase.
package sqltext

import "strings"

// Ident quotes a SQL identifier (ANSI double-quoting). Embedded quotes are
// doubled, so a hostile name like `"; DROP TABLE x; --` stays inert inside
// the generated statement.
func Ident(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}

// QualifiedIdent quotes a schema-qualified identifier as "schema"."name".
func QualifiedIdent(schema, name string) string {
	return Ident(schema) + "." + Ident(name)
}

// Literal quotes a SQL string literal. Single quotes are doubled and the
// string is prefixed with E-escaping only when a backslash is present, so
// output is valid regardless of the server's standard_conforming_strings
// setting.
func Literal(value string) string {
	quoted := "'" + strings.ReplaceAll(strings.ReplaceAll(value, `\`, `\\`), "'", "''") + "'"
	if strings.Contains(value, `\`) {
		return "E" + quoted
	}
	return quoted
}
