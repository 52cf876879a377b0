// Package schema reconstructs an approximate DDL description of a tenant
// database from live catalog metadata. The output is advisory context for
// AI completion, not an executable migration script.
package schema

// Reference is the target of a foreign-key column.
type Reference struct {
	Schema string
	Table  string
	Column string
}

// Column describes a single column in the reconstructed model.
type Column struct {
	Name         string
	DataType     string
	Nullable     bool
	Default      *string // nil if no default
	Comment      *string // nil if no comment
	MaxLength    *int    // nil for non-char types
	IsPrimaryKey bool
	IsForeignKey bool
	References   *Reference
}

// ForeignKey is a column-to-column constraint on a table.
type ForeignKey struct {
	Name      string
	Column    string
	RefSchema string
	RefTable  string
	RefColumn string
}

// Index is a non-primary index with its ordered column names.
type Index struct {
	Name    string
	Columns []string
}

// Table describes one base table or view. Column order matches the source
// catalog's ordinal position. PrimaryKeys and the IsPrimaryKey flags on the
// columns always agree — both are set in the same fold pass.
type Table struct {
	Schema      string
	Name        string
	IsView      bool
	Columns     []*Column
	PrimaryKeys []string
	ForeignKeys []ForeignKey
	Indexes     []Index
}

// Model is the full reconstructed schema of one tenant database.
// Tables preserves catalog order; byName provides (schema, table) lookup.
type Model struct {
	Tables []*Table

	byName map[string]*Table
}

func newModel() *Model {
	return &Model{byName: make(map[string]*Table)}
}

func tableKey(schemaName, tableName string) string {
	return schemaName + "." + tableName
}

func (m *Model) table(schemaName, tableName string) *Table {
	return m.byName[tableKey(schemaName, tableName)]
}

func (m *Model) addTable(t *Table) {
	m.Tables = append(m.Tables, t)
	m.byName[tableKey(t.Schema, t.Name)] = t
}
