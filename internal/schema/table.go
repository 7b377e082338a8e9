// Package schema declares the persistent tables of the application and derives
// insert validators from them.
//
// A Table is the single source of truth for column names, nullability and
// defaults. The storage layer renders its DDL from it (CreateTableSQL) and the
// request layer validates payloads with an InsertSchema derived from it
// (CreateInsertSchema + Pick / Omit).
package schema

import (
	"fmt"
	"strings"
)

// Kind is the primitive type of a column.
type Kind int

const (
	KindVarchar Kind = iota
	KindText
	KindReal
	KindTimestamp
	KindJSONB
)

func (k Kind) String() string {
	switch k {
	case KindVarchar:
		return "varchar"
	case KindText:
		return "text"
	case KindReal:
		return "real"
	case KindTimestamp:
		return "timestamp"
	case KindJSONB:
		return "jsonb"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// Default describes how the storage layer fills a column the caller left out.
type Default int

const (
	NoDefault Default = iota
	DefaultRandomUUID
	DefaultNow
)

// Column is one column of a Table.
//
// Key is the name used in JSON payloads and Go code ("fileUrl"),
// Name is the SQL column name ("file_url").
//
// Modifiers return a copy, so column definitions read as a chain:
//
//	Varchar("id", "id").PrimaryKey().DefaultRandomUUID()
type Column struct {
	Key  string
	Name string
	Kind Kind

	notNull    bool
	primaryKey bool
	unique     bool
	def        Default
}

func newColumn(kind Kind, key, name string) Column {
	return Column{Key: key, Name: name, Kind: kind}
}

func Varchar(key, name string) Column   { return newColumn(KindVarchar, key, name) }
func Text(key, name string) Column      { return newColumn(KindText, key, name) }
func Real(key, name string) Column      { return newColumn(KindReal, key, name) }
func Timestamp(key, name string) Column { return newColumn(KindTimestamp, key, name) }
func JSONB(key, name string) Column     { return newColumn(KindJSONB, key, name) }

func (c Column) NotNull() Column {
	c.notNull = true
	return c
}

// PrimaryKey marks the column as the primary key. Primary keys are NOT NULL.
func (c Column) PrimaryKey() Column {
	c.primaryKey = true
	c.notNull = true
	return c
}

func (c Column) Unique() Column {
	c.unique = true
	return c
}

func (c Column) DefaultRandomUUID() Column {
	c.def = DefaultRandomUUID
	return c
}

func (c Column) DefaultNow() Column {
	c.def = DefaultNow
	return c
}

func (c Column) IsNotNull() bool    { return c.notNull }
func (c Column) IsPrimaryKey() bool { return c.primaryKey }
func (c Column) IsUnique() bool     { return c.unique }
func (c Column) Default() Default   { return c.def }
func (c Column) HasDefault() bool   { return c.def != NoDefault }

// Table is a named, ordered set of columns.
type Table struct {
	Name    string
	Columns []Column
	byKey   map[string]int
}

// NewTable builds a table definition. It panics on duplicate keys or column
// names: tables are declared once at package init, so a clash is a programming
// error, the same way regexp.MustCompile treats a bad pattern.
func NewTable(name string, columns ...Column) *Table {
	t := &Table{
		Name:    name,
		Columns: columns,
		byKey:   make(map[string]int, len(columns)),
	}
	names := make(map[string]bool, len(columns))
	for i, c := range columns {
		if _, dup := t.byKey[c.Key]; dup {
			panic(fmt.Sprintf("schema: table %s: duplicate column key %q", name, c.Key))
		}
		if names[c.Name] {
			panic(fmt.Sprintf("schema: table %s: duplicate column name %q", name, c.Name))
		}
		t.byKey[c.Key] = i
		names[c.Name] = true
	}
	return t
}

// Column looks up a column by its payload key.
func (t *Table) Column(key string) (Column, bool) {
	i, ok := t.byKey[key]
	if !ok {
		return Column{}, false
	}
	return t.Columns[i], true
}

// ColumnNames returns the SQL column names in declaration order.
func (t *Table) ColumnNames() []string {
	names := make([]string, len(t.Columns))
	for i, c := range t.Columns {
		names[i] = c.Name
	}
	return names
}

// Dialect selects the SQL flavour rendered by CreateTableSQL.
type Dialect int

const (
	SQLite Dialect = iota
	Postgres
)

// CreateTableSQL renders an idempotent CREATE TABLE statement for the table.
//
// SQLite has no UUID generator, so the sqlite rendering leaves random-UUID
// columns without a DEFAULT; the repository assigns ids before inserting.
func (t *Table) CreateTableSQL(d Dialect) string {
	var b strings.Builder
	fmt.Fprintf(&b, "CREATE TABLE IF NOT EXISTS %s (\n", t.Name)
	for i, c := range t.Columns {
		fmt.Fprintf(&b, "\t%s %s", c.Name, sqlType(d, c.Kind))
		if c.primaryKey {
			b.WriteString(" PRIMARY KEY")
		} else if c.notNull {
			b.WriteString(" NOT NULL")
		}
		if c.unique {
			b.WriteString(" UNIQUE")
		}
		if def := sqlDefault(d, c.def); def != "" {
			b.WriteString(" DEFAULT " + def)
		}
		if i < len(t.Columns)-1 {
			b.WriteString(",")
		}
		b.WriteString("\n")
	}
	b.WriteString(");")
	return b.String()
}

func sqlType(d Dialect, k Kind) string {
	if d == Postgres {
		switch k {
		case KindVarchar:
			return "VARCHAR"
		case KindText:
			return "TEXT"
		case KindReal:
			// Postgres REAL is 4 bytes and rounds integers above 2^24;
			// file sizes need the full float64 range.
			return "DOUBLE PRECISION"
		case KindTimestamp:
			return "TIMESTAMP"
		case KindJSONB:
			return "JSONB"
		}
	}
	switch k {
	case KindReal:
		return "REAL"
	case KindTimestamp:
		// modernc.org/sqlite only parses values back into time.Time for
		// columns declared with a date/time type.
		return "DATETIME"
	default:
		return "TEXT"
	}
}

func sqlDefault(d Dialect, def Default) string {
	switch def {
	case DefaultRandomUUID:
		if d == Postgres {
			return "gen_random_uuid()"
		}
		return ""
	case DefaultNow:
		if d == Postgres {
			return "now()"
		}
		return "CURRENT_TIMESTAMP"
	}
	return ""
}
