package sqlparser

import (
	"strings"

	"github.com/leapstack-labs/catalogsql/pkg/token"
)

// Node is the base interface for all AST nodes.
type Node interface {
	node()
	String() string
}

// Statement is a top-level SQL statement.
type Statement interface {
	Node
	statementNode()
	// StartPos is the position of the statement's first token.
	StartPos() token.Position
}

// ---------- Names ----------

// Ident is a single, possibly quoted, identifier.
type Ident struct {
	Value string
	Quote byte // 0 for bare identifiers
}

func (i Ident) String() string {
	if i.Quote == 0 {
		return i.Value
	}
	q := string(i.Quote)
	return q + strings.ReplaceAll(i.Value, q, q+q) + q
}

// ObjectName is a dot separated, possibly qualified, name: a, s.a, c.s.a.
type ObjectName []Ident

func (n ObjectName) String() string {
	parts := make([]string, len(n))
	for i, id := range n {
		parts[i] = id.String()
	}
	return strings.Join(parts, ".")
}

// Parts returns the unquoted name parts.
func (n ObjectName) Parts() []string {
	parts := make([]string, len(n))
	for i, id := range n {
		parts[i] = id.Value
	}
	return parts
}

// ---------- Types and columns ----------

// DataType is a column type such as INT, VARCHAR(20), DECIMAL(10,2),
// TIMESTAMP WITH TIME ZONE or INT[].
type DataType struct {
	Name   string   // uppercased, multi-word names joined by a single space
	Params []string // type parameters, as written
	Array  int      // number of trailing [] suffixes
}

func (d DataType) String() string {
	var sb strings.Builder
	sb.WriteString(d.Name)
	if len(d.Params) > 0 {
		sb.WriteByte('(')
		sb.WriteString(strings.Join(d.Params, ", "))
		sb.WriteByte(')')
	}
	for i := 0; i < d.Array; i++ {
		sb.WriteString("[]")
	}
	return sb.String()
}

// ColumnOptionKind identifies a column option.
type ColumnOptionKind int

// Column option kinds.
const (
	OptionNull ColumnOptionKind = iota
	OptionNotNull
	OptionDefault
	OptionPrimaryKey
	OptionUnique
	OptionCheck
	OptionReferences
	OptionCollate
	OptionComment
)

// ColumnOption is one option following a column's data type.
type ColumnOption struct {
	Name       Ident // constraint name, empty unless CONSTRAINT <name> was given
	Kind       ColumnOptionKind
	Expr       string     // DEFAULT / CHECK expression, COLLATE name or COMMENT text
	RefTable   ObjectName // REFERENCES target
	RefColumns []Ident
}

func (o ColumnOption) String() string {
	var sb strings.Builder
	if o.Name.Value != "" {
		sb.WriteString("CONSTRAINT ")
		sb.WriteString(o.Name.String())
		sb.WriteByte(' ')
	}
	switch o.Kind {
	case OptionNull:
		sb.WriteString("NULL")
	case OptionNotNull:
		sb.WriteString("NOT NULL")
	case OptionDefault:
		sb.WriteString("DEFAULT ")
		sb.WriteString(o.Expr)
	case OptionPrimaryKey:
		sb.WriteString("PRIMARY KEY")
	case OptionUnique:
		sb.WriteString("UNIQUE")
	case OptionCheck:
		sb.WriteString("CHECK (")
		sb.WriteString(o.Expr)
		sb.WriteByte(')')
	case OptionReferences:
		sb.WriteString("REFERENCES ")
		sb.WriteString(o.RefTable.String())
		if len(o.RefColumns) > 0 {
			sb.WriteString(" (")
			sb.WriteString(joinIdents(o.RefColumns))
			sb.WriteByte(')')
		}
	case OptionCollate:
		sb.WriteString("COLLATE ")
		sb.WriteString(o.Expr)
	case OptionComment:
		sb.WriteString("COMMENT ")
		sb.WriteString(QuoteString(o.Expr))
	}
	return sb.String()
}

// ColumnDef is a column definition: name, type and options.
type ColumnDef struct {
	Name     Ident
	DataType DataType
	Options  []ColumnOption
}

func (c ColumnDef) String() string {
	var sb strings.Builder
	sb.WriteString(c.Name.String())
	sb.WriteByte(' ')
	sb.WriteString(c.DataType.String())
	for _, o := range c.Options {
		sb.WriteByte(' ')
		sb.WriteString(o.String())
	}
	return sb.String()
}

// ConstraintKind identifies a table constraint.
type ConstraintKind int

// Table constraint kinds.
const (
	ConstraintPrimaryKey ConstraintKind = iota
	ConstraintUnique
	ConstraintForeignKey
	ConstraintCheck
)

// TableConstraint is a table level constraint.
type TableConstraint struct {
	Name       Ident
	Kind       ConstraintKind
	Columns    []Ident
	RefTable   ObjectName // FOREIGN KEY only
	RefColumns []Ident    // FOREIGN KEY only
	Expr       string     // CHECK only
}

func (c TableConstraint) String() string {
	var sb strings.Builder
	if c.Name.Value != "" {
		sb.WriteString("CONSTRAINT ")
		sb.WriteString(c.Name.String())
		sb.WriteByte(' ')
	}
	switch c.Kind {
	case ConstraintPrimaryKey:
		sb.WriteString("PRIMARY KEY (")
		sb.WriteString(joinIdents(c.Columns))
		sb.WriteByte(')')
	case ConstraintUnique:
		sb.WriteString("UNIQUE (")
		sb.WriteString(joinIdents(c.Columns))
		sb.WriteByte(')')
	case ConstraintForeignKey:
		sb.WriteString("FOREIGN KEY (")
		sb.WriteString(joinIdents(c.Columns))
		sb.WriteString(") REFERENCES ")
		sb.WriteString(c.RefTable.String())
		if len(c.RefColumns) > 0 {
			sb.WriteString(" (")
			sb.WriteString(joinIdents(c.RefColumns))
			sb.WriteByte(')')
		}
	case ConstraintCheck:
		sb.WriteString("CHECK (")
		sb.WriteString(c.Expr)
		sb.WriteByte(')')
	}
	return sb.String()
}

// ---------- Statements ----------

// Query is a SELECT, WITH or VALUES query kept verbatim.
type Query struct {
	Pos    token.Position
	Text   string       // source text of the query, without the trailing ';'
	Tables []ObjectName // tables referenced after FROM and JOIN, in order of appearance
}

// CreateTable is CREATE [OR REPLACE] [TEMP] TABLE.
type CreateTable struct {
	Pos         token.Position
	OrReplace   bool
	Temporary   bool
	IfNotExists bool
	Name        ObjectName
	Columns     []ColumnDef
	Constraints []TableConstraint
	Query       *Query // CREATE TABLE ... AS <query>
}

// CreateView is CREATE [OR REPLACE] [MATERIALIZED] VIEW.
type CreateView struct {
	Pos          token.Position
	OrReplace    bool
	Materialized bool
	IfNotExists  bool
	Name         ObjectName
	Columns      []Ident
	Query        *Query
}

// CreateDatabase is CREATE DATABASE.
type CreateDatabase struct {
	Pos         token.Position
	IfNotExists bool
	Name        ObjectName
}

// CreateSchema is CREATE SCHEMA.
type CreateSchema struct {
	Pos         token.Position
	IfNotExists bool
	Name        ObjectName
}

// Drop is DROP TABLE | VIEW | SCHEMA | DATABASE.
type Drop struct {
	Pos      token.Position
	Object   string // TABLE, VIEW, SCHEMA or DATABASE
	IfExists bool
	Names    []ObjectName
	Cascade  bool
	Restrict bool
}

// Insert is INSERT INTO <table> [(cols)] <query>.
type Insert struct {
	Pos     token.Position
	Table   ObjectName
	Columns []Ident
	Source  *Query
}

// Raw is a statement the grammar forwards verbatim, identified by its verb.
type Raw struct {
	Pos  token.Position
	Verb string // uppercased leading keyword
	Text string
}

func (*Query) node()          {}
func (*CreateTable) node()    {}
func (*CreateView) node()     {}
func (*CreateDatabase) node() {}
func (*CreateSchema) node()   {}
func (*Drop) node()           {}
func (*Insert) node()         {}
func (*Raw) node()            {}

func (*Query) statementNode()          {}
func (*CreateTable) statementNode()    {}
func (*CreateView) statementNode()     {}
func (*CreateDatabase) statementNode() {}
func (*CreateSchema) statementNode()   {}
func (*Drop) statementNode()           {}
func (*Insert) statementNode()         {}
func (*Raw) statementNode()            {}

// StartPos implements Statement.
func (s *Query) StartPos() token.Position          { return s.Pos }
func (s *CreateTable) StartPos() token.Position    { return s.Pos }
func (s *CreateView) StartPos() token.Position     { return s.Pos }
func (s *CreateDatabase) StartPos() token.Position { return s.Pos }
func (s *CreateSchema) StartPos() token.Position   { return s.Pos }
func (s *Drop) StartPos() token.Position           { return s.Pos }
func (s *Insert) StartPos() token.Position         { return s.Pos }
func (s *Raw) StartPos() token.Position            { return s.Pos }

func (s *Query) String() string { return s.Text }

func (s *CreateTable) String() string {
	var sb strings.Builder
	sb.WriteString("CREATE ")
	if s.OrReplace {
		sb.WriteString("OR REPLACE ")
	}
	if s.Temporary {
		sb.WriteString("TEMPORARY ")
	}
	sb.WriteString("TABLE ")
	if s.IfNotExists {
		sb.WriteString("IF NOT EXISTS ")
	}
	sb.WriteString(s.Name.String())
	if len(s.Columns) > 0 || len(s.Constraints) > 0 {
		elems := make([]string, 0, len(s.Columns)+len(s.Constraints))
		for _, c := range s.Columns {
			elems = append(elems, c.String())
		}
		for _, c := range s.Constraints {
			elems = append(elems, c.String())
		}
		sb.WriteString(" (")
		sb.WriteString(strings.Join(elems, ", "))
		sb.WriteByte(')')
	}
	if s.Query != nil {
		sb.WriteString(" AS ")
		sb.WriteString(s.Query.String())
	}
	return sb.String()
}

func (s *CreateView) String() string {
	var sb strings.Builder
	sb.WriteString("CREATE ")
	if s.OrReplace {
		sb.WriteString("OR REPLACE ")
	}
	if s.Materialized {
		sb.WriteString("MATERIALIZED ")
	}
	sb.WriteString("VIEW ")
	if s.IfNotExists {
		sb.WriteString("IF NOT EXISTS ")
	}
	sb.WriteString(s.Name.String())
	if len(s.Columns) > 0 {
		sb.WriteString(" (")
		sb.WriteString(joinIdents(s.Columns))
		sb.WriteByte(')')
	}
	sb.WriteString(" AS ")
	sb.WriteString(s.Query.String())
	return sb.String()
}

func (s *CreateDatabase) String() string {
	if s.IfNotExists {
		return "CREATE DATABASE IF NOT EXISTS " + s.Name.String()
	}
	return "CREATE DATABASE " + s.Name.String()
}

func (s *CreateSchema) String() string {
	if s.IfNotExists {
		return "CREATE SCHEMA IF NOT EXISTS " + s.Name.String()
	}
	return "CREATE SCHEMA " + s.Name.String()
}

func (s *Drop) String() string {
	var sb strings.Builder
	sb.WriteString("DROP ")
	sb.WriteString(s.Object)
	if s.IfExists {
		sb.WriteString(" IF EXISTS")
	}
	for i, n := range s.Names {
		if i == 0 {
			sb.WriteByte(' ')
		} else {
			sb.WriteString(", ")
		}
		sb.WriteString(n.String())
	}
	switch {
	case s.Cascade:
		sb.WriteString(" CASCADE")
	case s.Restrict:
		sb.WriteString(" RESTRICT")
	}
	return sb.String()
}

func (s *Insert) String() string {
	var sb strings.Builder
	sb.WriteString("INSERT INTO ")
	sb.WriteString(s.Table.String())
	if len(s.Columns) > 0 {
		sb.WriteString(" (")
		sb.WriteString(joinIdents(s.Columns))
		sb.WriteByte(')')
	}
	sb.WriteByte(' ')
	sb.WriteString(s.Source.String())
	return sb.String()
}

func (s *Raw) String() string { return s.Text }

// ---------- helpers ----------

func joinIdents(ids []Ident) string {
	parts := make([]string, len(ids))
	for i, id := range ids {
		parts[i] = id.String()
	}
	return strings.Join(parts, ", ")
}

// QuoteString renders s as a single-quoted SQL string literal.
func QuoteString(s string) string {
	return "'" + strings.ReplaceAll(s, "'", "''") + "'"
}
