package parser

import (
	"fmt"
	"path"
	"strings"

	"github.com/leapstack-labs/catalogsql/pkg/workspace"
)

// StatementMeta records where a statement was defined and the object it
// defines.
type StatementMeta struct {
	Catalog  string
	Schema   string
	Table    string
	Filename string
	Line     int // 1-based line in Filename, 0 when unknown or synthetic
}

// String renders file:line:catalog.schema[.table].
func (m StatementMeta) String() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "%s:%d:%s.%s", m.Filename, m.Line, m.Catalog, m.Schema)
	if m.Table != "" {
		sb.WriteByte('.')
		sb.WriteString(m.Table)
	}
	return sb.String()
}

// QualifiedName returns the non-empty parts of catalog.schema.table joined
// by dots.
func (m StatementMeta) QualifiedName() string {
	parts := make([]string, 0, 3)
	for _, p := range []string{m.Catalog, m.Schema, m.Table} {
		if p != "" {
			parts = append(parts, p)
		}
	}
	return strings.Join(parts, ".")
}

// SchemaFilename returns the workspace relative file that describes the
// statement's schema.
func (m StatementMeta) SchemaFilename() string {
	return path.Join(m.Catalog, m.Schema+workspace.SQLExt)
}

// Scope is the context a source text is parsed in.
type Scope struct {
	Catalog  string
	Schema   string
	Table    string
	Filename string
	Root     string // workspace root, empty when unknown
}

// ResolveName qualifies a dotted name of one to three parts with the given
// default catalog and schema:
//
//	t      -> (catalog, schema, t)
//	s.t    -> (catalog, s, t)
//	c.s.t  -> (c, s, t)
//
// Any other number of parts is an error matching ErrUnsupportedArity.
func ResolveName(parts []string, catalog, schema string) (StatementMeta, error) {
	switch len(parts) {
	case 1:
		return StatementMeta{Catalog: catalog, Schema: schema, Table: parts[0]}, nil
	case 2:
		return StatementMeta{Catalog: catalog, Schema: parts[0], Table: parts[1]}, nil
	case 3:
		return StatementMeta{Catalog: parts[0], Schema: parts[1], Table: parts[2]}, nil
	}
	return StatementMeta{}, arityError(parts)
}

func arityError(parts []string) *ParserError {
	return &ParserError{
		Kind:    KindUnsupportedArity,
		Message: fmt.Sprintf(ErrNameArity, len(parts), strings.Join(parts, ".")),
		Err:     ErrUnsupportedArity,
	}
}
