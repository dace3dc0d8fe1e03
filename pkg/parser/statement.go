package parser

import (
	"fmt"

	"github.com/leapstack-labs/catalogsql/pkg/sqlparser"
)

// StatementKind identifies the variant of a Statement.
type StatementKind int

// Statement kinds.
const (
	StandardKind StatementKind = iota
	CreateExternalTableKind
	DescribeTableKind
)

func (k StatementKind) String() string {
	switch k {
	case StandardKind:
		return "statement"
	case CreateExternalTableKind:
		return "create external table"
	case DescribeTableKind:
		return "describe table"
	}
	return fmt.Sprintf("StatementKind(%d)", int(k))
}

// Statement is one parsed statement. It is implemented by exactly
// *StandardStatement, *CreateExternalTable and *DescribeTable.
type Statement interface {
	fmt.Stringer
	Kind() StatementKind
	statement()
}

// StandardStatement wraps a statement of the generic grammar.
type StandardStatement struct {
	Node sqlparser.Statement
}

// DescribeTable is DESCRIBE [TABLE] <name>.
type DescribeTable struct {
	TableName sqlparser.ObjectName
}

func (*StandardStatement) statement()   {}
func (*CreateExternalTable) statement() {}
func (*DescribeTable) statement()       {}

// Kind implements Statement.
func (*StandardStatement) Kind() StatementKind { return StandardKind }

// Kind implements Statement.
func (*CreateExternalTable) Kind() StatementKind { return CreateExternalTableKind }

// Kind implements Statement.
func (*DescribeTable) Kind() StatementKind { return DescribeTableKind }

func (s *StandardStatement) String() string { return s.Node.String() }

func (s *DescribeTable) String() string { return "DESCRIBE " + s.TableName.String() }

// Parsed pairs a statement with where it was defined.
type Parsed struct {
	Statement Statement
	Meta      StatementMeta
}
