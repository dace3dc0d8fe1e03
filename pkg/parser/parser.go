// Package parser parses SQL workspaces: SQL text extended with
// CREATE EXTERNAL TABLE, DESCRIBE and USE.
//
// # Usage
//
//	stmts, err := parser.Parse("CREATE EXTERNAL TABLE t STORED AS CSV LOCATION 'x.csv'")
//
// Files are parsed within a scope (catalog, schema, table) and a Session.
// A USE statement loads the file that defines the named schema or table and
// parses it in place, so parsing one file yields the statements of every file
// it transitively uses:
//
//	s := parser.NewSession(parser.WithRoot(root))
//	preamble := s.Enter(filename, "shop", "sales")
//	parsed, err := s.ParseFile(filename, "shop", "sales", "", preamble)
//
// # Grammar Overview
//
//	statements → {';'} [statement {';' {';'} statement}] {';'}
//	statement  → USE name
//	           | DESCRIBE [TABLE] name
//	           | CREATE EXTERNAL TABLE ... (see external.go)
//	           | generic statement (see package sqlparser)
package parser

import (
	"log/slog"
	"path/filepath"
	"strings"

	"github.com/leapstack-labs/catalogsql/pkg/sqlparser"
	"github.com/leapstack-labs/catalogsql/pkg/token"
	"github.com/leapstack-labs/catalogsql/pkg/workspace"
)

// Parser parses one source text within a scope.
type Parser struct {
	p             *sqlparser.Parser
	scope         Scope
	session       *Session
	preambleLines int
}

// newParser tokenizes sql. The first preambleLines lines of sql are
// synthetic and get line 0 in statement metadata.
func newParser(sql string, scope Scope, session *Session, preambleLines int) (*Parser, error) {
	p, err := sqlparser.NewParser(sql)
	if err != nil {
		return nil, fromGrammar(err, preambleLines)
	}
	return &Parser{p: p, scope: scope, session: session, preambleLines: preambleLines}, nil
}

// Parse parses sql with an empty scope in a fresh session.
func Parse(sql string) ([]Statement, error) {
	return NewSession().Parse(sql)
}

// ParseWithScope parses sql as the content of filename, defining objects in
// catalog.schema, in a fresh session.
func ParseWithScope(sql, filename, catalog, schema, table string) ([]Parsed, error) {
	return NewSession().ParseWithScope(sql, filename, catalog, schema, table)
}

// ParseFile reads and parses filename in a fresh session. See
// Session.ParseFile.
func ParseFile(filename, catalog, schema, table, preamble string) ([]Parsed, error) {
	return NewSession().ParseFile(filename, catalog, schema, table, preamble)
}

// Parse parses sql with an empty scope. Locations of external tables are
// checked only when the session has a root.
func (s *Session) Parse(sql string) ([]Statement, error) {
	parsed, err := s.parse(sql, Scope{Root: s.root}, 0)
	if err != nil {
		return nil, err
	}
	stmts := make([]Statement, len(parsed))
	for i, ps := range parsed {
		stmts[i] = ps.Statement
	}
	return stmts, nil
}

// ParseWithScope parses sql as the content of filename, defining objects in
// catalog.schema. Errors are wrapped in a *FileError naming filename.
func (s *Session) ParseWithScope(sql, filename, catalog, schema, table string) ([]Parsed, error) {
	scope := Scope{
		Catalog:  catalog,
		Schema:   schema,
		Table:    table,
		Filename: filename,
		Root:     s.rootFor(filename),
	}
	return s.parse(sql, scope, 0)
}

// rootFor returns the workspace root for filename: the session root if set,
// else the closest directory above filename holding workspace.yml.
func (s *Session) rootFor(filename string) string {
	if s.root != "" || filename == "" {
		return s.root
	}
	return workspace.FindRoot(filepath.Dir(filename))
}

// parse runs the statement dispatcher over sql.
func (s *Session) parse(sql string, scope Scope, preambleLines int) ([]Parsed, error) {
	p, err := newParser(sql, scope, s, preambleLines)
	if err == nil {
		var parsed []Parsed
		if parsed, err = p.ParseStatements(); err == nil {
			return parsed, nil
		}
	}
	if scope.Filename != "" {
		return nil, &FileError{Filename: scope.Filename, Err: err}
	}
	return nil, err
}

// ParseStatements parses ';' separated statements up to the end of input.
// Empty statements are skipped.
func (p *Parser) ParseStatements() ([]Parsed, error) {
	var out []Parsed
	expectDelimiter := false
	for {
		for p.p.Consume(token.SEMICOLON) {
			expectDelimiter = false
		}

		tok := p.p.Peek()
		if tok.Type == token.EOF {
			return out, nil
		}
		if expectDelimiter {
			return nil, p.expected(ErrEndOfStatement, tok)
		}

		switch {
		case tok.Type == USE:
			p.p.Next()
			used, err := p.parseUse()
			if err != nil {
				return nil, err
			}
			out = append(out, used...)
		case tok.IsWord():
			stmt, err := p.parseStatement()
			if err != nil {
				return nil, err
			}
			out = append(out, stmt)
		default:
			return nil, p.expected(ErrEndOfStatement, tok)
		}
		expectDelimiter = true
	}
}

// parseStatement parses one statement other than USE.
func (p *Parser) parseStatement() (Parsed, error) {
	tok := p.p.Peek()
	switch {
	case tok.Type == token.CREATE && p.p.PeekN(1).Type == EXTERNAL:
		return p.parseCreateExternalTable()
	case tok.Type == DESCRIBE:
		return p.parseDescribe()
	case p.scope.Filename != "" && (tok.Type == token.SELECT || tok.Type == token.WITH || tok.Type == token.VALUES):
		return p.parseFileQuery()
	}

	node, err := p.p.ParseStatement()
	if err != nil {
		return Parsed{}, fromGrammar(err, p.preambleLines)
	}
	meta, err := p.metaFor(node)
	if err != nil {
		return Parsed{}, err
	}
	meta.Line = p.line(tok)
	return Parsed{Statement: &StandardStatement{Node: node}, Meta: meta}, nil
}

// parseDescribe parses DESCRIBE [TABLE] <name>.
func (p *Parser) parseDescribe() (Parsed, error) {
	start := p.p.Next() // DESCRIBE
	p.p.ParseKeyword(token.TABLE)

	name, err := p.p.ParseObjectName()
	if err != nil {
		return Parsed{}, fromGrammar(err, p.preambleLines)
	}
	meta, err := p.resolve(name.Parts())
	if err != nil {
		return Parsed{}, err
	}
	meta.Line = p.line(start)
	return Parsed{Statement: &DescribeTable{TableName: name}, Meta: meta}, nil
}

// parseFileQuery parses a bare query in a source file. The query defines
// the table named after the file: in shop/sales/orders.sql,
// "SELECT ..." becomes "CREATE TABLE shop.sales.orders AS SELECT ...".
func (p *Parser) parseFileQuery() (Parsed, error) {
	start := p.p.Peek()
	query, err := p.p.ParseQuery()
	if err != nil {
		return Parsed{}, fromGrammar(err, p.preambleLines)
	}

	catalog, schema := p.defaults()
	table := workspace.StripExtension(workspace.Basename(filepath.ToSlash(p.scope.Filename)), workspace.SQLExt)
	node := &sqlparser.CreateTable{
		Pos:   start.Pos,
		Name:  sqlparser.ObjectName{{Value: catalog}, {Value: schema}, {Value: table}},
		Query: query,
	}

	meta := p.meta(catalog, schema, table)
	meta.Line = p.line(start)
	return Parsed{Statement: &StandardStatement{Node: node}, Meta: meta}, nil
}

// metaFor builds the metadata of a generic statement. Statements that
// define a named object resolve that name.
func (p *Parser) metaFor(node sqlparser.Statement) (StatementMeta, error) {
	catalog, schema := p.defaults()
	switch n := node.(type) {
	case *sqlparser.CreateTable:
		return p.resolve(n.Name.Parts())
	case *sqlparser.CreateView:
		return p.resolve(n.Name.Parts())
	case *sqlparser.CreateDatabase:
		return p.meta(n.Name.String(), "", ""), nil
	case *sqlparser.CreateSchema:
		parts := n.Name.Parts()
		switch len(parts) {
		case 1:
			return p.meta(catalog, parts[0], ""), nil
		case 2:
			return p.meta(parts[0], parts[1], ""), nil
		}
		return StatementMeta{}, arityError(parts)
	}
	return p.meta(catalog, schema, ""), nil
}

// defaults returns the catalog and schema unqualified names resolve to.
func (p *Parser) defaults() (catalog, schema string) {
	catalog, schema = p.session.Defaults()
	if p.scope.Catalog != "" {
		catalog = p.scope.Catalog
	}
	if p.scope.Schema != "" {
		schema = p.scope.Schema
	}
	return catalog, schema
}

// resolve qualifies a dotted name against the scope.
func (p *Parser) resolve(parts []string) (StatementMeta, error) {
	catalog, schema := p.defaults()
	meta, err := ResolveName(parts, catalog, schema)
	if err != nil {
		return StatementMeta{}, err
	}
	meta.Filename = p.scope.Filename
	return meta, nil
}

func (p *Parser) meta(catalog, schema, table string) StatementMeta {
	return StatementMeta{Catalog: catalog, Schema: schema, Table: table, Filename: p.scope.Filename}
}

// line returns the source line of tok, 0 for preamble tokens.
func (p *Parser) line(tok token.Token) int {
	return shiftLine(tok.Pos, p.preambleLines).Line
}

func (p *Parser) expected(what string, tok token.Token) error {
	return fromGrammar(p.p.Expected(what, tok), p.preambleLines)
}

func (p *Parser) logger() *slog.Logger {
	return p.session.logger.With(slog.String("file", p.scope.Filename))
}

func countLines(s string) int {
	return strings.Count(s, "\n")
}
