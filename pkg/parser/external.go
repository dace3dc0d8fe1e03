package parser

import (
	"fmt"
	"slices"
	"strings"
	"unicode/utf8"

	"github.com/leapstack-labs/catalogsql/pkg/sqlparser"
	"github.com/leapstack-labs/catalogsql/pkg/token"
	"github.com/leapstack-labs/catalogsql/pkg/workspace"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// CreateExternalTable registers files as a table:
//
//	CREATE EXTERNAL TABLE [IF NOT EXISTS] <name> [(<columns>)]
//	STORED AS <format>
//	[WITH HEADER ROW]
//	[DELIMITER '<char>']
//	[COMPRESSION TYPE <tag>]
//	[PARTITIONED BY (<ident>, ...)]
//	[OPTIONS ('<key>' '<value>', ...)]
//	LOCATION '<path>'
type CreateExternalTable struct {
	Name          string // as written, possibly qualified
	Columns       []sqlparser.ColumnDef
	FileType      string // upper case
	HasHeader     bool
	Delimiter     rune
	Location      string
	PartitionCols []string
	IfNotExists   bool
	Compression   CompressionType
	Options       map[string]string
}

// DefaultDelimiter is the field delimiter of an external table without a
// DELIMITER clause.
const DefaultDelimiter = ','

var upperCaser = cases.Upper(language.Und)

func (s *CreateExternalTable) String() string {
	var sb strings.Builder
	sb.WriteString("CREATE EXTERNAL TABLE ")
	if s.IfNotExists {
		sb.WriteString("IF NOT EXISTS ")
	}
	sb.WriteString(s.Name)
	if len(s.Columns) > 0 {
		cols := make([]string, len(s.Columns))
		for i, c := range s.Columns {
			cols[i] = c.String()
		}
		sb.WriteString(" (")
		sb.WriteString(strings.Join(cols, ", "))
		sb.WriteByte(')')
	}
	sb.WriteString(" STORED AS ")
	sb.WriteString(s.FileType)
	if s.HasHeader {
		sb.WriteString(" WITH HEADER ROW")
	}
	if s.Delimiter != 0 && s.Delimiter != DefaultDelimiter {
		sb.WriteString(" DELIMITER ")
		sb.WriteString(sqlparser.QuoteString(string(s.Delimiter)))
	}
	if s.Compression != Uncompressed {
		sb.WriteString(" COMPRESSION TYPE ")
		sb.WriteString(s.Compression.String())
	}
	if len(s.PartitionCols) > 0 {
		sb.WriteString(" PARTITIONED BY (")
		sb.WriteString(strings.Join(s.PartitionCols, ", "))
		sb.WriteByte(')')
	}
	if len(s.Options) > 0 {
		keys := make([]string, 0, len(s.Options))
		for k := range s.Options {
			keys = append(keys, k)
		}
		slices.Sort(keys)
		opts := make([]string, len(keys))
		for i, k := range keys {
			opts[i] = sqlparser.QuoteString(k) + " " + sqlparser.QuoteString(s.Options[k])
		}
		sb.WriteString(" OPTIONS (")
		sb.WriteString(strings.Join(opts, ", "))
		sb.WriteByte(')')
	}
	sb.WriteString(" LOCATION ")
	sb.WriteString(sqlparser.QuoteString(s.Location))
	return sb.String()
}

// parseCreateExternalTable parses a CREATE EXTERNAL TABLE statement,
// checks its location and registers it in the session.
func (p *Parser) parseCreateExternalTable() (Parsed, error) {
	start := p.p.Next() // CREATE
	p.p.Next()          // EXTERNAL

	if err := p.p.ExpectKeyword(token.TABLE); err != nil {
		return Parsed{}, fromGrammar(err, p.preambleLines)
	}
	stmt := &CreateExternalTable{
		IfNotExists: p.p.ParseKeywords(token.IF, token.NOT, token.EXISTS),
		Delimiter:   DefaultDelimiter,
	}

	name, err := p.p.ParseObjectName()
	if err != nil {
		return Parsed{}, fromGrammar(err, p.preambleLines)
	}
	stmt.Name = name.String()

	// Table constraints are accepted but not kept.
	if stmt.Columns, _, err = p.p.ParseColumns(); err != nil {
		return Parsed{}, fromGrammar(err, p.preambleLines)
	}

	if err := p.p.ExpectKeywords(STORED, token.AS); err != nil {
		return Parsed{}, fromGrammar(err, p.preambleLines)
	}
	if stmt.FileType, err = p.parseFileFormat(); err != nil {
		return Parsed{}, err
	}

	stmt.HasHeader = p.p.ParseKeywords(token.WITH, HEADER, token.ROW)
	if p.p.ParseKeyword(DELIMITER) {
		if stmt.Delimiter, err = p.parseDelimiter(); err != nil {
			return Parsed{}, err
		}
	}
	if p.p.ParseKeywords(COMPRESSION, token.TYPE) {
		if stmt.Compression, err = p.parseCompression(); err != nil {
			return Parsed{}, err
		}
	}
	if p.p.ParseKeywords(PARTITIONED, token.BY) {
		if stmt.PartitionCols, err = p.parsePartitions(); err != nil {
			return Parsed{}, err
		}
	}
	if p.p.ParseKeyword(OPTIONS) {
		if stmt.Options, err = p.parseOptions(); err != nil {
			return Parsed{}, err
		}
	}

	if err := p.p.ExpectKeyword(LOCATION); err != nil {
		return Parsed{}, fromGrammar(err, p.preambleLines)
	}
	locTok := p.p.Peek()
	if stmt.Location, err = p.p.ParseLiteralString(); err != nil {
		return Parsed{}, fromGrammar(err, p.preambleLines)
	}

	remote := workspace.IsRemote(stmt.Location, p.session.remoteSchemes)
	if !remote && p.scope.Root != "" && !workspace.Exists(p.scope.Root, stmt.Location) {
		return Parsed{}, &ParserError{
			Kind:    KindMissingFile,
			Pos:     shiftLine(locTok.Pos, p.preambleLines),
			Message: fmt.Sprintf(ErrMissingExternalFile, stmt.Location),
		}
	}

	meta, err := p.resolve(name.Parts())
	if err != nil {
		return Parsed{}, err
	}
	meta.Line = p.line(start)

	resolved := stmt.Location
	if !remote && p.scope.Root != "" {
		resolved = workspace.Resolve(p.scope.Root, stmt.Location)
	}
	p.session.registerLocation(Location{
		Name:     meta.QualifiedName(),
		Location: stmt.Location,
		Resolved: resolved,
		Glob:     workspace.Glob(resolved),
		FileType: stmt.FileType,
	})

	return Parsed{Statement: stmt, Meta: meta}, nil
}

// parseFileFormat parses the word after STORED AS.
func (p *Parser) parseFileFormat() (string, error) {
	tok := p.p.Peek()
	if !tok.IsWord() {
		return "", p.expected(ErrExpectedFileFormat, tok)
	}
	p.p.Next()
	return upperCaser.String(tok.Literal), nil
}

// parseDelimiter parses the literal after DELIMITER, which must be a single
// character.
func (p *Parser) parseDelimiter() (rune, error) {
	tok := p.p.Peek()
	lit, err := p.p.ParseLiteralString()
	if err != nil {
		return 0, asInvalidClause(err, p.preambleLines)
	}
	if utf8.RuneCountInString(lit) != 1 {
		return 0, &ParserError{
			Kind:    KindInvalidClause,
			Pos:     shiftLine(tok.Pos, p.preambleLines),
			Message: fmt.Sprintf(ErrDelimiterLength, lit),
		}
	}
	r, _ := utf8.DecodeRuneInString(lit)
	return r, nil
}

// parseCompression parses the tag after COMPRESSION TYPE.
func (p *Parser) parseCompression() (CompressionType, error) {
	tok := p.p.Peek()
	if !tok.IsWord() {
		return Uncompressed, p.expected(ErrExpectedCompression, tok)
	}
	p.p.Next()
	c, err := ParseCompressionType(tok.Literal)
	if err != nil {
		if pe, ok := err.(*ParserError); ok {
			pe.Pos = shiftLine(tok.Pos, p.preambleLines)
		}
		return Uncompressed, err
	}
	return c, nil
}

// parsePartitions parses ( name {, name} [,] ) after PARTITIONED BY. Names
// are bare words, keywords included; a missing or empty list yields none.
func (p *Parser) parsePartitions() ([]string, error) {
	var cols []string
	if !p.p.Consume(token.LPAREN) || p.p.Consume(token.RPAREN) {
		return cols, nil
	}
	for {
		tok := p.p.Peek()
		if !tok.IsWord() {
			return nil, p.invalidClause(ErrExpectedPartition, tok)
		}
		id, err := p.p.ParseIdentifier()
		if err != nil {
			return nil, asInvalidClause(err, p.preambleLines)
		}
		cols = append(cols, id.String())

		comma := p.p.Consume(token.COMMA)
		if p.p.Consume(token.RPAREN) {
			return cols, nil
		}
		if !comma {
			return nil, p.invalidClause(ErrExpectedPartitionSep, p.p.Peek())
		}
	}
}

// parseOptions parses ( 'key' 'value' {, 'key' 'value'} [,] ) after OPTIONS.
func (p *Parser) parseOptions() (map[string]string, error) {
	if _, err := p.p.Expect(token.LPAREN); err != nil {
		return nil, fromGrammar(err, p.preambleLines)
	}
	opts := make(map[string]string)
	for {
		if p.p.Consume(token.RPAREN) {
			return opts, nil
		}
		key, err := p.p.ParseLiteralString()
		if err != nil {
			return nil, asInvalidClause(err, p.preambleLines)
		}
		value, err := p.p.ParseLiteralString()
		if err != nil {
			return nil, asInvalidClause(err, p.preambleLines)
		}
		opts[key] = value

		if p.p.Consume(token.RPAREN) {
			return opts, nil
		}
		if !p.p.Consume(token.COMMA) {
			return nil, p.invalidClause(ErrExpectedOptionSep, p.p.Peek())
		}
	}
}

func (p *Parser) invalidClause(what string, tok token.Token) error {
	return asInvalidClause(p.p.Expected(what, tok), p.preambleLines)
}
