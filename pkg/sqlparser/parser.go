// Package sqlparser implements a generic SQL tokenizer and statement grammar.
//
// The grammar covers the DDL and DML statements a catalog needs to know about
// (CREATE TABLE/VIEW/DATABASE/SCHEMA, DROP, INSERT) and keeps queries and
// other statements verbatim. It exposes a token cursor so that grammar
// extensions can layer their own statements on top:
//
//	p, err := sqlparser.NewParser(sql)
//	if err != nil {
//	    // lexical error
//	}
//	if p.ParseWord("describe") {
//	    name, err := p.ParseObjectName()
//	    ...
//	}
//	stmt, err := p.ParseStatement()
//
// # Grammar Overview
//
//	statement  → query | create | drop | insert | raw
//	query      → (SELECT | WITH | VALUES | '(') ... up to ';' or EOF
//	create     → CREATE [OR REPLACE] [TEMP] TABLE [IF NOT EXISTS] name [columns] [AS query]
//	           | CREATE [OR REPLACE] [MATERIALIZED] VIEW [IF NOT EXISTS] name [(idents)] AS query
//	           | CREATE (DATABASE | SCHEMA) [IF NOT EXISTS] name
//	drop       → DROP object [IF EXISTS] name {, name} [CASCADE | RESTRICT]
//	insert     → INSERT INTO name [(idents)] query
//	raw        → verb ... up to ';' or EOF
package sqlparser

import (
	"fmt"
	"strings"

	"github.com/leapstack-labs/catalogsql/pkg/token"
)

// Parser is a cursor over the tokens of one SQL input.
type Parser struct {
	input  string
	tokens []token.Token // always terminated by EOF
	idx    int

	// Comments collected while tokenizing
	Comments []*token.Comment
}

// NewParser tokenizes sql and returns a parser positioned on its first token.
func NewParser(sql string) (*Parser, error) {
	tokens, comments, err := Tokenize(sql)
	if err != nil {
		return nil, err
	}
	return &Parser{input: sql, tokens: tokens, Comments: comments}, nil
}

// Parse parses a ';' separated list of statements.
func Parse(sql string) ([]Statement, error) {
	p, err := NewParser(sql)
	if err != nil {
		return nil, err
	}

	var stmts []Statement
	expectDelimiter := false
	for {
		for p.Consume(token.SEMICOLON) {
			expectDelimiter = false
		}
		if p.Peek().Type == token.EOF {
			return stmts, nil
		}
		if expectDelimiter {
			return nil, p.Expected("end of statement", p.Peek())
		}
		stmt, err := p.ParseStatement()
		if err != nil {
			return nil, err
		}
		stmts = append(stmts, stmt)
		expectDelimiter = true
	}
}

// Input returns the text being parsed.
func (p *Parser) Input() string {
	return p.input
}

// ---------- Cursor ----------

// Peek returns the current token without consuming it.
func (p *Parser) Peek() token.Token {
	return p.PeekN(0)
}

// PeekN returns the token n positions ahead of the current one.
func (p *Parser) PeekN(n int) token.Token {
	i := p.idx + n
	if i >= len(p.tokens) {
		return p.tokens[len(p.tokens)-1]
	}
	return p.tokens[i]
}

// Next consumes and returns the current token. At EOF it keeps returning EOF.
func (p *Parser) Next() token.Token {
	tok := p.Peek()
	if p.idx < len(p.tokens)-1 {
		p.idx++
	}
	return tok
}

// Prev rewinds the cursor by one token.
func (p *Parser) Prev() {
	if p.idx > 0 {
		p.idx--
	}
}

// Consume consumes the current token if it has the given type.
func (p *Parser) Consume(t token.TokenType) bool {
	if p.Peek().Type == t {
		p.Next()
		return true
	}
	return false
}

// Expect consumes the current token if it has the given type, otherwise it
// returns an "expected" error.
func (p *Parser) Expect(t token.TokenType) (token.Token, error) {
	tok := p.Peek()
	if tok.Type != t {
		return tok, p.Expected(t.String(), tok)
	}
	return p.Next(), nil
}

// ParseKeyword consumes the current token if it is the given keyword.
func (p *Parser) ParseKeyword(kw token.TokenType) bool {
	return p.Consume(kw)
}

// ParseKeywords consumes the given keyword sequence. Either all of them are
// consumed or none is.
func (p *Parser) ParseKeywords(kws ...token.TokenType) bool {
	start := p.idx
	for _, kw := range kws {
		if !p.ParseKeyword(kw) {
			p.idx = start
			return false
		}
	}
	return true
}

// ExpectKeyword consumes the given keyword or fails.
func (p *Parser) ExpectKeyword(kw token.TokenType) error {
	_, err := p.Expect(kw)
	return err
}

// ExpectKeywords consumes the given keyword sequence or fails on the first
// keyword that does not match.
func (p *Parser) ExpectKeywords(kws ...token.TokenType) error {
	for _, kw := range kws {
		if err := p.ExpectKeyword(kw); err != nil {
			return err
		}
	}
	return nil
}

// PeekWord reports whether the current token is the bare word w,
// compared case-insensitively. Soft keywords like PRECISION or COMMENT are
// recognized this way without reserving them.
func (p *Parser) PeekWord(w string) bool {
	return isWord(p.Peek(), w)
}

// ParseWord consumes the current token if it is the bare word w.
func (p *Parser) ParseWord(w string) bool {
	if p.PeekWord(w) {
		p.Next()
		return true
	}
	return false
}

func isWord(tok token.Token, w string) bool {
	return tok.IsWord() && tok.Quote == 0 && strings.EqualFold(tok.Literal, w)
}

// Expected returns a parse error of the form "expected <what>, found <tok>".
func (p *Parser) Expected(what string, found token.Token) error {
	return &ParseError{Pos: found.Pos, Message: fmt.Sprintf(ErrExpected, what, found)}
}

// Errorf returns a parse error at the position of tok.
func (p *Parser) Errorf(tok token.Token, format string, args ...any) error {
	return &ParseError{Pos: tok.Pos, Message: fmt.Sprintf(format, args...)}
}

// text returns the source text from the token at index from up to and
// including the token before index to.
func (p *Parser) text(from, to int) string {
	if to <= from {
		return ""
	}
	return p.input[p.tokens[from].Pos.Offset:p.tokens[to-1].End]
}

// ---------- Names and literals ----------

// ParseIdentifier parses a single identifier. Keywords are accepted as
// identifiers.
func (p *Parser) ParseIdentifier() (Ident, error) {
	tok := p.Peek()
	if !tok.IsWord() {
		return Ident{}, p.Expected("identifier", tok)
	}
	p.Next()
	return Ident{Value: tok.Literal, Quote: tok.Quote}, nil
}

// ParseObjectName parses a dot separated name.
func (p *Parser) ParseObjectName() (ObjectName, error) {
	var name ObjectName
	for {
		id, err := p.ParseIdentifier()
		if err != nil {
			return nil, err
		}
		name = append(name, id)
		if !p.Consume(token.DOT) {
			return name, nil
		}
	}
}

// ParseLiteralString parses a quoted string or a bare word that is not a
// keyword.
func (p *Parser) ParseLiteralString() (string, error) {
	tok := p.Peek()
	if tok.Type == token.STRING || tok.Type == token.IDENT {
		p.Next()
		return tok.Literal, nil
	}
	return "", p.Expected("literal string", tok)
}

// ParseParenthesizedIdents parses ( ident {, ident} ).
func (p *Parser) ParseParenthesizedIdents() ([]Ident, error) {
	if _, err := p.Expect(token.LPAREN); err != nil {
		return nil, err
	}
	var ids []Ident
	for {
		id, err := p.ParseIdentifier()
		if err != nil {
			return nil, err
		}
		ids = append(ids, id)
		if p.Consume(token.RPAREN) {
			return ids, nil
		}
		if !p.Consume(token.COMMA) {
			return nil, p.Expected("',' or ')' after column name", p.Peek())
		}
	}
}

// ---------- Statements ----------

// ParseStatement parses one statement of the generic grammar. The trailing
// ';' is not consumed.
func (p *Parser) ParseStatement() (Statement, error) {
	tok := p.Peek()
	switch tok.Type {
	case token.SELECT, token.WITH, token.VALUES, token.LPAREN:
		return p.ParseQuery()
	case token.CREATE:
		return p.parseCreate()
	case token.DROP:
		return p.parseDrop()
	case token.INSERT:
		return p.parseInsert()
	}
	if verb, ok := rawVerb(tok); ok {
		return p.parseRaw(verb)
	}
	return nil, p.Expected("a SQL statement", tok)
}
