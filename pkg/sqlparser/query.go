package sqlparser

import (
	"strings"

	"github.com/leapstack-labs/catalogsql/pkg/token"
)

// rawVerbs are the statement verbs forwarded verbatim.
var rawVerbs = map[string]struct{}{
	"ALTER":    {},
	"ANALYZE":  {},
	"BEGIN":    {},
	"CALL":     {},
	"COMMENT":  {},
	"COMMIT":   {},
	"COPY":     {},
	"DELETE":   {},
	"EXPLAIN":  {},
	"GRANT":    {},
	"MERGE":    {},
	"REVOKE":   {},
	"ROLLBACK": {},
	"SET":      {},
	"SHOW":     {},
	"TRUNCATE": {},
	"UPDATE":   {},
}

func rawVerb(tok token.Token) (string, bool) {
	if !tok.IsWord() || tok.Quote != 0 {
		return "", false
	}
	verb := strings.ToUpper(tok.Literal)
	_, ok := rawVerbs[verb]
	return verb, ok
}

func startsQuery(tok token.Token) bool {
	switch tok.Type {
	case token.SELECT, token.WITH, token.VALUES, token.LPAREN:
		return true
	}
	return false
}

// ---------- Queries ----------

// ParseQuery parses a SELECT, WITH or VALUES query, optionally wrapped in
// parentheses. The query text is kept verbatim up to the ';' or EOF that ends
// it, or up to an unmatched ')'.
func (p *Parser) ParseQuery() (*Query, error) {
	start := p.Peek()
	if !startsQuery(start) {
		return nil, p.Expected("SELECT, WITH or VALUES", start)
	}

	from := p.idx
	q := &Query{Pos: start.Pos}
	seen := make(map[string]bool)
	depth := 0

scan:
	for {
		tok := p.Peek()
		switch tok.Type {
		case token.EOF:
			break scan
		case token.SEMICOLON:
			if depth == 0 {
				break scan
			}
		case token.LPAREN:
			depth++
		case token.RPAREN:
			if depth == 0 {
				break scan
			}
			depth--
		case token.FROM, token.JOIN:
			p.Next()
			for _, name := range p.scanTableRefs() {
				key := strings.ToLower(name.String())
				if !seen[key] {
					seen[key] = true
					q.Tables = append(q.Tables, name)
				}
			}
			continue
		}
		p.Next()
	}

	if depth != 0 {
		return nil, p.Errorf(p.Peek(), ErrUnbalancedParens)
	}
	q.Text = p.text(from, p.idx)
	return q, nil
}

// scanTableRefs collects the comma separated table names following FROM or
// JOIN. Subqueries and table functions are skipped; the scan is best effort
// and never fails.
func (p *Parser) scanTableRefs() []ObjectName {
	var names []ObjectName
	for isTableName(p.Peek()) {
		save := p.idx
		name, err := p.ParseObjectName()
		if err != nil || p.Peek().Type == token.LPAREN {
			// table function call
			p.idx = save
			return names
		}
		names = append(names, name)

		// optional alias
		if p.ParseKeyword(token.AS) {
			if p.Peek().IsWord() {
				p.Next()
			}
		} else if isTableName(p.Peek()) {
			p.Next()
		}

		if p.Peek().Type != token.COMMA || !isTableName(p.PeekN(1)) {
			return names
		}
		p.Next()
	}
	return names
}

// isTableName reports whether tok can start a table name in a FROM list.
// Registered extension keywords are allowed since they are not reserved by
// the generic grammar.
func isTableName(tok token.Token) bool {
	return tok.Type == token.IDENT || token.IsDynamic(tok.Type)
}

// captureExpr captures an expression verbatim. It stops before a ',', ')' or
// ';' at nesting depth zero, or before a token for which stop returns true.
// The first token is always part of the expression.
func (p *Parser) captureExpr(stop func(token.Token) bool) (string, error) {
	from := p.idx
	depth := 0
	for {
		tok := p.Peek()
		if tok.Type == token.EOF {
			break
		}
		if depth == 0 {
			if tok.Type == token.COMMA || tok.Type == token.RPAREN || tok.Type == token.SEMICOLON {
				break
			}
			if p.idx > from && stop != nil && stop(tok) {
				break
			}
		}
		switch tok.Type {
		case token.LPAREN:
			depth++
		case token.RPAREN:
			depth--
		}
		p.Next()
	}
	if depth != 0 {
		return "", p.Errorf(p.Peek(), ErrUnbalancedParens)
	}
	if p.idx == from {
		return "", p.Expected("expression", p.Peek())
	}
	return p.text(from, p.idx), nil
}

// parseParenthesizedExpr parses ( expr ) and returns the inner text.
func (p *Parser) parseParenthesizedExpr() (string, error) {
	if _, err := p.Expect(token.LPAREN); err != nil {
		return "", err
	}
	expr, err := p.captureExpr(nil)
	if err != nil {
		return "", err
	}
	if _, err := p.Expect(token.RPAREN); err != nil {
		return "", err
	}
	return expr, nil
}

// ---------- INSERT ----------

// parseInsert parses INSERT INTO name [(idents)] query.
func (p *Parser) parseInsert() (*Insert, error) {
	start := p.Next() // INSERT
	if err := p.ExpectKeyword(token.INTO); err != nil {
		return nil, err
	}

	stmt := &Insert{Pos: start.Pos}
	var err error
	if stmt.Table, err = p.ParseObjectName(); err != nil {
		return nil, err
	}
	if p.Peek().Type == token.LPAREN && !startsQuery(p.PeekN(1)) {
		if stmt.Columns, err = p.ParseParenthesizedIdents(); err != nil {
			return nil, err
		}
	}
	if stmt.Source, err = p.ParseQuery(); err != nil {
		return nil, err
	}
	return stmt, nil
}

// ---------- Raw statements ----------

// parseRaw keeps a statement verbatim up to the ';' or EOF that ends it.
func (p *Parser) parseRaw(verb string) (*Raw, error) {
	from := p.idx
	start := p.Peek()
	for {
		tok := p.Peek()
		if tok.Type == token.EOF || tok.Type == token.SEMICOLON {
			break
		}
		p.Next()
	}
	return &Raw{Pos: start.Pos, Verb: verb, Text: p.text(from, p.idx)}, nil
}
