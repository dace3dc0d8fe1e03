package sqlparser

import (
	"strings"

	"github.com/leapstack-labs/catalogsql/pkg/token"
)

// ---------- CREATE ----------

// parseCreate parses:
//
//	CREATE [OR REPLACE] [TEMP | TEMPORARY] TABLE ...
//	CREATE [OR REPLACE] [MATERIALIZED] VIEW ...
//	CREATE DATABASE [IF NOT EXISTS] name
//	CREATE SCHEMA [IF NOT EXISTS] name
func (p *Parser) parseCreate() (Statement, error) {
	start := p.Next() // CREATE

	orReplace := p.ParseKeywords(token.OR, token.REPLACE)
	temporary := p.ParseKeyword(token.TEMP) || p.ParseKeyword(token.TEMPORARY)
	materialized := p.ParseKeyword(token.MATERIALIZED)

	switch {
	case !materialized && p.ParseKeyword(token.TABLE):
		return p.parseCreateTable(start, orReplace, temporary)
	case !temporary && p.ParseKeyword(token.VIEW):
		return p.parseCreateView(start, orReplace, materialized)
	case materialized:
		return nil, p.Expected("VIEW after MATERIALIZED", p.Peek())
	case temporary:
		return nil, p.Expected("TABLE after TEMPORARY", p.Peek())
	case !orReplace && p.ParseKeyword(token.DATABASE):
		ifNotExists := p.ParseKeywords(token.IF, token.NOT, token.EXISTS)
		name, err := p.ParseObjectName()
		if err != nil {
			return nil, err
		}
		return &CreateDatabase{Pos: start.Pos, IfNotExists: ifNotExists, Name: name}, nil
	case !orReplace && p.ParseKeyword(token.SCHEMA):
		ifNotExists := p.ParseKeywords(token.IF, token.NOT, token.EXISTS)
		name, err := p.ParseObjectName()
		if err != nil {
			return nil, err
		}
		return &CreateSchema{Pos: start.Pos, IfNotExists: ifNotExists, Name: name}, nil
	}
	return nil, p.Expected("TABLE, VIEW, DATABASE or SCHEMA after CREATE", p.Peek())
}

func (p *Parser) parseCreateTable(start token.Token, orReplace, temporary bool) (*CreateTable, error) {
	stmt := &CreateTable{
		Pos:         start.Pos,
		OrReplace:   orReplace,
		Temporary:   temporary,
		IfNotExists: p.ParseKeywords(token.IF, token.NOT, token.EXISTS),
	}

	var err error
	if stmt.Name, err = p.ParseObjectName(); err != nil {
		return nil, err
	}

	// CREATE TABLE t (SELECT ...) is a query, not a column list.
	if p.Peek().Type == token.LPAREN && !startsQuery(p.PeekN(1)) {
		if stmt.Columns, stmt.Constraints, err = p.ParseColumns(); err != nil {
			return nil, err
		}
	}

	if p.ParseKeyword(token.AS) || startsQuery(p.Peek()) {
		if stmt.Query, err = p.ParseQuery(); err != nil {
			return nil, err
		}
	}
	return stmt, nil
}

func (p *Parser) parseCreateView(start token.Token, orReplace, materialized bool) (*CreateView, error) {
	stmt := &CreateView{
		Pos:          start.Pos,
		OrReplace:    orReplace,
		Materialized: materialized,
		IfNotExists:  p.ParseKeywords(token.IF, token.NOT, token.EXISTS),
	}

	var err error
	if stmt.Name, err = p.ParseObjectName(); err != nil {
		return nil, err
	}
	if p.Peek().Type == token.LPAREN {
		if stmt.Columns, err = p.ParseParenthesizedIdents(); err != nil {
			return nil, err
		}
	}
	if err := p.ExpectKeyword(token.AS); err != nil {
		return nil, err
	}
	if stmt.Query, err = p.ParseQuery(); err != nil {
		return nil, err
	}
	return stmt, nil
}

// ParseColumns parses an optional parenthesized list of column definitions
// and table constraints. A missing list and "()" both yield no columns; a
// trailing comma before ')' is accepted.
func (p *Parser) ParseColumns() ([]ColumnDef, []TableConstraint, error) {
	var columns []ColumnDef
	var constraints []TableConstraint

	if !p.Consume(token.LPAREN) || p.Consume(token.RPAREN) {
		return columns, constraints, nil
	}

	for {
		constraint, err := p.ParseOptionalTableConstraint()
		if err != nil {
			return nil, nil, err
		}
		switch {
		case constraint != nil:
			constraints = append(constraints, *constraint)
		case p.Peek().IsWord():
			col, err := p.ParseColumnDef()
			if err != nil {
				return nil, nil, err
			}
			columns = append(columns, col)
		default:
			return nil, nil, p.Expected("column name or constraint definition", p.Peek())
		}

		comma := p.Consume(token.COMMA)
		if p.Consume(token.RPAREN) {
			return columns, constraints, nil
		}
		if !comma {
			return nil, nil, p.Expected("',' or ')' after column definition", p.Peek())
		}
	}
}

// ---------- Columns ----------

// ParseColumnDef parses <name> <data type> {<column option>}.
func (p *Parser) ParseColumnDef() (ColumnDef, error) {
	name, err := p.ParseIdentifier()
	if err != nil {
		return ColumnDef{}, err
	}
	dataType, err := p.ParseDataType()
	if err != nil {
		return ColumnDef{}, err
	}

	col := ColumnDef{Name: name, DataType: dataType}
	for {
		opt, err := p.ParseOptionalColumnOption()
		if err != nil {
			return ColumnDef{}, err
		}
		if opt == nil {
			return col, nil
		}
		col.Options = append(col.Options, *opt)
	}
}

// ParseOptionalColumnOption parses one column option, or returns nil if the
// current token does not start one.
func (p *Parser) ParseOptionalColumnOption() (*ColumnOption, error) {
	var name Ident
	named := false
	if p.ParseKeyword(token.CONSTRAINT) {
		var err error
		if name, err = p.ParseIdentifier(); err != nil {
			return nil, err
		}
		named = true
	}

	opt, err := p.parseColumnOptionBody()
	if err != nil {
		return nil, err
	}
	if opt == nil {
		if named {
			return nil, p.Expected("constraint details after CONSTRAINT <name>", p.Peek())
		}
		return nil, nil
	}
	opt.Name = name
	return opt, nil
}

func (p *Parser) parseColumnOptionBody() (*ColumnOption, error) {
	switch {
	case p.ParseKeywords(token.NOT, token.NULL):
		return &ColumnOption{Kind: OptionNotNull}, nil
	case p.ParseKeyword(token.NULL):
		return &ColumnOption{Kind: OptionNull}, nil
	case p.ParseKeyword(token.DEFAULT):
		expr, err := p.captureExpr(startsColumnOption)
		if err != nil {
			return nil, err
		}
		return &ColumnOption{Kind: OptionDefault, Expr: expr}, nil
	case p.ParseKeyword(token.PRIMARY):
		if err := p.ExpectKeyword(token.KEY); err != nil {
			return nil, err
		}
		return &ColumnOption{Kind: OptionPrimaryKey}, nil
	case p.ParseKeyword(token.UNIQUE):
		return &ColumnOption{Kind: OptionUnique}, nil
	case p.ParseKeyword(token.CHECK):
		expr, err := p.parseParenthesizedExpr()
		if err != nil {
			return nil, err
		}
		return &ColumnOption{Kind: OptionCheck, Expr: expr}, nil
	case p.ParseKeyword(token.REFERENCES):
		opt := &ColumnOption{Kind: OptionReferences}
		var err error
		if opt.RefTable, err = p.ParseObjectName(); err != nil {
			return nil, err
		}
		if p.Peek().Type == token.LPAREN {
			if opt.RefColumns, err = p.ParseParenthesizedIdents(); err != nil {
				return nil, err
			}
		}
		return opt, nil
	case p.ParseKeyword(token.COLLATE):
		name, err := p.ParseObjectName()
		if err != nil {
			return nil, err
		}
		return &ColumnOption{Kind: OptionCollate, Expr: name.String()}, nil
	case p.ParseWord("comment"):
		tok, err := p.Expect(token.STRING)
		if err != nil {
			return nil, err
		}
		return &ColumnOption{Kind: OptionComment, Expr: tok.Literal}, nil
	}
	return nil, nil
}

func startsColumnOption(tok token.Token) bool {
	switch tok.Type {
	case token.NOT, token.NULL, token.DEFAULT, token.PRIMARY, token.UNIQUE,
		token.CHECK, token.REFERENCES, token.COLLATE, token.CONSTRAINT:
		return true
	}
	return isWord(tok, "comment")
}

// ParseOptionalTableConstraint parses a table constraint, or returns nil if
// the current token does not start one.
func (p *Parser) ParseOptionalTableConstraint() (*TableConstraint, error) {
	var name Ident
	named := false
	if p.ParseKeyword(token.CONSTRAINT) {
		var err error
		if name, err = p.ParseIdentifier(); err != nil {
			return nil, err
		}
		named = true
	}

	c := &TableConstraint{Name: name}
	var err error
	switch p.Peek().Type {
	case token.PRIMARY:
		p.Next()
		if err = p.ExpectKeyword(token.KEY); err != nil {
			return nil, err
		}
		c.Kind = ConstraintPrimaryKey
		c.Columns, err = p.ParseParenthesizedIdents()
	case token.UNIQUE:
		p.Next()
		p.ParseKeyword(token.KEY)
		c.Kind = ConstraintUnique
		c.Columns, err = p.ParseParenthesizedIdents()
	case token.FOREIGN:
		p.Next()
		if err = p.ExpectKeyword(token.KEY); err != nil {
			return nil, err
		}
		c.Kind = ConstraintForeignKey
		if c.Columns, err = p.ParseParenthesizedIdents(); err != nil {
			return nil, err
		}
		if err = p.ExpectKeyword(token.REFERENCES); err != nil {
			return nil, err
		}
		if c.RefTable, err = p.ParseObjectName(); err != nil {
			return nil, err
		}
		if p.Peek().Type == token.LPAREN {
			c.RefColumns, err = p.ParseParenthesizedIdents()
		}
	case token.CHECK:
		p.Next()
		c.Kind = ConstraintCheck
		c.Expr, err = p.parseParenthesizedExpr()
	default:
		if named {
			return nil, p.Expected("PRIMARY, UNIQUE, FOREIGN or CHECK", p.Peek())
		}
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return c, nil
}

// ---------- Data types ----------

// ParseDataType parses a column type. Type names are uppercased; parameters
// may be numbers, strings or nested types (STRUCT(a INT), MAP(VARCHAR, INT)).
func (p *Parser) ParseDataType() (DataType, error) {
	tok := p.Peek()
	if !tok.IsWord() || tok.Quote != 0 {
		return DataType{}, p.Expected("data type", tok)
	}
	p.Next()

	dt := DataType{Name: strings.ToUpper(tok.Literal)}
	switch dt.Name {
	case "DOUBLE":
		if p.ParseWord("precision") {
			dt.Name += " PRECISION"
		}
	case "CHARACTER", "CHAR":
		if p.ParseWord("varying") {
			dt.Name += " VARYING"
		}
	case "TIMESTAMP", "TIME":
		switch {
		case p.Peek().Type == token.WITH && isWord(p.PeekN(1), "time") && isWord(p.PeekN(2), "zone"):
			p.Next()
			p.Next()
			p.Next()
			dt.Name += " WITH TIME ZONE"
		case p.PeekWord("without") && isWord(p.PeekN(1), "time") && isWord(p.PeekN(2), "zone"):
			p.Next()
			p.Next()
			p.Next()
			dt.Name += " WITHOUT TIME ZONE"
		}
	}

	if p.Consume(token.LPAREN) {
		for {
			param, err := p.parseTypeParam()
			if err != nil {
				return DataType{}, err
			}
			dt.Params = append(dt.Params, param)
			if p.Consume(token.RPAREN) {
				break
			}
			if !p.Consume(token.COMMA) {
				return DataType{}, p.Expected("',' or ')' after type parameter", p.Peek())
			}
		}
	}

	for p.Peek().Type == token.LBRACKET && p.PeekN(1).Type == token.RBRACKET {
		p.Next()
		p.Next()
		dt.Array++
	}
	return dt, nil
}

func (p *Parser) parseTypeParam() (string, error) {
	tok := p.Peek()
	switch {
	case tok.Type == token.NUMBER:
		p.Next()
		return tok.Literal, nil
	case tok.Type == token.STRING:
		p.Next()
		return QuoteString(tok.Literal), nil
	case tok.IsWord() && p.PeekN(1).IsWord():
		// struct field: <name> <type>
		name, err := p.ParseIdentifier()
		if err != nil {
			return "", err
		}
		dt, err := p.ParseDataType()
		if err != nil {
			return "", err
		}
		return name.String() + " " + dt.String(), nil
	case tok.IsWord():
		dt, err := p.ParseDataType()
		if err != nil {
			return "", err
		}
		return dt.String(), nil
	}
	return "", p.Expected("type parameter", tok)
}

// ---------- DROP ----------

// parseDrop parses DROP (TABLE | VIEW | MATERIALIZED VIEW | SCHEMA | DATABASE)
// [IF EXISTS] name {, name} [CASCADE | RESTRICT].
func (p *Parser) parseDrop() (*Drop, error) {
	start := p.Next() // DROP
	stmt := &Drop{Pos: start.Pos}

	switch {
	case p.ParseKeyword(token.TABLE):
		stmt.Object = "TABLE"
	case p.ParseKeyword(token.VIEW):
		stmt.Object = "VIEW"
	case p.ParseKeywords(token.MATERIALIZED, token.VIEW):
		stmt.Object = "MATERIALIZED VIEW"
	case p.ParseKeyword(token.SCHEMA):
		stmt.Object = "SCHEMA"
	case p.ParseKeyword(token.DATABASE):
		stmt.Object = "DATABASE"
	default:
		return nil, p.Expected("TABLE, VIEW, SCHEMA or DATABASE after DROP", p.Peek())
	}

	stmt.IfExists = p.ParseKeywords(token.IF, token.EXISTS)
	for {
		name, err := p.ParseObjectName()
		if err != nil {
			return nil, err
		}
		stmt.Names = append(stmt.Names, name)
		if !p.Consume(token.COMMA) {
			break
		}
	}

	stmt.Cascade = p.ParseKeyword(token.CASCADE)
	if !stmt.Cascade {
		stmt.Restrict = p.ParseKeyword(token.RESTRICT)
	}
	return stmt, nil
}
