// Package token defines the token types for SQL parsing.
//
// ANSI core and DDL tokens are defined as constants (IDs 0-999) for switch
// performance. Extension keywords are registered dynamically via Register().
package token

import "fmt"

// TokenType represents the type of a lexical token.
//
//nolint:revive // Accept stutter as token.TokenType is clear and widely used
type TokenType int32

const (
	// Special tokens
	EOF TokenType = iota
	ILLEGAL

	// Literals
	IDENT  // identifier
	NUMBER // 123, 45.67, 1e10
	STRING // 'hello'

	// Operators
	PLUS      // +
	MINUS     // -
	STAR      // *
	SLASH     // /
	PERCENT   // %
	DPIPE     // ||
	EQ        // =
	NE        // != or <>
	LT        // <
	GT        // >
	LE        // <=
	GE        // >=
	DOT       // .
	COMMA     // ,
	SEMICOLON // ;
	LPAREN    // (
	RPAREN    // )
	LBRACKET  // [
	RBRACKET  // ]
	COLON     // :
	DCOLON    // ::

	// Keywords (alphabetical)
	ALL
	AND
	AS
	ASC
	BY
	CASCADE
	CHECK
	COLLATE
	CONSTRAINT
	CREATE
	DATABASE
	DEFAULT
	DESC
	DISTINCT
	DROP
	EXISTS
	FOREIGN
	FROM
	IF
	INSERT
	INTO
	JOIN
	KEY
	MATERIALIZED
	NOT
	NULL
	ON
	OR
	PRIMARY
	REFERENCES
	REPLACE
	RESTRICT
	ROW
	SCHEMA
	SELECT
	TABLE
	TEMP
	TEMPORARY
	TYPE
	UNIQUE
	VALUES
	VIEW
	WITH

	// Sentinel - dynamic tokens start after this
	maxBuiltin TokenType = 999
)

// String returns a human-readable representation of the token type.
func (t TokenType) String() string {
	if name, ok := getDynamicName(t); ok {
		return name
	}
	if name, ok := tokenNames[t]; ok {
		return name
	}
	return fmt.Sprintf("TOKEN(%d)", t)
}

// tokenNames maps builtin token types to their string representations.
var tokenNames = map[TokenType]string{
	EOF:     "EOF",
	ILLEGAL: "ILLEGAL",

	IDENT:  "IDENT",
	NUMBER: "NUMBER",
	STRING: "STRING",

	PLUS:      "+",
	MINUS:     "-",
	STAR:      "*",
	SLASH:     "/",
	PERCENT:   "%",
	DPIPE:     "||",
	EQ:        "=",
	NE:        "!=",
	LT:        "<",
	GT:        ">",
	LE:        "<=",
	GE:        ">=",
	DOT:       ".",
	COMMA:     ",",
	SEMICOLON: ";",
	LPAREN:    "(",
	RPAREN:    ")",
	LBRACKET:  "[",
	RBRACKET:  "]",
	COLON:     ":",
	DCOLON:    "::",

	ALL:          "ALL",
	AND:          "AND",
	AS:           "AS",
	ASC:          "ASC",
	BY:           "BY",
	CASCADE:      "CASCADE",
	CHECK:        "CHECK",
	COLLATE:      "COLLATE",
	CONSTRAINT:   "CONSTRAINT",
	CREATE:       "CREATE",
	DATABASE:     "DATABASE",
	DEFAULT:      "DEFAULT",
	DESC:         "DESC",
	DISTINCT:     "DISTINCT",
	DROP:         "DROP",
	EXISTS:       "EXISTS",
	FOREIGN:      "FOREIGN",
	FROM:         "FROM",
	IF:           "IF",
	INSERT:       "INSERT",
	INTO:         "INTO",
	JOIN:         "JOIN",
	KEY:          "KEY",
	MATERIALIZED: "MATERIALIZED",
	NOT:          "NOT",
	NULL:         "NULL",
	ON:           "ON",
	OR:           "OR",
	PRIMARY:      "PRIMARY",
	REFERENCES:   "REFERENCES",
	REPLACE:      "REPLACE",
	RESTRICT:     "RESTRICT",
	ROW:          "ROW",
	SCHEMA:       "SCHEMA",
	SELECT:       "SELECT",
	TABLE:        "TABLE",
	TEMP:         "TEMP",
	TEMPORARY:    "TEMPORARY",
	TYPE:         "TYPE",
	UNIQUE:       "UNIQUE",
	VALUES:       "VALUES",
	VIEW:         "VIEW",
	WITH:         "WITH",
}

// keywords maps lowercase keyword strings to their token types.
var keywords = map[string]TokenType{
	"all":          ALL,
	"and":          AND,
	"as":           AS,
	"asc":          ASC,
	"by":           BY,
	"cascade":      CASCADE,
	"check":        CHECK,
	"collate":      COLLATE,
	"constraint":   CONSTRAINT,
	"create":       CREATE,
	"database":     DATABASE,
	"default":      DEFAULT,
	"desc":         DESC,
	"distinct":     DISTINCT,
	"drop":         DROP,
	"exists":       EXISTS,
	"foreign":      FOREIGN,
	"from":         FROM,
	"if":           IF,
	"insert":       INSERT,
	"into":         INTO,
	"join":         JOIN,
	"key":          KEY,
	"materialized": MATERIALIZED,
	"not":          NOT,
	"null":         NULL,
	"on":           ON,
	"or":           OR,
	"primary":      PRIMARY,
	"references":   REFERENCES,
	"replace":      REPLACE,
	"restrict":     RESTRICT,
	"row":          ROW,
	"schema":       SCHEMA,
	"select":       SELECT,
	"table":        TABLE,
	"temp":         TEMP,
	"temporary":    TEMPORARY,
	"type":         TYPE,
	"unique":       UNIQUE,
	"values":       VALUES,
	"view":         VIEW,
	"with":         WITH,
}

// LookupIdent returns the token type for the given lowercase identifier.
// Builtin keywords win over dynamically registered ones; anything else is IDENT.
func LookupIdent(ident string) TokenType {
	if tok, ok := keywords[ident]; ok {
		return tok
	}
	if tok, ok := LookupDynamicKeyword(ident); ok {
		return tok
	}
	return IDENT
}

// IsKeyword returns true if the token type is a builtin or registered keyword.
func IsKeyword(t TokenType) bool {
	return (t >= ALL && t <= WITH) || IsDynamic(t)
}

// IsOperator returns true if the token type is an operator.
func IsOperator(t TokenType) bool {
	return t >= PLUS && t <= DCOLON
}

// Token represents a lexical token with position information.
type Token struct {
	Type    TokenType
	Literal string
	Pos     Position
	End     int  // byte offset just past the token
	Quote   byte // opening quote of a delimited identifier, 0 otherwise
}

// IsWord reports whether the token is an identifier or keyword, i.e. anything
// that may name an object.
func (t Token) IsWord() bool {
	return t.Type == IDENT || IsKeyword(t.Type)
}

// String renders the token the way it is shown in error messages.
func (t Token) String() string {
	switch t.Type {
	case EOF:
		return "EOF"
	case STRING:
		return "'" + t.Literal + "'"
	case IDENT:
		if t.Quote != 0 {
			return string(t.Quote) + t.Literal + string(closingQuote(t.Quote))
		}
	}
	if t.Literal == "" {
		return t.Type.String()
	}
	return t.Literal
}

func closingQuote(q byte) byte {
	if q == '[' {
		return ']'
	}
	return q
}
