package parser

import (
	"errors"
	"fmt"

	"github.com/leapstack-labs/catalogsql/pkg/sqlparser"
	"github.com/leapstack-labs/catalogsql/pkg/token"
)

// ErrUnsupportedArity is matched by errors for names with more than three
// parts.
var ErrUnsupportedArity = errors.New("unsupported identifier arity")

// ErrorKind classifies parser errors.
type ErrorKind int

// Error kinds.
const (
	KindSyntax ErrorKind = iota
	KindTokenizer
	KindMissingFile
	KindInvalidClause
	KindUnsupportedArity
)

var errorKindNames = map[ErrorKind]string{
	KindSyntax:           "syntax",
	KindTokenizer:        "tokenizer",
	KindMissingFile:      "missing file",
	KindInvalidClause:    "invalid clause",
	KindUnsupportedArity: "unsupported arity",
}

func (k ErrorKind) String() string {
	if name, ok := errorKindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("ErrorKind(%d)", int(k))
}

// ParserError is returned for any statement that cannot be parsed.
type ParserError struct {
	Kind    ErrorKind
	Pos     token.Position // zero when unknown
	Message string
	Err     error // underlying error, if any
}

func (e *ParserError) Error() string {
	if e.Pos.Line > 0 {
		return fmt.Sprintf("sql parser error: %s at line %d, column %d", e.Message, e.Pos.Line, e.Pos.Column)
	}
	return "sql parser error: " + e.Message
}

func (e *ParserError) Unwrap() error {
	return e.Err
}

// FileError attaches the name of the file being parsed to an error.
type FileError struct {
	Filename string
	Err      error
}

func (e *FileError) Error() string {
	return fmt.Sprintf("'%s': %v", e.Filename, e.Err)
}

func (e *FileError) Unwrap() error {
	return e.Err
}

// Common error messages
const (
	ErrEndOfStatement       = "end of statement"
	ErrMissingExternalFile  = "Missing external file '%s'"
	ErrMissingSchemaFile    = "Missing schema file %s or table file %s"
	ErrUnsupportedCompress  = "Unsupported file compression type %s"
	ErrDelimiterLength      = "delimiter must be a single character, found '%s'"
	ErrNameArity            = "unsupported identifier arity %d in %q, expected 1 to 3 parts"
	ErrExpectedFileFormat   = "one of PARQUET, NDJSON, AVRO or CSV"
	ErrExpectedCompression  = "one of GZIP, BZIP2, XZ or ZSTD"
	ErrExpectedPartition    = "partition name"
	ErrExpectedPartitionSep = "',' or ')' after partition definition"
	ErrExpectedOptionSep    = "',' or ')' after option definition"
)

// fromGrammar converts errors of the generic grammar into parser errors.
// lineOffset is subtracted from positions so that lines count from the first
// line of the source file rather than of the preamble.
func fromGrammar(err error, lineOffset int) error {
	if err == nil {
		return nil
	}

	var pe *ParserError
	var fe *FileError
	if errors.As(err, &pe) || errors.As(err, &fe) {
		return err
	}

	var se *sqlparser.ParseError
	if errors.As(err, &se) {
		return &ParserError{Kind: KindSyntax, Pos: shiftLine(se.Pos, lineOffset), Message: se.Message, Err: err}
	}
	var le *sqlparser.LexError
	if errors.As(err, &le) {
		return &ParserError{Kind: KindTokenizer, Pos: shiftLine(le.Pos, lineOffset), Message: le.Message, Err: err}
	}
	return &ParserError{Kind: KindSyntax, Message: err.Error(), Err: err}
}

// asInvalidClause reclassifies a syntax error raised inside an extension
// clause.
func asInvalidClause(err error, lineOffset int) error {
	err = fromGrammar(err, lineOffset)
	var pe *ParserError
	if errors.As(err, &pe) && pe.Kind == KindSyntax {
		pe.Kind = KindInvalidClause
	}
	return err
}

func shiftLine(pos token.Position, offset int) token.Position {
	if pos.Line > offset {
		pos.Line -= offset
	} else {
		pos.Line = 0
	}
	return pos
}
