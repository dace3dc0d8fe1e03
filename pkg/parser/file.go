package parser

import (
	"fmt"
	"log/slog"
	"os"
)

// ParseFile reads filename and parses preamble followed by its contents,
// defining objects in catalog.schema. The preamble is normally the value
// returned by Enter; its statements get line 0.
//
// A file that cannot be read ends the session: the error is logged and the
// exit function runs with status 1. The error is returned for exit functions
// that do not terminate the process.
func (s *Session) ParseFile(filename, catalog, schema, table, preamble string) ([]Parsed, error) {
	return s.parseFile(filename, Scope{
		Catalog:  catalog,
		Schema:   schema,
		Table:    table,
		Filename: filename,
		Root:     s.rootFor(filename),
	}, preamble)
}

func (s *Session) parseFile(filename string, scope Scope, preamble string) ([]Parsed, error) {
	contents, err := os.ReadFile(filename)
	if err != nil {
		s.logger.Error("cannot read source file",
			slog.String("file", filename),
			slog.String("error", err.Error()),
		)
		s.exit(1)
		return nil, &FileError{Filename: filename, Err: fmt.Errorf("read source file: %w", err)}
	}
	return s.parse(preamble+string(contents), scope, countLines(preamble))
}
