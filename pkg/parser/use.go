package parser

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/leapstack-labs/catalogsql/pkg/token"
	"github.com/leapstack-labs/catalogsql/pkg/workspace"
)

// parseUse parses the name after USE and returns the statements of the
// file that defines it. USE is only meaningful inside a catalog; elsewhere
// it is skipped. A file already visited in the session yields nothing.
func (p *Parser) parseUse() ([]Parsed, error) {
	tok := p.p.Peek()
	if !tok.IsWord() {
		return nil, p.expected("object identifier", tok)
	}
	name, err := p.p.ParseObjectName()
	if err != nil {
		return nil, fromGrammar(err, p.preambleLines)
	}

	parts := name.Parts()
	if len(parts) > 3 {
		err := arityError(parts)
		err.Pos = shiftLine(tok.Pos, p.preambleLines)
		return nil, err
	}
	target := workspace.ObjectPath{Catalog: parts[0]}
	if len(parts) > 1 {
		target.Schema = parts[1]
	}
	if len(parts) > 2 {
		target.Table = parts[2]
	}

	if p.scope.Catalog == "" {
		p.logger().Warn("skipping USE outside of a catalog",
			slog.String("name", name.String()),
			slog.Int("line", p.line(tok)),
		)
		return nil, nil
	}

	filename, target, err := p.useFile(target, tok)
	if err != nil {
		return nil, err
	}
	if p.scope.Filename != "" {
		p.session.recordUse(p.scope.Filename, filename)
	}
	if !p.session.markFile(filename) {
		p.logger().Debug("already visited", slog.String("use", filename))
		return nil, nil
	}

	preamble := p.session.preamble(target.Catalog, target.Schema)
	p.logger().Debug("resolving USE",
		slog.String("name", name.String()),
		slog.String("use", filename),
	)
	return p.session.parseFile(filename, Scope{
		Catalog:  target.Catalog,
		Schema:   target.Schema,
		Table:    target.Table,
		Filename: filename,
		Root:     p.scope.Root,
	}, preamble)
}

// useFile picks the file defining target: the table file when a table is
// named and its file exists, else the schema file. Choosing the schema file
// clears the table.
func (p *Parser) useFile(target workspace.ObjectPath, tok token.Token) (string, workspace.ObjectPath, error) {
	schemaFile := workspace.SchemaFile(p.scope.Root, target.Catalog, target.Schema)
	tableFile := workspace.TableFile(p.scope.Root, target.Catalog, target.Schema, target.Table)

	if target.Table != "" && fileExists(tableFile) {
		return tableFile, target, nil
	}
	if fileExists(schemaFile) {
		target.Table = ""
		return schemaFile, target, nil
	}
	return "", target, &ParserError{
		Kind:    KindMissingFile,
		Pos:     shiftLine(tok.Pos, p.preambleLines),
		Message: fmt.Sprintf(ErrMissingSchemaFile, schemaFile, tableFile),
	}
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}
