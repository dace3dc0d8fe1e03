package commands

import (
	"github.com/leapstack-labs/catalogsql/pkg/parser"
)

// StatementView is the structured form of a parsed statement.
type StatementView struct {
	Kind     string `json:"kind" yaml:"kind"`
	Object   string `json:"object" yaml:"object"`
	Filename string `json:"filename,omitempty" yaml:"filename,omitempty"`
	Line     int    `json:"line" yaml:"line"`
	SQL      string `json:"sql" yaml:"sql"`
}

// FileView is the structured form of a FileResult.
type FileView struct {
	File       string          `json:"file" yaml:"file"`
	Catalog    string          `json:"catalog,omitempty" yaml:"catalog,omitempty"`
	Schema     string          `json:"schema,omitempty" yaml:"schema,omitempty"`
	Table      string          `json:"table,omitempty" yaml:"table,omitempty"`
	Skipped    bool            `json:"skipped,omitempty" yaml:"skipped,omitempty"`
	Statements []StatementView `json:"statements" yaml:"statements"`
	Error      string          `json:"error,omitempty" yaml:"error,omitempty"`
}

// LocationView is the structured form of an external table location.
type LocationView struct {
	Name     string `json:"name" yaml:"name"`
	FileType string `json:"file_type" yaml:"file_type"`
	Location string `json:"location" yaml:"location"`
	Resolved string `json:"resolved,omitempty" yaml:"resolved,omitempty"`
	Glob     string `json:"glob" yaml:"glob"`
}

func newStatementView(root string, p parser.Parsed) StatementView {
	return StatementView{
		Kind:     p.Statement.Kind().String(),
		Object:   p.Meta.QualifiedName(),
		Filename: relPath(root, p.Meta.Filename),
		Line:     p.Meta.Line,
		SQL:      p.Statement.String(),
	}
}

func newFileView(root string, res FileResult) FileView {
	v := FileView{
		File:       relPath(root, res.File),
		Catalog:    res.Scope.Catalog,
		Schema:     res.Scope.Schema,
		Table:      res.Scope.Table,
		Skipped:    res.Skipped,
		Statements: make([]StatementView, 0, len(res.Statements)),
	}
	for _, p := range res.Statements {
		v.Statements = append(v.Statements, newStatementView(root, p))
	}
	if res.Err != nil {
		v.Error = res.Err.Error()
	}
	return v
}

func newLocationViews(locs []parser.Location) []LocationView {
	out := make([]LocationView, 0, len(locs))
	for _, l := range locs {
		out = append(out, LocationView{
			Name:     l.Name,
			FileType: l.FileType,
			Location: l.Location,
			Resolved: l.Resolved,
			Glob:     l.Glob,
		})
	}
	return out
}

// DepsFileView is the structured form of one file in the USE graph.
type DepsFileView struct {
	File   string   `json:"file" yaml:"file"`
	Level  int      `json:"level" yaml:"level"`
	Uses   []string `json:"uses" yaml:"uses"`
	UsedBy []string `json:"used_by" yaml:"used_by"`
}

// DepsOutput is the structured output of the deps command.
type DepsOutput struct {
	Files    []DepsFileView `json:"files" yaml:"files"`
	Levels   [][]string     `json:"levels,omitempty" yaml:"levels,omitempty"`
	Edges    int            `json:"edges" yaml:"edges"`
	Cycle    []string       `json:"cycle,omitempty" yaml:"cycle,omitempty"`
	Affected []string       `json:"affected,omitempty" yaml:"affected,omitempty"`
}
