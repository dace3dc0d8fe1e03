package commands

import (
	"context"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/leapstack-labs/catalogsql/pkg/parser"
	"github.com/leapstack-labs/catalogsql/pkg/workspace"
)

// FileResult is the outcome of parsing one top-level file.
type FileResult struct {
	File       string
	Scope      workspace.ObjectPath
	Statements []parser.Parsed
	Skipped    bool // already parsed through a USE in a shared session
	Uses       map[string][]string
	Err        error
}

// collectFiles returns the absolute, sorted .sql files named by args.
// Directories are searched recursively; no args means the whole workspace.
func collectFiles(root string, args []string) ([]string, error) {
	if len(args) == 0 {
		args = []string{root}
	}

	seen := make(map[string]struct{})
	var files []string
	add := func(path string) {
		if _, ok := seen[path]; !ok {
			seen[path] = struct{}{}
			files = append(files, path)
		}
	}

	for _, arg := range args {
		abs, err := filepath.Abs(arg)
		if err != nil {
			return nil, fmt.Errorf("invalid path %s: %w", arg, err)
		}
		info, err := os.Stat(abs)
		if err != nil {
			return nil, fmt.Errorf("cannot access %s: %w", arg, err)
		}
		if !info.IsDir() {
			add(abs)
			continue
		}
		err = filepath.WalkDir(abs, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if d.IsDir() {
				if path != abs && strings.HasPrefix(d.Name(), ".") {
					return filepath.SkipDir
				}
				return nil
			}
			if strings.EqualFold(filepath.Ext(path), workspace.SQLExt) {
				add(path)
			}
			return nil
		})
		if err != nil {
			return nil, fmt.Errorf("failed to scan %s: %w", arg, err)
		}
	}

	slices.Sort(files)
	return files, nil
}

// parseFile parses one top-level file in its workspace scope.
func parseFile(session *parser.Session, root, file string) FileResult {
	scope, _ := workspace.ScopeForFile(root, file)
	preamble := session.Enter(file, scope.Catalog, scope.Schema)
	parsed, err := session.ParseFile(file, scope.Catalog, scope.Schema, scope.Table, preamble)
	return FileResult{File: file, Scope: scope, Statements: parsed, Uses: session.Uses(), Err: err}
}

// parseShared parses files in order through one session. Files already
// reached through USE are skipped so every statement is produced once.
func parseShared(ctx context.Context, session *parser.Session, root string, files []string, logger *slog.Logger) ([]FileResult, error) {
	results := make([]FileResult, 0, len(files))
	for _, file := range files {
		if err := ctx.Err(); err != nil {
			return results, err
		}
		if session.Visited(file) {
			logger.Debug("skipping file parsed through USE", slog.String("file", file))
			results = append(results, FileResult{File: file, Skipped: true})
			continue
		}
		results = append(results, parseFile(session, root, file))
	}
	return results, nil
}

// parseIndependent parses every file with its own session, at most jobs at
// a time. jobs < 1 means no limit.
func parseIndependent(ctx context.Context, newSession func() *parser.Session, root string, files []string, jobs int) ([]FileResult, error) {
	results := make([]FileResult, len(files))

	g, ctx := errgroup.WithContext(ctx)
	if jobs > 0 {
		g.SetLimit(jobs)
	}
	for i, file := range files {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			results[i] = parseFile(newSession(), root, file)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

// mergeUses joins the USE edges recorded for every result.
func mergeUses(results []FileResult) map[string][]string {
	uses := make(map[string][]string)
	for _, res := range results {
		for from, to := range res.Uses {
			uses[from] = append(uses[from], to...)
		}
	}
	return uses
}

// failures counts the results that carry an error.
func failures(results []FileResult) int {
	n := 0
	for _, r := range results {
		if r.Err != nil {
			n++
		}
	}
	return n
}

// relPath shows path relative to root when it is inside it.
func relPath(root, path string) string {
	if path == "" {
		return ""
	}
	rel, err := filepath.Rel(root, path)
	if err != nil || strings.HasPrefix(rel, "..") {
		return path
	}
	return filepath.ToSlash(rel)
}
