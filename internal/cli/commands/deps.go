package commands

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/leapstack-labs/catalogsql/internal/cli/output"
	"github.com/leapstack-labs/catalogsql/internal/deps"
)

// DepsOptions holds options for the deps command.
type DepsOptions struct {
	Affected []string
}

// NewDepsCommand creates the deps command.
func NewDepsCommand() *cobra.Command {
	opts := &DepsOptions{}

	cmd := &cobra.Command{
		Use:   "deps [files or directories...]",
		Short: "Show which files pull in which through USE",
		Long: `Parse the workspace in one session and print the graph of USE statements
between source files, grouped into levels: a file only uses files from
lower levels.

With --affected the files whose output changes when the named files change
are listed as well. A USE cycle is reported and makes the command fail.`,
		Example: `  # Graph of the whole workspace
  catalogsql deps

  # Which files see a change to the sales schema?
  catalogsql deps --affected shop/sales.sql -o json`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDeps(cmd, args, opts)
		},
	}

	cmd.Flags().StringSliceVarP(&opts.Affected, "affected", "a", nil, "Files to trace through the graph (workspace relative)")

	return cmd
}

func runDeps(cmd *cobra.Command, args []string, opts *DepsOptions) error {
	cc := NewCommandContext(cmd)

	g, err := buildDeps(cmd.Context(), cc, args)
	if err != nil {
		return err
	}

	out := newDepsOutput(g)
	if len(opts.Affected) > 0 {
		changed := make([]string, len(opts.Affected))
		for i, f := range opts.Affected {
			changed[i] = normalizeRel(cc.Cfg.Root, f)
		}
		out.Affected = g.Affected(changed)
	}

	if err := renderDeps(cc.Renderer, out); err != nil {
		return err
	}
	if out.Cycle != nil {
		return &deps.CycleError{Path: out.Cycle}
	}
	return nil
}

// buildDeps parses files in one session and returns their USE graph keyed
// by workspace relative path. Parse errors are reported as warnings.
func buildDeps(ctx context.Context, cc *CommandContext, args []string) (*deps.Graph, error) {
	files, err := collectFiles(cc.Cfg.Root, args)
	if err != nil {
		return nil, err
	}
	session := cc.NewSession()
	results, err := parseShared(ctx, session, cc.Cfg.Root, files, cc.Logger)
	if err != nil {
		return nil, err
	}
	for _, res := range results {
		if res.Err != nil {
			cc.Renderer.Warning(fmt.Sprintf("%s: %v", relPath(cc.Cfg.Root, res.File), res.Err))
		}
	}

	g := depsGraph(cc.Cfg.Root, session.Uses())
	for _, f := range files {
		g.AddFile(relPath(cc.Cfg.Root, f))
	}
	return g, nil
}

func depsGraph(root string, uses map[string][]string) *deps.Graph {
	return deps.FromUses(uses, func(p string) string { return relPath(root, p) })
}

// normalizeRel turns a user supplied path into the graph's key form.
// Relative paths are taken relative to the workspace root.
func normalizeRel(root, p string) string {
	if filepath.IsAbs(p) {
		return relPath(root, p)
	}
	return filepath.ToSlash(filepath.Clean(p))
}

func newDepsOutput(g *deps.Graph) DepsOutput {
	out := DepsOutput{Edges: g.EdgeCount()}

	levels, err := g.Levels()
	if err != nil {
		out.Cycle = g.Cycle()
	} else {
		out.Levels = levels
	}
	level := make(map[string]int)
	for i, l := range levels {
		for _, f := range l {
			level[f] = i
		}
	}

	out.Files = make([]DepsFileView, 0, g.FileCount())
	for _, f := range g.Files() {
		lv, ok := level[f]
		if !ok {
			lv = -1
		}
		out.Files = append(out.Files, DepsFileView{
			File:   f,
			Level:  lv,
			Uses:   g.Uses(f),
			UsedBy: g.UsedBy(f),
		})
	}
	return out
}

func renderDeps(r *output.Renderer, out DepsOutput) error {
	if ok, err := r.Structured(out); ok {
		return err
	}
	if r.EffectiveMode() == output.ModeMarkdown {
		return depsMarkdown(r, out)
	}
	return depsText(r, out)
}

func depsText(r *output.Renderer, out DepsOutput) error {
	styles := r.Styles()
	r.Header(1, fmt.Sprintf("USE graph (%d files, %d edges)", len(out.Files), out.Edges))

	if out.Cycle != nil {
		r.StatusLine("cycle", "error", strings.Join(out.Cycle, " -> "))
	}
	for i, l := range out.Levels {
		r.Println(styles.Bold.Render(fmt.Sprintf("Level %d", i)))
		for _, f := range l {
			r.Printf("  %s\n", f)
		}
	}

	rows := make([][]string, 0, len(out.Files))
	for _, f := range out.Files {
		if len(f.Uses) == 0 && len(f.UsedBy) == 0 {
			continue
		}
		rows = append(rows, []string{f.File, strings.Join(f.Uses, ", "), strings.Join(f.UsedBy, ", ")})
	}
	if len(rows) > 0 {
		r.Println("")
		r.Table([]string{"file", "uses", "used by"}, rows)
	}

	if len(out.Affected) > 0 {
		r.Println("")
		r.Header(2, fmt.Sprintf("Affected (%d)", len(out.Affected)))
		for _, f := range out.Affected {
			r.StatusLine(f, "warning", "")
		}
	}
	return nil
}

func depsMarkdown(r *output.Renderer, out DepsOutput) error {
	r.Println(output.FormatHeader(1, "USE graph"))
	r.Println("")
	r.Println(output.FormatKeyValue("Files", fmt.Sprintf("%d", len(out.Files))))
	r.Println(output.FormatKeyValue("Edges", fmt.Sprintf("%d", out.Edges)))
	if out.Cycle != nil {
		r.Println(output.FormatKeyValue("Cycle", strings.Join(out.Cycle, " -> ")))
	}
	r.Println("")

	for i, l := range out.Levels {
		r.Println(output.FormatHeader(2, fmt.Sprintf("Level %d", i)))
		for _, f := range l {
			r.Println("- " + f)
		}
		r.Println("")
	}

	rows := make([][]string, 0, len(out.Files))
	for _, f := range out.Files {
		rows = append(rows, []string{f.File, strings.Join(f.Uses, ", "), strings.Join(f.UsedBy, ", ")})
	}
	r.Table([]string{"file", "uses", "used by"}, rows)

	if len(out.Affected) > 0 {
		r.Println("")
		r.Println(output.FormatHeader(2, "Affected"))
		for _, f := range out.Affected {
			r.Println("- " + f)
		}
	}
	return nil
}
