package commands

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"slices"
	"strings"

	"github.com/spf13/cobra"

	"github.com/leapstack-labs/catalogsql/internal/cli/output"
	"github.com/leapstack-labs/catalogsql/internal/watch"
	"github.com/leapstack-labs/catalogsql/pkg/parser"
)

// ParseOptions holds options for the parse command.
type ParseOptions struct {
	Jobs   int
	Shared bool
	Watch  bool
}

// NewParseCommand creates the parse command.
func NewParseCommand() *cobra.Command {
	opts := &ParseOptions{}

	cmd := &cobra.Command{
		Use:   "parse [files or directories...]",
		Short: "Parse workspace files and print the resolved statements",
		Long: `Parse SQL files of a workspace, following USE statements into the
schema and table files they name, and print every statement with the
catalog, schema and table it defines.

Each file is parsed in the scope given by its place in the workspace:
<catalog>/<schema>.sql or <catalog>/<schema>/<table>.sql. Without arguments
every .sql file below the workspace root is parsed.`,
		Example: `  # Parse the whole workspace
  catalogsql parse

  # Parse one schema file as JSON
  catalogsql parse shop/sales.sql -o json

  # Re-parse whenever a source file changes
  catalogsql parse --watch`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runParse(cmd, args, opts)
		},
	}

	cmd.Flags().IntVarP(&opts.Jobs, "jobs", "j", 4, "Files parsed in parallel (independent sessions only)")
	cmd.Flags().BoolVar(&opts.Shared, "shared-session", false, "Parse all files in one session so USE targets are emitted once")
	cmd.Flags().BoolVarP(&opts.Watch, "watch", "w", false, "Re-parse on changes to workspace files")

	return cmd
}

func runParse(cmd *cobra.Command, args []string, opts *ParseOptions) error {
	cc := NewCommandContext(cmd)

	if !opts.Watch {
		results, err := parseWorkspace(cmd.Context(), cc, args, opts)
		if err != nil {
			return err
		}
		if err := renderParseResults(cc, results); err != nil {
			return err
		}
		if n := failures(results); n > 0 {
			return fmt.Errorf("%d of %d files failed to parse", n, len(results))
		}
		return nil
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
	defer stop()
	return watchParse(ctx, cc, args, opts)
}

// watchParse parses once, then again after every batch of changes, until
// ctx is done.
func watchParse(ctx context.Context, cc *CommandContext, args []string, opts *ParseOptions) error {
	r := cc.Renderer
	root := cc.Cfg.Root
	var uses map[string][]string
	run := func() {
		results, err := parseWorkspace(ctx, cc, args, opts, parser.WithExitFunc(keepRunning))
		if err != nil {
			r.Error(err.Error())
			return
		}
		uses = mergeUses(results)
		if err := renderParseResults(cc, results); err != nil {
			r.Error(err.Error())
		}
	}

	run()
	w := watch.New(root, watch.WithLogger(cc.Logger))
	return w.Run(ctx, func(changed []string) {
		r.Println(r.Styles().Muted.Render("changed: " + strings.Join(changedFiles(root, uses, changed), ", ")))
		run()
	})
}

// changedFiles lists the changed files followed by the files that reach
// them through USE, all relative to root.
func changedFiles(root string, uses map[string][]string, changed []string) []string {
	rel := make([]string, len(changed))
	for i, f := range changed {
		rel[i] = relPath(root, f)
	}
	out := slices.Clone(rel)
	for _, f := range depsGraph(root, uses).Affected(rel) {
		if !slices.Contains(out, f) {
			out = append(out, f)
		}
	}
	return out
}

func parseWorkspace(ctx context.Context, cc *CommandContext, args []string, opts *ParseOptions, sessionOpts ...parser.Option) ([]FileResult, error) {
	files, err := collectFiles(cc.Cfg.Root, args)
	if err != nil {
		return nil, err
	}
	cc.Logger.Debug("parsing files", "count", len(files), "shared", opts.Shared)

	if opts.Shared {
		return parseShared(ctx, cc.NewSession(sessionOpts...), cc.Cfg.Root, files, cc.Logger)
	}
	return parseIndependent(ctx, func() *parser.Session {
		return cc.NewSession(sessionOpts...)
	}, cc.Cfg.Root, files, opts.Jobs)
}

func renderParseResults(cc *CommandContext, results []FileResult) error {
	r := cc.Renderer
	root := cc.Cfg.Root

	views := make([]FileView, 0, len(results))
	for _, res := range results {
		views = append(views, newFileView(root, res))
	}
	if ok, err := r.Structured(views); ok {
		return err
	}

	if r.EffectiveMode() == output.ModeMarkdown {
		return parseMarkdown(r, views)
	}
	return parseText(r, views)
}

func parseText(r *output.Renderer, views []FileView) error {
	styles := r.Styles()
	total := 0
	for _, v := range views {
		switch {
		case v.Skipped:
			r.StatusLine(v.File, "skipped", "(parsed through USE)")
			continue
		case v.Error != "":
			r.StatusLine(v.File, "error", v.Error)
			continue
		}

		r.StatusLine(v.File, "success", fmt.Sprintf("%d statements", len(v.Statements)))
		for _, s := range v.Statements {
			loc := fmt.Sprintf("%s:%d", s.Filename, s.Line)
			r.Printf("    %s %s %s\n", styles.Muted.Render(loc), styles.Object.Render(s.Object), s.SQL)
		}
		total += len(v.Statements)
	}
	r.Println("")
	r.Println(styles.Bold.Render(fmt.Sprintf("%d statements from %d files", total, len(views))))
	return nil
}

func parseMarkdown(r *output.Renderer, views []FileView) error {
	r.Println(output.FormatHeader(1, fmt.Sprintf("Parsed files (%d)", len(views))))
	r.Println("")

	for _, v := range views {
		r.Println(output.FormatHeader(2, v.File))
		if v.Catalog != "" {
			r.Println(output.FormatKeyValue("Scope", strings.Trim(strings.Join([]string{v.Catalog, v.Schema, v.Table}, "."), ".")))
		}
		switch {
		case v.Skipped:
			r.Println(output.FormatKeyValue("Status", "parsed through USE"))
		case v.Error != "":
			r.Println(output.FormatKeyValue("Error", v.Error))
		default:
			r.Println(output.FormatKeyValue("Statements", fmt.Sprintf("%d", len(v.Statements))))
			r.Println("")

			var sb strings.Builder
			for _, s := range v.Statements {
				fmt.Fprintf(&sb, "-- %s:%d %s\n%s;\n", s.Filename, s.Line, s.Object, s.SQL)
			}
			r.Println(output.FormatCode("sql", sb.String()))
		}
		r.Println("")
	}
	return nil
}
