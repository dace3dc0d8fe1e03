package commands

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/leapstack-labs/catalogsql/internal/cli/output"
	"github.com/leapstack-labs/catalogsql/internal/state"
	"github.com/leapstack-labs/catalogsql/pkg/parser"
	"github.com/leapstack-labs/catalogsql/pkg/workspace"
)

// NewIndexCommand creates the index command.
func NewIndexCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "index [files or directories...]",
		Short: "Parse the workspace and record the result in the state database",
		Long: `Parse the workspace in one session and store every statement, where it
was defined, and the external table locations in the state database as a new
run. Use "index show" to read a run back.`,
		Example: `  # Index the workspace
  catalogsql index

  # Index into a specific database
  catalogsql index --state /tmp/catalog.db`,
		RunE: runIndex,
	}

	cmd.AddCommand(newIndexShowCommand())
	return cmd
}

// indexSummary is the structured result of an index run.
type indexSummary struct {
	RunID      string `json:"run_id" yaml:"run_id"`
	Workspace  string `json:"workspace" yaml:"workspace"`
	Files      int    `json:"files" yaml:"files"`
	Statements int    `json:"statements" yaml:"statements"`
	Locations  int    `json:"locations" yaml:"locations"`
	Failed     int    `json:"failed" yaml:"failed"`
	State      string `json:"state" yaml:"state"`
}

func runIndex(cmd *cobra.Command, args []string) error {
	cc := NewCommandContext(cmd)
	ctx := cmd.Context()
	root := cc.Cfg.Root

	name := filepath.Base(root)
	if ws, err := workspace.Load(root); err == nil && ws.Name != "" {
		name = ws.Name
	} else if err != nil {
		cc.Logger.Debug("no workspace config", "root", root, "error", err)
	}

	files, err := collectFiles(root, args)
	if err != nil {
		return err
	}

	store, err := openStore(cc.Cfg.StatePath)
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	run, err := store.CreateRun(ctx, name, root)
	if err != nil {
		return err
	}
	cc.Logger.Info("index run started", "run", run.ID, "files", len(files))

	session := cc.NewSession(parser.WithExitFunc(keepRunning))
	results, parseErr := parseShared(ctx, session, root, files, cc.Logger)

	var all []parser.Parsed
	var msgs []string
	for _, res := range results {
		all = append(all, res.Statements...)
		if res.Err != nil {
			msgs = append(msgs, res.Err.Error())
		}
	}
	if parseErr != nil {
		msgs = append(msgs, parseErr.Error())
	}

	saveErr := errors.Join(
		store.SaveStatements(ctx, run.ID, all),
		store.SaveLocations(ctx, run.ID, session.Locations()),
	)
	if saveErr != nil {
		msgs = append(msgs, saveErr.Error())
	}

	status := state.RunStatusCompleted
	if len(msgs) > 0 {
		status = state.RunStatusFailed
	}
	if err := store.CompleteRun(ctx, run.ID, status, strings.Join(msgs, "\n")); err != nil {
		return err
	}

	summary := indexSummary{
		RunID:      run.ID,
		Workspace:  name,
		Files:      len(results),
		Statements: len(all),
		Locations:  len(session.Locations()),
		Failed:     failures(results),
		State:      cc.Cfg.StatePath,
	}
	if err := renderIndexSummary(cc, summary, results); err != nil {
		return err
	}

	if saveErr != nil {
		return saveErr
	}
	if parseErr != nil {
		return parseErr
	}
	if summary.Failed > 0 {
		return fmt.Errorf("%d of %d files failed to parse", summary.Failed, summary.Files)
	}
	return nil
}

func renderIndexSummary(cc *CommandContext, s indexSummary, results []FileResult) error {
	r := cc.Renderer
	if ok, err := r.Structured(s); ok {
		return err
	}

	for _, res := range results {
		if res.Err != nil {
			r.Error(fmt.Sprintf("%s: %v", relPath(cc.Cfg.Root, res.File), res.Err))
		}
	}

	if r.EffectiveMode() == output.ModeMarkdown {
		r.Println(output.FormatHeader(1, "Index run "+s.RunID))
		r.Println("")
		r.Println(output.FormatKeyValue("Workspace", s.Workspace))
		r.Println(output.FormatKeyValue("Files", fmt.Sprintf("%d", s.Files)))
		r.Println(output.FormatKeyValue("Statements", fmt.Sprintf("%d", s.Statements)))
		r.Println(output.FormatKeyValue("Locations", fmt.Sprintf("%d", s.Locations)))
		r.Println(output.FormatKeyValue("Failed", fmt.Sprintf("%d", s.Failed)))
		return nil
	}

	if s.Failed == 0 {
		r.Success(fmt.Sprintf("indexed %d statements and %d locations from %d files", s.Statements, s.Locations, s.Files))
	}
	r.Println(r.Styles().Muted.Render(fmt.Sprintf("run %s in %s", s.RunID, s.State)))
	return nil
}

// runView is the structured form of a stored run.
type runView struct {
	ID          string          `json:"id" yaml:"id"`
	Workspace   string          `json:"workspace" yaml:"workspace"`
	Root        string          `json:"root" yaml:"root"`
	Status      string          `json:"status" yaml:"status"`
	StartedAt   time.Time       `json:"started_at" yaml:"started_at"`
	CompletedAt *time.Time      `json:"completed_at,omitempty" yaml:"completed_at,omitempty"`
	Error       string          `json:"error,omitempty" yaml:"error,omitempty"`
	Statements  []StatementView `json:"statements" yaml:"statements"`
}

func newIndexShowCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "show [run-id]",
		Short: "Show a stored index run (default: the latest)",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cc := NewCommandContext(cmd)
			ctx := cmd.Context()

			store, err := openStore(cc.Cfg.StatePath)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			var run *state.Run
			if len(args) == 1 {
				run, err = store.GetRun(ctx, args[0])
			} else {
				run, err = store.LatestRun(ctx)
			}
			if err != nil {
				return err
			}

			records, err := store.Statements(ctx, run.ID)
			if err != nil {
				return err
			}
			return renderRun(cc, run, records)
		},
	}
}

func renderRun(cc *CommandContext, run *state.Run, records []state.StatementRecord) error {
	r := cc.Renderer
	view := runView{
		ID:          run.ID,
		Workspace:   run.Workspace,
		Root:        run.Root,
		Status:      string(run.Status),
		StartedAt:   run.StartedAt,
		CompletedAt: run.CompletedAt,
		Error:       run.Error,
		Statements:  make([]StatementView, 0, len(records)),
	}
	for _, rec := range records {
		view.Statements = append(view.Statements, StatementView{
			Kind:     rec.Kind,
			Object:   rec.Meta.QualifiedName(),
			Filename: relPath(run.Root, rec.Meta.Filename),
			Line:     rec.Meta.Line,
			SQL:      rec.SQL,
		})
	}
	if ok, err := r.Structured(view); ok {
		return err
	}

	r.Header(1, "Run "+view.ID)
	if r.EffectiveMode() == output.ModeMarkdown {
		r.Println(output.FormatKeyValue("Workspace", view.Workspace))
		r.Println(output.FormatKeyValue("Status", view.Status))
		r.Println(output.FormatKeyValue("Started", view.StartedAt.Format(time.RFC3339)))
		if view.Error != "" {
			r.Println(output.FormatKeyValue("Error", view.Error))
		}
		r.Println("")
	} else {
		r.StatusLine(view.Workspace, runStatusLine(run.Status), view.StartedAt.Format(time.RFC3339))
		if view.Error != "" {
			r.Error(view.Error)
		}
	}

	rows := make([][]string, 0, len(view.Statements))
	for _, s := range view.Statements {
		rows = append(rows, []string{fmt.Sprintf("%s:%d", s.Filename, s.Line), s.Kind, s.Object})
	}
	r.Table([]string{"defined at", "kind", "object"}, rows)
	return nil
}

func runStatusLine(s state.RunStatus) string {
	switch s {
	case state.RunStatusCompleted:
		return "success"
	case state.RunStatusFailed:
		return "error"
	}
	return string(s)
}
