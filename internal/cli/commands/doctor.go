package commands

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/leapstack-labs/catalogsql/internal/cli/output"
	"github.com/leapstack-labs/catalogsql/internal/state"
	"github.com/leapstack-labs/catalogsql/pkg/parser"
	"github.com/leapstack-labs/catalogsql/pkg/workspace"
)

// Health check statuses.
const (
	checkPass  = "pass"
	checkWarn  = "warn"
	checkError = "error"
)

// DoctorOptions holds options for the doctor command.
type DoctorOptions struct {
	Jobs int
}

// NewDoctorCommand creates the doctor command.
func NewDoctorCommand() *cobra.Command {
	opts := &DoctorOptions{}
	cmd := &cobra.Command{
		Use:   "doctor",
		Short: "Run a workspace health check",
		Long: `Check the layout of the workspace, parse every source file and open the
state database, then report the problems found with a health score.

Output adapts to environment:
  - Terminal: Styled output with colors
  - Piped/Scripted: Markdown format
  - JSON/YAML: Machine-readable format`,
		Example: `  # Run health check
  catalogsql doctor

  # Output as JSON
  catalogsql doctor -o json`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runDoctor(cmd, opts)
		},
	}

	cmd.Flags().IntVarP(&opts.Jobs, "jobs", "j", 4, "Files parsed in parallel")

	return cmd
}

// DoctorOutput is the structured output of the doctor command.
type DoctorOutput struct {
	Summary         WorkspaceSummary `json:"summary" yaml:"summary"`
	HealthChecks    []HealthCheck    `json:"health_checks" yaml:"health_checks"`
	Score           int              `json:"score" yaml:"score"`
	Recommendations []string         `json:"recommendations" yaml:"recommendations"`
	IssueCount      int              `json:"issue_count" yaml:"issue_count"`
}

// WorkspaceSummary contains workspace-level statistics.
type WorkspaceSummary struct {
	Name           string `json:"name" yaml:"name"`
	Root           string `json:"root" yaml:"root"`
	Files          int    `json:"files" yaml:"files"`
	Catalogs       int    `json:"catalogs" yaml:"catalogs"`
	Schemas        int    `json:"schemas" yaml:"schemas"`
	Tables         int    `json:"tables" yaml:"tables"`
	Statements     int    `json:"statements" yaml:"statements"`
	ExternalTables int    `json:"external_tables" yaml:"external_tables"`
	RemoteTables   int    `json:"remote_tables" yaml:"remote_tables"`
}

// HealthCheck represents a single health check result.
type HealthCheck struct {
	ID         string   `json:"id" yaml:"id"`
	Name       string   `json:"name" yaml:"name"`
	Group      string   `json:"group" yaml:"group"`
	Status     string   `json:"status" yaml:"status"`
	IssueCount int      `json:"issue_count" yaml:"issue_count"`
	Details    []string `json:"details,omitempty" yaml:"details,omitempty"`
}

func runDoctor(cmd *cobra.Command, opts *DoctorOptions) error {
	cc := NewCommandContext(cmd)
	out, err := buildDoctorOutput(cmd.Context(), cc, opts)
	if err != nil {
		return err
	}

	r := cc.Renderer
	if ok, err := r.Structured(out); ok {
		return err
	}
	if r.EffectiveMode() == output.ModeMarkdown {
		return renderDoctorMarkdown(r, out)
	}
	return renderDoctorText(r, out)
}

func buildDoctorOutput(ctx context.Context, cc *CommandContext, opts *DoctorOptions) (*DoctorOutput, error) {
	root := cc.Cfg.Root
	files, err := collectFiles(root, nil)
	if err != nil {
		return nil, err
	}
	results, err := parseIndependent(ctx, func() *parser.Session {
		return cc.NewSession(parser.WithExitFunc(keepRunning))
	}, root, files, opts.Jobs)
	if err != nil {
		return nil, err
	}

	summary := WorkspaceSummary{Name: filepath.Base(root), Root: root, Files: len(files)}
	checks := []HealthCheck{checkWorkspaceFile(root, &summary)}
	checks = append(checks, checkLayout(root, files, &summary)...)
	checks = append(checks, checkSources(root, results, cc.Cfg.RemoteSchemes, &summary)...)
	checks = append(checks, checkUseCycles(root, results))
	checks = append(checks, checkState(ctx, cc.Cfg.StatePath))

	sort.SliceStable(checks, func(i, j int) bool {
		if checks[i].Group != checks[j].Group {
			return checks[i].Group < checks[j].Group
		}
		return checks[i].ID < checks[j].ID
	})

	issues := 0
	for _, c := range checks {
		issues += c.IssueCount
	}

	return &DoctorOutput{
		Summary:         summary,
		HealthChecks:    checks,
		Score:           calculateHealthScore(checks, summary.Files),
		Recommendations: generateRecommendations(checks),
		IssueCount:      issues,
	}, nil
}

// newCheck returns a check whose status follows from its details.
func newCheck(id, name, group, failStatus string, details []string) HealthCheck {
	status := checkPass
	if len(details) > 0 {
		status = failStatus
	}
	return HealthCheck{
		ID:         id,
		Name:       name,
		Group:      group,
		Status:     status,
		IssueCount: len(details),
		Details:    details,
	}
}

func checkWorkspaceFile(root string, summary *WorkspaceSummary) HealthCheck {
	var details []string
	cfg, err := workspace.Load(root)
	switch {
	case err != nil:
		details = append(details, err.Error())
	case cfg.Name != "":
		summary.Name = cfg.Name
	}
	return newCheck("WS01", "workspace.yml marks the root", "workspace", checkWarn, details)
}

// checkLayout checks that every source file sits where its scope can be
// inferred and that every catalog directory is marked.
func checkLayout(root string, files []string, summary *WorkspaceSummary) []HealthCheck {
	catalogs := make(map[string]struct{})
	schemas := make(map[string]struct{})
	var unscoped []string

	for _, f := range files {
		scope, _ := workspace.ScopeForFile(root, f)
		if scope.Schema == "" {
			unscoped = append(unscoped, relPath(root, f))
			continue
		}
		catalogs[scope.Catalog] = struct{}{}
		schemas[scope.Catalog+"."+scope.Schema] = struct{}{}
		if scope.Table != "" {
			summary.Tables++
		}
	}
	summary.Catalogs = len(catalogs)
	summary.Schemas = len(schemas)

	var unmarked []string
	for c := range catalogs {
		if _, err := os.Stat(filepath.Join(root, c, workspace.CatalogFile)); err != nil {
			unmarked = append(unmarked, fmt.Sprintf("%s has no %s", c, workspace.CatalogFile))
		}
	}
	sort.Strings(unmarked)

	for i, f := range unscoped {
		unscoped[i] = f + " is outside <catalog>/<schema>.sql and <catalog>/<schema>/<table>.sql"
	}

	return []HealthCheck{
		newCheck("WS02", "catalog directories are marked", "workspace", checkWarn, unmarked),
		newCheck("WS03", "source files follow the layout", "workspace", checkWarn, unscoped),
	}
}

// checkSources reports files that fail to parse and external tables that
// more than one file declares.
func checkSources(root string, results []FileResult, remoteSchemes []string, summary *WorkspaceSummary) []HealthCheck {
	var failed []string
	declared := make(map[string]map[string]struct{})
	remote := make(map[string]struct{})

	for _, res := range results {
		if res.Err != nil {
			failed = append(failed, fmt.Sprintf("%s: %v", relPath(root, res.File), res.Err))
			continue
		}
		for _, p := range res.Statements {
			// Statements pulled in through USE are counted with their own file.
			if p.Meta.Filename == res.File {
				summary.Statements++
			}
			ext, ok := p.Statement.(*parser.CreateExternalTable)
			if !ok {
				continue
			}
			name := strings.ToLower(p.Meta.QualifiedName())
			if declared[name] == nil {
				declared[name] = make(map[string]struct{})
			}
			declared[name][relPath(root, p.Meta.Filename)] = struct{}{}
			if workspace.IsRemote(ext.Location, remoteSchemes) {
				remote[name] = struct{}{}
			}
		}
	}
	summary.ExternalTables = len(declared)
	summary.RemoteTables = len(remote)

	var duplicates []string
	for name, files := range declared {
		if len(files) < 2 {
			continue
		}
		list := make([]string, 0, len(files))
		for f := range files {
			list = append(list, f)
		}
		sort.Strings(list)
		duplicates = append(duplicates, fmt.Sprintf("%s is declared in %s", name, strings.Join(list, ", ")))
	}
	sort.Strings(duplicates)

	return []HealthCheck{
		newCheck("SR01", "source files parse", "sources", checkError, failed),
		newCheck("SR02", "external tables are declared once", "sources", checkWarn, duplicates),
	}
}

// checkUseCycles merges the USE edges seen while parsing each file and
// reports a cycle among them.
func checkUseCycles(root string, results []FileResult) HealthCheck {
	var details []string
	if cycle := depsGraph(root, mergeUses(results)).Cycle(); cycle != nil {
		details = append(details, strings.Join(cycle, " -> "))
	}
	return newCheck("SR03", "USE statements form no cycle", "sources", checkWarn, details)
}

func checkState(ctx context.Context, path string) HealthCheck {
	const id, name, group = "ST01", "state database is usable", "state"

	store, err := openStore(path)
	if err != nil {
		return newCheck(id, name, group, checkError, []string{err.Error()})
	}
	defer func() { _ = store.Close() }()

	run, err := store.LatestRun(ctx)
	if err != nil {
		// A workspace that was never indexed is healthy.
		return newCheck(id, name, group, checkWarn, nil)
	}
	if run.Status == state.RunStatusFailed {
		return newCheck(id, name, group, checkWarn, []string{fmt.Sprintf("latest index run %s failed: %s", run.ID, run.Error)})
	}
	return newCheck(id, name, group, checkWarn, nil)
}

// calculateHealthScore computes a health score from 0-100. Each issue costs
// points; the more files the workspace has, the less a single issue costs.
func calculateHealthScore(checks []HealthCheck, fileCount int) int {
	if len(checks) == 0 {
		return 100
	}

	score := 100.0

	basePenalty := 5.0
	if fileCount > 10 {
		basePenalty = 3.0
	}
	if fileCount > 50 {
		basePenalty = 2.0
	}
	if fileCount > 100 {
		basePenalty = 1.0
	}

	for _, check := range checks {
		switch check.Status {
		case checkError:
			score -= float64(check.IssueCount) * basePenalty * 2 // Errors count double
		case checkWarn:
			score -= float64(check.IssueCount) * basePenalty
		}
	}

	if score < 0 {
		score = 0
	}
	return int(score)
}

// generateRecommendations creates actionable recommendations based on findings.
func generateRecommendations(checks []HealthCheck) []string {
	var recommendations []string
	seen := make(map[string]bool)

	for _, check := range checks {
		if check.IssueCount == 0 {
			continue
		}
		rec := getRecommendation(check.ID)
		if rec != "" && !seen[rec] {
			recommendations = append(recommendations, rec)
			seen[rec] = true
		}
	}
	return recommendations
}

// getRecommendation returns a recommendation for a specific check.
func getRecommendation(id string) string {
	switch id {
	case "WS01":
		return "Create workspace.yml at the workspace root (catalogsql init)"
	case "WS02":
		return "Add catalog.yml to every catalog directory"
	case "WS03":
		return "Move source files to <catalog>/<schema>.sql or <catalog>/<schema>/<table>.sql"
	case "SR01":
		return "Fix the files that fail to parse (catalogsql parse <file>)"
	case "SR02":
		return "Declare each external table in a single schema or table file"
	case "SR03":
		return "Break the USE cycle so each file can be read on its own (catalogsql deps)"
	case "ST01":
		return "Re-run catalogsql index, or remove a corrupt state database"
	default:
		return ""
	}
}

func renderDoctorText(r *output.Renderer, out *DoctorOutput) error {
	styles := r.Styles()

	r.Println("")
	r.Println(styles.Header.Render("Workspace Health Report: " + out.Summary.Name))
	r.Println(styles.Muted.Render(strings.Repeat("=", 55)))
	r.Println("")

	r.Println(styles.Bold.Render("Summary"))
	r.Printf("   Files: %d | Catalogs: %d | Schemas: %d | Tables: %d\n",
		out.Summary.Files, out.Summary.Catalogs, out.Summary.Schemas, out.Summary.Tables)
	r.Printf("   Statements: %d | External tables: %d (%d remote)\n",
		out.Summary.Statements, out.Summary.ExternalTables, out.Summary.RemoteTables)
	r.Println("")

	r.Println(styles.Bold.Render("Health Checks"))
	r.Println("")

	currentGroup := ""
	titleCaser := cases.Title(language.English)
	for _, check := range out.HealthChecks {
		if check.Group != currentGroup {
			currentGroup = check.Group
			r.Println(styles.Bold.Render("   " + titleCaser.String(currentGroup)))
			r.Println(styles.Muted.Render("   " + strings.Repeat("-", 40)))
		}

		icon := styles.Success.Render("✓")
		switch check.Status {
		case checkWarn:
			icon = styles.Warning.Render("!")
		case checkError:
			icon = styles.Error.Render("✗")
		}

		status := fmt.Sprintf("%s %s: %s", icon, check.ID, check.Name)
		if check.IssueCount > 0 {
			status += fmt.Sprintf(" (%d issues)", check.IssueCount)
		}
		r.Println("   " + status)

		for i, detail := range check.Details {
			if i >= 3 {
				r.Println(styles.Muted.Render(fmt.Sprintf("       ... and %d more", len(check.Details)-3)))
				break
			}
			r.Println(styles.Muted.Render("       - " + detail))
		}
	}
	r.Println("")

	r.Println(styles.Muted.Render(strings.Repeat("=", 55)))
	scoreStyle := styles.Success
	if out.Score < 70 {
		scoreStyle = styles.Warning
	}
	if out.Score < 50 {
		scoreStyle = styles.Error
	}
	r.Printf("   Health Score: %s\n", scoreStyle.Render(fmt.Sprintf("%d/100", out.Score)))
	r.Println("")

	if len(out.Recommendations) > 0 {
		r.Println(styles.Bold.Render("Recommendations"))
		for i, rec := range out.Recommendations {
			r.Printf("   %d. %s\n", i+1, rec)
		}
		r.Println("")
	}

	return nil
}

func renderDoctorMarkdown(r *output.Renderer, out *DoctorOutput) error {
	r.Println(output.FormatHeader(1, "Workspace Health Report: "+out.Summary.Name))
	r.Println("")

	r.Println(output.FormatHeader(2, "Summary"))
	r.Println("")
	r.Println(output.FormatKeyValue("Files", fmt.Sprintf("%d", out.Summary.Files)))
	r.Println(output.FormatKeyValue("Catalogs", fmt.Sprintf("%d", out.Summary.Catalogs)))
	r.Println(output.FormatKeyValue("Schemas", fmt.Sprintf("%d", out.Summary.Schemas)))
	r.Println(output.FormatKeyValue("Tables", fmt.Sprintf("%d", out.Summary.Tables)))
	r.Println(output.FormatKeyValue("Statements", fmt.Sprintf("%d", out.Summary.Statements)))
	r.Println(output.FormatKeyValue("External tables", fmt.Sprintf("%d (%d remote)", out.Summary.ExternalTables, out.Summary.RemoteTables)))
	r.Println("")

	r.Println(output.FormatHeader(2, "Health Checks"))
	r.Println("")

	currentGroup := ""
	titleCaser := cases.Title(language.English)
	for _, check := range out.HealthChecks {
		if check.Group != currentGroup {
			currentGroup = check.Group
			r.Println(output.FormatHeader(3, titleCaser.String(currentGroup)))
			r.Println("")
		}

		status := strings.ToUpper(check.Status)
		r.Printf("- **[%s]** %s: %s", status, check.ID, check.Name)
		if check.IssueCount > 0 {
			r.Printf(" (%d issues)", check.IssueCount)
		}
		r.Println("")

		for _, detail := range check.Details {
			r.Printf("  - %s\n", detail)
		}
	}
	r.Println("")

	r.Println(output.FormatHeader(2, "Health Score"))
	r.Println("")
	r.Printf("**%d/100**\n", out.Score)
	r.Println("")

	if len(out.Recommendations) > 0 {
		r.Println(output.FormatHeader(2, "Recommendations"))
		r.Println("")
		for i, rec := range out.Recommendations {
			r.Printf("%d. %s\n", i+1, rec)
		}
		r.Println("")
	}

	return nil
}
