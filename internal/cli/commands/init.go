package commands

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/leapstack-labs/catalogsql/internal/cli/output"
	"github.com/leapstack-labs/catalogsql/pkg/workspace"
)

// InitOptions holds options for the init command.
type InitOptions struct {
	Force   bool
	Example bool
	Name    string
}

// NewInitCommand creates the init command.
func NewInitCommand() *cobra.Command {
	opts := &InitOptions{}

	cmd := &cobra.Command{
		Use:   "init [directory]",
		Short: "Initialize a new workspace",
		Long: `Initialize a new workspace with a workspace.yml marking its root and one
catalog to start from.

Use --example to create a small working catalog with an external table, a
table file and a schema that uses them.`,
		Example: `  # Initialize in current directory
  catalogsql init

  # Initialize a new directory with the example catalog
  catalogsql init my-workspace --example

  # Force overwrite existing config
  catalogsql init --force`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			dir := "."
			if len(args) > 0 {
				dir = args[0]
			}
			return runInit(NewCommandContext(cmd).Renderer, dir, opts)
		},
	}

	cmd.Flags().BoolVar(&opts.Force, "force", false, "Overwrite existing files")
	cmd.Flags().BoolVar(&opts.Example, "example", false, "Create the example shop catalog")
	cmd.Flags().StringVar(&opts.Name, "name", "", "Workspace name (default: directory name)")

	return cmd
}

// workspaceFile is the content written to workspace.yml.
type workspaceFile struct {
	Name           string `yaml:"name"`
	DefaultCatalog string `yaml:"default_catalog"`
	DefaultSchema  string `yaml:"default_schema"`
}

func runInit(r *output.Renderer, dir string, opts *InitOptions) error {
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return fmt.Errorf("failed to create directory %s: %w", dir, err)
	}

	configPath := filepath.Join(dir, workspace.WorkspaceFile)
	if _, err := os.Stat(configPath); err == nil && !opts.Force {
		return fmt.Errorf("%s already exists. Use --force to overwrite", workspace.WorkspaceFile)
	}

	name := opts.Name
	if name == "" {
		abs, err := filepath.Abs(dir)
		if err != nil {
			return err
		}
		name = filepath.Base(abs)
	}
	if err := writeWorkspaceFile(configPath, name); err != nil {
		return err
	}

	tmpl := "minimal"
	if opts.Example {
		tmpl = "example"
	}
	if err := copyTemplate(tmpl, dir, opts.Force); err != nil {
		return fmt.Errorf("failed to initialize workspace: %w", err)
	}

	files, err := listTemplateFiles(tmpl)
	if err != nil {
		return err
	}
	groups := groupTemplateFiles(append([]string{workspace.WorkspaceFile}, files...))

	for _, g := range []struct{ key, title string }{
		{"config", "Configuration"},
		{"sql", "Sources"},
		{"data", "Data"},
	} {
		if len(groups[g.key]) == 0 {
			continue
		}
		r.Header(2, g.title)
		for _, f := range groups[g.key] {
			r.StatusLine(f, "success", "")
		}
		r.Println("")
	}

	r.Success(fmt.Sprintf("workspace %s initialized", name))
	r.Println("")
	r.Println("Next steps:")
	r.Println("  catalogsql parse       Parse every source file")
	r.Println("  catalogsql locations   List external tables")
	r.Println("  catalogsql doctor      Check the workspace")
	return nil
}

func writeWorkspaceFile(path, name string) error {
	data, err := yaml.Marshal(workspaceFile{
		Name:           name,
		DefaultCatalog: workspace.DefaultCatalog,
		DefaultSchema:  workspace.DefaultSchema,
	})
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return nil
}
