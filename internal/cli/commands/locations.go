package commands

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/leapstack-labs/catalogsql/internal/cli/output"
	"github.com/leapstack-labs/catalogsql/internal/state"
	"github.com/leapstack-labs/catalogsql/pkg/parser"
)

// LocationsOptions holds options for the locations command.
type LocationsOptions struct {
	Lookup string
	Latest bool
}

// NewLocationsCommand creates the locations command.
func NewLocationsCommand() *cobra.Command {
	opts := &LocationsOptions{}

	cmd := &cobra.Command{
		Use:   "locations [files or directories...]",
		Short: "List the locations of external tables",
		Long: `Parse the workspace in one session and list where every external table
declared with CREATE EXTERNAL TABLE reads its data from.

With --latest the locations recorded by the last index run are listed
instead, without parsing.`,
		Example: `  # All external tables of the workspace
  catalogsql locations

  # Where does "orders" read from?
  catalogsql locations --lookup orders

  # Locations stored by the last index run
  catalogsql locations --latest -o json`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runLocations(cmd, args, opts)
		},
	}

	cmd.Flags().StringVarP(&opts.Lookup, "lookup", "l", "", "Resolve one table name (table, schema.table or catalog.schema.table)")
	cmd.Flags().BoolVar(&opts.Latest, "latest", false, "Read locations from the last index run")

	return cmd
}

func runLocations(cmd *cobra.Command, args []string, opts *LocationsOptions) error {
	cc := NewCommandContext(cmd)
	ctx := cmd.Context()

	var locs []parser.Location
	if opts.Latest {
		store, err := openStore(cc.Cfg.StatePath)
		if err != nil {
			return err
		}
		defer func() { _ = store.Close() }()

		run, err := store.LatestRun(ctx)
		if err != nil {
			return fmt.Errorf("no index run found: %w", err)
		}
		if locs, err = store.Locations(ctx, run.ID); err != nil {
			return err
		}
		if opts.Lookup != "" {
			if locs = filterLocations(locs, opts.Lookup); len(locs) == 0 {
				return fmt.Errorf("no external table named %q", opts.Lookup)
			}
		}
	} else {
		files, err := collectFiles(cc.Cfg.Root, args)
		if err != nil {
			return err
		}
		session := cc.NewSession()
		results, err := parseShared(ctx, session, cc.Cfg.Root, files, cc.Logger)
		if err != nil {
			return err
		}
		for _, res := range results {
			if res.Err != nil {
				cc.Renderer.Warning(fmt.Sprintf("%s: %v", relPath(cc.Cfg.Root, res.File), res.Err))
			}
		}
		locs = session.Locations()

		if opts.Lookup != "" {
			loc, ok := session.LookupLocation(opts.Lookup)
			if !ok {
				return fmt.Errorf("no external table named %q", opts.Lookup)
			}
			locs = []parser.Location{loc}
		}
	}

	return renderLocations(cc.Renderer, locs)
}

// filterLocations keeps the locations whose qualified name is name or ends
// with "."+name.
func filterLocations(locs []parser.Location, name string) []parser.Location {
	var out []parser.Location
	for _, l := range locs {
		if strings.EqualFold(l.Name, name) || strings.HasSuffix(strings.ToLower(l.Name), "."+strings.ToLower(name)) {
			out = append(out, l)
		}
	}
	return out
}

func renderLocations(r *output.Renderer, locs []parser.Location) error {
	views := newLocationViews(locs)
	if ok, err := r.Structured(views); ok {
		return err
	}

	r.Header(1, fmt.Sprintf("External tables (%d)", len(views)))
	if len(views) == 0 {
		r.Println(r.Styles().Muted.Render("no external tables"))
		return nil
	}

	rows := make([][]string, 0, len(views))
	for _, v := range views {
		rows = append(rows, []string{v.Name, v.FileType, v.Location, v.Glob})
	}
	r.Table([]string{"table", "format", "location", "files"}, rows)
	return nil
}

// openStore opens and migrates the state database, creating its directory.
func openStore(path string) (*state.SQLiteStore, error) {
	if path != ":memory:" {
		if dir := filepath.Dir(path); dir != "." && dir != "" {
			if err := os.MkdirAll(dir, 0o750); err != nil {
				return nil, fmt.Errorf("failed to create state directory: %w", err)
			}
		}
	}

	store := state.NewSQLiteStore()
	if err := store.Open(path); err != nil {
		return nil, err
	}
	if err := store.Migrate(); err != nil {
		_ = store.Close()
		return nil, err
	}
	return store, nil
}
