package commands

import (
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/leapstack-labs/catalogsql/internal/cli/config"
	"github.com/leapstack-labs/catalogsql/internal/cli/output"
	"github.com/leapstack-labs/catalogsql/pkg/parser"
)

// CommandContext holds common dependencies for CLI commands.
type CommandContext struct {
	Cfg      *config.Config
	Logger   *slog.Logger
	Renderer *output.Renderer
}

// NewCommandContext builds a CommandContext from the command's context and
// output streams.
func NewCommandContext(cmd *cobra.Command) *CommandContext {
	cfg := config.FromContext(cmd.Context())
	logger := config.GetLogger(cmd.Context())
	mode := output.Mode(cfg.OutputFormat)
	r := output.NewRenderer(cmd.OutOrStdout(), cmd.ErrOrStderr(), mode)

	return &CommandContext{
		Cfg:      cfg,
		Logger:   logger,
		Renderer: r,
	}
}

// NewSession creates a parser session configured from the CLI config.
// Extra options are applied last.
func (c *CommandContext) NewSession(opts ...parser.Option) *parser.Session {
	base := []parser.Option{
		parser.WithLogger(c.Logger),
		parser.WithRoot(c.Cfg.Root),
		parser.WithDefaults(c.Cfg.DefaultCatalog, c.Cfg.DefaultSchema),
		parser.WithRemoteSchemes(c.Cfg.RemoteSchemes),
	}
	return parser.NewSession(append(base, opts...)...)
}

// keepRunning is an exit function for long lived commands: a file that
// cannot be read fails its parse instead of ending the process.
func keepRunning(int) {}
