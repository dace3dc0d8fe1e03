package commands

import (
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/chzyer/readline"
	"github.com/spf13/cobra"

	"github.com/leapstack-labs/catalogsql/internal/cli/output"
	"github.com/leapstack-labs/catalogsql/pkg/parser"
	"github.com/leapstack-labs/catalogsql/pkg/workspace"
)

const (
	shellPrompt     = "catalogsql> "
	shellContPrompt = "       ...> "
)

// NewShellCommand creates the shell command.
func NewShellCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "shell",
		Short: "Parse statements interactively",
		Long: `Start an interactive shell that parses each statement you enter and
prints how it resolves. The whole shell shares one session: a schema file
reached with USE is parsed only the first time, and external tables stay
registered until the shell exits.

Statements end with a semicolon. Use .scope to choose the catalog and schema
that USE and unqualified names resolve against.`,
		RunE: runShell,
	}
}

// shell holds the state of one interactive session.
type shell struct {
	cc      *CommandContext
	session *parser.Session
	scope   workspace.ObjectPath
}

func runShell(cmd *cobra.Command, _ []string) error {
	cc := NewCommandContext(cmd)
	sh := &shell{
		cc:      cc,
		session: cc.NewSession(parser.WithExitFunc(keepRunning)),
	}

	// Setup history file next to the state database
	historyFile := filepath.Join(filepath.Dir(cc.Cfg.StatePath), "shell_history")

	rl, err := readline.NewEx(&readline.Config{
		Prompt:          shellPrompt,
		HistoryFile:     historyFile,
		AutoComplete:    newShellCompleter(),
		InterruptPrompt: "^C",
		EOFPrompt:       ".quit",
		Stdin:           io.NopCloser(cmd.InOrStdin()),
		Stdout:          cmd.OutOrStdout(),
		Stderr:          cmd.ErrOrStderr(),
	})
	if err != nil {
		return fmt.Errorf("failed to initialize shell: %w", err)
	}
	defer func() { _ = rl.Close() }()

	r := cc.Renderer
	r.Println(fmt.Sprintf("catalogsql shell (workspace: %s)", cc.Cfg.Root))
	r.Println("Type .help for commands, .quit to exit")
	r.Println("")

	var buf strings.Builder
	for {
		line, err := rl.Readline()
		if errors.Is(err, readline.ErrInterrupt) {
			buf.Reset()
			rl.SetPrompt(shellPrompt)
			continue
		}
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return err
		}

		if done := sh.handleLine(line, &buf); done {
			break
		}
		if buf.Len() > 0 {
			rl.SetPrompt(shellContPrompt)
		} else {
			rl.SetPrompt(shellPrompt)
		}
	}
	return nil
}

// handleLine processes one input line, buffering statement text until a
// semicolon ends it. It reports true when the shell should exit.
func (sh *shell) handleLine(line string, buf *strings.Builder) bool {
	line = strings.TrimSpace(line)
	if line == "" {
		return false
	}

	if buf.Len() == 0 && strings.HasPrefix(line, ".") {
		return sh.handleDotCommand(line)
	}

	buf.WriteString(line)
	if !strings.HasSuffix(line, ";") {
		buf.WriteString("\n")
		return false
	}

	sql := buf.String()
	buf.Reset()
	sh.execute(sql)
	return false
}

// execute parses sql in the current scope and prints the statements.
func (sh *shell) execute(sql string) {
	r := sh.cc.Renderer
	parsed, err := sh.session.ParseWithScope(sql, "", sh.scope.Catalog, sh.scope.Schema, "")
	if err != nil {
		r.Error(err.Error())
		return
	}
	for _, p := range parsed {
		r.Printf("%s %s\n", r.Styles().Object.Render(p.Meta.QualifiedName()), r.Styles().Muted.Render(p.Statement.Kind().String()))
		r.Println(p.Statement.String())
	}
	r.Println("")
}

func (sh *shell) handleDotCommand(line string) bool {
	r := sh.cc.Renderer
	parts := strings.Fields(line)
	command := strings.ToLower(parts[0])

	switch command {
	case ".quit", ".exit":
		return true

	case ".help":
		printShellHelp(r)

	case ".scope":
		if len(parts) < 2 {
			r.Println(fmt.Sprintf("scope: %s", sh.scopeName()))
			return false
		}
		names := strings.Split(parts[1], ".")
		if len(names) > 2 {
			r.Error("Usage: .scope <catalog>[.<schema>]")
			return false
		}
		sh.scope = workspace.ObjectPath{Catalog: names[0]}
		if len(names) == 2 {
			sh.scope.Schema = names[1]
		}
		r.Println(fmt.Sprintf("scope: %s", sh.scopeName()))

	case ".locations":
		if err := renderLocations(r, sh.session.Locations()); err != nil {
			r.Error(err.Error())
		}

	case ".clear":
		r.Printf("\033[H\033[2J")

	default:
		r.Error(fmt.Sprintf("Unknown command: %s (type .help for commands)", command))
	}
	return false
}

func (sh *shell) scopeName() string {
	if sh.scope.Catalog == "" {
		catalog, schema := sh.session.Defaults()
		return fmt.Sprintf("none (names default to %s.%s)", catalog, schema)
	}
	if sh.scope.Schema == "" {
		return sh.scope.Catalog
	}
	return sh.scope.Catalog + "." + sh.scope.Schema
}

func printShellHelp(r *output.Renderer) {
	r.Println(`
Commands:
  .help                         Show this help message
  .scope [catalog[.schema]]     Show or set the scope USE resolves against
  .locations                    List external tables registered so far
  .clear                        Clear the screen
  .quit / .exit                 Exit the shell

Tips:
  - Statements must end with a semicolon (;)
  - USE needs a catalog scope; set one with .scope
  - Use arrow keys to navigate history`)
}

// newShellCompleter completes dot-commands and statement keywords.
func newShellCompleter() *readline.PrefixCompleter {
	return readline.NewPrefixCompleter(
		readline.PcItem(".help"),
		readline.PcItem(".scope"),
		readline.PcItem(".locations"),
		readline.PcItem(".clear"),
		readline.PcItem(".quit"),
		readline.PcItem(".exit"),
		readline.PcItem("USE"),
		readline.PcItem("DESCRIBE",
			readline.PcItem("TABLE"),
		),
		readline.PcItem("CREATE",
			readline.PcItem("EXTERNAL", readline.PcItem("TABLE")),
			readline.PcItem("TABLE"),
			readline.PcItem("VIEW"),
			readline.PcItem("SCHEMA"),
			readline.PcItem("DATABASE"),
		),
		readline.PcItem("SELECT"),
	)
}
