package commands

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	clitestutil "github.com/leapstack-labs/catalogsql/internal/cli/testutil"
	"github.com/leapstack-labs/catalogsql/internal/cli/output"
	"github.com/leapstack-labs/catalogsql/internal/testutil"
	"github.com/leapstack-labs/catalogsql/pkg/parser"
)

func newTestShell(t *testing.T) (*shell, *clitestutil.TestRenderer) {
	t.Helper()
	root := clitestutil.SetupTestWorkspace(t)
	tr := clitestutil.NewTestRenderer(output.ModeText, false)
	cc := &CommandContext{
		Cfg:      clitestutil.TestConfig(root),
		Logger:   testutil.NewTestLogger(t),
		Renderer: tr.Renderer,
	}
	return &shell{cc: cc, session: cc.NewSession(parser.WithExitFunc(keepRunning))}, tr
}

func TestShell_BuffersUntilSemicolon(t *testing.T) {
	sh, tr := newTestShell(t)
	var buf strings.Builder

	assert.False(t, sh.handleLine("SELECT 1", &buf))
	assert.Empty(t, tr.Output())
	assert.NotZero(t, buf.Len())

	assert.False(t, sh.handleLine("  ;", &buf))
	assert.Zero(t, buf.Len())
	assert.Contains(t, tr.Output(), "SELECT 1")
}

func TestShell_DotCommandsOnlyBetweenStatements(t *testing.T) {
	sh, tr := newTestShell(t)
	var buf strings.Builder

	sh.handleLine("DESCRIBE", &buf)
	assert.False(t, sh.handleLine(".quit", &buf), "dot text inside a statement is not a command")
	assert.Contains(t, buf.String(), ".quit")
	assert.Empty(t, tr.ErrorOutput())
}

func TestShell_Scope(t *testing.T) {
	sh, tr := newTestShell(t)
	var buf strings.Builder

	sh.handleLine(".scope", &buf)
	assert.Contains(t, tr.Output(), "scope: none (names default to sdf.public)")

	sh.handleLine(".scope shop.sales", &buf)
	assert.Equal(t, "shop", sh.scope.Catalog)
	assert.Equal(t, "sales", sh.scope.Schema)
	assert.Contains(t, tr.Output(), "scope: shop.sales")

	sh.handleLine(".scope shop", &buf)
	assert.Empty(t, sh.scope.Schema)

	sh.handleLine(".scope a.b.c", &buf)
	assert.Contains(t, tr.ErrorOutput(), "Usage: .scope")
	assert.Equal(t, "shop", sh.scope.Catalog, "an invalid scope keeps the current one")
}

func TestShell_ExecuteResolvesAgainstScope(t *testing.T) {
	sh, tr := newTestShell(t)
	var buf strings.Builder

	sh.handleLine("DESCRIBE TABLE orders;", &buf)
	assert.Contains(t, tr.Output(), "sdf.public.orders describe table")

	sh.handleLine(".scope shop.reports", &buf)
	sh.handleLine("USE shop.sales;", &buf)
	out := tr.Output()
	assert.Contains(t, out, "shop.sales.orders create external table")

	sh.handleLine("USE shop.sales;", &buf)
	assert.Equal(t, out+"\n", tr.Output(), "a schema file is parsed once per session")

	sh.handleLine(".locations", &buf)
	assert.Contains(t, tr.Output(), "shop.sales.orders")
}

func TestShell_ExecuteErrors(t *testing.T) {
	sh, tr := newTestShell(t)
	var buf strings.Builder

	sh.handleLine("CREATE EXTERNAL TABLE t (id INT) STORED AS CSV LOCATION 'nowhere.csv';", &buf)
	assert.Contains(t, tr.ErrorOutput(), "Missing external file 'nowhere.csv'")

	sh.handleLine(".scope shop", &buf)
	sh.handleLine("USE shop.refunds;", &buf)
	assert.Contains(t, tr.ErrorOutput(), "Missing schema file")
}

func TestShell_DotCommands(t *testing.T) {
	sh, tr := newTestShell(t)
	var buf strings.Builder

	assert.False(t, sh.handleLine(".help", &buf))
	assert.Contains(t, tr.Output(), ".locations")

	assert.False(t, sh.handleLine(".locations", &buf))
	assert.Contains(t, tr.Output(), "no external tables")

	assert.False(t, sh.handleLine(".bogus", &buf))
	assert.Contains(t, tr.ErrorOutput(), "Unknown command: .bogus")

	assert.True(t, sh.handleLine(".QUIT", &buf))
	assert.True(t, sh.handleLine(".exit", &buf))
}

func TestNewShellCompleter(t *testing.T) {
	c := newShellCompleter()
	require.NotNil(t, c)

	var names []string
	for _, child := range c.GetChildren() {
		names = append(names, strings.TrimSpace(string(child.GetName())))
	}
	assert.Contains(t, names, ".scope")
	assert.Contains(t, names, "CREATE")
}
