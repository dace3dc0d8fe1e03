// Package testutil provides test utilities for CLI testing.
package testutil

import (
	"bytes"
	"context"
	"regexp"
	"strings"
	"testing"

	"github.com/leapstack-labs/catalogsql/internal/cli/config"
	"github.com/leapstack-labs/catalogsql/internal/cli/output"
	"github.com/leapstack-labs/catalogsql/internal/testutil"
)

// SetupTestWorkspace creates a temporary workspace with catalog "shop":
//
//	workspace.yml
//	shop/catalog.yml
//	shop/sales.sql            external table orders
//	shop/sales/customers.sql  bare query
//	shop/reports.sql          USE shop.sales and a view over orders
//	data/orders.csv
func SetupTestWorkspace(t *testing.T) string {
	t.Helper()
	return testutil.WriteTree(t, map[string]string{
		"workspace.yml":    "name: shop\n",
		"shop/catalog.yml": "",
		"shop/sales.sql": `CREATE EXTERNAL TABLE orders (id INT, amount INT)
STORED AS CSV WITH HEADER ROW
LOCATION 'data/orders.csv';
`,
		"shop/sales/customers.sql": "SELECT 1 AS id\n",
		"shop/reports.sql": `USE shop.sales;
CREATE VIEW totals AS SELECT SUM(amount) AS total FROM sales.orders;
`,
		"data/orders.csv": "id,amount\n1,10\n",
	})
}

// TestConfig returns the defaults anchored at root with state in memory.
func TestConfig(root string) *config.Config {
	cfg := config.Default()
	cfg.Root = root
	cfg.StatePath = ":memory:"
	return cfg
}

// TestContext returns a context carrying cfg and a logger writing to t.
func TestContext(t *testing.T, cfg *config.Config) context.Context {
	t.Helper()
	ctx := config.WithConfig(context.Background(), cfg)
	return context.WithValue(ctx, config.LoggerKey(), testutil.NewTestLogger(t))
}

// TestRenderer wraps a Renderer for testing with captured output buffers.
type TestRenderer struct {
	*output.Renderer
	Out    *bytes.Buffer
	ErrOut *bytes.Buffer
}

// NewTestRenderer creates a new test renderer with the specified mode and TTY state.
// Output is captured in buffers for inspection.
func NewTestRenderer(mode output.OutputMode, isTTY bool) *TestRenderer {
	out := &bytes.Buffer{}
	errOut := &bytes.Buffer{}
	return &TestRenderer{
		Renderer: output.NewRendererWithTTY(out, errOut, isTTY, mode),
		Out:      out,
		ErrOut:   errOut,
	}
}

// Output returns the stdout output as a string.
func (tr *TestRenderer) Output() string {
	return tr.Out.String()
}

// ErrorOutput returns the stderr output as a string.
func (tr *TestRenderer) ErrorOutput() string {
	return tr.ErrOut.String()
}

// ansiPattern matches ANSI escape codes.
var ansiPattern = regexp.MustCompile(`\x1b\[[0-9;]*[a-zA-Z]`)

// AssertNoANSI checks that a string contains no ANSI escape codes.
func AssertNoANSI(t *testing.T, s string) {
	t.Helper()
	if ansiPattern.MatchString(s) {
		t.Errorf("string contains ANSI escape codes: %q", s)
	}
}

// AssertValidMarkdown performs basic markdown validation.
// It checks for unclosed code fences and empty headers.
func AssertValidMarkdown(t *testing.T, md string) {
	t.Helper()

	fenceCount := strings.Count(md, "```")
	if fenceCount%2 != 0 {
		t.Errorf("unbalanced code fences in markdown: found %d occurrences", fenceCount)
	}

	lines := strings.Split(md, "\n")
	for i, line := range lines {
		trimmed := strings.TrimSpace(line)
		if strings.HasPrefix(trimmed, "#") && strings.TrimLeft(trimmed, "# ") == "" {
			t.Errorf("empty header at line %d: %q", i+1, line)
		}
	}
}
