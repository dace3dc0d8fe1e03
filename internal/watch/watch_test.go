package watch

import (
	"context"
	"os"
	"path/filepath"
	"slices"
	"testing"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leapstack-labs/catalogsql/internal/testutil"
)

func startWatcher(t *testing.T, root string) <-chan []string {
	t.Helper()

	ctx, cancel := context.WithCancel(context.Background())
	w := New(root, WithDebounce(20*time.Millisecond), WithLogger(testutil.NewTestLogger(t)))

	changes := make(chan []string, 10)
	done := make(chan error, 1)
	go func() {
		done <- w.Run(ctx, func(changed []string) { changes <- changed })
	}()
	t.Cleanup(func() {
		cancel()
		assert.NoError(t, <-done)
	})

	select {
	case <-w.Ready():
	case err := <-done:
		t.Fatalf("watcher stopped early: %v", err)
	case <-time.After(5 * time.Second):
		t.Fatal("watcher did not become ready")
	}
	return changes
}

func waitChange(t *testing.T, changes <-chan []string) []string {
	t.Helper()
	select {
	case c := <-changes:
		return c
	case <-time.After(5 * time.Second):
		t.Fatal("no change reported")
		return nil
	}
}

func TestWatcherReportsSQLChanges(t *testing.T) {
	root := testutil.WriteTree(t, map[string]string{
		"workspace.yml":    "",
		"shop/catalog.yml": "",
		"shop/sales.sql":   "SELECT 1",
	})
	changes := startWatcher(t, root)

	file := filepath.Join(root, "shop", "sales.sql")
	require.NoError(t, os.WriteFile(file, []byte("SELECT 2"), 0o600))

	assert.Contains(t, waitChange(t, changes), file)
}

func TestWatcherBatchesChanges(t *testing.T) {
	root := testutil.WriteTree(t, map[string]string{"workspace.yml": ""})
	changes := startWatcher(t, root)

	a := filepath.Join(root, "a.sql")
	b := filepath.Join(root, "b.sql")
	require.NoError(t, os.WriteFile(a, []byte("SELECT 1"), 0o600))
	require.NoError(t, os.WriteFile(b, []byte("SELECT 1"), 0o600))

	seen := map[string]bool{}
	for !seen[a] || !seen[b] {
		for _, f := range waitChange(t, changes) {
			seen[f] = true
		}
	}
	assert.True(t, seen[a])
	assert.True(t, seen[b])
}

func TestWatcherIgnoresOtherFiles(t *testing.T) {
	root := testutil.WriteTree(t, map[string]string{"workspace.yml": ""})
	changes := startWatcher(t, root)

	require.NoError(t, os.WriteFile(filepath.Join(root, "notes.txt"), []byte("x"), 0o600))
	sql := filepath.Join(root, "late.sql")
	require.NoError(t, os.WriteFile(sql, []byte("SELECT 1"), 0o600))

	for _, f := range waitChange(t, changes) {
		assert.NotEqual(t, filepath.Join(root, "notes.txt"), f)
	}
}

func TestWatcherFollowsNewDirectories(t *testing.T) {
	root := testutil.WriteTree(t, map[string]string{"workspace.yml": ""})
	changes := startWatcher(t, root)

	dir := filepath.Join(root, "shop")
	require.NoError(t, os.Mkdir(dir, 0o755))

	// the directory is registered asynchronously; retry the write until seen
	file := filepath.Join(dir, "sales.sql")
	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		require.NoError(t, os.WriteFile(file, []byte("SELECT 1"), 0o600))
		select {
		case c := <-changes:
			if slices.Contains(c, file) {
				return
			}
		case <-time.After(200 * time.Millisecond):
		}
	}
	t.Fatal("change in new directory not reported")
}

func TestRelevant(t *testing.T) {
	w := New(t.TempDir())
	assert.True(t, w.relevant(fsnotify.Event{Name: "a.sql", Op: fsnotify.Write}))
	assert.True(t, w.relevant(fsnotify.Event{Name: "catalog.YML", Op: fsnotify.Create}))
	assert.True(t, w.relevant(fsnotify.Event{Name: "old.sql", Op: fsnotify.Remove}))
	assert.False(t, w.relevant(fsnotify.Event{Name: "a.csv", Op: fsnotify.Write}))
	assert.False(t, w.relevant(fsnotify.Event{Name: "a.sql", Op: fsnotify.Chmod}))

	custom := New(t.TempDir(), WithExtensions(".csv"))
	assert.True(t, custom.relevant(fsnotify.Event{Name: "a.csv", Op: fsnotify.Write}))
}
