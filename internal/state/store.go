// Package state persists resolution runs in SQLite: the statements a run
// produced, where each was defined, and the external table locations it
// registered.
package state

import (
	"context"
	"time"

	"github.com/leapstack-labs/catalogsql/pkg/parser"
)

// RunStatus is the outcome of a run.
type RunStatus string

// Run statuses.
const (
	RunStatusRunning   RunStatus = "running"
	RunStatusCompleted RunStatus = "completed"
	RunStatusFailed    RunStatus = "failed"
)

// Run is one invocation of the resolver over a workspace.
type Run struct {
	ID          string
	Workspace   string
	Root        string
	Status      RunStatus
	StartedAt   time.Time
	CompletedAt *time.Time
	Error       string
}

// StatementRecord is a persisted statement with its metadata.
type StatementRecord struct {
	Seq  int
	Kind string
	SQL  string
	Meta parser.StatementMeta
}

// Store is the persistence interface used by the CLI.
type Store interface {
	Open(path string) error
	Close() error
	Migrate() error

	CreateRun(ctx context.Context, workspace, root string) (*Run, error)
	CompleteRun(ctx context.Context, id string, status RunStatus, errMsg string) error
	GetRun(ctx context.Context, id string) (*Run, error)
	LatestRun(ctx context.Context) (*Run, error)

	SaveStatements(ctx context.Context, runID string, parsed []parser.Parsed) error
	Statements(ctx context.Context, runID string) ([]StatementRecord, error)

	SaveLocations(ctx context.Context, runID string, locs []parser.Location) error
	Locations(ctx context.Context, runID string) ([]parser.Location, error)
}

var _ Store = (*SQLiteStore)(nil)
