package parser

import (
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"github.com/leapstack-labs/catalogsql/internal/registry"
	"github.com/leapstack-labs/catalogsql/pkg/workspace"
)

// Location is the registered location of an external table.
type Location = registry.Entry

// Session holds the state shared by every parse that belongs to one
// resolution run: which files, catalogs and schemas have been visited, and
// where external tables live. A file is parsed at most once per session and
// each catalog and schema preamble is emitted at most once.
//
// A Session is safe for concurrent use; independent sessions never observe
// each other.
type Session struct {
	logger         *slog.Logger
	root           string
	defaultCatalog string
	defaultSchema  string
	remoteSchemes  []string
	exit           func(code int)

	filesMu sync.Mutex
	files   map[string]struct{}
	uses    map[string]map[string]struct{} // file -> files it USEs

	catalogsMu sync.Mutex
	catalogs   map[string]struct{}

	schemasMu sync.Mutex
	schemas   map[string]struct{}

	locations *registry.LocationRegistry
}

// Option configures a Session.
type Option func(*Session)

// WithLogger sets the session logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Session) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithRoot sets the workspace root used to resolve USE statements and
// external table locations. Without it the root is searched upward from each
// parsed file.
func WithRoot(root string) Option {
	return func(s *Session) { s.root = root }
}

// WithDefaults sets the catalog and schema of names parsed outside any
// catalog scope.
func WithDefaults(catalog, schema string) Option {
	return func(s *Session) {
		if catalog != "" {
			s.defaultCatalog = catalog
		}
		if schema != "" {
			s.defaultSchema = schema
		}
	}
}

// WithRemoteSchemes sets the URL schemes whose locations are not checked on
// the local filesystem.
func WithRemoteSchemes(schemes []string) Option {
	return func(s *Session) {
		if len(schemes) > 0 {
			s.remoteSchemes = schemes
		}
	}
}

// WithExitFunc replaces os.Exit, which is called when a source file cannot
// be read.
func WithExitFunc(exit func(code int)) Option {
	return func(s *Session) {
		if exit != nil {
			s.exit = exit
		}
	}
}

// NewSession creates an empty session.
func NewSession(opts ...Option) *Session {
	s := &Session{
		logger:         slog.New(slog.DiscardHandler),
		defaultCatalog: workspace.DefaultCatalog,
		defaultSchema:  workspace.DefaultSchema,
		remoteSchemes:  workspace.DefaultRemoteSchemes,
		exit:           os.Exit,
		files:          make(map[string]struct{}),
		uses:           make(map[string]map[string]struct{}),
		catalogs:       make(map[string]struct{}),
		schemas:        make(map[string]struct{}),
		locations:      registry.NewLocationRegistry(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Root returns the configured workspace root, if any.
func (s *Session) Root() string {
	return s.root
}

// Defaults returns the session's default catalog and schema.
func (s *Session) Defaults() (catalog, schema string) {
	return s.defaultCatalog, s.defaultSchema
}

// markFile records filename as visited. It returns false if it already was.
func (s *Session) markFile(filename string) bool {
	key := fileKey(filename)

	s.filesMu.Lock()
	defer s.filesMu.Unlock()
	if _, ok := s.files[key]; ok {
		return false
	}
	s.files[key] = struct{}{}
	return true
}

// markCatalog records catalog as visited. It returns false if it already was.
func (s *Session) markCatalog(catalog string) bool {
	s.catalogsMu.Lock()
	defer s.catalogsMu.Unlock()
	if _, ok := s.catalogs[catalog]; ok {
		return false
	}
	s.catalogs[catalog] = struct{}{}
	return true
}

// markSchema records catalog.schema as visited. It returns false if it
// already was.
func (s *Session) markSchema(catalog, schema string) bool {
	id := catalog + "." + schema

	s.schemasMu.Lock()
	defer s.schemasMu.Unlock()
	if _, ok := s.schemas[id]; ok {
		return false
	}
	s.schemas[id] = struct{}{}
	return true
}

// Visited reports whether filename has been visited in this session.
func (s *Session) Visited(filename string) bool {
	s.filesMu.Lock()
	defer s.filesMu.Unlock()
	_, ok := s.files[fileKey(filename)]
	return ok
}

// Visit marks a file, its catalog and its catalog.schema as visited without
// producing any preamble. Empty catalog or schema are not recorded.
func (s *Session) Visit(filename, catalog, schema string) {
	s.markFile(filename)
	if catalog == "" {
		return
	}
	s.markCatalog(catalog)
	if schema != "" {
		s.markSchema(catalog, schema)
	}
}

// Enter marks a top-level file as visited and returns the preamble that
// creates its catalog and schema if they have not been seen yet in this
// session. Pass the preamble to ParseFile.
func (s *Session) Enter(filename, catalog, schema string) string {
	s.markFile(filename)
	return s.preamble(catalog, schema)
}

// preamble returns the CREATE DATABASE and CREATE SCHEMA lines for a catalog
// and schema seen for the first time, marking them visited.
func (s *Session) preamble(catalog, schema string) string {
	if catalog == "" {
		return ""
	}
	var out string
	if s.markCatalog(catalog) {
		out += "CREATE DATABASE " + catalog + ";\n"
	}
	if schema != "" && s.markSchema(catalog, schema) {
		out += "CREATE SCHEMA " + catalog + "." + schema + ";\n"
	}
	return out
}

// registerLocation records the location of an external table. Later
// registrations of the same table overwrite earlier ones.
func (s *Session) registerLocation(loc Location) {
	s.locations.Register(loc)
	s.logger.Debug("registered external table location",
		slog.String("table", loc.Name),
		slog.String("glob", loc.Glob),
	)
}

// recordUse records that a USE in from resolved to the file to. Uses are
// recorded even when to was already visited.
func (s *Session) recordUse(from, to string) {
	from, to = fileKey(from), fileKey(to)
	if from == to {
		return
	}

	s.filesMu.Lock()
	defer s.filesMu.Unlock()
	if s.uses[from] == nil {
		s.uses[from] = make(map[string]struct{})
	}
	s.uses[from][to] = struct{}{}
}

// Uses returns, for every file holding a USE, the sorted files its USE
// statements resolved to. Paths are absolute.
func (s *Session) Uses() map[string][]string {
	s.filesMu.Lock()
	defer s.filesMu.Unlock()

	out := make(map[string][]string, len(s.uses))
	for from, targets := range s.uses {
		list := make([]string, 0, len(targets))
		for to := range targets {
			list = append(list, to)
		}
		sort.Strings(list)
		out[from] = list
	}
	return out
}

// Locations returns the external table locations registered so far, sorted
// by table name.
func (s *Session) Locations() []Location {
	return s.locations.All()
}

// LookupLocation resolves a possibly unqualified table reference to its
// registered location.
func (s *Session) LookupLocation(name string) (Location, bool) {
	return s.locations.Resolve(name)
}

func fileKey(filename string) string {
	if abs, err := filepath.Abs(filename); err == nil {
		return abs
	}
	return filepath.Clean(filename)
}
