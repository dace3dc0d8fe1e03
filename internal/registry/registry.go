// Package registry records the physical locations of external tables.
// It maps fully qualified catalog.schema.table names to the file or
// directory a CREATE EXTERNAL TABLE statement points at, and resolves the
// shorter names queries use to refer to those tables.
package registry

import (
	"sort"
	"strings"
	"sync"
)

// Entry is the registered location of one external table.
type Entry struct {
	Name     string // catalog.schema.table, as resolved
	Location string // LOCATION as written
	Resolved string // absolute path or URL
	Glob     string // files the table reads, "<dir>/*" for directories
	FileType string // uppercased STORED AS format
}

// LocationRegistry maps qualified table names to their locations.
type LocationRegistry struct {
	mu sync.RWMutex

	// byName maps lower-cased qualified names: "shop.sales.orders" → entry
	byName map[string]Entry

	// byTable maps shorter lookups to qualified keys
	// Supports:
	//   "sales.orders" → "shop.sales.orders"
	//   "orders" → "shop.sales.orders"
	// Note: if several tables share a short name, the last registered wins
	byTable map[string]string
}

// NewLocationRegistry creates a new empty registry.
func NewLocationRegistry() *LocationRegistry {
	return &LocationRegistry{
		byName:  make(map[string]Entry),
		byTable: make(map[string]string),
	}
}

// Register adds or replaces the entry for e.Name. Keys are case-insensitive.
func (r *LocationRegistry) Register(e Entry) {
	key := strings.ToLower(e.Name)

	r.mu.Lock()
	defer r.mu.Unlock()

	r.byName[key] = e

	parts := strings.Split(key, ".")
	for i := 1; i < len(parts); i++ {
		r.byTable[strings.Join(parts[i:], ".")] = key
	}
}

// Get returns the entry registered under the qualified name.
func (r *LocationRegistry) Get(name string) (Entry, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	e, ok := r.byName[strings.ToLower(name)]
	return e, ok
}

// Resolve looks up a table reference that may be fully qualified,
// schema-qualified or bare.
func (r *LocationRegistry) Resolve(name string) (Entry, bool) {
	key := strings.ToLower(name)

	r.mu.RLock()
	defer r.mu.RUnlock()

	// 1. Exact qualified name
	if e, ok := r.byName[key]; ok {
		return e, true
	}

	// 2. Short name mapping
	if q, ok := r.byTable[key]; ok {
		return r.byName[q], true
	}

	return Entry{}, false
}

// All returns all entries sorted by name.
func (r *LocationRegistry) All() []Entry {
	r.mu.RLock()
	defer r.mu.RUnlock()

	entries := make([]Entry, 0, len(r.byName))
	for _, e := range r.byName {
		entries = append(entries, e)
	}
	sort.Slice(entries, func(i, j int) bool {
		return strings.ToLower(entries[i].Name) < strings.ToLower(entries[j].Name)
	})
	return entries
}

// Count returns the number of registered tables.
func (r *LocationRegistry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.byName)
}

// ResolveAll splits table references into those with a registered location
// and the rest. Both results are deduplicated.
func (r *LocationRegistry) ResolveAll(names []string) (external []Entry, unresolved []string) {
	seenExternal := make(map[string]struct{})
	seenOther := make(map[string]struct{})

	for _, name := range names {
		if e, ok := r.Resolve(name); ok {
			key := strings.ToLower(e.Name)
			if _, ok := seenExternal[key]; !ok {
				seenExternal[key] = struct{}{}
				external = append(external, e)
			}
			continue
		}
		if _, ok := seenOther[name]; !ok {
			seenOther[name] = struct{}{}
			unresolved = append(unresolved, name)
		}
	}
	return external, unresolved
}
