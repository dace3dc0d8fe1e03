// Package deps tracks which source files pull in other source files through
// USE statements. It answers ordering questions (which files can be read
// first), change questions (which files see an edit) and finds USE cycles.
package deps

import (
	"fmt"
	"slices"
	"sort"
	"strings"
)

// Graph is a directed graph of source files. An edge runs from a used file
// to the file that uses it.
type Graph struct {
	files  map[string]struct{}
	usedBy map[string][]string // used file -> files that USE it
	uses   map[string][]string // file -> files it USEs
}

// NewGraph creates an empty graph.
func NewGraph() *Graph {
	return &Graph{
		files:  make(map[string]struct{}),
		usedBy: make(map[string][]string),
		uses:   make(map[string][]string),
	}
}

// FromUses builds a graph from a file -> used files map, as returned by
// parser.Session.Uses. Every path is passed through name first so callers
// can key the graph by workspace relative paths.
func FromUses(uses map[string][]string, name func(string) string) *Graph {
	if name == nil {
		name = func(s string) string { return s }
	}
	g := NewGraph()
	from := make([]string, 0, len(uses))
	for f := range uses {
		from = append(from, f)
	}
	sort.Strings(from)
	for _, f := range from {
		for _, to := range uses[f] {
			_ = g.AddUse(name(f), name(to))
		}
	}
	return g
}

// AddFile adds a file with no edges. Adding a known file is a no-op.
func (g *Graph) AddFile(id string) {
	if _, ok := g.files[id]; ok {
		return
	}
	g.files[id] = struct{}{}
	g.usedBy[id] = []string{}
	g.uses[id] = []string{}
}

// AddUse records that file from has a USE resolving to file to. Both files
// are added when missing.
func (g *Graph) AddUse(from, to string) error {
	if from == to {
		return fmt.Errorf("file %s uses itself", from)
	}
	g.AddFile(from)
	g.AddFile(to)
	if !slices.Contains(g.uses[from], to) {
		g.uses[from] = append(g.uses[from], to)
	}
	if !slices.Contains(g.usedBy[to], from) {
		g.usedBy[to] = append(g.usedBy[to], from)
	}
	return nil
}

// Has reports whether the file is in the graph.
func (g *Graph) Has(id string) bool {
	_, ok := g.files[id]
	return ok
}

// Uses returns the files id pulls in directly, sorted.
func (g *Graph) Uses(id string) []string {
	return sorted(g.uses[id])
}

// UsedBy returns the files that USE id directly, sorted.
func (g *Graph) UsedBy(id string) []string {
	return sorted(g.usedBy[id])
}

// Files returns every file in the graph, sorted.
func (g *Graph) Files() []string {
	out := make([]string, 0, len(g.files))
	for id := range g.files {
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}

// FileCount returns the number of files.
func (g *Graph) FileCount() int {
	return len(g.files)
}

// EdgeCount returns the number of distinct USE edges.
func (g *Graph) EdgeCount() int {
	n := 0
	for _, to := range g.uses {
		n += len(to)
	}
	return n
}

// Cycle returns one USE cycle as a path that starts and ends with the same
// file, or nil when the graph is acyclic. Files are walked in sorted order so
// the reported cycle is stable.
func (g *Graph) Cycle() []string {
	const (
		unvisited = iota
		active
		done
	)
	state := make(map[string]int, len(g.files))
	var stack []string
	var cycle []string

	var walk func(id string) bool
	walk = func(id string) bool {
		state[id] = active
		stack = append(stack, id)
		for _, next := range g.Uses(id) {
			switch state[next] {
			case active:
				i := slices.Index(stack, next)
				cycle = append(slices.Clone(stack[i:]), next)
				return true
			case unvisited:
				if walk(next) {
					return true
				}
			}
		}
		stack = stack[:len(stack)-1]
		state[id] = done
		return false
	}

	for _, id := range g.Files() {
		if state[id] == unvisited && walk(id) {
			return cycle
		}
	}
	return nil
}

// CycleError reports a USE cycle.
type CycleError struct {
	Path []string
}

func (e *CycleError) Error() string {
	return "USE cycle: " + strings.Join(e.Path, " -> ")
}

// Order returns the files with every used file before the files that use it.
func (g *Graph) Order() ([]string, error) {
	levels, err := g.Levels()
	if err != nil {
		return nil, err
	}
	var out []string
	for _, l := range levels {
		out = append(out, l...)
	}
	return out, nil
}

// Levels groups files by depth. Level 0 holds files that USE nothing; a file
// at level N only uses files from levels below N. Files in one level can be
// parsed concurrently.
func (g *Graph) Levels() ([][]string, error) {
	if c := g.Cycle(); c != nil {
		return nil, &CycleError{Path: c}
	}

	level := make(map[string]int, len(g.files))
	var depth func(id string) int
	depth = func(id string) int {
		if l, ok := level[id]; ok {
			return l
		}
		l := 0
		for _, dep := range g.uses[id] {
			if d := depth(dep) + 1; d > l {
				l = d
			}
		}
		level[id] = l
		return l
	}

	maxLevel := -1
	for id := range g.files {
		if l := depth(id); l > maxLevel {
			maxLevel = l
		}
	}

	levels := make([][]string, maxLevel+1)
	for id, l := range level {
		levels[l] = append(levels[l], id)
	}
	for i := range levels {
		sort.Strings(levels[i])
	}
	return levels, nil
}

// Affected returns the changed files plus every file that reaches one of them
// through USE, sorted. Unknown files are ignored.
func (g *Graph) Affected(changed []string) []string {
	seen := make(map[string]bool)
	var mark func(id string)
	mark = func(id string) {
		if seen[id] {
			return
		}
		seen[id] = true
		for _, user := range g.usedBy[id] {
			mark(user)
		}
	}
	for _, id := range changed {
		if g.Has(id) {
			mark(id)
		}
	}
	return keys(seen)
}

// Upstream returns every file id reaches through USE, excluding id itself
// unless it sits on a cycle.
func (g *Graph) Upstream(id string) []string {
	seen := make(map[string]bool)
	var mark func(id string)
	mark = func(id string) {
		for _, dep := range g.uses[id] {
			if !seen[dep] {
				seen[dep] = true
				mark(dep)
			}
		}
	}
	mark(id)
	return keys(seen)
}

// Roots returns files that USE nothing.
func (g *Graph) Roots() []string {
	var out []string
	for id := range g.files {
		if len(g.uses[id]) == 0 {
			out = append(out, id)
		}
	}
	sort.Strings(out)
	return out
}

// Leaves returns files no other file uses.
func (g *Graph) Leaves() []string {
	var out []string
	for id := range g.files {
		if len(g.usedBy[id]) == 0 {
			out = append(out, id)
		}
	}
	sort.Strings(out)
	return out
}

func sorted(s []string) []string {
	out := slices.Clone(s)
	sort.Strings(out)
	return out
}

func keys(m map[string]bool) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
