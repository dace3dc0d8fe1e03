// Package workspace implements the on-disk conventions of a SQL workspace.
//
// A workspace is a directory tree whose root holds a workspace.yml file.
// Catalogs are directories marked by catalog.yml. Inside a catalog, a schema
// is described by <catalog>/<schema>.sql and a single table by
// <catalog>/<schema>/<table>.sql:
//
//	workspace.yml
//	shop/
//	    catalog.yml
//	    sales.sql           -- schema shop.sales
//	    sales/
//	        orders.sql      -- table shop.sales.orders
package workspace

import (
	"os"
	"path/filepath"
	"strings"
)

// Sentinel file names.
const (
	WorkspaceFile = "workspace.yml"
	CatalogFile   = "catalog.yml"
)

// SQLExt is the extension of workspace source files.
const SQLExt = ".sql"

// ObjectPath names a catalog, schema and table. Trailing parts may be empty.
type ObjectPath struct {
	Catalog string
	Schema  string
	Table   string
}

// FindRoot walks up from startDir to find a directory containing
// workspace.yml. Returns empty string if not found.
func FindRoot(startDir string) string {
	return findUp(startDir, WorkspaceFile, "")
}

// FindCatalogDir walks up from startDir to find a directory containing
// catalog.yml, without leaving root when root is set.
// Returns empty string if not found.
func FindCatalogDir(startDir, root string) string {
	return findUp(startDir, CatalogFile, root)
}

func findUp(startDir, sentinel, stop string) string {
	dir, err := filepath.Abs(startDir)
	if err != nil {
		return ""
	}
	if stop != "" {
		if stop, err = filepath.Abs(stop); err != nil {
			return ""
		}
	}

	for {
		if info, err := os.Stat(filepath.Join(dir, sentinel)); err == nil && !info.IsDir() {
			return dir
		}
		if dir == stop {
			return ""
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			// Reached filesystem root
			return ""
		}
		dir = parent
	}
}

// SchemaFile returns the path of the file describing catalog.schema.
func SchemaFile(root, catalog, schema string) string {
	return filepath.Join(root, catalog, schema+SQLExt)
}

// TableFile returns the path of the file describing catalog.schema.table.
func TableFile(root, catalog, schema, table string) string {
	return filepath.Join(root, catalog, schema, table+SQLExt)
}

// ScopeForFile infers the catalog, schema and table a source file describes
// from its place in the workspace:
//
//	<root>/<catalog>/<schema>.sql          -> catalog, schema
//	<root>/<catalog>/<schema>/<table>.sql  -> catalog, schema, table
//	<root>/<catalog>/...                   -> catalog
//
// The second result is false when filename is not inside root.
func ScopeForFile(root, filename string) (ObjectPath, bool) {
	absRoot, err := filepath.Abs(root)
	if err != nil {
		return ObjectPath{}, false
	}
	absFile, err := filepath.Abs(filename)
	if err != nil {
		return ObjectPath{}, false
	}
	rel, err := filepath.Rel(absRoot, absFile)
	if err != nil || rel == "." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) || rel == ".." {
		return ObjectPath{}, false
	}

	parts := strings.Split(filepath.ToSlash(rel), "/")
	last := len(parts) - 1
	parts[last] = StripExtension(parts[last], SQLExt)

	switch len(parts) {
	case 1:
		return ObjectPath{}, true
	case 2:
		return ObjectPath{Catalog: parts[0], Schema: parts[1]}, true
	case 3:
		return ObjectPath{Catalog: parts[0], Schema: parts[1], Table: parts[2]}, true
	default:
		return ObjectPath{Catalog: parts[0]}, true
	}
}
