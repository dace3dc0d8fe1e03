package workspace

import (
	"os"
	"path/filepath"
	"slices"
	"strings"
)

// DefaultRemoteSchemes are the URL schemes whose locations are never checked
// on the local filesystem.
var DefaultRemoteSchemes = []string{"s3", "gs", "gcs", "az", "abfs", "abfss", "http", "https", "hdfs"}

// dataExtensions are the file extensions recognized as data files.
var dataExtensions = []string{
	"csv", "tsv", "txt", "json", "ndjson", "jsonl", "parquet", "avro", "orc",
	"gz", "bz2", "xz", "zst", "zstd",
}

// Scheme returns the lower-cased URL scheme of loc, or "" if it has none.
func Scheme(loc string) string {
	i := strings.Index(loc, "://")
	if i <= 0 {
		return ""
	}
	return strings.ToLower(loc[:i])
}

// IsRemote reports whether loc uses one of the given remote schemes.
func IsRemote(loc string, schemes []string) bool {
	scheme := Scheme(loc)
	if scheme == "" || scheme == "file" {
		return false
	}
	return slices.ContainsFunc(schemes, func(s string) bool {
		return strings.EqualFold(s, scheme)
	})
}

// Resolve returns the local path of loc: file:// URLs are stripped,
// absolute paths are cleaned, relative paths are joined to root.
func Resolve(root, loc string) string {
	if Scheme(loc) == "file" {
		loc = loc[len("file://"):]
	}
	if filepath.IsAbs(loc) {
		return filepath.Clean(loc)
	}
	return filepath.Join(root, loc)
}

// Exists reports whether the local location loc exists below root. Glob
// patterns exist when they match at least one path.
func Exists(root, loc string) bool {
	path := Resolve(root, loc)
	if hasGlobMeta(path) {
		matches, err := filepath.Glob(path)
		return err == nil && len(matches) > 0
	}
	_, err := os.Stat(path)
	return err == nil
}

// Glob normalizes a location to the pattern of files it denotes. A location
// that names a directory (no recognized data file extension) becomes
// "<dir>/*"; file names and patterns are returned unchanged.
func Glob(loc string) string {
	if hasGlobMeta(loc) {
		return loc
	}
	trimmed := strings.TrimRight(loc, "/")
	if trimmed == "" {
		return loc
	}
	ext := strings.ToLower(Extension(Basename(trimmed)))
	if slices.Contains(dataExtensions, ext) {
		return loc
	}
	return trimmed + "/*"
}

func hasGlobMeta(path string) bool {
	return strings.ContainsAny(path, "*?[")
}
