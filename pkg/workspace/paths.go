package workspace

import "strings"

// Basename removes the directory part of a slash separated path.
func Basename(path string) string {
	if i := strings.LastIndexByte(path, '/'); i >= 0 {
		return path[i+1:]
	}
	return path
}

// Parent removes the last element of a slash separated path.
// Returns empty string if path has no directory part.
func Parent(path string) string {
	if i := strings.LastIndexByte(path, '/'); i >= 0 {
		return path[:i]
	}
	return ""
}

// Extension returns the text after the last '.', without the dot.
func Extension(path string) string {
	if i := strings.LastIndexByte(path, '.'); i >= 0 {
		return path[i+1:]
	}
	return ""
}

// StripExtension removes ext from the end of path if present.
func StripExtension(path, ext string) string {
	return strings.TrimSuffix(path, ext)
}

// SwapExtension replaces the oldExt suffix with newExt. If path does not
// end in oldExt, newExt is appended.
func SwapExtension(path, oldExt, newExt string) string {
	return strings.TrimSuffix(path, oldExt) + newExt
}
