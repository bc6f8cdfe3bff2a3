package dataset

import (
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// collectFiles walks dir recursively, following symlinks into directories,
// and returns the full path of every file accepted by isValid. Directories
// are emitted in sorted order of their path strings and filenames are sorted
// within each directory, so the result is deterministic for a fixed tree.
// Unreadable directories are skipped silently. A symlink cycle under dir
// will loop forever; callers accept that risk.
func collectFiles(dir string, isValid func(path string) bool) []string {
	pending := []string{dir}
	filesByDir := make(map[string][]string)
	var visited []string

	for len(pending) > 0 {
		d := pending[0]
		pending = pending[1:]

		entries, err := os.ReadDir(d)
		if err != nil {
			continue
		}

		var names []string
		for _, entry := range entries {
			full := filepath.Join(d, entry.Name())
			if isTraversableDir(full, entry) {
				pending = append(pending, full)
				continue
			}
			names = append(names, entry.Name())
		}
		sort.Strings(names)

		visited = append(visited, d)
		filesByDir[d] = names
	}
	sort.Strings(visited)

	var files []string
	for _, d := range visited {
		for _, name := range filesByDir[d] {
			path := filepath.Join(d, name)
			if isValid(path) {
				files = append(files, path)
			}
		}
	}
	return files
}

// isTraversableDir reports whether entry is a directory or a symlink that
// resolves to one. Broken symlinks are treated as plain files.
func isTraversableDir(path string, entry os.DirEntry) bool {
	if entry.IsDir() {
		return true
	}
	if entry.Type()&os.ModeSymlink == 0 {
		return false
	}
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}

// expandUser replaces a leading ~ in path with the current user's home
// directory. Paths without the shorthand are returned unchanged.
func expandUser(path string) string {
	if path != "~" && !strings.HasPrefix(path, "~/") {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	if path == "~" {
		return home
	}
	return filepath.Join(home, path[2:])
}
