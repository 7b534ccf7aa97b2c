package engine

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
)

var vcsDirs = map[string]bool{
	".git": true, ".svn": true, ".hg": true, ".bzr": true, "CVS": true,
}

// CollectFiles expands a comma separated list of files and directories into
// the sorted, de-duplicated list of files to analyze.
func (e *Engine) CollectFiles(inputs string) ([]string, error) {
	seen := make(map[string]bool)
	var files []string
	add := func(path string) {
		if !seen[path] {
			seen[path] = true
			files = append(files, path)
		}
	}

	for _, input := range strings.Split(inputs, ",") {
		input = strings.TrimSpace(input)
		if input == "" {
			continue
		}
		abs, err := filepath.Abs(input)
		if err != nil {
			return nil, fmt.Errorf("failed to resolve input %q: %w", input, err)
		}
		info, err := os.Stat(abs)
		if err != nil {
			return nil, fmt.Errorf("failed to read input %q: %w", input, err)
		}
		if !info.IsDir() {
			if !e.excluded(filepath.Base(abs), abs) {
				add(abs)
			}
			continue
		}

		err = filepath.WalkDir(abs, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			rel, _ := filepath.Rel(abs, path)
			if d.IsDir() {
				if path != abs && (IsVCSDir(d.Name()) || e.excluded(rel, path)) {
					return filepath.SkipDir
				}
				return nil
			}
			if e.hasSuffix(path) && !e.excluded(rel, path) {
				add(path)
			}
			return nil
		})
		if err != nil {
			return nil, fmt.Errorf("failed to walk %q: %w", input, err)
		}
	}

	if len(files) == 0 {
		return nil, fmt.Errorf("%w in %q", ErrNoInput, inputs)
	}
	sort.Strings(files)
	return files, nil
}

func (e *Engine) hasSuffix(path string) bool {
	ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(path), "."))
	for _, s := range e.suffixes {
		if ext == s {
			return true
		}
	}
	return false
}

func (e *Engine) excluded(rel, abs string) bool {
	return Excluded(e.exclude, rel, abs)
}

// IsVCSDir reports whether name is a version control metadata directory.
func IsVCSDir(name string) bool { return vcsDirs[name] }

// Excluded matches every pattern against the path relative to the input root
// and the absolute path. A pattern also matches at any depth and covers
// everything below a matching directory.
func Excluded(patterns []string, rel, abs string) bool {
	rel = filepath.ToSlash(rel)
	abs = filepath.ToSlash(abs)
	for _, p := range patterns {
		p = strings.TrimSuffix(filepath.ToSlash(p), "/")
		if p == "" {
			continue
		}
		for _, candidate := range []string{p, "**/" + p, p + "/**", "**/" + p + "/**"} {
			if ok, _ := doublestar.Match(candidate, rel); ok {
				return true
			}
			if ok, _ := doublestar.Match(candidate, abs); ok {
				return true
			}
		}
	}
	return false
}
