package trash

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"trashshred/internal/logging"
)

// Source enumerates files that should be erased and cleans up after them.
type Source interface {
	Name() string
	// Files returns the regular files to erase.
	Files(ctx context.Context) ([]string, error)
	// Dirs returns directories that may become empty, deepest first.
	Dirs(ctx context.Context) ([]string, error)
	// Finalize removes emptied directories and source bookkeeping once the
	// erased files are gone.
	Finalize(ctx context.Context, erased []string) error
}

type scan struct {
	files []string
	dirs  []string
	links []string
}

// walk collects regular files, directories and symlinks below root.
// Devices, pipes and sockets are skipped. A missing root yields an empty scan.
func walk(ctx context.Context, root string, includeRoot bool, logger *logging.EnterpriseLogger) (*scan, error) {
	s := &scan{}
	err := filepath.WalkDir(root, func(p string, d fs.DirEntry, err error) error {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		if err != nil {
			if p == root {
				return err
			}
			logger.Log("WARN", "Cannot read entry", "path", p, "error", err.Error())
			if d != nil && d.IsDir() {
				return fs.SkipDir
			}
			return nil
		}

		switch {
		case d.IsDir():
			if p != root || includeRoot {
				s.dirs = append(s.dirs, p)
			}
		case d.Type()&fs.ModeSymlink != 0:
			s.links = append(s.links, p)
		case d.Type().IsRegular():
			s.files = append(s.files, p)
		default:
			logger.Log("DEBUG", "Skipping special file", "path", p, "mode", d.Type().String())
		}
		return nil
	})
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return s, nil
		}
		return nil, err
	}

	SortDeepestFirst(s.dirs)
	return s, nil
}

// SortDeepestFirst orders directories so children come before their parents.
func SortDeepestFirst(dirs []string) {
	sort.SliceStable(dirs, func(i, j int) bool {
		return depth(dirs[i]) > depth(dirs[j])
	})
}

func depth(p string) int {
	return strings.Count(filepath.Clean(p), string(os.PathSeparator))
}

// RemoveEmptyDirs deletes every directory in dirs that is empty, deepest
// first, and returns how many were removed. Failures are logged only.
func RemoveEmptyDirs(dirs []string, logger *logging.EnterpriseLogger) int {
	if logger == nil {
		logger = logging.NewNop()
	}

	sorted := append([]string(nil), dirs...)
	SortDeepestFirst(sorted)

	removed := 0
	for _, dir := range sorted {
		entries, err := os.ReadDir(dir)
		if err != nil {
			if !errors.Is(err, fs.ErrNotExist) {
				logger.Log("WARN", "Cannot read directory", "path", dir, "error", err.Error())
			}
			continue
		}
		if len(entries) > 0 {
			logger.Log("DEBUG", "Directory not empty, keeping it", "path", dir, "entries", len(entries))
			continue
		}
		if err := os.Remove(dir); err != nil {
			logger.Log("WARN", "Cannot remove directory", "path", dir, "error", err.Error())
			continue
		}
		logger.Log("DEBUG", "Directory removed", "path", dir)
		removed++
	}
	return removed
}

// removeLinks unlinks symlinks without following them.
func removeLinks(links []string, logger *logging.EnterpriseLogger) int {
	failed := 0
	for _, link := range links {
		if err := os.Remove(link); err != nil && !errors.Is(err, fs.ErrNotExist) {
			logger.Log("WARN", "Cannot remove link", "path", link, "error", err.Error())
			failed++
		}
	}
	return failed
}
