package trash

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"trashshred/internal/logging"
)

// PathSource erases explicitly named files, and directory trees when
// Recursive is set.
type PathSource struct {
	Paths     []string
	Recursive bool
	logger    *logging.EnterpriseLogger
	scan      *scan
}

func NewPathSource(paths []string, recursive bool, logger *logging.EnterpriseLogger) *PathSource {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &PathSource{Paths: paths, Recursive: recursive, logger: logger}
}

func (s *PathSource) Name() string {
	return "paths"
}

// load resolves the arguments once. Missing paths are kept so that they are
// reported as failed jobs; directories without Recursive and special files
// are skipped with a warning.
func (s *PathSource) load(ctx context.Context) (*scan, error) {
	if s.scan != nil {
		return s.scan, nil
	}

	result := &scan{}
	seen := make(map[string]struct{})
	add := func(list *[]string, p string) {
		if _, ok := seen[p]; ok {
			return
		}
		seen[p] = struct{}{}
		*list = append(*list, p)
	}

	for _, arg := range s.Paths {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		p, err := filepath.Abs(arg)
		if err != nil {
			return nil, fmt.Errorf("invalid path %s: %w", arg, err)
		}

		info, err := os.Lstat(p)
		if err != nil {
			s.logger.Log("WARN", "Cannot stat path", "path", p, "error", err.Error())
			add(&result.files, p)
			continue
		}

		switch {
		case info.IsDir():
			if !s.Recursive {
				s.logger.Log("WARN", "Skipping directory, recursion disabled", "path", p)
				continue
			}
			tree, err := walk(ctx, p, true, s.logger)
			if err != nil {
				return nil, fmt.Errorf("cannot scan %s: %w", p, err)
			}
			for _, f := range tree.files {
				add(&result.files, f)
			}
			for _, d := range tree.dirs {
				add(&result.dirs, d)
			}
			if len(tree.links) > 0 {
				s.logger.Log("WARN", "Skipping symlinks", "path", p, "count", len(tree.links))
			}
		case isSpecialFile(info):
			s.logger.Log("WARN", "Skipping special file", "path", p, "mode", info.Mode().String())
		default:
			add(&result.files, p)
		}
	}

	SortDeepestFirst(result.dirs)
	s.scan = result
	return result, nil
}

func (s *PathSource) Files(ctx context.Context) ([]string, error) {
	sc, err := s.load(ctx)
	if err != nil {
		return nil, err
	}
	return sc.files, nil
}

func (s *PathSource) Dirs(ctx context.Context) ([]string, error) {
	sc, err := s.load(ctx)
	if err != nil {
		return nil, err
	}
	return sc.dirs, nil
}

// Finalize removes directories emptied by the run, named ones included.
func (s *PathSource) Finalize(ctx context.Context, erased []string) error {
	sc, err := s.load(ctx)
	if err != nil {
		return err
	}
	removed := RemoveEmptyDirs(sc.dirs, s.logger)
	s.logger.Log("DEBUG", "Directories removed", "count", removed, "erased_files", len(erased))
	return nil
}

func isSpecialFile(info fs.FileInfo) bool {
	mode := info.Mode()
	return mode&os.ModeSymlink != 0 ||
		mode&os.ModeNamedPipe != 0 ||
		mode&os.ModeSocket != 0 ||
		mode&os.ModeDevice != 0 ||
		mode&os.ModeCharDevice != 0
}
