package trash

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"trashshred/internal/logging"
)

const (
	trashInfoExt       = ".trashinfo"
	directorySizesFile = "directorysizes"
)

// FreedesktopTrash is the home trash of the XDG trash specification:
// deleted items live in files/, their metadata in info/<name>.trashinfo.
type FreedesktopTrash struct {
	Root   string
	logger *logging.EnterpriseLogger
	scan   *scan
}

// DefaultFreedesktopRoot returns $XDG_DATA_HOME/Trash, falling back to
// ~/.local/share/Trash.
func DefaultFreedesktopRoot() (string, error) {
	if dataHome := os.Getenv("XDG_DATA_HOME"); dataHome != "" {
		return filepath.Join(dataHome, "Trash"), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("cannot locate home directory: %w", err)
	}
	return filepath.Join(home, ".local", "share", "Trash"), nil
}

func NewFreedesktopTrash(root string, logger *logging.EnterpriseLogger) (*FreedesktopTrash, error) {
	if logger == nil {
		logger = logging.NewNop()
	}
	if root == "" {
		var err error
		if root, err = DefaultFreedesktopRoot(); err != nil {
			return nil, err
		}
	}
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("invalid trash root %s: %w", root, err)
	}
	return &FreedesktopTrash{Root: abs, logger: logger}, nil
}

func (t *FreedesktopTrash) Name() string {
	return "trash:" + t.Root
}

func (t *FreedesktopTrash) filesDir() string {
	return filepath.Join(t.Root, "files")
}

func (t *FreedesktopTrash) infoDir() string {
	return filepath.Join(t.Root, "info")
}

func (t *FreedesktopTrash) load(ctx context.Context) (*scan, error) {
	if t.scan != nil {
		return t.scan, nil
	}
	s, err := walk(ctx, t.filesDir(), false, t.logger)
	if err != nil {
		return nil, fmt.Errorf("cannot scan trash %s: %w", t.Root, err)
	}
	t.logger.Log("DEBUG", "Trash scanned", "root", t.Root, "files", len(s.files), "dirs", len(s.dirs), "links", len(s.links))
	t.scan = s
	return s, nil
}

func (t *FreedesktopTrash) Files(ctx context.Context) ([]string, error) {
	s, err := t.load(ctx)
	if err != nil {
		return nil, err
	}
	return s.files, nil
}

func (t *FreedesktopTrash) Dirs(ctx context.Context) ([]string, error) {
	s, err := t.load(ctx)
	if err != nil {
		return nil, err
	}
	return s.dirs, nil
}

// Finalize unlinks trashed symlinks, removes emptied directories, then drops
// the .trashinfo of every top-level entry that no longer exists along with
// the directorysizes cache.
func (t *FreedesktopTrash) Finalize(ctx context.Context, erased []string) error {
	s, err := t.load(ctx)
	if err != nil {
		return err
	}

	failed := removeLinks(s.links, t.logger)
	RemoveEmptyDirs(s.dirs, t.logger)

	candidates := make(map[string]struct{})
	for _, group := range [][]string{erased, s.links, s.dirs} {
		for _, p := range group {
			if name := t.topLevel(p); name != "" {
				candidates[name] = struct{}{}
			}
		}
	}

	for name := range candidates {
		if err := ctx.Err(); err != nil {
			return err
		}
		if _, err := os.Lstat(filepath.Join(t.filesDir(), name)); !errors.Is(err, fs.ErrNotExist) {
			continue
		}
		info := filepath.Join(t.infoDir(), name+trashInfoExt)
		if err := os.Remove(info); err != nil && !errors.Is(err, fs.ErrNotExist) {
			t.logger.Log("WARN", "Cannot remove trash info", "path", info, "error", err.Error())
			failed++
			continue
		}
		t.logger.Log("DEBUG", "Trash info removed", "path", info)
	}

	sizes := filepath.Join(t.Root, directorySizesFile)
	if err := os.Remove(sizes); err != nil && !errors.Is(err, fs.ErrNotExist) {
		t.logger.Log("WARN", "Cannot remove directory size cache", "path", sizes, "error", err.Error())
		failed++
	}

	if failed > 0 {
		return fmt.Errorf("%d trash entries could not be cleaned up", failed)
	}
	return nil
}

// topLevel returns the name of the entry directly under files/ that contains p.
func (t *FreedesktopTrash) topLevel(p string) string {
	rel, err := filepath.Rel(t.filesDir(), p)
	if err != nil || rel == "." || strings.HasPrefix(rel, "..") {
		return ""
	}
	return strings.Split(rel, string(os.PathSeparator))[0]
}
