//go:build windows

package trash

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/sys/windows"

	"trashshred/internal/config"
	"trashshred/internal/logging"
)

// RecycleBin is the current user's recycle bin on every drive:
// <drive>\$Recycle.Bin\<SID>. Both $I metadata and $R content files are erased.
type RecycleBin struct {
	Drives []string
	SID    string
	logger *logging.EnterpriseLogger
	scans  map[string]*scan
}

func NewRecycleBin(drives []string, logger *logging.EnterpriseLogger) (*RecycleBin, error) {
	if logger == nil {
		logger = logging.NewNop()
	}

	sid, err := currentUserSID()
	if err != nil {
		return nil, err
	}

	if len(drives) == 0 {
		if drives, err = logicalDrives(); err != nil {
			return nil, err
		}
	}

	return &RecycleBin{Drives: normalizeDrives(drives), SID: sid, logger: logger}, nil
}

// Default returns the recycle bin of the current user.
func Default(cfg *config.Config, logger *logging.EnterpriseLogger) (Source, error) {
	return NewRecycleBin(cfg.Trash.WindowsDrives, logger)
}

func currentUserSID() (string, error) {
	user, err := windows.GetCurrentProcessToken().GetTokenUser()
	if err != nil {
		return "", fmt.Errorf("cannot read process token user: %w", err)
	}
	return user.User.Sid.String(), nil
}

func logicalDrives() ([]string, error) {
	mask, err := windows.GetLogicalDrives()
	if err != nil {
		return nil, fmt.Errorf("cannot list logical drives: %w", err)
	}

	var drives []string
	for i := 0; i < 26; i++ {
		if mask&(1<<uint(i)) == 0 {
			continue
		}
		drive := string(rune('A'+i)) + ":"
		root, err := windows.UTF16PtrFromString(drive + `\`)
		if err != nil {
			continue
		}
		if windows.GetDriveType(root) != windows.DRIVE_FIXED {
			continue
		}
		drives = append(drives, drive)
	}
	return drives, nil
}

func normalizeDrives(drives []string) []string {
	out := make([]string, 0, len(drives))
	for _, d := range drives {
		d = strings.TrimRight(strings.ToUpper(strings.TrimSpace(d)), `\:`)
		if d != "" {
			out = append(out, d+":")
		}
	}
	return out
}

func (r *RecycleBin) Name() string {
	return "recycle-bin:" + strings.Join(r.Drives, ",")
}

func (r *RecycleBin) root(drive string) string {
	return filepath.Join(drive+`\`, "$Recycle.Bin", r.SID)
}

func (r *RecycleBin) load(ctx context.Context) error {
	if r.scans != nil {
		return nil
	}
	scans := make(map[string]*scan, len(r.Drives))
	for _, drive := range r.Drives {
		s, err := walk(ctx, r.root(drive), false, r.logger)
		if err != nil {
			if os.IsPermission(err) {
				r.logger.Log("WARN", "Recycle bin not accessible", "drive", drive, "error", err.Error())
				continue
			}
			return fmt.Errorf("cannot scan recycle bin on %s: %w", drive, err)
		}
		r.logger.Log("DEBUG", "Recycle bin scanned", "drive", drive, "files", len(s.files), "dirs", len(s.dirs))
		scans[drive] = s
	}
	r.scans = scans
	return nil
}

func (r *RecycleBin) Files(ctx context.Context) ([]string, error) {
	if err := r.load(ctx); err != nil {
		return nil, err
	}
	var files []string
	for _, drive := range r.Drives {
		if s, ok := r.scans[drive]; ok {
			files = append(files, s.files...)
		}
	}
	return files, nil
}

func (r *RecycleBin) Dirs(ctx context.Context) ([]string, error) {
	if err := r.load(ctx); err != nil {
		return nil, err
	}
	var dirs []string
	for _, drive := range r.Drives {
		if s, ok := r.scans[drive]; ok {
			dirs = append(dirs, s.dirs...)
		}
	}
	SortDeepestFirst(dirs)
	return dirs, nil
}

// Finalize unlinks reparse points left in the bin and removes emptied
// directories. The $I files were erased with the content.
func (r *RecycleBin) Finalize(ctx context.Context, erased []string) error {
	if err := r.load(ctx); err != nil {
		return err
	}
	failed := 0
	for _, s := range r.scans {
		failed += removeLinks(s.links, r.logger)
	}
	dirs, _ := r.Dirs(ctx)
	RemoveEmptyDirs(dirs, r.logger)

	if failed > 0 {
		return fmt.Errorf("%d recycle bin entries could not be removed", failed)
	}
	return nil
}
