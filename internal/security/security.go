package security

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"trashshred/internal/logging"
)

// IsProtected reports whether path is a protected path or lies below one.
// A filesystem root only protects itself.
func IsProtected(path string, protected []string) bool {
	p := normalize(path)
	for _, entry := range protected {
		if entry == "" {
			continue
		}
		root := normalize(entry)
		if p == root {
			return true
		}
		if filepath.Dir(root) == root {
			continue
		}
		if strings.HasPrefix(p, root+string(os.PathSeparator)) {
			return true
		}
	}
	return false
}

func normalize(path string) string {
	if abs, err := filepath.Abs(path); err == nil {
		path = abs
	}
	path = filepath.Clean(path)
	if runtime.GOOS == "windows" {
		path = strings.ToLower(path)
	}
	return path
}

// FilterPaths drops every path that IsProtected rejects.
func FilterPaths(paths, protected []string, logger *logging.EnterpriseLogger) (allowed, rejected []string) {
	if logger == nil {
		logger = logging.NewNop()
	}
	for _, p := range paths {
		if IsProtected(p, protected) {
			logger.Log("WARN", "Refusing to erase protected path", "path", p)
			rejected = append(rejected, p)
			continue
		}
		allowed = append(allowed, p)
	}
	return allowed, rejected
}

const previewLimit = 10

// Confirm lists the files about to be erased and waits for "y" on in.
func Confirm(in io.Reader, out io.Writer, source string, files []string) bool {
	fmt.Fprintf(out, "WARNING: %d files from %s will be irrecoverably erased:\n", len(files), source)
	for i, f := range files {
		if i == previewLimit {
			fmt.Fprintf(out, "  ... and %d more\n", len(files)-previewLimit)
			break
		}
		fmt.Fprintf(out, "  %s\n", f)
	}
	fmt.Fprint(out, "Continue? (y/N): ")
	return readYes(in)
}

// ConfirmCleanup asks before removing empty folders and leftover entries
// when there are no files to erase.
func ConfirmCleanup(in io.Reader, out io.Writer, source string) bool {
	fmt.Fprintf(out, "Remove empty folders and leftover entries from %s? (y/N): ", source)
	return readYes(in)
}

func readYes(in io.Reader) bool {
	response, _ := bufio.NewReader(in).ReadString('\n')
	response = strings.ToLower(strings.TrimSpace(response))
	return response == "y" || response == "yes"
}
