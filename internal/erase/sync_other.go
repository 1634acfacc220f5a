//go:build !linux && !windows

package erase

import "os"

func syncData(f *os.File) error {
	return f.Sync()
}
