//go:build windows

package erase

import (
	"os"

	"golang.org/x/sys/windows"
)

func syncData(f *os.File) error {
	return windows.FlushFileBuffers(windows.Handle(f.Fd()))
}
