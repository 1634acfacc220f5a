//go:build !windows

package trash

import (
	"trashshred/internal/config"
	"trashshred/internal/logging"
)

// Default returns the freedesktop home trash, honouring trash.root.
func Default(cfg *config.Config, logger *logging.EnterpriseLogger) (Source, error) {
	return NewFreedesktopTrash(cfg.Trash.Root, logger)
}
