package gpu

import (
	"log/slog"

	"github.com/gogpu/shaderpaper"
)

// slogger returns the current package logger.
// All logging in internal/gpu goes through this function.
func slogger() *slog.Logger { return shaderpaper.Logger() }
