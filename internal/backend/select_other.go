//go:build !windows

package backend

import (
	"github.com/rs/zerolog"

	"github.com/padiauj/glint/internal/backend/fallback"
)

// Select returns the recursive-directory fallback backend on platforms
// without an NTFS change journal.
func Select(log zerolog.Logger) Backend {
	return fallback.New(log)
}
