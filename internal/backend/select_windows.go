//go:build windows

package backend

import (
	"github.com/rs/zerolog"

	"github.com/padiauj/glint/internal/backend/ntfs"
)

// Select returns the real NTFS USN-journal backend on Windows.
func Select(log zerolog.Logger) Backend {
	return ntfs.New()
}
