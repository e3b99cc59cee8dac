package errors

import (
	"path/filepath"
	"strings"
	"unicode"
)

// Bounds for user-supplied rendering options.
const (
	MaxFPS        = 100  // GIF delays are hundredths of a second
	MaxResolution = 1200 // dots per inch
	MaxFigureSize = 40.0 // inches
)

// ValidatePath validates an input or output file path.
//
// Validation rules:
//   - Path cannot be empty
//   - Maximum length of 4096 characters
//   - No null bytes or control characters
func ValidatePath(path string) error {
	if path == "" {
		return New(ErrCodeInvalidConfig, "path cannot be empty")
	}

	const maxPathLength = 4096
	if len(path) > maxPathLength {
		return New(ErrCodeInvalidConfig, "path too long (max %d characters)", maxPathLength)
	}

	for _, r := range path {
		if r == '\x00' || unicode.IsControl(r) {
			return New(ErrCodeInvalidConfig, "path contains invalid characters")
		}
	}

	return nil
}

// ValidateOutputPath validates the animation destination.
// The artifact is always a GIF, so any other extension is rejected rather
// than silently producing a mislabelled file.
func ValidateOutputPath(path string) error {
	if err := ValidatePath(path); err != nil {
		return err
	}
	if strings.HasSuffix(path, string(filepath.Separator)) {
		return New(ErrCodeInvalidConfig, "output path %q is a directory", path)
	}
	if ext := strings.ToLower(filepath.Ext(path)); ext != ".gif" {
		return New(ErrCodeInvalidConfig, "output path %q must have a .gif extension", path)
	}
	return nil
}

// ValidateFPS checks the playback rate.
func ValidateFPS(fps int) error {
	if fps < 1 || fps > MaxFPS {
		return New(ErrCodeInvalidConfig, "fps must be between 1 and %d, got %d", MaxFPS, fps)
	}
	return nil
}

// ValidateResolution checks the raster density in dots per inch.
func ValidateResolution(dpi int) error {
	if dpi < 1 || dpi > MaxResolution {
		return New(ErrCodeInvalidConfig, "resolution must be between 1 and %d dpi, got %d", MaxResolution, dpi)
	}
	return nil
}

// ValidateFigureSize checks the square figure edge length in inches.
func ValidateFigureSize(inches float64) error {
	if !(inches > 0) || inches > MaxFigureSize {
		return New(ErrCodeInvalidConfig, "figure size must be in (0, %g] inches, got %g", MaxFigureSize, inches)
	}
	return nil
}
