package errors

import (
	"strings"
	"unicode"
)

// ValidatePattern validates a package pattern passed to the loader.
// It rejects patterns that could smuggle flags into the build system or
// contain control characters.
//
// The validation rules are intentionally conservative:
//   - No empty patterns
//   - No leading dash (would be parsed as a flag by the go command)
//   - No control characters or null bytes
//   - Maximum length of 256 characters
func ValidatePattern(pattern string) error {
	if pattern == "" {
		return New(ErrCodeInvalidInput, "package pattern cannot be empty")
	}

	if len(pattern) > 256 {
		return New(ErrCodeInvalidInput, "package pattern too long (max 256 characters)")
	}

	if strings.HasPrefix(pattern, "-") {
		return New(ErrCodeInvalidInput, "package pattern cannot start with '-': %q", pattern)
	}

	for _, r := range pattern {
		if unicode.IsControl(r) {
			return New(ErrCodeInvalidInput, "package pattern contains invalid control characters")
		}
	}

	return nil
}

// ValidatePath validates a local file path supplied on the command line.
//
// Validation rules:
//   - Path cannot be empty
//   - Maximum length of 500 characters
//   - No null bytes or control characters
func ValidatePath(path string) error {
	if path == "" {
		return New(ErrCodeInvalidPath, "path cannot be empty")
	}

	const maxPathLength = 500
	if len(path) > maxPathLength {
		return New(ErrCodeInvalidPath, "path too long (max %d characters)", maxPathLength)
	}

	for _, r := range path {
		if r == '\x00' || unicode.IsControl(r) {
			return New(ErrCodeInvalidPath, "path contains invalid characters")
		}
	}

	return nil
}

// ValidateURL validates a URL string for safety.
// It ensures the URL has a safe scheme (http or https).
func ValidateURL(rawURL string) error {
	if rawURL == "" {
		return New(ErrCodeInvalidInput, "URL cannot be empty")
	}

	// Simple scheme validation without full URL parsing
	if !strings.HasPrefix(rawURL, "http://") && !strings.HasPrefix(rawURL, "https://") {
		return New(ErrCodeInvalidInput, "URL must use http or https scheme")
	}

	return nil
}
