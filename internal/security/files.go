package security

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"cipherchat/internal/domain"
	"cipherchat/internal/util/atomicfile"
)

// MaxKeyFileBytes bounds PEM files read from user-supplied paths.
const MaxKeyFileBytes = 10 * 1024

var dangerousPathParts = []string{"..", "~", "$", "|", ";", "&", "`"}

// ValidateFilePath rejects empty paths and paths containing traversal or
// shell metacharacters.
func ValidateFilePath(path string) error {
	if path == "" {
		return &domain.ValidationError{Field: "path", Reason: "must not be empty"}
	}
	for _, p := range dangerousPathParts {
		if strings.Contains(path, p) {
			return &domain.ValidationError{Field: "path", Reason: fmt.Sprintf("dangerous component %q", p)}
		}
	}
	return nil
}

// ReadFile validates path and reads at most maxSize bytes from it. Larger
// files are rejected rather than truncated.
func ReadFile(path string, maxSize int64) ([]byte, error) {
	if err := ValidateFilePath(path); err != nil {
		return nil, err
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	return ReadLimited(f, maxSize, "path")
}

// ReadLimited reads all of r, failing with a ValidationError on field when
// r holds more than maxSize bytes.
func ReadLimited(r io.Reader, maxSize int64, field string) ([]byte, error) {
	b, err := io.ReadAll(io.LimitReader(r, maxSize+1))
	if err != nil {
		return nil, err
	}
	if int64(len(b)) > maxSize {
		return nil, &domain.ValidationError{Field: field, Reason: fmt.Sprintf("input exceeds %d bytes", maxSize)}
	}
	return b, nil
}

// WriteFile validates path and writes content atomically with perm,
// creating the parent directory if needed.
func WriteFile(path string, content []byte, perm os.FileMode) error {
	if err := ValidateFilePath(path); err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	return atomicfile.Write(path, content, perm)
}
