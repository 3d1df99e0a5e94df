// Package storage is the object storage boundary for uploaded media.
package storage

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"
	"unicode"
)

// ErrInvalidObjectPath is returned for empty, absolute or escaping object paths.
var ErrInvalidObjectPath = errors.New("invalid object path")

// ObjectStore stores uploaded bytes and returns their public URL.
type ObjectStore interface {
	Upload(ctx context.Context, objectPath string, data []byte, contentType string) (string, error)
	Delete(ctx context.Context, objectPath string) error
}

// ObjectPath names a new object: <scope>/<unix millis>-<sanitized name>.
func ObjectPath(scope, filename string, now time.Time) string {
	return fmt.Sprintf("%s/%d-%s", strings.Trim(scope, "/"), now.UnixMilli(), SanitizeFilename(filename))
}

// SanitizeFilename keeps the base name's letters, digits, dots, dashes and
// underscores and replaces every other run with a single dash.
func SanitizeFilename(name string) string {
	name = filepath.Base(strings.ReplaceAll(name, "\\", "/"))
	var b strings.Builder
	dash := false
	for _, r := range name {
		if r < unicode.MaxASCII && (unicode.IsLetter(r) || unicode.IsDigit(r) || r == '.' || r == '_' || r == '-') {
			b.WriteRune(r)
			dash = false
			continue
		}
		if !dash && b.Len() > 0 {
			b.WriteByte('-')
			dash = true
		}
	}
	out := strings.Trim(b.String(), "-.")
	if out == "" {
		return "file"
	}
	return out
}

// CleanObjectPath normalizes p and rejects paths that leave the store root.
func CleanObjectPath(p string) (string, error) {
	p = strings.TrimSpace(p)
	if p == "" || strings.HasPrefix(p, "/") || strings.Contains(p, "\\") {
		return "", fmt.Errorf("%w: %q", ErrInvalidObjectPath, p)
	}
	cleaned := path.Clean(p)
	if cleaned == "." || cleaned == ".." || strings.HasPrefix(cleaned, "../") {
		return "", fmt.Errorf("%w: %q", ErrInvalidObjectPath, p)
	}
	return cleaned, nil
}

// LocalStore keeps objects on disk under root and serves them below baseURL.
type LocalStore struct {
	root    string
	baseURL string
}

// NewLocalStore creates a disk-backed store.
func NewLocalStore(root, baseURL string) *LocalStore {
	return &LocalStore{root: root, baseURL: strings.TrimRight(baseURL, "/")}
}

// Root returns the directory objects are written to.
func (s *LocalStore) Root() string {
	return s.root
}

func (s *LocalStore) Upload(ctx context.Context, objectPath string, data []byte, _ string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	cleaned, err := CleanObjectPath(objectPath)
	if err != nil {
		return "", err
	}
	if err := writeBytesToFile(filepath.Join(s.root, filepath.FromSlash(cleaned)), data); err != nil {
		return "", fmt.Errorf("write object %s: %w", cleaned, err)
	}
	return s.baseURL + "/" + cleaned, nil
}

// Delete removes an object. Deleting a missing object succeeds.
func (s *LocalStore) Delete(ctx context.Context, objectPath string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	cleaned, err := CleanObjectPath(objectPath)
	if err != nil {
		return err
	}
	err = os.Remove(filepath.Join(s.root, filepath.FromSlash(cleaned)))
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("delete object %s: %w", cleaned, err)
	}
	return nil
}

func writeBytesToFile(p string, data []byte) error {
	if err := os.MkdirAll(filepath.Dir(p), 0o750); err != nil {
		return err
	}
	return os.WriteFile(p, data, 0o600)
}
