// Package upload stores customer-submitted documents under a configured
// directory with sanitized, collision-resistant names.
package upload

import (
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-faster/errors"
)

// ErrNotFound is returned when a stored file reference has no file behind it.
var ErrNotFound = errors.New("file not found")

// Store writes and reads files under a single upload directory. Only the
// relative reference returned by Save is ever persisted.
type Store struct {
	dir string
	now func() time.Time
}

// NewStore creates the upload directory if needed and returns a Store over it.
func NewStore(dir string) (*Store, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, errors.Wrap(err, "create upload directory")
	}
	return &Store{dir: dir, now: time.Now}, nil
}

// Save writes the content under a name namespaced by kind and timestamp,
// derived from the sanitized original filename, and returns the relative
// reference. The file lands on disk before the caller commits any row
// pointing at it.
func (s *Store) Save(kind, filename string, content io.Reader) (string, error) {
	name := kind + "_" + s.now().Format("20060102_150405.000000000") + "_" + sanitize(filename)

	f, err := os.OpenFile(filepath.Join(s.dir, name), os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return "", errors.Wrap(err, "create upload file")
	}
	defer f.Close()

	if _, err := io.Copy(f, content); err != nil {
		return "", errors.Wrap(err, "write upload file")
	}
	return name, nil
}

// Open returns the file behind a stored reference. References containing
// path separators or traversal segments are rejected outright.
func (s *Store) Open(ref string) (*os.File, error) {
	if ref == "" || ref != filepath.Base(ref) || strings.HasPrefix(ref, ".") {
		return nil, ErrNotFound
	}
	f, err := os.Open(filepath.Join(s.dir, ref))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrNotFound
		}
		return nil, errors.Wrap(err, "open upload file")
	}
	return f, nil
}

// sanitize reduces an arbitrary client filename to a safe flat name: path
// components are dropped and anything outside [a-zA-Z0-9._-] becomes '_'.
func sanitize(filename string) string {
	base := filepath.Base(strings.ReplaceAll(filename, "\\", "/"))
	if base == "." || base == ".." || base == "/" || base == "" {
		return "upload"
	}
	var b strings.Builder
	for _, r := range base {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9',
			r == '.', r == '_', r == '-':
			b.WriteRune(r)
		default:
			b.WriteRune('_')
		}
	}
	out := strings.TrimLeft(b.String(), ".")
	if out == "" {
		return "upload"
	}
	return out
}
