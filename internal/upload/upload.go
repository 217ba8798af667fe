// Package upload stores user-submitted images on the local filesystem and
// hands back the relative path persisted in the database.
package upload

import (
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"comuna-portal/internal/config"

	"github.com/google/uuid"
)

// ErrUnsupportedFormat is returned when the uploaded file's extension is
// not an accepted image format.
var ErrUnsupportedFormat = errors.New("unsupported image format")

// allowedExtensions is the accepted set of image file extensions.
var allowedExtensions = map[string]struct{}{
	"png":  {},
	"jpg":  {},
	"jpeg": {},
	"webp": {},
	"gif":  {},
}

// unsafeChars matches everything that is stripped from an original
// filename before it is stored.
var unsafeChars = regexp.MustCompile(`[^a-zA-Z0-9._-]+`)

// Saver writes uploaded images under a configured directory.
type Saver struct {
	dir       string
	urlPrefix string
}

// NewSaver creates a Saver for the configured upload directory.
func NewSaver(cfg config.UploadConfig) *Saver {
	return &Saver{dir: cfg.Dir, urlPrefix: cfg.URLPrefix}
}

// SaveImage validates and stores an uploaded image. It returns nil for an
// absent or empty file, ErrUnsupportedFormat (without writing anything)
// for a disallowed extension, and otherwise the path relative to the
// static root, e.g. "uploads/3f2a..._logo.png". The random prefix keeps
// concurrent uploads of identically named files from colliding.
func (s *Saver) SaveImage(file multipart.File, header *multipart.FileHeader) (*string, error) {
	if file == nil || header == nil || header.Filename == "" {
		return nil, nil
	}

	ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(header.Filename), "."))
	if _, ok := allowedExtensions[ext]; !ok {
		return nil, ErrUnsupportedFormat
	}

	name := sanitizeFilename(header.Filename)
	unique := fmt.Sprintf("%s_%s", strings.ReplaceAll(uuid.NewString(), "-", ""), name)

	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create upload directory: %w", err)
	}

	dst, err := os.Create(filepath.Join(s.dir, unique))
	if err != nil {
		return nil, fmt.Errorf("failed to create upload file: %w", err)
	}
	defer dst.Close()

	if _, err := io.Copy(dst, file); err != nil {
		return nil, fmt.Errorf("failed to write upload file: %w", err)
	}

	rel := s.urlPrefix + "/" + unique
	return &rel, nil
}

// sanitizeFilename reduces an uploaded filename to its base name and
// strips characters that could be used for directory traversal.
func sanitizeFilename(name string) string {
	base := filepath.Base(name)
	base = strings.ReplaceAll(base, " ", "_")
	base = unsafeChars.ReplaceAllString(base, "")
	base = strings.Trim(base, "._")
	if base == "" {
		base = "image"
	}
	return base
}
