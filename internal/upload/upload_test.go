//go:build unit

package upload

import (
	"bytes"
	"errors"
	"mime/multipart"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"comuna-portal/internal/config"
)

// fakeFile adapts a bytes.Reader to the multipart.File interface.
type fakeFile struct {
	*bytes.Reader
}

func (fakeFile) Close() error { return nil }

func newSaverForTest(t *testing.T) *Saver {
	t.Helper()
	return NewSaver(config.UploadConfig{Dir: t.TempDir(), URLPrefix: "uploads"})
}

func TestSaveImage_AbsentFileIsNotAnError(t *testing.T) {
	s := newSaverForTest(t)

	got, err := s.SaveImage(nil, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != nil {
		t.Errorf("want nil path for absent file; got %v", *got)
	}
}

func TestSaveImage_RejectsUnsupportedFormatWithoutWriting(t *testing.T) {
	dir := t.TempDir()
	s := NewSaver(config.UploadConfig{Dir: dir, URLPrefix: "uploads"})

	file := fakeFile{bytes.NewReader([]byte("not an image"))}
	header := &multipart.FileHeader{Filename: "malware.exe"}

	_, err := s.SaveImage(file, header)
	if !errors.Is(err, ErrUnsupportedFormat) {
		t.Fatalf("want ErrUnsupportedFormat; got %v", err)
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(entries) != 0 {
		t.Errorf("want empty upload dir after rejection; got %d entries", len(entries))
	}
}

func TestSaveImage_StoresFileAndReturnsRelativePath(t *testing.T) {
	dir := t.TempDir()
	s := NewSaver(config.UploadConfig{Dir: dir, URLPrefix: "uploads"})

	content := []byte("png bytes")
	file := fakeFile{bytes.NewReader(content)}
	header := &multipart.FileHeader{Filename: "mi logo.PNG"}

	got, err := s.SaveImage(file, header)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got == nil {
		t.Fatal("want stored path; got nil")
	}
	if !strings.HasPrefix(*got, "uploads/") {
		t.Errorf("want path under 'uploads/'; got %q", *got)
	}
	if !strings.HasSuffix(*got, "_mi_logo.PNG") {
		t.Errorf("want sanitized original name preserved; got %q", *got)
	}

	stored, err := os.ReadFile(filepath.Join(dir, strings.TrimPrefix(*got, "uploads/")))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !bytes.Equal(stored, content) {
		t.Error("stored content does not match the upload")
	}
}

func TestSaveImage_DistinctNamesForSameFilename(t *testing.T) {
	s := newSaverForTest(t)

	first, err := s.SaveImage(fakeFile{bytes.NewReader([]byte("a"))}, &multipart.FileHeader{Filename: "logo.png"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	second, err := s.SaveImage(fakeFile{bytes.NewReader([]byte("b"))}, &multipart.FileHeader{Filename: "logo.png"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if *first == *second {
		t.Errorf("want distinct stored names; both are %q", *first)
	}
}

func TestSanitizeFilename(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"logo.png", "logo.png"},
		{"mi logo.png", "mi_logo.png"},
		{"../../etc/passwd", "passwd"},
		{"año-ñuevo.jpg", "ao-uevo.jpg"},
		{"...", "image"},
	}
	for _, tt := range tests {
		if got := sanitizeFilename(tt.in); got != tt.want {
			t.Errorf("sanitizeFilename(%q) = %q; want %q", tt.in, got, tt.want)
		}
	}
}
