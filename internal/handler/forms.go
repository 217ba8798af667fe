package handler

import (
	"mime/multipart"
	"net/http"
	"strconv"
	"strings"
	"time"

	"comuna-portal/internal/upload"
)

const dateLayout = "2006-01-02"

// optString returns a trimmed form value as a pointer, nil when empty.
func optString(r *http.Request, name string) *string {
	v := strings.TrimSpace(r.FormValue(name))
	if v == "" {
		return nil
	}
	return &v
}

// optDate parses an optional yyyy-mm-dd form value.
func optDate(r *http.Request, name string) *time.Time {
	v := strings.TrimSpace(r.FormValue(name))
	if v == "" {
		return nil
	}
	t, err := time.Parse(dateLayout, v)
	if err != nil {
		return nil
	}
	return &t
}

// optInt64 parses an optional integer form or query value.
func optInt64(v string) *int64 {
	v = strings.TrimSpace(v)
	if v == "" {
		return nil
	}
	n, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		return nil
	}
	return &n
}

// queryInt returns a query parameter as int, falling back to def.
func queryInt(r *http.Request, name string, def int) int {
	n, err := strconv.Atoi(r.URL.Query().Get(name))
	if err != nil || n < 1 {
		return def
	}
	return n
}

// formImage stores an optionally uploaded image and returns its relative
// path. A missing file yields (nil, nil); a disallowed extension yields
// upload.ErrUnsupportedFormat.
func formImage(r *http.Request, saver *upload.Saver, field string) (*string, error) {
	file, header, err := r.FormFile(field)
	if err != nil {
		if err == http.ErrMissingFile {
			return nil, nil
		}
		return nil, err
	}
	defer func(f multipart.File) { _ = f.Close() }(file)
	return saver.SaveImage(file, header)
}
