package uploads

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"

	"github.com/erazemk/lostfound/internal/imaging"
	"github.com/erazemk/lostfound/internal/model"
)

// AllowedExtensions lists the file extensions accepted for item photos.
var AllowedExtensions = map[string]bool{
	"png":  true,
	"jpg":  true,
	"jpeg": true,
	"gif":  true,
}

const maxStemLength = 64

// Dir stores item photos in a directory on disk.
type Dir struct {
	Path string
}

// New returns a Dir rooted at path, creating it if needed.
func New(path string) (*Dir, error) {
	if err := os.MkdirAll(path, 0o755); err != nil {
		return nil, fmt.Errorf("creating upload directory: %w", err)
	}
	return &Dir{Path: path}, nil
}

// Allowed reports whether filename has an accepted image extension.
func Allowed(filename string) bool {
	i := strings.LastIndex(filename, ".")
	if i < 0 {
		return false
	}
	return AllowedExtensions[strings.ToLower(filename[i+1:])]
}

// Sanitize reduces a client-supplied file name to a safe stem: directories
// are dropped, the extension is removed and only [A-Za-z0-9._-] is kept.
func Sanitize(filename string) string {
	filename = strings.ReplaceAll(filename, "\\", "/")
	if i := strings.LastIndex(filename, "/"); i >= 0 {
		filename = filename[i+1:]
	}
	if i := strings.LastIndex(filename, "."); i > 0 {
		filename = filename[:i]
	}

	var b strings.Builder
	for _, r := range filename {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_':
			b.WriteRune(r)
		case r == '.' || r == ' ':
			b.WriteRune('_')
		}
	}

	stem := strings.Trim(b.String(), "_")
	if len(stem) > maxStemLength {
		stem = stem[:maxStemLength]
	}
	if stem == "" {
		stem = "photo"
	}
	return stem
}

// Save processes an uploaded photo and writes it under the directory.
// It returns the stored file name.
func (d *Dir) Save(filename string, r io.Reader) (string, error) {
	if !Allowed(filename) {
		return "", model.NewValidationError("image", "must be a png, jpg, jpeg or gif file")
	}

	photo, err := imaging.Process(r)
	if err != nil {
		return "", model.NewValidationError("image", err.Error())
	}

	name := uuid.NewString() + "_" + Sanitize(filename) + ".jpg"
	if err := os.WriteFile(filepath.Join(d.Path, name), photo.Data, 0o644); err != nil {
		return "", fmt.Errorf("%w: writing photo: %v", model.ErrStorage, err)
	}

	log.WithFields(log.Fields{"file": name, "width": photo.Width, "height": photo.Height}).Info("Stored photo")
	return name, nil
}

// Resolve returns the on-disk path for a stored file name. Names that would
// escape the directory are rejected.
func (d *Dir) Resolve(name string) (string, error) {
	if name == "" || name != filepath.Base(name) || strings.HasPrefix(name, ".") || strings.ContainsAny(name, "/\\") {
		return "", model.ErrNotFound
	}
	return filepath.Join(d.Path, name), nil
}

// Remove deletes a stored file. A file that is already gone is not an
// error.
func (d *Dir) Remove(name string) error {
	path, err := d.Resolve(name)
	if err != nil {
		return fmt.Errorf("%w: invalid file name %q", model.ErrStorage, name)
	}
	if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("%w: removing %s: %v", model.ErrStorage, name, err)
	}
	return nil
}

// ServeHTTP serves GET /uploads/{filename}.
func (d *Dir) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	path, err := d.Resolve(r.PathValue("filename"))
	if err != nil {
		http.NotFound(w, r)
		return
	}

	info, err := os.Stat(path)
	if err != nil || info.IsDir() {
		http.NotFound(w, r)
		return
	}

	w.Header().Set("X-Content-Type-Options", "nosniff")
	w.Header().Set("Cache-Control", "public, max-age=86400")
	http.ServeFile(w, r, path)
}
