// Package archive packs a project's virtual file set into a zip file.
package archive

import (
	"archive/zip"
	"errors"
	"fmt"
	"io"
	"path"
	"sort"
	"strings"
	"time"
)

var (
	ErrEmptyProject = errors.New("project has no files")
	ErrInvalidPath  = errors.New("invalid file path")
)

const Filename = "project.zip"

// WriteZip writes one entry per file in name order. Names must be relative
// and stay inside the archive root.
func WriteZip(w io.Writer, files map[string]string, modified time.Time) error {
	if len(files) == 0 {
		return ErrEmptyProject
	}

	names := make([]string, 0, len(files))
	cleaned := make(map[string]string, len(files))
	for name, content := range files {
		clean, err := cleanName(name)
		if err != nil {
			return err
		}
		if _, dup := cleaned[clean]; dup {
			return fmt.Errorf("%w: %q appears twice", ErrInvalidPath, clean)
		}
		cleaned[clean] = content
		names = append(names, clean)
	}
	sort.Strings(names)

	zw := zip.NewWriter(w)
	for _, name := range names {
		entry, err := zw.CreateHeader(&zip.FileHeader{Name: name, Method: zip.Deflate, Modified: modified})
		if err != nil {
			return fmt.Errorf("failed to create zip entry %s: %w", name, err)
		}
		if _, err = io.WriteString(entry, cleaned[name]); err != nil {
			return fmt.Errorf("failed to write zip entry %s: %w", name, err)
		}
	}
	if err := zw.Close(); err != nil {
		return fmt.Errorf("failed to finish zip: %w", err)
	}
	return nil
}

func cleanName(name string) (string, error) {
	name = strings.ReplaceAll(strings.TrimSpace(name), "\\", "/")
	if name == "" || strings.HasPrefix(name, "/") || (len(name) > 1 && name[1] == ':') {
		return "", fmt.Errorf("%w: %q", ErrInvalidPath, name)
	}
	clean := path.Clean(name)
	if clean == "." || clean == ".." || strings.HasPrefix(clean, "../") {
		return "", fmt.Errorf("%w: %q", ErrInvalidPath, name)
	}
	return clean, nil
}
