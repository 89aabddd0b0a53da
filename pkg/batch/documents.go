package batch

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"unicode/utf8"
)

// Document is the raw text of one input file.
type Document struct {
	Name string
	Text string
}

// ListDocuments returns the paths of the regular files directly under dir,
// following symlinks, in lexical order. Subdirectories are not descended.
func ListDocuments(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to list input directory: %w", err)
	}

	paths := make([]string, 0, len(entries))
	for _, entry := range entries {
		path := filepath.Join(dir, entry.Name())
		info, err := os.Stat(path)
		if errors.Is(err, fs.ErrNotExist) {
			continue // dangling symlink
		}
		if err != nil {
			return nil, fmt.Errorf("failed to stat %q: %w", path, err)
		}
		if info.Mode().IsRegular() {
			paths = append(paths, path)
		}
	}
	return paths, nil
}

// ReadDocument reads a whole file, which must be valid UTF-8. Windows and
// old Mac line endings are turned into "\n".
func ReadDocument(path string) (Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Document{}, fmt.Errorf("failed to read document: %w", err)
	}
	if !utf8.Valid(data) {
		return Document{}, fmt.Errorf("document %q is not valid UTF-8", path)
	}
	return Document{Name: filepath.Base(path), Text: normalizeLineEndings(string(data))}, nil
}

func normalizeLineEndings(text string) string {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	return strings.ReplaceAll(text, "\r", "\n")
}
