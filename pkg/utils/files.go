package utils

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// MakeDir creates a directory with all parent directories
func MakeDir(path string) error {
	return os.MkdirAll(path, 0755)
}

// MoveFile moves or renames a file
func MoveFile(src, dst string) error {
	if err := os.Rename(src, dst); err != nil {
		return fmt.Errorf("failed to move file from %s to %s: %w", src, dst, err)
	}
	return nil
}

// WriteFileAtomic writes data to a sibling temp file and renames it over path.
func WriteFileAtomic(path string, data []byte) error {
	if err := MakeDir(filepath.Dir(path)); err != nil {
		return err
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return err
	}
	return MoveFile(tmp, path)
}

// ListStems returns the names of the regular files in dir that end in ext,
// with ext removed, sorted.
func ListStems(dir, ext string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}
	var stems []string
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ext) {
			continue
		}
		stems = append(stems, strings.TrimSuffix(e.Name(), ext))
	}
	sort.Strings(stems)
	return stems, nil
}

// TidySongFileName strips an artist prefix and the trailing " [..]" tag that
// download tools append, keeping the extension.
// "Artist - Song [abc123].mp3" with prefix "Artist - " becomes "Song.mp3".
func TidySongFileName(name, prefix string) string {
	ext := filepath.Ext(name)
	stem := strings.TrimSuffix(name, ext)
	if prefix != "" {
		stem = strings.TrimPrefix(stem, prefix)
	}
	if idx := strings.LastIndex(stem, "["); idx > 0 {
		stem = strings.TrimRight(stem[:idx], " ")
	}
	return stem + ext
}
