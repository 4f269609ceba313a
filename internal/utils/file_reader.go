package utils

import (
	"os"
	"path/filepath"

	"github.com/toyz/ray/internal/errors"
)

// FileReader reads small files such as go.mod repeatedly during a run and
// caches their content until they change
type FileReader struct {
	contents *Cache[string, []byte]
}

// NewFileReader creates a new FileReader instance with caching
func NewFileReader() *FileReader {
	return &FileReader{contents: NewCache[string, []byte]()}
}

// ReadFile returns the content of path
func (fr *FileReader) ReadFile(path string) ([]byte, error) {
	clean := filepath.Clean(path)
	if cached, ok := fr.contents.Get(clean, clean); ok {
		return cached, nil
	}

	content, err := os.ReadFile(clean)
	if err != nil {
		return nil, errors.WrapFileSystemError("read", clean, err)
	}
	// A failed stat only means the next read misses the cache.
	_ = fr.contents.Set(clean, content, clean)
	return content, nil
}

// Exists reports whether path names a regular file
func (fr *FileReader) Exists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.Mode().IsRegular()
}

// Cached returns the number of files currently cached
func (fr *FileReader) Cached() int {
	return fr.contents.Len()
}
