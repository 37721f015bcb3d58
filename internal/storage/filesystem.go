package storage

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// FilesystemStore implements ObjectStore on a local directory served as
// static files under baseURL.
type FilesystemStore struct {
	root    string
	baseURL string
}

// NewFilesystemStore returns a store rooted at dir. baseURL is the public
// prefix the directory is served under (e.g. "http://host:8080/static").
func NewFilesystemStore(dir, baseURL string) (*FilesystemStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create storage root: %w", err)
	}
	return &FilesystemStore{root: dir, baseURL: strings.TrimRight(baseURL, "/")}, nil
}

// Root returns the directory objects are written to, for static file serving.
func (s *FilesystemStore) Root() string { return s.root }

// Upload writes the object under the store root. The path is cleaned and must
// stay inside the root.
func (s *FilesystemStore) Upload(ctx context.Context, path, contentType string, r io.Reader) error {
	full, err := s.resolve(path)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
		return fmt.Errorf("create object dir: %w", err)
	}
	tmp, err := os.CreateTemp(filepath.Dir(full), ".upload-*")
	if err != nil {
		return fmt.Errorf("create temp object: %w", err)
	}
	defer os.Remove(tmp.Name())
	if _, err := io.Copy(tmp, r); err != nil {
		tmp.Close()
		return fmt.Errorf("write object: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close object: %w", err)
	}
	// Rename so readers never observe a half-written object.
	if err := os.Rename(tmp.Name(), full); err != nil {
		return fmt.Errorf("publish object: %w", err)
	}
	return nil
}

// PublicURL returns the static URL for the object at path.
func (s *FilesystemStore) PublicURL(path string) string {
	return s.baseURL + "/" + strings.TrimLeft(filepath.ToSlash(path), "/")
}

func (s *FilesystemStore) resolve(path string) (string, error) {
	clean := filepath.Clean("/" + path)
	if clean == "/" {
		return "", fmt.Errorf("empty object path")
	}
	return filepath.Join(s.root, clean), nil
}
