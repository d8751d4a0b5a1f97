// Package blob owns the physical storage root: placement generation,
// offset-addressed chunk writes, and whole-file reads and writes.
package blob

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

// libraryDir is the subdirectory under the storage root that holds uploads.
const libraryDir = "filesLibrary"

// Placement is the physical location chosen for an upload, decoupled from its
// display name so unrelated uploads sharing a name never collide on disk.
type Placement struct {
	PhysicalPath     string
	RelativeLocation string
}

// Store performs file I/O under a fixed storage root.
type Store struct {
	root string
}

// NewStore creates a Store rooted at root, creating the library directory.
func NewStore(root string) (*Store, error) {
	if err := os.MkdirAll(filepath.Join(root, libraryDir), 0o755); err != nil {
		return nil, err
	}
	return &Store{root: root}, nil
}

// NewPlacement generates a randomized placement for originalName, keeping its
// extension. The relative location is slash-separated regardless of platform.
func (s *Store) NewPlacement(originalName string) Placement {
	ext := filepath.Ext(originalName)
	randomized := strings.ReplaceAll(uuid.New().String(), "-", "") + ext
	rel := filepath.Join(libraryDir, randomized)
	return Placement{
		PhysicalPath:     s.Physical(rel),
		RelativeLocation: filepath.ToSlash(rel),
	}
}

// Physical maps a relative location back to an absolute path under the root.
func (s *Store) Physical(relative string) string {
	return filepath.Join(s.root, filepath.FromSlash(relative))
}

// WriteAt writes data at offset in the file at physicalPath, creating the
// parent directory and the file as needed, without truncating existing bytes.
// Offsets are taken as-is from the caller; consistency with previously
// written ranges is not checked here.
func (s *Store) WriteAt(physicalPath string, offset int64, data []byte) error {
	if err := os.MkdirAll(filepath.Dir(physicalPath), 0o755); err != nil {
		return err
	}
	file, err := os.OpenFile(physicalPath, os.O_WRONLY|os.O_CREATE, 0o644)
	if err != nil {
		return err
	}
	defer file.Close()

	if _, err := file.WriteAt(data, offset); err != nil {
		return err
	}
	return file.Close()
}

// WriteFile stores data as the complete content of the file at physicalPath.
func (s *Store) WriteFile(physicalPath string, data []byte) (int64, error) {
	if err := os.MkdirAll(filepath.Dir(physicalPath), 0o755); err != nil {
		return 0, err
	}
	if err := os.WriteFile(physicalPath, data, 0o644); err != nil {
		return 0, err
	}
	return int64(len(data)), nil
}

// ReadFile returns the content of the file at the relative location.
func (s *Store) ReadFile(relative string) ([]byte, error) {
	return os.ReadFile(s.Physical(relative))
}

// Exists reports whether a regular file exists at the relative location.
func (s *Store) Exists(relative string) bool {
	info, err := os.Stat(s.Physical(relative))
	return err == nil && info.Mode().IsRegular()
}

// Remove deletes the file at the relative location. Removing an absent file
// is a no-op.
func (s *Store) Remove(relative string) error {
	err := os.Remove(s.Physical(relative))
	if err != nil && os.IsNotExist(err) {
		return nil
	}
	return err
}
