// Package files stores uploaded blobs on disk and hands back opaque
// descriptors. The workflow services treat storage as a collaborator: puts
// happen before the business transaction, removals are best-effort after it.
package files

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

// Descriptor describes one stored blob.
type Descriptor struct {
	StoredName   string
	RelativePath string
	Mime         string
	Size         int64
	Checksum     string // sha256, hex
}

// Store is the blob storage used by the workflows.
type Store interface {
	// Put writes data and returns its descriptor. originalName only influences
	// the stored name's suffix; it is never trusted as a path.
	Put(data []byte, mime, originalName string) (*Descriptor, error)
	// Remove deletes the blob at relativePath. Removing a missing blob is not an error.
	Remove(relativePath string) error
}

// DiskStore implements Store under a root directory.
type DiskStore struct {
	root string
}

// NewDiskStore returns a store rooted at dir, creating it if needed.
func NewDiskStore(dir string) (*DiskStore, error) {
	if dir == "" {
		return nil, errors.New("files: root directory is required")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	return &DiskStore{root: dir}, nil
}

// Put writes data under a random stored name and returns the descriptor.
func (s *DiskStore) Put(data []byte, mime, originalName string) (*Descriptor, error) {
	sum := sha256.Sum256(data)
	name := uuid.New().String()
	if ext := filepath.Ext(originalName); ext != "" && len(ext) <= 10 && !strings.ContainsAny(ext, "/\\") {
		name += ext
	}
	if err := os.WriteFile(filepath.Join(s.root, name), data, 0o644); err != nil {
		return nil, err
	}
	return &Descriptor{
		StoredName:   name,
		RelativePath: name,
		Mime:         mime,
		Size:         int64(len(data)),
		Checksum:     hex.EncodeToString(sum[:]),
	}, nil
}

// Remove deletes the blob at relativePath. Paths escaping the root are rejected.
func (s *DiskStore) Remove(relativePath string) error {
	clean := filepath.Clean(relativePath)
	if clean == "." || strings.HasPrefix(clean, "..") || filepath.IsAbs(clean) {
		return fmt.Errorf("files: invalid relative path %q", relativePath)
	}
	err := os.Remove(filepath.Join(s.root, clean))
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	return nil
}
