package blob

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"chatmesh/pkg/logger"
)

// Local stores blobs as files under a directory and serves them under a
// public URL prefix (the HTTP layer mounts the directory read-only).
type Local struct {
	dir    string
	prefix string
}

// NewLocal creates the directory if needed and returns a disk-backed store.
func NewLocal(dir, publicPrefix string) (*Local, error) {
	if dir == "" {
		return nil, fmt.Errorf("empty media dir")
	}
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return nil, fmt.Errorf("failed to create media dir: %w", err)
	}
	if publicPrefix == "" {
		publicPrefix = "/media/"
	}
	if !strings.HasSuffix(publicPrefix, "/") {
		publicPrefix += "/"
	}
	return &Local{dir: dir, prefix: publicPrefix}, nil
}

// Dir returns the backing directory, for mounting as a file server.
func (l *Local) Dir() string { return l.dir }

func (l *Local) Save(name string, r io.Reader) (Stored, error) {
	ext := filepath.Ext(name)
	id := uuid.NewString() + ext
	path := filepath.Join(l.dir, id)
	f, err := os.OpenFile(path, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o640)
	if err != nil {
		return Stored{}, fmt.Errorf("failed to create blob file: %w", err)
	}
	if _, err := io.Copy(f, r); err != nil {
		_ = f.Close()
		_ = os.Remove(path)
		return Stored{}, fmt.Errorf("failed to write blob: %w", err)
	}
	if err := f.Close(); err != nil {
		return Stored{}, err
	}
	logger.Debug("blob_saved", "id", id)
	return Stored{URL: l.prefix + id, PublicID: id}, nil
}

func (l *Local) Delete(publicID string) error {
	// refuse anything that could escape the media dir
	if publicID == "" || strings.ContainsAny(publicID, "/\\") {
		return fmt.Errorf("invalid blob id")
	}
	err := os.Remove(filepath.Join(l.dir, publicID))
	if os.IsNotExist(err) {
		return nil
	}
	return err
}
