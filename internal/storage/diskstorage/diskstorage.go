// Package diskstorage keeps image blobs on the local filesystem.
// Locators are relative ("/media/<key>") and get resolved to absolute
// URLs at response time by the feed assembler.
package diskstorage

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/wb-go/wbf/config"
)

const URLPrefix = "/media"

type DiskImageStorage struct {
	dir string
}

func NewDiskStorage(cfg *config.Config) (*DiskImageStorage, error) {
	dir := cfg.GetString("DISK_MEDIA_DIR")
	if dir == "" {
		dir = "./media"
		log.Printf("Media dir is empty. Using default value %q...", dir)
	}

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create media dir %q: %w", dir, err)
	}

	return &DiskImageStorage{dir: dir}, nil
}

// Dir - нужен main-у чтобы повесить Static-раздачу на каталог
func (s *DiskImageStorage) Dir() string {
	return s.dir
}

func (s *DiskImageStorage) Put(ctx context.Context, key string, size int64, contentType string, r io.Reader) (string, error) {
	if r == nil {
		return "", fmt.Errorf("nil reader passed to storage.Put")
	}
	if strings.Contains(key, "..") || strings.Contains(key, "/") {
		return "", fmt.Errorf("incorrect storage key %q", key)
	}

	path := filepath.Join(s.dir, key)
	f, err := os.Create(path)
	if err != nil {
		return "", err
	}

	if _, err := io.Copy(f, r); err != nil {
		if closeErr := f.Close(); closeErr != nil {
			log.Printf("Failed to close file %q after write error: %v", path, closeErr)
		}
		// не оставляем за собой полузаписанный файл
		if rmErr := os.Remove(path); rmErr != nil {
			log.Printf("Failed to remove partially written file %q: %v", path, rmErr)
		}
		return "", err
	}

	if err := f.Close(); err != nil {
		return "", err
	}

	return URLPrefix + "/" + key, nil
}

// Delete is idempotent: an already-absent file is not an error
func (s *DiskImageStorage) Delete(ctx context.Context, key string) error {
	path := filepath.Join(s.dir, key)

	err := os.Remove(path)
	switch {
	case err == nil:
		log.Printf("Deleted image blob %q from disk", path)
		return nil
	case os.IsNotExist(err):
		log.Printf("Image blob %q already absent on disk, nothing to delete", path)
		return nil
	default:
		return err
	}
}
