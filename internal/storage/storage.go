// Package storage selects and initializes the blob backend for image content
package storage

import (
	"context"
	"io"
	"log"
	"time"

	"github.com/UnendingLoop/ArtShare/internal/storage/diskstorage"
	"github.com/UnendingLoop/ArtShare/internal/storage/miniostorage"
	"github.com/wb-go/wbf/config"
)

// ImageBlobStorage - общий контракт двух бекендов: минио и локальный диск
type ImageBlobStorage interface {
	Put(ctx context.Context, key string, size int64, contentType string, r io.Reader) (url string, err error)
	Delete(ctx context.Context, key string) error
}

const (
	BackendMinio = "minio"
	BackendDisk  = "disk"
)

func NewImgStorage(cfg *config.Config, delay time.Duration) ImageBlobStorage {
	backend := cfg.GetString("STORAGE_BACKEND")

	if backend == BackendDisk {
		strg, err := diskstorage.NewDiskStorage(cfg)
		if err != nil {
			log.Fatalf("Failed to init disk IMG-storage: %v", err)
		}
		log.Println("Using disk-backed IMG-storage:", strg.Dir())
		return strg
	}

	success := false
	var client *miniostorage.MinioImageStorage
	var err error

	for !success {
		log.Println("Connecting to IMG-storage...")
		client, err = miniostorage.NewMinioClient(cfg)
		if err != nil {
			log.Printf("Failed to init connection to IMG-storage: %v\nNext retry in %v...", err, delay)
			time.Sleep(delay)
			continue
		}
		log.Println("Successfully connected IMG-storage!")
		success = true
	}

	return client
}
