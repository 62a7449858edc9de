package gcp

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"sync"

	"github.com/yungbote/cvextract/internal/pkg/dbctx"
	"github.com/yungbote/cvextract/internal/platform/logger"
)

type memoryBucketService struct {
	log     *logger.Logger
	cfg     ObjectStorageConfig
	mu      sync.RWMutex
	objects map[string][]byte
}

// NewMemoryBucketService keeps objects in memory. Bucket names default to the
// category name.
func NewMemoryBucketService(log *logger.Logger, cfg ObjectStorageConfig) BucketService {
	cfg.Mode = ObjectStorageModeMemory
	if cfg.DocumentBucket == "" {
		cfg.DocumentBucket = string(BucketCategoryDocument)
	}
	if cfg.ResponseBucket == "" {
		cfg.ResponseBucket = string(BucketCategoryResponse)
	}
	if cfg.TranscriptBucket == "" {
		cfg.TranscriptBucket = string(BucketCategoryTranscript)
	}
	return &memoryBucketService{
		log:     log.With("service", "MemoryBucketService"),
		cfg:     cfg,
		objects: map[string][]byte{},
	}
}

func (m *memoryBucketService) path(category BucketCategory, key string) (string, error) {
	name, err := m.cfg.bucketName(category)
	if err != nil {
		return "", err
	}
	return name + "/" + key, nil
}

func (m *memoryBucketService) BucketName(category BucketCategory) string {
	name, _ := m.cfg.bucketName(category)
	return name
}

func (m *memoryBucketService) UploadFile(dbc dbctx.Context, category BucketCategory, key string, file io.Reader) error {
	p, err := m.path(category, key)
	if err != nil {
		return err
	}
	data, err := io.ReadAll(file)
	if err != nil {
		return err
	}
	m.mu.Lock()
	m.objects[p] = data
	m.mu.Unlock()
	return nil
}

func (m *memoryBucketService) DownloadFile(ctx context.Context, category BucketCategory, key string) (io.ReadCloser, error) {
	p, err := m.path(category, key)
	if err != nil {
		return nil, err
	}
	m.mu.RLock()
	data, ok := m.objects[p]
	m.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%s: %w", p, ErrObjectNotFound)
	}
	return io.NopCloser(bytes.NewReader(data)), nil
}

func (m *memoryBucketService) DeleteFile(dbc dbctx.Context, category BucketCategory, key string) error {
	p, err := m.path(category, key)
	if err != nil {
		return err
	}
	m.mu.Lock()
	delete(m.objects, p)
	m.mu.Unlock()
	return nil
}
