package images

import (
	"context"
	"sync"
)

// MemoryStore keeps images in process memory.
type MemoryStore struct {
	mu    sync.RWMutex
	blobs map[string]Image
}

// NewMemoryStore creates an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{blobs: make(map[string]Image)}
}

func (m *MemoryStore) Put(_ context.Context, key string, img Image) error {
	data := make([]byte, len(img.Data))
	copy(data, img.Data)

	m.mu.Lock()
	defer m.mu.Unlock()
	m.blobs[key] = Image{Data: data, ContentType: img.ContentType}
	return nil
}

func (m *MemoryStore) Get(_ context.Context, key string) (Image, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	img, ok := m.blobs[key]
	if !ok {
		return Image{}, ErrNotFound
	}
	return img, nil
}
