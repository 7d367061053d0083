package blobstore

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"path"
	"strings"
	"sync"

	"github.com/google/uuid"
)

func bytesReader(b []byte) io.Reader {
	return bytes.NewReader(b)
}

// Disabled rejects uploads and ignores deletes.
type Disabled struct{}

func (Disabled) Upload(context.Context, io.Reader, string) (*Object, error) {
	return nil, ErrNotConfigured
}

func (Disabled) Destroy(context.Context, string) error {
	return nil
}

// MemoryStore keeps blobs in process. It backs tests and local runs.
type MemoryStore struct {
	BaseURL string

	mu        sync.Mutex
	objects   map[string][]byte
	destroyed []string
	// FailDestroy makes Destroy fail for the listed public ids.
	FailDestroy map[string]error
}

// NewMemoryStore creates an empty store serving URLs under baseURL.
func NewMemoryStore(baseURL string) *MemoryStore {
	return &MemoryStore{
		BaseURL:     strings.TrimRight(baseURL, "/"),
		objects:     make(map[string][]byte),
		FailDestroy: make(map[string]error),
	}
}

func (m *MemoryStore) Upload(_ context.Context, r io.Reader, filename string) (*Object, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	ext := strings.ToLower(strings.TrimPrefix(path.Ext(filename), "."))
	if ext == "" {
		ext = "jpg"
	}
	id := uuid.NewString()

	m.mu.Lock()
	m.objects[id] = data
	m.mu.Unlock()

	return &Object{
		URL:      fmt.Sprintf("%s/%s.%s", m.BaseURL, id, ext),
		PublicID: id,
		Format:   ext,
		Bytes:    len(data),
	}, nil
}

func (m *MemoryStore) Destroy(_ context.Context, publicID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.FailDestroy[publicID]; err != nil {
		return err
	}
	delete(m.objects, publicID)
	m.destroyed = append(m.destroyed, publicID)
	return nil
}

// Destroyed lists every public id passed to a successful Destroy.
func (m *MemoryStore) Destroyed() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.destroyed...)
}

// Len returns the number of stored blobs.
func (m *MemoryStore) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.objects)
}
