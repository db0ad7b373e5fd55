package blobstore

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"sync"
)

// MemoryStore is an in-process Store. Tokens are content hashes.
type MemoryStore struct {
	mu       sync.Mutex
	blobs    map[string][]byte
	messages []string
}

// NewMemoryStore creates an empty in-memory store
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{blobs: make(map[string][]byte)}
}

func contentToken(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

// Read implements Store
func (m *MemoryStore) Read(_ context.Context, key string) ([]byte, string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	data, ok := m.blobs[key]
	if !ok {
		return nil, "", nil
	}
	out := make([]byte, len(data))
	copy(out, data)
	return out, contentToken(data), nil
}

// Write implements Store
func (m *MemoryStore) Write(_ context.Context, key string, value []byte, token, message string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	current, exists := m.blobs[key]
	switch {
	case token == "" && exists:
		return "", ErrConflict
	case token != "" && (!exists || contentToken(current) != token):
		return "", ErrConflict
	}

	stored := make([]byte, len(value))
	copy(stored, value)
	m.blobs[key] = stored
	m.messages = append(m.messages, message)

	return contentToken(stored), nil
}

// Messages returns the write messages in order
func (m *MemoryStore) Messages() []string {
	m.mu.Lock()
	defer m.mu.Unlock()

	return append([]string(nil), m.messages...)
}
