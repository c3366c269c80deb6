package vault_test

import (
	"context"
	"sync"
	"testing"

	"sessiond/internal/vault"
)

const testSecret = "unit-test-secret-0123456789"

type memoryMedium struct {
	mu      sync.Mutex
	entries map[string]string
}

func newMemoryMedium() *memoryMedium {
	return &memoryMedium{entries: map[string]string{}}
}

func (m *memoryMedium) Get(_ context.Context, key string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	value, ok := m.entries[key]
	if !ok {
		return "", vault.ErrNotFound
	}
	return value, nil
}

func (m *memoryMedium) Put(_ context.Context, key, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries[key] = value
	return nil
}

func (m *memoryMedium) Delete(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.entries, key)
	return nil
}

func (m *memoryMedium) keys() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	keys := make([]string, 0, len(m.entries))
	for key := range m.entries {
		keys = append(keys, key)
	}
	return keys
}

func (m *memoryMedium) corruptAll() {
	m.mu.Lock()
	defer m.mu.Unlock()
	for key := range m.entries {
		m.entries[key] = "not-a-ciphertext"
	}
}

func setupVault(t *testing.T) (*vault.Vault, *memoryMedium) {
	t.Helper()

	medium := newMemoryMedium()
	v, err := vault.New(vault.Config{Secret: testSecret}, medium)
	if err != nil {
		t.Fatalf("new vault: %v", err)
	}
	return v, medium
}
