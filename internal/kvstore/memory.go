package kvstore

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/compliancecore/certextract/internal/interfaces"
)

// Memory is an in-process implementation of interfaces.KeyValueStorage,
// used in tests and in single-process deployments that don't need the
// durability badger.Store provides.
type Memory struct {
	mu   sync.RWMutex
	data map[string]interfaces.KeyValuePair
}

// NewMemory returns an empty in-memory key/value store.
func NewMemory() *Memory {
	return &Memory{data: make(map[string]interfaces.KeyValuePair)}
}

func (m *Memory) Get(ctx context.Context, key string) (string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	pair, ok := m.data[key]
	if !ok {
		return "", interfaces.ErrKeyNotFound
	}
	return pair.Value, nil
}

func (m *Memory) GetPair(ctx context.Context, key string) (*interfaces.KeyValuePair, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	pair, ok := m.data[key]
	if !ok {
		return nil, interfaces.ErrKeyNotFound
	}
	cp := pair
	return &cp, nil
}

func (m *Memory) Set(ctx context.Context, key string, value string, description string) error {
	_, err := m.Upsert(ctx, key, value, description)
	return err
}

func (m *Memory) Upsert(ctx context.Context, key string, value string, description string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	now := time.Now().UTC()
	existing, ok := m.data[key]
	created := now
	if ok {
		created = existing.CreatedAt
	}
	m.data[key] = interfaces.KeyValuePair{
		Key:         key,
		Value:       value,
		Description: description,
		CreatedAt:   created,
		UpdatedAt:   now,
	}
	return !ok, nil
}

func (m *Memory) Delete(ctx context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.data[key]; !ok {
		return interfaces.ErrKeyNotFound
	}
	delete(m.data, key)
	return nil
}

func (m *Memory) DeleteAll(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data = make(map[string]interfaces.KeyValuePair)
	return nil
}

func (m *Memory) List(ctx context.Context) ([]interfaces.KeyValuePair, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]interfaces.KeyValuePair, 0, len(m.data))
	for _, pair := range m.data {
		out = append(out, pair)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].UpdatedAt.After(out[j].UpdatedAt) })
	return out, nil
}

func (m *Memory) GetAll(ctx context.Context) (map[string]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make(map[string]string, len(m.data))
	for k, pair := range m.data {
		out[k] = pair.Value
	}
	return out, nil
}

func (m *Memory) ListByPrefix(ctx context.Context, prefix string) ([]interfaces.KeyValuePair, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []interfaces.KeyValuePair
	for k, pair := range m.data {
		if strings.HasPrefix(k, prefix) {
			out = append(out, pair)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].UpdatedAt.After(out[j].UpdatedAt) })
	return out, nil
}
