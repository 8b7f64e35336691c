// Package kv provides the synchronous key-value string stores conversation
// history is persisted into.
//
// Every implementation stores opaque string values under string keys. Callers
// decide what a failure means; the history layer treats read failures as "no
// data" and write failures as "write skipped".
package kv

import (
	"errors"
	"sync"
)

var (
	// ErrEmptyKey is returned when a store is asked for the empty key
	ErrEmptyKey = errors.New("key is required")

	// ErrInvalidKey is returned for keys a backend cannot represent
	ErrInvalidKey = errors.New("invalid key")
)

// Store is a synchronous key-value string store
type Store interface {
	// Get returns the value stored under key. found is false when the key
	// has never been written.
	Get(key string) (value string, found bool, err error)

	// Set overwrites the value stored under key
	Set(key, value string) error
}

// Memory is an in-process Store
type Memory struct {
	mu   sync.RWMutex
	data map[string]string
}

var _ Store = (*Memory)(nil)

// NewMemory creates an empty in-memory store
func NewMemory() *Memory {
	return &Memory{data: make(map[string]string)}
}

// Get implements Store
func (m *Memory) Get(key string) (string, bool, error) {
	if key == "" {
		return "", false, ErrEmptyKey
	}
	m.mu.RLock()
	defer m.mu.RUnlock()

	v, ok := m.data[key]
	return v, ok, nil
}

// Set implements Store
func (m *Memory) Set(key, value string) error {
	if key == "" {
		return ErrEmptyKey
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	m.data[key] = value
	return nil
}
