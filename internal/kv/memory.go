package kv

import "sync"

// MemStore keeps blobs in memory. Used for tests and the "memory" backend.
type MemStore struct {
	mu     sync.Mutex
	blobs  map[Namespace][]byte
	closed bool
}

// NewMemStore creates an empty in-memory store.
func NewMemStore() *MemStore {
	return &MemStore{blobs: make(map[Namespace][]byte)}
}

// Load returns a copy of the blob for ns.
func (s *MemStore) Load(ns Namespace) ([]byte, bool, error) {
	if err := validateNamespace(ns); err != nil {
		return nil, false, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil, false, persistenceError("read", ns, ErrClosed)
	}
	data, ok := s.blobs[ns]
	if !ok {
		return nil, false, nil
	}
	return append([]byte(nil), data...), true, nil
}

// Save stores a copy of data under ns.
func (s *MemStore) Save(ns Namespace, data []byte) error {
	if err := validateNamespace(ns); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return persistenceError("write", ns, ErrClosed)
	}
	s.blobs[ns] = append([]byte(nil), data...)
	return nil
}

// Clear removes ns.
func (s *MemStore) Clear(ns Namespace) error {
	if err := validateNamespace(ns); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return persistenceError("remove", ns, ErrClosed)
	}
	delete(s.blobs, ns)
	return nil
}

// Close marks the store closed.
func (s *MemStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}
