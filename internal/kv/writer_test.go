package kv

import (
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// recordingStore records every write in order.
type recordingStore struct {
	*MemStore
	mu     sync.Mutex
	writes []string
	fail   error
}

func newRecordingStore() *recordingStore {
	return &recordingStore{MemStore: NewMemStore()}
}

func (s *recordingStore) Save(ns Namespace, data []byte) error {
	s.mu.Lock()
	fail := s.fail
	s.writes = append(s.writes, fmt.Sprintf("%s=%s", ns, data))
	s.mu.Unlock()
	if fail != nil {
		return persistenceError("write", ns, fail)
	}
	return s.MemStore.Save(ns, data)
}

func (s *recordingStore) Writes() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.writes...)
}

func TestWriterLastWriteWins(t *testing.T) {
	store := newRecordingStore()
	w := NewWriter(store, WriterOptions{FlushInterval: time.Hour})
	defer w.Close()

	for i := 1; i <= 5; i++ {
		require.NoError(t, w.Save(NamespaceTasks, []byte(fmt.Sprint(i))))
	}

	data, ok, err := w.Load(NamespaceTasks)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "5", string(data))
	assert.Equal(t, []string{"tasks=5"}, store.Writes(), "older unflushed snapshots are coalesced")
}

func TestWriterPreservesOrderAcrossFlushes(t *testing.T) {
	store := newRecordingStore()
	w := NewWriter(store, WriterOptions{FlushInterval: time.Hour})
	defer w.Close()

	require.NoError(t, w.Save(NamespaceArena, []byte("a")))
	require.NoError(t, w.Flush())
	require.NoError(t, w.Save(NamespaceArena, []byte("b")))
	require.NoError(t, w.Flush())

	assert.Equal(t, []string{"arena=a", "arena=b"}, store.Writes())
	data, _, err := store.MemStore.Load(NamespaceArena)
	require.NoError(t, err)
	assert.Equal(t, "b", string(data))
}

func TestWriterBackgroundFlush(t *testing.T) {
	store := newRecordingStore()
	w := NewWriter(store, WriterOptions{FlushInterval: time.Millisecond})
	defer w.Close()

	require.NoError(t, w.Save(NamespaceTheme, []byte(`"dark"`)))

	require.Eventually(t, func() bool {
		_, ok, _ := store.MemStore.Load(NamespaceTheme)
		return ok
	}, 2*time.Second, 5*time.Millisecond)
}

func TestWriterClearDropsPendingSave(t *testing.T) {
	store := newRecordingStore()
	w := NewWriter(store, WriterOptions{FlushInterval: time.Hour})
	defer w.Close()

	require.NoError(t, w.Save(NamespaceLastSession, []byte("{}")))
	require.NoError(t, w.Clear(NamespaceLastSession))

	_, ok, err := w.Load(NamespaceLastSession)
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Empty(t, store.Writes())
}

func TestWriterReportsErrors(t *testing.T) {
	store := newRecordingStore()
	store.fail = errors.New("disk full")

	var mu sync.Mutex
	var failed []Namespace
	w := NewWriter(store, WriterOptions{
		FlushInterval: time.Hour,
		OnError: func(ns Namespace, err error) {
			mu.Lock()
			defer mu.Unlock()
			failed = append(failed, ns)
		},
	})

	require.NoError(t, w.Save(NamespaceUser, []byte("{}")))
	err := w.Flush()
	assert.ErrorIs(t, err, ErrPersistence)

	mu.Lock()
	assert.Equal(t, []Namespace{NamespaceUser}, failed)
	mu.Unlock()

	store.fail = nil
	require.NoError(t, w.Close())
}

func TestWriterCloseFlushes(t *testing.T) {
	store := newRecordingStore()
	w := NewWriter(store, WriterOptions{FlushInterval: time.Hour})

	require.NoError(t, w.Save(NamespaceUser, []byte("x")))
	require.NoError(t, w.Close())
	assert.Equal(t, []string{"user=x"}, store.Writes())

	err := w.Save(NamespaceUser, []byte("y"))
	assert.ErrorIs(t, err, ErrClosed)
	assert.NoError(t, w.Close(), "second close is a no-op")
}
