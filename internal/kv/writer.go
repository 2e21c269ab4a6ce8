package kv

import (
	"errors"
	"log/slog"
	"sync"
	"time"
)

// DefaultFlushInterval is how long the Writer lets snapshots coalesce.
const DefaultFlushInterval = 50 * time.Millisecond

// WriterOptions configures NewWriter.
type WriterOptions struct {
	Logger *slog.Logger
	// FlushInterval bounds how long a snapshot may wait before being written.
	FlushInterval time.Duration
	// OnError is called with every failed background write.
	OnError func(ns Namespace, err error)
}

// Writer queues snapshots and persists them in the background.
//
// A newer snapshot of a namespace replaces an older one that has not been
// written yet, so the last write always wins. Flushes are serialized: two
// snapshots of the same namespace are never written out of order. Loads go
// through the Writer so a read sees every earlier Save.
type Writer struct {
	store   Store
	logger  *slog.Logger
	onError func(ns Namespace, err error)

	mu      sync.Mutex
	pending map[Namespace]pendingWrite
	closed  bool

	flushMu sync.Mutex

	wake   chan struct{}
	stopCh chan struct{}
	doneCh chan struct{}
}

type pendingWrite struct {
	data  []byte
	clear bool
}

// NewWriter starts a Writer in front of store.
func NewWriter(store Store, opts WriterOptions) *Writer {
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	interval := opts.FlushInterval
	if interval <= 0 {
		interval = DefaultFlushInterval
	}
	w := &Writer{
		store:   store,
		logger:  logger,
		onError: opts.OnError,
		pending: make(map[Namespace]pendingWrite),
		wake:    make(chan struct{}, 1),
		stopCh:  make(chan struct{}),
		doneCh:  make(chan struct{}),
	}
	go w.run(interval)
	return w
}

func (w *Writer) run(interval time.Duration) {
	defer close(w.doneCh)
	for {
		select {
		case <-w.stopCh:
			return
		case <-w.wake:
		}
		timer := time.NewTimer(interval)
		select {
		case <-w.stopCh:
			timer.Stop()
			return
		case <-timer.C:
		}
		w.flush()
	}
}

// Save queues data for ns and returns immediately.
func (w *Writer) Save(ns Namespace, data []byte) error {
	if err := validateNamespace(ns); err != nil {
		return err
	}
	return w.enqueue(ns, pendingWrite{data: append([]byte(nil), data...)})
}

// Clear queues the removal of ns.
func (w *Writer) Clear(ns Namespace) error {
	if err := validateNamespace(ns); err != nil {
		return err
	}
	return w.enqueue(ns, pendingWrite{clear: true})
}

func (w *Writer) enqueue(ns Namespace, write pendingWrite) error {
	w.mu.Lock()
	if w.closed {
		w.mu.Unlock()
		return persistenceError("queue", ns, ErrClosed)
	}
	w.pending[ns] = write
	w.mu.Unlock()

	select {
	case w.wake <- struct{}{}:
	default:
	}
	return nil
}

// Load reads ns after writing out any pending snapshot.
func (w *Writer) Load(ns Namespace) ([]byte, bool, error) {
	if err := validateNamespace(ns); err != nil {
		return nil, false, err
	}
	w.flush()
	return w.store.Load(ns)
}

// Flush writes every pending snapshot and returns the joined errors.
func (w *Writer) Flush() error {
	return w.flush()
}

func (w *Writer) flush() error {
	w.flushMu.Lock()
	defer w.flushMu.Unlock()

	w.mu.Lock()
	batch := w.pending
	w.pending = make(map[Namespace]pendingWrite)
	w.mu.Unlock()

	var errs []error
	for ns, write := range batch {
		var err error
		if write.clear {
			err = w.store.Clear(ns)
		} else {
			err = w.store.Save(ns, write.data)
		}
		if err != nil {
			w.logger.Warn("persist snapshot", "namespace", string(ns), "error", err)
			if w.onError != nil {
				w.onError(ns, err)
			}
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Close stops the background loop, flushes, and closes the store.
func (w *Writer) Close() error {
	w.mu.Lock()
	if w.closed {
		w.mu.Unlock()
		return nil
	}
	w.closed = true
	w.mu.Unlock()

	close(w.stopCh)
	<-w.doneCh

	flushErr := w.flush()
	closeErr := w.store.Close()
	return errors.Join(flushErr, closeErr)
}
