// Package kv persists namespaced blobs for the ibuddy services.
//
// Every backend speaks the same three operations: Load, Save and Clear. A
// namespace that was never written reads back as a miss (ok == false), never
// as an error. Backend failures are wrapped with ErrPersistence so callers can
// fall back to defaults without caring which backend produced them.
package kv

import (
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"
)

// Namespace names one independently persisted slot.
type Namespace string

const (
	// NamespaceTasks holds the task list.
	NamespaceTasks Namespace = "tasks"
	// NamespaceUser holds the profile, stats and achievements.
	NamespaceUser Namespace = "user"
	// NamespaceArena holds the arena settings, history and active session.
	NamespaceArena Namespace = "arena"
	// NamespaceLastSession holds the single-slot handoff to the results view.
	NamespaceLastSession Namespace = "last-session"
	// NamespaceTheme holds the theme preference.
	NamespaceTheme Namespace = "theme"
)

// Namespaces returns every namespace the application writes.
func Namespaces() []Namespace {
	return []Namespace{
		NamespaceTasks,
		NamespaceUser,
		NamespaceArena,
		NamespaceLastSession,
		NamespaceTheme,
	}
}

var (
	// ErrPersistence wraps every backend failure.
	ErrPersistence = errors.New("persistence error")
	// ErrMalformed indicates a stored blob could not be decoded.
	ErrMalformed = errors.New("malformed payload")
	// ErrInvalidNamespace indicates an empty or unsafe namespace.
	ErrInvalidNamespace = errors.New("invalid namespace")
	// ErrUnknownBackend indicates an unsupported storage backend name.
	ErrUnknownBackend = errors.New("unknown storage backend")
	// ErrClosed indicates the store was used after Close.
	ErrClosed = errors.New("store closed")
)

// Blobs is the read/write surface the services depend on.
type Blobs interface {
	Load(ns Namespace) ([]byte, bool, error)
	Save(ns Namespace, data []byte) error
	Clear(ns Namespace) error
}

// Store is a Blobs backend that owns resources.
type Store interface {
	Blobs
	Close() error
}

// Backend names a storage implementation.
type Backend string

const (
	BackendFile   Backend = "file"
	BackendBadger Backend = "badger"
	BackendSQLite Backend = "sqlite"
	BackendMemory Backend = "memory"
)

// ValidBackends returns all supported backends.
func ValidBackends() []Backend {
	return []Backend{BackendFile, BackendBadger, BackendSQLite, BackendMemory}
}

// IsValid returns true if the backend is supported.
func (b Backend) IsValid() bool {
	for _, valid := range ValidBackends() {
		if b == valid {
			return true
		}
	}
	return false
}

// Options configures Open.
type Options struct {
	Backend Backend
	// Dir is the state directory. File stores write one JSON file per
	// namespace there; badger and sqlite keep their database under it.
	Dir    string
	Logger *slog.Logger
}

// Open returns the backend selected by opts.
func Open(opts Options) (Store, error) {
	backend := opts.Backend
	if backend == "" {
		backend = BackendFile
	}
	if backend != BackendMemory && strings.TrimSpace(opts.Dir) == "" {
		return nil, fmt.Errorf("%w: state directory is required for %s backend", ErrPersistence, backend)
	}

	switch backend {
	case BackendFile:
		return NewFileStore(opts.Dir), nil
	case BackendBadger:
		return OpenBadger(BadgerConfig{
			Path:       filepath.Join(opts.Dir, "badger"),
			SyncWrites: true,
			Logger:     opts.Logger,
		})
	case BackendSQLite:
		return OpenSQLite(filepath.Join(opts.Dir, "ibuddy.db"))
	case BackendMemory:
		return NewMemStore(), nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownBackend, backend)
	}
}

func validateNamespace(ns Namespace) error {
	name := string(ns)
	if strings.TrimSpace(name) == "" {
		return fmt.Errorf("%w: empty", ErrInvalidNamespace)
	}
	if strings.ContainsAny(name, `/\`) || name == "." || name == ".." {
		return fmt.Errorf("%w: %q", ErrInvalidNamespace, name)
	}
	return nil
}

func persistenceError(op string, ns Namespace, err error) error {
	return fmt.Errorf("%w: %s %s: %w", ErrPersistence, op, ns, err)
}
