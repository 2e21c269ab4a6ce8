package task

import (
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/amonks/ibuddy/internal/ids"
	"github.com/amonks/ibuddy/internal/kv"
	"github.com/amonks/ibuddy/internal/logging"
)

// Options configures Open.
type Options struct {
	Logger *slog.Logger

	// Now returns the current time. Defaults to time.Now.
	Now func() time.Time

	// SeedDemo seeds DemoTasks when the namespace was never written.
	SeedDemo bool

	// OnPersistenceError is called when a load or save fails. The store keeps
	// working from memory either way.
	OnPersistenceError func(ns kv.Namespace, err error)
}

// Store owns the task list and its derived view.
type Store struct {
	blobs   kv.Blobs
	logger  *slog.Logger
	now     func() time.Time
	onError func(ns kv.Namespace, err error)

	mu      sync.Mutex
	tasks   []Task
	filters Filters
	sort    Sort
	view    []Task
}

// Open loads the task list from blobs.
// A missing or malformed payload yields an empty list (or the demo seed).
func Open(blobs kv.Blobs, opts Options) *Store {
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	s := &Store{
		blobs:   blobs,
		logger:  logging.OrDiscard(opts.Logger),
		now:     now,
		onError: opts.OnPersistenceError,
		sort:    DefaultSort(),
	}
	s.load(opts.SeedDemo)
	return s
}

func (s *Store) load(seedDemo bool) {
	var stored []Task
	ok, err := kv.LoadJSON(s.blobs, kv.NamespaceTasks, &stored)
	switch {
	case err != nil:
		s.reportError(err)
	case !ok && seedDemo:
		s.tasks = DemoTasks(s.now())
		s.persist()
	case ok:
		s.tasks = normalizeLoaded(stored, s.logger)
	}
	s.recompute()
}

// normalizeLoaded repairs legacy records and drops ones that cannot be repaired.
func normalizeLoaded(stored []Task, logger *slog.Logger) []Task {
	out := make([]Task, 0, len(stored))
	seen := make(map[string]bool, len(stored))
	for _, t := range stored {
		if t.Type == "" {
			t.Type = TypeOther
		}
		if t.Priority == "" {
			t.Priority = PriorityMedium
		}
		if t.Status == "" {
			t.Status = StatusPending
			if t.Completed {
				t.Status = StatusCompleted
			}
		}
		t.Completed = t.Status == StatusCompleted
		if t.Completed && t.CompletedAt == nil {
			completedAt := t.UpdatedAt
			t.CompletedAt = &completedAt
		}
		if !t.Completed {
			t.CompletedAt = nil
		}
		if t.ID == "" || seen[t.ID] {
			logger.Warn("drop stored task without unique id", "title", t.Title)
			continue
		}
		if err := ValidateTask(&t); err != nil {
			logger.Warn("drop invalid stored task", "id", t.ID, "error", err)
			continue
		}
		seen[t.ID] = true
		out = append(out, t)
	}
	return out
}

func (s *Store) reportError(err error) {
	s.logger.Warn("task persistence", "namespace", string(kv.NamespaceTasks), "error", err)
	if s.onError != nil {
		s.onError(kv.NamespaceTasks, err)
	}
}

// persist saves the list. Failures are reported, not returned: the in-memory
// list stays authoritative for the rest of the process.
func (s *Store) persist() {
	tasks := s.tasks
	if tasks == nil {
		tasks = []Task{}
	}
	if err := kv.SaveJSON(s.blobs, kv.NamespaceTasks, tasks); err != nil {
		s.reportError(err)
	}
}

// commit installs next as the task list, persists it, and refreshes the view.
func (s *Store) commit(next []Task) {
	s.tasks = next
	s.persist()
	s.recompute()
}

func (s *Store) recompute() {
	s.view = View(s.tasks, s.filters, s.sort)
}

func (s *Store) indexOf(id string) int {
	for i := range s.tasks {
		if s.tasks[i].ID == id {
			return i
		}
	}
	return -1
}

func (s *Store) taken(id string) bool {
	return s.indexOf(id) >= 0
}

// Resolve returns the full task ID for a unique prefix.
func (s *Store) Resolve(prefix string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	match, found, ambiguous := ids.MatchPrefix(s.idsLocked(), prefix)
	if !found {
		return "", fmt.Errorf("%w: %s", ErrTaskNotFound, prefix)
	}
	if ambiguous {
		return "", fmt.Errorf("%w: %s", ErrAmbiguousTaskIDPrefix, prefix)
	}
	return match, nil
}

// PrefixLengths returns the shortest unique prefix length for each task ID.
func (s *Store) PrefixLengths() map[string]int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return ids.UniquePrefixLengths(s.idsLocked())
}

func (s *Store) idsLocked() []string {
	out := make([]string, len(s.tasks))
	for i, t := range s.tasks {
		out[i] = t.ID
	}
	return out
}

func missingTaskError(id string) error {
	return fmt.Errorf("%w: %s", ErrTaskNotFound, id)
}

// IsNotFound reports whether err means a task ID did not resolve.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrTaskNotFound)
}
