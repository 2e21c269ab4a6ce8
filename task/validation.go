package task

import (
	"errors"
	"fmt"

	"github.com/go-playground/validator/v10"
)

// MaxTitleLength is the longest accepted title, in characters.
const MaxTitleLength = 500

var (
	// ErrEmptyTitle is returned when a task title is empty.
	ErrEmptyTitle = errors.New("title cannot be empty")

	// ErrTitleTooLong is returned when a task title exceeds MaxTitleLength.
	ErrTitleTooLong = errors.New("title exceeds maximum length")

	// ErrEmptySubject is returned when a task has no subject.
	ErrEmptySubject = errors.New("subject cannot be empty")

	// ErrInvalidStatus is returned when an invalid status is provided.
	ErrInvalidStatus = errors.New("invalid status")

	// ErrInvalidPriority is returned when an invalid priority is provided.
	ErrInvalidPriority = errors.New("priority must be low, medium, or high")

	// ErrInvalidType is returned when an invalid task type is provided.
	ErrInvalidType = errors.New("invalid task type")

	// ErrInvalidTask is returned for any other field that fails validation.
	ErrInvalidTask = errors.New("invalid task")

	// ErrInvalidSortField is returned when an unknown sort key is requested.
	ErrInvalidSortField = errors.New("invalid sort field")

	// ErrInvalidSortOrder is returned when the order is neither asc nor desc.
	ErrInvalidSortOrder = errors.New("invalid sort order")

	// ErrTaskNotFound is returned when a task with the given ID doesn't exist.
	ErrTaskNotFound = errors.New("task not found")

	// ErrAmbiguousTaskIDPrefix is returned when an ID prefix matches multiple tasks.
	ErrAmbiguousTaskIDPrefix = errors.New("ambiguous task ID prefix")

	// ErrCompletionMismatch is returned when Completed disagrees with Status.
	ErrCompletionMismatch = errors.New("completed flag does not match status")

	// ErrCompletedAtMismatch is returned when CompletedAt disagrees with Status.
	ErrCompletedAtMismatch = errors.New("completed_at must be set exactly when completed")

	// ErrEmptyPatch is returned when an update changes nothing.
	ErrEmptyPatch = errors.New("no fields to update")
)

var validate = validator.New(validator.WithRequiredStructEnabled())

// ValidateTitle checks if the title is valid.
func ValidateTitle(title string) error {
	if title == "" {
		return ErrEmptyTitle
	}
	if n := len([]rune(title)); n > MaxTitleLength {
		return fmt.Errorf("%w: %d > %d", ErrTitleTooLong, n, MaxTitleLength)
	}
	return nil
}

// ValidateNewTask checks the fields of a task being created.
func ValidateNewTask(n *NewTask) error {
	return fieldError(validate.Struct(n))
}

// ValidateTask checks a stored task's fields and its completion invariants.
func ValidateTask(t *Task) error {
	if err := fieldError(validate.Struct(t)); err != nil {
		return err
	}
	if t.Completed != (t.Status == StatusCompleted) {
		return fmt.Errorf("%w: completed=%v status=%s", ErrCompletionMismatch, t.Completed, t.Status)
	}
	if (t.CompletedAt != nil) != t.Completed {
		return ErrCompletedAtMismatch
	}
	return nil
}

// fieldError maps the first validator failure to this package's sentinels.
func fieldError(err error) error {
	if err == nil {
		return nil
	}
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) || len(fieldErrs) == 0 {
		return fmt.Errorf("%w: %w", ErrInvalidTask, err)
	}
	fe := fieldErrs[0]
	switch fe.Field() {
	case "Title":
		if fe.Tag() == "required" {
			return ErrEmptyTitle
		}
		return fmt.Errorf("%w: max %d", ErrTitleTooLong, MaxTitleLength)
	case "Subject":
		if fe.Tag() == "required" {
			return ErrEmptySubject
		}
	case "Priority":
		return fmt.Errorf("%w: %q", ErrInvalidPriority, fe.Value())
	case "Status":
		return fmt.Errorf("%w: %q", ErrInvalidStatus, fe.Value())
	case "Type":
		return fmt.Errorf("%w: %q", ErrInvalidType, fe.Value())
	}
	return fmt.Errorf("%w: %s failed %s", ErrInvalidTask, fe.Namespace(), fe.Tag())
}
