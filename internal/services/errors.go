package services

import (
	"errors"

	"github.com/yukikurage/projecthub/internal/access"
)

// Category groups service errors by how a caller should react to them.
type Category int

const (
	CategoryInternal Category = iota
	CategoryInvalidInput
	CategoryNotFound
	CategoryAccessDenied
	CategoryConflict
	CategoryUnauthorized
	CategoryUnavailable
)

func (c Category) String() string {
	switch c {
	case CategoryInvalidInput:
		return "invalid_input"
	case CategoryNotFound:
		return "not_found"
	case CategoryAccessDenied:
		return "access_denied"
	case CategoryConflict:
		return "conflict"
	case CategoryUnauthorized:
		return "unauthorized"
	case CategoryUnavailable:
		return "unavailable"
	default:
		return "internal"
	}
}

// Error is a sentinel error tagged with its category. Compare with errors.Is.
type Error struct {
	category Category
	msg      string
}

func newError(category Category, msg string) *Error {
	return &Error{category: category, msg: msg}
}

func (e *Error) Error() string {
	return e.msg
}

// Category returns the error's category.
func (e *Error) Category() Category {
	return e.category
}

// CategoryOf classifies err. Anything unrecognised is internal.
func CategoryOf(err error) Category {
	var serviceErr *Error
	if errors.As(err, &serviceErr) {
		return serviceErr.category
	}
	if errors.Is(err, access.ErrDenied) {
		return CategoryAccessDenied
	}
	return CategoryInternal
}

var (
	ErrAccessDenied = newError(CategoryAccessDenied, "access denied")

	ErrProjectNotFound      = newError(CategoryNotFound, "project not found")
	ErrProjectNameRequired  = newError(CategoryInvalidInput, "project name is required")
	ErrInvalidVisibility    = newError(CategoryInvalidInput, "visibility must be private or public")
	ErrInvalidPriority      = newError(CategoryInvalidInput, "priority must be low, medium or high")
	ErrInvalidCollaborator  = newError(CategoryInvalidInput, "collaborator does not exist")
	ErrMembershipConflict   = newError(CategoryConflict, "membership was changed concurrently, retry")
	ErrSlugAllocationFailed = newError(CategoryInternal, "could not allocate a unique slug")

	ErrTaskNotFound     = newError(CategoryNotFound, "task not found")
	ErrTaskNameRequired = newError(CategoryInvalidInput, "task name is required")

	ErrNoteNotFound = newError(CategoryNotFound, "note not found")

	ErrBoardImageNotFound = newError(CategoryNotFound, "board image not found")
	ErrInvalidBoardImage  = newError(CategoryInvalidInput, "image url and public id are required")

	ErrUserNotFound       = newError(CategoryNotFound, "user not found")
	ErrUsernameRequired   = newError(CategoryInvalidInput, "username is required")
	ErrEmailRequired      = newError(CategoryInvalidInput, "email is required")
	ErrFullNameRequired   = newError(CategoryInvalidInput, "full name is required")
	ErrPasswordTooShort   = newError(CategoryInvalidInput, "password too short")
	ErrUsernameTaken      = newError(CategoryConflict, "username already exists")
	ErrEmailTaken         = newError(CategoryConflict, "email already exists")
	ErrInvalidCredentials = newError(CategoryUnauthorized, "invalid username, email or password")
	ErrInvalidThemeMode   = newError(CategoryInvalidInput, "theme mode must be light or dark")

	ErrAIServiceNotConfigured = newError(CategoryUnavailable, "AI service is not configured")
	ErrAITextRequired         = newError(CategoryInvalidInput, "text is required")
	ErrAINoTasksGenerated     = newError(CategoryInvalidInput, "AI did not suggest any tasks")
)
