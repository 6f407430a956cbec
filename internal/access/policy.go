// Package access decides whether a caller may act on a project.
//
// The policy never loads anything: callers resolve the project (with its
// members) first, so a missing project is reported as not found rather than
// as a denial.
package access

import (
	"errors"

	"github.com/yukikurage/projecthub/internal/models"
)

// ErrDenied is returned by Require when the policy rejects the caller.
var ErrDenied = errors.New("access denied")

type Level int

const (
	Read Level = iota
	Write
	Admin
)

func (l Level) String() string {
	switch l {
	case Read:
		return "read"
	case Write:
		return "write"
	case Admin:
		return "admin"
	default:
		return "unknown"
	}
}

// Allowed evaluates the policy. Members must be loaded on p.
//
//   - read on a public project is open to everyone
//   - read and write otherwise require membership
//   - admin requires ownership
func Allowed(p *models.Project, callerID uint64, level Level) bool {
	role, member := p.RoleOf(callerID)

	switch level {
	case Read:
		return member || p.Visibility == models.VisibilityPublic
	case Write:
		return member
	case Admin:
		return member && role == models.RoleOwner
	default:
		return false
	}
}

// Require returns ErrDenied when Allowed is false.
func Require(p *models.Project, callerID uint64, level Level) error {
	if !Allowed(p, callerID, level) {
		return ErrDenied
	}
	return nil
}
