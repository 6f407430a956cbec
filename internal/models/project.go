package models

import (
	"sort"
	"time"
)

type Visibility string

const (
	VisibilityPrivate Visibility = "private"
	VisibilityPublic  Visibility = "public"
)

// Valid reports whether v is a known visibility.
func (v Visibility) Valid() bool {
	return v == VisibilityPrivate || v == VisibilityPublic
}

type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityMedium Priority = "medium"
	PriorityHigh   Priority = "high"
)

// Valid reports whether p is a known priority.
func (p Priority) Valid() bool {
	return p == PriorityLow || p == PriorityMedium || p == PriorityHigh
}

const DefaultProjectIcon = "🚀"

type Project struct {
	ID         uint64     `gorm:"primarykey" json:"id"`
	Name       string     `gorm:"type:varchar(255);not null" json:"name"`
	Slug       string     `gorm:"type:varchar(255);uniqueIndex;not null" json:"slug"`
	Icon       string     `gorm:"type:varchar(64);not null" json:"icon"`
	Visibility Visibility `gorm:"type:varchar(20);not null;default:'private';index" json:"visibility"`
	Subject    string     `gorm:"type:varchar(255)" json:"subject"`
	Deadline   *time.Time `json:"deadline"`
	Priority   Priority   `gorm:"type:varchar(20);not null;default:'medium'" json:"priority"`
	Links      []string   `gorm:"type:text;serializer:json" json:"links"`
	CreatedAt  time.Time  `json:"created_at"`
	UpdatedAt  time.Time  `json:"updated_at"`

	// Relations
	Members []ProjectMember `gorm:"foreignKey:ProjectID" json:"members,omitempty"`
}

// Owner returns the owning user's ID. Members must be loaded.
func (p *Project) Owner() (uint64, bool) {
	for _, m := range p.Members {
		if m.Role == RoleOwner {
			return m.UserID, true
		}
	}
	return 0, false
}

// Collaborators returns collaborator IDs in stored order. Members must be loaded.
func (p *Project) Collaborators() []uint64 {
	collaborators := make([]ProjectMember, 0, len(p.Members))
	for _, m := range p.Members {
		if m.Role == RoleCollaborator {
			collaborators = append(collaborators, m)
		}
	}
	sort.SliceStable(collaborators, func(i, j int) bool {
		return collaborators[i].Position < collaborators[j].Position
	})

	ids := make([]uint64, len(collaborators))
	for i, m := range collaborators {
		ids[i] = m.UserID
	}
	return ids
}

// RoleOf returns the role userID holds in the project, if any.
func (p *Project) RoleOf(userID uint64) (ProjectRole, bool) {
	for _, m := range p.Members {
		if m.UserID == userID {
			return m.Role, true
		}
	}
	return "", false
}
