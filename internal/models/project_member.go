package models

import "time"

type ProjectRole string

const (
	RoleOwner        ProjectRole = "owner"
	RoleCollaborator ProjectRole = "collaborator"
)

// ProjectMember is one entry of a project's membership set. The composite key
// guarantees a user holds at most one role per project.
type ProjectMember struct {
	ProjectID uint64      `gorm:"primarykey;autoIncrement:false" json:"project_id"`
	UserID    uint64      `gorm:"primarykey;autoIncrement:false;index" json:"user_id"`
	Role      ProjectRole `gorm:"type:varchar(20);not null" json:"role"`
	// Position orders collaborators; the lowest position is promoted when the owner leaves.
	Position int       `gorm:"not null;default:0" json:"position"`
	JoinedAt time.Time `json:"joined_at"`

	// Relations
	User User `gorm:"foreignKey:UserID" json:"user,omitempty"`
}

// UserProject is the back-reference from a user to a project they belong to.
// It is written in the same transaction as the matching ProjectMember row.
type UserProject struct {
	UserID    uint64    `gorm:"primarykey;autoIncrement:false" json:"user_id"`
	ProjectID uint64    `gorm:"primarykey;autoIncrement:false;index" json:"project_id"`
	CreatedAt time.Time `json:"created_at"`
}

// LeaveOutcome describes what happened to a project when a member left it.
type LeaveOutcome string

const (
	LeaveOutcomeLeft        LeaveOutcome = "left"
	LeaveOutcomeTransferred LeaveOutcome = "transferred"
	LeaveOutcomeDeleted     LeaveOutcome = "deleted"
)
