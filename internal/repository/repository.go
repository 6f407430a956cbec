package repository

import (
	"errors"

	"github.com/yukikurage/projecthub/internal/models"
	"github.com/yukikurage/projecthub/internal/utils"
)

var (
	// ErrNotMember is returned when a membership operation targets a non-member.
	ErrNotMember = errors.New("repository: user is not a project member")
	// ErrCreateProject is returned when inserting the project row fails.
	ErrCreateProject = errors.New("repository: create project failed")
	// ErrCreateMembership is returned when inserting a member or back-reference row fails.
	ErrCreateMembership = errors.New("repository: create membership failed")
	// ErrDeleteMembership is returned when removing a member or back-reference row fails.
	ErrDeleteMembership = errors.New("repository: delete membership failed")
)

// UserRepository defines the interface for user data access
type UserRepository interface {
	// Create creates a new user
	Create(user *models.User) error

	// FindByID finds a user by ID
	FindByID(id uint64) (*models.User, error)

	// FindByUsername finds a user by exact username
	FindByUsername(username string) (*models.User, error)

	// Update writes the named fields of user
	Update(user *models.User, fields ...string) error

	// FindByLogin finds a user whose username or email equals identifier
	FindByLogin(identifier string) (*models.User, error)

	// ExistsByUsername reports whether the username is taken
	ExistsByUsername(username string) (bool, error)

	// ExistsByEmail reports whether the email is taken
	ExistsByEmail(email string) (bool, error)

	// EmailTakenByOther reports whether another user than id holds email
	EmailTakenByOther(email string, id uint64) (bool, error)

	// FindExistingIDs returns the subset of ids that belong to existing users
	FindExistingIDs(ids []uint64) ([]uint64, error)

	// Search finds users whose username or full name contains query
	Search(query string, params utils.PaginationParams) ([]models.User, int64, error)
}

// ProjectRepository defines the interface for project and membership data access.
// Every method that touches memberships keeps project_members and user_projects
// in step within one transaction.
type ProjectRepository interface {
	// Create inserts the project, the owner and collaborator rows and their
	// back-references. project.Slug holds the base slug on entry and the
	// allocated slug on return. A lost slug race is reported as slug.ErrTaken.
	Create(project *models.Project, ownerID uint64, collaboratorIDs []uint64) error

	// FindByID finds a project with its members loaded
	FindByID(id uint64) (*models.Project, error)

	// FindBySlug finds a project with its members and their users loaded
	FindBySlug(slug string) (*models.Project, error)

	// ListByUser lists the projects of a user, most recently updated first
	ListByUser(userID uint64) ([]models.Project, error)

	// Update writes the named fields of project, including zero values
	Update(project *models.Project, fields ...string) error

	// ReconcileCollaborators makes the collaborator set equal to desired and
	// returns the ids added and removed
	ReconcileCollaborators(projectID uint64, desired []uint64) (added, removed []uint64, err error)

	// Leave removes userID from the project, transferring or deleting it when
	// the owner leaves
	Leave(projectID, userID uint64) (*LeaveResult, error)

	// RemoveCollaborator removes a collaborator; removed is false when userID
	// was not a collaborator
	RemoveCollaborator(projectID, userID uint64) (removed bool, err error)

	// Delete deletes a project and everything attached to it, returning the
	// board images whose media must be destroyed
	Delete(projectID uint64) ([]models.BoardImage, error)

	// CheckLedger reports every divergence between memberships and back-references
	CheckLedger() ([]LedgerIssue, error)
}

// LeaveResult is the outcome of a Leave call.
type LeaveResult struct {
	Outcome models.LeaveOutcome
	// NewOwnerID is set when ownership was transferred.
	NewOwnerID uint64
	// DeletedImages is set when the project was deleted.
	DeletedImages []models.BoardImage
}

// TaskRepository defines the interface for task data access
type TaskRepository interface {
	// Append creates a task positioned after every existing task of its project
	Append(task *models.Task) error

	// FindByID finds a task by ID with optional preloading
	FindByID(id uint64, preload ...string) (*models.Task, error)

	// ListByProject lists a project's tasks in display order
	ListByProject(projectID uint64) ([]models.Task, error)

	// Update writes the named fields of task, including zero values
	Update(task *models.Task, fields ...string) error

	// Delete deletes a task
	Delete(id uint64) error
}

// NoteRepository defines the interface for project note data access
type NoteRepository interface {
	// FindOrCreate returns the project's note, creating an empty one if needed
	FindOrCreate(projectID uint64) (*models.Note, error)

	// SaveContent replaces the content of the project's note
	SaveContent(projectID uint64, content string) (*models.Note, error)

	// FindByID finds a note by ID
	FindByID(id uint64) (*models.Note, error)

	// Delete deletes a note
	Delete(id uint64) error
}

// BoardRepository defines the interface for board image data access
type BoardRepository interface {
	// ListByProject lists a project's board images, oldest first
	ListByProject(projectID uint64) ([]models.BoardImage, error)

	// Create creates a board image reference
	Create(image *models.BoardImage) error

	// FindByID finds a board image by ID
	FindByID(id uint64) (*models.BoardImage, error)

	// Delete deletes a board image reference
	Delete(id uint64) error
}
