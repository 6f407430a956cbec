package dto

import (
	"time"

	"github.com/yukikurage/projecthub/internal/models"
	"github.com/yukikurage/projecthub/internal/services"
	"github.com/yukikurage/projecthub/internal/utils"
)

// UserDTO represents a user in API responses
type UserDTO struct {
	ID       uint64 `json:"id"`
	Username string `json:"username"`
	FullName string `json:"full_name"`
}

// ProfileDTO is the public profile served by username lookup
type ProfileDTO struct {
	UserDTO
	BirthMonth string `json:"birth_month"`
	BirthDay   string `json:"birth_day"`
	BirthYear  string `json:"birth_year"`
	Gender     string `json:"gender"`
}

// CurrentUserDTO includes the fields only the user themselves may see
type CurrentUserDTO struct {
	ProfileDTO
	Email         string           `json:"email"`
	SideMenuColor string           `json:"side_menu_color"`
	ThemeMode     models.ThemeMode `json:"theme_mode"`
}

// UserListResponse represents a page of user search results
type UserListResponse struct {
	Users      []UserDTO                `json:"users"`
	Pagination utils.PaginationResponse `json:"pagination"`
}

// ProjectDTO represents a project in API responses
type ProjectDTO struct {
	ID              uint64            `json:"id"`
	Name            string            `json:"name"`
	Slug            string            `json:"slug"`
	Icon            string            `json:"icon"`
	Visibility      models.Visibility `json:"visibility"`
	Subject         string            `json:"subject"`
	Deadline        *time.Time        `json:"deadline"`
	Priority        models.Priority   `json:"priority"`
	Links           []string          `json:"links"`
	OwnerID         uint64            `json:"owner_id"`
	CollaboratorIDs []uint64          `json:"collaborator_ids"`
	CreatedAt       time.Time         `json:"created_at"`
	UpdatedAt       time.Time         `json:"updated_at"`
}

// ProjectMemberDTO represents a member summary in project details
type ProjectMemberDTO struct {
	User     UserDTO            `json:"user"`
	Role     models.ProjectRole `json:"role"`
	JoinedAt time.Time          `json:"joined_at"`
}

// ProjectDetailDTO represents a project with populated members and the caller's role
type ProjectDetailDTO struct {
	ProjectDTO
	Members []ProjectMemberDTO `json:"members"`
	// YourRole is empty when the caller reads a public project they do not belong to.
	YourRole models.ProjectRole `json:"your_role,omitempty"`
}

// ReconcileResponse reports the collaborator changes applied
type ReconcileResponse struct {
	Project ProjectDTO `json:"project"`
	Added   []uint64   `json:"added"`
	Removed []uint64   `json:"removed"`
}

// LeaveResponse reports what happened to the project after leaving
type LeaveResponse struct {
	Outcome    models.LeaveOutcome `json:"outcome"`
	NewOwnerID uint64              `json:"new_owner_id,omitempty"`
	// Project is absent when the project was deleted.
	Project *ProjectDTO `json:"project,omitempty"`
}

// MemberRemovedResponse carries the project after a collaborator removal
type MemberRemovedResponse struct {
	Message string     `json:"message"`
	Project ProjectDTO `json:"project"`
}

// TaskDTO represents a task in API responses
type TaskDTO struct {
	ID        uint64          `json:"id"`
	ProjectID uint64          `json:"project_id"`
	CreatorID uint64          `json:"creator_id"`
	Name      string          `json:"name"`
	Completed bool            `json:"completed"`
	Priority  models.Priority `json:"priority"`
	Due       *time.Time      `json:"due"`
	Order     int             `json:"order"`
	CreatedAt time.Time       `json:"created_at"`
	UpdatedAt time.Time       `json:"updated_at"`
	Creator   *UserDTO        `json:"creator,omitempty"`
}

// SuggestedTaskDTO represents an AI task suggestion
type SuggestedTaskDTO struct {
	Name     string          `json:"name"`
	Priority models.Priority `json:"priority"`
	Due      *time.Time      `json:"due"`
}

// NoteDTO represents a project note
type NoteDTO struct {
	ID        uint64    `json:"id"`
	ProjectID uint64    `json:"project_id"`
	Content   string    `json:"content"`
	UpdatedAt time.Time `json:"updated_at"`
}

// BoardImageDTO represents an image pinned to a board
type BoardImageDTO struct {
	ID         uint64    `json:"id"`
	ProjectID  uint64    `json:"project_id"`
	URL        string    `json:"url"`
	PublicID   string    `json:"public_id"`
	UploadedBy uint64    `json:"uploaded_by"`
	CreatedAt  time.Time `json:"created_at"`
}

// ToUserDTO converts a user model to DTO
func ToUserDTO(user models.User) UserDTO {
	return UserDTO{
		ID:       user.ID,
		Username: user.Username,
		FullName: user.FullName,
	}
}

// ToProfileDTO converts a user to its public profile
func ToProfileDTO(user models.User) ProfileDTO {
	return ProfileDTO{
		UserDTO:    ToUserDTO(user),
		BirthMonth: user.BirthMonth,
		BirthDay:   user.BirthDay,
		BirthYear:  user.BirthYear,
		Gender:     user.Gender,
	}
}

// ToCurrentUserDTO converts the authenticated user to DTO
func ToCurrentUserDTO(user models.User) CurrentUserDTO {
	return CurrentUserDTO{
		ProfileDTO:    ToProfileDTO(user),
		Email:         user.Email,
		SideMenuColor: user.SideMenuColor,
		ThemeMode:     user.ThemeMode,
	}
}

// ToProjectDTO converts a project with loaded members to DTO
func ToProjectDTO(project models.Project) ProjectDTO {
	ownerID, _ := project.Owner()
	links := project.Links
	if links == nil {
		links = []string{}
	}

	return ProjectDTO{
		ID:              project.ID,
		Name:            project.Name,
		Slug:            project.Slug,
		Icon:            project.Icon,
		Visibility:      project.Visibility,
		Subject:         project.Subject,
		Deadline:        project.Deadline,
		Priority:        project.Priority,
		Links:           links,
		OwnerID:         ownerID,
		CollaboratorIDs: project.Collaborators(),
		CreatedAt:       project.CreatedAt,
		UpdatedAt:       project.UpdatedAt,
	}
}

// ToProjectDTOs converts a list of projects
func ToProjectDTOs(projects []models.Project) []ProjectDTO {
	out := make([]ProjectDTO, len(projects))
	for i, p := range projects {
		out[i] = ToProjectDTO(p)
	}
	return out
}

// ToProjectDetailDTO converts a project whose members have users loaded.
// The owner is listed first, then collaborators in stored order.
func ToProjectDetailDTO(project models.Project, callerID uint64) ProjectDetailDTO {
	byUser := make(map[uint64]models.ProjectMember, len(project.Members))
	for _, m := range project.Members {
		byUser[m.UserID] = m
	}

	members := make([]ProjectMemberDTO, 0, len(project.Members))
	order := project.Collaborators()
	if ownerID, ok := project.Owner(); ok {
		order = append([]uint64{ownerID}, order...)
	}
	for _, id := range order {
		m := byUser[id]
		members = append(members, ProjectMemberDTO{
			User:     ToUserDTO(m.User),
			Role:     m.Role,
			JoinedAt: m.JoinedAt,
		})
	}

	role, _ := project.RoleOf(callerID)
	return ProjectDetailDTO{
		ProjectDTO: ToProjectDTO(project),
		Members:    members,
		YourRole:   role,
	}
}

// ToTaskDTO converts a task model to DTO
func ToTaskDTO(task models.Task) TaskDTO {
	out := TaskDTO{
		ID:        task.ID,
		ProjectID: task.ProjectID,
		CreatorID: task.CreatorID,
		Name:      task.Name,
		Completed: task.Completed,
		Priority:  task.Priority,
		Due:       task.Due,
		Order:     task.Order,
		CreatedAt: task.CreatedAt,
		UpdatedAt: task.UpdatedAt,
	}
	if task.Creator.ID != 0 {
		creator := ToUserDTO(task.Creator)
		out.Creator = &creator
	}
	return out
}

// ToTaskDTOs converts a list of tasks
func ToTaskDTOs(tasks []models.Task) []TaskDTO {
	out := make([]TaskDTO, len(tasks))
	for i, task := range tasks {
		out[i] = ToTaskDTO(task)
	}
	return out
}

// ToSuggestedTaskDTOs converts AI suggestions
func ToSuggestedTaskDTOs(suggestions []services.SuggestedTask) []SuggestedTaskDTO {
	out := make([]SuggestedTaskDTO, len(suggestions))
	for i, s := range suggestions {
		out[i] = SuggestedTaskDTO{Name: s.Name, Priority: s.Priority, Due: s.Due}
	}
	return out
}

// ToNoteDTO converts a note model to DTO
func ToNoteDTO(note models.Note) NoteDTO {
	return NoteDTO{
		ID:        note.ID,
		ProjectID: note.ProjectID,
		Content:   note.Content,
		UpdatedAt: note.UpdatedAt,
	}
}

// ToBoardImageDTOs converts board images
func ToBoardImageDTOs(images []models.BoardImage) []BoardImageDTO {
	out := make([]BoardImageDTO, len(images))
	for i, image := range images {
		out[i] = ToBoardImageDTO(image)
	}
	return out
}

// ToBoardImageDTO converts a board image model to DTO
func ToBoardImageDTO(image models.BoardImage) BoardImageDTO {
	return BoardImageDTO{
		ID:         image.ID,
		ProjectID:  image.ProjectID,
		URL:        image.URL,
		PublicID:   image.PublicID,
		UploadedBy: image.UploadedBy,
		CreatedAt:  image.CreatedAt,
	}
}
