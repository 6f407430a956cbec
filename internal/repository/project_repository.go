package repository

import (
	"errors"
	"fmt"
	"time"

	"github.com/yukikurage/projecthub/internal/database"
	"github.com/yukikurage/projecthub/internal/models"
	"github.com/yukikurage/projecthub/internal/slug"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormProjectRepository is a GORM implementation of ProjectRepository
type GormProjectRepository struct {
	db *gorm.DB
}

// NewProjectRepository creates a new ProjectRepository
func NewProjectRepository(db *gorm.DB) ProjectRepository {
	return &GormProjectRepository{db: db}
}

// Create inserts the project and its whole membership set atomically
func (r *GormProjectRepository) Create(project *models.Project, ownerID uint64, collaboratorIDs []uint64) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		allocated, err := firstFreeSlug(tx, project.Slug)
		if err != nil {
			return err
		}
		project.Slug = allocated

		if err := tx.Omit(clause.Associations).Create(project).Error; err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return fmt.Errorf("%w: %q: %v", slug.ErrTaken, allocated, err)
			}
			return fmt.Errorf("%w: %v", ErrCreateProject, err)
		}

		now := time.Now()
		members := make([]models.ProjectMember, 0, len(collaboratorIDs)+1)
		members = append(members, models.ProjectMember{
			ProjectID: project.ID,
			UserID:    ownerID,
			Role:      models.RoleOwner,
			JoinedAt:  now,
		})
		for i, id := range collaboratorIDs {
			members = append(members, models.ProjectMember{
				ProjectID: project.ID,
				UserID:    id,
				Role:      models.RoleCollaborator,
				Position:  i,
				JoinedAt:  now,
			})
		}

		if err := addMemberships(tx, members); err != nil {
			return err
		}

		project.Members = members
		return nil
	})
}

// firstFreeSlug loads every slug sharing base's prefix in one query and
// returns the first unused candidate.
func firstFreeSlug(tx *gorm.DB, base string) (string, error) {
	var existing []string
	if err := tx.Model(&models.Project{}).
		Where("slug = ? OR slug LIKE ?", base, base+"-%").
		Pluck("slug", &existing).Error; err != nil {
		return "", fmt.Errorf("failed to probe slug %q: %w", base, err)
	}

	taken := make(map[string]struct{}, len(existing))
	for _, s := range existing {
		taken[s] = struct{}{}
	}

	return slug.FirstFree(base, func(candidate string) bool {
		_, ok := taken[candidate]
		return ok
	}), nil
}

// FindByID finds a project with its members loaded
func (r *GormProjectRepository) FindByID(id uint64) (*models.Project, error) {
	var project models.Project
	if err := r.db.Preload("Members").First(&project, id).Error; err != nil {
		return nil, err
	}
	return &project, nil
}

// FindBySlug finds a project with members and their users loaded
func (r *GormProjectRepository) FindBySlug(s string) (*models.Project, error) {
	var project models.Project
	if err := r.db.Preload("Members.User").Where("slug = ?", s).First(&project).Error; err != nil {
		return nil, err
	}
	return &project, nil
}

// ListByUser lists a user's projects through the user_projects back-reference
func (r *GormProjectRepository) ListByUser(userID uint64) ([]models.Project, error) {
	var projects []models.Project
	err := r.db.Preload("Members").
		Joins("JOIN user_projects ON user_projects.project_id = projects.id").
		Where("user_projects.user_id = ?", userID).
		Order("projects.updated_at DESC").
		Order("projects.id DESC").
		Find(&projects).Error
	if err != nil {
		return nil, err
	}
	return projects, nil
}

// Update writes the named fields of project. Selecting the fields lets zero
// values such as a cleared deadline through.
func (r *GormProjectRepository) Update(project *models.Project, fields ...string) error {
	result := r.db.Model(project).Select(append(fields, "UpdatedAt")).Updates(project)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// ReconcileCollaborators diffs desired against the locked membership set.
// Retained collaborators keep their positions; added ones are appended in
// the order given. The current owner is never turned into a collaborator.
func (r *GormProjectRepository) ReconcileCollaborators(projectID uint64, desired []uint64) ([]uint64, []uint64, error) {
	var added, removed []uint64

	err := r.db.Transaction(func(tx *gorm.DB) error {
		project, err := lockProject(tx, projectID)
		if err != nil {
			return err
		}

		ownerID, _ := project.Owner()
		want := make(map[uint64]struct{}, len(desired))
		for _, id := range desired {
			if id != ownerID {
				want[id] = struct{}{}
			}
		}

		current := project.Collaborators()
		have := make(map[uint64]struct{}, len(current))
		for _, id := range current {
			have[id] = struct{}{}
			if _, ok := want[id]; !ok {
				removed = append(removed, id)
			}
		}

		next := nextPosition(project)
		now := time.Now()
		var rows []models.ProjectMember
		for _, id := range desired {
			if id == ownerID {
				continue
			}
			if _, ok := have[id]; ok {
				continue
			}
			have[id] = struct{}{}
			added = append(added, id)
			rows = append(rows, models.ProjectMember{
				ProjectID: projectID,
				UserID:    id,
				Role:      models.RoleCollaborator,
				Position:  next,
				JoinedAt:  now,
			})
			next++
		}

		if len(removed) > 0 {
			if err := removeMemberships(tx, projectID, removed...); err != nil {
				return err
			}
		}
		if len(rows) > 0 {
			if err := addMemberships(tx, rows); err != nil {
				return err
			}
		}

		return touchProject(tx, projectID)
	})
	if err != nil {
		return nil, nil, err
	}

	return added, removed, nil
}

// Leave removes userID from the project. A departing owner hands the project
// to the collaborator with the lowest position, or deletes it when alone.
func (r *GormProjectRepository) Leave(projectID, userID uint64) (*LeaveResult, error) {
	var result LeaveResult

	err := r.db.Transaction(func(tx *gorm.DB) error {
		project, err := lockProject(tx, projectID)
		if err != nil {
			return err
		}

		role, ok := project.RoleOf(userID)
		if !ok {
			return ErrNotMember
		}

		if role == models.RoleCollaborator {
			result.Outcome = models.LeaveOutcomeLeft
			return removeMemberships(tx, projectID, userID)
		}

		collaborators := project.Collaborators()
		if len(collaborators) == 0 {
			images, err := deleteProject(tx, projectID)
			if err != nil {
				return err
			}
			result.Outcome = models.LeaveOutcomeDeleted
			result.DeletedImages = images
			return nil
		}

		newOwner := collaborators[0]
		if err := removeMemberships(tx, projectID, userID); err != nil {
			return err
		}
		if err := tx.Model(&models.ProjectMember{}).
			Where("project_id = ? AND user_id = ?", projectID, newOwner).
			Update("role", models.RoleOwner).Error; err != nil {
			return fmt.Errorf("failed to promote user %d: %w", newOwner, err)
		}

		result.Outcome = models.LeaveOutcomeTransferred
		result.NewOwnerID = newOwner
		return touchProject(tx, projectID)
	})
	if err != nil {
		return nil, err
	}

	return &result, nil
}

// RemoveCollaborator removes userID when it is a collaborator of the project
func (r *GormProjectRepository) RemoveCollaborator(projectID, userID uint64) (bool, error) {
	removed := false

	err := r.db.Transaction(func(tx *gorm.DB) error {
		project, err := lockProject(tx, projectID)
		if err != nil {
			return err
		}

		if role, ok := project.RoleOf(userID); !ok || role != models.RoleCollaborator {
			return nil
		}

		if err := removeMemberships(tx, projectID, userID); err != nil {
			return err
		}
		removed = true
		return touchProject(tx, projectID)
	})

	return removed, err
}

// Delete deletes a project and everything attached to it
func (r *GormProjectRepository) Delete(projectID uint64) ([]models.BoardImage, error) {
	var images []models.BoardImage

	err := r.db.Transaction(func(tx *gorm.DB) error {
		if _, err := lockProject(tx, projectID); err != nil {
			return err
		}

		var err error
		images, err = deleteProject(tx, projectID)
		return err
	})
	if err != nil {
		return nil, err
	}

	return images, nil
}

// lockProject loads the project row and its members, holding a row lock on
// drivers that support one.
func lockProject(tx *gorm.DB, projectID uint64) (*models.Project, error) {
	query := tx
	if database.SupportsRowLocking(tx) {
		query = query.Clauses(clause.Locking{Strength: "UPDATE"})
	}

	var project models.Project
	if err := query.First(&project, projectID).Error; err != nil {
		return nil, err
	}

	if err := tx.Where("project_id = ?", projectID).Find(&project.Members).Error; err != nil {
		return nil, fmt.Errorf("failed to load members of project %d: %w", projectID, err)
	}

	return &project, nil
}

func nextPosition(project *models.Project) int {
	next := 0
	for _, m := range project.Members {
		if m.Role == models.RoleCollaborator && m.Position >= next {
			next = m.Position + 1
		}
	}
	return next
}

// addMemberships inserts member rows and the matching back-references.
func addMemberships(tx *gorm.DB, members []models.ProjectMember) error {
	if err := tx.Omit(clause.Associations).Create(&members).Error; err != nil {
		return fmt.Errorf("%w: %w", ErrCreateMembership, err)
	}

	refs := make([]models.UserProject, len(members))
	for i, m := range members {
		refs[i] = models.UserProject{UserID: m.UserID, ProjectID: m.ProjectID}
	}
	if err := tx.Create(&refs).Error; err != nil {
		return fmt.Errorf("%w: %w", ErrCreateMembership, err)
	}

	return nil
}

// removeMemberships deletes member rows and the matching back-references.
func removeMemberships(tx *gorm.DB, projectID uint64, userIDs ...uint64) error {
	if err := tx.Where("project_id = ? AND user_id IN ?", projectID, userIDs).
		Delete(&models.ProjectMember{}).Error; err != nil {
		return fmt.Errorf("%w: %w", ErrDeleteMembership, err)
	}

	if err := tx.Where("project_id = ? AND user_id IN ?", projectID, userIDs).
		Delete(&models.UserProject{}).Error; err != nil {
		return fmt.Errorf("%w: %w", ErrDeleteMembership, err)
	}

	return nil
}

func touchProject(tx *gorm.DB, projectID uint64) error {
	return tx.Model(&models.Project{}).Where("id = ?", projectID).Update("updated_at", time.Now()).Error
}

// deleteProject removes the project and all dependent rows.
func deleteProject(tx *gorm.DB, projectID uint64) ([]models.BoardImage, error) {
	var images []models.BoardImage
	if err := tx.Where("project_id = ?", projectID).Find(&images).Error; err != nil {
		return nil, fmt.Errorf("failed to load board images: %w", err)
	}

	dependents := []interface{}{
		&models.Task{},
		&models.Note{},
		&models.BoardImage{},
		&models.ProjectMember{},
		&models.UserProject{},
	}
	for _, model := range dependents {
		if err := tx.Where("project_id = ?", projectID).Delete(model).Error; err != nil {
			return nil, fmt.Errorf("failed to delete dependents of project %d: %w", projectID, err)
		}
	}

	if err := tx.Delete(&models.Project{}, projectID).Error; err != nil {
		return nil, fmt.Errorf("failed to delete project %d: %w", projectID, err)
	}

	return images, nil
}
