package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/yukikurage/projecthub/internal/access"
	"github.com/yukikurage/projecthub/internal/metrics"
	"github.com/yukikurage/projecthub/internal/models"
	"github.com/yukikurage/projecthub/internal/repository"
	"github.com/yukikurage/projecthub/internal/slug"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// ProjectAuthorizer resolves a project and applies the access policy to it.
type ProjectAuthorizer interface {
	Authorize(projectID, callerID uint64, level access.Level) (*models.Project, error)
}

// ProjectService manages the project lifecycle and its membership ledger.
type ProjectService struct {
	projectRepo repository.ProjectRepository
	userRepo    repository.UserRepository
	media       MediaStore
	allocator   *slug.Allocator
	logger      *zap.Logger
}

// NewProjectService creates a new ProjectService.
func NewProjectService(
	projectRepo repository.ProjectRepository,
	userRepo repository.UserRepository,
	media MediaStore,
	maxSlugAttempts int,
	logger *zap.Logger,
) *ProjectService {
	s := &ProjectService{
		projectRepo: projectRepo,
		userRepo:    userRepo,
		media:       media,
		logger:      logger,
	}
	s.allocator = slug.NewAllocator(maxSlugAttempts, func(attempt int, err error) {
		metrics.SlugConflicts.Inc()
		s.logger.Warn("slug collision, retrying project creation",
			zap.Int("attempt", attempt),
			zap.Error(err))
	})
	return s
}

// Authorize loads the project and checks the caller against level.
func (s *ProjectService) Authorize(projectID, callerID uint64, level access.Level) (*models.Project, error) {
	project, err := s.projectRepo.FindByID(projectID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrProjectNotFound
		}
		return nil, fmt.Errorf("failed to find project: %w", err)
	}

	if err := access.Require(project, callerID, level); err != nil {
		return nil, ErrAccessDenied
	}

	return project, nil
}

// ProjectMetadata holds the optional descriptive fields of a project.
type ProjectMetadata struct {
	Icon       string
	Visibility models.Visibility
	Subject    string
	Deadline   *time.Time
	Priority   models.Priority
	Links      []string
}

// CreateProjectInput represents parameters to create a new project.
type CreateProjectInput struct {
	Name            string
	CollaboratorIDs []uint64
	Metadata        ProjectMetadata
	OwnerID         uint64
}

// Create validates the input and inserts the project with its members.
func (s *ProjectService) Create(input CreateProjectInput) (*models.Project, error) {
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, ErrProjectNameRequired
	}

	meta, err := normalizeMetadata(input.Metadata)
	if err != nil {
		return nil, err
	}

	collaborators := normalizeCollaborators(input.CollaboratorIDs, input.OwnerID)
	if err := s.ensureUsersExist(collaborators); err != nil {
		return nil, err
	}

	base := slug.Slugify(name)
	var project *models.Project
	err = s.allocator.Run(func(int) error {
		project = &models.Project{
			Name:       name,
			Slug:       base,
			Icon:       meta.Icon,
			Visibility: meta.Visibility,
			Subject:    meta.Subject,
			Deadline:   meta.Deadline,
			Priority:   meta.Priority,
			Links:      meta.Links,
		}
		return s.projectRepo.Create(project, input.OwnerID, collaborators)
	})
	if err != nil {
		switch {
		case errors.Is(err, slug.ErrExhausted):
			s.logger.Error("slug allocation exhausted", zap.String("base", base), zap.Error(err))
			return nil, fmt.Errorf("%w: %v", ErrSlugAllocationFailed, err)
		case errors.Is(err, gorm.ErrDuplicatedKey):
			return nil, ErrMembershipConflict
		default:
			return nil, fmt.Errorf("failed to create project: %w", err)
		}
	}

	s.logger.Info("project created",
		zap.Uint64("project_id", project.ID),
		zap.String("slug", project.Slug),
		zap.Uint64("owner_id", input.OwnerID),
		zap.Int("collaborators", len(collaborators)))

	return project, nil
}

// ListMine lists the caller's projects, most recently updated first.
func (s *ProjectService) ListMine(userID uint64) ([]models.Project, error) {
	projects, err := s.projectRepo.ListByUser(userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list projects: %w", err)
	}
	return projects, nil
}

// GetBySlug returns the project with member details when the caller may read it.
func (s *ProjectService) GetBySlug(projectSlug string, callerID uint64) (*models.Project, error) {
	project, err := s.projectRepo.FindBySlug(projectSlug)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrProjectNotFound
		}
		return nil, fmt.Errorf("failed to find project: %w", err)
	}

	if err := access.Require(project, callerID, access.Read); err != nil {
		return nil, ErrAccessDenied
	}

	return project, nil
}

// UpdateProjectInput lists the fields a member may change. Nil means unchanged.
type UpdateProjectInput struct {
	ProjectID     uint64
	CallerID      uint64
	Name          *string
	Icon          *string
	Visibility    *models.Visibility
	Subject       *string
	Deadline      *time.Time
	ClearDeadline bool
	Priority      *models.Priority
	Links         []string
	SetLinks      bool
}

// Update applies the allowed field changes. The slug never changes.
func (s *ProjectService) Update(input UpdateProjectInput) (*models.Project, error) {
	project, err := s.Authorize(input.ProjectID, input.CallerID, access.Write)
	if err != nil {
		return nil, err
	}

	var fields []string
	if input.Name != nil {
		name := strings.TrimSpace(*input.Name)
		if name == "" {
			return nil, ErrProjectNameRequired
		}
		project.Name = name
		fields = append(fields, "Name")
	}
	if input.Icon != nil {
		project.Icon = strings.TrimSpace(*input.Icon)
		if project.Icon == "" {
			project.Icon = models.DefaultProjectIcon
		}
		fields = append(fields, "Icon")
	}
	if input.Visibility != nil {
		if !input.Visibility.Valid() {
			return nil, ErrInvalidVisibility
		}
		project.Visibility = *input.Visibility
		fields = append(fields, "Visibility")
	}
	if input.Subject != nil {
		project.Subject = strings.TrimSpace(*input.Subject)
		fields = append(fields, "Subject")
	}
	if input.ClearDeadline {
		project.Deadline = nil
		fields = append(fields, "Deadline")
	} else if input.Deadline != nil {
		project.Deadline = input.Deadline
		fields = append(fields, "Deadline")
	}
	if input.Priority != nil {
		if !input.Priority.Valid() {
			return nil, ErrInvalidPriority
		}
		project.Priority = *input.Priority
		fields = append(fields, "Priority")
	}
	if input.SetLinks {
		project.Links = cleanLinks(input.Links)
		fields = append(fields, "Links")
	}

	if len(fields) == 0 {
		return project, nil
	}

	if err := s.projectRepo.Update(project, fields...); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrProjectNotFound
		}
		return nil, fmt.Errorf("failed to update project: %w", err)
	}

	return project, nil
}

// ReconcileResult reports the effect of a collaborator reconciliation.
type ReconcileResult struct {
	Project *models.Project
	Added   []uint64
	Removed []uint64
}

// ReconcileCollaborators makes the collaborator set equal to ids.
func (s *ProjectService) ReconcileCollaborators(projectID, callerID uint64, ids []uint64) (*ReconcileResult, error) {
	project, err := s.Authorize(projectID, callerID, access.Write)
	if err != nil {
		return nil, err
	}

	ownerID, _ := project.Owner()
	desired := normalizeCollaborators(ids, ownerID)
	if err := s.ensureUsersExist(desired); err != nil {
		return nil, err
	}

	added, removed, err := s.projectRepo.ReconcileCollaborators(projectID, desired)
	if err != nil {
		switch {
		case errors.Is(err, gorm.ErrRecordNotFound):
			return nil, ErrProjectNotFound
		case errors.Is(err, gorm.ErrDuplicatedKey):
			s.logger.Warn("concurrent collaborator reconcile", zap.Uint64("project_id", projectID))
			return nil, ErrMembershipConflict
		default:
			return nil, fmt.Errorf("failed to reconcile collaborators: %w", err)
		}
	}

	if len(added) > 0 || len(removed) > 0 {
		s.logger.Info("collaborators reconciled",
			zap.Uint64("project_id", projectID),
			zap.Uint64s("added", added),
			zap.Uint64s("removed", removed))
	}

	updated, err := s.reload(projectID)
	if err != nil {
		return nil, err
	}

	return &ReconcileResult{Project: updated, Added: added, Removed: removed}, nil
}

// reload reads the project back with its members after a membership change.
func (s *ProjectService) reload(projectID uint64) (*models.Project, error) {
	project, err := s.projectRepo.FindByID(projectID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrProjectNotFound
		}
		return nil, fmt.Errorf("failed to reload project: %w", err)
	}
	return project, nil
}

// LeaveResult reports the outcome of leaving a project. Project is the
// reloaded project, nil when the project was deleted.
type LeaveResult struct {
	Outcome    models.LeaveOutcome
	NewOwnerID uint64
	Project    *models.Project
}

// Leave removes the caller from the project. An owner hands the project to
// the first collaborator, or deletes it when no collaborator is left.
func (s *ProjectService) Leave(ctx context.Context, projectID, callerID uint64) (*LeaveResult, error) {
	project, err := s.projectRepo.FindByID(projectID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrProjectNotFound
		}
		return nil, fmt.Errorf("failed to find project: %w", err)
	}
	if _, ok := project.RoleOf(callerID); !ok {
		return nil, ErrAccessDenied
	}

	result, err := s.projectRepo.Leave(projectID, callerID)
	if err != nil {
		switch {
		case errors.Is(err, repository.ErrNotMember):
			return nil, ErrAccessDenied
		case errors.Is(err, gorm.ErrRecordNotFound):
			return nil, ErrProjectNotFound
		default:
			return nil, fmt.Errorf("failed to leave project: %w", err)
		}
	}

	metrics.ProjectLeaves.WithLabelValues(string(result.Outcome)).Inc()

	switch result.Outcome {
	case models.LeaveOutcomeTransferred:
		s.logger.Info("project ownership transferred",
			zap.Uint64("project_id", projectID),
			zap.Uint64("from_user_id", callerID),
			zap.Uint64("to_user_id", result.NewOwnerID))
	case models.LeaveOutcomeDeleted:
		s.logger.Info("project deleted after last member left",
			zap.Uint64("project_id", projectID),
			zap.Uint64("user_id", callerID))
		s.destroyMedia(ctx, result.DeletedImages)
	default:
		s.logger.Info("collaborator left project",
			zap.Uint64("project_id", projectID),
			zap.Uint64("user_id", callerID))
	}

	out := &LeaveResult{Outcome: result.Outcome, NewOwnerID: result.NewOwnerID}
	if result.Outcome != models.LeaveOutcomeDeleted {
		if out.Project, err = s.reload(projectID); err != nil {
			return nil, err
		}
	}

	return out, nil
}

// RemoveMember removes a collaborator. Targets that are not collaborators,
// the owner included, are left untouched. The reloaded project is returned.
func (s *ProjectService) RemoveMember(projectID, callerID, targetID uint64) (*models.Project, error) {
	if _, err := s.Authorize(projectID, callerID, access.Admin); err != nil {
		return nil, err
	}

	removed, err := s.projectRepo.RemoveCollaborator(projectID, targetID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrProjectNotFound
		}
		return nil, fmt.Errorf("failed to remove member: %w", err)
	}

	if removed {
		s.logger.Info("collaborator removed",
			zap.Uint64("project_id", projectID),
			zap.Uint64("user_id", targetID),
			zap.Uint64("removed_by", callerID))
	}

	return s.reload(projectID)
}

// Delete deletes the project and everything attached to it.
func (s *ProjectService) Delete(ctx context.Context, projectID, callerID uint64) error {
	if _, err := s.Authorize(projectID, callerID, access.Admin); err != nil {
		return err
	}

	images, err := s.projectRepo.Delete(projectID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrProjectNotFound
		}
		return fmt.Errorf("failed to delete project: %w", err)
	}

	s.logger.Info("project deleted", zap.Uint64("project_id", projectID), zap.Uint64("user_id", callerID))
	s.destroyMedia(ctx, images)
	return nil
}

// destroyMedia removes board blobs. Failures leave orphans for the storage
// sweep and are only logged.
func (s *ProjectService) destroyMedia(ctx context.Context, images []models.BoardImage) {
	for _, image := range images {
		if err := s.media.Destroy(ctx, image.PublicID); err != nil {
			s.logger.Warn("failed to destroy board media",
				zap.Uint64("image_id", image.ID),
				zap.String("public_id", image.PublicID),
				zap.Error(err))
		}
	}
}

func (s *ProjectService) ensureUsersExist(ids []uint64) error {
	if len(ids) == 0 {
		return nil
	}

	existing, err := s.userRepo.FindExistingIDs(ids)
	if err != nil {
		return fmt.Errorf("failed to verify collaborators: %w", err)
	}

	found := make(map[uint64]struct{}, len(existing))
	for _, id := range existing {
		found[id] = struct{}{}
	}
	for _, id := range ids {
		if _, ok := found[id]; !ok {
			return fmt.Errorf("%w: %d", ErrInvalidCollaborator, id)
		}
	}

	return nil
}

// normalizeCollaborators drops the owner and duplicates, keeping first occurrences.
func normalizeCollaborators(ids []uint64, ownerID uint64) []uint64 {
	seen := make(map[uint64]struct{}, len(ids))
	out := make([]uint64, 0, len(ids))
	for _, id := range ids {
		if id == ownerID {
			continue
		}
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}

func normalizeMetadata(meta ProjectMetadata) (ProjectMetadata, error) {
	if meta.Visibility == "" {
		meta.Visibility = models.VisibilityPrivate
	}
	if !meta.Visibility.Valid() {
		return meta, ErrInvalidVisibility
	}

	if meta.Priority == "" {
		meta.Priority = models.PriorityMedium
	}
	if !meta.Priority.Valid() {
		return meta, ErrInvalidPriority
	}

	meta.Icon = strings.TrimSpace(meta.Icon)
	if meta.Icon == "" {
		meta.Icon = models.DefaultProjectIcon
	}
	meta.Subject = strings.TrimSpace(meta.Subject)
	meta.Links = cleanLinks(meta.Links)

	return meta, nil
}

func cleanLinks(links []string) []string {
	out := make([]string, 0, len(links))
	for _, link := range links {
		if link = strings.TrimSpace(link); link != "" {
			out = append(out, link)
		}
	}
	return out
}
