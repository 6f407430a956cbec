package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/yukikurage/projecthub/internal/dto"
	apierrors "github.com/yukikurage/projecthub/internal/errors"
	"github.com/yukikurage/projecthub/internal/models"
	"github.com/yukikurage/projecthub/internal/services"
)

// ProjectHandler serves project lifecycle and membership endpoints.
type ProjectHandler struct {
	projectService *services.ProjectService
}

// NewProjectHandler creates a new ProjectHandler.
func NewProjectHandler(projectService *services.ProjectService) *ProjectHandler {
	return &ProjectHandler{projectService: projectService}
}

// CreateProject creates a project owned by the caller.
func (h *ProjectHandler) CreateProject(c *gin.Context) {
	userID, ok := callerID(c)
	if !ok {
		return
	}

	type CreateProjectRequest struct {
		Name            string            `json:"name" binding:"required,max=255"`
		CollaboratorIDs []uint64          `json:"collaborator_ids"`
		Icon            string            `json:"icon"`
		Visibility      models.Visibility `json:"visibility"`
		Subject         string            `json:"subject"`
		Deadline        *time.Time        `json:"deadline"`
		Priority        models.Priority   `json:"priority"`
		Links           []string          `json:"links"`
	}

	var req CreateProjectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.BadRequest(c, "Invalid request body")
		return
	}

	project, err := h.projectService.Create(services.CreateProjectInput{
		Name:            req.Name,
		CollaboratorIDs: req.CollaboratorIDs,
		OwnerID:         userID,
		Metadata: services.ProjectMetadata{
			Icon:       req.Icon,
			Visibility: req.Visibility,
			Subject:    req.Subject,
			Deadline:   req.Deadline,
			Priority:   req.Priority,
			Links:      req.Links,
		},
	})
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, dto.ToProjectDTO(*project))
}

// ListProjects lists the caller's projects.
func (h *ProjectHandler) ListProjects(c *gin.Context) {
	userID, ok := callerID(c)
	if !ok {
		return
	}

	projects, err := h.projectService.ListMine(userID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"projects": dto.ToProjectDTOs(projects)})
}

// GetProjectBySlug returns a project with member summaries.
func (h *ProjectHandler) GetProjectBySlug(c *gin.Context) {
	userID, ok := callerID(c)
	if !ok {
		return
	}

	project, err := h.projectService.GetBySlug(c.Param("slug"), userID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.ToProjectDetailDTO(*project, userID))
}

// UpdateProject changes the allowed project fields present in the body.
// deadline may be null to clear it.
func (h *ProjectHandler) UpdateProject(c *gin.Context) {
	userID, ok := callerID(c)
	if !ok {
		return
	}
	projectID, ok := idParam(c, "id")
	if !ok {
		return
	}

	body, ok := bindPatch(c)
	if !ok {
		return
	}

	input := services.UpdateProjectInput{ProjectID: projectID, CallerID: userID}
	var name, icon, subject string
	var visibility models.Visibility
	var priority models.Priority
	var deadline time.Time

	fields := []struct {
		key string
		dst interface{}
		set func()
	}{
		{"name", &name, func() { input.Name = &name }},
		{"icon", &icon, func() { input.Icon = &icon }},
		{"subject", &subject, func() { input.Subject = &subject }},
		{"visibility", &visibility, func() { input.Visibility = &visibility }},
		{"priority", &priority, func() { input.Priority = &priority }},
		{"deadline", &deadline, func() { input.Deadline = &deadline }},
		{"links", &input.Links, func() {}},
	}
	for _, f := range fields {
		present, err := body.decode(f.key, f.dst)
		if err != nil {
			apierrors.BadRequest(c, err.Error())
			return
		}
		if present {
			f.set()
		}
	}
	input.ClearDeadline = body.isNull("deadline")
	input.SetLinks = body.has("links")

	project, err := h.projectService.Update(input)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.ToProjectDTO(*project))
}

// DeleteProject deletes a project. Owner only.
func (h *ProjectHandler) DeleteProject(c *gin.Context) {
	userID, ok := callerID(c)
	if !ok {
		return
	}
	projectID, ok := idParam(c, "id")
	if !ok {
		return
	}

	if err := h.projectService.Delete(c.Request.Context(), projectID, userID); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Project deleted successfully"})
}

// ReconcileCollaborators replaces the collaborator set.
func (h *ProjectHandler) ReconcileCollaborators(c *gin.Context) {
	userID, ok := callerID(c)
	if !ok {
		return
	}
	projectID, ok := idParam(c, "id")
	if !ok {
		return
	}

	type ReconcileRequest struct {
		CollaboratorIDs []uint64 `json:"collaborator_ids" binding:"required"`
	}

	var req ReconcileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.BadRequest(c, "Invalid request body")
		return
	}

	result, err := h.projectService.ReconcileCollaborators(projectID, userID, req.CollaboratorIDs)
	if err != nil {
		respondError(c, err)
		return
	}

	added, removed := result.Added, result.Removed
	if added == nil {
		added = []uint64{}
	}
	if removed == nil {
		removed = []uint64{}
	}

	c.JSON(http.StatusOK, dto.ReconcileResponse{
		Project: dto.ToProjectDTO(*result.Project),
		Added:   added,
		Removed: removed,
	})
}

// LeaveProject removes the caller from the project.
func (h *ProjectHandler) LeaveProject(c *gin.Context) {
	userID, ok := callerID(c)
	if !ok {
		return
	}
	projectID, ok := idParam(c, "id")
	if !ok {
		return
	}

	result, err := h.projectService.Leave(c.Request.Context(), projectID, userID)
	if err != nil {
		respondError(c, err)
		return
	}

	resp := dto.LeaveResponse{Outcome: result.Outcome, NewOwnerID: result.NewOwnerID}
	if result.Project != nil {
		project := dto.ToProjectDTO(*result.Project)
		resp.Project = &project
	}

	c.JSON(http.StatusOK, resp)
}

// RemoveMember removes a collaborator. Owner only.
func (h *ProjectHandler) RemoveMember(c *gin.Context) {
	userID, ok := callerID(c)
	if !ok {
		return
	}
	projectID, ok := idParam(c, "id")
	if !ok {
		return
	}
	targetID, ok := idParam(c, "user_id")
	if !ok {
		return
	}

	project, err := h.projectService.RemoveMember(projectID, userID, targetID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.MemberRemovedResponse{
		Message: "Member removed successfully",
		Project: dto.ToProjectDTO(*project),
	})
}
