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

type TaskHandler struct {
	taskService *services.TaskService
}

func NewTaskHandler(taskService *services.TaskService) *TaskHandler {
	return &TaskHandler{
		taskService: taskService,
	}
}

// ListTasks returns the tasks of a project in sequence order
func (h *TaskHandler) ListTasks(c *gin.Context) {
	userID, ok := callerID(c)
	if !ok {
		return
	}
	projectID, ok := idParam(c, "id")
	if !ok {
		return
	}

	tasks, err := h.taskService.List(projectID, userID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"tasks": dto.ToTaskDTOs(tasks),
	})
}

// CreateTask appends a task to the end of a project
func (h *TaskHandler) CreateTask(c *gin.Context) {
	userID, ok := callerID(c)
	if !ok {
		return
	}
	projectID, ok := idParam(c, "id")
	if !ok {
		return
	}

	type CreateTaskRequest struct {
		Name     string          `json:"name" binding:"required,max=255"`
		Priority models.Priority `json:"priority"`
		Due      *time.Time      `json:"due"`
	}

	var req CreateTaskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.BadRequest(c, "Invalid request body")
		return
	}

	task, err := h.taskService.Append(services.AppendTaskInput{
		ProjectID: projectID,
		CallerID:  userID,
		Name:      req.Name,
		Priority:  req.Priority,
		Due:       req.Due,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, dto.ToTaskDTO(*task))
}

// SuggestTasks asks the AI service for task suggestions from free text
func (h *TaskHandler) SuggestTasks(c *gin.Context) {
	userID, ok := callerID(c)
	if !ok {
		return
	}
	projectID, ok := idParam(c, "id")
	if !ok {
		return
	}

	type SuggestTasksRequest struct {
		Text string `json:"text" binding:"required"`
	}

	var req SuggestTasksRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.BadRequest(c, "Invalid request body")
		return
	}

	suggestions, err := h.taskService.SuggestTasks(c.Request.Context(), services.SuggestTasksInput{
		ProjectID: projectID,
		CallerID:  userID,
		Text:      req.Text,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"tasks": dto.ToSuggestedTaskDTOs(suggestions),
	})
}

// ToggleComplete flips the completed flag
func (h *TaskHandler) ToggleComplete(c *gin.Context) {
	userID, ok := callerID(c)
	if !ok {
		return
	}
	taskID, ok := idParam(c, "id")
	if !ok {
		return
	}

	task, err := h.taskService.ToggleComplete(taskID, userID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.ToTaskDTO(*task))
}

// UpdateTask updates the fields present in the body. due may be null to clear it.
func (h *TaskHandler) UpdateTask(c *gin.Context) {
	userID, ok := callerID(c)
	if !ok {
		return
	}
	taskID, ok := idParam(c, "id")
	if !ok {
		return
	}

	body, ok := bindPatch(c)
	if !ok {
		return
	}

	input := services.UpdateTaskInput{TaskID: taskID, CallerID: userID}
	var name string
	var completed bool
	var priority models.Priority
	var due time.Time
	var order int

	fields := []struct {
		key string
		dst interface{}
		set func()
	}{
		{"name", &name, func() { input.Name = &name }},
		{"completed", &completed, func() { input.Completed = &completed }},
		{"priority", &priority, func() { input.Priority = &priority }},
		{"due", &due, func() { input.Due = &due }},
		{"order", &order, func() { input.Order = &order }},
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
	input.ClearDue = body.isNull("due")

	task, err := h.taskService.Update(input)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.ToTaskDTO(*task))
}

// DeleteTask deletes a task
func (h *TaskHandler) DeleteTask(c *gin.Context) {
	userID, ok := callerID(c)
	if !ok {
		return
	}
	taskID, ok := idParam(c, "id")
	if !ok {
		return
	}

	if err := h.taskService.Delete(taskID, userID); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Task deleted successfully",
	})
}
