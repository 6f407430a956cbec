package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/yukikurage/projecthub/internal/access"
	"github.com/yukikurage/projecthub/internal/constants"
	"github.com/yukikurage/projecthub/internal/models"
	"github.com/yukikurage/projecthub/internal/repository"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// TaskService handles task business logic
type TaskService struct {
	taskRepo  repository.TaskRepository
	projects  ProjectAuthorizer
	aiService *AIService
	logger    *zap.Logger
}

// NewTaskService creates a new TaskService. aiService may be nil.
func NewTaskService(taskRepo repository.TaskRepository, projects ProjectAuthorizer, aiService *AIService, logger *zap.Logger) *TaskService {
	return &TaskService{
		taskRepo:  taskRepo,
		projects:  projects,
		aiService: aiService,
		logger:    logger,
	}
}

// AppendTaskInput represents input for creating a task
type AppendTaskInput struct {
	ProjectID uint64
	CallerID  uint64
	Name      string
	Priority  models.Priority
	Due       *time.Time
}

// UpdateTaskInput represents input for updating a task. Nil means unchanged.
type UpdateTaskInput struct {
	TaskID    uint64
	CallerID  uint64
	Name      *string
	Completed *bool
	Priority  *models.Priority
	Due       *time.Time
	ClearDue  bool
	Order     *int
}

// Append adds a task after every existing task of the project
func (s *TaskService) Append(input AppendTaskInput) (*models.Task, error) {
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, ErrTaskNameRequired
	}

	priority := input.Priority
	if priority == "" {
		priority = models.PriorityMedium
	}
	if !priority.Valid() {
		return nil, ErrInvalidPriority
	}

	if _, err := s.projects.Authorize(input.ProjectID, input.CallerID, access.Write); err != nil {
		return nil, err
	}

	task := &models.Task{
		ProjectID: input.ProjectID,
		CreatorID: input.CallerID,
		Name:      name,
		Priority:  priority,
		Due:       input.Due,
	}

	if err := s.taskRepo.Append(task); err != nil {
		return nil, fmt.Errorf("failed to create task: %w", err)
	}

	return task, nil
}

// List returns the project's tasks in display order
func (s *TaskService) List(projectID, callerID uint64) ([]models.Task, error) {
	if _, err := s.projects.Authorize(projectID, callerID, access.Read); err != nil {
		return nil, err
	}

	tasks, err := s.taskRepo.ListByProject(projectID)
	if err != nil {
		return nil, fmt.Errorf("failed to list tasks: %w", err)
	}

	return tasks, nil
}

// ToggleComplete flips the completed flag of a task
func (s *TaskService) ToggleComplete(taskID, callerID uint64) (*models.Task, error) {
	task, err := s.authorizeTask(taskID, callerID)
	if err != nil {
		return nil, err
	}

	task.Completed = !task.Completed
	if err := s.taskRepo.Update(task, "Completed"); err != nil {
		return nil, s.mapWriteError("toggle task", err)
	}

	return task, nil
}

// Update applies the allowed field changes to a task
func (s *TaskService) Update(input UpdateTaskInput) (*models.Task, error) {
	task, err := s.authorizeTask(input.TaskID, input.CallerID)
	if err != nil {
		return nil, err
	}

	var fields []string
	if input.Name != nil {
		name := strings.TrimSpace(*input.Name)
		if name == "" {
			return nil, ErrTaskNameRequired
		}
		task.Name = name
		fields = append(fields, "Name")
	}
	if input.Completed != nil {
		task.Completed = *input.Completed
		fields = append(fields, "Completed")
	}
	if input.Priority != nil {
		if !input.Priority.Valid() {
			return nil, ErrInvalidPriority
		}
		task.Priority = *input.Priority
		fields = append(fields, "Priority")
	}
	if input.ClearDue {
		task.Due = nil
		fields = append(fields, "Due")
	} else if input.Due != nil {
		task.Due = input.Due
		fields = append(fields, "Due")
	}
	if input.Order != nil {
		task.Order = *input.Order
		fields = append(fields, "Order")
	}

	if len(fields) == 0 {
		return task, nil
	}

	if err := s.taskRepo.Update(task, fields...); err != nil {
		return nil, s.mapWriteError("update task", err)
	}

	return task, nil
}

// Delete deletes a task
func (s *TaskService) Delete(taskID, callerID uint64) error {
	if _, err := s.authorizeTask(taskID, callerID); err != nil {
		return err
	}

	if err := s.taskRepo.Delete(taskID); err != nil {
		return s.mapWriteError("delete task", err)
	}

	return nil
}

// SuggestTasksInput represents input for AI task suggestions
type SuggestTasksInput struct {
	ProjectID uint64
	CallerID  uint64
	Text      string
}

// SuggestTasks turns free text into task suggestions. Nothing is persisted.
func (s *TaskService) SuggestTasks(ctx context.Context, input SuggestTasksInput) ([]SuggestedTask, error) {
	if s.aiService == nil {
		return nil, ErrAIServiceNotConfigured
	}

	text := strings.TrimSpace(input.Text)
	if text == "" {
		return nil, ErrAITextRequired
	}

	if _, err := s.projects.Authorize(input.ProjectID, input.CallerID, access.Write); err != nil {
		return nil, err
	}

	suggestions, err := s.aiService.SuggestTasks(ctx, text)
	if err != nil {
		s.logger.Error("AI task suggestion failed", zap.Uint64("project_id", input.ProjectID), zap.Error(err))
		return nil, fmt.Errorf("failed to suggest tasks: %w", err)
	}

	valid := sanitizeSuggestions(suggestions, time.Now())
	if len(valid) == 0 {
		return nil, ErrAINoTasksGenerated
	}

	return valid, nil
}

// sanitizeSuggestions drops unnamed entries, defaults unknown priorities,
// clears due dates before today and caps the result size.
func sanitizeSuggestions(suggestions []SuggestedTask, now time.Time) []SuggestedTask {
	cutoff := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())

	valid := make([]SuggestedTask, 0, len(suggestions))
	for _, suggestion := range suggestions {
		suggestion.Name = strings.TrimSpace(suggestion.Name)
		if suggestion.Name == "" {
			continue
		}
		if !suggestion.Priority.Valid() {
			suggestion.Priority = models.PriorityMedium
		}
		if suggestion.Due != nil && suggestion.Due.Before(cutoff) {
			suggestion.Due = nil
		}
		valid = append(valid, suggestion)
		if len(valid) == constants.MaxAIGeneratedTasks {
			break
		}
	}

	return valid
}

func (s *TaskService) authorizeTask(taskID, callerID uint64) (*models.Task, error) {
	task, err := s.taskRepo.FindByID(taskID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrTaskNotFound
		}
		return nil, fmt.Errorf("failed to find task: %w", err)
	}

	if _, err := s.projects.Authorize(task.ProjectID, callerID, access.Write); err != nil {
		return nil, err
	}

	return task, nil
}

func (s *TaskService) mapWriteError(op string, err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrTaskNotFound
	}
	return fmt.Errorf("failed to %s: %w", op, err)
}
