package services

import (
	"errors"
	"fmt"

	"github.com/yukikurage/projecthub/internal/access"
	"github.com/yukikurage/projecthub/internal/models"
	"github.com/yukikurage/projecthub/internal/repository"
	"gorm.io/gorm"
)

// NoteService manages the single note of each project.
type NoteService struct {
	noteRepo repository.NoteRepository
	projects ProjectAuthorizer
}

// NewNoteService creates a new NoteService.
func NewNoteService(noteRepo repository.NoteRepository, projects ProjectAuthorizer) *NoteService {
	return &NoteService{noteRepo: noteRepo, projects: projects}
}

// Get returns the project's note, creating an empty one on first read.
func (s *NoteService) Get(projectID, callerID uint64) (*models.Note, error) {
	if _, err := s.projects.Authorize(projectID, callerID, access.Read); err != nil {
		return nil, err
	}

	note, err := s.noteRepo.FindOrCreate(projectID)
	if err != nil {
		return nil, fmt.Errorf("failed to load note: %w", err)
	}
	return note, nil
}

// Save replaces the note content.
func (s *NoteService) Save(projectID, callerID uint64, content string) (*models.Note, error) {
	if _, err := s.projects.Authorize(projectID, callerID, access.Write); err != nil {
		return nil, err
	}

	note, err := s.noteRepo.SaveContent(projectID, content)
	if err != nil {
		return nil, fmt.Errorf("failed to save note: %w", err)
	}
	return note, nil
}

// Delete removes a note. Only the project owner may do this.
func (s *NoteService) Delete(noteID, callerID uint64) error {
	note, err := s.noteRepo.FindByID(noteID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrNoteNotFound
		}
		return fmt.Errorf("failed to find note: %w", err)
	}

	if _, err := s.projects.Authorize(note.ProjectID, callerID, access.Admin); err != nil {
		return err
	}

	if err := s.noteRepo.Delete(noteID); err != nil {
		return fmt.Errorf("failed to delete note: %w", err)
	}
	return nil
}
