package repository

import (
	"errors"

	"github.com/yukikurage/projecthub/internal/models"
	"gorm.io/gorm"
)

// GormNoteRepository is a GORM implementation of NoteRepository
type GormNoteRepository struct {
	db *gorm.DB
}

// NewNoteRepository creates a new NoteRepository
func NewNoteRepository(db *gorm.DB) NoteRepository {
	return &GormNoteRepository{db: db}
}

// FindOrCreate returns the project's note, creating an empty one on first
// access. A concurrent first access that wins the insert is read back.
func (r *GormNoteRepository) FindOrCreate(projectID uint64) (*models.Note, error) {
	var note models.Note
	err := r.db.Where(models.Note{ProjectID: projectID}).FirstOrCreate(&note).Error
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		note = models.Note{}
		err = r.db.Where("project_id = ?", projectID).First(&note).Error
	}
	if err != nil {
		return nil, err
	}
	return &note, nil
}

// SaveContent replaces the note content, creating the note if it does not exist
func (r *GormNoteRepository) SaveContent(projectID uint64, content string) (*models.Note, error) {
	note, err := r.FindOrCreate(projectID)
	if err != nil {
		return nil, err
	}

	note.Content = content
	if err := r.db.Model(note).Update("content", content).Error; err != nil {
		return nil, err
	}
	return note, nil
}

// FindByID finds a note by ID
func (r *GormNoteRepository) FindByID(id uint64) (*models.Note, error) {
	var note models.Note
	if err := r.db.First(&note, id).Error; err != nil {
		return nil, err
	}
	return &note, nil
}

// Delete deletes a note
func (r *GormNoteRepository) Delete(id uint64) error {
	return r.db.Delete(&models.Note{}, id).Error
}
