package repository

import (
	"github.com/yukikurage/projecthub/internal/models"
	"gorm.io/gorm"
)

// GormBoardRepository is a GORM implementation of BoardRepository
type GormBoardRepository struct {
	db *gorm.DB
}

// NewBoardRepository creates a new BoardRepository
func NewBoardRepository(db *gorm.DB) BoardRepository {
	return &GormBoardRepository{db: db}
}

// ListByProject lists board images oldest first
func (r *GormBoardRepository) ListByProject(projectID uint64) ([]models.BoardImage, error) {
	var images []models.BoardImage
	if err := r.db.Where("project_id = ?", projectID).
		Order("created_at ASC").
		Order("id ASC").
		Find(&images).Error; err != nil {
		return nil, err
	}
	return images, nil
}

// Create creates a board image reference
func (r *GormBoardRepository) Create(image *models.BoardImage) error {
	return r.db.Create(image).Error
}

// FindByID finds a board image by ID
func (r *GormBoardRepository) FindByID(id uint64) (*models.BoardImage, error) {
	var image models.BoardImage
	if err := r.db.First(&image, id).Error; err != nil {
		return nil, err
	}
	return &image, nil
}

// Delete deletes a board image reference
func (r *GormBoardRepository) Delete(id uint64) error {
	return r.db.Delete(&models.BoardImage{}, id).Error
}
