package repository

import (
	"strings"

	"github.com/yukikurage/projecthub/internal/database"
	"github.com/yukikurage/projecthub/internal/models"
	"github.com/yukikurage/projecthub/internal/utils"
	"gorm.io/gorm"
)

// GormUserRepository is a GORM implementation of UserRepository
type GormUserRepository struct {
	db *gorm.DB
}

// NewUserRepository creates a new UserRepository
func NewUserRepository(db *gorm.DB) UserRepository {
	return &GormUserRepository{db: db}
}

// Create creates a new user
func (r *GormUserRepository) Create(user *models.User) error {
	return r.db.Create(user).Error
}

// FindByID finds a user by ID
func (r *GormUserRepository) FindByID(id uint64) (*models.User, error) {
	var user models.User
	if err := r.db.First(&user, id).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

// FindByUsername finds a user by username
func (r *GormUserRepository) FindByUsername(username string) (*models.User, error) {
	var user models.User
	if err := r.db.Where("username = ?", username).First(&user).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

// Update writes the named fields of user
func (r *GormUserRepository) Update(user *models.User, fields ...string) error {
	result := r.db.Model(user).Select(append(fields, "UpdatedAt")).Updates(user)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// FindByLogin finds a user by username or email
func (r *GormUserRepository) FindByLogin(identifier string) (*models.User, error) {
	var user models.User
	if err := r.db.Where("username = ? OR email = ?", identifier, identifier).First(&user).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

// ExistsByUsername reports whether the username is taken
func (r *GormUserRepository) ExistsByUsername(username string) (bool, error) {
	var count int64
	err := r.db.Model(&models.User{}).Where("username = ?", username).Count(&count).Error
	return count > 0, err
}

// ExistsByEmail reports whether the email is taken
func (r *GormUserRepository) ExistsByEmail(email string) (bool, error) {
	var count int64
	err := r.db.Model(&models.User{}).Where("email = ?", email).Count(&count).Error
	return count > 0, err
}

// EmailTakenByOther reports whether a user other than id holds email
func (r *GormUserRepository) EmailTakenByOther(email string, id uint64) (bool, error) {
	var count int64
	err := r.db.Model(&models.User{}).Where("email = ? AND id <> ?", email, id).Count(&count).Error
	return count > 0, err
}

// FindExistingIDs returns the subset of ids that belong to existing users
func (r *GormUserRepository) FindExistingIDs(ids []uint64) ([]uint64, error) {
	if len(ids) == 0 {
		return []uint64{}, nil
	}

	var existing []uint64
	if err := r.db.Model(&models.User{}).Where("id IN ?", ids).Pluck("id", &existing).Error; err != nil {
		return nil, err
	}
	return existing, nil
}

// Search finds users whose username or full name contains query, case-insensitively
func (r *GormUserRepository) Search(query string, params utils.PaginationParams) ([]models.User, int64, error) {
	pattern := "%" + strings.ToLower(query) + "%"
	q := r.db.Model(&models.User{}).
		Where("LOWER(username) LIKE ? OR LOWER(full_name) LIKE ?", pattern, pattern)

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var users []models.User
	if err := q.Order("username ASC").Scopes(database.Paginate(params)).Find(&users).Error; err != nil {
		return nil, 0, err
	}

	return users, total, nil
}
