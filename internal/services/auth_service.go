package services

import (
	"errors"
	"fmt"
	"strings"

	"github.com/yukikurage/projecthub/internal/constants"
	"github.com/yukikurage/projecthub/internal/models"
	"github.com/yukikurage/projecthub/internal/repository"
	"github.com/yukikurage/projecthub/internal/utils"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// AuthService handles authentication related business logic.
type AuthService struct {
	userRepo repository.UserRepository
}

// NewAuthService creates a new AuthService.
func NewAuthService(userRepo repository.UserRepository) *AuthService {
	return &AuthService{
		userRepo: userRepo,
	}
}

// SignupInput represents the required information to create a new user.
type SignupInput struct {
	Username string
	Email    string
	FullName string
	Password string
}

// Signup creates a new user.
func (s *AuthService) Signup(input SignupInput) (*models.User, error) {
	username := strings.TrimSpace(input.Username)
	if username == "" {
		return nil, ErrUsernameRequired
	}
	email := strings.ToLower(strings.TrimSpace(input.Email))
	if email == "" {
		return nil, ErrEmailRequired
	}
	fullName := strings.TrimSpace(input.FullName)
	if fullName == "" {
		return nil, ErrFullNameRequired
	}
	if len(input.Password) < constants.MinPasswordLength {
		return nil, ErrPasswordTooShort
	}

	if taken, err := s.userRepo.ExistsByUsername(username); err != nil {
		return nil, fmt.Errorf("failed to check username: %w", err)
	} else if taken {
		return nil, ErrUsernameTaken
	}

	if taken, err := s.userRepo.ExistsByEmail(email); err != nil {
		return nil, fmt.Errorf("failed to check email: %w", err)
	} else if taken {
		return nil, ErrEmailTaken
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(input.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user := &models.User{
		Username:      username,
		Email:         email,
		FullName:      fullName,
		PasswordHash:  string(hashedPassword),
		SideMenuColor: models.DefaultSideMenuColor,
		ThemeMode:     models.ThemeLight,
	}

	if err := s.userRepo.Create(user); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, ErrUsernameTaken
		}
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	return user, nil
}

// LoginInput holds the credentials for authentication. Identifier is a
// username or an email address.
type LoginInput struct {
	Identifier string
	Password   string
}

// Login verifies credentials and returns the authenticated user.
func (s *AuthService) Login(input LoginInput) (*models.User, error) {
	identifier := strings.TrimSpace(input.Identifier)
	if strings.Contains(identifier, "@") {
		identifier = strings.ToLower(identifier)
	}

	user, err := s.userRepo.FindByLogin(identifier)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("failed to find user: %w", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(input.Password)); err != nil {
		return nil, ErrInvalidCredentials
	}

	return user, nil
}

// GetUser retrieves a user by ID.
func (s *AuthService) GetUser(id uint64) (*models.User, error) {
	user, err := s.userRepo.FindByID(id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to find user: %w", err)
	}

	return user, nil
}

// GetByUsername retrieves a user's public profile by username.
func (s *AuthService) GetByUsername(username string) (*models.User, error) {
	user, err := s.userRepo.FindByUsername(strings.TrimSpace(username))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to find user: %w", err)
	}

	return user, nil
}

// UpdateProfileInput lists the profile fields a user may change. Nil means
// unchanged. Username and password are not editable here.
type UpdateProfileInput struct {
	UserID        uint64
	Email         *string
	FullName      *string
	BirthMonth    *string
	BirthDay      *string
	BirthYear     *string
	Gender        *string
	SideMenuColor *string
	ThemeMode     *models.ThemeMode
}

// UpdateProfile applies the supplied profile fields to the user.
func (s *AuthService) UpdateProfile(input UpdateProfileInput) (*models.User, error) {
	user, err := s.GetUser(input.UserID)
	if err != nil {
		return nil, err
	}

	var fields []string
	if input.Email != nil {
		email := strings.ToLower(strings.TrimSpace(*input.Email))
		if email == "" {
			return nil, ErrEmailRequired
		}
		if email != user.Email {
			if taken, err := s.userRepo.EmailTakenByOther(email, user.ID); err != nil {
				return nil, fmt.Errorf("failed to check email: %w", err)
			} else if taken {
				return nil, ErrEmailTaken
			}
		}
		user.Email = email
		fields = append(fields, "Email")
	}
	if input.FullName != nil {
		fullName := strings.TrimSpace(*input.FullName)
		if fullName == "" {
			return nil, ErrFullNameRequired
		}
		user.FullName = fullName
		fields = append(fields, "FullName")
	}
	if input.ThemeMode != nil {
		if !input.ThemeMode.Valid() {
			return nil, ErrInvalidThemeMode
		}
		user.ThemeMode = *input.ThemeMode
		fields = append(fields, "ThemeMode")
	}
	if input.SideMenuColor != nil {
		user.SideMenuColor = strings.TrimSpace(*input.SideMenuColor)
		if user.SideMenuColor == "" {
			user.SideMenuColor = models.DefaultSideMenuColor
		}
		fields = append(fields, "SideMenuColor")
	}

	text := []struct {
		value *string
		dst   *string
		field string
	}{
		{input.BirthMonth, &user.BirthMonth, "BirthMonth"},
		{input.BirthDay, &user.BirthDay, "BirthDay"},
		{input.BirthYear, &user.BirthYear, "BirthYear"},
		{input.Gender, &user.Gender, "Gender"},
	}
	for _, f := range text {
		if f.value != nil {
			*f.dst = strings.TrimSpace(*f.value)
			fields = append(fields, f.field)
		}
	}

	if len(fields) == 0 {
		return user, nil
	}

	if err := s.userRepo.Update(user, fields...); err != nil {
		switch {
		case errors.Is(err, gorm.ErrDuplicatedKey):
			return nil, ErrEmailTaken
		case errors.Is(err, gorm.ErrRecordNotFound):
			return nil, ErrUserNotFound
		default:
			return nil, fmt.Errorf("failed to update profile: %w", err)
		}
	}

	return user, nil
}

// SearchUsers finds users by username or full name for collaborator pickers.
func (s *AuthService) SearchUsers(query string, params utils.PaginationParams) ([]models.User, int64, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return []models.User{}, 0, nil
	}

	users, total, err := s.userRepo.Search(query, params)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to search users: %w", err)
	}
	return users, total, nil
}
