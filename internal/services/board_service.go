package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/yukikurage/projecthub/internal/access"
	"github.com/yukikurage/projecthub/internal/models"
	"github.com/yukikurage/projecthub/internal/repository"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// BoardService manages the media references pinned to a project's board.
type BoardService struct {
	boardRepo repository.BoardRepository
	projects  ProjectAuthorizer
	media     MediaStore
	logger    *zap.Logger
}

// NewBoardService creates a new BoardService.
func NewBoardService(boardRepo repository.BoardRepository, projects ProjectAuthorizer, media MediaStore, logger *zap.Logger) *BoardService {
	return &BoardService{
		boardRepo: boardRepo,
		projects:  projects,
		media:     media,
		logger:    logger,
	}
}

// Get lists the board images of a project.
func (s *BoardService) Get(projectID, callerID uint64) ([]models.BoardImage, error) {
	if _, err := s.projects.Authorize(projectID, callerID, access.Read); err != nil {
		return nil, err
	}

	images, err := s.boardRepo.ListByProject(projectID)
	if err != nil {
		return nil, fmt.Errorf("failed to list board images: %w", err)
	}
	return images, nil
}

// AddImageInput references a blob already uploaded to media storage.
type AddImageInput struct {
	ProjectID uint64
	CallerID  uint64
	URL       string
	PublicID  string
}

// AddImage pins an uploaded image to the board.
func (s *BoardService) AddImage(input AddImageInput) (*models.BoardImage, error) {
	url := strings.TrimSpace(input.URL)
	publicID := strings.TrimSpace(input.PublicID)
	if url == "" || publicID == "" {
		return nil, ErrInvalidBoardImage
	}

	if _, err := s.projects.Authorize(input.ProjectID, input.CallerID, access.Write); err != nil {
		return nil, err
	}

	image := &models.BoardImage{
		ProjectID:  input.ProjectID,
		URL:        url,
		PublicID:   publicID,
		UploadedBy: input.CallerID,
	}
	if err := s.boardRepo.Create(image); err != nil {
		return nil, fmt.Errorf("failed to add board image: %w", err)
	}
	return image, nil
}

// DeleteImage unpins an image and destroys its blob. A failed destroy is
// logged and leaves the blob for the storage sweep.
func (s *BoardService) DeleteImage(ctx context.Context, imageID, callerID uint64) error {
	image, err := s.boardRepo.FindByID(imageID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrBoardImageNotFound
		}
		return fmt.Errorf("failed to find board image: %w", err)
	}

	if _, err := s.projects.Authorize(image.ProjectID, callerID, access.Write); err != nil {
		return err
	}

	if err := s.boardRepo.Delete(imageID); err != nil {
		return fmt.Errorf("failed to delete board image: %w", err)
	}

	if err := s.media.Destroy(ctx, image.PublicID); err != nil {
		s.logger.Warn("failed to destroy board media",
			zap.Uint64("image_id", image.ID),
			zap.String("public_id", image.PublicID),
			zap.Error(err))
	}
	return nil
}
