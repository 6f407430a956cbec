package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/yukikurage/projecthub/internal/dto"
	apierrors "github.com/yukikurage/projecthub/internal/errors"
	"github.com/yukikurage/projecthub/internal/services"
)

type BoardHandler struct {
	boardService *services.BoardService
}

func NewBoardHandler(boardService *services.BoardService) *BoardHandler {
	return &BoardHandler{boardService: boardService}
}

// GetBoard lists the images pinned to a project board.
func (h *BoardHandler) GetBoard(c *gin.Context) {
	userID, ok := callerID(c)
	if !ok {
		return
	}
	projectID, ok := idParam(c, "id")
	if !ok {
		return
	}

	images, err := h.boardService.Get(projectID, userID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"images": dto.ToBoardImageDTOs(images)})
}

// AddImage records an already uploaded media reference on the board.
func (h *BoardHandler) AddImage(c *gin.Context) {
	userID, ok := callerID(c)
	if !ok {
		return
	}
	projectID, ok := idParam(c, "id")
	if !ok {
		return
	}

	type AddImageRequest struct {
		URL      string `json:"url" binding:"required,max=1024"`
		PublicID string `json:"public_id" binding:"required,max=255"`
	}

	var req AddImageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.BadRequest(c, "Invalid request body")
		return
	}

	image, err := h.boardService.AddImage(services.AddImageInput{
		ProjectID: projectID,
		CallerID:  userID,
		URL:       req.URL,
		PublicID:  req.PublicID,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, dto.ToBoardImageDTO(*image))
}

// DeleteImage removes an image from the board and its blob from media storage.
func (h *BoardHandler) DeleteImage(c *gin.Context) {
	userID, ok := callerID(c)
	if !ok {
		return
	}
	imageID, ok := idParam(c, "id")
	if !ok {
		return
	}

	if err := h.boardService.DeleteImage(c.Request.Context(), imageID, userID); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Image deleted successfully"})
}
