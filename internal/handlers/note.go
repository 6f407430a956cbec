package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/yukikurage/projecthub/internal/dto"
	apierrors "github.com/yukikurage/projecthub/internal/errors"
	"github.com/yukikurage/projecthub/internal/services"
)

type NoteHandler struct {
	noteService *services.NoteService
}

func NewNoteHandler(noteService *services.NoteService) *NoteHandler {
	return &NoteHandler{noteService: noteService}
}

// GetNote returns the project's note, creating an empty one on first read.
func (h *NoteHandler) GetNote(c *gin.Context) {
	userID, ok := callerID(c)
	if !ok {
		return
	}
	projectID, ok := idParam(c, "id")
	if !ok {
		return
	}

	note, err := h.noteService.Get(projectID, userID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.ToNoteDTO(*note))
}

// SaveNote replaces the note content.
func (h *NoteHandler) SaveNote(c *gin.Context) {
	userID, ok := callerID(c)
	if !ok {
		return
	}
	projectID, ok := idParam(c, "id")
	if !ok {
		return
	}

	type SaveNoteRequest struct {
		Content *string `json:"content" binding:"required"`
	}

	var req SaveNoteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.BadRequest(c, "Invalid request body")
		return
	}

	note, err := h.noteService.Save(projectID, userID, *req.Content)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.ToNoteDTO(*note))
}

// DeleteNote deletes a note. Owner only.
func (h *NoteHandler) DeleteNote(c *gin.Context) {
	userID, ok := callerID(c)
	if !ok {
		return
	}
	noteID, ok := idParam(c, "id")
	if !ok {
		return
	}

	if err := h.noteService.Delete(noteID, userID); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Note deleted successfully"})
}
