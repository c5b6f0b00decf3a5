package handler

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/notevault/backend/internal/model"
	"github.com/notevault/backend/internal/service"
)

type NoteHandler struct {
	svc *service.NoteService
}

func NewNoteHandler(svc *service.NoteService) *NoteHandler {
	return &NoteHandler{svc: svc}
}

// Create godoc
// @Summary Create a note
// @Tags notes
// @Accept json
// @Produce json
// @Security AccessToken
// @Param request body model.CreateNoteRequest true "Note payload"
// @Success 200 {object} model.NoteResponse
// @Failure 400 {object} model.ErrorResponse
// @Failure 401 {object} model.ErrorResponse
// @Failure 500 {object} model.ErrorResponse
// @Router /api/notes [post]
func (h *NoteHandler) Create(c *gin.Context) {
	authUser := GetAuthUser(c)
	if authUser == nil {
		c.JSON(http.StatusUnauthorized, model.ErrorResponse{Message: "Unauthorized"})
		return
	}

	var req model.CreateNoteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, model.ErrorResponse{Message: "Invalid request body"})
		return
	}

	note, err := h.svc.Create(c.Request.Context(), authUser.User.ID, req.Title, req.Content)
	if err != nil {
		writeNoteError(c, err)
		return
	}

	c.JSON(http.StatusOK, model.NoteResponse{Message: "Note created successfully", Note: note})
}

// List godoc
// @Summary List the caller's notes
// @Tags notes
// @Produce json
// @Security AccessToken
// @Success 200 {object} model.NoteListResponse
// @Failure 401 {object} model.ErrorResponse
// @Failure 500 {object} model.ErrorResponse
// @Router /api/notes [get]
func (h *NoteHandler) List(c *gin.Context) {
	authUser := GetAuthUser(c)
	if authUser == nil {
		c.JSON(http.StatusUnauthorized, model.ErrorResponse{Message: "Unauthorized"})
		return
	}

	notes, err := h.svc.List(c.Request.Context(), authUser.User.ID)
	if err != nil {
		writeNoteError(c, err)
		return
	}

	c.JSON(http.StatusOK, model.NoteListResponse{Notes: notes})
}

// Delete godoc
// @Summary Delete a note
// @Tags notes
// @Produce json
// @Security AccessToken
// @Param noteId path int true "Note ID"
// @Success 200 {object} model.MessageResponse
// @Failure 400 {object} model.ErrorResponse
// @Failure 401 {object} model.ErrorResponse
// @Failure 404 {object} model.ErrorResponse
// @Failure 500 {object} model.ErrorResponse
// @Router /api/notes/{noteId} [delete]
func (h *NoteHandler) Delete(c *gin.Context) {
	authUser := GetAuthUser(c)
	if authUser == nil {
		c.JSON(http.StatusUnauthorized, model.ErrorResponse{Message: "Unauthorized"})
		return
	}

	noteID, err := strconv.ParseInt(c.Param("noteId"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, model.ErrorResponse{Message: "Invalid note id"})
		return
	}

	if err := h.svc.Delete(c.Request.Context(), authUser.User.ID, noteID); err != nil {
		writeNoteError(c, err)
		return
	}

	c.JSON(http.StatusOK, model.MessageResponse{Message: "Note deleted successfully"})
}

// Summarize godoc
// @Summary Summarize a note
// @Tags notes
// @Produce json
// @Security AccessToken
// @Param noteId path int true "Note ID"
// @Success 200 {object} model.SummaryResponse
// @Failure 400 {object} model.ErrorResponse
// @Failure 404 {object} model.ErrorResponse
// @Failure 503 {object} model.ErrorResponse
// @Router /api/notes/{noteId}/summarize [post]
func (h *NoteHandler) Summarize(c *gin.Context) {
	noteID, err := strconv.ParseInt(c.Param("noteId"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, model.ErrorResponse{Message: "Invalid note id"})
		return
	}

	summary, err := h.svc.Summarize(c.Request.Context(), noteID)
	if err != nil {
		writeNoteError(c, err)
		return
	}

	c.JSON(http.StatusOK, model.SummaryResponse{Message: "Note summarized successfully", Summary: summary})
}

func writeNoteError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrNoteNotFound):
		c.JSON(http.StatusNotFound, model.ErrorResponse{Message: "Note not found"})
	case errors.Is(err, service.ErrNotNoteOwner):
		c.JSON(http.StatusUnauthorized, model.ErrorResponse{Message: "Unauthorized, you must be the note owner to perform this action"})
	case errors.Is(err, service.ErrSummarizerDisabled):
		c.JSON(http.StatusServiceUnavailable, model.ErrorResponse{Message: "Summarization is not available"})
	default:
		c.JSON(http.StatusInternalServerError, model.ErrorResponse{Message: "Something went wrong, please try again later"})
	}
}
