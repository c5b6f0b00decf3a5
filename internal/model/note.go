package model

import "time"

type Note struct {
	ID        int64     `json:"id"`
	Title     string    `json:"title"`
	Content   string    `json:"content"`
	OwnerID   int64     `json:"ownerId"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

type CreateNoteRequest struct {
	Title   string `json:"title" binding:"required"`
	Content string `json:"content" binding:"required"`
}

type NoteResponse struct {
	Message string `json:"message"`
	Note    *Note  `json:"note,omitempty"`
}

type NoteListResponse struct {
	Notes []Note `json:"notes"`
}

type SummaryResponse struct {
	Message string `json:"message"`
	Summary string `json:"summary"`
}
