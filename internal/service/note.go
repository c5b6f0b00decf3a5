package service

import (
	"context"
	"errors"

	"github.com/notevault/backend/internal/db"
	"github.com/notevault/backend/internal/model"
)

var (
	ErrNoteNotFound       = errors.New("note not found")
	ErrNotNoteOwner       = errors.New("not the note owner")
	ErrSummarizerDisabled = errors.New("summarizer not configured")
)

type NoteStore interface {
	CreateNote(ctx context.Context, ownerID int64, title, content string) (*model.Note, error)
	GetNoteByID(ctx context.Context, noteID int64) (*model.Note, error)
	ListNotesByOwner(ctx context.Context, ownerID int64) ([]model.Note, error)
	DeleteNote(ctx context.Context, noteID int64) error
}

type Summarizer interface {
	Summarize(ctx context.Context, text string) (string, error)
}

type NoteService struct {
	notes      NoteStore
	summarizer Summarizer
}

// NewNoteService accepts a nil summarizer; the summarize endpoint then
// reports it as unavailable instead of failing at startup.
func NewNoteService(notes NoteStore, summarizer Summarizer) *NoteService {
	return &NoteService{notes: notes, summarizer: summarizer}
}

func (s *NoteService) Create(ctx context.Context, ownerID int64, title, content string) (*model.Note, error) {
	return s.notes.CreateNote(ctx, ownerID, title, content)
}

func (s *NoteService) List(ctx context.Context, ownerID int64) ([]model.Note, error) {
	return s.notes.ListNotesByOwner(ctx, ownerID)
}

func (s *NoteService) Delete(ctx context.Context, requesterID, noteID int64) error {
	note, err := s.notes.GetNoteByID(ctx, noteID)
	if err != nil {
		if db.IsNoRows(err) {
			return ErrNoteNotFound
		}
		return err
	}

	if note.OwnerID != requesterID {
		return ErrNotNoteOwner
	}

	return s.notes.DeleteNote(ctx, noteID)
}

func (s *NoteService) Summarize(ctx context.Context, noteID int64) (string, error) {
	if s.summarizer == nil {
		return "", ErrSummarizerDisabled
	}

	note, err := s.notes.GetNoteByID(ctx, noteID)
	if err != nil {
		if db.IsNoRows(err) {
			return "", ErrNoteNotFound
		}
		return "", err
	}

	return s.summarizer.Summarize(ctx, note.Content)
}
