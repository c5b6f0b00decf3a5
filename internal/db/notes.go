package db

import (
	"context"

	"github.com/notevault/backend/internal/model"
)

func (db *Postgres) CreateNote(ctx context.Context, ownerID int64, title, content string) (*model.Note, error) {
	query := `
		INSERT INTO notes (title, content, owner_id, created_at, updated_at)
		VALUES ($1, $2, $3, NOW(), NOW())
		RETURNING id, title, content, owner_id, created_at, updated_at
	`
	var note model.Note
	err := db.Pool.QueryRow(ctx, query, title, content, ownerID).Scan(
		&note.ID,
		&note.Title,
		&note.Content,
		&note.OwnerID,
		&note.CreatedAt,
		&note.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &note, nil
}

func (db *Postgres) GetNoteByID(ctx context.Context, noteID int64) (*model.Note, error) {
	query := `
		SELECT id, title, content, owner_id, created_at, updated_at
		FROM notes
		WHERE id = $1
	`
	var note model.Note
	err := db.Pool.QueryRow(ctx, query, noteID).Scan(
		&note.ID,
		&note.Title,
		&note.Content,
		&note.OwnerID,
		&note.CreatedAt,
		&note.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &note, nil
}

func (db *Postgres) ListNotesByOwner(ctx context.Context, ownerID int64) ([]model.Note, error) {
	query := `
		SELECT id, title, content, owner_id, created_at, updated_at
		FROM notes
		WHERE owner_id = $1
		ORDER BY created_at DESC
	`
	rows, err := db.Pool.Query(ctx, query, ownerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	notes := make([]model.Note, 0)
	for rows.Next() {
		var note model.Note
		if err := rows.Scan(
			&note.ID,
			&note.Title,
			&note.Content,
			&note.OwnerID,
			&note.CreatedAt,
			&note.UpdatedAt,
		); err != nil {
			return nil, err
		}
		notes = append(notes, note)
	}
	return notes, rows.Err()
}

func (db *Postgres) DeleteNote(ctx context.Context, noteID int64) error {
	_, err := db.Pool.Exec(ctx, `DELETE FROM notes WHERE id = $1`, noteID)
	return err
}
