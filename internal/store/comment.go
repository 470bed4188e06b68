package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"

	"inkpost/internal/models"
)

// CommentStore handles comment persistence. Comments are append-only.
type CommentStore struct {
	db *sql.DB
}

// NewCommentStore creates a new CommentStore.
func NewCommentStore(db *sql.DB) *CommentStore {
	return &CommentStore{db: db}
}

func scanComment(scanner interface{ Scan(...any) error }) (*models.Comment, error) {
	var c models.Comment
	user := models.UserRef{}
	if err := scanner.Scan(
		&c.ID, &c.PostID, &c.UserID, &c.Text, &c.CreatedAt, &c.UpdatedAt, &user.Name,
	); err != nil {
		return nil, err
	}
	user.ID = c.UserID
	c.User = &user
	return &c, nil
}

// ListByPost returns the comments on a post, oldest first, with the
// commenter's name expanded.
func (s *CommentStore) ListByPost(ctx context.Context, postID uuid.UUID) ([]models.Comment, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT c.id, c.post_id, c.user_id, c.text, c.created_at, c.updated_at, u.name
		FROM comments c
		JOIN users u ON u.id = c.user_id
		WHERE c.post_id = $1
		ORDER BY c.created_at, c.id
	`, postID)
	if err != nil {
		return nil, fmt.Errorf("list comments: %w", err)
	}
	defer rows.Close()

	comments := []models.Comment{}
	for rows.Next() {
		c, err := scanComment(rows)
		if err != nil {
			return nil, fmt.Errorf("scan comment: %w", err)
		}
		comments = append(comments, *c)
	}
	return comments, rows.Err()
}

// Create inserts a comment and returns it with the commenter expanded. A
// missing post yields ErrInvalidReference.
func (s *CommentStore) Create(ctx context.Context, c *models.Comment) (*models.Comment, error) {
	row := s.db.QueryRowContext(ctx, `
		WITH ins AS (
			INSERT INTO comments (post_id, user_id, text)
			VALUES ($1, $2, $3)
			RETURNING id, post_id, user_id, text, created_at, updated_at
		)
		SELECT ins.id, ins.post_id, ins.user_id, ins.text, ins.created_at, ins.updated_at, u.name
		FROM ins JOIN users u ON u.id = ins.user_id
	`, c.PostID, c.UserID, c.Text)
	created, err := scanComment(row)
	if err != nil {
		return nil, fmt.Errorf("create comment: %w", mapConstraint(err))
	}
	return created, nil
}
