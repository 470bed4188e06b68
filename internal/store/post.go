// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/google/uuid"

	"inkpost/internal/models"
)

// PostFilter narrows a post listing. Nil fields do not filter.
type PostFilter struct {
	AuthorID   *uuid.UUID
	CategoryID *uuid.UUID
}

// SortField is one ordering term of a post listing.
type SortField struct {
	Field string // createdAt, updatedAt or title
	Desc  bool
}

// PostQuery describes one page of a post listing.
type PostQuery struct {
	Filter PostFilter
	Sort   []SortField
	Limit  int
	Offset int
}

// sortColumns whitelists the sortable fields.
var sortColumns = map[string]string{
	"createdAt": "p.created_at",
	"updatedAt": "p.updated_at",
	"title":     "p.title",
}

// IsSortable reports whether field can be used in a SortField.
func IsSortable(field string) bool {
	_, ok := sortColumns[field]
	return ok
}

// PostStore handles all post-related database operations.
type PostStore struct {
	db *sql.DB
}

// NewPostStore creates a new PostStore with the given database connection.
func NewPostStore(db *sql.DB) *PostStore {
	return &PostStore{db: db}
}

const postSelect = `
	SELECT p.id, p.title, p.content, p.excerpt, p.featured_image, p.author_id,
	       p.created_at, p.updated_at, u.name, u.email
	FROM posts p
	JOIN users u ON u.id = p.author_id`

func scanPost(scanner interface{ Scan(...any) error }) (*models.Post, error) {
	var p models.Post
	author := models.UserRef{}
	err := scanner.Scan(
		&p.ID, &p.Title, &p.Content, &p.Excerpt, &p.FeaturedImage, &p.AuthorID,
		&p.CreatedAt, &p.UpdatedAt, &author.Name, &author.Email,
	)
	if err != nil {
		return nil, err
	}
	author.ID = p.AuthorID
	p.Author = &author
	p.Categories = []models.CategoryRef{}
	p.CategoryIDs = []uuid.UUID{}
	p.Comments = []uuid.UUID{}
	return &p, nil
}

// whereClause renders f as a WHERE clause with positional arguments.
func (f PostFilter) whereClause() (string, []any) {
	var conds []string
	var args []any
	if f.AuthorID != nil {
		args = append(args, *f.AuthorID)
		conds = append(conds, "p.author_id = $"+strconv.Itoa(len(args)))
	}
	if f.CategoryID != nil {
		args = append(args, *f.CategoryID)
		conds = append(conds, `EXISTS (
			SELECT 1 FROM post_categories pc
			WHERE pc.post_id = p.id AND pc.category_id = $`+strconv.Itoa(len(args))+`)`)
	}
	if len(conds) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(conds, " AND "), args
}

// orderClause renders the sort terms. Newest first is the default and id
// breaks ties so pages are stable.
func orderClause(sort []SortField) (string, error) {
	if len(sort) == 0 {
		return " ORDER BY p.created_at DESC, p.id", nil
	}
	terms := make([]string, 0, len(sort)+1)
	for _, f := range sort {
		col, ok := sortColumns[f.Field]
		if !ok {
			return "", fmt.Errorf("unknown sort field %q", f.Field)
		}
		if f.Desc {
			col += " DESC"
		}
		terms = append(terms, col)
	}
	terms = append(terms, "p.id")
	return " ORDER BY " + strings.Join(terms, ", "), nil
}

// List returns one page of posts with authors, categories and comment ids
// expanded.
func (s *PostStore) List(ctx context.Context, q PostQuery) ([]models.Post, error) {
	where, args := q.Filter.whereClause()
	order, err := orderClause(q.Sort)
	if err != nil {
		return nil, fmt.Errorf("list posts: %w", err)
	}

	query := postSelect + where + order
	if q.Limit > 0 {
		args = append(args, q.Limit)
		query += " LIMIT $" + strconv.Itoa(len(args))
	}
	if q.Offset > 0 {
		args = append(args, q.Offset)
		query += " OFFSET $" + strconv.Itoa(len(args))
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list posts: %w", err)
	}
	defer rows.Close()

	posts := []models.Post{}
	for rows.Next() {
		p, err := scanPost(rows)
		if err != nil {
			return nil, fmt.Errorf("scan post: %w", err)
		}
		posts = append(posts, *p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list posts: %w", err)
	}

	if err := s.expand(ctx, posts); err != nil {
		return nil, err
	}
	return posts, nil
}

// Count returns the number of posts matching f.
func (s *PostStore) Count(ctx context.Context, f PostFilter) (int, error) {
	where, args := f.whereClause()
	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM posts p`+where, args...).Scan(&n); err != nil {
		return 0, fmt.Errorf("count posts: %w", err)
	}
	return n, nil
}

// FindByID retrieves a post with its references expanded. Returns nil if
// not found.
func (s *PostStore) FindByID(ctx context.Context, id uuid.UUID) (*models.Post, error) {
	p, err := scanPost(s.db.QueryRowContext(ctx, postSelect+` WHERE p.id = $1`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find post by id: %w", err)
	}

	posts := []models.Post{*p}
	if err := s.expand(ctx, posts); err != nil {
		return nil, err
	}
	return &posts[0], nil
}

// expand loads category references and comment ids for posts in two
// queries, regardless of how many posts there are.
func (s *PostStore) expand(ctx context.Context, posts []models.Post) error {
	if len(posts) == 0 {
		return nil
	}
	index := make(map[uuid.UUID]int, len(posts))
	ids := make([]uuid.UUID, len(posts))
	for i, p := range posts {
		index[p.ID] = i
		ids[i] = p.ID
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT pc.post_id, c.id, c.name, c.slug
		FROM post_categories pc
		JOIN categories c ON c.id = pc.category_id
		WHERE pc.post_id = ANY($1::uuid[])
		ORDER BY c.name`, uuidStrings(ids))
	if err != nil {
		return fmt.Errorf("load post categories: %w", err)
	}
	for rows.Next() {
		var postID uuid.UUID
		var ref models.CategoryRef
		if err := rows.Scan(&postID, &ref.ID, &ref.Name, &ref.Slug); err != nil {
			rows.Close()
			return fmt.Errorf("scan post category: %w", err)
		}
		p := &posts[index[postID]]
		p.Categories = append(p.Categories, ref)
		p.CategoryIDs = append(p.CategoryIDs, ref.ID)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return fmt.Errorf("load post categories: %w", err)
	}

	rows, err = s.db.QueryContext(ctx, `
		SELECT post_id, id FROM comments
		WHERE post_id = ANY($1::uuid[])
		ORDER BY created_at, id`, uuidStrings(ids))
	if err != nil {
		return fmt.Errorf("load post comments: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var postID, commentID uuid.UUID
		if err := rows.Scan(&postID, &commentID); err != nil {
			return fmt.Errorf("scan post comment: %w", err)
		}
		p := &posts[index[postID]]
		p.Comments = append(p.Comments, commentID)
	}
	return rows.Err()
}

// Create inserts a post and its category links in one transaction and
// returns the expanded record. An unknown category id yields
// ErrInvalidReference.
func (s *PostStore) Create(ctx context.Context, p *models.Post) (*models.Post, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	var id uuid.UUID
	err = tx.QueryRowContext(ctx, `
		INSERT INTO posts (title, content, excerpt, featured_image, author_id)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id`,
		p.Title, p.Content, p.Excerpt, p.FeaturedImage, p.AuthorID,
	).Scan(&id)
	if err != nil {
		return nil, fmt.Errorf("create post: %w", mapConstraint(err))
	}

	if err := linkCategories(ctx, tx, id, p.CategoryIDs); err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit create post: %w", err)
	}
	return s.FindByID(ctx, id)
}

// Update saves the editable fields and replaces the category set. The
// author is never written.
func (s *PostStore) Update(ctx context.Context, p *models.Post) (*models.Post, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx, `
		UPDATE posts SET
			title = $1, content = $2, excerpt = $3, featured_image = $4,
			updated_at = NOW()
		WHERE id = $5
	`, p.Title, p.Content, p.Excerpt, p.FeaturedImage, p.ID)
	if err != nil {
		return nil, fmt.Errorf("update post: %w", mapConstraint(err))
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return nil, fmt.Errorf("update post: %w", ErrNotFound)
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM post_categories WHERE post_id = $1`, p.ID); err != nil {
		return nil, fmt.Errorf("clear post categories: %w", err)
	}
	if err := linkCategories(ctx, tx, p.ID, p.CategoryIDs); err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit update post: %w", err)
	}
	return s.FindByID(ctx, p.ID)
}

func linkCategories(ctx context.Context, tx *sql.Tx, postID uuid.UUID, categoryIDs []uuid.UUID) error {
	if len(categoryIDs) == 0 {
		return nil
	}
	_, err := tx.ExecContext(ctx, `
		INSERT INTO post_categories (post_id, category_id)
		SELECT $1, unnest($2::uuid[])
		ON CONFLICT DO NOTHING`, postID, uuidStrings(categoryIDs))
	if err != nil {
		return fmt.Errorf("link post categories: %w", mapConstraint(err))
	}
	return nil
}

// Delete removes a post. Comments and category links cascade.
func (s *PostStore) Delete(ctx context.Context, id uuid.UUID) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM posts WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete post: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("delete post: %w", ErrNotFound)
	}
	return nil
}
