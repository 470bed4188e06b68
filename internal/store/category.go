// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"inkpost/internal/models"
)

// CategoryStore manages categories in the database.
type CategoryStore struct {
	db *sql.DB
}

// NewCategoryStore returns a new CategoryStore.
func NewCategoryStore(db *sql.DB) *CategoryStore {
	return &CategoryStore{db: db}
}

// categorySelect reads a category with its owner expanded and the number of
// posts referencing it.
const categorySelect = `
	SELECT c.id, c.name, c.slug, c.description, c.owner_id,
	       c.created_at, c.updated_at,
	       u.name, u.email,
	       (SELECT COUNT(*) FROM post_categories pc WHERE pc.category_id = c.id)
	FROM categories c
	JOIN users u ON u.id = c.owner_id`

// scanCategory scans a categorySelect row into a Category struct.
func scanCategory(scanner interface{ Scan(...any) error }) (*models.Category, error) {
	var c models.Category
	owner := models.UserRef{}
	err := scanner.Scan(
		&c.ID, &c.Name, &c.Slug, &c.Description, &c.OwnerID,
		&c.CreatedAt, &c.UpdatedAt,
		&owner.Name, &owner.Email,
		&c.PostCount,
	)
	if err != nil {
		return nil, err
	}
	owner.ID = c.OwnerID
	c.Owner = &owner
	return &c, nil
}

// List returns all categories, newest first, with owners and post counts.
func (s *CategoryStore) List(ctx context.Context) ([]models.Category, error) {
	rows, err := s.db.QueryContext(ctx, categorySelect+` ORDER BY c.created_at DESC, c.id`)
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	defer rows.Close()

	items := []models.Category{}
	for rows.Next() {
		c, err := scanCategory(rows)
		if err != nil {
			return nil, fmt.Errorf("scan category: %w", err)
		}
		items = append(items, *c)
	}
	return items, rows.Err()
}

func (s *CategoryStore) findOne(ctx context.Context, where string, arg any) (*models.Category, error) {
	row := s.db.QueryRowContext(ctx, categorySelect+` WHERE `+where, arg)
	c, err := scanCategory(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	return c, err
}

// FindByID retrieves a category by ID. Returns nil if not found.
func (s *CategoryStore) FindByID(ctx context.Context, id uuid.UUID) (*models.Category, error) {
	c, err := s.findOne(ctx, `c.id = $1`, id)
	if err != nil {
		return nil, fmt.Errorf("find category by id: %w", err)
	}
	return c, nil
}

// FindBySlug retrieves a category by slug. Returns nil if not found.
func (s *CategoryStore) FindBySlug(ctx context.Context, slug string) (*models.Category, error) {
	c, err := s.findOne(ctx, `c.slug = $1`, slug)
	if err != nil {
		return nil, fmt.Errorf("find category by slug: %w", err)
	}
	return c, nil
}

// FindByName retrieves a category by exact name. Returns nil if not found.
func (s *CategoryStore) FindByName(ctx context.Context, name string) (*models.Category, error) {
	c, err := s.findOne(ctx, `c.name = $1`, name)
	if err != nil {
		return nil, fmt.Errorf("find category by name: %w", err)
	}
	return c, nil
}

// Create inserts a new category and returns it with the owner expanded.
// A name or slug collision yields ErrDuplicate.
func (s *CategoryStore) Create(ctx context.Context, c *models.Category) (*models.Category, error) {
	var id uuid.UUID
	err := s.db.QueryRowContext(ctx, `
		INSERT INTO categories (name, slug, description, owner_id)
		VALUES ($1, $2, $3, $4)
		RETURNING id`,
		c.Name, c.Slug, c.Description, c.OwnerID,
	).Scan(&id)
	if err != nil {
		return nil, fmt.Errorf("create category: %w", mapConstraint(err))
	}
	return s.FindByID(ctx, id)
}

// Update saves name, slug and description. Returns ErrNotFound when the
// category no longer exists and ErrDuplicate on a name or slug collision.
func (s *CategoryStore) Update(ctx context.Context, c *models.Category) (*models.Category, error) {
	res, err := s.db.ExecContext(ctx, `
		UPDATE categories SET
			name = $1, slug = $2, description = $3, updated_at = NOW()
		WHERE id = $4
	`, c.Name, c.Slug, c.Description, c.ID)
	if err != nil {
		return nil, fmt.Errorf("update category: %w", mapConstraint(err))
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return nil, fmt.Errorf("update category: %w", ErrNotFound)
	}
	return s.FindByID(ctx, c.ID)
}

// CountPosts returns the number of posts whose category set contains id.
func (s *CategoryStore) CountPosts(ctx context.Context, id uuid.UUID) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM post_categories WHERE category_id = $1`, id,
	).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count category posts: %w", err)
	}
	return n, nil
}

// Delete removes a category that no post references. The category row is
// locked for the duration of the transaction and the reference count is
// taken under that lock; ErrInUse is returned if any post still points at
// it. Posts linked to the category are removed before the category itself,
// which is a no-op once the count is zero.
func (s *CategoryStore) Delete(ctx context.Context, id uuid.UUID) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	var locked uuid.UUID
	err = tx.QueryRowContext(ctx, `SELECT id FROM categories WHERE id = $1 FOR UPDATE`, id).Scan(&locked)
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("delete category: %w", ErrNotFound)
	}
	if err != nil {
		return fmt.Errorf("lock category: %w", err)
	}

	var refs int
	if err := tx.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM post_categories WHERE category_id = $1`, id,
	).Scan(&refs); err != nil {
		return fmt.Errorf("count category posts: %w", err)
	}
	if refs > 0 {
		return fmt.Errorf("delete category: %w", ErrInUse)
	}

	if _, err := tx.ExecContext(ctx, `
		DELETE FROM posts
		WHERE id IN (SELECT post_id FROM post_categories WHERE category_id = $1)
	`, id); err != nil {
		return fmt.Errorf("delete category posts: %w", err)
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM categories WHERE id = $1`, id); err != nil {
		if errors.Is(mapConstraint(err), ErrInvalidReference) {
			return fmt.Errorf("delete category: %w", ErrInUse)
		}
		return fmt.Errorf("delete category: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit delete category: %w", err)
	}
	return nil
}
