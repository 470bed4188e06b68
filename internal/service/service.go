// Package service holds the business rules of the blog: who may change
// what, how categories and posts are validated, and how listings are
// shaped. Services depend on repository interfaces so they can run against
// PostgreSQL in production and in-memory stores in tests.
package service

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"

	"inkpost/internal/apperr"
	"inkpost/internal/models"
	"inkpost/internal/store"
)

// UserRepository defines the user operations services need.
type UserRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.User, error)
	FindByEmail(ctx context.Context, email string) (*models.User, error)
	Create(ctx context.Context, name, email, password string, role models.Role) (*models.User, error)
}

// CategoryRepository defines the category operations services need.
type CategoryRepository interface {
	List(ctx context.Context) ([]models.Category, error)
	FindByID(ctx context.Context, id uuid.UUID) (*models.Category, error)
	FindBySlug(ctx context.Context, slug string) (*models.Category, error)
	FindByName(ctx context.Context, name string) (*models.Category, error)
	Create(ctx context.Context, c *models.Category) (*models.Category, error)
	Update(ctx context.Context, c *models.Category) (*models.Category, error)
	CountPosts(ctx context.Context, id uuid.UUID) (int, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

// PostRepository defines the post operations services need.
type PostRepository interface {
	List(ctx context.Context, q store.PostQuery) ([]models.Post, error)
	Count(ctx context.Context, f store.PostFilter) (int, error)
	FindByID(ctx context.Context, id uuid.UUID) (*models.Post, error)
	Create(ctx context.Context, p *models.Post) (*models.Post, error)
	Update(ctx context.Context, p *models.Post) (*models.Post, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

// CommentRepository defines the comment operations services need.
type CommentRepository interface {
	ListByPost(ctx context.Context, postID uuid.UUID) ([]models.Comment, error)
	Create(ctx context.Context, c *models.Comment) (*models.Comment, error)
}

// Authorizer decides whether identity may act on a record owned by owner.
type Authorizer interface {
	CanMutate(identity *models.Identity, owner uuid.UUID, action string) (bool, error)
}

// requireIdentity fails with Unauthenticated for anonymous callers.
func requireIdentity(identity *models.Identity) error {
	if identity == nil || identity.UserID == uuid.Nil {
		return apperr.Unauthenticatedf("not authorized to access this route")
	}
	return nil
}

// authorize applies the owner-or-admin rule and fails with Forbidden on
// denial.
func authorize(authz Authorizer, identity *models.Identity, owner uuid.UUID, action, noun string) error {
	if err := requireIdentity(identity); err != nil {
		return err
	}
	ok, err := authz.CanMutate(identity, owner, action)
	if err != nil {
		return apperr.InternalError(err)
	}
	if !ok {
		return apperr.Forbiddenf("not authorized to %s this %s", action, noun)
	}
	return nil
}

// parseID parses a record id, failing with BadRequest when malformed.
func parseID(raw, noun string) (uuid.UUID, error) {
	id, err := uuid.Parse(strings.TrimSpace(raw))
	if err != nil {
		return uuid.Nil, apperr.Wrap(apperr.BadRequest, err, "invalid "+noun+" id")
	}
	return id, nil
}

// storeError translates store sentinels into typed errors. Anything
// unrecognised becomes Internal.
func storeError(err error, notFound, conflict string) error {
	switch {
	case errors.Is(err, store.ErrNotFound):
		return apperr.Wrap(apperr.NotFound, err, notFound)
	case errors.Is(err, store.ErrDuplicate), errors.Is(err, store.ErrInUse):
		return apperr.Wrap(apperr.Conflict, err, conflict)
	case errors.Is(err, store.ErrInvalidReference):
		return apperr.Wrap(apperr.BadRequest, err, "referenced record does not exist")
	default:
		return apperr.InternalError(err)
	}
}
