package service

import (
	"context"
	"strings"

	"github.com/google/uuid"

	"inkpost/internal/apperr"
	"inkpost/internal/authz"
	"inkpost/internal/models"
	"inkpost/internal/slug"
)

// CategoryInput carries the fields of a new category.
type CategoryInput struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

// CategoryPatch carries the fields of a category update. Nil fields are
// left unchanged.
type CategoryPatch struct {
	Name        *string `json:"name"`
	Description *string `json:"description"`
}

// categoryFields are the validated fields of a category after a create or
// a merged update.
type categoryFields struct {
	Name        string `json:"name" validate:"required,max=50"`
	Description string `json:"description" validate:"max=500"`
}

// CategoryService implements category management.
type CategoryService struct {
	categories CategoryRepository
	authz      Authorizer
}

// NewCategoryService creates a CategoryService.
func NewCategoryService(categories CategoryRepository, authz Authorizer) *CategoryService {
	return &CategoryService{categories: categories, authz: authz}
}

// List returns every category, newest first, with owners expanded.
func (s *CategoryService) List(ctx context.Context) ([]models.Category, error) {
	items, err := s.categories.List(ctx)
	if err != nil {
		return nil, apperr.InternalError(err)
	}
	return items, nil
}

// Get resolves a category by id, or by slug when idOrSlug is not an id.
func (s *CategoryService) Get(ctx context.Context, idOrSlug string) (*models.Category, error) {
	idOrSlug = strings.TrimSpace(idOrSlug)

	var (
		c   *models.Category
		err error
	)
	if id, perr := uuid.Parse(idOrSlug); perr == nil {
		c, err = s.categories.FindByID(ctx, id)
	} else {
		c, err = s.categories.FindBySlug(ctx, idOrSlug)
	}
	if err != nil {
		return nil, apperr.InternalError(err)
	}
	if c == nil {
		return nil, apperr.NotFoundf("category not found with id of %s", idOrSlug)
	}
	return c, nil
}

// Create adds a category owned by the caller. Names are unique by exact
// match; the slug is derived from the name.
func (s *CategoryService) Create(ctx context.Context, identity *models.Identity, in CategoryInput) (*models.Category, error) {
	if err := requireIdentity(identity); err != nil {
		return nil, err
	}

	fields := categoryFields{
		Name:        strings.TrimSpace(in.Name),
		Description: strings.TrimSpace(in.Description),
	}
	if err := check(fields); err != nil {
		return nil, err
	}

	if err := s.ensureNameFree(ctx, fields.Name, uuid.Nil); err != nil {
		return nil, err
	}

	slugValue, err := categorySlug(fields.Name)
	if err != nil {
		return nil, err
	}

	created, err := s.categories.Create(ctx, &models.Category{
		Name:        fields.Name,
		Slug:        slugValue,
		Description: fields.Description,
		OwnerID:     identity.UserID,
	})
	if err != nil {
		return nil, storeError(err, "category not found", "a category with this name or slug already exists")
	}
	return created, nil
}

// Update changes a category the caller owns, or any category for admins.
// Renaming re-checks uniqueness and recomputes the slug.
func (s *CategoryService) Update(ctx context.Context, identity *models.Identity, rawID string, patch CategoryPatch) (*models.Category, error) {
	if err := requireIdentity(identity); err != nil {
		return nil, err
	}
	id, err := parseID(rawID, "category")
	if err != nil {
		return nil, err
	}

	c, err := s.categories.FindByID(ctx, id)
	if err != nil {
		return nil, apperr.InternalError(err)
	}
	if c == nil {
		return nil, apperr.NotFoundf("category not found with id of %s", rawID)
	}

	if err := authorize(s.authz, identity, c.OwnerID, authz.ActionUpdate, "category"); err != nil {
		return nil, err
	}

	fields := categoryFields{Name: c.Name, Description: c.Description}
	if patch.Name != nil {
		fields.Name = strings.TrimSpace(*patch.Name)
	}
	if patch.Description != nil {
		fields.Description = strings.TrimSpace(*patch.Description)
	}
	if err := check(fields); err != nil {
		return nil, err
	}

	if fields.Name != c.Name {
		if err := s.ensureNameFree(ctx, fields.Name, c.ID); err != nil {
			return nil, err
		}
		if c.Slug, err = categorySlug(fields.Name); err != nil {
			return nil, err
		}
		c.Name = fields.Name
	}
	c.Description = fields.Description

	updated, err := s.categories.Update(ctx, c)
	if err != nil {
		return nil, storeError(err, "category not found", "a category with this name or slug already exists")
	}
	return updated, nil
}

// Delete removes a category the caller owns, or any category for admins,
// provided no post references it.
func (s *CategoryService) Delete(ctx context.Context, identity *models.Identity, rawID string) error {
	if err := requireIdentity(identity); err != nil {
		return err
	}
	id, err := parseID(rawID, "category")
	if err != nil {
		return err
	}

	c, err := s.categories.FindByID(ctx, id)
	if err != nil {
		return apperr.InternalError(err)
	}
	if c == nil {
		return apperr.NotFoundf("category not found with id of %s", rawID)
	}

	if err := authorize(s.authz, identity, c.OwnerID, authz.ActionDelete, "category"); err != nil {
		return err
	}

	n, err := s.categories.CountPosts(ctx, id)
	if err != nil {
		return apperr.InternalError(err)
	}
	if n > 0 {
		return apperr.Conflictf("cannot delete category with existing posts")
	}

	// The store re-checks under a row lock, so a post added since the count
	// still yields a conflict.
	if err := s.categories.Delete(ctx, id); err != nil {
		return storeError(err, "category not found", "cannot delete category with existing posts")
	}
	return nil
}

// ensureNameFree fails with Conflict when another category (not self)
// already uses name.
func (s *CategoryService) ensureNameFree(ctx context.Context, name string, self uuid.UUID) error {
	existing, err := s.categories.FindByName(ctx, name)
	if err != nil {
		return apperr.InternalError(err)
	}
	if existing != nil && existing.ID != self {
		return apperr.Conflictf("category with name %q already exists", name)
	}
	return nil
}

func categorySlug(name string) (string, error) {
	s := slug.Generate(name)
	if s == "" {
		return "", apperr.BadRequestf("name must contain at least one letter or digit")
	}
	return s, nil
}
