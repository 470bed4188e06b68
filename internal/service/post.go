package service

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"github.com/microcosm-cc/bluemonday"

	"inkpost/internal/apperr"
	"inkpost/internal/authz"
	"inkpost/internal/models"
	"inkpost/internal/store"
)

// UnknownCategory is reported by ListByCategory when the category no
// longer exists.
const UnknownCategory = "Unknown"

// PostInput carries the fields of a new post.
type PostInput struct {
	Title         string   `json:"title"`
	Content       string   `json:"content"`
	Excerpt       *string  `json:"excerpt"`
	FeaturedImage *string  `json:"featuredImage"`
	Categories    []string `json:"categories"`
}

// PostPatch carries the fields of a post update. Nil fields are left
// unchanged. The author cannot be patched.
type PostPatch struct {
	Title         *string   `json:"title"`
	Content       *string   `json:"content"`
	Excerpt       *string   `json:"excerpt"`
	FeaturedImage *string   `json:"featuredImage"`
	Categories    *[]string `json:"categories"`
}

// postFields are the validated fields of a post after a create or a merged
// update.
type postFields struct {
	Title         string `json:"title" validate:"required,max=100"`
	Content       string `json:"content" validate:"required"`
	FeaturedImage string `json:"featuredImage" validate:"max=500"`
}

// PostPage is one page of a post listing.
type PostPage struct {
	Posts      []models.Post
	Pagination Pagination
}

// PostService implements post queries and mutations.
type PostService struct {
	posts      PostRepository
	categories CategoryRepository
	authz      Authorizer
	content    *bluemonday.Policy
	plain      *bluemonday.Policy
}

// NewPostService creates a PostService. Post bodies carrying markup are
// sanitized with a user-generated-content policy; plain text bodies are kept
// as written. Excerpts are plain text.
func NewPostService(posts PostRepository, categories CategoryRepository, authz Authorizer) *PostService {
	return &PostService{
		posts:      posts,
		categories: categories,
		authz:      authz,
		content:    bluemonday.UGCPolicy(),
		plain:      bluemonday.StrictPolicy(),
	}
}

// List returns one page of posts. Invalid page or limit values fall back to
// the defaults; unknown sort fields and malformed filter ids are rejected.
func (s *PostService) List(ctx context.Context, p ListParams) (*PostPage, error) {
	page, limit := parsePaging(p)
	sort, err := parseSort(p.Sort)
	if err != nil {
		return nil, err
	}
	filter, err := parseFilter(p)
	if err != nil {
		return nil, err
	}

	total, err := s.posts.Count(ctx, filter)
	if err != nil {
		return nil, apperr.InternalError(err)
	}

	posts, err := s.posts.List(ctx, store.PostQuery{
		Filter: filter,
		Sort:   sort,
		Limit:  limit,
		Offset: (page - 1) * limit,
	})
	if err != nil {
		return nil, apperr.InternalError(err)
	}

	return &PostPage{Posts: posts, Pagination: NewPagination(total, page, limit)}, nil
}

// Get returns a single post with its references expanded.
func (s *PostService) Get(ctx context.Context, rawID string) (*models.Post, error) {
	id, err := parseID(rawID, "post")
	if err != nil {
		return nil, err
	}
	return s.find(ctx, id, rawID)
}

// ListByCategory returns every post in a category, newest first, and the
// category's name. The id is validated before any query runs.
func (s *PostService) ListByCategory(ctx context.Context, rawID string) ([]models.Post, string, error) {
	id, err := parseID(rawID, "category")
	if err != nil {
		return nil, "", err
	}

	posts, err := s.posts.List(ctx, store.PostQuery{
		Filter: store.PostFilter{CategoryID: &id},
		Sort:   []store.SortField{{Field: "createdAt", Desc: true}},
	})
	if err != nil {
		return nil, "", apperr.InternalError(err)
	}

	name := UnknownCategory
	c, err := s.categories.FindByID(ctx, id)
	if err != nil {
		return nil, "", apperr.InternalError(err)
	}
	if c != nil {
		name = c.Name
	}
	return posts, name, nil
}

// Create adds a post authored by the caller.
func (s *PostService) Create(ctx context.Context, identity *models.Identity, in PostInput) (*models.Post, error) {
	if err := requireIdentity(identity); err != nil {
		return nil, err
	}

	fields := postFields{
		Title:         strings.TrimSpace(in.Title),
		Content:       strings.TrimSpace(in.Content),
		FeaturedImage: models.DefaultFeaturedImage,
	}
	if in.FeaturedImage != nil && strings.TrimSpace(*in.FeaturedImage) != "" {
		fields.FeaturedImage = strings.TrimSpace(*in.FeaturedImage)
	}
	if err := s.cleanContent(&fields); err != nil {
		return nil, err
	}

	categoryIDs, err := parseCategoryIDs(in.Categories)
	if err != nil {
		return nil, err
	}

	post := &models.Post{
		Title:         fields.Title,
		Content:       fields.Content,
		Excerpt:       s.excerpt(fields.Content, in.Excerpt),
		FeaturedImage: fields.FeaturedImage,
		AuthorID:      identity.UserID,
		CategoryIDs:   categoryIDs,
	}

	created, err := s.posts.Create(ctx, post)
	if err != nil {
		return nil, postStoreError(err)
	}
	return created, nil
}

// Update changes a post the caller authored, or any post for admins. A
// content change without an explicit excerpt re-derives the excerpt.
func (s *PostService) Update(ctx context.Context, identity *models.Identity, rawID string, patch PostPatch) (*models.Post, error) {
	if err := requireIdentity(identity); err != nil {
		return nil, err
	}
	id, err := parseID(rawID, "post")
	if err != nil {
		return nil, err
	}

	post, err := s.find(ctx, id, rawID)
	if err != nil {
		return nil, err
	}

	if err := authorize(s.authz, identity, post.AuthorID, authz.ActionUpdate, "post"); err != nil {
		return nil, err
	}

	fields := postFields{Title: post.Title, Content: post.Content, FeaturedImage: post.FeaturedImage}
	if patch.Title != nil {
		fields.Title = strings.TrimSpace(*patch.Title)
	}
	if patch.Content != nil {
		fields.Content = strings.TrimSpace(*patch.Content)
	}
	if patch.FeaturedImage != nil {
		fields.FeaturedImage = strings.TrimSpace(*patch.FeaturedImage)
		if fields.FeaturedImage == "" {
			fields.FeaturedImage = models.DefaultFeaturedImage
		}
	}
	if err := s.cleanContent(&fields); err != nil {
		return nil, err
	}
	contentChanged := patch.Content != nil && fields.Content != post.Content

	if patch.Categories != nil {
		ids, err := parseCategoryIDs(*patch.Categories)
		if err != nil {
			return nil, err
		}
		post.CategoryIDs = ids
	}

	switch {
	case patch.Excerpt != nil:
		post.Excerpt = s.excerpt(fields.Content, patch.Excerpt)
	case contentChanged:
		post.Excerpt = models.DeriveExcerpt(fields.Content)
	}

	post.Title = fields.Title
	post.Content = fields.Content
	post.FeaturedImage = fields.FeaturedImage

	updated, err := s.posts.Update(ctx, post)
	if err != nil {
		return nil, postStoreError(err)
	}
	return updated, nil
}

// Delete removes a post the caller authored, or any post for admins.
func (s *PostService) Delete(ctx context.Context, identity *models.Identity, rawID string) error {
	if err := requireIdentity(identity); err != nil {
		return err
	}
	id, err := parseID(rawID, "post")
	if err != nil {
		return err
	}

	post, err := s.find(ctx, id, rawID)
	if err != nil {
		return err
	}

	if err := authorize(s.authz, identity, post.AuthorID, authz.ActionDelete, "post"); err != nil {
		return err
	}

	if err := s.posts.Delete(ctx, id); err != nil {
		return storeError(err, "post not found", "post is still referenced")
	}
	return nil
}

func (s *PostService) find(ctx context.Context, id uuid.UUID, rawID string) (*models.Post, error) {
	post, err := s.posts.FindByID(ctx, id)
	if err != nil {
		return nil, apperr.InternalError(err)
	}
	if post == nil {
		return nil, apperr.NotFoundf("post not found with id of %s", rawID)
	}
	return post, nil
}

// cleanContent validates fields as submitted, then sanitizes the content
// and validates again since markup-only content can come out empty.
func (s *PostService) cleanContent(fields *postFields) error {
	if err := check(*fields); err != nil {
		return err
	}
	fields.Content = strings.TrimSpace(sanitizeMarkup(s.content, s.plain, fields.Content))
	return check(*fields)
}

// excerpt returns the supplied excerpt as plain text, or one derived from
// the plain text of content when none was supplied or it is blank.
func (s *PostService) excerpt(content string, supplied *string) string {
	if supplied != nil {
		if e := strings.TrimSpace(plainText(s.plain, *supplied)); e != "" {
			return e
		}
	}
	return models.DeriveExcerpt(strings.TrimSpace(plainText(s.plain, content)))
}

// postStoreError reports a dangling category reference as a bad request
// and defers everything else to storeError.
func postStoreError(err error) error {
	if errors.Is(err, store.ErrInvalidReference) {
		return apperr.Wrap(apperr.BadRequest, err, "one or more categories do not exist")
	}
	return storeError(err, "post not found", "post already exists")
}

// parseCategoryIDs parses category ids and drops duplicates, keeping the
// first occurrence.
func parseCategoryIDs(raw []string) ([]uuid.UUID, error) {
	ids := make([]uuid.UUID, 0, len(raw))
	seen := make(map[uuid.UUID]bool, len(raw))
	for _, r := range raw {
		id, err := parseID(r, "category")
		if err != nil {
			return nil, err
		}
		if seen[id] {
			continue
		}
		seen[id] = true
		ids = append(ids, id)
	}
	return ids, nil
}
