package service

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"github.com/microcosm-cc/bluemonday"

	"inkpost/internal/apperr"
	"inkpost/internal/models"
	"inkpost/internal/store"
)

// CommentInput carries the text of a new comment.
type CommentInput struct {
	Text string `json:"text" validate:"required,max=1000"`
}

// CommentService lists and adds comments on posts.
type CommentService struct {
	comments  CommentRepository
	posts     PostRepository
	sanitizer *bluemonday.Policy
}

// NewCommentService creates a CommentService. Comment text is stored as
// plain text with any markup stripped; the length limit applies to the text
// as submitted.
func NewCommentService(comments CommentRepository, posts PostRepository) *CommentService {
	return &CommentService{
		comments:  comments,
		posts:     posts,
		sanitizer: bluemonday.StrictPolicy(),
	}
}

// ListByPost returns a post's comments, oldest first.
func (s *CommentService) ListByPost(ctx context.Context, rawPostID string) ([]models.Comment, error) {
	postID, err := parseID(rawPostID, "post")
	if err != nil {
		return nil, err
	}
	if err := s.ensurePost(ctx, postID, rawPostID); err != nil {
		return nil, err
	}

	comments, err := s.comments.ListByPost(ctx, postID)
	if err != nil {
		return nil, apperr.InternalError(err)
	}
	return comments, nil
}

// Create adds a comment by the caller to a post.
func (s *CommentService) Create(ctx context.Context, identity *models.Identity, rawPostID string, in CommentInput) (*models.Comment, error) {
	if err := requireIdentity(identity); err != nil {
		return nil, err
	}
	postID, err := parseID(rawPostID, "post")
	if err != nil {
		return nil, err
	}

	in.Text = strings.TrimSpace(in.Text)
	if err := check(in); err != nil {
		return nil, err
	}
	// Markup-only text can come out empty.
	in.Text = strings.TrimSpace(plainText(s.sanitizer, in.Text))
	if err := check(in); err != nil {
		return nil, err
	}

	if err := s.ensurePost(ctx, postID, rawPostID); err != nil {
		return nil, err
	}

	created, err := s.comments.Create(ctx, &models.Comment{
		PostID: postID,
		UserID: identity.UserID,
		Text:   in.Text,
	})
	if errors.Is(err, store.ErrInvalidReference) {
		return nil, apperr.Wrap(apperr.NotFound, err, "post not found with id of "+rawPostID)
	}
	if err != nil {
		return nil, apperr.InternalError(err)
	}
	return created, nil
}

// ensurePost fails with NotFound when the post does not exist.
func (s *CommentService) ensurePost(ctx context.Context, id uuid.UUID, rawID string) error {
	post, err := s.posts.FindByID(ctx, id)
	if err != nil {
		return apperr.InternalError(err)
	}
	if post == nil {
		return apperr.NotFoundf("post not found with id of %s", rawID)
	}
	return nil
}
