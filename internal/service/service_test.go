package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"inkpost/internal/apperr"
	"inkpost/internal/auth"
	"inkpost/internal/authz"
	"inkpost/internal/memstore"
	"inkpost/internal/models"
	"inkpost/internal/store"
)

// Compile-time checks that both store implementations satisfy the
// repositories.
var (
	_ UserRepository     = (*store.UserStore)(nil)
	_ CategoryRepository = (*store.CategoryStore)(nil)
	_ PostRepository     = (*store.PostStore)(nil)
	_ CommentRepository  = (*store.CommentStore)(nil)

	_ UserRepository     = (*memstore.UserStore)(nil)
	_ CategoryRepository = (*memstore.CategoryStore)(nil)
	_ PostRepository     = (*memstore.PostStore)(nil)
	_ CommentRepository  = (*memstore.CommentStore)(nil)

	_ Authorizer  = (*authz.Policy)(nil)
	_ TokenIssuer = (*auth.Tokens)(nil)
)

// testEnv wires every service against a fresh in-memory database with
// three accounts: two regular users and an admin.
type testEnv struct {
	db         *memstore.DB
	categories *CategoryService
	posts      *PostService
	comments   *CommentService
	accounts   *AccountService
	tokens     *auth.Tokens

	alice, bob, admin *models.Identity
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	db := memstore.New()
	policy, err := authz.New()
	if err != nil {
		t.Fatalf("authz.New: %v", err)
	}
	tokens, err := auth.NewTokens("test-secret", time.Hour)
	if err != nil {
		t.Fatalf("auth.NewTokens: %v", err)
	}

	env := &testEnv{
		db:         db,
		categories: NewCategoryService(db.Categories(), policy),
		posts:      NewPostService(db.Posts(), db.Categories(), policy),
		comments:   NewCommentService(db.Comments(), db.Posts()),
		accounts:   NewAccountService(db.Users(), tokens),
		tokens:     tokens,
	}
	env.alice = env.user(t, "Alice", "alice@example.com", models.RoleUser)
	env.bob = env.user(t, "Bob", "bob@example.com", models.RoleUser)
	env.admin = env.user(t, "Admin", "admin@example.com", models.RoleAdmin)
	return env
}

func (e *testEnv) user(t *testing.T, name, email string, role models.Role) *models.Identity {
	t.Helper()
	u, err := e.db.Users().Create(context.Background(), name, email, "secret123", role)
	if err != nil {
		t.Fatalf("create user %s: %v", email, err)
	}
	return &models.Identity{UserID: u.ID, Role: u.Role}
}

func (e *testEnv) category(t *testing.T, owner *models.Identity, name string) *models.Category {
	t.Helper()
	c, err := e.categories.Create(context.Background(), owner, CategoryInput{Name: name})
	if err != nil {
		t.Fatalf("create category %q: %v", name, err)
	}
	return c
}

func (e *testEnv) post(t *testing.T, author *models.Identity, title string, categories ...*models.Category) *models.Post {
	t.Helper()
	in := PostInput{Title: title, Content: "Content of " + title}
	for _, c := range categories {
		in.Categories = append(in.Categories, c.ID.String())
	}
	p, err := e.posts.Create(context.Background(), author, in)
	if err != nil {
		t.Fatalf("create post %q: %v", title, err)
	}
	return p
}

// assertKind fails unless err is an *apperr.Error of the given kind.
func assertKind(t *testing.T, err error, want apperr.Kind) {
	t.Helper()
	if err == nil {
		t.Fatalf("expected %v error, got nil", want)
	}
	var ae *apperr.Error
	if !errors.As(err, &ae) {
		t.Fatalf("expected *apperr.Error, got %T: %v", err, err)
	}
	if ae.Kind != want {
		t.Fatalf("error kind = %v, want %v (%v)", ae.Kind, want, err)
	}
}

func strPtr(s string) *string { return &s }
