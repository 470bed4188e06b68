// Package memstore is test support: an in-memory implementation of the
// service repositories shared by the service, handler and router tests.
// It mirrors the constraint behaviour of the PostgreSQL stores (unique
// names, foreign keys, cascades). The server binary never imports it.
package memstore

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"inkpost/internal/models"
	"inkpost/internal/store"
)

// DB holds every table. Create one with New and obtain repositories from
// its accessor methods.
type DB struct {
	mu         sync.RWMutex
	users      map[uuid.UUID]models.User
	categories map[uuid.UUID]models.Category
	posts      map[uuid.UUID]models.Post
	comments   map[uuid.UUID]models.Comment
	tick       time.Time

	queries atomic.Int64
}

// New returns an empty database.
func New() *DB {
	return &DB{
		users:      make(map[uuid.UUID]models.User),
		categories: make(map[uuid.UUID]models.Category),
		posts:      make(map[uuid.UUID]models.Post),
		comments:   make(map[uuid.UUID]models.Comment),
		tick:       time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
	}
}

// Queries returns how many repository calls have been made.
func (db *DB) Queries() int64 {
	return db.queries.Load()
}

// now returns a strictly increasing timestamp so insertion order is
// observable through createdAt. Callers hold the write lock.
func (db *DB) now() time.Time {
	db.tick = db.tick.Add(time.Millisecond)
	return db.tick
}

// Users returns the user repository.
func (db *DB) Users() *UserStore { return &UserStore{db: db} }

// Categories returns the category repository.
func (db *DB) Categories() *CategoryStore { return &CategoryStore{db: db} }

// Posts returns the post repository.
func (db *DB) Posts() *PostStore { return &PostStore{db: db} }

// Comments returns the comment repository.
func (db *DB) Comments() *CommentStore { return &CommentStore{db: db} }

// UserStore is the in-memory user repository.
type UserStore struct{ db *DB }

// FindByID returns the user or nil.
func (s *UserStore) FindByID(_ context.Context, id uuid.UUID) (*models.User, error) {
	s.db.queries.Add(1)
	s.db.mu.RLock()
	defer s.db.mu.RUnlock()
	u, ok := s.db.users[id]
	if !ok {
		return nil, nil
	}
	return &u, nil
}

// FindByEmail returns the user with email, ignoring case, or nil.
func (s *UserStore) FindByEmail(_ context.Context, email string) (*models.User, error) {
	s.db.queries.Add(1)
	s.db.mu.RLock()
	defer s.db.mu.RUnlock()
	email = strings.ToLower(strings.TrimSpace(email))
	for _, u := range s.db.users {
		if u.Email == email {
			return &u, nil
		}
	}
	return nil, nil
}

// Create hashes the password and stores the user.
func (s *UserStore) Create(_ context.Context, name, email, password string, role models.Role) (*models.User, error) {
	s.db.queries.Add(1)
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	email = strings.ToLower(strings.TrimSpace(email))
	for _, u := range s.db.users {
		if u.Email == email {
			return nil, fmt.Errorf("create user: %w: users_email_key", store.ErrDuplicate)
		}
	}
	now := s.db.now()
	u := models.User{
		ID: uuid.New(), Name: name, Email: email, PasswordHash: string(hash),
		Role: role, CreatedAt: now, UpdatedAt: now,
	}
	s.db.users[u.ID] = u
	return &u, nil
}

// CategoryStore is the in-memory category repository.
type CategoryStore struct{ db *DB }

// expandCategory fills the owner and post count. Callers hold a lock.
func (db *DB) expandCategory(c models.Category) models.Category {
	if u, ok := db.users[c.OwnerID]; ok {
		c.Owner = u.Ref()
	}
	c.PostCount = db.countPosts(c.ID)
	return c
}

func (db *DB) countPosts(categoryID uuid.UUID) int {
	n := 0
	for _, p := range db.posts {
		for _, id := range p.CategoryIDs {
			if id == categoryID {
				n++
				break
			}
		}
	}
	return n
}

// List returns all categories, newest first.
func (s *CategoryStore) List(_ context.Context) ([]models.Category, error) {
	s.db.queries.Add(1)
	s.db.mu.RLock()
	defer s.db.mu.RUnlock()
	items := make([]models.Category, 0, len(s.db.categories))
	for _, c := range s.db.categories {
		items = append(items, s.db.expandCategory(c))
	}
	sort.Slice(items, func(i, j int) bool {
		if !items[i].CreatedAt.Equal(items[j].CreatedAt) {
			return items[i].CreatedAt.After(items[j].CreatedAt)
		}
		return items[i].ID.String() < items[j].ID.String()
	})
	return items, nil
}

func (s *CategoryStore) findBy(match func(models.Category) bool) *models.Category {
	s.db.queries.Add(1)
	s.db.mu.RLock()
	defer s.db.mu.RUnlock()
	for _, c := range s.db.categories {
		if match(c) {
			out := s.db.expandCategory(c)
			return &out
		}
	}
	return nil
}

// FindByID returns the category or nil.
func (s *CategoryStore) FindByID(_ context.Context, id uuid.UUID) (*models.Category, error) {
	return s.findBy(func(c models.Category) bool { return c.ID == id }), nil
}

// FindBySlug returns the category or nil.
func (s *CategoryStore) FindBySlug(_ context.Context, slug string) (*models.Category, error) {
	return s.findBy(func(c models.Category) bool { return c.Slug == slug }), nil
}

// FindByName returns the category with exactly name, or nil.
func (s *CategoryStore) FindByName(_ context.Context, name string) (*models.Category, error) {
	return s.findBy(func(c models.Category) bool { return c.Name == name }), nil
}

// uniqueViolation reports a name or slug clash with a category other than
// self. Callers hold a lock.
func (db *DB) uniqueViolation(c *models.Category) error {
	for _, other := range db.categories {
		if other.ID == c.ID {
			continue
		}
		if other.Name == c.Name {
			return fmt.Errorf("%w: categories_name_key", store.ErrDuplicate)
		}
		if other.Slug == c.Slug {
			return fmt.Errorf("%w: categories_slug_key", store.ErrDuplicate)
		}
	}
	return nil
}

// Create stores a category.
func (s *CategoryStore) Create(_ context.Context, c *models.Category) (*models.Category, error) {
	s.db.queries.Add(1)
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	if _, ok := s.db.users[c.OwnerID]; !ok {
		return nil, fmt.Errorf("create category: %w: categories_owner_id_fkey", store.ErrInvalidReference)
	}
	row := *c
	row.ID = uuid.New()
	if err := s.db.uniqueViolation(&row); err != nil {
		return nil, fmt.Errorf("create category: %w", err)
	}
	row.CreatedAt = s.db.now()
	row.UpdatedAt = row.CreatedAt
	row.Owner, row.PostCount = nil, 0
	s.db.categories[row.ID] = row
	out := s.db.expandCategory(row)
	return &out, nil
}

// Update saves name, slug and description.
func (s *CategoryStore) Update(_ context.Context, c *models.Category) (*models.Category, error) {
	s.db.queries.Add(1)
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	row, ok := s.db.categories[c.ID]
	if !ok {
		return nil, fmt.Errorf("update category: %w", store.ErrNotFound)
	}
	if err := s.db.uniqueViolation(c); err != nil {
		return nil, fmt.Errorf("update category: %w", err)
	}
	row.Name, row.Slug, row.Description = c.Name, c.Slug, c.Description
	row.UpdatedAt = s.db.now()
	s.db.categories[row.ID] = row
	out := s.db.expandCategory(row)
	return &out, nil
}

// CountPosts returns how many posts reference the category.
func (s *CategoryStore) CountPosts(_ context.Context, id uuid.UUID) (int, error) {
	s.db.queries.Add(1)
	s.db.mu.RLock()
	defer s.db.mu.RUnlock()
	return s.db.countPosts(id), nil
}

// Delete removes an unreferenced category.
func (s *CategoryStore) Delete(_ context.Context, id uuid.UUID) error {
	s.db.queries.Add(1)
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	if _, ok := s.db.categories[id]; !ok {
		return fmt.Errorf("delete category: %w", store.ErrNotFound)
	}
	if s.db.countPosts(id) > 0 {
		return fmt.Errorf("delete category: %w", store.ErrInUse)
	}
	delete(s.db.categories, id)
	return nil
}

// PostStore is the in-memory post repository.
type PostStore struct{ db *DB }

// expandPost fills author, categories and comment ids. Callers hold a lock.
func (db *DB) expandPost(p models.Post) models.Post {
	if u, ok := db.users[p.AuthorID]; ok {
		p.Author = u.Ref()
	}
	p.Categories = []models.CategoryRef{}
	for _, id := range p.CategoryIDs {
		if c, ok := db.categories[id]; ok {
			p.Categories = append(p.Categories, models.CategoryRef{ID: c.ID, Name: c.Name, Slug: c.Slug})
		}
	}
	sort.Slice(p.Categories, func(i, j int) bool { return p.Categories[i].Name < p.Categories[j].Name })

	var comments []models.Comment
	for _, c := range db.comments {
		if c.PostID == p.ID {
			comments = append(comments, c)
		}
	}
	sortComments(comments)
	p.Comments = make([]uuid.UUID, 0, len(comments))
	for _, c := range comments {
		p.Comments = append(p.Comments, c.ID)
	}
	return p
}

func matches(p models.Post, f store.PostFilter) bool {
	if f.AuthorID != nil && p.AuthorID != *f.AuthorID {
		return false
	}
	if f.CategoryID != nil {
		for _, id := range p.CategoryIDs {
			if id == *f.CategoryID {
				return true
			}
		}
		return false
	}
	return true
}

func less(a, b models.Post, terms []store.SortField) bool {
	if len(terms) == 0 {
		terms = []store.SortField{{Field: "createdAt", Desc: true}}
	}
	for _, t := range terms {
		var cmp int
		switch t.Field {
		case "createdAt":
			cmp = a.CreatedAt.Compare(b.CreatedAt)
		case "updatedAt":
			cmp = a.UpdatedAt.Compare(b.UpdatedAt)
		case "title":
			cmp = strings.Compare(a.Title, b.Title)
		}
		if t.Desc {
			cmp = -cmp
		}
		if cmp != 0 {
			return cmp < 0
		}
	}
	return a.ID.String() < b.ID.String()
}

// List returns one page of matching posts.
func (s *PostStore) List(_ context.Context, q store.PostQuery) ([]models.Post, error) {
	s.db.queries.Add(1)
	for _, t := range q.Sort {
		if !store.IsSortable(t.Field) {
			return nil, fmt.Errorf("list posts: unknown sort field %q", t.Field)
		}
	}
	s.db.mu.RLock()
	defer s.db.mu.RUnlock()

	var all []models.Post
	for _, p := range s.db.posts {
		if matches(p, q.Filter) {
			all = append(all, p)
		}
	}
	sort.Slice(all, func(i, j int) bool { return less(all[i], all[j], q.Sort) })

	if q.Offset >= len(all) {
		return []models.Post{}, nil
	}
	all = all[q.Offset:]
	if q.Limit > 0 && q.Limit < len(all) {
		all = all[:q.Limit]
	}

	out := make([]models.Post, 0, len(all))
	for _, p := range all {
		out = append(out, s.db.expandPost(p))
	}
	return out, nil
}

// Count returns how many posts match f.
func (s *PostStore) Count(_ context.Context, f store.PostFilter) (int, error) {
	s.db.queries.Add(1)
	s.db.mu.RLock()
	defer s.db.mu.RUnlock()
	n := 0
	for _, p := range s.db.posts {
		if matches(p, f) {
			n++
		}
	}
	return n, nil
}

// FindByID returns the expanded post or nil.
func (s *PostStore) FindByID(_ context.Context, id uuid.UUID) (*models.Post, error) {
	s.db.queries.Add(1)
	s.db.mu.RLock()
	defer s.db.mu.RUnlock()
	p, ok := s.db.posts[id]
	if !ok {
		return nil, nil
	}
	out := s.db.expandPost(p)
	return &out, nil
}

// checkRefs verifies author and category references. Callers hold a lock.
func (db *DB) checkRefs(p *models.Post) error {
	if _, ok := db.users[p.AuthorID]; !ok {
		return fmt.Errorf("%w: posts_author_id_fkey", store.ErrInvalidReference)
	}
	for _, id := range p.CategoryIDs {
		if _, ok := db.categories[id]; !ok {
			return fmt.Errorf("%w: post_categories_category_id_fkey", store.ErrInvalidReference)
		}
	}
	return nil
}

func dedupe(ids []uuid.UUID) []uuid.UUID {
	out := make([]uuid.UUID, 0, len(ids))
	seen := make(map[uuid.UUID]bool, len(ids))
	for _, id := range ids {
		if !seen[id] {
			seen[id] = true
			out = append(out, id)
		}
	}
	return out
}

// Create stores a post.
func (s *PostStore) Create(_ context.Context, p *models.Post) (*models.Post, error) {
	s.db.queries.Add(1)
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	if err := s.db.checkRefs(p); err != nil {
		return nil, fmt.Errorf("create post: %w", err)
	}
	row := *p
	row.ID = uuid.New()
	row.CategoryIDs = dedupe(p.CategoryIDs)
	row.CreatedAt = s.db.now()
	row.UpdatedAt = row.CreatedAt
	row.Author, row.Categories, row.Comments = nil, nil, nil
	s.db.posts[row.ID] = row
	out := s.db.expandPost(row)
	return &out, nil
}

// Update saves the editable fields and the category set.
func (s *PostStore) Update(_ context.Context, p *models.Post) (*models.Post, error) {
	s.db.queries.Add(1)
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	row, ok := s.db.posts[p.ID]
	if !ok {
		return nil, fmt.Errorf("update post: %w", store.ErrNotFound)
	}
	check := *p
	check.AuthorID = row.AuthorID
	if err := s.db.checkRefs(&check); err != nil {
		return nil, fmt.Errorf("update post: %w", err)
	}
	row.Title, row.Content, row.Excerpt, row.FeaturedImage = p.Title, p.Content, p.Excerpt, p.FeaturedImage
	row.CategoryIDs = dedupe(p.CategoryIDs)
	row.UpdatedAt = s.db.now()
	s.db.posts[row.ID] = row
	out := s.db.expandPost(row)
	return &out, nil
}

// Delete removes a post and its comments.
func (s *PostStore) Delete(_ context.Context, id uuid.UUID) error {
	s.db.queries.Add(1)
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	if _, ok := s.db.posts[id]; !ok {
		return fmt.Errorf("delete post: %w", store.ErrNotFound)
	}
	delete(s.db.posts, id)
	for cid, c := range s.db.comments {
		if c.PostID == id {
			delete(s.db.comments, cid)
		}
	}
	return nil
}

// CommentStore is the in-memory comment repository.
type CommentStore struct{ db *DB }

func sortComments(comments []models.Comment) {
	sort.Slice(comments, func(i, j int) bool {
		if !comments[i].CreatedAt.Equal(comments[j].CreatedAt) {
			return comments[i].CreatedAt.Before(comments[j].CreatedAt)
		}
		return comments[i].ID.String() < comments[j].ID.String()
	})
}

// expandComment fills the commenter's id and name. Callers hold a lock.
func (db *DB) expandComment(c models.Comment) models.Comment {
	if u, ok := db.users[c.UserID]; ok {
		c.User = &models.UserRef{ID: u.ID, Name: u.Name}
	}
	return c
}

// ListByPost returns a post's comments, oldest first.
func (s *CommentStore) ListByPost(_ context.Context, postID uuid.UUID) ([]models.Comment, error) {
	s.db.queries.Add(1)
	s.db.mu.RLock()
	defer s.db.mu.RUnlock()
	out := []models.Comment{}
	for _, c := range s.db.comments {
		if c.PostID == postID {
			out = append(out, s.db.expandComment(c))
		}
	}
	sortComments(out)
	return out, nil
}

// Create stores a comment.
func (s *CommentStore) Create(_ context.Context, c *models.Comment) (*models.Comment, error) {
	s.db.queries.Add(1)
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	if _, ok := s.db.posts[c.PostID]; !ok {
		return nil, fmt.Errorf("create comment: %w: comments_post_id_fkey", store.ErrInvalidReference)
	}
	if _, ok := s.db.users[c.UserID]; !ok {
		return nil, fmt.Errorf("create comment: %w: comments_user_id_fkey", store.ErrInvalidReference)
	}
	row := *c
	row.ID = uuid.New()
	row.CreatedAt = s.db.now()
	row.UpdatedAt = row.CreatedAt
	row.User = nil
	s.db.comments[row.ID] = row
	out := s.db.expandComment(row)
	return &out, nil
}
