package service

import (
	"context"
	"strings"
	"testing"

	"inkpost/internal/apperr"
)

func TestCommentCreateAndList(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	p := env.post(t, env.alice, "Discuss")

	first, err := env.comments.Create(ctx, env.bob, p.ID.String(), CommentInput{Text: "  <b>First!</b> "})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if first.Text != "First!" {
		t.Errorf("text: got %q, want markup stripped", first.Text)
	}
	if first.User == nil || first.User.Name != "Bob" {
		t.Errorf("user: got %+v", first.User)
	}
	if _, err := env.comments.Create(ctx, env.alice, p.ID.String(), CommentInput{Text: "Second"}); err != nil {
		t.Fatalf("Create: %v", err)
	}

	list, err := env.comments.ListByPost(ctx, p.ID.String())
	if err != nil {
		t.Fatalf("ListByPost: %v", err)
	}
	if len(list) != 2 || list[0].Text != "First!" || list[1].User.Name != "Alice" {
		t.Errorf("list: got %+v", list)
	}

	t.Run("limit applies to text as written", func(t *testing.T) {
		text := strings.Repeat("a&b ", 250)
		c, err := env.comments.Create(ctx, env.bob, p.ID.String(), CommentInput{Text: text})
		if err != nil {
			t.Fatalf("Create 1000 characters: %v", err)
		}
		if c.Text != strings.TrimSpace(text) {
			t.Errorf("text changed: got %q", c.Text[:20])
		}
	})

	tests := []struct {
		name   string
		postID string
		text   string
		want   apperr.Kind
	}{
		{name: "empty text", postID: p.ID.String(), text: "   ", want: apperr.BadRequest},
		{name: "text too long", postID: p.ID.String(), text: strings.Repeat("a", 1001), want: apperr.BadRequest},
		{name: "markup only", postID: p.ID.String(), text: "<script>alert(1)</script>", want: apperr.BadRequest},
		{name: "malformed post id", postID: "abc", text: "hi", want: apperr.BadRequest},
		{name: "missing post", postID: "6f1c2f7e-0000-4000-8000-000000000000", text: "hi", want: apperr.NotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := env.comments.Create(ctx, env.bob, tt.postID, CommentInput{Text: tt.text})
			assertKind(t, err, tt.want)
		})
	}

	t.Run("anonymous", func(t *testing.T) {
		_, err := env.comments.Create(ctx, nil, p.ID.String(), CommentInput{Text: "hi"})
		assertKind(t, err, apperr.Unauthenticated)
	})

	t.Run("list for missing post", func(t *testing.T) {
		_, err := env.comments.ListByPost(ctx, "6f1c2f7e-0000-4000-8000-000000000000")
		assertKind(t, err, apperr.NotFound)
	})
}
