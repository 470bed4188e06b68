package models

import (
	"time"

	"github.com/google/uuid"
)

// Comment is an append-only reply attached to a post.
type Comment struct {
	ID        uuid.UUID `json:"id"`
	PostID    uuid.UUID `json:"post"`
	UserID    uuid.UUID `json:"-"`
	Text      string    `json:"text"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`

	User *UserRef `json:"user,omitempty"`
}
