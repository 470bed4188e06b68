// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package models

import (
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
)

const (
	// ExcerptLength is the number of characters of content kept in a
	// derived excerpt.
	ExcerptLength = 100

	// DefaultFeaturedImage is stored when a post is created without an image.
	DefaultFeaturedImage = "no-photo.jpg"
)

// Post is a blog article. The author is fixed at creation time.
type Post struct {
	ID            uuid.UUID   `json:"id"`
	Title         string      `json:"title"`
	Content       string      `json:"content"`
	Excerpt       string      `json:"excerpt"`
	FeaturedImage string      `json:"featuredImage"`
	AuthorID      uuid.UUID   `json:"-"`
	CategoryIDs   []uuid.UUID `json:"-"`
	CreatedAt     time.Time   `json:"createdAt"`
	UpdatedAt     time.Time   `json:"updatedAt"`

	// Virtual fields populated by store methods.
	Author     *UserRef      `json:"author,omitempty"`
	Categories []CategoryRef `json:"categories"`
	Comments   []uuid.UUID   `json:"comments"`
}

// DeriveExcerpt returns the first ExcerptLength characters of content
// followed by an ellipsis. Empty content yields an empty excerpt.
func DeriveExcerpt(content string) string {
	if content == "" {
		return ""
	}
	if utf8.RuneCountInString(content) <= ExcerptLength {
		return content + "..."
	}
	runes := []rune(content)
	return string(runes[:ExcerptLength]) + "..."
}
