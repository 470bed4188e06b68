package service

import (
	"strconv"
	"strings"

	"inkpost/internal/apperr"
	"inkpost/internal/store"
)

// Listing defaults and bounds.
const (
	DefaultPage  = 1
	DefaultLimit = 10
	MaxLimit     = 100
)

// ListParams are the raw query parameters of a post listing.
type ListParams struct {
	Page     string
	Limit    string
	Sort     string
	Author   string
	Category string
}

// Pagination describes where a page sits in the full result set.
type Pagination struct {
	Total int `json:"total"`
	Pages int `json:"pages"`
	Page  int `json:"page"`
}

// NewPagination computes the page count for total items split by limit.
func NewPagination(total, page, limit int) Pagination {
	pages := 0
	if limit > 0 {
		pages = (total + limit - 1) / limit
	}
	return Pagination{Total: total, Pages: pages, Page: page}
}

// positiveOr parses raw as a positive integer, returning def for anything
// empty, non-numeric or not positive.
func positiveOr(raw string, def int) int {
	n, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil || n <= 0 {
		return def
	}
	return n
}

// parsePaging returns the normalized page and limit.
func parsePaging(p ListParams) (page, limit int) {
	page = positiveOr(p.Page, DefaultPage)
	limit = positiveOr(p.Limit, DefaultLimit)
	if limit > MaxLimit {
		limit = MaxLimit
	}
	return page, limit
}

// parseSort turns "-createdAt,title" into sort terms. An empty value sorts
// newest first.
func parseSort(raw string) ([]store.SortField, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return []store.SortField{{Field: "createdAt", Desc: true}}, nil
	}
	var fields []store.SortField
	for _, tok := range strings.Split(raw, ",") {
		tok = strings.TrimSpace(tok)
		if tok == "" {
			continue
		}
		f := store.SortField{Field: tok}
		if strings.HasPrefix(tok, "-") {
			f = store.SortField{Field: tok[1:], Desc: true}
		}
		if !store.IsSortable(f.Field) {
			return nil, apperr.BadRequestf("cannot sort by %q", f.Field)
		}
		fields = append(fields, f)
	}
	if len(fields) == 0 {
		return []store.SortField{{Field: "createdAt", Desc: true}}, nil
	}
	return fields, nil
}

// parseFilter validates the optional author and category filters.
func parseFilter(p ListParams) (store.PostFilter, error) {
	var f store.PostFilter
	if strings.TrimSpace(p.Author) != "" {
		id, err := parseID(p.Author, "author")
		if err != nil {
			return f, err
		}
		f.AuthorID = &id
	}
	if strings.TrimSpace(p.Category) != "" {
		id, err := parseID(p.Category, "category")
		if err != nil {
			return f, err
		}
		f.CategoryID = &id
	}
	return f, nil
}
