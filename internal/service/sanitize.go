package service

import (
	"html"
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

// plainText strips all markup from s and returns the remaining text
// unescaped, so "Tom & Jerry" stays as written.
func plainText(strict *bluemonday.Policy, s string) string {
	return html.UnescapeString(strict.Sanitize(s))
}

// sanitizeMarkup runs s through policy when it carries markup. Text that
// survives a strict pass unchanged has no tags or entities to clean and is
// returned as is.
func sanitizeMarkup(policy, strict *bluemonday.Policy, s string) string {
	s = strings.ReplaceAll(s, "\r\n", "\n")
	if plainText(strict, s) == s {
		return s
	}
	return policy.Sanitize(s)
}
