package domain

import (
	"strings"
	"time"
)

// Article is the canonical article schema. Older payload shapes are mapped
// onto it by the service layer and never reach the rest of the code.
type Article struct {
	ID             string     `json:"id,omitempty"`
	Title          string     `json:"title"`
	Author         string     `json:"author,omitempty"`
	Description    string     `json:"description,omitempty"`
	Content        string     `json:"content,omitempty"`
	ImageURL       string     `json:"imageUrl,omitempty"`
	Tags           []string   `json:"tags,omitempty"`
	Published      bool       `json:"isPublished"`
	Featured       bool       `json:"isFeatured"`
	NewsletterSent bool       `json:"isNewsletterSent"`
	CreatedAt      *time.Time `json:"createdAt,omitempty"`
	UpdatedAt      *time.Time `json:"updatedAt,omitempty"`
	PublishedAt    *time.Time `json:"publishedAt,omitempty"`
}

func (a Article) Key() string {
	return a.ID
}

func (a Article) ImageRef() string {
	return a.ImageURL
}

// WithImage returns a copy of a pointing at ref.
func (a Article) WithImage(ref string) Article {
	a.ImageURL = ref
	return a
}

// HasTag matches case-insensitively.
func (a Article) HasTag(tag string) bool {
	tag = strings.TrimSpace(tag)
	for _, t := range a.Tags {
		if strings.EqualFold(t, tag) {
			return true
		}
	}
	return false
}

// SameTags compares the tag sets of a and other, ignoring order and case.
func (a Article) SameTags(other Article) bool {
	left := tagSet(a.Tags)
	right := tagSet(other.Tags)
	if len(left) != len(right) {
		return false
	}
	for tag := range left {
		if _, ok := right[tag]; !ok {
			return false
		}
	}
	return true
}

// NormalizeTags trims, drops empties and case-insensitive duplicates while
// keeping the first spelling and the input order.
func NormalizeTags(tags []string) []string {
	if len(tags) == 0 {
		return nil
	}
	seen := make(map[string]struct{}, len(tags))
	result := make([]string, 0, len(tags))
	for _, tag := range tags {
		trimmed := strings.TrimSpace(tag)
		if trimmed == "" {
			continue
		}
		key := strings.ToLower(trimmed)
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		result = append(result, trimmed)
	}
	return result
}

func tagSet(tags []string) map[string]struct{} {
	set := make(map[string]struct{}, len(tags))
	for _, tag := range NormalizeTags(tags) {
		set[strings.ToLower(tag)] = struct{}{}
	}
	return set
}

// ArticlePatch carries the flag changes that replace the separate publish and
// feature toggles. Nil fields are left alone.
type ArticlePatch struct {
	Published *bool
	Featured  *bool
}

func (p ArticlePatch) IsEmpty() bool {
	return p.Published == nil && p.Featured == nil
}
