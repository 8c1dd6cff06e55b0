package blog

import (
	"errors"
	"regexp"
	"strings"
	"time"
)

var (
	ErrPostNotFound        = errors.New("blog post not found")
	ErrTitleOrContentEmpty = errors.New("blog post title or content empty")
)

type Post struct {
	ID      int    `json:"id"`
	Slug    string `json:"slug"`
	Title   string `json:"title"`
	Summary string `json:"summary"`
	Content string `json:"content"`
	// durable image host URLs, aggregated by the dashboard create/edit flow
	ImageURLs []string   `json:"imageUrls"`
	Featured  bool       `json:"featured"`
	CreatedAt time.Time  `json:"createdAt"`
	UpdatedAt *time.Time `json:"updatedAt,omitempty"`
}

var nonAlphanumericRun = regexp.MustCompile(`[^a-z0-9]+`)

// Slugify derives the URL slug from a post title: lowercase, every run of
// non-alphanumeric characters collapsed to a single hyphen, leading and
// trailing hyphens trimmed. Deriving a slug from an already derived slug
// yields the same slug.
//
// Uniqueness is NOT enforced here or at write time: two posts with the same
// title share a slug, and GetBySlug returns the first match.
func Slugify(title string) string {
	slug := nonAlphanumericRun.ReplaceAllString(strings.ToLower(title), "-")
	return strings.Trim(slug, "-")
}
