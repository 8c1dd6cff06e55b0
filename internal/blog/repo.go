package blog

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	log "github.com/sirupsen/logrus"
)

// blogs table:
//
//	id         SERIAL PRIMARY KEY
//	slug       TEXT NOT NULL
//	title      TEXT NOT NULL
//	summary    TEXT NOT NULL DEFAULT ''
//	content    TEXT NOT NULL
//	image_url  TEXT          -- legacy, single image posts from the first version
//	image_urls TEXT[]
//	featured   BOOLEAN NOT NULL DEFAULT FALSE
//	created_at TIMESTAMPTZ NOT NULL
//	updated_at TIMESTAMPTZ

var _ postsRepo = (*Repo)(nil)

// dbClient is the slice of pgxpool.Pool the repo needs.
type dbClient interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
}

type Repo struct {
	db dbClient
}

func NewRepo(db *pgxpool.Pool) *Repo {
	return &Repo{
		db: db,
	}
}

const postColumns = `id, slug, title, summary, content, image_url, image_urls, featured, created_at, updated_at`

// Add stores a new post: created_at is set here and the slug is derived from
// the title, both immutable afterwards.
func (r *Repo) Add(ctx context.Context, post *Post) error {
	if post.Title == "" || post.Content == "" {
		return ErrTitleOrContentEmpty
	}

	if post.CreatedAt.IsZero() {
		post.CreatedAt = time.Now()
	}
	post.Slug = Slugify(post.Title)

	row := r.db.QueryRow(
		ctx,
		`INSERT INTO blogs (slug, title, summary, content, image_urls, featured, created_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7) RETURNING id;`,
		post.Slug, post.Title, post.Summary, post.Content, post.ImageURLs, post.Featured, post.CreatedAt,
	)

	var id int
	if err := row.Scan(&id); err != nil {
		return err
	}
	post.ID = id

	return nil
}

// Update changes the editable fields and stamps updated_at. Slug and
// created_at are never touched after creation.
func (r *Repo) Update(
	ctx context.Context,
	id int,
	title, summary, content string,
	imageURLs []string,
	featured bool,
) error {
	if title == "" || content == "" {
		return ErrTitleOrContentEmpty
	}

	tag, err := r.db.Exec(
		ctx,
		`UPDATE blogs SET title = $1, summary = $2, content = $3, image_urls = $4, featured = $5, updated_at = $6
			WHERE id = $7`,
		title, summary, content, imageURLs, featured, time.Now(), id,
	)
	if err != nil {
		return err
	}

	if tag.RowsAffected() == 0 {
		return ErrPostNotFound
	}

	return nil
}

// Delete removes the post unconditionally. Images already uploaded to the
// image host are not cleaned up.
func (r *Repo) Delete(ctx context.Context, id int) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM blogs WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrPostNotFound
	}
	return nil
}

// All returns every post, newest first. An empty table yields an empty
// sequence, not an error.
func (r *Repo) All(ctx context.Context) ([]*Post, error) {
	rows, err := r.db.Query(
		ctx,
		`SELECT `+postColumns+` FROM blogs ORDER BY created_at DESC;`,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return rows2posts(rows)
}

// Featured returns up to limit featured posts, newest first. If the filtered
// query fails the result falls back to the first limit posts of All.
func (r *Repo) Featured(ctx context.Context, limit int) ([]*Post, error) {
	rows, err := r.db.Query(
		ctx,
		`SELECT `+postColumns+` FROM blogs WHERE featured = TRUE ORDER BY created_at DESC LIMIT $1;`,
		limit,
	)
	if err != nil {
		log.Errorf("get featured posts failed, falling back to all posts: %s", err)
		return r.allTruncated(ctx, limit)
	}
	defer rows.Close()

	posts, err := rows2posts(rows)
	if err != nil {
		log.Errorf("read featured posts failed, falling back to all posts: %s", err)
		return r.allTruncated(ctx, limit)
	}

	return posts, nil
}

func (r *Repo) allTruncated(ctx context.Context, limit int) ([]*Post, error) {
	posts, err := r.All(ctx)
	if err != nil {
		return nil, err
	}
	if len(posts) > limit {
		posts = posts[:limit]
	}
	return posts, nil
}

func (r *Repo) GetByID(ctx context.Context, id int) (*Post, error) {
	rows, err := r.db.Query(
		ctx,
		`SELECT `+postColumns+` FROM blogs WHERE id = $1;`,
		id,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return firstPost(rows)
}

// GetBySlug returns the first post with the given slug. Slug uniqueness is
// not enforced at write time, duplicates are silently shadowed.
func (r *Repo) GetBySlug(ctx context.Context, slug string) (*Post, error) {
	rows, err := r.db.Query(
		ctx,
		`SELECT `+postColumns+` FROM blogs WHERE slug = $1 LIMIT 1;`,
		slug,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return firstPost(rows)
}

func firstPost(rows pgx.Rows) (*Post, error) {
	posts, err := rows2posts(rows)
	if err != nil {
		return nil, err
	}
	if len(posts) == 0 {
		return nil, ErrPostNotFound
	}
	return posts[0], nil
}

func rows2posts(rows pgx.Rows) ([]*Post, error) {
	var posts []*Post
	for rows.Next() {
		var post Post
		var imageURL *string
		if err := rows.Scan(
			&post.ID, &post.Slug, &post.Title, &post.Summary, &post.Content,
			&imageURL, &post.ImageURLs, &post.Featured, &post.CreatedAt, &post.UpdatedAt,
		); err != nil {
			return nil, err
		}

		// posts from the first version carry a single image_url
		if len(post.ImageURLs) == 0 && imageURL != nil && *imageURL != "" {
			post.ImageURLs = []string{*imageURL}
		}

		posts = append(posts, &post)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return posts, nil
}
