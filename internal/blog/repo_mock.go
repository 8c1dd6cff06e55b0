package blog

import (
	"context"
	"sort"
	"sync"
	"time"
)

var _ postsRepo = (*RepoMock)(nil)

// RepoMock keeps posts in memory, for handler tests.
type RepoMock struct {
	mu     sync.Mutex
	nextID int
	Posts  map[int]*Post

	// when set, every method returns this error
	Err error
}

func NewRepoMock() *RepoMock {
	return &RepoMock{
		nextID: 1,
		Posts:  map[int]*Post{},
	}
}

func (r *RepoMock) Add(_ context.Context, post *Post) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.Err != nil {
		return r.Err
	}

	if post.Title == "" || post.Content == "" {
		return ErrTitleOrContentEmpty
	}

	if post.CreatedAt.IsZero() {
		post.CreatedAt = time.Now()
	}
	post.Slug = Slugify(post.Title)
	post.ID = r.nextID
	r.nextID++

	stored := *post
	r.Posts[post.ID] = &stored
	return nil
}

func (r *RepoMock) Update(
	_ context.Context,
	id int,
	title, summary, content string,
	imageURLs []string,
	featured bool,
) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.Err != nil {
		return r.Err
	}

	if title == "" || content == "" {
		return ErrTitleOrContentEmpty
	}

	post, ok := r.Posts[id]
	if !ok {
		return ErrPostNotFound
	}

	now := time.Now()
	post.Title = title
	post.Summary = summary
	post.Content = content
	post.ImageURLs = imageURLs
	post.Featured = featured
	post.UpdatedAt = &now
	return nil
}

func (r *RepoMock) Delete(_ context.Context, id int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.Err != nil {
		return r.Err
	}

	if _, ok := r.Posts[id]; !ok {
		return ErrPostNotFound
	}
	delete(r.Posts, id)
	return nil
}

func (r *RepoMock) All(_ context.Context) ([]*Post, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.Err != nil {
		return nil, r.Err
	}
	return r.sortedPosts(func(*Post) bool { return true }), nil
}

func (r *RepoMock) Featured(_ context.Context, limit int) ([]*Post, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.Err != nil {
		return nil, r.Err
	}

	posts := r.sortedPosts(func(p *Post) bool { return p.Featured })
	if len(posts) > limit {
		posts = posts[:limit]
	}
	return posts, nil
}

func (r *RepoMock) GetByID(_ context.Context, id int) (*Post, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.Err != nil {
		return nil, r.Err
	}

	post, ok := r.Posts[id]
	if !ok {
		return nil, ErrPostNotFound
	}
	found := *post
	return &found, nil
}

func (r *RepoMock) GetBySlug(_ context.Context, slug string) (*Post, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.Err != nil {
		return nil, r.Err
	}

	for _, post := range r.sortedPosts(func(*Post) bool { return true }) {
		if post.Slug == slug {
			found := *post
			return &found, nil
		}
	}
	return nil, ErrPostNotFound
}

// sortedPosts returns matching posts newest first, id as tie breaker
func (r *RepoMock) sortedPosts(match func(*Post) bool) []*Post {
	var posts []*Post
	for _, post := range r.Posts {
		if match(post) {
			posts = append(posts, post)
		}
	}
	sort.Slice(posts, func(i, j int) bool {
		if posts[i].CreatedAt.Equal(posts[j].CreatedAt) {
			return posts[i].ID > posts[j].ID
		}
		return posts[i].CreatedAt.After(posts[j].CreatedAt)
	})
	return posts
}
