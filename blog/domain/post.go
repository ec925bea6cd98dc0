package domain

import (
	"context"
	"time"
)

// Post represents a blog post.
// A post is only publicly visible once it is not a draft and its PublishedAt has passed.
// A zero PublishedAt means the post has no publication date.
type Post struct {
	ID          int64
	UserID      int64
	Title       string
	Body        string
	Snippet     string
	BodyHTML    string
	IsDraft     bool
	PublishedAt time.Time
	UpdatedAt   time.Time
	CreatedAt   time.Time

	// Owner is only populated by queries that join the author's profile.
	Owner *Owner
}

// NewPost is the validated field set accepted when a post is created.
type NewPost struct {
	Title       string
	Body        string
	IsDraft     bool
	PublishedAt time.Time
}

// PostChanges is the validated field set accepted when a post is updated.
// Nil fields are left untouched.
type PostChanges struct {
	Title   *string
	Body    *string
	IsDraft *bool

	// PublishedAt is applied when SetPublishedAt is true; a zero value clears it.
	SetPublishedAt bool
	PublishedAt    time.Time
}

// Apply copies the provided fields onto p and reports whether the body changed.
func (c PostChanges) Apply(p *Post) (bodyChanged bool) {
	if c.Title != nil {
		p.Title = *c.Title
	}
	if c.Body != nil {
		bodyChanged = *c.Body != p.Body
		p.Body = *c.Body
	}
	if c.IsDraft != nil {
		p.IsDraft = *c.IsDraft
	}
	if c.SetPublishedAt {
		p.PublishedAt = c.PublishedAt
		if !p.PublishedAt.IsZero() {
			p.PublishedAt = p.PublishedAt.UTC()
		}
	}
	return bodyChanged
}

type PostRepository interface {
	CreatePost(ctx context.Context, p *Post) error
	GetPost(ctx context.Context, id int64) (*Post, error)
	GetPostWithOwner(ctx context.Context, id int64) (*Post, error)
	SavePost(ctx context.Context, p *Post) error
	DeletePost(ctx context.Context, id int64) error

	// ListVisiblePosts returns one page of publicly visible posts as of now,
	// newest PublishedAt first, each joined with its owner.
	ListVisiblePosts(ctx context.Context, now time.Time, limit int, offset int) ([]*Post, error)
	CountVisiblePosts(ctx context.Context, now time.Time) (int, error)
}
