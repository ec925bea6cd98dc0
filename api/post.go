package api

import (
	"bytes"
	"encoding/json"
	"fmt"
	"time"

	"github.com/dfryer1193/blogposts/blog/domain"
)

type Post struct {
	ID          int64      `json:"id"`
	UserID      int64      `json:"user_id"`
	Title       string     `json:"title"`
	Body        string     `json:"body"`
	BodyHTML    string     `json:"body_html"`
	Snippet     string     `json:"snippet"`
	IsDraft     bool       `json:"is_draft"`
	PublishedAt *time.Time `json:"published_at"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
	User        *Owner     `json:"user,omitempty"`
}

// Owner is the public profile of a post's author. Nothing beyond these fields is exposed.
type Owner struct {
	ID    int64  `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

type PostPage struct {
	CurrentPage int    `json:"current_page"`
	Data        []Post `json:"data"`
	PerPage     int    `json:"per_page"`
	Total       int    `json:"total"`
	LastPage    int    `json:"last_page"`
	From        *int   `json:"from"`
	To          *int   `json:"to"`
}

type View struct {
	View string `json:"view"`
}

type CreatePostRequest struct {
	Title       string     `json:"title" binding:"required,max=255"`
	Body        string     `json:"body" binding:"required"`
	IsDraft     bool       `json:"is_draft"`
	PublishedAt *time.Time `json:"published_at"`
}

func (r CreatePostRequest) ToDomain() domain.NewPost {
	in := domain.NewPost{
		Title:   r.Title,
		Body:    r.Body,
		IsDraft: r.IsDraft,
	}
	if r.PublishedAt != nil {
		in.PublishedAt = *r.PublishedAt
	}
	return in
}

// UpdatePostRequest carries a partial update; absent fields are left untouched.
type UpdatePostRequest struct {
	Title       *string      `json:"title" binding:"omitnil,min=1,max=255"`
	Body        *string      `json:"body" binding:"omitnil,min=1"`
	IsDraft     *bool        `json:"is_draft"`
	PublishedAt NullableTime `json:"published_at"`
}

func (r UpdatePostRequest) ToDomain() domain.PostChanges {
	changes := domain.PostChanges{
		Title:          r.Title,
		Body:           r.Body,
		IsDraft:        r.IsDraft,
		SetPublishedAt: r.PublishedAt.Set,
	}
	if r.PublishedAt.Set && r.PublishedAt.Valid {
		changes.PublishedAt = r.PublishedAt.Time
	}
	return changes
}

// NullableTime tells an absent JSON field (Set false) apart from an explicit null (Set true, Valid false).
type NullableTime struct {
	Time  time.Time
	Set   bool
	Valid bool
}

func (n *NullableTime) UnmarshalJSON(data []byte) error {
	n.Set = true
	if bytes.Equal(data, []byte("null")) {
		n.Valid = false
		n.Time = time.Time{}
		return nil
	}

	if err := json.Unmarshal(data, &n.Time); err != nil {
		return fmt.Errorf("published_at: %w", err)
	}
	n.Valid = true
	return nil
}

func NewPost(p *domain.Post) Post {
	out := Post{
		ID:        p.ID,
		UserID:    p.UserID,
		Title:     p.Title,
		Body:      p.Body,
		BodyHTML:  p.BodyHTML,
		Snippet:   p.Snippet,
		IsDraft:   p.IsDraft,
		CreatedAt: p.CreatedAt,
		UpdatedAt: p.UpdatedAt,
	}
	if !p.PublishedAt.IsZero() {
		publishedAt := p.PublishedAt
		out.PublishedAt = &publishedAt
	}
	if p.Owner != nil {
		out.User = &Owner{
			ID:    p.Owner.ID,
			Name:  p.Owner.Name,
			Email: p.Owner.Email,
		}
	}
	return out
}

func NewPostPage(page *domain.Page[*domain.Post]) PostPage {
	out := PostPage{
		CurrentPage: page.CurrentPage,
		Data:        make([]Post, 0, len(page.Items)),
		PerPage:     page.PerPage,
		Total:       page.TotalItems,
		LastPage:    page.LastPage(),
	}
	for _, p := range page.Items {
		out.Data = append(out.Data, NewPost(p))
	}
	if len(page.Items) > 0 {
		from, to := page.From(), page.To()
		out.From = &from
		out.To = &to
	}
	return out
}
