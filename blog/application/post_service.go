package application

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/dfryer1193/blogposts/blog/domain"
	"github.com/dfryer1193/blogposts/blog/policy"
	"github.com/dfryer1193/blogposts/shared/db"
	"github.com/rs/zerolog/log"
)

const (
	CreateView = "posts.create"
	EditView   = "posts.edit"
)

// Clock supplies the current time to visibility decisions.
type Clock func() time.Time

type PostService struct {
	db       *sql.DB
	repo     domain.PostRepository
	markdown MarkdownRenderer
	now      Clock
}

func NewPostService(sqlDB *sql.DB, repo domain.PostRepository, markdown MarkdownRenderer, now Clock) *PostService {
	if now == nil {
		now = time.Now
	}
	return &PostService{
		db:       sqlDB,
		repo:     repo,
		markdown: markdown,
		now:      now,
	}
}

// Index lists one page of publicly visible posts, newest first.
func (s *PostService) Index(ctx context.Context, page int) (*domain.Page[*domain.Post], error) {
	req := domain.PageRequest{Page: page, PerPage: domain.DefaultPageSize}
	now := s.now()

	var total int
	var posts []*domain.Post
	err := db.RunInTransaction(ctx, s.db, func(txCtx context.Context) error {
		var err error
		total, err = s.repo.CountVisiblePosts(txCtx, now)
		if err != nil {
			return err
		}
		if req.Offset() >= total {
			return nil
		}

		posts, err = s.repo.ListVisiblePosts(txCtx, now, req.Limit(), req.Offset())
		return err
	})
	if err != nil {
		return nil, err
	}

	// The SQL predicate must agree with the policy; rows it lets through are dropped here.
	visible := make([]*domain.Post, 0, len(posts))
	for _, p := range posts {
		if policy.CanView(*p, now) == policy.Visible {
			visible = append(visible, p)
			continue
		}
		log.Warn().Int64("postID", p.ID).Msg("Dropped hidden post from visible listing")
	}

	return &domain.Page[*domain.Post]{
		Items:       visible,
		TotalItems:  total,
		CurrentPage: req.Number(),
		PerPage:     req.Limit(),
	}, nil
}

// Create returns the view used to author a new post.
func (s *PostService) Create(ctx context.Context, actorID int64) (string, error) {
	if actorID == 0 {
		return "", domain.ErrUnauthenticated
	}
	return CreateView, nil
}

// Store creates a post owned by the acting user. No visibility rule applies to creation.
func (s *PostService) Store(ctx context.Context, actorID int64, in domain.NewPost) (*domain.Post, error) {
	if actorID == 0 {
		return nil, domain.ErrUnauthenticated
	}

	rendered, err := s.markdown.Render([]byte(in.Body))
	if err != nil {
		return nil, err
	}

	now := s.now().UTC()
	post := &domain.Post{
		UserID:      actorID,
		Title:       in.Title,
		Body:        in.Body,
		Snippet:     rendered.Snippet,
		BodyHTML:    rendered.HTML,
		IsDraft:     in.IsDraft,
		PublishedAt: utc(in.PublishedAt),
		UpdatedAt:   now,
		CreatedAt:   now,
	}

	if err := s.repo.CreatePost(ctx, post); err != nil {
		return nil, err
	}

	log.Info().Int64("postID", post.ID).Int64("userID", actorID).Msg("Post created")
	return post, nil
}

// Show returns a publicly visible post with its owner's profile.
// Hidden posts are reported exactly like missing ones, including to their owner.
func (s *PostService) Show(ctx context.Context, id int64) (*domain.Post, error) {
	post, err := s.repo.GetPostWithOwner(ctx, id)
	if err != nil {
		return nil, err
	}

	if err := policy.ViewOutcome(*post, s.now()).Err(); err != nil {
		return nil, fmt.Errorf("post %d: %w", id, err)
	}

	return post, nil
}

// Edit returns the edit view when the acting user owns the post.
func (s *PostService) Edit(ctx context.Context, id int64, actorID int64) (string, error) {
	if _, err := s.authorizedPost(ctx, id, actorID); err != nil {
		return "", err
	}
	return EditView, nil
}

// Update applies the provided changes when the acting user owns the post.
func (s *PostService) Update(ctx context.Context, id int64, actorID int64, changes domain.PostChanges) (*domain.Post, error) {
	var updated *domain.Post

	err := db.RunInTransaction(ctx, s.db, func(txCtx context.Context) error {
		post, err := s.authorizedPost(txCtx, id, actorID)
		if err != nil {
			return err
		}

		if changes.Apply(post) {
			rendered, err := s.markdown.Render([]byte(post.Body))
			if err != nil {
				return err
			}
			post.Snippet = rendered.Snippet
			post.BodyHTML = rendered.HTML
		}
		post.UpdatedAt = s.now().UTC()

		if err := s.repo.SavePost(txCtx, post); err != nil {
			return err
		}

		updated = post
		return nil
	})
	if err != nil {
		return nil, err
	}

	log.Info().Int64("postID", id).Int64("userID", actorID).Msg("Post updated")
	return updated, nil
}

// Destroy deletes the post when the acting user owns it.
func (s *PostService) Destroy(ctx context.Context, id int64, actorID int64) error {
	err := db.RunInTransaction(ctx, s.db, func(txCtx context.Context) error {
		if _, err := s.authorizedPost(txCtx, id, actorID); err != nil {
			return err
		}
		return s.repo.DeletePost(txCtx, id)
	})
	if err != nil {
		return err
	}

	log.Info().Int64("postID", id).Int64("userID", actorID).Msg("Post deleted")
	return nil
}

// authorizedPost loads the post and applies the ownership rule.
// A missing post is NotFound; a post owned by someone else is Forbidden.
func (s *PostService) authorizedPost(ctx context.Context, id int64, actorID int64) (*domain.Post, error) {
	if actorID == 0 {
		return nil, domain.ErrUnauthenticated
	}

	post, err := s.repo.GetPost(ctx, id)
	if err != nil {
		return nil, err
	}

	if err := policy.ModifyOutcome(*post, actorID).Err(); err != nil {
		log.Debug().Int64("postID", id).Int64("userID", actorID).Msg("Rejected write by non-owner")
		return nil, fmt.Errorf("post %d: %w", id, err)
	}

	return post, nil
}

func utc(t time.Time) time.Time {
	if t.IsZero() {
		return t
	}
	return t.UTC()
}
