package persistence

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/dfryer1193/blogposts/blog/domain"
	"github.com/dfryer1193/blogposts/shared/db"
)

var _ domain.PostRepository = (*SQLitePostRepository)(nil)

// SQLitePostRepository implements domain.PostRepository using SQL database (SQLite)
type SQLitePostRepository struct {
	db *sql.DB
}

// NewPostRepository creates a new SQLitePostRepository from a standard sql.DB
func NewPostRepository(db *sql.DB) *SQLitePostRepository {
	return &SQLitePostRepository{
		db: db,
	}
}

const postColumns = `p.id, p.user_id, p.title, p.body, p.snippet, p.body_html, p.is_draft, p.published_at, p.updated_at, p.created_at`

const ownerColumns = `u.id, u.name, u.email`

// visibleClause must stay in step with policy.IsPubliclyVisible.
const visibleClause = `p.is_draft = 0 AND p.published_at IS NOT NULL AND p.published_at <= ?`

const insertPostQuery = `
	INSERT INTO posts (user_id, title, body, snippet, body_html, is_draft, published_at, updated_at, created_at)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
`

// CreatePost inserts p and sets its ID.
func (r *SQLitePostRepository) CreatePost(ctx context.Context, p *domain.Post) error {
	if p == nil {
		return fmt.Errorf("post cannot be nil")
	}
	if p.UserID == 0 {
		return fmt.Errorf("post owner cannot be empty")
	}

	executor := db.GetExecutor(ctx, r.db)
	res, err := executor.ExecContext(ctx, insertPostQuery,
		p.UserID,
		p.Title,
		p.Body,
		p.Snippet,
		p.BodyHTML,
		p.IsDraft,
		nullableTime(p.PublishedAt),
		nullableTime(p.UpdatedAt),
		utc(p.CreatedAt),
	)
	if err != nil {
		return fmt.Errorf("failed to insert post: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to read inserted post id: %w", err)
	}
	p.ID = id

	return nil
}

const getPostQuery = `
	SELECT ` + postColumns + `
	FROM posts p
	WHERE p.id = ?
`

// GetPost retrieves a single post by ID, regardless of its visibility.
func (r *SQLitePostRepository) GetPost(ctx context.Context, id int64) (*domain.Post, error) {
	if id <= 0 {
		return nil, fmt.Errorf("post %d: %w", id, domain.ErrNotFound)
	}

	var row postRow
	err := db.GetExecutor(ctx, r.db).QueryRowContext(ctx, getPostQuery, id).Scan(row.fields()...)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("post %d: %w", id, domain.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get post: %w", err)
	}

	return row.toDomain(), nil
}

const getPostWithOwnerQuery = `
	SELECT ` + postColumns + `, ` + ownerColumns + `
	FROM posts p
	JOIN users u ON u.id = p.user_id
	WHERE p.id = ?
`

// GetPostWithOwner retrieves a single post by ID joined with its owner's public profile.
func (r *SQLitePostRepository) GetPostWithOwner(ctx context.Context, id int64) (*domain.Post, error) {
	if id <= 0 {
		return nil, fmt.Errorf("post %d: %w", id, domain.ErrNotFound)
	}

	var row postRow
	var owner ownerRow
	err := db.GetExecutor(ctx, r.db).QueryRowContext(ctx, getPostWithOwnerQuery, id).
		Scan(append(row.fields(), owner.fields()...)...)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("post %d: %w", id, domain.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get post: %w", err)
	}

	post := row.toDomain()
	post.Owner = owner.toDomain()
	return post, nil
}

const updatePostQuery = `
	UPDATE posts SET
		title = ?,
		body = ?,
		snippet = ?,
		body_html = ?,
		is_draft = ?,
		published_at = ?,
		updated_at = ?
	WHERE id = ?
`

// SavePost writes the mutable fields of an existing post. Owner and creation time never change.
func (r *SQLitePostRepository) SavePost(ctx context.Context, p *domain.Post) error {
	if p == nil {
		return fmt.Errorf("post cannot be nil")
	}

	res, err := db.GetExecutor(ctx, r.db).ExecContext(ctx, updatePostQuery,
		p.Title,
		p.Body,
		p.Snippet,
		p.BodyHTML,
		p.IsDraft,
		nullableTime(p.PublishedAt),
		nullableTime(p.UpdatedAt),
		p.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update post: %w", err)
	}

	return expectOneRow(res, p.ID)
}

const deletePostQuery = `DELETE FROM posts WHERE id = ?`

// DeletePost removes a post by ID
func (r *SQLitePostRepository) DeletePost(ctx context.Context, id int64) error {
	res, err := db.GetExecutor(ctx, r.db).ExecContext(ctx, deletePostQuery, id)
	if err != nil {
		return fmt.Errorf("failed to delete post: %w", err)
	}

	return expectOneRow(res, id)
}

const listVisiblePostsQuery = `
	SELECT ` + postColumns + `, ` + ownerColumns + `
	FROM posts p
	JOIN users u ON u.id = p.user_id
	WHERE ` + visibleClause + `
	ORDER BY p.published_at DESC, p.id DESC
	LIMIT ? OFFSET ?
`

// ListVisiblePosts retrieves publicly visible posts ordered by publish date descending
func (r *SQLitePostRepository) ListVisiblePosts(ctx context.Context, now time.Time, limit, offset int) ([]*domain.Post, error) {
	if limit <= 0 {
		limit = domain.DefaultPageSize
	}
	if offset < 0 {
		offset = 0
	}

	rows, err := db.GetExecutor(ctx, r.db).QueryContext(ctx, listVisiblePostsQuery, utc(now), limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to list visible posts: %w", err)
	}
	defer rows.Close()

	posts := make([]*domain.Post, 0)
	for rows.Next() {
		var row postRow
		var owner ownerRow
		if err := rows.Scan(append(row.fields(), owner.fields()...)...); err != nil {
			return nil, fmt.Errorf("failed to scan post row: %w", err)
		}

		post := row.toDomain()
		post.Owner = owner.toDomain()
		posts = append(posts, post)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating post rows: %w", err)
	}

	return posts, nil
}

const countVisiblePostsQuery = `
	SELECT COUNT(*)
	FROM posts p
	WHERE ` + visibleClause

// CountVisiblePosts counts posts that ListVisiblePosts would page through.
func (r *SQLitePostRepository) CountVisiblePosts(ctx context.Context, now time.Time) (int, error) {
	var count int
	err := db.GetExecutor(ctx, r.db).QueryRowContext(ctx, countVisiblePostsQuery, utc(now)).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count visible posts: %w", err)
	}
	return count, nil
}

func expectOneRow(res sql.Result, id int64) error {
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read affected rows: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("post %d: %w", id, domain.ErrNotFound)
	}
	return nil
}

// postRow is a private struct used to scan database rows
// It uses sql.NullTime to handle nullable timestamp fields
type postRow struct {
	ID          int64        `db:"id"`
	UserID      int64        `db:"user_id"`
	Title       string       `db:"title"`
	Body        string       `db:"body"`
	Snippet     string       `db:"snippet"`
	BodyHTML    string       `db:"body_html"`
	IsDraft     bool         `db:"is_draft"`
	PublishedAt sql.NullTime `db:"published_at"`
	UpdatedAt   sql.NullTime `db:"updated_at"`
	CreatedAt   sql.NullTime `db:"created_at"`
}

// fields returns scan destinations in postColumns order.
func (pr *postRow) fields() []any {
	return []any{
		&pr.ID,
		&pr.UserID,
		&pr.Title,
		&pr.Body,
		&pr.Snippet,
		&pr.BodyHTML,
		&pr.IsDraft,
		&pr.PublishedAt,
		&pr.UpdatedAt,
		&pr.CreatedAt,
	}
}

func (pr *postRow) toDomain() *domain.Post {
	post := &domain.Post{
		ID:       pr.ID,
		UserID:   pr.UserID,
		Title:    pr.Title,
		Body:     pr.Body,
		Snippet:  pr.Snippet,
		BodyHTML: pr.BodyHTML,
		IsDraft:  pr.IsDraft,
	}

	if pr.PublishedAt.Valid {
		post.PublishedAt = pr.PublishedAt.Time.UTC()
	}
	if pr.UpdatedAt.Valid {
		post.UpdatedAt = pr.UpdatedAt.Time.UTC()
	}
	if pr.CreatedAt.Valid {
		post.CreatedAt = pr.CreatedAt.Time.UTC()
	}

	return post
}

type ownerRow struct {
	ID    int64  `db:"id"`
	Name  string `db:"name"`
	Email string `db:"email"`
}

func (o *ownerRow) fields() []any {
	return []any{&o.ID, &o.Name, &o.Email}
}

func (o *ownerRow) toDomain() *domain.Owner {
	return &domain.Owner{
		ID:    o.ID,
		Name:  o.Name,
		Email: o.Email,
	}
}

// nullableTime maps the zero time to NULL.
func nullableTime(t time.Time) any {
	if t.IsZero() {
		return nil
	}
	return t.UTC()
}

func utc(t time.Time) time.Time {
	return t.UTC()
}
