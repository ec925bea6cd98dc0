package persistence

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/dfryer1193/blogposts/blog/domain"
	"github.com/dfryer1193/blogposts/shared/db/sqlite"
)

var baseTime = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

// setupTestDB creates a migrated in-memory SQLite database for testing
func setupTestDB(t *testing.T) *sql.DB {
	t.Helper()

	database := sqlite.NewSQLiteDB(&sqlite.SQLiteConfig{Path: ":memory:"})
	if err := database.Connect(); err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}
	t.Cleanup(func() { database.Close() })

	return database.DB()
}

func createTestUser(t *testing.T, db *sql.DB, name string) *domain.User {
	t.Helper()

	u := &domain.User{
		Name:      name,
		Email:     name + "@example.com",
		CreatedAt: baseTime,
	}
	if err := NewUserRepository(db).CreateUser(context.Background(), u); err != nil {
		t.Fatalf("CreateUser failed: %v", err)
	}
	return u
}

func createTestPost(t *testing.T, repo *SQLitePostRepository, p *domain.Post) *domain.Post {
	t.Helper()

	if p.Title == "" {
		p.Title = "Post"
	}
	if p.Body == "" {
		p.Body = "Body"
	}
	if p.CreatedAt.IsZero() {
		p.CreatedAt = baseTime
	}
	if err := repo.CreatePost(context.Background(), p); err != nil {
		t.Fatalf("CreatePost failed: %v", err)
	}
	return p
}

func TestNewPostRepository(t *testing.T) {
	db := setupTestDB(t)

	repo := NewPostRepository(db)
	if repo == nil {
		t.Fatal("NewPostRepository returned nil")
	}
	if repo.db == nil {
		t.Error("repository db field not set correctly")
	}
}

func TestPostRepository_CreatePost(t *testing.T) {
	db := setupTestDB(t)
	repo := NewPostRepository(db)
	owner := createTestUser(t, db, "ada")

	post := &domain.Post{
		UserID:      owner.ID,
		Title:       "Test Post",
		Body:        "This is a test post",
		Snippet:     "This is a test post",
		BodyHTML:    "<p>This is a test post</p>",
		PublishedAt: baseTime.Add(time.Hour),
		UpdatedAt:   baseTime,
		CreatedAt:   baseTime,
	}

	if err := repo.CreatePost(context.Background(), post); err != nil {
		t.Fatalf("CreatePost failed: %v", err)
	}
	if post.ID == 0 {
		t.Fatal("CreatePost did not assign an ID")
	}

	retrieved, err := repo.GetPost(context.Background(), post.ID)
	if err != nil {
		t.Fatalf("GetPost failed: %v", err)
	}

	if retrieved.UserID != owner.ID {
		t.Errorf("UserID = %v, want %v", retrieved.UserID, owner.ID)
	}
	if retrieved.Title != post.Title {
		t.Errorf("Title = %v, want %v", retrieved.Title, post.Title)
	}
	if retrieved.Body != post.Body {
		t.Errorf("Body = %v, want %v", retrieved.Body, post.Body)
	}
	if retrieved.BodyHTML != post.BodyHTML {
		t.Errorf("BodyHTML = %v, want %v", retrieved.BodyHTML, post.BodyHTML)
	}
	if retrieved.IsDraft {
		t.Error("IsDraft = true, want false")
	}
	if !retrieved.PublishedAt.Equal(post.PublishedAt) {
		t.Errorf("PublishedAt = %v, want %v", retrieved.PublishedAt, post.PublishedAt)
	}
	if !retrieved.CreatedAt.Equal(post.CreatedAt) {
		t.Errorf("CreatedAt = %v, want %v", retrieved.CreatedAt, post.CreatedAt)
	}
	if retrieved.Owner != nil {
		t.Error("GetPost should not join the owner")
	}
}

func TestPostRepository_CreatePost_Invalid(t *testing.T) {
	db := setupTestDB(t)
	repo := NewPostRepository(db)

	if err := repo.CreatePost(context.Background(), nil); err == nil {
		t.Error("CreatePost should return error for nil post")
	}
	if err := repo.CreatePost(context.Background(), &domain.Post{Title: "x", Body: "y", CreatedAt: baseTime}); err == nil {
		t.Error("CreatePost should return error for a post without owner")
	}
}

func TestPostRepository_GetPostWithOwner(t *testing.T) {
	db := setupTestDB(t)
	repo := NewPostRepository(db)
	owner := createTestUser(t, db, "ada")
	post := createTestPost(t, repo, &domain.Post{UserID: owner.ID})

	retrieved, err := repo.GetPostWithOwner(context.Background(), post.ID)
	if err != nil {
		t.Fatalf("GetPostWithOwner failed: %v", err)
	}
	if retrieved.Owner == nil {
		t.Fatal("Owner not populated")
	}
	want := domain.Owner{ID: owner.ID, Name: "ada", Email: "ada@example.com"}
	if *retrieved.Owner != want {
		t.Errorf("Owner = %+v, want %+v", *retrieved.Owner, want)
	}
}

func TestPostRepository_GetPost_NotFound(t *testing.T) {
	db := setupTestDB(t)
	repo := NewPostRepository(db)

	for _, id := range []int64{0, -1, 999} {
		_, err := repo.GetPost(context.Background(), id)
		if !errors.Is(err, domain.ErrNotFound) {
			t.Errorf("GetPost(%d) error = %v, want %v", id, err, domain.ErrNotFound)
		}
		_, err = repo.GetPostWithOwner(context.Background(), id)
		if !errors.Is(err, domain.ErrNotFound) {
			t.Errorf("GetPostWithOwner(%d) error = %v, want %v", id, err, domain.ErrNotFound)
		}
	}
}

func TestPostRepository_SavePost(t *testing.T) {
	db := setupTestDB(t)
	repo := NewPostRepository(db)
	owner := createTestUser(t, db, "ada")
	post := createTestPost(t, repo, &domain.Post{
		UserID:      owner.ID,
		Title:       "Original Title",
		PublishedAt: baseTime,
	})

	later := baseTime.Add(time.Hour)
	post.Title = "Updated Title"
	post.IsDraft = true
	post.PublishedAt = time.Time{}
	post.UpdatedAt = later

	if err := repo.SavePost(context.Background(), post); err != nil {
		t.Fatalf("SavePost failed: %v", err)
	}

	retrieved, err := repo.GetPost(context.Background(), post.ID)
	if err != nil {
		t.Fatalf("GetPost failed: %v", err)
	}

	if retrieved.Title != "Updated Title" {
		t.Errorf("Title = %v, want %v", retrieved.Title, "Updated Title")
	}
	if !retrieved.IsDraft {
		t.Error("IsDraft = false, want true")
	}
	if !retrieved.PublishedAt.IsZero() {
		t.Errorf("PublishedAt = %v, want zero value", retrieved.PublishedAt)
	}
	if !retrieved.UpdatedAt.Equal(later) {
		t.Errorf("UpdatedAt = %v, want %v", retrieved.UpdatedAt, later)
	}
	if !retrieved.CreatedAt.Equal(baseTime) {
		t.Errorf("CreatedAt = %v, want %v (should not change on update)", retrieved.CreatedAt, baseTime)
	}
}

func TestPostRepository_SavePost_Missing(t *testing.T) {
	db := setupTestDB(t)
	repo := NewPostRepository(db)

	err := repo.SavePost(context.Background(), &domain.Post{ID: 42, Title: "x", Body: "y"})
	if !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("SavePost error = %v, want %v", err, domain.ErrNotFound)
	}
	if err := repo.SavePost(context.Background(), nil); err == nil {
		t.Error("SavePost should return error for nil post")
	}
}

func TestPostRepository_DeletePost(t *testing.T) {
	db := setupTestDB(t)
	repo := NewPostRepository(db)
	owner := createTestUser(t, db, "ada")
	post := createTestPost(t, repo, &domain.Post{UserID: owner.ID})

	if err := repo.DeletePost(context.Background(), post.ID); err != nil {
		t.Fatalf("DeletePost failed: %v", err)
	}

	_, err := repo.GetPost(context.Background(), post.ID)
	if !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("GetPost after delete error = %v, want %v", err, domain.ErrNotFound)
	}

	err = repo.DeletePost(context.Background(), post.ID)
	if !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("second DeletePost error = %v, want %v", err, domain.ErrNotFound)
	}
}

func TestPostRepository_ListVisiblePosts(t *testing.T) {
	db := setupTestDB(t)
	repo := NewPostRepository(db)
	ada := createTestUser(t, db, "ada")
	bob := createTestUser(t, db, "bob")
	now := baseTime.Add(24 * time.Hour)

	first := createTestPost(t, repo, &domain.Post{UserID: ada.ID, Title: "First", PublishedAt: baseTime.Add(1 * time.Hour)})
	second := createTestPost(t, repo, &domain.Post{UserID: bob.ID, Title: "Second", PublishedAt: baseTime.Add(2 * time.Hour)})
	third := createTestPost(t, repo, &domain.Post{UserID: ada.ID, Title: "Third", PublishedAt: baseTime.Add(3 * time.Hour)})
	createTestPost(t, repo, &domain.Post{UserID: ada.ID, Title: "Draft", IsDraft: true, PublishedAt: baseTime})
	createTestPost(t, repo, &domain.Post{UserID: ada.ID, Title: "Unpublished"})
	createTestPost(t, repo, &domain.Post{UserID: bob.ID, Title: "Scheduled", PublishedAt: now.Add(time.Second)})
	exact := createTestPost(t, repo, &domain.Post{UserID: bob.ID, Title: "Exactly now", PublishedAt: now})

	retrieved, err := repo.ListVisiblePosts(context.Background(), now, 10, 0)
	if err != nil {
		t.Fatalf("ListVisiblePosts failed: %v", err)
	}

	wantIDs := []int64{exact.ID, third.ID, second.ID, first.ID}
	if len(retrieved) != len(wantIDs) {
		t.Fatalf("ListVisiblePosts returned %d posts, want %d", len(retrieved), len(wantIDs))
	}
	for i, id := range wantIDs {
		if retrieved[i].ID != id {
			t.Errorf("post %d ID = %v, want %v", i, retrieved[i].ID, id)
		}
		if retrieved[i].Owner == nil || retrieved[i].Owner.ID != retrieved[i].UserID {
			t.Errorf("post %d owner = %+v, want owner %d", i, retrieved[i].Owner, retrieved[i].UserID)
		}
	}

	count, err := repo.CountVisiblePosts(context.Background(), now)
	if err != nil {
		t.Fatalf("CountVisiblePosts failed: %v", err)
	}
	if count != len(wantIDs) {
		t.Errorf("CountVisiblePosts = %d, want %d", count, len(wantIDs))
	}
}

func TestPostRepository_ListVisiblePosts_Pagination(t *testing.T) {
	db := setupTestDB(t)
	repo := NewPostRepository(db)
	owner := createTestUser(t, db, "ada")

	ids := make([]int64, 0, 5)
	for i := 1; i <= 5; i++ {
		p := createTestPost(t, repo, &domain.Post{
			UserID:      owner.ID,
			Title:       fmt.Sprintf("Post %d", i),
			PublishedAt: baseTime.Add(time.Duration(i) * time.Hour),
		})
		ids = append(ids, p.ID)
	}
	now := baseTime.Add(24 * time.Hour)

	tests := []struct {
		name   string
		limit  int
		offset int
		want   []int64
	}{
		{name: "first page", limit: 2, offset: 0, want: []int64{ids[4], ids[3]}},
		{name: "second page", limit: 2, offset: 2, want: []int64{ids[2], ids[1]}},
		{name: "last page", limit: 2, offset: 4, want: []int64{ids[0]}},
		{name: "past the end", limit: 2, offset: 6, want: []int64{}},
		{name: "negative offset", limit: 1, offset: -5, want: []int64{ids[4]}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			page, err := repo.ListVisiblePosts(context.Background(), now, tt.limit, tt.offset)
			if err != nil {
				t.Fatalf("ListVisiblePosts failed: %v", err)
			}
			if len(page) != len(tt.want) {
				t.Fatalf("page length = %d, want %d", len(page), len(tt.want))
			}
			for i, id := range tt.want {
				if page[i].ID != id {
					t.Errorf("post %d ID = %v, want %v", i, page[i].ID, id)
				}
			}
		})
	}
}

func TestPostRepository_ListVisiblePosts_DefaultLimit(t *testing.T) {
	db := setupTestDB(t)
	repo := NewPostRepository(db)
	owner := createTestUser(t, db, "ada")

	for i := 1; i <= domain.DefaultPageSize+5; i++ {
		createTestPost(t, repo, &domain.Post{
			UserID:      owner.ID,
			PublishedAt: baseTime.Add(time.Duration(i) * time.Minute),
		})
	}

	posts, err := repo.ListVisiblePosts(context.Background(), baseTime.Add(24*time.Hour), 0, 0)
	if err != nil {
		t.Fatalf("ListVisiblePosts failed: %v", err)
	}
	if len(posts) != domain.DefaultPageSize {
		t.Errorf("ListVisiblePosts with limit 0 returned %d posts, want %d (default)", len(posts), domain.DefaultPageSize)
	}
}

func TestPostRepository_ListVisiblePosts_EmptyResult(t *testing.T) {
	db := setupTestDB(t)
	repo := NewPostRepository(db)

	posts, err := repo.ListVisiblePosts(context.Background(), baseTime, 10, 0)
	if err != nil {
		t.Fatalf("ListVisiblePosts failed: %v", err)
	}

	if posts == nil {
		t.Error("ListVisiblePosts should return empty slice, not nil")
	}
	if len(posts) != 0 {
		t.Errorf("ListVisiblePosts returned %d posts, want 0", len(posts))
	}
}

func TestPostRepository_DeleteOwnerCascades(t *testing.T) {
	db := setupTestDB(t)
	repo := NewPostRepository(db)
	owner := createTestUser(t, db, "ada")
	post := createTestPost(t, repo, &domain.Post{UserID: owner.ID})

	if _, err := db.Exec("DELETE FROM users WHERE id = ?", owner.ID); err != nil {
		t.Fatalf("failed to delete user: %v", err)
	}

	_, err := repo.GetPost(context.Background(), post.ID)
	if !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("GetPost after owner delete error = %v, want %v", err, domain.ErrNotFound)
	}
}

func TestPostRepository_InterfaceCompliance(t *testing.T) {
	var _ domain.PostRepository = (*SQLitePostRepository)(nil)
}
