package persistence

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/dfryer1193/blogposts/blog/domain"
	"github.com/dfryer1193/blogposts/shared/db"
)

var _ domain.UserRepository = (*SQLiteUserRepository)(nil)

type SQLiteUserRepository struct {
	db *sql.DB
}

func NewUserRepository(db *sql.DB) *SQLiteUserRepository {
	return &SQLiteUserRepository{
		db: db,
	}
}

const insertUserQuery = `
	INSERT INTO users (name, email, updated_at, created_at)
	VALUES (?, ?, ?, ?)
`

// CreateUser inserts u and sets its ID.
func (r *SQLiteUserRepository) CreateUser(ctx context.Context, u *domain.User) error {
	if u == nil {
		return fmt.Errorf("user cannot be nil")
	}
	if u.Email == "" {
		return fmt.Errorf("user email cannot be empty")
	}

	res, err := db.GetExecutor(ctx, r.db).ExecContext(ctx, insertUserQuery,
		u.Name,
		u.Email,
		nullableTime(u.UpdatedAt),
		utc(u.CreatedAt),
	)
	if err != nil {
		return fmt.Errorf("failed to insert user: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to read inserted user id: %w", err)
	}
	u.ID = id

	return nil
}

const getUserQuery = `
	SELECT id, name, email, updated_at, created_at
	FROM users
	WHERE id = ?
`

func (r *SQLiteUserRepository) GetUser(ctx context.Context, id int64) (*domain.User, error) {
	var u domain.User
	var updatedAt, createdAt sql.NullTime

	err := db.GetExecutor(ctx, r.db).QueryRowContext(ctx, getUserQuery, id).
		Scan(&u.ID, &u.Name, &u.Email, &updatedAt, &createdAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("user %d: %w", id, domain.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	if updatedAt.Valid {
		u.UpdatedAt = updatedAt.Time.UTC()
	}
	if createdAt.Valid {
		u.CreatedAt = createdAt.Time.UTC()
	}

	return &u, nil
}
