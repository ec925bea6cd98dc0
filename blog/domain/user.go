package domain

import (
	"context"
	"time"
)

// User is an account that can author posts.
type User struct {
	ID        int64
	Name      string
	Email     string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Owner is the public profile of a post's author.
// It deliberately carries nothing beyond id, name and email.
type Owner struct {
	ID    int64
	Name  string
	Email string
}

type UserRepository interface {
	CreateUser(ctx context.Context, u *User) error
	GetUser(ctx context.Context, id int64) (*User, error)
}
