// Package policy decides who may see and who may change a post.
//
// Every decision is a pure function of an already-loaded post snapshot plus the
// explicitly supplied clock reading or acting user; nothing is read from request context.
package policy

import (
	"time"

	"github.com/dfryer1193/blogposts/blog/domain"
)

// Visibility is the read-path decision for a post.
type Visibility int

const (
	Hidden Visibility = iota
	Visible
)

func (v Visibility) String() string {
	if v == Visible {
		return "visible"
	}
	return "hidden"
}

// Authorization is the write-path decision for a post.
type Authorization int

const (
	Unauthorized Authorization = iota
	Authorized
)

func (a Authorization) String() string {
	if a == Authorized {
		return "authorized"
	}
	return "unauthorized"
}

// Outcome classifies a decision the way the HTTP boundary reports it.
type Outcome int

const (
	Allow Outcome = iota
	NotFound
	Forbidden
)

func (o Outcome) String() string {
	switch o {
	case Allow:
		return "allow"
	case NotFound:
		return "not_found"
	case Forbidden:
		return "forbidden"
	default:
		return "unknown"
	}
}

// Err converts the outcome into the matching domain error, or nil for Allow.
func (o Outcome) Err() error {
	switch o {
	case NotFound:
		return domain.ErrNotFound
	case Forbidden:
		return domain.ErrForbidden
	default:
		return nil
	}
}

// IsPubliclyVisible reports whether p is not a draft and has a publication date at or before now.
func IsPubliclyVisible(p domain.Post, now time.Time) bool {
	return !p.IsDraft && !p.PublishedAt.IsZero() && !p.PublishedAt.After(now)
}

// CanView applies the public visibility rule. Owners get no preview bypass here.
func CanView(p domain.Post, now time.Time) Visibility {
	if IsPubliclyVisible(p, now) {
		return Visible
	}
	return Hidden
}

// CanModify allows edit, update and delete only for the post's owner,
// whatever the post's visibility.
func CanModify(p domain.Post, actingUserID int64) Authorization {
	if actingUserID == p.UserID {
		return Authorized
	}
	return Unauthorized
}

// ViewOutcome maps a hidden post to NotFound so drafts and scheduled posts
// cannot be told apart from missing ones.
func ViewOutcome(p domain.Post, now time.Time) Outcome {
	if CanView(p, now) == Hidden {
		return NotFound
	}
	return Allow
}

// ModifyOutcome maps a non-owner to Forbidden.
func ModifyOutcome(p domain.Post, actingUserID int64) Outcome {
	if CanModify(p, actingUserID) == Unauthorized {
		return Forbidden
	}
	return Allow
}
