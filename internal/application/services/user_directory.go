package services

import (
	"context"
	"sort"
	"strings"

	"github.com/sharada257/Feedback-Management/internal/domain/entities"
	apperrors "github.com/sharada257/Feedback-Management/pkg/errors"
)

// UserLister lists accounts (admin and moderator only)
type UserLister interface {
	ListUsers(ctx context.Context) ([]entities.User, error)
}

// UserQuery narrows and orders the users table
type UserQuery struct {
	Search     string
	Role       string
	SortField  string
	Descending bool
}

// UserDirectory backs the users table
type UserDirectory struct {
	api UserLister
}

func NewUserDirectory(api UserLister) *UserDirectory {
	return &UserDirectory{api: api}
}

// List fetches users and applies the query
func (d *UserDirectory) List(ctx context.Context, q UserQuery) ([]entities.User, error) {
	users, err := d.api.ListUsers(ctx)
	if err != nil {
		return nil, err
	}
	return FilterUsers(users, q)
}

// FilterUsers matches Search case-insensitively against name, email and
// username, keeps only Role when set, then sorts by SortField (name,
// username, email or role; default name).
func FilterUsers(users []entities.User, q UserQuery) ([]entities.User, error) {
	field := q.SortField
	if field == "" {
		field = "name"
	}
	key, ok := userSortKeys[field]
	if !ok {
		return nil, apperrors.NewValidationError("cannot sort users by " + field)
	}

	term := strings.ToLower(strings.TrimSpace(q.Search))
	out := make([]entities.User, 0, len(users))
	for _, u := range users {
		if term != "" &&
			!strings.Contains(strings.ToLower(u.Name), term) &&
			!strings.Contains(strings.ToLower(u.Email), term) &&
			!strings.Contains(strings.ToLower(u.Username), term) {
			continue
		}
		if q.Role != "" && u.Role != q.Role {
			continue
		}
		out = append(out, u)
	}

	sort.SliceStable(out, func(i, j int) bool {
		a, b := strings.ToLower(key(out[i])), strings.ToLower(key(out[j]))
		if q.Descending {
			return a > b
		}
		return a < b
	})
	return out, nil
}

// UniqueRoles returns the distinct non-empty roles in first-seen order
func UniqueRoles(users []entities.User) []string {
	seen := make(map[string]struct{})
	var roles []string
	for _, u := range users {
		if u.Role == "" {
			continue
		}
		if _, ok := seen[u.Role]; ok {
			continue
		}
		seen[u.Role] = struct{}{}
		roles = append(roles, u.Role)
	}
	return roles
}

var userSortKeys = map[string]func(entities.User) string{
	"name":     func(u entities.User) string { return u.Name },
	"username": func(u entities.User) string { return u.Username },
	"email":    func(u entities.User) string { return u.Email },
	"role":     func(u entities.User) string { return u.Role },
}
