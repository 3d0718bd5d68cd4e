// Package users carries the wire form of account administration and
// authentication exchanges.
package users

import (
	"time"

	"github.com/google/uuid"

	"github.com/carestack/cdr/pkg/domain"
	"github.com/carestack/cdr/pkg/utils/rfctime"
)

type Detail struct {
	Key      uuid.UUID `json:"key"`
	UserName string    `json:"userName"`
	Email    *string   `json:"email,omitempty"`

	Lockout              *rfctime.RFC3339 `json:"lockout,omitempty"`
	InvalidLoginAttempts int              `json:"invalidLoginAttempts,omitempty"`
	CreationTime         rfctime.RFC3339  `json:"creationTime,omitempty"`
	ObsoletionTime       *rfctime.RFC3339 `json:"obsoletionTime,omitempty"`
}

func ComposeDetail(u domain.SecurityUser) Detail {
	return Detail{
		Key:                  u.Key,
		UserName:             u.UserName,
		Email:                u.Email,
		Lockout:              stamp(u.Lockout),
		InvalidLoginAttempts: u.InvalidLoginAttempts,
		CreationTime:         rfctime.RFC3339(u.CreationTime),
		ObsoletionTime:       stamp(u.ObsoletionTime),
	}
}

// CreateRequest carries a new account. The password travels in clear over
// the TLS channel and is hashed server side.
type CreateRequest struct {
	UserName string  `json:"userName"`
	Password string  `json:"password"`
	Email    *string `json:"email,omitempty"`
}

// LockRequest sets or clears an account lockout.
type LockRequest struct {
	Until *rfctime.RFC3339 `json:"until,omitempty"`
}

// AuthRequest trades credentials for a token.
type AuthRequest struct {
	UserName string `json:"userName"`
	Password string `json:"password"`
}

// AuthResponse returns a signed bearer token.
type AuthResponse struct {
	Token     string          `json:"token"`
	ExpiresAt rfctime.RFC3339 `json:"expiresAt"`
}

func stamp(t *time.Time) *rfctime.RFC3339 {
	if t == nil {
		return nil
	}
	out := rfctime.RFC3339(*t)
	return &out
}
