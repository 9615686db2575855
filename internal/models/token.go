package models

import (
	"time"

	"github.com/lib/pq"
)

// Token abilities. A token's ability set is fixed at creation.
const (
	AbilityAccess  = "access"
	AbilityRefresh = "refresh"
)

// PersonalToken is the server-side record behind an opaque bearer token. The
// client holds "<id>|<secret>"; only the SHA-256 of the secret is stored.
// Deleting the row revokes the token.
type PersonalToken struct {
	ID         string         `db:"id" json:"id"`
	UserID     string         `db:"user_id" json:"user_id"`
	Name       string         `db:"name" json:"name"`
	TokenHash  string         `db:"token_hash" json:"-"`
	Abilities  pq.StringArray `db:"abilities" json:"abilities"`
	LastUsedAt *time.Time     `db:"last_used_at" json:"last_used_at,omitempty"`
	ExpiresAt  *time.Time     `db:"expires_at" json:"expires_at,omitempty"`
	CreatedAt  time.Time      `db:"created_at" json:"created_at"`
}

// Can reports whether the token carries the given ability.
func (t *PersonalToken) Can(ability string) bool {
	for _, a := range t.Abilities {
		if a == ability {
			return true
		}
	}
	return false
}

// Expired reports whether the token is past its expiry at the given instant.
// The comparison is strict: a token is valid through the exact expires_at
// instant. A token with no expiry never expires.
func (t *PersonalToken) Expired(now time.Time) bool {
	if t.ExpiresAt == nil {
		return false
	}
	return now.After(*t.ExpiresAt)
}

// DeviceLabel strips the ":access"/":refresh" suffix from the token name,
// recovering the device name supplied at login.
func (t *PersonalToken) DeviceLabel() string {
	for i := len(t.Name) - 1; i >= 0; i-- {
		if t.Name[i] == ':' {
			return t.Name[:i]
		}
	}
	return t.Name
}
