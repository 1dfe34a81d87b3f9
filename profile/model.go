package profile

import (
	"context"
	"errors"
	"strings"
	"time"
)

// ErrNotFound reports that no profile row exists for the user. First
// logins hit this before the complete-profile flow runs; callers treat
// it as an expected state, not an error.
var ErrNotFound = errors.New("profile not found")

// Profile is the durable member record keyed by the backend user id.
// FullName and ScholarID are the completeness-required fields; the rest
// are optional.
type Profile struct {
	UserID               string    `db:"user_id" json:"user_id"`
	FullName             string    `db:"full_name" json:"full_name"`
	ScholarID            string    `db:"scholar_id" json:"scholar_id"`
	Email                string    `db:"email" json:"email,omitempty"`
	AvatarURL            string    `db:"avatar_url" json:"avatar_url,omitempty"`
	Role                 string    `db:"role" json:"role,omitempty"`
	IsAdmin              bool      `db:"is_admin" json:"is_admin"`
	ContactNumber        string    `db:"contact_number" json:"contact_number,omitempty"`
	CollegeEmailVerified bool      `db:"college_email_verified" json:"college_email_verified"`
	UpdatedAt            time.Time `db:"updated_at" json:"updated_at"`
}

// Complete reports whether the profile satisfies the completeness law:
// both FullName and ScholarID are non-blank. A nil profile is never
// complete.
func (p *Profile) Complete() bool {
	if p == nil {
		return false
	}
	return strings.TrimSpace(p.FullName) != "" && strings.TrimSpace(p.ScholarID) != ""
}

// RequiresCompletion is the inverse of [Profile.Complete], spelled out
// because the session manager stores the requirement, not the
// completeness.
func RequiresCompletion(p *Profile) bool {
	return !p.Complete()
}

// Changes is a partial update for [Store.Update]. Nil fields are left
// untouched.
type Changes struct {
	FullName             *string
	ScholarID            *string
	AvatarURL            *string
	Role                 *string
	IsAdmin              *bool
	ContactNumber        *string
	CollegeEmailVerified *bool
}

// Store is the profile persistence contract. Implementations map their
// backend's "no rows" condition to [ErrNotFound].
type Store interface {
	GetByUserID(ctx context.Context, userID string) (*Profile, error)
	Upsert(ctx context.Context, p *Profile) error
	Update(ctx context.Context, userID string, ch Changes) error
}
