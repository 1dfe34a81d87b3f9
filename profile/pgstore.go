package profile

import (
	"context"
	"database/sql"
	"errors"
	"strconv"
	"strings"

	"github.com/jmoiron/sqlx"
)

// NOTE: expected table schema (Postgres):
// CREATE TABLE profiles (
//   user_id TEXT PRIMARY KEY,
//   full_name TEXT NOT NULL DEFAULT '',
//   scholar_id TEXT NOT NULL DEFAULT '',
//   email TEXT NOT NULL DEFAULT '',
//   avatar_url TEXT NOT NULL DEFAULT '',
//   role TEXT NOT NULL DEFAULT '',
//   is_admin BOOLEAN NOT NULL DEFAULT FALSE,
//   contact_number TEXT NOT NULL DEFAULT '',
//   college_email_verified BOOLEAN NOT NULL DEFAULT FALSE,
//   updated_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT now()
// );

// PGStore is the Postgres-backed [Store].
type PGStore struct {
	db *sqlx.DB
}

// NewPGStore wraps an open sqlx handle. The caller owns the handle's
// lifecycle.
func NewPGStore(db *sqlx.DB) (*PGStore, error) {
	if db == nil {
		return nil, errors.New("sqlx handle required")
	}
	return &PGStore{db: db}, nil
}

const selectProfileQuery = `
SELECT user_id, full_name, scholar_id, email, avatar_url, role,
       is_admin, contact_number, college_email_verified, updated_at
FROM profiles
WHERE user_id = $1`

// GetByUserID implements [Store], mapping sql.ErrNoRows to [ErrNotFound].
func (s *PGStore) GetByUserID(ctx context.Context, userID string) (*Profile, error) {
	var p Profile
	if err := s.db.GetContext(ctx, &p, selectProfileQuery, userID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &p, nil
}

const upsertProfileQuery = `
INSERT INTO profiles (user_id, full_name, scholar_id, email, avatar_url, role,
                      is_admin, contact_number, college_email_verified, updated_at)
VALUES (:user_id, :full_name, :scholar_id, :email, :avatar_url, :role,
        :is_admin, :contact_number, :college_email_verified, now())
ON CONFLICT (user_id) DO UPDATE SET
  full_name = EXCLUDED.full_name,
  scholar_id = EXCLUDED.scholar_id,
  email = EXCLUDED.email,
  avatar_url = EXCLUDED.avatar_url,
  role = EXCLUDED.role,
  is_admin = EXCLUDED.is_admin,
  contact_number = EXCLUDED.contact_number,
  college_email_verified = EXCLUDED.college_email_verified,
  updated_at = now()`

// Upsert implements [Store].
func (s *PGStore) Upsert(ctx context.Context, p *Profile) error {
	if p == nil || p.UserID == "" {
		return errors.New("profile with user_id required")
	}
	_, err := s.db.NamedExecContext(ctx, upsertProfileQuery, p)
	return err
}

// Update implements [Store]. Only the non-nil fields of ch are written.
func (s *PGStore) Update(ctx context.Context, userID string, ch Changes) error {
	sets := make([]string, 0, 8)
	args := make([]interface{}, 0, 8)

	add := func(column string, value interface{}) {
		args = append(args, value)
		sets = append(sets, column+" = $"+strconv.Itoa(len(args)))
	}

	if ch.FullName != nil {
		add("full_name", *ch.FullName)
	}
	if ch.ScholarID != nil {
		add("scholar_id", *ch.ScholarID)
	}
	if ch.AvatarURL != nil {
		add("avatar_url", *ch.AvatarURL)
	}
	if ch.Role != nil {
		add("role", *ch.Role)
	}
	if ch.IsAdmin != nil {
		add("is_admin", *ch.IsAdmin)
	}
	if ch.ContactNumber != nil {
		add("contact_number", *ch.ContactNumber)
	}
	if ch.CollegeEmailVerified != nil {
		add("college_email_verified", *ch.CollegeEmailVerified)
	}
	if len(sets) == 0 {
		return nil
	}
	sets = append(sets, "updated_at = now()")

	args = append(args, userID)
	query := "UPDATE profiles SET " + strings.Join(sets, ", ") +
		" WHERE user_id = $" + strconv.Itoa(len(args))

	res, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrNotFound
	}
	return nil
}
