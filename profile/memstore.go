package profile

import (
	"context"
	"sync"
	"time"
)

// MemStore is an in-memory [Store] for tests, the simulator, and the
// runnable example. Safe for concurrent use.
type MemStore struct {
	mu   sync.RWMutex
	rows map[string]Profile

	// FailNext, when set, makes the next read fail with the given error
	// and then clears itself. Lets tests exercise the transient-failure
	// path.
	failNext error
}

// NewMemStore returns an empty in-memory store.
func NewMemStore() *MemStore {
	return &MemStore{rows: make(map[string]Profile)}
}

// FailNextRead arms a one-shot read failure.
func (s *MemStore) FailNextRead(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failNext = err
}

// GetByUserID implements [Store].
func (s *MemStore) GetByUserID(ctx context.Context, userID string) (*Profile, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.Lock()
	if err := s.failNext; err != nil {
		s.failNext = nil
		s.mu.Unlock()
		return nil, err
	}
	row, ok := s.rows[userID]
	s.mu.Unlock()

	if !ok {
		return nil, ErrNotFound
	}
	out := row
	return &out, nil
}

// Upsert implements [Store].
func (s *MemStore) Upsert(ctx context.Context, p *Profile) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	row := *p
	row.UpdatedAt = time.Now()
	s.rows[p.UserID] = row
	return nil
}

// Update implements [Store].
func (s *MemStore) Update(ctx context.Context, userID string, ch Changes) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	row, ok := s.rows[userID]
	if !ok {
		return ErrNotFound
	}
	if ch.FullName != nil {
		row.FullName = *ch.FullName
	}
	if ch.ScholarID != nil {
		row.ScholarID = *ch.ScholarID
	}
	if ch.AvatarURL != nil {
		row.AvatarURL = *ch.AvatarURL
	}
	if ch.Role != nil {
		row.Role = *ch.Role
	}
	if ch.IsAdmin != nil {
		row.IsAdmin = *ch.IsAdmin
	}
	if ch.ContactNumber != nil {
		row.ContactNumber = *ch.ContactNumber
	}
	if ch.CollegeEmailVerified != nil {
		row.CollegeEmailVerified = *ch.CollegeEmailVerified
	}
	row.UpdatedAt = time.Now()
	s.rows[userID] = row
	return nil
}
