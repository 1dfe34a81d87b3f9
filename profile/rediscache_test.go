package profile

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

type countingStore struct {
	*MemStore
	reads int
}

func (s *countingStore) GetByUserID(ctx context.Context, userID string) (*Profile, error) {
	s.reads++
	return s.MemStore.GetByUserID(ctx, userID)
}

func newTestCache(t *testing.T) (*Cache, *countingStore, *miniredis.Miniredis, func()) {
	t.Helper()

	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("miniredis run failed: %v", err)
	}
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})

	inner := &countingStore{MemStore: NewMemStore()}
	cache, err := NewCache(rdb, inner, CacheConfig{
		Prefix:      "cse",
		TTL:         time.Minute,
		NegativeTTL: 10 * time.Second,
	})
	if err != nil {
		mr.Close()
		t.Fatalf("NewCache failed: %v", err)
	}

	return cache, inner, mr, func() {
		_ = rdb.Close()
		mr.Close()
	}
}

func TestCacheReadThroughFillsOnce(t *testing.T) {
	cache, inner, _, done := newTestCache(t)
	defer done()

	ctx := context.Background()
	seed := &Profile{UserID: "u1", FullName: "Ann", ScholarID: "2112001"}
	if err := inner.Upsert(ctx, seed); err != nil {
		t.Fatalf("seed failed: %v", err)
	}

	for i := 0; i < 3; i++ {
		p, err := cache.GetByUserID(ctx, "u1")
		if err != nil {
			t.Fatalf("get %d failed: %v", i, err)
		}
		if p.FullName != "Ann" || p.ScholarID != "2112001" {
			t.Fatalf("unexpected row: %+v", p)
		}
	}

	if inner.reads != 1 {
		t.Fatalf("expected 1 inner read, got %d", inner.reads)
	}
}

func TestCacheNegativeEntry(t *testing.T) {
	cache, inner, _, done := newTestCache(t)
	defer done()

	ctx := context.Background()
	for i := 0; i < 3; i++ {
		if _, err := cache.GetByUserID(ctx, "nobody"); !errors.Is(err, ErrNotFound) {
			t.Fatalf("expected ErrNotFound, got %v", err)
		}
	}

	if inner.reads != 1 {
		t.Fatalf("expected the not-found answer to be cached, got %d inner reads", inner.reads)
	}
}

func TestCacheUpsertInvalidatesNegativeEntry(t *testing.T) {
	cache, _, _, done := newTestCache(t)
	defer done()

	ctx := context.Background()
	if _, err := cache.GetByUserID(ctx, "u2"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}

	// Profile completion writes the first row; the stale negative entry
	// must not shadow it.
	if err := cache.Upsert(ctx, &Profile{UserID: "u2", FullName: "Bea", ScholarID: "2112002"}); err != nil {
		t.Fatalf("upsert failed: %v", err)
	}

	p, err := cache.GetByUserID(ctx, "u2")
	if err != nil {
		t.Fatalf("get after upsert failed: %v", err)
	}
	if p.FullName != "Bea" {
		t.Fatalf("unexpected row after upsert: %+v", p)
	}
}

func TestCacheUpdateInvalidates(t *testing.T) {
	cache, _, _, done := newTestCache(t)
	defer done()

	ctx := context.Background()
	if err := cache.Upsert(ctx, &Profile{UserID: "u3", FullName: "Cal", ScholarID: "2112003"}); err != nil {
		t.Fatalf("upsert failed: %v", err)
	}
	if _, err := cache.GetByUserID(ctx, "u3"); err != nil {
		t.Fatalf("warm read failed: %v", err)
	}

	verified := true
	if err := cache.Update(ctx, "u3", Changes{CollegeEmailVerified: &verified}); err != nil {
		t.Fatalf("update failed: %v", err)
	}

	p, err := cache.GetByUserID(ctx, "u3")
	if err != nil {
		t.Fatalf("get after update failed: %v", err)
	}
	if !p.CollegeEmailVerified {
		t.Fatal("expected college_email_verified to be visible after update")
	}
}

func TestCacheServesFromInnerWhenRedisDown(t *testing.T) {
	cache, inner, mr, done := newTestCache(t)
	defer done()

	ctx := context.Background()
	if err := inner.Upsert(ctx, &Profile{UserID: "u4", FullName: "Dia", ScholarID: "2112004"}); err != nil {
		t.Fatalf("seed failed: %v", err)
	}

	mr.Close()

	p, err := cache.GetByUserID(ctx, "u4")
	if err != nil {
		t.Fatalf("expected inner-store fallback, got %v", err)
	}
	if p.FullName != "Dia" {
		t.Fatalf("unexpected row: %+v", p)
	}
}
