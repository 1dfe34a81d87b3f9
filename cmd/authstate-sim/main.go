// Command authstate-sim replays pathological auth event sequences
// against a Manager and prints the resulting metrics: duplicate
// notification bursts, overlapping sign-in races, token rotations, and
// sign-out storms.
//
// Run:
//
//	go run ./cmd/authstate-sim -users 50 -bursts 200
//
// Environment (loaded from .env when present):
//
//	AUTHSTATE_TOKEN_SECRET — HS256 secret for minted tokens
//	REDIS_ADDR             — external Redis for the profile cache;
//	                         empty starts an embedded miniredis
package main

import (
	"context"
	"flag"
	"fmt"
	"math/rand"
	"os"
	"sync"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	authstate "github.com/csea-nits/authstate"
	"github.com/csea-nits/authstate/identity"
	"github.com/csea-nits/authstate/profile"
)

func main() {
	var (
		users     = flag.Int("users", 50, "number of seeded users")
		bursts    = flag.Int("bursts", 200, "duplicate notification bursts to replay")
		burstSize = flag.Int("burst-size", 3, "duplicate emissions per burst")
		races     = flag.Int("races", 100, "concurrent sign-in/sign-out races")
		rotations = flag.Int("rotations", 50, "token rotations to replay")
		window    = flag.Duration("window", 25*time.Millisecond, "debounce window")
		redisAddr = flag.String("redis-addr", "", "redis address; empty uses REDIS_ADDR env or miniredis")
	)
	flag.Parse()

	_ = godotenv.Load()

	logger, err := zap.NewDevelopment()
	if err != nil {
		fmt.Fprintf(os.Stderr, "logger init: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = logger.Sync() }()

	if *users <= 0 || *bursts < 0 || *burstSize <= 0 {
		fmt.Fprintln(os.Stderr, "users and burst-size must be > 0")
		os.Exit(2)
	}

	addr := *redisAddr
	if addr == "" {
		addr = os.Getenv("REDIS_ADDR")
	}

	var cleanup func()
	if addr == "" {
		mr, err := miniredis.Run()
		if err != nil {
			logger.Fatal("miniredis start failed", zap.Error(err))
		}
		addr = mr.Addr()
		cleanup = mr.Close
		logger.Info("using embedded miniredis", zap.String("addr", addr))
	} else {
		cleanup = func() {}
		logger.Info("using redis", zap.String("addr", addr))
	}
	defer cleanup()

	rdb := redis.NewClient(&redis.Options{Addr: addr})
	defer func() { _ = rdb.Close() }()

	secret := os.Getenv("AUTHSTATE_TOKEN_SECRET")
	if secret == "" {
		secret = "authstate-sim-secret"
	}
	verifier, err := identity.NewTokenVerifier(identity.TokenConfig{Secret: []byte(secret)})
	if err != nil {
		logger.Fatal("token verifier init failed", zap.Error(err))
	}

	backend := identity.NewLocalBackend(verifier, time.Hour)
	store := profile.NewMemStore()
	cached, err := profile.NewCache(rdb, store, profile.CacheConfig{})
	if err != nil {
		logger.Fatal("profile cache init failed", zap.Error(err))
	}

	ctx := context.Background()

	// Seed users; every other one already has a complete profile, the
	// rest exercise the first-login miss path.
	sessions := make([]*identity.Session, 0, *users)
	for i := 0; i < *users; i++ {
		email := fmt.Sprintf("member%03d@example.com", i)
		id := backend.RegisterUser(email, "sim-password")
		if i%2 == 0 {
			err := cached.Upsert(ctx, &profile.Profile{
				UserID:    id,
				FullName:  fmt.Sprintf("Member %03d", i),
				ScholarID: fmt.Sprintf("21%05d", i),
				Email:     email,
			})
			if err != nil {
				logger.Fatal("profile seed failed", zap.Error(err))
			}
		}
		sessions = append(sessions, &identity.Session{
			User:      identity.UserIdentity{ID: id, Email: email},
			ExpiresAt: time.Now().Add(time.Hour),
		})
	}

	cfg := authstate.DefaultConfig()
	cfg.Events.DebounceWindow = *window
	cfg.Metrics.EnableLatencyHistograms = true

	manager, err := authstate.New().
		WithConfig(cfg).
		WithIdentityClient(backend).
		WithProfileStore(cached).
		WithTokenVerifier(verifier).
		WithLogger(logger).
		Build()
	if err != nil {
		logger.Fatal("manager build failed", zap.Error(err))
	}
	defer func() { _ = manager.Close() }()

	if err := manager.Initialize(ctx); err != nil {
		logger.Fatal("initialize failed", zap.Error(err))
	}

	rng := rand.New(rand.NewSource(time.Now().UnixNano()))

	logger.Info("replaying duplicate bursts",
		zap.Int("bursts", *bursts),
		zap.Int("burst_size", *burstSize))
	start := time.Now()
	for i := 0; i < *bursts; i++ {
		sess := sessions[rng.Intn(len(sessions))]
		for j := 0; j < *burstSize; j++ {
			backend.Emit(identity.AuthEvent{Kind: identity.EventSignedIn, Session: sess})
		}
		time.Sleep(*window + 5*time.Millisecond)
	}

	logger.Info("replaying overlap races", zap.Int("races", *races))
	var wg sync.WaitGroup
	for i := 0; i < *races; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			sess := sessions[n%len(sessions)]
			if n%3 == 0 {
				backend.Emit(identity.AuthEvent{Kind: identity.EventSignedOut})
				return
			}
			backend.Emit(identity.AuthEvent{Kind: identity.EventSignedIn, Session: sess})
		}(i)
	}
	wg.Wait()

	logger.Info("replaying token rotations", zap.Int("rotations", *rotations))
	if _, err := backend.SignInWithPassword(ctx, "member000@example.com", "sim-password"); err != nil {
		logger.Fatal("sign-in for rotation phase failed", zap.Error(err))
	}
	for i := 0; i < *rotations; i++ {
		if err := backend.RotateToken(); err != nil {
			logger.Fatal("rotation failed", zap.Error(err))
		}
	}

	// Let the last debounce window drain before reading counters.
	time.Sleep(2 * *window)

	elapsed := time.Since(start).Round(time.Millisecond)
	snap := manager.MetricsSnapshot()

	fmt.Println("---- results ----")
	fmt.Printf("elapsed                  %s\n", elapsed)
	printCounter(snap, "events received", authstate.MetricAuthEventReceived)
	printCounter(snap, "events coalesced", authstate.MetricAuthEventCoalesced)
	printCounter(snap, "events dropped", authstate.MetricAuthEventDropped)
	printCounter(snap, "sessions established", authstate.MetricSessionEstablished)
	printCounter(snap, "sessions cleared", authstate.MetricSessionCleared)
	printCounter(snap, "tokens refreshed", authstate.MetricTokenRefreshed)
	printCounter(snap, "profile hits", authstate.MetricProfileFetchSuccess)
	printCounter(snap, "profile misses", authstate.MetricProfileFetchMiss)
	printCounter(snap, "profile failures", authstate.MetricProfileFetchFailure)

	if buckets, ok := snap.Histograms[authstate.MetricProcessLatency]; ok {
		fmt.Printf("latency buckets (ms)     <=5:%d <=10:%d <=25:%d <=50:%d <=100:%d <=250:%d <=500:%d +inf:%d\n",
			buckets[0], buckets[1], buckets[2], buckets[3],
			buckets[4], buckets[5], buckets[6], buckets[7])
	}

	final := manager.Snapshot()
	fmt.Printf("final state              signed_in=%v loading=%v last_event=%s\n",
		final.SignedIn(), final.Loading, final.LastEvent)
}

func printCounter(snap authstate.MetricsSnapshot, label string, id authstate.MetricID) {
	fmt.Printf("%-24s %d\n", label, snap.Counters[id])
}
