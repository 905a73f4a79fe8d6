package goRevoke

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func BenchmarkAuthenticate(b *testing.B) {
	engine, cleanup := newBenchmarkEngine(b)
	defer cleanup()

	pair, err := engine.Register(context.Background(), "alice@example.com", "Secret123!")
	if err != nil {
		b.Fatalf("register failed: %v", err)
	}

	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := engine.Authenticate(context.Background(), pair.AccessToken); err != nil {
			b.Fatalf("authenticate failed: %v", err)
		}
	}
}

func BenchmarkVerifyAccessToken(b *testing.B) {
	engine, cleanup := newBenchmarkEngine(b)
	defer cleanup()

	pair, err := engine.Register(context.Background(), "alice@example.com", "Secret123!")
	if err != nil {
		b.Fatalf("register failed: %v", err)
	}

	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := engine.VerifyAccessToken(pair.AccessToken); err != nil {
			b.Fatalf("verify failed: %v", err)
		}
	}
}

func BenchmarkCheckTokenRevoked(b *testing.B) {
	engine, cleanup := newBenchmarkEngine(b)
	defer cleanup()

	pair, err := engine.Register(context.Background(), "alice@example.com", "Secret123!")
	if err != nil {
		b.Fatalf("register failed: %v", err)
	}
	engine.Logout(context.Background(), pair.AccessToken, "")

	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		status, err := engine.CheckToken(context.Background(), pair.AccessToken)
		if err != nil {
			b.Fatalf("check failed: %v", err)
		}
		if !status.Revoked {
			b.Fatal("expected revoked status")
		}
	}
}

func BenchmarkRefresh(b *testing.B) {
	engine, cleanup := newBenchmarkEngine(b)
	defer cleanup()

	pair, err := engine.Register(context.Background(), "alice@example.com", "Secret123!")
	if err != nil {
		b.Fatalf("register failed: %v", err)
	}

	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := engine.Refresh(context.Background(), pair.RefreshToken); err != nil {
			b.Fatalf("refresh failed: %v", err)
		}
	}
}

func BenchmarkLoginLogout(b *testing.B) {
	engine, cleanup := newBenchmarkEngine(b)
	defer cleanup()

	if _, err := engine.Register(context.Background(), "alice@example.com", "Secret123!"); err != nil {
		b.Fatalf("register failed: %v", err)
	}

	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		pair, err := engine.Login(context.Background(), "alice@example.com", "Secret123!")
		if err != nil {
			b.Fatalf("login failed: %v", err)
		}
		engine.Logout(context.Background(), pair.AccessToken, pair.RefreshToken)
	}
}

func newBenchmarkEngine(tb testing.TB) (*Engine, func()) {
	tb.Helper()

	mr, err := miniredis.Run()
	if err != nil {
		tb.Fatalf("miniredis.Run failed: %v", err)
	}
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})

	cfg := defaultConfig()
	cfg.JWT.AccessSecret = []byte("bench-access-secret")
	cfg.JWT.RefreshSecret = []byte("bench-refresh-secret")
	cfg.JWT.AccessTTL = 10 * time.Minute
	cfg.JWT.RefreshTTL = 10 * time.Minute
	cfg.Metrics.Enabled = false

	engine, err := New().
		WithConfig(cfg).
		WithRedis(rdb).
		WithSubjectProvider(newStubSubjectProvider()).
		Build()
	if err != nil {
		tb.Fatalf("Build failed: %v", err)
	}

	return engine, func() {
		engine.Close()
		_ = rdb.Close()
		mr.Close()
	}
}
