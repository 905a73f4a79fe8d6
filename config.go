package goRevoke

import (
	"errors"
	"time"

	"github.com/MrEthical07/goRevoke/jwt"
)

// Config defines a public type used by goRevoke APIs.
//
// Config instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type Config struct {
	JWT        JWTConfig
	Revocation RevocationConfig
	Reaper     ReaperConfig
	Password   PasswordConfig
	Audit      AuditConfig
	Metrics    MetricsConfig
}

/*
====================================
JWT CONFIG
====================================
*/

// JWTConfig defines a public type used by goRevoke APIs.
//
// JWTConfig instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type JWTConfig struct {
	AccessSecret  []byte
	RefreshSecret []byte
	AccessTTL     time.Duration
	RefreshTTL    time.Duration
	Issuer        string
	Leeway        time.Duration
}

/*
====================================
REVOCATION CONFIG
====================================
*/

// RevocationConfig defines a public type used by goRevoke APIs.
//
// RevocationConfig instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type RevocationConfig struct {
	RedisPrefix string
	// MinEntryTTL floors the native TTL on ledger entries so revoking an
	// already-expired token still leaves a short-lived record.
	MinEntryTTL time.Duration
	// SubjectPageSize caps per-subject revocation enumeration.
	SubjectPageSize int
	// StrictInvalidation requires manually invalidated tokens to pass a
	// full verification including expiry. When false, an expired but
	// correctly signed token is accepted too.
	StrictInvalidation bool
}

/*
====================================
REAPER CONFIG
====================================
*/

// ReaperConfig defines a public type used by goRevoke APIs.
//
// ReaperConfig instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type ReaperConfig struct {
	Interval time.Duration
	// BatchLimit bounds removals per run; a backlog larger than this is
	// processed across successive runs.
	BatchLimit int
}

/*
====================================
PASSWORD CONFIG
====================================
*/

// PasswordConfig defines a public type used by goRevoke APIs.
//
// PasswordConfig instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type PasswordConfig struct {
	MinLength   int
	Memory      uint32 // in KB
	Time        uint32
	Parallelism uint8
	SaltLength  uint32
	KeyLength   uint32
}

/*
====================================
AUDIT / METRICS CONFIG
====================================
*/

// AuditConfig defines a public type used by goRevoke APIs.
//
// AuditConfig instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type AuditConfig struct {
	Enabled    bool
	BufferSize int
	DropIfFull bool
}

// MetricsConfig defines a public type used by goRevoke APIs.
//
// MetricsConfig instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type MetricsConfig struct {
	Enabled                 bool
	EnableLatencyHistograms bool
}

// DefaultConfig describes the defaultconfig operation and its observable behavior.
//
// DefaultConfig may return an error when input validation, dependency calls, or security checks fail.
// DefaultConfig does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func DefaultConfig() Config {
	return defaultConfig()
}

func defaultConfig() Config {
	return Config{
		JWT: JWTConfig{
			AccessTTL:  24 * time.Hour,
			RefreshTTL: 7 * 24 * time.Hour,
		},
		Revocation: RevocationConfig{
			RedisPrefix:        "rv",
			MinEntryTTL:        2 * time.Minute,
			SubjectPageSize:    50,
			StrictInvalidation: true,
		},
		Reaper: ReaperConfig{
			Interval:   time.Hour,
			BatchLimit: 10_000,
		},
		Password: PasswordConfig{
			MinLength:   8,
			Memory:      65536,
			Time:        3,
			Parallelism: 2,
			SaltLength:  16,
			KeyLength:   32,
		},
		Audit: AuditConfig{
			Enabled:    false,
			BufferSize: 256,
			DropIfFull: true,
		},
		Metrics: MetricsConfig{
			Enabled: true,
		},
	}
}

func validateConfig(cfg Config) error {
	if len(cfg.JWT.AccessSecret) == 0 || len(cfg.JWT.RefreshSecret) == 0 {
		return errors.New("both access and refresh secrets are required")
	}
	// Equal secrets silently collapse kind isolation; reject at startup
	// rather than run with type-confusion risk.
	if jwt.SecretsEqual(cfg.JWT.AccessSecret, cfg.JWT.RefreshSecret) {
		return errors.New("access and refresh secrets must differ")
	}
	if cfg.JWT.AccessTTL <= 0 || cfg.JWT.RefreshTTL <= 0 {
		return errors.New("token TTLs must be positive")
	}
	if cfg.Revocation.RedisPrefix == "" {
		return errors.New("revocation redis prefix required")
	}
	if cfg.Revocation.SubjectPageSize < 0 {
		return errors.New("subject page size must not be negative")
	}
	if cfg.Reaper.Interval < 0 || cfg.Reaper.BatchLimit < 0 {
		return errors.New("invalid reaper configuration")
	}
	if cfg.Password.MinLength <= 0 {
		return errors.New("password minimum length must be positive")
	}
	return nil
}

func cloneConfig(cfg Config) Config {
	out := cfg
	out.JWT.AccessSecret = append([]byte(nil), cfg.JWT.AccessSecret...)
	out.JWT.RefreshSecret = append([]byte(nil), cfg.JWT.RefreshSecret...)
	return out
}
