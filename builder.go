package goRevoke

import (
	"context"
	"errors"

	"github.com/MrEthical07/goRevoke/internal/audit"
	"github.com/MrEthical07/goRevoke/internal/flows"
	"github.com/MrEthical07/goRevoke/jwt"
	"github.com/MrEthical07/goRevoke/password"
	"github.com/MrEthical07/goRevoke/revocation"
	"github.com/redis/go-redis/v9"
)

// Builder defines a public type used by goRevoke APIs.
//
// Builder instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type Builder struct {
	config Config
	redis  *redis.Client

	subjectProvider SubjectProvider
	auditSink       AuditSink

	built bool
}

// New describes the new operation and its observable behavior.
//
// New may return an error when input validation, dependency calls, or security checks fail.
// New does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func New() *Builder {
	return &Builder{
		config: defaultConfig(),
	}
}

// WithConfig describes the withconfig operation and its observable behavior.
//
// WithConfig may return an error when input validation, dependency calls, or security checks fail.
// WithConfig does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (b *Builder) WithConfig(cfg Config) *Builder {
	b.config = cloneConfig(cfg)
	return b
}

// WithRedis describes the withredis operation and its observable behavior.
//
// WithRedis may return an error when input validation, dependency calls, or security checks fail.
// WithRedis does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (b *Builder) WithRedis(client *redis.Client) *Builder {
	b.redis = client
	return b
}

// WithSubjectProvider describes the withsubjectprovider operation and its observable behavior.
//
// WithSubjectProvider may return an error when input validation, dependency calls, or security checks fail.
// WithSubjectProvider does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (b *Builder) WithSubjectProvider(sp SubjectProvider) *Builder {
	b.subjectProvider = sp
	return b
}

// WithAuditSink describes the withauditsink operation and its observable behavior.
//
// WithAuditSink may return an error when input validation, dependency calls, or security checks fail.
// WithAuditSink does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (b *Builder) WithAuditSink(sink AuditSink) *Builder {
	b.auditSink = sink
	b.config.Audit.Enabled = true
	return b
}

// WithMetricsEnabled describes the withmetricsenabled operation and its observable behavior.
//
// WithMetricsEnabled may return an error when input validation, dependency calls, or security checks fail.
// WithMetricsEnabled does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (b *Builder) WithMetricsEnabled(enabled bool) *Builder {
	b.config.Metrics.Enabled = enabled
	return b
}

// WithLatencyHistograms describes the withlatencyhistograms operation and its observable behavior.
//
// WithLatencyHistograms may return an error when input validation, dependency calls, or security checks fail.
// WithLatencyHistograms does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (b *Builder) WithLatencyHistograms(enabled bool) *Builder {
	b.config.Metrics.EnableLatencyHistograms = enabled
	return b
}

// Build describes the build operation and its observable behavior.
//
// Build may return an error when input validation, dependency calls, or security checks fail.
// Build does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (b *Builder) Build() (*Engine, error) {
	if b.built {
		return nil, errors.New("builder already used")
	}

	cfg := cloneConfig(b.config)

	if b.redis == nil {
		return nil, errors.New("redis client required")
	}

	if err := validateConfig(cfg); err != nil {
		return nil, err
	}

	if b.subjectProvider == nil {
		return nil, errors.New("subject provider required")
	}

	jm, err := jwt.NewManager(jwt.Config{
		AccessSecret:  cloneBytes(cfg.JWT.AccessSecret),
		RefreshSecret: cloneBytes(cfg.JWT.RefreshSecret),
		AccessTTL:     cfg.JWT.AccessTTL,
		RefreshTTL:    cfg.JWT.RefreshTTL,
		Issuer:        cfg.JWT.Issuer,
		Leeway:        cfg.JWT.Leeway,
	})
	if err != nil {
		return nil, err
	}

	store := revocation.NewStore(
		b.redis,
		cfg.Revocation.RedisPrefix,
		cfg.Revocation.MinEntryTTL,
		cfg.Revocation.SubjectPageSize,
	)

	ph, err := password.NewArgon2(password.Config{
		Memory:      cfg.Password.Memory,
		Time:        cfg.Password.Time,
		Parallelism: cfg.Password.Parallelism,
		SaltLength:  cfg.Password.SaltLength,
		KeyLength:   cfg.Password.KeyLength,
	})
	if err != nil {
		return nil, err
	}

	engine := &Engine{
		config:       cfg,
		redis:        b.redis,
		jwtManager:   jm,
		store:        store,
		subjects:     b.subjectProvider,
		passwordHash: ph,
		metrics:      NewMetrics(cfg.Metrics),
		audit: audit.NewDispatcher(b.auditSink, audit.Config{
			Enabled:    cfg.Audit.Enabled,
			BufferSize: cfg.Audit.BufferSize,
			DropIfFull: cfg.Audit.DropIfFull,
		}),
	}
	engine.flows = flows.New(engine.flowDeps())

	b.built = true

	return engine, nil
}

func (e *Engine) flowDeps() flows.Deps {
	verifyAccess := func(token string) (*jwt.Claims, error) {
		return e.jwtManager.Verify(token, jwt.KindAccess)
	}
	verifyAccessAnyAge := func(token string) (*jwt.Claims, error) {
		return e.jwtManager.VerifyIgnoreExpiry(token, jwt.KindAccess)
	}
	verifyRefresh := func(token string) (*jwt.Claims, error) {
		return e.jwtManager.Verify(token, jwt.KindRefresh)
	}

	return flows.Deps{
		Validate: flows.ValidateDeps{
			VerifyAccess: verifyAccess,
			IsRevoked:    e.store.IsRevoked,
			ResolveSubject: func(ctx context.Context, subjectID string) (*flows.GateSubject, error) {
				record, err := e.subjects.FindByID(ctx, subjectID)
				if err != nil {
					return nil, err
				}
				return &flows.GateSubject{ID: record.ID, Email: record.Email, Active: record.Active}, nil
			},
			SubjectNotFound: ErrSubjectNotFound,
		},
		Logout: flows.LogoutDeps{
			VerifyAccess:       verifyAccess,
			VerifyAccessAnyAge: verifyAccessAnyAge,
			VerifyRefresh:      verifyRefresh,
			Ledger:             e.store,
			ListRefreshTokens: func(ctx context.Context, subjectID string) ([]string, error) {
				record, err := e.subjects.FindByID(ctx, subjectID)
				if err != nil {
					return nil, err
				}
				return record.RefreshTokens, nil
			},
			RemoveRefreshToken:     e.subjects.RemoveRefreshToken,
			RemoveAllRefreshTokens: e.subjects.RemoveAllRefreshTokens,
			Now:                    e.now,
		},
		Invalidate: flows.InvalidateDeps{
			Verify:       e.jwtManager.Verify,
			VerifyAnyAge: e.jwtManager.VerifyIgnoreExpiry,
			Strict:       e.config.Revocation.StrictInvalidation,
			Ledger:       e.store,
			Now:          e.now,
		},
		Check: flows.CheckDeps{
			Ledger:   e.store,
			NotFound: redis.Nil,
		},
		Issue: flows.IssueDeps{
			IssueAccess:   e.jwtManager.IssueAccess,
			IssueRefresh:  e.jwtManager.IssueRefresh,
			VerifyRefresh: verifyRefresh,
			IsRevoked:     e.store.IsRevoked,
			FindByEmail: func(ctx context.Context, email string) (*flows.IssueSubject, error) {
				return issueSubject(e.subjects.FindByEmail(ctx, email))
			},
			FindByID: func(ctx context.Context, subjectID string) (*flows.IssueSubject, error) {
				return issueSubject(e.subjects.FindByID(ctx, subjectID))
			},
			CreateSubject: func(ctx context.Context, email, pass string) (*flows.IssueSubject, error) {
				return issueSubject(e.subjects.CreateSubject(ctx, email, pass))
			},
			ComparePassword:     e.subjects.ComparePassword,
			AddRefreshToken:     e.subjects.AddRefreshToken,
			CheckPasswordPolicy: e.checkPasswordPolicy,
			SubjectNotFound:     ErrSubjectNotFound,
			SubjectExists:       ErrSubjectExists,
		},
	}
}

func issueSubject(record *SubjectRecord, err error) (*flows.IssueSubject, error) {
	if err != nil {
		return nil, err
	}
	return &flows.IssueSubject{
		ID:            record.ID,
		Email:         record.Email,
		Active:        record.Active,
		RefreshTokens: record.RefreshTokens,
	}, nil
}

func cloneBytes(in []byte) []byte {
	if in == nil {
		return nil
	}
	out := make([]byte, len(in))
	copy(out, in)
	return out
}
