package memory

import (
	"context"
	"sync"

	goRevoke "github.com/MrEthical07/goRevoke"
	"github.com/MrEthical07/goRevoke/password"
	"github.com/google/uuid"
)

// Provider is an in-memory [goRevoke.SubjectProvider]. It backs examples
// and tests; state is process-local and lost on restart, so it is not a
// substitute for a real database-backed provider.
type Provider struct {
	mu      sync.RWMutex
	byID    map[string]*record
	byEmail map[string]string

	hasher *password.Argon2
}

type record struct {
	id            string
	email         string
	passwordHash  string
	active        bool
	refreshTokens []string
}

// New returns an empty provider hashing passwords with the given hasher.
func New(hasher *password.Argon2) *Provider {
	return &Provider{
		byID:    make(map[string]*record),
		byEmail: make(map[string]string),
		hasher:  hasher,
	}
}

// Seed inserts a subject with a pre-hashed password and returns its ID.
func (p *Provider) Seed(email, passwordHash string, active bool) string {
	p.mu.Lock()
	defer p.mu.Unlock()

	id := uuid.NewString()
	p.byID[id] = &record{
		id:           id,
		email:        email,
		passwordHash: passwordHash,
		active:       active,
	}
	p.byEmail[email] = id
	return id
}

// SetActive flips a subject's active flag.
func (p *Provider) SetActive(subjectID string, active bool) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	rec, ok := p.byID[subjectID]
	if !ok {
		return goRevoke.ErrSubjectNotFound
	}
	rec.active = active
	return nil
}

func (p *Provider) FindByID(_ context.Context, subjectID string) (*goRevoke.SubjectRecord, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()

	rec, ok := p.byID[subjectID]
	if !ok {
		return nil, goRevoke.ErrSubjectNotFound
	}
	return rec.export(), nil
}

func (p *Provider) FindByEmail(_ context.Context, email string) (*goRevoke.SubjectRecord, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()

	id, ok := p.byEmail[email]
	if !ok {
		return nil, goRevoke.ErrSubjectNotFound
	}
	return p.byID[id].export(), nil
}

func (p *Provider) CreateSubject(_ context.Context, email, plaintext string) (*goRevoke.SubjectRecord, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if _, exists := p.byEmail[email]; exists {
		return nil, goRevoke.ErrSubjectExists
	}

	hash, err := p.hasher.Hash(plaintext)
	if err != nil {
		return nil, err
	}

	rec := &record{
		id:           uuid.NewString(),
		email:        email,
		passwordHash: hash,
		active:       true,
	}
	p.byID[rec.id] = rec
	p.byEmail[email] = rec.id

	return rec.export(), nil
}

func (p *Provider) ComparePassword(_ context.Context, subjectID, plaintext string) error {
	p.mu.RLock()
	defer p.mu.RUnlock()

	rec, ok := p.byID[subjectID]
	if !ok {
		return goRevoke.ErrSubjectNotFound
	}

	match, err := p.hasher.Verify(plaintext, rec.passwordHash)
	if err != nil {
		return err
	}
	if !match {
		return goRevoke.ErrInvalidCredentials
	}
	return nil
}

func (p *Provider) AddRefreshToken(_ context.Context, subjectID, token string) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	rec, ok := p.byID[subjectID]
	if !ok {
		return goRevoke.ErrSubjectNotFound
	}
	rec.refreshTokens = append(rec.refreshTokens, token)
	return nil
}

func (p *Provider) RemoveRefreshToken(_ context.Context, subjectID, token string) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	rec, ok := p.byID[subjectID]
	if !ok {
		return goRevoke.ErrSubjectNotFound
	}

	kept := rec.refreshTokens[:0]
	for _, stored := range rec.refreshTokens {
		if stored != token {
			kept = append(kept, stored)
		}
	}
	rec.refreshTokens = kept
	return nil
}

func (p *Provider) RemoveAllRefreshTokens(_ context.Context, subjectID string) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	rec, ok := p.byID[subjectID]
	if !ok {
		return goRevoke.ErrSubjectNotFound
	}
	rec.refreshTokens = nil
	return nil
}

func (r *record) export() *goRevoke.SubjectRecord {
	tokens := make([]string, len(r.refreshTokens))
	copy(tokens, r.refreshTokens)

	return &goRevoke.SubjectRecord{
		ID:            r.id,
		Email:         r.email,
		Active:        r.active,
		RefreshTokens: tokens,
	}
}
