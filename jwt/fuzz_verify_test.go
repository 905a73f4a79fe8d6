package jwt

import (
	"errors"
	"testing"
	"time"
)

// FuzzVerify asserts that arbitrary input never panics the codec and only
// ever surfaces one of the three typed verification errors.
func FuzzVerify(f *testing.F) {
	m, err := NewManager(Config{
		AccessSecret:  []byte("fuzz-access-secret-000000000000"),
		RefreshSecret: []byte("fuzz-refresh-secret-00000000000"),
		AccessTTL:     time.Hour,
		RefreshTTL:    time.Hour,
	})
	if err != nil {
		f.Fatalf("new manager: %v", err)
	}

	valid, _, err := m.IssueAccess("u-fuzz")
	if err != nil {
		f.Fatalf("issue access: %v", err)
	}

	f.Add(valid)
	f.Add("")
	f.Add("a.b.c")
	f.Add("eyJhbGciOiJIUzI1NiJ9..")

	f.Fuzz(func(t *testing.T, input string) {
		claims, err := m.Verify(input, KindAccess)
		if err == nil {
			if claims == nil || claims.SubjectID == "" {
				t.Fatal("nil or empty claims on success")
			}
			return
		}
		if !errors.Is(err, ErrMalformed) &&
			!errors.Is(err, ErrExpired) &&
			!errors.Is(err, ErrWrongKind) {
			t.Fatalf("untyped verification error: %v", err)
		}
	})
}
