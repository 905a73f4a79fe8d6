package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	goRevoke "github.com/MrEthical07/goRevoke"
)

const refreshCookieName = "refreshToken"

// Server adapts the engine to the JSON-over-HTTP wire contract. It owns
// no state beyond the engine reference and the refresh-cookie TTL.
type Server struct {
	engine     *goRevoke.Engine
	refreshTTL time.Duration
}

// NewServer wires a server around a built engine. refreshTTL bounds the
// refresh cookie's Max-Age and should match the engine's refresh TTL.
func NewServer(engine *goRevoke.Engine, refreshTTL time.Duration) *Server {
	return &Server{
		engine:     engine,
		refreshTTL: refreshTTL,
	}
}

// Handler returns the routed HTTP handler.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("POST /auth/register", s.handleRegister)
	mux.HandleFunc("POST /auth/login", s.handleLogin)
	mux.HandleFunc("GET /auth/me", s.handleMe)
	mux.HandleFunc("POST /auth/refresh", s.handleRefresh)
	mux.HandleFunc("POST /logout", s.handleLogout)
	mux.HandleFunc("POST /logout-all", s.handleLogoutAll)
	mux.HandleFunc("POST /invalidate-token", s.handleInvalidate)
	mux.HandleFunc("GET /check-token/{token}", s.handleCheckToken)
	mux.HandleFunc("POST /cleanup-tokens", s.handleCleanup)

	return mux
}

func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil || body.Email == "" || body.Password == "" {
		writeError(w, http.StatusBadRequest, "MISSING_PARAMS", "email and password are required")
		return
	}

	pair, err := s.engine.Register(r.Context(), body.Email, body.Password)
	if err != nil {
		switch {
		case errors.Is(err, goRevoke.ErrSubjectExists):
			writeError(w, http.StatusConflict, "USER_EXISTS", "email already registered")
		case errors.Is(err, goRevoke.ErrPasswordPolicy):
			writeError(w, http.StatusBadRequest, "WEAK_PASSWORD", "password does not meet policy")
		default:
			writeUnavailable(w)
		}
		return
	}

	s.setRefreshCookie(w, r, pair.RefreshToken)
	writeJSON(w, http.StatusCreated, map[string]string{"accessToken": pair.AccessToken})
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "MISSING_PARAMS", "email and password are required")
		return
	}

	pair, err := s.engine.Login(r.Context(), body.Email, body.Password)
	if err != nil {
		switch {
		case errors.Is(err, goRevoke.ErrInvalidCredentials), errors.Is(err, goRevoke.ErrSubjectInactive):
			writeError(w, http.StatusUnauthorized, "INVALID_CREDENTIALS", "invalid email or password")
		default:
			writeUnavailable(w)
		}
		return
	}

	s.setRefreshCookie(w, r, pair.RefreshToken)
	writeJSON(w, http.StatusOK, map[string]string{"accessToken": pair.AccessToken})
}

func (s *Server) handleMe(w http.ResponseWriter, r *http.Request) {
	token := bearerToken(r.Header.Get("Authorization"))
	principal, err := s.engine.Authenticate(r.Context(), token)
	if err != nil {
		switch {
		case errors.Is(err, goRevoke.ErrTokenRevoked):
			writeError(w, http.StatusForbidden, "TOKEN_BLACKLISTED", "token has been revoked")
		case errors.Is(err, goRevoke.ErrTokenMissing):
			writeError(w, http.StatusUnauthorized, "MISSING_TOKEN", "authorization header required")
		case errors.Is(err, goRevoke.ErrTokenExpired):
			writeError(w, http.StatusUnauthorized, "TOKEN_EXPIRED", "token expired")
		case errors.Is(err, goRevoke.ErrRevocationUnavailable):
			writeUnavailable(w)
		default:
			writeError(w, http.StatusUnauthorized, "INVALID_TOKEN", "token invalid")
		}
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{
		"id":    principal.SubjectID,
		"email": principal.Email,
	})
}

func (s *Server) handleRefresh(w http.ResponseWriter, r *http.Request) {
	cookie, err := r.Cookie(refreshCookieName)
	if err != nil || cookie.Value == "" {
		writeError(w, http.StatusUnauthorized, "MISSING_REFRESH_TOKEN", "refresh cookie required")
		return
	}

	access, err := s.engine.Refresh(r.Context(), cookie.Value)
	if err != nil {
		switch {
		case errors.Is(err, goRevoke.ErrTokenExpired):
			writeError(w, http.StatusUnauthorized, "TOKEN_EXPIRED", "refresh token expired")
		case errors.Is(err, goRevoke.ErrRevocationUnavailable):
			writeUnavailable(w)
		default:
			writeError(w, http.StatusUnauthorized, "INVALID_TOKEN", "refresh token invalid")
		}
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"accessToken": access})
}

func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	accessToken := bearerToken(r.Header.Get("Authorization"))

	refreshToken := ""
	if cookie, err := r.Cookie(refreshCookieName); err == nil {
		refreshToken = cookie.Value
	}

	// Cookie clear happens on every exit path: logout is unconditionally
	// effective from the client's perspective.
	s.clearRefreshCookie(w, r)

	report := s.engine.Logout(r.Context(), accessToken, refreshToken)
	writeJSON(w, http.StatusOK, map[string]any{
		"loggedOut":      true,
		"accessRevoked":  report.AccessRevoked,
		"refreshRevoked": report.RefreshRevoked,
	})
}

func (s *Server) handleLogoutAll(w http.ResponseWriter, r *http.Request) {
	token := bearerToken(r.Header.Get("Authorization"))
	if token == "" {
		writeError(w, http.StatusUnauthorized, "MISSING_TOKEN", "authorization header required")
		return
	}

	report, err := s.engine.LogoutAll(r.Context(), token)
	if err != nil {
		switch {
		case errors.Is(err, goRevoke.ErrRevocationUnavailable):
			writeUnavailable(w)
		default:
			writeError(w, http.StatusUnauthorized, "INVALID_TOKEN", "token invalid")
		}
		return
	}

	// Unlike /logout, the cookie only goes once the caller proved the
	// bearer was theirs.
	s.clearRefreshCookie(w, r)

	writeJSON(w, http.StatusOK, map[string]any{
		"loggedOut": true,
		"revoked":   report.Revoked,
		"skipped":   report.Skipped,
	})
}

func (s *Server) handleInvalidate(w http.ResponseWriter, r *http.Request) {
	if _, err := s.engine.Authenticate(r.Context(), bearerToken(r.Header.Get("Authorization"))); err != nil {
		writeError(w, http.StatusUnauthorized, "INVALID_TOKEN", "token invalid")
		return
	}

	var body struct {
		Token     string `json:"token"`
		TokenType string `json:"tokenType"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil || body.Token == "" || body.TokenType == "" {
		writeError(w, http.StatusBadRequest, "MISSING_PARAMS", "token and tokenType are required")
		return
	}

	info, err := s.engine.InvalidateToken(r.Context(), body.Token, body.TokenType)
	if err != nil {
		switch {
		case errors.Is(err, goRevoke.ErrInvalidTokenKind):
			writeError(w, http.StatusBadRequest, "INVALID_TYPE", "tokenType must be access or refresh")
		case errors.Is(err, goRevoke.ErrAlreadyRevoked):
			writeError(w, http.StatusConflict, "ALREADY_REVOKED", "token already revoked")
		case errors.Is(err, goRevoke.ErrTokenInvalid):
			writeError(w, http.StatusBadRequest, "INVALID_TOKEN", "token failed verification")
		default:
			writeUnavailable(w)
		}
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"invalidated": true,
		"subjectId":   info.SubjectID,
		"revokedAt":   info.RevokedAt,
	})
}

func (s *Server) handleCheckToken(w http.ResponseWriter, r *http.Request) {
	token := r.PathValue("token")
	if token == "" {
		writeError(w, http.StatusBadRequest, "MISSING_PARAMS", "token path segment required")
		return
	}

	status, err := s.engine.CheckToken(r.Context(), token)
	if err != nil {
		writeUnavailable(w)
		return
	}

	resp := map[string]any{"isBlacklisted": status.Revoked}
	if status.Revoked {
		resp["blacklistedAt"] = status.RevokedAt.Format(time.RFC3339)
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleCleanup(w http.ResponseWriter, r *http.Request) {
	removed, err := s.engine.ReapExpired(r.Context())
	if err != nil {
		writeUnavailable(w)
		return
	}
	writeJSON(w, http.StatusOK, map[string]int{"removedCount": removed})
}

func (s *Server) setRefreshCookie(w http.ResponseWriter, r *http.Request, token string) {
	http.SetCookie(w, &http.Cookie{
		Name:     refreshCookieName,
		Value:    token,
		Path:     "/",
		MaxAge:   int(s.refreshTTL.Seconds()),
		HttpOnly: true,
		Secure:   r.TLS != nil,
		SameSite: http.SameSiteLaxMode,
	})
}

func (s *Server) clearRefreshCookie(w http.ResponseWriter, r *http.Request) {
	http.SetCookie(w, &http.Cookie{
		Name:     refreshCookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   r.TLS != nil,
		SameSite: http.SameSiteLaxMode,
	})
}

func bearerToken(h string) string {
	const pfx = "Bearer "
	if len(h) > len(pfx) && h[:len(pfx)] == pfx {
		return h[len(pfx):]
	}
	return ""
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, map[string]string{
		"code":  code,
		"error": message,
	})
}

// Unexpected storage failures collapse to a generic 503; detail stays in
// server logs, never on the wire.
func writeUnavailable(w http.ResponseWriter) {
	writeError(w, http.StatusServiceUnavailable, "SERVICE_UNAVAILABLE", "temporarily unavailable")
}
