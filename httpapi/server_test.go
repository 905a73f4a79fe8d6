package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	goRevoke "github.com/MrEthical07/goRevoke"
	"github.com/MrEthical07/goRevoke/password"
	"github.com/MrEthical07/goRevoke/subject/memory"
	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func newServerTest(t *testing.T, mutate func(*goRevoke.Config)) (*httptest.Server, *goRevoke.Engine) {
	t.Helper()

	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	cfg := goRevoke.DefaultConfig()
	cfg.JWT.AccessSecret = []byte("server-test-access-secret")
	cfg.JWT.RefreshSecret = []byte("server-test-refresh-secret")
	cfg.Password = goRevoke.PasswordConfig{
		MinLength:   8,
		Memory:      8 * 1024,
		Time:        1,
		Parallelism: 1,
		SaltLength:  16,
		KeyLength:   16,
	}
	if mutate != nil {
		mutate(&cfg)
	}

	hasher, err := password.NewArgon2(password.Config{
		Memory:      cfg.Password.Memory,
		Time:        cfg.Password.Time,
		Parallelism: cfg.Password.Parallelism,
		SaltLength:  cfg.Password.SaltLength,
		KeyLength:   cfg.Password.KeyLength,
	})
	if err != nil {
		t.Fatalf("argon2 init failed: %v", err)
	}

	engine, err := goRevoke.New().
		WithConfig(cfg).
		WithRedis(rdb).
		WithSubjectProvider(memory.New(hasher)).
		Build()
	if err != nil {
		t.Fatalf("engine build failed: %v", err)
	}
	t.Cleanup(engine.Close)

	ts := httptest.NewServer(NewServer(engine, cfg.JWT.RefreshTTL).Handler())
	t.Cleanup(ts.Close)

	return ts, engine
}

func postJSON(t *testing.T, client *http.Client, url string, body any, headers map[string]string) *http.Response {
	t.Helper()

	data, err := json.Marshal(body)
	if err != nil {
		t.Fatalf("marshal body: %v", err)
	}
	req, err := http.NewRequest(http.MethodPost, url, bytes.NewReader(data))
	if err != nil {
		t.Fatalf("build request: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := client.Do(req)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	return resp
}

func decodeBody(t *testing.T, resp *http.Response) map[string]any {
	t.Helper()
	defer resp.Body.Close()

	var out map[string]any
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	return out
}

func refreshCookie(resp *http.Response) *http.Cookie {
	for _, c := range resp.Cookies() {
		if c.Name == "refreshToken" {
			return c
		}
	}
	return nil
}

func TestLoginLogoutCheckTokenScenario(t *testing.T) {
	ts, _ := newServerTest(t, nil)
	client := ts.Client()

	resp := postJSON(t, client, ts.URL+"/auth/register", map[string]string{
		"email":    "alice@example.com",
		"password": "Secret123!",
	}, nil)
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("register returned %d", resp.StatusCode)
	}
	resp.Body.Close()

	resp = postJSON(t, client, ts.URL+"/auth/login", map[string]string{
		"email":    "alice@example.com",
		"password": "Secret123!",
	}, nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("login returned %d", resp.StatusCode)
	}
	if refreshCookie(resp) == nil {
		t.Fatalf("login did not set refresh cookie")
	}
	access := decodeBody(t, resp)["accessToken"].(string)
	if access == "" {
		t.Fatalf("login returned empty access token")
	}

	bearer := map[string]string{"Authorization": "Bearer " + access}

	meReq, _ := http.NewRequest(http.MethodGet, ts.URL+"/auth/me", nil)
	meReq.Header.Set("Authorization", "Bearer "+access)
	meResp, err := client.Do(meReq)
	if err != nil {
		t.Fatalf("GET /auth/me failed: %v", err)
	}
	if meResp.StatusCode != http.StatusOK {
		t.Fatalf("/auth/me before logout returned %d", meResp.StatusCode)
	}
	if got := decodeBody(t, meResp)["email"]; got != "alice@example.com" {
		t.Fatalf("/auth/me returned email %v", got)
	}

	resp = postJSON(t, client, ts.URL+"/logout", nil, bearer)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("logout returned %d", resp.StatusCode)
	}
	if c := refreshCookie(resp); c == nil || c.MaxAge != -1 {
		t.Fatalf("logout did not clear refresh cookie: %+v", c)
	}
	resp.Body.Close()

	checkResp, err := client.Get(ts.URL + "/check-token/" + access)
	if err != nil {
		t.Fatalf("check-token failed: %v", err)
	}
	check := decodeBody(t, checkResp)
	if check["isBlacklisted"] != true {
		t.Fatalf("expected isBlacklisted=true after logout, got %v", check)
	}
	if _, ok := check["blacklistedAt"]; !ok {
		t.Fatalf("expected blacklistedAt in response, got %v", check)
	}

	meReq2, _ := http.NewRequest(http.MethodGet, ts.URL+"/auth/me", nil)
	meReq2.Header.Set("Authorization", "Bearer "+access)
	meResp2, err := client.Do(meReq2)
	if err != nil {
		t.Fatalf("GET /auth/me failed: %v", err)
	}
	if meResp2.StatusCode != http.StatusForbidden {
		t.Fatalf("/auth/me after logout returned %d, want 403", meResp2.StatusCode)
	}
	if got := decodeBody(t, meResp2)["code"]; got != "TOKEN_BLACKLISTED" {
		t.Fatalf("expected TOKEN_BLACKLISTED code, got %v", got)
	}
}

func TestLogoutUnconditional(t *testing.T) {
	ts, _ := newServerTest(t, nil)

	resp := postJSON(t, ts.Client(), ts.URL+"/logout", nil, map[string]string{
		"Authorization": "Bearer not-even-a-token",
	})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("logout with garbage token returned %d, want 200", resp.StatusCode)
	}
	if c := refreshCookie(resp); c == nil || c.MaxAge != -1 {
		t.Fatalf("logout did not clear refresh cookie: %+v", c)
	}
	body := decodeBody(t, resp)
	if body["loggedOut"] != true {
		t.Fatalf("expected loggedOut=true, got %v", body)
	}
	if body["accessRevoked"] != false {
		t.Fatalf("garbage token must not count as revoked, got %v", body)
	}
}

func TestInvalidateTokenTwiceConflicts(t *testing.T) {
	ts, engine := newServerTest(t, nil)
	client := ts.Client()

	pair, err := engine.Register(context.Background(), "bob@example.com", "Secret123!")
	if err != nil {
		t.Fatalf("register failed: %v", err)
	}

	headers := map[string]string{"Authorization": "Bearer " + pair.AccessToken}
	body := map[string]string{"token": pair.RefreshToken, "tokenType": "refresh"}

	resp := postJSON(t, client, ts.URL+"/invalidate-token", body, headers)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("first invalidate returned %d", resp.StatusCode)
	}
	resp.Body.Close()

	resp = postJSON(t, client, ts.URL+"/invalidate-token", body, headers)
	if resp.StatusCode != http.StatusConflict {
		t.Fatalf("second invalidate returned %d, want 409", resp.StatusCode)
	}
	if got := decodeBody(t, resp)["code"]; got != "ALREADY_REVOKED" {
		t.Fatalf("expected ALREADY_REVOKED, got %v", got)
	}
}

func TestInvalidateTokenRejectsBadType(t *testing.T) {
	ts, engine := newServerTest(t, nil)

	pair, err := engine.Register(context.Background(), "carol@example.com", "Secret123!")
	if err != nil {
		t.Fatalf("register failed: %v", err)
	}

	resp := postJSON(t, ts.Client(), ts.URL+"/invalidate-token",
		map[string]string{"token": pair.AccessToken, "tokenType": "session"},
		map[string]string{"Authorization": "Bearer " + pair.AccessToken})
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("invalidate with bad type returned %d, want 400", resp.StatusCode)
	}
	if got := decodeBody(t, resp)["code"]; got != "INVALID_TYPE" {
		t.Fatalf("expected INVALID_TYPE, got %v", got)
	}
}

func TestRefreshRotatesAccessToken(t *testing.T) {
	ts, _ := newServerTest(t, nil)
	client := ts.Client()

	resp := postJSON(t, client, ts.URL+"/auth/register", map[string]string{
		"email":    "dave@example.com",
		"password": "Secret123!",
	}, nil)
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("register returned %d", resp.StatusCode)
	}
	cookie := refreshCookie(resp)
	if cookie == nil {
		t.Fatalf("register did not set refresh cookie")
	}
	resp.Body.Close()

	req, _ := http.NewRequest(http.MethodPost, ts.URL+"/auth/refresh", nil)
	req.AddCookie(cookie)
	refreshResp, err := client.Do(req)
	if err != nil {
		t.Fatalf("refresh failed: %v", err)
	}
	if refreshResp.StatusCode != http.StatusOK {
		t.Fatalf("refresh returned %d", refreshResp.StatusCode)
	}
	if decodeBody(t, refreshResp)["accessToken"] == "" {
		t.Fatalf("refresh returned empty access token")
	}

	noCookie, _ := http.NewRequest(http.MethodPost, ts.URL+"/auth/refresh", nil)
	missingResp, err := client.Do(noCookie)
	if err != nil {
		t.Fatalf("refresh failed: %v", err)
	}
	if missingResp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("refresh without cookie returned %d, want 401", missingResp.StatusCode)
	}
	missingResp.Body.Close()
}

func TestCleanupTokensRemovesLapsedEntries(t *testing.T) {
	ts, engine := newServerTest(t, func(cfg *goRevoke.Config) {
		cfg.JWT.AccessTTL = 50 * time.Millisecond
		cfg.Revocation.StrictInvalidation = false
	})
	client := ts.Client()

	pair, err := engine.Register(context.Background(), "erin@example.com", "Secret123!")
	if err != nil {
		t.Fatalf("register failed: %v", err)
	}

	// Revoke the soon-to-expire access token plus a long-lived refresh
	// token, then wait out the access expiry.
	engine.Logout(context.Background(), pair.AccessToken, pair.RefreshToken)
	time.Sleep(80 * time.Millisecond)

	resp := postJSON(t, client, ts.URL+"/cleanup-tokens", nil, nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("cleanup returned %d", resp.StatusCode)
	}
	body := decodeBody(t, resp)
	if got := body["removedCount"]; got != float64(1) {
		t.Fatalf("expected removedCount=1, got %v", got)
	}
}

func TestLogoutAllRevokesEverySession(t *testing.T) {
	ts, engine := newServerTest(t, nil)
	client := ts.Client()

	pair, err := engine.Register(context.Background(), "frank@example.com", "Secret123!")
	if err != nil {
		t.Fatalf("register failed: %v", err)
	}
	second, err := engine.Login(context.Background(), "frank@example.com", "Secret123!")
	if err != nil {
		t.Fatalf("login failed: %v", err)
	}

	resp := postJSON(t, client, ts.URL+"/logout-all", nil, map[string]string{
		"Authorization": "Bearer " + pair.AccessToken,
	})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("logout-all returned %d", resp.StatusCode)
	}
	body := decodeBody(t, resp)
	// Access token + two refresh tokens.
	if got := body["revoked"]; got != float64(3) {
		t.Fatalf("expected revoked=3, got %v", body)
	}

	for name, token := range map[string]string{"first": pair.RefreshToken, "second": second.RefreshToken} {
		status, err := engine.CheckToken(context.Background(), token)
		if err != nil {
			t.Fatalf("CheckToken(%s) failed: %v", name, err)
		}
		if !status.Revoked {
			t.Fatalf("%s refresh token not revoked after logout-all", name)
		}
	}
}

func TestLogoutAllInvalidBearerKeepsCookie(t *testing.T) {
	ts, _ := newServerTest(t, nil)

	resp := postJSON(t, ts.Client(), ts.URL+"/logout-all", nil, map[string]string{
		"Authorization": "Bearer not-a-real-token",
	})
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("logout-all returned %d, want 401", resp.StatusCode)
	}
	for _, cookie := range resp.Cookies() {
		if cookie.Name == "refreshToken" {
			t.Fatalf("rejected logout-all must not touch the refresh cookie, got %v", cookie)
		}
	}
}

func TestCheckTokenToleratesGarbage(t *testing.T) {
	ts, _ := newServerTest(t, nil)

	resp, err := ts.Client().Get(ts.URL + "/check-token/" + "garbage-value")
	if err != nil {
		t.Fatalf("check-token failed: %v", err)
	}
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("check-token returned %d", resp.StatusCode)
	}
	if got := decodeBody(t, resp)["isBlacklisted"]; got != false {
		t.Fatalf("garbage token should not be blacklisted, got %v", got)
	}
}
