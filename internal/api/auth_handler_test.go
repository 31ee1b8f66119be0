package api

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"

	"kidsfolio/internal/auth"
	"kidsfolio/internal/database"
)

func seedAdmin(t *testing.T, s *testServer, username, password string, mustChange bool) {
	t.Helper()
	hash, err := auth.HashPassword(password)
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	user := &database.User{Username: username, PasswordHash: hash, MustChangePassword: mustChange}
	if err := database.NewUserRepository(s.db).Create(context.Background(), user); err != nil {
		t.Fatalf("seed admin: %v", err)
	}
}

func refreshCookie(t *testing.T, resp *http.Response) *http.Cookie {
	t.Helper()
	for _, c := range resp.Cookies() {
		if c.Name == refreshTokenCookieName && c.Value != "" {
			return c
		}
	}
	t.Fatalf("refresh cookie missing")
	return nil
}

func decodeTokens(t *testing.T, body []byte) tokenResponse {
	t.Helper()
	var resp tokenResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		t.Fatalf("decode token response: %v", err)
	}
	return resp
}

func TestAuth_FirstLoginMustChangePassword(t *testing.T) {
	s := newTestServer(t)
	seedAdmin(t, s, "ada", "initial-pass", true)

	rec := s.do(t, jsonRequest(http.MethodPost, "/v1/auth/login", `{"username":"ada","password":"wrong"}`))
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("wrong password: expected 401, got %d", rec.Code)
	}
	if s.guard.failures["ada"] != 1 {
		t.Fatalf("failure not recorded: %#v", s.guard.failures)
	}

	rec = s.do(t, jsonRequest(http.MethodPost, "/v1/auth/login", `{"username":"ada","password":"initial-pass"}`))
	if rec.Code != http.StatusOK {
		t.Fatalf("login: expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	first := decodeTokens(t, rec.Body.Bytes())
	if !first.MustChangePassword || first.TokenType != "Bearer" {
		t.Fatalf("unexpected token response %#v", first)
	}
	if len(s.guard.failures) != 0 {
		t.Fatalf("failures should reset after success")
	}
	oldRefresh := refreshCookie(t, rec.Result())

	req := jsonRequest(http.MethodGet, "/v1/admin/portfolios", "")
	req.Header.Set("Authorization", "Bearer "+first.AccessToken)
	if rec := s.do(t, req); rec.Code != http.StatusForbidden {
		t.Fatalf("admin before password change: expected 403, got %d", rec.Code)
	}

	req = jsonRequest(http.MethodPost, "/v1/auth/change-password",
		`{"current_password":"initial-pass","new_password":"brand-new-pass","confirm_password":"typo"}`)
	req.Header.Set("Authorization", "Bearer "+first.AccessToken)
	if rec := s.do(t, req); rec.Code != http.StatusBadRequest {
		t.Fatalf("mismatched confirmation: expected 400, got %d", rec.Code)
	}

	req = jsonRequest(http.MethodPost, "/v1/auth/change-password",
		`{"current_password":"initial-pass","new_password":"brand-new-pass","confirm_password":"brand-new-pass"}`)
	req.Header.Set("Authorization", "Bearer "+first.AccessToken)
	req.AddCookie(oldRefresh)
	rec = s.do(t, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("change password: expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	second := decodeTokens(t, rec.Body.Bytes())
	if second.MustChangePassword {
		t.Fatalf("must_change_password should be cleared")
	}
	if len(s.guard.revoked) != 1 {
		t.Fatalf("old refresh token should be revoked, got %#v", s.guard.revoked)
	}

	req = jsonRequest(http.MethodGet, "/v1/admin/portfolios", "")
	req.Header.Set("Authorization", "Bearer "+second.AccessToken)
	if rec := s.do(t, req); rec.Code != http.StatusOK {
		t.Fatalf("admin after password change: expected 200, got %d", rec.Code)
	}

	req = jsonRequest(http.MethodPost, "/v1/auth/refresh", "")
	req.AddCookie(oldRefresh)
	if rec := s.do(t, req); rec.Code != http.StatusUnauthorized {
		t.Fatalf("revoked refresh token: expected 401, got %d", rec.Code)
	}

	rec = s.do(t, jsonRequest(http.MethodPost, "/v1/auth/login", `{"username":"ada","password":"brand-new-pass"}`))
	if rec.Code != http.StatusOK || decodeTokens(t, rec.Body.Bytes()).MustChangePassword {
		t.Fatalf("login with new password failed: %d %s", rec.Code, rec.Body.String())
	}
}

func TestAuth_RefreshRotatesToken(t *testing.T) {
	s := newTestServer(t)
	seedAdmin(t, s, "ada", "settled-pass", false)

	rec := s.do(t, jsonRequest(http.MethodPost, "/v1/auth/login", `{"username":"ada","password":"settled-pass"}`))
	if rec.Code != http.StatusOK {
		t.Fatalf("login: %d", rec.Code)
	}
	cookie := refreshCookie(t, rec.Result())
	if cookie.Path != "/v1/auth" || !cookie.HttpOnly {
		t.Fatalf("unexpected cookie attributes %#v", cookie)
	}

	req := jsonRequest(http.MethodPost, "/v1/auth/refresh", "")
	req.AddCookie(cookie)
	rec = s.do(t, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("refresh: expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	rotated := refreshCookie(t, rec.Result())
	if rotated.Value == cookie.Value {
		t.Fatalf("refresh token should rotate")
	}

	req = jsonRequest(http.MethodPost, "/v1/auth/refresh", `{"refresh_token":"`+cookie.Value+`"}`)
	if rec := s.do(t, req); rec.Code != http.StatusUnauthorized {
		t.Fatalf("reused refresh token: expected 401, got %d", rec.Code)
	}
}

func TestAuth_LockoutAndRateLimit(t *testing.T) {
	s := newTestServer(t)
	seedAdmin(t, s, "ada", "settled-pass", false)

	for i := 0; i < 3; i++ {
		s.do(t, jsonRequest(http.MethodPost, "/v1/auth/login", `{"username":"ada","password":"nope"}`))
	}
	rec := s.do(t, jsonRequest(http.MethodPost, "/v1/auth/login", `{"username":"ada","password":"settled-pass"}`))
	if rec.Code != http.StatusTooManyRequests {
		t.Fatalf("locked account: expected 429, got %d", rec.Code)
	}

	s.guard.Reset(context.Background(), "ada")
	s.guard.limited = true
	rec = s.do(t, jsonRequest(http.MethodPost, "/v1/auth/login", `{"username":"ada","password":"settled-pass"}`))
	if rec.Code != http.StatusTooManyRequests {
		t.Fatalf("rate limited: expected 429, got %d", rec.Code)
	}

	s.guard.limited = false
	if rec := s.do(t, jsonRequest(http.MethodPost, "/v1/auth/login", `{"username":"ghost","password":"x"}`)); rec.Code != http.StatusUnauthorized {
		t.Fatalf("unknown user: expected 401, got %d", rec.Code)
	}
}
