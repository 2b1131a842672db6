package auth

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func testSession(t *testing.T, s *Service) *Session {
	t.Helper()
	sess, err := s.openSession(User{ID: "user_abc", Email: "host@invitio.app", DisplayName: "Host"})
	if err != nil {
		t.Fatalf("open session: %v", err)
	}
	return sess
}

func TestSessionRoundTrip(t *testing.T) {
	s := NewService(nil, "test-secret")
	sess := testSession(t, s)

	userID, err := s.ValidateToken(sess.Token)
	if err != nil {
		t.Fatalf("validate: %v", err)
	}
	if userID != "user_abc" {
		t.Fatalf("subject = %q", userID)
	}
}

func TestValidateRejectsWrongSecret(t *testing.T) {
	issuer := NewService(nil, "secret-a")
	verifier := NewService(nil, "secret-b")

	sess := testSession(t, issuer)
	if _, err := verifier.ValidateToken(sess.Token); err == nil {
		t.Fatal("token accepted across secrets")
	}
}

func TestValidateRejectsGarbage(t *testing.T) {
	s := NewService(nil, "test-secret")
	for _, bad := range []string{"", "not.a.jwt", strings.Repeat("x", 300)} {
		if _, err := s.ValidateToken(bad); err == nil {
			t.Fatalf("accepted %q", bad)
		}
	}
}

func TestFallbackDisplayName(t *testing.T) {
	if got := fallbackDisplayName("host@invitio.app", "The Hosts"); got != "The Hosts" {
		t.Fatalf("explicit name = %q", got)
	}
	if got := fallbackDisplayName("host@invitio.app", ""); got != "host" {
		t.Fatalf("mailbox fallback = %q", got)
	}
}

func TestAuthMiddleware(t *testing.T) {
	s := NewService(nil, "test-secret")
	sess := testSession(t, s)

	var gotID string
	wrapped := s.AuthMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotID = UserIDFromContext(r.Context())
	}))

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/auth/me", nil)
	req.Header.Set("Authorization", "Bearer "+sess.Token)
	wrapped.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK || gotID != "user_abc" {
		t.Fatalf("status=%d userID=%q", rec.Code, gotID)
	}

	for _, header := range []string{"", "Bearer ", "Token " + sess.Token, "Bearer bogus"} {
		rec := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/api/auth/me", nil)
		if header != "" {
			req.Header.Set("Authorization", header)
		}
		wrapped.ServeHTTP(rec, req)
		if rec.Code != http.StatusUnauthorized {
			t.Fatalf("header %q: status %d", header, rec.Code)
		}
	}
}
