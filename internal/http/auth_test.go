package http

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

func echoUser() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(UserID(r.Context())))
	})
}

func TestAuthenticator_IssueAndVerify(t *testing.T) {
	a := NewAuthenticator("s3cret", "bizdash")
	now := time.Date(2025, 6, 10, 12, 0, 0, 0, time.UTC)
	a.now = func() time.Time { return now }

	token, err := a.Issue("u1", time.Hour)
	if err != nil {
		t.Fatalf("Issue() error = %v", err)
	}
	if sub, err := a.Verify(token); err != nil || sub != "u1" {
		t.Fatalf("Verify() = %q, %v", sub, err)
	}

	now = now.Add(2 * time.Hour)
	if _, err := a.Verify(token); err == nil {
		t.Fatalf("expired token should be rejected")
	}
}

func TestAuthenticator_RejectsForeignTokens(t *testing.T) {
	a := NewAuthenticator("s3cret", "bizdash")
	other := NewAuthenticator("different", "bizdash")
	wrongIssuer := NewAuthenticator("s3cret", "someone-else")

	forged, _ := other.Issue("u1", time.Hour)
	misissued, _ := wrongIssuer.Issue("u1", time.Hour)
	noSubject, _ := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Issuer:    "bizdash",
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
	}).SignedString([]byte("s3cret"))
	unsigned, _ := jwt.NewWithClaims(jwt.SigningMethodNone, jwt.RegisteredClaims{
		Subject:   "u1",
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
	}).SignedString(jwt.UnsafeAllowNoneSignatureType)

	for name, token := range map[string]string{
		"wrong secret": forged,
		"wrong issuer": misissued,
		"no subject":   noSubject,
		"alg none":     unsigned,
		"garbage":      "not.a.token",
	} {
		t.Run(name, func(t *testing.T) {
			if _, err := a.Verify(token); err == nil {
				t.Errorf("token should be rejected")
			}
		})
	}
}

func TestAuthenticator_Middleware(t *testing.T) {
	a := NewAuthenticator("s3cret", "")
	token, _ := a.Issue("u42", time.Hour)
	h := a.Middleware(echoUser())

	tests := []struct {
		name       string
		header     string
		wantStatus int
		wantBody   string
	}{
		{"valid bearer", "Bearer " + token, http.StatusOK, "u42"},
		{"lowercase scheme", "bearer " + token, http.StatusOK, "u42"},
		{"missing header", "", http.StatusUnauthorized, ""},
		{"basic auth", "Basic dTpw", http.StatusUnauthorized, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest(http.MethodGet, "/api/dashboard", nil)
			if tt.header != "" {
				r.Header.Set("Authorization", tt.header)
			}
			w := httptest.NewRecorder()
			h.ServeHTTP(w, r)
			if w.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d", w.Code, tt.wantStatus)
			}
			if tt.wantBody != "" && w.Body.String() != tt.wantBody {
				t.Errorf("body = %q, want %q", w.Body.String(), tt.wantBody)
			}
		})
	}
}

func TestAuthenticator_DevHeader(t *testing.T) {
	a := NewAuthenticator("", "")
	if a.Enabled() {
		t.Fatal("authenticator without secret should be disabled")
	}
	if _, err := a.Issue("u1", time.Hour); err == nil {
		t.Error("Issue() should fail without a secret")
	}

	h := a.Middleware(echoUser())
	r := httptest.NewRequest(http.MethodGet, "/api/dashboard", nil)
	r.Header.Set(HeaderUserID, "dev-user")
	w := httptest.NewRecorder()
	h.ServeHTTP(w, r)
	if w.Code != http.StatusOK || w.Body.String() != "dev-user" {
		t.Errorf("got %d %q", w.Code, w.Body.String())
	}

	w = httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/dashboard", nil))
	if w.Code != http.StatusUnauthorized {
		t.Errorf("missing user header should be 401, got %d", w.Code)
	}
}
