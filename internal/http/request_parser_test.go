package http

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"reflect"
	"strings"
	"testing"

	"bizdash/internal/core"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

func newParser(t *testing.T, contentType, body string) *RequestBodyParser {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body))
	req.Header.Set("Content-Type", contentType)
	p := NewRequestBodyParser(req)
	if err := p.Parse(); err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	return p
}

func TestRequestBodyParser_JSONAndForm(t *testing.T) {
	tests := []struct {
		name        string
		contentType string
		body        string
	}{
		{"json", "application/json", `{"title":"  Kitchen  ","budget":1200.5,"tags":["a","b"],"done":true,"count":"3"}`},
		{"form", "application/x-www-form-urlencoded", "title=++Kitchen++&budget=1200%2C5&tags=a&tags=b&done=on&count=3"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := newParser(t, tt.contentType, tt.body)

			if got := p.Get("title"); got != "Kitchen" {
				t.Errorf("Get(title) = %q, want Kitchen", got)
			}
			budget, err := p.Amount("budget")
			if err != nil || !budget.Equal(decimal.RequireFromString("1200.5")) {
				t.Errorf("Amount(budget) = %s, %v", budget, err)
			}
			if got := p.Strings("tags"); !reflect.DeepEqual(got, []string{"a", "b"}) {
				t.Errorf("Strings(tags) = %v", got)
			}
			if done, err := p.Bool("done", false); err != nil || !done {
				t.Errorf("Bool(done) = %v, %v", done, err)
			}
			if n, err := p.Int("count", 0); err != nil || n != 3 {
				t.Errorf("Int(count) = %d, %v", n, err)
			}
			if p.Has("missing") {
				t.Error("Has(missing) = true")
			}
			if n, _ := p.Int("missing", 7); n != 7 {
				t.Errorf("Int default = %d, want 7", n)
			}
		})
	}
}

func TestRequestBodyParser_InvalidJSON(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"title":`))
	p := NewRequestBodyParser(req)
	if err := p.Parse(); err == nil {
		t.Fatal("expected error for truncated JSON")
	}
}

func TestRequestBodyParser_FieldErrors(t *testing.T) {
	p := newParser(t, "application/json", `{"amount":"abc","count":"x","when":"2025-13-01","id":"nope","flag":"maybe"}`)

	if _, err := p.Amount("amount"); !errors.Is(err, core.ErrInvalidAmount) {
		t.Errorf("Amount error = %v, want ErrInvalidAmount", err)
	}
	if _, err := p.Int("count", 0); err == nil {
		t.Error("Int should reject non-numbers")
	}
	if _, err := p.Date("when"); !errors.Is(err, core.ErrInvalidDate) {
		t.Errorf("Date error = %v, want ErrInvalidDate", err)
	}
	if _, err := p.UUID("id"); err == nil {
		t.Error("UUID should reject garbage")
	}
	if _, err := p.Bool("flag", false); err == nil {
		t.Error("Bool should reject maybe")
	}

	var fe fieldErrors
	_, err1 := p.Int("count", 0)
	fe.check(nil)
	fe.check(err1)
	fe.check(errors.New("second"))
	if fe.err != err1 {
		t.Errorf("fieldErrors kept %v, want the first error", fe.err)
	}
}

func TestRequestBodyParser_DateAndUUID(t *testing.T) {
	id := uuid.New()
	p := newParser(t, "application/json", `{"when":"2025-06-10","id":"`+id.String()+`"}`)

	d, err := p.Date("when")
	if err != nil || d.String() != "2025-06-10" {
		t.Errorf("Date = %s, %v", d, err)
	}
	if empty, err := p.Date("other"); err != nil || !empty.IsEmpty() {
		t.Errorf("missing Date = %s, %v", empty, err)
	}
	if got, err := p.UUID("id"); err != nil || got != id {
		t.Errorf("UUID = %s, %v", got, err)
	}
}

func TestSanitizeInput(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"  plain  ", "plain"},
		{"a\x00b\x07c", "abc"},
		{"line\nbreak\ttab", "line\nbreak\ttab"},
		{"", ""},
	}
	for _, tt := range tests {
		if got := sanitizeInput(tt.in); got != tt.want {
			t.Errorf("sanitizeInput(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestQueryIntAndPathID(t *testing.T) {
	tests := []struct {
		query string
		want  int
	}{
		{"", 6},
		{"months=12", 12},
		{"months=0", 6},
		{"months=-3", 6},
		{"months=abc", 6},
	}
	for _, tt := range tests {
		req := httptest.NewRequest(http.MethodGet, "/?"+tt.query, nil)
		if got := queryInt(req, "months", 6); got != tt.want {
			t.Errorf("queryInt(%q) = %d, want %d", tt.query, got, tt.want)
		}
	}

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.SetPathValue("id", "not-a-uuid")
	if _, err := pathID(req, "id"); !errors.Is(err, errBadID) {
		t.Errorf("pathID error = %v, want errBadID", err)
	}
	id := uuid.New()
	req.SetPathValue("id", id.String())
	if got, err := pathID(req, "id"); err != nil || got != id {
		t.Errorf("pathID = %s, %v", got, err)
	}
}
