package log

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func decodeLines(t *testing.T, buf *bytes.Buffer) []map[string]any {
	t.Helper()
	var out []map[string]any
	for _, line := range strings.Split(strings.TrimSpace(buf.String()), "\n") {
		if line == "" {
			continue
		}
		var m map[string]any
		if err := json.Unmarshal([]byte(line), &m); err != nil {
			t.Fatalf("decode %q: %v", line, err)
		}
		out = append(out, m)
	}
	return out
}

func TestNewTagsComponent(t *testing.T) {
	var buf bytes.Buffer
	l := New(Config{Format: "json", Component: ComponentJobs, Output: &buf})
	l.Info("hello", "k", "v")

	lines := decodeLines(t, &buf)
	if len(lines) != 1 {
		t.Fatalf("expected one line, got %d", len(lines))
	}
	if lines[0][FieldComponent] != ComponentJobs || lines[0]["k"] != "v" {
		t.Errorf("unexpected record: %v", lines[0])
	}
	if l.Component() != ComponentJobs {
		t.Errorf("Component() = %q", l.Component())
	}
}

func TestLevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	cfg := DefaultConfig()
	cfg.Format = "json"
	cfg.Output = &buf
	l := New(cfg)
	l.Debug("hidden")
	l.Warn("shown")

	lines := decodeLines(t, &buf)
	if len(lines) != 1 || lines[0]["msg"] != "shown" {
		t.Fatalf("debug should be filtered at info level: %v", lines)
	}
}

func TestFromContext(t *testing.T) {
	if got := FromContext(context.Background()); got.Component() != "unknown" {
		t.Errorf("fallback component = %q", got.Component())
	}

	var buf bytes.Buffer
	l := New(Config{Format: "json", Output: &buf})
	ctx := NewContext(context.Background(), l)
	if FromContext(ctx) != l {
		t.Errorf("expected the stored logger back")
	}
}

func TestRequestIDMiddleware(t *testing.T) {
	var buf bytes.Buffer
	base := New(Config{Format: "json", Output: &buf})

	h := Middleware(base)(RequestIDMiddleware(func(*http.Request) string { return "req_1" })(
		http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			FromContext(r.Context()).InfoContext(r.Context(), "inside")
		})))
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))

	lines := decodeLines(t, &buf)
	if len(lines) != 1 || lines[0][FieldRequestID] != "req_1" {
		t.Fatalf("request id not attached: %v", lines)
	}
}

func TestStructuredLogger(t *testing.T) {
	var buf bytes.Buffer
	sl := NewStructuredLogger(New(Config{Format: "json", Component: ComponentInvoices, Output: &buf}))
	ctx := context.Background()

	sl.LogInvoiceIssued(ctx, "u1", "inv-1", "p-1", "INV-00001", "120.00")
	sl.LogHTTPEnd(ctx, httptest.NewRequest(http.MethodGet, "/api/jobs", nil), 503, 12, "req_2", "10.0.0.1")
	sl.LogError(ctx, "render failed", errors.New("boom"), OpRender, nil)

	lines := decodeLines(t, &buf)
	if len(lines) != 3 {
		t.Fatalf("expected 3 lines, got %d", len(lines))
	}
	if lines[0][FieldInvoiceNumber] != "INV-00001" || lines[0][FieldOperation] != OpIssue {
		t.Errorf("unexpected invoice line: %v", lines[0])
	}
	if lines[1]["level"] != "ERROR" || lines[1][FieldStatusCode] != float64(503) || lines[1][FieldSuccess] != false {
		t.Errorf("unexpected http line: %v", lines[1])
	}
	if lines[2][FieldError] != "boom" {
		t.Errorf("unexpected error line: %v", lines[2])
	}
}

func TestToSliceIsSorted(t *testing.T) {
	got := NewFields().WithUser("u1").WithClientIP("1.2.3.4").ToSlice()
	if len(got) != 4 || got[0] != FieldClientIP || got[2] != FieldUserID {
		t.Errorf("ToSlice() = %v", got)
	}
}
