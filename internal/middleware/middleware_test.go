package middleware

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/freeeve/hexconquest/internal/logger"
)

func TestCORS(t *testing.T) {
	tests := []struct {
		name       string
		method     string
		wantStatus int
		wantCalled bool
	}{
		{"get", http.MethodGet, http.StatusOK, true},
		{"preflight", http.MethodOptions, http.StatusNoContent, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			called := false
			h := CORS("https://example.com")(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				called = true
			}))
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, httptest.NewRequest(tt.method, "/x", nil))

			if rec.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d", rec.Code, tt.wantStatus)
			}
			if called != tt.wantCalled {
				t.Errorf("called = %v, want %v", called, tt.wantCalled)
			}
			if got := rec.Header().Get("Access-Control-Allow-Origin"); got != "https://example.com" {
				t.Errorf("Allow-Origin = %q", got)
			}
			if got := rec.Header().Get("Access-Control-Expose-Headers"); got != "ETag, X-Request-ID" {
				t.Errorf("Expose-Headers = %q, want ETag, X-Request-ID", got)
			}
		})
	}
}

func TestJSONContentType(t *testing.T) {
	rec := httptest.NewRecorder()
	JSON(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {})).
		ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	if ct := rec.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("Content-Type = %q", ct)
	}
}

func TestLoggerKeepsBodyAndStatus(t *testing.T) {
	var gotBody, gotID string
	h := Logger(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		b, _ := io.ReadAll(r.Body)
		gotBody = string(b)
		gotID = logger.RequestIDFromContext(r.Context())
		w.WriteHeader(http.StatusCreated)
		w.Write([]byte(`{"ok":true}`))
	}))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/games", strings.NewReader(`{"kind":"undo"}`)))

	if rec.Code != http.StatusCreated {
		t.Errorf("status = %d, want 201", rec.Code)
	}
	if gotBody != `{"kind":"undo"}` {
		t.Errorf("handler saw body %q", gotBody)
	}
	if len(gotID) != 8 {
		t.Errorf("request id %q", gotID)
	}
	if rec.Body.String() != `{"ok":true}` {
		t.Errorf("response body %q", rec.Body.String())
	}
}

func TestLoggerRequestIDHeader(t *testing.T) {
	var gotID string
	h := Logger(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotID = logger.RequestIDFromContext(r.Context())
	}))

	req := httptest.NewRequest(http.MethodGet, "/games", nil)
	req.Header.Set("X-Request-ID", "trace-42")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if gotID != "trace-42" || rec.Header().Get("X-Request-ID") != "trace-42" {
		t.Errorf("caller id not kept: ctx %q header %q", gotID, rec.Header().Get("X-Request-ID"))
	}

	req = httptest.NewRequest(http.MethodGet, "/games", nil)
	req.Header.Set("X-Request-ID", strings.Repeat("x", 100))
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if len(gotID) != 8 || rec.Header().Get("X-Request-ID") != gotID {
		t.Errorf("oversized id should be replaced, got %q", gotID)
	}
}

func TestChainOrder(t *testing.T) {
	var order []string
	mw := func(name string) func(http.Handler) http.Handler {
		return func(next http.Handler) http.Handler {
			return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				order = append(order, name+"-before")
				next.ServeHTTP(w, r)
				order = append(order, name+"-after")
			})
		}
	}
	h := Chain(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		order = append(order, "handler")
	}), mw("a"), mw("b"))
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))

	want := []string{"a-before", "b-before", "handler", "b-after", "a-after"}
	if strings.Join(order, ",") != strings.Join(want, ",") {
		t.Errorf("order = %v, want %v", order, want)
	}
}

func TestRateLimiter(t *testing.T) {
	rl := NewRateLimiter(0.001, 2)
	h := rl.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))

	do := func(addr string) int {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.RemoteAddr = addr
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		return rec.Code
	}

	for i, want := range []int{200, 200, 429} {
		if got := do("10.0.0.1:1234"); got != want {
			t.Errorf("request %d: status %d, want %d", i, got, want)
		}
	}
	if got := do("10.0.0.2:1234"); got != http.StatusOK {
		t.Errorf("other client: status %d, want 200", got)
	}
	if got := do("10.0.0.1:9999"); got != http.StatusTooManyRequests {
		t.Errorf("same ip, new port: status %d, want 429", got)
	}
}

func TestRateLimiterCleanup(t *testing.T) {
	rl := NewRateLimiter(1, 1)
	now := time.Unix(1000, 0)
	rl.now = func() time.Time { return now }
	rl.limiter("a")
	now = now.Add(time.Minute)
	rl.limiter("b")

	if n := rl.Cleanup(30 * time.Second); n != 1 {
		t.Errorf("Cleanup dropped %d, want 1", n)
	}
	if _, ok := rl.visitors["b"]; !ok {
		t.Error("recent visitor was dropped")
	}
}
