package adapthttp

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"

	"hyperlocal/internal/domain"
	"hyperlocal/internal/security"
)

type fakeVerifier struct {
	verify func(string) (security.Claims, error)
}

func (f fakeVerifier) Verify(token string) (security.Claims, error) { return f.verify(token) }

func TestLoggingMiddleware(t *testing.T) {
	logger, hook := test.NewNullLogger()
	s := &Server{log: logger}

	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
		_, _ = w.Write([]byte("OK"))
	})

	req := httptest.NewRequest(http.MethodGet, "/test-path", nil)
	req.Header.Set(requestIDHeader, "req-1")
	w := httptest.NewRecorder()
	s.loggingMiddleware(next).ServeHTTP(w, req)

	if w.Code != http.StatusTeapot {
		t.Errorf("Expected status %d, got %d", http.StatusTeapot, w.Code)
	}
	if got := w.Header().Get(requestIDHeader); got != "req-1" {
		t.Errorf("Expected request id to be echoed, got %q", got)
	}

	entry := hook.LastEntry()
	if entry == nil {
		t.Fatal("Expected a log entry")
	}
	if entry.Level != logrus.InfoLevel {
		t.Errorf("Expected info level, got %v", entry.Level)
	}
	if entry.Data["method"] != "GET" || entry.Data["path"] != "/test-path" || entry.Data["status"] != http.StatusTeapot {
		t.Errorf("Log entry missing expected fields. Got: %v", entry.Data)
	}
	if entry.Data["request_id"] != "req-1" {
		t.Errorf("Expected request_id field, got %v", entry.Data["request_id"])
	}
	if entry.Data["route"] != "unmatched" {
		t.Errorf("Expected unmatched route, got %v", entry.Data["route"])
	}
}

func TestRecoverer(t *testing.T) {
	logger, hook := test.NewNullLogger()
	s := &Server{log: logger}

	h := s.loggingMiddleware(recoverer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		panic("boom")
	})))

	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/x", nil))

	if w.Code != http.StatusInternalServerError {
		t.Fatalf("Expected 500, got %d", w.Code)
	}
	var body envelope
	if err := json.NewDecoder(w.Body).Decode(&body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body.Success || body.Message == nil || *body.Message != domain.KindInternal.UserMessage() {
		t.Errorf("unexpected body: %+v", body)
	}

	var sawPanic bool
	for _, e := range hook.AllEntries() {
		if e.Level == logrus.ErrorLevel && e.Data["panic"] == "boom" {
			sawPanic = true
		}
	}
	if !sawPanic {
		t.Error("Expected the panic to be logged")
	}
}

func TestRecoverer_RepanicsAbort(t *testing.T) {
	h := recoverer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		panic(http.ErrAbortHandler)
	}))
	defer func() {
		if rec := recover(); rec != http.ErrAbortHandler {
			t.Fatalf("Expected ErrAbortHandler to propagate, got %v", rec)
		}
	}()
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))
}

func TestBearerToken(t *testing.T) {
	tests := []struct {
		header string
		want   string
		ok     bool
	}{
		{"", "", false},
		{"Bearer abc", "abc", true},
		{"Bearer ", "", true},
		{"bearer abc", "", false},
		{"Basic abc", "", false},
		{"Bearerabc", "", false},
	}
	for _, tt := range tests {
		r := httptest.NewRequest(http.MethodGet, "/", nil)
		if tt.header != "" {
			r.Header.Set("Authorization", tt.header)
		}
		got, ok := bearerToken(r)
		if got != tt.want || ok != tt.ok {
			t.Errorf("bearerToken(%q) = %q, %v; want %q, %v", tt.header, got, ok, tt.want, tt.ok)
		}
	}
}

func TestRequireAuth_AttachesPrincipal(t *testing.T) {
	logger, _ := test.NewNullLogger()
	s := &Server{log: logger, tokens: fakeVerifier{verify: func(tok string) (security.Claims, error) {
		if tok != "good" {
			return security.Claims{}, security.ErrBadSignature
		}
		return security.Claims{Sub: 42}, nil
	}}}

	var got domain.Principal
	h := s.requireAuth(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = mustPrincipal(r)
		w.WriteHeader(http.StatusNoContent)
	}))

	r := httptest.NewRequest(http.MethodGet, "/", nil)
	r.Header.Set("Authorization", "Bearer good")
	w := httptest.NewRecorder()
	h.ServeHTTP(w, r)
	if w.Code != http.StatusNoContent || got.UserID != 42 {
		t.Fatalf("status %d, principal %+v", w.Code, got)
	}

	r = httptest.NewRequest(http.MethodGet, "/", nil)
	r.Header.Set("Authorization", "Bearer bad")
	w = httptest.NewRecorder()
	h.ServeHTTP(w, r)
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("Expected 401, got %d", w.Code)
	}
	var body map[string]string
	_ = json.NewDecoder(w.Body).Decode(&body)
	if body["error"] != msgInvalidToken {
		t.Errorf("unexpected body %v", body)
	}
}

func TestOptionalAuth_NeverRejects(t *testing.T) {
	s := &Server{tokens: fakeVerifier{verify: func(string) (security.Claims, error) {
		return security.Claims{}, errors.New("nope")
	}}}

	var attached bool
	h := s.optionalAuth(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, attached = PrincipalFrom(r.Context())
	}))

	r := httptest.NewRequest(http.MethodGet, "/", nil)
	r.Header.Set("Authorization", "Bearer whatever")
	w := httptest.NewRecorder()
	h.ServeHTTP(w, r)
	if w.Code != http.StatusOK || attached {
		t.Fatalf("status %d, attached %v", w.Code, attached)
	}
}

func TestMustPrincipal_PanicsWithoutAuth(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatal("Expected panic")
		}
	}()
	mustPrincipal(httptest.NewRequest(http.MethodGet, "/", nil))
}
