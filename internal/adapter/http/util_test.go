package adapthttp

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"hyperlocal/internal/domain"
)

func TestParseJSON_Errors(t *testing.T) {
	type body struct {
		Email    string  `json:"email"`
		Quantity int     `json:"quantity"`
		Notes    *string `json:"notes"`
		Tags     []string
	}

	tests := []struct {
		in   string
		want string
	}{
		{``, "request body is required"},
		{`{`, "invalid json"},
		{`{"email":}`, "invalid json"},
		{`{"email":5}`, "email must be a string"},
		{`{"quantity":"two"}`, "quantity must be an integer"},
		{`{"notes":true}`, "notes must be a string"},
		{`{"Tags":{}}`, "Tags must be an array"},
		{`[1,2]`, "invalid json"},
	}
	for _, tt := range tests {
		r := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(tt.in))
		var dst body
		err := parseJSON(r, &dst)
		if domain.KindOf(err) != domain.KindBadRequest {
			t.Errorf("parseJSON(%q) kind = %v, want bad request", tt.in, domain.KindOf(err))
			continue
		}
		if got := domain.MessageOf(err); got != tt.want {
			t.Errorf("parseJSON(%q) = %q, want %q", tt.in, got, tt.want)
		}
		if strings.Contains(domain.MessageOf(err), "Go struct") {
			t.Errorf("parseJSON(%q) leaks decoder internals", tt.in)
		}
	}
}

func TestParseJSON_OK(t *testing.T) {
	r := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"email":"a@x"}`))
	var dst struct {
		Email string `json:"email"`
	}
	if err := parseJSON(r, &dst); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if dst.Email != "a@x" {
		t.Errorf("Email = %q", dst.Email)
	}
}
