package http

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
)

func TestIsAllowedOrigin(t *testing.T) {
	tests := []struct {
		name    string
		origin  string
		allowed []string
		want    bool
	}{
		{
			name:    "exact match",
			origin:  "chrome-extension://mnopqrstuvwxyzab",
			allowed: []string{"chrome-extension://mnopqrstuvwxyzab"},
			want:    true,
		},
		{
			name:    "extension wildcard matches any install id",
			origin:  "chrome-extension://mnopqrstuvwxyzab",
			allowed: []string{"chrome-extension://*"},
			want:    true,
		},
		{
			name:    "second entry in the list matches",
			origin:  "http://localhost:3000",
			allowed: []string{"chrome-extension://*", "http://localhost:3000"},
			want:    true,
		},
		{
			name:    "unlisted origin",
			origin:  "https://evil.example.com",
			allowed: []string{"chrome-extension://*", "http://localhost:3000"},
			want:    false,
		},
		{
			name:    "empty origin",
			origin:  "",
			allowed: []string{"chrome-extension://*"},
			want:    false,
		},
		{
			name:    "empty allowed list",
			origin:  "chrome-extension://mnopqrstuvwxyzab",
			allowed: []string{},
			want:    false,
		},
		{
			name:    "trailing wildcard is a prefix match",
			origin:  "chrome-extension://mnopqrstuvwxyzab",
			allowed: []string{"chrome-*"},
			want:    true,
		},
		{
			name:    "wildcard only matches as a prefix",
			origin:  "moz-extension://mnopqrstuvwxyzab",
			allowed: []string{"chrome-extension://*"},
			want:    false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := isAllowedOrigin(tt.origin, tt.allowed)
			if got != tt.want {
				t.Errorf("isAllowedOrigin(%q) = %v, want %v", tt.origin, got, tt.want)
			}
		})
	}
}

func TestCORSMiddleware(t *testing.T) {
	tests := []struct {
		name     string
		origin   string
		allowed  []string
		method   string
		wantCode int
		wantCORS bool
	}{
		{
			name:     "allowed origin on a GET",
			origin:   "chrome-extension://mnopqrstuvwxyzab",
			allowed:  []string{"chrome-extension://*"},
			method:   "GET",
			wantCode: http.StatusOK,
			wantCORS: true,
		},
		{
			name:     "allowed origin on an OPTIONS",
			origin:   "chrome-extension://mnopqrstuvwxyzab",
			allowed:  []string{"chrome-extension://*"},
			method:   "OPTIONS",
			wantCode: http.StatusNoContent,
			wantCORS: true,
		},
		{
			name:     "disallowed origin gets no CORS headers",
			origin:   "https://evil.example.com",
			allowed:  []string{"chrome-extension://*"},
			method:   "GET",
			wantCode: http.StatusOK,
			wantCORS: false,
		},
		{
			name:     "missing origin header",
			origin:   "",
			allowed:  []string{"chrome-extension://*"},
			method:   "GET",
			wantCode: http.StatusOK,
			wantCORS: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			router := gin.New()
			router.Use(CORSMiddleware(tt.allowed))
			router.GET("/probe", func(c *gin.Context) {
				c.String(http.StatusOK, "ok")
			})

			req := httptest.NewRequest(tt.method, "/probe", nil)
			if tt.origin != "" {
				req.Header.Set("Origin", tt.origin)
			}

			w := httptest.NewRecorder()
			router.ServeHTTP(w, req)

			if w.Code != tt.wantCode {
				t.Errorf("Status = %d, want %d", w.Code, tt.wantCode)
			}

			gotOrigin := w.Header().Get("Access-Control-Allow-Origin")
			if tt.wantCORS {
				if gotOrigin != tt.origin {
					t.Errorf("Access-Control-Allow-Origin = %q, want %q", gotOrigin, tt.origin)
				}
				if w.Header().Get("Access-Control-Allow-Credentials") != "true" {
					t.Errorf("Access-Control-Allow-Credentials not set to true")
				}
			} else if gotOrigin != "" {
				t.Errorf("Access-Control-Allow-Origin = %q, want unset for a disallowed origin", gotOrigin)
			}
		})
	}
}

func TestCORSMiddleware_PreflightRequest(t *testing.T) {
	router := gin.New()
	router.Use(CORSMiddleware([]string{"chrome-extension://*"}))
	router.POST("/probe", func(c *gin.Context) {
		c.String(http.StatusOK, "ok")
	})

	req := httptest.NewRequest("OPTIONS", "/probe", nil)
	req.Header.Set("Origin", "chrome-extension://mnopqrstuvwxyzab")
	req.Header.Set("Access-Control-Request-Method", "POST")
	req.Header.Set("Access-Control-Request-Headers", "Content-Type")

	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	// Preflights never reach the handler
	if w.Code != http.StatusNoContent {
		t.Errorf("Preflight status = %d, want %d", w.Code, http.StatusNoContent)
	}
	if w.Body.Len() != 0 {
		t.Errorf("Preflight body = %q, want empty", w.Body.String())
	}

	if w.Header().Get("Access-Control-Allow-Origin") != "chrome-extension://mnopqrstuvwxyzab" {
		t.Errorf("Access-Control-Allow-Origin not set correctly")
	}
	if w.Header().Get("Access-Control-Allow-Methods") == "" {
		t.Errorf("Access-Control-Allow-Methods not set")
	}
	if w.Header().Get("Access-Control-Allow-Headers") == "" {
		t.Errorf("Access-Control-Allow-Headers not set")
	}
	if w.Header().Get("Access-Control-Max-Age") != "3600" {
		t.Errorf("Access-Control-Max-Age = %q, want 3600", w.Header().Get("Access-Control-Max-Age"))
	}
}
