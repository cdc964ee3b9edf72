package chi

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
}

func TestBearerAuth_DisabledWithoutKeys(t *testing.T) {
	for _, keys := range [][]string{nil, {"", ""}} {
		h := BearerAuthMiddleware(keys)(okHandler())
		rr := httptest.NewRecorder()
		h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/v1/users/u1/matches", http.NoBody))
		if rr.Code != http.StatusOK {
			t.Errorf("keys %q: got %d, want %d", keys, rr.Code, http.StatusOK)
		}
	}
}

func TestBearerAuth(t *testing.T) {
	h := BearerAuthMiddleware([]string{"key-one", "key-two"})(okHandler())

	tests := []struct {
		name    string
		path    string
		header  string
		code    int
		message string
	}{
		{name: "first key", path: "/v1/matches/rank", header: "Bearer key-one", code: http.StatusOK},
		{name: "second key", path: "/v1/matches/rank", header: "Bearer key-two", code: http.StatusOK},
		{name: "lowercase scheme", path: "/v1/matches/rank", header: "bearer key-one", code: http.StatusOK},
		{name: "health is public", path: "/health", code: http.StatusOK},
		{name: "metrics is public", path: "/metrics", code: http.StatusOK},
		{name: "missing header", path: "/v1/matches/rank", code: http.StatusUnauthorized,
			message: "missing authorization header"},
		{name: "basic scheme", path: "/v1/matches/rank", header: "Basic a2V5LW9uZQ==", code: http.StatusUnauthorized,
			message: "authorization header must use Bearer scheme"},
		{name: "scheme only", path: "/v1/matches/rank", header: "Bearer", code: http.StatusUnauthorized,
			message: "authorization header must use Bearer scheme"},
		{name: "blank token", path: "/v1/matches/rank", header: "Bearer   ", code: http.StatusUnauthorized,
			message: "empty bearer token"},
		{name: "wrong key", path: "/v1/matches/rank", header: "Bearer key-three", code: http.StatusUnauthorized,
			message: "invalid api key"},
		{name: "prefix of valid key", path: "/v1/matches/rank", header: "Bearer key-on", code: http.StatusUnauthorized,
			message: "invalid api key"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, tt.path, http.NoBody)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rr := httptest.NewRecorder()
			h.ServeHTTP(rr, req)

			if rr.Code != tt.code {
				t.Fatalf("status: got %d, want %d", rr.Code, tt.code)
			}
			if tt.code == http.StatusOK {
				return
			}
			if rr.Header().Get("WWW-Authenticate") == "" {
				t.Error("expected WWW-Authenticate challenge")
			}
			var body ErrorResponse
			if err := json.NewDecoder(rr.Body).Decode(&body); err != nil {
				t.Fatalf("decode: %v", err)
			}
			if body.Code != ErrorCodeUnauthorized || body.Message != tt.message {
				t.Errorf("body: got %+v", body)
			}
		})
	}
}
