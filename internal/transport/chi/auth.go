package chi

import (
	"crypto/subtle"
	"net/http"
	"strings"
)

// publicPaths bypass authentication so liveness checks and scrapers need no key.
var publicPaths = map[string]struct{}{
	"/health":  {},
	"/metrics": {},
}

// BearerAuthMiddleware rejects /v1 requests whose "Authorization: Bearer <key>"
// does not carry one of apiKeys. With no non-empty key configured the
// middleware is a pass-through.
func BearerAuthMiddleware(apiKeys []string) func(http.Handler) http.Handler {
	keys := make([][]byte, 0, len(apiKeys))
	for _, k := range apiKeys {
		if k != "" {
			keys = append(keys, []byte(k))
		}
	}

	return func(next http.Handler) http.Handler {
		if len(keys) == 0 {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if _, ok := publicPaths[r.URL.Path]; ok {
				next.ServeHTTP(w, r)
				return
			}
			token, problem := bearerToken(r)
			if problem == "" && !anyKeyEqual(keys, token) {
				problem = "invalid api key"
			}
			if problem != "" {
				w.Header().Set("WWW-Authenticate", `Bearer realm="matchmaker"`)
				writeError(w, http.StatusUnauthorized, ErrorCodeUnauthorized, problem)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// bearerToken extracts the credential. The scheme name is case-insensitive.
// A non-empty problem describes why the header is unusable.
func bearerToken(r *http.Request) (token []byte, problem string) {
	header := r.Header.Get("Authorization")
	if header == "" {
		return nil, "missing authorization header"
	}
	scheme, cred, ok := strings.Cut(header, " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return nil, "authorization header must use Bearer scheme"
	}
	cred = strings.TrimSpace(cred)
	if cred == "" {
		return nil, "empty bearer token"
	}
	return []byte(cred), ""
}

// anyKeyEqual checks every key so timing does not reveal which one matched.
func anyKeyEqual(keys [][]byte, token []byte) bool {
	match := 0
	for _, k := range keys {
		match |= subtle.ConstantTimeCompare(k, token)
	}
	return match == 1
}
