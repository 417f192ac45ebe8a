package web

import (
	"crypto/subtle"
	"net/http"
	"strings"
)

// requireToken enforces bearer token authentication before the request body
// is touched. With no token configured every request is rejected; the
// comparison is constant-time so the token cannot be guessed byte by byte.
func (s *Server) requireToken(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if s.ingestToken == "" {
			http.Error(w, "Unauthorized", http.StatusUnauthorized)
			return
		}

		auth := r.Header.Get("Authorization")
		token, ok := strings.CutPrefix(auth, "Bearer ")
		if !ok {
			http.Error(w, "Unauthorized", http.StatusUnauthorized)
			return
		}

		if subtle.ConstantTimeCompare([]byte(token), []byte(s.ingestToken)) != 1 {
			http.Error(w, "Unauthorized", http.StatusUnauthorized)
			return
		}

		next(w, r)
	}
}
