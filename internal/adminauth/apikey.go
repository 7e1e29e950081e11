// Package adminauth guards the provider-install and admin broadcast
// surfaces with a simple API key check, in the teacher's
// middleware/apikey.go idiom: env-configured keys, constant-time
// comparison, disabled entirely when unconfigured.
package adminauth

import (
	"crypto/subtle"
	"encoding/json"
	"net/http"
	"os"
	"strings"
	"sync"
)

// APIKeyAuth validates the X-Admin-Key / Authorization: Bearer header
// on admin-only routes (provider install inspection, proactive
// broadcast). Disabled when GREENTIC_ADMIN_API_KEYS is unset.
type APIKeyAuth struct {
	mu      sync.RWMutex
	keys    map[string]bool
	enabled bool
}

// New builds an APIKeyAuth from the GREENTIC_ADMIN_API_KEYS env var
// (comma-separated list).
func New() *APIKeyAuth {
	a := &APIKeyAuth{keys: make(map[string]bool)}
	for _, key := range strings.Split(os.Getenv("GREENTIC_ADMIN_API_KEYS"), ",") {
		key = strings.TrimSpace(key)
		if key != "" {
			a.keys[key] = true
			a.enabled = true
		}
	}
	return a
}

// Enabled reports whether any admin key is configured.
func (a *APIKeyAuth) Enabled() bool {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.enabled
}

// Middleware enforces the key on every request it wraps.
func (a *APIKeyAuth) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !a.Enabled() {
			next.ServeHTTP(w, r)
			return
		}
		key := extractKey(r)
		if key == "" || !a.validate(key) {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusUnauthorized)
			json.NewEncoder(w).Encode(map[string]string{
				"error":   "unauthorized",
				"message": "admin API key required",
			})
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (a *APIKeyAuth) validate(candidate string) bool {
	a.mu.RLock()
	defer a.mu.RUnlock()
	for key := range a.keys {
		if subtle.ConstantTimeCompare([]byte(candidate), []byte(key)) == 1 {
			return true
		}
	}
	return false
}

func extractKey(r *http.Request) string {
	if auth := r.Header.Get("Authorization"); strings.HasPrefix(auth, "Bearer ") {
		return strings.TrimPrefix(auth, "Bearer ")
	}
	if key := r.Header.Get("X-Admin-Key"); key != "" {
		return key
	}
	return ""
}
