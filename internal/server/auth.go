// Railops - Backup, Restore, and Deployment Operations for Django Stacks
// Copyright 2026 Rail Labs (raillab)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/raillab/railops

package server

import (
	"crypto/subtle"
	"fmt"
	"net/http"
	"os"
	"strings"

	"golang.org/x/crypto/bcrypt"

	"github.com/raillab/railops/internal/logging"
)

// Credentials is the ops API basic-auth credential loaded from the
// htpasswd sidecar that secret provisioning writes. The sidecar holds
// one user:bcrypt-hash line.
type Credentials struct {
	user string
	hash []byte
}

// LoadCredentials reads the htpasswd sidecar at path. Hash algorithms
// other than bcrypt are rejected so a hand-edited sidecar fails at
// startup instead of locking every request out.
func LoadCredentials(path string) (*Credentials, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read htpasswd file: %w", err)
	}

	line, _, _ := strings.Cut(strings.TrimSpace(string(data)), "\n")
	user, hash, ok := strings.Cut(strings.TrimSpace(line), ":")
	if !ok || user == "" || hash == "" {
		return nil, fmt.Errorf("htpasswd file %s: want a single user:hash line", path)
	}
	if !strings.HasPrefix(hash, "$2") {
		return nil, fmt.Errorf("htpasswd file %s: hash for user %s is not bcrypt", path, user)
	}

	return &Credentials{user: user, hash: []byte(hash)}, nil
}

// Username returns the configured basic-auth username.
func (c *Credentials) Username() string {
	return c.user
}

// Authenticate checks a basic-auth pair against the loaded credential.
// The username comparison is constant-time; bcrypt's comparison already
// is.
func (c *Credentials) Authenticate(username, password string) bool {
	userMatch := subtle.ConstantTimeCompare([]byte(username), []byte(c.user)) == 1
	passMatch := bcrypt.CompareHashAndPassword(c.hash, []byte(password)) == nil
	return userMatch && passMatch
}

// requireAuth rejects requests that do not carry a valid basic-auth
// credential.
func (h *Handlers) requireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		username, password, ok := r.BasicAuth()
		if !ok || h.creds == nil || !h.creds.Authenticate(username, password) {
			logging.Warn().
				Str("path", r.URL.Path).
				Str("remote_addr", r.RemoteAddr).
				Msg("Rejected ops API request with invalid credentials")
			w.Header().Set("WWW-Authenticate", `Basic realm="railops"`)
			writeError(w, http.StatusUnauthorized, "unauthorized")
			return
		}
		next.ServeHTTP(w, r)
	})
}
