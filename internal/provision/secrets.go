// Railops - Backup, Restore, and Deployment Operations for Django Stacks
// Copyright 2026 Rail Labs (raillab)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/raillab/railops

// Package provision prepares a host for the managed Django stack: it
// generates the stack's secret material and ensures the directory
// layout exists with the intended permission modes.
//
// Secret values come from crypto/rand only and are never logged or
// printed; the only copies live in the owner-only secrets file and, for
// the ops API password, as a bcrypt hash in the htpasswd sidecar.
package provision

import (
	"bufio"
	"context"
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"math/big"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"golang.org/x/crypto/bcrypt"

	"github.com/raillab/railops/internal/logging"
	"github.com/raillab/railops/internal/opserr"
)

// SecretKind names a generation policy.
type SecretKind string

const (
	// KindDjangoKey is a 50-character key in Django SECRET_KEY style.
	KindDjangoKey SecretKind = "django-key"

	// KindSigningKey is 32 random bytes, base64url-encoded.
	KindSigningKey SecretKind = "signing-key"

	// KindPassword is 16 random bytes, base64url-encoded.
	KindPassword SecretKind = "password"
)

// SecretSpec names one secret and how to generate it.
type SecretSpec struct {
	Name string
	Kind SecretKind
}

// DefaultSecrets returns the secret set the stack needs.
func DefaultSecrets() []SecretSpec {
	return []SecretSpec{
		{Name: "DJANGO_SECRET_KEY", Kind: KindDjangoKey},
		{Name: "JWT_SIGNING_KEY", Kind: KindSigningKey},
		{Name: "POSTGRES_PASSWORD", Kind: KindPassword},
		{Name: "GRAFANA_ADMIN_PASSWORD", Kind: KindPassword},
		{Name: "OPS_API_PASSWORD", Kind: KindPassword},
	}
}

const (
	signingKeyBytes = 32
	passwordBytes   = 16

	djangoKeyLength = 50
	// djangoKeyCharset holds only characters that never need quoting or
	// escaping in an env file.
	djangoKeyCharset = "abcdefghijklmnopqrstuvwxyz0123456789-_"

	secretFileMode = 0o600

	// opsAPIUser is the basic-auth user written to the htpasswd sidecar.
	opsAPIUser        = "admin"
	opsAPIPasswordKey = "OPS_API_PASSWORD"

	bcryptCost = 12
)

// SecretSet is the outcome of one Ensure run. Values holds the secret
// material for in-process consumers; it must never reach a log event or
// stdout.
type SecretSet struct {
	File      string
	Values    map[string]string
	Generated []string
	Kept      []string
}

// SecretProvisioner generates and persists the stack's secrets.
type SecretProvisioner struct {
	file string
}

// NewSecretProvisioner creates a provisioner writing to the given file.
func NewSecretProvisioner(file string) *SecretProvisioner {
	return &SecretProvisioner{file: file}
}

// Ensure guarantees every spec'd secret has a value in the secrets
// file. Existing values are preserved unless force regenerates the
// whole set; keys in the file that no spec names are carried over
// untouched. The file is written atomically with owner-only
// permissions, and a bcrypt hash of the ops API password is mirrored
// into the htpasswd sidecar.
func (p *SecretProvisioner) Ensure(ctx context.Context, specs []SecretSpec, force bool) (*SecretSet, error) {
	existing, err := readSecretsFile(p.file)
	if err != nil {
		return nil, err
	}

	set := &SecretSet{
		File:   p.file,
		Values: make(map[string]string, len(specs)),
	}

	for _, spec := range specs {
		if value, ok := existing[spec.Name]; ok && value != "" && !force {
			set.Values[spec.Name] = value
			set.Kept = append(set.Kept, spec.Name)
			continue
		}
		value, err := generate(spec)
		if err != nil {
			return nil, err
		}
		set.Values[spec.Name] = value
		set.Generated = append(set.Generated, spec.Name)
	}

	if err := p.writeSecretsFile(specs, set.Values, existing); err != nil {
		return nil, err
	}

	if password := set.Values[opsAPIPasswordKey]; password != "" {
		if err := p.writeHtpasswd(password); err != nil {
			return nil, err
		}
	}

	logging.Ctx(ctx).Info().
		Str("file", p.file).
		Strs("generated", set.Generated).
		Strs("kept", set.Kept).
		Msg("Secrets provisioned")

	return set, nil
}

// generate returns a fresh value matching the secret's kind.
func generate(spec SecretSpec) (string, error) {
	switch spec.Kind {
	case KindDjangoKey:
		return randomString(djangoKeyLength, djangoKeyCharset)
	case KindSigningKey:
		return randomToken(signingKeyBytes)
	case KindPassword:
		return randomToken(passwordBytes)
	default:
		return "", fmt.Errorf("unknown secret kind %q for %s", spec.Kind, spec.Name)
	}
}

// randomToken returns n random bytes base64url-encoded.
func randomToken(n int) (string, error) {
	raw := make([]byte, n)
	if _, err := rand.Read(raw); err != nil {
		return "", fmt.Errorf("generating secret: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(raw), nil
}

// randomString returns length characters drawn uniformly from charset.
func randomString(length int, charset string) (string, error) {
	out := make([]byte, length)
	max := big.NewInt(int64(len(charset)))
	for i := range out {
		idx, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", fmt.Errorf("generating secret: %w", err)
		}
		out[i] = charset[idx.Int64()]
	}
	return string(out), nil
}

// readSecretsFile parses KEY=value lines. A missing file is an empty
// store, not an error.
func readSecretsFile(path string) (map[string]string, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return map[string]string{}, nil
		}
		return nil, fmt.Errorf("open secrets file: %w", err)
	}
	defer f.Close() //nolint:errcheck // Read-only file

	values := make(map[string]string)
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		key, value, found := strings.Cut(line, "=")
		if !found {
			continue
		}
		values[strings.TrimSpace(key)] = strings.TrimSpace(value)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read secrets file: %w", err)
	}
	return values, nil
}

// writeSecretsFile writes the secret set atomically with owner-only
// permissions. Spec'd keys come first in spec order; unknown keys from
// the previous file follow in sorted order.
func (p *SecretProvisioner) writeSecretsFile(specs []SecretSpec, values, existing map[string]string) error {
	if dir := filepath.Dir(p.file); dir != "." {
		if err := os.MkdirAll(dir, 0o750); err != nil {
			return fmt.Errorf("create secrets directory: %w", err)
		}
	}

	var b strings.Builder
	for _, spec := range specs {
		fmt.Fprintf(&b, "%s=%s\n", spec.Name, values[spec.Name])
	}

	var extras []string
	for key := range existing {
		if _, ok := values[key]; !ok {
			extras = append(extras, key)
		}
	}
	sort.Strings(extras)
	for _, key := range extras {
		fmt.Fprintf(&b, "%s=%s\n", key, existing[key])
	}

	return writeFileAtomic(p.file, []byte(b.String()))
}

// writeHtpasswd writes the ops API credential sidecar: one
// user:bcrypt-hash line the ops daemon validates basic auth against.
func (p *SecretProvisioner) writeHtpasswd(password string) error {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcryptCost)
	if err != nil {
		return fmt.Errorf("hash ops API password: %w", err)
	}
	content := opsAPIUser + ":" + string(hash) + "\n"
	return writeFileAtomic(p.file+".htpasswd", []byte(content))
}

// writeFileAtomic writes data to a temporary file with owner-only
// permissions and renames it into place. The restrictive mode is
// applied before any secret byte is written; failure to apply it
// surfaces as PermissionError because it compromises confidentiality.
func writeFileAtomic(path string, data []byte) error {
	tmpPath := path + ".tmp"

	f, err := os.OpenFile(tmpPath, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, secretFileMode)
	if err != nil {
		return fmt.Errorf("create secrets file: %w", err)
	}
	if err := f.Chmod(secretFileMode); err != nil {
		f.Close()          //nolint:errcheck // Best effort cleanup on error
		os.Remove(tmpPath) //nolint:errcheck // Best effort cleanup on error
		return opserr.NewPermission(path, secretFileMode, err)
	}

	if _, err := f.Write(data); err != nil {
		f.Close()          //nolint:errcheck // Best effort cleanup on error
		os.Remove(tmpPath) //nolint:errcheck // Best effort cleanup on error
		return fmt.Errorf("write secrets file: %w", err)
	}
	if err := f.Sync(); err != nil {
		f.Close()          //nolint:errcheck // Best effort cleanup on error
		os.Remove(tmpPath) //nolint:errcheck // Best effort cleanup on error
		return fmt.Errorf("sync secrets file: %w", err)
	}
	if err := f.Close(); err != nil {
		os.Remove(tmpPath) //nolint:errcheck // Best effort cleanup on error
		return fmt.Errorf("close secrets file: %w", err)
	}

	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath) //nolint:errcheck // Best effort cleanup on error
		return fmt.Errorf("publish secrets file: %w", err)
	}
	return nil
}
