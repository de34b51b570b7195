// Railops - Backup, Restore, and Deployment Operations for Django Stacks
// Copyright 2026 Rail Labs (raillab)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/raillab/railops

package logging

import "net/url"

// RedactDSN strips the password from a URL-style connection string so it
// can be logged. Works for postgres:// and redis:// URLs. Strings that do
// not parse as URLs are replaced wholesale; a DSN must never be logged
// verbatim on the parse-failure path.
func RedactDSN(dsn string) string {
	if dsn == "" {
		return ""
	}
	u, err := url.Parse(dsn)
	if err != nil || u.Scheme == "" {
		return "(redacted)"
	}
	if _, has := u.User.Password(); has {
		u.User = url.UserPassword(u.User.Username(), "xxxxx")
	}
	return u.String()
}
