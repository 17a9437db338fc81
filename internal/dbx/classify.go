package dbx

import "strings"

// IsTransient reports whether err looks like a connection/timeout/lock-busy
// condition worth retrying, per the transient-error policy every store's
// Create/Update/Delete applies around its commit.
func IsTransient(err error) bool {
	if err == nil {
		return false
	}
	msg := strings.ToLower(err.Error())
	for _, needle := range []string{"database is locked", "busy", "timeout", "connection", "interrupted"} {
		if strings.Contains(msg, needle) {
			return true
		}
	}
	return false
}
