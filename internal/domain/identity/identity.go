// Package identity holds the per-request caller identity derived from a
// verified credential.
package identity

import "strings"

// Identity is the decoded claim set of a verified caller. It lives for one
// request and is never persisted on its own.
type Identity struct {
	UserID string
	Email  string
}

// EmailDomain returns the lower-cased part after '@', or "" when the email
// has no '@' or is empty.
func (i Identity) EmailDomain() string {
	email := strings.ToLower(strings.TrimSpace(i.Email))
	at := strings.LastIndex(email, "@")
	if at < 0 || at == len(email)-1 {
		return ""
	}
	return email[at+1:]
}
