// Package identity is the identity provider for the application: it mints
// and verifies bearer tokens, checks password credentials, and fans out
// auth-change events to subscribers.
package identity

// User is the identity asserted by a verified credential.
type User struct {
	UID   string
	Email string
}
