// Package credential defines the contract with the authentication collaborator.
// The coordinator only needs session presence and the owning user; issuing and
// refreshing credentials happens elsewhere.
package credential

import "context"

// Credential is the identity proof currently held by the client, distinct from
// the session row the coordinator manages.
type Credential struct {
	UserID string
}

// Provider exposes the authentication layer to the coordinator.
type Provider interface {
	// Current returns the credential in effect, or (nil, nil) when signed out
	// or the held token is expired or malformed.
	Current(ctx context.Context) (*Credential, error)
	// SignOut terminates the credential. Safe to call when already signed out.
	SignOut(ctx context.Context) error
}
