package credential

import (
	"context"
	"sync"
)

// Static is an in-memory Provider for tests and for sessiond runs without a
// real authentication backend.
type Static struct {
	mu   sync.Mutex
	cred *Credential
}

// NewStatic returns a Static provider holding a credential for userID.
// An empty userID starts signed out.
func NewStatic(userID string) *Static {
	s := &Static{}
	if userID != "" {
		s.cred = &Credential{UserID: userID}
	}
	return s
}

// Current returns the held credential, or (nil, nil) after SignOut.
func (s *Static) Current(ctx context.Context) (*Credential, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cred == nil {
		return nil, nil
	}
	c := *s.cred
	return &c, nil
}

// SignOut drops the held credential.
func (s *Static) SignOut(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cred = nil
	return nil
}

// Set replaces the held credential, simulating a fresh login.
func (s *Static) Set(userID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cred = &Credential{UserID: userID}
}

var _ Provider = (*Static)(nil)
