package identity

import (
	"strings"

	"civic-pulse/internal/domain/poll"
)

// Request is what the transport layer knows about the caller.
type Request struct {
	UserID       string
	SessionToken string
	ClientIP     string
}

// Resolver derives a VoterIdentity from a request. It has no side effects.
type Resolver struct {
	hasher *IPHasher
}

func NewResolver(hasher *IPHasher) *Resolver {
	if hasher == nil {
		hasher = NewIPHasher("")
	}
	return &Resolver{hasher: hasher}
}

// Resolve returns Authenticated when the request carries a user, otherwise
// Anonymous with a hashed client address. requireAuth is set by polls that do
// not accept anonymous responses.
func (r *Resolver) Resolve(req Request, requireAuth bool) (poll.VoterIdentity, error) {
	if uid := strings.TrimSpace(req.UserID); uid != "" {
		return poll.Authenticated{UserID: uid}, nil
	}
	if requireAuth {
		return nil, poll.ErrIdentityUnavailable
	}
	return poll.Anonymous{
		SessionToken: strings.TrimSpace(req.SessionToken),
		ClientIP:     r.hasher.Hash(req.ClientIP),
	}, nil
}
