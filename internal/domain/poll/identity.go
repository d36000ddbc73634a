package poll

type VoterKind string

const (
	VoterUser      VoterKind = "user"
	VoterAnonymous VoterKind = "anonymous"
)

// VoterIdentity is either Authenticated or Anonymous. Ledger code switches on
// the concrete type; there is no third variant.
type VoterIdentity interface {
	Kind() VoterKind
	isVoterIdentity()
}

// Authenticated identifies a signed-in voter.
type Authenticated struct {
	UserID string
}

func (Authenticated) Kind() VoterKind  { return VoterUser }
func (Authenticated) isVoterIdentity() {}

// Anonymous identifies a voter by browser session token and client IP. Both
// parts are required to match a ledger entry. ClientIP carries the keyed hash
// of the remote address once it has passed through the resolver.
type Anonymous struct {
	SessionToken string
	ClientIP     string
}

func (Anonymous) Kind() VoterKind  { return VoterAnonymous }
func (Anonymous) isVoterIdentity() {}

func (a Anonymous) Complete() bool {
	return a.SessionToken != "" && a.ClientIP != ""
}
