package model

// Principal is the server-held identity of a logged-in session.
// Both fields travel as strings inside the session store.
type Principal struct {
	UserID    int64 `json:"userId,string"`
	Authority int   `json:"authority,string"`
}

func NewPrincipal(u *User) Principal {
	return Principal{UserID: u.ID, Authority: u.Authority}
}

// IsElevated reports super-user capability.
func (p Principal) IsElevated() bool {
	return p.Authority > DefaultAuthority
}

// Capability is what a route demands from the caller.
type Capability int

const (
	CapabilityPublic Capability = iota
	CapabilityAuthenticated
	CapabilityElevated
	// CapabilityOwner is checked by the handler once the resource row is loaded.
	CapabilityOwner
)

func (c Capability) String() string {
	switch c {
	case CapabilityPublic:
		return "public"
	case CapabilityAuthenticated:
		return "authenticated"
	case CapabilityElevated:
		return "elevated"
	case CapabilityOwner:
		return "owner"
	default:
		return "unknown"
	}
}
