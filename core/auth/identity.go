package auth

import "time"

// Identity is the verified, in-memory representation of "who is making this
// request". It is only ever constructed by TokenService.Verify, lives for the
// duration of one request and is never persisted.
type Identity struct {
	SubjectID    string
	DisplayName  string
	Role         Role
	Capabilities []Capability
	IssuedAt     time.Time
	ExpiresAt    time.Time
}

// HasCapability reports whether the identity carries the given flag.
func (idn Identity) HasCapability(cap Capability) bool {
	for _, c := range idn.Capabilities {
		if c == cap {
			return true
		}
	}
	return false
}
