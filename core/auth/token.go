package auth

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"strings"
	"time"

	"github.com/pkg/errors"
)

var (
	nowFunc = time.Now // mockable

	// ErrInvalidToken is the single failure outcome of Verify. Malformed
	// envelopes, bad signatures and expired tokens are deliberately not
	// distinguishable by the caller.
	ErrInvalidToken = errors.New("invalid token")
)

// claims is the wire payload of a session token.
type claims struct {
	Subject      string   `json:"sub"`
	Name         string   `json:"name,omitempty"`
	Role         Role     `json:"role"`
	Capabilities []string `json:"caps,omitempty"`
	IssuedAt     int64    `json:"iat"`
	ExpiresAt    int64    `json:"exp"`
}

// TokenService issues and verifies self-contained session tokens of the form
// `base64url(claims) "." base64url(hmac-sha256(signature))` (unpadded, single
// implicit format version). Tokens are never stored server-side; logout is the
// client discarding its credential.
type TokenService struct {
	secret []byte
	ttl    time.Duration
}

// NewTokenService returns a TokenService signing with the given secret.
// The secret is injected here rather than read from a global so tests can run
// with distinct secrets.
func NewTokenService(secret []byte, ttl time.Duration) *TokenService {
	return &TokenService{secret: secret, ttl: ttl}
}

// TTL is the fixed validity window stamped on every issued token.
func (svc *TokenService) TTL() time.Duration { return svc.ttl }

// Issue signs a new token for an already-authenticated principal.
// The role must be one of the closed enumeration; signing itself cannot fail.
func (svc *TokenService) Issue(subjectID, displayName string, role Role, caps ...Capability) (string, error) {
	if !role.Valid() {
		return "", errors.Errorf("unknown role %q", role)
	}

	now := nowFunc()
	cl := claims{
		Subject:   subjectID,
		Name:      displayName,
		Role:      role,
		IssuedAt:  now.Unix(),
		ExpiresAt: now.Add(svc.ttl).Unix(),
	}
	for _, c := range caps {
		cl.Capabilities = append(cl.Capabilities, string(c))
	}

	payload, err := json.Marshal(cl)
	if err != nil {
		return "", errors.Wrap(err, "marshalling claims")
	}
	encoded := base64.RawURLEncoding.EncodeToString(payload)
	sig := svc.sign([]byte(encoded))
	return encoded + "." + base64.RawURLEncoding.EncodeToString(sig), nil
}

// Verify parses and authenticates a token, returning the Identity it encodes.
// The signature is recomputed over the exact encoded-claims bytes received on
// the wire; the claims are never re-serialized for comparison.
func (svc *TokenService) Verify(token string) (Identity, error) {
	parts := strings.Split(token, ".")
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return Identity{}, ErrInvalidToken
	}

	// strict decoding: a token differing from the issued bytes in any way,
	// including non-canonical trailing bits, must not verify
	sig, err := base64.RawURLEncoding.Strict().DecodeString(parts[1])
	if err != nil {
		return Identity{}, ErrInvalidToken
	}
	if !hmac.Equal(sig, svc.sign([]byte(parts[0]))) {
		return Identity{}, ErrInvalidToken
	}

	payload, err := base64.RawURLEncoding.Strict().DecodeString(parts[0])
	if err != nil {
		return Identity{}, ErrInvalidToken
	}
	var cl claims
	if err := json.Unmarshal(payload, &cl); err != nil {
		return Identity{}, ErrInvalidToken
	}
	if cl.Subject == "" || !cl.Role.Valid() || cl.IssuedAt == 0 || cl.ExpiresAt == 0 {
		return Identity{}, ErrInvalidToken
	}
	if cl.ExpiresAt <= nowFunc().Unix() {
		return Identity{}, ErrInvalidToken
	}

	idn := Identity{
		SubjectID:   cl.Subject,
		DisplayName: cl.Name,
		Role:        cl.Role,
		IssuedAt:    time.Unix(cl.IssuedAt, 0),
		ExpiresAt:   time.Unix(cl.ExpiresAt, 0),
	}
	for _, c := range cl.Capabilities {
		idn.Capabilities = append(idn.Capabilities, Capability(c))
	}
	return idn, nil
}

func (svc *TokenService) sign(val []byte) []byte {
	key := sha256.Sum256(append([]byte("elimu.core.auth.token"), svc.secret...))
	h := hmac.New(sha256.New, key[:])
	h.Write(val)
	return h.Sum(nil)
}
