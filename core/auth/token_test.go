package auth

import (
	"encoding/base64"
	"encoding/json"
	"strings"
	"testing"
	"time"
)

var testTTL = 8 * time.Hour

func newTestTokenService() *TokenService {
	return NewTokenService([]byte("secret"), testTTL)
}

func TestTokenService_IssueVerify(t *testing.T) {
	svc := newTestTokenService()

	token, err := svc.Issue("s1", "Neema Juma", RoleStudent, CapImpersonate)
	if err != nil {
		t.Fatalf("Issue(): %v", err)
	}

	idn, err := svc.Verify(token)
	if err != nil {
		t.Fatalf("Verify(): %v", err)
	}
	if idn.SubjectID != "s1" {
		t.Errorf("SubjectID = %q, want %q", idn.SubjectID, "s1")
	}
	if idn.DisplayName != "Neema Juma" {
		t.Errorf("DisplayName = %q, want %q", idn.DisplayName, "Neema Juma")
	}
	if idn.Role != RoleStudent {
		t.Errorf("Role = %q, want %q", idn.Role, RoleStudent)
	}
	if !idn.HasCapability(CapImpersonate) {
		t.Error("missing capability")
	}
	if got := idn.ExpiresAt.Sub(idn.IssuedAt); got != testTTL {
		t.Errorf("ExpiresAt - IssuedAt = %v, want %v", got, testTTL)
	}
}

func TestTokenService_IssueUnknownRole(t *testing.T) {
	svc := newTestTokenService()
	if _, err := svc.Issue("s1", "S", Role("headmaster")); err == nil {
		t.Error("Issue() accepted an unknown role")
	}
}

func TestTokenService_VerifyMalformed(t *testing.T) {
	svc := newTestTokenService()

	valid, err := svc.Issue("s1", "S", RoleStudent)
	if err != nil {
		t.Fatalf("Issue(): %v", err)
	}
	dot := strings.IndexByte(valid, '.')

	// a well-signed envelope whose claims are not valid JSON
	junkClaims := base64.RawURLEncoding.EncodeToString([]byte("not json"))
	junkSigned := junkClaims + "." + base64.RawURLEncoding.EncodeToString(svc.sign([]byte(junkClaims)))

	// well-signed envelopes with a missing/invalid claim
	badSub := signedTokenFor(svc, t, claims{Subject: "", Role: RoleStudent, IssuedAt: 1, ExpiresAt: time.Now().Add(time.Hour).Unix()})
	badRole := signedTokenFor(svc, t, claims{Subject: "s1", Role: "headmaster", IssuedAt: 1, ExpiresAt: time.Now().Add(time.Hour).Unix()})
	noExp := signedTokenFor(svc, t, claims{Subject: "s1", Role: RoleStudent, IssuedAt: 1})

	// a token signed by another service
	other := NewTokenService([]byte("other secret"), testTTL)
	foreign, err := other.Issue("s1", "S", RoleStudent)
	if err != nil {
		t.Fatalf("Issue(): %v", err)
	}

	tests := []struct {
		name  string
		token string
	}{
		{name: "empty"},
		{name: "no separator", token: strings.ReplaceAll(valid, ".", "")},
		{name: "empty claims segment", token: valid[dot:]},
		{name: "empty signature segment", token: valid[:dot+1]},
		{name: "extra segment", token: valid + ".extra"},
		{name: "claims not base64url", token: "???." + valid[dot+1:]},
		{name: "signature not base64url", token: valid[:dot+1] + "???"},
		{name: "claims not json", token: junkSigned},
		{name: "missing subject", token: badSub},
		{name: "unknown role", token: badRole},
		{name: "missing expiry", token: noExp},
		{name: "foreign signature", token: foreign},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := svc.Verify(tt.token); err != ErrInvalidToken {
				t.Errorf("Verify() error = %v, want %v", err, ErrInvalidToken)
			}
		})
	}
}

func TestTokenService_VerifyBitFlips(t *testing.T) {
	svc := newTestTokenService()

	token, err := svc.Issue("s1", "S", RoleStudent)
	if err != nil {
		t.Fatalf("Issue(): %v", err)
	}

	for i := 0; i < len(token); i++ {
		for bit := uint(0); bit < 8; bit++ {
			flipped := []byte(token)
			flipped[i] ^= 1 << bit
			if _, err := svc.Verify(string(flipped)); err != ErrInvalidToken {
				t.Fatalf("Verify() accepted token with byte %d bit %d flipped", i, bit)
			}
		}
	}
}

func TestTokenService_VerifyExpired(t *testing.T) {
	svc := newTestTokenService()

	// issue in the past, beyond the TTL
	nowFunc = func() time.Time { return time.Now().Add(-testTTL - time.Minute) }
	expired, err := svc.Issue("s1", "S", RoleStudent)
	nowFunc = time.Now // reset
	if err != nil {
		t.Fatalf("Issue(): %v", err)
	}

	if _, err := svc.Verify(expired); err != ErrInvalidToken {
		t.Errorf("Verify() error = %v, want %v", err, ErrInvalidToken)
	}
}

func TestTokenService_VerifyExactBytes(t *testing.T) {
	svc := newTestTokenService()

	// same claims serialized with different key order: the signature must be
	// bound to the received bytes, not to semantic equality
	token, err := svc.Issue("s1", "S", RoleStudent)
	if err != nil {
		t.Fatalf("Issue(): %v", err)
	}
	dot := strings.IndexByte(token, '.')

	payload, err := base64.RawURLEncoding.DecodeString(token[:dot])
	if err != nil {
		t.Fatalf("decoding claims: %v", err)
	}
	var fields map[string]interface{}
	if err := json.Unmarshal(payload, &fields); err != nil {
		t.Fatalf("unmarshalling claims: %v", err)
	}
	reserialized, err := json.Marshal(fields) // sorts keys
	if err != nil {
		t.Fatalf("marshalling claims: %v", err)
	}
	resigned := base64.RawURLEncoding.EncodeToString(reserialized) + token[dot:]
	if string(reserialized) == string(payload) {
		t.Skip("re-serialization produced identical bytes")
	}

	if _, err := svc.Verify(resigned); err != ErrInvalidToken {
		t.Errorf("Verify() error = %v, want %v", err, ErrInvalidToken)
	}
}

func signedTokenFor(svc *TokenService, t *testing.T, cl claims) string {
	t.Helper()
	payload, err := json.Marshal(cl)
	if err != nil {
		t.Fatalf("marshalling claims: %v", err)
	}
	encoded := base64.RawURLEncoding.EncodeToString(payload)
	return encoded + "." + base64.RawURLEncoding.EncodeToString(svc.sign([]byte(encoded)))
}
