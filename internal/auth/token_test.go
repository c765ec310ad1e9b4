package auth

import (
	"errors"
	"testing"
	"time"

	"github.com/form3tech-oss/jwt-go"
)

func TestIssueAndVerify(t *testing.T) {
	v, err := NewVerifier("test-secret", "whist", "players", time.Hour)
	if err != nil {
		t.Fatalf("new verifier: %v", err)
	}
	token, err := v.Issue("user-1", "u1@example.com")
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	id, err := v.Verify(token)
	if err != nil {
		t.Fatalf("verify: %v", err)
	}
	if id.Subject != "user-1" || id.Email != "u1@example.com" {
		t.Fatalf("identity = %+v", id)
	}
	if id.ExpiresAt.IsZero() {
		t.Fatalf("expiry not populated")
	}
}

func TestVerifyRejects(t *testing.T) {
	v, _ := NewVerifier("test-secret", "whist", "", time.Hour)
	other, _ := NewVerifier("other-secret", "whist", "", time.Hour)
	wrongIssuer, _ := NewVerifier("test-secret", "someone-else", "", time.Hour)

	expired, _ := NewVerifier("test-secret", "whist", "", time.Hour)
	expired.now = func() time.Time { return time.Now().Add(-2 * time.Hour) }

	noneToken := jwt.NewWithClaims(jwt.SigningMethodNone, jwt.MapClaims{"sub": "x", "exp": time.Now().Add(time.Hour).Unix()})
	unsigned, err := noneToken.SignedString(jwt.UnsafeAllowNoneSignatureType)
	if err != nil {
		t.Fatalf("sign none: %v", err)
	}

	tests := []struct {
		name  string
		token func() string
	}{
		{"WrongSecret", func() string { s, _ := other.Issue("u", ""); return s }},
		{"WrongIssuer", func() string { s, _ := wrongIssuer.Issue("u", ""); return s }},
		{"Expired", func() string { s, _ := expired.Issue("u", ""); return s }},
		{"Garbage", func() string { return "not.a.token" }},
		{"AlgNone", func() string { return unsigned }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := v.Verify(tt.token()); !errors.Is(err, ErrInvalidToken) {
				t.Fatalf("error = %v, want ErrInvalidToken", err)
			}
		})
	}
}

func TestNewVerifierRequiresSecret(t *testing.T) {
	if _, err := NewVerifier("", "", "", 0); !errors.Is(err, ErrMissingSecret) {
		t.Fatalf("error = %v, want ErrMissingSecret", err)
	}
}
