package security

import (
	"testing"
	"time"
)

func TestGenerateVerifyRoundTrip(t *testing.T) {
	opts := DefaultOptions([]byte("test-secret"))
	token, exp, err := Generate(opts, "user-123")
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if !exp.After(time.Now()) {
		t.Fatal("expiry not in the future")
	}

	uid, err := Verify(opts, token)
	if err != nil {
		t.Fatalf("verify: %v", err)
	}
	if uid != "user-123" {
		t.Fatalf("subject = %q", uid)
	}
}

func TestVerifyRejectsWrongSecret(t *testing.T) {
	token, _, err := Generate(DefaultOptions([]byte("secret-a")), "user-123")
	if err != nil {
		t.Fatal(err)
	}
	if _, err := Verify(DefaultOptions([]byte("secret-b")), token); err == nil {
		t.Fatal("token signed with another secret verified")
	}
}

func TestVerifyRejectsExpired(t *testing.T) {
	opts := DefaultOptions([]byte("test-secret"))
	opts.TTL = -time.Hour
	token, _, err := Generate(opts, "user-123")
	if err != nil {
		t.Fatal(err)
	}
	if _, err := Verify(opts, token); err == nil {
		t.Fatal("expired token verified")
	}
}

func TestVerifyRejectsGarbage(t *testing.T) {
	if _, err := Verify(DefaultOptions([]byte("s")), "not.a.token"); err == nil {
		t.Fatal("garbage verified")
	}
}

func TestUnsupportedAlg(t *testing.T) {
	opts := Options{Secret: []byte("s"), Alg: "RS256"}
	if _, _, err := Generate(opts, "u"); err == nil {
		t.Fatal("RS256 accepted for an HMAC-only verifier")
	}
}
