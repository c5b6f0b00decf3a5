package token

import (
	"crypto/rand"
	"crypto/rsa"
	"testing"
	"time"
)

func newTestKeys(t *testing.T) *KeyStore {
	t.Helper()
	accessKey, err := rsa.GenerateKey(rand.Reader, 2048)
	if err != nil {
		t.Fatalf("generate access key: %v", err)
	}
	refreshKey, err := rsa.GenerateKey(rand.Reader, 2048)
	if err != nil {
		t.Fatalf("generate refresh key: %v", err)
	}
	return NewKeyStore(accessKey, refreshKey)
}

func TestIssueVerifyRoundTrip(t *testing.T) {
	codec := NewCodec(newTestKeys(t))

	for _, kind := range []Kind{KindAccess, KindRefresh} {
		signed, issued, err := codec.Issue("42", kind, time.Minute)
		if err != nil {
			t.Fatalf("issue %s: %v", kind, err)
		}

		claims, err := codec.Verify(signed, kind)
		if err != nil {
			t.Fatalf("verify %s: %v", kind, err)
		}
		if claims.Subject != "42" {
			t.Errorf("subject = %q, want 42", claims.Subject)
		}
		if claims.TokenID != issued.TokenID {
			t.Errorf("token id = %q, want %q", claims.TokenID, issued.TokenID)
		}
	}
}

func TestVerifyRejectsWrongKind(t *testing.T) {
	codec := NewCodec(newTestKeys(t))

	signed, _, err := codec.Issue("42", KindRefresh, time.Minute)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	if _, err := codec.Verify(signed, KindAccess); err != ErrInvalidToken {
		t.Fatalf("verify with access key = %v, want ErrInvalidToken", err)
	}
}

func TestVerifyRejectsExpired(t *testing.T) {
	codec := NewCodec(newTestKeys(t))

	signed, _, err := codec.Issue("42", KindAccess, -time.Second)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	if _, err := codec.Verify(signed, KindAccess); err != ErrInvalidToken {
		t.Fatalf("verify expired = %v, want ErrInvalidToken", err)
	}
}

func TestVerifyRejectsGarbage(t *testing.T) {
	codec := NewCodec(newTestKeys(t))

	if _, err := codec.Verify("not-a-token", KindAccess); err != ErrInvalidToken {
		t.Fatalf("verify garbage = %v, want ErrInvalidToken", err)
	}
}

func TestTokenIDsAreUnique(t *testing.T) {
	codec := NewCodec(newTestKeys(t))

	seen := make(map[string]bool)
	for i := 0; i < 50; i++ {
		_, claims, err := codec.Issue("42", KindAccess, time.Minute)
		if err != nil {
			t.Fatalf("issue: %v", err)
		}
		if seen[claims.TokenID] {
			t.Fatalf("duplicate token id %q", claims.TokenID)
		}
		seen[claims.TokenID] = true
	}
}
