package password

import (
	"strings"
	"testing"

	"golang.org/x/crypto/bcrypt"
)

func TestHashAndVerify(t *testing.T) {
	encoded, err := Hash("s3cret-passphrase")
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	if !strings.HasPrefix(encoded, "$argon2id$v=19$") {
		t.Fatalf("unexpected encoding %q", encoded)
	}
	if !Verify("s3cret-passphrase", encoded) {
		t.Fatalf("expected password to verify")
	}
	if Verify("wrong-passphrase", encoded) {
		t.Fatalf("expected wrong password to fail")
	}
	if NeedsRehash(encoded) {
		t.Fatalf("argon2id hash should not need rehash")
	}
}

func TestHashUsesRandomSalt(t *testing.T) {
	a, err := Hash("same-password")
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	b, err := Hash("same-password")
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	if a == b {
		t.Fatalf("expected different encodings for the same password")
	}
}

func TestVerifyBcrypt(t *testing.T) {
	raw, err := bcrypt.GenerateFromPassword([]byte("legacy-password"), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("bcrypt: %v", err)
	}
	encoded := string(raw)
	if !Verify("legacy-password", encoded) {
		t.Fatalf("expected bcrypt hash to verify")
	}
	if Verify("other", encoded) {
		t.Fatalf("expected bcrypt mismatch to fail")
	}
	if !NeedsRehash(encoded) {
		t.Fatalf("bcrypt hash should need rehash")
	}
}

func TestVerifyRejectsMalformed(t *testing.T) {
	for _, encoded := range []string{
		"",
		"plain",
		"$argon2id$v=18$m=65536,t=1,p=4$c2FsdA$aGFzaA",
		"$argon2id$v=19$m=x,t=1,p=4$c2FsdA$aGFzaA",
		"$argon2id$v=19$m=65536,t=1,p=4$!!!$aGFzaA",
	} {
		if Verify("anything", encoded) {
			t.Fatalf("expected %q to be rejected", encoded)
		}
	}
}

func TestNeedsRehashWeakArgonParams(t *testing.T) {
	weak := "$argon2id$v=19$m=4096,t=1,p=1$c2FsdHNhbHRzYWx0$aGFzaGhhc2hoYXNo"
	if !NeedsRehash(weak) {
		t.Fatalf("expected weaker argon2id parameters to need rehash")
	}
	if !NeedsRehash("garbage") {
		t.Fatalf("expected unparseable hash to need rehash")
	}
}
