package httpapi

import (
	"errors"
	"strings"
	"testing"
)

// fastParams keeps hashing cheap in tests while exercising the same code
// path as the production parameters.
func fastParams() Argon2idParams {
	return Argon2idParams{
		Memory:      8 * 1024,
		Iterations:  1,
		Parallelism: 1,
		SaltLength:  8,
		KeyLength:   16,
	}
}

func TestTokenHashRoundTrip(t *testing.T) {
	t.Parallel()

	hash, err := CreateTokenHash("secreto-admin", fastParams())
	if err != nil {
		t.Fatalf("CreateTokenHash: %v", err)
	}
	if !strings.HasPrefix(hash, "$argon2id$v=") {
		t.Fatalf("unexpected hash format: %q", hash)
	}

	if err := VerifyToken(hash, "secreto-admin"); err != nil {
		t.Fatalf("VerifyToken with correct token: %v", err)
	}
	if err := VerifyToken(hash, "otro-token"); !errors.Is(err, ErrTokenMismatch) {
		t.Fatalf("VerifyToken with wrong token = %v, want ErrTokenMismatch", err)
	}
}

func TestTokenHashUniqueSalts(t *testing.T) {
	t.Parallel()

	first, err := CreateTokenHash("secreto", fastParams())
	if err != nil {
		t.Fatalf("CreateTokenHash: %v", err)
	}
	second, err := CreateTokenHash("secreto", fastParams())
	if err != nil {
		t.Fatalf("CreateTokenHash: %v", err)
	}
	if first == second {
		t.Fatal("two hashes of the same token should differ by salt")
	}
}

func TestVerifyTokenMalformedHash(t *testing.T) {
	t.Parallel()

	cases := map[string]string{
		"empty":         "",
		"not argon2id":  "$bcrypt$v=19$m=1,t=1,p=1$c2FsdA$aGFzaA",
		"missing parts": "$argon2id$v=19$m=1,t=1,p=1",
		"bad salt":      "$argon2id$v=19$m=8192,t=1,p=1$!!!$aGFzaA",
	}
	for name, hash := range cases {
		t.Run(name, func(t *testing.T) {
			t.Parallel()
			err := VerifyToken(hash, "cualquiera")
			if err == nil {
				t.Fatal("expected an error for malformed hash")
			}
			if errors.Is(err, ErrTokenMismatch) {
				t.Fatalf("malformed hash should not report a mismatch: %v", err)
			}
		})
	}
}
