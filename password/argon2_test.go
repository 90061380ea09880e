package password

import (
	"errors"
	"strings"
	"testing"
)

func testHasher(t *testing.T) *Hasher {
	t.Helper()

	// Minimum cost keeps the suite fast; production uses DefaultParams.
	h, err := NewHasher(Params{
		MemoryKB:    8 * 1024,
		Time:        1,
		Parallelism: 1,
		SaltLength:  16,
		KeyLength:   16,
	})
	if err != nil {
		t.Fatalf("NewHasher: %v", err)
	}
	return h
}

func TestHashAndVerify(t *testing.T) {
	h := testHasher(t)

	encoded, err := h.Hash("correct horse battery staple")
	if err != nil {
		t.Fatalf("Hash: %v", err)
	}
	if !strings.HasPrefix(encoded, "$argon2id$") {
		t.Fatalf("unexpected hash format: %q", encoded)
	}

	ok, err := h.Verify("correct horse battery staple", encoded)
	if err != nil {
		t.Fatalf("Verify: %v", err)
	}
	if !ok {
		t.Fatal("correct password did not verify")
	}

	ok, err = h.Verify("wrong password", encoded)
	if err != nil {
		t.Fatalf("Verify: %v", err)
	}
	if ok {
		t.Fatal("wrong password verified")
	}
}

func TestHashSaltsAreUnique(t *testing.T) {
	h := testHasher(t)

	a, err := h.Hash("same input")
	if err != nil {
		t.Fatalf("Hash: %v", err)
	}
	b, err := h.Hash("same input")
	if err != nil {
		t.Fatalf("Hash: %v", err)
	}
	if a == b {
		t.Fatal("two hashes of the same password are identical")
	}
}

func TestVerifyMalformedHash(t *testing.T) {
	h := testHasher(t)

	for _, encoded := range []string{
		"",
		"not a hash",
		"$argon2i$v=19$m=8192,t=1,p=1$AAAAAAAAAAAAAAAAAAAAAA$AAAAAAAAAAAAAAAAAAAAAA",
		"$argon2id$v=18$m=8192,t=1,p=1$AAAAAAAAAAAAAAAAAAAAAA$AAAAAAAAAAAAAAAAAAAAAA",
		"$argon2id$v=19$m=8192,t=1$AAAAAAAAAAAAAAAAAAAAAA$AAAAAAAAAAAAAAAAAAAAAA",
		"$argon2id$v=19$m=8192,t=1,p=1$!!!$AAAAAAAAAAAAAAAAAAAAAA",
	} {
		if _, err := h.Verify("anything", encoded); !errors.Is(err, ErrMalformedHash) {
			t.Errorf("Verify(%q) err = %v, want ErrMalformedHash", encoded, err)
		}
	}
}

func TestNeedsRehash(t *testing.T) {
	weak := testHasher(t)

	encoded, err := weak.Hash("password-one")
	if err != nil {
		t.Fatalf("Hash: %v", err)
	}

	upgrade, err := weak.NeedsRehash(encoded)
	if err != nil {
		t.Fatalf("NeedsRehash: %v", err)
	}
	if upgrade {
		t.Fatal("hash at current params reported as needing rehash")
	}

	strong, err := NewHasher(DefaultParams())
	if err != nil {
		t.Fatalf("NewHasher: %v", err)
	}
	upgrade, err = strong.NeedsRehash(encoded)
	if err != nil {
		t.Fatalf("NeedsRehash: %v", err)
	}
	if !upgrade {
		t.Fatal("weak hash not reported as needing rehash")
	}
}

func TestNewHasherRejectsWeakParams(t *testing.T) {
	cases := []Params{
		{MemoryKB: 1024, Time: 1, Parallelism: 1, SaltLength: 16, KeyLength: 16},
		{MemoryKB: 8192, Time: 0, Parallelism: 1, SaltLength: 16, KeyLength: 16},
		{MemoryKB: 8192, Time: 1, Parallelism: 0, SaltLength: 16, KeyLength: 16},
		{MemoryKB: 8192, Time: 1, Parallelism: 1, SaltLength: 8, KeyLength: 16},
		{MemoryKB: 8192, Time: 1, Parallelism: 1, SaltLength: 16, KeyLength: 8},
	}
	for i, p := range cases {
		if _, err := NewHasher(p); err == nil {
			t.Errorf("case %d: weak params accepted", i)
		}
	}
}
