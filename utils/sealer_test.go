package utils

import (
	"errors"
	"testing"
)

func TestSealerRoundTrip(t *testing.T) {
	s, err := NewTokenSealer("sealing-secret")
	if err != nil {
		t.Fatal(err)
	}

	sealed, err := s.Seal("eyJhbGciOi.access.token")
	if err != nil {
		t.Fatal(err)
	}
	if sealed == "eyJhbGciOi.access.token" {
		t.Fatal("sealed value must not equal plaintext")
	}

	plain, err := s.Open(sealed)
	if err != nil {
		t.Fatal(err)
	}
	if plain != "eyJhbGciOi.access.token" {
		t.Errorf("expected original token back, got %q", plain)
	}
}

func TestSealerNonceVaries(t *testing.T) {
	s, _ := NewTokenSealer("sealing-secret")
	a, _ := s.Seal("same")
	b, _ := s.Seal("same")
	if a == b {
		t.Error("two seals of the same value should differ")
	}
}

func TestSealerEmpty(t *testing.T) {
	s, _ := NewTokenSealer("sealing-secret")
	sealed, err := s.Seal("")
	if err != nil || sealed != "" {
		t.Fatalf("expected empty seal, got %q, %v", sealed, err)
	}
	plain, err := s.Open("")
	if err != nil || plain != "" {
		t.Fatalf("expected empty open, got %q, %v", plain, err)
	}
}

func TestSealerWrongKey(t *testing.T) {
	a, _ := NewTokenSealer("key-a")
	b, _ := NewTokenSealer("key-b")

	sealed, _ := a.Seal("token")
	if _, err := b.Open(sealed); !errors.Is(err, ErrSealedCorrupt) {
		t.Fatalf("expected ErrSealedCorrupt, got %v", err)
	}
}

func TestSealerCorrupt(t *testing.T) {
	s, _ := NewTokenSealer("sealing-secret")
	for _, in := range []string{"!!!", "c2hvcnQ"} {
		if _, err := s.Open(in); !errors.Is(err, ErrSealedCorrupt) {
			t.Errorf("Open(%q): expected ErrSealedCorrupt, got %v", in, err)
		}
	}
}

func TestNewTokenSealerEmptySecret(t *testing.T) {
	if _, err := NewTokenSealer(""); err == nil {
		t.Fatal("expected error for empty secret")
	}
}
