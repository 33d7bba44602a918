package utils

import "testing"

func TestHashPassword(t *testing.T) {
	hash, err := HashPassword("secret123")
	if err != nil {
		t.Fatalf("HashPassword() error = %v", err)
	}
	if hash == "" {
		t.Error("HashPassword() returned empty hash")
	}
	if hash == "secret123" {
		t.Error("hash should not equal the plaintext")
	}
}

func TestCheckPassword(t *testing.T) {
	hash, _ := HashPassword("secret123")

	if !CheckPassword("secret123", hash) {
		t.Error("correct password should verify")
	}
	if CheckPassword("wrong", hash) {
		t.Error("wrong password should not verify")
	}
	if CheckPassword("secret123", "not-a-hash") {
		t.Error("malformed hash should not verify")
	}
}

func TestHashPassword_DifferentSalts(t *testing.T) {
	h1, _ := HashPassword("secret123")
	h2, _ := HashPassword("secret123")
	if h1 == h2 {
		t.Error("two hashes of the same password should differ (random salt)")
	}
}
