package utils

import "testing"

func TestHashAndCheckPassword(t *testing.T) {
	hash, err := HashPassword("s3cret-pw")
	if err != nil {
		t.Fatalf("HashPassword error: %v", err)
	}
	if hash == "s3cret-pw" {
		t.Fatal("hash must not equal the plain password")
	}
	if !CheckPassword("s3cret-pw", hash) {
		t.Fatal("expected matching password to verify")
	}
	if CheckPassword("wrong-pw", hash) {
		t.Fatal("expected non-matching password to fail")
	}
}
