package utils

import (
	"strings"
	"testing"
)

func TestHashPassword(t *testing.T) {
	t.Run("produces a bcrypt hash distinct from the input", func(t *testing.T) {
		hash, err := HashPassword("correct horse battery staple")
		if err != nil {
			t.Fatalf("expected hashing to succeed, got error: %v", err)
		}
		if hash == "correct horse battery staple" {
			t.Fatal("expected hash to differ from the plaintext")
		}
		if !strings.HasPrefix(hash, "$2") {
			t.Fatalf("expected a bcrypt hash, got %q", hash)
		}
	})

	t.Run("two hashes of the same password differ", func(t *testing.T) {
		first, err := HashPassword("same password")
		if err != nil {
			t.Fatalf("expected hashing to succeed, got error: %v", err)
		}
		second, err := HashPassword("same password")
		if err != nil {
			t.Fatalf("expected hashing to succeed, got error: %v", err)
		}
		if first == second {
			t.Fatal("expected salted hashes to differ")
		}
	})
}

func TestCheckPassword(t *testing.T) {
	hash, err := HashPassword("s3cret-value")
	if err != nil {
		t.Fatalf("expected hashing to succeed, got error: %v", err)
	}

	tests := []struct {
		name     string
		password string
		hash     string
		want     bool
	}{
		{
			name:     "matching password verifies",
			password: "s3cret-value",
			hash:     hash,
			want:     true,
		},
		{
			name:     "wrong password fails",
			password: "wrong-value",
			hash:     hash,
			want:     false,
		},
		{
			name:     "garbage hash fails",
			password: "s3cret-value",
			hash:     "not-a-hash",
			want:     false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := CheckPassword(tt.password, tt.hash); got != tt.want {
				t.Errorf("CheckPassword() = %v, want %v", got, tt.want)
			}
		})
	}
}
