// ABOUTME: Tests for credential verification
// ABOUTME: Covers match, mismatch, and malformed-hash fail-closed behavior

package auth

import (
	"testing"

	"golang.org/x/crypto/bcrypt"
)

// testPrincipal returns a principal with a freshly generated hash for "qwe123".
func testPrincipal(t *testing.T) Principal {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte("qwe123"), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("generating test hash: %v", err)
	}
	return Principal{Username: "admin", PasswordHash: string(hash)}
}

func TestVerify_Success(t *testing.T) {
	p := testPrincipal(t)
	if !Verify("admin", "qwe123", p) {
		t.Error("Verify() = false for correct credentials, want true")
	}
}

func TestVerify_WrongPassword(t *testing.T) {
	p := testPrincipal(t)
	if Verify("admin", "wrongpass", p) {
		t.Error("Verify() = true for wrong password, want false")
	}
}

func TestVerify_WrongUsername(t *testing.T) {
	p := testPrincipal(t)
	// Correct password, wrong username: must still fail.
	if Verify("root", "qwe123", p) {
		t.Error("Verify() = true for wrong username, want false")
	}
}

func TestVerify_EmptyCredentials(t *testing.T) {
	p := testPrincipal(t)
	if Verify("", "", p) {
		t.Error("Verify() = true for empty credentials, want false")
	}
}

func TestVerify_MalformedHashFailsClosed(t *testing.T) {
	malformed := []string{
		"",
		"not-a-bcrypt-hash",
		"$2a$99$tooexpensive",
		"plaintextpassword",
	}
	for _, hash := range malformed {
		p := Principal{Username: "admin", PasswordHash: hash}
		// Must return false, never panic.
		if Verify("admin", "qwe123", p) {
			t.Errorf("Verify() = true with malformed hash %q, want false", hash)
		}
	}
}

func TestVerify_CaseSensitiveUsername(t *testing.T) {
	p := testPrincipal(t)
	if Verify("Admin", "qwe123", p) {
		t.Error("Verify() = true for case-differing username, want false")
	}
}

func TestHashPassword_RoundTrip(t *testing.T) {
	hash, err := HashPassword("s3cret")
	if err != nil {
		t.Fatalf("HashPassword() error = %v", err)
	}
	p := Principal{Username: "admin", PasswordHash: hash}
	if !Verify("admin", "s3cret", p) {
		t.Error("Verify() = false against HashPassword output, want true")
	}
	if Verify("admin", "other", p) {
		t.Error("Verify() = true for wrong password against HashPassword output")
	}
}
