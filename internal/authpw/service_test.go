package authpw

import (
	"errors"
	"testing"
)

func TestVerify(t *testing.T) {
	hash, err := HashPassword("crew-password")
	if err != nil {
		t.Fatalf("HashPassword() error = %v", err)
	}
	svc := NewService(hash)

	if !svc.Configured() {
		t.Fatal("Configured() = false with a hash set")
	}
	if err := svc.Verify("crew-password"); err != nil {
		t.Fatalf("Verify() error = %v", err)
	}
	if err := svc.Verify("not-the-password"); !errors.Is(err, ErrWrongPassword) {
		t.Fatalf("Verify() error = %v, want ErrWrongPassword", err)
	}
}

func TestVerifyNotConfigured(t *testing.T) {
	svc := NewService("")

	if svc.Configured() {
		t.Fatal("Configured() = true with no hash")
	}
	if err := svc.Verify("anything"); !errors.Is(err, ErrNotConfigured) {
		t.Fatalf("Verify() error = %v, want ErrNotConfigured", err)
	}
}
