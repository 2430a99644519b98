package security_test

import (
	"errors"
	"testing"

	"cipherchat/internal/security"
)

func TestValidatePassphrase(t *testing.T) {
	for _, p := range []string{"Correct-Horse-9", "Zürich#Winter2024"} {
		if err := security.ValidatePassphrase(p); err != nil {
			t.Fatalf("%q rejected: %v", p, err)
		}
	}
	for _, p := range []string{
		"",
		"x",
		"Sh0rt!",
		"alllowercase-123",
		"ALLUPPERCASE-123",
		"NoDigitsHere-!",
		"NoSymbols12345",
	} {
		if err := security.ValidatePassphrase(p); !errors.Is(err, security.ErrWeakPassphrase) {
			t.Fatalf("%q: want ErrWeakPassphrase, got %v", p, err)
		}
	}
}
