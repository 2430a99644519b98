package security_test

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"cipherchat/internal/domain"
	"cipherchat/internal/security"
)

func TestValidateFilePath(t *testing.T) {
	for _, p := range []string{"", "../keys", "~/x", "$HOME/x", "a|b", "a;b", "a&b", "a`b`"} {
		if err := security.ValidateFilePath(p); !errors.Is(err, domain.ErrValidation) {
			t.Fatalf("%q: want ErrValidation, got %v", p, err)
		}
	}
	for _, p := range []string{"bob_public.pem", "/tmp/keys/bob.pem", "./out.json"} {
		if err := security.ValidateFilePath(p); err != nil {
			t.Fatalf("%q rejected: %v", p, err)
		}
	}
}

func TestReadFileLimit(t *testing.T) {
	dir := t.TempDir()
	small := filepath.Join(dir, "small.pem")
	big := filepath.Join(dir, "big.pem")
	if err := os.WriteFile(small, []byte("hello"), 0o600); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(big, bytes.Repeat([]byte{'x'}, security.MaxKeyFileBytes+1), 0o600); err != nil {
		t.Fatal(err)
	}
	b, err := security.ReadFile(small, security.MaxKeyFileBytes)
	if err != nil || string(b) != "hello" {
		t.Fatalf("small: %q %v", b, err)
	}
	if _, err := security.ReadFile(big, security.MaxKeyFileBytes); !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("big: want ErrValidation, got %v", err)
	}
	if _, err := security.ReadFile(filepath.Join(dir, "missing"), 10); !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("missing: %v", err)
	}
}

func TestWriteFileMode(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out", "bob_public.pem")
	if err := security.WriteFile(path, []byte("pem"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	fi, err := os.Stat(path)
	if err != nil {
		t.Fatalf("stat: %v", err)
	}
	if fi.Mode().Perm() != 0o644 {
		t.Fatalf("mode = %o", fi.Mode().Perm())
	}
}

func TestReadLimited(t *testing.T) {
	b, err := security.ReadLimited(strings.NewReader("12345"), 5, "stdin")
	if err != nil || string(b) != "12345" {
		t.Fatalf("at limit: %q, %v", b, err)
	}
	_, err = security.ReadLimited(strings.NewReader("123456"), 5, "stdin")
	var ve *domain.ValidationError
	if !errors.As(err, &ve) || ve.Field != "stdin" {
		t.Fatalf("over limit: want ValidationError on stdin, got %v", err)
	}
}
