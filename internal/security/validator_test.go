package security_test

import (
	"context"
	"errors"
	"strings"
	"testing"

	"cipherchat/internal/audit"
	"cipherchat/internal/domain"
	"cipherchat/internal/security"
)

func TestValidateIdentityName(t *testing.T) {
	good := []domain.Username{"bob", "alice_1", "Carol-X", domain.Username(strings.Repeat("a", 32))}
	for _, n := range good {
		if err := security.ValidateIdentityName(n); err != nil {
			t.Fatalf("%q rejected: %v", n, err)
		}
	}
	bad := []domain.Username{
		"", "ab", domain.Username(strings.Repeat("a", 33)),
		"bob smith", "bob/evil", "../x", ".hidden", "élan",
		"admin", "ROOT", "System", "null", "undefined", "test", "config",
	}
	for _, n := range bad {
		err := security.ValidateIdentityName(n)
		var ve *domain.ValidationError
		if !errors.As(err, &ve) {
			t.Fatalf("%q: want ValidationError, got %v", n, err)
		}
	}
}

func TestValidateMessage(t *testing.T) {
	ctx := context.Background()
	rec := audit.NewRecorder()
	v := security.NewValidator(16, rec, nil)

	if err := v.ValidateMessage(ctx, "alice", nil); !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("empty: %v", err)
	}
	if err := v.ValidateMessage(ctx, "alice", []byte(strings.Repeat("x", 17))); !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("oversize: %v", err)
	}
	if err := v.ValidateMessage(ctx, "alice", []byte{0xff, 0xfe}); !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("invalid utf-8: %v", err)
	}
	if err := v.ValidateMessage(ctx, "alice", []byte(strings.Repeat("x", 16))); err != nil {
		t.Fatalf("at limit: %v", err)
	}
	if n := rec.Count(domain.EventSuspiciousMessageContent); n != 0 {
		t.Fatalf("unexpected suspicious events: %d", n)
	}
}

func TestSuspiciousContentIsFlaggedNotRejected(t *testing.T) {
	ctx := context.Background()
	rec := audit.NewRecorder()
	v := security.NewValidator(1024, rec, nil)

	for _, msg := range []string{
		"<SCRIPT>alert(1)</script>",
		"<script type=x>\nmulti\nline</script>",
		"click JavaScript:void(0)",
		"data:text/html;base64,xx",
		"VBScript:msgbox",
	} {
		if err := v.ValidateMessage(ctx, "alice", []byte(msg)); err != nil {
			t.Fatalf("%q rejected: %v", msg, err)
		}
	}
	evs := rec.Events(domain.EventSuspiciousMessageContent, "alice")
	if len(evs) != 5 {
		t.Fatalf("flagged %d of 5", len(evs))
	}
	if security.HasSuspiciousContent([]byte("<script> never closed")) {
		t.Fatal("unterminated script tag should not match")
	}
}

func TestValidatorNilSink(t *testing.T) {
	v := security.NewValidator(64, nil, nil)
	if err := v.ValidateMessage(context.Background(), "", []byte("javascript:x")); err != nil {
		t.Fatalf("nil sink: %v", err)
	}
	if v.MaxMessageBytes() != 64 {
		t.Fatalf("MaxMessageBytes = %d", v.MaxMessageBytes())
	}
}
