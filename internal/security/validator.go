package security

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"time"
	"unicode/utf8"

	"go.uber.org/zap"

	"cipherchat/internal/domain"
)

const (
	MinNameLength = 3
	MaxNameLength = 32
)

var (
	namePattern = regexp.MustCompile(`^[A-Za-z0-9_-]+$`)

	reservedNames = map[string]struct{}{
		"admin": {}, "root": {}, "system": {}, "config": {},
		"test": {}, "null": {}, "undefined": {},
	}

	suspiciousPatterns = []*regexp.Regexp{
		regexp.MustCompile(`(?is)<script\b.*?</script>`),
		regexp.MustCompile(`(?i)javascript:`),
		regexp.MustCompile(`(?i)data:text/html`),
		regexp.MustCompile(`(?i)vbscript:`),
	}
)

// Validator checks identity names and message content.
type Validator struct {
	maxMessageBytes int
	sink            domain.EventSink
	log             *zap.Logger
}

// NewValidator returns a Validator. sink receives SUSPICIOUS_MESSAGE_CONTENT
// events and may be nil.
func NewValidator(maxMessageBytes int, sink domain.EventSink, logger *zap.Logger) *Validator {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Validator{maxMessageBytes: maxMessageBytes, sink: sink, log: logger.Named("validator")}
}

// MaxMessageBytes returns the configured message size limit.
func (v *Validator) MaxMessageBytes() int { return v.maxMessageBytes }

// ValidateIdentityName enforces length, charset and reserved-name rules.
func (v *Validator) ValidateIdentityName(name domain.Username) error {
	return ValidateIdentityName(name)
}

// ValidateIdentityName enforces length, charset and reserved-name rules.
func ValidateIdentityName(name domain.Username) error {
	n := string(name)
	switch {
	case n == "":
		return &domain.ValidationError{Field: "identity", Reason: "must not be empty"}
	case len(n) < MinNameLength:
		return &domain.ValidationError{Field: "identity", Reason: fmt.Sprintf("must be at least %d characters", MinNameLength)}
	case len(n) > MaxNameLength:
		return &domain.ValidationError{Field: "identity", Reason: fmt.Sprintf("must be at most %d characters", MaxNameLength)}
	case !namePattern.MatchString(n):
		return &domain.ValidationError{Field: "identity", Reason: "may only contain letters, digits, hyphens and underscores"}
	}
	if _, ok := reservedNames[strings.ToLower(n)]; ok {
		return &domain.ValidationError{Field: "identity", Reason: fmt.Sprintf("%q is reserved", n)}
	}
	return nil
}

// ValidateMessage rejects empty, oversized or non-UTF-8 content. Content
// matching a script-injection signature is reported to the event sink but
// still accepted. sender attributes the event and may be empty.
func (v *Validator) ValidateMessage(ctx context.Context, sender domain.Username, content []byte) error {
	if len(content) == 0 {
		return &domain.ValidationError{Field: "message", Reason: "must not be empty"}
	}
	if len(content) > v.maxMessageBytes {
		return &domain.ValidationError{Field: "message", Reason: fmt.Sprintf("exceeds %d bytes", v.maxMessageBytes)}
	}
	if !utf8.Valid(content) {
		return &domain.ValidationError{Field: "message", Reason: "must be valid UTF-8"}
	}
	if HasSuspiciousContent(content) {
		v.log.Warn("suspicious pattern in message", zap.String("sender", string(sender)))
		if v.sink != nil {
			ev := domain.SecurityEvent{
				Timestamp: domain.TimestampFromTime(time.Now()),
				EventType: domain.EventSuspiciousMessageContent,
				Details:   "Suspicious pattern detected in message",
				Identity:  sender,
			}
			if err := v.sink.Emit(ctx, ev); err != nil {
				v.log.Warn("emit security event", zap.Error(err))
			}
		}
	}
	return nil
}

// HasSuspiciousContent reports whether content matches any known
// script-injection signature.
func HasSuspiciousContent(content []byte) bool {
	for _, re := range suspiciousPatterns {
		if re.Match(content) {
			return true
		}
	}
	return false
}
