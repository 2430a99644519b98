package types

import (
	"errors"
	"fmt"
)

// Sentinel errors for errors.Is checks. Every typed error below matches
// exactly one of the first six.
var (
	ErrValidation     = errors.New("validation failed")
	ErrAuthentication = errors.New("authentication failed")
	ErrCrypto         = errors.New("cryptographic operation failed")
	ErrMessage        = errors.New("message processing failed")
	ErrKey            = errors.New("key management failed")
	ErrConfig         = errors.New("invalid configuration")

	// ErrKeyExists is returned when keys already exist for an identity.
	ErrKeyExists = errors.New("keys already exist")

	// ErrKeyNotFound is returned by operations that require existing keys.
	ErrKeyNotFound = errors.New("keys not found")

	// ErrInvalidPadding is returned when a decrypted pad length is outside
	// [1, block size].
	ErrInvalidPadding = errors.New("invalid padding")
)

// CryptoOp names the primitive that failed.
type CryptoOp string

const (
	OpKeyGeneration CryptoOp = "key_generation"
	OpEncryption    CryptoOp = "encryption"
	OpDecryption    CryptoOp = "decryption"
	OpSigning       CryptoOp = "signing"
)

// ValidationError reports bad caller input. The caller must fix the input.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return "validation error: " + e.Reason
	}
	return fmt.Sprintf("validation error: %s: %s", e.Field, e.Reason)
}

// Is matches ErrValidation.
func (e *ValidationError) Is(target error) bool { return target == ErrValidation }

// AuthenticationError reports missing key material or a failed signature.
// Retrying with the same inputs never helps.
type AuthenticationError struct {
	Identity Username
	Reason   string
}

func (e *AuthenticationError) Error() string {
	if e.Identity == "" {
		return "authentication error: " + e.Reason
	}
	return fmt.Sprintf("authentication error: %s (identity %q)", e.Reason, e.Identity)
}

// Is matches ErrAuthentication.
func (e *AuthenticationError) Is(target error) bool { return target == ErrAuthentication }

// CryptoError reports a primitive-level failure.
type CryptoError struct {
	Op     CryptoOp
	Reason string
	Err    error
}

func (e *CryptoError) Error() string {
	switch {
	case e.Reason != "" && e.Err != nil:
		return fmt.Sprintf("crypto error during %s: %s: %v", e.Op, e.Reason, e.Err)
	case e.Reason != "":
		return fmt.Sprintf("crypto error during %s: %s", e.Op, e.Reason)
	case e.Err != nil:
		return fmt.Sprintf("crypto error during %s: %v", e.Op, e.Err)
	}
	return fmt.Sprintf("crypto error during %s", e.Op)
}

// Unwrap returns the underlying error.
func (e *CryptoError) Unwrap() error { return e.Err }

// Is matches ErrCrypto.
func (e *CryptoError) Is(target error) bool { return target == ErrCrypto }

// MessageError wraps any other failure while building or parsing envelopes.
type MessageError struct {
	Op  string
	Err error
}

func (e *MessageError) Error() string {
	if e.Err == nil {
		return "message error during " + e.Op
	}
	return fmt.Sprintf("message error during %s: %v", e.Op, e.Err)
}

// Unwrap returns the underlying error.
func (e *MessageError) Unwrap() error { return e.Err }

// Is matches ErrMessage.
func (e *MessageError) Is(target error) bool { return target == ErrMessage }

// KeyError reports a key store failure for one identity.
type KeyError struct {
	Identity Username
	Reason   string
	Err      error
}

func (e *KeyError) Error() string {
	msg := fmt.Sprintf("key error for %q: %s", e.Identity, e.Reason)
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

// Unwrap returns the underlying error.
func (e *KeyError) Unwrap() error { return e.Err }

// Is matches ErrKey.
func (e *KeyError) Is(target error) bool { return target == ErrKey }

// ConfigError reports an invalid configuration setting.
type ConfigError struct {
	Setting string
	Reason  string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("config error: %s: %s", e.Setting, e.Reason)
}

// Is matches ErrConfig.
func (e *ConfigError) Is(target error) bool { return target == ErrConfig }
