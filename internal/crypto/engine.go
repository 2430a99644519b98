package crypto

import (
	"crypto/rand"
	"crypto/rsa"
	"fmt"
	"io"

	"go.uber.org/zap"

	"cipherchat/internal/crypto/pemkey"
	"cipherchat/internal/domain"
)

const (
	// MinRSAKeyBits is the smallest modulus accepted for generation.
	MinRSAKeyBits = pemkey.MinRSABits

	// DefaultMaxMessageBytes bounds plaintext size when no limit is configured.
	DefaultMaxMessageBytes = 1 << 20
)

// Config holds the algorithm parameters of an Engine.
type Config struct {
	RSAKeyBits  int
	AESKeyBytes int
	// SignatureSaltLength is the PSS salt length in bytes; 0 selects the
	// maximum the key allows.
	SignatureSaltLength int
	MaxMessageBytes     int
}

// DefaultConfig returns RSA-2048, AES-256 and maximum-length PSS salts.
func DefaultConfig() Config {
	return Config{
		RSAKeyBits:      2048,
		AESKeyBytes:     32,
		MaxMessageBytes: DefaultMaxMessageBytes,
	}
}

// Validate checks the parameters against the supported ranges.
func (c Config) Validate() error {
	if c.RSAKeyBits < MinRSAKeyBits {
		return &domain.ConfigError{Setting: "rsa_key_bits", Reason: fmt.Sprintf("must be at least %d", MinRSAKeyBits)}
	}
	switch c.AESKeyBytes {
	case 16, 24, 32:
	default:
		return &domain.ConfigError{Setting: "aes_key_bytes", Reason: "must be 16, 24 or 32"}
	}
	if c.SignatureSaltLength < 0 {
		return &domain.ConfigError{Setting: "signature_salt_length", Reason: "must not be negative"}
	}
	if c.MaxMessageBytes <= 0 {
		return &domain.ConfigError{Setting: "max_message_bytes", Reason: "must be positive"}
	}
	return nil
}

// Engine performs the cryptographic transformations. It has no state beyond
// its configuration.
type Engine struct {
	cfg  Config
	log  *zap.Logger
	rand io.Reader
}

// New validates cfg and returns an Engine. A nil logger disables logging.
func New(cfg Config, logger *zap.Logger) (*Engine, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Engine{cfg: cfg, log: logger.Named("crypto"), rand: rand.Reader}, nil
}

// Config returns the engine parameters.
func (e *Engine) Config() Config { return e.cfg }

// GenerateKeyPair returns a fresh RSA key pair as PKCS#8 private PEM and
// SubjectPublicKeyInfo public PEM.
func (e *Engine) GenerateKeyPair() (privatePEM, publicPEM []byte, err error) {
	priv, err := rsa.GenerateKey(e.rand, e.cfg.RSAKeyBits)
	if err != nil {
		e.trace(domain.OpKeyGeneration, err)
		return nil, nil, &domain.CryptoError{Op: domain.OpKeyGeneration, Err: err}
	}
	privatePEM, err = pemkey.EncodePrivate(priv)
	if err != nil {
		e.trace(domain.OpKeyGeneration, err)
		return nil, nil, &domain.CryptoError{Op: domain.OpKeyGeneration, Err: err}
	}
	publicPEM, err = pemkey.EncodePublic(&priv.PublicKey)
	if err != nil {
		e.trace(domain.OpKeyGeneration, err)
		return nil, nil, &domain.CryptoError{Op: domain.OpKeyGeneration, Err: err}
	}
	e.trace(domain.OpKeyGeneration, nil)
	return privatePEM, publicPEM, nil
}

func (e *Engine) trace(op domain.CryptoOp, err error) {
	if err != nil {
		e.log.Debug("crypto operation", zap.String("op", string(op)), zap.Bool("ok", false), zap.Error(err))
		return
	}
	e.log.Debug("crypto operation", zap.String("op", string(op)), zap.Bool("ok", true))
}
