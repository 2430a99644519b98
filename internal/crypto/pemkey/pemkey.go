// Package pemkey converts RSA keys to and from their PEM text forms:
// PKCS#8 "PRIVATE KEY", passphrase-protected "ENCRYPTED PRIVATE KEY" and
// SubjectPublicKeyInfo "PUBLIC KEY".
package pemkey

import (
	"crypto/rsa"
	"crypto/x509"
	"encoding/pem"
	"errors"
	"fmt"

	"github.com/youmark/pkcs8"

	"cipherchat/internal/util/memzero"
)

// MinRSABits is the smallest modulus accepted for stored or imported keys.
const MinRSABits = 2048

const (
	BlockPrivate          = "PRIVATE KEY"
	BlockEncryptedPrivate = "ENCRYPTED PRIVATE KEY"
	BlockPublic           = "PUBLIC KEY"
)

var (
	ErrNoPEM        = errors.New("no PEM block found")
	ErrNotRSA       = errors.New("key is not RSA")
	ErrBlockType    = errors.New("unexpected PEM block type")
	ErrNeedPassword = errors.New("private key is encrypted and no passphrase was supplied")
	ErrKeyTooSmall  = errors.New("rsa key too small")
)

// scrypt parameters for encrypted private keys at rest.
var encryptOpts = &pkcs8.Opts{
	Cipher: pkcs8.AES256CBC,
	KDFOpts: pkcs8.ScryptOpts{
		CostParameter:            1 << 15,
		BlockSize:                8,
		ParallelizationParameter: 1,
		SaltSize:                 16,
	},
}

// EncodePrivate renders priv as an unencrypted PKCS#8 PEM block.
func EncodePrivate(priv *rsa.PrivateKey) ([]byte, error) {
	der, err := x509.MarshalPKCS8PrivateKey(priv)
	if err != nil {
		return nil, fmt.Errorf("marshal pkcs8: %w", err)
	}
	defer memzero.Zero(der)
	return pem.EncodeToMemory(&pem.Block{Type: BlockPrivate, Bytes: der}), nil
}

// EncodePublic renders pub as a SubjectPublicKeyInfo PEM block.
func EncodePublic(pub *rsa.PublicKey) ([]byte, error) {
	der, err := x509.MarshalPKIXPublicKey(pub)
	if err != nil {
		return nil, fmt.Errorf("marshal spki: %w", err)
	}
	return pem.EncodeToMemory(&pem.Block{Type: BlockPublic, Bytes: der}), nil
}

// DecodePrivate parses an unencrypted PKCS#8 PEM private key.
func DecodePrivate(data []byte) (*rsa.PrivateKey, error) {
	block, _ := pem.Decode(data)
	if block == nil {
		return nil, ErrNoPEM
	}
	switch block.Type {
	case BlockPrivate:
	case BlockEncryptedPrivate:
		return nil, ErrNeedPassword
	default:
		return nil, fmt.Errorf("%w: %q", ErrBlockType, block.Type)
	}
	key, err := x509.ParsePKCS8PrivateKey(block.Bytes)
	if err != nil {
		return nil, fmt.Errorf("parse pkcs8: %w", err)
	}
	rk, ok := key.(*rsa.PrivateKey)
	if !ok {
		return nil, ErrNotRSA
	}
	return rk, nil
}

// DecodePublic parses a SubjectPublicKeyInfo PEM public key.
func DecodePublic(data []byte) (*rsa.PublicKey, error) {
	block, _ := pem.Decode(data)
	if block == nil {
		return nil, ErrNoPEM
	}
	if block.Type != BlockPublic {
		return nil, fmt.Errorf("%w: %q", ErrBlockType, block.Type)
	}
	return ParsePublicDER(block.Bytes)
}

// ParsePublicDER parses SubjectPublicKeyInfo DER bytes.
func ParsePublicDER(der []byte) (*rsa.PublicKey, error) {
	key, err := x509.ParsePKIXPublicKey(der)
	if err != nil {
		return nil, fmt.Errorf("parse spki: %w", err)
	}
	rk, ok := key.(*rsa.PublicKey)
	if !ok {
		return nil, ErrNotRSA
	}
	return rk, nil
}

// CheckPublic parses a public PEM and enforces MinRSABits.
func CheckPublic(data []byte) (*rsa.PublicKey, error) {
	pub, err := DecodePublic(data)
	if err != nil {
		return nil, err
	}
	if pub.N.BitLen() < MinRSABits {
		return nil, fmt.Errorf("%w: %d bits", ErrKeyTooSmall, pub.N.BitLen())
	}
	return pub, nil
}

// PublicDER returns the SubjectPublicKeyInfo DER bytes inside a public PEM.
func PublicDER(data []byte) ([]byte, error) {
	pub, err := DecodePublic(data)
	if err != nil {
		return nil, err
	}
	return x509.MarshalPKIXPublicKey(pub)
}

// Seal re-encodes an unencrypted private PEM under passphrase. An empty
// passphrase returns the input unchanged.
func Seal(privatePEM []byte, passphrase string) ([]byte, error) {
	if passphrase == "" {
		return privatePEM, nil
	}
	priv, err := DecodePrivate(privatePEM)
	if err != nil {
		return nil, err
	}
	der, err := pkcs8.MarshalPrivateKey(priv, []byte(passphrase), encryptOpts)
	if err != nil {
		return nil, fmt.Errorf("encrypt pkcs8: %w", err)
	}
	defer memzero.Zero(der)
	return pem.EncodeToMemory(&pem.Block{Type: BlockEncryptedPrivate, Bytes: der}), nil
}

// Open returns an unencrypted private PEM. Plain PKCS#8 input is returned
// as is; encrypted input requires passphrase.
func Open(data []byte, passphrase string) ([]byte, error) {
	block, _ := pem.Decode(data)
	if block == nil {
		return nil, ErrNoPEM
	}
	switch block.Type {
	case BlockPrivate:
		return data, nil
	case BlockEncryptedPrivate:
	default:
		return nil, fmt.Errorf("%w: %q", ErrBlockType, block.Type)
	}
	if passphrase == "" {
		return nil, ErrNeedPassword
	}
	priv, err := pkcs8.ParsePKCS8PrivateKeyRSA(block.Bytes, []byte(passphrase))
	if err != nil {
		return nil, fmt.Errorf("decrypt pkcs8: %w", err)
	}
	return EncodePrivate(priv)
}

// IsEncrypted reports whether data holds an encrypted private key block.
func IsEncrypted(data []byte) bool {
	block, _ := pem.Decode(data)
	return block != nil && block.Type == BlockEncryptedPrivate
}
