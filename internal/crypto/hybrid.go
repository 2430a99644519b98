package crypto

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rsa"
	"crypto/sha256"
	"errors"
	"fmt"
	"io"

	"cipherchat/internal/crypto/pemkey"
	"cipherchat/internal/domain"
	"cipherchat/internal/util/memzero"
)

// Encrypt seals plaintext to the holder of recipientPublicPEM. A fresh AES
// key and IV are drawn for every call.
func (e *Engine) Encrypt(plaintext []byte, recipientPublicPEM []byte) (domain.EncryptedData, error) {
	if len(plaintext) == 0 {
		return domain.EncryptedData{}, &domain.ValidationError{Field: "message", Reason: "must not be empty"}
	}
	if len(plaintext) > e.cfg.MaxMessageBytes {
		return domain.EncryptedData{}, &domain.ValidationError{
			Field:  "message",
			Reason: fmt.Sprintf("exceeds %d bytes", e.cfg.MaxMessageBytes),
		}
	}
	out, err := e.encrypt(plaintext, recipientPublicPEM)
	e.trace(domain.OpEncryption, err)
	if err != nil {
		return domain.EncryptedData{}, &domain.CryptoError{Op: domain.OpEncryption, Err: err}
	}
	return out, nil
}

func (e *Engine) encrypt(plaintext, recipientPublicPEM []byte) (domain.EncryptedData, error) {
	pub, err := pemkey.DecodePublic(recipientPublicPEM)
	if err != nil {
		return domain.EncryptedData{}, err
	}

	key := make([]byte, e.cfg.AESKeyBytes)
	defer memzero.Zero(key)
	if _, err := io.ReadFull(e.rand, key); err != nil {
		return domain.EncryptedData{}, err
	}
	iv := make([]byte, blockSize)
	if _, err := io.ReadFull(e.rand, iv); err != nil {
		return domain.EncryptedData{}, err
	}

	block, err := aes.NewCipher(key)
	if err != nil {
		return domain.EncryptedData{}, err
	}
	padded := Pad(plaintext, blockSize)
	defer memzero.Zero(padded)
	ct := make([]byte, len(padded))
	cipher.NewCBCEncrypter(block, iv).CryptBlocks(ct, padded)

	wrapped, err := rsa.EncryptOAEP(sha256.New(), e.rand, pub, key, nil)
	if err != nil {
		return domain.EncryptedData{}, err
	}
	return domain.EncryptedData{
		EncryptedMessage: B64(ct),
		EncryptedKey:     B64(wrapped),
		IV:               B64(iv),
	}, nil
}

// Decrypt reverses Encrypt with the recipient's private key.
func (e *Engine) Decrypt(data domain.EncryptedData, privatePEM []byte) ([]byte, error) {
	pt, reason, err := e.decrypt(data, privatePEM)
	e.trace(domain.OpDecryption, err)
	if err != nil {
		return nil, &domain.CryptoError{Op: domain.OpDecryption, Reason: reason, Err: err}
	}
	return pt, nil
}

func (e *Engine) decrypt(data domain.EncryptedData, privatePEM []byte) ([]byte, string, error) {
	priv, err := pemkey.DecodePrivate(privatePEM)
	if err != nil {
		return nil, "invalid private key", err
	}
	ct, err := FromB64(data.EncryptedMessage)
	if err != nil {
		return nil, "malformed encrypted_message", err
	}
	wrapped, err := FromB64(data.EncryptedKey)
	if err != nil {
		return nil, "malformed encrypted_key", err
	}
	iv, err := FromB64(data.IV)
	if err != nil {
		return nil, "malformed iv", err
	}
	if len(iv) != blockSize {
		return nil, "malformed iv", fmt.Errorf("iv is %d bytes, want %d", len(iv), blockSize)
	}
	if len(ct) == 0 || len(ct)%blockSize != 0 {
		return nil, "malformed encrypted_message", fmt.Errorf("ciphertext length %d", len(ct))
	}

	key, err := rsa.DecryptOAEP(sha256.New(), nil, priv, wrapped, nil)
	if err != nil {
		return nil, "key unwrap failed", err
	}
	defer memzero.Zero(key)

	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, "key unwrap failed", err
	}
	padded := make([]byte, len(ct))
	cipher.NewCBCDecrypter(block, iv).CryptBlocks(padded, ct)
	pt, err := Unpad(padded, blockSize)
	if err != nil {
		memzero.Zero(padded)
		if errors.Is(err, domain.ErrInvalidPadding) {
			return nil, "invalid padding", err
		}
		return nil, "", err
	}
	out := make([]byte, len(pt))
	copy(out, pt)
	memzero.Zero(padded)
	return out, "", nil
}
