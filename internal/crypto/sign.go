package crypto

import (
	"crypto"
	"crypto/rsa"
	"crypto/sha256"

	"cipherchat/internal/crypto/pemkey"
	"cipherchat/internal/domain"
)

// Sign returns a base64 RSA-PSS(SHA-256) signature over the UTF-8 bytes of
// message.
func (e *Engine) Sign(message string, privatePEM []byte) (string, error) {
	priv, err := pemkey.DecodePrivate(privatePEM)
	if err != nil {
		e.trace(domain.OpSigning, err)
		return "", &domain.CryptoError{Op: domain.OpSigning, Reason: "invalid private key", Err: err}
	}
	digest := sha256.Sum256([]byte(message))
	opts := &rsa.PSSOptions{SaltLength: e.saltLength(), Hash: crypto.SHA256}
	sig, err := rsa.SignPSS(e.rand, priv, crypto.SHA256, digest[:], opts)
	e.trace(domain.OpSigning, err)
	if err != nil {
		return "", &domain.CryptoError{Op: domain.OpSigning, Err: err}
	}
	return B64(sig), nil
}

// Verify reports whether signature is a valid signature over message by the
// holder of publicPEM. Malformed input yields false.
func (e *Engine) Verify(message, signature string, publicPEM []byte) bool {
	pub, err := pemkey.DecodePublic(publicPEM)
	if err != nil {
		return false
	}
	sig, err := FromB64(signature)
	if err != nil {
		return false
	}
	digest := sha256.Sum256([]byte(message))
	opts := &rsa.PSSOptions{SaltLength: rsa.PSSSaltLengthAuto, Hash: crypto.SHA256}
	return rsa.VerifyPSS(pub, crypto.SHA256, digest[:], sig, opts) == nil
}

func (e *Engine) saltLength() int {
	if e.cfg.SignatureSaltLength == 0 {
		return rsa.PSSSaltLengthAuto
	}
	return e.cfg.SignatureSaltLength
}
