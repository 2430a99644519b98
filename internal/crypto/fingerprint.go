package crypto

import (
	"crypto/sha256"
	"encoding/hex"

	"golang.org/x/crypto/ssh"

	"cipherchat/internal/crypto/pemkey"
	"cipherchat/internal/domain"
)

// Fingerprint returns a short hex fingerprint of a public key.
//
// It hashes the SubjectPublicKeyInfo DER with SHA-256 and truncates to
// 10 bytes (20 hex chars).
func Fingerprint(publicPEM []byte) (domain.Fingerprint, error) {
	der, err := pemkey.PublicDER(publicPEM)
	if err != nil {
		return "", err
	}
	sum := sha256.Sum256(der)
	return domain.Fingerprint(hex.EncodeToString(sum[:10])), nil
}

// SSHFingerprint returns the OpenSSH "SHA256:..." form of a public key.
func SSHFingerprint(publicPEM []byte) (string, error) {
	pub, err := pemkey.DecodePublic(publicPEM)
	if err != nil {
		return "", err
	}
	sk, err := ssh.NewPublicKey(pub)
	if err != nil {
		return "", err
	}
	return ssh.FingerprintSHA256(sk), nil
}
