// Package crypto implements the hybrid RSA/AES message primitives used by
// CipherChat.
//
// Contents
//
//   - RSA key pair generation in PKCS#8 / SubjectPublicKeyInfo PEM form
//     (Engine.GenerateKeyPair)
//   - Hybrid encryption: AES-CBC with PKCS#7 padding under a fresh key and
//     IV per call, the AES key wrapped with RSA-OAEP(SHA-256)
//     (Engine.Encrypt, Engine.Decrypt)
//   - RSA-PSS(SHA-256) signatures over UTF-8 text (Engine.Sign,
//     Engine.Verify)
//   - Short public-key fingerprints for out-of-band comparison
//     (Fingerprint, SSHFingerprint)
//
// # Notes
//
// The Engine holds configuration only and is safe for concurrent use.
// Verify is a predicate: it never returns an error, so callers decide how a
// bad signature is reported. Every other failure is a *CryptoError naming
// the operation.
package crypto
