// Package store provides persistence for CipherChat identity keys.
//
// It contains concrete implementations of domain.KeyStore:
//   - FileKeyStore keeps PEM files under a keys directory, one
//     subdirectory per identity plus ".imported/<owner>" for peer keys.
//   - MongoKeyStore keeps the same records in two MongoDB collections.
//
// Private keys are written owner-only (0600) and public keys
// world-readable (0644). When a passphrase is configured private keys are
// stored as encrypted PKCS#8 and decrypted on load.
//
// All methods are safe for concurrent use. Creation and deletion of one
// identity are serialised; reads only take a shared lock.
package store
