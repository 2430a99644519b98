// Package identity manages the lifecycle of local identities.
//
// It validates identity names, generates RSA key pairs through the crypto
// engine, persists them via the domain.KeyStore, and handles export, import,
// listing, fingerprints and deletion. Every state change is reported to the
// security-event sink.
package identity
