// Package commands defines the cipherchat CLI.
//
// Commands
//
//   - keygen        Generate and store an identity key pair
//   - list          List local identities
//   - delete        Delete an identity's keys
//   - fingerprint   Print an identity's public key fingerprints
//   - export        Write an identity's public key
//   - import        Import a peer's public key from a file
//   - send          Produce a secure message envelope
//   - recv          Decrypt and verify a secure message envelope
//   - kx create     Produce a signed key exchange
//   - kx process    Verify a key exchange and import the sender's key
//
// # Implementation
//
// The root command loads configuration and builds an app.Wire before any
// subcommand runs and closes it afterwards, which flushes the metrics
// textfile and event sinks. Envelopes are read from files or stdin and
// written to files or stdout as JSON, so any transport can carry them.
package commands
