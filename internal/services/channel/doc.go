// Package channel produces and consumes signed, encrypted envelopes.
//
// High-level flow:
//   - Send: validate names and content, resolve the sender's private key
//     and the recipient's public key, sign "sender:recipient:plaintext:ts",
//     encrypt the plaintext to the recipient and return a SecureEnvelope.
//   - Receive: validate the envelope, resolve keys, decrypt, recompute the
//     signed payload from the decrypted text and the envelope metadata, and
//     verify it. Messages older than the staleness window are accepted but
//     reported as EXPIRED_MESSAGE.
//   - Key exchange: a sender packages its public key with a signature over
//     "sender:recipient:ts". The receiver verifies that signature with the
//     enclosed key, refuses stale handshakes and imports the key.
//
// The key exchange proves possession of the private key, not identity: it
// is trust on first use, and a later exchange for the same peer replaces
// the earlier key.
//
// Public keys are resolved from the local identity slot first, then from
// the keys the acting identity has imported. Each call is independent; the
// Service holds no per-conversation state.
package channel
