package types

// Username names a local or remote identity. Keys are stored under it.
type Username string

// String returns the string form of the username.
func (u Username) String() string { return string(u) }

// Fingerprint is a short identifier for public keys presented to users.
type Fingerprint string

// String returns the string form of the fingerprint.
func (f Fingerprint) String() string { return string(f) }

// MessageType discriminates the two envelope kinds on the wire.
type MessageType string

const (
	MessageTypeSecure      MessageType = "secure_message"
	MessageTypeKeyExchange MessageType = "key_exchange"
)
