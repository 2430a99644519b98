package types

// EncryptedData is the hybrid-encryption output. All fields are standard
// base64 over raw bytes.
type EncryptedData struct {
	EncryptedMessage string `json:"encrypted_message"`
	EncryptedKey     string `json:"encrypted_key"`
	IV               string `json:"iv"`
}

// SecureEnvelope is the signed, encrypted message handed to the transport.
type SecureEnvelope struct {
	Sender        Username      `json:"sender"`
	Recipient     Username      `json:"recipient"`
	EncryptedData EncryptedData `json:"encrypted_data"`
	Signature     string        `json:"signature"`
	Timestamp     Timestamp     `json:"timestamp"`
	MessageType   MessageType   `json:"message_type"`
}

// KeyExchangeEnvelope carries a sender's public key, self-attested by a
// signature over "sender:recipient:timestamp".
type KeyExchangeEnvelope struct {
	Sender      Username    `json:"sender"`
	Recipient   Username    `json:"recipient"`
	PublicKey   string      `json:"public_key"`
	Timestamp   Timestamp   `json:"timestamp"`
	MessageType MessageType `json:"message_type"`
	Signature   string      `json:"signature"`
}

// DecryptedMessage is what the receive path returns.
type DecryptedMessage struct {
	From      Username  `json:"from"`
	To        Username  `json:"to"`
	Plaintext []byte    `json:"plaintext"`
	Timestamp Timestamp `json:"timestamp"`
	Expired   bool      `json:"expired"`
}
