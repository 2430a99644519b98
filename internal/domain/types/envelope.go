package types

import (
	"encoding/json"
	"fmt"
)

// CheckRequired reports the first missing field as a ValidationError.
func (e SecureEnvelope) CheckRequired() error {
	switch {
	case e.Sender == "":
		return missing("sender")
	case e.Recipient == "":
		return missing("recipient")
	case e.EncryptedData.EncryptedMessage == "":
		return missing("encrypted_data.encrypted_message")
	case e.EncryptedData.EncryptedKey == "":
		return missing("encrypted_data.encrypted_key")
	case e.EncryptedData.IV == "":
		return missing("encrypted_data.iv")
	case e.Signature == "":
		return missing("signature")
	case e.Timestamp.IsZero():
		return missing("timestamp")
	}
	if e.MessageType != "" && e.MessageType != MessageTypeSecure {
		return &ValidationError{Field: "message_type", Reason: fmt.Sprintf("unexpected %q", e.MessageType)}
	}
	return nil
}

// CheckRequired reports the first missing field as a ValidationError.
func (e KeyExchangeEnvelope) CheckRequired() error {
	switch {
	case e.Sender == "":
		return missing("sender")
	case e.Recipient == "":
		return missing("recipient")
	case e.PublicKey == "":
		return missing("public_key")
	case e.Signature == "":
		return missing("signature")
	case e.Timestamp.IsZero():
		return missing("timestamp")
	}
	if e.MessageType != "" && e.MessageType != MessageTypeKeyExchange {
		return &ValidationError{Field: "message_type", Reason: fmt.Sprintf("unexpected %q", e.MessageType)}
	}
	return nil
}

// ParseSecureEnvelope decodes a message envelope and checks required fields.
func ParseSecureEnvelope(data []byte) (SecureEnvelope, error) {
	var env SecureEnvelope
	if err := json.Unmarshal(data, &env); err != nil {
		return SecureEnvelope{}, &MessageError{Op: "parse", Err: err}
	}
	if err := env.CheckRequired(); err != nil {
		return SecureEnvelope{}, err
	}
	return env, nil
}

// ParseKeyExchangeEnvelope decodes a key-exchange envelope and checks
// required fields.
func ParseKeyExchangeEnvelope(data []byte) (KeyExchangeEnvelope, error) {
	var env KeyExchangeEnvelope
	if err := json.Unmarshal(data, &env); err != nil {
		return KeyExchangeEnvelope{}, &MessageError{Op: "parse", Err: err}
	}
	if err := env.CheckRequired(); err != nil {
		return KeyExchangeEnvelope{}, err
	}
	return env, nil
}

// MarshalEnvelope renders an envelope as indented JSON for transmission.
func MarshalEnvelope(v any) ([]byte, error) {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, &MessageError{Op: "export", Err: err}
	}
	return b, nil
}

func missing(field string) error {
	return &ValidationError{Field: field, Reason: "missing required field"}
}
