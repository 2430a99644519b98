package types

// EventType classifies a security event.
type EventType string

const (
	EventKeyGenerated             EventType = "KEY_GENERATED"
	EventKeyImported              EventType = "KEY_IMPORTED"
	EventKeyDeleted               EventType = "KEY_DELETED"
	EventMessageSent              EventType = "MESSAGE_SENT"
	EventMessageReceived          EventType = "MESSAGE_RECEIVED"
	EventExpiredMessage           EventType = "EXPIRED_MESSAGE"
	EventSuspiciousMessageContent EventType = "SUSPICIOUS_MESSAGE_CONTENT"
	EventInvalidSignature         EventType = "INVALID_SIGNATURE"
	EventAuthenticationFailed     EventType = "AUTHENTICATION_FAILED"
	EventDecryptionFailed         EventType = "DECRYPTION_FAILED"
	EventKeyExchangeCreated       EventType = "KEY_EXCHANGE_CREATED"
	EventKeyExchangeProcessed     EventType = "KEY_EXCHANGE_PROCESSED"
	EventKeyExchangeRejected      EventType = "KEY_EXCHANGE_REJECTED"
	EventSuspiciousActivity       EventType = "SUSPICIOUS_ACTIVITY"
)

// IsFailure reports whether the event records a trust failure that should be
// rate-monitored per identity.
func (t EventType) IsFailure() bool {
	switch t {
	case EventInvalidSignature, EventAuthenticationFailed,
		EventDecryptionFailed, EventKeyExchangeRejected:
		return true
	}
	return false
}

// SecurityEvent is one record in the security-event stream.
type SecurityEvent struct {
	Timestamp Timestamp `json:"timestamp"`
	EventType EventType `json:"event_type"`
	Details   string    `json:"details"`
	Identity  Username  `json:"identity,omitempty"`
}
