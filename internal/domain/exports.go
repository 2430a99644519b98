package domain

import (
	interfaces "cipherchat/internal/domain/interfaces"
	types "cipherchat/internal/domain/types"
)

// Type aliases expose domain types from the types subpackage for compact imports.
type (
	Username            = types.Username
	Fingerprint         = types.Fingerprint
	MessageType         = types.MessageType
	Timestamp           = types.Timestamp
	KeyPair             = types.KeyPair
	ImportedPublicKey   = types.ImportedPublicKey
	KeyMetadata         = types.KeyMetadata
	IdentityInfo        = types.IdentityInfo
	EncryptedData       = types.EncryptedData
	SecureEnvelope      = types.SecureEnvelope
	KeyExchangeEnvelope = types.KeyExchangeEnvelope
	DecryptedMessage    = types.DecryptedMessage
	EventType           = types.EventType
	SecurityEvent       = types.SecurityEvent
	CryptoOp            = types.CryptoOp

	ValidationError     = types.ValidationError
	AuthenticationError = types.AuthenticationError
	CryptoError         = types.CryptoError
	MessageError        = types.MessageError
	KeyError            = types.KeyError
	ConfigError         = types.ConfigError
)

// Interface aliases expose domain interfaces from the interfaces subpackage.
type (
	KeyStore        = interfaces.KeyStore
	EventSink       = interfaces.EventSink
	IdentityService = interfaces.IdentityService
	ChannelService  = interfaces.ChannelService
)

// Error sentinels, re-exported so callers can errors.Is against domain.ErrX.
var (
	ErrValidation     = types.ErrValidation
	ErrAuthentication = types.ErrAuthentication
	ErrCrypto         = types.ErrCrypto
	ErrMessage        = types.ErrMessage
	ErrKey            = types.ErrKey
	ErrConfig         = types.ErrConfig
	ErrKeyExists      = types.ErrKeyExists
	ErrKeyNotFound    = types.ErrKeyNotFound
	ErrInvalidPadding = types.ErrInvalidPadding
)

var (
	TimestampFromTime        = types.TimestampFromTime
	ParseSecureEnvelope      = types.ParseSecureEnvelope
	ParseKeyExchangeEnvelope = types.ParseKeyExchangeEnvelope
	MarshalEnvelope          = types.MarshalEnvelope
)

const (
	MessageTypeSecure      = types.MessageTypeSecure
	MessageTypeKeyExchange = types.MessageTypeKeyExchange

	OpKeyGeneration = types.OpKeyGeneration
	OpEncryption    = types.OpEncryption
	OpDecryption    = types.OpDecryption
	OpSigning       = types.OpSigning

	EventKeyGenerated             = types.EventKeyGenerated
	EventKeyImported              = types.EventKeyImported
	EventKeyDeleted               = types.EventKeyDeleted
	EventMessageSent              = types.EventMessageSent
	EventMessageReceived          = types.EventMessageReceived
	EventExpiredMessage           = types.EventExpiredMessage
	EventSuspiciousMessageContent = types.EventSuspiciousMessageContent
	EventInvalidSignature         = types.EventInvalidSignature
	EventAuthenticationFailed     = types.EventAuthenticationFailed
	EventDecryptionFailed         = types.EventDecryptionFailed
	EventKeyExchangeCreated       = types.EventKeyExchangeCreated
	EventKeyExchangeProcessed     = types.EventKeyExchangeProcessed
	EventKeyExchangeRejected      = types.EventKeyExchangeRejected
	EventSuspiciousActivity       = types.EventSuspiciousActivity
)
