package interfaces

import (
	"context"

	domaintypes "cipherchat/internal/domain/types"
)

// IdentityService creates, inspects and removes local identities.
type IdentityService interface {
	GenerateAndStore(ctx context.Context, name domaintypes.Username) (domaintypes.KeyPair, error)
	Fingerprint(ctx context.Context, name domaintypes.Username) (domaintypes.Fingerprint, error)
	ExportPublicKey(ctx context.Context, name domaintypes.Username) ([]byte, error)
	ImportPublicKey(ctx context.Context, owner, peer domaintypes.Username, publicKeyPEM []byte) error
	Delete(ctx context.Context, name domaintypes.Username) error
	List(ctx context.Context) ([]domaintypes.IdentityInfo, error)
}

// ChannelService produces and consumes signed, encrypted envelopes.
type ChannelService interface {
	Send(
		ctx context.Context,
		sender domaintypes.Username,
		recipient domaintypes.Username,
		plaintext []byte,
	) (domaintypes.SecureEnvelope, error)
	Receive(
		ctx context.Context,
		envelope domaintypes.SecureEnvelope,
		recipient domaintypes.Username,
	) (domaintypes.DecryptedMessage, error)
	CreateKeyExchange(
		ctx context.Context,
		sender domaintypes.Username,
		recipient domaintypes.Username,
	) (domaintypes.KeyExchangeEnvelope, error)
	ProcessKeyExchange(
		ctx context.Context,
		envelope domaintypes.KeyExchangeEnvelope,
		owner domaintypes.Username,
	) error
}
