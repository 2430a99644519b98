package interfaces

import (
	"context"

	domaintypes "cipherchat/internal/domain/types"
)

// KeyStore persists identity key pairs and imported peer public keys.
//
// Lookups report absence through ok=false, never through an error.
// CreateKeyPair and DeleteKeyPair are mutually exclusive per identity;
// reads may run concurrently.
type KeyStore interface {
	CreateKeyPair(ctx context.Context, kp domaintypes.KeyPair) error
	LoadPrivateKey(ctx context.Context, name domaintypes.Username) (domaintypes.KeyPair, bool, error)
	LoadPublicKey(ctx context.Context, name domaintypes.Username) ([]byte, bool, error)
	Exists(ctx context.Context, name domaintypes.Username) (bool, error)
	List(ctx context.Context) ([]domaintypes.Username, error)
	DeleteKeyPair(ctx context.Context, name domaintypes.Username) error

	ImportPublicKey(ctx context.Context, owner, peer domaintypes.Username, publicKeyPEM []byte) error
	LoadImportedPublicKey(
		ctx context.Context,
		owner domaintypes.Username,
		peer domaintypes.Username,
	) (domaintypes.ImportedPublicKey, bool, error)
	ListImported(ctx context.Context, owner domaintypes.Username) ([]domaintypes.ImportedPublicKey, error)
}

// EventSink receives security events. Implementations must tolerate
// concurrent Emit calls without interleaving partial records.
type EventSink interface {
	Emit(ctx context.Context, event domaintypes.SecurityEvent) error
}
