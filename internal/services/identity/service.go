package identity

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"cipherchat/internal/crypto"
	"cipherchat/internal/crypto/pemkey"
	"cipherchat/internal/domain"
	"cipherchat/internal/security"
)

// KeyGenerator produces PEM-encoded key pairs.
type KeyGenerator interface {
	GenerateKeyPair() (privatePEM, publicPEM []byte, err error)
}

// Service manages identity keys using a backing store.
type Service struct {
	store   domain.KeyStore
	keygen  KeyGenerator
	events  domain.EventSink
	log     *zap.Logger
	keyBits int
	now     func() time.Time
}

// New returns an identity service. keyBits is recorded in key metadata.
func New(
	store domain.KeyStore,
	keygen KeyGenerator,
	keyBits int,
	events domain.EventSink,
	logger *zap.Logger,
) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		store:   store,
		keygen:  keygen,
		events:  events,
		log:     logger.Named("identity"),
		keyBits: keyBits,
		now:     time.Now,
	}
}

// GenerateAndStore creates and persists a key pair for name. It fails with
// a KeyError wrapping domain.ErrKeyExists if name already has keys; existing
// keys are never replaced.
func (s *Service) GenerateAndStore(ctx context.Context, name domain.Username) (domain.KeyPair, error) {
	if err := security.ValidateIdentityName(name); err != nil {
		return domain.KeyPair{}, err
	}
	exists, err := s.store.Exists(ctx, name)
	if err != nil {
		return domain.KeyPair{}, err
	}
	if exists {
		return domain.KeyPair{}, &domain.KeyError{Identity: name, Reason: "generate", Err: domain.ErrKeyExists}
	}

	privatePEM, publicPEM, err := s.keygen.GenerateKeyPair()
	if err != nil {
		return domain.KeyPair{}, err
	}
	kp := domain.KeyPair{
		Username:      name,
		PrivateKeyPEM: privatePEM,
		PublicKeyPEM:  publicPEM,
		KeyBits:       s.keyBits,
		CreatedAt:     s.now().UTC(),
	}
	// A concurrent generator may have won the race since Exists.
	if err := s.store.CreateKeyPair(ctx, kp); err != nil {
		return domain.KeyPair{}, err
	}

	fp, _ := crypto.Fingerprint(publicPEM)
	s.log.Info("generated identity", zap.String("identity", string(name)), zap.String("fingerprint", string(fp)))
	s.emit(ctx, domain.EventKeyGenerated, name, fmt.Sprintf("Generated %d-bit RSA key pair", s.keyBits))
	return kp, nil
}

// ExportPublicKey returns the public PEM of a local identity.
func (s *Service) ExportPublicKey(ctx context.Context, name domain.Username) ([]byte, error) {
	if err := security.ValidateIdentityName(name); err != nil {
		return nil, err
	}
	pub, ok, err := s.store.LoadPublicKey(ctx, name)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, &domain.KeyError{Identity: name, Reason: "export", Err: domain.ErrKeyNotFound}
	}
	return pub, nil
}

// ExportPublicKeyFile writes the public PEM of name to path, world-readable.
func (s *Service) ExportPublicKeyFile(ctx context.Context, name domain.Username, path string) error {
	pub, err := s.ExportPublicKey(ctx, name)
	if err != nil {
		return err
	}
	if err := security.WriteFile(path, pub, 0o644); err != nil {
		return fmt.Errorf("export public key: %w", err)
	}
	return nil
}

// Fingerprint returns the short hex fingerprint of name's public key.
func (s *Service) Fingerprint(ctx context.Context, name domain.Username) (domain.Fingerprint, error) {
	pub, err := s.ExportPublicKey(ctx, name)
	if err != nil {
		return "", err
	}
	return crypto.Fingerprint(pub)
}

// SSHFingerprint returns the OpenSSH-style fingerprint of name's public key.
func (s *Service) SSHFingerprint(ctx context.Context, name domain.Username) (string, error) {
	pub, err := s.ExportPublicKey(ctx, name)
	if err != nil {
		return "", err
	}
	return crypto.SSHFingerprint(pub)
}

// ImportPublicKey stores peer's public key in owner's key store, replacing
// any earlier import for peer.
func (s *Service) ImportPublicKey(ctx context.Context, owner, peer domain.Username, publicKeyPEM []byte) error {
	if err := security.ValidateIdentityName(owner); err != nil {
		return err
	}
	if err := security.ValidateIdentityName(peer); err != nil {
		return err
	}
	if err := s.store.ImportPublicKey(ctx, owner, peer, publicKeyPEM); err != nil {
		return err
	}
	fp, _ := crypto.Fingerprint(publicKeyPEM)
	s.log.Info("imported public key",
		zap.String("owner", string(owner)),
		zap.String("peer", string(peer)),
		zap.String("fingerprint", string(fp)),
	)
	s.emit(ctx, domain.EventKeyImported, owner, fmt.Sprintf("Imported public key for %s (fingerprint %s)", peer, fp))
	return nil
}

// ImportPublicKeyFile reads a PEM file of at most security.MaxKeyFileBytes
// and imports it.
func (s *Service) ImportPublicKeyFile(ctx context.Context, owner, peer domain.Username, path string) error {
	b, err := security.ReadFile(path, security.MaxKeyFileBytes)
	if err != nil {
		return err
	}
	return s.ImportPublicKey(ctx, owner, peer, b)
}

// Delete irreversibly removes name's keys.
func (s *Service) Delete(ctx context.Context, name domain.Username) error {
	if err := security.ValidateIdentityName(name); err != nil {
		return err
	}
	if err := s.store.DeleteKeyPair(ctx, name); err != nil {
		return err
	}
	s.log.Info("deleted identity", zap.String("identity", string(name)))
	s.emit(ctx, domain.EventKeyDeleted, name, "Deleted key pair")
	return nil
}

// List summarises every stored identity.
func (s *Service) List(ctx context.Context) ([]domain.IdentityInfo, error) {
	names, err := s.store.List(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]domain.IdentityInfo, 0, len(names))
	for _, name := range names {
		pub, ok, err := s.store.LoadPublicKey(ctx, name)
		if err != nil {
			return nil, err
		}
		if !ok {
			// Deleted between List and LoadPublicKey.
			continue
		}
		info := domain.IdentityInfo{Username: name}
		if key, err := pemkey.DecodePublic(pub); err == nil {
			info.KeyBits = key.N.BitLen()
		}
		if fp, err := crypto.Fingerprint(pub); err == nil {
			info.Fingerprint = fp
		}
		out = append(out, info)
	}
	return out, nil
}

// ListImported returns the peer keys owner has imported.
func (s *Service) ListImported(ctx context.Context, owner domain.Username) ([]domain.ImportedPublicKey, error) {
	if err := security.ValidateIdentityName(owner); err != nil {
		return nil, err
	}
	return s.store.ListImported(ctx, owner)
}

func (s *Service) emit(ctx context.Context, t domain.EventType, id domain.Username, details string) {
	if s.events == nil {
		return
	}
	ev := domain.SecurityEvent{
		Timestamp: domain.TimestampFromTime(s.now()),
		EventType: t,
		Details:   details,
		Identity:  id,
	}
	if err := s.events.Emit(ctx, ev); err != nil {
		s.log.Warn("emit security event", zap.String("event_type", string(t)), zap.Error(err))
	}
}

// Compile-time assertion that Service implements domain.IdentityService.
var _ domain.IdentityService = (*Service)(nil)
