package channel

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"cipherchat/internal/domain"
	"cipherchat/internal/security"
)

// DefaultStalenessWindow matches the default session timeout.
const DefaultStalenessWindow = time.Hour

// Crypto is the subset of the crypto engine used by the channel.
type Crypto interface {
	Encrypt(plaintext []byte, recipientPublicPEM []byte) (domain.EncryptedData, error)
	Decrypt(data domain.EncryptedData, privatePEM []byte) ([]byte, error)
	Sign(message string, privatePEM []byte) (string, error)
	Verify(message, signature string, publicPEM []byte) bool
}

// Service implements domain.ChannelService.
type Service struct {
	store     domain.KeyStore
	crypto    Crypto
	validator *security.Validator
	events    domain.EventSink
	log       *zap.Logger
	window    time.Duration
	now       func() time.Time
}

// New returns a channel service. window is the staleness window for
// messages and key exchanges; a non-positive value selects
// DefaultStalenessWindow.
func New(
	store domain.KeyStore,
	crypto Crypto,
	validator *security.Validator,
	events domain.EventSink,
	window time.Duration,
	logger *zap.Logger,
) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	if window <= 0 {
		window = DefaultStalenessWindow
	}
	return &Service{
		store:     store,
		crypto:    crypto,
		validator: validator,
		events:    events,
		log:       logger.Named("channel"),
		window:    window,
		now:       time.Now,
	}
}

// SetClock replaces the time source.
func (s *Service) SetClock(now func() time.Time) { s.now = now }

// StalenessWindow returns the configured window.
func (s *Service) StalenessWindow() time.Duration { return s.window }

// MessagePayload is the text signed for a secure message.
func MessagePayload(sender, recipient domain.Username, plaintext string, ts domain.Timestamp) string {
	return fmt.Sprintf("%s:%s:%s:%s", sender, recipient, plaintext, ts)
}

// KeyExchangePayload is the text signed for a key exchange. It does not
// cover the public key itself.
func KeyExchangePayload(sender, recipient domain.Username, ts domain.Timestamp) string {
	return fmt.Sprintf("%s:%s:%s", sender, recipient, ts)
}

// loadPrivate returns owner's key pair or an AuthenticationError.
func (s *Service) loadPrivate(ctx context.Context, owner domain.Username) (domain.KeyPair, error) {
	kp, ok, err := s.store.LoadPrivateKey(ctx, owner)
	if err != nil {
		return domain.KeyPair{}, fmt.Errorf("load private key for %s: %w", owner, err)
	}
	if !ok {
		s.emit(ctx, domain.EventAuthenticationFailed, owner, "Private key not found")
		return domain.KeyPair{}, &domain.AuthenticationError{Identity: owner, Reason: "missing private key"}
	}
	return kp, nil
}

// resolvePublic looks up peer's public key on behalf of owner: the local
// identity slot first, then owner's imported keys.
func (s *Service) resolvePublic(ctx context.Context, owner, peer domain.Username) ([]byte, error) {
	pub, ok, err := s.store.LoadPublicKey(ctx, peer)
	if err != nil {
		return nil, fmt.Errorf("load public key for %s: %w", peer, err)
	}
	if ok {
		return pub, nil
	}
	imp, ok, err := s.store.LoadImportedPublicKey(ctx, owner, peer)
	if err != nil {
		return nil, fmt.Errorf("load imported key for %s: %w", peer, err)
	}
	if ok && imp.Active {
		return imp.PublicKeyPEM, nil
	}
	s.emit(ctx, domain.EventAuthenticationFailed, owner, fmt.Sprintf("Public key not found for %s", peer))
	return nil, &domain.AuthenticationError{Identity: peer, Reason: "missing public key"}
}

func (s *Service) stale(ts domain.Timestamp, now time.Time) bool {
	return ts.Age(now) > s.window
}

// ahead reports a timestamp more than one window in the future, beyond
// any plausible clock skew.
func (s *Service) ahead(ts domain.Timestamp, now time.Time) bool {
	return -ts.Age(now) > s.window
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

// Compile-time assertion that Service implements domain.ChannelService.
var _ domain.ChannelService = (*Service)(nil)
