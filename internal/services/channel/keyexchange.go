package channel

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"cipherchat/internal/domain"
	"cipherchat/internal/security"
)

// CreateKeyExchange packages sender's public key for recipient, signed over
// "sender:recipient:timestamp".
func (s *Service) CreateKeyExchange(
	ctx context.Context,
	sender domain.Username,
	recipient domain.Username,
) (domain.KeyExchangeEnvelope, error) {
	if err := security.ValidateIdentityName(sender); err != nil {
		return domain.KeyExchangeEnvelope{}, err
	}
	if err := security.ValidateIdentityName(recipient); err != nil {
		return domain.KeyExchangeEnvelope{}, err
	}
	kp, err := s.loadPrivate(ctx, sender)
	if err != nil {
		return domain.KeyExchangeEnvelope{}, err
	}
	if len(kp.PublicKeyPEM) == 0 {
		s.emit(ctx, domain.EventAuthenticationFailed, sender, "Public key not found")
		return domain.KeyExchangeEnvelope{}, &domain.AuthenticationError{Identity: sender, Reason: "missing public key"}
	}

	ts := domain.TimestampFromTime(s.now())
	sig, err := s.crypto.Sign(KeyExchangePayload(sender, recipient, ts), kp.PrivateKeyPEM)
	if err != nil {
		return domain.KeyExchangeEnvelope{}, &domain.MessageError{Op: "key_exchange", Err: err}
	}
	env := domain.KeyExchangeEnvelope{
		Sender:      sender,
		Recipient:   recipient,
		PublicKey:   string(kp.PublicKeyPEM),
		Timestamp:   ts,
		MessageType: domain.MessageTypeKeyExchange,
		Signature:   sig,
	}
	s.emit(ctx, domain.EventKeyExchangeCreated, sender, fmt.Sprintf("Key exchange created for %s", recipient))
	return env, nil
}

// ProcessKeyExchange verifies env with the public key it carries and, on
// success, imports that key into owner's store under env.Sender.
//
// Unlike Receive, staleness is enforced: a handshake older than the window,
// or dated more than a window ahead, is refused even when its signature is
// valid.
func (s *Service) ProcessKeyExchange(
	ctx context.Context,
	env domain.KeyExchangeEnvelope,
	owner domain.Username,
) error {
	if err := security.ValidateIdentityName(owner); err != nil {
		return err
	}
	if err := env.CheckRequired(); err != nil {
		return err
	}
	if err := security.ValidateIdentityName(env.Sender); err != nil {
		return err
	}
	if err := security.ValidateIdentityName(env.Recipient); err != nil {
		return err
	}
	if env.Recipient != owner {
		s.log.Warn("key exchange addressed to another identity",
			zap.String("owner", string(owner)),
			zap.String("recipient", string(env.Recipient)),
		)
	}

	now := s.now()
	if s.stale(env.Timestamp, now) {
		s.emit(ctx, domain.EventKeyExchangeRejected, env.Sender,
			fmt.Sprintf("Key exchange older than %s", s.window))
		return &domain.AuthenticationError{Identity: env.Sender, Reason: "key exchange expired"}
	}
	if s.ahead(env.Timestamp, now) {
		s.emit(ctx, domain.EventKeyExchangeRejected, env.Sender,
			fmt.Sprintf("Key exchange dated more than %s ahead", s.window))
		return &domain.AuthenticationError{Identity: env.Sender, Reason: "key exchange timestamp in the future"}
	}

	pub := []byte(env.PublicKey)
	if !s.crypto.Verify(KeyExchangePayload(env.Sender, env.Recipient, env.Timestamp), env.Signature, pub) {
		s.emit(ctx, domain.EventKeyExchangeRejected, env.Sender, "Key exchange signature verification failed")
		return &domain.AuthenticationError{Identity: env.Sender, Reason: "key exchange signature verification failed"}
	}

	if err := s.store.ImportPublicKey(ctx, owner, env.Sender, pub); err != nil {
		s.emit(ctx, domain.EventKeyExchangeRejected, env.Sender, "Key exchange carried an unusable public key")
		return err
	}
	s.emit(ctx, domain.EventKeyExchangeProcessed, owner, fmt.Sprintf("Imported public key for %s via key exchange", env.Sender))
	return nil
}

// ProcessKeyExchangeJSON parses a transmitted key exchange and processes it.
// An empty owner defaults to the envelope's recipient.
func (s *Service) ProcessKeyExchangeJSON(ctx context.Context, data []byte, owner domain.Username) (domain.KeyExchangeEnvelope, error) {
	env, err := domain.ParseKeyExchangeEnvelope(data)
	if err != nil {
		return domain.KeyExchangeEnvelope{}, err
	}
	if owner == "" {
		owner = env.Recipient
	}
	return env, s.ProcessKeyExchange(ctx, env, owner)
}
