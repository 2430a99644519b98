package channel

import (
	"context"
	"fmt"
	"unicode/utf8"

	"go.uber.org/zap"

	"cipherchat/internal/domain"
	"cipherchat/internal/security"
)

// Send signs and encrypts plaintext from sender to recipient.
//
// Validation happens before any key material is touched. Failures while
// signing or encrypting are wrapped in a MessageError with Op "send".
func (s *Service) Send(
	ctx context.Context,
	sender domain.Username,
	recipient domain.Username,
	plaintext []byte,
) (domain.SecureEnvelope, error) {
	if err := security.ValidateIdentityName(sender); err != nil {
		return domain.SecureEnvelope{}, err
	}
	if err := security.ValidateIdentityName(recipient); err != nil {
		return domain.SecureEnvelope{}, err
	}
	if err := s.validator.ValidateMessage(ctx, sender, plaintext); err != nil {
		return domain.SecureEnvelope{}, err
	}

	kp, err := s.loadPrivate(ctx, sender)
	if err != nil {
		return domain.SecureEnvelope{}, err
	}
	recipientPub, err := s.resolvePublic(ctx, sender, recipient)
	if err != nil {
		return domain.SecureEnvelope{}, err
	}

	ts := domain.TimestampFromTime(s.now())
	sig, err := s.crypto.Sign(MessagePayload(sender, recipient, string(plaintext), ts), kp.PrivateKeyPEM)
	if err != nil {
		return domain.SecureEnvelope{}, &domain.MessageError{Op: "send", Err: err}
	}
	enc, err := s.crypto.Encrypt(plaintext, recipientPub)
	if err != nil {
		return domain.SecureEnvelope{}, &domain.MessageError{Op: "send", Err: err}
	}

	env := domain.SecureEnvelope{
		Sender:        sender,
		Recipient:     recipient,
		EncryptedData: enc,
		Signature:     sig,
		Timestamp:     ts,
		MessageType:   domain.MessageTypeSecure,
	}
	s.log.Debug("message sealed", zap.String("sender", string(sender)), zap.String("recipient", string(recipient)))
	s.emit(ctx, domain.EventMessageSent, sender, fmt.Sprintf("Message sent to %s", recipient))
	return env, nil
}

// Receive decrypts and authenticates env on behalf of recipient.
//
// A bad signature is an AuthenticationError; decryption failures surface as
// CryptoError. A message older than the staleness window is still returned,
// with Expired set and an EXPIRED_MESSAGE event emitted.
func (s *Service) Receive(
	ctx context.Context,
	env domain.SecureEnvelope,
	recipient domain.Username,
) (domain.DecryptedMessage, error) {
	if err := security.ValidateIdentityName(recipient); err != nil {
		return domain.DecryptedMessage{}, err
	}
	if err := env.CheckRequired(); err != nil {
		return domain.DecryptedMessage{}, err
	}
	if err := security.ValidateIdentityName(env.Sender); err != nil {
		return domain.DecryptedMessage{}, err
	}

	kp, err := s.loadPrivate(ctx, recipient)
	if err != nil {
		return domain.DecryptedMessage{}, err
	}
	senderPub, err := s.resolvePublic(ctx, recipient, env.Sender)
	if err != nil {
		return domain.DecryptedMessage{}, err
	}

	plaintext, err := s.crypto.Decrypt(env.EncryptedData, kp.PrivateKeyPEM)
	if err != nil {
		s.emit(ctx, domain.EventDecryptionFailed, env.Sender, fmt.Sprintf("Decryption failed for message to %s", recipient))
		return domain.DecryptedMessage{}, err
	}
	if !utf8.Valid(plaintext) {
		s.emit(ctx, domain.EventDecryptionFailed, env.Sender, fmt.Sprintf("Undecodable message to %s", recipient))
		return domain.DecryptedMessage{}, &domain.CryptoError{
			Op:     domain.OpDecryption,
			Reason: "plaintext is not valid UTF-8",
		}
	}

	payload := MessagePayload(env.Sender, env.Recipient, string(plaintext), env.Timestamp)
	if !s.crypto.Verify(payload, env.Signature, senderPub) {
		s.emit(ctx, domain.EventInvalidSignature, env.Sender, fmt.Sprintf("Signature verification failed for message to %s", recipient))
		return domain.DecryptedMessage{}, &domain.AuthenticationError{
			Identity: env.Sender,
			Reason:   "signature verification failed",
		}
	}

	out := domain.DecryptedMessage{
		From:      env.Sender,
		To:        env.Recipient,
		Plaintext: plaintext,
		Timestamp: env.Timestamp,
	}
	if now := s.now(); s.stale(env.Timestamp, now) {
		out.Expired = true
		s.log.Warn("message outside staleness window",
			zap.String("sender", string(env.Sender)),
			zap.Duration("age", env.Timestamp.Age(now)),
		)
		s.emit(ctx, domain.EventExpiredMessage, env.Sender,
			fmt.Sprintf("Message from %s is older than %s", env.Sender, s.window))
	}
	s.emit(ctx, domain.EventMessageReceived, recipient, fmt.Sprintf("Message received from %s", env.Sender))
	return out, nil
}

// ReceiveJSON parses a transmitted envelope and receives it.
func (s *Service) ReceiveJSON(ctx context.Context, data []byte, recipient domain.Username) (domain.DecryptedMessage, error) {
	env, err := domain.ParseSecureEnvelope(data)
	if err != nil {
		return domain.DecryptedMessage{}, err
	}
	return s.Receive(ctx, env, recipient)
}
