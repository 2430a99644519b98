package channel_test

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"cipherchat/internal/crypto"
	"cipherchat/internal/domain"
	"cipherchat/internal/services/channel"
)

func TestSendReceive_RoundTrip(t *testing.T) {
	ctx := context.Background()
	n := newNode(t, "alice", "bob")

	for _, msg := range []string{
		"hi",
		"0123456789abcdef",
		strings.Repeat("z", 48),
		"colons:in:the:message:1.5",
		"héllo 👋",
	} {
		env, err := n.channel.Send(ctx, "alice", "bob", []byte(msg))
		if err != nil {
			t.Fatalf("Send(%q): %v", msg, err)
		}
		if env.MessageType != domain.MessageTypeSecure || env.Sender != "alice" || env.Recipient != "bob" {
			t.Fatalf("unexpected envelope header %+v", env)
		}
		if strings.Contains(env.EncryptedData.EncryptedMessage, msg) {
			t.Fatal("envelope carries plaintext")
		}
		got, err := n.channel.Receive(ctx, env, "bob")
		if err != nil {
			t.Fatalf("Receive(%q): %v", msg, err)
		}
		if string(got.Plaintext) != msg || got.From != "alice" || got.Expired {
			t.Fatalf("got %+v, want %q", got, msg)
		}
	}
	if n.events.Count(domain.EventMessageSent) != 5 || n.events.Count(domain.EventMessageReceived) != 5 {
		t.Fatalf("events: sent=%d received=%d",
			n.events.Count(domain.EventMessageSent), n.events.Count(domain.EventMessageReceived))
	}
}

func TestSendReceive_JSONTransport(t *testing.T) {
	ctx := context.Background()
	n := newNode(t, "alice", "bob")
	env, err := n.channel.Send(ctx, "alice", "bob", []byte("over the wire"))
	if err != nil {
		t.Fatalf("Send: %v", err)
	}
	raw, err := domain.MarshalEnvelope(env)
	if err != nil {
		t.Fatalf("MarshalEnvelope: %v", err)
	}
	if !strings.Contains(string(raw), `"timestamp": 1700000000.5`) {
		t.Fatalf("timestamp not a fractional number:\n%s", raw)
	}
	got, err := n.channel.ReceiveJSON(ctx, raw, "bob")
	if err != nil {
		t.Fatalf("ReceiveJSON: %v", err)
	}
	if string(got.Plaintext) != "over the wire" {
		t.Fatalf("got %q", got.Plaintext)
	}
}

func flipB64(t *testing.T, s string, i int) string {
	t.Helper()
	b, err := crypto.FromB64(s)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	b[i%len(b)] ^= 0x01
	return crypto.B64(b)
}

func TestReceive_TamperDetection(t *testing.T) {
	ctx := context.Background()
	n := newNode(t, "alice", "bob")
	env, err := n.channel.Send(ctx, "alice", "bob", []byte("transfer 100 to carol"))
	if err != nil {
		t.Fatalf("Send: %v", err)
	}

	tampers := map[string]func(*domain.SecureEnvelope, int){
		"ciphertext":    func(e *domain.SecureEnvelope, i int) { e.EncryptedData.EncryptedMessage = flipB64(t, e.EncryptedData.EncryptedMessage, i) },
		"encrypted_key": func(e *domain.SecureEnvelope, i int) { e.EncryptedData.EncryptedKey = flipB64(t, e.EncryptedData.EncryptedKey, i) },
		"iv":            func(e *domain.SecureEnvelope, i int) { e.EncryptedData.IV = flipB64(t, e.EncryptedData.IV, i) },
		"signature":     func(e *domain.SecureEnvelope, i int) { e.Signature = flipB64(t, e.Signature, i) },
	}
	for name, tamper := range tampers {
		for _, i := range []int{0, 7, 15, 31} {
			bad := env
			tamper(&bad, i)
			got, err := n.channel.Receive(ctx, bad, "bob")
			if err == nil {
				t.Fatalf("%s[%d]: tampered envelope accepted: %q", name, i, got.Plaintext)
			}
			if !errors.Is(err, domain.ErrAuthentication) && !errors.Is(err, domain.ErrCrypto) {
				t.Fatalf("%s[%d]: want auth or crypto error, got %v", name, i, err)
			}
			if got.Plaintext != nil {
				t.Fatalf("%s[%d]: plaintext returned with error", name, i)
			}
		}
	}
}

func TestReceive_MetadataTamper(t *testing.T) {
	ctx := context.Background()
	n := newNode(t, "alice", "bob")
	env, _ := n.channel.Send(ctx, "alice", "bob", []byte("hi"))

	retimed := env
	retimed.Timestamp = domain.Timestamp{Seconds: env.Timestamp.Seconds + 1}
	if _, err := n.channel.Receive(ctx, retimed, "bob"); !errors.Is(err, domain.ErrAuthentication) {
		t.Fatalf("re-timestamped: want ErrAuthentication, got %v", err)
	}
	if n.events.Count(domain.EventInvalidSignature) != 1 {
		t.Fatal("INVALID_SIGNATURE not emitted")
	}
}

func TestReceive_WrongRecipient(t *testing.T) {
	ctx := context.Background()
	n := newNode(t, "alice", "bob", "carol")
	env, _ := n.channel.Send(ctx, "alice", "bob", []byte("for bob only"))

	if _, err := n.channel.Receive(ctx, env, "carol"); err == nil {
		t.Fatal("carol decrypted bob's message")
	}

	// Rebinding the envelope to carol breaks the signature for bob and the
	// decryption for carol.
	rebound := env
	rebound.Recipient = "carol"
	if _, err := n.channel.Receive(ctx, rebound, "bob"); !errors.Is(err, domain.ErrAuthentication) {
		t.Fatalf("bob with rebound envelope: want ErrAuthentication, got %v", err)
	}
	if _, err := n.channel.Receive(ctx, rebound, "carol"); err == nil {
		t.Fatal("carol accepted rebound envelope")
	}
}

func TestSend_ValidationBeforeKeys(t *testing.T) {
	ctx := context.Background()
	n := newNode(t)

	cases := []struct {
		from, to domain.Username
		msg      []byte
	}{
		{"ab", "bob", []byte("hi")},
		{"alice", "admin", []byte("hi")},
		{"alice", "bob", nil},
		{"alice", "bob", []byte(strings.Repeat("x", crypto.DefaultMaxMessageBytes+1))},
	}
	for _, c := range cases {
		_, err := n.channel.Send(ctx, c.from, c.to, c.msg)
		if !errors.Is(err, domain.ErrValidation) {
			t.Fatalf("Send(%s,%s): want ErrValidation, got %v", c.from, c.to, err)
		}
	}
	if n.events.Count(domain.EventAuthenticationFailed) != 0 {
		t.Fatal("key lookup happened despite invalid input")
	}
}

func TestSend_MissingKeys(t *testing.T) {
	ctx := context.Background()
	n := newNode(t, "alice")

	_, err := n.channel.Send(ctx, "dave", "alice", []byte("hi"))
	var ae *domain.AuthenticationError
	if !errors.As(err, &ae) || ae.Reason != "missing private key" {
		t.Fatalf("unknown sender: got %v", err)
	}
	_, err = n.channel.Send(ctx, "alice", "bob", []byte("hi"))
	if !errors.As(err, &ae) || ae.Reason != "missing public key" || ae.Identity != "bob" {
		t.Fatalf("unknown recipient: got %v", err)
	}
}

func TestSend_UsesImportedKey(t *testing.T) {
	ctx := context.Background()
	alice := newNode(t, "alice")
	bob := newNode(t, "bob")
	if err := alice.store.ImportPublicKey(ctx, "alice", "bob", fixtures["bob"].pub); err != nil {
		t.Fatalf("import bob: %v", err)
	}
	if err := bob.store.ImportPublicKey(ctx, "bob", "alice", fixtures["alice"].pub); err != nil {
		t.Fatalf("import alice: %v", err)
	}
	env, err := alice.channel.Send(ctx, "alice", "bob", []byte("cross-machine"))
	if err != nil {
		t.Fatalf("Send: %v", err)
	}
	got, err := bob.channel.Receive(ctx, env, "bob")
	if err != nil {
		t.Fatalf("Receive: %v", err)
	}
	if string(got.Plaintext) != "cross-machine" {
		t.Fatalf("got %q", got.Plaintext)
	}

	// Keys imported by another owner are not visible.
	carol := newNode(t, "carol")
	if _, err := carol.channel.Send(ctx, "carol", "bob", []byte("hi")); !errors.Is(err, domain.ErrAuthentication) {
		t.Fatalf("carol without import: %v", err)
	}
}

func TestReceive_ExpiredIsWarnedNotRejected(t *testing.T) {
	ctx := context.Background()
	n := newNode(t, "alice", "bob")
	env, _ := n.channel.Send(ctx, "alice", "bob", []byte("old news"))

	n.now = n.now.Add(2 * time.Hour)
	got, err := n.channel.Receive(ctx, env, "bob")
	if err != nil {
		t.Fatalf("Receive: %v", err)
	}
	if !got.Expired || string(got.Plaintext) != "old news" {
		t.Fatalf("got %+v", got)
	}
	if len(n.events.Events(domain.EventExpiredMessage, "alice")) != 1 {
		t.Fatal("EXPIRED_MESSAGE not emitted")
	}

	n.now = n.now.Add(-2*time.Hour + 30*time.Minute)
	got, err = n.channel.Receive(ctx, env, "bob")
	if err != nil || got.Expired {
		t.Fatalf("within window: expired=%v err=%v", got.Expired, err)
	}
}

func TestReceive_MalformedEnvelope(t *testing.T) {
	ctx := context.Background()
	n := newNode(t, "alice", "bob")
	env, _ := n.channel.Send(ctx, "alice", "bob", []byte("hi"))

	missing := env
	missing.Signature = ""
	var ve *domain.ValidationError
	if _, err := n.channel.Receive(ctx, missing, "bob"); !errors.As(err, &ve) || ve.Field != "signature" {
		t.Fatalf("missing signature: %v", err)
	}
	wrongType := env
	wrongType.MessageType = domain.MessageTypeKeyExchange
	if _, err := n.channel.Receive(ctx, wrongType, "bob"); !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("wrong type: %v", err)
	}
	badSender := env
	badSender.Sender = "root"
	if _, err := n.channel.Receive(ctx, badSender, "bob"); !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("reserved sender: %v", err)
	}
	if _, err := n.channel.ReceiveJSON(ctx, []byte("{not json"), "bob"); !errors.Is(err, domain.ErrMessage) {
		t.Fatalf("bad json: %v", err)
	}
	if _, err := n.channel.ReceiveJSON(ctx, []byte(`{"sender":"alice"}`), "bob"); !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("partial json: %v", err)
	}
}

func TestReceive_IntegralTimestampInterop(t *testing.T) {
	ctx := context.Background()
	e := testEngine(t)
	n := newNode(t, "alice", "bob")

	ts := domain.Timestamp{Seconds: 1700000000, Integral: true}
	payload := channel.MessagePayload("alice", "bob", "hi", ts)
	if payload != "alice:bob:hi:1700000000" {
		t.Fatalf("payload = %q", payload)
	}
	sig, err := e.Sign(payload, fixtures["alice"].priv)
	if err != nil {
		t.Fatalf("Sign: %v", err)
	}
	enc, err := e.Encrypt([]byte("hi"), fixtures["bob"].pub)
	if err != nil {
		t.Fatalf("Encrypt: %v", err)
	}
	raw := fmt.Sprintf(`{"sender":"alice","recipient":"bob","encrypted_data":{"encrypted_message":%q,"encrypted_key":%q,"iv":%q},"signature":%q,"timestamp":1700000000,"message_type":"secure_message"}`,
		enc.EncryptedMessage, enc.EncryptedKey, enc.IV, sig)

	got, err := n.channel.ReceiveJSON(ctx, []byte(raw), "bob")
	if err != nil {
		t.Fatalf("ReceiveJSON: %v", err)
	}
	if string(got.Plaintext) != "hi" {
		t.Fatalf("got %q", got.Plaintext)
	}
}

func TestMessagePayloadFloatForm(t *testing.T) {
	cases := map[float64]string{
		1700000000.5:       "alice:bob:m:1700000000.5",
		1700000000:         "alice:bob:m:1700000000.0",
		1700000000.1234567: "alice:bob:m:1700000000.1234567",
	}
	for secs, want := range cases {
		got := channel.MessagePayload("alice", "bob", "m", domain.Timestamp{Seconds: secs})
		if got != want {
			t.Fatalf("MessagePayload(%v) = %q, want %q", secs, got, want)
		}
	}
}

func TestSend_SuspiciousContentFlagged(t *testing.T) {
	ctx := context.Background()
	n := newNode(t, "alice", "bob")
	if _, err := n.channel.Send(ctx, "alice", "bob", []byte("<script>alert(1)</script>")); err != nil {
		t.Fatalf("Send: %v", err)
	}
	if len(n.events.Events(domain.EventSuspiciousMessageContent, "alice")) != 1 {
		t.Fatal("suspicious content not reported")
	}
}

func TestSendReceive_Concurrent(t *testing.T) {
	ctx := context.Background()
	n := newNode(t, "alice", "bob")

	var wg sync.WaitGroup
	errs := make(chan error, 16)
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			msg := fmt.Sprintf("message %d", i)
			env, err := n.channel.Send(ctx, "alice", "bob", []byte(msg))
			if err != nil {
				errs <- err
				return
			}
			got, err := n.channel.Receive(ctx, env, "bob")
			if err != nil {
				errs <- err
				return
			}
			if string(got.Plaintext) != msg {
				errs <- fmt.Errorf("got %q want %q", got.Plaintext, msg)
			}
		}(i)
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		t.Fatal(err)
	}
}
