package channel_test

import (
	"context"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"cipherchat/internal/audit"
	"cipherchat/internal/crypto"
	"cipherchat/internal/domain"
	"cipherchat/internal/security"
	"cipherchat/internal/services/channel"
	"cipherchat/internal/store"
)

type pemPair struct{ priv, pub []byte }

var (
	fixtureOnce sync.Once
	engine      *crypto.Engine
	fixtures    = map[domain.Username]pemPair{}
)

func testEngine(t *testing.T) *crypto.Engine {
	t.Helper()
	fixtureOnce.Do(func() {
		e, err := crypto.New(crypto.DefaultConfig(), nil)
		if err != nil {
			panic(err)
		}
		engine = e
		for _, name := range []domain.Username{"alice", "bob", "carol"} {
			priv, pub, err := e.GenerateKeyPair()
			if err != nil {
				panic(err)
			}
			fixtures[name] = pemPair{priv: priv, pub: pub}
		}
	})
	return engine
}

// node is one machine: its own key store, channel and event recorder.
type node struct {
	store   *store.FileKeyStore
	channel *channel.Service
	events  *audit.Recorder
	now     time.Time
}

func newNode(t *testing.T, identities ...domain.Username) *node {
	t.Helper()
	e := testEngine(t)
	ks, err := store.NewFileKeyStore(filepath.Join(t.TempDir(), "keys"), "")
	if err != nil {
		t.Fatalf("NewFileKeyStore: %v", err)
	}
	for _, name := range identities {
		p := fixtures[name]
		if err := ks.CreateKeyPair(context.Background(), domain.KeyPair{
			Username: name, PrivateKeyPEM: p.priv, PublicKeyPEM: p.pub, KeyBits: 2048,
		}); err != nil {
			t.Fatalf("CreateKeyPair(%s): %v", name, err)
		}
	}
	rec := audit.NewRecorder()
	v := security.NewValidator(crypto.DefaultMaxMessageBytes, rec, nil)
	n := &node{
		store:   ks,
		channel: channel.New(ks, e, v, rec, time.Hour, nil),
		events:  rec,
		now:     time.Unix(1700000000, 500000000),
	}
	n.channel.SetClock(func() time.Time { return n.now })
	return n
}
