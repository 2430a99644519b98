package store_test

import (
	"crypto/rand"
	"crypto/rsa"
	"sync"
	"testing"
	"time"

	"cipherchat/internal/crypto/pemkey"
	"cipherchat/internal/domain"
)

type pemPair struct{ priv, pub []byte }

var (
	pairsOnce sync.Once
	pairs     [2]pemPair
)

func testPairs(t *testing.T) [2]pemPair {
	t.Helper()
	pairsOnce.Do(func() {
		for i := range pairs {
			k, err := rsa.GenerateKey(rand.Reader, 2048)
			if err != nil {
				panic(err)
			}
			priv, err := pemkey.EncodePrivate(k)
			if err != nil {
				panic(err)
			}
			pub, err := pemkey.EncodePublic(&k.PublicKey)
			if err != nil {
				panic(err)
			}
			pairs[i] = pemPair{priv: priv, pub: pub}
		}
	})
	return pairs
}

func keyPair(t *testing.T, name domain.Username, i int) domain.KeyPair {
	t.Helper()
	p := testPairs(t)[i]
	return domain.KeyPair{
		Username:      name,
		PrivateKeyPEM: p.priv,
		PublicKeyPEM:  p.pub,
		KeyBits:       2048,
		CreatedAt:     time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC),
	}
}
