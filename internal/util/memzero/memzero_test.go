package memzero_test

import (
	"bytes"
	"testing"

	"cipherchat/internal/util/memzero"
)

func TestZero(t *testing.T) {
	a := []byte("session key material")
	b := []byte{1, 2, 3}
	memzero.Zero(a, b, nil)
	if !bytes.Equal(a, make([]byte, len(a))) || !bytes.Equal(b, []byte{0, 0, 0}) {
		t.Fatalf("buffers not wiped: %v %v", a, b)
	}
}
