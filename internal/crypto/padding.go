package crypto

import (
	"crypto/aes"
	"crypto/subtle"
	"fmt"

	"cipherchat/internal/domain"
)

// Pad appends PKCS#7 padding. Block-aligned input gains a full block.
func Pad(b []byte, blockSize int) []byte {
	n := blockSize - len(b)%blockSize
	out := make([]byte, len(b)+n)
	copy(out, b)
	for i := len(b); i < len(out); i++ {
		out[i] = byte(n)
	}
	return out
}

// Unpad strips PKCS#7 padding. The pad length must be in [1, blockSize] and
// every pad byte must carry it.
func Unpad(b []byte, blockSize int) ([]byte, error) {
	if len(b) == 0 || len(b)%blockSize != 0 {
		return nil, fmt.Errorf("%w: length %d is not a positive multiple of %d", domain.ErrInvalidPadding, len(b), blockSize)
	}
	n := int(b[len(b)-1])
	if n == 0 || n > blockSize {
		return nil, fmt.Errorf("%w: pad length %d", domain.ErrInvalidPadding, n)
	}
	pad := b[len(b)-n:]
	want := make([]byte, n)
	for i := range want {
		want[i] = byte(n)
	}
	if subtle.ConstantTimeCompare(pad, want) != 1 {
		return nil, fmt.Errorf("%w: inconsistent pad bytes", domain.ErrInvalidPadding)
	}
	return b[:len(b)-n], nil
}

const blockSize = aes.BlockSize
