package builder

import (
	"crypto/rand"
	"fmt"
	"io"

	"golang.org/x/crypto/chacha20"
)

// keystream is a ChaCha20 CSPRNG. Each build owns one, keyed from the
// builder's entropy source, so builds never share random state.
type keystream struct {
	c *chacha20.Cipher
}

func newKeystream(entropy io.Reader) (*keystream, error) {
	if entropy == nil {
		entropy = rand.Reader
	}
	var key [chacha20.KeySize]byte
	if _, err := io.ReadFull(entropy, key[:]); err != nil {
		return nil, fmt.Errorf("seeding build rng: %w", err)
	}
	var nonce [chacha20.NonceSize]byte
	c, err := chacha20.NewUnauthenticatedCipher(key[:], nonce[:])
	if err != nil {
		return nil, err
	}
	return &keystream{c: c}, nil
}

func (k *keystream) Read(p []byte) (int, error) {
	clear(p)
	k.c.XORKeyStream(p, p)
	return len(p), nil
}
