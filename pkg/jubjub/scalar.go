package jubjub

import (
	"errors"
	"fmt"
	"io"
	"math/big"
)

// ScalarSize is the byte length of an encoded scalar.
const ScalarSize = 32

// order is r_J, the order of the prime-order subgroup.
var order, _ = new(big.Int).SetString("0e7db4ea6533afa906673b0101343b00a6682093ccc81082d0970e5ed6f72cb7", 16)

// ErrNonCanonicalScalar is returned when an encoded scalar is not below r_J.
var ErrNonCanonicalScalar = errors.New("jubjub: non-canonical scalar")

// Order returns a copy of the subgroup order r_J.
func Order() *big.Int {
	return new(big.Int).Set(order)
}

// Scalar is an element of the Jubjub scalar field, Z/r_J. The zero value is 0.
// Scalars are immutable; arithmetic returns new values.
type Scalar struct {
	n *big.Int
}

func newScalar(n *big.Int) Scalar {
	return Scalar{n: n.Mod(n, order)}
}

func (s Scalar) int() *big.Int {
	if s.n == nil {
		return new(big.Int)
	}
	return s.n
}

// ScalarFromUint64 returns v mod r_J.
func ScalarFromUint64(v uint64) Scalar {
	return newScalar(new(big.Int).SetUint64(v))
}

// ScalarFromInt64 returns v mod r_J, mapping negative values to r_J - |v|.
func ScalarFromInt64(v int64) Scalar {
	return newScalar(big.NewInt(v))
}

// ScalarFromBytes decodes a canonical little-endian scalar.
func ScalarFromBytes(b [ScalarSize]byte) (Scalar, error) {
	n := leToInt(b[:])
	if n.Cmp(order) >= 0 {
		return Scalar{}, ErrNonCanonicalScalar
	}
	return Scalar{n: n}, nil
}

// ScalarFromWide reduces a little-endian byte string of any length modulo
// r_J. With 64 uniformly random bytes the result is statistically uniform.
func ScalarFromWide(b []byte) Scalar {
	return newScalar(leToInt(b))
}

// RandomScalar draws 64 bytes from rng and reduces them modulo r_J.
func RandomScalar(rng io.Reader) (Scalar, error) {
	var buf [64]byte
	if _, err := io.ReadFull(rng, buf[:]); err != nil {
		return Scalar{}, fmt.Errorf("reading randomness: %w", err)
	}
	return ScalarFromWide(buf[:]), nil
}

// Add returns s + t.
func (s Scalar) Add(t Scalar) Scalar {
	return newScalar(new(big.Int).Add(s.int(), t.int()))
}

// Sub returns s - t.
func (s Scalar) Sub(t Scalar) Scalar {
	return newScalar(new(big.Int).Sub(s.int(), t.int()))
}

// Mul returns s * t.
func (s Scalar) Mul(t Scalar) Scalar {
	return newScalar(new(big.Int).Mul(s.int(), t.int()))
}

// Neg returns -s.
func (s Scalar) Neg() Scalar {
	return newScalar(new(big.Int).Neg(s.int()))
}

// IsZero reports whether s is 0.
func (s Scalar) IsZero() bool {
	return s.int().Sign() == 0
}

// Equal reports whether s and t are the same field element.
func (s Scalar) Equal(t Scalar) bool {
	return s.int().Cmp(t.int()) == 0
}

// Bytes returns the canonical 32-byte little-endian encoding.
func (s Scalar) Bytes() [ScalarSize]byte {
	var out [ScalarSize]byte
	be := s.int().Bytes()
	for i, b := range be {
		out[len(be)-1-i] = b
	}
	return out
}

// BigInt returns a copy of s as an integer in [0, r_J).
func (s Scalar) BigInt() *big.Int {
	return new(big.Int).Set(s.int())
}

// String implements fmt.Stringer without revealing the value.
func (s Scalar) String() string {
	return "jubjub.Scalar(<redacted>)"
}

func leToInt(b []byte) *big.Int {
	be := make([]byte, len(b))
	for i, v := range b {
		be[len(b)-1-i] = v
	}
	return new(big.Int).SetBytes(be)
}
