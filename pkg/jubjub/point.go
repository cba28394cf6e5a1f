// Package jubjub provides the Jubjub curve arithmetic used by Sapling.
//
// Jubjub is the twisted Edwards curve -u^2 + v^2 = 1 + d*u^2*v^2 over the
// BLS12-381 scalar field. The arithmetic is delegated to gnark-crypto's
// bls12-381/twistededwards package, which implements the same curve.
//
// Two point encodings are provided:
//   - legacy: v little-endian with the parity of u in bit 255. This is the
//     encoding written to the wire by the BitcoinZ chain.
//   - modern: gnark's RFC 8032 style encoding, where bit 255 flags the
//     lexicographically largest u. It is not byte-compatible with legacy.
package jubjub

import (
	"errors"

	"github.com/consensys/gnark-crypto/ecc/bls12-381/fr"
	"github.com/consensys/gnark-crypto/ecc/bls12-381/twistededwards"
)

// ErrNotOnCurve is returned when coordinates do not satisfy the curve equation.
var ErrNotOnCurve = errors.New("jubjub: point not on curve")

// Point is an affine Jubjub point. The zero value is not a valid point;
// use Identity.
type Point struct {
	p twistededwards.PointAffine
}

// Identity returns the neutral element (0, 1).
func Identity() Point {
	var p Point
	p.p.X.SetZero()
	p.p.Y.SetOne()
	return p
}

// NewPoint returns the point (u, v) after checking it lies on the curve.
func NewPoint(u, v fr.Element) (Point, error) {
	p := Point{p: twistededwards.NewPointAffine(u, v)}
	if !p.p.IsOnCurve() {
		return Point{}, ErrNotOnCurve
	}
	return p, nil
}

// Coordinates returns (u, v).
func (p Point) Coordinates() (u, v fr.Element) {
	return p.p.X, p.p.Y
}

// Add returns p + q.
func (p Point) Add(q Point) Point {
	var r Point
	r.p.Add(&p.p, &q.p)
	return r
}

// Sub returns p - q.
func (p Point) Sub(q Point) Point {
	return p.Add(q.Neg())
}

// Neg returns -p.
func (p Point) Neg() Point {
	var r Point
	r.p.Neg(&p.p)
	return r
}

// Double returns 2p.
func (p Point) Double() Point {
	var r Point
	r.p.Double(&p.p)
	return r
}

// Mul returns [s]p.
func (p Point) Mul(s Scalar) Point {
	var r Point
	r.p.ScalarMultiplication(&p.p, s.int())
	return r
}

// MulByCofactor returns [8]p.
func (p Point) MulByCofactor() Point {
	return p.Double().Double().Double()
}

// Equal reports whether p and q are the same point.
func (p Point) Equal(q Point) bool {
	return p.p.Equal(&q.p)
}

// IsIdentity reports whether p is the neutral element.
func (p Point) IsIdentity() bool {
	return p.p.IsZero()
}

// IsOnCurve reports whether p satisfies the curve equation.
func (p Point) IsOnCurve() bool {
	return p.p.IsOnCurve()
}

// IsSmallOrder reports whether p has order dividing the cofactor, i.e.
// three doublings reach the identity.
func (p Point) IsSmallOrder() bool {
	return p.MulByCofactor().IsIdentity()
}

// IsPrimeOrder reports whether p is a non-identity element of the
// prime-order subgroup.
func (p Point) IsPrimeOrder() bool {
	if p.IsIdentity() {
		return false
	}
	var r twistededwards.PointAffine
	r.ScalarMultiplication(&p.p, order)
	return r.IsZero()
}
