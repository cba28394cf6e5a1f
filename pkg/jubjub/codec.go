package jubjub

import (
	"errors"
	"fmt"

	"github.com/consensys/gnark-crypto/ecc/bls12-381/fr"
	"github.com/consensys/gnark-crypto/ecc/bls12-381/twistededwards"
)

// PointSize is the byte length of an encoded point.
const PointSize = 32

var (
	// ErrNonCanonicalPoint is returned for encodings with v >= q or a sign
	// bit set on a point whose u is zero.
	ErrNonCanonicalPoint = errors.New("jubjub: non-canonical point encoding")
	// ErrNotOnCurvePoint is returned when no u satisfies the curve equation for v.
	ErrNotOnCurvePoint = errors.New("jubjub: encoding does not decode to a curve point")
)

var curve = twistededwards.GetEdwardsCurve()

// LegacyBytes returns the legacy encoding: v as four little-endian u64
// limbs with bit 63 of the last limb set iff u's low bit is set.
// The identity encodes as 01 00..00.
func (p Point) LegacyBytes() [PointSize]byte {
	var out [PointSize]byte
	fr.LittleEndian.PutElement(&out, p.p.Y)
	if p.p.X.Bits()[0]&1 == 1 {
		out[PointSize-1] |= 0x80
	}
	return out
}

// PointFromLegacyBytes decodes a legacy encoding. The result is on the curve
// but may have small order; callers that need the prime-order subgroup must
// check.
func PointFromLegacyBytes(b [PointSize]byte) (Point, error) {
	sign := b[PointSize-1] >> 7
	b[PointSize-1] &= 0x7f

	v, err := fr.LittleEndian.Element(&b)
	if err != nil {
		return Point{}, fmt.Errorf("%w: %v", ErrNonCanonicalPoint, err)
	}

	u, ok := recoverU(&v)
	if !ok {
		return Point{}, ErrNotOnCurvePoint
	}
	if u.IsZero() && sign == 1 {
		return Point{}, ErrNonCanonicalPoint
	}
	if byte(u.Bits()[0]&1) != sign {
		u.Neg(&u)
	}
	return Point{p: twistededwards.NewPointAffine(u, v)}, nil
}

// ModernBytes returns gnark's RFC 8032 style compressed encoding.
func (p Point) ModernBytes() [PointSize]byte {
	return p.p.Bytes()
}

// PointFromModernBytes decodes the encoding produced by ModernBytes.
func PointFromModernBytes(b [PointSize]byte) (Point, error) {
	var p Point
	if _, err := p.p.SetBytes(b[:]); err != nil {
		return Point{}, err
	}
	if !p.p.IsOnCurve() {
		return Point{}, ErrNotOnCurvePoint
	}
	if p.ModernBytes() != b {
		return Point{}, ErrNonCanonicalPoint
	}
	return p, nil
}

// recoverU solves a*u^2 + v^2 = 1 + d*u^2*v^2 for u, returning one root.
func recoverU(v *fr.Element) (fr.Element, bool) {
	var one, v2, num, den, u fr.Element
	one.SetOne()
	v2.Square(v)
	num.Sub(&one, &v2)
	den.Mul(&curve.D, &v2)
	den.Sub(&curve.A, &den)
	if den.IsZero() {
		return u, false
	}
	u.Div(&num, &den)
	if u.Sqrt(&u) == nil {
		return u, false
	}
	return u, true
}
