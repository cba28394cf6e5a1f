package crypto

import (
	"io"

	blake2b "github.com/minio/blake2b-simd"

	"github.com/suffix-labs/btcz-shielded/pkg/jubjub"
)

// RedJubjubHashPersonalization personalizes H*, the RedJubjub challenge hash.
const RedJubjubHashPersonalization = "Zcash_RedJubjubH"

// SignatureSize is the byte length of a RedJubjub signature: Rbar || Sbar.
const SignatureSize = 64

// hashStar computes H*(parts...) = BLAKE2b-512("Zcash_RedJubjubH", parts)
// interpreted as a little-endian integer mod r_J.
func hashStar(parts ...[]byte) jubjub.Scalar {
	h, err := blake2b.New(&blake2b.Config{Size: 64, Person: []byte(RedJubjubHashPersonalization)})
	if err != nil {
		panic(err)
	}
	for _, p := range parts {
		h.Write(p)
	}
	return jubjub.ScalarFromWide(h.Sum(nil))
}

// SignRedJubjub signs msg with sk over the given basepoint.
//
//	T <- 80 random bytes
//	r = H*(T || msg)
//	R = [r]base, Rbar = legacy(R)
//	S = r + H*(Rbar || msg) * sk
//
// The signature is Rbar || LE(S).
func SignRedJubjub(rng io.Reader, sk jubjub.Scalar, base jubjub.Point, msg []byte) ([SignatureSize]byte, error) {
	var sig [SignatureSize]byte

	var t [80]byte
	if _, err := io.ReadFull(rng, t[:]); err != nil {
		return sig, &SignatureError{Scheme: "redjubjub", Message: "reading nonce randomness", Cause: err}
	}

	r := hashStar(t[:], msg)
	rBar := base.Mul(r).LegacyBytes()
	c := hashStar(rBar[:], msg)
	s := r.Add(c.Mul(sk))

	sBar := s.Bytes()
	copy(sig[:32], rBar[:])
	copy(sig[32:], sBar[:])
	return sig, nil
}

// VerifyRedJubjub checks sig against vk over the given basepoint:
// [8]([S]base - R - [c]vk) == identity.
func VerifyRedJubjub(vk jubjub.Point, base jubjub.Point, msg []byte, sig [SignatureSize]byte) bool {
	var rBar, sBar [32]byte
	copy(rBar[:], sig[:32])
	copy(sBar[:], sig[32:])

	r, err := jubjub.PointFromLegacyBytes(rBar)
	if err != nil {
		return false
	}
	s, err := jubjub.ScalarFromBytes(sBar)
	if err != nil {
		return false
	}

	c := hashStar(rBar[:], msg)
	check := base.Mul(s).Sub(r).Sub(vk.Mul(c))
	return check.MulByCofactor().IsIdentity()
}
