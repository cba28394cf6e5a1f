package sapling

import (
	"fmt"
	"io"

	"github.com/suffix-labs/btcz-shielded/pkg/jubjub"
)

// MerkleDepth is the depth of the Sapling note commitment tree.
const MerkleDepth = 32

// MemoSize is the length of a note memo.
const MemoSize = 512

// Memo is the 512-byte memo field of a note.
type Memo [MemoSize]byte

// EmptyMemo is the "no memo" encoding: 0xF6 followed by zeros.
var EmptyMemo = Memo{0xf6}

// NewTextMemo encodes s as a UTF-8 memo padded with zeros.
func NewTextMemo(s string) (Memo, error) {
	var m Memo
	if len(s) > MemoSize {
		return m, fmt.Errorf("memo is %d bytes, limit is %d", len(s), MemoSize)
	}
	if len(s) > 0 && s[0] >= 0xf5 {
		return m, fmt.Errorf("memo may not start with byte 0x%02x", s[0])
	}
	copy(m[:], s)
	return m, nil
}

// Rseed is the note randomness. After ZIP 212 it is a 32-byte seed from
// which rcm and esk are derived; before, it is rcm itself.
type Rseed struct {
	AfterZip212 bool
	Bytes       [32]byte
}

// NewRseed draws a fresh rseed from rng.
func NewRseed(rng io.Reader, afterZip212 bool) (Rseed, error) {
	rs := Rseed{AfterZip212: afterZip212}
	if afterZip212 {
		if _, err := io.ReadFull(rng, rs.Bytes[:]); err != nil {
			return rs, fmt.Errorf("reading rseed: %w", err)
		}
		return rs, nil
	}
	rcm, err := jubjub.RandomScalar(rng)
	if err != nil {
		return rs, err
	}
	rs.Bytes = rcm.Bytes()
	return rs, nil
}

// Rcm returns the note commitment randomness.
func (rs Rseed) Rcm() (jubjub.Scalar, error) {
	if rs.AfterZip212 {
		return jubjub.ScalarFromWide(prfExpand(rs.Bytes[:], prfExpandRcm)), nil
	}
	return jubjub.ScalarFromBytes(rs.Bytes)
}

// Esk returns the ephemeral secret derived from the seed. ok is false
// before ZIP 212, where esk is drawn independently.
func (rs Rseed) Esk() (esk jubjub.Scalar, ok bool) {
	if !rs.AfterZip212 {
		return jubjub.Scalar{}, false
	}
	return jubjub.ScalarFromWide(prfExpand(rs.Bytes[:], prfExpandEsk)), true
}

// Note is a Sapling note.
type Note struct {
	Recipient PaymentAddress
	Value     uint64
	Rseed     Rseed
}

// MerklePath is the authentication path of a note commitment.
type MerklePath struct {
	AuthPath [][32]byte // sibling hashes, leaf to root
	Position uint64     // leaf index
}

// Validate checks the path has exactly MerkleDepth levels and the position
// fits in the tree.
func (p *MerklePath) Validate() error {
	if len(p.AuthPath) != MerkleDepth {
		return fmt.Errorf("merkle path has depth %d, want %d", len(p.AuthPath), MerkleDepth)
	}
	if p.Position >= 1<<MerkleDepth {
		return fmt.Errorf("merkle path position %d exceeds tree size", p.Position)
	}
	return nil
}
