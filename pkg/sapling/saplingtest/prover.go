// Package saplingtest provides a Prover for tests. It returns random proof
// bytes but computes value commitments and randomized keys exactly as a real
// prover would, so binding and spend authorization signatures verify.
package saplingtest

import (
	"context"
	"crypto/rand"
	"encoding/binary"
	"io"
	"sync"

	blake2b "github.com/minio/blake2b-simd"

	"github.com/suffix-labs/btcz-shielded/pkg/jubjub"
	"github.com/suffix-labs/btcz-shielded/pkg/sapling"
)

// Prover is a fake sapling.Prover.
type Prover struct {
	// Generators used for value commitments. Zero value means Sapling's.
	Generators *jubjub.Generators

	// SpendErr and OutputErr, when set, are returned instead of a proof.
	SpendErr  error
	OutputErr error

	// CorruptCV makes the returned cv disagree with rcv.
	CorruptCV bool
	// SmallOrderCV returns the identity as cv.
	SmallOrderCV bool

	mu             sync.Mutex
	SpendRequests  []sapling.SpendProofRequest
	OutputRequests []sapling.OutputProofRequest
}

var _ sapling.Prover = (*Prover)(nil)

func (p *Prover) gens() jubjub.Generators {
	if p.Generators != nil {
		return *p.Generators
	}
	return jubjub.SaplingGenerators()
}

func (p *Prover) commit(value uint64, rcv jubjub.Scalar) jubjub.Point {
	switch {
	case p.SmallOrderCV:
		return jubjub.Identity()
	case p.CorruptCV:
		value++
	}
	return p.gens().ValueCommitment(jubjub.ScalarFromUint64(value), rcv)
}

// SpendProof implements sapling.Prover.
func (p *Prover) SpendProof(ctx context.Context, req *sapling.SpendProofRequest) (*sapling.SpendProof, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	p.mu.Lock()
	p.SpendRequests = append(p.SpendRequests, *req)
	p.mu.Unlock()
	if p.SpendErr != nil {
		return nil, p.SpendErr
	}

	res := &sapling.SpendProof{
		CV: p.commit(req.Value, req.Rcv),
		Rk: req.ProofGenerationKey.Ak.Add(jubjub.SaplingGenerators().SpendAuth.Mul(req.Alpha)),
	}
	if _, err := io.ReadFull(rand.Reader, res.Proof[:]); err != nil {
		return nil, err
	}
	return res, nil
}

// OutputProof implements sapling.Prover.
func (p *Prover) OutputProof(ctx context.Context, req *sapling.OutputProofRequest) (*sapling.OutputProof, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	p.mu.Lock()
	p.OutputRequests = append(p.OutputRequests, *req)
	p.mu.Unlock()
	if p.OutputErr != nil {
		return nil, p.OutputErr
	}

	res := &sapling.OutputProof{
		CV:  p.commit(req.Value, req.Rcv),
		Cmu: FakeCmu(&req.Recipient, req.Value, req.Rcm),
	}
	if _, err := io.ReadFull(rand.Reader, res.Proof[:]); err != nil {
		return nil, err
	}
	return res, nil
}

// FakeCmu derives a deterministic stand-in for the note commitment that is
// a canonical field element.
func FakeCmu(to *sapling.PaymentAddress, value uint64, rcm jubjub.Scalar) [32]byte {
	h := blake2b.New256()
	h.Write(to.Diversifier[:])
	pkd := to.PkD.LegacyBytes()
	h.Write(pkd[:])
	var v [8]byte
	binary.LittleEndian.PutUint64(v[:], value)
	h.Write(v[:])
	r := rcm.Bytes()
	h.Write(r[:])

	var cmu [32]byte
	copy(cmu[:], h.Sum(nil))
	cmu[31] &= 0x3f
	return cmu
}

// NewAddress returns a random payment address and its incoming viewing key.
func NewAddress(rng io.Reader) (sapling.PaymentAddress, jubjub.Scalar, error) {
	var addr sapling.PaymentAddress
	if _, err := io.ReadFull(rng, addr.Diversifier[:]); err != nil {
		return addr, jubjub.Scalar{}, err
	}
	gdScalar, err := jubjub.RandomScalar(rng)
	if err != nil {
		return addr, jubjub.Scalar{}, err
	}
	ivk, err := jubjub.RandomScalar(rng)
	if err != nil {
		return addr, jubjub.Scalar{}, err
	}
	addr.Gd = jubjub.SubgroupGenerator().Mul(gdScalar)
	addr.PkD = addr.Gd.Mul(ivk)
	return addr, ivk, nil
}

// NewWitness returns a depth-32 Merkle path with random siblings.
func NewWitness(rng io.Reader, position uint64) (sapling.MerklePath, error) {
	path := sapling.MerklePath{AuthPath: make([][32]byte, sapling.MerkleDepth), Position: position}
	for i := range path.AuthPath {
		if _, err := io.ReadFull(rng, path.AuthPath[i][:]); err != nil {
			return path, err
		}
	}
	return path, nil
}
