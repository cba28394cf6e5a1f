// Package builder assembles, proves and signs BitcoinZ v4 Sapling
// transactions.
//
// A Builder is single-use. Inputs and outputs are added while it is
// collecting; Build then drives it through proving, provisional
// serialization, sighash computation and signing to a finalized
// transaction. The first failure moves it to Failed and nothing is retried.
package builder

import (
	"context"
	"encoding/hex"
	"io"
	"time"

	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"go.uber.org/zap"

	"github.com/suffix-labs/btcz-shielded/pkg/crypto"
	"github.com/suffix-labs/btcz-shielded/pkg/jubjub"
	"github.com/suffix-labs/btcz-shielded/pkg/params"
	"github.com/suffix-labs/btcz-shielded/pkg/sapling"
	"github.com/suffix-labs/btcz-shielded/pkg/txerr"
	"github.com/suffix-labs/btcz-shielded/pkg/wire"
)

// MaxMoney is the largest amount, in zatoshis, any value may take.
const MaxMoney = uint64(21_000_000_000) * 100_000_000

// Result is a finalized transaction.
type Result struct {
	Tx              *wire.Transaction
	Raw             []byte
	TxID            chainhash.Hash
	ShieldedSighash [32]byte // signed by the binding and spend authorization signatures
	Fee             uint64
	Change          uint64 // value of the change output, 0 if none
}

// Builder builds one transaction.
type Builder struct {
	net    *params.Network
	height uint32
	prover sapling.Prover

	encrypter     sapling.NoteEncrypter
	logger        *zap.Logger
	metrics       *Metrics
	entropy       io.Reader
	sighashPolicy crypto.SighashPolicy
	bindingPolicy BindingSigPolicy
	basepoint     jubjub.Point
	expiryHeight  *uint32
	expiryDelta   uint32
	lockTime      uint32

	state        State
	tIns         []transparentInput
	tOuts        []wire.TxOut
	spends       []sapling.SpendInput
	outputs      []sapling.OutputInput
	changeScript []byte
}

// New returns a builder for a transaction mined at or after height on net.
// prover may be nil when the transaction has no shielded components.
func New(net *params.Network, height uint32, prover sapling.Prover, opts ...Option) *Builder {
	b := &Builder{
		net:       net,
		height:    height,
		prover:    prover,
		encrypter: sapling.NoteEncryptor{},
		logger:    zap.NewNop(),
		basepoint: jubjub.SaplingGenerators().ValueCommitmentRandomness,
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// State returns the builder's current state.
func (b *Builder) State() State {
	return b.state
}

func (b *Builder) collect(what string) error {
	if !b.state.acceptsInputs() {
		return txerr.New(txerr.InvalidState, "cannot add %s in state %s", what, b.state)
	}
	if b.state == Empty {
		b.transition(CollectingInputs)
	}
	return nil
}

// amountSum adds amounts, flagging a total above MaxMoney.
type amountSum struct {
	v        uint64
	overflow bool
}

func (s *amountSum) add(v uint64) {
	if v > MaxMoney || s.v > MaxMoney-v {
		s.overflow = true
		return
	}
	s.v += v
}

func checkAmount(v uint64, what string) error {
	if v > MaxMoney {
		return txerr.New(txerr.InvalidInput, "%s of %d exceeds the money supply", what, v)
	}
	return nil
}

// AddTransparentInput adds a P2PKH coin spent with key. Ownership of the
// coin is checked by Build.
func (b *Builder) AddTransparentInput(prevOut wire.OutPoint, value uint64, scriptPubKey []byte, key *crypto.PrivateKey) error {
	if err := b.collect("transparent input"); err != nil {
		return err
	}
	if key == nil {
		return txerr.New(txerr.InvalidInput, "transparent input has no key")
	}
	if err := checkAmount(value, "input value"); err != nil {
		return err
	}
	in := transparentInput{
		prevOut:      prevOut,
		value:        value,
		scriptPubKey: append([]byte(nil), scriptPubKey...),
		sequence:     wire.DefaultSequence,
		key:          key,
	}
	b.tIns = append(b.tIns, in)
	return nil
}

// AddTransparentOutput pays value to scriptPubKey.
func (b *Builder) AddTransparentOutput(scriptPubKey []byte, value uint64) error {
	if err := b.collect("transparent output"); err != nil {
		return err
	}
	if len(scriptPubKey) == 0 {
		return txerr.New(txerr.InvalidInput, "transparent output has an empty script")
	}
	if err := checkAmount(value, "output value"); err != nil {
		return err
	}
	b.tOuts = append(b.tOuts, wire.TxOut{Value: value, ScriptPubKey: append([]byte(nil), scriptPubKey...)})
	return nil
}

// AddSaplingSpend adds a note to spend. The witness is checked while
// proving.
func (b *Builder) AddSaplingSpend(in *sapling.SpendInput) error {
	if err := b.collect("sapling spend"); err != nil {
		return err
	}
	if in == nil || in.Key == nil {
		return txerr.New(txerr.InvalidInput, "sapling spend has no spending key")
	}
	if err := checkAmount(in.Note.Value, "note value"); err != nil {
		return err
	}
	b.spends = append(b.spends, *in)
	return nil
}

// AddSaplingOutput pays value to a shielded address. A nil ovk makes the
// output unrecoverable by the sender.
func (b *Builder) AddSaplingOutput(ovk *sapling.OutgoingViewingKey, to sapling.PaymentAddress, value uint64, memo *sapling.Memo) error {
	if err := b.collect("sapling output"); err != nil {
		return err
	}
	if err := checkAmount(value, "output value"); err != nil {
		return err
	}
	b.outputs = append(b.outputs, sapling.OutputInput{Ovk: ovk, Recipient: to, Value: value, Memo: memo})
	return nil
}

// SetChangeScript sends any excess of inputs over outputs and fee to
// scriptPubKey as a final transparent output.
func (b *Builder) SetChangeScript(scriptPubKey []byte) error {
	if err := b.collect("change destination"); err != nil {
		return err
	}
	if len(scriptPubKey) == 0 {
		return txerr.New(txerr.InvalidInput, "change script is empty")
	}
	b.changeScript = append([]byte(nil), scriptPubKey...)
	return nil
}

// Build runs the remaining stages and returns the finalized transaction.
// It may be called once.
func (b *Builder) Build(ctx context.Context, fee uint64) (*Result, error) {
	if b.state != CollectingInputs {
		return nil, txerr.New(txerr.InvalidState, "cannot build in state %s", b.state)
	}

	start := time.Now()
	res, err := b.build(ctx, fee)
	b.metrics.observeBuild(err, time.Since(start))
	if err != nil {
		b.logger.Debug("build failed", zap.Stringer("state", b.state), zap.Error(err))
		b.state = Failed
		return nil, err
	}
	b.transition(Finalized)
	return res, nil
}

// run executes one stage, tagging its errors with the stage name.
func (b *Builder) run(s State, kind txerr.Kind, fn func() error) error {
	b.transition(s)
	start := time.Now()
	err := fn()
	b.metrics.observeStage(s, time.Since(start))
	return txerr.WithStage(err, s.String(), kind)
}

func (b *Builder) transition(s State) {
	b.logger.Debug("builder state", zap.Stringer("from", b.state), zap.Stringer("to", s))
	b.state = s
}

// buildState holds the state threaded through the stages.
type buildState struct {
	branchID     uint32
	valueBalance int64
	change       uint64
	rng          *keystream

	spends  []*sapling.BuiltSpend
	outputs []*sapling.BuiltOutput
	acc     sapling.BindingKeyAccumulator

	tx              *wire.Transaction
	sighash         *crypto.SighashComputer
	shieldedSighash [32]byte
	bindingKey      crypto.BindingKey
	engine          *crypto.BindingSignatureEngine
}

func (b *Builder) build(ctx context.Context, fee uint64) (*Result, error) {
	st := &buildState{}

	if err := b.run(CollectingInputs, txerr.InvalidInput, func() error { return b.balance(st, fee) }); err != nil {
		return nil, err
	}
	if err := b.run(Proving, txerr.ProofGenerationFailure, func() error { return b.prove(ctx, st) }); err != nil {
		return nil, err
	}
	if err := b.run(SerializingProvisional, txerr.SerializationFailure, func() error { return b.assemble(st) }); err != nil {
		return nil, err
	}
	if err := b.run(ComputingSighash, txerr.SerializationFailure, func() error {
		st.sighash = crypto.NewSighashComputer(st.tx, st.branchID, b.sighashPolicy)
		st.shieldedSighash = st.sighash.ShieldedSighash()
		b.logger.Debug("shielded sighash", zap.String("sighash", hex.EncodeToString(st.shieldedSighash[:])))
		return nil
	}); err != nil {
		return nil, err
	}
	if err := b.run(SigningBinding, txerr.SigningFailure, func() error { return b.signShielded(st) }); err != nil {
		return nil, err
	}
	if err := b.run(SigningTransparent, txerr.SigningFailure, func() error { return b.signTransparent(st) }); err != nil {
		return nil, err
	}

	raw, err := b.finalize(st)
	if err != nil {
		return nil, err
	}
	res := &Result{
		Tx:              st.tx,
		Raw:             raw,
		TxID:            chainhash.DoubleHashH(raw),
		ShieldedSighash: st.shieldedSighash,
		Fee:             fee,
		Change:          st.change,
	}
	b.logger.Debug("transaction built",
		zap.Stringer("txid", res.TxID),
		zap.Int("size", len(raw)),
		zap.Int64("value_balance", st.valueBalance),
		zap.Uint64("fee", fee),
	)
	return res, nil
}

// balance checks the build is well formed and computes the value balance
// and change.
func (b *Builder) balance(st *buildState, fee uint64) error {
	branchID, err := b.net.SighashBranchID(b.height)
	if err != nil {
		return err
	}
	st.branchID = branchID

	if len(b.tIns)+len(b.spends) == 0 {
		return txerr.New(txerr.InvalidInput, "transaction has no inputs")
	}
	if (len(b.spends) > 0 || len(b.outputs) > 0) && b.prover == nil {
		return txerr.New(txerr.InvalidInput, "shielded components need a prover")
	}
	if err := checkAmount(fee, "fee"); err != nil {
		return err
	}
	for i := range b.tIns {
		if err := b.tIns[i].checkOwnership(b.net); err != nil {
			return err
		}
	}

	var tIn, zIn, tOut, zOut amountSum
	for _, in := range b.tIns {
		tIn.add(in.value)
	}
	for _, sp := range b.spends {
		zIn.add(sp.Note.Value)
	}
	for _, out := range b.tOuts {
		tOut.add(out.Value)
	}
	for _, out := range b.outputs {
		zOut.add(out.Value)
	}
	for _, total := range []amountSum{tIn, zIn, tOut, zOut} {
		if total.overflow {
			return txerr.New(txerr.InvalidInput, "amounts sum past the money supply")
		}
	}

	st.valueBalance = int64(zIn.v) - int64(zOut.v)

	in, out := tIn.v+zIn.v, tOut.v+zOut.v+fee
	if in < out {
		return txerr.New(txerr.InsufficientFunds, "inputs of %d do not cover outputs and fee of %d", in, out)
	}
	if excess := in - out; excess > 0 {
		if b.changeScript == nil {
			return txerr.New(txerr.InvalidInput, "%d zatoshis of excess have no change destination", excess)
		}
		st.change = excess
	}

	b.logger.Debug("balanced",
		zap.Int("transparent_inputs", len(b.tIns)),
		zap.Int("transparent_outputs", len(b.tOuts)),
		zap.Int("sapling_spends", len(b.spends)),
		zap.Int("sapling_outputs", len(b.outputs)),
		zap.Int64("value_balance", st.valueBalance),
		zap.Uint64("change", st.change),
	)
	return nil
}

// prove builds every spend and output description and accumulates bsk.
func (b *Builder) prove(ctx context.Context, st *buildState) error {
	rng, err := newKeystream(b.entropy)
	if err != nil {
		return txerr.Wrap(txerr.ProofGenerationFailure, err, "randomness")
	}
	st.rng = rng

	db := &sapling.DescriptionBuilder{
		Prover:      b.prover,
		Encrypter:   b.encrypter,
		AfterZip212: b.net.AfterZip212(b.height),
	}
	for i := range b.spends {
		sp, err := db.BuildSpend(ctx, &b.spends[i], rng)
		if err != nil {
			return err
		}
		st.acc.AddSpend(sp.Rcv)
		st.spends = append(st.spends, sp)
	}
	for i := range b.outputs {
		out, err := db.BuildOutput(ctx, &b.outputs[i], rng)
		if err != nil {
			return err
		}
		st.acc.AddOutput(out.Rcv)
		st.outputs = append(st.outputs, out)
	}
	return nil
}

// assemble lays out the unsigned transaction.
func (b *Builder) assemble(st *buildState) error {
	tx := wire.NewTransaction()
	tx.LockTime = b.lockTime
	if b.expiryHeight != nil {
		tx.ExpiryHeight = *b.expiryHeight
	} else {
		tx.ExpiryHeight = b.net.ExpiryHeight(b.height, b.expiryDelta)
	}
	tx.ValueBalance = st.valueBalance

	for _, in := range b.tIns {
		tx.Inputs = append(tx.Inputs, wire.TxIn{PrevOut: in.prevOut, Sequence: in.sequence})
	}
	tx.Outputs = append(tx.Outputs, b.tOuts...)
	if st.change > 0 {
		tx.Outputs = append(tx.Outputs, wire.TxOut{Value: st.change, ScriptPubKey: b.changeScript})
	}
	for _, sp := range st.spends {
		tx.ShieldedSpends = append(tx.ShieldedSpends, sp.Description)
	}
	for _, out := range st.outputs {
		tx.ShieldedOutputs = append(tx.ShieldedOutputs, out.Description)
	}
	if tx.HasShielded() || b.bindingPolicy != OmitBindingSig {
		tx.BindingSig = new([wire.SignatureSize]byte)
	}
	st.tx = tx

	raw, err := tx.Bytes()
	if err != nil {
		return txerr.Wrap(txerr.SerializationFailure, err, "provisional encoding")
	}
	b.logger.Debug("provisional transaction", zap.Int("size", len(raw)))
	return nil
}

// signShielded adds the spend authorization signatures and the binding
// signature.
func (b *Builder) signShielded(st *buildState) error {
	tx := st.tx
	for i, sp := range st.spends {
		if err := sapling.SignSpend(st.rng, sp, st.shieldedSighash); err != nil {
			return err
		}
		tx.ShieldedSpends[i].SpendAuthSig = sp.Description.SpendAuthSig
	}

	st.engine = crypto.NewBindingSignatureEngine(b.basepoint)
	if !tx.HasShielded() {
		switch b.bindingPolicy {
		case OmitBindingSig:
			tx.BindingSig = nil
			return nil
		case ZeroBindingSig:
			tx.BindingSig = new([wire.SignatureSize]byte)
			return nil
		}
	}

	st.bindingKey = st.engine.Finalize(st.acc.Bsk())
	if !crypto.CheckValueBalance(b.generators(), b.spendCVs(st), b.outputCVs(st), st.valueBalance, st.bindingKey.Bvk) {
		return txerr.New(txerr.SigningFailure, "value commitments do not balance against the binding key")
	}
	sig, err := st.engine.Sign(st.rng, st.bindingKey, st.shieldedSighash)
	if err != nil {
		return txerr.Wrap(txerr.SigningFailure, err, "binding signature")
	}
	tx.BindingSig = &sig
	return nil
}

func (b *Builder) generators() jubjub.Generators {
	g := jubjub.SaplingGenerators()
	g.ValueCommitmentRandomness = b.basepoint
	return g
}

func (b *Builder) spendCVs(st *buildState) []jubjub.Point {
	cvs := make([]jubjub.Point, len(st.spends))
	for i, sp := range st.spends {
		cvs[i] = sp.CV
	}
	return cvs
}

func (b *Builder) outputCVs(st *buildState) []jubjub.Point {
	cvs := make([]jubjub.Point, len(st.outputs))
	for i, out := range st.outputs {
		cvs[i] = out.CV
	}
	return cvs
}

// signTransparent signs every transparent input with SIGHASH_ALL.
func (b *Builder) signTransparent(st *buildState) error {
	for i := range b.tIns {
		in := &b.tIns[i]
		h, err := st.sighash.TransparentSighash(&crypto.TransparentInput{
			Index:      i,
			ScriptCode: in.scriptPubKey,
			Value:      in.value,
		}, crypto.SighashAll)
		if err != nil {
			return txerr.Wrap(txerr.SigningFailure, err, "input %d", i)
		}
		scriptSig, err := in.sign(h, crypto.SighashAll)
		if err != nil {
			return txerr.Wrap(txerr.SigningFailure, err, "input %d", i)
		}
		st.tx.Inputs[i].ScriptSig = scriptSig
	}
	return nil
}

// finalize re-verifies every signature, encodes the transaction and checks
// the encoding parses back.
func (b *Builder) finalize(st *buildState) ([]byte, error) {
	tx := st.tx
	for i := range tx.ShieldedSpends {
		if !sapling.VerifySpend(&tx.ShieldedSpends[i], st.shieldedSighash) {
			return nil, txerr.New(txerr.SigningFailure, "spend %d authorization signature does not verify", i)
		}
	}
	if tx.HasShielded() || b.bindingPolicy == ComputedBindingSig {
		if tx.BindingSig == nil || !st.engine.Verify(st.bindingKey.Bvk, st.shieldedSighash, *tx.BindingSig) {
			return nil, txerr.New(txerr.SigningFailure, "binding signature does not verify")
		}
	}

	raw, err := tx.Bytes()
	if err != nil {
		return nil, txerr.Wrap(txerr.SerializationFailure, err, "final encoding")
	}
	if _, err := wire.ParseTransaction(raw); err != nil {
		return nil, txerr.Wrap(txerr.SerializationFailure, err, "final encoding does not parse")
	}
	return raw, nil
}
