package builder

import (
	"io"

	"go.uber.org/zap"

	"github.com/suffix-labs/btcz-shielded/pkg/crypto"
	"github.com/suffix-labs/btcz-shielded/pkg/jubjub"
	"github.com/suffix-labs/btcz-shielded/pkg/sapling"
)

// Option configures a Builder.
type Option func(*Builder)

// WithLogger sets the logger for stage trace events. Secrets are never
// logged.
func WithLogger(logger *zap.Logger) Option {
	return func(b *Builder) {
		if logger != nil {
			b.logger = logger
		}
	}
}

// WithMetrics records build outcomes in m.
func WithMetrics(m *Metrics) Option {
	return func(b *Builder) { b.metrics = m }
}

// WithRand sets the entropy source the build's ChaCha20 stream is keyed
// from. The default is crypto/rand.
func WithRand(r io.Reader) Option {
	return func(b *Builder) { b.entropy = r }
}

// WithSighashPolicy sets the digest byte-order policy.
func WithSighashPolicy(p crypto.SighashPolicy) Option {
	return func(b *Builder) { b.sighashPolicy = p }
}

// WithBindingSigPolicy sets what transparent-only transactions carry in
// the binding signature field.
func WithBindingSigPolicy(p BindingSigPolicy) Option {
	return func(b *Builder) { b.bindingPolicy = p }
}

// WithBindingBasepoint replaces the generator binding keys are derived
// over. The prover must blind value commitments with the same generator.
func WithBindingBasepoint(p jubjub.Point) Option {
	return func(b *Builder) { b.basepoint = p }
}

// WithNoteEncrypter replaces the Sapling note encryption.
func WithNoteEncrypter(e sapling.NoteEncrypter) Option {
	return func(b *Builder) { b.encrypter = e }
}

// WithExpiryHeight sets an explicit expiry height.
func WithExpiryHeight(h uint32) Option {
	return func(b *Builder) { b.expiryHeight = &h }
}

// WithExpiryDelta sets the expiry relative to the build height.
func WithExpiryDelta(d uint32) Option {
	return func(b *Builder) { b.expiryDelta = d }
}

// WithLockTime sets nLockTime.
func WithLockTime(t uint32) Option {
	return func(b *Builder) { b.lockTime = t }
}
