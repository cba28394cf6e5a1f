package sapling

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"

	blake2b "github.com/minio/blake2b-simd"
	"golang.org/x/crypto/chacha20poly1305"

	"github.com/suffix-labs/btcz-shielded/pkg/jubjub"
	"github.com/suffix-labs/btcz-shielded/pkg/wire"
)

// Personalizations for note encryption key derivation.
const (
	KDFPersonalization               = "Zcash_SaplingKDF"
	OutgoingCipherKeyPersonalization = "Zcash_Derive_ock"
)

const (
	notePlaintextSize = 1 + DiversifierSize + 8 + 32 + MemoSize // 564
	outPlaintextSize  = 32 + 32                                 // pk_d || esk

	leadBytePreZip212   = 0x01
	leadByteAfterZip212 = 0x02
)

var zeroNonce [chacha20poly1305.NonceSize]byte

// ErrDecryption is returned when a ciphertext does not decrypt under the key.
var ErrDecryption = errors.New("sapling: note decryption failed")

// NoteEncryptor is the Sapling NoteEncrypter: ChaCha20-Poly1305 under keys
// derived with BLAKE2b from a Jubjub Diffie-Hellman exchange.
type NoteEncryptor struct{}

// NewNoteEncryption prepares the encryption of note. After ZIP 212 esk is
// derived from the note's rseed; before, it is drawn from rng.
func (NoteEncryptor) NewNoteEncryption(ovk *OutgoingViewingKey, note *Note, memo *Memo, rng io.Reader) (NoteEncryption, error) {
	esk, ok := note.Rseed.Esk()
	if !ok {
		var err error
		if esk, err = jubjub.RandomScalar(rng); err != nil {
			return nil, err
		}
	}
	if memo == nil {
		memo = &EmptyMemo
	}
	return &saplingNoteEncryption{
		ovk:  ovk,
		note: *note,
		memo: *memo,
		esk:  esk,
		epk:  note.Recipient.Gd.Mul(esk),
		rng:  rng,
	}, nil
}

type saplingNoteEncryption struct {
	ovk  *OutgoingViewingKey
	note Note
	memo Memo
	esk  jubjub.Scalar
	epk  jubjub.Point
	rng  io.Reader
}

func (ne *saplingNoteEncryption) Esk() jubjub.Scalar               { return ne.esk }
func (ne *saplingNoteEncryption) EphemeralPublicKey() jubjub.Point { return ne.epk }

func (ne *saplingNoteEncryption) EncryptNotePlaintext() ([wire.EncCiphertextSize]byte, error) {
	var out [wire.EncCiphertextSize]byte

	shared := ne.note.Recipient.PkD.Mul(ne.esk).MulByCofactor()
	key := kdfSapling(shared, ne.epk)

	pt := encodeNotePlaintext(&ne.note, &ne.memo)
	ct, err := seal(key[:], pt)
	if err != nil {
		return out, err
	}
	copy(out[:], ct)
	return out, nil
}

func (ne *saplingNoteEncryption) EncryptOutgoingPlaintext(cv jubjub.Point, cmu [32]byte) ([wire.OutCiphertextSize]byte, error) {
	var out [wire.OutCiphertextSize]byte

	var ock [32]byte
	pt := make([]byte, outPlaintextSize)
	if ne.ovk == nil {
		// unrecoverable: random key over random plaintext
		if _, err := io.ReadFull(ne.rng, ock[:]); err != nil {
			return out, fmt.Errorf("reading ock: %w", err)
		}
		if _, err := io.ReadFull(ne.rng, pt); err != nil {
			return out, fmt.Errorf("reading outgoing plaintext: %w", err)
		}
	} else {
		ock = deriveOck(ne.ovk, cv, cmu, ne.epk)
		pkd := ne.note.Recipient.PkD.LegacyBytes()
		esk := ne.esk.Bytes()
		copy(pt[:32], pkd[:])
		copy(pt[32:], esk[:])
	}

	ct, err := seal(ock[:], pt)
	if err != nil {
		return out, err
	}
	copy(out[:], ct)
	return out, nil
}

// DecryptedNote is the content recovered from a note ciphertext.
type DecryptedNote struct {
	Diversifier Diversifier
	Value       uint64
	Rseed       Rseed
	Memo        Memo
}

// TryDecryptNote decrypts an output's note ciphertext with the recipient's
// incoming viewing key.
func TryDecryptNote(ivk jubjub.Scalar, epk jubjub.Point, enc *[wire.EncCiphertextSize]byte) (*DecryptedNote, error) {
	shared := epk.Mul(ivk).MulByCofactor()
	return decryptNote(kdfSapling(shared, epk), enc)
}

// TryRecoverOutgoing decrypts an output with the sender's outgoing viewing
// key and returns the note and the recipient's pk_d.
func TryRecoverOutgoing(ovk *OutgoingViewingKey, cv jubjub.Point, cmu [32]byte, epk jubjub.Point,
	enc *[wire.EncCiphertextSize]byte, out *[wire.OutCiphertextSize]byte) (*DecryptedNote, jubjub.Point, error) {

	ock := deriveOck(ovk, cv, cmu, epk)
	op, err := open(ock[:], out[:])
	if err != nil {
		return nil, jubjub.Point{}, err
	}

	var pkdBytes, eskBytes [32]byte
	copy(pkdBytes[:], op[:32])
	copy(eskBytes[:], op[32:])
	pkd, err := jubjub.PointFromLegacyBytes(pkdBytes)
	if err != nil {
		return nil, jubjub.Point{}, fmt.Errorf("%w: bad pk_d: %v", ErrDecryption, err)
	}
	esk, err := jubjub.ScalarFromBytes(eskBytes)
	if err != nil {
		return nil, jubjub.Point{}, fmt.Errorf("%w: bad esk: %v", ErrDecryption, err)
	}

	shared := pkd.Mul(esk).MulByCofactor()
	note, err := decryptNote(kdfSapling(shared, epk), enc)
	if err != nil {
		return nil, jubjub.Point{}, err
	}
	return note, pkd, nil
}

func decryptNote(key [32]byte, enc *[wire.EncCiphertextSize]byte) (*DecryptedNote, error) {
	pt, err := open(key[:], enc[:])
	if err != nil {
		return nil, err
	}

	n := &DecryptedNote{}
	switch pt[0] {
	case leadBytePreZip212:
	case leadByteAfterZip212:
		n.Rseed.AfterZip212 = true
	default:
		return nil, fmt.Errorf("%w: unknown lead byte 0x%02x", ErrDecryption, pt[0])
	}
	off := 1
	copy(n.Diversifier[:], pt[off:off+DiversifierSize])
	off += DiversifierSize
	n.Value = binary.LittleEndian.Uint64(pt[off:])
	off += 8
	copy(n.Rseed.Bytes[:], pt[off:off+32])
	off += 32
	copy(n.Memo[:], pt[off:])
	return n, nil
}

func encodeNotePlaintext(note *Note, memo *Memo) []byte {
	pt := make([]byte, 0, notePlaintextSize)
	if note.Rseed.AfterZip212 {
		pt = append(pt, leadByteAfterZip212)
	} else {
		pt = append(pt, leadBytePreZip212)
	}
	pt = append(pt, note.Recipient.Diversifier[:]...)
	pt = binary.LittleEndian.AppendUint64(pt, note.Value)
	pt = append(pt, note.Rseed.Bytes[:]...)
	pt = append(pt, memo[:]...)
	return pt
}

// kdfSapling = BLAKE2b-256("Zcash_SaplingKDF", repr(shared) || repr(epk)).
func kdfSapling(shared, epk jubjub.Point) [32]byte {
	s := shared.LegacyBytes()
	e := epk.LegacyBytes()
	return blake2b256(KDFPersonalization, s[:], e[:])
}

// deriveOck = BLAKE2b-256("Zcash_Derive_ock", ovk || cv || cmu || epk).
func deriveOck(ovk *OutgoingViewingKey, cv jubjub.Point, cmu [32]byte, epk jubjub.Point) [32]byte {
	c := cv.LegacyBytes()
	e := epk.LegacyBytes()
	return blake2b256(OutgoingCipherKeyPersonalization, ovk[:], c[:], cmu[:], e[:])
}

func blake2b256(person string, parts ...[]byte) [32]byte {
	h, err := blake2b.New(&blake2b.Config{Size: 32, Person: []byte(person)})
	if err != nil {
		panic(err)
	}
	for _, p := range parts {
		h.Write(p)
	}
	var out [32]byte
	copy(out[:], h.Sum(nil))
	return out
}

func seal(key, plaintext []byte) ([]byte, error) {
	aead, err := chacha20poly1305.New(key)
	if err != nil {
		return nil, err
	}
	return aead.Seal(nil, zeroNonce[:], plaintext, nil), nil
}

func open(key, ciphertext []byte) ([]byte, error) {
	aead, err := chacha20poly1305.New(key)
	if err != nil {
		return nil, err
	}
	pt, err := aead.Open(nil, zeroNonce[:], ciphertext, nil)
	if err != nil {
		return nil, ErrDecryption
	}
	return pt, nil
}
