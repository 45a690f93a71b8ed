package wallet

import (
	"crypto/hmac"
	"encoding/binary"

	"golang.org/x/crypto/sha3"

	"github.com/yiwen-ai/walletbase/internal/domain/entity"
	errs "github.com/yiwen-ai/walletbase/internal/domain/error"
)

// TagLen is the stored checksum length in bytes.
const TagLen = 8

// Signer computes the keyed tamper-evidence digest stored on every wallet
// row: HMAC-SHA3-256 over (uid, sequence, award, topup, income, txn),
// truncated to TagLen. Credits are deliberately outside the digest; the
// CreditLog is their audit trail.
type Signer struct {
	key [32]byte
}

// NewSigner creates a signer from the 32-byte checksum key.
func NewSigner(key [32]byte) *Signer {
	return &Signer{key: key}
}

// Tag computes the checksum for the wallet's current field values.
func (s *Signer) Tag(w *entity.Wallet) []byte {
	mac := hmac.New(sha3.New256, s.key[:])
	var buf [8]byte

	mac.Write(w.UID[:])
	binary.BigEndian.PutUint64(buf[:], uint64(w.Sequence))
	mac.Write(buf[:])
	binary.BigEndian.PutUint64(buf[:], uint64(w.Award))
	mac.Write(buf[:])
	binary.BigEndian.PutUint64(buf[:], uint64(w.Topup))
	mac.Write(buf[:])
	binary.BigEndian.PutUint64(buf[:], uint64(w.Income))
	mac.Write(buf[:])
	mac.Write(w.Txn[:])

	return mac.Sum(nil)[:TagLen]
}

// Verify recomputes the checksum and compares it in constant time. A virgin
// wallet (sequence 0) has never been signed and always verifies. A mismatch
// is a fatal integrity fault, never repaired here.
func (s *Signer) Verify(w *entity.Wallet) error {
	if w.Sequence == 0 {
		return nil
	}
	if !hmac.Equal(s.Tag(w), w.Checksum) {
		return &errs.ChecksumError{UID: w.UID, Sequence: w.Sequence}
	}
	return nil
}
