// Package commitment implements the hash-based commit/decommit scheme
// keygen uses to fix a party's Paillier key, commitment modulus, and VSS
// commitments before any other party has seen them, preventing a
// rushing adversary from choosing its own values as a function of
// values it hasn't committed to yet.
package commitment

import (
	"bytes"
	"crypto/rand"
	"crypto/sha256"
	"math/big"
)

const saltSize = 32

// Commitment is C = H(salt || data) together with the salt needed to
// open it.
type Commitment struct {
	C []byte
	D []byte
}

// New commits to data under a freshly sampled salt.
func New(data []byte) (*Commitment, error) {
	salt := make([]byte, saltSize)
	if _, err := rand.Read(salt); err != nil {
		return nil, err
	}

	hash := sha256.New()
	hash.Write(salt)
	hash.Write(data)

	return &Commitment{C: hash.Sum(nil), D: salt}, nil
}

// Verify recomputes H(d || data) and checks it against c.
func Verify(c []byte, d []byte, data []byte) bool {
	if len(c) != sha256.Size || len(d) != saltSize {
		return false
	}

	hash := sha256.New()
	hash.Write(d)
	hash.Write(data)

	return string(hash.Sum(nil)) == string(c)
}

// NewComplex commits to several byte strings at once; they are hashed as
// one concatenation, so part boundaries are not encoded.
func NewComplex(parts ...[]byte) (*Commitment, error) {
	return New(bytes.Join(parts, nil))
}

// VerifyComplex checks a commitment made by NewComplex.
func VerifyComplex(c []byte, d []byte, parts ...[]byte) bool {
	return Verify(c, d, bytes.Join(parts, nil))
}

// IntToBytes returns i's big-endian bytes, or an empty slice for nil.
func IntToBytes(i *big.Int) []byte {
	if i == nil {
		return []byte{}
	}
	return i.Bytes()
}
