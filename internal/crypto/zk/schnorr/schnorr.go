// Package schnorr implements a Schnorr proof of knowledge of a discrete
// log, used during key generation so each party proves it actually knows
// the secret behind the public share it committed to, before that share
// is trusted as an input to the MtA-derived signing ceremony.
package schnorr

import (
	crand "crypto/rand"
	"crypto/sha256"
	"errors"
	"math/big"

	"github.com/decred/dcrd/dcrec/secp256k1/v4"

	"github.com/cronokirby/mta-cggmp/internal/crypto/curves"
)

// Proof is a non-interactive Schnorr proof of knowledge of x such that
// X = x*G: a commitment R = k*G and a response s = k + e*x mod n.
type Proof struct {
	R *secp256k1.JacobianPoint
	S *big.Int
}

// Prove produces a Schnorr proof that the caller knows the discrete log
// x behind the public point X.
func Prove(x *big.Int, X *secp256k1.JacobianPoint) (*Proof, error) {
	if x == nil || X == nil {
		return nil, errors.New("schnorr: inputs cannot be nil")
	}

	curve := secp256k1.S256()
	n := curve.N

	k, err := randInt(n)
	if err != nil {
		return nil, err
	}

	var R secp256k1.JacobianPoint
	kScalar := new(secp256k1.ModNScalar)
	kScalar.SetByteSlice(k.Bytes())
	secp256k1.ScalarBaseMultNonConst(kScalar, &R)

	e := challenge(X, &R)

	s := new(big.Int).Mul(e, x)
	s.Add(s, k)
	s.Mod(s, n)

	return &Proof{R: &R, S: s}, nil
}

// Verify checks that s*G = R + e*X for e = H(X, R), which holds iff the
// prover knew x without revealing it.
func (p *Proof) Verify(X *secp256k1.JacobianPoint) bool {
	if p == nil || p.R == nil || p.S == nil || X == nil {
		return false
	}

	curve := secp256k1.S256()
	n := curve.N
	if p.S.Sign() < 0 || p.S.Cmp(n) >= 0 {
		return false
	}

	e := challenge(X, p.R)

	var lhs secp256k1.JacobianPoint
	sScalar := new(secp256k1.ModNScalar)
	sScalar.SetByteSlice(p.S.Bytes())
	secp256k1.ScalarBaseMultNonConst(sScalar, &lhs)

	var eX secp256k1.JacobianPoint
	eScalar := new(secp256k1.ModNScalar)
	eScalar.SetByteSlice(e.Bytes())
	secp256k1.ScalarMultNonConst(eScalar, X, &eX)

	var rhs secp256k1.JacobianPoint
	secp256k1.AddNonConst(p.R, &eX, &rhs)

	lhs.ToAffine()
	rhs.ToAffine()

	return lhs.X.Equals(&rhs.X) && lhs.Y.Equals(&rhs.Y)
}

// challenge computes e = H(X, R) mod n, padding each coordinate to the
// module's canonical fixed-width scalar encoding so the transcript is
// unambiguous, the same convention the range and receiver ZK proofs use
// for their own Fiat-Shamir challenges.
func challenge(X, R *secp256k1.JacobianPoint) *big.Int {
	curve := secp256k1.S256()

	X.ToAffine()
	R.ToAffine()

	h := sha256.New()
	h.Write(curves.PadBytes(new(big.Int).SetBytes(X.X.Bytes()[:]), curves.ScalarSize))
	h.Write(curves.PadBytes(new(big.Int).SetBytes(X.Y.Bytes()[:]), curves.ScalarSize))
	h.Write(curves.PadBytes(new(big.Int).SetBytes(R.X.Bytes()[:]), curves.ScalarSize))
	h.Write(curves.PadBytes(new(big.Int).SetBytes(R.Y.Bytes()[:]), curves.ScalarSize))

	e := new(big.Int).SetBytes(h.Sum(nil))
	e.Mod(e, curve.N)
	return e
}

// randInt samples uniformly from [0, max).
func randInt(max *big.Int) (*big.Int, error) {
	return crand.Int(crand.Reader, max)
}
