// Package ecdsa provides the single-shot, non-threshold ECDSA signing
// primitive used both as a textbook reference implementation and to
// assemble a threshold signature's local s-share once k and sk have been
// reconstructed via MtA into additive shares.
package ecdsa

import (
"crypto/rand"
"crypto/sha256"
"errors"
"math/big"

"github.com/decred/dcrd/dcrec/secp256k1/v4"
dcrdecdsa "github.com/decred/dcrd/dcrec/secp256k1/v4/ecdsa"
)

// Signature is a completed (r, s) ECDSA signature.
type Signature struct {
	R *big.Int
	S *big.Int
}

// Sign runs the textbook, non-threshold ECDSA signing algorithm: it
// samples an ephemeral k uniformly from Z_q*, computes R = k^-1*G,
// r = R.x mod q, z = SHA-256(message) truncated to the bit length of q,
// and s = k*(z + r*sk) mod q, resampling k whenever r or s would be zero.
func Sign(sk *big.Int, message []byte) (*Signature, error) {
	if sk == nil || sk.Sign() == 0 {
		return nil, errors.New("ecdsa: private key cannot be nil or zero")
	}
	q := secp256k1.S256().N
	z := hashToScalar(message, q)

	for {
		k, err := rand.Int(rand.Reader, q)
		if err != nil {
			return nil, err
		}
		if k.Sign() == 0 {
			continue
		}

		kInv := new(big.Int).ModInverse(k, q)
		if kInv == nil {
			continue
		}

		var R secp256k1.JacobianPoint
		kInvScalar := new(secp256k1.ModNScalar)
		kInvScalar.SetByteSlice(kInv.Bytes())
		secp256k1.ScalarBaseMultNonConst(kInvScalar, &R)
		R.ToAffine()

		r := new(big.Int).SetBytes(R.X.Bytes()[:])
		r.Mod(r, q)
		if r.Sign() == 0 {
			continue
		}

		s := new(big.Int).Mul(r, sk)
		s.Add(s, z)
		s.Mul(s, k)
		s.Mod(s, q)
		if s.Sign() == 0 {
			continue
		}

		return &Signature{R: r, S: s}, nil
	}
}

// Verify checks an ECDSA signature against a public key point and a
// message digest, using the secp256k1 library's own verification routine.
// message is taken as the already-hashed digest and is not hashed again;
// for a signature made by Sign, pass SHA-256 of the signed message.
func Verify(pubX, pubY *big.Int, message []byte, sig *Signature) bool {
	var fx, fy secp256k1.FieldVal
	fx.SetByteSlice(pubX.Bytes())
	fy.SetByteSlice(pubY.Bytes())
	pk := secp256k1.NewPublicKey(&fx, &fy)

	var rMod, sMod secp256k1.ModNScalar
	rMod.SetByteSlice(sig.R.Bytes())
	sMod.SetByteSlice(sig.S.Bytes())

	dcrdSig := dcrdecdsa.NewSignature(&rMod, &sMod)
	return dcrdSig.Verify(message, pk)
}

// LocalShare computes a party's local additive contribution to the joint
// s value of a threshold signature: sᵢ = kᵢ·z + rᵢ·(k·sk)ᵢ, where kᵢ is
// the party's additive share of the ephemeral nonce k, (k·sk)ᵢ is its
// additive share of the product k·sk recovered via MtA, r is the
// agreed-upon signature r, and z is the hashed message.
func LocalShare(kShare, ksProductShare, r *big.Int, message []byte) *big.Int {
	q := secp256k1.S256().N
	z := hashToScalar(message, q)
	return LocalShareFromDigest(kShare, ksProductShare, r, z)
}

// LocalShareFromDigest is LocalShare for a caller that already holds the
// reduced message digest z (e.g. a signing ceremony that hashed the
// message once up front and threads the digest through every round,
// rather than the raw message).
func LocalShareFromDigest(kShare, ksProductShare, r, z *big.Int) *big.Int {
	q := secp256k1.S256().N
	s := new(big.Int).Mul(kShare, z)
	rTerm := new(big.Int).Mul(r, ksProductShare)
	s.Add(s, rTerm)
	s.Mod(s, q)
	return s
}

// ReduceDigest truncates an already-computed message digest to the bit
// length of the secp256k1 group order, the same truncation hashToScalar
// applies after hashing a raw message. Use this when a ceremony hashes
// the message once up front and passes the digest through every round.
func ReduceDigest(digest []byte) *big.Int {
	q := secp256k1.S256().N
	z := new(big.Int).SetBytes(digest)
	if qBits, zBits := q.BitLen(), z.BitLen(); zBits > qBits {
		z.Rsh(z, uint(zBits-qBits))
	}
	return z
}

// hashToScalar hashes message with SHA-256 and truncates the digest to
// the bit length of q; no modular reduction is applied.
func hashToScalar(message []byte, q *big.Int) *big.Int {
	h := sha256.Sum256(message)
	z := new(big.Int).SetBytes(h[:])
	qBits := q.BitLen()
	if hBits := z.BitLen(); hBits > qBits {
		z.Rsh(z, uint(hBits-qBits))
	}
	return z
}
