// Package range_proof implements the Range Proof (RP) from the MtA
// zero-knowledge suite: a prover convinces a verifier that the plaintext
// behind a Paillier ciphertext lies in [0, q^3], where q is the secp256k1
// group order, without revealing the plaintext.
package range_proof

import (
"crypto/rand"
"crypto/sha256"
"errors"
"math/big"

"github.com/decred/dcrd/dcrec/secp256k1/v4"
"github.com/cronokirby/mta-cggmp/internal/crypto/bcmod"
"github.com/cronokirby/mta-cggmp/internal/crypto/curves"
"github.com/cronokirby/mta-cggmp/internal/crypto/paillier"
"github.com/cronokirby/mta-cggmp/pkg/tss"
)

var one = big.NewInt(1)

// Commitment is the prover's first move in the Range Proof Sigma protocol.
type Commitment struct {
	Z *big.Int // h1^m * h2^rho mod Ntilde
	U *big.Int // (N+1)^alpha * beta^N mod N^2
	W *big.Int // h1^alpha * h2^gamma mod Ntilde
}

// Response is the prover's answer once the challenge e is fixed.
type Response struct {
	S  *big.Int // beta * r^e mod N
	S1 *big.Int // e*m + alpha, over the integers
	S2 *big.Int // e*rho + gamma, over the integers
}

// Proof bundles the commitment and response of a completed Range Proof.
type Proof struct {
	Commitment
	Response
}

// q3 returns the curve order cubed, the statistical-hiding range bound.
func q3() *big.Int {
	q := secp256k1.S256().N
	q2 := new(big.Int).Mul(q, q)
	return new(big.Int).Mul(q2, q)
}

// Prove produces a Range Proof that plaintext m, encrypted as
// CT = (N+1)^m * r^N mod N^2 under pk, lies in [0, q^3]. bc is the
// verifier's commitment modulus (Ntilde, h1, h2).
func Prove(pk *paillier.PublicKey, bc *bcmod.PublicParams, ct, m, r *big.Int) (*Proof, error) {
	if pk == nil || bc == nil || ct == nil || m == nil || r == nil {
		return nil, errors.New("range: inputs cannot be nil")
	}

	q3 := q3()
	qNtilde := new(big.Int).Mul(secp256k1.S256().N, bc.Ntilde)
	q3Ntilde := new(big.Int).Mul(q3, bc.Ntilde)

	alpha, err := rand.Int(rand.Reader, q3)
	if err != nil {
		return nil, err
	}
	beta, err := rand.Int(rand.Reader, pk.N)
	if err != nil {
		return nil, err
	}
	gamma, err := rand.Int(rand.Reader, q3Ntilde)
	if err != nil {
		return nil, err
	}
	rho, err := rand.Int(rand.Reader, qNtilde)
	if err != nil {
		return nil, err
	}
	defer zeroize(alpha, beta, gamma, rho)

	z := bc.Commit(m, rho)
	w := bc.Commit(alpha, gamma)

	u, err := pk.EncryptWithNonce(alpha, beta)
	if err != nil {
		return nil, err
	}

	e := challenge(pk, bc, ct, z, u, w)

	s := new(big.Int).Exp(r, e, pk.N)
	s.Mul(s, beta)
	s.Mod(s, pk.N)

	s1 := new(big.Int).Mul(e, m)
	s1.Add(s1, alpha)

	s2 := new(big.Int).Mul(e, rho)
	s2.Add(s2, gamma)

	return &Proof{
		Commitment: Commitment{Z: z, U: u, W: w},
		Response:   Response{S: s, S1: s1, S2: s2},
	}, nil
}

// Verify checks the Range Proof against ciphertext ct under pk and the
// verifier's own commitment modulus bc.
func (p *Proof) Verify(pk *paillier.PublicKey, bc *bcmod.PublicParams, ct *big.Int) bool {
	if p == nil || pk == nil || bc == nil || ct == nil {
		return false
	}
	if p.Z == nil || p.U == nil || p.W == nil || p.S == nil || p.S1 == nil || p.S2 == nil {
		return false
	}

	if p.S1.Sign() < 0 || p.S1.Cmp(q3()) > 0 {
		return false
	}

	e := challenge(pk, bc, ct, p.Z, p.U, p.W)
	negE := new(big.Int).Neg(e)

	// u ?= (N+1)^s1 * s^N * CT^-e mod N^2
	ctInvE := new(big.Int).Exp(ct, negE, pk.N2)
	lhs, err := pk.EncryptWithNonce(p.S1, p.S)
	if err != nil {
		return false
	}
	lhs.Mul(lhs, ctInvE)
	lhs.Mod(lhs, pk.N2)
	if p.U.Cmp(lhs) != 0 {
		return false
	}

	// w ?= h1^s1 * h2^s2 * z^-e mod Ntilde
	rhs := bc.Commit(p.S1, p.S2)
	zInvE := new(big.Int).Exp(p.Z, negE, bc.Ntilde)
	rhs.Mul(rhs, zInvE)
	rhs.Mod(rhs, bc.Ntilde)
	return p.W.Cmp(rhs) == 0
}

// VerifyStatus is Verify reported as the wire-level status code instead
// of a bool.
func (p *Proof) VerifyStatus(pk *paillier.PublicKey, bc *bcmod.PublicParams, ct *big.Int) tss.StatusCode {
	if p.Verify(pk, bc, ct) {
		return tss.StatusOK
	}
	return tss.StatusFail
}

func challenge(pk *paillier.PublicKey, bc *bcmod.PublicParams, ct, z, u, w *big.Int) *big.Int {
	g := new(big.Int).Add(pk.N, one)
	h := sha256.New()
	h.Write(curves.PadBytes(g, curves.FS2048))
	h.Write(curves.PadBytes(bc.Ntilde, curves.FS2048))
	h.Write(curves.PadBytes(bc.H1, curves.FS2048))
	h.Write(curves.PadBytes(bc.H2, curves.FS2048))
	h.Write(curves.PadBytes(secp256k1.S256().N, curves.ScalarSize))
	h.Write(curves.PadBytes(ct, curves.FS4096))
	h.Write(curves.PadBytes(z, curves.FS2048))
	h.Write(curves.PadBytes(u, curves.FS4096))
	h.Write(curves.PadBytes(w, curves.FS2048))
	e := new(big.Int).SetBytes(h.Sum(nil))
	e.Mod(e, secp256k1.S256().N)
	return e
}

// ToBytes encodes the proof in the canonical
// Z(256)||U(512)||W(256)||S(256)||S1(128)||S2(384) layout.
func (p *Proof) ToBytes() []byte {
	out := make([]byte, 0, proofLen)
	out = append(out, curves.PadBytes(p.Z, curves.FS2048)...)
	out = append(out, curves.PadBytes(p.U, curves.FS4096)...)
	out = append(out, curves.PadBytes(p.W, curves.FS2048)...)
	out = append(out, curves.PadBytes(p.S, curves.FS2048)...)
	out = append(out, curves.PadBytes(p.S1, curves.HFS2048)...)
	out = append(out, curves.PadBytes(p.S2, curves.FS2048+curves.HFS2048)...)
	return out
}

const proofLen = curves.FS2048 + curves.FS4096 + curves.FS2048 + curves.FS2048 + curves.HFS2048 + curves.FS2048 + curves.HFS2048

// FromBytes decodes a Range Proof from its canonical encoding.
func FromBytes(b []byte) (*Proof, error) {
	if len(b) != proofLen {
		return nil, errors.New("range: wrong-size proof encoding")
	}
	off := 0
	next := func(n int) *big.Int {
		v := curves.ScalarFromBytes(b[off : off+n])
		off += n
		return v
	}
	z := next(curves.FS2048)
	u := next(curves.FS4096)
	w := next(curves.FS2048)
	s := next(curves.FS2048)
	s1 := next(curves.HFS2048)
	s2 := next(curves.FS2048 + curves.HFS2048)
	return &Proof{
		Commitment: Commitment{Z: z, U: u, W: w},
		Response:   Response{S: s, S1: s1, S2: s2},
	}, nil
}

func zeroize(vals ...*big.Int) {
	for _, v := range vals {
		if v != nil {
			v.SetInt64(0)
		}
	}
}
