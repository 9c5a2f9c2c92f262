// Package mta implements the Receiver ZK Proof (ZK) and its variant with a
// discrete-log check (ZKWC) that the MtA server attaches to its response
// ciphertext. The prover (the MtA server) convinces the verifier (the MtA
// client) that c2 = c1^x * (N+1)^y * r^N mod N^2 for x in [0, q^3], y in
// [0, N] and, for ZKWC, that the same x is the discrete log of a published
// curve point X = x*G.
package mta

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

// Commitment is the prover's first move.
type Commitment struct {
	Z  *big.Int // h1^x * h2^rho mod Ntilde
	Z1 *big.Int // h1^alpha * h2^rho1 mod Ntilde
	T  *big.Int // h1^y * h2^sigma mod Ntilde
	V  *big.Int // c1^alpha * (N+1)^gamma * beta^N mod N^2
	W  *big.Int // h1^gamma * h2^tau mod Ntilde
}

// Response is the prover's answer once the challenge e is fixed.
type Response struct {
	S  *big.Int // beta * r^e mod N
	S1 *big.Int // e*x + alpha
	S2 *big.Int // e*rho + rho1
	T1 *big.Int // e*y + gamma
	T2 *big.Int // e*sigma + tau
}

// Proof is the Receiver ZK Proof without the discrete-log check.
type Proof struct {
	Commitment
	Response
}

// ProofWC extends Proof with the discrete-log check binding x to X = x*G.
type ProofWC struct {
	Proof
	U *secp256k1.JacobianPoint // alpha * G
}

// q3 returns the curve order cubed.
func q3() *big.Int {
	q := secp256k1.S256().N
	q2 := new(big.Int).Mul(q, q)
	return new(big.Int).Mul(q2, q)
}

// Prove produces a Receiver ZK Proof (without the discrete-log check) that
// c2 = c1^x * (N+1)^y * r^N mod N^2, x in [0, q^3], y in [0, N]. pk is the
// Paillier public key under which c1, c2 live; bc is the verifier's
// commitment modulus.
func Prove(pk *paillier.PublicKey, bc *bcmod.PublicParams, c1, c2, x, y, r *big.Int) (*Proof, error) {
	wc, err := proveInner(pk, bc, c1, c2, x, y, r, nil)
	if err != nil {
		return nil, err
	}
	return &wc.Proof, nil
}

// ProveWC produces a Receiver ZK Proof with the discrete-log check that
// X = x*G on secp256k1, in addition to everything Prove checks.
func ProveWC(pk *paillier.PublicKey, bc *bcmod.PublicParams, c1, c2, x, y, r *big.Int, X *secp256k1.JacobianPoint) (*ProofWC, error) {
	if X == nil {
		return nil, errors.New("mta: X must not be nil for ProveWC")
	}
	return proveInner(pk, bc, c1, c2, x, y, r, X)
}

func proveInner(pk *paillier.PublicKey, bc *bcmod.PublicParams, c1, c2, x, y, r *big.Int, X *secp256k1.JacobianPoint) (*ProofWC, error) {
	if pk == nil || bc == nil || c1 == nil || c2 == nil || x == nil || y == nil || r == nil {
		return nil, errors.New("mta: inputs cannot be nil")
	}

	q := secp256k1.S256().N
	q3 := q3()
	qNtilde := new(big.Int).Mul(q, bc.Ntilde)
	q3Ntilde := new(big.Int).Mul(q3, bc.Ntilde)

	alpha, err := rand.Int(rand.Reader, q3)
	if err != nil {
		return nil, err
	}
	beta, err := rand.Int(rand.Reader, pk.N)
	if err != nil {
		return nil, err
	}
	gamma, err := rand.Int(rand.Reader, pk.N)
	if err != nil {
		return nil, err
	}
	rho, err := rand.Int(rand.Reader, qNtilde)
	if err != nil {
		return nil, err
	}
	sigma, err := rand.Int(rand.Reader, qNtilde)
	if err != nil {
		return nil, err
	}
	tau, err := rand.Int(rand.Reader, qNtilde)
	if err != nil {
		return nil, err
	}
	rho1, err := rand.Int(rand.Reader, q3Ntilde)
	if err != nil {
		return nil, err
	}
	defer zeroize(alpha, beta, gamma, rho, sigma, tau, rho1)

	z := bc.Commit(x, rho)
	z1 := bc.Commit(alpha, rho1)
	t := bc.Commit(y, sigma)
	w := bc.Commit(gamma, tau)

	v := new(big.Int).Exp(c1, alpha, pk.N2)
	gammaTerm := new(big.Int).Add(pk.N, one)
	gammaTerm.Exp(gammaTerm, gamma, pk.N2)
	v.Mul(v, gammaTerm)
	betaTerm := new(big.Int).Exp(beta, pk.N, pk.N2)
	v.Mul(v, betaTerm)
	v.Mod(v, pk.N2)

	var U secp256k1.JacobianPoint
	if X != nil {
		alphaScalar := new(secp256k1.ModNScalar)
		alphaScalar.SetByteSlice(alpha.Bytes())
		secp256k1.ScalarBaseMultNonConst(alphaScalar, &U)
	}

	e := challenge(pk, bc, c1, c2, X, &U, z, z1, t, v, w)

	s := new(big.Int).Exp(r, e, pk.N)
	s.Mul(s, beta)
	s.Mod(s, pk.N)

	s1 := new(big.Int).Mul(e, x)
	s1.Add(s1, alpha)

	s2 := new(big.Int).Mul(e, rho)
	s2.Add(s2, rho1)

	t1 := new(big.Int).Mul(e, y)
	t1.Add(t1, gamma)

	t2 := new(big.Int).Mul(e, sigma)
	t2.Add(t2, tau)

	p := Proof{
		Commitment: Commitment{Z: z, Z1: z1, T: t, V: v, W: w},
		Response:   Response{S: s, S1: s1, S2: s2, T1: t1, T2: t2},
	}
	if X == nil {
		return &ProofWC{Proof: p}, nil
	}
	return &ProofWC{Proof: p, U: &U}, nil
}

// Verify checks a Receiver ZK Proof (without the discrete-log check) that
// c2 = c1^x * (N+1)^y * r^N mod N^2 for some x in [0, q^3], y in [0, N].
func (p *Proof) Verify(pk *paillier.PublicKey, bc *bcmod.PublicParams, c1, c2 *big.Int) bool {
	wc := &ProofWC{Proof: *p}
	return wc.verify(pk, bc, c1, c2, nil)
}

// Verify checks a Receiver ZK Proof with check that, additionally,
// X = x*G on secp256k1.
func (p *ProofWC) Verify(pk *paillier.PublicKey, bc *bcmod.PublicParams, c1, c2 *big.Int, X *secp256k1.JacobianPoint) bool {
	if X == nil || p.U == nil {
		return false
	}
	return p.verify(pk, bc, c1, c2, X)
}

func (p *ProofWC) verify(pk *paillier.PublicKey, bc *bcmod.PublicParams, c1, c2 *big.Int, X *secp256k1.JacobianPoint) bool {
	if pk == nil || bc == nil || c1 == nil || c2 == nil {
		return false
	}
	if p.Z == nil || p.Z1 == nil || p.T == nil || p.V == nil || p.W == nil ||
		p.S == nil || p.S1 == nil || p.S2 == nil || p.T1 == nil || p.T2 == nil {
		return false
	}
	if p.S1.Sign() < 0 || p.S1.Cmp(q3()) > 0 {
		return false
	}

	e := challenge(pk, bc, c1, c2, X, p.U, p.Z, p.Z1, p.T, p.V, p.W)
	negE := new(big.Int).Neg(e)

	// z1 ?= h1^s1 * h2^s2 * z^-e mod Ntilde
	lhs := bc.Commit(p.S1, p.S2)
	zInvE := new(big.Int).Exp(p.Z, negE, bc.Ntilde)
	lhs.Mul(lhs, zInvE)
	lhs.Mod(lhs, bc.Ntilde)
	if p.Z1.Cmp(lhs) != 0 {
		return false
	}

	// w ?= h1^t1 * h2^t2 * t^-e mod Ntilde
	rhs := bc.Commit(p.T1, p.T2)
	tInvE := new(big.Int).Exp(p.T, negE, bc.Ntilde)
	rhs.Mul(rhs, tInvE)
	rhs.Mod(rhs, bc.Ntilde)
	if p.W.Cmp(rhs) != 0 {
		return false
	}

	// v ?= c1^s1 * s^N * (N+1)^t1 * c2^-e mod N^2
	left := new(big.Int).Exp(c1, p.S1, pk.N2)
	left.Mul(left, new(big.Int).Exp(p.S, pk.N, pk.N2))
	gPlus1 := new(big.Int).Add(pk.N, one)
	left.Mul(left, new(big.Int).Exp(gPlus1, p.T1, pk.N2))
	left.Mod(left, pk.N2)
	right := new(big.Int).Exp(c2, negE, pk.N2)
	right.Mul(right, left)
	right.Mod(right, pk.N2)
	if p.V.Cmp(right) != 0 {
		return false
	}

	if X == nil {
		return true
	}

	// U ?= s1*G - e*X
	s1Mod := new(big.Int).Mod(p.S1, secp256k1.S256().N)
	var sG secp256k1.JacobianPoint
	s1Scalar := new(secp256k1.ModNScalar)
	s1Scalar.SetByteSlice(s1Mod.Bytes())
	secp256k1.ScalarBaseMultNonConst(s1Scalar, &sG)

	eMod := new(big.Int).Mod(e, secp256k1.S256().N)
	var eX secp256k1.JacobianPoint
	eScalar := new(secp256k1.ModNScalar)
	eScalar.SetByteSlice(eMod.Bytes())
	secp256k1.ScalarMultNonConst(eScalar, X, &eX)

	var rhsPoint secp256k1.JacobianPoint
	secp256k1.AddNonConst(p.U, &eX, &rhsPoint)

	sG.ToAffine()
	rhsPoint.ToAffine()
	return sG.X.Equals(&rhsPoint.X) && sG.Y.Equals(&rhsPoint.Y)
}

// VerifyStatus is Verify reported as the wire-level status code instead
// of a bool.
func (p *Proof) VerifyStatus(pk *paillier.PublicKey, bc *bcmod.PublicParams, c1, c2 *big.Int) tss.StatusCode {
	if p.Verify(pk, bc, c1, c2) {
		return tss.StatusOK
	}
	return tss.StatusFail
}

// VerifyStatus is Verify reported as the wire-level status code instead
// of a bool.
func (p *ProofWC) VerifyStatus(pk *paillier.PublicKey, bc *bcmod.PublicParams, c1, c2 *big.Int, X *secp256k1.JacobianPoint) tss.StatusCode {
	if p.Verify(pk, bc, c1, c2, X) {
		return tss.StatusOK
	}
	return tss.StatusFail
}

func challenge(pk *paillier.PublicKey, bc *bcmod.PublicParams, c1, c2 *big.Int, X, U *secp256k1.JacobianPoint, z, z1, t, v, w *big.Int) *big.Int {
	g := new(big.Int).Add(pk.N, one)
	h := sha256.New()
	h.Write(curves.PadBytes(g, curves.FS2048))
	h.Write(curves.PadBytes(bc.Ntilde, curves.FS2048))
	h.Write(curves.PadBytes(bc.H1, curves.FS2048))
	h.Write(curves.PadBytes(bc.H2, curves.FS2048))
	h.Write(curves.PadBytes(secp256k1.S256().N, curves.ScalarSize))
	h.Write(curves.PadBytes(c1, curves.FS4096))
	h.Write(curves.PadBytes(c2, curves.FS4096))
	if X != nil {
		X.ToAffine()
		h.Write(curves.PointToBytesCompressed(
			new(big.Int).SetBytes(X.X.Bytes()[:]),
			new(big.Int).SetBytes(X.Y.Bytes()[:]),
		))
		U.ToAffine()
		h.Write(curves.PointToBytesCompressed(
			new(big.Int).SetBytes(U.X.Bytes()[:]),
			new(big.Int).SetBytes(U.Y.Bytes()[:]),
		))
	}
	h.Write(curves.PadBytes(z, curves.FS2048))
	h.Write(curves.PadBytes(z1, curves.FS2048))
	h.Write(curves.PadBytes(t, curves.FS2048))
	h.Write(curves.PadBytes(v, curves.FS4096))
	h.Write(curves.PadBytes(w, curves.FS2048))
	e := new(big.Int).SetBytes(h.Sum(nil))
	e.Mod(e, secp256k1.S256().N)
	return e
}

// commitmentLen and proofLen are the canonical ZK wire sizes (§6): ZK
// commitment is Z(256)||Z1(256)||T(256)||V(512)||W(256); ZK proof is
// S(256)||S1(128)||S2(384)||T1(256)||T2(384). ZKWC commitment appends a
// compressed curve point U; ZKWC proof is identical to ZK proof.
const (
	commitmentLen = curves.FS2048*3 + curves.FS4096 + curves.FS2048
	proofLen      = curves.FS2048 + curves.HFS2048 + (curves.FS2048 + curves.HFS2048) + curves.FS2048 + (curves.FS2048 + curves.HFS2048)
)

// ToBytes encodes the Proof in its canonical commitment||response layout.
func (p *Proof) ToBytes() []byte {
	out := make([]byte, 0, commitmentLen+proofLen)
	out = append(out, curves.PadBytes(p.Z, curves.FS2048)...)
	out = append(out, curves.PadBytes(p.Z1, curves.FS2048)...)
	out = append(out, curves.PadBytes(p.T, curves.FS2048)...)
	out = append(out, curves.PadBytes(p.V, curves.FS4096)...)
	out = append(out, curves.PadBytes(p.W, curves.FS2048)...)
	out = append(out, curves.PadBytes(p.S, curves.FS2048)...)
	out = append(out, curves.PadBytes(p.S1, curves.HFS2048)...)
	out = append(out, curves.PadBytes(p.S2, curves.FS2048+curves.HFS2048)...)
	out = append(out, curves.PadBytes(p.T1, curves.FS2048)...)
	out = append(out, curves.PadBytes(p.T2, curves.FS2048+curves.HFS2048)...)
	return out
}

// FromBytes decodes a Proof from its canonical encoding.
func FromBytes(b []byte) (*Proof, error) {
	if len(b) != commitmentLen+proofLen {
		return nil, errors.New("mta: wrong-size proof encoding")
	}
	off := 0
	next := func(n int) *big.Int {
		v := curves.ScalarFromBytes(b[off : off+n])
		off += n
		return v
	}
	z := next(curves.FS2048)
	z1 := next(curves.FS2048)
	t := next(curves.FS2048)
	v := next(curves.FS4096)
	w := next(curves.FS2048)
	s := next(curves.FS2048)
	s1 := next(curves.HFS2048)
	s2 := next(curves.FS2048 + curves.HFS2048)
	t1 := next(curves.FS2048)
	t2 := next(curves.FS2048 + curves.HFS2048)
	return &Proof{
		Commitment: Commitment{Z: z, Z1: z1, T: t, V: v, W: w},
		Response:   Response{S: s, S1: s1, S2: s2, T1: t1, T2: t2},
	}, nil
}

// ToBytes encodes the ProofWC as the ZK proof bytes followed by the
// compressed curve point U.
func (p *ProofWC) ToBytes() []byte {
	p.U.ToAffine()
	out := p.Proof.ToBytes()
	out = append(out, curves.PointToBytesCompressed(
		new(big.Int).SetBytes(p.U.X.Bytes()[:]),
		new(big.Int).SetBytes(p.U.Y.Bytes()[:]),
	)...)
	return out
}

// ProofWCFromBytes decodes a ProofWC, returning curves.ErrInvalidPoint if U
// does not decode to a well-formed curve point.
func ProofWCFromBytes(b []byte) (*ProofWC, error) {
	if len(b) <= commitmentLen+proofLen {
		return nil, errors.New("mta: wrong-size proofwc encoding")
	}
	base, err := FromBytes(b[:commitmentLen+proofLen])
	if err != nil {
		return nil, err
	}
	ux, uy, err := curves.PointFromBytesCompressed(b[commitmentLen+proofLen:])
	if err != nil {
		return nil, err
	}
	var U secp256k1.JacobianPoint
	var fx, fy secp256k1.FieldVal
	fx.SetByteSlice(ux.Bytes())
	fy.SetByteSlice(uy.Bytes())
	U.X = fx
	U.Y = fy
	U.Z.SetInt(1)
	return &ProofWC{Proof: *base, U: &U}, nil
}

func zeroize(vals ...*big.Int) {
	for _, v := range vals {
		if v != nil {
			v.SetInt64(0)
		}
	}
}
