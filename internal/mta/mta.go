// Package mta implements the Multiplicative-to-Additive (MtA) share
// conversion protocol: given a client share a and a server share b of a
// secret s = a*b mod q, the two passes below leave the client holding
// alpha and the server holding beta such that alpha + beta = a*b mod q,
// without either party learning the other's share.
package mta

import (
"crypto/rand"
"errors"
"math/big"

"github.com/decred/dcrd/dcrec/secp256k1/v4"
"github.com/cronokirby/mta-cggmp/internal/crypto/bcmod"
"github.com/cronokirby/mta-cggmp/internal/crypto/paillier"
rangeproof "github.com/cronokirby/mta-cggmp/internal/crypto/zk/range"
receiverzk "github.com/cronokirby/mta-cggmp/internal/crypto/zk/mta"
)

// ClientFirstMessage is the output of the client's first pass: the
// ciphertext of its share a, to be sent to the server, plus the range
// proof binding it.
type ClientFirstMessage struct {
	CA    *big.Int
	Range *rangeproof.Proof
}

// clientState holds what the client must remember between its two passes.
type clientState struct {
	a  *big.Int
	ra *big.Int
}

// ClientPass1 encrypts the client's share a under its own Paillier public
// key and attaches a Range Proof that a lies in [0, q^3], using the
// server's commitment modulus bc. If ra is non-nil it is used verbatim
// (test-vector mode); otherwise a fresh r is sampled uniformly from Z_N*.
func ClientPass1(pk *paillier.PublicKey, bc *bcmod.PublicParams, a, ra *big.Int) (*clientState, *ClientFirstMessage, error) {
	if pk == nil || bc == nil || a == nil {
		return nil, nil, errors.New("mta: inputs cannot be nil")
	}

	if ra == nil {
		var err error
		ra, err = randNonZeroMod(pk.N)
		if err != nil {
			return nil, nil, err
		}
	}

	ca, err := pk.EncryptWithNonce(a, ra)
	if err != nil {
		return nil, nil, err
	}

	proof, err := rangeproof.Prove(pk, bc, ca, a, ra)
	if err != nil {
		return nil, nil, err
	}

	return &clientState{a: a, ra: ra}, &ClientFirstMessage{CA: ca, Range: proof}, nil
}

// ServerResponse is the server's output: the homomorphically-derived
// response ciphertext c_b, the server's additive share beta, and a
// Receiver ZK Proof attesting that the response was computed honestly.
type ServerResponse struct {
	CB    *big.Int
	Beta  *big.Int
	Proof *receiverzk.Proof
}

// ServerResponseWC is ServerResponse with the proof additionally binding
// the server's multiplicative share to a published curve point X = b*G.
type ServerResponseWC struct {
	CB    *big.Int
	Beta  *big.Int
	Proof *receiverzk.ProofWC
}

// Server runs the server side of one MtA pass. ownBC is this party's own
// commitment modulus, used to verify the client's incoming Range Proof
// (the client proved against it, since this party is that proof's
// verifier); clientBC is the client's commitment modulus, used to build
// the outgoing Receiver ZK Proof (the client will verify that proof
// against its own modulus). If z or rb are nil they are sampled
// uniformly; otherwise they are used verbatim (test-vector mode).
func Server(pk *paillier.PublicKey, ownBC, clientBC *bcmod.PublicParams, msg *ClientFirstMessage, b, z, rb *big.Int) (*ServerResponse, error) {
	if !msg.Range.Verify(pk, ownBC, msg.CA) {
		return nil, errors.New("mta: client range proof failed verification")
	}

	q := secp256k1.S256().N
	if z == nil {
		var err error
		z, err = rand.Int(rand.Reader, q)
		if err != nil {
			return nil, err
		}
	}
	if rb == nil {
		var err error
		rb, err = randNonZeroMod(pk.N)
		if err != nil {
			return nil, err
		}
	}
	defer zeroize(z, rb)

	cb, err := homomorphicResponse(pk, msg.CA, b, z, rb)
	if err != nil {
		return nil, err
	}

	beta := new(big.Int).Neg(z)
	beta.Mod(beta, q)

	proof, err := receiverzk.Prove(pk, clientBC, msg.CA, cb, b, z, rb)
	if err != nil {
		return nil, err
	}

	return &ServerResponse{CB: cb, Beta: beta, Proof: proof}, nil
}

// ServerWC is Server, additionally proving that X = b*G.
func ServerWC(pk *paillier.PublicKey, ownBC, clientBC *bcmod.PublicParams, msg *ClientFirstMessage, b, z, rb *big.Int, X *secp256k1.JacobianPoint) (*ServerResponseWC, error) {
	if !msg.Range.Verify(pk, ownBC, msg.CA) {
		return nil, errors.New("mta: client range proof failed verification")
	}

	q := secp256k1.S256().N
	if z == nil {
		var err error
		z, err = rand.Int(rand.Reader, q)
		if err != nil {
			return nil, err
		}
	}
	if rb == nil {
		var err error
		rb, err = randNonZeroMod(pk.N)
		if err != nil {
			return nil, err
		}
	}
	defer zeroize(z, rb)

	cb, err := homomorphicResponse(pk, msg.CA, b, z, rb)
	if err != nil {
		return nil, err
	}

	beta := new(big.Int).Neg(z)
	beta.Mod(beta, q)

	proof, err := receiverzk.ProveWC(pk, clientBC, msg.CA, cb, b, z, rb, X)
	if err != nil {
		return nil, err
	}

	return &ServerResponseWC{CB: cb, Beta: beta, Proof: proof}, nil
}

// homomorphicResponse computes c_b = c_a^b * (N+1)^z * r_b^N mod N^2: a
// homomorphic scalar multiplication by b followed by a homomorphic add of
// a fresh-randomness encryption of z.
func homomorphicResponse(pk *paillier.PublicKey, ca, b, z, rb *big.Int) (*big.Int, error) {
	term1 := pk.Mul(ca, b)
	encZ, err := pk.EncryptWithNonce(z, rb)
	if err != nil {
		return nil, err
	}
	return pk.Add(term1, encZ), nil
}

// ClientPass2 decrypts the server's response to recover the client's
// additive share alpha = Dec(c_b) mod q.
func ClientPass2(sk *paillier.PrivateKey, cb *big.Int) (*big.Int, error) {
	m, err := sk.Decrypt(cb)
	if err != nil {
		return nil, err
	}
	alpha := new(big.Int).Mod(m, secp256k1.S256().N)
	return alpha, nil
}

// Sum assembles the per-party contribution to a joint product: given the
// local multiplicative shares a1, b1 and the two halves alpha, beta
// produced by converting the cross terms, it returns
// a1*b1 + alpha + beta mod q.
func Sum(a1, b1, alpha, beta *big.Int) *big.Int {
	q := secp256k1.S256().N
	sum := new(big.Int).Mul(a1, b1)
	sum.Add(sum, alpha)
	sum.Add(sum, beta)
	sum.Mod(sum, q)
	return sum
}

// randNonZeroMod samples uniformly from [1, n) as an approximation of
// Z_n*; an explicit r=0 draw is rejected and resampled.
func randNonZeroMod(n *big.Int) (*big.Int, error) {
	for {
		r, err := rand.Int(rand.Reader, n)
		if err != nil {
			return nil, err
		}
		if r.Sign() != 0 {
			return r, nil
		}
	}
}

func zeroize(vals ...*big.Int) {
	for _, v := range vals {
		if v != nil {
			v.SetInt64(0)
		}
	}
}

