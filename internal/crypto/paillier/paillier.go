// Package paillier implements the additively homomorphic encryption scheme
// this module's MtA conversion (internal/mta) builds on: Enc(m1)*Enc(m2) =
// Enc(m1+m2), and a ciphertext can be raised to a scalar to get Enc(k*m).
package paillier

import (
	"crypto/rand"
	"errors"
	"fmt"
	"io"
	"math/big"
)

var one = big.NewInt(1)

// PublicKey is the Paillier public side: N = p*q, with N2 cached since
// every operation reduces mod N^2.
type PublicKey struct {
	N  *big.Int
	N2 *big.Int
}

// PrivateKey adds the decryption exponent lambda = lcm(p-1, q-1) and its
// inverse mu = lambda^-1 mod N. The factors p, q themselves are not kept:
// they are only needed transiently during key generation.
type PrivateKey struct {
	PublicKey
	Lambda *big.Int
	Mu     *big.Int
}

// GenerateKey samples a fresh Paillier key pair with an N of the requested
// bit length (at least 1024). p and q are zeroized once lambda and mu are
// derived from them; nothing past that point needs the individual factors.
func GenerateKey(random io.Reader, bits int) (*PrivateKey, error) {
	if bits < 1024 {
		return nil, errors.New("paillier: bits must be at least 1024")
	}

	p, err := rand.Prime(random, bits/2)
	if err != nil {
		return nil, err
	}
	q, err := rand.Prime(random, bits/2)
	if err != nil {
		return nil, err
	}
	for p.Cmp(q) == 0 {
		if q, err = rand.Prime(random, bits/2); err != nil {
			return nil, err
		}
	}
	defer zeroize(p, q)

	n := new(big.Int).Mul(p, q)
	n2 := new(big.Int).Mul(n, n)

	pMinus1 := new(big.Int).Sub(p, one)
	qMinus1 := new(big.Int).Sub(q, one)
	gcd := new(big.Int).GCD(nil, nil, pMinus1, qMinus1)
	lambda := new(big.Int).Mul(pMinus1, qMinus1)
	lambda.Div(lambda, gcd)

	mu := new(big.Int).ModInverse(lambda, n)
	if mu == nil {
		return nil, errors.New("paillier: lambda has no inverse mod n")
	}

	return &PrivateKey{
		PublicKey: PublicKey{N: n, N2: n2},
		Lambda:    lambda,
		Mu:        mu,
	}, nil
}

// Encrypt samples a fresh nonce and returns Enc(m; r) along with r, for
// callers that need to retain the randomizer (e.g. to build a range proof
// over the ciphertext they just produced).
func (pk *PublicKey) Encrypt(m *big.Int) (c, r *big.Int, err error) {
	if m.Sign() < 0 || m.Cmp(pk.N) >= 0 {
		return nil, nil, errors.New("paillier: message must be in [0, n)")
	}
	r, err = randNonZeroMod(pk.N)
	if err != nil {
		return nil, nil, err
	}
	c, err = pk.EncryptWithNonce(m, r)
	return c, r, err
}

// EncryptWithNonce encrypts m using the caller-supplied nonce r verbatim,
// as required by proofs that must reconstruct a prior encryption's
// randomness or inject a fixed one for test vectors.
func (pk *PublicKey) EncryptWithNonce(m, r *big.Int) (*big.Int, error) {
	if m.Sign() < 0 || m.Cmp(pk.N) >= 0 {
		return nil, errors.New("paillier: message must be in [0, n)")
	}

	gm := new(big.Int).Mul(pk.N, m)
	gm.Add(gm, one)

	rn := new(big.Int).Exp(r, pk.N, pk.N2)

	c := new(big.Int).Mul(gm, rn)
	c.Mod(c, pk.N2)
	return c, nil
}

// Decrypt recovers the plaintext behind a ciphertext using the standard
// L(u) = (u-1)/N decryption formula.
func (priv *PrivateKey) Decrypt(c *big.Int) (*big.Int, error) {
	if c.Sign() < 0 || c.Cmp(priv.N2) >= 0 {
		return nil, errors.New("paillier: ciphertext must be in [0, n^2)")
	}

	u := new(big.Int).Exp(c, priv.Lambda, priv.N2)

	l := new(big.Int).Sub(u, one)
	l.Div(l, priv.N)

	m := new(big.Int).Mul(l, priv.Mu)
	m.Mod(m, priv.N)
	return m, nil
}

// Add returns Enc(m1 + m2) given Enc(m1), Enc(m2), via ciphertext
// multiplication mod N^2.
func (pk *PublicKey) Add(c1, c2 *big.Int) *big.Int {
	c := new(big.Int).Mul(c1, c2)
	c.Mod(c, pk.N2)
	return c
}

// Mul returns Enc(k * m) given Enc(m) and a plaintext scalar k, via
// ciphertext exponentiation mod N^2.
func (pk *PublicKey) Mul(c1, k *big.Int) *big.Int {
	return new(big.Int).Exp(c1, k, pk.N2)
}

// ValidateCiphertext rejects a ciphertext outside [0, N^2). Full
// coprimality checking against N^2 is skipped: every ciphertext this
// module decrypts either came from EncryptWithNonce locally or carries a
// range/receiver proof that already binds it to a well-formed encryption.
func (pk *PublicKey) ValidateCiphertext(c *big.Int) error {
	if c.Sign() < 0 || c.Cmp(pk.N2) >= 0 {
		return fmt.Errorf("paillier: ciphertext out of range")
	}
	return nil
}

// randNonZeroMod samples uniformly from [1, n), rejecting an explicit
// zero draw so the result is always a valid (if not necessarily coprime)
// Paillier randomizer.
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
