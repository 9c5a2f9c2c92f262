// Package bcmod implements the auxiliary "BC" (Pedersen / Fujisaki-Okamoto)
// commitment modulus used by the range and receiver zero-knowledge proofs.
//
// A party generates a composite Ntilde = p~ * q~ (two safe primes) together
// with two generators h1, h2 of a large subgroup of Z*_Ntilde. The public
// triple (Ntilde, h1, h2) is handed to every other party that will verify
// this party's proofs; the private (p~, q~) never leaves the owner.
package bcmod

import (
"crypto/rand"
"errors"
"io"
"math/big"
)

var (
one = big.NewInt(1)
two = big.NewInt(2)
)

// PublicParams is the public side of the commitment modulus: (Ntilde, h1, h2).
type PublicParams struct {
	Ntilde *big.Int
	H1     *big.Int
	H2     *big.Int
}

// PrivateParams is the private side, retained by the owner only and never
// exposed to a prover call graph.
type PrivateParams struct {
	PublicParams
	P *big.Int // p~
	Q *big.Int // q~
}

// GenerateSafePrime returns a safe prime p = 2*q + 1 of the requested bit
// length, along with the Sophie Germain prime q.
func GenerateSafePrime(random io.Reader, bits int) (p, q *big.Int, err error) {
	if bits < 2 {
		return nil, nil, errors.New("bcmod: bits too small for a safe prime")
	}
	for {
		q, err = rand.Prime(random, bits-1)
		if err != nil {
			return nil, nil, err
		}
		p = new(big.Int).Lsh(q, 1)
		p.Add(p, one)
		if p.ProbablyPrime(20) {
			return p, q, nil
		}
	}
}

// Generate creates a fresh commitment modulus with Ntilde of the requested
// bit length (the two safe primes p~, q~ are each bits/2 long).
func Generate(random io.Reader, bits int) (*PrivateParams, error) {
	if bits < 512 {
		return nil, errors.New("bcmod: bits must be at least 512")
	}

	p, _, err := GenerateSafePrime(random, bits/2)
	if err != nil {
		return nil, err
	}
	q, _, err := GenerateSafePrime(random, bits/2)
	if err != nil {
		return nil, err
	}
	for p.Cmp(q) == 0 {
		q, _, err = GenerateSafePrime(random, bits/2)
		if err != nil {
			return nil, err
		}
	}

	ntilde := new(big.Int).Mul(p, q)

	// f is a random quadratic residue mod ntilde generated as r^2 mod ntilde;
	// h1 = f, h2 = f^alpha mod ntilde for a secret alpha, which hides the
	// discrete log relationship between h1 and h2.
	f, err := randQR(random, ntilde)
	if err != nil {
		return nil, err
	}
	alpha, err := rand.Int(random, ntilde)
	if err != nil {
		return nil, err
	}

	h1 := f
	h2 := new(big.Int).Exp(f, alpha, ntilde)

	return &PrivateParams{
		PublicParams: PublicParams{
			Ntilde: ntilde,
			H1:     h1,
			H2:     h2,
		},
		P: p,
		Q: q,
	}, nil
}

// randQR samples a random quadratic residue modulo n.
func randQR(random io.Reader, n *big.Int) (*big.Int, error) {
	r, err := rand.Int(random, n)
	if err != nil {
		return nil, err
	}
	if r.Sign() == 0 {
		r = new(big.Int).Set(one)
	}
	r.Exp(r, two, n)
	return r, nil
}

// Commit computes h1^m * h2^rho mod Ntilde, the Pedersen-style commitment
// used throughout the range and receiver ZK proofs.
func (pp *PublicParams) Commit(m, rho *big.Int) *big.Int {
	c := new(big.Int).Exp(pp.H1, m, pp.Ntilde)
	c.Mul(c, new(big.Int).Exp(pp.H2, rho, pp.Ntilde))
	c.Mod(c, pp.Ntilde)
	return c
}

// Open reports whether commitment c opens to (m, rho).
func (pp *PublicParams) Open(c, m, rho *big.Int) bool {
	return pp.Commit(m, rho).Cmp(c) == 0
}
