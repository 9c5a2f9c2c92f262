package mta

import (
"crypto/rand"
"math/big"
"testing"

"github.com/decred/dcrd/dcrec/secp256k1/v4"
"github.com/cronokirby/mta-cggmp/internal/crypto/bcmod"
"github.com/cronokirby/mta-cggmp/internal/crypto/paillier"
)

type testFixture struct {
	pk *paillier.PublicKey
	bc *bcmod.PublicParams
	c1 *big.Int
	c2 *big.Int
	x  *big.Int
	y  *big.Int
	r  *big.Int
}

func setup(t *testing.T) *testFixture {
	t.Helper()
	sk, err := paillier.GenerateKey(rand.Reader, 1024)
	if err != nil {
		t.Fatal(err)
	}
	pk := &sk.PublicKey
	bc, err := bcmod.Generate(rand.Reader, 512)
	if err != nil {
		t.Fatal(err)
	}

	a := big.NewInt(9)
	c1, _, err := pk.Encrypt(a)
	if err != nil {
		t.Fatal(err)
	}

	x, err := rand.Int(rand.Reader, secp256k1.S256().N)
	if err != nil {
		t.Fatal(err)
	}
	y, err := rand.Int(rand.Reader, pk.N)
	if err != nil {
		t.Fatal(err)
	}
	r, err := rand.Int(rand.Reader, pk.N)
	if err != nil {
		t.Fatal(err)
	}

	c1x := new(big.Int).Exp(c1, x, pk.N2)
	encY, err := pk.EncryptWithNonce(y, r)
	if err != nil {
		t.Fatal(err)
	}
	c2 := new(big.Int).Mul(c1x, encY)
	c2.Mod(c2, pk.N2)

	return &testFixture{pk: pk, bc: &bc.PublicParams, c1: c1, c2: c2, x: x, y: y, r: r}
}

func TestProveVerify(t *testing.T) {
	f := setup(t)

	proof, err := Prove(f.pk, f.bc, f.c1, f.c2, f.x, f.y, f.r)
	if err != nil {
		t.Fatalf("Prove failed: %v", err)
	}
	if !proof.Verify(f.pk, f.bc, f.c1, f.c2) {
		t.Fatal("Verify failed on an honest proof")
	}
}

func TestProveVerifyRoundTrip(t *testing.T) {
	f := setup(t)

	proof, err := Prove(f.pk, f.bc, f.c1, f.c2, f.x, f.y, f.r)
	if err != nil {
		t.Fatalf("Prove failed: %v", err)
	}

	encoded := proof.ToBytes()
	decoded, err := FromBytes(encoded)
	if err != nil {
		t.Fatalf("FromBytes failed: %v", err)
	}
	if !decoded.Verify(f.pk, f.bc, f.c1, f.c2) {
		t.Fatal("decoded proof must still verify")
	}
}

func TestProveVerifyTamperedFails(t *testing.T) {
	f := setup(t)

	proof, err := Prove(f.pk, f.bc, f.c1, f.c2, f.x, f.y, f.r)
	if err != nil {
		t.Fatalf("Prove failed: %v", err)
	}
	proof.S1.Add(proof.S1, big.NewInt(1))
	if proof.Verify(f.pk, f.bc, f.c1, f.c2) {
		t.Fatal("tampering with S1 must cause verification to fail")
	}
}

func TestProveVerifyWC(t *testing.T) {
	f := setup(t)

	var X secp256k1.JacobianPoint
	xScalar := new(secp256k1.ModNScalar)
	xScalar.SetByteSlice(f.x.Bytes())
	secp256k1.ScalarBaseMultNonConst(xScalar, &X)

	proof, err := ProveWC(f.pk, f.bc, f.c1, f.c2, f.x, f.y, f.r, &X)
	if err != nil {
		t.Fatalf("ProveWC failed: %v", err)
	}
	if !proof.Verify(f.pk, f.bc, f.c1, f.c2, &X) {
		t.Fatal("VerifyWC failed on an honest proof")
	}
}

func TestProveVerifyWCTamperedPointFails(t *testing.T) {
	f := setup(t)

	var X secp256k1.JacobianPoint
	xScalar := new(secp256k1.ModNScalar)
	xScalar.SetByteSlice(f.x.Bytes())
	secp256k1.ScalarBaseMultNonConst(xScalar, &X)

	proof, err := ProveWC(f.pk, f.bc, f.c1, f.c2, f.x, f.y, f.r, &X)
	if err != nil {
		t.Fatalf("ProveWC failed: %v", err)
	}

	var wrongX secp256k1.JacobianPoint
	wrongScalar := new(secp256k1.ModNScalar)
	wrongScalar.SetByteSlice(big.NewInt(2).Bytes())
	secp256k1.ScalarBaseMultNonConst(wrongScalar, &wrongX)

	if proof.Verify(f.pk, f.bc, f.c1, f.c2, &wrongX) {
		t.Fatal("verification must fail against the wrong X")
	}
}
