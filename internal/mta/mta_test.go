package mta

import (
"crypto/rand"
"math/big"
"testing"

"github.com/decred/dcrd/dcrec/secp256k1/v4"
"github.com/cronokirby/mta-cggmp/internal/crypto/bcmod"
"github.com/cronokirby/mta-cggmp/internal/crypto/paillier"
)

type fixture struct {
	pk *paillier.PublicKey
	sk *paillier.PrivateKey
	bc *bcmod.PublicParams
}

func setupFixture(t *testing.T) *fixture {
	t.Helper()
	sk, err := paillier.GenerateKey(rand.Reader, 1024)
	if err != nil {
		t.Fatal(err)
	}
	bc, err := bcmod.Generate(rand.Reader, 512)
	if err != nil {
		t.Fatal(err)
	}
	return &fixture{pk: &sk.PublicKey, sk: sk, bc: &bc.PublicParams}
}

func TestMtAEndToEnd(t *testing.T) {
	f := setupFixture(t)
	q := secp256k1.S256().N

	a, err := rand.Int(rand.Reader, q)
	if err != nil {
		t.Fatal(err)
	}
	b, err := rand.Int(rand.Reader, q)
	if err != nil {
		t.Fatal(err)
	}

	_, msg, err := ClientPass1(f.pk, f.bc, a, nil)
	if err != nil {
		t.Fatalf("ClientPass1 failed: %v", err)
	}

	resp, err := Server(f.pk, f.bc, f.bc, msg, b, nil, nil)
	if err != nil {
		t.Fatalf("Server failed: %v", err)
	}
	if !resp.Proof.Verify(f.pk, f.bc, msg.CA, resp.CB) {
		t.Fatal("server's receiver ZK proof failed verification")
	}

	alpha, err := ClientPass2(f.sk, resp.CB)
	if err != nil {
		t.Fatalf("ClientPass2 failed: %v", err)
	}

	got := new(big.Int).Add(alpha, resp.Beta)
	got.Mod(got, q)
	want := new(big.Int).Mul(a, b)
	want.Mod(want, q)

	if got.Cmp(want) != 0 {
		t.Fatalf("alpha+beta = %v, want a*b mod q = %v", got, want)
	}
}

func TestMtAEndToEndWC(t *testing.T) {
	f := setupFixture(t)
	q := secp256k1.S256().N

	a, err := rand.Int(rand.Reader, q)
	if err != nil {
		t.Fatal(err)
	}
	b, err := rand.Int(rand.Reader, q)
	if err != nil {
		t.Fatal(err)
	}

	var X secp256k1.JacobianPoint
	bScalar := new(secp256k1.ModNScalar)
	bScalar.SetByteSlice(b.Bytes())
	secp256k1.ScalarBaseMultNonConst(bScalar, &X)

	_, msg, err := ClientPass1(f.pk, f.bc, a, nil)
	if err != nil {
		t.Fatalf("ClientPass1 failed: %v", err)
	}

	resp, err := ServerWC(f.pk, f.bc, f.bc, msg, b, nil, nil, &X)
	if err != nil {
		t.Fatalf("ServerWC failed: %v", err)
	}
	if !resp.Proof.Verify(f.pk, f.bc, msg.CA, resp.CB, &X) {
		t.Fatal("server's receiver ZKWC proof failed verification")
	}

	alpha, err := ClientPass2(f.sk, resp.CB)
	if err != nil {
		t.Fatalf("ClientPass2 failed: %v", err)
	}

	got := new(big.Int).Add(alpha, resp.Beta)
	got.Mod(got, q)
	want := new(big.Int).Mul(a, b)
	want.Mod(want, q)

	if got.Cmp(want) != 0 {
		t.Fatalf("alpha+beta = %v, want a*b mod q = %v", got, want)
	}
}

func TestServerRejectsBadRangeProof(t *testing.T) {
	f := setupFixture(t)
	q := secp256k1.S256().N

	a, _ := rand.Int(rand.Reader, q)
	b, _ := rand.Int(rand.Reader, q)

	_, msg, err := ClientPass1(f.pk, f.bc, a, nil)
	if err != nil {
		t.Fatalf("ClientPass1 failed: %v", err)
	}
	msg.Range.S1.Add(msg.Range.S1, big.NewInt(1))

	if _, err := Server(f.pk, f.bc, f.bc, msg, b, nil, nil); err == nil {
		t.Fatal("Server must reject a tampered range proof")
	}
}

func TestSum(t *testing.T) {
	q := secp256k1.S256().N
	a1 := big.NewInt(3)
	b1 := big.NewInt(5)
	alpha := big.NewInt(7)
	beta := new(big.Int).Neg(big.NewInt(2))
	beta.Mod(beta, q)

	got := Sum(a1, b1, alpha, beta)
	want := new(big.Int).SetInt64(3*5 + 7 - 2)
	want.Mod(want, q)
	if got.Cmp(want) != 0 {
		t.Fatalf("Sum = %v, want %v", got, want)
	}
}
