package curves

import (
"errors"
"math/big"

"github.com/decred/dcrd/dcrec/secp256k1/v4"
)

// ErrInvalidPoint is returned when a byte string does not decode to a valid
// point on the curve (the INVALID_ECP condition).
var ErrInvalidPoint = errors.New("curves: invalid curve point encoding")

// ScalarSize is the canonical fixed width, in bytes, of a serialized
// secp256k1 scalar.
const ScalarSize = 32

// ScalarToBytes encodes a scalar as a big-endian, left-zero-padded 32 byte
// string.
func ScalarToBytes(s *big.Int) []byte {
	out := make([]byte, ScalarSize)
	b := s.Bytes()
	if len(b) > ScalarSize {
		b = b[len(b)-ScalarSize:]
	}
	copy(out[ScalarSize-len(b):], b)
	return out
}

// ScalarFromBytes decodes a big-endian scalar.
func ScalarFromBytes(b []byte) *big.Int {
	return new(big.Int).SetBytes(b)
}

// Canonical fixed octet widths used throughout the Paillier/BC-modulus
// transcripts (see the external interfaces section of the design doc).
const (
	FS2048 = 256 // modulo N or Ntilde
	FS4096 = 512 // modulo N^2
	HFS2048 = 128
)

// PadBytes left-zero-pads v's big-endian encoding to exactly width bytes.
// It panics if v does not fit, since that indicates a contract violation
// by the caller (wrong modulus for the declared field width) rather than a
// runtime condition.
func PadBytes(v *big.Int, width int) []byte {
	b := v.Bytes()
	if len(b) > width {
		panic("curves: value does not fit in the declared octet width")
	}
	out := make([]byte, width)
	copy(out[width-len(b):], b)
	return out
}

// PointToBytesCompressed serializes the affine point (x, y) in SEC1
// compressed form (33 bytes).
func PointToBytesCompressed(x, y *big.Int) []byte {
	var fx, fy secp256k1.FieldVal
	fx.SetByteSlice(x.Bytes())
	fy.SetByteSlice(y.Bytes())
	pk := secp256k1.NewPublicKey(&fx, &fy)
	return pk.SerializeCompressed()
}

// PointFromBytesCompressed parses a 33 byte SEC1 compressed point,
// validating that it lies on the curve. It returns ErrInvalidPoint on any
// malformed or off-curve encoding.
func PointFromBytesCompressed(b []byte) (x, y *big.Int, err error) {
	pk, err := secp256k1.ParsePubKey(b)
	if err != nil {
		return nil, nil, ErrInvalidPoint
	}
	var jac secp256k1.JacobianPoint
	pk.AsJacobian(&jac)
	jac.ToAffine()
	return new(big.Int).SetBytes(jac.X.Bytes()[:]), new(big.Int).SetBytes(jac.Y.Bytes()[:]), nil
}
