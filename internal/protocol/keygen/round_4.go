package keygen

import (
	"encoding/json"
	"fmt"
	"math/big"

	"github.com/decred/dcrd/dcrec/secp256k1/v4"

	"github.com/cronokirby/mta-cggmp/internal/crypto/curves"
	"github.com/cronokirby/mta-cggmp/internal/crypto/polynomial"
	"github.com/cronokirby/mta-cggmp/internal/crypto/zk/schnorr"
	"github.com/cronokirby/mta-cggmp/pkg/tss"
)

// round4 closes out the ceremony: every party has broadcast a Schnorr
// proof of knowledge of its public share X_j, and round4 checks both
// that proof and that X_j agrees with the public VSS commitments every
// party published back in round 2.
func (s *state) round4() (tss.StateMachine, []tss.Message, error) {
	curve := curves.NewSecp256k1()
	allVSS, _ := s.tempData["all_vss"].(map[string][]*big.Int)

	for id, msgs := range s.receivedMsgs {
		if len(msgs) == 0 {
			continue
		}
		msg := msgs[0]

		var payload Round3Payload
		if err := json.Unmarshal(msg.Payload(), &payload); err != nil {
			return nil, nil, fmt.Errorf("failed to unmarshal round 3 payload from %s: %w", id, err)
		}

		shareX := curves.ScalarFromBytes(payload.XiX)
		shareY := curves.ScalarFromBytes(payload.XiY)

		if err := verifySchnorrProof(shareX, shareY, payload.ProofR, payload.ProofS); err != nil {
			return nil, nil, tss.NewBlame(msg.From(), "schnorr proof verification failed", nil)
		}

		senderIdx := new(big.Int)
		if _, ok := senderIdx.SetString(id, 10); !ok {
			return nil, nil, fmt.Errorf("invalid party id %q in round 3 payload", id)
		}

		var expectedX, expectedY *big.Int
		for _, vss := range allVSS {
			t := s.params.Threshold
			commitX := make([]*big.Int, t+1)
			commitY := make([]*big.Int, t+1)
			for m := 0; m <= t; m++ {
				commitX[m] = vss[m*2]
				commitY[m] = vss[m*2+1]
			}
			termX, termY := polynomial.EvaluatePointCommitments(curve, commitX, commitY, senderIdx)
			if expectedX == nil {
				expectedX, expectedY = termX, termY
			} else {
				expectedX, expectedY = curve.Add(expectedX, expectedY, termX, termY)
			}
		}

		if shareX.Cmp(expectedX) != 0 || shareY.Cmp(expectedY) != 0 {
			return nil, nil, tss.NewBlame(msg.From(), "public key share mismatch", nil)
		}
	}

	return &finishedState{data: s.saveData}, nil, nil
}

// verifySchnorrProof rebuilds the (X_j, R, s) triple from wire bytes and
// checks the proof of knowledge of the discrete log behind X_j.
func verifySchnorrProof(shareX, shareY *big.Int, proofR, proofS []byte) error {
	var point secp256k1.JacobianPoint
	var px, py secp256k1.FieldVal
	px.SetByteSlice(shareX.Bytes())
	py.SetByteSlice(shareY.Bytes())
	point.X = px
	point.Y = py
	point.Z.SetInt(1)

	pubKey, err := secp256k1.ParsePubKey(proofR)
	if err != nil {
		return fmt.Errorf("failed to parse schnorr commitment point: %w", err)
	}
	var r secp256k1.JacobianPoint
	pubKey.AsJacobian(&r)

	proof := &schnorr.Proof{
		R: &r,
		S: curves.ScalarFromBytes(proofS),
	}
	if !proof.Verify(&point) {
		return fmt.Errorf("schnorr proof rejected")
	}
	return nil
}
