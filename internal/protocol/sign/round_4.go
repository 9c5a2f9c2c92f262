package sign

import (
	"encoding/json"
	"fmt"
	"math/big"

	"github.com/cronokirby/mta-cggmp/internal/crypto/curves"
	"github.com/cronokirby/mta-cggmp/internal/ecdsa"
	"github.com/cronokirby/mta-cggmp/pkg/tss"
)

// Round4Payload carries a party's additive share of the final signature's
// s value, computed via ecdsa.LocalShareFromDigest once r is agreed upon.
type Round4Payload struct {
	Si *big.Int
}

// round4 reconstructs the joint nonce point R from every party's Gamma_i
// and the summed delta shares, derives r = R.x mod N, and broadcasts this
// party's additive contribution to s. In presign mode (no message) it
// finishes instead, with a PreSignature as the result.
func (s *state) round4() (tss.StateMachine, []tss.Message, error) {
	curve := curves.NewSecp256k1()
	N := curve.Params().N

	delta := new(big.Int).Set(s.tempData["delta_i"].(*big.Int))
	for _, msgs := range s.receivedMsgs {
		if len(msgs) == 0 {
			continue
		}
		var payload Round3Payload
		if err := json.Unmarshal(msgs[0].Payload(), &payload); err != nil {
			return nil, nil, err
		}
		delta.Add(delta, payload.DeltaI)
		delta.Mod(delta, N)
	}

	GammaX := s.tempData["GammaX"].(*big.Int)
	GammaY := s.tempData["GammaY"].(*big.Int)
	peerGammaX := s.tempData["peerGammaX"].(map[string]*big.Int)
	peerGammaY := s.tempData["peerGammaY"].(map[string]*big.Int)
	for id := range peerGammaX {
		GammaX, GammaY = curve.Add(GammaX, GammaY, peerGammaX[id], peerGammaY[id])
	}

	deltaInv := new(big.Int).ModInverse(delta, N)
	if deltaInv == nil {
		return nil, nil, fmt.Errorf("sign: delta is not invertible, abort and restart")
	}

	Rx, Ry := curve.ScalarMult(GammaX, GammaY, deltaInv)
	r := new(big.Int).Mod(Rx, N)
	if r.Sign() == 0 {
		return nil, nil, fmt.Errorf("sign: r is zero, restart the ceremony")
	}

	ki := s.tempData["ki"].(*big.Int)
	sigmaI := s.tempData["sigma_i"].(*big.Int)

	if s.msgToSign == nil {
		return &finishedState{preSignature: &PreSignature{
			R: r, Rx: Rx, Ry: Ry, Ki: ki, SigmaI: sigmaI,
		}}, nil, nil
	}

	z := ecdsa.ReduceDigest(s.msgToSign)
	si := ecdsa.LocalShareFromDigest(ki, sigmaI, r, z)

	s.tempData["r"] = r
	s.tempData["si"] = si
	s.tempData["Rx"] = Rx
	s.tempData["Ry"] = Ry

	payload := Round4Payload{Si: si}
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, nil, err
	}

	msg := &SignMessage{
		FromParty:  s.params.PartyID,
		ToParties:  nil,
		IsBcast:    true,
		Data:       data,
		TypeString: "SignRound4_Si",
		RoundNum:   4,
	}

	newState := &state{
		params:       s.params,
		keyData:      s.keyData,
		msgToSign:    s.msgToSign,
		round:        4,
		tempData:     s.tempData,
		receivedMsgs: make(map[string][]tss.Message),
	}

	return newState, []tss.Message{msg}, nil
}
