package sign

import (
	"encoding/json"
	"fmt"
	"math/big"

	"github.com/cronokirby/mta-cggmp/internal/crypto/curves"
	localecdsa "github.com/cronokirby/mta-cggmp/internal/ecdsa"
	"github.com/cronokirby/mta-cggmp/pkg/tss"
)

func (s *state) round5() (tss.StateMachine, []tss.Message, error) {
	curve := curves.NewSecp256k1()
	N := curve.Params().N

	// 1. Process Round 4 Messages (s_j)
	si := s.tempData["si"].(*big.Int)
	finalS := new(big.Int).Set(si)
	
	for _, msgs := range s.receivedMsgs {
		if len(msgs) == 0 { continue }
		var payload Round4Payload
		if err := json.Unmarshal(msgs[0].Payload(), &payload); err != nil {
			return nil, nil, err
		}
		finalS.Add(finalS, payload.Si)
		finalS.Mod(finalS, N)
	}
	
	// 2. Verify Signature (r, s)
	r := s.tempData["r"].(*big.Int)
	
	// Construct Signature
	signature := &Signature{
		R: r,
		S: finalS,
	}
	
	// Verify using the global public key assembled during key generation.
	localSig := &localecdsa.Signature{R: r, S: finalS}
	if !localecdsa.Verify(s.keyData.PublicKeyX, s.keyData.PublicKeyY, s.msgToSign, localSig) {
		return nil, nil, fmt.Errorf("signature verification failed")
	}
	
	// Success!
	return &finishedState{signature: signature}, nil, nil
}
