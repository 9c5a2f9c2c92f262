package sign

import (
	"encoding/json"

	"github.com/cronokirby/mta-cggmp/internal/ecdsa"
	"github.com/cronokirby/mta-cggmp/pkg/tss"
)

// roundOnline1 is the single online-phase round: r, k_i and sigma_i were
// already fixed during the offline presigning ceremony, so completing a
// signature on a freshly chosen message only requires computing and
// broadcasting this party's share of s.
func (s *state) roundOnline1() (tss.StateMachine, []tss.Message, error) {
	s.tempData["r"] = s.preSignature.R
	s.tempData["Rx"] = s.preSignature.Rx
	s.tempData["Ry"] = s.preSignature.Ry

	z := ecdsa.ReduceDigest(s.msgToSign)
	si := ecdsa.LocalShareFromDigest(s.preSignature.Ki, s.preSignature.SigmaI, s.preSignature.R, z)
	s.tempData["si"] = si

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

	return s, []tss.Message{msg}, nil
}
