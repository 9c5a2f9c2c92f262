package keygen

import (
	"fmt"
	"math/big"

	"github.com/cronokirby/mta-cggmp/internal/crypto/curves"
	"github.com/cronokirby/mta-cggmp/internal/crypto/polynomial"
	"github.com/cronokirby/mta-cggmp/pkg/tss"
)

func (s *state) round2() (tss.StateMachine, []tss.Message, error) {
	// 1. Process Round 1 Messages (Commitments)
	peerCommitments := make(map[string][]byte)
	for id, msgs := range s.receivedMsgs {
		if len(msgs) == 0 {
			continue
		}
		peerCommitments[id] = msgs[0].Payload()
	}
	s.tempData["peer_commitments"] = peerCommitments

	// 2. Prepare Output Messages
	var outMsgs []tss.Message

	// 2a. Broadcast Decommitment
	decommitSalt, ok := s.tempData["round1_decommit"].([]byte)
	if !ok {
		return nil, nil, fmt.Errorf("missing decommitment salt")
	}
	
	// Reconstruct the data committed to in round 1 (PaillierPK || BC params
	// || VSS commitments) so it can be sent alongside the salt.

	paillierPk := s.saveData.PaillierPk
	bc := s.saveData.BCParams
	vssCommitments, ok := s.tempData["vss_commitments"].([]*big.Int)
	if !ok {
		return nil, nil, fmt.Errorf("missing vss commitments")
	}

	// Re-serialize data
	var decommitData []byte
	decommitData = append(decommitData, paillierPk.N.Bytes()...)
	decommitData = append(decommitData, curves.PadBytes(bc.Ntilde, curves.FS2048)...)
	decommitData = append(decommitData, curves.PadBytes(bc.H1, curves.FS2048)...)
	decommitData = append(decommitData, curves.PadBytes(bc.H2, curves.FS2048)...)
	for _, coord := range vssCommitments {
		decommitData = append(decommitData, coord.Bytes()...)
	}

	// Payload: Salt (32 bytes) || Data
	payload := make([]byte, len(decommitSalt)+len(decommitData))
	copy(payload, decommitSalt)
	copy(payload[len(decommitSalt):], decommitData)

	broadcastMsg := &KeyGenMessage{
		FromParty:   s.params.PartyID,
		ToParties:   nil,
		IsBcast:     true,
		Data:        payload,
		TypeString:  "KeyGenRound2_Decommit",
		RoundNum:    2,
	}
	outMsgs = append(outMsgs, broadcastMsg)

	// 2b. Send VSS Shares (P2P)
	poly, ok := s.tempData["polynomial"].(*polynomial.Polynomial)
	if !ok {
		return nil, nil, fmt.Errorf("missing polynomial")
	}

	for i, peer := range s.params.Parties {
		if peer.ID() == s.params.PartyID.ID() {
			continue
		}

		// Calculate x = index + 1 (using 1-based index for polynomial evaluation)
		// We assume s.params.Parties is sorted and consistent across all parties.
		x := big.NewInt(int64(i + 1))
		share := poly.Evaluate(x)

		// Payload: Share (big.Int bytes)
		p2pMsg := &KeyGenMessage{
			FromParty:   s.params.PartyID,
			ToParties:   []tss.PartyID{peer},
			IsBcast:     false,
			Data:        share.Bytes(),
			TypeString:  "KeyGenRound2_Share",
			RoundNum:    2,
		}
		outMsgs = append(outMsgs, p2pMsg)
	}

	// 3. Update State
	newState := &state{
		params:       s.params,
		round:        2,
		saveData:     s.saveData,
		tempData:     s.tempData,
		receivedMsgs: make(map[string][]tss.Message), // Clear for next round
	}

	return newState, outMsgs, nil
}
