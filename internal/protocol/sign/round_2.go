package sign

import (
	"encoding/json"
	"fmt"
	"math/big"

	"github.com/cronokirby/mta-cggmp/internal/mta"
	rangeproof "github.com/cronokirby/mta-cggmp/internal/crypto/zk/range"
	"github.com/cronokirby/mta-cggmp/pkg/tss"
)

type Round2Payload struct {
	C_delta    *big.Int
	C_sigma    *big.Int
	DeltaProof []byte // Receiver ZK Proof over C_delta
	SigmaProof []byte // Receiver ZK Proof over C_sigma
}

func (s *state) round2() (tss.StateMachine, []tss.Message, error) {
	// 1. Process Round 1 Messages
	peerEncK := make(map[string]*big.Int)
	peerGammaX := make(map[string]*big.Int)
	peerGammaY := make(map[string]*big.Int)
	peerRangeMsgs := make(map[string]*mta.ClientFirstMessage)

	for id, msgs := range s.receivedMsgs {
		var bcastMsg, proofMsg tss.Message
		for _, m := range msgs {
			switch m.Type() {
			case "SignRound1":
				bcastMsg = m
			case "SignRound1_RangeProof":
				proofMsg = m
			}
		}
		if bcastMsg == nil || proofMsg == nil {
			return nil, nil, fmt.Errorf("missing round 1 messages from %s", id)
		}

		var payload Round1Payload
		if err := json.Unmarshal(bcastMsg.Payload(), &payload); err != nil {
			return nil, nil, err
		}
		encK := new(big.Int).SetBytes(payload.EncK)
		peerEncK[id] = encK
		peerGammaX[id] = new(big.Int).SetBytes(payload.GammaX)
		peerGammaY[id] = new(big.Int).SetBytes(payload.GammaY)

		var proofPayload Round1RangeProofPayload
		if err := json.Unmarshal(proofMsg.Payload(), &proofPayload); err != nil {
			return nil, nil, err
		}
		proof, err := rangeproof.FromBytes(proofPayload.Proof)
		if err != nil {
			return nil, nil, fmt.Errorf("malformed range proof from %s: %w", id, err)
		}
		pkj := s.keyData.PeerPaillierPks[id]
		if pkj == nil {
			return nil, nil, fmt.Errorf("missing paillier key for %s", id)
		}
		if status := proof.VerifyStatus(pkj, &s.keyData.BCParams.PublicParams, encK); status != tss.StatusOK {
			return nil, nil, tss.NewBlameFromStatus(bcastMsg.From(), "range proof verification failed", status)
		}
		peerRangeMsgs[id] = &mta.ClientFirstMessage{CA: encK, Range: proof}
	}
	s.tempData["peerEncK"] = peerEncK
	s.tempData["peerGammaX"] = peerGammaX
	s.tempData["peerGammaY"] = peerGammaY

	// 2. Perform MtA with each peer: we act as the server against each
	// peer's EncK_j, once for gamma_i (delta) and once for w_i (sigma).
	var outMsgs []tss.Message

	betas := make(map[string]*big.Int)
	nus := make(map[string]*big.Int)

	gammai := s.tempData["gammai"].(*big.Int)
	wi := s.tempData["wi"].(*big.Int)

	for _, peer := range s.params.Parties {
		if peer.ID() == s.params.PartyID.ID() {
			continue
		}

		pid := peer.ID()
		pkj := s.keyData.PeerPaillierPks[pid]
		clientMsg := peerRangeMsgs[pid]
		peerBC := s.keyData.PeerBCParams[pid]
		if pkj == nil || clientMsg == nil || peerBC == nil {
			return nil, nil, fmt.Errorf("missing mta inputs for %s", pid)
		}

		deltaResp, err := mta.Server(pkj, &s.keyData.BCParams.PublicParams, peerBC, clientMsg, gammai, nil, nil)
		if err != nil {
			return nil, nil, fmt.Errorf("mta server (delta) failed for %s: %w", pid, err)
		}
		betas[pid] = deltaResp.Beta

		sigmaResp, err := mta.Server(pkj, &s.keyData.BCParams.PublicParams, peerBC, clientMsg, wi, nil, nil)
		if err != nil {
			return nil, nil, fmt.Errorf("mta server (sigma) failed for %s: %w", pid, err)
		}
		nus[pid] = sigmaResp.Beta

		payload := Round2Payload{
			C_delta:    deltaResp.CB,
			C_sigma:    sigmaResp.CB,
			DeltaProof: deltaResp.Proof.ToBytes(),
			SigmaProof: sigmaResp.Proof.ToBytes(),
		}
		data, err := json.Marshal(payload)
		if err != nil {
			return nil, nil, err
		}

		msg := &SignMessage{
			FromParty:  s.params.PartyID,
			ToParties:  []tss.PartyID{peer},
			IsBcast:    false,
			Data:       data,
			TypeString: "SignRound2_MtA",
			RoundNum:   2,
		}
		outMsgs = append(outMsgs, msg)
	}

	s.tempData["betas"] = betas
	s.tempData["nus"] = nus

	newState := &state{
		params:       s.params,
		keyData:      s.keyData,
		msgToSign:    s.msgToSign,
		round:        2,
		tempData:     s.tempData,
		receivedMsgs: make(map[string][]tss.Message),
	}

	return newState, outMsgs, nil
}
