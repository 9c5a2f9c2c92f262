package keygen

import (
	"fmt"

	"github.com/cronokirby/mta-cggmp/pkg/tss"
)

type state struct {
	params *tss.Parameters

	// directMode selects the single-round keygen optimization (round1Direct
	// / round2Direct) instead of the four-round commit/decommit protocol.
	directMode bool

	// Current round number (1-based)
	round int

	// Data being built up
	saveData *LocalPartySaveData

	// Temporary data to be carried over to next rounds
	tempData map[string]interface{}

	// Messages received in the current round, keyed by sender.
	receivedMsgs map[string][]tss.Message
}

// NewStateMachine initializes a new KeyGen state machine.
// It immediately executes Round 1 logic to generate the first set of messages.
func NewStateMachine(params *tss.Parameters) (tss.StateMachine, []tss.Message, error) {
	s := &state{
		params:     params,
		directMode: params.OneRoundKeyGen,
		round:      1,
		saveData: &LocalPartySaveData{
			LocalPartyID: params.PartyID,
		},
		tempData:     make(map[string]interface{}),
		receivedMsgs: make(map[string][]tss.Message),
	}

	if s.directMode {
		return s.round1Direct()
	}
	return s.round1()
}

func (s *state) Update(msg tss.Message) (tss.StateMachine, []tss.Message, error) {
	if msg.RoundNumber() != uint32(s.round) {
		return nil, nil, fmt.Errorf("received message for round %d, expected %d", msg.RoundNumber(), s.round)
	}

	senderID := msg.From().ID()
	if senderID == s.params.PartyID.ID() {
		return nil, nil, nil
	}

	if s.receivedMsgs == nil {
		s.receivedMsgs = make(map[string][]tss.Message)
	}

	for _, existing := range s.receivedMsgs[senderID] {
		if existing.Type() == msg.Type() {
			return nil, nil, fmt.Errorf("duplicate message type %s from party %s", msg.Type(), senderID)
		}
	}
	s.receivedMsgs[senderID] = append(s.receivedMsgs[senderID], msg)

	if len(s.receivedMsgs) < len(s.params.Parties)-1 {
		return s, nil, nil
	}

	expectedCount := 1
	if s.directMode {
		expectedCount = 2 // broadcast key material + p2p VSS share
	} else {
		switch s.round {
		case 1:
			expectedCount = 1 // commitment broadcast
		case 2:
			expectedCount = 2 // decommit broadcast + p2p VSS share
		case 3:
			expectedCount = 1 // schnorr proof broadcast
		}
	}

	for _, msgs := range s.receivedMsgs {
		if len(msgs) < expectedCount {
			return s, nil, nil
		}
	}

	return s.nextRound()
}

func (s *state) nextRound() (tss.StateMachine, []tss.Message, error) {
	if s.directMode {
		switch s.round {
		case 1:
			return s.round2Direct()
		default:
			return nil, nil, fmt.Errorf("unknown round %d", s.round)
		}
	}

	switch s.round {
	case 1:
		return s.round2()
	case 2:
		return s.round3()
	case 3:
		return s.round4()
	default:
		return nil, nil, fmt.Errorf("unknown round %d", s.round)
	}
}

func (s *state) Result() interface{} {
	return nil
}

func (s *state) Details() string {
	return fmt.Sprintf("KeyGen Round %d", s.round)
}

// finishedState is returned once key generation completes, holding the
// final save data for this party.
type finishedState struct {
	data *LocalPartySaveData
}

func (s *finishedState) Update(msg tss.Message) (tss.StateMachine, []tss.Message, error) {
	return nil, nil, tss.ErrProtocolDone
}

func (s *finishedState) Result() interface{} {
	return s.data
}

func (s *finishedState) Details() string {
	return "KeyGen Finished"
}
