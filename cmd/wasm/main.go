//go:build js && wasm

package main

import (
	"encoding/hex"
	"encoding/json"
	"fmt"
	"syscall/js"

	"github.com/cronokirby/mta-cggmp/internal/protocol/keygen"
	"github.com/cronokirby/mta-cggmp/pkg/tss"
)

// Global map to store active state machines
// Key: Session ID (string)
var sessions = make(map[string]tss.StateMachine)

func main() {
	c := make(chan struct{}, 0)

	fmt.Println("Go CGGMP-TSS WASM Initialized")

	// Expose Go functions to JS
	js.Global().Set("GoCGGMP", map[string]interface{}{
		"NewKeyGen": js.FuncOf(NewKeyGen),
		"Update":    js.FuncOf(Update),
		"Result":    js.FuncOf(Result),
	})

	<-c
}

// NewKeyGen initializes a new KeyGen session.
// Arguments:
// 0: JSON string of parameters
// Returns:
// JSON string {"sessionID": ..., "messages": [...]} carrying the session
// handle and the round 1 messages, or an "error: ..." string on failure
// (nothing is thrown)
func NewKeyGen(this js.Value, args []js.Value) interface{} {
	if len(args) != 1 {
		return "error: expected 1 argument (jsonParams)"
	}

	paramsJSON := args[0].String()

	// Mirrors tss.Parameters with JSON-friendly field types.
	type ParamsInput struct {
		PartyID        string   `json:"partyID"`
		AllParties     []string `json:"allParties"`
		Threshold      int      `json:"threshold"`
		SessionID      string   `json:"sessionID"`
		OneRoundKeyGen bool     `json:"oneRoundKeyGen"`
	}

	var input ParamsInput
	err := json.Unmarshal([]byte(paramsJSON), &input)
	if err != nil {
		return fmt.Sprintf("error: invalid json: %v", err)
	}

	// Create PartyIDs
	parties := make([]tss.PartyID, len(input.AllParties))
	var localParty tss.PartyID
	for i, pid := range input.AllParties {
		p := &SimplePartyID{IDVal: pid, MonikerVal: pid}
		parties[i] = p
		if pid == input.PartyID {
			localParty = p
		}
	}

	if localParty == nil {
		return "error: local party ID not found in allParties"
	}

	params := &tss.Parameters{
		PartyID:        localParty,
		Parties:        parties,
		Threshold:      input.Threshold,
		Curve:          "secp256k1",
		SessionID:      []byte(input.SessionID),
		OneRoundKeyGen: input.OneRoundKeyGen,
	}

	// Initialize State Machine
	sm, outMsgs, err := keygen.NewStateMachine(params)
	if err != nil {
		return fmt.Sprintf("error: failed to create state machine: %v", err)
	}

	sessionHandle := fmt.Sprintf("%s-%s", input.PartyID, input.SessionID)
	sessions[sessionHandle] = sm

	// NewStateMachine produces round 1 messages immediately, so the
	// response carries both the session handle and those messages.
	resp := map[string]interface{}{
		"sessionID": sessionHandle,
		"messages":  encodeMessages(outMsgs),
	}

	respBytes, _ := json.Marshal(resp)
	return string(respBytes)
}

// Update processes an incoming message.
// Arguments:
// 0: Session ID (string)
// 1: JSON string of message
// Returns:
// JSON string of output messages (array)
func Update(this js.Value, args []js.Value) interface{} {
	if len(args) != 2 {
		return "error: expected 2 arguments (sessionID, jsonMsg)"
	}

	sessionID := args[0].String()
	msgJSON := args[1].String()

	sm, ok := sessions[sessionID]
	if !ok {
		return "error: session not found"
	}

	// KeyGenMessage's FromParty/ToParties fields are interfaces, which
	// encoding/json cannot populate directly, so the wire format is a
	// flat DTO instead.
	type MessageDTO struct {
		From        string   `json:"from"`
		To          []string `json:"to"`
		IsBroadcast bool     `json:"isBroadcast"`
		Data        string   `json:"data"` // Hex encoded
		Type        string   `json:"type"`
		Round       uint32   `json:"round"`
	}

	var dto MessageDTO
	err := json.Unmarshal([]byte(msgJSON), &dto)
	if err != nil {
		return fmt.Sprintf("error: invalid message dto: %v", err)
	}

	dataBytes, err := hex.DecodeString(dto.Data)
	if err != nil {
		return fmt.Sprintf("error: invalid hex data: %v", err)
	}

	fromParty := &SimplePartyID{IDVal: dto.From, MonikerVal: dto.From}
	var toParties []tss.PartyID
	if dto.To != nil {
		for _, t := range dto.To {
			toParties = append(toParties, &SimplePartyID{IDVal: t, MonikerVal: t})
		}
	}

	realMsg := &keygen.KeyGenMessage{
		FromParty:  fromParty,
		ToParties:  toParties,
		IsBcast:    dto.IsBroadcast,
		Data:       dataBytes,
		TypeString: dto.Type,
		RoundNum:   dto.Round,
	}

	nextSm, outMsgs, err := sm.Update(realMsg)
	if err != nil {
		return fmt.Sprintf("error: update failed: %v", err)
	}

	// A nil next state (with no error) means the message was ignored
	// (e.g. looped back from ourselves); keep the existing session.
	if nextSm != nil {
		sessions[sessionID] = nextSm
	}

	return marshalMessages(outMsgs)
}

// Result returns the final result if available.
// Arguments:
// 0: Session ID (string)
// Returns:
// JSON string or null
func Result(this js.Value, args []js.Value) interface{} {
	if len(args) != 1 {
		return "error: expected 1 argument (sessionID)"
	}
	sessionID := args[0].String()
	sm, ok := sessions[sessionID]
	if !ok {
		return "error: session not found"
	}

	res := sm.Result()
	if res == nil {
		return nil // Not finished
	}

	// big.Int marshals as an unquoted JSON number; callers on the JS side
	// must parse these fields with a BigInt-aware decoder to avoid precision
	// loss on values beyond 2^53.
	resBytes, err := json.Marshal(res)
	if err != nil {
		return fmt.Sprintf("error: marshal result failed: %v", err)
	}
	return string(resBytes)
}

// Helpers

type SimplePartyID struct {
	IDVal      string
	MonikerVal string
}

func (p *SimplePartyID) ID() string      { return p.IDVal }
func (p *SimplePartyID) Moniker() string { return p.MonikerVal }
func (p *SimplePartyID) Key() []byte     { return []byte(p.IDVal) }

func encodeMessages(msgs []tss.Message) []interface{} {
	var out []interface{} // JS array
	for _, m := range msgs {
		out = append(out, map[string]interface{}{
			"from": m.From().ID(),
			"to": func() []string {
				var ids []string
				for _, p := range m.To() {
					ids = append(ids, p.ID())
				}
				return ids
			}(),
			"isBroadcast": m.IsBroadcast(),
			"data":        hex.EncodeToString(m.Payload()),
			"type":        m.Type(),
			"round":       m.RoundNumber(),
		})
	}
	return out
}

func marshalMessages(msgs []tss.Message) string {
	encoded := encodeMessages(msgs)
	b, _ := json.Marshal(encoded)
	return string(b)
}
