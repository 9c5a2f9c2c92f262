package sign

import (
	"math/big"

	"github.com/cronokirby/mta-cggmp/pkg/tss"
)

// Signature is a completed threshold ECDSA signature, assembled from
// every party's additive s share once r has been agreed on.
type Signature struct {
	R     *big.Int
	S     *big.Int
	RecID int
}

// PreSignature holds the offline-phase output of a presign run: the
// agreed nonce point R and this party's additive shares of k and of
// k*sk (sigma), both recovered via the two MtA conversions against
// every other party. Combining a PreSignature with a message digest in
// the online phase is the only work left to produce a signature.
type PreSignature struct {
	R      *big.Int
	Rx     *big.Int
	Ry     *big.Int
	Ki     *big.Int
	SigmaI *big.Int
}

// SignMessage is the wire message type exchanged between rounds of the
// signing, presigning, and online-signing state machines.
type SignMessage struct {
	FromParty  tss.PartyID
	ToParties  []tss.PartyID
	IsBcast    bool
	Data       []byte
	TypeString string
	RoundNum   uint32
}

func (m *SignMessage) Type() string        { return m.TypeString }
func (m *SignMessage) From() tss.PartyID   { return m.FromParty }
func (m *SignMessage) To() []tss.PartyID   { return m.ToParties }
func (m *SignMessage) IsBroadcast() bool   { return m.IsBcast }
func (m *SignMessage) Payload() []byte     { return m.Data }
func (m *SignMessage) RoundNumber() uint32 { return m.RoundNum }
