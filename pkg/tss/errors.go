package tss

import "fmt"

// Blame represents an error caused by a specific party, letting the
// ceremony identify and exclude a malicious or faulty participant rather
// than aborting blind. Status carries the zero-knowledge verification
// outcome (StatusFail, StatusInvalidECP) when the blame originated from
// a proof check, so a caller can distinguish a bad proof from a
// malformed wire encoding without parsing Reason.
type Blame struct {
	PartyID PartyID
	Reason  string
	Status  StatusCode
	Err     error
}

func (b *Blame) Error() string {
	if b.Err != nil {
		return fmt.Sprintf("blame party %s: %s: %v", b.PartyID.ID(), b.Reason, b.Err)
	}
	return fmt.Sprintf("blame party %s: %s", b.PartyID.ID(), b.Reason)
}

func (b *Blame) Unwrap() error {
	return b.Err
}

// NewBlame creates a Blame for a failure that did not come from a
// VerifyStatus call; its Status is StatusFail.
func NewBlame(party PartyID, reason string, err error) *Blame {
	return &Blame{
		PartyID: party,
		Reason:  reason,
		Status:  StatusFail,
		Err:     err,
	}
}

// NewBlameFromStatus creates a Blame directly from a zero-knowledge
// verification StatusCode, for callers that already have one from a
// Proof.VerifyStatus call and want the status preserved rather than
// re-derived from Reason.
func NewBlameFromStatus(party PartyID, reason string, status StatusCode) *Blame {
	return &Blame{
		PartyID: party,
		Reason:  reason,
		Status:  status,
	}
}
