package notification

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
)

var ErrUnknownKind = errors.New("unknown notification kind")

// Envelope is the serialized form of an event: a kind tag plus the event's
// own JSON fields. The CLI and the NATS relay both speak it.
type Envelope struct {
	Kind    Type            `json:"kind"`
	Payload json.RawMessage `json:"payload"`
}

// Event decodes the payload into the typed event registered for Kind.
func (env Envelope) Event() (Event, error) {
	return Decode(env.Kind, env.Payload)
}

var registry = map[Type]func() Event{
	TypeTaskReminder:        func() Event { return &TaskReminder{} },
	TypeTaskCompleted:       func() Event { return &TaskCompleted{} },
	TypeProofSubmitted:      func() Event { return &ProofSubmitted{} },
	TypeProofVerified:       func() Event { return &ProofVerified{} },
	TypeProofRejected:       func() Event { return &ProofRejected{} },
	TypePartnershipRequest:  func() Event { return &PartnershipRequest{} },
	TypePartnershipAccepted: func() Event { return &PartnershipAccepted{} },
	TypePartnershipDeclined: func() Event { return &PartnershipDeclined{} },
	TypeAgreementCreated:    func() Event { return &AgreementCreated{} },
	TypeAgreementCompleted:  func() Event { return &AgreementCompleted{} },
	TypeContentWarning:      func() Event { return &ContentWarning{} },
	TypePenaltyApplied:      func() Event { return &PenaltyApplied{} },
	TypeEscrowDeposit:       func() Event { return &EscrowDeposit{} },
	TypeEscrowWithdrawal:    func() Event { return &EscrowWithdrawal{} },
	TypeEscrowReward:        func() Event { return &EscrowReward{} },
	TypeEscrowPenalty:       func() Event { return &EscrowPenalty{} },
	TypeNewMessage:          func() Event { return &NewMessage{} },
}

// Decode builds the typed event for kind from its JSON payload. Unknown
// payload fields are rejected so typos in producer payloads surface early.
func Decode(kind Type, payload []byte) (Event, error) {
	mk, ok := registry[kind]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownKind, kind)
	}
	if len(bytes.TrimSpace(payload)) == 0 {
		return nil, fmt.Errorf("decode %s: empty payload", kind)
	}

	ev := mk()
	dec := json.NewDecoder(bytes.NewReader(payload))
	dec.DisallowUnknownFields()
	if err := dec.Decode(ev); err != nil {
		return nil, fmt.Errorf("decode %s: %w", kind, err)
	}
	if err := dec.Decode(&struct{}{}); err != io.EOF {
		return nil, fmt.Errorf("decode %s: trailing data", kind)
	}
	return ev, nil
}

// NewEnvelope serializes e for transport.
func NewEnvelope(e Event) (Envelope, error) {
	b, err := json.Marshal(e)
	if err != nil {
		return Envelope{}, fmt.Errorf("encode %s: %w", e.Kind(), err)
	}
	return Envelope{Kind: e.Kind(), Payload: b}, nil
}
