package notification

// Type is the event-kind tag carried in every record.
type Type string

const (
	TypeTaskReminder  Type = "task_reminder"
	TypeTaskCompleted Type = "task_completed"

	TypeProofSubmitted Type = "proof_submitted"
	TypeProofVerified  Type = "proof_verified"
	TypeProofRejected  Type = "proof_rejected"

	TypePartnershipRequest  Type = "partnership_request"
	TypePartnershipAccepted Type = "partnership_accepted"
	TypePartnershipDeclined Type = "partnership_declined"
	TypeAgreementCreated    Type = "agreement_created"
	TypeAgreementCompleted  Type = "agreement_completed"

	TypeContentWarning Type = "content_warning"
	TypePenaltyApplied Type = "penalty_applied"

	TypeEscrowDeposit    Type = "escrow_deposit"
	TypeEscrowWithdrawal Type = "escrow_withdrawal"
	TypeEscrowReward     Type = "escrow_reward"
	TypeEscrowPenalty    Type = "escrow_penalty"

	TypeNewMessage Type = "new_message"
)

type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityMedium Priority = "medium"
	PriorityHigh   Priority = "high"
)

// Domain groups event kinds by the platform area that emits them.
type Domain string

const (
	DomainTask        Domain = "task"
	DomainProof       Domain = "proof"
	DomainPartnership Domain = "partnership"
	DomainModeration  Domain = "moderation"
	DomainEscrow      Domain = "escrow"
	DomainChat        Domain = "chat"
)

// KindInfo describes one entry of the kind table.
type KindInfo struct {
	Type     Type     `json:"type"`
	Domain   Domain   `json:"domain"`
	Priority Priority `json:"priority"`
}

// kindTable is ordered by domain; priorities are fixed per kind and never
// supplied by callers.
var kindTable = []KindInfo{
	{TypeTaskReminder, DomainTask, PriorityMedium},
	{TypeTaskCompleted, DomainTask, PriorityLow},

	{TypeProofSubmitted, DomainProof, PriorityHigh},
	{TypeProofVerified, DomainProof, PriorityMedium},
	{TypeProofRejected, DomainProof, PriorityHigh},

	{TypePartnershipRequest, DomainPartnership, PriorityHigh},
	{TypePartnershipAccepted, DomainPartnership, PriorityHigh},
	{TypePartnershipDeclined, DomainPartnership, PriorityMedium},
	{TypeAgreementCreated, DomainPartnership, PriorityHigh},
	{TypeAgreementCompleted, DomainPartnership, PriorityMedium},

	{TypeContentWarning, DomainModeration, PriorityHigh},
	{TypePenaltyApplied, DomainModeration, PriorityHigh},

	{TypeEscrowDeposit, DomainEscrow, PriorityMedium},
	{TypeEscrowWithdrawal, DomainEscrow, PriorityMedium},
	{TypeEscrowReward, DomainEscrow, PriorityHigh},
	{TypeEscrowPenalty, DomainEscrow, PriorityHigh},

	{TypeNewMessage, DomainChat, PriorityMedium},
}

var kindIndex = func() map[Type]KindInfo {
	m := make(map[Type]KindInfo, len(kindTable))
	for _, k := range kindTable {
		m[k.Type] = k
	}
	return m
}()

// Kinds returns a copy of the kind table in domain order.
func Kinds() []KindInfo {
	return append([]KindInfo(nil), kindTable...)
}

// Known reports whether t is one of the closed set of kinds.
func (t Type) Known() bool {
	_, ok := kindIndex[t]
	return ok
}

// Priority returns the fixed priority of the kind (empty for unknown kinds).
func (t Type) Priority() Priority { return kindIndex[t].Priority }

func (t Type) Domain() Domain { return kindIndex[t].Domain }

// Record is the canonical notification shape posted to the ingestion service.
//
// A Record is a value: Build returns a fresh copy and nothing in this module
// mutates it afterwards. Optional fields are omitted from JSON when empty.
type Record struct {
	Recipient string `json:"recipient" validate:"required"`
	Type      Type   `json:"type" validate:"required,kind"`
	Title     string `json:"title" validate:"required"`
	Message   string `json:"message" validate:"required"`
	Link      string `json:"link,omitempty"`

	Task        string `json:"task,omitempty"`
	Proof       string `json:"proof,omitempty"`
	Partnership string `json:"partnership,omitempty"`
	Moderation  string `json:"moderation,omitempty"`
	Transaction string `json:"transaction,omitempty"`

	// SourceMessageID identifies the chat message a content warning refers to.
	SourceMessageID string `json:"sourceMessageId,omitempty"`

	Priority Priority `json:"priority" validate:"oneof=low medium high"`
}

// Event is implemented by exactly one struct per kind in this package.
type Event interface {
	Kind() Type
	record() Record
}

// Build maps a typed event onto its canonical record. It performs no
// validation: empty or malformed values are copied verbatim.
func Build(e Event) Record {
	return e.record()
}

func newRecord(t Type, recipient, title, message, link string) Record {
	return Record{
		Recipient: recipient,
		Type:      t,
		Title:     title,
		Message:   message,
		Link:      link,
		Priority:  t.Priority(),
	}
}
