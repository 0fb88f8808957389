package notification

import "fmt"

// Violation kinds recognised by the content-warning template. Any other value
// falls back to the generic warning text.
const (
	ViolationPersonalInfo    = "personal_info"
	ViolationInappropriate   = "inappropriate"
	ViolationExternalContact = "external_contact"
)

const (
	warningPersonalInfo    = "Your message was flagged for sharing personal information. For your safety, keep phone numbers and addresses out of chat."
	warningInappropriate   = "Your message was flagged as inappropriate. Please keep conversations respectful and follow the community guidelines."
	warningExternalContact = "Your message was flagged for moving the conversation off the platform. Please keep all communication within the app."
	warningGeneric         = "Your message was flagged for violating the community guidelines. Repeated violations may lead to penalties."
)

// ContentWarning is sent when moderation flags one of the recipient's chat
// messages. MessageID is the flagged message, not the warning text.
type ContentWarning struct {
	Recipient    string `json:"recipient"`
	ModerationID string `json:"moderationId"`
	MessageID    string `json:"messageId"`
	Violation    string `json:"violation"`
}

func (ContentWarning) Kind() Type { return TypeContentWarning }

func (e ContentWarning) record() Record {
	r := newRecord(TypeContentWarning, e.Recipient,
		"Content Warning",
		warningText(e.Violation),
		"/community-guidelines",
	)
	r.Moderation = e.ModerationID
	r.SourceMessageID = e.MessageID
	return r
}

func warningText(violation string) string {
	switch violation {
	case ViolationPersonalInfo:
		return warningPersonalInfo
	case ViolationInappropriate:
		return warningInappropriate
	case ViolationExternalContact:
		return warningExternalContact
	default:
		return warningGeneric
	}
}

type PenaltyApplied struct {
	Recipient    string `json:"recipient"`
	ModerationID string `json:"moderationId"`
	Penalty      string `json:"penalty"`
	Reason       string `json:"reason"`
}

func (PenaltyApplied) Kind() Type { return TypePenaltyApplied }

func (e PenaltyApplied) record() Record {
	r := newRecord(TypePenaltyApplied, e.Recipient,
		"Penalty Applied",
		fmt.Sprintf("A penalty has been applied to your account: %s. Reason: %s", e.Penalty, e.Reason),
		"/account/standing",
	)
	r.Moderation = e.ModerationID
	return r
}
