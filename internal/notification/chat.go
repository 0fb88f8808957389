package notification

type NewMessage struct {
	Recipient     string `json:"recipient"`
	PartnershipID string `json:"partnershipId"`
	SenderName    string `json:"senderName"`
	Preview       string `json:"preview"`
}

func (NewMessage) Kind() Type { return TypeNewMessage }

func (e NewMessage) record() Record {
	r := newRecord(TypeNewMessage, e.Recipient,
		"New Message",
		e.SenderName+": "+e.Preview,
		"/partnerships/"+e.PartnershipID+"/chat",
	)
	r.Partnership = e.PartnershipID
	return r
}
