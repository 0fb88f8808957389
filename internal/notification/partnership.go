package notification

import "fmt"

type PartnershipRequest struct {
	Recipient     string `json:"recipient"`
	PartnershipID string `json:"partnershipId"`
	RequesterName string `json:"requesterName"`
}

func (PartnershipRequest) Kind() Type { return TypePartnershipRequest }

func (e PartnershipRequest) record() Record {
	r := newRecord(TypePartnershipRequest, e.Recipient,
		"New Partnership Request",
		fmt.Sprintf("%s wants to be your accountability partner.", e.RequesterName),
		"/partnerships/requests",
	)
	r.Partnership = e.PartnershipID
	return r
}

type PartnershipAccepted struct {
	Recipient     string `json:"recipient"`
	PartnershipID string `json:"partnershipId"`
	PartnerName   string `json:"partnerName"`
}

func (PartnershipAccepted) Kind() Type { return TypePartnershipAccepted }

func (e PartnershipAccepted) record() Record {
	r := newRecord(TypePartnershipAccepted, e.Recipient,
		"Partnership Accepted",
		fmt.Sprintf("%s accepted your partnership request.", e.PartnerName),
		"/partnerships/"+e.PartnershipID,
	)
	r.Partnership = e.PartnershipID
	return r
}

type PartnershipDeclined struct {
	Recipient     string `json:"recipient"`
	PartnershipID string `json:"partnershipId"`
	PartnerName   string `json:"partnerName"`
}

func (PartnershipDeclined) Kind() Type { return TypePartnershipDeclined }

func (e PartnershipDeclined) record() Record {
	r := newRecord(TypePartnershipDeclined, e.Recipient,
		"Partnership Declined",
		fmt.Sprintf("%s declined your partnership request.", e.PartnerName),
		"/partnerships",
	)
	r.Partnership = e.PartnershipID
	return r
}

type AgreementCreated struct {
	Recipient      string `json:"recipient"`
	PartnershipID  string `json:"partnershipId"`
	PartnerName    string `json:"partnerName"`
	AgreementTitle string `json:"agreementTitle"`
}

func (AgreementCreated) Kind() Type { return TypeAgreementCreated }

func (e AgreementCreated) record() Record {
	r := newRecord(TypeAgreementCreated, e.Recipient,
		"New Agreement",
		fmt.Sprintf("%s created the agreement \"%s\". Review the terms to get started.", e.PartnerName, e.AgreementTitle),
		"/partnerships/"+e.PartnershipID+"/agreement",
	)
	r.Partnership = e.PartnershipID
	return r
}

type AgreementCompleted struct {
	Recipient      string `json:"recipient"`
	PartnershipID  string `json:"partnershipId"`
	AgreementTitle string `json:"agreementTitle"`
}

func (AgreementCompleted) Kind() Type { return TypeAgreementCompleted }

func (e AgreementCompleted) record() Record {
	r := newRecord(TypeAgreementCompleted, e.Recipient,
		"Agreement Completed",
		fmt.Sprintf("The agreement \"%s\" has been completed. Well done!", e.AgreementTitle),
		"/partnerships/"+e.PartnershipID+"/agreement",
	)
	r.Partnership = e.PartnershipID
	return r
}
