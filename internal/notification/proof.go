package notification

import "fmt"

// ProofSubmitted is sent to the partner who has to verify the proof.
type ProofSubmitted struct {
	Recipient     string `json:"recipient"`
	TaskID        string `json:"taskId"`
	TaskTitle     string `json:"taskTitle"`
	PartnershipID string `json:"partnershipId"`
	ProofID       string `json:"proofId"`
}

func (ProofSubmitted) Kind() Type { return TypeProofSubmitted }

func (e ProofSubmitted) record() Record {
	r := newRecord(TypeProofSubmitted, e.Recipient,
		"Proof Submitted for Verification",
		fmt.Sprintf("Your partner submitted proof for \"%s\". Review it and verify or reject the submission.", e.TaskTitle),
		"/partnerships/"+e.PartnershipID+"/tasks",
	)
	r.Task = e.TaskID
	r.Proof = e.ProofID
	r.Partnership = e.PartnershipID
	return r
}

type ProofVerified struct {
	Recipient     string `json:"recipient"`
	TaskID        string `json:"taskId"`
	TaskTitle     string `json:"taskTitle"`
	PartnershipID string `json:"partnershipId"`
	ProofID       string `json:"proofId"`
	VerifierName  string `json:"verifierName"`
}

func (ProofVerified) Kind() Type { return TypeProofVerified }

func (e ProofVerified) record() Record {
	r := newRecord(TypeProofVerified, e.Recipient,
		"Proof Verified",
		fmt.Sprintf("%s verified your proof for \"%s\".", e.VerifierName, e.TaskTitle),
		"/tasks/"+e.TaskID,
	)
	r.Task = e.TaskID
	r.Proof = e.ProofID
	r.Partnership = e.PartnershipID
	return r
}

type ProofRejected struct {
	Recipient     string `json:"recipient"`
	TaskID        string `json:"taskId"`
	TaskTitle     string `json:"taskTitle"`
	PartnershipID string `json:"partnershipId"`
	ProofID       string `json:"proofId"`
	VerifierName  string `json:"verifierName"`
	Reason        string `json:"reason"`
}

func (ProofRejected) Kind() Type { return TypeProofRejected }

func (e ProofRejected) record() Record {
	r := newRecord(TypeProofRejected, e.Recipient,
		"Proof Rejected",
		fmt.Sprintf("%s rejected your proof for \"%s\". Reason: %s", e.VerifierName, e.TaskTitle, e.Reason),
		"/tasks/"+e.TaskID,
	)
	r.Task = e.TaskID
	r.Proof = e.ProofID
	r.Partnership = e.PartnershipID
	return r
}
