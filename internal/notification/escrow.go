package notification

import "fmt"

const walletLink = "/wallet"

type EscrowDeposit struct {
	Recipient     string  `json:"recipient"`
	TransactionID string  `json:"transactionId"`
	Amount        float64 `json:"amount"`
}

func (EscrowDeposit) Kind() Type { return TypeEscrowDeposit }

func (e EscrowDeposit) record() Record {
	r := newRecord(TypeEscrowDeposit, e.Recipient,
		"Escrow Deposit Received",
		fmt.Sprintf("%s has been deposited into your escrow balance.", money(e.Amount)),
		walletLink,
	)
	r.Transaction = e.TransactionID
	return r
}

type EscrowWithdrawal struct {
	Recipient     string  `json:"recipient"`
	TransactionID string  `json:"transactionId"`
	Amount        float64 `json:"amount"`
}

func (EscrowWithdrawal) Kind() Type { return TypeEscrowWithdrawal }

func (e EscrowWithdrawal) record() Record {
	r := newRecord(TypeEscrowWithdrawal, e.Recipient,
		"Escrow Withdrawal",
		fmt.Sprintf("%s has been withdrawn from your escrow balance.", money(e.Amount)),
		walletLink,
	)
	r.Transaction = e.TransactionID
	return r
}

// EscrowReward is paid out when a task backed by escrow is verified.
type EscrowReward struct {
	Recipient     string  `json:"recipient"`
	TransactionID string  `json:"transactionId"`
	TaskID        string  `json:"taskId"`
	TaskTitle     string  `json:"taskTitle"`
	Amount        float64 `json:"amount"`
}

func (EscrowReward) Kind() Type { return TypeEscrowReward }

func (e EscrowReward) record() Record {
	r := newRecord(TypeEscrowReward, e.Recipient,
		"Reward Earned",
		fmt.Sprintf("You earned %s for completing \"%s\".", money(e.Amount), e.TaskTitle),
		walletLink,
	)
	r.Transaction = e.TransactionID
	r.Task = e.TaskID
	return r
}

type EscrowPenalty struct {
	Recipient     string  `json:"recipient"`
	TransactionID string  `json:"transactionId"`
	TaskID        string  `json:"taskId"`
	TaskTitle     string  `json:"taskTitle"`
	Amount        float64 `json:"amount"`
	Reason        string  `json:"reason"`
}

func (EscrowPenalty) Kind() Type { return TypeEscrowPenalty }

func (e EscrowPenalty) record() Record {
	r := newRecord(TypeEscrowPenalty, e.Recipient,
		"Escrow Penalty",
		fmt.Sprintf("%s was deducted from your escrow for \"%s\". Reason: %s", money(e.Amount), e.TaskTitle, e.Reason),
		walletLink,
	)
	r.Transaction = e.TransactionID
	r.Task = e.TaskID
	return r
}
