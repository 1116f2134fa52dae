package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// TransactionType classifies a movement of trust funds.
type TransactionType string

const (
	Deposit    TransactionType = "DEPOSIT"
	Withdrawal TransactionType = "WITHDRAWAL"
	Payment    TransactionType = "PAYMENT"
	Adjustment TransactionType = "ADJUSTMENT"
)

// ValidTransactionType reports whether t is one of the known transaction types.
func ValidTransactionType(t TransactionType) bool {
	switch t {
	case Deposit, Withdrawal, Payment, Adjustment:
		return true
	}
	return false
}

// TransactionStatus is the lifecycle state of a transaction.
// Draft is the only mutable state; the only transition beyond Posted is Reversed.
type TransactionStatus string

const (
	Draft    TransactionStatus = "DRAFT"
	Posted   TransactionStatus = "POSTED"
	Reversed TransactionStatus = "REVERSED"
)

// Transaction is one requested movement of trust funds for a client.
// TransactionID is the human-readable code TAT<year><6-digit-seq>, assigned at
// creation, monotonic per year and never reused. Once Posted, the amount, type,
// client and balance snapshots are immutable.
type Transaction struct {
	TransactionID   string            `json:"transactionID"`
	ClientID        string            `json:"clientID"`
	TransactionType TransactionType   `json:"transactionType"`
	TransactionDate time.Time         `json:"transactionDate"`
	Amount          decimal.Decimal   `json:"amount"` // positive; Adjustment may be signed
	Description     string            `json:"description"`
	Reference       string            `json:"reference"`
	Status          TransactionStatus `json:"status"`
	BalanceBefore   decimal.Decimal   `json:"balanceBefore"`
	BalanceAfter    decimal.Decimal   `json:"balanceAfter"`
	ApprovedBy      string            `json:"approvedBy,omitempty"`
	ApprovalDate    *time.Time        `json:"approvalDate,omitempty"`
	IdempotencyKey  string            `json:"-"`
	ReversalReason  string            `json:"reversalReason,omitempty"`
	AuditFields
}

// SignedDelta returns the balance effect of posting this transaction: Deposit
// contributes +amount, Withdrawal and Payment contribute -amount, Adjustment
// contributes its signed amount directly.
func (t *Transaction) SignedDelta() decimal.Decimal {
	switch t.TransactionType {
	case Deposit:
		return t.Amount
	case Withdrawal, Payment:
		return t.Amount.Neg()
	case Adjustment:
		return t.Amount
	default:
		return decimal.Zero
	}
}
