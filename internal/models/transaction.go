package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Transaction is the database shape of a trust account transaction.
type Transaction struct {
	TransactionID   string          `db:"transaction_id"`
	ClientID        string          `db:"client_id"`
	TransactionType string          `db:"transaction_type"`
	TransactionDate time.Time       `db:"transaction_date"`
	Amount          decimal.Decimal `db:"amount"`
	Description     string          `db:"description"`
	Reference       string          `db:"reference"`
	Status          string          `db:"status"`
	BalanceBefore   decimal.Decimal `db:"balance_before"`
	BalanceAfter    decimal.Decimal `db:"balance_after"`
	ApprovedBy      *string         `db:"approved_by"`
	ApprovalDate    *time.Time      `db:"approval_date"`
	IdempotencyKey  *string         `db:"idempotency_key"`
	ReversalReason  *string         `db:"reversal_reason"`
	AuditFields
}
