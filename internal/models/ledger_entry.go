package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// LedgerEntry is the database shape of one append-only ledger record.
// There is no update path for this table anywhere in the codebase.
type LedgerEntry struct {
	EntryID         string          `db:"entry_id"`
	TransactionID   string          `db:"transaction_id"`
	ClientID        string          `db:"client_id"`
	TransactionDate time.Time       `db:"transaction_date"`
	TransactionType string          `db:"transaction_type"`
	Amount          decimal.Decimal `db:"amount"`
	BalanceChange   decimal.Decimal `db:"balance_change"`
	BalanceAfter    decimal.Decimal `db:"balance_after"`
	Description     string          `db:"description"`
	Reference       string          `db:"reference"`
	IsReversal      bool            `db:"is_reversal"`
	CreatedAt       time.Time       `db:"created_at"`
	CreatedBy       string          `db:"created_by"`
}

// Approver is the database shape of an approver identity.
type Approver struct {
	ApproverID string `db:"approver_id"`
	Name       string `db:"name"`
	SecretHash string `db:"secret_hash"`
	AuditFields
}
