package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// LedgerEntry is one immutable audit record of a balance-affecting event.
// EntryID is the code TAL<year><6-digit-seq>, monotonic per year. Entries are
// appended on posting and on reversal (a compensating entry with the inverse
// delta); they are never updated or deleted.
type LedgerEntry struct {
	EntryID         string          `json:"entryID"`
	TransactionID   string          `json:"transactionID"`
	ClientID        string          `json:"clientID"`
	TransactionDate time.Time       `json:"transactionDate"`
	TransactionType TransactionType `json:"transactionType"`
	Amount          decimal.Decimal `json:"amount"`
	BalanceChange   decimal.Decimal `json:"balanceChange"` // signed delta applied
	BalanceAfter    decimal.Decimal `json:"balanceAfter"`  // client balance after this entry
	Description     string          `json:"description"`
	Reference       string          `json:"reference"`
	IsReversal      bool            `json:"isReversal"`
	CreatedAt       time.Time       `json:"createdAt"`
	CreatedBy       string          `json:"createdBy"`
}

// StatementLine is one row of a client statement: a ledger entry with the
// running balance folded from the opening balance of the requested range.
type StatementLine struct {
	EntryID         string          `json:"entryID"`
	TransactionID   string          `json:"transactionID"`
	TransactionDate time.Time       `json:"transactionDate"`
	TransactionType TransactionType `json:"transactionType"`
	Amount          decimal.Decimal `json:"amount"`
	BalanceChange   decimal.Decimal `json:"balanceChange"`
	RunningBalance  decimal.Decimal `json:"runningBalance"`
	Description     string          `json:"description"`
	Reference       string          `json:"reference"`
}

// Statement is the ordered running-balance view of a client's ledger entries
// over a date range. ClosingBalance always equals OpeningBalance plus the sum
// of the line deltas.
type Statement struct {
	ClientID       string          `json:"clientID"`
	FromDate       time.Time       `json:"fromDate"`
	ToDate         time.Time       `json:"toDate"`
	OpeningBalance decimal.Decimal `json:"openingBalance"`
	ClosingBalance decimal.Decimal `json:"closingBalance"`
	Lines          []StatementLine `json:"lines"`
}
