package dto

import (
	"time"

	"github.com/SajmustafaKe/trustledger/internal/core/domain"
	"github.com/shopspring/decimal"
)

// StatementLineResponse is one row of a client statement.
type StatementLineResponse struct {
	EntryID         string          `json:"entryID"`
	TransactionID   string          `json:"transactionID"`
	TransactionDate time.Time       `json:"transactionDate"`
	TransactionType string          `json:"transactionType"`
	Amount          decimal.Decimal `json:"amount"`
	BalanceChange   decimal.Decimal `json:"balanceChange"`
	RunningBalance  decimal.Decimal `json:"runningBalance"`
	Description     string          `json:"description"`
	Reference       string          `json:"reference,omitempty"`
}

// StatementResponse is the running-balance view over a date range.
type StatementResponse struct {
	ClientID       string                  `json:"clientID"`
	FromDate       time.Time               `json:"fromDate"`
	ToDate         time.Time               `json:"toDate"`
	OpeningBalance decimal.Decimal         `json:"openingBalance"`
	ClosingBalance decimal.Decimal         `json:"closingBalance"`
	Lines          []StatementLineResponse `json:"lines"`
}

// LedgerEntryResponse defines the data exposed for one ledger entry, consumed
// by the notification service's event feed.
type LedgerEntryResponse struct {
	EntryID         string          `json:"entryID"`
	TransactionID   string          `json:"transactionID"`
	ClientID        string          `json:"clientID"`
	TransactionDate time.Time       `json:"transactionDate"`
	TransactionType string          `json:"transactionType"`
	Amount          decimal.Decimal `json:"amount"`
	BalanceChange   decimal.Decimal `json:"balanceChange"`
	BalanceAfter    decimal.Decimal `json:"balanceAfter"`
	Description     string          `json:"description"`
	Reference       string          `json:"reference,omitempty"`
	IsReversal      bool            `json:"isReversal"`
	CreatedAt       time.Time       `json:"createdAt"`
}

// ListLedgerEntriesResponse is a page of ledger entries plus the next cursor.
type ListLedgerEntriesResponse struct {
	Entries   []LedgerEntryResponse `json:"entries"`
	NextToken *string               `json:"nextToken,omitempty"`
}

// ToStatementResponse converts a domain.Statement to its response DTO.
func ToStatementResponse(st *domain.Statement) StatementResponse {
	lines := make([]StatementLineResponse, len(st.Lines))
	for i, l := range st.Lines {
		lines[i] = StatementLineResponse{
			EntryID:         l.EntryID,
			TransactionID:   l.TransactionID,
			TransactionDate: l.TransactionDate,
			TransactionType: string(l.TransactionType),
			Amount:          l.Amount,
			BalanceChange:   l.BalanceChange,
			RunningBalance:  l.RunningBalance,
			Description:     l.Description,
			Reference:       l.Reference,
		}
	}
	return StatementResponse{
		ClientID:       st.ClientID,
		FromDate:       st.FromDate,
		ToDate:         st.ToDate,
		OpeningBalance: st.OpeningBalance,
		ClosingBalance: st.ClosingBalance,
		Lines:          lines,
	}
}

// ToLedgerEntryResponse converts a domain.LedgerEntry to its response DTO.
func ToLedgerEntryResponse(e *domain.LedgerEntry) LedgerEntryResponse {
	return LedgerEntryResponse{
		EntryID:         e.EntryID,
		TransactionID:   e.TransactionID,
		ClientID:        e.ClientID,
		TransactionDate: e.TransactionDate,
		TransactionType: string(e.TransactionType),
		Amount:          e.Amount,
		BalanceChange:   e.BalanceChange,
		BalanceAfter:    e.BalanceAfter,
		Description:     e.Description,
		Reference:       e.Reference,
		IsReversal:      e.IsReversal,
		CreatedAt:       e.CreatedAt,
	}
}

// ToLedgerEntryResponses converts a slice of domain ledger entries.
func ToLedgerEntryResponses(entries []domain.LedgerEntry) []LedgerEntryResponse {
	responses := make([]LedgerEntryResponse, len(entries))
	for i := range entries {
		responses[i] = ToLedgerEntryResponse(&entries[i])
	}
	return responses
}
