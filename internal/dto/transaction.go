package dto

import (
	"time"

	"github.com/SajmustafaKe/trustledger/internal/core/domain"
	"github.com/shopspring/decimal"
)

// CreateTransactionRequest is the payload for creating a draft transaction.
// Amount must be non-zero; for ADJUSTMENT it may be negative, for every other
// type it must be strictly positive.
type CreateTransactionRequest struct {
	ClientID        string          `json:"clientID" binding:"required"`
	TransactionType string          `json:"transactionType" binding:"required,txntype"`
	Amount          decimal.Decimal `json:"amount" binding:"required"`
	TransactionDate *time.Time      `json:"transactionDate,omitempty"`
	Description     string          `json:"description" binding:"required"`
	Reference       string          `json:"reference,omitempty"`
}

// UpdateDraftRequest carries the mutable fields of a draft transaction.
// Nil fields are left unchanged.
type UpdateDraftRequest struct {
	TransactionType *string          `json:"transactionType,omitempty" binding:"omitempty,txntype"`
	Amount          *decimal.Decimal `json:"amount,omitempty"`
	TransactionDate *time.Time       `json:"transactionDate,omitempty"`
	Description     *string          `json:"description,omitempty"`
	Reference       *string          `json:"reference,omitempty"`
}

// ReverseTransactionRequest carries the reason recorded on the reversal.
type ReverseTransactionRequest struct {
	Reason string `json:"reason" binding:"required"`
}

// TransactionResponse defines the data returned for a transaction.
type TransactionResponse struct {
	TransactionID   string          `json:"transactionID"`
	ClientID        string          `json:"clientID"`
	TransactionType string          `json:"transactionType"`
	TransactionDate time.Time       `json:"transactionDate"`
	Amount          decimal.Decimal `json:"amount"`
	Description     string          `json:"description"`
	Reference       string          `json:"reference,omitempty"`
	Status          string          `json:"status"`
	BalanceBefore   decimal.Decimal `json:"balanceBefore"`
	BalanceAfter    decimal.Decimal `json:"balanceAfter"`
	ApprovedBy      string          `json:"approvedBy,omitempty"`
	ApprovalDate    *time.Time      `json:"approvalDate,omitempty"`
	ReversalReason  string          `json:"reversalReason,omitempty"`
	CreatedAt       time.Time       `json:"createdAt"`
	CreatedBy       string          `json:"createdBy"`
}

// PostTransactionResponse is the result of a successful posting.
type PostTransactionResponse struct {
	TransactionID string          `json:"transactionID"`
	LedgerEntryID string          `json:"ledgerEntryID"`
	BalanceBefore decimal.Decimal `json:"balanceBefore"`
	BalanceAfter  decimal.Decimal `json:"balanceAfter"`
}

// ReverseTransactionResponse is the result of a successful reversal.
type ReverseTransactionResponse struct {
	TransactionID   string          `json:"transactionID"`
	ReversalEntryID string          `json:"reversalEntryID"`
	NewBalance      decimal.Decimal `json:"newBalance"`
}

// ListTransactionsParams holds cursor pagination parameters for listings.
type ListTransactionsParams struct {
	Limit     int     `form:"limit"`
	NextToken *string `form:"nextToken"`
}

// ListTransactionsResponse is a page of transactions plus the next cursor.
type ListTransactionsResponse struct {
	Transactions []TransactionResponse `json:"transactions"`
	NextToken    *string               `json:"nextToken,omitempty"`
}

// ToTransactionResponse converts a domain.Transaction to its response DTO.
func ToTransactionResponse(txn *domain.Transaction) TransactionResponse {
	return TransactionResponse{
		TransactionID:   txn.TransactionID,
		ClientID:        txn.ClientID,
		TransactionType: string(txn.TransactionType),
		TransactionDate: txn.TransactionDate,
		Amount:          txn.Amount,
		Description:     txn.Description,
		Reference:       txn.Reference,
		Status:          string(txn.Status),
		BalanceBefore:   txn.BalanceBefore,
		BalanceAfter:    txn.BalanceAfter,
		ApprovedBy:      txn.ApprovedBy,
		ApprovalDate:    txn.ApprovalDate,
		ReversalReason:  txn.ReversalReason,
		CreatedAt:       txn.CreatedAt,
		CreatedBy:       txn.CreatedBy,
	}
}

// ToTransactionResponses converts a slice of domain transactions.
func ToTransactionResponses(txns []domain.Transaction) []TransactionResponse {
	responses := make([]TransactionResponse, len(txns))
	for i := range txns {
		responses[i] = ToTransactionResponse(&txns[i])
	}
	return responses
}
