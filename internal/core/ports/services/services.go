// Package services defines the facades the HTTP layer consumes. Handlers
// depend on these interfaces, never on concrete service types.
package services

import (
	"context"
	"time"

	"github.com/SajmustafaKe/trustledger/internal/core/domain"
	"github.com/SajmustafaKe/trustledger/internal/dto"
	"github.com/shopspring/decimal"
)

// TransactionSvcFacade drives the Draft → Posted → Reversed lifecycle.
type TransactionSvcFacade interface {
	CreateTransaction(ctx context.Context, req dto.CreateTransactionRequest, creatorID string) (*domain.Transaction, error)
	GetTransactionByID(ctx context.Context, transactionID string) (*domain.Transaction, error)
	UpdateDraft(ctx context.Context, transactionID string, req dto.UpdateDraftRequest, userID string) (*domain.Transaction, error)
	DeleteDraft(ctx context.Context, transactionID string, userID string) error
	PostTransaction(ctx context.Context, transactionID, approverID, idempotencyKey string) (*dto.PostTransactionResponse, error)
	ReverseTransaction(ctx context.Context, transactionID, reason, approverID, idempotencyKey string) (*dto.ReverseTransactionResponse, error)
	ListTransactionsByClient(ctx context.Context, clientID string, params dto.ListTransactionsParams) (*dto.ListTransactionsResponse, error)
}

// BalanceSvcFacade is the pure read side: balances computed from the ledger
// entry stream, never from the cached client field.
type BalanceSvcFacade interface {
	GetBalance(ctx context.Context, clientID string) (decimal.Decimal, error)
	BalanceAsOf(ctx context.Context, clientID string, asOf *time.Time, excludeTransactionID string) (decimal.Decimal, error)
}

// StatementSvcFacade produces statements and the ledger event feed.
type StatementSvcFacade interface {
	GetStatement(ctx context.Context, clientID string, from, to time.Time) (*domain.Statement, error)
	ListLedgerEntries(ctx context.Context, clientID string, params dto.ListTransactionsParams) (*dto.ListLedgerEntriesResponse, error)
}

// ClientSvcFacade manages the client directory and balance reconciliation.
type ClientSvcFacade interface {
	CreateClient(ctx context.Context, req dto.CreateClientRequest, creatorID string) (*domain.Client, error)
	GetClientByID(ctx context.Context, clientID string) (*domain.Client, error)
	DeactivateClient(ctx context.Context, clientID, userID string) error
	ListClients(ctx context.Context, params dto.ListTransactionsParams) (*dto.ListClientsResponse, error)
	ReconcileClient(ctx context.Context, clientID string) (*dto.ReconciliationResult, error)
	ReconcileAllClients(ctx context.Context) (*dto.ReconciliationSweepResponse, error)
}

// AuthSvcFacade issues tokens for approver identities.
type AuthSvcFacade interface {
	Login(ctx context.Context, req dto.LoginRequest) (*dto.LoginResponse, error)
	RegisterApprover(ctx context.Context, req dto.RegisterApproverRequest, creatorID string) (*domain.Approver, error)
}
