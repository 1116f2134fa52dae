package ports

import (
	"context"
	"time"

	"github.com/SajmustafaKe/trustledger/internal/core/domain"
	"github.com/shopspring/decimal"
)

// ClientRepository defines persistence operations for the client directory and
// the cached trust balance it carries.
type ClientRepository interface {
	SaveClient(ctx context.Context, client domain.Client) error
	FindClientByID(ctx context.Context, clientID string) (*domain.Client, error)
	UpdateClientStatus(ctx context.Context, clientID string, status domain.ClientStatus, updatedBy string, updatedAt time.Time) error
	ListClients(ctx context.Context, limit int, nextToken *string) ([]domain.Client, *string, error)
}

// TransactionRepository defines persistence operations for trust account
// transactions. Draft rows are the only mutable ones; MarkPosted and
// MarkReversed are the sole paths past Draft, and each one atomically updates
// the transaction, appends the ledger entry (allocating its TAL code) and sets
// the client's cached balance to the entry's resulting balance.
type TransactionRepository interface {
	// NextTransactionCode allocates the next TAT code for the given year.
	// Allocated codes are strictly increasing and never reused.
	NextTransactionCode(ctx context.Context, year int) (string, error)

	SaveDraft(ctx context.Context, txn domain.Transaction) error
	FindTransactionByID(ctx context.Context, transactionID string) (*domain.Transaction, error)
	UpdateDraft(ctx context.Context, txn domain.Transaction) error
	DeleteDraft(ctx context.Context, transactionID string) error
	ListTransactionsByClient(ctx context.Context, clientID string, limit int, nextToken *string) ([]domain.Transaction, *string, error)

	// MarkPosted commits a validated posting: transaction row update, ledger
	// append and client cache update in one storage transaction. The returned
	// entry carries the allocated TAL code.
	MarkPosted(ctx context.Context, txn domain.Transaction, entry domain.LedgerEntry) (*domain.LedgerEntry, error)

	// MarkReversed commits a reversal: the original transaction is marked
	// REVERSED (its balance snapshots untouched) and the compensating entry is
	// appended, again atomically with the client cache update.
	MarkReversed(ctx context.Context, txn domain.Transaction, entry domain.LedgerEntry) (*domain.LedgerEntry, error)
}

// LedgerRepository defines the read side of the append-only ledger. There is
// deliberately no update or delete operation.
type LedgerRepository interface {
	// SumBalance returns the signed sum of balance deltas for a client over
	// all ledger entries, optionally cut off at asOf (inclusive) and excluding
	// entries that originate from one named transaction.
	SumBalance(ctx context.Context, clientID string, asOf *time.Time, excludeTransactionID string) (decimal.Decimal, error)

	// SumBalanceBefore returns the signed sum of balance deltas for entries
	// with transaction dates strictly earlier than before. This is the opening
	// balance of a statement range.
	SumBalanceBefore(ctx context.Context, clientID string, before time.Time) (decimal.Decimal, error)

	// FindEntriesByClientRange returns entries with transaction dates inside
	// [from, to], ordered by transaction date then entry code.
	FindEntriesByClientRange(ctx context.Context, clientID string, from, to time.Time) ([]domain.LedgerEntry, error)

	FindEntriesByTransactionID(ctx context.Context, transactionID string) ([]domain.LedgerEntry, error)

	// ListEntriesByClient is the paginated ledger activity feed for a client,
	// newest first.
	ListEntriesByClient(ctx context.Context, clientID string, limit int, nextToken *string) ([]domain.LedgerEntry, *string, error)
}

// ApproverRepository defines persistence operations for approver identities.
type ApproverRepository interface {
	SaveApprover(ctx context.Context, approver domain.Approver) error
	FindApproverByID(ctx context.Context, approverID string) (*domain.Approver, error)
}
