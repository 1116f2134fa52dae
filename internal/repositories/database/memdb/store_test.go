package memdb_test

import (
	"context"
	"testing"
	"time"

	"github.com/SajmustafaKe/trustledger/internal/apperrors"
	"github.com/SajmustafaKe/trustledger/internal/core/domain"
	"github.com/SajmustafaKe/trustledger/internal/core/ports"
	"github.com/SajmustafaKe/trustledger/internal/repositories/database/memdb"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newStoreFixture(t *testing.T) (ports.Repositories, string) {
	t.Helper()
	repos := memdb.NewRepositories(memdb.NewStore())
	clientID := uuid.NewString()
	now := time.Now().UTC()
	require.NoError(t, repos.Clients.SaveClient(context.Background(), domain.Client{
		ClientID:     clientID,
		Name:         "Store Test Client",
		Status:       domain.ClientActive,
		TrustBalance: decimal.Zero,
		AuditFields: domain.AuditFields{
			CreatedAt:     now,
			CreatedBy:     "tester",
			LastUpdatedAt: now,
			LastUpdatedBy: "tester",
		},
	}))
	return repos, clientID
}

func saveDraft(t *testing.T, repos ports.Repositories, clientID string, txnType domain.TransactionType, amount string) domain.Transaction {
	t.Helper()
	ctx := context.Background()
	now := time.Now().UTC()
	code, err := repos.Transactions.NextTransactionCode(ctx, now.Year())
	require.NoError(t, err)
	txn := domain.Transaction{
		TransactionID:   code,
		ClientID:        clientID,
		TransactionType: txnType,
		TransactionDate: now,
		Amount:          decimal.RequireFromString(amount),
		Status:          domain.Draft,
		AuditFields: domain.AuditFields{
			CreatedAt:     now,
			CreatedBy:     "tester",
			LastUpdatedAt: now,
			LastUpdatedBy: "tester",
		},
	}
	require.NoError(t, repos.Transactions.SaveDraft(ctx, txn))
	return txn
}

// postingFor builds the posted transaction and ledger entry pair the service
// would hand to MarkPosted for a draft validated against balanceBefore.
func postingFor(txn domain.Transaction, balanceBefore decimal.Decimal) (domain.Transaction, domain.LedgerEntry) {
	delta := txn.SignedDelta()
	txn.Status = domain.Posted
	txn.BalanceBefore = balanceBefore
	txn.BalanceAfter = balanceBefore.Add(delta)
	entry := domain.LedgerEntry{
		TransactionID:   txn.TransactionID,
		ClientID:        txn.ClientID,
		TransactionDate: txn.TransactionDate,
		TransactionType: txn.TransactionType,
		Amount:          txn.Amount,
		BalanceChange:   delta,
		BalanceAfter:    txn.BalanceAfter,
		CreatedAt:       txn.LastUpdatedAt,
		CreatedBy:       txn.LastUpdatedBy,
	}
	return txn, entry
}

// Two postings validated against the same balance must not both land; the
// second one's snapshot is stale once the first commits.
func TestMarkPosted_StaleSnapshotRejected(t *testing.T) {
	repos, clientID := newStoreFixture(t)
	ctx := context.Background()

	first := saveDraft(t, repos, clientID, domain.Deposit, "100")
	second := saveDraft(t, repos, clientID, domain.Deposit, "80")

	// Both validated against the empty ledger.
	firstPosted, firstEntry := postingFor(first, decimal.Zero)
	secondPosted, secondEntry := postingFor(second, decimal.Zero)

	_, err := repos.Transactions.MarkPosted(ctx, firstPosted, firstEntry)
	require.NoError(t, err)

	_, err = repos.Transactions.MarkPosted(ctx, secondPosted, secondEntry)
	require.ErrorIs(t, err, apperrors.ErrStaleBalance)

	// The rejected posting left no trace: the draft is untouched and the
	// ledger holds only the first entry.
	balance, err := repos.Ledger.SumBalance(ctx, clientID, nil, "")
	require.NoError(t, err)
	assert.True(t, balance.Equal(decimal.RequireFromString("100")), "balance %s", balance)

	stored, err := repos.Transactions.FindTransactionByID(ctx, second.TransactionID)
	require.NoError(t, err)
	assert.Equal(t, domain.Draft, stored.Status)
}

func TestMarkReversed_StaleSnapshotRejected(t *testing.T) {
	repos, clientID := newStoreFixture(t)
	ctx := context.Background()

	deposit := saveDraft(t, repos, clientID, domain.Deposit, "100")
	depositPosted, depositEntry := postingFor(deposit, decimal.Zero)
	_, err := repos.Transactions.MarkPosted(ctx, depositPosted, depositEntry)
	require.NoError(t, err)

	// Reversal computed while the balance was 100.
	reversed := depositPosted
	reversed.Status = domain.Reversed
	reversalEntry := domain.LedgerEntry{
		TransactionID:   reversed.TransactionID,
		ClientID:        clientID,
		TransactionDate: time.Now().UTC(),
		TransactionType: reversed.TransactionType,
		Amount:          reversed.Amount,
		BalanceChange:   decimal.RequireFromString("-100"),
		BalanceAfter:    decimal.Zero,
		IsReversal:      true,
		CreatedAt:       time.Now().UTC(),
		CreatedBy:       "tester",
	}

	// Another deposit lands before the reversal commits.
	late := saveDraft(t, repos, clientID, domain.Deposit, "50")
	latePosted, lateEntry := postingFor(late, decimal.RequireFromString("100"))
	_, err = repos.Transactions.MarkPosted(ctx, latePosted, lateEntry)
	require.NoError(t, err)

	_, err = repos.Transactions.MarkReversed(ctx, reversed, reversalEntry)
	require.ErrorIs(t, err, apperrors.ErrStaleBalance)

	stored, err := repos.Transactions.FindTransactionByID(ctx, deposit.TransactionID)
	require.NoError(t, err)
	assert.Equal(t, domain.Posted, stored.Status)
}
