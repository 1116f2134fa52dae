package services_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/SajmustafaKe/trustledger/internal/apperrors"
	"github.com/SajmustafaKe/trustledger/internal/core/domain"
	"github.com/SajmustafaKe/trustledger/internal/core/ports"
	portssvc "github.com/SajmustafaKe/trustledger/internal/core/ports/services"
	"github.com/SajmustafaKe/trustledger/internal/core/services"
	"github.com/SajmustafaKe/trustledger/internal/dto"
	"github.com/SajmustafaKe/trustledger/internal/platform/locking"
	"github.com/SajmustafaKe/trustledger/internal/repositories/database/memdb"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

type concurrencyFixture struct {
	repos      ports.Repositories
	balanceSvc portssvc.BalanceSvcFacade
	service    portssvc.TransactionSvcFacade
	approverID string
}

func newConcurrencyFixture(t *testing.T) *concurrencyFixture {
	t.Helper()
	repos := memdb.NewRepositories(memdb.NewStore())
	locker := locking.NewClientLocker(10 * time.Second)
	balanceSvc := services.NewBalanceService(repos.Ledger, repos.Clients)
	return &concurrencyFixture{
		repos:      repos,
		balanceSvc: balanceSvc,
		service:    services.NewTransactionService(repos.Transactions, repos.Ledger, repos.Clients, balanceSvc, locker),
		approverID: uuid.NewString(),
	}
}

func (f *concurrencyFixture) newClient(t *testing.T) string {
	t.Helper()
	now := time.Now().UTC()
	client := domain.Client{
		ClientID: uuid.NewString(),
		Name:     "Concurrency Client",
		Status:   domain.ClientActive,
		AuditFields: domain.AuditFields{
			CreatedAt: now, CreatedBy: f.approverID,
			LastUpdatedAt: now, LastUpdatedBy: f.approverID,
		},
	}
	require.NoError(t, f.repos.Clients.SaveClient(context.Background(), client))
	return client.ClientID
}

func (f *concurrencyFixture) draft(t *testing.T, clientID string, txnType domain.TransactionType, amount string) string {
	t.Helper()
	txn, err := f.service.CreateTransaction(context.Background(), dto.CreateTransactionRequest{
		ClientID:        clientID,
		TransactionType: string(txnType),
		Amount:          decimal.RequireFromString(amount),
		Description:     "concurrency test",
	}, f.approverID)
	require.NoError(t, err)
	return txn.TransactionID
}

func (f *concurrencyFixture) post(t *testing.T, transactionID string) {
	t.Helper()
	_, err := f.service.PostTransaction(context.Background(), transactionID, f.approverID, "")
	require.NoError(t, err)
}

// Two concurrent withdrawals that would jointly overdraw the account: exactly
// one may succeed, no interleaving may let both through.
func TestConcurrentPostings_JointOverdrawPreventsBoth(t *testing.T) {
	f := newConcurrencyFixture(t)
	clientID := f.newClient(t)
	f.post(t, f.draft(t, clientID, domain.Deposit, "100"))

	first := f.draft(t, clientID, domain.Withdrawal, "100")
	second := f.draft(t, clientID, domain.Withdrawal, "100")

	errs := make([]error, 2)
	var wg sync.WaitGroup
	for i, id := range []string{first, second} {
		wg.Add(1)
		go func(i int, id string) {
			defer wg.Done()
			_, errs[i] = f.service.PostTransaction(context.Background(), id, f.approverID, "")
		}(i, id)
	}
	wg.Wait()

	var succeeded, insufficient int
	for _, err := range errs {
		switch {
		case err == nil:
			succeeded++
		case errors.Is(err, apperrors.ErrInsufficientBalance):
			insufficient++
		default:
			t.Fatalf("unexpected error: %v", err)
		}
	}
	require.Equal(t, 1, succeeded, "exactly one withdrawal may post")
	require.Equal(t, 1, insufficient, "the loser must see the insufficient balance error")

	balance, err := f.balanceSvc.GetBalance(context.Background(), clientID)
	require.NoError(t, err)
	require.True(t, balance.Equal(decimal.Zero), "balance must end at zero, never negative")
}

// Many concurrent deposits for the same client: every one must be reflected in
// the final balance, with contiguous balance_after values in the ledger.
func TestConcurrentPostings_AllDepositsLand(t *testing.T) {
	f := newConcurrencyFixture(t)
	clientID := f.newClient(t)

	const n = 20
	drafts := make([]string, n)
	for i := range drafts {
		drafts[i] = f.draft(t, clientID, domain.Deposit, "10")
	}

	var wg sync.WaitGroup
	errs := make([]error, n)
	for i, id := range drafts {
		wg.Add(1)
		go func(i int, id string) {
			defer wg.Done()
			_, errs[i] = f.service.PostTransaction(context.Background(), id, f.approverID, "")
		}(i, id)
	}
	wg.Wait()

	for i, err := range errs {
		require.NoError(t, err, "deposit %d", i)
	}

	balance, err := f.balanceSvc.GetBalance(context.Background(), clientID)
	require.NoError(t, err)
	require.True(t, balance.Equal(decimal.NewFromInt(n*10)))
}

// Concurrent post and reverse against distinct clients must not contend: each
// client's sequence of postings stays internally consistent.
func TestConcurrentPostings_DistinctClientsDoNotInterfere(t *testing.T) {
	f := newConcurrencyFixture(t)

	const clients = 8
	clientIDs := make([]string, clients)
	for i := range clientIDs {
		clientIDs[i] = f.newClient(t)
	}

	var wg sync.WaitGroup
	errCh := make(chan error, clients)
	for _, clientID := range clientIDs {
		wg.Add(1)
		go func(clientID string) {
			defer wg.Done()
			ctx := context.Background()

			dep := f.draft(t, clientID, domain.Deposit, "300")
			if _, err := f.service.PostTransaction(ctx, dep, f.approverID, ""); err != nil {
				errCh <- err
				return
			}
			wd := f.draft(t, clientID, domain.Withdrawal, "100")
			if _, err := f.service.PostTransaction(ctx, wd, f.approverID, ""); err != nil {
				errCh <- err
				return
			}
			if _, err := f.service.ReverseTransaction(ctx, wd, "undo", f.approverID, ""); err != nil {
				errCh <- err
			}
		}(clientID)
	}
	wg.Wait()
	close(errCh)
	for err := range errCh {
		require.NoError(t, err)
	}

	for _, clientID := range clientIDs {
		balance, err := f.balanceSvc.GetBalance(context.Background(), clientID)
		require.NoError(t, err)
		require.True(t, balance.Equal(decimal.NewFromInt(300)), "client %s", clientID)
	}
}

// The same draft posted from two goroutines: one wins, one gets AlreadyPosted,
// and only a single ledger entry exists afterwards.
func TestConcurrentPostings_SameDraftPostsOnce(t *testing.T) {
	f := newConcurrencyFixture(t)
	clientID := f.newClient(t)
	draftID := f.draft(t, clientID, domain.Deposit, "50")

	errs := make([]error, 2)
	var wg sync.WaitGroup
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = f.service.PostTransaction(context.Background(), draftID, f.approverID, "")
		}(i)
	}
	wg.Wait()

	var succeeded, conflicted int
	for _, err := range errs {
		switch {
		case err == nil:
			succeeded++
		case errors.Is(err, apperrors.ErrAlreadyPosted):
			conflicted++
		default:
			t.Fatalf("unexpected error: %v", err)
		}
	}
	require.Equal(t, 1, succeeded)
	require.Equal(t, 1, conflicted)

	entries, err := f.repos.Ledger.FindEntriesByTransactionID(context.Background(), draftID)
	require.NoError(t, err)
	require.Len(t, entries, 1)
}
