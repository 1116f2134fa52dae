package services_test

import (
	"context"
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
	"github.com/stretchr/testify/suite"
)

type ClientServiceTestSuite struct {
	suite.Suite
	repos      ports.Repositories
	txnService portssvc.TransactionSvcFacade
	balanceSvc portssvc.BalanceSvcFacade
	service    portssvc.ClientSvcFacade
	approverID string
}

func (suite *ClientServiceTestSuite) SetupTest() {
	suite.repos = memdb.NewRepositories(memdb.NewStore())
	locker := locking.NewClientLocker(2 * time.Second)
	suite.balanceSvc = services.NewBalanceService(suite.repos.Ledger, suite.repos.Clients)
	suite.txnService = services.NewTransactionService(suite.repos.Transactions, suite.repos.Ledger, suite.repos.Clients, suite.balanceSvc, locker)
	suite.service = services.NewClientService(suite.repos.Clients, suite.repos.Ledger)
	suite.approverID = uuid.NewString()
}

func (suite *ClientServiceTestSuite) TestCreateClient_Success() {
	client, err := suite.service.CreateClient(context.Background(), dto.CreateClientRequest{Name: "Wanjiku Kamau"}, suite.approverID)

	suite.Require().NoError(err)
	suite.NotEmpty(client.ClientID)
	suite.Equal("Wanjiku Kamau", client.Name)
	suite.Equal(domain.ClientActive, client.Status)
	suite.True(client.TrustBalance.Equal(decimal.Zero))
	suite.Equal(suite.approverID, client.CreatedBy)
}

func (suite *ClientServiceTestSuite) TestGetClientByID_NotFound() {
	_, err := suite.service.GetClientByID(context.Background(), uuid.NewString())
	suite.ErrorIs(err, apperrors.ErrClientNotFound)
}

func (suite *ClientServiceTestSuite) TestDeactivateClient_HistoryStaysReadable() {
	ctx := context.Background()
	client, err := suite.service.CreateClient(ctx, dto.CreateClientRequest{Name: "History Client"}, suite.approverID)
	suite.Require().NoError(err)

	txn, err := suite.txnService.CreateTransaction(ctx, dto.CreateTransactionRequest{
		ClientID:        client.ClientID,
		TransactionType: string(domain.Deposit),
		Amount:          decimal.NewFromInt(100),
		Description:     "funding",
	}, suite.approverID)
	suite.Require().NoError(err)
	_, err = suite.txnService.PostTransaction(ctx, txn.TransactionID, suite.approverID, "")
	suite.Require().NoError(err)

	suite.Require().NoError(suite.service.DeactivateClient(ctx, client.ClientID, suite.approverID))

	// New postings are rejected.
	_, err = suite.txnService.CreateTransaction(ctx, dto.CreateTransactionRequest{
		ClientID:        client.ClientID,
		TransactionType: string(domain.Deposit),
		Amount:          decimal.NewFromInt(50),
		Description:     "after deactivation",
	}, suite.approverID)
	suite.ErrorIs(err, apperrors.ErrClientInactive)

	// Balances and history remain readable.
	balance, err := suite.balanceSvc.GetBalance(ctx, client.ClientID)
	suite.Require().NoError(err)
	suite.True(balance.Equal(decimal.NewFromInt(100)))
}

func (suite *ClientServiceTestSuite) TestDeactivateClient_NotFound() {
	err := suite.service.DeactivateClient(context.Background(), uuid.NewString(), suite.approverID)
	suite.ErrorIs(err, apperrors.ErrClientNotFound)
}

func (suite *ClientServiceTestSuite) TestReconcileClient_InSync() {
	ctx := context.Background()
	client, err := suite.service.CreateClient(ctx, dto.CreateClientRequest{Name: "Reconciled"}, suite.approverID)
	suite.Require().NoError(err)

	txn, err := suite.txnService.CreateTransaction(ctx, dto.CreateTransactionRequest{
		ClientID:        client.ClientID,
		TransactionType: string(domain.Deposit),
		Amount:          decimal.NewFromInt(400),
		Description:     "funding",
	}, suite.approverID)
	suite.Require().NoError(err)
	_, err = suite.txnService.PostTransaction(ctx, txn.TransactionID, suite.approverID, "")
	suite.Require().NoError(err)

	result, err := suite.service.ReconcileClient(ctx, client.ClientID)
	suite.Require().NoError(err)
	suite.True(result.InSync)
	suite.True(result.CachedBalance.Equal(decimal.NewFromInt(400)))
	suite.True(result.LedgerBalance.Equal(decimal.NewFromInt(400)))
}

func (suite *ClientServiceTestSuite) TestReconcileAllClients_SweepsEveryClient() {
	ctx := context.Background()
	for i := 0; i < 3; i++ {
		client, err := suite.service.CreateClient(ctx, dto.CreateClientRequest{Name: "Sweep Client"}, suite.approverID)
		suite.Require().NoError(err)

		txn, err := suite.txnService.CreateTransaction(ctx, dto.CreateTransactionRequest{
			ClientID:        client.ClientID,
			TransactionType: string(domain.Deposit),
			Amount:          decimal.NewFromInt(int64(100 * (i + 1))),
			Description:     "funding",
		}, suite.approverID)
		suite.Require().NoError(err)
		_, err = suite.txnService.PostTransaction(ctx, txn.TransactionID, suite.approverID, "")
		suite.Require().NoError(err)
	}

	sweep, err := suite.service.ReconcileAllClients(ctx)
	suite.Require().NoError(err)
	suite.Equal(3, sweep.ClientsChecked)
	suite.Empty(sweep.OutOfSync, "postings keep the cache in sync with the ledger")
}

func (suite *ClientServiceTestSuite) TestBalanceAsOf_HistoricalCutoff() {
	ctx := context.Background()
	client, err := suite.service.CreateClient(ctx, dto.CreateClientRequest{Name: "AsOf Client"}, suite.approverID)
	suite.Require().NoError(err)

	early := time.Date(2026, 1, 10, 0, 0, 0, 0, time.UTC)
	late := time.Date(2026, 2, 10, 0, 0, 0, 0, time.UTC)
	for _, p := range []struct {
		date   time.Time
		amount int64
	}{{early, 100}, {late, 200}} {
		date := p.date
		txn, txnErr := suite.txnService.CreateTransaction(ctx, dto.CreateTransactionRequest{
			ClientID:        client.ClientID,
			TransactionType: string(domain.Deposit),
			Amount:          decimal.NewFromInt(p.amount),
			TransactionDate: &date,
			Description:     "dated deposit",
		}, suite.approverID)
		suite.Require().NoError(txnErr)
		_, txnErr = suite.txnService.PostTransaction(ctx, txn.TransactionID, suite.approverID, "")
		suite.Require().NoError(txnErr)
	}

	// Cutoff between the two deposits sees only the first; the cutoff date
	// itself is inclusive.
	cutoff := early.AddDate(0, 0, 5)
	balance, err := suite.balanceSvc.BalanceAsOf(ctx, client.ClientID, &cutoff, "")
	suite.Require().NoError(err)
	suite.True(balance.Equal(decimal.NewFromInt(100)))

	onDate := early
	balance, err = suite.balanceSvc.BalanceAsOf(ctx, client.ClientID, &onDate, "")
	suite.Require().NoError(err)
	suite.True(balance.Equal(decimal.NewFromInt(100)))

	balance, err = suite.balanceSvc.GetBalance(ctx, client.ClientID)
	suite.Require().NoError(err)
	suite.True(balance.Equal(decimal.NewFromInt(300)))
}

func (suite *ClientServiceTestSuite) TestBalance_ClientNotFound() {
	_, err := suite.balanceSvc.GetBalance(context.Background(), uuid.NewString())
	suite.ErrorIs(err, apperrors.ErrClientNotFound)
}

func TestClientServiceTestSuite(t *testing.T) {
	suite.Run(t, new(ClientServiceTestSuite))
}
