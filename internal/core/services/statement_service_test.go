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

type StatementServiceTestSuite struct {
	suite.Suite
	repos      ports.Repositories
	txnService portssvc.TransactionSvcFacade
	service    portssvc.StatementSvcFacade
	approverID string
	clientID   string
}

func (suite *StatementServiceTestSuite) SetupTest() {
	suite.repos = memdb.NewRepositories(memdb.NewStore())
	locker := locking.NewClientLocker(2 * time.Second)
	balanceSvc := services.NewBalanceService(suite.repos.Ledger, suite.repos.Clients)
	suite.txnService = services.NewTransactionService(suite.repos.Transactions, suite.repos.Ledger, suite.repos.Clients, balanceSvc, locker)
	suite.service = services.NewStatementService(suite.repos.Ledger, suite.repos.Clients)
	suite.approverID = uuid.NewString()

	now := time.Now().UTC()
	client := domain.Client{
		ClientID: uuid.NewString(),
		Name:     "Statement Client",
		Status:   domain.ClientActive,
		AuditFields: domain.AuditFields{
			CreatedAt: now, CreatedBy: suite.approverID,
			LastUpdatedAt: now, LastUpdatedBy: suite.approverID,
		},
	}
	suite.Require().NoError(suite.repos.Clients.SaveClient(context.Background(), client))
	suite.clientID = client.ClientID
}

// postOn creates and posts a transaction dated at the given time.
func (suite *StatementServiceTestSuite) postOn(date time.Time, txnType domain.TransactionType, amount string) {
	txn, err := suite.txnService.CreateTransaction(context.Background(), dto.CreateTransactionRequest{
		ClientID:        suite.clientID,
		TransactionType: string(txnType),
		Amount:          decimal.RequireFromString(amount),
		TransactionDate: &date,
		Description:     "statement test",
	}, suite.approverID)
	suite.Require().NoError(err)
	_, err = suite.txnService.PostTransaction(context.Background(), txn.TransactionID, suite.approverID, "")
	suite.Require().NoError(err)
}

func (suite *StatementServiceTestSuite) TestGetStatement_RunningBalances() {
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	suite.postOn(base, domain.Deposit, "100")
	suite.postOn(base.AddDate(0, 0, 1), domain.Deposit, "150")
	suite.postOn(base.AddDate(0, 0, 2), domain.Withdrawal, "100")

	statement, err := suite.service.GetStatement(context.Background(), suite.clientID, base.AddDate(0, 0, -1), base.AddDate(0, 0, 3))
	suite.Require().NoError(err)

	suite.True(statement.OpeningBalance.Equal(decimal.Zero))
	suite.Require().Len(statement.Lines, 3)
	suite.True(statement.Lines[0].RunningBalance.Equal(decimal.NewFromInt(100)))
	suite.True(statement.Lines[1].RunningBalance.Equal(decimal.NewFromInt(250)))
	suite.True(statement.Lines[2].RunningBalance.Equal(decimal.NewFromInt(150)))
	suite.True(statement.ClosingBalance.Equal(decimal.NewFromInt(150)))
}

func (suite *StatementServiceTestSuite) TestGetStatement_OpeningBalanceExcludesRange() {
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	suite.postOn(base.AddDate(0, -1, 0), domain.Deposit, "500")
	suite.postOn(base, domain.Withdrawal, "200")

	statement, err := suite.service.GetStatement(context.Background(), suite.clientID, base.AddDate(0, 0, -1), base.AddDate(0, 0, 1))
	suite.Require().NoError(err)

	suite.True(statement.OpeningBalance.Equal(decimal.NewFromInt(500)), "the earlier deposit is the opening balance")
	suite.Require().Len(statement.Lines, 1)
	suite.True(statement.ClosingBalance.Equal(decimal.NewFromInt(300)))
}

func (suite *StatementServiceTestSuite) TestGetStatement_ClosingReconcilesWithOpeningPlusDeltas() {
	base := time.Date(2026, 5, 10, 9, 0, 0, 0, time.UTC)
	suite.postOn(base, domain.Deposit, "75.25")
	suite.postOn(base.Add(time.Hour), domain.Payment, "25.25")
	suite.postOn(base.Add(2*time.Hour), domain.Adjustment, "-10")

	statement, err := suite.service.GetStatement(context.Background(), suite.clientID, base, base.Add(3*time.Hour))
	suite.Require().NoError(err)

	sum := statement.OpeningBalance
	for _, line := range statement.Lines {
		sum = sum.Add(line.BalanceChange)
	}
	suite.True(statement.ClosingBalance.Equal(sum))
	suite.True(statement.ClosingBalance.Equal(decimal.NewFromInt(40)))
}

func (suite *StatementServiceTestSuite) TestGetStatement_EmptyRange() {
	base := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	suite.postOn(base, domain.Deposit, "100")

	statement, err := suite.service.GetStatement(context.Background(), suite.clientID, base.AddDate(0, 1, 0), base.AddDate(0, 2, 0))
	suite.Require().NoError(err)

	suite.Empty(statement.Lines)
	suite.True(statement.OpeningBalance.Equal(decimal.NewFromInt(100)))
	suite.True(statement.ClosingBalance.Equal(statement.OpeningBalance))
}

func (suite *StatementServiceTestSuite) TestGetStatement_InvertedRange() {
	base := time.Now().UTC()
	_, err := suite.service.GetStatement(context.Background(), suite.clientID, base, base.AddDate(0, 0, -1))
	suite.ErrorIs(err, apperrors.ErrValidation)
}

func (suite *StatementServiceTestSuite) TestGetStatement_ClientNotFound() {
	now := time.Now().UTC()
	_, err := suite.service.GetStatement(context.Background(), uuid.NewString(), now.AddDate(0, 0, -1), now)
	suite.ErrorIs(err, apperrors.ErrClientNotFound)
}

func (suite *StatementServiceTestSuite) TestListLedgerEntries_NewestFirst() {
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	suite.postOn(base, domain.Deposit, "100")
	suite.postOn(base.AddDate(0, 0, 1), domain.Deposit, "50")

	feed, err := suite.service.ListLedgerEntries(context.Background(), suite.clientID, dto.ListTransactionsParams{Limit: 10})
	suite.Require().NoError(err)
	suite.Require().Len(feed.Entries, 2)
	suite.True(feed.Entries[0].TransactionDate.After(feed.Entries[1].TransactionDate))
}

func TestStatementServiceTestSuite(t *testing.T) {
	suite.Run(t, new(StatementServiceTestSuite))
}
