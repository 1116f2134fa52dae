package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/SajmustafaKe/trustledger/internal/apperrors"
	"github.com/SajmustafaKe/trustledger/internal/core/ports"
	portssvc "github.com/SajmustafaKe/trustledger/internal/core/ports/services"
	"github.com/SajmustafaKe/trustledger/internal/middleware"
	"github.com/shopspring/decimal"
)

// balanceService computes client balances from the ledger entry stream. It is
// the ground truth the cached Client.TrustBalance is reconciled against; it
// never reads the cache itself.
type balanceService struct {
	ledgerRepo ports.LedgerRepository
	clientRepo ports.ClientRepository
}

// NewBalanceService creates the balance calculator.
func NewBalanceService(ledgerRepo ports.LedgerRepository, clientRepo ports.ClientRepository) portssvc.BalanceSvcFacade {
	return &balanceService{
		ledgerRepo: ledgerRepo,
		clientRepo: clientRepo,
	}
}

var _ portssvc.BalanceSvcFacade = (*balanceService)(nil)

// GetBalance returns the client's current balance as the signed sum over all
// posted ledger entries. A client with no entries has balance zero.
func (s *balanceService) GetBalance(ctx context.Context, clientID string) (decimal.Decimal, error) {
	return s.BalanceAsOf(ctx, clientID, nil, "")
}

// BalanceAsOf returns the client's balance at the asOf cutoff (inclusive; nil
// means now), optionally excluding entries that originate from one named
// transaction. The exclusion supports computing balance_before while a
// transaction is validated against itself.
func (s *balanceService) BalanceAsOf(ctx context.Context, clientID string, asOf *time.Time, excludeTransactionID string) (decimal.Decimal, error) {
	logger := middleware.GetLoggerFromCtx(ctx)

	if _, err := s.clientRepo.FindClientByID(ctx, clientID); err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return decimal.Zero, apperrors.ErrClientNotFound
		}
		logger.Error("Failed to look up client for balance", "client_id", clientID, "error", err)
		return decimal.Zero, fmt.Errorf("failed to look up client %s: %w", clientID, err)
	}

	balance, err := s.ledgerRepo.SumBalance(ctx, clientID, asOf, excludeTransactionID)
	if err != nil {
		logger.Error("Failed to sum ledger entries", "client_id", clientID, "error", err)
		return decimal.Zero, fmt.Errorf("failed to compute balance for client %s: %w", clientID, err)
	}
	return balance, nil
}
