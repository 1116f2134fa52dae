package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/SajmustafaKe/trustledger/internal/apperrors"
	"github.com/SajmustafaKe/trustledger/internal/core/domain"
	"github.com/SajmustafaKe/trustledger/internal/core/ports"
	portssvc "github.com/SajmustafaKe/trustledger/internal/core/ports/services"
	"github.com/SajmustafaKe/trustledger/internal/dto"
	"github.com/SajmustafaKe/trustledger/internal/middleware"
)

// statementService produces the ordered, running-balance view of a client's
// ledger entries over a date range, and the paginated event feed.
type statementService struct {
	ledgerRepo ports.LedgerRepository
	clientRepo ports.ClientRepository
}

// NewStatementService creates the statement generator.
func NewStatementService(ledgerRepo ports.LedgerRepository, clientRepo ports.ClientRepository) portssvc.StatementSvcFacade {
	return &statementService{
		ledgerRepo: ledgerRepo,
		clientRepo: clientRepo,
	}
}

var _ portssvc.StatementSvcFacade = (*statementService)(nil)

// GetStatement folds the client's ledger entries in [from, to] into running
// balances, starting from the sum of all entries strictly before the range.
// The closing balance reconciles exactly with the balance calculator's result
// at the end of the range.
func (s *statementService) GetStatement(ctx context.Context, clientID string, from, to time.Time) (*domain.Statement, error) {
	logger := middleware.GetLoggerFromCtx(ctx)

	if to.Before(from) {
		return nil, fmt.Errorf("%w: statement range end precedes start", apperrors.ErrValidation)
	}
	if _, err := s.clientRepo.FindClientByID(ctx, clientID); err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, apperrors.ErrClientNotFound
		}
		return nil, fmt.Errorf("failed to look up client %s: %w", clientID, err)
	}

	opening, err := s.ledgerRepo.SumBalanceBefore(ctx, clientID, from)
	if err != nil {
		logger.Error("Failed to compute opening balance", "client_id", clientID, "error", err)
		return nil, fmt.Errorf("failed to compute opening balance: %w", err)
	}

	entries, err := s.ledgerRepo.FindEntriesByClientRange(ctx, clientID, from, to)
	if err != nil {
		logger.Error("Failed to load statement entries", "client_id", clientID, "error", err)
		return nil, fmt.Errorf("failed to load statement entries: %w", err)
	}

	running := opening
	lines := make([]domain.StatementLine, len(entries))
	for i, e := range entries {
		running = running.Add(e.BalanceChange)
		lines[i] = domain.StatementLine{
			EntryID:         e.EntryID,
			TransactionID:   e.TransactionID,
			TransactionDate: e.TransactionDate,
			TransactionType: e.TransactionType,
			Amount:          e.Amount,
			BalanceChange:   e.BalanceChange,
			RunningBalance:  running,
			Description:     e.Description,
			Reference:       e.Reference,
		}
	}

	return &domain.Statement{
		ClientID:       clientID,
		FromDate:       from,
		ToDate:         to,
		OpeningBalance: opening,
		ClosingBalance: running,
		Lines:          lines,
	}, nil
}

// ListLedgerEntries returns a cursor-paginated page of a client's ledger
// entries, newest first. This is the feed the notification service consumes.
func (s *statementService) ListLedgerEntries(ctx context.Context, clientID string, params dto.ListTransactionsParams) (*dto.ListLedgerEntriesResponse, error) {
	limit := params.Limit
	if limit <= 0 {
		limit = 20
	}
	entries, nextToken, err := s.ledgerRepo.ListEntriesByClient(ctx, clientID, limit, params.NextToken)
	if err != nil {
		return nil, fmt.Errorf("failed to list ledger entries for client %s: %w", clientID, err)
	}
	return &dto.ListLedgerEntriesResponse{
		Entries:   dto.ToLedgerEntryResponses(entries),
		NextToken: nextToken,
	}, nil
}
