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
	"github.com/SajmustafaKe/trustledger/internal/platform/locking"
	"github.com/shopspring/decimal"
)

// transactionService orchestrates the Draft → Posted → Reversed lifecycle.
// Posting and reversal run inside the per-client critical section so that two
// concurrent postings for the same client can never both read the same
// balance_before and both succeed.
type transactionService struct {
	txnRepo    ports.TransactionRepository
	ledgerRepo ports.LedgerRepository
	clientRepo ports.ClientRepository
	balanceSvc portssvc.BalanceSvcFacade
	locker     *locking.ClientLocker
}

// NewTransactionService creates the transaction lifecycle manager.
func NewTransactionService(
	txnRepo ports.TransactionRepository,
	ledgerRepo ports.LedgerRepository,
	clientRepo ports.ClientRepository,
	balanceSvc portssvc.BalanceSvcFacade,
	locker *locking.ClientLocker,
) portssvc.TransactionSvcFacade {
	return &transactionService{
		txnRepo:    txnRepo,
		ledgerRepo: ledgerRepo,
		clientRepo: clientRepo,
		balanceSvc: balanceSvc,
		locker:     locker,
	}
}

var _ portssvc.TransactionSvcFacade = (*transactionService)(nil)

// validateAmount enforces the amount precondition: strictly positive, except
// Adjustment where the stored amount may carry a sign and only the magnitude
// must be non-zero.
func validateAmount(txnType domain.TransactionType, amount decimal.Decimal) error {
	if txnType == domain.Adjustment {
		if amount.IsZero() {
			return apperrors.ErrInvalidAmount
		}
		return nil
	}
	if amount.LessThanOrEqual(decimal.Zero) {
		return apperrors.ErrInvalidAmount
	}
	return nil
}

// lookupActiveClient resolves the client and enforces existence and Active
// status, mapping repository errors to the domain taxonomy.
func (s *transactionService) lookupActiveClient(ctx context.Context, clientID string) (*domain.Client, error) {
	client, err := s.clientRepo.FindClientByID(ctx, clientID)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, apperrors.ErrClientNotFound
		}
		return nil, fmt.Errorf("failed to look up client %s: %w", clientID, err)
	}
	if client.Status != domain.ClientActive {
		return nil, apperrors.ErrClientInactive
	}
	return client, nil
}

// validateForPosting re-runs the full precondition chain for a draft about to
// be posted and returns the pre-transaction balance snapshot so the caller
// does not need a second query. It has no side effects.
func (s *transactionService) validateForPosting(ctx context.Context, txn *domain.Transaction) (decimal.Decimal, error) {
	if err := validateAmount(txn.TransactionType, txn.Amount); err != nil {
		return decimal.Zero, err
	}
	if _, err := s.lookupActiveClient(ctx, txn.ClientID); err != nil {
		return decimal.Zero, err
	}

	balance, err := s.balanceSvc.BalanceAsOf(ctx, txn.ClientID, nil, txn.TransactionID)
	if err != nil {
		return decimal.Zero, err
	}

	// Any negative delta is balance-checked: withdrawals and payments debit
	// their amount, a negative adjustment debits its magnitude.
	if delta := txn.SignedDelta(); delta.IsNegative() && balance.LessThan(delta.Neg()) {
		return decimal.Zero, apperrors.NewInsufficientBalanceError(balance, delta.Neg())
	}
	return balance, nil
}

// CreateTransaction allocates a new sequential transaction code and stores the
// request as a draft. No balance effect.
func (s *transactionService) CreateTransaction(ctx context.Context, req dto.CreateTransactionRequest, creatorID string) (*domain.Transaction, error) {
	logger := middleware.GetLoggerFromCtx(ctx)

	txnType := domain.TransactionType(req.TransactionType)
	if !domain.ValidTransactionType(txnType) {
		return nil, fmt.Errorf("%w: unknown transaction type %q", apperrors.ErrValidation, req.TransactionType)
	}
	if err := validateAmount(txnType, req.Amount); err != nil {
		return nil, err
	}
	if _, err := s.lookupActiveClient(ctx, req.ClientID); err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	txnDate := now
	if req.TransactionDate != nil {
		txnDate = req.TransactionDate.UTC()
	}

	code, err := s.txnRepo.NextTransactionCode(ctx, now.Year())
	if err != nil {
		logger.Error("Failed to allocate transaction code", "error", err)
		return nil, fmt.Errorf("failed to allocate transaction code: %w", err)
	}

	txn := domain.Transaction{
		TransactionID:   code,
		ClientID:        req.ClientID,
		TransactionType: txnType,
		TransactionDate: txnDate,
		Amount:          req.Amount,
		Description:     req.Description,
		Reference:       req.Reference,
		Status:          domain.Draft,
		AuditFields: domain.AuditFields{
			CreatedAt:     now,
			CreatedBy:     creatorID,
			LastUpdatedAt: now,
			LastUpdatedBy: creatorID,
		},
	}

	if err := s.txnRepo.SaveDraft(ctx, txn); err != nil {
		logger.Error("Failed to save draft transaction", "transaction_id", code, "error", err)
		return nil, fmt.Errorf("failed to save draft transaction: %w", err)
	}

	logger.Info("Draft transaction created", "transaction_id", code, "client_id", req.ClientID)
	return &txn, nil
}

// GetTransactionByID retrieves a transaction by its code.
func (s *transactionService) GetTransactionByID(ctx context.Context, transactionID string) (*domain.Transaction, error) {
	txn, err := s.txnRepo.FindTransactionByID(ctx, transactionID)
	if err != nil {
		return nil, err
	}
	return txn, nil
}

// UpdateDraft mutates a draft transaction. Posted and reversed transactions
// are immutable and are rejected with ErrNotDraft.
func (s *transactionService) UpdateDraft(ctx context.Context, transactionID string, req dto.UpdateDraftRequest, userID string) (*domain.Transaction, error) {
	txn, err := s.txnRepo.FindTransactionByID(ctx, transactionID)
	if err != nil {
		return nil, err
	}
	if txn.Status != domain.Draft {
		return nil, apperrors.ErrNotDraft
	}

	if req.TransactionType != nil {
		txnType := domain.TransactionType(*req.TransactionType)
		if !domain.ValidTransactionType(txnType) {
			return nil, fmt.Errorf("%w: unknown transaction type %q", apperrors.ErrValidation, *req.TransactionType)
		}
		txn.TransactionType = txnType
	}
	if req.Amount != nil {
		txn.Amount = *req.Amount
	}
	if err := validateAmount(txn.TransactionType, txn.Amount); err != nil {
		return nil, err
	}
	if req.TransactionDate != nil {
		txn.TransactionDate = req.TransactionDate.UTC()
	}
	if req.Description != nil {
		txn.Description = *req.Description
	}
	if req.Reference != nil {
		txn.Reference = *req.Reference
	}

	txn.LastUpdatedAt = time.Now().UTC()
	txn.LastUpdatedBy = userID

	if err := s.txnRepo.UpdateDraft(ctx, *txn); err != nil {
		return nil, fmt.Errorf("failed to update draft %s: %w", transactionID, err)
	}
	return txn, nil
}

// DeleteDraft removes a draft transaction. Deletion past Draft is never legal;
// posted transactions are part of history.
func (s *transactionService) DeleteDraft(ctx context.Context, transactionID string, userID string) error {
	logger := middleware.GetLoggerFromCtx(ctx)

	txn, err := s.txnRepo.FindTransactionByID(ctx, transactionID)
	if err != nil {
		return err
	}
	if txn.Status != domain.Draft {
		return apperrors.ErrNotDraft
	}
	if err := s.txnRepo.DeleteDraft(ctx, transactionID); err != nil {
		return fmt.Errorf("failed to delete draft %s: %w", transactionID, err)
	}
	logger.Info("Draft transaction deleted", "transaction_id", transactionID, "deleted_by", userID)
	return nil
}

// PostTransaction commits a draft: under the client lock it re-validates,
// snapshots balance_before, appends the ledger entry and updates the cached
// client balance in one storage transaction. A caller-supplied idempotency key
// makes retries return the recorded result instead of ErrAlreadyPosted.
func (s *transactionService) PostTransaction(ctx context.Context, transactionID, approverID, idempotencyKey string) (*dto.PostTransactionResponse, error) {
	logger := middleware.GetLoggerFromCtx(ctx)

	txn, err := s.txnRepo.FindTransactionByID(ctx, transactionID)
	if err != nil {
		return nil, err
	}

	var resp *dto.PostTransactionResponse
	err = s.locker.WithClientLock(ctx, txn.ClientID, func() error {
		// Re-read under the lock; the first read raced with other postings.
		txn, err = s.txnRepo.FindTransactionByID(ctx, transactionID)
		if err != nil {
			return err
		}

		switch txn.Status {
		case domain.Posted:
			if idempotencyKey != "" && txn.IdempotencyKey == idempotencyKey {
				resp, err = s.recordedPostResult(ctx, txn)
				return err
			}
			return apperrors.ErrAlreadyPosted
		case domain.Reversed:
			return apperrors.ErrAlreadyReversed
		}

		balanceBefore, err := s.validateForPosting(ctx, txn)
		if err != nil {
			return err
		}

		delta := txn.SignedDelta()
		balanceAfter := balanceBefore.Add(delta)
		now := time.Now().UTC()

		txn.Status = domain.Posted
		txn.BalanceBefore = balanceBefore
		txn.BalanceAfter = balanceAfter
		txn.ApprovedBy = approverID
		txn.ApprovalDate = &now
		txn.IdempotencyKey = idempotencyKey
		txn.LastUpdatedAt = now
		txn.LastUpdatedBy = approverID

		entry := domain.LedgerEntry{
			TransactionID:   txn.TransactionID,
			ClientID:        txn.ClientID,
			TransactionDate: txn.TransactionDate,
			TransactionType: txn.TransactionType,
			Amount:          txn.Amount,
			BalanceChange:   delta,
			BalanceAfter:    balanceAfter,
			Description:     txn.Description,
			Reference:       txn.Reference,
			CreatedAt:       now,
			CreatedBy:       approverID,
		}

		saved, err := s.txnRepo.MarkPosted(ctx, *txn, entry)
		if err != nil {
			// A posting committed by another process can beat this one to the
			// row lock; its conflict surfaces as itself, not as a write failure.
			if errors.Is(err, apperrors.ErrStaleBalance) ||
				errors.Is(err, apperrors.ErrAlreadyPosted) ||
				errors.Is(err, apperrors.ErrAlreadyReversed) {
				logger.Warn("Posting lost a concurrent commit", "transaction_id", transactionID, "error", err)
				return err
			}
			logger.Error("Failed to commit posting", "transaction_id", transactionID, "error", err)
			return fmt.Errorf("%w: %v", apperrors.ErrLedgerWriteFailure, err)
		}

		logger.Info("Transaction posted",
			"transaction_id", transactionID,
			"entry_id", saved.EntryID,
			"balance_after", balanceAfter.String(),
		)
		resp = &dto.PostTransactionResponse{
			TransactionID: txn.TransactionID,
			LedgerEntryID: saved.EntryID,
			BalanceBefore: balanceBefore,
			BalanceAfter:  balanceAfter,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return resp, nil
}

// recordedPostResult rebuilds the response of an already-committed posting for
// an idempotent retry.
func (s *transactionService) recordedPostResult(ctx context.Context, txn *domain.Transaction) (*dto.PostTransactionResponse, error) {
	entries, err := s.ledgerRepo.FindEntriesByTransactionID(ctx, txn.TransactionID)
	if err != nil {
		return nil, fmt.Errorf("failed to load ledger entries for %s: %w", txn.TransactionID, err)
	}
	resp := &dto.PostTransactionResponse{
		TransactionID: txn.TransactionID,
		BalanceBefore: txn.BalanceBefore,
		BalanceAfter:  txn.BalanceAfter,
	}
	for _, e := range entries {
		if !e.IsReversal {
			resp.LedgerEntryID = e.EntryID
			break
		}
	}
	return resp, nil
}

// ReverseTransaction cancels a posted transaction by appending a compensating
// ledger entry with the inverse delta. The original transaction's balance
// snapshots stay untouched as the historical record. A reversal that would
// drive the balance negative fails with ErrReversalWouldOverdraw; negative
// trust balances are never permitted.
func (s *transactionService) ReverseTransaction(ctx context.Context, transactionID, reason, approverID, idempotencyKey string) (*dto.ReverseTransactionResponse, error) {
	logger := middleware.GetLoggerFromCtx(ctx)

	txn, err := s.txnRepo.FindTransactionByID(ctx, transactionID)
	if err != nil {
		return nil, err
	}

	var resp *dto.ReverseTransactionResponse
	err = s.locker.WithClientLock(ctx, txn.ClientID, func() error {
		txn, err = s.txnRepo.FindTransactionByID(ctx, transactionID)
		if err != nil {
			return err
		}

		switch txn.Status {
		case domain.Draft:
			return apperrors.ErrNotPosted
		case domain.Reversed:
			if idempotencyKey != "" && txn.IdempotencyKey == idempotencyKey {
				resp, err = s.recordedReverseResult(ctx, txn)
				return err
			}
			return apperrors.ErrAlreadyReversed
		}

		balance, err := s.ledgerRepo.SumBalance(ctx, txn.ClientID, nil, "")
		if err != nil {
			logger.Error("Failed to compute balance for reversal", "transaction_id", transactionID, "error", err)
			return fmt.Errorf("failed to compute balance for reversal: %w", err)
		}

		inverse := txn.SignedDelta().Neg()
		newBalance := balance.Add(inverse)
		if newBalance.IsNegative() {
			return apperrors.ErrReversalWouldOverdraw
		}

		now := time.Now().UTC()
		txn.Status = domain.Reversed
		txn.ReversalReason = reason
		txn.IdempotencyKey = idempotencyKey
		txn.LastUpdatedAt = now
		txn.LastUpdatedBy = approverID

		entry := domain.LedgerEntry{
			TransactionID:   txn.TransactionID,
			ClientID:        txn.ClientID,
			TransactionDate: now,
			TransactionType: txn.TransactionType,
			Amount:          txn.Amount,
			BalanceChange:   inverse,
			BalanceAfter:    newBalance,
			Description:     fmt.Sprintf("Reversal of %s: %s", txn.TransactionID, reason),
			Reference:       txn.Reference,
			IsReversal:      true,
			CreatedAt:       now,
			CreatedBy:       approverID,
		}

		saved, err := s.txnRepo.MarkReversed(ctx, *txn, entry)
		if err != nil {
			if errors.Is(err, apperrors.ErrStaleBalance) || errors.Is(err, apperrors.ErrAlreadyReversed) {
				logger.Warn("Reversal lost a concurrent commit", "transaction_id", transactionID, "error", err)
				return err
			}
			logger.Error("Failed to commit reversal", "transaction_id", transactionID, "error", err)
			return fmt.Errorf("%w: %v", apperrors.ErrLedgerWriteFailure, err)
		}

		logger.Info("Transaction reversed",
			"transaction_id", transactionID,
			"reversal_entry_id", saved.EntryID,
			"new_balance", newBalance.String(),
		)
		resp = &dto.ReverseTransactionResponse{
			TransactionID:   txn.TransactionID,
			ReversalEntryID: saved.EntryID,
			NewBalance:      newBalance,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return resp, nil
}

// recordedReverseResult rebuilds the response of an already-committed reversal
// for an idempotent retry.
func (s *transactionService) recordedReverseResult(ctx context.Context, txn *domain.Transaction) (*dto.ReverseTransactionResponse, error) {
	entries, err := s.ledgerRepo.FindEntriesByTransactionID(ctx, txn.TransactionID)
	if err != nil {
		return nil, fmt.Errorf("failed to load ledger entries for %s: %w", txn.TransactionID, err)
	}
	resp := &dto.ReverseTransactionResponse{TransactionID: txn.TransactionID}
	for _, e := range entries {
		if e.IsReversal {
			resp.ReversalEntryID = e.EntryID
			resp.NewBalance = e.BalanceAfter
			break
		}
	}
	return resp, nil
}

// ListTransactionsByClient returns a cursor-paginated page of a client's
// transactions, newest first.
func (s *transactionService) ListTransactionsByClient(ctx context.Context, clientID string, params dto.ListTransactionsParams) (*dto.ListTransactionsResponse, error) {
	limit := params.Limit
	if limit <= 0 {
		limit = 20
	}
	txns, nextToken, err := s.txnRepo.ListTransactionsByClient(ctx, clientID, limit, params.NextToken)
	if err != nil {
		return nil, fmt.Errorf("failed to list transactions for client %s: %w", clientID, err)
	}
	return &dto.ListTransactionsResponse{
		Transactions: dto.ToTransactionResponses(txns),
		NextToken:    nextToken,
	}, nil
}
