package pgsql

import (
	"context"
	"errors"
	"strconv"

	"github.com/SajmustafaKe/trustledger/internal/apperrors"
	"github.com/SajmustafaKe/trustledger/internal/core/domain"
	"github.com/SajmustafaKe/trustledger/internal/core/ports"
	"github.com/SajmustafaKe/trustledger/internal/models"
	"github.com/SajmustafaKe/trustledger/internal/utils/codes"
	"github.com/SajmustafaKe/trustledger/internal/utils/mapping"
	"github.com/SajmustafaKe/trustledger/internal/utils/pagination"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PgxTransactionRepository persists trust account transactions. MarkPosted and
// MarkReversed run the transaction update, the ledger append and the client
// cache update inside a single database transaction with the client row locked
// and the caller's balance snapshot re-checked against the ledger, so no
// concurrent posting can commit over a stale balance and no statement read can
// observe a half-written state.
type PgxTransactionRepository struct {
	BaseRepository
}

func newPgxTransactionRepository(pool *pgxpool.Pool) ports.TransactionRepository {
	return &PgxTransactionRepository{BaseRepository: BaseRepository{Pool: pool}}
}

var _ ports.TransactionRepository = (*PgxTransactionRepository)(nil)

// queryRower is satisfied by both *pgxpool.Pool and pgx.Tx.
type queryRower interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// nextCode allocates the next sequence value for a prefix/year pair. The upsert
// takes a row lock on the sequence row, so allocations are strictly increasing
// and never reused.
func nextCode(ctx context.Context, q queryRower, prefix string, year int) (string, error) {
	query := `
		INSERT INTO code_sequences (prefix, year, last_value)
		VALUES ($1, $2, 1)
		ON CONFLICT (prefix, year)
		DO UPDATE SET last_value = code_sequences.last_value + 1
		RETURNING last_value;
	`
	var seq int64
	if err := q.QueryRow(ctx, query, prefix, year).Scan(&seq); err != nil {
		return "", apperrors.NewAppError(500, "failed to allocate "+prefix+" code", err)
	}
	code, err := codes.Format(prefix, year, seq)
	if err != nil {
		return "", apperrors.NewAppError(500, "failed to allocate "+prefix+" code", err)
	}
	return code, nil
}

// checkBalanceSnapshot re-sums the client's ledger inside the posting
// transaction and verifies the entry's pre-append balance against it. The
// validation read ran outside this transaction; a posting committed by another
// process in between makes the snapshot stale, and appending it would corrupt
// balance_before/balance_after and could overdraw the account.
func checkBalanceSnapshot(ctx context.Context, tx pgx.Tx, entry domain.LedgerEntry) error {
	ledgerBalance, err := sumLedgerBalance(ctx, tx, entry.ClientID)
	if err != nil {
		return err
	}
	if !ledgerBalance.Equal(entry.BalanceAfter.Sub(entry.BalanceChange)) {
		return apperrors.ErrStaleBalance
	}
	return nil
}

// NextTransactionCode allocates the next TAT code for the given year.
func (r *PgxTransactionRepository) NextTransactionCode(ctx context.Context, year int) (string, error) {
	return nextCode(ctx, r.Pool, codes.TransactionPrefix, year)
}

const transactionColumns = `
	transaction_id, client_id, transaction_type, transaction_date, amount,
	description, reference, status, balance_before, balance_after,
	approved_by, approval_date, idempotency_key, reversal_reason,
	created_at, created_by, last_updated_at, last_updated_by`

func scanTransaction(row pgx.Row) (*models.Transaction, error) {
	var m models.Transaction
	err := row.Scan(
		&m.TransactionID, &m.ClientID, &m.TransactionType, &m.TransactionDate, &m.Amount,
		&m.Description, &m.Reference, &m.Status, &m.BalanceBefore, &m.BalanceAfter,
		&m.ApprovedBy, &m.ApprovalDate, &m.IdempotencyKey, &m.ReversalReason,
		&m.CreatedAt, &m.CreatedBy, &m.LastUpdatedAt, &m.LastUpdatedBy,
	)
	if err != nil {
		return nil, err
	}
	return &m, nil
}

// SaveDraft inserts a new draft transaction.
func (r *PgxTransactionRepository) SaveDraft(ctx context.Context, txn domain.Transaction) error {
	m := mapping.ToModelTransaction(txn)
	query := `
		INSERT INTO transactions (` + transactionColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18);
	`
	_, err := r.Pool.Exec(ctx, query,
		m.TransactionID, m.ClientID, m.TransactionType, m.TransactionDate, m.Amount,
		m.Description, m.Reference, m.Status, m.BalanceBefore, m.BalanceAfter,
		m.ApprovedBy, m.ApprovalDate, m.IdempotencyKey, m.ReversalReason,
		m.CreatedAt, m.CreatedBy, m.LastUpdatedAt, m.LastUpdatedBy,
	)
	if err != nil {
		return apperrors.NewAppError(500, "failed to insert transaction "+m.TransactionID, err)
	}
	return nil
}

// FindTransactionByID retrieves a transaction by its code.
func (r *PgxTransactionRepository) FindTransactionByID(ctx context.Context, transactionID string) (*domain.Transaction, error) {
	query := `SELECT ` + transactionColumns + ` FROM transactions WHERE transaction_id = $1;`
	m, err := scanTransaction(r.Pool.QueryRow(ctx, query, transactionID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, apperrors.NewAppError(500, "failed to find transaction "+transactionID, err)
	}
	d := mapping.ToDomainTransaction(*m)
	return &d, nil
}

// UpdateDraft updates the mutable fields of a draft. The status guard in the
// WHERE clause makes posted rows immutable at the storage layer too.
func (r *PgxTransactionRepository) UpdateDraft(ctx context.Context, txn domain.Transaction) error {
	m := mapping.ToModelTransaction(txn)
	query := `
		UPDATE transactions
		SET transaction_type = $2, transaction_date = $3, amount = $4,
		    description = $5, reference = $6, last_updated_at = $7, last_updated_by = $8
		WHERE transaction_id = $1 AND status = 'DRAFT';
	`
	cmdTag, err := r.Pool.Exec(ctx, query,
		m.TransactionID, m.TransactionType, m.TransactionDate, m.Amount,
		m.Description, m.Reference, m.LastUpdatedAt, m.LastUpdatedBy,
	)
	if err != nil {
		return apperrors.NewAppError(500, "failed to update draft "+m.TransactionID, err)
	}
	if cmdTag.RowsAffected() == 0 {
		return apperrors.ErrNotDraft
	}
	return nil
}

// DeleteDraft removes a draft transaction. Posted rows are never deleted.
func (r *PgxTransactionRepository) DeleteDraft(ctx context.Context, transactionID string) error {
	cmdTag, err := r.Pool.Exec(ctx, `DELETE FROM transactions WHERE transaction_id = $1 AND status = 'DRAFT';`, transactionID)
	if err != nil {
		return apperrors.NewAppError(500, "failed to delete draft "+transactionID, err)
	}
	if cmdTag.RowsAffected() == 0 {
		return apperrors.ErrNotDraft
	}
	return nil
}

// ListTransactionsByClient retrieves a cursor-paginated list of a client's
// transactions, newest first.
func (r *PgxTransactionRepository) ListTransactionsByClient(ctx context.Context, clientID string, limit int, nextToken *string) ([]domain.Transaction, *string, error) {
	if limit <= 0 {
		limit = 20
	}
	fetchLimit := limit + 1

	baseQuery := `SELECT ` + transactionColumns + ` FROM transactions WHERE client_id = $1`
	orderByClause := `ORDER BY transaction_date DESC, transaction_id DESC`

	var rows pgx.Rows
	var err error
	args := []interface{}{clientID}

	if nextToken != nil && *nextToken != "" {
		lastDate, lastID, decodeErr := pagination.DecodeToken(*nextToken)
		if decodeErr != nil {
			return nil, nil, apperrors.NewAppError(400, "invalid nextToken", decodeErr)
		}
		args = append(args, lastDate, lastID)
		query := baseQuery + ` AND (transaction_date, transaction_id) < ($2, $3) ` + orderByClause + ` LIMIT $` + strconv.Itoa(len(args)+1) + `;`
		args = append(args, fetchLimit)
		rows, err = r.Pool.Query(ctx, query, args...)
	} else {
		query := baseQuery + ` ` + orderByClause + ` LIMIT $2;`
		args = append(args, fetchLimit)
		rows, err = r.Pool.Query(ctx, query, args...)
	}
	if err != nil {
		return nil, nil, apperrors.NewAppError(500, "failed to query transactions for client "+clientID, err)
	}
	defer rows.Close()

	modelTxns := make([]models.Transaction, 0, fetchLimit)
	for rows.Next() {
		m, scanErr := scanTransaction(rows)
		if scanErr != nil {
			return nil, nil, apperrors.NewAppError(500, "failed to scan transaction row for client "+clientID, scanErr)
		}
		modelTxns = append(modelTxns, *m)
	}
	if err := rows.Err(); err != nil {
		return nil, nil, apperrors.NewAppError(500, "error iterating transaction rows for client "+clientID, err)
	}

	var nextTokenVal *string
	results := modelTxns
	if len(modelTxns) > limit {
		last := modelTxns[limit-1]
		token := pagination.EncodeToken(last.TransactionDate, last.TransactionID)
		nextTokenVal = &token
		results = modelTxns[:limit]
	}

	return mapping.ToDomainTransactionSlice(results), nextTokenVal, nil
}

// MarkPosted commits a posting atomically: client row lock, balance snapshot
// re-check, transaction row update (guarded on DRAFT), TAL code allocation,
// ledger append and cached balance update all inside one database transaction.
func (r *PgxTransactionRepository) MarkPosted(ctx context.Context, txn domain.Transaction, entry domain.LedgerEntry) (*domain.LedgerEntry, error) {
	tx, err := r.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer r.Rollback(ctx, tx)

	if err := lockClientForUpdate(ctx, tx, txn.ClientID); err != nil {
		return nil, err
	}
	if err := checkBalanceSnapshot(ctx, tx, entry); err != nil {
		return nil, err
	}

	m := mapping.ToModelTransaction(txn)
	updateQuery := `
		UPDATE transactions
		SET status = 'POSTED', balance_before = $2, balance_after = $3,
		    approved_by = $4, approval_date = $5, idempotency_key = $6,
		    last_updated_at = $7, last_updated_by = $8
		WHERE transaction_id = $1 AND status = 'DRAFT';
	`
	cmdTag, err := tx.Exec(ctx, updateQuery,
		m.TransactionID, m.BalanceBefore, m.BalanceAfter,
		m.ApprovedBy, m.ApprovalDate, m.IdempotencyKey,
		m.LastUpdatedAt, m.LastUpdatedBy,
	)
	if err != nil {
		return nil, apperrors.NewAppError(500, "failed to mark transaction "+m.TransactionID+" posted", err)
	}
	if cmdTag.RowsAffected() == 0 {
		return nil, apperrors.ErrAlreadyPosted
	}

	saved, err := insertLedgerEntry(ctx, tx, entry)
	if err != nil {
		return nil, err
	}

	if err := updateClientBalance(ctx, tx, txn.ClientID, entry.BalanceAfter, txn.LastUpdatedBy, txn.LastUpdatedAt); err != nil {
		return nil, err
	}

	if err := r.Commit(ctx, tx); err != nil {
		return nil, err
	}
	return saved, nil
}

// MarkReversed commits a reversal atomically, appending the compensating entry
// and leaving the original transaction's balance snapshots untouched.
func (r *PgxTransactionRepository) MarkReversed(ctx context.Context, txn domain.Transaction, entry domain.LedgerEntry) (*domain.LedgerEntry, error) {
	tx, err := r.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer r.Rollback(ctx, tx)

	if err := lockClientForUpdate(ctx, tx, txn.ClientID); err != nil {
		return nil, err
	}
	if err := checkBalanceSnapshot(ctx, tx, entry); err != nil {
		return nil, err
	}

	m := mapping.ToModelTransaction(txn)
	updateQuery := `
		UPDATE transactions
		SET status = 'REVERSED', reversal_reason = $2, idempotency_key = $3,
		    last_updated_at = $4, last_updated_by = $5
		WHERE transaction_id = $1 AND status = 'POSTED';
	`
	cmdTag, err := tx.Exec(ctx, updateQuery,
		m.TransactionID, m.ReversalReason, m.IdempotencyKey,
		m.LastUpdatedAt, m.LastUpdatedBy,
	)
	if err != nil {
		return nil, apperrors.NewAppError(500, "failed to mark transaction "+m.TransactionID+" reversed", err)
	}
	if cmdTag.RowsAffected() == 0 {
		return nil, apperrors.ErrAlreadyReversed
	}

	saved, err := insertLedgerEntry(ctx, tx, entry)
	if err != nil {
		return nil, err
	}

	if err := updateClientBalance(ctx, tx, txn.ClientID, entry.BalanceAfter, txn.LastUpdatedBy, txn.LastUpdatedAt); err != nil {
		return nil, err
	}

	if err := r.Commit(ctx, tx); err != nil {
		return nil, err
	}
	return saved, nil
}
