package pgsql

import (
	"context"
	"strconv"
	"time"

	"github.com/SajmustafaKe/trustledger/internal/apperrors"
	"github.com/SajmustafaKe/trustledger/internal/core/domain"
	"github.com/SajmustafaKe/trustledger/internal/core/ports"
	"github.com/SajmustafaKe/trustledger/internal/models"
	"github.com/SajmustafaKe/trustledger/internal/utils/codes"
	"github.com/SajmustafaKe/trustledger/internal/utils/mapping"
	"github.com/SajmustafaKe/trustledger/internal/utils/pagination"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

// PgxLedgerRepository is the read side of the append-only ledger. All writes
// go through the posting and reversal transactions in PgxTransactionRepository.
type PgxLedgerRepository struct {
	BaseRepository
}

func newPgxLedgerRepository(pool *pgxpool.Pool) ports.LedgerRepository {
	return &PgxLedgerRepository{BaseRepository: BaseRepository{Pool: pool}}
}

var _ ports.LedgerRepository = (*PgxLedgerRepository)(nil)

const ledgerEntryColumns = `
	entry_id, transaction_id, client_id, transaction_date, transaction_type,
	amount, balance_change, balance_after, description, reference, is_reversal,
	created_at, created_by`

func scanLedgerEntry(row pgx.Row) (*models.LedgerEntry, error) {
	var m models.LedgerEntry
	err := row.Scan(
		&m.EntryID, &m.TransactionID, &m.ClientID, &m.TransactionDate, &m.TransactionType,
		&m.Amount, &m.BalanceChange, &m.BalanceAfter, &m.Description, &m.Reference, &m.IsReversal,
		&m.CreatedAt, &m.CreatedBy,
	)
	if err != nil {
		return nil, err
	}
	return &m, nil
}

// sumLedgerBalance re-sums a client's full ledger through the given querier,
// typically an open transaction holding the client row lock.
func sumLedgerBalance(ctx context.Context, q queryRower, clientID string) (decimal.Decimal, error) {
	var sum decimal.Decimal
	err := q.QueryRow(ctx, `SELECT COALESCE(SUM(balance_change), 0) FROM ledger_entries WHERE client_id = $1;`, clientID).Scan(&sum)
	if err != nil {
		return decimal.Zero, apperrors.NewAppError(500, "failed to sum balance for client "+clientID, err)
	}
	return sum, nil
}

// insertLedgerEntry allocates the entry's TAL code and appends it, all inside
// the caller's transaction. Committed entries get gap-free codes; concurrent
// postings serialize on the per-year sequence row until commit.
func insertLedgerEntry(ctx context.Context, tx pgx.Tx, entry domain.LedgerEntry) (*domain.LedgerEntry, error) {
	entryID, err := nextCode(ctx, tx, codes.LedgerPrefix, entry.CreatedAt.Year())
	if err != nil {
		return nil, err
	}
	entry.EntryID = entryID

	m := mapping.ToModelLedgerEntry(entry)
	query := `
		INSERT INTO ledger_entries (` + ledgerEntryColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13);
	`
	_, err = tx.Exec(ctx, query,
		m.EntryID, m.TransactionID, m.ClientID, m.TransactionDate, m.TransactionType,
		m.Amount, m.BalanceChange, m.BalanceAfter, m.Description, m.Reference, m.IsReversal,
		m.CreatedAt, m.CreatedBy,
	)
	if err != nil {
		return nil, apperrors.NewAppError(500, "failed to append ledger entry "+m.EntryID, err)
	}
	return &entry, nil
}

// SumBalance computes a client's balance from the ledger itself, never from
// the cached column on the client row.
func (r *PgxLedgerRepository) SumBalance(ctx context.Context, clientID string, asOf *time.Time, excludeTransactionID string) (decimal.Decimal, error) {
	query := `SELECT COALESCE(SUM(balance_change), 0) FROM ledger_entries WHERE client_id = $1`
	args := []interface{}{clientID}
	if asOf != nil {
		args = append(args, *asOf)
		query += ` AND transaction_date <= $` + strconv.Itoa(len(args))
	}
	if excludeTransactionID != "" {
		args = append(args, excludeTransactionID)
		query += ` AND transaction_id != $` + strconv.Itoa(len(args))
	}
	query += `;`

	var sum decimal.Decimal
	if err := r.Pool.QueryRow(ctx, query, args...).Scan(&sum); err != nil {
		return decimal.Zero, apperrors.NewAppError(500, "failed to sum balance for client "+clientID, err)
	}
	return sum, nil
}

// SumBalanceBefore returns the opening balance for a statement starting at
// before: the sum over entries dated strictly earlier.
func (r *PgxLedgerRepository) SumBalanceBefore(ctx context.Context, clientID string, before time.Time) (decimal.Decimal, error) {
	var sum decimal.Decimal
	err := r.Pool.QueryRow(ctx, `
		SELECT COALESCE(SUM(balance_change), 0)
		FROM ledger_entries
		WHERE client_id = $1 AND transaction_date < $2;
	`, clientID, before).Scan(&sum)
	if err != nil {
		return decimal.Zero, apperrors.NewAppError(500, "failed to sum opening balance for client "+clientID, err)
	}
	return sum, nil
}

// FindEntriesByClientRange returns entries inside [from, to], oldest first.
// Ties on the date are broken by the entry code, which is allocation order.
func (r *PgxLedgerRepository) FindEntriesByClientRange(ctx context.Context, clientID string, from, to time.Time) ([]domain.LedgerEntry, error) {
	rows, err := r.Pool.Query(ctx, `
		SELECT `+ledgerEntryColumns+`
		FROM ledger_entries
		WHERE client_id = $1 AND transaction_date >= $2 AND transaction_date <= $3
		ORDER BY transaction_date ASC, entry_id ASC;
	`, clientID, from, to)
	if err != nil {
		return nil, apperrors.NewAppError(500, "failed to query ledger entries for client "+clientID, err)
	}
	defer rows.Close()

	return collectLedgerEntries(rows, clientID)
}

// FindEntriesByTransactionID returns the entries a transaction produced: one
// for the posting, and a second compensating one when it was reversed.
func (r *PgxLedgerRepository) FindEntriesByTransactionID(ctx context.Context, transactionID string) ([]domain.LedgerEntry, error) {
	rows, err := r.Pool.Query(ctx, `
		SELECT `+ledgerEntryColumns+`
		FROM ledger_entries
		WHERE transaction_id = $1
		ORDER BY entry_id ASC;
	`, transactionID)
	if err != nil {
		return nil, apperrors.NewAppError(500, "failed to query ledger entries for transaction "+transactionID, err)
	}
	defer rows.Close()

	return collectLedgerEntries(rows, transactionID)
}

// ListEntriesByClient retrieves a cursor-paginated event feed, newest first.
func (r *PgxLedgerRepository) ListEntriesByClient(ctx context.Context, clientID string, limit int, nextToken *string) ([]domain.LedgerEntry, *string, error) {
	if limit <= 0 {
		limit = 20
	}
	fetchLimit := limit + 1

	baseQuery := `SELECT ` + ledgerEntryColumns + ` FROM ledger_entries WHERE client_id = $1`
	orderByClause := `ORDER BY transaction_date DESC, entry_id DESC`

	var rows pgx.Rows
	var err error
	if nextToken != nil && *nextToken != "" {
		lastDate, lastID, decodeErr := pagination.DecodeToken(*nextToken)
		if decodeErr != nil {
			return nil, nil, apperrors.NewAppError(400, "invalid nextToken", decodeErr)
		}
		query := baseQuery + ` AND (transaction_date, entry_id) < ($2, $3) ` + orderByClause + ` LIMIT $4;`
		rows, err = r.Pool.Query(ctx, query, clientID, lastDate, lastID, fetchLimit)
	} else {
		query := baseQuery + ` ` + orderByClause + ` LIMIT $2;`
		rows, err = r.Pool.Query(ctx, query, clientID, fetchLimit)
	}
	if err != nil {
		return nil, nil, apperrors.NewAppError(500, "failed to query ledger feed for client "+clientID, err)
	}
	defer rows.Close()

	modelEntries := make([]models.LedgerEntry, 0, fetchLimit)
	for rows.Next() {
		m, scanErr := scanLedgerEntry(rows)
		if scanErr != nil {
			return nil, nil, apperrors.NewAppError(500, "failed to scan ledger entry row for client "+clientID, scanErr)
		}
		modelEntries = append(modelEntries, *m)
	}
	if err := rows.Err(); err != nil {
		return nil, nil, apperrors.NewAppError(500, "error iterating ledger feed rows for client "+clientID, err)
	}

	var nextTokenVal *string
	results := modelEntries
	if len(modelEntries) > limit {
		last := modelEntries[limit-1]
		token := pagination.EncodeToken(last.TransactionDate, last.EntryID)
		nextTokenVal = &token
		results = modelEntries[:limit]
	}

	return mapping.ToDomainLedgerEntrySlice(results), nextTokenVal, nil
}

func collectLedgerEntries(rows pgx.Rows, subject string) ([]domain.LedgerEntry, error) {
	modelEntries := []models.LedgerEntry{}
	for rows.Next() {
		m, err := scanLedgerEntry(rows)
		if err != nil {
			return nil, apperrors.NewAppError(500, "failed to scan ledger entry row for "+subject, err)
		}
		modelEntries = append(modelEntries, *m)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.NewAppError(500, "error iterating ledger entry rows for "+subject, err)
	}
	return mapping.ToDomainLedgerEntrySlice(modelEntries), nil
}
