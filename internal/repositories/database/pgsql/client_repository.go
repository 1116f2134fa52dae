package pgsql

import (
	"context"
	"errors"
	"strconv"
	"time"

	"github.com/SajmustafaKe/trustledger/internal/apperrors"
	"github.com/SajmustafaKe/trustledger/internal/core/domain"
	"github.com/SajmustafaKe/trustledger/internal/core/ports"
	"github.com/SajmustafaKe/trustledger/internal/models"
	"github.com/SajmustafaKe/trustledger/internal/utils/mapping"
	"github.com/SajmustafaKe/trustledger/internal/utils/pagination"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

// PgxClientRepository persists the client directory.
type PgxClientRepository struct {
	BaseRepository
}

func newPgxClientRepository(pool *pgxpool.Pool) ports.ClientRepository {
	return &PgxClientRepository{BaseRepository: BaseRepository{Pool: pool}}
}

var _ ports.ClientRepository = (*PgxClientRepository)(nil)

// SaveClient inserts a new client record.
func (r *PgxClientRepository) SaveClient(ctx context.Context, client domain.Client) error {
	m := mapping.ToModelClient(client)
	query := `
		INSERT INTO clients (client_id, name, status, trust_balance, created_at, created_by, last_updated_at, last_updated_by)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8);
	`
	_, err := r.Pool.Exec(ctx, query,
		m.ClientID, m.Name, m.Status, m.TrustBalance,
		m.CreatedAt, m.CreatedBy, m.LastUpdatedAt, m.LastUpdatedBy,
	)
	if err != nil {
		return apperrors.NewAppError(500, "failed to insert client "+m.ClientID, err)
	}
	return nil
}

// FindClientByID retrieves a client by its ID.
func (r *PgxClientRepository) FindClientByID(ctx context.Context, clientID string) (*domain.Client, error) {
	query := `
		SELECT client_id, name, status, trust_balance, created_at, created_by, last_updated_at, last_updated_by
		FROM clients
		WHERE client_id = $1;
	`
	var m models.Client
	err := r.Pool.QueryRow(ctx, query, clientID).Scan(
		&m.ClientID, &m.Name, &m.Status, &m.TrustBalance,
		&m.CreatedAt, &m.CreatedBy, &m.LastUpdatedAt, &m.LastUpdatedBy,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, apperrors.NewAppError(500, "failed to find client "+clientID, err)
	}
	d := mapping.ToDomainClient(m)
	return &d, nil
}

// UpdateClientStatus marks a client active or inactive.
func (r *PgxClientRepository) UpdateClientStatus(ctx context.Context, clientID string, status domain.ClientStatus, updatedBy string, updatedAt time.Time) error {
	query := `
		UPDATE clients
		SET status = $2, last_updated_at = $3, last_updated_by = $4
		WHERE client_id = $1;
	`
	cmdTag, err := r.Pool.Exec(ctx, query, clientID, string(status), updatedAt, updatedBy)
	if err != nil {
		return apperrors.NewAppError(500, "failed to update status for client "+clientID, err)
	}
	if cmdTag.RowsAffected() == 0 {
		return apperrors.ErrNotFound
	}
	return nil
}

// ListClients retrieves a cursor-paginated list of clients ordered by creation
// time descending.
func (r *PgxClientRepository) ListClients(ctx context.Context, limit int, nextToken *string) ([]domain.Client, *string, error) {
	if limit <= 0 {
		limit = 20
	}
	fetchLimit := limit + 1

	baseQuery := `
		SELECT client_id, name, status, trust_balance, created_at, created_by, last_updated_at, last_updated_by
		FROM clients
	`
	orderByClause := `ORDER BY created_at DESC, client_id DESC`

	var rows pgx.Rows
	var err error
	args := []interface{}{}

	if nextToken != nil && *nextToken != "" {
		lastCreated, lastID, decodeErr := pagination.DecodeToken(*nextToken)
		if decodeErr != nil {
			return nil, nil, apperrors.NewAppError(400, "invalid nextToken", decodeErr)
		}
		args = append(args, lastCreated, lastID)
		query := baseQuery + " WHERE (created_at, client_id) < ($1, $2) " + orderByClause + " LIMIT $" + strconv.Itoa(len(args)+1) + ";"
		args = append(args, fetchLimit)
		rows, err = r.Pool.Query(ctx, query, args...)
	} else {
		query := baseQuery + " " + orderByClause + " LIMIT $1;"
		rows, err = r.Pool.Query(ctx, query, fetchLimit)
	}
	if err != nil {
		return nil, nil, apperrors.NewAppError(500, "failed to query clients", err)
	}
	defer rows.Close()

	modelClients := make([]models.Client, 0, fetchLimit)
	for rows.Next() {
		var m models.Client
		if err := rows.Scan(
			&m.ClientID, &m.Name, &m.Status, &m.TrustBalance,
			&m.CreatedAt, &m.CreatedBy, &m.LastUpdatedAt, &m.LastUpdatedBy,
		); err != nil {
			return nil, nil, apperrors.NewAppError(500, "failed to scan client row", err)
		}
		modelClients = append(modelClients, m)
	}
	if err := rows.Err(); err != nil {
		return nil, nil, apperrors.NewAppError(500, "error iterating client rows", err)
	}

	var nextTokenVal *string
	results := modelClients
	if len(modelClients) > limit {
		last := modelClients[limit-1]
		token := pagination.EncodeToken(last.CreatedAt, last.ClientID)
		nextTokenVal = &token
		results = modelClients[:limit]
	}

	clients := make([]domain.Client, len(results))
	for i, m := range results {
		clients[i] = mapping.ToDomainClient(m)
	}
	return clients, nextTokenVal, nil
}

// lockClientForUpdate row-locks the client inside tx, serializing concurrent
// postings for the same client across processes. The balance itself is
// re-checked against the ledger afterwards, never read from the cached column.
func lockClientForUpdate(ctx context.Context, tx pgx.Tx, clientID string) error {
	var id string
	err := tx.QueryRow(ctx, `SELECT client_id FROM clients WHERE client_id = $1 FOR UPDATE;`, clientID).Scan(&id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return apperrors.ErrNotFound
		}
		return apperrors.NewAppError(500, "failed to lock client "+clientID, err)
	}
	return nil
}

// updateClientBalance refreshes the cached trust balance inside tx. The cache
// is a convenience read; the ledger remains the source of truth.
func updateClientBalance(ctx context.Context, tx pgx.Tx, clientID string, balance decimal.Decimal, updatedBy string, updatedAt time.Time) error {
	cmdTag, err := tx.Exec(ctx, `
		UPDATE clients
		SET trust_balance = $2, last_updated_at = $3, last_updated_by = $4
		WHERE client_id = $1;
	`, clientID, balance, updatedAt, updatedBy)
	if err != nil {
		return apperrors.NewAppError(500, "failed to update balance for client "+clientID, err)
	}
	if cmdTag.RowsAffected() == 0 {
		return apperrors.ErrNotFound
	}
	return nil
}
