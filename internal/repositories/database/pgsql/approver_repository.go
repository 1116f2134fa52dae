package pgsql

import (
	"context"
	"errors"

	"github.com/SajmustafaKe/trustledger/internal/apperrors"
	"github.com/SajmustafaKe/trustledger/internal/core/domain"
	"github.com/SajmustafaKe/trustledger/internal/core/ports"
	"github.com/SajmustafaKe/trustledger/internal/models"
	"github.com/SajmustafaKe/trustledger/internal/utils/mapping"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PgxApproverRepository persists approver identities.
type PgxApproverRepository struct {
	BaseRepository
}

func newPgxApproverRepository(pool *pgxpool.Pool) ports.ApproverRepository {
	return &PgxApproverRepository{BaseRepository: BaseRepository{Pool: pool}}
}

var _ ports.ApproverRepository = (*PgxApproverRepository)(nil)

func (r *PgxApproverRepository) SaveApprover(ctx context.Context, approver domain.Approver) error {
	m := mapping.ToModelApprover(approver)
	_, err := r.Pool.Exec(ctx, `
		INSERT INTO approvers (approver_id, name, secret_hash, created_at, created_by, last_updated_at, last_updated_by)
		VALUES ($1, $2, $3, $4, $5, $6, $7);
	`, m.ApproverID, m.Name, m.SecretHash, m.CreatedAt, m.CreatedBy, m.LastUpdatedAt, m.LastUpdatedBy)
	if err != nil {
		return apperrors.NewAppError(500, "failed to insert approver "+m.ApproverID, err)
	}
	return nil
}

func (r *PgxApproverRepository) FindApproverByID(ctx context.Context, approverID string) (*domain.Approver, error) {
	var m models.Approver
	err := r.Pool.QueryRow(ctx, `
		SELECT approver_id, name, secret_hash, created_at, created_by, last_updated_at, last_updated_by
		FROM approvers WHERE approver_id = $1;
	`, approverID).Scan(&m.ApproverID, &m.Name, &m.SecretHash, &m.CreatedAt, &m.CreatedBy, &m.LastUpdatedAt, &m.LastUpdatedBy)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, apperrors.NewAppError(500, "failed to find approver "+approverID, err)
	}
	d := mapping.ToDomainApprover(m)
	return &d, nil
}
