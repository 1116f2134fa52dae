package pgsql

import (
	"github.com/SajmustafaKe/trustledger/internal/core/ports"
	"github.com/jackc/pgx/v5/pgxpool"
)

// NewRepositories wires all pgx-backed repositories over one shared pool.
func NewRepositories(pool *pgxpool.Pool) ports.Repositories {
	return ports.Repositories{
		Clients:      newPgxClientRepository(pool),
		Transactions: newPgxTransactionRepository(pool),
		Ledger:       newPgxLedgerRepository(pool),
		Approvers:    newPgxApproverRepository(pool),
	}
}
