package services

import (
	"time"

	"github.com/SajmustafaKe/trustledger/internal/core/ports"
	portssvc "github.com/SajmustafaKe/trustledger/internal/core/ports/services"
	"github.com/SajmustafaKe/trustledger/internal/platform/locking"
)

// AuthConfig carries the token parameters the auth service needs.
type AuthConfig struct {
	JWTSecret string
	JWTExpiry time.Duration
	JWTIssuer string
}

// Container bundles the service facades the HTTP layer consumes.
type Container struct {
	Balance     portssvc.BalanceSvcFacade
	Transaction portssvc.TransactionSvcFacade
	Statement   portssvc.StatementSvcFacade
	Client      portssvc.ClientSvcFacade
	Auth        portssvc.AuthSvcFacade
}

// NewContainer wires the services over a repository bundle and the per-client
// lock discipline.
func NewContainer(repos ports.Repositories, locker *locking.ClientLocker, authCfg AuthConfig) *Container {
	balanceSvc := NewBalanceService(repos.Ledger, repos.Clients)
	return &Container{
		Balance:     balanceSvc,
		Transaction: NewTransactionService(repos.Transactions, repos.Ledger, repos.Clients, balanceSvc, locker),
		Statement:   NewStatementService(repos.Ledger, repos.Clients),
		Client:      NewClientService(repos.Clients, repos.Ledger),
		Auth:        NewAuthService(repos.Approvers, authCfg.JWTSecret, authCfg.JWTExpiry, authCfg.JWTIssuer),
	}
}
