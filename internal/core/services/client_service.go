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
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// clientService manages the client directory and the reconciliation of the
// cached trust balance against the ledger stream.
type clientService struct {
	clientRepo ports.ClientRepository
	ledgerRepo ports.LedgerRepository
}

// NewClientService creates the client directory service.
func NewClientService(clientRepo ports.ClientRepository, ledgerRepo ports.LedgerRepository) portssvc.ClientSvcFacade {
	return &clientService{
		clientRepo: clientRepo,
		ledgerRepo: ledgerRepo,
	}
}

var _ portssvc.ClientSvcFacade = (*clientService)(nil)

// CreateClient registers a new active client with a zero trust balance.
func (s *clientService) CreateClient(ctx context.Context, req dto.CreateClientRequest, creatorID string) (*domain.Client, error) {
	logger := middleware.GetLoggerFromCtx(ctx)

	now := time.Now().UTC()
	client := domain.Client{
		ClientID:     uuid.NewString(),
		Name:         req.Name,
		Status:       domain.ClientActive,
		TrustBalance: decimal.Zero,
		AuditFields: domain.AuditFields{
			CreatedAt:     now,
			CreatedBy:     creatorID,
			LastUpdatedAt: now,
			LastUpdatedBy: creatorID,
		},
	}
	if err := s.clientRepo.SaveClient(ctx, client); err != nil {
		logger.Error("Failed to save client", "error", err)
		return nil, fmt.Errorf("failed to save client: %w", err)
	}
	logger.Info("Client created", "client_id", client.ClientID)
	return &client, nil
}

// GetClientByID retrieves a client record, including the cached balance.
func (s *clientService) GetClientByID(ctx context.Context, clientID string) (*domain.Client, error) {
	client, err := s.clientRepo.FindClientByID(ctx, clientID)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, apperrors.ErrClientNotFound
		}
		return nil, err
	}
	return client, nil
}

// DeactivateClient marks a client inactive; further postings are rejected but
// history and balances remain readable.
func (s *clientService) DeactivateClient(ctx context.Context, clientID, userID string) error {
	logger := middleware.GetLoggerFromCtx(ctx)

	err := s.clientRepo.UpdateClientStatus(ctx, clientID, domain.ClientInactive, userID, time.Now().UTC())
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return apperrors.ErrClientNotFound
		}
		logger.Error("Failed to deactivate client", "client_id", clientID, "error", err)
		return fmt.Errorf("failed to deactivate client %s: %w", clientID, err)
	}
	logger.Info("Client deactivated", "client_id", clientID)
	return nil
}

// ListClients returns a cursor-paginated page of clients.
func (s *clientService) ListClients(ctx context.Context, params dto.ListTransactionsParams) (*dto.ListClientsResponse, error) {
	limit := params.Limit
	if limit <= 0 {
		limit = 20
	}
	clients, nextToken, err := s.clientRepo.ListClients(ctx, limit, params.NextToken)
	if err != nil {
		return nil, fmt.Errorf("failed to list clients: %w", err)
	}
	responses := make([]dto.ClientResponse, len(clients))
	for i := range clients {
		responses[i] = dto.ToClientResponse(&clients[i])
	}
	return &dto.ListClientsResponse{Clients: responses, NextToken: nextToken}, nil
}

// ReconcileClient recomputes the client's balance from the ledger stream and
// compares it with the cached trust balance. The cache is a read optimization;
// when the two diverge the ledger sum is the authoritative value.
func (s *clientService) ReconcileClient(ctx context.Context, clientID string) (*dto.ReconciliationResult, error) {
	logger := middleware.GetLoggerFromCtx(ctx)

	client, err := s.clientRepo.FindClientByID(ctx, clientID)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, apperrors.ErrClientNotFound
		}
		return nil, err
	}

	ledgerBalance, err := s.ledgerRepo.SumBalance(ctx, clientID, nil, "")
	if err != nil {
		logger.Error("Failed to recompute ledger balance", "client_id", clientID, "error", err)
		return nil, fmt.Errorf("failed to recompute ledger balance: %w", err)
	}

	result := &dto.ReconciliationResult{
		ClientID:      clientID,
		CachedBalance: client.TrustBalance,
		LedgerBalance: ledgerBalance,
		InSync:        client.TrustBalance.Equal(ledgerBalance),
	}
	if !result.InSync {
		logger.Warn("Cached trust balance out of sync with ledger",
			"client_id", clientID,
			"cached", client.TrustBalance.String(),
			"ledger", ledgerBalance.String(),
		)
	}
	return result, nil
}

// ReconcileAllClients sweeps the whole directory, reconciling every client's
// cached balance against the ledger and collecting the divergent ones.
func (s *clientService) ReconcileAllClients(ctx context.Context) (*dto.ReconciliationSweepResponse, error) {
	logger := middleware.GetLoggerFromCtx(ctx)

	sweep := &dto.ReconciliationSweepResponse{OutOfSync: []dto.ReconciliationResult{}}
	var nextToken *string
	for {
		clients, token, err := s.clientRepo.ListClients(ctx, 100, nextToken)
		if err != nil {
			return nil, fmt.Errorf("failed to list clients for reconciliation: %w", err)
		}
		for i := range clients {
			result, err := s.ReconcileClient(ctx, clients[i].ClientID)
			if err != nil {
				return nil, err
			}
			sweep.ClientsChecked++
			if !result.InSync {
				sweep.OutOfSync = append(sweep.OutOfSync, *result)
			}
		}
		if token == nil {
			break
		}
		nextToken = token
	}

	logger.Info("Reconciliation sweep finished",
		"clients_checked", sweep.ClientsChecked,
		"out_of_sync", len(sweep.OutOfSync),
	)
	return sweep, nil
}
