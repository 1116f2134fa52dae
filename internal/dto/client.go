package dto

import (
	"time"

	"github.com/SajmustafaKe/trustledger/internal/core/domain"
	"github.com/shopspring/decimal"
)

// CreateClientRequest is the payload for registering a client in the directory.
type CreateClientRequest struct {
	Name string `json:"name" binding:"required"`
}

// ClientResponse defines the data returned for a client.
type ClientResponse struct {
	ClientID     string          `json:"clientID"`
	Name         string          `json:"name"`
	Status       string          `json:"status"`
	TrustBalance decimal.Decimal `json:"trustBalance"`
	CreatedAt    time.Time       `json:"createdAt"`
}

// BalanceResponse is the authoritative balance computed from the ledger stream.
type BalanceResponse struct {
	ClientID string          `json:"clientID"`
	Balance  decimal.Decimal `json:"balance"`
	AsOf     *time.Time      `json:"asOf,omitempty"`
}

// ReconciliationResult compares the cached trust balance with the sum
// recomputed from the ledger entry stream.
type ReconciliationResult struct {
	ClientID      string          `json:"clientID"`
	CachedBalance decimal.Decimal `json:"cachedBalance"`
	LedgerBalance decimal.Decimal `json:"ledgerBalance"`
	InSync        bool            `json:"inSync"`
}

// ReconciliationSweepResponse is the result of reconciling every client:
// how many were checked and the results for those whose cache diverged.
type ReconciliationSweepResponse struct {
	ClientsChecked int                    `json:"clientsChecked"`
	OutOfSync      []ReconciliationResult `json:"outOfSync"`
}

// ListClientsResponse is a page of clients plus the next cursor.
type ListClientsResponse struct {
	Clients   []ClientResponse `json:"clients"`
	NextToken *string          `json:"nextToken,omitempty"`
}

// ToClientResponse converts a domain.Client to its response DTO.
func ToClientResponse(c *domain.Client) ClientResponse {
	return ClientResponse{
		ClientID:     c.ClientID,
		Name:         c.Name,
		Status:       string(c.Status),
		TrustBalance: c.TrustBalance,
		CreatedAt:    c.CreatedAt,
	}
}
