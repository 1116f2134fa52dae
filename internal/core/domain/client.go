package domain

import "github.com/shopspring/decimal"

// ClientStatus indicates whether a client may transact.
type ClientStatus string

const (
	ClientActive   ClientStatus = "ACTIVE"
	ClientInactive ClientStatus = "INACTIVE"
)

// Client is the directory record for a client whose funds are held in trust.
// TrustBalance is a denormalized copy of the ledger sum, maintained under the
// per-client lock on every posting. It is a read optimization only; the ledger
// entry stream remains the source of truth.
type Client struct {
	ClientID     string          `json:"clientID"`
	Name         string          `json:"name"`
	Status       ClientStatus    `json:"status"`
	TrustBalance decimal.Decimal `json:"trustBalance"`
	AuditFields
}
