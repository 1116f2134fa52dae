package models

import "github.com/shopspring/decimal"

// ClientStatus mirrors domain.ClientStatus at the storage layer.
type ClientStatus string

const (
	ClientActive   ClientStatus = "ACTIVE"
	ClientInactive ClientStatus = "INACTIVE"
)

// Client is the database shape of a client directory record.
type Client struct {
	ClientID     string          `db:"client_id"`
	Name         string          `db:"name"`
	Status       ClientStatus    `db:"status"`
	TrustBalance decimal.Decimal `db:"trust_balance"`
	AuditFields
}
