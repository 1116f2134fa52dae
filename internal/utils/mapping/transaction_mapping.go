package mapping

import (
	"github.com/SajmustafaKe/trustledger/internal/core/domain"
	"github.com/SajmustafaKe/trustledger/internal/models"
)

// ToModelTransaction converts a domain Transaction to a model Transaction
func ToModelTransaction(d domain.Transaction) models.Transaction {
	m := models.Transaction{
		TransactionID:   d.TransactionID,
		ClientID:        d.ClientID,
		TransactionType: string(d.TransactionType),
		TransactionDate: d.TransactionDate,
		Amount:          d.Amount,
		Description:     d.Description,
		Reference:       d.Reference,
		Status:          string(d.Status),
		BalanceBefore:   d.BalanceBefore,
		BalanceAfter:    d.BalanceAfter,
		ApprovalDate:    d.ApprovalDate,
		AuditFields:     ToModelAuditFields(d.AuditFields),
	}
	if d.ApprovedBy != "" {
		m.ApprovedBy = &d.ApprovedBy
	}
	if d.IdempotencyKey != "" {
		m.IdempotencyKey = &d.IdempotencyKey
	}
	if d.ReversalReason != "" {
		m.ReversalReason = &d.ReversalReason
	}
	return m
}

// ToDomainTransaction converts a model Transaction to a domain Transaction
func ToDomainTransaction(m models.Transaction) domain.Transaction {
	d := domain.Transaction{
		TransactionID:   m.TransactionID,
		ClientID:        m.ClientID,
		TransactionType: domain.TransactionType(m.TransactionType),
		TransactionDate: m.TransactionDate,
		Amount:          m.Amount,
		Description:     m.Description,
		Reference:       m.Reference,
		Status:          domain.TransactionStatus(m.Status),
		BalanceBefore:   m.BalanceBefore,
		BalanceAfter:    m.BalanceAfter,
		ApprovalDate:    m.ApprovalDate,
		AuditFields:     ToDomainAuditFields(m.AuditFields),
	}
	if m.ApprovedBy != nil {
		d.ApprovedBy = *m.ApprovedBy
	}
	if m.IdempotencyKey != nil {
		d.IdempotencyKey = *m.IdempotencyKey
	}
	if m.ReversalReason != nil {
		d.ReversalReason = *m.ReversalReason
	}
	return d
}

// ToDomainTransactionSlice converts a slice of model Transactions
func ToDomainTransactionSlice(ms []models.Transaction) []domain.Transaction {
	ds := make([]domain.Transaction, len(ms))
	for i, m := range ms {
		ds[i] = ToDomainTransaction(m)
	}
	return ds
}
