package mapping

import (
	"github.com/SajmustafaKe/trustledger/internal/core/domain"
	"github.com/SajmustafaKe/trustledger/internal/models"
)

// ToModelLedgerEntry converts a domain LedgerEntry to a model LedgerEntry
func ToModelLedgerEntry(d domain.LedgerEntry) models.LedgerEntry {
	return models.LedgerEntry{
		EntryID:         d.EntryID,
		TransactionID:   d.TransactionID,
		ClientID:        d.ClientID,
		TransactionDate: d.TransactionDate,
		TransactionType: string(d.TransactionType),
		Amount:          d.Amount,
		BalanceChange:   d.BalanceChange,
		BalanceAfter:    d.BalanceAfter,
		Description:     d.Description,
		Reference:       d.Reference,
		IsReversal:      d.IsReversal,
		CreatedAt:       d.CreatedAt,
		CreatedBy:       d.CreatedBy,
	}
}

// ToDomainLedgerEntry converts a model LedgerEntry to a domain LedgerEntry
func ToDomainLedgerEntry(m models.LedgerEntry) domain.LedgerEntry {
	return domain.LedgerEntry{
		EntryID:         m.EntryID,
		TransactionID:   m.TransactionID,
		ClientID:        m.ClientID,
		TransactionDate: m.TransactionDate,
		TransactionType: domain.TransactionType(m.TransactionType),
		Amount:          m.Amount,
		BalanceChange:   m.BalanceChange,
		BalanceAfter:    m.BalanceAfter,
		Description:     m.Description,
		Reference:       m.Reference,
		IsReversal:      m.IsReversal,
		CreatedAt:       m.CreatedAt,
		CreatedBy:       m.CreatedBy,
	}
}

// ToDomainLedgerEntrySlice converts a slice of model LedgerEntries
func ToDomainLedgerEntrySlice(ms []models.LedgerEntry) []domain.LedgerEntry {
	ds := make([]domain.LedgerEntry, len(ms))
	for i, m := range ms {
		ds[i] = ToDomainLedgerEntry(m)
	}
	return ds
}
