package mapping

import (
	"github.com/SajmustafaKe/trustledger/internal/core/domain"
	"github.com/SajmustafaKe/trustledger/internal/models"
)

// ToModelClient converts a domain Client to a model Client
func ToModelClient(d domain.Client) models.Client {
	return models.Client{
		ClientID:     d.ClientID,
		Name:         d.Name,
		Status:       models.ClientStatus(d.Status),
		TrustBalance: d.TrustBalance,
		AuditFields:  ToModelAuditFields(d.AuditFields),
	}
}

// ToDomainClient converts a model Client to a domain Client
func ToDomainClient(m models.Client) domain.Client {
	return domain.Client{
		ClientID:     m.ClientID,
		Name:         m.Name,
		Status:       domain.ClientStatus(m.Status),
		TrustBalance: m.TrustBalance,
		AuditFields:  ToDomainAuditFields(m.AuditFields),
	}
}
