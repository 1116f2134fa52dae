package mapping

import (
	"github.com/SajmustafaKe/trustledger/internal/core/domain"
	"github.com/SajmustafaKe/trustledger/internal/models"
)

func ToModelApprover(d domain.Approver) models.Approver {
	return models.Approver{
		ApproverID:  d.ApproverID,
		Name:        d.Name,
		SecretHash:  d.SecretHash,
		AuditFields: ToModelAuditFields(d.AuditFields),
	}
}

func ToDomainApprover(m models.Approver) domain.Approver {
	return domain.Approver{
		ApproverID:  m.ApproverID,
		Name:        m.Name,
		SecretHash:  m.SecretHash,
		AuditFields: ToDomainAuditFields(m.AuditFields),
	}
}
