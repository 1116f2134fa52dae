package domain

// Approver is a staff identity allowed to approve trust-account postings.
// SecretHash is a bcrypt hash of the approver's API secret.
type Approver struct {
	ApproverID string `json:"approverID"`
	Name       string `json:"name"`
	SecretHash string `json:"-"`
	AuditFields
}
