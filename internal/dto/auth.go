package dto

// LoginRequest authenticates an approver by ID and secret.
type LoginRequest struct {
	ApproverID string `json:"approverID" binding:"required"`
	Secret     string `json:"secret" binding:"required"`
}

// LoginResponse carries the signed JWT for subsequent requests.
type LoginResponse struct {
	Token     string `json:"token"`
	ExpiresIn int64  `json:"expiresIn"` // seconds
}

// RegisterApproverRequest creates an approver identity.
type RegisterApproverRequest struct {
	Name   string `json:"name" binding:"required"`
	Secret string `json:"secret" binding:"required,min=12"`
}

// RegisterApproverResponse returns the generated approver ID.
type RegisterApproverResponse struct {
	ApproverID string `json:"approverID"`
	Name       string `json:"name"`
}
