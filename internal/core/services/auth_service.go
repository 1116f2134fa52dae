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
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

// ErrInvalidCredentials is returned for a wrong approver ID or secret.
var ErrInvalidCredentials = errors.New("invalid approver credentials")

// authService authenticates approvers and issues the JWTs whose subject is
// stamped onto postings as the approver identity.
type authService struct {
	approverRepo ports.ApproverRepository
	jwtSecret    string
	jwtExpiry    time.Duration
	jwtIssuer    string
}

// NewAuthService creates the approver auth service.
func NewAuthService(approverRepo ports.ApproverRepository, jwtSecret string, jwtExpiry time.Duration, jwtIssuer string) portssvc.AuthSvcFacade {
	return &authService{
		approverRepo: approverRepo,
		jwtSecret:    jwtSecret,
		jwtExpiry:    jwtExpiry,
		jwtIssuer:    jwtIssuer,
	}
}

var _ portssvc.AuthSvcFacade = (*authService)(nil)

// Login verifies the approver secret and issues an HMAC-signed JWT.
func (s *authService) Login(ctx context.Context, req dto.LoginRequest) (*dto.LoginResponse, error) {
	logger := middleware.GetLoggerFromCtx(ctx)

	approver, err := s.approverRepo.FindApproverByID(ctx, req.ApproverID)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, ErrInvalidCredentials
		}
		logger.Error("Failed to look up approver", "error", err)
		return nil, fmt.Errorf("failed to look up approver: %w", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(approver.SecretHash), []byte(req.Secret)); err != nil {
		return nil, ErrInvalidCredentials
	}

	now := time.Now().UTC()
	claims := jwt.RegisteredClaims{
		Subject:   approver.ApproverID,
		Issuer:    s.jwtIssuer,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(s.jwtExpiry)),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(s.jwtSecret))
	if err != nil {
		logger.Error("Failed to sign token", "error", err)
		return nil, fmt.Errorf("failed to sign token: %w", err)
	}

	logger.Info("Approver logged in", "approver_id", approver.ApproverID)
	return &dto.LoginResponse{
		Token:     signed,
		ExpiresIn: int64(s.jwtExpiry.Seconds()),
	}, nil
}

// RegisterApprover creates an approver identity with a bcrypt-hashed secret.
func (s *authService) RegisterApprover(ctx context.Context, req dto.RegisterApproverRequest, creatorID string) (*domain.Approver, error) {
	logger := middleware.GetLoggerFromCtx(ctx)

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Secret), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash approver secret: %w", err)
	}

	now := time.Now().UTC()
	approver := domain.Approver{
		ApproverID: uuid.NewString(),
		Name:       req.Name,
		SecretHash: string(hash),
		AuditFields: domain.AuditFields{
			CreatedAt:     now,
			CreatedBy:     creatorID,
			LastUpdatedAt: now,
			LastUpdatedBy: creatorID,
		},
	}
	if err := s.approverRepo.SaveApprover(ctx, approver); err != nil {
		logger.Error("Failed to save approver", "error", err)
		return nil, fmt.Errorf("failed to save approver: %w", err)
	}

	logger.Info("Approver registered", "approver_id", approver.ApproverID)
	return &approver, nil
}
