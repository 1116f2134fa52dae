package services_test

import (
	"context"
	"testing"
	"time"

	portssvc "github.com/SajmustafaKe/trustledger/internal/core/ports/services"
	"github.com/SajmustafaKe/trustledger/internal/core/services"
	"github.com/SajmustafaKe/trustledger/internal/dto"
	"github.com/SajmustafaKe/trustledger/internal/repositories/database/memdb"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"
)

const testJWTSecret = "test-secret-used-only-in-tests"

type AuthServiceTestSuite struct {
	suite.Suite
	service portssvc.AuthSvcFacade
}

func (suite *AuthServiceTestSuite) SetupTest() {
	repos := memdb.NewRepositories(memdb.NewStore())
	suite.service = services.NewAuthService(repos.Approvers, testJWTSecret, time.Hour, "trustledger-test")
}

func (suite *AuthServiceTestSuite) TestRegisterAndLogin() {
	ctx := context.Background()
	secret := "a-sufficiently-long-secret"

	approver, err := suite.service.RegisterApprover(ctx, dto.RegisterApproverRequest{
		Name:   "Achieng Odhiambo",
		Secret: secret,
	}, uuid.NewString())
	suite.Require().NoError(err)
	suite.NotEmpty(approver.ApproverID)
	suite.NotEqual(secret, approver.SecretHash, "secret must be stored hashed")

	resp, err := suite.service.Login(ctx, dto.LoginRequest{ApproverID: approver.ApproverID, Secret: secret})
	suite.Require().NoError(err)
	suite.NotEmpty(resp.Token)
	suite.Equal(int64(3600), resp.ExpiresIn)

	// The token subject must be the approver ID; postings stamp it as ApprovedBy.
	token, err := jwt.ParseWithClaims(resp.Token, &jwt.RegisteredClaims{}, func(t *jwt.Token) (interface{}, error) {
		return []byte(testJWTSecret), nil
	})
	suite.Require().NoError(err)
	claims := token.Claims.(*jwt.RegisteredClaims)
	suite.Equal(approver.ApproverID, claims.Subject)
	suite.Equal("trustledger-test", claims.Issuer)
}

func (suite *AuthServiceTestSuite) TestLogin_WrongSecret() {
	ctx := context.Background()
	approver, err := suite.service.RegisterApprover(ctx, dto.RegisterApproverRequest{
		Name:   "Wrong Secret",
		Secret: "the-correct-secret",
	}, uuid.NewString())
	suite.Require().NoError(err)

	_, err = suite.service.Login(ctx, dto.LoginRequest{ApproverID: approver.ApproverID, Secret: "not-the-secret"})
	suite.ErrorIs(err, services.ErrInvalidCredentials)
}

func (suite *AuthServiceTestSuite) TestLogin_UnknownApprover() {
	_, err := suite.service.Login(context.Background(), dto.LoginRequest{ApproverID: uuid.NewString(), Secret: "whatever"})
	suite.ErrorIs(err, services.ErrInvalidCredentials)
}

func TestAuthServiceTestSuite(t *testing.T) {
	suite.Run(t, new(AuthServiceTestSuite))
}
