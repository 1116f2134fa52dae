package handlers

import (
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/SajmustafaKe/trustledger/internal/apperrors"
	portssvc "github.com/SajmustafaKe/trustledger/internal/core/ports/services"
	"github.com/SajmustafaKe/trustledger/internal/dto"
	"github.com/SajmustafaKe/trustledger/internal/middleware"
	"github.com/gin-gonic/gin"
)

// clientHandler handles HTTP requests for the client directory and the
// client-scoped read endpoints (balance, transactions, reconciliation).
type clientHandler struct {
	clientService  portssvc.ClientSvcFacade
	balanceService portssvc.BalanceSvcFacade
	txnService     portssvc.TransactionSvcFacade
}

func newClientHandler(cs portssvc.ClientSvcFacade, bs portssvc.BalanceSvcFacade, ts portssvc.TransactionSvcFacade) *clientHandler {
	return &clientHandler{clientService: cs, balanceService: bs, txnService: ts}
}

// registerClientRoutes registers routes for clients and their balances.
func registerClientRoutes(rg *gin.RouterGroup, clientService portssvc.ClientSvcFacade, balanceService portssvc.BalanceSvcFacade, txnService portssvc.TransactionSvcFacade) {
	h := newClientHandler(clientService, balanceService, txnService)

	clients := rg.Group("/clients")
	{
		clients.POST("", h.createClient)
		clients.GET("", h.listClients)
		clients.GET("/:clientID", h.getClient)
		clients.DELETE("/:clientID", h.deactivateClient)
		clients.GET("/:clientID/balance", h.getBalance)
		clients.GET("/:clientID/transactions", h.listTransactions)
		clients.GET("/:clientID/reconciliation", h.reconcileClient)
	}

	// Directory-wide sweep lives outside the /clients group to keep the
	// :clientID wildcard unambiguous.
	rg.GET("/reconciliation", h.reconcileAllClients)
}

// createClient godoc
// @Summary Register a client
// @Tags clients
// @Accept  json
// @Produce  json
// @Param   client body dto.CreateClientRequest true "Client details"
// @Success 201 {object} dto.ClientResponse
// @Failure 400 {object} map[string]string "Invalid input"
// @Failure 401 {object} map[string]string "Unauthorized"
// @Failure 500 {object} map[string]string "Failed to create client"
// @Security BearerAuth
// @Router /clients [post]
func (h *clientHandler) createClient(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	var req dto.CreateClientRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		logger.Warn("Failed to bind JSON for CreateClient", slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format: " + err.Error()})
		return
	}

	creatorID, ok := middleware.GetUserIDFromContext(c)
	if !ok {
		logger.Error("Creator user ID not found in context")
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	logger.Info("Received request to create client", slog.String("client_name", req.Name))

	client, err := h.clientService.CreateClient(c.Request.Context(), req, creatorID)
	if err != nil {
		if errors.Is(err, apperrors.ErrValidation) {
			logger.Warn("Validation error creating client", slog.String("error", err.Error()))
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		} else {
			logger.Error("Failed to create client in service", slog.String("error", err.Error()))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create client"})
		}
		return
	}

	logger.Info("Client created successfully", slog.String("client_id", client.ClientID))
	c.JSON(http.StatusCreated, dto.ToClientResponse(client))
}

// listClients godoc
// @Summary List clients
// @Tags clients
// @Produce  json
// @Param   limit query int false "Limit number of results" default(20)
// @Param   nextToken query string false "Cursor from the previous page"
// @Success 200 {object} dto.ListClientsResponse
// @Failure 401 {object} map[string]string "Unauthorized"
// @Failure 500 {object} map[string]string "Failed to list clients"
// @Security BearerAuth
// @Router /clients [get]
func (h *clientHandler) listClients(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())

	var params dto.ListTransactionsParams
	if err := c.ShouldBindQuery(&params); err != nil {
		logger.Warn("Failed to bind query params for ListClients", slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid query parameters: " + err.Error()})
		return
	}

	resp, err := h.clientService.ListClients(c.Request.Context(), params)
	if err != nil {
		logger.Error("Failed to list clients from service", slog.String("error", err.Error()))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to list clients"})
		return
	}

	c.JSON(http.StatusOK, resp)
}

// getClient godoc
// @Summary Get a client by ID
// @Tags clients
// @Produce  json
// @Param   clientID path string true "Client ID"
// @Success 200 {object} dto.ClientResponse
// @Failure 401 {object} map[string]string "Unauthorized"
// @Failure 404 {object} map[string]string "Client not found"
// @Failure 500 {object} map[string]string "Failed to retrieve client"
// @Security BearerAuth
// @Router /clients/{clientID} [get]
func (h *clientHandler) getClient(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	clientID := c.Param("clientID")

	client, err := h.clientService.GetClientByID(c.Request.Context(), clientID)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			logger.Warn("Client not found", slog.String("client_id", clientID))
			c.JSON(http.StatusNotFound, gin.H{"error": "Client not found"})
		} else {
			logger.Error("Failed to get client from service", slog.String("error", err.Error()))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve client"})
		}
		return
	}

	c.JSON(http.StatusOK, dto.ToClientResponse(client))
}

// deactivateClient godoc
// @Summary Deactivate a client
// @Description Marks a client inactive; new transactions are rejected but history remains readable
// @Tags clients
// @Produce  json
// @Param   clientID path string true "Client ID"
// @Success 204 "No Content"
// @Failure 401 {object} map[string]string "Unauthorized"
// @Failure 404 {object} map[string]string "Client not found"
// @Failure 500 {object} map[string]string "Failed to deactivate client"
// @Security BearerAuth
// @Router /clients/{clientID} [delete]
func (h *clientHandler) deactivateClient(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	clientID := c.Param("clientID")

	userID, ok := middleware.GetUserIDFromContext(c)
	if !ok {
		logger.Error("User ID not found in context")
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	logger = logger.With(slog.String("client_id", clientID), slog.String("deactivator_id", userID))
	logger.Info("Received request to deactivate client")

	if err := h.clientService.DeactivateClient(c.Request.Context(), clientID, userID); err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			logger.Warn("Client not found for deactivation")
			c.JSON(http.StatusNotFound, gin.H{"error": "Client not found"})
		} else {
			logger.Error("Failed to deactivate client in service", slog.String("error", err.Error()))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to deactivate client"})
		}
		return
	}

	logger.Info("Client deactivated successfully")
	c.Status(http.StatusNoContent)
}

// getBalance godoc
// @Summary Get a client's trust balance
// @Description Computes the balance from the ledger entry stream; asOf returns the balance at a past date
// @Tags clients
// @Produce  json
// @Param   clientID path string true "Client ID"
// @Param   asOf query string false "Inclusive cutoff date (RFC 3339)"
// @Success 200 {object} dto.BalanceResponse
// @Failure 400 {object} map[string]string "Invalid asOf date"
// @Failure 401 {object} map[string]string "Unauthorized"
// @Failure 404 {object} map[string]string "Client not found"
// @Failure 500 {object} map[string]string "Failed to compute balance"
// @Security BearerAuth
// @Router /clients/{clientID}/balance [get]
func (h *clientHandler) getBalance(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	clientID := c.Param("clientID")

	var asOf *time.Time
	if asOfStr := c.Query("asOf"); asOfStr != "" {
		parsed, err := time.Parse(time.RFC3339, asOfStr)
		if err != nil {
			logger.Warn("Invalid asOf date", slog.String("as_of", asOfStr))
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid asOf date, expected RFC 3339"})
			return
		}
		asOf = &parsed
	}

	balance, err := h.balanceService.BalanceAsOf(c.Request.Context(), clientID, asOf, "")
	if err != nil {
		if errors.Is(err, apperrors.ErrClientNotFound) || errors.Is(err, apperrors.ErrNotFound) {
			logger.Warn("Client not found for balance", slog.String("client_id", clientID))
			c.JSON(http.StatusNotFound, gin.H{"error": "Client not found"})
		} else {
			logger.Error("Failed to compute balance", slog.String("error", err.Error()))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to compute balance"})
		}
		return
	}

	c.JSON(http.StatusOK, dto.BalanceResponse{ClientID: clientID, Balance: balance, AsOf: asOf})
}

// listTransactions godoc
// @Summary List a client's transactions
// @Tags clients
// @Produce  json
// @Param   clientID path string true "Client ID"
// @Param   limit query int false "Limit number of results" default(20)
// @Param   nextToken query string false "Cursor from the previous page"
// @Success 200 {object} dto.ListTransactionsResponse
// @Failure 401 {object} map[string]string "Unauthorized"
// @Failure 404 {object} map[string]string "Client not found"
// @Failure 500 {object} map[string]string "Failed to list transactions"
// @Security BearerAuth
// @Router /clients/{clientID}/transactions [get]
func (h *clientHandler) listTransactions(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	clientID := c.Param("clientID")

	var params dto.ListTransactionsParams
	if err := c.ShouldBindQuery(&params); err != nil {
		logger.Warn("Failed to bind query params for ListTransactions", slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid query parameters: " + err.Error()})
		return
	}

	resp, err := h.txnService.ListTransactionsByClient(c.Request.Context(), clientID, params)
	if err != nil {
		if errors.Is(err, apperrors.ErrClientNotFound) || errors.Is(err, apperrors.ErrNotFound) {
			logger.Warn("Client not found for transaction listing", slog.String("client_id", clientID))
			c.JSON(http.StatusNotFound, gin.H{"error": "Client not found"})
		} else {
			logger.Error("Failed to list transactions from service", slog.String("error", err.Error()))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to list transactions"})
		}
		return
	}

	c.JSON(http.StatusOK, resp)
}

// reconcileClient godoc
// @Summary Reconcile a client's cached balance
// @Description Compares the cached trust balance against the sum recomputed from the ledger
// @Tags clients
// @Produce  json
// @Param   clientID path string true "Client ID"
// @Success 200 {object} dto.ReconciliationResult
// @Failure 401 {object} map[string]string "Unauthorized"
// @Failure 404 {object} map[string]string "Client not found"
// @Failure 500 {object} map[string]string "Failed to reconcile client"
// @Security BearerAuth
// @Router /clients/{clientID}/reconciliation [get]
func (h *clientHandler) reconcileClient(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	clientID := c.Param("clientID")

	result, err := h.clientService.ReconcileClient(c.Request.Context(), clientID)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			logger.Warn("Client not found for reconciliation", slog.String("client_id", clientID))
			c.JSON(http.StatusNotFound, gin.H{"error": "Client not found"})
		} else {
			logger.Error("Failed to reconcile client", slog.String("error", err.Error()))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to reconcile client"})
		}
		return
	}

	c.JSON(http.StatusOK, result)
}

// reconcileAllClients godoc
// @Summary Reconcile every client's cached balance
// @Description Sweeps the directory, recomputing each balance from the ledger and reporting divergences
// @Tags clients
// @Produce  json
// @Success 200 {object} dto.ReconciliationSweepResponse
// @Failure 401 {object} map[string]string "Unauthorized"
// @Failure 500 {object} map[string]string "Failed to run reconciliation sweep"
// @Security BearerAuth
// @Router /reconciliation [get]
func (h *clientHandler) reconcileAllClients(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())

	sweep, err := h.clientService.ReconcileAllClients(c.Request.Context())
	if err != nil {
		logger.Error("Failed to run reconciliation sweep", slog.String("error", err.Error()))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to run reconciliation sweep"})
		return
	}

	c.JSON(http.StatusOK, sweep)
}
