package handlers

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/SajmustafaKe/trustledger/internal/apperrors"
	portssvc "github.com/SajmustafaKe/trustledger/internal/core/ports/services"
	"github.com/SajmustafaKe/trustledger/internal/dto"
	"github.com/SajmustafaKe/trustledger/internal/middleware"
	"github.com/gin-gonic/gin"
)

// idempotencyKeyHeader carries the caller's retry key for posting and reversal.
const idempotencyKeyHeader = "Idempotency-Key"

// transactionHandler handles HTTP requests for the transaction lifecycle.
type transactionHandler struct {
	txnService portssvc.TransactionSvcFacade
}

func newTransactionHandler(ts portssvc.TransactionSvcFacade) *transactionHandler {
	return &transactionHandler{txnService: ts}
}

// registerTransactionRoutes registers routes for the transaction lifecycle.
func registerTransactionRoutes(rg *gin.RouterGroup, txnService portssvc.TransactionSvcFacade) {
	h := newTransactionHandler(txnService)

	txns := rg.Group("/transactions")
	{
		txns.POST("", h.createTransaction)
		txns.GET("/:transactionID", h.getTransaction)
		txns.PUT("/:transactionID", h.updateDraft)
		txns.DELETE("/:transactionID", h.deleteDraft)
		txns.POST("/:transactionID/post", h.postTransaction)
		txns.POST("/:transactionID/reverse", h.reverseTransaction)
	}
}

// createTransaction godoc
// @Summary Create a draft transaction
// @Description Creates a draft trust transaction for a client and allocates its code
// @Tags transactions
// @Accept  json
// @Produce  json
// @Param   transaction body dto.CreateTransactionRequest true "Transaction details"
// @Success 201 {object} dto.TransactionResponse
// @Failure 400 {object} map[string]string "Invalid input format or validation error"
// @Failure 401 {object} map[string]string "Unauthorized"
// @Failure 404 {object} map[string]string "Client not found"
// @Failure 422 {object} map[string]string "Client inactive"
// @Failure 500 {object} map[string]string "Failed to create transaction"
// @Security BearerAuth
// @Router /transactions [post]
func (h *transactionHandler) createTransaction(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	var req dto.CreateTransactionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		logger.Warn("Failed to bind JSON for CreateTransaction", slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format: " + err.Error()})
		return
	}

	creatorID, ok := middleware.GetUserIDFromContext(c)
	if !ok {
		logger.Error("Creator user ID not found in context")
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	logger = logger.With(slog.String("client_id", req.ClientID), slog.String("creator_id", creatorID))
	logger.Info("Received request to create transaction", slog.String("type", req.TransactionType))

	txn, err := h.txnService.CreateTransaction(c.Request.Context(), req, creatorID)
	if err != nil {
		switch {
		case errors.Is(err, apperrors.ErrInvalidAmount):
			logger.Warn("Invalid amount creating transaction", slog.String("error", err.Error()))
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		case errors.Is(err, apperrors.ErrClientNotFound):
			logger.Warn("Client not found creating transaction")
			c.JSON(http.StatusNotFound, gin.H{"error": "Client not found"})
		case errors.Is(err, apperrors.ErrClientInactive):
			logger.Warn("Client inactive creating transaction")
			c.JSON(http.StatusUnprocessableEntity, gin.H{"error": "Client is inactive"})
		case errors.Is(err, apperrors.ErrValidation):
			logger.Warn("Validation error creating transaction", slog.String("error", err.Error()))
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		default:
			logger.Error("Failed to create transaction in service", slog.String("error", err.Error()))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create transaction"})
		}
		return
	}

	logger.Info("Transaction created successfully", slog.String("transaction_id", txn.TransactionID))
	c.JSON(http.StatusCreated, dto.ToTransactionResponse(txn))
}

// getTransaction godoc
// @Summary Get a transaction by its code
// @Tags transactions
// @Produce  json
// @Param   transactionID path string true "Transaction code"
// @Success 200 {object} dto.TransactionResponse
// @Failure 401 {object} map[string]string "Unauthorized"
// @Failure 404 {object} map[string]string "Transaction not found"
// @Failure 500 {object} map[string]string "Failed to retrieve transaction"
// @Security BearerAuth
// @Router /transactions/{transactionID} [get]
func (h *transactionHandler) getTransaction(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	transactionID := c.Param("transactionID")

	txn, err := h.txnService.GetTransactionByID(c.Request.Context(), transactionID)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			logger.Warn("Transaction not found", slog.String("transaction_id", transactionID))
			c.JSON(http.StatusNotFound, gin.H{"error": "Transaction not found"})
		} else {
			logger.Error("Failed to get transaction from service", slog.String("error", err.Error()))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve transaction"})
		}
		return
	}

	c.JSON(http.StatusOK, dto.ToTransactionResponse(txn))
}

// updateDraft godoc
// @Summary Update a draft transaction
// @Description Updates the mutable fields of a draft; posted transactions are immutable
// @Tags transactions
// @Accept  json
// @Produce  json
// @Param   transactionID path string true "Transaction code"
// @Param   transaction body dto.UpdateDraftRequest true "Fields to update"
// @Success 200 {object} dto.TransactionResponse
// @Failure 400 {object} map[string]string "Invalid input"
// @Failure 401 {object} map[string]string "Unauthorized"
// @Failure 404 {object} map[string]string "Transaction not found"
// @Failure 409 {object} map[string]string "Transaction is not a draft"
// @Failure 500 {object} map[string]string "Failed to update transaction"
// @Security BearerAuth
// @Router /transactions/{transactionID} [put]
func (h *transactionHandler) updateDraft(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	transactionID := c.Param("transactionID")

	var req dto.UpdateDraftRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		logger.Warn("Failed to bind JSON for UpdateDraft", slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format: " + err.Error()})
		return
	}

	userID, ok := middleware.GetUserIDFromContext(c)
	if !ok {
		logger.Error("User ID not found in context")
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	logger = logger.With(slog.String("transaction_id", transactionID), slog.String("updater_id", userID))
	logger.Info("Received request to update draft")

	txn, err := h.txnService.UpdateDraft(c.Request.Context(), transactionID, req, userID)
	if err != nil {
		switch {
		case errors.Is(err, apperrors.ErrNotFound):
			logger.Warn("Transaction not found for update")
			c.JSON(http.StatusNotFound, gin.H{"error": "Transaction not found"})
		case errors.Is(err, apperrors.ErrNotDraft):
			logger.Warn("Transaction is not a draft")
			c.JSON(http.StatusConflict, gin.H{"error": "Only draft transactions can be updated"})
		case errors.Is(err, apperrors.ErrInvalidAmount), errors.Is(err, apperrors.ErrValidation):
			logger.Warn("Validation error updating draft", slog.String("error", err.Error()))
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		default:
			logger.Error("Failed to update draft in service", slog.String("error", err.Error()))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update transaction"})
		}
		return
	}

	logger.Info("Draft updated successfully")
	c.JSON(http.StatusOK, dto.ToTransactionResponse(txn))
}

// deleteDraft godoc
// @Summary Delete a draft transaction
// @Description Deletes a draft; posted transactions can only be reversed, never deleted
// @Tags transactions
// @Produce  json
// @Param   transactionID path string true "Transaction code"
// @Success 204 "No Content"
// @Failure 401 {object} map[string]string "Unauthorized"
// @Failure 404 {object} map[string]string "Transaction not found"
// @Failure 409 {object} map[string]string "Transaction is not a draft"
// @Failure 500 {object} map[string]string "Failed to delete transaction"
// @Security BearerAuth
// @Router /transactions/{transactionID} [delete]
func (h *transactionHandler) deleteDraft(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	transactionID := c.Param("transactionID")

	userID, ok := middleware.GetUserIDFromContext(c)
	if !ok {
		logger.Error("User ID not found in context")
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	logger = logger.With(slog.String("transaction_id", transactionID), slog.String("deleter_id", userID))
	logger.Info("Received request to delete draft")

	if err := h.txnService.DeleteDraft(c.Request.Context(), transactionID, userID); err != nil {
		switch {
		case errors.Is(err, apperrors.ErrNotFound):
			logger.Warn("Transaction not found for deletion")
			c.JSON(http.StatusNotFound, gin.H{"error": "Transaction not found"})
		case errors.Is(err, apperrors.ErrNotDraft):
			logger.Warn("Transaction is not a draft")
			c.JSON(http.StatusConflict, gin.H{"error": "Only draft transactions can be deleted"})
		default:
			logger.Error("Failed to delete draft in service", slog.String("error", err.Error()))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete transaction"})
		}
		return
	}

	logger.Info("Draft deleted successfully")
	c.Status(http.StatusNoContent)
}

// postTransaction godoc
// @Summary Post a draft transaction
// @Description Validates and posts a draft, appending its ledger entry atomically. Retries with the same Idempotency-Key return the recorded result.
// @Tags transactions
// @Produce  json
// @Param   transactionID path string true "Transaction code"
// @Param   Idempotency-Key header string false "Retry key for safe resubmission"
// @Success 200 {object} dto.PostTransactionResponse
// @Failure 401 {object} map[string]string "Unauthorized"
// @Failure 404 {object} map[string]string "Transaction not found"
// @Failure 409 {object} map[string]string "Already posted, reversed, or lost a concurrent commit"
// @Failure 422 {object} map[string]string "Validation failed (insufficient balance, inactive client)"
// @Failure 503 {object} map[string]string "Client lock wait timed out"
// @Failure 500 {object} map[string]string "Failed to post transaction"
// @Security BearerAuth
// @Router /transactions/{transactionID}/post [post]
func (h *transactionHandler) postTransaction(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	transactionID := c.Param("transactionID")
	idempotencyKey := c.GetHeader(idempotencyKeyHeader)

	approverID, ok := middleware.GetUserIDFromContext(c)
	if !ok {
		logger.Error("Approver ID not found in context")
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	logger = logger.With(slog.String("transaction_id", transactionID), slog.String("approver_id", approverID))
	logger.Info("Received request to post transaction")

	result, err := h.txnService.PostTransaction(c.Request.Context(), transactionID, approverID, idempotencyKey)
	if err != nil {
		h.respondPostingError(c, logger, err, "post")
		return
	}

	logger.Info("Transaction posted successfully",
		slog.String("ledger_entry_id", result.LedgerEntryID),
		slog.String("balance_after", result.BalanceAfter.String()))
	c.JSON(http.StatusOK, result)
}

// reverseTransaction godoc
// @Summary Reverse a posted transaction
// @Description Appends a compensating ledger entry and marks the transaction reversed. Retries with the same Idempotency-Key return the recorded result.
// @Tags transactions
// @Accept  json
// @Produce  json
// @Param   transactionID path string true "Transaction code"
// @Param   reversal body dto.ReverseTransactionRequest true "Reversal reason"
// @Param   Idempotency-Key header string false "Retry key for safe resubmission"
// @Success 200 {object} dto.ReverseTransactionResponse
// @Failure 400 {object} map[string]string "Invalid input"
// @Failure 401 {object} map[string]string "Unauthorized"
// @Failure 404 {object} map[string]string "Transaction not found"
// @Failure 409 {object} map[string]string "Not posted or already reversed"
// @Failure 422 {object} map[string]string "Reversal would overdraw the client"
// @Failure 503 {object} map[string]string "Client lock wait timed out"
// @Failure 500 {object} map[string]string "Failed to reverse transaction"
// @Security BearerAuth
// @Router /transactions/{transactionID}/reverse [post]
func (h *transactionHandler) reverseTransaction(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	transactionID := c.Param("transactionID")
	idempotencyKey := c.GetHeader(idempotencyKeyHeader)

	var req dto.ReverseTransactionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		logger.Warn("Failed to bind JSON for ReverseTransaction", slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format: " + err.Error()})
		return
	}

	approverID, ok := middleware.GetUserIDFromContext(c)
	if !ok {
		logger.Error("Approver ID not found in context")
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	logger = logger.With(slog.String("transaction_id", transactionID), slog.String("approver_id", approverID))
	logger.Info("Received request to reverse transaction")

	result, err := h.txnService.ReverseTransaction(c.Request.Context(), transactionID, req.Reason, approverID, idempotencyKey)
	if err != nil {
		h.respondPostingError(c, logger, err, "reverse")
		return
	}

	logger.Info("Transaction reversed successfully",
		slog.String("reversal_entry_id", result.ReversalEntryID),
		slog.String("new_balance", result.NewBalance.String()))
	c.JSON(http.StatusOK, result)
}

// respondPostingError maps lifecycle errors shared by post and reverse to HTTP
// responses. An InsufficientBalanceError carries the available balance through
// to the caller.
func (h *transactionHandler) respondPostingError(c *gin.Context, logger *slog.Logger, err error, action string) {
	var insufficientErr *apperrors.InsufficientBalanceError
	switch {
	case errors.Is(err, apperrors.ErrNotFound):
		logger.Warn("Transaction not found for " + action)
		c.JSON(http.StatusNotFound, gin.H{"error": "Transaction not found"})
	case errors.As(err, &insufficientErr):
		logger.Warn("Insufficient balance",
			slog.String("available", insufficientErr.Available.String()),
			slog.String("requested", insufficientErr.Requested.String()))
		c.JSON(http.StatusUnprocessableEntity, gin.H{
			"error":     err.Error(),
			"available": insufficientErr.Available,
			"requested": insufficientErr.Requested,
		})
	case errors.Is(err, apperrors.ErrAlreadyPosted):
		logger.Warn("Transaction already posted")
		c.JSON(http.StatusConflict, gin.H{"error": "Transaction is already posted"})
	case errors.Is(err, apperrors.ErrAlreadyReversed):
		logger.Warn("Transaction already reversed")
		c.JSON(http.StatusConflict, gin.H{"error": "Transaction is already reversed"})
	case errors.Is(err, apperrors.ErrNotPosted):
		logger.Warn("Transaction not posted")
		c.JSON(http.StatusConflict, gin.H{"error": "Only posted transactions can be reversed"})
	case errors.Is(err, apperrors.ErrReversalWouldOverdraw):
		logger.Warn("Reversal would overdraw client")
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": "Reversal would overdraw the client balance"})
	case errors.Is(err, apperrors.ErrClientInactive):
		logger.Warn("Client inactive")
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": "Client is inactive"})
	case errors.Is(err, apperrors.ErrClientNotFound):
		logger.Warn("Client not found")
		c.JSON(http.StatusNotFound, gin.H{"error": "Client not found"})
	case errors.Is(err, apperrors.ErrInvalidAmount):
		logger.Warn("Invalid amount", slog.String("error", err.Error()))
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
	case errors.Is(err, apperrors.ErrStaleBalance):
		logger.Warn("Balance changed during " + action)
		c.JSON(http.StatusConflict, gin.H{"error": "Client balance changed, retry the request"})
	case errors.Is(err, apperrors.ErrLockTimeout):
		logger.Warn("Client lock wait timed out")
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Client is busy, retry the request"})
	case errors.Is(err, apperrors.ErrLedgerWriteFailure):
		logger.Error("Ledger write failed", slog.String("error", err.Error()))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Ledger write failed, transaction state unchanged"})
	default:
		logger.Error("Failed to "+action+" transaction in service", slog.String("error", err.Error()))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to " + action + " transaction"})
	}
}
