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

// statementHandler serves statements and the ledger entry feed.
type statementHandler struct {
	statementService portssvc.StatementSvcFacade
}

func newStatementHandler(ss portssvc.StatementSvcFacade) *statementHandler {
	return &statementHandler{statementService: ss}
}

// registerStatementRoutes registers the client-scoped statement routes.
func registerStatementRoutes(rg *gin.RouterGroup, statementService portssvc.StatementSvcFacade) {
	h := newStatementHandler(statementService)

	clients := rg.Group("/clients")
	{
		clients.GET("/:clientID/statement", h.getStatement)
		clients.GET("/:clientID/ledger", h.listLedgerEntries)
	}
}

// getStatement godoc
// @Summary Generate a client statement
// @Description Returns the ledger entries in a date range with running balances folded from the opening balance
// @Tags statements
// @Produce  json
// @Param   clientID path string true "Client ID"
// @Param   from query string true "Range start (RFC 3339), inclusive"
// @Param   to query string true "Range end (RFC 3339), inclusive"
// @Success 200 {object} dto.StatementResponse
// @Failure 400 {object} map[string]string "Missing or inverted date range"
// @Failure 401 {object} map[string]string "Unauthorized"
// @Failure 404 {object} map[string]string "Client not found"
// @Failure 500 {object} map[string]string "Failed to generate statement"
// @Security BearerAuth
// @Router /clients/{clientID}/statement [get]
func (h *statementHandler) getStatement(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	clientID := c.Param("clientID")

	from, err := time.Parse(time.RFC3339, c.Query("from"))
	if err != nil {
		logger.Warn("Invalid from date for statement", slog.String("from", c.Query("from")))
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid or missing from date, expected RFC 3339"})
		return
	}
	to, err := time.Parse(time.RFC3339, c.Query("to"))
	if err != nil {
		logger.Warn("Invalid to date for statement", slog.String("to", c.Query("to")))
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid or missing to date, expected RFC 3339"})
		return
	}

	logger = logger.With(slog.String("client_id", clientID))
	logger.Info("Received request to generate statement",
		slog.Time("from", from), slog.Time("to", to))

	statement, err := h.statementService.GetStatement(c.Request.Context(), clientID, from, to)
	if err != nil {
		switch {
		case errors.Is(err, apperrors.ErrValidation):
			logger.Warn("Invalid statement range", slog.String("error", err.Error()))
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		case errors.Is(err, apperrors.ErrClientNotFound), errors.Is(err, apperrors.ErrNotFound):
			logger.Warn("Client not found for statement")
			c.JSON(http.StatusNotFound, gin.H{"error": "Client not found"})
		default:
			logger.Error("Failed to generate statement", slog.String("error", err.Error()))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to generate statement"})
		}
		return
	}

	c.JSON(http.StatusOK, dto.ToStatementResponse(statement))
}

// listLedgerEntries godoc
// @Summary List a client's ledger entries
// @Description Paginated append-only ledger feed, newest first
// @Tags statements
// @Produce  json
// @Param   clientID path string true "Client ID"
// @Param   limit query int false "Limit number of results" default(20)
// @Param   nextToken query string false "Cursor from the previous page"
// @Success 200 {object} dto.ListLedgerEntriesResponse
// @Failure 401 {object} map[string]string "Unauthorized"
// @Failure 404 {object} map[string]string "Client not found"
// @Failure 500 {object} map[string]string "Failed to list ledger entries"
// @Security BearerAuth
// @Router /clients/{clientID}/ledger [get]
func (h *statementHandler) listLedgerEntries(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	clientID := c.Param("clientID")

	var params dto.ListTransactionsParams
	if err := c.ShouldBindQuery(&params); err != nil {
		logger.Warn("Failed to bind query params for ListLedgerEntries", slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid query parameters: " + err.Error()})
		return
	}

	resp, err := h.statementService.ListLedgerEntries(c.Request.Context(), clientID, params)
	if err != nil {
		if errors.Is(err, apperrors.ErrClientNotFound) || errors.Is(err, apperrors.ErrNotFound) {
			logger.Warn("Client not found for ledger feed", slog.String("client_id", clientID))
			c.JSON(http.StatusNotFound, gin.H{"error": "Client not found"})
		} else {
			logger.Error("Failed to list ledger entries", slog.String("error", err.Error()))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to list ledger entries"})
		}
		return
	}

	c.JSON(http.StatusOK, resp)
}
