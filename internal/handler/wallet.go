package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"rideshare/internal/domain"
	"rideshare/internal/service"
)

// WalletHandler handles HTTP requests for wallets and their ledgers.
type WalletHandler struct {
	walletService *service.WalletService
}

// NewWalletHandler creates a new WalletHandler.
func NewWalletHandler(walletService *service.WalletService) *WalletHandler {
	return &WalletHandler{walletService: walletService}
}

// TopUpRequest is the HTTP request body for topping up a wallet.
type TopUpRequest struct {
	Amount float64 `json:"amount"`
}

// EntryInfo contains ledger entry details in a response.
type EntryInfo struct {
	ID        string  `json:"id"`
	OwnerID   string  `json:"owner_id"`
	TripID    string  `json:"trip_id,omitempty"`
	RefundOf  string  `json:"refund_of,omitempty"`
	Amount    float64 `json:"amount"`
	Kind      string  `json:"kind"`
	Status    string  `json:"status"`
	CreatedAt string  `json:"created_at"`
}

// BalanceResponse is the HTTP response for a wallet balance.
type BalanceResponse struct {
	OwnerID string  `json:"owner_id"`
	Balance float64 `json:"balance"`
}

// toEntryInfo converts a domain ledger entry into its HTTP representation.
func toEntryInfo(e *domain.LedgerEntry) EntryInfo {
	return EntryInfo{
		ID:        e.ID,
		OwnerID:   e.OwnerID,
		TripID:    e.TripID,
		RefundOf:  e.RefundOf,
		Amount:    e.Amount.Float64(),
		Kind:      string(e.Kind),
		Status:    string(e.Status),
		CreatedAt: e.CreatedAt.Format("2006-01-02T15:04:05Z07:00"),
	}
}

// GetBalance handles GET /v1/wallets/:owner_id
func (h *WalletHandler) GetBalance(c *gin.Context) {
	ownerID := c.Param("owner_id")

	balance, err := h.walletService.Balance(c.Request.Context(), ownerID)
	if err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusOK, BalanceResponse{
		OwnerID: ownerID,
		Balance: balance.Float64(),
	})
}

// GetHistory handles GET /v1/wallets/:owner_id/entries
func (h *WalletHandler) GetHistory(c *gin.Context) {
	entries, err := h.walletService.History(c.Request.Context(), c.Param("owner_id"))
	if err != nil {
		respondError(c, err)
		return
	}

	response := make([]EntryInfo, 0, len(entries))
	for _, entry := range entries {
		response = append(response, toEntryInfo(entry))
	}

	respondJSON(c, http.StatusOK, response)
}

// TopUp handles POST /v1/wallets/:owner_id/topup
func (h *WalletHandler) TopUp(c *gin.Context) {
	var req TopUpRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request body"})
		return
	}

	entry, err := h.walletService.TopUp(c.Request.Context(), service.TopUpRequest{
		OwnerID: c.Param("owner_id"),
		Amount:  domain.MoneyFromFloat(req.Amount),
	})
	if err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusCreated, toEntryInfo(entry))
}

// GetEntry handles GET /v1/wallets/entries/:id
func (h *WalletHandler) GetEntry(c *gin.Context) {
	entry, err := h.walletService.Entry(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusOK, toEntryInfo(entry))
}

// Refund handles POST /v1/wallets/entries/:id/refund
func (h *WalletHandler) Refund(c *gin.Context) {
	refund, err := h.walletService.Refund(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusCreated, toEntryInfo(refund))
}
