package api

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5/middleware"

	"github.com/lavishdadwani/Stock-Management/internal/metrics"
	"github.com/lavishdadwani/Stock-Management/internal/model"
	"github.com/lavishdadwani/Stock-Management/internal/store"
)

// writeError maps a workflow error onto the response envelope. Validation
// failures use 400.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	handleError(w, r, err, http.StatusBadRequest)
}

// writeAccountError is writeError for account endpoints, where validation
// failures use 422.
func writeAccountError(w http.ResponseWriter, r *http.Request, err error) {
	handleError(w, r, err, http.StatusUnprocessableEntity)
}

func handleError(w http.ResponseWriter, r *http.Request, err error, validationStatus int) {
	var verr *model.ValidationError
	var serr *store.InsufficientStockError

	switch {
	case errors.As(err, &verr):
		jsonError(w, validationStatus, verr.First(), verr.First(), verr.Fields)
	case errors.As(err, &serr):
		insufficientStock(w, serr, "itemName", serr.ItemName)
	case errors.Is(err, store.ErrForbidden):
		jsonError(w, http.StatusForbidden, "access denied", "You do not have permission to do this.", nil)
	case errors.Is(err, store.ErrRecipientNotFound):
		jsonError(w, http.StatusNotFound, "recipient not found", "The selected recipient does not exist.", nil)
	case errors.Is(err, store.ErrStockEntryNotFound):
		jsonError(w, http.StatusNotFound, "linked stock entry not found", "The stock entry for this transfer is missing.", nil)
	case errors.Is(err, store.ErrNotFound):
		jsonError(w, http.StatusNotFound, "not found", "The requested record does not exist.", nil)
	case errors.Is(err, store.ErrEmailTaken):
		jsonError(w, http.StatusConflict, "user with this email already exists", "This email is already registered.", nil)
	case errors.Is(err, store.ErrLinkedToTransfer):
		jsonError(w, http.StatusConflict, "stock entry belongs to a transfer", "Edit the transfer instead of its stock entry.", nil)
	case errors.Is(err, store.ErrAlreadyCheckedIn):
		jsonError(w, http.StatusBadRequest, "already checked in", "You are already checked in. Please check out first.", nil)
	case errors.Is(err, store.ErrNoActiveCheckIn):
		jsonError(w, http.StatusBadRequest, "no active check-in", "You are not checked in.", nil)
	case errors.Is(err, store.ErrInvalidRecipient):
		jsonError(w, http.StatusBadRequest, "recipient must be a core team member", "Stock can only be transferred to core team members.", nil)
	case errors.Is(err, store.ErrInvalidToken):
		jsonError(w, http.StatusBadRequest, "invalid or expired token", "This link is invalid or has expired.", nil)
	default:
		slog.Error("request failed", "method", r.Method, "path", r.URL.Path,
			"request_id", middleware.GetReqID(r.Context()), "error", err)
		jsonError(w, http.StatusInternalServerError, "internal error", "Something went wrong. Please try again.", err.Error())
	}
}

// insufficientStock reports a rejected deduction. key and value name the item
// in the payload: itemName for transfers, wireType for checkouts.
func insufficientStock(w http.ResponseWriter, e *store.InsufficientStockError, key, value string) {
	metrics.InsufficientStock.WithLabelValues(e.ItemName).Inc()
	jsonError(w, http.StatusBadRequest,
		"insufficient stock",
		fmt.Sprintf("Insufficient %s stock. Available: %s kg, required: %s kg.", e.ItemName, e.Available.StringFixed(2), e.Required.StringFixed(2)),
		map[string]any{
			"required":  e.Required,
			"available": e.Available,
			key:         value,
		},
	)
}
