package api

import (
	"database/sql"
	"log/slog"
	"net/http"

	"github.com/lavishdadwani/Stock-Management/internal/metrics"
	"github.com/lavishdadwani/Stock-Management/internal/model"
	"github.com/lavishdadwani/Stock-Management/internal/store"
)

// TransfersHandler handles stock transfer endpoints.
type TransfersHandler struct {
	DB *sql.DB
}

// Create handles POST /api/stock-transfer/transfer.
func (h *TransfersHandler) Create(w http.ResponseWriter, r *http.Request) {
	user := CurrentUser(r.Context())

	var in model.TransferInput
	if err := decodeJSON(r, &in); err != nil {
		badBody(w)
		return
	}
	if err := in.Validate(); err != nil {
		writeError(w, r, err)
		return
	}
	in.Normalize()

	transfer, err := store.CreateTransfer(r.Context(), h.DB, user.ID, in)
	if err != nil {
		writeError(w, r, err)
		return
	}

	metrics.Transfers.WithLabelValues("create").Inc()
	slog.Info("transfer created", "user_id", user.ID, "transfer_id", transfer.ID,
		"item", transfer.ItemName, "quantity", transfer.Quantity, "to", transfer.ToUserName)
	success(w, http.StatusCreated, "Stock transferred successfully", transfer, "Stock transferred")
}

func (h *TransfersHandler) list(w http.ResponseWriter, r *http.Request, f model.TransferFilter) {
	f.ItemName = r.URL.Query().Get("itemName")
	if f.ItemName != "" && !model.ValidItem(f.ItemName) {
		writeError(w, r, &model.ValidationError{Fields: map[string]string{"itemName": "item name must be one of: Aluminium, Copper, Scrap"}})
		return
	}

	start, end, err := dateRange(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	f.StartDate, f.EndDate = start, end
	f.Page = pageParams(r, defaultPageLimit)

	transfers, total, err := store.ListTransfers(r.Context(), h.DB, f)
	if err != nil {
		writeError(w, r, err)
		return
	}
	successPage(w, "Transfers retrieved successfully", transfers, f.Page.Info(total))
}

// List handles GET /api/stock-transfer/get-all.
func (h *TransfersHandler) List(w http.ResponseWriter, r *http.Request) {
	from, err := optionalID(r, "fromUserId")
	if err != nil {
		writeError(w, r, err)
		return
	}
	to, err := optionalID(r, "toUserId")
	if err != nil {
		writeError(w, r, err)
		return
	}
	h.list(w, r, model.TransferFilter{FromUserID: from, ToUserID: to})
}

// Mine handles GET /api/stock-transfer/my-transfers.
func (h *TransfersHandler) Mine(w http.ResponseWriter, r *http.Request) {
	user := CurrentUser(r.Context())
	h.list(w, r, model.TransferFilter{ToUserID: &user.ID})
}

// Get handles GET /api/stock-transfer/{id}. Core team members only see
// transfers addressed to them.
func (h *TransfersHandler) Get(w http.ResponseWriter, r *http.Request) {
	user := CurrentUser(r.Context())
	id, ok := pathID(r)
	if !ok {
		jsonError(w, http.StatusBadRequest, "invalid transfer id", "Invalid transfer id.", nil)
		return
	}

	transfer, err := store.GetTransfer(r.Context(), h.DB, id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if transfer == nil {
		writeError(w, r, store.ErrNotFound)
		return
	}
	if !model.CanManageStock(user.Role) && transfer.ToUserID != user.ID {
		writeError(w, r, store.ErrForbidden)
		return
	}
	success(w, http.StatusOK, "Transfer retrieved successfully", transfer, "")
}

// Quantities handles GET /api/stock-transfer/get-quantities.
func (h *TransfersHandler) Quantities(w http.ResponseWriter, r *http.Request) {
	user := CurrentUser(r.Context())
	to, err := optionalID(r, "toUserId")
	if err != nil {
		writeError(w, r, err)
		return
	}

	q, err := store.TransferQuantities(r.Context(), h.DB, user.ID, user.Role, to)
	if err != nil {
		writeError(w, r, err)
		return
	}
	success(w, http.StatusOK, "Transfer quantities retrieved successfully", q, "")
}

// Update handles PUT /api/stock-transfer/update/{id}.
func (h *TransfersHandler) Update(w http.ResponseWriter, r *http.Request) {
	user := CurrentUser(r.Context())
	id, ok := pathID(r)
	if !ok {
		jsonError(w, http.StatusBadRequest, "invalid transfer id", "Invalid transfer id.", nil)
		return
	}

	var p model.TransferPatch
	if err := decodeJSON(r, &p); err != nil {
		badBody(w)
		return
	}

	transfer, err := store.UpdateTransfer(r.Context(), h.DB, user.ID, id, p)
	if err != nil {
		writeError(w, r, err)
		return
	}

	metrics.Transfers.WithLabelValues("update").Inc()
	slog.Info("transfer updated", "user_id", user.ID, "transfer_id", id,
		"item", transfer.ItemName, "quantity", transfer.Quantity)
	success(w, http.StatusOK, "Transfer updated successfully", transfer, "Transfer updated")
}

// Delete handles DELETE /api/stock-transfer/delete/{id}.
func (h *TransfersHandler) Delete(w http.ResponseWriter, r *http.Request) {
	user := CurrentUser(r.Context())
	id, ok := pathID(r)
	if !ok {
		jsonError(w, http.StatusBadRequest, "invalid transfer id", "Invalid transfer id.", nil)
		return
	}

	if err := store.DeleteTransfer(r.Context(), h.DB, user.ID, id); err != nil {
		writeError(w, r, err)
		return
	}

	metrics.Transfers.WithLabelValues("delete").Inc()
	slog.Info("transfer deleted", "user_id", user.ID, "transfer_id", id)
	success(w, http.StatusOK, "Transfer deleted successfully", nil, "Transfer deleted")
}
