package api

import (
	"database/sql"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/lavishdadwani/Stock-Management/internal/model"
	"github.com/lavishdadwani/Stock-Management/internal/report"
	"github.com/lavishdadwani/Stock-Management/internal/store"
)

// StockHandler handles manual ledger endpoints.
type StockHandler struct {
	DB *sql.DB
}

// Create handles POST /api/stock/create.
func (h *StockHandler) Create(w http.ResponseWriter, r *http.Request) {
	user := CurrentUser(r.Context())

	var in model.StockInput
	if err := decodeJSON(r, &in); err != nil {
		badBody(w)
		return
	}
	if err := in.Validate(); err != nil {
		writeError(w, r, err)
		return
	}
	if err := in.Normalize(); err != nil {
		writeError(w, r, err)
		return
	}

	entry, err := store.CreateStockEntry(r.Context(), h.DB, user.ID, in)
	if err != nil {
		writeError(w, r, err)
		return
	}

	slog.Info("stock entry created", "user_id", user.ID, "entry_id", entry.ID,
		"item", entry.ItemName, "quantity", entry.Quantity)
	success(w, http.StatusCreated, "Stock entry created successfully", entry, "Stock added")
}

// List handles GET /api/stock/get-all.
func (h *StockHandler) List(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	f := model.StockFilter{
		StockType: q.Get("stockType"),
		ItemName:  q.Get("itemName"),
		Search:    strings.TrimSpace(q.Get("search")),
		Page:      pageParams(r, defaultPageLimit),
	}
	if f.ItemName != "" && !model.ValidItem(f.ItemName) {
		writeError(w, r, &model.ValidationError{Fields: map[string]string{"itemName": "item name must be one of: Aluminium, Copper, Scrap"}})
		return
	}

	entries, total, err := store.ListStockEntries(r.Context(), h.DB, f)
	if err != nil {
		writeError(w, r, err)
		return
	}
	successPage(w, "Stock entries retrieved successfully", entries, f.Page.Info(total))
}

// Get handles GET /api/stock/{id}.
func (h *StockHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		jsonError(w, http.StatusBadRequest, "invalid stock id", "Invalid stock id.", nil)
		return
	}

	entry, err := store.GetStockEntry(r.Context(), h.DB, id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if entry == nil {
		writeError(w, r, store.ErrNotFound)
		return
	}
	success(w, http.StatusOK, "Stock entry retrieved successfully", entry, "")
}

// Quantities handles GET /api/stock/get-all-quantities.
func (h *StockHandler) Quantities(w http.ResponseWriter, r *http.Request) {
	sums, err := store.Balances(r.Context(), h.DB)
	if err != nil {
		writeError(w, r, err)
		return
	}
	success(w, http.StatusOK, "Stock quantities retrieved successfully", model.NewStockQuantities(sums), "")
}

// Update handles PUT /api/stock/update/{id}.
func (h *StockHandler) Update(w http.ResponseWriter, r *http.Request) {
	user := CurrentUser(r.Context())
	id, ok := pathID(r)
	if !ok {
		jsonError(w, http.StatusBadRequest, "invalid stock id", "Invalid stock id.", nil)
		return
	}

	var p model.StockPatch
	if err := decodeJSON(r, &p); err != nil {
		badBody(w)
		return
	}

	entry, err := store.UpdateStockEntry(r.Context(), h.DB, user.ID, id, p)
	if err != nil {
		writeError(w, r, err)
		return
	}

	slog.Info("stock entry updated", "user_id", user.ID, "entry_id", id,
		"item", entry.ItemName, "quantity", entry.Quantity)
	success(w, http.StatusOK, "Stock entry updated successfully", entry, "Stock updated")
}

// Delete handles DELETE /api/stock/delete/{id}.
func (h *StockHandler) Delete(w http.ResponseWriter, r *http.Request) {
	user := CurrentUser(r.Context())
	id, ok := pathID(r)
	if !ok {
		jsonError(w, http.StatusBadRequest, "invalid stock id", "Invalid stock id.", nil)
		return
	}

	if err := store.DeleteStockEntry(r.Context(), h.DB, user.ID, id); err != nil {
		writeError(w, r, err)
		return
	}

	slog.Info("stock entry deleted", "user_id", user.ID, "entry_id", id)
	success(w, http.StatusOK, "Stock entry deleted successfully", nil, "Stock deleted")
}

// Events handles GET /api/stock/events.
func (h *StockHandler) Events(w http.ResponseWriter, r *http.Request) {
	entryID, err := optionalID(r, "entryId")
	if err != nil {
		writeError(w, r, err)
		return
	}
	page := pageParams(r, defaultPageLimit)

	events, total, err := store.ListLedgerEvents(r.Context(), h.DB, entryID, page)
	if err != nil {
		writeError(w, r, err)
		return
	}
	successPage(w, "Ledger events retrieved successfully", events, page.Info(total))
}

// Export handles GET /api/stock/export and returns the ledger as XLSX.
func (h *StockHandler) Export(w http.ResponseWriter, r *http.Request) {
	entries, err := store.AllStockEntries(r.Context(), h.DB)
	if err != nil {
		writeError(w, r, err)
		return
	}
	sums, err := store.Balances(r.Context(), h.DB)
	if err != nil {
		writeError(w, r, err)
		return
	}

	now := time.Now()
	data, err := report.StockWorkbook(entries, model.NewStockQuantities(sums), now)
	if err != nil {
		writeError(w, r, err)
		return
	}

	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="stock-ledger-%s.xlsx"`, now.Format("20060102")))
	w.Write(data)
}
