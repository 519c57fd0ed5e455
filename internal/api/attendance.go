package api

import (
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/lavishdadwani/Stock-Management/internal/metrics"
	"github.com/lavishdadwani/Stock-Management/internal/model"
	"github.com/lavishdadwani/Stock-Management/internal/report"
	"github.com/lavishdadwani/Stock-Management/internal/store"
)

// AttendanceHandler handles check-in, check-out and production endpoints.
type AttendanceHandler struct {
	DB *sql.DB
}

type checkInStatus struct {
	IsCheckedIn bool              `json:"isCheckedIn"`
	Attendance  *model.Attendance `json:"attendance"`
}

// CheckIn handles POST /api/attendance/check-in.
func (h *AttendanceHandler) CheckIn(w http.ResponseWriter, r *http.Request) {
	user := CurrentUser(r.Context())

	a, err := store.CheckIn(r.Context(), h.DB, user.ID)
	if err != nil {
		writeError(w, r, err)
		return
	}

	slog.Info("checked in", "user_id", user.ID, "attendance_id", a.ID)
	success(w, http.StatusCreated, "Checked in successfully", a, "Checked in")
}

// CheckOut handles POST /api/attendance/check-out.
func (h *AttendanceHandler) CheckOut(w http.ResponseWriter, r *http.Request) {
	user := CurrentUser(r.Context())

	var req model.CheckoutRequest
	if err := decodeJSON(r, &req); err != nil {
		badBody(w)
		return
	}
	req.Normalize()
	if err := req.Validate(); err != nil {
		writeError(w, r, err)
		return
	}

	result, err := store.CheckOut(r.Context(), h.DB, user.ID, req)
	var serr *store.InsufficientStockError
	if errors.As(err, &serr) {
		insufficientStock(w, serr, "wireType", model.WireItem(req.WireUsedType))
		return
	}
	if err != nil {
		writeError(w, r, err)
		return
	}

	metrics.Checkouts.WithLabelValues(req.WireUsedType).Inc()
	slog.Info("checked out", "user_id", user.ID, "attendance_id", result.Attendance.ID,
		"wire", req.WireUsedType, "wire_used", result.WireUsed.Quantity,
		"item", result.ItemProduced.ItemName, "scrap", result.ScrapAdded)
	success(w, http.StatusOK, "Checked out successfully", result, "Checked out")
}

// Status handles GET /api/attendance/check-in-status.
func (h *AttendanceHandler) Status(w http.ResponseWriter, r *http.Request) {
	user := CurrentUser(r.Context())

	a, err := store.GetCheckInStatus(r.Context(), h.DB, user.ID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	success(w, http.StatusOK, "Check-in status retrieved successfully", checkInStatus{IsCheckedIn: a != nil, Attendance: a}, "")
}

// History handles GET /api/attendance/my-history.
func (h *AttendanceHandler) History(w http.ResponseWriter, r *http.Request) {
	user := CurrentUser(r.Context())

	start, end, err := dateRange(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	f := model.HistoryFilter{StartDate: start, EndDate: end, Page: pageParams(r, defaultAttendanceLimit)}

	history, total, err := store.AttendanceHistory(r.Context(), h.DB, user.ID, f)
	if err != nil {
		writeError(w, r, err)
		return
	}
	successPage(w, "Attendance history retrieved successfully", history, f.Page.Info(total))
}

// ProducibleItems handles GET /api/attendance/producible-items.
func (h *AttendanceHandler) ProducibleItems(w http.ResponseWriter, r *http.Request) {
	items, err := store.ProducibleItems(r.Context(), h.DB)
	if err != nil {
		writeError(w, r, err)
		return
	}
	success(w, http.StatusOK, "Producible items retrieved successfully", items, "")
}

// ProductionReport handles GET /api/attendance/production-report and returns a PDF.
func (h *AttendanceHandler) ProductionReport(w http.ResponseWriter, r *http.Request) {
	userID, err := optionalID(r, "userId")
	if err != nil {
		writeError(w, r, err)
		return
	}
	start, end, err := dateRange(r)
	if err != nil {
		writeError(w, r, err)
		return
	}

	items, err := store.ProductionLog(r.Context(), h.DB, model.ProductionFilter{UserID: userID, StartDate: start, EndDate: end})
	if err != nil {
		writeError(w, r, err)
		return
	}

	now := time.Now()
	data, err := report.ProductionPDF(items, start, end, now)
	if err != nil {
		writeError(w, r, err)
		return
	}

	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="production-%s.pdf"`, now.Format("20060102")))
	w.Write(data)
}
