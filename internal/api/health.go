package api

import (
	"context"
	"database/sql"
	"net/http"
	"time"
)

// Health reports whether the database answers.
func Health(db *sql.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		if err := db.PingContext(ctx); err != nil {
			jsonError(w, http.StatusServiceUnavailable, "database unavailable", "Service unavailable.", nil)
			return
		}
		success(w, http.StatusOK, "ok", map[string]string{"status": "ok"}, "Service is running")
	}
}
