package api

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"

	"github.com/lavishdadwani/Stock-Management/internal/model"
)

// envelope is the body of every API response.
type envelope struct {
	Code           int    `json:"code"`
	Message        string `json:"message"`
	Data           any    `json:"data"`
	DisplayMessage string `json:"displayMessage"`
	AdditionalData any    `json:"additionalData,omitempty"`
}

// jsonResponse writes a JSON response with the given status code.
func jsonResponse(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if body != nil {
		if err := json.NewEncoder(w).Encode(body); err != nil {
			slog.Error("encoding response", "error", err)
		}
	}
}

// success writes a success envelope.
func success(w http.ResponseWriter, status int, message string, data any, display string) {
	jsonResponse(w, status, envelope{Code: status, Message: message, Data: data, DisplayMessage: display})
}

// successPage writes a success envelope carrying pagination info.
func successPage(w http.ResponseWriter, message string, data any, info model.PageInfo) {
	jsonResponse(w, http.StatusOK, envelope{
		Code:           http.StatusOK,
		Message:        message,
		Data:           data,
		DisplayMessage: message,
		AdditionalData: info,
	})
}

// jsonError writes an error envelope. data carries diagnostic detail only.
func jsonError(w http.ResponseWriter, status int, message, display string, data any) {
	if display == "" {
		display = message
	}
	jsonResponse(w, status, envelope{Code: status, Message: message, Data: data, DisplayMessage: display})
}

// maxBodySize caps JSON request bodies.
const maxBodySize = 1 << 20

// decodeJSON decodes a JSON request body into the given target.
func decodeJSON(r *http.Request, target any) error {
	defer r.Body.Close()
	return json.NewDecoder(io.LimitReader(r.Body, maxBodySize)).Decode(target)
}

// badBody reports an undecodable request body.
func badBody(w http.ResponseWriter) {
	jsonError(w, http.StatusBadRequest, "invalid request body", "The request could not be read.", nil)
}
