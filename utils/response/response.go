package response

import (
	"encoding/json"
	"errors"
	"net/http"

	"bookstore-backend/internal/apperr"
)

type SuccessResponse struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Message string      `json:"message,omitempty"`
}

type ErrorResponse struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
	Code    int    `json:"code"`
}

func JSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func Success(w http.ResponseWriter, data interface{}, message string) {
	JSON(w, http.StatusOK, SuccessResponse{
		Success: true,
		Data:    data,
		Message: message,
	})
}

func Error(w http.ResponseWriter, code int, message string) {
	JSON(w, code, ErrorResponse{
		Success: false,
		Error:   message,
		Code:    code,
	})
}

// FromError renders a classified error with the status its kind maps
// to. Unclassified errors become a generic 500 carrying the message.
func FromError(w http.ResponseWriter, err error) {
	var ae *apperr.Error
	if errors.As(err, &ae) {
		msg := ae.Message
		if ae.Kind == apperr.KindUnknown {
			// fallback kind keeps the underlying message for diagnostics
			msg = ae.Error()
		}
		Error(w, StatusForKind(ae.Kind), msg)
		return
	}
	Error(w, http.StatusInternalServerError, err.Error())
}

// StatusForKind maps the error taxonomy onto HTTP status codes.
func StatusForKind(kind apperr.Kind) int {
	switch kind {
	case apperr.KindValidation, apperr.KindPersistence:
		return http.StatusBadRequest
	case apperr.KindNotFound:
		return http.StatusNotFound
	case apperr.KindPermission:
		return http.StatusForbidden
	case apperr.KindUpstreamStorage:
		return http.StatusInternalServerError
	default:
		return http.StatusInternalServerError
	}
}
