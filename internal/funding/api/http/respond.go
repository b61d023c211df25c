package http

import (
	"encoding/json"
	"errors"
	"net/http"

	apperrors "github.com/fundlift/fundlift/internal/platform/errors"
)

type errorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type errorResponse struct {
	Error errorBody `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func writeErrorMessage(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, errorResponse{Error: errorBody{Code: code, Message: message}})
}

// writeError maps a domain error to its HTTP status via the code taxonomy.
// Errors without a domain code become opaque 500s.
func writeError(w http.ResponseWriter, err error) {
	var domainErr *apperrors.Error
	if errors.As(err, &domainErr) {
		writeErrorMessage(w, domainErr.Code.HTTPStatus(), string(domainErr.Code), domainErr.Message)
		return
	}
	writeErrorMessage(w, http.StatusInternalServerError, string(apperrors.CodeUnknown), "internal error")
}
