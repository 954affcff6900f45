package errors

import (
	"encoding/json"
	"log/slog"
	"net/http"
)

// HTTPErrorAdapter writes classified errors as JSON HTTP responses.
type HTTPErrorAdapter struct {
	logger *slog.Logger
}

// NewHTTPErrorAdapter creates a new HTTP error adapter.
func NewHTTPErrorAdapter(logger *slog.Logger) *HTTPErrorAdapter {
	if logger == nil {
		logger = slog.Default()
	}
	return &HTTPErrorAdapter{logger: logger}
}

// errorResponse is the JSON body for error responses.
type errorResponse struct {
	Error    string `json:"error"`
	Category string `json:"category,omitempty"`
}

// WriteErrorResponse maps the error to an HTTP status and writes a JSON body.
func (a *HTTPErrorAdapter) WriteErrorResponse(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	body := errorResponse{Error: "internal error"}

	if classified, ok := AsClassified(err); ok {
		body.Error = classified.Message()
		body.Category = string(classified.Category())
		status = statusFromCategory(classified.Category())
	} else if err != nil {
		body.Error = err.Error()
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if encodeErr := json.NewEncoder(w).Encode(body); encodeErr != nil {
		a.logger.Error("failed to encode error response", slog.String("error", encodeErr.Error()))
	}
}

func statusFromCategory(category ErrorCategory) int {
	switch category {
	case CategoryValidation, CategoryConfig:
		return http.StatusBadRequest
	case CategoryGit, CategoryNetwork, CategoryRegistry:
		return http.StatusBadGateway
	case CategoryTimeout:
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}
