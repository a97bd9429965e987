// Package response writes the JSON envelope shared by every endpoint.
package response

import (
	"encoding/json"
	"net/http"

	"summarymaker/pkg/apperr"
	"summarymaker/pkg/logger"
)

type ErrorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Pagination is flattened into the envelope of paginated list responses.
type Pagination struct {
	TotalDocs   int64 `json:"totalDocs"`
	Limit       int   `json:"limit"`
	Page        int   `json:"page"`
	TotalPages  int   `json:"totalPages"`
	HasPrevPage bool  `json:"hasPrevPage"`
	HasNextPage bool  `json:"hasNextPage"`
	PrevPage    *int  `json:"prevPage"`
	NextPage    *int  `json:"nextPage"`
}

type Envelope struct {
	Success bool       `json:"success"`
	Error   *ErrorBody `json:"error"`
	Data    any        `json:"data"`
	*Pagination
}

func write(w http.ResponseWriter, status int, env Envelope) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(env); err != nil {
		logger.Sugar.Errorf("Failed to write response: %v", err)
	}
}

func OK(w http.ResponseWriter, data any) {
	write(w, http.StatusOK, Envelope{Success: true, Data: data})
}

func Paginated(w http.ResponseWriter, data any, page Pagination) {
	write(w, http.StatusOK, Envelope{Success: true, Data: data, Pagination: &page})
}

// Error writes a failure envelope. Causes of internal errors stay in the logs.
func Error(w http.ResponseWriter, err error) {
	de := apperr.From(err)
	write(w, de.Status, Envelope{Error: &ErrorBody{Code: de.Code, Message: de.Message}})
}
