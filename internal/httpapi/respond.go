package httpapi

import (
	"encoding/json"
	"net/http"

	"library/internal/apperr"
)

// Success envelope: {"data": ...}
type dataEnvelope struct {
	Data any `json:"data"`
}

type errorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type errorEnvelope struct {
	Error errorBody `json:"error"`
}

// Validation failures carry field-level detail.
type validationEnvelope struct {
	Error  errorBody           `json:"error"`
	Errors map[string][]string `json:"errors"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeData(w http.ResponseWriter, status int, v any) {
	writeJSON(w, status, dataEnvelope{Data: v})
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, errorEnvelope{Error: errorBody{Code: code, Message: message}})
}

func writeValidationErrors(w http.ResponseWriter, fields map[string][]string) {
	writeJSON(w, http.StatusBadRequest, validationEnvelope{
		Error:  errorBody{Code: apperr.KindValidation.String(), Message: "One or more validation errors occurred"},
		Errors: fields,
	})
}

// writeServiceError maps a typed service failure onto its HTTP status.
func writeServiceError(w http.ResponseWriter, err error) {
	kind := apperr.KindOf(err)
	status := http.StatusInternalServerError
	switch kind {
	case apperr.KindNotFound:
		status = http.StatusNotFound
	case apperr.KindValidation:
		status = http.StatusBadRequest
	case apperr.KindConflict:
		status = http.StatusConflict
	}
	writeError(w, status, kind.String(), apperr.MessageOf(err))
}
