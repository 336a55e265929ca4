package server

import (
	"encoding/json"
	"net/http"

	"github.com/uvlkit/uvlkit/pkg/errors"
)

// errorBody is the JSON shape of every error response.
type errorBody struct {
	Error struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeError maps the engine's error taxonomy onto HTTP statuses.
func writeError(w http.ResponseWriter, err error) {
	code := errors.GetCode(err)

	status := http.StatusInternalServerError
	switch code {
	case errors.ErrCodeMalformedModel, errors.ErrCodeInvalidInput, errors.ErrCodeInvalidSelection:
		status = http.StatusBadRequest
	case errors.ErrCodeUnknownFeature:
		status = http.StatusUnprocessableEntity
	case errors.ErrCodeUnknownOperation, errors.ErrCodeNotFound:
		status = http.StatusNotFound
	case errors.ErrCodeTimeout:
		status = http.StatusGatewayTimeout
	}
	if code == "" {
		code = errors.ErrCodeInternal
	}

	var body errorBody
	body.Error.Code = string(code)
	body.Error.Message = errors.UserMessage(err)
	writeJSON(w, status, body)
}
