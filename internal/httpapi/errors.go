package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"

	api "github.com/webtech-network/autograder-sub001/internal/gradeapi"
)

// errorResponse is the wire shape of every non-2xx response.
type errorResponse struct {
	Error struct {
		Code    string                 `json:"code"`
		Message string                 `json:"message"`
		Details map[string]interface{} `json:"details,omitempty"`
	} `json:"error"`
}

// writeError maps a GradingError's Kind to an HTTP status the same way
// §7's taxonomy maps to fatal/soft outcomes: config_missing and not-found
// conditions are 404, malformed input is 400, any other GradingError kind
// is 422, and an error that is not a GradingError is 500.
func writeError(w http.ResponseWriter, err error) {
	var ge *api.GradingError
	code := "internal_error"
	status := http.StatusInternalServerError
	msg := err.Error()

	if errors.As(err, &ge) {
		code = string(ge.Kind)
		switch ge.Kind {
		case api.KindConfigMissing:
			status = http.StatusNotFound
		case api.KindTreeMalformed, api.KindPreflightMissingFile:
			status = http.StatusBadRequest
		default:
			status = http.StatusUnprocessableEntity
		}
	}

	resp := errorResponse{}
	resp.Error.Code = code
	resp.Error.Message = msg
	if ge != nil {
		resp.Error.Details = ge.Details
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(resp)
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
