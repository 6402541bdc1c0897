// Package markets exposes the prediction-market REST surface.
package markets

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-playground/validator/v10"

	"clawstreetbets/market"
	"clawstreetbets/middleware"
)

var validate = validator.New()

// errorBody is the uniform error response: a machine-readable kind plus a
// human-readable message.
type errorBody struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// writeDomainError maps an engine error to its response. Anything that is
// not a typed domain error is a server fault and stays opaque.
func writeDomainError(w http.ResponseWriter, err error) {
	if e, ok := err.(*market.Error); ok {
		writeJSON(w, market.HTTPStatus(e), errorBody{Error: string(e.Kind), Message: e.Message})
		return
	}
	writeJSON(w, http.StatusInternalServerError, errorBody{Error: "internal", Message: "Internal server error"})
}

func writeHTTPError(w http.ResponseWriter, he *middleware.HTTPError) {
	kind := "unauthorized"
	if he.StatusCode == http.StatusForbidden {
		kind = "forbidden"
	} else if he.StatusCode >= 500 {
		kind = "internal"
	}
	writeJSON(w, he.StatusCode, errorBody{Error: kind, Message: he.Message})
}

func writeValidationError(w http.ResponseWriter, message string) {
	writeJSON(w, http.StatusBadRequest, errorBody{Error: "validation", Message: message})
}

func atoiInRange(s string, min, max int) (int, error) {
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, err
	}
	if n < min {
		n = min
	}
	if n > max {
		n = max
	}
	return n, nil
}
