package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"
)

// writeJSON writes a JSON response with the given status code.
func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// writeValidationError reports field-level validation failures without
// mutating anything.
func writeValidationError(w http.ResponseWriter, fields map[string]string) {
	writeJSON(w, http.StatusBadRequest, map[string]interface{}{
		"error":  "validation",
		"fields": fields,
	})
}

// validateRequired returns field errors for empty or whitespace-only
// required values.
func validateRequired(values map[string]string) map[string]string {
	errors := make(map[string]string)
	for field, value := range values {
		if strings.TrimSpace(value) == "" {
			errors[field] = field + " is required"
		}
	}
	if len(errors) == 0 {
		return nil
	}
	return errors
}

// parseNumericValue coerces a JSON value to a number, defaulting to 0 for
// anything unparseable. Forms historically sent numerics as strings; the
// lenient default is part of the contract.
func parseNumericValue(v interface{}) float64 {
	switch n := v.(type) {
	case float64:
		return n
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(n), 64)
		if err != nil {
			return 0
		}
		return f
	default:
		return 0
	}
}
