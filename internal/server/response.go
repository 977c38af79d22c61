package server

import (
	"encoding/json"
	"fmt"
	"net/http"
)

// writeJSON encodes data as the response body. Status responses change on
// every snapshot, so they are never cached.
func writeJSON(w http.ResponseWriter, data any, statusCode int) error {
	body, err := json.Marshal(data)
	if err != nil {
		http.Error(w, "error encoding response", http.StatusInternalServerError)
		return fmt.Errorf("error encoding response: %w", err)
	}

	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(statusCode)

	if _, err = w.Write(append(body, '\n')); err != nil {
		return fmt.Errorf("error writing response: %w", err)
	}
	return nil
}
