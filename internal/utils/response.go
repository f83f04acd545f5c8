package utils

import (
	"encoding/json"
	"net/http"
	"time"
)

// APIResponse is the envelope of every admin API reply.
type APIResponse struct {
	Success   bool        `json:"success"`
	Message   string      `json:"message"`
	Data      interface{} `json:"data,omitempty"`
	Error     string      `json:"error,omitempty"`
	Timestamp time.Time   `json:"timestamp"`
}

func WriteSuccess(w http.ResponseWriter, status int, message string, data interface{}) {
	writeJSON(w, status, APIResponse{Success: true, Message: message, Data: data, Timestamp: time.Now()})
}

func WriteError(w http.ResponseWriter, status int, message string, err error) {
	resp := APIResponse{Message: message, Timestamp: time.Now()}
	if err != nil {
		resp.Error = err.Error()
	}
	writeJSON(w, status, resp)
}

func writeJSON(w http.ResponseWriter, status int, resp APIResponse) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(resp)
}
