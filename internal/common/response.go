package common

import (
	"encoding/json"
	"net/http"
)

// Envelope is the uniform response wrapper: every endpoint answers with
// {status, message?, data?, errors?}.
type Envelope struct {
	Status  string              `json:"status"`
	Message string              `json:"message,omitempty"`
	Data    interface{}         `json:"data,omitempty"`
	Errors  map[string][]string `json:"errors,omitempty"`
}

func RespondWithJSON(w http.ResponseWriter, code int, payload interface{}) {
	response, err := json.Marshal(payload)
	if err != nil {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte(`{"status": "error", "message": "Failed to marshal JSON response"}`))
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	w.Write(response)
}

// RespondSuccess writes a success envelope. Message and data are omitted
// from the body when empty.
func RespondSuccess(w http.ResponseWriter, code int, message string, data interface{}) {
	RespondWithJSON(w, code, Envelope{Status: "success", Message: message, Data: data})
}

// RespondError writes an error envelope carrying a single message.
func RespondError(w http.ResponseWriter, code int, message string) {
	RespondWithJSON(w, code, Envelope{Status: "error", Message: message})
}

// RespondValidationFailed writes the 422 envelope with per-field messages.
func RespondValidationFailed(w http.ResponseWriter, fields map[string][]string) {
	RespondWithJSON(w, http.StatusUnprocessableEntity, Envelope{Status: "error", Errors: fields})
}
