// Package respond escribe las respuestas JSON de la API.
package respond

import (
	"encoding/json"
	"net/http"
)

// ErrorBody es el formato único de error de la API.
type ErrorBody struct {
	Error string `json:"error" example:"Pet not found"`
}

// MessageBody se usa para confirmaciones sin payload.
type MessageBody struct {
	Message string `json:"message" example:"Pet deleted successfully"`
}

func JSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func Error(w http.ResponseWriter, status int, msg string) {
	JSON(w, status, ErrorBody{Error: msg})
}

func Message(w http.ResponseWriter, status int, msg string) {
	JSON(w, status, MessageBody{Message: msg})
}
