package middleware

import (
	"encoding/json"
	"net/http"
)

// WriteJSON writes a JSON response with the given status code.
func WriteJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// ErrorResponse writes a JSON error body.
func ErrorResponse(w http.ResponseWriter, status int, msg string) {
	WriteJSON(w, status, map[string]string{"error": msg})
}

// UserID pulls the authenticated user's ID from the request context.
// Empty outside RequireAuth.
func UserID(r *http.Request) string {
	id, _ := r.Context().Value("user_id").(string)
	return id
}
