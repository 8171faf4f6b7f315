package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/wonny/ninthball/internal/generator"
)

// Helper functions

func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{
		"error": message,
	})
}

// queryInt 쿼리 정수 (없으면 def)
func queryInt(r *http.Request, name string, def int) (int, error) {
	v := r.URL.Query().Get(name)
	if v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, errors.New("invalid '" + name + "' (expected integer)")
	}
	return n, nil
}

// queryKind generator 쿼리 (없으면 def)
func queryKind(r *http.Request, def generator.Kind) (generator.Kind, error) {
	v := r.URL.Query().Get("generator")
	if v == "" {
		return def, nil
	}
	return generator.ParseKind(v)
}
