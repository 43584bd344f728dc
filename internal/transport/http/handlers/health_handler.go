package handlers

import "net/http"

// Health reports liveness and how many feed connections are open.
func Health(connections func() int) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{
			"status":      "ok",
			"connections": connections(),
		})
	}
}
