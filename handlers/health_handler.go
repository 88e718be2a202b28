package handlers

import "net/http"

type HealthHandler struct {
	demo bool
}

func NewHealthHandler(demo bool) *HealthHandler {
	return &HealthHandler{demo: demo}
}

func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	if err := writeJSON(w, http.StatusOK, jsonResponse{"status": "ok", "demo": h.demo}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}
