package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

// HomeHandler answers the API root so the console can tell which environment it talks to.
type HomeHandler struct {
	AppName string
	Env     string
}

func (h HomeHandler) RegisterRoutes(r chi.Router) {
	r.Get("/", h.welcome)
}

func (h HomeHandler) welcome(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"name": h.AppName,
		"env":  h.Env,
	})
}
