package ws

import (
	"encoding/json"
	"net/http"

	"github.com/gorilla/mux"
)

// HealthPath answers GET with the server status as JSON.
const HealthPath = "/healthz"

// Health is the body of HealthPath.
type Health struct {
	Status  string `json:"status"`
	Clients int    `json:"clients"`
	Extra   any    `json:"extra,omitempty"`
}

// Routes mounts the engine socket at path and the health check next to it.
// extra, when set, is called on every health request; it must be safe to
// call from any goroutine.
func (s *Server) Routes(path string, extra func() any) http.Handler {
	r := mux.NewRouter()
	r.HandleFunc(path, s.Handler())
	r.HandleFunc(HealthPath, func(rw http.ResponseWriter, req *http.Request) {
		h := Health{Status: "ok", Clients: s.Clients()}
		if extra != nil {
			h.Extra = extra()
		}
		rw.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(rw).Encode(h); err != nil {
			s.log.Warn("Failed to write health response", "error", err)
		}
	}).Methods(http.MethodGet)
	return r
}
