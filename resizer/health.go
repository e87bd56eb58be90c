package resizer

import (
	"encoding/json"
	"net/http"

	"github.com/greut/resizer/config"
)

// Health is the healthcheck payload.
type Health struct {
	Version     string `json:"version"`
	Environment string `json:"environment"`
}

// HealthcheckHandler reports the running version, never cached.
func HealthcheckHandler(w http.ResponseWriter, r *http.Request) {
	c, _ := r.Context().Value(ContextKey("config")).(*config.Config)

	var health Health
	if c != nil {
		health = Health{c.Version, c.Environment}
	}

	DisableCache(w.Header())
	w.Header().Set("Content-Type", "application/json; charset=utf-8")

	if err := json.NewEncoder(w).Encode(health); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}
