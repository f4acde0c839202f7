package server

import (
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"net/url"
	"strings"

	"github.com/kartoza/embedding-theatre/internal/config"
	"github.com/kartoza/embedding-theatre/internal/httputil"
)

// settingsUpdate is a partial update of the saved settings
type settingsUpdate struct {
	BackendURL *string `json:"backendUrl"`
	LastModel  *string `json:"lastModel"`
}

// handleSettingsGet returns the saved settings next to the active ones
func (s *Server) handleSettingsGet(w http.ResponseWriter, r *http.Request) {
	settings, err := config.LoadSettings()
	if err != nil {
		httputil.RespondJSON(w, http.StatusOK, map[string]interface{}{
			"saved": settings,
			"error": err.Error(),
		})
		return
	}

	httputil.RespondJSON(w, http.StatusOK, map[string]interface{}{
		"saved":         settings,
		"activeBackend": s.cfg.BackendURL,
	})
}

// handleSettingsUpdate saves the backend URL and/or the last used model. A
// new backend URL takes effect on the next start.
func (s *Server) handleSettingsUpdate(w http.ResponseWriter, r *http.Request) {
	var req settingsUpdate
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.RespondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	settings, err := config.LoadSettings()
	if err != nil {
		log.Printf("Warning: replacing unreadable settings: %v", err)
	}

	if req.BackendURL != nil {
		backend := strings.TrimRight(strings.TrimSpace(*req.BackendURL), "/")
		if backend != "" {
			if err := validateBackendURL(backend); err != nil {
				httputil.RespondError(w, http.StatusBadRequest, err.Error())
				return
			}
		}
		settings.BackendURL = backend
	}

	if req.LastModel != nil {
		if *req.LastModel != "" && !s.knownModel(*req.LastModel) {
			httputil.RespondError(w, http.StatusBadRequest, fmt.Sprintf("unknown model: %s", *req.LastModel))
			return
		}
		settings.LastModel = *req.LastModel
	}

	if err := config.SaveSettings(settings); err != nil {
		httputil.RespondError(w, http.StatusInternalServerError, fmt.Sprintf("could not save settings: %v", err))
		return
	}

	httputil.RespondJSON(w, http.StatusOK, map[string]interface{}{
		"saved":           settings,
		"activeBackend":   s.cfg.BackendURL,
		"restartRequired": settings.BackendURL != "" && settings.BackendURL != s.cfg.BackendURL,
	})
}

func (s *Server) knownModel(model string) bool {
	for _, m := range s.cfg.Models {
		if m == model {
			return true
		}
	}
	return false
}

func validateBackendURL(raw string) error {
	u, err := url.Parse(raw)
	if err != nil {
		return fmt.Errorf("invalid backend URL: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("backend URL must use http or https")
	}
	if u.Host == "" {
		return fmt.Errorf("backend URL must include a host")
	}
	return nil
}
