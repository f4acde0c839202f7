package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"
	"github.com/kartoza/embedding-theatre/internal/config"
	"github.com/kartoza/embedding-theatre/internal/controller"
	"github.com/kartoza/embedding-theatre/internal/history"
	"github.com/kartoza/embedding-theatre/internal/httputil"
)

// Generator is the controller surface the API drives
type Generator interface {
	Click(ctx context.Context) *controller.Task
	ResetCamera() error
	Replay(points [][3]float64, labels []string) error
}

// Form receives the page's text input and model selector values
type Form interface {
	SetForm(text, model string)
}

// HistoryStore lists and loads earlier generations
type HistoryStore interface {
	List(ctx context.Context, limit int) ([]history.Generation, error)
	Get(ctx context.Context, id string) (*history.Generation, error)
}

// Handler provides HTTP API endpoints
type Handler struct {
	generator Generator
	form      Form
	store     HistoryStore
	cfg       config.Config

	// baseCtx outlives individual requests so a generate call keeps running
	// after its HTTP response has been written.
	baseCtx context.Context
}

// NewHandler creates a new API handler. store may be nil when history is
// disabled.
func NewHandler(
	baseCtx context.Context,
	generator Generator,
	form Form,
	store HistoryStore,
	cfg config.Config,
) *Handler {
	return &Handler{
		generator: generator,
		form:      form,
		store:     store,
		cfg:       cfg,
		baseCtx:   baseCtx,
	}
}

// RegisterRoutes sets up all API routes
func (h *Handler) RegisterRoutes(r *mux.Router) {
	// Health and info
	r.HandleFunc("/health", h.handleHealth).Methods("GET")
	r.HandleFunc("/info", h.handleInfo).Methods("GET")
	r.HandleFunc("/models", h.handleModels).Methods("GET")

	// Interaction
	r.HandleFunc("/generate", h.handleGenerate).Methods("POST")
	r.HandleFunc("/camera/reset", h.handleResetCamera).Methods("POST")

	// History
	r.HandleFunc("/history", h.handleListHistory).Methods("GET")
	r.HandleFunc("/history/{id}", h.handleGetHistory).Methods("GET")
	r.HandleFunc("/history/{id}/replay", h.handleReplayHistory).Methods("POST")
}

// GenerateRequest mirrors the page form
type GenerateRequest struct {
	Text  string `json:"text"`
	Model string `json:"model"`
}

// GenerateResponse identifies the task started by a generate call
type GenerateResponse struct {
	TaskID string `json:"task_id"`
	State  string `json:"state"`
	Error  string `json:"error,omitempty"`
}

// handleHealth returns server health status
func (h *Handler) handleHealth(w http.ResponseWriter, r *http.Request) {
	httputil.RespondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// handleInfo returns server information
func (h *Handler) handleInfo(w http.ResponseWriter, r *http.Request) {
	info := map[string]interface{}{
		"version":         h.cfg.Version,
		"backend":         h.cfg.BackendURL,
		"history_enabled": h.store != nil,
	}
	httputil.RespondJSON(w, http.StatusOK, info)
}

// handleModels returns the model selector options
func (h *Handler) handleModels(w http.ResponseWriter, r *http.Request) {
	models := h.cfg.Models
	if models == nil {
		models = []string{}
	}
	httputil.RespondJSON(w, http.StatusOK, map[string]interface{}{
		"models":  models,
		"default": h.cfg.DefaultModel,
	})
}

// handleGenerate is the generate button. The outcome reaches the page as
// commands on the event stream; the response only reports the task.
func (h *Handler) handleGenerate(w http.ResponseWriter, r *http.Request) {
	var req GenerateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.RespondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	h.form.SetForm(req.Text, req.Model)
	task := h.generator.Click(h.baseCtx)

	resp := GenerateResponse{TaskID: task.ID, State: task.State().String()}
	if task.State() == controller.TaskRejected {
		resp.Error = controller.UserMessage(task.Err())
		httputil.RespondJSON(w, http.StatusUnprocessableEntity, resp)
		return
	}
	httputil.RespondJSON(w, http.StatusAccepted, resp)
}

// handleResetCamera is the Reset Camera toolbar button
func (h *Handler) handleResetCamera(w http.ResponseWriter, r *http.Request) {
	if err := h.generator.ResetCamera(); err != nil {
		httputil.RespondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	httputil.RespondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// handleListHistory returns recent generations
func (h *Handler) handleListHistory(w http.ResponseWriter, r *http.Request) {
	if h.store == nil {
		httputil.RespondJSON(w, http.StatusOK, []history.Generation{})
		return
	}

	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 0 {
			httputil.RespondError(w, http.StatusBadRequest, "limit must be a non-negative integer")
			return
		}
		limit = parsed
	}

	generations, err := h.store.List(r.Context(), limit)
	if err != nil {
		httputil.RespondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	httputil.RespondJSON(w, http.StatusOK, generations)
}

// handleGetHistory returns one generation
func (h *Handler) handleGetHistory(w http.ResponseWriter, r *http.Request) {
	g, ok := h.lookup(w, r)
	if !ok {
		return
	}
	httputil.RespondJSON(w, http.StatusOK, g)
}

// handleReplayHistory renders a stored generation again
func (h *Handler) handleReplayHistory(w http.ResponseWriter, r *http.Request) {
	g, ok := h.lookup(w, r)
	if !ok {
		return
	}
	if err := h.generator.Replay(g.Points, g.Labels); err != nil {
		httputil.RespondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	httputil.RespondJSON(w, http.StatusOK, map[string]string{"status": "ok", "id": g.ID})
}

func (h *Handler) lookup(w http.ResponseWriter, r *http.Request) (*history.Generation, bool) {
	if h.store == nil {
		httputil.RespondError(w, http.StatusNotFound, "history is disabled")
		return nil, false
	}

	g, err := h.store.Get(r.Context(), mux.Vars(r)["id"])
	if errors.Is(err, history.ErrNotFound) {
		httputil.RespondError(w, http.StatusNotFound, err.Error())
		return nil, false
	}
	if err != nil {
		httputil.RespondError(w, http.StatusInternalServerError, err.Error())
		return nil, false
	}
	return g, true
}
