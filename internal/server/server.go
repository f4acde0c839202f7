package server

import (
	"context"
	"embed"
	"fmt"
	"io/fs"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/mux"
	"github.com/kartoza/embedding-theatre/internal/api"
	"github.com/kartoza/embedding-theatre/internal/bridge"
	"github.com/kartoza/embedding-theatre/internal/config"
	"github.com/kartoza/embedding-theatre/internal/controller"
	"github.com/kartoza/embedding-theatre/internal/history"
)

//go:embed static/*
var staticFS embed.FS

// Server holds all the components for the web front-end
type Server struct {
	cfg        config.Config
	httpServer *http.Server
	router     *mux.Router

	hub   *Hub
	page  *bridge.Page
	ctrl  *controller.Controller
	store *history.Store

	// baseCtx bounds generate requests; it is cancelled by Stop
	baseCtx context.Context
	cancel  context.CancelFunc
}

// New creates a new Server with all components initialized. store may be nil
// when history is disabled.
func New(cfg config.Config, dispatcher controller.Dispatcher, store *history.Store) (*Server, error) {
	if dispatcher == nil {
		return nil, fmt.Errorf("server needs an embedding dispatcher")
	}

	s := &Server{
		cfg:    cfg,
		router: mux.NewRouter(),
		hub:    NewHub(),
		store:  store,
	}
	s.baseCtx, s.cancel = context.WithCancel(context.Background())

	s.page = bridge.NewPage(s.hub, cfg.DefaultModel)

	opts := []controller.Option{
		controller.WithCancelSuperseded(cfg.CancelSuperseded),
	}
	if cfg.ErrorTimeout > 0 {
		opts = append(opts, controller.WithErrorTimeout(cfg.ErrorTimeout))
	}
	if store != nil {
		opts = append(opts, controller.WithRecorder(store))
	}
	s.ctrl = controller.New(s.page, s.page, dispatcher, opts...)

	s.setupRoutes()

	return s, nil
}

// Handler returns the root HTTP handler
func (s *Server) Handler() http.Handler {
	return s.router
}

// Controller returns the controller driven by the page
func (s *Server) Controller() *controller.Controller {
	return s.ctrl
}

// setupRoutes configures all HTTP routes
func (s *Server) setupRoutes() {
	// The event stream is registered before the API subrouter so it is not
	// shadowed by it.
	s.router.Handle("/api/events", eventsHandler{hub: s.hub, page: s.page}).Methods("GET")

	// Saved settings
	s.router.HandleFunc("/api/settings", s.handleSettingsGet).Methods("GET")
	s.router.HandleFunc("/api/settings", s.handleSettingsUpdate).Methods("PUT")

	// API routes
	var store api.HistoryStore
	if s.store != nil {
		store = s.store
	}
	apiRouter := s.router.PathPrefix("/api").Subrouter()
	apiHandler := api.NewHandler(s.baseCtx, s.ctrl, s.page, store, s.cfg)
	apiHandler.RegisterRoutes(apiRouter)

	// Static frontend files (embedded)
	staticContent, err := fs.Sub(staticFS, "static")
	if err != nil {
		log.Printf("Warning: Could not load embedded static files: %v", err)
		return
	}

	// SPA fallback: serve index.html for any non-API route
	fileServer := http.FileServer(http.FS(staticContent))
	s.router.PathPrefix("/").Handler(spaHandler{staticContent: staticContent, fileServer: fileServer})
}

// Start begins listening for HTTP connections
func (s *Server) Start() error {
	s.httpServer = &http.Server{
		Addr:         fmt.Sprintf(":%d", s.cfg.Port),
		Handler:      s.router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	log.Printf("Server listening on http://localhost:%d", s.cfg.Port)
	return s.httpServer.ListenAndServe()
}

// Stop gracefully shuts down the server and cancels requests in flight
func (s *Server) Stop() error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	s.cancel()

	if s.httpServer == nil {
		return nil
	}
	return s.httpServer.Shutdown(ctx)
}

// spaHandler serves the SPA, falling back to index.html for client-side routing
type spaHandler struct {
	staticContent fs.FS
	fileServer    http.Handler
}

func (h spaHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	path := r.URL.Path
	if path == "/" {
		path = "index.html"
	}

	// fs.FS paths must not have a leading slash
	cleanPath := strings.TrimPrefix(path, "/")

	if _, err := fs.Stat(h.staticContent, cleanPath); err != nil {
		r.URL.Path = "/"
	}

	h.fileServer.ServeHTTP(w, r)
}
