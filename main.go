package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"net"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/kartoza/embedding-theatre/internal/bridge"
	"github.com/kartoza/embedding-theatre/internal/config"
	"github.com/kartoza/embedding-theatre/internal/controller"
	"github.com/kartoza/embedding-theatre/internal/embedding"
	"github.com/kartoza/embedding-theatre/internal/history"
	"github.com/kartoza/embedding-theatre/internal/server"
	"github.com/kartoza/embedding-theatre/internal/tui"
	webview "github.com/webview/webview_go"
)

var version = "dev"

func main() {
	// Parse command-line flags
	port := flag.Int("port", 8080, "HTTP server port")
	backend := flag.String("backend", "", "Embedding service base URL (serves POST /get_embedding)")
	ui := flag.String("ui", "window", "Front-end: window, browser or terminal")
	dataDir := flag.String("data-dir", "", "Directory for the generation history (default: user config dir)")
	noHistory := flag.Bool("no-history", false, "Do not record generations")
	cancelSuperseded := flag.Bool("cancel-superseded", false, "Cancel a request still in flight when generate is pressed again")
	headless := flag.Bool("headless", false, "Same as -ui browser")
	showVersion := flag.Bool("version", false, "Show version and exit")
	flag.Parse()

	if *showVersion {
		fmt.Printf("Embedding Theatre v%s\n", version)
		os.Exit(0)
	}

	mode := *ui
	if *headless {
		mode = "browser"
	}
	if mode != "window" && mode != "browser" && mode != "terminal" {
		log.Fatalf("Unknown -ui %q (want window, browser or terminal)", mode)
	}

	// Terminal mode owns the screen, so logs go to a file.
	if mode == "terminal" {
		logFile, err := tea.LogToFile(filepath.Join(os.TempDir(), "embedding-theatre.log"), "")
		if err != nil {
			log.Fatalf("Failed to open log file: %v", err)
		}
		defer logFile.Close()
	}

	// Resolve configuration:
	// 1. Explicit flags take priority
	// 2. Then the environment (and an optional .env file)
	// 3. Then saved settings
	// 4. Built-in defaults
	env := config.LoadEnv(".env")

	settings, err := config.LoadSettings()
	if err != nil {
		log.Printf("Warning: could not load settings: %v", err)
	}

	if *backend != "" {
		settings.BackendURL = config.ResolveBackendURL(*backend, config.Env{}, nil)
		if err := config.SaveSettings(settings); err != nil {
			log.Printf("Warning: could not save settings: %v", err)
		}
	}

	resolvedDataDir := *dataDir
	if resolvedDataDir == "" {
		if dir, err := config.DataStoreDir(); err == nil {
			resolvedDataDir = dir
		} else {
			log.Printf("Warning: %v", err)
			resolvedDataDir = "./data"
		}
	}

	cfg := config.Config{
		Port:             *port,
		DataDir:          resolvedDataDir,
		Version:          version,
		BackendURL:       config.ResolveBackendURL(*backend, env, settings),
		Models:           env.Models,
		DefaultModel:     config.ResolveDefaultModel(env.Models, env.DefaultModel, settings.LastModel),
		RequestTimeout:   env.RequestTimeout,
		ErrorTimeout:     env.ErrorTimeout,
		CancelSuperseded: *cancelSuperseded,
		HistoryEnabled:   !*noHistory,
	}

	log.Printf("Embedding Theatre v%s using embedding service %s", version, cfg.BackendURL)

	client := embedding.NewClient(cfg.BackendURL, cfg.RequestTimeout)

	var store *history.Store
	if cfg.HistoryEnabled {
		store, err = history.Open(filepath.Join(cfg.DataDir, "history.db"))
		if err != nil {
			log.Printf("Warning: history not available: %v", err)
			store = nil
		} else {
			defer store.Close()
		}
	}

	if mode == "terminal" {
		if err := runTerminal(cfg, client, store); err != nil {
			log.Fatalf("Terminal UI error: %v", err)
		}
		return
	}

	runServer(cfg, client, store, mode == "browser")
}

// runTerminal drives the controller from a bubbletea program
func runTerminal(cfg config.Config, client *embedding.Client, store *history.Store) error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var program *tea.Program
	queue := bridge.NewQueue(func(cmd bridge.Command) {
		program.Send(cmd)
	})
	page := bridge.NewPage(queue, cfg.DefaultModel)

	opts := []controller.Option{
		controller.WithErrorTimeout(cfg.ErrorTimeout),
		controller.WithCancelSuperseded(cfg.CancelSuperseded),
	}
	if store != nil {
		opts = append(opts, controller.WithRecorder(store))
	}
	ctrl := controller.New(page, page, client, opts...)

	model := tui.NewModel(ctx, ctrl, page, cfg.Models, cfg.DefaultModel, "v"+cfg.Version)
	program = tea.NewProgram(model, tea.WithAltScreen(), tea.WithContext(ctx))

	_, err := program.Run()
	cancel()
	queue.Close()
	if errors.Is(err, tea.ErrProgramKilled) {
		return nil
	}
	return err
}

// runServer serves the page and opens it in a window unless headless
func runServer(cfg config.Config, client *embedding.Client, store *history.Store, headless bool) {
	// Find an available port (try up to 10 ports starting from the requested one)
	availablePort, err := findAvailablePort(cfg.Port, 10)
	if err != nil {
		log.Fatalf("Failed to find available port: %v", err)
	}
	if availablePort != cfg.Port {
		log.Printf("Port %d in use, using port %d instead", cfg.Port, availablePort)
	}
	cfg.Port = availablePort

	// Create and start the server
	srv, err := server.New(cfg, client, store)
	if err != nil {
		log.Fatalf("Failed to create server: %v", err)
	}

	// Graceful shutdown on SIGINT/SIGTERM
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	// Start server in background
	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Start()
	}()

	// Wait for server to be ready
	serverURL := fmt.Sprintf("http://localhost:%d", cfg.Port)
	waitForServer(serverURL, 10*time.Second)

	if headless {
		log.Printf("Open %s in a browser", serverURL)
		select {
		case err := <-errCh:
			if err != nil {
				log.Fatalf("Server error: %v", err)
			}
		case sig := <-stop:
			log.Printf("Received %v signal, shutting down...", sig)
			if err := srv.Stop(); err != nil {
				log.Printf("Error during shutdown: %v", err)
			}
		}
		return
	}

	// GUI mode: open embedded WebView window
	log.Printf("Opening application window...")
	w := webview.New(false)
	defer w.Destroy()

	w.SetTitle("Embedding Theatre")
	w.SetSize(1280, 800, webview.HintNone)
	w.Navigate(serverURL)

	// When the webview window closes, shut down the server
	go func() {
		select {
		case err := <-errCh:
			if err != nil {
				log.Printf("Server error: %v", err)
			}
		case sig := <-stop:
			log.Printf("Received %v signal, shutting down...", sig)
			w.Terminate()
		}
	}()

	// Run blocks until the window is closed
	w.Run()

	log.Printf("Window closed, shutting down server...")
	if err := srv.Stop(); err != nil {
		log.Printf("Error during shutdown: %v", err)
	}
}

// waitForServer polls until the server is accepting connections
func waitForServer(url string, timeout time.Duration) {
	addr := url[len("http://"):]
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		conn, err := net.DialTimeout("tcp", addr, 500*time.Millisecond)
		if err == nil {
			conn.Close()
			return
		}
		time.Sleep(100 * time.Millisecond)
	}
	log.Printf("Warning: server may not be ready at %s", url)
}

// findAvailablePort finds an available port, starting from the given port.
// If the port is in use, it tries subsequent ports up to maxAttempts times.
func findAvailablePort(startPort int, maxAttempts int) (int, error) {
	for i := 0; i < maxAttempts; i++ {
		port := startPort + i
		addr := fmt.Sprintf(":%d", port)
		listener, err := net.Listen("tcp", addr)
		if err == nil {
			listener.Close()
			return port, nil
		}
	}
	return 0, fmt.Errorf("no available port found after %d attempts starting from %d", maxAttempts, startPort)
}
