package server

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/kartoza/embedding-theatre/internal/bridge"
	"github.com/kartoza/embedding-theatre/internal/config"
	"github.com/kartoza/embedding-theatre/internal/embedding"
)

type fixedDispatcher struct{}

func (fixedDispatcher) Project(ctx context.Context, req embedding.Request) (*embedding.Response, error) {
	return &embedding.Response{
		ReducedEmbeddings: [][]float64{{0.1, 0.2, 0.3}, {0.4, 0.5, 0.6}, {0.7, 0.8, 0.9}},
		Labels:            []string{"king", "queen", "man"},
	}, nil
}

func newTestServer(t *testing.T) (*Server, *httptest.Server) {
	t.Helper()
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())

	cfg := config.Config{
		Version:      "test",
		BackendURL:   "http://embed.test",
		Models:       config.DefaultModels,
		DefaultModel: "openai",
	}
	s, err := New(cfg, fixedDispatcher{}, nil)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	ts := httptest.NewServer(s.Handler())
	t.Cleanup(func() {
		ts.Close()
		s.Stop()
	})
	return s, ts
}

func dialEvents(t *testing.T, ts *httptest.Server) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(ts.URL, "http") + "/api/events"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("Dial failed: %v", err)
	}
	t.Cleanup(func() { conn.Close() })
	return conn
}

func readCommand(t *testing.T, conn *websocket.Conn) bridge.Command {
	t.Helper()
	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	var cmd bridge.Command
	if err := conn.ReadJSON(&cmd); err != nil {
		t.Fatalf("ReadJSON failed: %v", err)
	}
	return cmd
}

func TestIndexServed(t *testing.T) {
	_, ts := newTestServer(t)

	for _, path := range []string{"/", "/some/client/route"} {
		resp, err := http.Get(ts.URL + path)
		if err != nil {
			t.Fatalf("GET %s failed: %v", path, err)
		}
		body, _ := io.ReadAll(resp.Body)
		resp.Body.Close()

		if resp.StatusCode != http.StatusOK {
			t.Errorf("GET %s: expected 200, got %d", path, resp.StatusCode)
		}
		for _, id := range []string{`id="textInput"`, `id="modelSelect"`, `id="generateBtn"`, `id="loading"`, `id="error"`, `id="plot"`} {
			if !bytes.Contains(body, []byte(id)) {
				t.Errorf("GET %s: page is missing %s", path, id)
			}
		}
	}
}

func TestEventsSnapshotOnConnect(t *testing.T) {
	_, ts := newTestServer(t)
	conn := dialEvents(t, ts)

	want := []bridge.Op{bridge.OpSetLoading, bridge.OpSetGenerateEnabled, bridge.OpHideError}
	for _, op := range want {
		if cmd := readCommand(t, conn); cmd.Op != op {
			t.Errorf("Expected %s in snapshot, got %s", op, cmd.Op)
		}
	}
}

func TestGenerateStreamsCommands(t *testing.T) {
	s, ts := newTestServer(t)
	conn := dialEvents(t, ts)
	for i := 0; i < 3; i++ {
		readCommand(t, conn)
	}

	// Wait for the hub to register the client before publishing.
	deadline := time.Now().Add(2 * time.Second)
	for s.hub.Clients() == 0 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}

	body := bytes.NewBufferString(`{"text":"king, queen, man","model":"gemini"}`)
	resp, err := http.Post(ts.URL+"/api/generate", "application/json", body)
	if err != nil {
		t.Fatalf("POST failed: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusAccepted {
		t.Fatalf("Expected 202, got %d", resp.StatusCode)
	}

	var sawPlot, loadingCleared bool
	for !(sawPlot && loadingCleared) {
		cmd := readCommand(t, conn)
		switch cmd.Op {
		case bridge.OpNewPlot:
			sawPlot = true
			if cmd.Figure == nil || len(cmd.Figure.Data[0].Text) != 3 {
				t.Fatalf("Unexpected figure: %+v", cmd.Figure)
			}
		case bridge.OpSetLoading:
			if !cmd.Value {
				loadingCleared = true
			}
		case bridge.OpShowError:
			t.Fatalf("Unexpected error banner: %s", cmd.Message)
		}
	}

	// A late subscriber catches up with the current figure.
	late := dialEvents(t, ts)
	var last bridge.Command
	for i := 0; i < 4; i++ {
		last = readCommand(t, late)
	}
	if last.Op != bridge.OpNewPlot {
		t.Errorf("Expected snapshot to end with newPlot, got %s", last.Op)
	}
}

func TestSettingsUpdate(t *testing.T) {
	_, ts := newTestServer(t)

	put := func(body string) *http.Response {
		req, _ := http.NewRequest(http.MethodPut, ts.URL+"/api/settings", strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
		resp, err := http.DefaultClient.Do(req)
		if err != nil {
			t.Fatalf("PUT failed: %v", err)
		}
		return resp
	}

	resp := put(`{"lastModel":"gemini","backendUrl":"http://other:5000/"}`)
	var result struct {
		Saved           config.Settings `json:"saved"`
		RestartRequired bool            `json:"restartRequired"`
	}
	json.NewDecoder(resp.Body).Decode(&result)
	resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("Expected 200, got %d", resp.StatusCode)
	}
	if result.Saved.LastModel != "gemini" || result.Saved.BackendURL != "http://other:5000" {
		t.Errorf("Unexpected saved settings: %+v", result.Saved)
	}
	if !result.RestartRequired {
		t.Error("Expected a restart to be required for a new backend")
	}

	saved, err := config.LoadSettings()
	if err != nil || saved.LastModel != "gemini" {
		t.Errorf("Expected settings on disk, got %+v (%v)", saved, err)
	}

	resp = put(`{"lastModel":"unknown"}`)
	resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("Expected 400 for unknown model, got %d", resp.StatusCode)
	}

	resp = put(`{"backendUrl":"ftp://nope"}`)
	resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("Expected 400 for non-http backend, got %d", resp.StatusCode)
	}
}
