package server

import (
	"context"
	"encoding/json"
	"errors"
	"net"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/ayusman/gesturebench/internal/app"
	"github.com/ayusman/gesturebench/internal/gesture"
	"github.com/ayusman/gesturebench/internal/store"
	"github.com/ayusman/gesturebench/internal/workflow"
)

func TestAPI_RunWorkflow(t *testing.T) {
	s, err := store.New(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("store.New() error = %v", err)
	}
	defer s.Close()

	// Record a batch the way a benchmark session does.
	at := time.Now().UTC()
	batch := &workflow.BatchResult{ID: "batch-7", StartedAt: at}
	sink := s.Sink()
	if err := sink.Begin(batch); err != nil {
		t.Fatalf("Begin() error = %v", err)
	}
	run := workflow.RunResult{
		Workflow: "counting-1",
		Family:   "counting",
		Summary: workflow.Summary{
			Workflow:  "counting-1",
			Outcome:   workflow.OutcomeCompleted,
			StartedAt: at,
			EndedAt:   at.Add(time.Second),
			Elapsed:   time.Second,
			StepsDone: 2,
			Steps:     2,
		},
	}
	batch.Runs = append(batch.Runs, run)
	if err := sink.Run(batch, run); err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	ts := httptest.NewServer(New(Config{Store: s}))
	defer ts.Close()
	client := ts.Client()

	resp, err := client.Get(ts.URL + "/api/batches/batch-7")
	if err != nil {
		t.Fatalf("GET /api/batches/batch-7 error = %v", err)
	}
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("GET status = %d, want %d", resp.StatusCode, http.StatusOK)
	}
	var detail struct {
		ID      string `json:"id"`
		RunList []struct {
			ID       int64  `json:"id"`
			Workflow string `json:"workflow"`
		} `json:"run_list"`
	}
	json.NewDecoder(resp.Body).Decode(&detail)
	resp.Body.Close()

	if len(detail.RunList) != 1 || detail.RunList[0].Workflow != "counting-1" {
		t.Fatalf("unexpected batch detail: %+v", detail)
	}

	resp, _ = client.Get(ts.URL + "/api/runs/" + strconv.FormatInt(detail.RunList[0].ID, 10) + "/errors")
	if resp.StatusCode != http.StatusOK {
		t.Errorf("GET errors status = %d, want %d", resp.StatusCode, http.StatusOK)
	}
	resp.Body.Close()
}

func TestHub_StreamsStatus(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}

	hub := NewHub(nil)
	hub.Publish(app.Status{Workflow: "posture-1", Raw: gesture.Unknown, Total: 13})

	ts := httptest.NewServer(New(Config{Hub: hub}))
	defer ts.Close()

	url := "ws" + strings.TrimPrefix(ts.URL, "http") + "/api/ws"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial error = %v", err)
	}
	defer conn.Close()

	read := func() map[string]any {
		t.Helper()
		conn.SetReadDeadline(time.Now().Add(2 * time.Second))
		_, msg, err := conn.ReadMessage()
		if err != nil {
			t.Fatalf("read error = %v", err)
		}
		var m map[string]any
		if err := json.Unmarshal(msg, &m); err != nil {
			t.Fatalf("decode error = %v", err)
		}
		return m
	}

	// The latest status is replayed on connect.
	if got := read(); got["raw"] != "UNKNOWN" {
		t.Errorf("first message raw = %v, want UNKNOWN", got["raw"])
	}

	waitFor(t, func() bool { return hub.Clients() == 1 })
	hub.Publish(app.Status{Workflow: "posture-1", Raw: gesture.Next, Accepted: true, Emitted: gesture.Next, Step: 1, Total: 13})

	got := read()
	if got["emitted"] != "NEXT" || got["step"] != float64(1) {
		t.Errorf("unexpected status message: %v", got)
	}

	conn.Close()
	waitFor(t, func() bool { return hub.Clients() == 0 })
}

func TestServer_ListenAndServe(t *testing.T) {
	l, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen error = %v", err)
	}
	addr := l.Addr().String()
	l.Close()

	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() { errCh <- New(Config{}).ListenAndServe(ctx, addr) }()

	waitFor(t, func() bool {
		resp, err := http.Get("http://" + addr + "/api/health")
		if err != nil {
			return false
		}
		resp.Body.Close()
		return resp.StatusCode == http.StatusOK
	})

	cancel()
	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			t.Errorf("ListenAndServe() error = %v", err)
		}
	case <-time.After(3 * time.Second):
		t.Fatal("server did not shut down")
	}
}

func TestListen_AddressInUse(t *testing.T) {
	taken, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen error = %v", err)
	}
	defer taken.Close()

	if ln, err := Listen(taken.Addr().String()); err == nil {
		ln.Close()
		t.Fatal("Listen() on a taken address succeeded")
	}

	err = New(Config{}).ListenAndServe(context.Background(), taken.Addr().String())
	if err == nil {
		t.Fatal("ListenAndServe() on a taken address succeeded")
	}
}

func TestServer_ServeListener(t *testing.T) {
	ln, err := Listen("127.0.0.1:0")
	if err != nil {
		t.Fatalf("Listen() error = %v", err)
	}
	addr := ln.Addr().String()

	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() { errCh <- New(Config{}).Serve(ctx, ln) }()

	resp, err := http.Get("http://" + addr + "/api/health")
	if err != nil {
		t.Fatalf("GET /api/health error = %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("status = %d, want %d", resp.StatusCode, http.StatusOK)
	}

	cancel()
	select {
	case err := <-errCh:
		if err != nil {
			t.Errorf("Serve() error = %v", err)
		}
	case <-time.After(3 * time.Second):
		t.Fatal("server did not shut down")
	}
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatal("condition not met before deadline")
}
