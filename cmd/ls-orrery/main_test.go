package main

import (
	"bytes"
	"context"
	"encoding/json"
	"net"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/litescript/ls-orrery/internal/bodies"
	"github.com/litescript/ls-orrery/internal/camera"
	"github.com/litescript/ls-orrery/internal/config"
	"github.com/litescript/ls-orrery/internal/engine"
	"github.com/litescript/ls-orrery/internal/events"
	"github.com/litescript/ls-orrery/internal/logging"
	"github.com/litescript/ls-orrery/internal/metrics"
)

func TestParseFlags(t *testing.T) {
	f, err := parseFlags([]string{"--fps", "500", "--no-color", "--summary", "--frames", "0", "--metrics-addr", ":9100"})
	if err != nil {
		t.Fatal(err)
	}
	if !f.headless() || f.frames != 1 {
		t.Errorf("flags = %+v", f)
	}

	cfg, err := config.Load("")
	if err != nil {
		t.Fatal(err)
	}
	f.apply(cfg)
	if cfg.Render.FPS != config.MaxFPS {
		t.Errorf("fps = %d, want %d", cfg.Render.FPS, config.MaxFPS)
	}
	if cfg.Render.Color {
		t.Error("--no-color ignored")
	}
	if cfg.Metrics.Addr != ":9100" {
		t.Errorf("metrics addr = %q", cfg.Metrics.Addr)
	}
}

func TestParseFlagsDefaultsToTUI(t *testing.T) {
	f, err := parseFlags(nil)
	if err != nil {
		t.Fatal(err)
	}
	if f.headless() || f.frames != defaultFrames {
		t.Errorf("flags = %+v", f)
	}
	if _, err := parseFlags([]string{"--bogus"}); err == nil {
		t.Error("unknown flag accepted")
	}
}

func TestRunHeadlessSummary(t *testing.T) {
	var buf bytes.Buffer
	collector := metrics.NewCollector()
	run := headlessRun{frames: 30, fps: 30, mode: camera.ModeOrbit}
	snap, err := runHeadless(&buf, bodies.Default(), engine.DefaultOptions(), run, headlessOutput{summary: true}, collector)
	if err != nil {
		t.Fatal(err)
	}
	if snap.Frames != 30 {
		t.Errorf("frames = %d, want 30", snap.Frames)
	}
	out := buf.String()
	for _, want := range []string{"Orrery @", "Earth", "Triton", "Total: 20 bodies"} {
		if !strings.Contains(out, want) {
			t.Errorf("summary missing %q:\n%s", want, out)
		}
	}
}

func TestRunHeadlessSnapshotStdout(t *testing.T) {
	var buf bytes.Buffer
	run := headlessRun{frames: 5, fps: 30, mode: camera.ModeFree}
	if _, err := runHeadless(&buf, bodies.Default(), engine.DefaultOptions(), run, headlessOutput{snapshotPath: "-"}); err != nil {
		t.Fatal(err)
	}
	var got engine.SnapshotExport
	if err := json.Unmarshal(buf.Bytes(), &got); err != nil {
		t.Fatalf("stdout is not a snapshot: %v\n%s", err, buf.String())
	}
	if got.Frames != 5 || got.Camera.Mode != "free" {
		t.Errorf("snapshot frames=%d mode=%q", got.Frames, got.Camera.Mode)
	}
}

func TestRunHeadlessSnapshotFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "snap.json")
	var buf bytes.Buffer
	run := headlessRun{frames: 1, fps: 30}
	if _, err := runHeadless(&buf, bodies.Default(), engine.DefaultOptions(), run, headlessOutput{snapshotPath: path}); err != nil {
		t.Fatal(err)
	}
	if buf.Len() != 0 {
		t.Errorf("unexpected stdout: %q", buf.String())
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(data), `"bodies"`) {
		t.Errorf("file is not a snapshot: %s", data)
	}
}

func TestRunHeadlessASCII(t *testing.T) {
	var buf bytes.Buffer
	run := headlessRun{frames: 2, fps: 30}
	if _, err := runHeadless(&buf, bodies.Default(), engine.DefaultOptions(), run, headlessOutput{ascii: true}); err != nil {
		t.Fatal(err)
	}
	lines := strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")
	if len(lines) != asciiHeight {
		t.Errorf("frame has %d lines, want %d", len(lines), asciiHeight)
	}
	if !strings.ContainsRune(buf.String(), '☉') && !strings.ContainsAny(buf.String(), ".:-=+*#%@") {
		t.Error("frame shows no star")
	}
}

func TestServerRoutes(t *testing.T) {
	collector := metrics.NewCollector()
	hub := events.NewHub(events.Options{OnClients: collector.SetEventClients})
	defer hub.Close()
	store := &snapshotStore{}
	ts := httptest.NewServer(newServer("", collector, hub, store).Handler)
	defer ts.Close()

	get := func(path string) *http.Response {
		t.Helper()
		resp, err := http.Get(ts.URL + path)
		if err != nil {
			t.Fatalf("GET %s: %v", path, err)
		}
		resp.Body.Close()
		return resp
	}

	if resp := get("/healthz"); resp.StatusCode != http.StatusNoContent {
		t.Errorf("/healthz = %d", resp.StatusCode)
	}
	if resp := get("/snapshot"); resp.StatusCode != http.StatusServiceUnavailable {
		t.Errorf("/snapshot before publish = %d", resp.StatusCode)
	}

	var buf bytes.Buffer
	snap, err := runHeadless(&buf, bodies.Default(), engine.DefaultOptions(), headlessRun{frames: 1, fps: 30}, headlessOutput{})
	if err != nil {
		t.Fatal(err)
	}
	store.Set(snap)
	resp := get("/snapshot")
	if resp.StatusCode != http.StatusOK || resp.Header.Get("Content-Type") != "application/json" {
		t.Errorf("/snapshot = %d %q", resp.StatusCode, resp.Header.Get("Content-Type"))
	}
	if resp := get("/metrics"); resp.StatusCode != http.StatusOK {
		t.Errorf("/metrics = %d", resp.StatusCode)
	}
}

func TestServeHeadlessSnapshotUntilCancelled(t *testing.T) {
	collector := metrics.NewCollector()
	hub := events.NewHub(events.Options{})
	defer hub.Close()
	store := &snapshotStore{}

	var buf bytes.Buffer
	snap, err := runHeadless(&buf, bodies.Default(), engine.DefaultOptions(), headlessRun{frames: 3, fps: 30}, headlessOutput{}, collector)
	if err != nil {
		t.Fatal(err)
	}
	store.Set(snap)

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatal(err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	served := make(chan struct{})
	go func() {
		defer close(served)
		serve(ctx, newServer(ln.Addr().String(), collector, hub, store), ln, logging.Discard())
	}()

	resp, err := http.Get("http://" + ln.Addr().String() + "/snapshot")
	if err != nil {
		t.Fatalf("GET /snapshot: %v", err)
	}
	var got engine.SnapshotExport
	err = json.NewDecoder(resp.Body).Decode(&got)
	resp.Body.Close()
	if err != nil || got.Frames != 3 {
		t.Errorf("snapshot frames = %d, err = %v", got.Frames, err)
	}

	select {
	case <-served:
		t.Fatal("server stopped before cancellation")
	default:
	}
	cancel()
	select {
	case <-served:
	case <-time.After(shutdownTimeout + time.Second):
		t.Fatal("server still running after cancellation")
	}
}
