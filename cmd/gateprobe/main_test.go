package main

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/spf13/pflag"

	"github.com/shazhongcheng/TestGoServer/internal/config"
	"github.com/shazhongcheng/TestGoServer/pkg/client"
	"github.com/shazhongcheng/TestGoServer/pkg/gatemock"
	"github.com/shazhongcheng/TestGoServer/pkg/metrics"
	"github.com/shazhongcheng/TestGoServer/pkg/transport"
)

var quiet = slog.New(slog.NewTextHandler(io.Discard, nil))

func startGate(t *testing.T) string {
	t.Helper()
	gate := gatemock.New(&gatemock.Config{Logger: quiet})
	addr, err := gate.ListenTCP("127.0.0.1:0")
	if err != nil {
		t.Fatalf("ListenTCP() error = %v", err)
	}
	t.Cleanup(func() { gate.Close() })
	return addr.String()
}

func parseFlags(t *testing.T, args ...string) (*config.File, error) {
	t.Helper()
	opts := &options{}
	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
	opts.bindGlobal(fs)
	opts.bindLoad(fs)
	if err := fs.Parse(args); err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	return opts.resolve(fs)
}

func TestResolveDefaults(t *testing.T) {
	f, err := parseFlags(t)
	if err != nil {
		t.Fatalf("resolve() error = %v", err)
	}
	if f.Target.Address != config.DefaultAddress || f.Load.Clients != 500 {
		t.Errorf("defaults = %+v / %+v", f.Target, f.Load)
	}
}

func TestResolveFlagsOverrideFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "probe.yaml")
	content := "target:\n  address: file:1\nload:\n  clients: 7\n  rounds: 4\n"
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	f, err := parseFlags(t, "--config", path, "--clients", "3", "--ws-json", "--spawn-delay", "5ms", "--s3-endpoint", "http://minio:9000")
	if err != nil {
		t.Fatalf("resolve() error = %v", err)
	}
	if f.Target.Address != "file:1" {
		t.Errorf("Address = %q, want the file value", f.Target.Address)
	}
	if f.Load.Clients != 3 {
		t.Errorf("Clients = %d, want the flag value 3", f.Load.Clients)
	}
	if f.Load.Rounds != 4 {
		t.Errorf("Rounds = %d, want the file value 4", f.Load.Rounds)
	}
	if f.Load.SpawnDelay.Std() != 5*time.Millisecond {
		t.Errorf("SpawnDelay = %v", f.Load.SpawnDelay)
	}
	if !f.Target.WebSocketJSON {
		t.Error("--ws-json was not applied")
	}
	if !f.Report.S3.UsePathStyle {
		t.Error("--s3-endpoint should select path-style addressing")
	}
}

func TestResolveRejectsInvalidValues(t *testing.T) {
	tests := [][]string{
		{"--network", "udp"},
		{"--clients", "0"},
		{"--dwell-min", "3s", "--dwell-max", "1s"},
		{"--log-level", "loud"},
		{"--config", "missing.yaml"},
	}
	for _, args := range tests {
		if _, err := parseFlags(t, args...); err == nil {
			t.Errorf("resolve(%v) error = nil", args)
		}
	}
}

func TestRunLoadAgainstMockGate(t *testing.T) {
	addr := startGate(t)
	f, err := parseFlags(t,
		"--addr", addr,
		"--clients", "4",
		"--spawn-delay", "0",
		"--rounds", "2",
		"--round-interval", "0",
		"--dwell-min", "0",
		"--dwell-max", "0",
		"--resume-cycles", "1",
		"--ticket-store",
		"--json", "-",
		"--log-level", "error",
	)
	if err != nil {
		t.Fatal(err)
	}

	var stdout, stderr bytes.Buffer
	if err := runLoad(context.Background(), f, &stdout, &stderr); err != nil {
		t.Fatalf("runLoad() error = %v\n%s", err, stderr.String())
	}

	var report struct {
		Latency struct {
			Samples int `json:"samples"`
		} `json:"latency_ms"`
		Failures struct {
			Completed int `json:"completed"`
		} `json:"failures"`
	}
	if err := json.Unmarshal(stdout.Bytes(), &report); err != nil {
		t.Fatalf("stdout is not the JSON report: %v\n%s", err, stdout.String())
	}
	if report.Latency.Samples != 12 || report.Failures.Completed != 4 {
		t.Errorf("report = %+v", report)
	}
	if !strings.Contains(stderr.String(), "=== Gate Load Test ===") {
		t.Errorf("summary was not written to stderr:\n%s", stderr.String())
	}
}

func TestRunLoadWritesReportFile(t *testing.T) {
	addr := startGate(t)
	out := filepath.Join(t.TempDir(), "report.json")
	f, err := parseFlags(t, "--addr", addr, "--clients", "2", "--dwell-min", "0", "--dwell-max", "0",
		"--json", out, "--metrics-addr", "127.0.0.1:0", "--log-level", "error")
	if err != nil {
		t.Fatal(err)
	}

	var stdout, stderr bytes.Buffer
	if err := runLoad(context.Background(), f, &stdout, &stderr); err != nil {
		t.Fatalf("runLoad() error = %v", err)
	}
	if !strings.Contains(stdout.String(), "RTT (load player data, 2 samples)") {
		t.Errorf("summary:\n%s", stdout.String())
	}
	data, err := os.ReadFile(out)
	if err != nil || !json.Valid(data) {
		t.Errorf("report file = %q, %v", data, err)
	}
	if !strings.Contains(stderr.String(), "/metrics") {
		t.Errorf("metrics address not announced:\n%s", stderr.String())
	}
}

func TestMetricsRouter(t *testing.T) {
	rec := metrics.New()
	rec.RecordConnect(true)
	srv := httptest.NewServer(metricsRouter(rec))
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/metrics")
	if err != nil {
		t.Fatal(err)
	}
	body, _ := io.ReadAll(resp.Body)
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK || !strings.Contains(string(body), "gateprobe_connects_total") {
		t.Errorf("GET /metrics = %d\n%s", resp.StatusCode, body)
	}

	resp, err = http.Get(srv.URL + "/healthz")
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("GET /healthz = %d", resp.StatusCode)
	}
}

func TestConsoleSession(t *testing.T) {
	addr := startGate(t)
	var out bytes.Buffer
	c := &console{
		engine: client.New(&client.Config{
			Transport:         &transport.Options{Address: addr, DialTimeout: time.Second},
			HeartbeatInterval: time.Hour,
			Logger:            quiet,
		}),
		in:      strings.NewReader("load\nreconnect\nload\nstate\nbogus\nclose\nload\nquit\nload\n"),
		out:     &out,
		logger:  quiet,
		account: "test1",
		timeout: 2 * time.Second,
	}

	if err := c.run(context.Background()); err != nil {
		t.Fatalf("run() error = %v", err)
	}

	got := out.String()
	for _, want := range []string{
		"logged in as test1",
		"player data loaded in",
		"resumed session",
		"phase=Active",
		consoleHelp,
		"closed",
		"G005",
	} {
		if !strings.Contains(got, want) {
			t.Errorf("console output missing %q:\n%s", want, got)
		}
	}
	if n := strings.Count(got, "player data loaded in"); n != 2 {
		t.Errorf("player data loaded %d times, want 2 (load after quit must not run)", n)
	}
}

func TestConsoleConnectFailure(t *testing.T) {
	c := &console{
		engine: client.New(&client.Config{
			Transport: &transport.Options{Address: "127.0.0.1:1", DialTimeout: 200 * time.Millisecond},
			Logger:    quiet,
		}),
		in:     strings.NewReader("quit\n"),
		out:    io.Discard,
		logger: quiet,
	}
	if err := c.run(context.Background()); err == nil {
		t.Error("run() error = nil for an unreachable gate")
	}
}

func TestVersionShort(t *testing.T) {
	cmd := versionCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetArgs([]string{"--short"})
	if err := cmd.Execute(); err != nil {
		t.Fatal(err)
	}
	if strings.TrimSpace(out.String()) != version {
		t.Errorf("version --short = %q", out.String())
	}
}
