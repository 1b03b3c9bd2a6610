package loadtest

import (
	"encoding/json"
	"fmt"
	"io"
	"runtime"
	"time"

	"github.com/shazhongcheng/TestGoServer/pkg/client"
)

// ReportVersion is the schema version of Report.
const ReportVersion = "1"

// Report is the result of one load run.
type Report struct {
	Version   string       `json:"version"`
	Run       RunInfo      `json:"run"`
	Workload  WorkloadInfo `json:"workload"`
	Latency   LatencyInfo  `json:"latency_ms"`
	Failures  FailureInfo  `json:"failures"`
	Engines   client.Stats `json:"engines"`
	ElapsedMS float64      `json:"elapsed_ms"`

	// Table holds the latency summary as durations.
	Table Table `json:"-"`
}

// RunInfo describes the host and target of a run.
type RunInfo struct {
	Timestamp string `json:"timestamp"`
	Target    string `json:"target,omitempty"`
	Go        string `json:"go"`
	OS        string `json:"os"`
	Arch      string `json:"arch"`
	CPUCount  int    `json:"cpu_count"`
}

// WorkloadInfo echoes the run configuration.
type WorkloadInfo struct {
	Clients          int   `json:"clients"`
	Spawned          int   `json:"spawned"`
	Rounds           int   `json:"rounds"`
	ResumeCycles     int   `json:"resume_cycles"`
	SpawnDelayMS     int64 `json:"spawn_delay_ms"`
	RoundIntervalMS  int64 `json:"round_interval_ms"`
	LoginTimeoutMS   int64 `json:"login_timeout_ms"`
	RequestTimeoutMS int64 `json:"request_timeout_ms"`
}

// LatencyInfo is the latency table in milliseconds.
type LatencyInfo struct {
	Samples int     `json:"samples"`
	Min     float64 `json:"min"`
	P50     float64 `json:"p50"`
	P95     float64 `json:"p95"`
	P99     float64 `json:"p99"`
	Max     float64 `json:"max"`
	Mean    float64 `json:"mean"`
}

// FailureInfo aggregates engine failures.
type FailureInfo struct {
	ConnectFailures uint64 `json:"connect_failures"`
	LoginTimeouts   uint64 `json:"login_timeouts"`
	LoginErrors     uint64 `json:"login_errors"`
	RequestTimeouts uint64 `json:"request_timeouts"`
	RequestErrors   uint64 `json:"request_errors"`
	ResumeFailures  uint64 `json:"resume_failures"`
	Completed       uint64 `json:"completed"`
}

// Total returns the number of failed engines and rounds.
func (f FailureInfo) Total() uint64 {
	return f.ConnectFailures + f.LoginTimeouts + f.LoginErrors + f.RequestTimeouts + f.RequestErrors + f.ResumeFailures
}

func (h *Harness) buildReport(r *run, spawned int, elapsed time.Duration) *Report {
	table := NewTable(r.samples.Sorted())

	r.mu.Lock()
	engines := r.engines
	r.mu.Unlock()

	return &Report{
		Version: ReportVersion,
		Run: RunInfo{
			Timestamp: h.now().UTC().Format(time.RFC3339Nano),
			Target:    h.target,
			Go:        runtime.Version(),
			OS:        runtime.GOOS,
			Arch:      runtime.GOARCH,
			CPUCount:  runtime.NumCPU(),
		},
		Workload: WorkloadInfo{
			Clients:          h.cfg.Clients,
			Spawned:          spawned,
			Rounds:           h.cfg.Rounds,
			ResumeCycles:     h.cfg.ResumeCycles,
			SpawnDelayMS:     h.cfg.SpawnDelay.Milliseconds(),
			RoundIntervalMS:  h.cfg.RoundInterval.Milliseconds(),
			LoginTimeoutMS:   h.cfg.LoginTimeout.Milliseconds(),
			RequestTimeoutMS: h.cfg.RequestTimeout.Milliseconds(),
		},
		Latency: LatencyInfo{
			Samples: table.Samples,
			Min:     ms(table.Min),
			P50:     ms(table.P50),
			P95:     ms(table.P95),
			P99:     ms(table.P99),
			Max:     ms(table.Max),
			Mean:    ms(table.Mean),
		},
		Failures: FailureInfo{
			ConnectFailures: r.failures.connectFailures.Load(),
			LoginTimeouts:   r.failures.loginTimeouts.Load(),
			LoginErrors:     r.failures.loginErrors.Load(),
			RequestTimeouts: r.failures.requestTimeouts.Load(),
			RequestErrors:   r.failures.requestErrors.Load(),
			ResumeFailures:  r.failures.resumeFailures.Load(),
			Completed:       r.failures.completed.Load(),
		},
		Engines:   engines,
		ElapsedMS: ms(elapsed),
		Table:     table,
	}
}

func ms(d time.Duration) float64 {
	return float64(d) / float64(time.Millisecond)
}

// WriteSummary writes a human-readable summary of the report.
func WriteSummary(w io.Writer, report *Report) {
	fmt.Fprintln(w, "=== Gate Load Test ===")
	if report.Run.Target != "" {
		fmt.Fprintf(w, "Target: %s\n", report.Run.Target)
	}
	fmt.Fprintf(w, "Clients: %d (spawned %d)\n", report.Workload.Clients, report.Workload.Spawned)
	fmt.Fprintf(w, "Rounds: %d, resume cycles: %d\n", report.Workload.Rounds, report.Workload.ResumeCycles)
	fmt.Fprintf(w, "Elapsed: %s\n", time.Duration(report.ElapsedMS*float64(time.Millisecond)).Round(time.Millisecond))
	fmt.Fprintln(w)

	f := report.Failures
	fmt.Fprintf(w, "Completed engines: %d\n", f.Completed)
	fmt.Fprintf(w, "Failures: %d\n", f.Total())
	if f.Total() > 0 {
		fmt.Fprintf(w, "  connect:          %d\n", f.ConnectFailures)
		fmt.Fprintf(w, "  login timeout:    %d\n", f.LoginTimeouts)
		fmt.Fprintf(w, "  login error:      %d\n", f.LoginErrors)
		fmt.Fprintf(w, "  request timeout:  %d\n", f.RequestTimeouts)
		fmt.Fprintf(w, "  request error:    %d\n", f.RequestErrors)
		fmt.Fprintf(w, "  resume:           %d\n", f.ResumeFailures)
	}
	fmt.Fprintln(w)

	if report.Latency.Samples == 0 {
		fmt.Fprintln(w, "No latency samples recorded.")
	} else {
		fmt.Fprintf(w, "RTT (load player data, %d samples):\n", report.Latency.Samples)
		fmt.Fprintf(w, "  min:  %.2f ms\n", report.Latency.Min)
		fmt.Fprintf(w, "  p50:  %.2f ms\n", report.Latency.P50)
		fmt.Fprintf(w, "  p95:  %.2f ms\n", report.Latency.P95)
		fmt.Fprintf(w, "  p99:  %.2f ms\n", report.Latency.P99)
		fmt.Fprintf(w, "  max:  %.2f ms\n", report.Latency.Max)
		fmt.Fprintf(w, "  mean: %.2f ms\n", report.Latency.Mean)
	}
	fmt.Fprintln(w)

	e := report.Engines
	fmt.Fprintln(w, "Engines (all connections):")
	fmt.Fprintf(w, "  envelopes: %d sent, %d received\n", e.Sent, e.Received)
	fmt.Fprintf(w, "  bytes:     %d sent, %d received\n", e.BytesSent, e.BytesReceived)
	fmt.Fprintf(w, "  heartbeat: %d sent, %d acked\n", e.HeartbeatsSent, e.HeartbeatAcks)
	fmt.Fprintf(w, "  errors:    %d decode, %d server\n", e.DecodeErrors, e.ServerErrors)
}

// WriteJSON writes the report as indented JSON.
func WriteJSON(w io.Writer, report *Report) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(report)
}
