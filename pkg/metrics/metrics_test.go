package metrics

import (
	"io"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestRecorderCounts(t *testing.T) {
	reg := prometheus.NewRegistry()
	r := New(WithRegistry(reg), WithNamespace("test"))

	r.RecordConnect(true)
	r.RecordConnect(true)
	r.RecordConnect(false)
	r.RecordDisconnect()
	r.RecordSent("LoginReq", 10)
	r.RecordSent("HeartbeatReq", 4)
	r.RecordReceived("LoginRsp", 6)
	r.RecordDecodeError()
	r.RecordHeartbeat()
	r.RecordRequest("player_data", OutcomeOK, 20*time.Millisecond)
	r.RecordRequest("player_data", OutcomeTimeout, 0)
	r.ClientStarted()

	tests := []struct {
		name string
		got  float64
		want float64
	}{
		{"connects ok", testutil.ToFloat64(r.connects.WithLabelValues("ok")), 2},
		{"connects error", testutil.ToFloat64(r.connects.WithLabelValues("error")), 1},
		{"active connections", testutil.ToFloat64(r.activeConns), 1},
		{"sent login", testutil.ToFloat64(r.envelopesSent.WithLabelValues("LoginReq")), 1},
		{"bytes sent", testutil.ToFloat64(r.bytesSent), 14},
		{"bytes received", testutil.ToFloat64(r.bytesRecv), 6},
		{"decode errors", testutil.ToFloat64(r.decodeErrors), 1},
		{"heartbeats", testutil.ToFloat64(r.heartbeats), 1},
		{"requests ok", testutil.ToFloat64(r.requestOutcomes.WithLabelValues("player_data", OutcomeOK)), 1},
		{"requests timeout", testutil.ToFloat64(r.requestOutcomes.WithLabelValues("player_data", OutcomeTimeout)), 1},
		{"active clients", testutil.ToFloat64(r.activeClients), 1},
	}
	for _, tc := range tests {
		if tc.got != tc.want {
			t.Errorf("%s = %v, want %v", tc.name, tc.got, tc.want)
		}
	}

	if n := testutil.CollectAndCount(r.requestLatency); n != 1 {
		t.Errorf("latency series = %d, want 1", n)
	}
}

func TestNilRecorder(t *testing.T) {
	var r *Recorder
	r.RecordConnect(true)
	r.RecordDisconnect()
	r.RecordSent("x", 1)
	r.RecordReceived("x", 1)
	r.RecordDecodeError()
	r.RecordHeartbeat()
	r.RecordRequest("x", OutcomeOK, time.Second)
	r.ClientStarted()
	r.ClientFinished()
	if r.Handler() == nil {
		t.Error("Handler() = nil for a nil recorder")
	}
}

func TestHandlerServesRegistry(t *testing.T) {
	reg := prometheus.NewRegistry()
	r := New(WithRegistry(reg))
	r.RecordHeartbeat()

	rec := httptest.NewRecorder()
	r.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
	body, _ := io.ReadAll(rec.Result().Body)
	if !strings.Contains(string(body), "gateprobe_heartbeats_sent_total 1") {
		t.Errorf("metrics output missing heartbeat counter:\n%s", body)
	}
}
