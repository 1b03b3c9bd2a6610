package main

import (
	"log/slog"
	"time"

	"github.com/spf13/pflag"

	"github.com/shazhongcheng/TestGoServer/internal/config"
)

// options holds every flag. Flags override the config file only when set
// on the command line.
type options struct {
	configPath string
	logLevel   string

	addr    string
	network string
	wsPath  string
	wsJSON  bool

	clients        int
	spawnDelay     time.Duration
	rounds         int
	roundInterval  time.Duration
	dwellMin       time.Duration
	dwellMax       time.Duration
	loginTimeout   time.Duration
	requestTimeout time.Duration
	resumeCycles   int
	ticketStore    bool
	seed           uint64

	jsonOut     string
	s3Bucket    string
	s3Key       string
	s3Region    string
	s3Endpoint  string
	metricsAddr string
}

func (o *options) bindGlobal(fs *pflag.FlagSet) {
	fs.StringVarP(&o.configPath, "config", "c", "", "Config file (.json, .yaml or .yml)")
	fs.StringVar(&o.logLevel, "log-level", "info", "Log level: debug, info, warn or error")
	fs.StringVar(&o.addr, "addr", config.DefaultAddress, "Gate address as host:port")
	fs.StringVar(&o.network, "network", "tcp", `Transport: "tcp" or "ws"`)
	fs.StringVar(&o.wsPath, "ws-path", "/ws", "WebSocket endpoint path")
	fs.BoolVar(&o.wsJSON, "ws-json", false, "Send protojson envelopes in WebSocket text frames")
}

func (o *options) bindLoad(fs *pflag.FlagSet) {
	fs.IntVarP(&o.clients, "clients", "n", 500, "Concurrent engines")
	fs.DurationVar(&o.spawnDelay, "spawn-delay", 2*time.Millisecond, "Delay between starting two engines")
	fs.IntVar(&o.rounds, "rounds", 1, "Player-data round trips per engine")
	fs.DurationVar(&o.roundInterval, "round-interval", time.Second, "Pause between rounds")
	fs.DurationVar(&o.dwellMin, "dwell-min", time.Second, "Minimum time an engine stays online after its rounds")
	fs.DurationVar(&o.dwellMax, "dwell-max", 2*time.Second, "Maximum time an engine stays online after its rounds")
	fs.DurationVar(&o.loginTimeout, "login-timeout", 5*time.Second, "Login wait per engine")
	fs.DurationVar(&o.requestTimeout, "request-timeout", 30*time.Second, "Wait per round and per resume")
	fs.IntVar(&o.resumeCycles, "resume-cycles", 0, "Close, reconnect and resume cycles per engine")
	fs.BoolVar(&o.ticketStore, "ticket-store", false, "Resume on fresh engines seeded from a shared ticket store")
	fs.Uint64Var(&o.seed, "seed", 0, "Seed for dwell times (0 picks one)")
	fs.StringVar(&o.jsonOut, "json", "", `Write the JSON report to this path ("-" for stdout)`)
	fs.StringVar(&o.s3Bucket, "s3-bucket", "", "Upload the JSON report to this S3 bucket")
	fs.StringVar(&o.s3Key, "s3-key", "", "S3 object key ({timestamp} is expanded)")
	fs.StringVar(&o.s3Region, "s3-region", "", "S3 region (default $AWS_REGION or us-east-1)")
	fs.StringVar(&o.s3Endpoint, "s3-endpoint", "", "S3 endpoint override, e.g. a MinIO URL")
	fs.StringVar(&o.metricsAddr, "metrics-addr", "", "Serve Prometheus metrics on this address")
}

// resolve loads the config file, when given, and applies flags the user
// set.
func (o *options) resolve(fs *pflag.FlagSet) (*config.File, error) {
	f := config.New()
	if o.configPath != "" {
		loaded, err := config.Load(o.configPath)
		if err != nil {
			return nil, err
		}
		f = loaded
	}

	set := fs.Changed
	if set("log-level") {
		f.Log.Level = o.logLevel
	}
	if set("addr") {
		f.Target.Address = o.addr
	}
	if set("network") {
		f.Target.Network = o.network
	}
	if set("ws-path") {
		f.Target.Path = o.wsPath
	}
	if set("ws-json") {
		f.Target.WebSocketJSON = o.wsJSON
	}

	l := &f.Load
	if set("clients") {
		l.Clients = o.clients
	}
	if set("spawn-delay") {
		l.SpawnDelay = config.Duration(o.spawnDelay)
	}
	if set("rounds") {
		l.Rounds = o.rounds
	}
	if set("round-interval") {
		l.RoundInterval = config.Duration(o.roundInterval)
	}
	if set("dwell-min") {
		l.DwellMin = config.Duration(o.dwellMin)
	}
	if set("dwell-max") {
		l.DwellMax = config.Duration(o.dwellMax)
	}
	if set("login-timeout") {
		l.LoginTimeout = config.Duration(o.loginTimeout)
	}
	if set("request-timeout") {
		l.RequestTimeout = config.Duration(o.requestTimeout)
	}
	if set("resume-cycles") {
		l.ResumeCycles = o.resumeCycles
	}
	if set("ticket-store") {
		l.UseTicketStore = o.ticketStore
	}
	if set("seed") {
		l.Seed = o.seed
	}

	r := &f.Report
	if set("json") {
		r.JSON = o.jsonOut
	}
	if set("s3-bucket") {
		r.S3.Bucket = o.s3Bucket
	}
	if set("s3-key") {
		r.S3.Key = o.s3Key
	}
	if set("s3-region") {
		r.S3.Region = o.s3Region
	}
	if set("s3-endpoint") {
		r.S3.Endpoint = o.s3Endpoint
		r.S3.UsePathStyle = true
	}
	if set("metrics-addr") {
		f.Metrics.Address = o.metricsAddr
	}

	if err := f.Validate(); err != nil {
		return nil, err
	}
	return f, nil
}

// level returns the configured log level. resolve has validated it.
func level(f *config.File) slog.Level {
	lvl, _ := f.LogLevel()
	return lvl
}
