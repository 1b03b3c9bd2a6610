package config

import (
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/shazhongcheng/TestGoServer/internal/errors"
	"github.com/shazhongcheng/TestGoServer/pkg/client"
	"github.com/shazhongcheng/TestGoServer/pkg/loadtest"
	"github.com/shazhongcheng/TestGoServer/pkg/protocol"
	"github.com/shazhongcheng/TestGoServer/pkg/transport"
)

// Format is a config file encoding.
type Format string

const (
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
)

// DefaultAddress is the gate address used when none is configured.
const DefaultAddress = "127.0.0.1:9000"

// File is the gateprobe configuration file.
type File struct {
	// Target is the gate to probe.
	Target TargetConfig `json:"target" yaml:"target"`

	// Load is the workload run by "gateprobe load".
	Load LoadConfig `json:"load" yaml:"load"`

	// Client tunes every engine.
	Client ClientConfig `json:"client" yaml:"client"`

	// Report selects where results go.
	Report ReportConfig `json:"report" yaml:"report"`

	// Metrics configures the Prometheus endpoint.
	Metrics MetricsConfig `json:"metrics" yaml:"metrics"`

	// Log configures the slog handler.
	Log LogConfig `json:"log" yaml:"log"`

	path string
}

// TargetConfig names the gate endpoint.
type TargetConfig struct {
	// Address is the gate address as host:port.
	// Default: "127.0.0.1:9000".
	Address string `json:"address,omitempty" yaml:"address,omitempty"`

	// Network is "tcp" or "ws".
	// Default: "tcp".
	Network string `json:"network,omitempty" yaml:"network,omitempty"`

	// Path is the WebSocket endpoint path.
	// Default: "/ws".
	Path string `json:"path,omitempty" yaml:"path,omitempty"`

	// WebSocketJSON sends protojson envelopes in text frames.
	WebSocketJSON bool `json:"websocketJson,omitempty" yaml:"websocket_json,omitempty"`
}

// LoadConfig mirrors loadtest.Config.
type LoadConfig struct {
	Clients        int      `json:"clients,omitempty" yaml:"clients,omitempty"`
	SpawnDelay     Duration `json:"spawnDelay,omitempty" yaml:"spawn_delay,omitempty"`
	Rounds         int      `json:"rounds,omitempty" yaml:"rounds,omitempty"`
	RoundInterval  Duration `json:"roundInterval,omitempty" yaml:"round_interval,omitempty"`
	DwellMin       Duration `json:"dwellMin,omitempty" yaml:"dwell_min,omitempty"`
	DwellMax       Duration `json:"dwellMax,omitempty" yaml:"dwell_max,omitempty"`
	LoginTimeout   Duration `json:"loginTimeout,omitempty" yaml:"login_timeout,omitempty"`
	RequestTimeout Duration `json:"requestTimeout,omitempty" yaml:"request_timeout,omitempty"`
	ResumeCycles   int      `json:"resumeCycles,omitempty" yaml:"resume_cycles,omitempty"`
	AccountPrefix  string   `json:"accountPrefix,omitempty" yaml:"account_prefix,omitempty"`
	Seed           uint64   `json:"seed,omitempty" yaml:"seed,omitempty"`

	// UseTicketStore runs resume cycles on fresh engines seeded from a
	// shared ticket store.
	UseTicketStore bool `json:"useTicketStore,omitempty" yaml:"use_ticket_store,omitempty"`
}

// ClientConfig tunes the engine and its transport.
type ClientConfig struct {
	// HeartbeatInterval is the heartbeat period.
	// Default: 5s.
	HeartbeatInterval Duration `json:"heartbeatInterval,omitempty" yaml:"heartbeat_interval,omitempty"`

	// DialTimeout bounds each connect.
	// Default: 5s.
	DialTimeout Duration `json:"dialTimeout,omitempty" yaml:"dial_timeout,omitempty"`

	// WriteTimeout bounds each send.
	// Default: 10s.
	WriteTimeout Duration `json:"writeTimeout,omitempty" yaml:"write_timeout,omitempty"`

	// MaxMessageSize bounds inbound frames in bytes.
	// Default: transport.DefaultMaxMessageSize.
	MaxMessageSize int `json:"maxMessageSize,omitempty" yaml:"max_message_size,omitempty"`

	// Platform is sent in login requests: test, android, ios or pc.
	// Default: "test".
	Platform string `json:"platform,omitempty" yaml:"platform,omitempty"`
}

// ReportConfig selects report sinks.
type ReportConfig struct {
	// JSON is a path for the JSON report; "-" writes to stdout.
	JSON string `json:"json,omitempty" yaml:"json,omitempty"`

	// S3 uploads the report when Bucket is set.
	S3 S3Config `json:"s3,omitempty" yaml:"s3,omitempty"`
}

// S3Config names the report bucket.
type S3Config struct {
	Bucket       string `json:"bucket,omitempty" yaml:"bucket,omitempty"`
	Key          string `json:"key,omitempty" yaml:"key,omitempty"`
	Region       string `json:"region,omitempty" yaml:"region,omitempty"`
	Endpoint     string `json:"endpoint,omitempty" yaml:"endpoint,omitempty"`
	UsePathStyle bool   `json:"usePathStyle,omitempty" yaml:"use_path_style,omitempty"`
}

// MetricsConfig configures the Prometheus endpoint.
type MetricsConfig struct {
	// Address serves /metrics when set, e.g. ":9100".
	Address string `json:"address,omitempty" yaml:"address,omitempty"`
}

// LogConfig configures logging.
type LogConfig struct {
	// Level is debug, info, warn or error.
	// Default: "info".
	Level string `json:"level,omitempty" yaml:"level,omitempty"`
}

// New returns a File holding the defaults.
func New() *File {
	lt := loadtest.DefaultConfig()
	return &File{
		Target: TargetConfig{
			Address: DefaultAddress,
			Network: string(transport.NetworkTCP),
			Path:    "/ws",
		},
		Load: LoadConfig{
			Clients:        lt.Clients,
			SpawnDelay:     Duration(lt.SpawnDelay),
			Rounds:         lt.Rounds,
			RoundInterval:  Duration(lt.RoundInterval),
			DwellMin:       Duration(lt.DwellMin),
			DwellMax:       Duration(lt.DwellMax),
			LoginTimeout:   Duration(lt.LoginTimeout),
			RequestTimeout: Duration(lt.RequestTimeout),
			AccountPrefix:  lt.AccountPrefix,
		},
		Client: ClientConfig{
			HeartbeatInterval: Duration(5 * time.Second),
			DialTimeout:       Duration(5 * time.Second),
			WriteTimeout:      Duration(10 * time.Second),
			MaxMessageSize:    transport.DefaultMaxMessageSize,
			Platform:          protocol.PlatformTest.String(),
		},
		Log: LogConfig{Level: "info"},
	}
}

// FormatOf picks the encoding from the file extension.
func FormatOf(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		return FormatJSON, nil
	case ".yaml", ".yml":
		return FormatYAML, nil
	}
	return "", errors.New("G023").WithDetail("Cannot tell the format of " + path + ".")
}

// Load reads, defaults and validates a config file. Values absent from the
// file keep their defaults.
func Load(path string) (*File, error) {
	format, err := FormatOf(path)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.New("G020").WithDetail("No config file at " + path + ".")
		}
		return nil, errors.New("G021").Wrap(err)
	}

	f, err := Parse(data, format)
	if err != nil {
		return nil, err
	}
	f.path = path
	return f, nil
}

// Parse decodes data over the defaults and validates the result.
func Parse(data []byte, format Format) (*File, error) {
	f := New()
	var err error
	switch format {
	case FormatJSON:
		err = json.Unmarshal(data, f)
	case FormatYAML:
		err = yaml.Unmarshal(data, f)
	default:
		return nil, errors.New("G023").WithDetail("Unknown format " + string(format) + ".")
	}
	if err != nil {
		return nil, errors.New("G021").
			WithDetail("Failed to parse " + string(format) + ": " + err.Error())
	}
	if err := f.Validate(); err != nil {
		return nil, err
	}
	return f, nil
}

// SaveTo writes the file in the format its extension names.
func (f *File) SaveTo(path string) error {
	format, err := FormatOf(path)
	if err != nil {
		return err
	}
	var data []byte
	if format == FormatJSON {
		data, err = json.MarshalIndent(f, "", "  ")
		data = append(data, '\n')
	} else {
		data, err = yaml.Marshal(f)
	}
	if err != nil {
		return errors.New("G021").Wrap(err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return errors.New("G041").Wrap(err)
	}
	f.path = path
	return nil
}

// Path returns the path the file was loaded from or saved to.
func (f *File) Path() string {
	return f.path
}

// Validate checks values the engine and harness cannot default.
func (f *File) Validate() error {
	invalid := func(detail string) error {
		return errors.New("G022").WithDetail(detail)
	}
	switch transport.Network(f.Target.Network) {
	case transport.NetworkTCP, transport.NetworkWebSocket:
	default:
		return invalid(`target.network must be "tcp" or "ws", got "` + f.Target.Network + `"`)
	}
	if f.Target.Address == "" {
		return invalid("target.address must be set")
	}
	if _, err := protocol.ParsePlatform(f.Client.Platform); err != nil {
		return invalid(err.Error())
	}
	if _, err := f.LogLevel(); err != nil {
		return invalid("log.level: " + err.Error())
	}
	if f.Client.MaxMessageSize < 0 {
		return invalid("client.maxMessageSize must be >= 0")
	}
	if err := f.Harness().Validate(); err != nil {
		return invalid(err.Error())
	}
	return nil
}

// LogLevel parses Log.Level.
func (f *File) LogLevel() (slog.Level, error) {
	var level slog.Level
	if f.Log.Level == "" {
		return slog.LevelInfo, nil
	}
	err := level.UnmarshalText([]byte(f.Log.Level))
	return level, err
}

// Harness returns the workload as a loadtest.Config.
func (f *File) Harness() *loadtest.Config {
	l := f.Load
	return &loadtest.Config{
		Clients:        l.Clients,
		SpawnDelay:     l.SpawnDelay.Std(),
		Rounds:         l.Rounds,
		RoundInterval:  l.RoundInterval.Std(),
		DwellMin:       l.DwellMin.Std(),
		DwellMax:       l.DwellMax.Std(),
		LoginTimeout:   l.LoginTimeout.Std(),
		RequestTimeout: l.RequestTimeout.Std(),
		ResumeCycles:   l.ResumeCycles,
		AccountPrefix:  l.AccountPrefix,
		Seed:           l.Seed,
	}
}

// Transport returns the dial options for Target.
func (f *File) Transport() *transport.Options {
	opts := transport.DefaultOptions()
	opts.Network = transport.Network(f.Target.Network)
	opts.Address = f.Target.Address
	if f.Target.Path != "" {
		opts.Path = f.Target.Path
	}
	opts.TextFrames = f.Target.WebSocketJSON
	if f.Client.DialTimeout > 0 {
		opts.DialTimeout = f.Client.DialTimeout.Std()
	}
	if f.Client.WriteTimeout > 0 {
		opts.WriteTimeout = f.Client.WriteTimeout.Std()
	}
	return opts
}

// Engine returns the per-engine config. Logger and Metrics are left for
// the caller.
func (f *File) Engine() *client.Config {
	cfg := client.DefaultConfig()
	cfg.Transport = f.Transport()
	if f.Target.WebSocketJSON {
		cfg.Codec = protocol.JSON{}
	}
	if f.Client.HeartbeatInterval > 0 {
		cfg.HeartbeatInterval = f.Client.HeartbeatInterval.Std()
	}
	if f.Client.MaxMessageSize > 0 {
		cfg.MaxMessageSize = f.Client.MaxMessageSize
	}
	if p, err := protocol.ParsePlatform(f.Client.Platform); err == nil {
		cfg.Platform = p
	}
	return cfg
}
