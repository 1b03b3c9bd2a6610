package main

import (
	"context"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/shazhongcheng/TestGoServer/internal/config"
	"github.com/shazhongcheng/TestGoServer/internal/errors"
	"github.com/shazhongcheng/TestGoServer/pkg/loadtest"
	"github.com/shazhongcheng/TestGoServer/pkg/metrics"
	"github.com/shazhongcheng/TestGoServer/pkg/session"
)

func loadCmd(opts *options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "load",
		Short: "Run a concurrent login and player-data workload",
		Long: `Spawn engines against the gate, log each one in, time its
load-player-data round trips and print an RTT percentile table.

Each engine logs in as test<i> with the account name as token. Login
timeouts and failed rounds are counted, never fatal.

Examples:
  gateprobe load --addr 10.0.0.5:9000 --clients 2000
  gateprobe load --network ws --ws-json --rounds 5 --round-interval 200ms
  gateprobe load --resume-cycles 1 --ticket-store --json report.json
  gateprobe load -c probe.yaml --s3-bucket perf-reports`,
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := opts.resolve(cmd.Flags())
			if err != nil {
				return err
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return runLoad(ctx, f, cmd.OutOrStdout(), cmd.ErrOrStderr())
		},
	}
	opts.bindLoad(cmd.Flags())
	return cmd
}

func runLoad(ctx context.Context, f *config.File, stdout, stderr io.Writer) error {
	logger := newLogger(stderr, level(f))
	rec := metrics.New()

	if f.Metrics.Address != "" {
		srv, addr, err := startMetricsServer(f.Metrics.Address, rec, logger)
		if err != nil {
			return err
		}
		defer srv.Close()
		info(stderr, "metrics on http://%s/metrics", addr)
	}

	engineCfg := f.Engine()
	engineCfg.Logger = logger
	engineCfg.Metrics = rec

	harnessOpts := []loadtest.Option{
		loadtest.WithLogger(logger),
		loadtest.WithMetrics(rec),
		loadtest.WithTarget(f.Target.Address),
	}
	if f.Load.UseTicketStore {
		store := session.NewMemoryTicketStore()
		defer store.Close()
		harnessOpts = append(harnessOpts, loadtest.WithTicketStore(store))
	}

	h := loadtest.New(f.Harness(), loadtest.EngineFactory(engineCfg), harnessOpts...)
	report, err := h.Run(ctx)
	if err != nil {
		return errors.New("G022").Wrap(err)
	}

	// The JSON report owns stdout when it is written there.
	summaryOut := stdout
	if f.Report.JSON == "-" {
		summaryOut = stderr
	}
	loadtest.WriteSummary(summaryOut, report)

	for _, sink := range sinks(f, stdout) {
		if err := sink.Write(ctx, report); err != nil {
			code := "G041"
			if _, ok := sink.(*loadtest.S3Sink); ok {
				code = "G040"
			}
			return errors.New(code).Wrap(err)
		}
	}
	if f.Report.S3.Bucket != "" {
		success(stderr, "report uploaded to s3://%s", f.Report.S3.Bucket)
	}
	logger.Debug("load command finished", "samples", report.Latency.Samples, "failures", report.Failures.Total())
	return nil
}

func sinks(f *config.File, stdout io.Writer) []loadtest.Sink {
	var out []loadtest.Sink
	if f.Report.JSON != "" {
		out = append(out, &loadtest.FileSink{Path: f.Report.JSON, Stdout: stdout})
	}
	if s3cfg := f.Report.S3; s3cfg.Bucket != "" {
		out = append(out, &loadtest.S3Sink{
			Client: loadtest.NewS3Client(loadtest.S3Config{
				Region:       s3cfg.Region,
				Endpoint:     s3cfg.Endpoint,
				UsePathStyle: s3cfg.UsePathStyle,
			}),
			Bucket: s3cfg.Bucket,
			Key:    s3cfg.Key,
		})
	}
	return out
}
