package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/shazhongcheng/TestGoServer/internal/errors"
)

// Version information set at build time.
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		errors.Fprint(os.Stderr, errors.Classify(err, "G052"))
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	opts := &options{}

	rootCmd := &cobra.Command{
		Use:   "gateprobe",
		Short: "Load and session probe for game gateways",
		Long: `gateprobe drives simulated game clients against a gate server.

It speaks the gate's envelope protocol over TCP or WebSocket and can:

  • Run a concurrent login / load-player-data workload and report RTT percentiles
  • Exercise close, reconnect and session resume
  • Open an interactive console on one session
  • Serve a mock gate for local runs and tests`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	opts.bindGlobal(rootCmd.PersistentFlags())
	rootCmd.SetFlagErrorFunc(func(c *cobra.Command, err error) error {
		return errors.New("G050").Wrap(err).
			WithSuggestion("Run '" + c.CommandPath() + " --help' for usage")
	})

	rootCmd.AddCommand(
		loadCmd(opts),
		consoleCmd(opts),
		mockgateCmd(opts),
		versionCmd(),
	)
	return rootCmd
}

// newLogger builds the command's text logger and installs it as default.
func newLogger(w io.Writer, level slog.Level) *slog.Logger {
	logger := slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)
	return logger
}

// success prints a success message.
func success(w io.Writer, format string, args ...any) {
	fmt.Fprintf(w, "\033[32m✓\033[0m %s\n", fmt.Sprintf(format, args...))
}

// info prints an info message.
func info(w io.Writer, format string, args ...any) {
	fmt.Fprintf(w, "  %s\n", fmt.Sprintf(format, args...))
}
