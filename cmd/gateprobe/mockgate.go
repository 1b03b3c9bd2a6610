package main

import (
	"context"
	"errors"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	gerrors "github.com/shazhongcheng/TestGoServer/internal/errors"
	"github.com/shazhongcheng/TestGoServer/pkg/gatemock"
)

type mockgateOptions struct {
	listen         string
	httpAddr       string
	responseDelay  time.Duration
	playerDataSize int
}

func mockgateCmd(opts *options) *cobra.Command {
	m := &mockgateOptions{}

	cmd := &cobra.Command{
		Use:   "mockgate",
		Short: "Serve a mock gate for local runs",
		Long: `Serve a mock gate that speaks the envelope protocol.

The stream listener accepts length-prefixed envelopes; the HTTP listener
serves /ws (WebSocket) and /healthz. Both share one session table, so a
session opened over TCP can be resumed over WebSocket.

Examples:
  gateprobe mockgate --listen :9000 --http :9001
  gateprobe mockgate --response-delay 20ms --ws-json`,
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := opts.resolve(cmd.Flags())
			if err != nil {
				return err
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			cfg := gatemock.DefaultConfig()
			cfg.WebSocketJSON = f.Target.WebSocketJSON
			cfg.ResponseDelay = m.responseDelay
			cfg.PlayerDataSize = m.playerDataSize
			cfg.Logger = newLogger(cmd.ErrOrStderr(), level(f))
			return runMockgate(ctx, cfg, m, cmd)
		},
	}

	cmd.Flags().StringVar(&m.listen, "listen", ":9000", "Stream (TCP) listen address; empty disables it")
	cmd.Flags().StringVar(&m.httpAddr, "http", ":9001", "HTTP listen address for /ws and /healthz; empty disables it")
	cmd.Flags().DurationVar(&m.responseDelay, "response-delay", 0, "Delay before every reply")
	cmd.Flags().IntVar(&m.playerDataSize, "player-data-size", 256, "Bytes in a player-data response")

	return cmd
}

func runMockgate(ctx context.Context, cfg *gatemock.Config, m *mockgateOptions, cmd *cobra.Command) error {
	gate := gatemock.New(cfg)
	defer gate.Close()
	stderr := cmd.ErrOrStderr()

	if m.listen != "" {
		addr, err := gate.ListenTCP(m.listen)
		if err != nil {
			return gerrors.New("G051").Wrap(err)
		}
		success(stderr, "stream listener on %s", addr)
	}

	var srv *http.Server
	if m.httpAddr != "" {
		ln, err := net.Listen("tcp", m.httpAddr)
		if err != nil {
			return gerrors.New("G051").Wrap(err)
		}
		srv = &http.Server{Handler: gate.Handler(), ReadHeaderTimeout: 5 * time.Second}
		go func() {
			if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
				cfg.Logger.Error("mock gate http server stopped", "error", err)
			}
		}()
		success(stderr, "websocket on ws://%s/ws", ln.Addr())
	}

	<-ctx.Done()
	info(stderr, "shutting down")
	if srv != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		srv.Shutdown(shutdownCtx)
	}
	st := gate.Stats()
	info(stderr, "accepted %d connections, %d logins, %d resumes, %d requests",
		st.Accepted, st.Logins, st.Resumes, st.Requests)
	return nil
}
