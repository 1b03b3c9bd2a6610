package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/shazhongcheng/TestGoServer/internal/errors"
	"github.com/shazhongcheng/TestGoServer/pkg/client"
)

const consoleHelp = "commands: login | load | close | reconnect | state | quit"

func consoleCmd(opts *options) *cobra.Command {
	var (
		account        string
		timeout        time.Duration
		reconnectDelay time.Duration
	)

	cmd := &cobra.Command{
		Use:   "console",
		Short: "Drive one session interactively",
		Long: `Connect one engine, log in and read commands from stdin:

  login       log in again
  load        request player data and print the round trip
  close       close the connection
  reconnect   close, wait, connect and resume the session
  state       print the session phase and ids
  quit        exit`,
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := opts.resolve(cmd.Flags())
			if err != nil {
				return err
			}
			cfg := f.Engine()
			cfg.Logger = newLogger(cmd.ErrOrStderr(), level(f))

			c := &console{
				engine:         client.New(cfg),
				in:             cmd.InOrStdin(),
				out:            cmd.OutOrStdout(),
				logger:         cfg.Logger,
				account:        account,
				timeout:        timeout,
				reconnectDelay: reconnectDelay,
			}
			return c.run(cmd.Context())
		},
	}

	cmd.Flags().StringVar(&account, "account", "test1", "Account id, also used as token")
	cmd.Flags().DurationVar(&timeout, "timeout", 5*time.Second, "Wait per command")
	cmd.Flags().DurationVar(&reconnectDelay, "reconnect-delay", time.Second, "Pause between close and connect on reconnect")

	return cmd
}

// console runs line commands against one engine.
type console struct {
	engine         *client.Engine
	in             io.Reader
	out            io.Writer
	logger         *slog.Logger
	account        string
	timeout        time.Duration
	reconnectDelay time.Duration
}

func (c *console) run(ctx context.Context) error {
	defer c.engine.Close()

	if err := c.engine.Connect(ctx); err != nil {
		return err
	}
	c.login(ctx)

	scanner := bufio.NewScanner(c.in)
	for {
		fmt.Fprint(c.out, "> ")
		if !scanner.Scan() {
			fmt.Fprintln(c.out)
			return scanner.Err()
		}
		switch cmd := strings.TrimSpace(scanner.Text()); cmd {
		case "quit":
			return nil
		case "":
		case "close":
			c.engine.Close()
			fmt.Fprintln(c.out, "closed")
		case "reconnect":
			c.reconnect(ctx)
		case "login":
			c.login(ctx)
		case "load":
			c.load(ctx)
		case "state":
			st := c.engine.State()
			fmt.Fprintf(c.out, "phase=%s session=%d player=%d account=%s\n",
				st.Phase, st.SessionID, st.PlayerID, st.AccountID)
		default:
			fmt.Fprintln(c.out, consoleHelp)
		}
	}
}

func (c *console) login(ctx context.Context) {
	if err := c.engine.LoginAndWait(ctx, c.account, c.account, c.timeout); err != nil {
		c.fail(err)
		return
	}
	st := c.engine.State()
	success(c.out, "logged in as %s (session %d, player %d)", c.account, st.SessionID, st.PlayerID)
}

func (c *console) load(ctx context.Context) {
	start := time.Now()
	if err := c.engine.RequestPlayerDataAndWait(ctx, c.timeout); err != nil {
		c.fail(err)
		return
	}
	success(c.out, "player data loaded in %s", time.Since(start).Round(time.Microsecond))
}

func (c *console) reconnect(ctx context.Context) {
	c.engine.Close()
	if c.reconnectDelay > 0 {
		select {
		case <-time.After(c.reconnectDelay):
		case <-ctx.Done():
			c.fail(ctx.Err())
			return
		}
	}
	if err := c.engine.Connect(ctx); err != nil {
		c.fail(err)
		return
	}
	if err := c.engine.ResumeAndWait(ctx, c.timeout); err != nil {
		c.fail(err)
		return
	}
	success(c.out, "resumed session %d", c.engine.State().SessionID)
}

func (c *console) fail(err error) {
	c.logger.Debug("console command failed", "error", err)
	fmt.Fprintf(c.out, "\033[31m✗\033[0m %s\n", errors.Classify(err, "G052").FormatCompact())
}
