package main

import (
	"context"
	"errors"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/example/traymenu/internal/agents"
	"github.com/example/traymenu/internal/exporter"
	"github.com/example/traymenu/internal/ipc"
	"github.com/example/traymenu/internal/loop"
	"github.com/example/traymenu/internal/menu"
	"github.com/example/traymenu/internal/source"
)

// `traymenu serve`
func serveCmd(c *cli) *cobra.Command {
	var (
		push     bool
		noSeed   bool
		withTray bool
		interval time.Duration
	)
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Export the configured menu to tray clients",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			secret, err := c.secret()
			if err != nil {
				return err
			}
			store, err := c.store()
			if err != nil {
				return err
			}
			token, err := c.token()
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			l := loop.New()
			root := menu.NewMenu("")
			src := source.New(root)

			srv := ipc.NewServer(l, nil, token)
			exp := exporter.New(l, root, srv)
			exp.SetPropertyPush(push)
			srv.Handle(exp)

			runner := source.NewRunner(l, src, store, secret)
			runner.SetSeedDefaults(!noSeed)
			runner.SetRefreshInterval(interval)

			ep := c.endpoint()
			errs := make(chan error, 2)
			go func() { errs <- srv.ListenAndServe(ctx, ep) }()
			go func() { errs <- runner.Start(ctx) }()
			if withTray {
				startAgents(ctx, ep, token)
			}
			go func() {
				if err := <-errs; err != nil && !errors.Is(err, context.Canceled) {
					log.Printf("serve: %v", err)
				}
				stop()
			}()

			err = l.Run(ctx)
			exp.Close()
			if errors.Is(err, context.Canceled) {
				return nil
			}
			return err
		},
	}
	cmd.Flags().BoolVar(&push, "push", false, "send single property changes as ItemPropertyUpdated")
	cmd.Flags().BoolVar(&noSeed, "no-defaults", false, "do not seed an empty configuration with default items")
	cmd.Flags().BoolVar(&withTray, "agents", false, "launch a tray client in every local desktop session")
	cmd.Flags().DurationVar(&interval, "refresh", 30*time.Second, "configuration polling interval")
	return cmd
}

// startAgents supervises per-session tray clients in the background. Missing
// session support is logged, not fatal.
func startAgents(ctx context.Context, ep ipc.Endpoint, token string) {
	sessions, err := agents.NewSessions()
	if err != nil {
		log.Printf("serve: not launching tray clients: %v", err)
		return
	}
	exe, err := os.Executable()
	if err != nil {
		sessions.Close()
		log.Printf("serve: resolve executable: %v", err)
		return
	}
	sup := agents.NewSupervisor(sessions, agents.ExecLauncher(exe), agents.Target{Addr: ep.String(), Token: token})
	go func() {
		if err := sup.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			log.Printf("serve: tray supervisor: %v", err)
		}
	}()
}
