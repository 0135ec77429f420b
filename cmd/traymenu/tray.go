package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/example/traymenu/internal/importer"
	"github.com/example/traymenu/internal/ipc"
	"github.com/example/traymenu/internal/loop"
	"github.com/example/traymenu/internal/tray"
)

// `traymenu tray`
func trayCmd(c *cli) *cobra.Command {
	var (
		iconPath string
		tooltip  string
	)
	cmd := &cobra.Command{
		Use:   "tray",
		Short: "Show the exported menu in the system tray",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			token, err := c.token()
			if err != nil {
				return err
			}
			var icon []byte
			if iconPath != "" {
				if icon, err = os.ReadFile(iconPath); err != nil {
					return fmt.Errorf("read icon: %w", err)
				}
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			l := loop.New()
			client, err := ipc.Dial(ctx, l, c.endpoint(), token)
			if err != nil {
				return err
			}
			defer client.Close()
			go func() {
				select {
				case <-client.Done():
					stop()
				case <-ctx.Done():
				}
			}()

			imp := importer.New(l, client)
			err = tray.NewRunner(l, imp, icon, tooltip).Start(ctx)
			if errors.Is(err, context.Canceled) {
				return nil
			}
			return err
		},
	}
	cmd.Flags().StringVar(&iconPath, "icon", "", "path to the tray icon (PNG or ICO)")
	cmd.Flags().StringVar(&tooltip, "tooltip", "traymenu", "tray tooltip")
	return cmd
}
