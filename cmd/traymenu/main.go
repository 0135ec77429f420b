package main

import (
	"errors"
	"io"
	"log"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/example/traymenu/internal/config"
	"github.com/example/traymenu/internal/ipc"
	"github.com/example/traymenu/internal/logging"
	"github.com/example/traymenu/internal/security"
)

// cli carries what every command needs. Tests replace the store and secret.
type cli struct {
	out    io.Writer
	store  func() (*config.Store, error)
	secret func() (string, error)

	debug bool
	addr  string
}

func main() {
	log.SetFlags(0)
	c := &cli{
		out:    os.Stdout,
		store:  config.DefaultStore,
		secret: config.ResolveSecret,
	}
	if err := rootCmd(c).Execute(); err != nil {
		os.Exit(1)
	}
}

// `traymenu`
func rootCmd(c *cli) *cobra.Command {
	cmd := &cobra.Command{
		Use:           "traymenu",
		Short:         "Export a menu over IPC and mirror it in the system tray",
		SilenceUsage:  true,
		SilenceErrors: false,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			if c.debug {
				logging.EnableDebug()
			}
		},
	}
	cmd.SetOut(c.out)
	cmd.PersistentFlags().BoolVar(&c.debug, "debug", false, "enable verbose logging")
	cmd.PersistentFlags().StringVar(&c.addr, "addr", "", "service address (host:port or unix:///path)")

	cmd.AddCommand(
		serveCmd(c),
		trayCmd(c),
		dumpCmd(c),
		addCmd(c),
		updateCmd(c),
		deleteCmd(c),
		listCmd(c),
		importCmd(c),
	)
	return cmd
}

func (c *cli) endpoint() ipc.Endpoint {
	if strings.TrimSpace(c.addr) != "" {
		return ipc.ParseEndpoint(c.addr)
	}
	return ipc.DefaultEndpoint()
}

// token resolves the IPC token. The config secret is optional when
// TRAYMENU_SERVICE_TOKEN is set.
func (c *cli) token() (string, error) {
	secret, err := c.secret()
	if err != nil && !errors.Is(err, config.ErrNoSecret) {
		return "", err
	}
	token := security.ResolveServiceToken(secret)
	if token == "" {
		return "", errors.New("service token could not be resolved; set TRAYMENU_SERVICE_TOKEN or TRAYMENU_SECRET")
	}
	return token, nil
}

// loadConfig opens the store and decrypts the configuration.
func (c *cli) loadConfig() (*config.Store, *config.Config, string, error) {
	secret, err := c.secret()
	if err != nil {
		return nil, nil, "", err
	}
	store, err := c.store()
	if err != nil {
		return nil, nil, "", err
	}
	cfg, err := store.Load(secret)
	if err != nil {
		return nil, nil, "", err
	}
	return store, cfg, secret, nil
}
