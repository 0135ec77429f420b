package source

import (
	"fmt"
	"net/url"
	"os/exec"

	"github.com/example/traymenu/internal/config"
)

// executeCommand starts the item's command without waiting for it.
func executeCommand(item config.MenuItem) error {
	if item.Command == "" {
		return fmt.Errorf("item %s has no command", item.ID)
	}
	cmd := exec.Command(item.Command, item.Arguments...)
	if item.WorkingDir != "" {
		cmd.Dir = item.WorkingDir
	}
	if err := cmd.Start(); err != nil {
		return err
	}
	go func() { _ = cmd.Wait() }()
	return nil
}

// openURL validates raw before deferring to the platform launcher.
func openURL(raw string) error {
	if raw == "" {
		return fmt.Errorf("empty url")
	}
	if _, err := url.ParseRequestURI(raw); err != nil {
		return fmt.Errorf("invalid url: %w", err)
	}
	return launchURL(raw)
}
