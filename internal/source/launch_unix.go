//go:build !windows && !darwin

package source

import "os/exec"

func launchURL(raw string) error {
	return exec.Command("xdg-open", raw).Start()
}
