//go:build darwin

package source

import "os/exec"

func launchURL(raw string) error {
	return exec.Command("open", raw).Start()
}
