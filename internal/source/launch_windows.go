//go:build windows

package source

import "os/exec"

func launchURL(raw string) error {
	return exec.Command("rundll32", "url.dll,FileProtocolHandler", raw).Start()
}
