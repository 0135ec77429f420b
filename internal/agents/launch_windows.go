//go:build windows

package agents

import "os/exec"

// TODO: launch in the user session with a primary token from WTSQueryUserToken.
func setCredentials(cmd *exec.Cmd, sess Session) {}

func terminate(cmd *exec.Cmd) error {
	return cmd.Process.Kill()
}
