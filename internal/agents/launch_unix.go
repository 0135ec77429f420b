//go:build unix

package agents

import (
	"os/exec"
	"syscall"
)

// setCredentials runs the client as the session user.
func setCredentials(cmd *exec.Cmd, sess Session) {
	if sess.UID == 0 {
		return
	}
	cmd.SysProcAttr = &syscall.SysProcAttr{
		Credential: &syscall.Credential{Uid: sess.UID, Gid: sess.GID},
	}
}

func terminate(cmd *exec.Cmd) error {
	return cmd.Process.Signal(syscall.SIGTERM)
}
