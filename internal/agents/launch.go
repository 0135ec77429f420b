package agents

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/example/traymenu/internal/security"
)

const stopGrace = 5 * time.Second

// Process is one running tray client.
type Process interface {
	Done() <-chan struct{}
	Err() error
	Stop() error
}

// Target tells a tray client where the service listens and how to
// authenticate.
type Target struct {
	Addr  string
	Token string
}

// LaunchFunc starts a tray client in sess. The process must exit when ctx is
// canceled.
type LaunchFunc func(ctx context.Context, sess Session, target Target) (Process, error)

type execProcess struct {
	cmd       *exec.Cmd
	tokenFile string
	done      chan struct{}

	mu  sync.Mutex
	err error
}

// ExecLauncher runs "<exe> tray --addr <addr>" inside each session. The token
// is handed over in a private file named by security.TokenFileEnv, never on
// the command line.
func ExecLauncher(exe string) LaunchFunc {
	return func(ctx context.Context, sess Session, target Target) (Process, error) {
		tokenFile, err := writeTokenFile(sess, target.Token)
		if err != nil {
			return nil, err
		}

		cmd := exec.CommandContext(ctx, exe, "tray", "--addr", target.Addr)
		cmd.Env = sessionEnv(os.Environ(), sess, tokenFile)
		cmd.Dir = sess.RuntimeDir
		setCredentials(cmd, sess)

		if err := cmd.Start(); err != nil {
			os.Remove(tokenFile)
			return nil, fmt.Errorf("start tray: %w", err)
		}
		p := &execProcess{cmd: cmd, tokenFile: tokenFile, done: make(chan struct{})}
		go p.wait()
		return p, nil
	}
}

func (p *execProcess) wait() {
	err := p.cmd.Wait()
	_ = os.Remove(p.tokenFile)
	p.mu.Lock()
	p.err = err
	p.mu.Unlock()
	close(p.done)
}

func (p *execProcess) Done() <-chan struct{} { return p.done }

func (p *execProcess) Err() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.err
}

func (p *execProcess) Stop() error {
	if p.cmd.Process == nil {
		return nil
	}
	if err := terminate(p.cmd); err != nil && !errors.Is(err, os.ErrProcessDone) {
		return err
	}
	select {
	case <-p.done:
		return nil
	case <-time.After(stopGrace):
		return p.cmd.Process.Kill()
	}
}

// sessionEnv layers the session variables and the token file over base.
// Later entries win for exec.Cmd, so the session values take effect.
func sessionEnv(base []string, sess Session, tokenFile string) []string {
	env := append([]string(nil), base...)
	for k, v := range sess.Env {
		env = append(env, k+"="+v)
	}
	if sess.RuntimeDir != "" {
		env = append(env, "XDG_RUNTIME_DIR="+sess.RuntimeDir)
	}
	if sess.Display != "" {
		env = append(env, "DISPLAY="+sess.Display)
	}
	return append(env, security.TokenFileEnv+"="+tokenFile)
}

func writeTokenFile(sess Session, token string) (string, error) {
	if token == "" {
		return "", errors.New("missing service token")
	}

	dir := sess.RuntimeDir
	if dir == "" {
		dir = os.TempDir()
	}
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return "", fmt.Errorf("ensure runtime dir: %w", err)
	}
	path := filepath.Join(dir, "traymenu-token-"+uuid.NewString())
	f, err := os.OpenFile(path, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o600)
	if err != nil {
		return "", fmt.Errorf("create token file: %w", err)
	}
	if _, err := f.WriteString(token); err != nil {
		f.Close()
		os.Remove(path)
		return "", fmt.Errorf("write token file: %w", err)
	}
	if err := f.Close(); err != nil {
		os.Remove(path)
		return "", fmt.Errorf("close token file: %w", err)
	}
	if sess.UID != 0 {
		_ = os.Chown(path, int(sess.UID), int(sess.GID))
	}
	return path, nil
}
