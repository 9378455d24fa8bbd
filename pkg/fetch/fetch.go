// Package fetch pulls diagnostic bundles from an attached device.
package fetch

import (
	"context"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/jmgilman/go/errors"
	"github.com/jmgilman/go/exec"
	"go.uber.org/zap"
)

// Defaults for the device pull tool.
const (
	DefaultTool       = "adb"
	DefaultRemoteDir  = "/data/misc/logs"
	DefaultMaxElapsed = 30 * time.Second
)

// DevicePuller runs "<tool> pull <remote> <local>" to copy a bundle off a device.
type DevicePuller struct {
	RemoteDir  string        // Directory on the device holding bundles
	MaxElapsed time.Duration // Upper bound on retrying transient failures
	executor   exec.Executor
	logger     *zap.Logger
}

// NewDevicePuller returns a puller invoking tool through executor.
// A nil executor runs the tool on the host, inheriting its environment.
func NewDevicePuller(executor exec.Executor, tool, remoteDir string, logger *zap.Logger) *DevicePuller {
	if executor == nil {
		executor = exec.New(exec.WithInheritEnv())
	}
	if tool == "" {
		tool = DefaultTool
	}
	if remoteDir == "" {
		remoteDir = DefaultRemoteDir
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &DevicePuller{
		RemoteDir:  remoteDir,
		MaxElapsed: DefaultMaxElapsed,
		executor:   exec.NewWrapper(executor, tool),
		logger:     logger,
	}
}

// Pull copies name from the device into localDir and returns the local path.
// A name that already exists locally is returned without contacting the device.
func (p *DevicePuller) Pull(ctx context.Context, name, localDir string) (string, error) {
	if local, ok := Resolve(name); ok {
		p.logger.Info("Using local bundle", zap.String("path", local))
		return local, nil
	}

	remote := path.Join(p.RemoteDir, filepath.ToSlash(name))
	local := filepath.Join(localDir, path.Base(remote))
	p.logger.Info("Pulling bundle from device", zap.String("remote", remote), zap.String("local", local))

	attempt := 0
	op := func() error {
		attempt++
		_, err := p.executor.Clone().WithContext(ctx).Run("pull", remote, local)
		if err == nil {
			return nil
		}
		if isTransient(err) {
			p.logger.Warn("Transient pull failure; retrying", zap.Int("attempt", attempt), zap.Error(err))
			return err
		}
		return backoff.Permanent(err)
	}

	if err := backoff.Retry(op, backoff.WithContext(p.newBackoff(), ctx)); err != nil {
		wrapped := errors.Wrapf(err, errors.CodeNetwork, "pull %s", remote)
		return "", errors.WithContext(wrapped, "attempts", attempt)
	}
	return local, nil
}

func (p *DevicePuller) newBackoff() backoff.BackOff {
	// BackOff implementations are stateful; always return a fresh instance.
	bo := backoff.NewExponentialBackOff()
	bo.MaxElapsedTime = p.MaxElapsed
	return bo
}

// Resolve reports whether name refers to an existing local file.
func Resolve(name string) (string, bool) {
	info, err := os.Stat(name)
	if err != nil || !info.Mode().IsRegular() {
		return "", false
	}
	return name, true
}

// isTransient returns true for device errors that clear up on their own,
// such as a device still booting or an unauthorized USB session.
func isTransient(err error) bool {
	var execErr *exec.ExecError
	msg := strings.ToLower(err.Error())
	if errors.As(err, &execErr) {
		msg = strings.ToLower(execErr.Stderr + " " + execErr.Stdout + " " + msg)
	}
	for _, s := range []string{
		"device offline",
		"device unauthorized",
		"no devices/emulators found",
		"device not found",
		"connection reset",
		"protocol fault",
		"closed",
	} {
		if strings.Contains(msg, s) {
			return true
		}
	}
	return false
}
