// Package launcher activates buttons: it focuses running windows and
// starts pinned applications.
package launcher

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"strings"

	"github.com/kballard/go-shellquote"

	"github.com/1broseidon/dockbar/internal/buttons"
	"github.com/1broseidon/dockbar/internal/platform"
)

// ErrEmptyCommand is returned for pinned apps without a command.
var ErrEmptyCommand = errors.New("empty command")

// Focuser activates a window.
type Focuser interface {
	Focus(id platform.WindowID) error
}

// Launcher activates buttons.
type Launcher struct {
	focus  Focuser
	logger *slog.Logger
	env    []string
	// start runs cmd without waiting for it. Replaced in tests.
	start func(cmd *exec.Cmd) error
}

// New creates a launcher focusing windows through focus.
func New(focus Focuser, logger *slog.Logger) *Launcher {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	l := &Launcher{focus: focus, logger: logger}
	l.start = l.startDetached
	return l
}

// SetEnv sets the environment of started commands; nil inherits the
// daemon's environment.
func (l *Launcher) SetEnv(env []string) {
	l.env = env
}

// Activate focuses the window behind b, or starts its pinned command.
func (l *Launcher) Activate(b *buttons.Info) error {
	if b == nil {
		return fmt.Errorf("activate: %w", buttons.ErrUnknownButton)
	}
	switch b.Source.Kind {
	case buttons.SourceWindow:
		if err := l.focus.Focus(platform.WindowID(b.Source.WindowID)); err != nil {
			return fmt.Errorf("focus window %d: %w", b.Source.WindowID, err)
		}
		l.logger.Debug("launcher: focused window", "window", b.Source.WindowID, "title", b.Title)
		return nil
	case buttons.SourcePinned:
		if b.Source.App == nil {
			return fmt.Errorf("activate %q: %w", b.Title, ErrEmptyCommand)
		}
		return l.Start(b.Source.App.Command)
	default:
		return fmt.Errorf("activate %q: unsupported source %v", b.Title, b.Source.Kind)
	}
}

// Start runs command, split with shell quoting rules, in the background.
func (l *Launcher) Start(command string) error {
	argv, err := shellquote.Split(command)
	if err != nil {
		return fmt.Errorf("parse command %q: %w", command, err)
	}
	if len(argv) == 0 || strings.TrimSpace(argv[0]) == "" {
		return ErrEmptyCommand
	}

	cmd := exec.Command(argv[0], argv[1:]...)
	cmd.Stderr = os.Stderr
	cmd.Env = l.env
	if err := l.start(cmd); err != nil {
		return fmt.Errorf("start %s: %w", argv[0], err)
	}
	l.logger.Info("launcher: started", "command", argv[0], "args", argv[1:])
	return nil
}

func (l *Launcher) startDetached(cmd *exec.Cmd) error {
	if err := cmd.Start(); err != nil {
		return err
	}
	go func() {
		if err := cmd.Wait(); err != nil {
			l.logger.Warn("launcher: command exited with error", "command", cmd.Path, "error", err)
		}
	}()
	return nil
}
