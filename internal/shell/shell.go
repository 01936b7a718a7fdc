// Package shell carries the AppBar protocol between a dock window and the
// desktop shell.
//
// X11 is the transport the Linux daemon runs on: it emulates the shell's
// bar coordinator with EWMH struts. Win32 (windows builds only) is the
// non-Linux transport seam. It speaks SHAppBarMessage directly, but no
// daemon host drives it yet.
package shell

import (
	"errors"
	"fmt"

	"github.com/1broseidon/dockbar/internal/appbar"
)

var (
	// ErrAlreadyRegistered is returned when a handle registers twice.
	ErrAlreadyRegistered = errors.New("window already registered as an appbar")
	// ErrUnknownHandle is returned for handles that never registered.
	ErrUnknownHandle = errors.New("window is not registered as an appbar")
)

func unknown(op string, h appbar.Handle) error {
	return fmt.Errorf("%s: %w: %#x", op, ErrUnknownHandle, uintptr(h))
}
