//go:build !linux

package main

import (
	"fmt"
	"os"
)

func runDaemon() {
	fmt.Fprintln(os.Stderr, "dockbar daemon requires an X11 session on Linux")
	os.Exit(1)
}
