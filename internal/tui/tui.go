package tui

import (
	"fmt"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"golang.org/x/term"

	"github.com/1broseidon/dockbar/internal/ipc"
)

// DockClient is the part of the IPC client the arranger needs.
type DockClient interface {
	GetStatus() (*ipc.StatusData, error)
	ListButtons() (*ipc.ButtonsData, error)
	MoveButton(source, target string) (*ipc.MoveData, error)
}

// Run starts the interactive button arranger against a running daemon.
func Run(client DockClient) error {
	if !term.IsTerminal(int(os.Stdin.Fd())) || !term.IsTerminal(int(os.Stdout.Fd())) {
		return fmt.Errorf("arrange requires an interactive terminal (stdin/stdout must be TTYs)")
	}
	if _, err := client.GetStatus(); err != nil {
		return fmt.Errorf("daemon not reachable: %w", err)
	}

	p := tea.NewProgram(newModel(client), tea.WithAltScreen())
	_, err := p.Run()
	return err
}
