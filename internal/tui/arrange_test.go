package tui

import (
	"errors"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/1broseidon/dockbar/internal/ipc"
)

type fakeClient struct {
	buttons   []ipc.ButtonInfo
	moves     [][2]string
	statusErr error
	moveErr   error
}

func (f *fakeClient) GetStatus() (*ipc.StatusData, error) {
	if f.statusErr != nil {
		return nil, f.statusErr
	}
	return &ipc.StatusData{State: "docked", Edge: "bottom", ButtonCount: len(f.buttons), GroupCount: len(f.buttons)}, nil
}

func (f *fakeClient) ListButtons() (*ipc.ButtonsData, error) {
	return &ipc.ButtonsData{Buttons: append([]ipc.ButtonInfo(nil), f.buttons...)}, nil
}

// MoveButton swaps the two buttons, which is what a move between adjacent
// single-window groups amounts to.
func (f *fakeClient) MoveButton(source, target string) (*ipc.MoveData, error) {
	if f.moveErr != nil {
		return nil, f.moveErr
	}
	f.moves = append(f.moves, [2]string{source, target})
	var from, to int
	for i, b := range f.buttons {
		switch b.Key {
		case source:
			from = i
		case target:
			to = i
		}
	}
	f.buttons[from], f.buttons[to] = f.buttons[to], f.buttons[from]
	for i := range f.buttons {
		f.buttons[i].WindowIndex = i
		f.buttons[i].GroupIndex = i
	}
	return &ipc.MoveData{CrossGroup: true, FromIndex: from, ToIndex: to}, nil
}

func newFake() *fakeClient {
	return &fakeClient{buttons: []ipc.ButtonInfo{
		{Key: "window:1", Title: "editor", Kind: "window", WindowIndex: 0},
		{Key: "window:2", Title: "browser", Kind: "window", GroupIndex: 1, WindowIndex: 1},
		{Key: "window:3", Title: "shell", Kind: "window", GroupIndex: 2, WindowIndex: 2},
	}}
}

func update(t *testing.T, m model, msg tea.Msg) (model, tea.Cmd) {
	t.Helper()
	next, cmd := m.Update(msg)
	nm, ok := next.(model)
	if !ok {
		t.Fatalf("unexpected model type %T", next)
	}
	return nm, cmd
}

func TestModel_MoveDownKeepsSelection(t *testing.T) {
	client := newFake()
	m := newModel(client)

	m, _ = update(t, m, tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'J'}})
	if len(client.moves) != 1 || client.moves[0] != [2]string{"window:1", "window:2"} {
		t.Fatalf("unexpected moves %v", client.moves)
	}
	if m.selectedKey() != "window:1" || m.list.Index() != 1 {
		t.Fatalf("expected moved button to stay selected at 1, got %q at %d", m.selectedKey(), m.list.Index())
	}
}

func TestModel_MoveAtEdgeIsNoop(t *testing.T) {
	client := newFake()
	m := newModel(client)

	m, cmd := update(t, m, tea.KeyMsg{Type: tea.KeyShiftUp})
	if cmd != nil || len(client.moves) != 0 {
		t.Fatalf("expected no move above the first button, got %v", client.moves)
	}
	_ = m
}

func TestModel_MoveErrorShownInStatus(t *testing.T) {
	client := newFake()
	client.moveErr = errors.New("bar is not registered")
	m := newModel(client)

	m, cmd := update(t, m, tea.KeyMsg{Type: tea.KeyShiftDown})
	if cmd == nil {
		t.Fatalf("expected a status command")
	}
	m, _ = update(t, m, cmd())
	if !strings.Contains(m.statusText, "bar is not registered") {
		t.Fatalf("expected error in status, got %q", m.statusText)
	}
}

func TestModel_DaemonDown(t *testing.T) {
	client := newFake()
	client.statusErr = errors.New("connection refused")
	m := newModel(client)
	m, _ = update(t, m, tea.WindowSizeMsg{Width: 100, Height: 20})

	if len(m.list.Items()) != 0 {
		t.Fatalf("expected no buttons without a daemon")
	}
	if view := m.View(); !strings.Contains(view, "daemon not running") {
		t.Fatalf("expected daemon status in view:\n%s", view)
	}
}

func TestModel_QuitKey(t *testing.T) {
	m := newModel(newFake())
	_, cmd := update(t, m, tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'q'}})
	if cmd == nil {
		t.Fatalf("expected quit command")
	}
	if _, ok := cmd().(tea.QuitMsg); !ok {
		t.Fatalf("expected tea.QuitMsg")
	}
}
