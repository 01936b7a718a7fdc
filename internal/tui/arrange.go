package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/1broseidon/dockbar/internal/ipc"
)

const statusTimeout = 3 * time.Second

// buttonItem implements list.Item for one dock button.
type buttonItem struct {
	info ipc.ButtonInfo
}

func (i buttonItem) Title() string {
	return fmt.Sprintf("%2d  %s", i.info.WindowIndex+1, i.info.Title)
}

func (i buttonItem) Description() string {
	return fmt.Sprintf("%s  group %d  %s", i.info.Kind, i.info.GroupIndex, i.info.GroupKey)
}

func (i buttonItem) FilterValue() string { return i.info.Title }

// statusMsg is shown in the status line until clearStatusMsg arrives.
type statusMsg struct {
	text string
}

type clearStatusMsg struct{}

// model lists the dock buttons in display order and moves the selected
// one with the same drop semantics as dragging it onto a neighbour.
type model struct {
	client DockClient
	list   list.Model

	status     *ipc.StatusData
	statusText string
	lastError  string

	width  int
	height int
}

func newModel(client DockClient) model {
	delegate := list.NewDefaultDelegate()
	delegate.SetSpacing(0)

	l := list.New(nil, delegate, 80, 20)
	l.Title = "Buttons"
	l.SetShowStatusBar(false)
	l.SetShowHelp(false)
	l.SetFilteringEnabled(false)
	l.DisableQuitKeybindings()

	m := model{client: client, list: l}
	m.refresh("")
	return m
}

// refresh reloads the buttons and keeps selectKey selected when present.
func (m *model) refresh(selectKey string) {
	if selectKey == "" {
		selectKey = m.selectedKey()
	}

	status, err := m.client.GetStatus()
	if err != nil {
		m.status = nil
		m.lastError = err.Error()
		return
	}
	m.status = status

	data, err := m.client.ListButtons()
	if err != nil {
		m.lastError = err.Error()
		return
	}
	m.lastError = ""

	items := make([]list.Item, 0, len(data.Buttons))
	selected := 0
	for i, b := range data.Buttons {
		items = append(items, buttonItem{info: b})
		if b.Key == selectKey {
			selected = i
		}
	}
	m.list.SetItems(items)
	if len(items) > 0 {
		m.list.Select(selected)
	}
}

func (m model) selectedKey() string {
	item, ok := m.list.SelectedItem().(buttonItem)
	if !ok {
		return ""
	}
	return item.info.Key
}

// move drops the selected button onto the neighbour delta places away.
func (m model) move(delta int) (model, tea.Cmd) {
	items := m.list.Items()
	from := m.list.Index()
	to := from + delta
	if from < 0 || from >= len(items) || to < 0 || to >= len(items) {
		return m, nil
	}
	source := items[from].(buttonItem).info
	target := items[to].(buttonItem).info

	res, err := m.client.MoveButton(source.Key, target.Key)
	if err != nil {
		return m, showStatus(fmt.Sprintf("error: %v", err))
	}
	m.refresh(source.Key)

	text := fmt.Sprintf("moved %s to %d", source.Title, res.ToIndex+1)
	if res.CrossGroup {
		text = fmt.Sprintf("moved group of %s to %d", source.Title, res.ToIndex+1)
	}
	return m, showStatus(text)
}

func showStatus(text string) tea.Cmd {
	return func() tea.Msg { return statusMsg{text: text} }
}

// Init implements tea.Model.
func (m model) Init() tea.Cmd {
	return nil
}

// Update implements tea.Model.
func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.list.SetSize(msg.Width, max(m.height-2, 1))
		return m, nil

	case statusMsg:
		m.statusText = msg.text
		return m, tea.Tick(statusTimeout, func(time.Time) tea.Msg {
			return clearStatusMsg{}
		})

	case clearStatusMsg:
		m.statusText = ""
		return m, nil

	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "q":
			return m, tea.Quit
		case "shift+up", "K":
			return m.move(-1)
		case "shift+down", "J":
			return m.move(1)
		case "r":
			m.refresh("")
			return m, showStatus("refreshed")
		}
	}

	var cmd tea.Cmd
	m.list, cmd = m.list.Update(msg)
	return m, cmd
}

// View implements tea.Model.
func (m model) View() string {
	if m.width == 0 || m.height == 0 {
		return ""
	}
	return lipgloss.JoinVertical(lipgloss.Left,
		renderStatusBar(m.status, m.lastError, m.width),
		m.list.View(),
		renderHelpBar(m.statusText, m.width),
	)
}

// renderStatusBar shows the dock state reported by the daemon.
func renderStatusBar(status *ipc.StatusData, lastError string, width int) string {
	var text string
	if status != nil {
		dot := lipgloss.NewStyle().Foreground(lipgloss.Color("42")).Render("●")
		parts := []string{dot + " " + status.State, "edge:" + status.Edge}
		if status.Monitor != "" {
			parts = append(parts, "monitor:"+status.Monitor)
		}
		parts = append(parts, fmt.Sprintf("%d buttons in %d groups", status.ButtonCount, status.GroupCount))
		text = strings.Join(parts, "  ")
	} else {
		dot := lipgloss.NewStyle().Foreground(lipgloss.Color("241")).Render("●")
		text = dot + " daemon not running"
		if lastError != "" {
			text += "  " + lastError
		}
	}

	style := lipgloss.NewStyle().
		Width(width).
		Background(lipgloss.Color("235")).
		Foreground(lipgloss.Color("250")).
		Padding(0, 1)
	return style.Render(text)
}

// renderHelpBar renders the key help with the transient status on the left.
func renderHelpBar(statusText string, width int) string {
	left := ""
	if statusText != "" {
		left = lipgloss.NewStyle().
			Foreground(lipgloss.Color("42")).
			Render(statusText)
	}
	right := lipgloss.NewStyle().
		Foreground(lipgloss.Color("241")).
		Render("↑/↓: select  shift+↑/↓ or K/J: move  r: refresh  q: quit")

	gap := max(width-lipgloss.Width(left)-lipgloss.Width(right)-2, 1)
	return lipgloss.NewStyle().
		Width(width).
		Padding(0, 1).
		Render(left + strings.Repeat(" ", gap) + right)
}
