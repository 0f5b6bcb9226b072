package main

import (
	"fmt"
	"strings"
	"sync"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"jargon/history"
	"jargon/settings"
)

// TUI message types
type DictationStartMsg struct{}
type DictationStopMsg struct{}
type HistoryMsg struct{ Entries []history.Entry }
type CopiedMsg struct{ ID string } // "" clears the indicator
type EngineLineMsg struct{ Stream, Line string }
type ConfigMsg struct{ Cfg settings.Config } // config changed outside the TUI
type UpdateAvailableMsg struct{ Version string }

type shellPage int

const (
	pageHome shellPage = iota
	pageSettings
)

const (
	sidebarWidth = 14
	// Below this terminal width the sidebar collapses to free up room
	// for the transcript list.
	sidebarCollapseWidth = 80

	engineTailLines = 4
)

// hotkeyPresets are the chords the settings page cycles through.
var hotkeyPresets = []string{
	"Ctrl+Shift",
	"Ctrl+Shift+Space",
	"Ctrl+Alt",
	"Super+Space",
}

var settingLabels = []string{
	"Dictation hotkey",
	"Run in background",
	"Type into active app",
}

var (
	tuiProgram *tea.Program
	tuiQueue   []tea.Msg
	tuiMu      sync.Mutex
	tuiWake    = sync.NewCond(&tuiMu)
)

// Pre-computed styles to avoid allocations in render loop
var (
	styleRec      = lipgloss.NewStyle().Foreground(lipgloss.Color("196")).Bold(true)
	styleStandby  = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	styleDim      = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	styleFaint    = lipgloss.NewStyle().Foreground(lipgloss.Color("239"))
	styleText     = lipgloss.NewStyle().Foreground(lipgloss.Color("252"))
	styleSelected = lipgloss.NewStyle().Foreground(lipgloss.Color("231")).Background(lipgloss.Color("236"))
	styleCopied   = lipgloss.NewStyle().Foreground(lipgloss.Color("42"))
	styleTitle    = lipgloss.NewStyle().Foreground(lipgloss.Color("246")).Bold(true)
	styleNavOn    = lipgloss.NewStyle().Foreground(lipgloss.Color("231")).Bold(true)
	styleNavOff   = lipgloss.NewStyle().Foreground(lipgloss.Color("243"))
)

type shellModel struct {
	deps *shellDeps

	page          shellPage
	width, height int

	cursor        int // selected transcript on the home page
	settingCursor int // selected row on the settings page

	entries       []history.Entry
	copiedID      string
	recording     bool
	cfg           settings.Config
	engineTail    []string
	updateVersion string
}

func NewShellProgram(deps *shellDeps) *tea.Program {
	m := shellModel{
		deps:    deps,
		entries: deps.hist.Entries(),
		cfg:     deps.state.Get(),
	}
	return tea.NewProgram(m, tea.WithAltScreen())
}

func (m shellModel) Init() tea.Cmd {
	return nil
}

func (m shellModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height

	case tea.KeyMsg:
		return m.handleKey(msg)

	case DictationStartMsg:
		m.recording = true

	case DictationStopMsg:
		m.recording = false

	case HistoryMsg:
		m.entries = msg.Entries
		if m.cursor >= len(m.entries) {
			m.cursor = max(0, len(m.entries)-1)
		}

	case CopiedMsg:
		m.copiedID = msg.ID

	case EngineLineMsg:
		line := msg.Line
		if msg.Stream != "" {
			line = msg.Stream + ": " + msg.Line
		}
		m.engineTail = append(m.engineTail, line)
		if len(m.engineTail) > engineTailLines {
			m.engineTail = m.engineTail[len(m.engineTail)-engineTailLines:]
		}

	case ConfigMsg:
		m.cfg = msg.Cfg

	case UpdateAvailableMsg:
		m.updateVersion = msg.Version
	}
	return m, nil
}

func (m shellModel) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "ctrl+c", "q":
		m.deps.closeWindow()
		return m, tea.Quit

	case "tab":
		if m.page == pageHome {
			m.page = pageSettings
		} else {
			m.page = pageHome
		}

	case "1":
		m.page = pageHome

	case "2":
		m.page = pageSettings

	case "up", "k":
		if m.page == pageHome {
			if m.cursor > 0 {
				m.cursor--
			}
		} else if m.settingCursor > 0 {
			m.settingCursor--
		}

	case "down", "j":
		if m.page == pageHome {
			if m.cursor < len(m.entries)-1 {
				m.cursor++
			}
		} else if m.settingCursor < len(settingLabels)-1 {
			m.settingCursor++
		}

	case "enter", "c", " ":
		if m.page == pageSettings {
			if msg.String() != "c" {
				m = m.toggleSetting()
			}
		} else if msg.String() != " " && m.cursor < len(m.entries) {
			e := m.entries[m.cursor]
			m.deps.hist.Copy(e.ID, e.Text)
		}

	case "r":
		m.deps.toggleDictation(m.recording)

	case "x":
		m.deps.restartEngine()

	case "-":
		m.deps.minimizeWindow()

	case "=":
		m.deps.maximizeWindow()
	}
	return m, nil
}

func (m shellModel) toggleSetting() shellModel {
	cfg := m.cfg
	switch m.settingCursor {
	case 0:
		cfg.Hotkey = nextHotkeyPreset(cfg.Hotkey)
	case 1:
		cfg.RunInBackground = !cfg.RunInBackground
	case 2:
		cfg.TypeIntoActiveApp = !cfg.TypeIntoActiveApp
	}
	m.cfg = cfg
	m.deps.save(cfg)
	return m
}

func nextHotkeyPreset(current string) string {
	for i, p := range hotkeyPresets {
		if p == current {
			return hotkeyPresets[(i+1)%len(hotkeyPresets)]
		}
	}
	return hotkeyPresets[0]
}

func (m shellModel) View() string {
	if m.width == 0 || m.height == 0 {
		return "Loading..."
	}

	contentWidth := m.width
	showSidebar := m.width >= sidebarCollapseWidth
	if showSidebar {
		contentWidth = m.width - sidebarWidth - 1
	}

	var content string
	if m.page == pageSettings {
		content = m.viewSettings(contentWidth)
	} else {
		content = m.viewHome(contentWidth)
	}

	contentPanel := lipgloss.NewStyle().
		Width(contentWidth).
		Height(m.height).
		PaddingLeft(1).
		Render(content)

	if !showSidebar {
		return contentPanel
	}

	sidebarPanel := lipgloss.NewStyle().
		Width(sidebarWidth).
		Height(m.height).
		PaddingLeft(1).
		Render(m.viewSidebar())

	return lipgloss.JoinHorizontal(lipgloss.Top, sidebarPanel, contentPanel)
}

func (m shellModel) viewSidebar() string {
	var b strings.Builder
	b.WriteString(styleTitle.Render("jargon") + "\n\n")

	pages := []struct {
		label string
		page  shellPage
	}{
		{"1 Home", pageHome},
		{"2 Settings", pageSettings},
	}
	for _, p := range pages {
		if p.page == m.page {
			b.WriteString(styleNavOn.Render("▸ "+p.label) + "\n")
		} else {
			b.WriteString(styleNavOff.Render("  "+p.label) + "\n")
		}
	}

	b.WriteString("\n")
	if m.recording {
		b.WriteString(styleRec.Render("● REC") + "\n")
	} else {
		b.WriteString(styleStandby.Render("○ STANDBY") + "\n")
	}
	return b.String()
}

func (m shellModel) viewHome(width int) string {
	var b strings.Builder

	if m.recording {
		b.WriteString(styleRec.Render("● REC") + "  ")
	} else {
		b.WriteString(styleStandby.Render("○ STANDBY") + "  ")
	}
	b.WriteString(styleDim.Render(fmt.Sprintf("%d transcripts", len(m.entries))) + "\n\n")

	// Rows left for the list: status, blank, engine tail, blank, help.
	reserved := 4 + engineTailLines
	listRows := m.height - reserved
	if listRows < 1 {
		listRows = 1
	}

	if len(m.entries) == 0 {
		b.WriteString(styleDim.Render("No transcripts yet — hold the hotkey and speak.") + "\n")
	} else {
		first := 0
		if m.cursor >= listRows {
			first = m.cursor - listRows + 1
		}
		for i := first; i < len(m.entries) && i < first+listRows; i++ {
			e := m.entries[i]
			ts := time.UnixMilli(e.TS).Format("15:04:05")
			text := truncate(e.Text, width-14)

			line := styleDim.Render(ts) + " " + styleText.Render(text)
			if i == m.cursor {
				line = styleSelected.Render(ts + " " + text)
			}
			if e.ID == m.copiedID {
				line += " " + styleCopied.Render("✓ copied")
			}
			b.WriteString(line + "\n")
		}
	}

	if len(m.engineTail) > 0 {
		b.WriteString("\n")
		for _, line := range m.engineTail {
			b.WriteString(styleFaint.Render(truncate(line, width-2)) + "\n")
		}
	}

	b.WriteString("\n")
	b.WriteString(m.helpLine("enter copy · r dictate · x restart engine"))
	return b.String()
}

func (m shellModel) viewSettings(width int) string {
	var b strings.Builder
	b.WriteString(styleTitle.Render("Settings") + "\n\n")

	values := []string{
		"‹ " + m.cfg.Hotkey + " ›",
		checkbox(m.cfg.RunInBackground),
		checkbox(m.cfg.TypeIntoActiveApp),
	}
	for i, label := range settingLabels {
		row := fmt.Sprintf("%-22s %s", label, values[i])
		if i == m.settingCursor {
			b.WriteString(styleSelected.Render("▸ "+row) + "\n")
		} else {
			b.WriteString(styleText.Render("  "+row) + "\n")
		}
	}

	b.WriteString("\n")
	b.WriteString(m.helpLine("enter toggle · changes saved immediately"))
	return b.String()
}

func (m shellModel) helpLine(extra string) string {
	base := "tab page · ↑/↓ move · - min · = max · q quit"
	if extra != "" {
		base = extra + " · " + base
	}
	tail := "jargon " + version
	if m.updateVersion != "" {
		tail += "  ·  update available: " + m.updateVersion
	}
	return styleFaint.Render(base) + "\n" + styleFaint.Render(tail)
}

func checkbox(on bool) string {
	if on {
		return "[x]"
	}
	return "[ ]"
}

func truncate(s string, width int) string {
	if width < 1 {
		width = 1
	}
	r := []rune(s)
	if len(r) <= width {
		return s
	}
	if width == 1 {
		return "…"
	}
	return string(r[:width-1]) + "…"
}

// tuiSink forwards events into the Bubble Tea program.
type tuiSink struct{}

func (tuiSink) DictationStart() { tuiSend(DictationStartMsg{}) }
func (tuiSink) DictationStop()  { tuiSend(DictationStopMsg{}) }

func (tuiSink) HistoryChanged(entries []history.Entry) {
	tuiSend(HistoryMsg{Entries: entries})
}

func (tuiSink) CopyFeedback(copiedID string) {
	tuiSend(CopiedMsg{ID: copiedID})
}

func (tuiSink) EngineLine(stream, line string) {
	tuiSend(EngineLineMsg{Stream: stream, Line: line})
}

func (tuiSink) OverlayState(visible, hovered bool) {}

// tuiSend queues msg for the program and returns immediately. Dropped
// when no program is attached. Program.Send waits for the event loop
// to pick the message up, so handing it off here would wedge any
// callback that fires while Update is on the stack; tuiPump does the
// blocking send from its own goroutine instead.
func tuiSend(msg tea.Msg) {
	tuiMu.Lock()
	if tuiProgram == nil {
		tuiMu.Unlock()
		return
	}
	tuiQueue = append(tuiQueue, msg)
	tuiMu.Unlock()
	tuiWake.Signal()
}

// tuiPump forwards queued messages to the program in order. Started
// alongside the program; runs for the life of the process.
func tuiPump() {
	for {
		tuiMu.Lock()
		for len(tuiQueue) == 0 {
			tuiWake.Wait()
		}
		msg := tuiQueue[0]
		tuiQueue = tuiQueue[1:]
		p := tuiProgram
		tuiMu.Unlock()

		p.Send(msg)
	}
}
