// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Kaz Walker, Thermoquad

package cmd

import (
	"fmt"
	"strings"
	"time"

	"github.com/Thermoquad/aurorastat/pkg/aurora"
	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

//////////////////////////////////////////////////////////////
// Constants
//////////////////////////////////////////////////////////////

const (
	maxCommandLength = 200
	logHeight        = 12
)

// Focus states
const (
	focusPresetList = iota
	focusCommandInput
)

//////////////////////////////////////////////////////////////
// Types
//////////////////////////////////////////////////////////////

// preset is a canned command line offered in the side list
type preset struct {
	line string
	desc string
}

// Implement list.Item interface
func (p preset) Title() string       { return p.line }
func (p preset) Description() string { return p.desc }
func (p preset) FilterValue() string { return p.line }

var consolePresets = []list.Item{
	preset{line: "INIT ", desc: "Initialize the system"},
	preset{line: "PHSR 00", desc: "List all port handles"},
	preset{line: "TSTART ", desc: "Start tracking"},
	preset{line: "TSTOP ", desc: "Stop tracking"},
	preset{line: "BEEP 1", desc: "Sound the beeper once"},
	preset{line: "VER 4", desc: "Firmware revision"},
	preset{line: "APIREV ", desc: "API revision"},
	preset{line: "RESET", desc: "Reset the system"},
}

type consoleLogEntry struct {
	timestamp time.Time
	line      string
	lines     []string
	isError   bool
}

// consoleModel is the Bubble Tea model for the command console
type consoleModel struct {
	session  *aurora.Session
	connInfo string

	presets      list.Model
	input        textinput.Model
	focusedField int

	log           []consoleLogEntry
	maxLogEntries int
	history       []string
	historyPos    int

	// Session view, refreshed after each exchange so View never waits
	// on the session lock
	state   aurora.State
	handles []aurora.PortHandleEntry
	crc     uint16

	busy     bool
	showWire bool
	width    int
	height   int
	quitting bool
}

//////////////////////////////////////////////////////////////
// Messages
//////////////////////////////////////////////////////////////

type consoleTickMsg time.Time

type consoleReplyMsg struct {
	line  string
	reply *aurora.Reply
	err   error
	at    time.Time
}

//////////////////////////////////////////////////////////////
// Model Initialization
//////////////////////////////////////////////////////////////

func initialConsoleModel(session *aurora.Session, connInfo string) consoleModel {
	ti := textinput.New()
	ti.Placeholder = "PHSR 00"
	ti.CharLimit = maxCommandLength
	ti.Width = 40
	ti.Prompt = "> "
	ti.Focus()

	delegate := list.NewDefaultDelegate()
	delegate.ShowDescription = true
	delegate.SetHeight(2)
	presets := list.New(consolePresets, delegate, 30, 18)
	presets.Title = "Commands"
	presets.SetShowStatusBar(false)
	presets.SetShowHelp(false)
	presets.SetFilteringEnabled(false)

	m := consoleModel{
		session:       session,
		connInfo:      connInfo,
		presets:       presets,
		input:         ti,
		focusedField:  focusCommandInput,
		log:           make([]consoleLogEntry, 0),
		maxLogEntries: 200,
		width:         80,
		height:        24,
	}
	m.refreshSession()
	return m
}

//////////////////////////////////////////////////////////////
// Bubble Tea Interface
//////////////////////////////////////////////////////////////

func (m consoleModel) Init() tea.Cmd {
	return tea.Batch(textinput.Blink, consoleTickCmd())
}

func consoleTickCmd() tea.Cmd {
	return tea.Tick(time.Second, func(t time.Time) tea.Msg {
		return consoleTickMsg(t)
	})
}

// sendCommand runs one exchange off the UI goroutine
func sendCommand(session *aurora.Session, line string) tea.Cmd {
	return func() tea.Msg {
		r, err := session.SendRaw(line)
		return consoleReplyMsg{line: line, reply: r, err: err, at: time.Now()}
	}
}

func (m consoleModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKeyMsg(msg)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.presets.SetHeight(max(msg.Height-8, 6))

	case consoleTickMsg:
		return m, consoleTickCmd()

	case consoleReplyMsg:
		m.busy = false
		m.refreshSession()
		m.addReply(msg)
	}

	var cmd tea.Cmd
	if m.focusedField == focusCommandInput {
		m.input, cmd = m.input.Update(msg)
	}
	return m, cmd
}

func (m *consoleModel) handleKeyMsg(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "ctrl+c", "esc":
		m.quitting = true
		return m, tea.Quit

	case "tab", "shift+tab":
		m.toggleFocus()
		return m, nil

	case "ctrl+w":
		m.showWire = !m.showWire
		m.addLogEntry(fmt.Sprintf("Wire view %s", onOff(m.showWire)), false)
		return m, nil

	case "ctrl+r":
		m.session.Statistics().Reset()
		m.addLogEntry("Statistics reset", false)
		return m, nil

	case "enter":
		return m.handleEnter()

	case "up":
		if m.focusedField == focusCommandInput {
			m.recallHistory(-1)
			return m, nil
		}

	case "down":
		if m.focusedField == focusCommandInput {
			m.recallHistory(1)
			return m, nil
		}
	}

	var cmd tea.Cmd
	if m.focusedField == focusPresetList {
		m.presets, cmd = m.presets.Update(msg)
	} else {
		m.input, cmd = m.input.Update(msg)
	}
	return m, cmd
}

func (m *consoleModel) toggleFocus() {
	if m.focusedField == focusCommandInput {
		m.focusedField = focusPresetList
		m.input.Blur()
	} else {
		m.focusedField = focusCommandInput
		m.input.Focus()
	}
}

func (m *consoleModel) handleEnter() (tea.Model, tea.Cmd) {
	if m.busy {
		m.addLogEntry("Waiting for reply", true)
		return m, nil
	}

	var line string
	if m.focusedField == focusPresetList {
		if p, ok := m.presets.SelectedItem().(preset); ok {
			line = p.line
		}
	} else {
		line = m.input.Value()
		m.input.SetValue("")
	}
	if strings.TrimSpace(line) == "" {
		return m, nil
	}

	m.history = append(m.history, line)
	m.historyPos = len(m.history)
	m.busy = true
	return m, sendCommand(m.session, line)
}

func (m *consoleModel) recallHistory(delta int) {
	if len(m.history) == 0 {
		return
	}
	m.historyPos += delta
	if m.historyPos < 0 {
		m.historyPos = 0
	}
	if m.historyPos >= len(m.history) {
		m.historyPos = len(m.history)
		m.input.SetValue("")
		return
	}
	m.input.SetValue(m.history[m.historyPos])
	m.input.CursorEnd()
}

func (m consoleModel) View() string {
	if m.quitting {
		return "Closing session...\n"
	}

	var s strings.Builder

	// Styles
	titleStyle := lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color("12")).
		Background(lipgloss.Color("235")).
		Padding(0, 1)

	headerStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color("241"))

	statsLabelStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color("12")).
		Bold(true)

	statsValueStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color("10"))

	errorStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color("9")).
		Bold(true)

	boxStyle := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color("240")).
		Padding(0, 1)

	focusedBoxStyle := boxStyle.
		BorderForeground(lipgloss.Color("12"))

	// Header
	s.WriteString(titleStyle.Render("AURORASTAT CONSOLE"))
	s.WriteString(" ")
	s.WriteString(headerStyle.Render(fmt.Sprintf("| %s | Esc=quit Tab=switch ^W=wire ^R=reset stats", m.connInfo)))
	s.WriteString("\n")
	s.WriteString(m.renderSessionLine(statsLabelStyle, statsValueStyle))
	s.WriteString("\n\n")

	listBox := boxStyle
	inputBox := boxStyle
	if m.focusedField == focusPresetList {
		listBox = focusedBoxStyle
	} else {
		inputBox = focusedBoxStyle
	}

	rightWidth := max(m.width-38, 30)
	right := lipgloss.JoinVertical(lipgloss.Left,
		m.renderLog(statsLabelStyle, errorStyle, headerStyle, boxStyle.Width(rightWidth)),
		inputBox.Width(rightWidth).Render(m.input.View()),
	)
	s.WriteString(lipgloss.JoinHorizontal(lipgloss.Top, listBox.Render(m.presets.View()), right))
	s.WriteString("\n")
	s.WriteString(m.renderStatisticsBar(statsLabelStyle, statsValueStyle, errorStyle, boxStyle))

	return s.String()
}

//////////////////////////////////////////////////////////////
// View Helpers
//////////////////////////////////////////////////////////////

func (m consoleModel) renderSessionLine(statsLabelStyle, statsValueStyle lipgloss.Style) string {
	names := make([]string, len(m.handles))
	for i, h := range m.handles {
		names[i] = h.Handle
	}
	handleText := "none"
	if len(names) > 0 {
		handleText = strings.Join(names, " ")
	}

	busy := ""
	if m.busy {
		busy = statsValueStyle.Render("  waiting for reply...")
	}

	return fmt.Sprintf(" %s %s  %s %s  %s %04X%s",
		statsLabelStyle.Render("State:"), statsValueStyle.Render(m.state.String()),
		statsLabelStyle.Render("Handles:"), statsValueStyle.Render(handleText),
		statsLabelStyle.Render("CRC:"), m.crc,
		busy)
}

func (m consoleModel) renderLog(statsLabelStyle, errorStyle, headerStyle, boxStyle lipgloss.Style) string {
	var s strings.Builder
	s.WriteString(statsLabelStyle.Render("EXCHANGES"))
	s.WriteString("\n")

	// Flatten to display lines so long replies do not overflow the box
	var lines []string
	for _, entry := range m.log {
		ts := headerStyle.Render(entry.timestamp.Format("15:04:05.000"))
		head := entry.line
		if entry.isError {
			head = errorStyle.Render(head)
		}
		lines = append(lines, fmt.Sprintf("%s %s", ts, head))
		for _, l := range entry.lines {
			if entry.isError {
				l = errorStyle.Render(l)
			}
			lines = append(lines, "             "+l)
		}
	}

	if len(lines) == 0 {
		s.WriteString(headerStyle.Render("  (no commands sent yet)"))
	} else {
		start := max(len(lines)-logHeight, 0)
		s.WriteString(strings.Join(lines[start:], "\n"))
	}

	return boxStyle.Render(s.String())
}

func (m consoleModel) renderStatisticsBar(statsLabelStyle, statsValueStyle, errorStyle, boxStyle lipgloss.Style) string {
	stats := m.session.Statistics().Snapshot()
	var failures uint64
	for _, n := range []uint64{stats.ErrorReplies, stats.MalformedReplies, stats.TruncatedReplies, stats.ChecksumErrors, stats.TransportErrors} {
		failures += n
	}

	failText := statsValueStyle.Render("0")
	if failures > 0 {
		failText = errorStyle.Render(fmt.Sprintf("%d", failures))
	}

	content := fmt.Sprintf("%s %s  %s %s  %s %s  %s %s  %s %s",
		statsLabelStyle.Render("Commands:"), statsValueStyle.Render(fmt.Sprintf("%d", stats.Commands)),
		statsLabelStyle.Render("OKAY:"), statsValueStyle.Render(fmt.Sprintf("%d", stats.OkayReplies)),
		statsLabelStyle.Render("Status:"), statsValueStyle.Render(fmt.Sprintf("%d", stats.StatusReplies)),
		statsLabelStyle.Render("Failed:"), failText,
		statsLabelStyle.Render("Rejected:"), statsValueStyle.Render(fmt.Sprintf("%d", stats.Rejected)),
	)

	return boxStyle.Width(max(m.width-4, 20)).Render(content)
}

//////////////////////////////////////////////////////////////
// Log
//////////////////////////////////////////////////////////////

func (m *consoleModel) refreshSession() {
	m.state = m.session.State()
	m.handles = m.session.PortHandles()
	m.crc = m.session.ChecksumAccumulator()
}

func (m *consoleModel) addReply(msg consoleReplyMsg) {
	entry := consoleLogEntry{
		timestamp: msg.at,
		line:      "> " + msg.line,
		isError:   msg.err != nil,
	}
	if m.showWire && msg.reply != nil {
		entry.lines = append(entry.lines, "<< "+aurora.FormatWire([]byte(msg.reply.Raw)))
	}
	if msg.reply != nil {
		entry.lines = append(entry.lines, strings.Split(strings.TrimRight(aurora.FormatReply(msg.reply), "\n"), "\n")...)
	}
	if msg.err != nil && (msg.reply == nil || msg.reply.Kind != aurora.ReplyError) {
		entry.lines = append(entry.lines, fmt.Sprintf("! %v", msg.err))
	}
	m.appendEntry(entry)
}

func (m *consoleModel) addLogEntry(message string, isError bool) {
	m.appendEntry(consoleLogEntry{
		timestamp: time.Now(),
		line:      message,
		isError:   isError,
	})
}

func (m *consoleModel) appendEntry(entry consoleLogEntry) {
	m.log = append(m.log, entry)
	if len(m.log) > m.maxLogEntries {
		m.log = m.log[len(m.log)-m.maxLogEntries:]
	}
}

func onOff(b bool) string {
	if b {
		return "on"
	}
	return "off"
}
