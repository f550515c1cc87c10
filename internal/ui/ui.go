// Package ui implements the terminal user interface of deskctl.
package ui

import (
	"context"
	"fmt"
	"math"
	"strings"
	"sync"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	gloss "github.com/charmbracelet/lipgloss"

	"github.com/tesselslate/deskctl/internal/stream"
)

const logSize = 8

// Status is the state shown at the top of the dashboard.
type Status int

const (
	StatusUnknown Status = iota
	StatusBusy
	StatusOk
	StatusFail
)

// MsgStatus changes the displayed status.
type MsgStatus struct {
	Status Status
	Text   string
}

// MsgLog adds a line to the displayed log.
type MsgLog string

type msgTick time.Time

// Model is the bubbletea model of the stream dashboard.
type Model struct {
	addr  string
	stats func() stream.Snapshot

	snap       stream.Snapshot
	status     Status
	statusText string
	logs       []string
}

// NewModel creates a dashboard for a server listening on addr. stats is
// polled once per second.
func NewModel(addr string, stats func() stream.Snapshot) Model {
	return Model{
		addr:   addr,
		stats:  stats,
		status: StatusBusy,
	}
}

func tick() tea.Cmd {
	return tea.Tick(time.Second, func(t time.Time) tea.Msg {
		return msgTick(t)
	})
}

func (m Model) Init() tea.Cmd {
	return tick()
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "q":
			return m, tea.Quit
		}
	case msgTick:
		m.snap = m.stats()
		if m.status == StatusBusy && m.snap.Frames > 0 {
			m.status = StatusOk
		}
		return m, tick()
	case MsgStatus:
		m.status = msg.Status
		m.statusText = msg.Text
	case MsgLog:
		m.logs = append(m.logs, strings.TrimRight(string(msg), "\n"))
		if len(m.logs) > logSize {
			m.logs = m.logs[len(m.logs)-logSize:]
		}
	}
	return m, nil
}

func (m Model) View() string {
	style := statusStyles[m.status]
	out := style.style.Render("\n  STATUS: " + style.title)
	if m.statusText != "" {
		out += style.style.Render(" | " + m.statusText)
	}
	out += "\n\n"

	details := []string{
		"Listening", m.addr,
		"Clients", fmt.Sprint(m.snap.Clients),
		"FPS", fmt.Sprintf("%.1f", m.snap.FPS),
		"Frames", fmt.Sprintf("%d (%d dropped)", m.snap.Frames, m.snap.Dropped),
		"Capture", fmt.Sprintf("%.2f ms", m.snap.AvgCaptureMs),
		"Sent", fmt.Sprintf("%.1f MB", float64(m.snap.Bytes)/1e6),
		"Events", fmt.Sprintf("%d (%d failed)", m.snap.Events, m.snap.EventErrors),
		"Uptime", prettifyTime(time.Duration(m.snap.UptimeMs) * time.Millisecond),
	}
	for i := 0; i < len(details); i += 2 {
		out += cyanStyle.Render("  "+pad(details[i]+":", 12)) + details[i+1] + "\n"
	}

	if len(m.logs) > 0 {
		out += cyanStyle.Render("\n  Log:\n")
		for _, line := range m.logs {
			out += grayStyle.Render("  "+line) + "\n"
		}
	}
	out += grayStyle.Render("\n  q/ctrl+c: quit\n\n")
	return out
}

// Run shows the dashboard until the user quits or ctx is cancelled. Lines
// received from logs appear in the log section.
func Run(ctx context.Context, m Model, logs <-chan string) error {
	p := tea.NewProgram(m, tea.WithAltScreen())
	stop := make(chan struct{})
	defer close(stop)
	go func() {
		for {
			select {
			case <-ctx.Done():
				p.Send(tea.Quit())
				return
			case line := <-logs:
				p.Send(MsgLog(line))
			case <-stop:
				return
			}
		}
	}()
	return p.Start()
}

// LogWriter is an io.Writer which forwards each write to a channel for
// display by Run. Writes are dropped if the channel is full.
type LogWriter struct {
	mu sync.Mutex
	ch chan string
}

// NewLogWriter creates a LogWriter.
func NewLogWriter() *LogWriter {
	return &LogWriter{ch: make(chan string, 32)}
}

// Lines returns the channel of written lines.
func (w *LogWriter) Lines() <-chan string {
	return w.ch
}

func (w *LogWriter) Write(p []byte) (int, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	select {
	case w.ch <- string(p):
	default:
	}
	return len(p), nil
}

func pad(str string, length int) string {
	if len(str) >= length {
		return str
	}
	return str + strings.Repeat(" ", length-len(str))
}

func prettifyTime(t time.Duration) string {
	if math.Floor(t.Hours()) > 0 {
		return fmt.Sprintf(
			"%02d:%02d:%02d",
			int(math.Floor(t.Hours())),
			int(math.Floor(t.Minutes()))%60,
			int(math.Floor(t.Seconds()))%60,
		)
	} else if math.Floor(t.Minutes()) > 0 {
		return fmt.Sprintf(
			"%02d:%02d",
			int(math.Floor(t.Minutes()))%60,
			int(math.Floor(t.Seconds()))%60,
		)
	}
	return fmt.Sprintf("%.0f sec", math.Floor(t.Seconds()))
}

type statusStyle struct {
	title string
	style gloss.Style
}

var statusStyles = map[Status]statusStyle{
	StatusUnknown: {
		title: "???",
		style: gloss.NewStyle().Foreground(gloss.Color("15")),
	},
	StatusBusy: {
		title: "starting",
		style: gloss.NewStyle().Foreground(gloss.Color("11")),
	},
	StatusOk: {
		title: "streaming",
		style: gloss.NewStyle().Foreground(gloss.Color("10")),
	},
	StatusFail: {
		title: "fail",
		style: gloss.NewStyle().Foreground(gloss.Color("9")),
	},
}

var cyanStyle = gloss.NewStyle().Bold(true).Foreground(gloss.Color("14"))
var grayStyle = gloss.NewStyle().Foreground(gloss.Color("#aaaaaa"))
var selectStyle = gloss.NewStyle().Bold(true).Foreground(gloss.Color("13"))
