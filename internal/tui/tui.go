// Package tui renders the board in a terminal.
package tui

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"

	"bellboard/internal/board"
	"bellboard/internal/format"
	"bellboard/internal/schedule"
	"bellboard/internal/timetable"
)

const barWidth = 30

// KeyMap defines key bindings
type KeyMap struct {
	Quit key.Binding
}

var keys = KeyMap{
	Quit: key.NewBinding(
		key.WithKeys("q", "ctrl+c", "esc"),
		key.WithHelp("q", "quit"),
	),
}

// snapshotMsg carries a freshly derived snapshot into the program.
type snapshotMsg schedule.Snapshot

// Model is the terminal board.
type Model struct {
	school string
	tt     *timetable.Timetable
	snap   schedule.Snapshot
	width  int
}

// New creates a model showing snap until the next tick arrives.
func New(school string, tt *timetable.Timetable, snap schedule.Snapshot) Model {
	return Model{school: school, tt: tt, snap: snap}
}

// Init initializes the model
func (m Model) Init() tea.Cmd {
	return nil
}

// Update handles messages and updates the model
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		return m, nil

	case tea.KeyMsg:
		if key.Matches(msg, keys.Quit) {
			return m, tea.Quit
		}

	case snapshotMsg:
		m.snap = schedule.Snapshot(msg)
		return m, nil
	}

	return m, nil
}

// View renders the board
func (m Model) View() string {
	var s strings.Builder

	s.WriteString(m.renderHeader())
	s.WriteString("\n")
	s.WriteString(m.renderDayBar())
	s.WriteString("\n\n")
	s.WriteString(heroStyle.Render(m.renderHero()))
	s.WriteString("\n\n")
	s.WriteString(m.renderSchedule())
	s.WriteString("\n")
	s.WriteString(helpStyle.Render("[q] Quit"))

	return s.String()
}

func (m Model) renderHeader() string {
	left := m.school
	right := fmt.Sprintf("%s  %s", format.Date(m.snap.Instant), format.Clock(m.snap.Instant))
	gap := 2
	if m.width > len(left)+len(right) {
		gap = m.width - len(left) - len(right)
	}
	return headerStyle.Render(left + strings.Repeat(" ", gap) + right)
}

func (m Model) renderDayBar() string {
	first, last := m.tt.First(), m.tt.Last()
	return fmt.Sprintf("%s %s %s  %s",
		subtitleStyle.Render(format.TimeOfDay(first.Start.Hour, first.Start.Minute)),
		bar(m.snap.DayProgress, barWidth),
		subtitleStyle.Render(format.TimeOfDay(last.End.Hour, last.End.Minute)),
		format.Percent(m.snap.DayProgress),
	)
}

func (m Model) renderHero() string {
	st := m.snap.State
	phase := PhaseStyle(st.Phase.String())
	first := m.tt.First()

	switch st.Phase {
	case schedule.PhaseDone:
		return phase.Render("School's out") + "\n" +
			subtitleStyle.Render("Back at "+format.TimeOfDay(first.Start.Hour, first.Start.Minute)+" tomorrow")

	case schedule.PhasePreSchool:
		return phase.Render("Good morning") + "\n" +
			fmt.Sprintf("%s starts in %s", st.Item.Label, countStyle.Render(format.Countdown(st.UntilStart)))

	case schedule.PhaseInProgress:
		return phase.Render("Now") + "  " + titleStyle.Render(st.Item.Label) + "\n" +
			subtitleStyle.Render(format.Range(st.Item)) + "\n" +
			fmt.Sprintf("%s remaining  %s %s",
				countStyle.Render(format.Countdown(st.Remaining)),
				bar(st.Progress, barWidth),
				format.Percent(st.Progress),
			)

	default:
		return phase.Render("Up next") + "  " + titleStyle.Render(st.Item.Label) + "\n" +
			subtitleStyle.Render(format.Range(st.Item)) + "\n" +
			fmt.Sprintf("starts in %s", countStyle.Render(format.Countdown(st.UntilStart)))
	}
}

func (m Model) renderSchedule() string {
	var s strings.Builder
	for _, it := range m.snap.Items {
		marker := "  "
		style := normalStyle
		switch {
		case it.IsActive:
			marker = "> "
			style = activeStyle
		case it.IsDone:
			style = doneStyle
		case it.Item.IsBreak():
			style = breakStyle
		}

		status := "done"
		if !it.IsDone {
			status = format.Countdown(it.Countdown())
			if it.IsActive {
				status += " left"
			} else {
				status += " away"
			}
		}
		if it.Index == m.snap.NextIndex {
			status += "  next"
		}

		line := fmt.Sprintf("%02d  %-18s %-21s %s",
			it.Index+1, it.Item.Label, format.Range(it.Item), status)
		s.WriteString(marker + style.Render(line) + "\n")
	}
	return s.String()
}

// bar renders ratio as a fixed-width text progress bar.
func bar(ratio float64, width int) string {
	if math.IsNaN(ratio) || ratio < 0 {
		ratio = 0
	}
	if ratio > 1 {
		ratio = 1
	}
	filled := int(math.Round(ratio * float64(width)))
	return activeStyle.Render(strings.Repeat("█", filled)) +
		subtitleStyle.Render(strings.Repeat("░", width-filled))
}

// Run shows b in the terminal until the user quits or ctx is cancelled.
// b must be running for the view to advance.
func Run(ctx context.Context, school string, b *board.Board) error {
	sub := b.Subscribe()
	defer b.Unsubscribe(sub)

	p := tea.NewProgram(New(school, b.Timetable(), b.Latest()), tea.WithAltScreen(), tea.WithContext(ctx))

	go func() {
		for snap := range sub {
			p.Send(snapshotMsg(snap))
		}
	}()

	_, err := p.Run()
	if errors.Is(err, tea.ErrProgramKilled) && ctx.Err() != nil {
		return nil
	}
	return err
}
