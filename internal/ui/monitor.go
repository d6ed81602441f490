package ui

import (
	"context"
	"fmt"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"golang.org/x/term"

	"github.com/thalaguer/buzzer/internal/buzz"
)

// RoundState exposes the quiz engine's lockout state to the monitor
// without coupling the packages.
type RoundState interface {
	Locked() int
}

type buttonMsg buzz.ButtonEvent

type readyMsg struct{}

type driverErrMsg struct{ err error }

// monitorModel renders the live 4x5 button grid and LED toggles.
type monitorModel struct {
	driver  *buzz.Driver
	round   RoundState
	pressed [buzz.ButtonCount]bool
	leds    [4]bool
	ready   bool
	lastErr string
}

func (m monitorModel) Init() tea.Cmd {
	return nil
}

func (m monitorModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch key := msg.String(); key {
		case "ctrl+c", "q", "esc":
			return m, tea.Quit
		case "1", "2", "3", "4":
			n := int(key[0] - '1')
			m.leds[n] = !m.leds[n]
			return m, m.applyLeds()
		case "0":
			m.leds = [4]bool{}
			return m, m.applyLeds()
		}

	case buttonMsg:
		for i, btn := range buzz.Buttons {
			if btn == msg.Button {
				m.pressed[i] = msg.Pressed
			}
		}
		return m, nil

	case readyMsg:
		m.ready = true
		return m, nil

	case driverErrMsg:
		m.lastErr = msg.err.Error()
		return m, nil
	}

	return m, nil
}

func (m monitorModel) applyLeds() tea.Cmd {
	leds := m.leds
	driver := m.driver
	return func() tea.Msg {
		_ = driver.SetLedsArray(context.Background(), leds[:])
		return nil
	}
}

func (m monitorModel) View() string {
	var sections []string

	sections = append(sections, TitleStyle.Render("buzzer monitor"))
	sections = append(sections, m.statusLine())

	var boxes []string
	for c := 1; c <= buzz.Controllers; c++ {
		boxes = append(boxes, m.controllerBox(c))
	}
	sections = append(sections, lipgloss.JoinHorizontal(lipgloss.Top, boxes...))

	if m.lastErr != "" {
		sections = append(sections, ErrorStyle.Render("last error: "+m.lastErr))
	}
	sections = append(sections, MutedStyle.Render("1-4 toggle LEDs · 0 all off · q quit"))

	return lipgloss.JoinVertical(lipgloss.Left, sections...) + "\n"
}

func (m monitorModel) statusLine() string {
	if !m.ready {
		return WarningStyle.Render("connecting...")
	}
	status := SuccessStyle.Render("ready")
	if m.round != nil {
		if locked := m.round.Locked(); locked != 0 {
			status += "  " + BoldStyle.Render(fmt.Sprintf("round locked: player %d", locked))
		}
	}
	return status
}

func (m monitorModel) controllerBox(controller int) string {
	var cells []string
	for i, btn := range buzz.Buttons {
		if btn.Controller != controller {
			continue
		}
		style := lipgloss.NewStyle().Foreground(ButtonColors[btn.Color])
		cell := "○"
		if m.pressed[i] {
			style = style.Bold(true)
			cell = "●"
		}
		cells = append(cells, style.Render(cell))
	}

	label := fmt.Sprintf("P%d", controller)
	if m.leds[controller-1] {
		label += " " + WarningStyle.Render("☀")
	}

	box := BoxStyle
	if m.leds[controller-1] {
		box = HighlightBoxStyle
	}
	return box.Render(lipgloss.JoinVertical(lipgloss.Center,
		BoldStyle.Render(label),
		lipgloss.JoinHorizontal(lipgloss.Top, cells...),
	))
}

// RunMonitor runs the live monitor TUI until the user quits. The driver's
// events stream into the Bubble Tea program; LED toggles go back through
// the driver.
func RunMonitor(driver *buzz.Driver, round RoundState) error {
	if !term.IsTerminal(int(os.Stdout.Fd())) {
		return fmt.Errorf("monitor requires an interactive terminal")
	}

	model := monitorModel{driver: driver, round: round}
	p := tea.NewProgram(model, tea.WithAltScreen())

	unsubChange := driver.OnChange(func(e buzz.ButtonEvent) {
		p.Send(buttonMsg(e))
	})
	defer unsubChange()

	unsubReady := driver.OnReady(func() {
		p.Send(readyMsg{})
	})
	defer unsubReady()

	unsubErr := driver.OnError(func(err error) {
		p.Send(driverErrMsg{err: err})
	})
	defer unsubErr()

	_, err := p.Run()
	return err
}
