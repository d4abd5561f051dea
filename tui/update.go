package tui

import (
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/jackchuka/allerscan/internal/camera"
	"github.com/jackchuka/allerscan/internal/permission"
	"github.com/jackchuka/allerscan/internal/session"
)

func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case animTickMsg:
		m.frame++
		if m.hasActiveAnimations() {
			return m, m.animTick()
		}
		m.animRunning = false
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)

	case permissionMsg:
		m.access = msg.state
		if msg.err != nil {
			m.log.Warn().Err(msg.err).Msg("camera permission")
		}
		m.log.Info().Stringer("state", msg.state).Msg("camera permission")
		if m.access != permission.Granted {
			return m, nil
		}
		return m, m.openSensors()

	case sensorsMsg:
		return m, m.activate(msg.det, msg.err)

	case detectionMsg:
		m.log.Debug().
			Str("payload", msg.det.Payload).
			Str("symbology", string(msg.det.Symbology)).
			Stringer("facing", msg.det.Facing).
			Msg("detection")
		return m, tea.Batch(
			m.scan(msg.det.Payload, msg.det.Symbology),
			m.listenForDetections(),
		)

	case lookupDoneMsg:
		if m.session == nil || !m.session.Complete(msg.ticket, msg.outcome) {
			return m, nil
		}
		if msg.outcome.Text == session.ErrorMessage {
			return m, m.addToast("Lookup failed for "+msg.ticket.Code, ToastError)
		}
		return m, nil

	case toastExpiredMsg:
		for i, t := range m.toasts {
			if t.ID == msg.id {
				m.toasts = append(m.toasts[:i], m.toasts[i+1:]...)
				break
			}
		}
	}

	return m, nil
}

func (m *Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	// Help overlay: any key closes
	if m.showHelp {
		m.showHelp = false
		return m, nil
	}

	// Manual entry mode
	if m.manualMode {
		switch {
		case key.Matches(msg, m.keys.Escape):
			m.manualMode = false
			m.manualInput.Reset()
			return m, nil
		case key.Matches(msg, m.keys.Enter):
			code := strings.TrimSpace(m.manualInput.Value())
			m.manualMode = false
			m.manualInput.Reset()
			if code == "" {
				return m, nil
			}
			return m, m.scan(code, camera.Classify(code))
		default:
			var cmd tea.Cmd
			m.manualInput, cmd = m.manualInput.Update(msg)
			return m, cmd
		}
	}

	if key.Matches(msg, m.keys.Quit) {
		return m, tea.Quit
	}
	if key.Matches(msg, m.keys.Help) {
		m.showHelp = true
		return m, nil
	}

	// Nothing else works without the sensors
	if m.session == nil {
		return m, nil
	}

	switch {
	case key.Matches(msg, m.keys.Reset):
		m.session.Reset()

	case key.Matches(msg, m.keys.Switch):
		f := m.session.SwitchSensor()
		label := "Using " + f.String() + " sensor"
		if f == camera.Front && !m.cfg.HasFront() {
			label += " (not connected)"
		}
		return m, m.addToast(label, ToastInfo)

	case key.Matches(msg, m.keys.Manual):
		if m.session.Snapshot().Status != session.Idle {
			return m, nil
		}
		m.manualMode = true
		m.manualInput.Focus()
		return m, textinput.Blink
	}

	return m, nil
}
