package tui

import (
	"context"
	"time"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/rs/zerolog"

	"github.com/jackchuka/allerscan/internal/camera"
	"github.com/jackchuka/allerscan/internal/config"
	"github.com/jackchuka/allerscan/internal/openfoodfacts"
	"github.com/jackchuka/allerscan/internal/permission"
	"github.com/jackchuka/allerscan/internal/session"
)

type ToastLevel int

const (
	ToastInfo ToastLevel = iota
	ToastSuccess
	ToastError
)

type Toast struct {
	ID        int
	Message   string
	Level     ToastLevel
	CreatedAt time.Time
}

// Deps are the capabilities the screen is built from.
type Deps struct {
	Permission   permission.Provider
	Lookup       openfoodfacts.Lookup
	OpenDetector func() (camera.Detector, error)
	Logger       zerolog.Logger
}

type Model struct {
	cfg  *config.Config
	deps Deps

	width, height int

	access   permission.State
	session  *session.Session
	detector camera.Detector

	detectCancel context.CancelFunc
	symbology    camera.Symbology

	manualMode  bool
	manualInput textinput.Model
	showHelp    bool

	toasts      []Toast
	nextToastID int
	frame       int
	animRunning bool

	keys keyMap
	log  zerolog.Logger
}

func NewModel(cfg *config.Config, deps Deps) *Model {
	ti := textinput.New()
	ti.Placeholder = "barcode digits..."
	ti.CharLimit = 64

	return &Model{
		cfg:         cfg,
		deps:        deps,
		access:      permission.Undetermined,
		manualInput: ti,
		keys:        newKeyMap(),
		log:         deps.Logger,
	}
}

func (m *Model) Init() tea.Cmd {
	m.animRunning = true
	return tea.Batch(
		m.requestPermission(),
		func() tea.Msg { return animTickMsg{} },
	)
}

type permissionMsg struct {
	state permission.State
	err   error
}
type sensorsMsg struct {
	det camera.Detector
	err error
}
type detectionMsg struct{ det camera.Detection }
type lookupDoneMsg struct {
	ticket  session.Ticket
	outcome session.Outcome
}
type animTickMsg struct{}
type toastExpiredMsg struct{ id int }

func (m *Model) requestPermission() tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		st, err := permission.Resolve(ctx, m.deps.Permission)
		return permissionMsg{state: st, err: err}
	}
}

// openSensors opens the devices off the event loop once access is granted.
func (m *Model) openSensors() tea.Cmd {
	open := m.deps.OpenDetector
	return func() tea.Msg {
		det, err := open()
		return sensorsMsg{det: det, err: err}
	}
}

// activate builds the session around the opened sensors and starts reading.
func (m *Model) activate(det camera.Detector, err error) tea.Cmd {
	if err != nil {
		m.log.Error().Err(err).Msg("open sensors")
		m.access = permission.Denied
		return m.addToast("Sensor unavailable: "+err.Error(), ToastError)
	}

	m.detector = det
	m.session = session.New(m.deps.Lookup,
		session.WithCamera(det),
		session.WithFacing(camera.ParseFacing(m.cfg.DefaultFacing)),
		session.WithLogger(m.log),
	)

	ctx, cancel := context.WithCancel(context.Background())
	m.detectCancel = cancel
	go det.Run(ctx)
	return m.listenForDetections()
}

func (m *Model) listenForDetections() tea.Cmd {
	det := m.detector
	return func() tea.Msg {
		if det == nil {
			return nil
		}
		d, ok := <-det.Events()
		if !ok {
			return nil
		}
		return detectionMsg{d}
	}
}

// scan hands code to the session and, if it was accepted, starts the lookup.
func (m *Model) scan(code string, sym camera.Symbology) tea.Cmd {
	if m.session == nil {
		return nil
	}
	ticket, ok := m.session.Scan(code)
	if !ok {
		return nil
	}
	m.symbology = sym
	if m.manualMode {
		m.manualMode = false
		m.manualInput.Reset()
		m.manualInput.Blur()
	}
	return tea.Batch(m.lookup(ticket), m.ensureAnimTick())
}

func (m *Model) lookup(t session.Ticket) tea.Cmd {
	s := m.session
	return func() tea.Msg {
		return lookupDoneMsg{ticket: t, outcome: s.Lookup(context.Background(), t)}
	}
}

func (m *Model) snapshot() session.Snapshot {
	if m.session == nil {
		return session.Snapshot{}
	}
	return m.session.Snapshot()
}

func (m *Model) addToast(msg string, level ToastLevel) tea.Cmd {
	id := m.nextToastID
	m.nextToastID++
	t := Toast{
		ID:        id,
		Message:   msg,
		Level:     level,
		CreatedAt: time.Now(),
	}
	m.toasts = append(m.toasts, t)
	return tea.Tick(3*time.Second, func(_ time.Time) tea.Msg {
		return toastExpiredMsg{id}
	})
}

func (m *Model) animTick() tea.Cmd {
	m.animRunning = true
	return tea.Tick(100*time.Millisecond, func(_ time.Time) tea.Msg {
		return animTickMsg{}
	})
}

func (m *Model) hasActiveAnimations() bool {
	return m.access == permission.Undetermined || m.opening() || m.snapshot().Pending
}

// opening reports whether access was granted but the sensors are not yet open.
func (m *Model) opening() bool {
	return m.access == permission.Granted && m.session == nil
}

func (m *Model) ensureAnimTick() tea.Cmd {
	if m.animRunning {
		return nil
	}
	return m.animTick()
}

func (m *Model) shutdown() {
	if m.detectCancel != nil {
		m.detectCancel()
	}
	if m.detector != nil {
		if err := m.detector.Close(); err != nil {
			m.log.Warn().Err(err).Msg("close sensors")
		}
	}
}

func Run(cfg *config.Config, deps Deps) error {
	m := NewModel(cfg, deps)
	p := tea.NewProgram(m, tea.WithAltScreen())
	_, err := p.Run()

	m.shutdown()

	return err
}
