// Package session holds the scan lifecycle: a session is Idle while the
// camera is armed, and Resolved once a scan has been taken until the user
// resets it. Lookups are tagged with a ticket so that a result arriving after
// a reset can never overwrite a newer scan.
package session

import (
	"context"
	"sync"

	"github.com/rs/zerolog"

	"github.com/jackchuka/allerscan/internal/camera"
	"github.com/jackchuka/allerscan/internal/openfoodfacts"
)

type Status int

const (
	Idle Status = iota
	Resolved
)

func (s Status) String() string {
	if s == Resolved {
		return "resolved"
	}
	return "idle"
}

// Camera is the part of the camera capability the session drives.
type Camera interface {
	SetFacing(f camera.Facing)
	Arm()
	Disarm()
}

// Ticket identifies one lookup.
type Ticket struct {
	Seq  uint64
	Code string
}

type Snapshot struct {
	Status   Status
	Facing   camera.Facing
	LastCode string
	Result   string
	Pending  bool // Resolved, lookup not finished yet
	Product  string
	Seq      uint64
}

type Session struct {
	mu sync.Mutex

	status   Status
	facing   camera.Facing
	lastCode string
	result   *string
	product  string
	seq      uint64

	lookup openfoodfacts.Lookup
	cam    Camera
	log    zerolog.Logger
}

type Option func(*Session)

func WithCamera(c Camera) Option {
	return func(s *Session) { s.cam = c }
}

func WithLogger(l zerolog.Logger) Option {
	return func(s *Session) { s.log = l }
}

func WithFacing(f camera.Facing) Option {
	return func(s *Session) { s.facing = f }
}

func New(lookup openfoodfacts.Lookup, opts ...Option) *Session {
	s := &Session{
		lookup: lookup,
		log:    zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.cam != nil {
		s.cam.SetFacing(s.facing)
		s.cam.Arm()
	}
	return s
}

// Scan moves an Idle session to Resolved with the result pending and disarms
// the camera. It returns false, and changes nothing, unless the session is Idle.
func (s *Session) Scan(code string) (Ticket, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.status != Idle {
		s.log.Debug().Str("code", code).Msg("scan ignored, session resolved")
		return Ticket{}, false
	}

	s.seq++
	s.status = Resolved
	s.lastCode = code
	s.result = nil
	s.product = ""
	if s.cam != nil {
		s.cam.Disarm()
	}

	s.log.Info().Str("code", code).Uint64("seq", s.seq).Msg("scanned")
	return Ticket{Seq: s.seq, Code: code}, true
}

// Lookup queries the lookup service for t and returns the text to show.
// It never fails; errors become ErrorMessage and are logged.
func (s *Session) Lookup(ctx context.Context, t Ticket) Outcome {
	p, err := s.lookup.Lookup(ctx, t.Code)
	out := outcomeOf(p, err)
	switch {
	case out.Text != ErrorMessage:
	case ctx.Err() != nil:
		s.log.Debug().Err(err).Str("code", t.Code).Uint64("seq", t.Seq).Msg("lookup cancelled")
	default:
		s.log.Error().Err(err).Str("code", t.Code).Uint64("seq", t.Seq).Msg("Error fetching product data")
	}
	return out
}

// Complete stores the outcome of t. It returns false when t is stale: the
// session was reset, or reset and scanned again, after t was issued.
func (s *Session) Complete(t Ticket, out Outcome) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.status != Resolved || s.seq != t.Seq {
		s.log.Debug().Uint64("seq", t.Seq).Uint64("current", s.seq).Msg("stale lookup result dropped")
		return false
	}

	text := out.Text
	s.result = &text
	s.product = out.Product
	return true
}

// HandleScan runs a scan through to its result. The second return is false
// if the session was not Idle or the result went stale.
func (s *Session) HandleScan(ctx context.Context, code string) (string, bool) {
	t, ok := s.Scan(code)
	if !ok {
		return "", false
	}
	out := s.Lookup(ctx, t)
	if !s.Complete(t, out) {
		return "", false
	}
	return out.Text, true
}

// Reset returns a Resolved session to Idle and re-arms the camera.
// On an Idle session it does nothing and returns false.
func (s *Session) Reset() bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.status != Resolved {
		return false
	}

	s.status = Idle
	s.lastCode = ""
	s.result = nil
	s.product = ""
	if s.cam != nil {
		s.cam.Arm()
	}
	return true
}

// SwitchSensor toggles between the back and front sensor. It does not touch
// the scan state or any lookup in flight.
func (s *Session) SwitchSensor() camera.Facing {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.facing = s.facing.Toggle()
	if s.cam != nil {
		s.cam.SetFacing(s.facing)
	}
	s.log.Debug().Stringer("facing", s.facing).Msg("sensor switched")
	return s.facing
}

func (s *Session) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	snap := Snapshot{
		Status:   s.status,
		Facing:   s.facing,
		LastCode: s.lastCode,
		Product:  s.product,
		Seq:      s.seq,
	}
	if s.status == Resolved {
		if s.result == nil {
			snap.Pending = true
		} else {
			snap.Result = *s.result
		}
	}
	return snap
}
