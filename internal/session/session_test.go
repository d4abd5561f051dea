package session

import (
	"bytes"
	"context"
	"net"
	"sync"
	"testing"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jackchuka/allerscan/internal/camera"
	"github.com/jackchuka/allerscan/internal/openfoodfacts"
)

type lookupFunc func(ctx context.Context, code string) (*openfoodfacts.Product, error)

func (f lookupFunc) Lookup(ctx context.Context, code string) (*openfoodfacts.Product, error) {
	return f(ctx, code)
}

func allergens(tags ...string) lookupFunc {
	return func(_ context.Context, code string) (*openfoodfacts.Product, error) {
		return &openfoodfacts.Product{Code: code, Name: "Test product", Allergens: tags}, nil
	}
}

func failing(err error) lookupFunc {
	return func(context.Context, string) (*openfoodfacts.Product, error) {
		return nil, err
	}
}

type fakeCamera struct {
	mu     sync.Mutex
	armed  bool
	facing camera.Facing
}

func (c *fakeCamera) SetFacing(f camera.Facing) { c.mu.Lock(); c.facing = f; c.mu.Unlock() }
func (c *fakeCamera) Arm()                      { c.mu.Lock(); c.armed = true; c.mu.Unlock() }
func (c *fakeCamera) Disarm()                   { c.mu.Lock(); c.armed = false; c.mu.Unlock() }
func (c *fakeCamera) Armed() bool               { c.mu.Lock(); defer c.mu.Unlock(); return c.armed }

func TestSession_InitialState(t *testing.T) {
	cam := &fakeCamera{}
	s := New(allergens(), WithCamera(cam))

	snap := s.Snapshot()
	assert.Equal(t, Idle, snap.Status)
	assert.Equal(t, camera.Back, snap.Facing)
	assert.Empty(t, snap.LastCode)
	assert.False(t, snap.Pending)
	assert.True(t, cam.Armed(), "camera should be armed at start")
}

func TestSession_HandleScan_Results(t *testing.T) {
	tests := []struct {
		name   string
		lookup lookupFunc
		want   string
	}{
		{"allergens joined by newline", allergens("en:milk", "en:soy"), "en:milk\nen:soy"},
		{"empty allergen list", allergens(), ""},
		{"no product", failing(openfoodfacts.ErrNotFound), NotFoundMessage},
		{"unreadable body", failing(errors.Wrap(openfoodfacts.ErrNotFound, "product 1: unreadable body")), NotFoundMessage},
		{"product without tags", failing(errors.Wrap(openfoodfacts.ErrNoAllergens, "product 1")), ErrorMessage},
		{"connection refused", failing(&net.OpError{Op: "dial", Err: errors.New("connection refused")}), ErrorMessage},
		{"timeout", failing(context.DeadlineExceeded), ErrorMessage},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := New(tt.lookup)

			got, ok := s.HandleScan(context.Background(), "3017620422003")
			require.True(t, ok)
			assert.Equal(t, tt.want, got)

			snap := s.Snapshot()
			assert.Equal(t, Resolved, snap.Status)
			assert.False(t, snap.Pending)
			assert.Equal(t, tt.want, snap.Result)
			assert.Equal(t, "3017620422003", snap.LastCode)
		})
	}
}

func TestSession_ScanIsPendingUntilComplete(t *testing.T) {
	cam := &fakeCamera{}
	s := New(allergens("en:gluten"), WithCamera(cam))

	ticket, ok := s.Scan("96385074")
	require.True(t, ok)
	assert.Equal(t, uint64(1), ticket.Seq)

	snap := s.Snapshot()
	assert.Equal(t, Resolved, snap.Status)
	assert.True(t, snap.Pending)
	assert.Empty(t, snap.Result)
	assert.False(t, cam.Armed(), "camera must be disarmed while resolved")

	out := s.Lookup(context.Background(), ticket)
	require.True(t, s.Complete(ticket, out))

	snap = s.Snapshot()
	assert.False(t, snap.Pending)
	assert.Equal(t, "en:gluten", snap.Result)
	assert.Equal(t, "Test product", snap.Product)
}

func TestSession_ScanWhileResolvedIsNoop(t *testing.T) {
	calls := 0
	s := New(lookupFunc(func(_ context.Context, code string) (*openfoodfacts.Product, error) {
		calls++
		return &openfoodfacts.Product{Code: code, Allergens: []string{"en:eggs"}}, nil
	}))

	_, ok := s.HandleScan(context.Background(), "111")
	require.True(t, ok)

	_, ok = s.Scan("222")
	assert.False(t, ok)
	_, ok = s.HandleScan(context.Background(), "333")
	assert.False(t, ok)

	snap := s.Snapshot()
	assert.Equal(t, "111", snap.LastCode)
	assert.Equal(t, "en:eggs", snap.Result)
	assert.Equal(t, 1, calls)
}

func TestSession_StatusAlternates(t *testing.T) {
	s := New(allergens("en:milk"))
	ctx := context.Background()

	var seen []Status
	record := func() { seen = append(seen, s.Snapshot().Status) }

	record()
	for i := 0; i < 3; i++ {
		s.HandleScan(ctx, "111")
		record()
		s.Scan("222") // ignored
		record()
		s.Reset()
		record()
		s.Reset() // ignored
		record()
	}

	want := []Status{Idle}
	for i := 0; i < 3; i++ {
		want = append(want, Resolved, Resolved, Idle, Idle)
	}
	assert.Equal(t, want, seen)
}

func TestSession_Reset(t *testing.T) {
	cam := &fakeCamera{}
	s := New(allergens("en:milk"), WithCamera(cam))

	_, _ = s.HandleScan(context.Background(), "111")
	require.False(t, cam.Armed())

	assert.True(t, s.Reset())
	assert.True(t, cam.Armed(), "reset should re-arm the camera")

	snap := s.Snapshot()
	assert.Equal(t, Idle, snap.Status)
	assert.Empty(t, snap.LastCode)
	assert.Empty(t, snap.Result)
	assert.Empty(t, snap.Product)
	assert.False(t, snap.Pending)
}

func TestSession_ResetWhileIdleIsNoop(t *testing.T) {
	cam := &fakeCamera{}
	s := New(allergens(), WithCamera(cam))
	before := s.Snapshot()

	assert.False(t, s.Reset())
	assert.Equal(t, before, s.Snapshot())
	assert.True(t, cam.Armed())
}

func TestSession_StaleResultDropped(t *testing.T) {
	s := New(allergens("en:milk"))
	ctx := context.Background()

	first, ok := s.Scan("111")
	require.True(t, ok)
	firstOut := s.Lookup(ctx, first)

	require.True(t, s.Reset())

	// Late result after reset, session idle
	assert.False(t, s.Complete(first, firstOut))
	assert.Equal(t, Idle, s.Snapshot().Status)

	second, ok := s.Scan("222")
	require.True(t, ok)

	// Late result after a new scan
	assert.False(t, s.Complete(first, firstOut))
	snap := s.Snapshot()
	assert.True(t, snap.Pending)
	assert.Equal(t, "222", snap.LastCode)

	assert.True(t, s.Complete(second, Outcome{Text: "en:soy"}))
	assert.Equal(t, "en:soy", s.Snapshot().Result)
}

func TestSession_SwitchSensor(t *testing.T) {
	cam := &fakeCamera{}
	s := New(allergens(), WithCamera(cam))

	assert.Equal(t, camera.Front, s.SwitchSensor())
	assert.Equal(t, camera.Front, cam.facing)
	assert.Equal(t, camera.Back, s.SwitchSensor())
	assert.Equal(t, camera.Back, cam.facing)
}

func TestSession_SwitchSensorDuringLookup(t *testing.T) {
	s := New(allergens("en:milk"), WithCamera(&fakeCamera{}))

	ticket, ok := s.Scan("111")
	require.True(t, ok)
	before := s.Snapshot()

	s.SwitchSensor()

	after := s.Snapshot()
	assert.Equal(t, before.Status, after.Status)
	assert.Equal(t, before.Result, after.Result)
	assert.Equal(t, before.Pending, after.Pending)
	assert.Equal(t, camera.Front, after.Facing)

	// The lookup issued before the switch still lands
	assert.True(t, s.Complete(ticket, s.Lookup(context.Background(), ticket)))
	assert.Equal(t, "en:milk", s.Snapshot().Result)
}

func TestSession_WithFacing(t *testing.T) {
	cam := &fakeCamera{}
	s := New(allergens(), WithCamera(cam), WithFacing(camera.Front))

	assert.Equal(t, camera.Front, s.Snapshot().Facing)
	assert.Equal(t, camera.Front, cam.facing)
}

func TestSession_LogsLookupFailure(t *testing.T) {
	var buf bytes.Buffer
	s := New(failing(errors.New("boom")), WithLogger(zerolog.New(&buf)))

	got, ok := s.HandleScan(context.Background(), "3017620422003")
	require.True(t, ok)
	assert.Equal(t, ErrorMessage, got)
	assert.Contains(t, buf.String(), `"level":"error"`)
	assert.Contains(t, buf.String(), `"code":"3017620422003"`)
	assert.Contains(t, buf.String(), "boom")
}

func TestSession_NotFoundIsNotLoggedAsError(t *testing.T) {
	var buf bytes.Buffer
	s := New(failing(openfoodfacts.ErrNotFound), WithLogger(zerolog.New(&buf).Level(zerolog.InfoLevel)))

	got, _ := s.HandleScan(context.Background(), "1")
	assert.Equal(t, NotFoundMessage, got)
	assert.NotContains(t, buf.String(), `"level":"error"`)
}

func TestSession_CancelledLookupIsNotLoggedAsError(t *testing.T) {
	var buf bytes.Buffer
	s := New(lookupFunc(func(ctx context.Context, _ string) (*openfoodfacts.Product, error) {
		return nil, ctx.Err()
	}), WithLogger(zerolog.New(&buf)))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	got, _ := s.HandleScan(ctx, "1")
	assert.Equal(t, ErrorMessage, got)
	assert.NotContains(t, buf.String(), `"level":"error"`)
	assert.Contains(t, buf.String(), "lookup cancelled")
}

func TestFormatAllergens(t *testing.T) {
	assert.Equal(t, "", FormatAllergens(nil))
	assert.Equal(t, "", FormatAllergens([]string{}))
	assert.Equal(t, "en:milk", FormatAllergens([]string{"en:milk"}))
	assert.Equal(t, "en:milk\nen:soy", FormatAllergens([]string{"en:milk", "en:soy"}))
}
