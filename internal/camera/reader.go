// internal/camera/reader.go
package camera

import (
	"bufio"
	"bytes"
	"context"
	"io"
	"os"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/pkg/errors"
)

// StdinDevice is the device path that reads scans from standard input.
const StdinDevice = "-"

// DeviceReader turns line-oriented barcode sensors into detections.
// Each sensor writes one decoded payload per line, terminated by CR, LF or CRLF.
// Only the active sensor feeds events, and only while armed. After each
// detection the reader disarms itself until Arm is called again.
type DeviceReader struct {
	sources map[Facing]io.Reader
	closers []io.Closer
	filter  *Filter
	events  chan Detection

	mu     sync.RWMutex
	facing Facing
	armed  bool
	closed bool
}

type sensorLine struct {
	facing Facing
	text   string
}

func NewDeviceReader(sources map[Facing]io.Reader, filter *Filter) *DeviceReader {
	d := &DeviceReader{
		sources: sources,
		filter:  filter,
		events:  make(chan Detection, 1),
		armed:   true,
	}
	for _, src := range sources {
		if c, ok := src.(io.Closer); ok {
			d.closers = append(d.closers, c)
		}
	}
	return d
}

// OpenDevices opens the back and optional front sensor paths for reading.
func OpenDevices(back, front string) (map[Facing]io.Reader, error) {
	sources := make(map[Facing]io.Reader, 2)

	b, err := openDevice(back)
	if err != nil {
		return nil, err
	}
	sources[Back] = b

	if front != "" {
		f, err := openDevice(front)
		if err != nil {
			if bc, ok := b.(io.Closer); ok && b != os.Stdin {
				_ = bc.Close()
			}
			return nil, err
		}
		sources[Front] = f
	}

	return sources, nil
}

func openDevice(path string) (io.Reader, error) {
	if path == StdinDevice {
		return os.Stdin, nil
	}
	fi, err := os.Stat(path)
	if err != nil {
		return nil, errors.Wrapf(err, "open sensor %s", path)
	}
	if fi.Mode()&os.ModeNamedPipe != 0 {
		p, err := openPipe(path)
		if err != nil {
			return nil, err
		}
		return p, nil
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrapf(err, "open sensor %s", path)
	}
	return f, nil
}

// pipeSensor reads a named pipe across writer sessions. It holds its own
// write end so the pipe never reports EOF when a scanner process disconnects,
// and opening never waits for a writer.
type pipeSensor struct {
	r    *os.File
	hold *os.File
}

func openPipe(path string) (*pipeSensor, error) {
	r, err := os.OpenFile(path, os.O_RDONLY|syscall.O_NONBLOCK, 0)
	if err != nil {
		return nil, errors.Wrapf(err, "open sensor %s", path)
	}
	hold, err := os.OpenFile(path, os.O_WRONLY|syscall.O_NONBLOCK, 0)
	if err != nil {
		_ = r.Close()
		return nil, errors.Wrapf(err, "hold sensor pipe %s", path)
	}
	return &pipeSensor{r: r, hold: hold}, nil
}

func (p *pipeSensor) Read(b []byte) (int, error) {
	return p.r.Read(b)
}

func (p *pipeSensor) Close() error {
	err := p.r.Close()
	if herr := p.hold.Close(); err == nil {
		err = herr
	}
	return err
}

func (d *DeviceReader) Events() <-chan Detection {
	return d.events
}

func (d *DeviceReader) SetFacing(f Facing) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.facing = f
}

func (d *DeviceReader) Facing() Facing {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.facing
}

func (d *DeviceReader) Arm() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.armed = true
}

func (d *DeviceReader) Disarm() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.armed = false
}

func (d *DeviceReader) Armed() bool {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.armed
}

// Run reads all sensors until ctx is cancelled or every sensor reaches EOF.
// Named pipes never reach EOF; stdin and regular files do.
// The events channel is closed when Run returns.
func (d *DeviceReader) Run(ctx context.Context) {
	defer close(d.events)

	lines := make(chan sensorLine)
	var wg sync.WaitGroup

	for facing, src := range d.sources {
		wg.Add(1)
		go func(facing Facing, src io.Reader) {
			defer wg.Done()
			sc := bufio.NewScanner(src)
			sc.Split(scanTerminatedLines)
			for sc.Scan() {
				select {
				case lines <- sensorLine{facing: facing, text: sc.Text()}:
				case <-ctx.Done():
					return
				}
			}
		}(facing, src)
	}

	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()

	for {
		select {
		case <-ctx.Done():
			return
		case <-done:
			return
		case l := <-lines:
			det, ok := d.accept(l)
			if !ok {
				continue
			}
			select {
			case d.events <- det:
			case <-ctx.Done():
				return
			}
		}
	}
}

// accept applies the arming, facing and ignore rules to one line and disarms
// the reader when the line becomes a detection.
func (d *DeviceReader) accept(l sensorLine) (Detection, bool) {
	payload := strings.TrimSpace(l.text)
	if payload == "" {
		return Detection{}, false
	}
	if d.filter.ShouldIgnore(payload) {
		return Detection{}, false
	}

	d.mu.Lock()
	defer d.mu.Unlock()
	if !d.armed || d.facing != l.facing {
		return Detection{}, false
	}
	d.armed = false

	return Detection{
		Symbology: Classify(payload),
		Payload:   payload,
		Facing:    l.facing,
		Time:      time.Now(),
	}, true
}

// Close releases the sensor devices, which unblocks pending reads.
func (d *DeviceReader) Close() error {
	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		return nil
	}
	d.closed = true
	d.mu.Unlock()

	var firstErr error
	for _, c := range d.closers {
		if f, ok := c.(*os.File); ok && f == os.Stdin {
			continue
		}
		if err := c.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

// scanTerminatedLines is bufio.ScanLines that also accepts a bare CR as
// terminator, which is what many serial scanners send.
func scanTerminatedLines(data []byte, atEOF bool) (advance int, token []byte, err error) {
	if atEOF && len(data) == 0 {
		return 0, nil, nil
	}
	if i := bytes.IndexAny(data, "\r\n"); i >= 0 {
		advance = i + 1
		if data[i] == '\r' && i+1 < len(data) && data[i+1] == '\n' {
			advance++
		}
		return advance, data[:i], nil
	}
	if atEOF {
		return len(data), data, nil
	}
	return 0, nil, nil
}
