// internal/permission/permission.go
package permission

import (
	"context"

	"github.com/pkg/errors"
)

type State int

const (
	Undetermined State = iota
	Granted
	Denied
)

func (s State) String() string {
	switch s {
	case Granted:
		return "granted"
	case Denied:
		return "denied"
	}
	return "undetermined"
}

// Provider answers whether the app may use the camera sensors.
// It is asked once at startup.
type Provider interface {
	RequestAccess(ctx context.Context) (State, error)
}

// Static always answers with the same state.
type Static State

func (s Static) RequestAccess(context.Context) (State, error) {
	return State(s), nil
}

// DeviceProvider grants access when the back sensor device is readable by
// this process. The device is not opened, so a pipe without a writer does not
// block the request. The stdin device is granted only when AllowStdin is set, since the
// interactive UI reads the keyboard from stdin.
type DeviceProvider struct {
	Path       string
	AllowStdin bool
}

func (p DeviceProvider) RequestAccess(ctx context.Context) (State, error) {
	if err := ctx.Err(); err != nil {
		return Undetermined, err
	}

	if p.Path == "-" {
		if p.AllowStdin {
			return Granted, nil
		}
		return Denied, nil
	}

	if err := readable(p.Path); err != nil {
		return Denied, errors.Wrapf(err, "sensor %s", p.Path)
	}
	return Granted, nil
}

// Resolve asks p once. Any error counts as Denied.
func Resolve(ctx context.Context, p Provider) (State, error) {
	st, err := p.RequestAccess(ctx)
	if err != nil {
		return Denied, err
	}
	if st == Undetermined {
		return Denied, nil
	}
	return st, nil
}
