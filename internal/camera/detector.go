// internal/camera/detector.go
package camera

import (
	"context"
	"time"
)

// Facing selects which physical sensor feeds detections.
type Facing int

const (
	Back Facing = iota
	Front
)

func (f Facing) String() string {
	if f == Front {
		return "front"
	}
	return "back"
}

// Toggle returns the other sensor.
func (f Facing) Toggle() Facing {
	if f == Back {
		return Front
	}
	return Back
}

// ParseFacing maps a config value to a Facing; anything but "front" is Back.
func ParseFacing(s string) Facing {
	if s == "front" {
		return Front
	}
	return Back
}

// Detection is one decoded barcode from one physical scan.
type Detection struct {
	Symbology Symbology
	Payload   string
	Facing    Facing
	Time      time.Time
}

type Detector interface {
	Events() <-chan Detection
	SetFacing(f Facing)
	Facing() Facing
	Arm()
	Disarm()
	Armed() bool
	Run(ctx context.Context)
	Close() error
}
