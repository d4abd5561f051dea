// internal/camera/symbology.go
package camera

type Symbology string

const (
	EAN13   Symbology = "EAN-13"
	UPCA    Symbology = "UPC-A"
	EAN8    Symbology = "EAN-8"
	UPCE    Symbology = "UPC-E"
	QR      Symbology = "QR"
	Unknown Symbology = "unknown"
)

// Classify guesses the symbology from the payload shape. Line-oriented
// scanners do not report the symbology, and no check digit is verified.
func Classify(payload string) Symbology {
	if payload == "" {
		return Unknown
	}
	if !allDigits(payload) {
		return QR
	}
	switch len(payload) {
	case 13:
		return EAN13
	case 12:
		return UPCA
	case 8:
		return EAN8
	case 6:
		return UPCE
	}
	return Unknown
}

func allDigits(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}
