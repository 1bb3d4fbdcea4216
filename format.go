package matrixscan

import (
	"fmt"
	"strings"
)

// Format identifies a symbology.
type Format int

const (
	FormatQRCode Format = iota
	FormatDataMatrix
)

var formatNames = [...]string{
	FormatQRCode:     "QR_CODE",
	FormatDataMatrix: "DATA_MATRIX",
}

func (f Format) String() string {
	if f >= 0 && int(f) < len(formatNames) {
		return formatNames[f]
	}
	return "UNKNOWN"
}

// ParseFormat accepts the String form case-insensitively, with '-' or ' '
// standing in for '_' ("qr-code", "QR_CODE").
func ParseFormat(s string) (Format, error) {
	norm := strings.ToUpper(strings.NewReplacer("-", "_", " ", "_").Replace(strings.TrimSpace(s)))
	if norm == "QR" {
		return FormatQRCode, nil
	}
	for f, name := range formatNames {
		if name == norm {
			return Format(f), nil
		}
	}
	return 0, fmt.Errorf("unknown format %q", s)
}

// MarshalText implements encoding.TextMarshaler.
func (f Format) MarshalText() ([]byte, error) {
	return []byte(f.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (f *Format) UnmarshalText(b []byte) error {
	v, err := ParseFormat(string(b))
	if err != nil {
		return err
	}
	*f = v
	return nil
}
