// Package qr turns text into QR symbol images. Symbol construction (mode
// selection, error correction coding, masking, version fit) is delegated to
// skip2/go-qrcode; this package owns input validation and rendering.
package qr

import (
	"errors"
	"fmt"
	"image/color"
	"strings"

	qrcode "github.com/skip2/go-qrcode"
)

var (
	// ErrEmptyContent is returned when there is nothing to encode.
	ErrEmptyContent = errors.New("qr: empty content")

	// ErrContentTooLong is returned when the input exceeds the symbol
	// capacity for the chosen error correction level.
	ErrContentTooLong = errors.New("qr: content too long")
)

// Level is the QR error correction level.
type Level int

const (
	LevelLow      Level = iota // recovers ~7% damage
	LevelMedium                // recovers ~15% damage
	LevelQuartile              // recovers ~25% damage
	LevelHigh                  // recovers ~30% damage
)

// ParseLevel maps "L", "M", "Q", "H" (or their long forms) to a Level.
func ParseLevel(s string) (Level, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "L", "LOW":
		return LevelLow, nil
	case "M", "MEDIUM", "":
		return LevelMedium, nil
	case "Q", "QUARTILE":
		return LevelQuartile, nil
	case "H", "HIGH":
		return LevelHigh, nil
	}
	return LevelMedium, fmt.Errorf("qr: unknown error correction level %q", s)
}

func (l Level) String() string {
	switch l {
	case LevelLow:
		return "L"
	case LevelQuartile:
		return "Q"
	case LevelHigh:
		return "H"
	default:
		return "M"
	}
}

func (l Level) recovery() qrcode.RecoveryLevel {
	switch l {
	case LevelLow:
		return qrcode.Low
	case LevelQuartile:
		return qrcode.High // skip2's High is the 25% quartile level
	case LevelHigh:
		return qrcode.Highest
	default:
		return qrcode.Medium
	}
}

// byteCapacity is the byte-mode payload limit of a version 40 symbol per
// error correction level. Numeric and alphanumeric content packs denser, so
// the symbol may hold more characters than this.
var byteCapacity = map[Level]int{
	LevelLow:      2953,
	LevelMedium:   2331,
	LevelQuartile: 1663,
	LevelHigh:     1273,
}

// Capacity returns the guaranteed input capacity in bytes for the given
// level, assuming the densest (byte) encoding mode. The mode chosen during
// encoding may admit longer numeric or alphanumeric content.
func Capacity(l Level) int {
	return byteCapacity[l]
}

// Options controls symbol encoding and rendering.
type Options struct {
	Level      Level       // error correction level
	ModuleSize int         // pixels per module
	Border     int         // quiet zone width in modules; 0 means no quiet zone
	Foreground color.Color // module color
	Background color.Color // quiet zone and light module color
	Caption    string      // optional text strip under the symbol
}

// DefaultOptions mirrors common scanner-friendly settings: medium error
// correction, 10 px modules, 4-module quiet zone, black on white.
func DefaultOptions() Options {
	return Options{
		Level:      LevelMedium,
		ModuleSize: 10,
		Border:     4,
		Foreground: color.Black,
		Background: color.White,
	}
}

// normalized clamps unset or out-of-range fields so the zero value of
// Options is usable. A zero Border stays zero: it is a valid "no quiet
// zone" setting, not an unset default. Start from DefaultOptions for the
// scanner-friendly 4-module quiet zone.
func (o Options) normalized() Options {
	if o.ModuleSize < 1 {
		o.ModuleSize = 10
	}
	if o.Border < 0 {
		o.Border = 4
	}
	if o.Foreground == nil {
		o.Foreground = color.Black
	}
	if o.Background == nil {
		o.Background = color.White
	}
	return o
}

// Code is an encoded QR symbol plus the options it will be rendered with.
// It is immutable after Encode.
type Code struct {
	content string
	opts    Options
	modules [][]bool
}

// Encode builds the smallest QR symbol that holds content at the requested
// error correction level. The module grid excludes the quiet zone; the
// renderer adds it back per Options.Border.
func Encode(content string, opts Options) (*Code, error) {
	if content == "" {
		return nil, ErrEmptyContent
	}
	opts = opts.normalized()

	qc, err := qrcode.New(content, opts.Level.recovery())
	if err != nil {
		// Capacity depends on the encoding mode the library picks, so
		// over-capacity input is only detectable from its failure.
		if strings.Contains(err.Error(), "too long") {
			return nil, fmt.Errorf("%w: %d bytes does not fit a version 40 symbol at level %s",
				ErrContentTooLong, len(content), opts.Level)
		}
		return nil, fmt.Errorf("encode symbol: %w", err)
	}
	qc.DisableBorder = true

	return &Code{content: content, opts: opts, modules: qc.Bitmap()}, nil
}

// Content returns the encoded text.
func (c *Code) Content() string { return c.content }

// Size returns the symbol side length in modules (21 for version 1 up to
// 177 for version 40).
func (c *Code) Size() int { return len(c.modules) }

// Options returns the rendering options the code was encoded with.
func (c *Code) Options() Options { return c.opts }
