package qr

import (
	"io"

	"github.com/mdp/qrterminal/v3"
	rscqr "rsc.io/qr"
)

// WriteTerminal renders content as a half-block ANSI QR code on w, for
// scanning straight off the terminal. Callers should validate content with
// Encode first; the terminal renderer has no error path.
func WriteTerminal(w io.Writer, content string, level Level) {
	qrterminal.GenerateHalfBlock(content, terminalLevel(level), w)
}

// terminalLevel maps to the rsc.io/qr levels qrterminal understands.
func terminalLevel(l Level) rscqr.Level {
	switch l {
	case LevelLow:
		return rscqr.L
	case LevelQuartile:
		return rscqr.Q
	case LevelHigh:
		return rscqr.H
	default:
		return rscqr.M
	}
}
