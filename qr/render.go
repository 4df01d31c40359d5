package qr

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"io"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/image/bmp"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
)

// Format is an output image encoding.
type Format string

const (
	FormatPNG  Format = "png"
	FormatJPEG Format = "jpeg"
	FormatBMP  Format = "bmp"
)

// ParseFormat maps a format name (or file extension spelling) to a Format.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "png", "":
		return FormatPNG, nil
	case "jpeg", "jpg":
		return FormatJPEG, nil
	case "bmp":
		return FormatBMP, nil
	}
	return FormatPNG, fmt.Errorf("qr: unsupported image format %q", s)
}

// FormatForPath picks the output format from the file extension, defaulting
// to PNG for unknown or missing extensions.
func FormatForPath(path string) Format {
	f, err := ParseFormat(strings.TrimPrefix(filepath.Ext(path), "."))
	if err != nil {
		return FormatPNG
	}
	return f
}

const (
	captionMargin = 16 // blank rows above and below the caption text
	captionHeight = 40 // rows reserved for the caption glyphs
)

// Image renders the symbol as a raster where every module maps to a
// ModuleSize x ModuleSize pixel block, surrounded by a quiet zone of Border
// modules. If a caption is set, a white strip with centered text is appended
// below the symbol.
func (c *Code) Image() image.Image {
	ms := c.opts.ModuleSize
	side := (c.Size() + 2*c.opts.Border) * ms

	height := side
	if c.opts.Caption != "" {
		height += captionHeight + 2*captionMargin
	}

	img := image.NewPaletted(image.Rect(0, 0, side, height), color.Palette{
		c.opts.Background,
		c.opts.Foreground,
	})
	// Index 0 (background) is the zero value, so only dark modules need
	// to be painted.
	for y, row := range c.modules {
		for x, dark := range row {
			if !dark {
				continue
			}
			x0 := (x + c.opts.Border) * ms
			y0 := (y + c.opts.Border) * ms
			for dy := 0; dy < ms; dy++ {
				for dx := 0; dx < ms; dx++ {
					img.SetColorIndex(x0+dx, y0+dy, 1)
				}
			}
		}
	}

	if c.opts.Caption != "" {
		drawCaption(img, c.opts.Caption, side, c.opts.Foreground)
	}
	return img
}

// drawCaption centers text in the strip below the symbol square.
func drawCaption(img *image.Paletted, text string, symbolSide int, fg color.Color) {
	face := basicfont.Face7x13
	d := &font.Drawer{
		Dst:  img,
		Src:  image.NewUniform(fg),
		Face: face,
	}
	x := (img.Bounds().Dx() - d.MeasureString(text).Ceil()) / 2
	if x < 0 {
		x = 0
	}
	d.Dot = fixed.P(x, symbolSide+captionMargin+face.Ascent)
	d.DrawString(text)
}

// EncodeTo renders the symbol and writes it to w in the given format.
func (c *Code) EncodeTo(w io.Writer, f Format) error {
	img := c.Image()
	switch f {
	case FormatJPEG:
		return jpeg.Encode(w, img, &jpeg.Options{Quality: 90})
	case FormatBMP:
		return bmp.Encode(w, img)
	default:
		return png.Encode(w, img)
	}
}

// PNG renders the symbol and returns the PNG bytes.
func (c *Code) PNG() ([]byte, error) {
	var buf bytes.Buffer
	if err := c.EncodeTo(&buf, FormatPNG); err != nil {
		return nil, fmt.Errorf("encode png: %w", err)
	}
	return buf.Bytes(), nil
}

// WriteFile renders the symbol into path, creating missing parent
// directories. The image format is inferred from the file extension.
func (c *Code) WriteFile(path string) error {
	if dir := filepath.Dir(path); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create output dir %s: %w", dir, err)
		}
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	if err := c.EncodeTo(f, FormatForPath(path)); err != nil {
		f.Close()
		return fmt.Errorf("write %s: %w", path, err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("close %s: %w", path, err)
	}
	return nil
}
