package qr

import (
	"bytes"
	"image"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/image/bmp"
)

func TestImageGeometry(t *testing.T) {
	opts := DefaultOptions()
	opts.ModuleSize = 3
	opts.Border = 2

	code, err := Encode("https://example.com", opts)
	require.NoError(t, err)

	img := code.Image()
	want := (code.Size() + 2*opts.Border) * opts.ModuleSize
	assert.Equal(t, want, img.Bounds().Dx())
	assert.Equal(t, want, img.Bounds().Dy())
}

func TestImageQuietZoneIsBackground(t *testing.T) {
	opts := DefaultOptions()
	opts.ModuleSize = 4
	opts.Border = 4

	code, err := Encode("https://example.com", opts)
	require.NoError(t, err)

	img := code.Image()
	// Every pixel of the border rows must be light.
	for x := 0; x < img.Bounds().Dx(); x++ {
		for y := 0; y < opts.Border*opts.ModuleSize; y++ {
			r, g, b, _ := img.At(x, y).RGBA()
			assert.True(t, r == 0xffff && g == 0xffff && b == 0xffff,
				"pixel (%d,%d) in quiet zone is not white", x, y)
		}
	}
}

func TestImageCaptionAddsStrip(t *testing.T) {
	plain, err := Encode("https://example.com", DefaultOptions())
	require.NoError(t, err)

	opts := DefaultOptions()
	opts.Caption = "scan me"
	captioned, err := Encode("https://example.com", opts)
	require.NoError(t, err)

	pi := plain.Image().Bounds()
	ci := captioned.Image().Bounds()
	assert.Equal(t, pi.Dx(), ci.Dx())
	assert.Equal(t, pi.Dy()+captionHeight+2*captionMargin, ci.Dy())
}

func TestPNGBytesAreValid(t *testing.T) {
	code, err := Encode("https://example.com", DefaultOptions())
	require.NoError(t, err)

	data, err := code.PNG()
	require.NoError(t, err)

	img, err := png.Decode(bytes.NewReader(data))
	require.NoError(t, err)
	assert.Equal(t, code.Image().Bounds(), img.Bounds())
}

func TestEncodeToBMP(t *testing.T) {
	code, err := Encode("https://example.com", DefaultOptions())
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, code.EncodeTo(&buf, FormatBMP))

	img, err := bmp.Decode(&buf)
	require.NoError(t, err)
	assert.Equal(t, code.Image().Bounds().Dx(), img.Bounds().Dx())
}

func TestWriteFileCreatesParentDirs(t *testing.T) {
	dir := t.TempDir()
	out := filepath.Join(dir, "nested", "deeper", "code.png")

	code, err := Encode("https://example.com", DefaultOptions())
	require.NoError(t, err)
	require.NoError(t, code.WriteFile(out))

	f, err := os.Open(out)
	require.NoError(t, err)
	defer f.Close()

	img, format, err := image.Decode(f)
	require.NoError(t, err)
	assert.Equal(t, "png", format)
	assert.Equal(t, code.Image().Bounds(), img.Bounds())
}

func TestWriteFileFormatFromExtension(t *testing.T) {
	dir := t.TempDir()
	out := filepath.Join(dir, "code.bmp")

	code, err := Encode("https://example.com", DefaultOptions())
	require.NoError(t, err)
	require.NoError(t, code.WriteFile(out))

	f, err := os.Open(out)
	require.NoError(t, err)
	defer f.Close()

	_, format, err := image.Decode(f)
	require.NoError(t, err)
	assert.Equal(t, "bmp", format)
}

func TestParseFormat(t *testing.T) {
	tests := []struct {
		in      string
		want    Format
		wantErr bool
	}{
		{"png", FormatPNG, false},
		{"", FormatPNG, false},
		{"jpeg", FormatJPEG, false},
		{"jpg", FormatJPEG, false},
		{"BMP", FormatBMP, false},
		{"gif", FormatPNG, true},
	}
	for _, tt := range tests {
		got, err := ParseFormat(tt.in)
		if tt.wantErr {
			assert.Error(t, err, "input %q", tt.in)
			continue
		}
		require.NoError(t, err, "input %q", tt.in)
		assert.Equal(t, tt.want, got, "input %q", tt.in)
	}
}

func TestFormatForPath(t *testing.T) {
	assert.Equal(t, FormatPNG, FormatForPath("qrs/out.png"))
	assert.Equal(t, FormatJPEG, FormatForPath("out.jpg"))
	assert.Equal(t, FormatBMP, FormatForPath("out.bmp"))
	assert.Equal(t, FormatPNG, FormatForPath("out"))
	assert.Equal(t, FormatPNG, FormatForPath("out.webp"))
}
