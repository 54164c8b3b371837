package bmp

import (
	"bytes"
	"image"
	"image/color"
	"strings"
	"testing"

	"github.com/anas-shakeel/go-bmp4/internal/utils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	xbmp "golang.org/x/image/bmp"
	"gopkg.in/yaml.v2"
)

func opaqueImage(width, height int, seed uint64) *image.NRGBA {
	m := image.NewNRGBA(image.Rect(0, 0, width, height))
	pix := randomPixels(seed, len(m.Pix))
	for i := range pix {
		if i%4 == 3 {
			pix[i] = 0xFF
		}
	}
	copy(m.Pix, pix)
	return m
}

func TestToNRGBAOrientation(t *testing.T) {
	// stored rows: bottom (blue) first, then top (red)
	bottomUp, err := Encode(1, 2, 24, []byte{255, 0, 0, 0, 0, 255}, CompressionRGB)
	require.NoError(t, err)
	m := bottomUp.ToNRGBA()
	assert.Equal(t, color.NRGBA{R: 255, A: 255}, m.NRGBAAt(0, 0))
	assert.Equal(t, color.NRGBA{B: 255, A: 255}, m.NRGBAAt(0, 1))

	topDown, err := Encode(1, -2, 24, []byte{255, 0, 0, 0, 0, 255}, CompressionRGB)
	require.NoError(t, err)
	m = topDown.ToNRGBA()
	assert.Equal(t, color.NRGBA{B: 255, A: 255}, m.NRGBAAt(0, 0))
	assert.Equal(t, color.NRGBA{R: 255, A: 255}, m.NRGBAAt(0, 1))
}

func TestToNRGBAAlpha(t *testing.T) {
	b, err := Encode(2, 2, 32, scenarioPixels, CompressionBitfields)
	require.NoError(t, err)
	m := b.ToNRGBA()
	// first stored row is the bottom of the picture
	assert.Equal(t, color.NRGBA{R: 255, A: 255}, m.NRGBAAt(0, 1))
	assert.Equal(t, color.NRGBA{G: 255, A: 255}, m.NRGBAAt(1, 1))
	assert.Equal(t, color.NRGBA{B: 255, A: 255}, m.NRGBAAt(0, 0))
	assert.Equal(t, color.NRGBA{R: 255, G: 255, B: 255}, m.NRGBAAt(1, 0))

	// without an alpha mask the 4th byte is not alpha
	b.BIHeader.AlphaMask = 0
	assert.Equal(t, uint8(255), b.ToNRGBA().NRGBAAt(1, 0).A)
}

func TestFromImage(t *testing.T) {
	src := image.NewNRGBA(image.Rect(0, 0, 3, 2))
	for i := range src.Pix {
		src.Pix[i] = byte(i * 9)
	}

	b, err := FromImage(src, 32)
	require.NoError(t, err)
	assert.Equal(t, CompressionBitfields, b.BIHeader.Compression)
	assert.Equal(t, int32(2), b.BIHeader.Height)
	assert.Equal(t, src, b.ToNRGBA())

	b, err = FromImage(src, 24, WithCompression(CompressionRGB))
	require.NoError(t, err)
	assert.Equal(t, CompressionRGB, b.BIHeader.Compression)
	assert.Equal(t, 12, b.Stride)
	m := b.ToNRGBA()
	for y := range 2 {
		for x := range 3 {
			want := src.NRGBAAt(x, y)
			want.A = 0xFF
			assert.Equal(t, want, m.NRGBAAt(x, y))
		}
	}

	_, err = FromImage(src, 8)
	var unsupported UnsupportedError
	assert.ErrorAs(t, err, &unsupported)
}

func TestDecodesStandardLibraryOutput(t *testing.T) {
	src := opaqueImage(5, 3, 11)
	var buf bytes.Buffer
	require.NoError(t, xbmp.Encode(&buf, src))

	b, err := Decode(&buf)
	require.NoError(t, err)
	assert.Equal(t, uint32(InfoHeaderSize), b.BIHeader.Size)
	assert.Equal(t, uint16(24), b.BIHeader.BitCount)
	assert.Equal(t, src, b.ToNRGBA())
}

func TestStandardLibraryDecodesOutput(t *testing.T) {
	for _, bpp := range []uint16{24, 32} {
		src := opaqueImage(7, 5, uint64(bpp))
		b, err := FromImage(src, bpp)
		require.NoError(t, err)
		var buf bytes.Buffer
		_, err = b.WriteTo(&buf)
		require.NoError(t, err)

		m, err := xbmp.Decode(&buf)
		require.NoError(t, err, "bpp=%d", bpp)
		require.Equal(t, src.Bounds(), m.Bounds())
		for y := range 5 {
			for x := range 7 {
				got := color.NRGBAModel.Convert(m.At(x, y)).(color.NRGBA)
				assert.Equal(t, src.NRGBAAt(x, y), got, "bpp=%d (%d, %d)", bpp, x, y)
			}
		}
	}
}

func TestFromReaderPaletted(t *testing.T) {
	palette := color.Palette{color.NRGBA{A: 255}, color.NRGBA{R: 10, G: 20, B: 30, A: 255}}
	src := image.NewPaletted(image.Rect(0, 0, 2, 2), palette)
	src.SetColorIndex(1, 0, 1)
	var buf bytes.Buffer
	require.NoError(t, xbmp.Encode(&buf, src))
	data := buf.Bytes()

	_, err := Decode(bytes.NewReader(data))
	var unsupported UnsupportedError
	require.ErrorAs(t, err, &unsupported)

	b, err := FromReader(bytes.NewReader(data), 24)
	require.NoError(t, err)
	c, err := b.At(1, 1) // stored row 1 is the top row
	require.NoError(t, err)
	assert.Equal(t, Color32{B: 30, G: 20, R: 10, A: 255}, c)

	_, err = FromReader(strings.NewReader("not a bitmap"), 24)
	assert.Error(t, err)
}

func TestMetadata(t *testing.T) {
	b, err := Encode(2, 2, 32, scenarioPixels, CompressionBitfields)
	require.NoError(t, err)
	b.Filename = "scenario.bmp"

	m := b.Metadata()
	assert.Equal(t, "BM", m.Signature)
	assert.Equal(t, uint32(138), m.FileSize)
	assert.Equal(t, "BI_BITFIELDS", m.Compression)
	assert.Equal(t, "0x00FF0000", m.RedMask)
	assert.Equal(t, "0xFF000000", m.AlphaMask)
	assert.Equal(t, "LCS_sRGB", m.ColorSpace)
	assert.Equal(t, 16, m.PixelBufferBytes)

	out, err := yaml.Marshal(m)
	require.NoError(t, err)
	var back Metadata
	require.NoError(t, yaml.Unmarshal(out, &back))
	assert.Equal(t, m, back)
	assert.Contains(t, string(out), "compression: BI_BITFIELDS\n")
}

func TestPrintMetadata(t *testing.T) {
	b, err := Encode(2, 2, 32, scenarioPixels, CompressionBitfields)
	require.NoError(t, err)
	var buf bytes.Buffer
	b.PrintMetadata(&buf)
	out := buf.String()
	assert.Contains(t, out, "Signature: \tBM\n")
	assert.Contains(t, out, "Width: \t\t2 px\n")
	assert.Contains(t, out, "Filesize: \t138 bytes\n")
	assert.Contains(t, out, "PixelOffset: \t122 bytes\n")
	assert.Contains(t, out, "ColorSpace: \tLCS_sRGB\n")

	b, err = Encode(1, 1, 24, []byte{1, 2, 3}, CompressionRGB)
	require.NoError(t, err)
	buf.Reset()
	b.PrintMetadata(&buf)
	assert.Contains(t, buf.String(), "Padding: \t1 bytes\n")
	assert.NotContains(t, buf.String(), "Masks")
}

func TestPrintBitmap(t *testing.T) {
	b, err := Encode(1, 1, 24, []byte{3, 2, 1}, CompressionRGB)
	require.NoError(t, err)
	var buf bytes.Buffer
	b.PrintBitmap(&buf)
	assert.Equal(t, utils.ColoredBlock("  ", 1, 2, 3)+"\n", buf.String())
}
