package bmp

import (
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/twinfer/bufmap/pkg/bufmap"
	"github.com/twinfer/bufmap/pkg/byteview"
	"github.com/twinfer/bufmap/testutil"
)

const fileHeaderHex = "42 4D 3A 00 00 00 00 00 00 00 36 00 00 00"

func build(t *testing.T, data []byte) *bufmap.Struct {
	t.Helper()
	s, err := bufmap.Build(Name, data, Endian, Shape, bufmap.WithLogger(testutil.DiscardLogger()))
	require.NoError(t, err)
	return s
}

// infoBitmap writes a file header and a 40-byte info header followed by
// tail zero bytes.
func infoBitmap(t *testing.T, compression Compression, colors int64, tail int) []byte {
	t.Helper()
	v := byteview.Make(14+40+tail, Endian)
	write := func(off, size int, val int64) {
		require.NoError(t, v.WriteInt(off, size, val))
	}
	require.NoError(t, v.WriteASCII(0, Signature))
	write(2, 4, int64(v.Len()))
	write(10, 4, 54)
	write(14, 4, int64(InfoHeader))
	write(18, 4, 2)
	write(22, 4, -2)
	write(26, 2, 1)
	write(28, 2, 24)
	write(30, 4, int64(compression))
	write(46, 4, colors)
	return v.Bytes()
}

func TestDIBHeaderResolvedBySize(t *testing.T) {
	tests := []struct {
		name   string
		header string
		shape  string
		size   int
		fields int
	}{
		{"info", "28 00 00 00" + strings.Repeat(" 00", 36), "BITMAPINFOHEADER", 40, 11},
		{"core", "0C 00 00 00 02 00 02 00 01 00 18 00", "BITMAPCOREHEADER", 12, 5},
		{"unknown", "E7 03 00 00", "DIB Header", 4, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := build(t, testutil.Hex(t, fileHeaderHex+tt.header))

			dib, ok := s.Child("DIB Header")
			require.True(t, ok)
			assert.Equal(t, tt.shape, dib.Shape())
			assert.Equal(t, tt.size, dib.Size())
			assert.Len(t, dib.Fields(), tt.fields)

			f, ok := s.Field("DIB Header")
			require.True(t, ok)
			assert.Equal(t, 14, f.Offset())
		})
	}
}

func TestUnknownHeaderShowsOnlySize(t *testing.T) {
	s := build(t, testutil.Hex(t, fileHeaderHex+"E7 03 00 00"))

	size, err := s.Find("DIB Header", "Size")
	require.NoError(t, err)
	assert.Equal(t, "0x000003E7 (999)", size.Display())

	_, hasPalette := s.Field("Color Palette")
	assert.False(t, hasPalette)
}

func TestInfoHeaderDump(t *testing.T) {
	s := build(t, infoBitmap(t, RGB, 0, 0))

	dib, ok := s.Child("DIB Header")
	require.True(t, ok)
	name, ok, err := dib.Enum("Size")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "BITMAPINFOHEADER", name)

	height, err := bufmap.Get[*bufmap.NumberField](dib, "Height")
	require.NoError(t, err)
	v, err := height.Value()
	require.NoError(t, err)
	assert.Equal(t, int64(-2), v)

	lines := testutil.Lines(s.Render(bufmap.RenderOptions{}))
	assert.Equal(t, []string{"--------", "BMP File", "--------"}, lines[:3])
	assert.Contains(t, lines, `    Signature  : "BM"`)
	// "Number of Important Color Indices" sets the width of the DIB block
	assert.Contains(t, lines, fmt.Sprintf("    %-33s: 0x00000028 (40) (BITMAPINFOHEADER)", "Size"))
	assert.Contains(t, lines, fmt.Sprintf("    %-33s: 0x00000000 (BI_RGB)", "Compression"))
}

func TestBitfieldMasksAndPalette(t *testing.T) {
	data := infoBitmap(t, BitFields, 2, 12+8)
	copy(data[54:], testutil.Hex(t, "00 00 FF 00 00 FF 00 00 FF 00 00 00"))
	copy(data[66:], testutil.Hex(t, "01 02 03 00 04 05 06 00"))

	s := build(t, data)

	masks, ok := s.Child("Bitfield Masks")
	require.True(t, ok)
	red, err := masks.Decoded("Red Mask")
	require.NoError(t, err)
	assert.Equal(t, int64(0xFF0000), red)

	palette, err := bufmap.Get[*bufmap.ArrayField](s, "Color Palette")
	require.NoError(t, err)
	require.Equal(t, 2, palette.Len())
	second, err := palette.Struct(1)
	require.NoError(t, err)
	r, err := second.Decoded("Red")
	require.NoError(t, err)
	assert.Equal(t, int64(6), r)

	assert.Equal(t, len(data), s.Size())
}

func TestPaletteStopsAtEndOfFile(t *testing.T) {
	s := build(t, infoBitmap(t, RGB, 100, 8))

	palette, err := bufmap.Get[*bufmap.ArrayField](s, "Color Palette")
	require.NoError(t, err)
	assert.Equal(t, 2, palette.Len())
	_, hasMasks := s.Field("Bitfield Masks")
	assert.False(t, hasMasks)
}

func TestV5HeaderComposesEarlierVersions(t *testing.T) {
	header := "7C 00 00 00" + strings.Repeat(" 00", 120)
	s := build(t, testutil.Hex(t, fileHeaderHex+header))

	dib, ok := s.Child("DIB Header")
	require.True(t, ok)
	assert.Equal(t, "BITMAPV5HEADER", dib.Shape())
	assert.Equal(t, int(V5Header), dib.Size())

	for _, name := range []string{"Width", "Alpha Mask", "Endpoints", "Gamma Blue", "Rendering Intent"} {
		_, ok := dib.Field(name)
		assert.True(t, ok, name)
	}
	z, err := dib.Find("Endpoints", "CIEXYZ Blue", "Z")
	require.NoError(t, err)
	assert.Equal(t, 14+4+36+16+4+32, z.AbsOffset())
}

func TestNotABitmap(t *testing.T) {
	_, err := bufmap.Build(Name, testutil.Hex(t, "89 50 4E 47 0D 0A 1A 0A"), Endian, Shape, bufmap.WithLogger(testutil.DiscardLogger()))
	assert.ErrorIs(t, err, bufmap.ErrValidation)
}

func TestEnumNames(t *testing.T) {
	assert.Equal(t, "BITMAPV4HEADER", V4Header.String())
	assert.Equal(t, "UNKNOWN", HeaderSize(999).String())
	assert.Equal(t, "BI_PNG", PNG.String())
	assert.Equal(t, "LCS_sRGB", SRGB.String())
	assert.Equal(t, "LCS_GM_IMAGES", Images.String())
	assert.Equal(t, "UNKNOWN", Compression(42).String())
}
