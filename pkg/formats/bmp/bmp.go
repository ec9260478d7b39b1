// Package bmp declares the layout of Windows bitmap files: the file header,
// the DIB header (one of five sizes, picked by probing its Size field), the
// optional bit masks and the colour palette.
package bmp

import (
	"github.com/twinfer/bufmap/pkg/bufmap"
	"github.com/twinfer/bufmap/pkg/byteview"
)

// Name is the top-level struct name used for bitmaps.
const Name = "BMP File"

// Endian is the byte order of every bitmap field.
const Endian = byteview.LittleEndian

// Signature is the magic at offset 0.
const Signature = "BM"

// HeaderSize is the Size field of the DIB header, which also names its version.
type HeaderSize uint32

const (
	CoreHeader   HeaderSize = 12
	InfoHeader   HeaderSize = 40
	V3InfoHeader HeaderSize = 56
	V4Header     HeaderSize = 108
	V5Header     HeaderSize = 124
)

func (h HeaderSize) String() string {
	switch h {
	case CoreHeader:
		return "BITMAPCOREHEADER"
	case InfoHeader:
		return "BITMAPINFOHEADER"
	case V3InfoHeader:
		return "BITMAPV3INFOHEADER"
	case V4Header:
		return "BITMAPV4HEADER"
	case V5Header:
		return "BITMAPV5HEADER"
	}
	return "UNKNOWN"
}

// Compression is the pixel storage scheme.
type Compression uint32

const (
	RGB Compression = iota
	RLE8
	RLE4
	BitFields
	JPEG
	PNG
)

var compressionNames = [...]string{"BI_RGB", "BI_RLE8", "BI_RLE4", "BI_BITFIELD", "BI_JPEG", "BI_PNG"}

func (c Compression) String() string {
	if int(c) < len(compressionNames) {
		return compressionNames[c]
	}
	return "UNKNOWN"
}

// ColorSpace is the CSType field of V4 and V5 headers.
type ColorSpace uint32

const (
	CalibratedRGB ColorSpace = iota
	SRGB
	WindowsColorSpace
	ProfileLinked
	ProfileEmbedded
)

var colorSpaceNames = [...]string{"LCS_CALIBRATED_RGB", "LCS_sRGB", "LCS_WINDOWS_COLOR_SPACE", "PROFILE_LINKED", "PROFILE_EMBEDDED"}

func (c ColorSpace) String() string {
	if int(c) < len(colorSpaceNames) {
		return colorSpaceNames[c]
	}
	return "UNKNOWN"
}

// RenderingIntent is the gamut mapping intent of a V5 header.
type RenderingIntent uint32

const (
	Business        RenderingIntent = 1
	Graphics        RenderingIntent = 2
	Images          RenderingIntent = 4
	AbsColorimetric RenderingIntent = 8
)

func (r RenderingIntent) String() string {
	switch r {
	case Business:
		return "LCS_GM_BUSINESS"
	case Graphics:
		return "LCS_GM_GRAPHICS"
	case Images:
		return "LCS_GM_IMAGES"
	case AbsColorimetric:
		return "LCS_GM_ABS_COLORIMETRIC"
	}
	return "UNKNOWN"
}

var (
	headerSizes      = bufmap.NewEnumTable(CoreHeader, InfoHeader, V3InfoHeader, V4Header, V5Header)
	compressions     = bufmap.NewEnumTable(RGB, RLE8, RLE4, BitFields, JPEG, PNG)
	colorSpaces      = bufmap.NewEnumTable(CalibratedRGB, SRGB, WindowsColorSpace, ProfileLinked, ProfileEmbedded)
	renderingIntents = bufmap.NewEnumTable(Business, Graphics, Images, AbsColorimetric)
)

// Shape is the whole bitmap file.
var Shape = bufmap.Shape{Name: "Bitmap", Declare: declareFile}

// FileHeader is the 14-byte header every bitmap starts with.
var FileHeader = bufmap.Shape{Name: "BITMAPFILEHEADER", Declare: func(s *bufmap.Struct) {
	s.StaticString("Signature", Signature)
	s.Number("File Size", 4)
	s.Reserved(4)
	s.Number("Data Offset", 4)
}}

// sizeProbe reads the leading Size field shared by every DIB header.
var sizeProbe = bufmap.Shape{Name: "DIB Header Size", Declare: func(s *bufmap.Struct) {
	s.Number("Size", 4)
}}

// DIBHeaders resolves a DIB header size to its shape. Unknown sizes expose
// only the Size field.
var DIBHeaders = bufmap.NewVariants[HeaderSize]("DIB Header", dibShape("DIB Header", nil)).
	On(dibShape(CoreHeader.String(), coreFields), CoreHeader).
	On(dibShape(InfoHeader.String(), infoFields), InfoHeader).
	On(dibShape(V3InfoHeader.String(), v3Fields), V3InfoHeader).
	On(dibShape(V4Header.String(), v4Fields), V4Header).
	On(dibShape(V5Header.String(), v5Fields), V5Header)

var bitfieldMasks = bufmap.Shape{Name: "Bitfield Masks", Declare: func(s *bufmap.Struct) {
	s.Number("Red Mask", 4)
	s.Number("Green Mask", 4)
	s.Number("Blue Mask", 4)
}}

var rgbQuad = bufmap.Shape{Name: "RGBQUAD", Declare: func(s *bufmap.Struct) {
	s.Number("Blue", 1)
	s.Number("Green", 1)
	s.Number("Red", 1)
	s.Reserved(1)
}}

var cieXYZ = bufmap.Shape{Name: "CIEXYZ", Declare: func(s *bufmap.Struct) {
	s.Number("X", 4)
	s.Number("Y", 4)
	s.Number("Z", 4)
}}

var cieXYZTriple = bufmap.Shape{Name: "CIEXYZTRIPLE", Declare: func(s *bufmap.Struct) {
	s.Composite("CIEXYZ Red", cieXYZ)
	s.Composite("CIEXYZ Green", cieXYZ)
	s.Composite("CIEXYZ Blue", cieXYZ)
}}

func declareFile(s *bufmap.Struct) {
	s.Composite("Bitmap File Header", FileHeader)

	size := HeaderSize(s.ProbeInt(sizeProbe, "Size"))
	dibField := s.Composite("DIB Header", bufmap.Resolve(s, DIBHeaders, size))
	dib := dibField.Struct()

	if size == InfoHeader {
		if c, ok := dib.Field("Compression"); ok && c.InBounds() && Compression(s.IntOf(c)) == BitFields {
			s.Composite("Bitfield Masks", bitfieldMasks)
		}
	}

	// Only info headers and later carry a palette size. The palette cannot
	// extend past the end of the file.
	if _, ok := dib.Field("Color Indices Used"); ok && dibField.InBounds() {
		n := s.Expr("min(dib_header.color_indices_used, _remaining / 4)")
		s.Array("Color Palette", bufmap.Count(n), rgbQuad)
	}
}

// dibShape composes the Size field with the fields of one header version.
func dibShape(name string, fields func(s *bufmap.Struct)) bufmap.Shape {
	return bufmap.Shape{Name: name, Declare: func(s *bufmap.Struct) {
		bufmap.EnumNumber(s, "Size", 4, headerSizes)
		if fields != nil {
			fields(s)
		}
	}}
}

func coreFields(s *bufmap.Struct) {
	s.Number("Width", 2)
	s.Number("Height", 2)
	s.Number("Planes", 2)
	s.Number("Bits-Per-Pixel", 2)
}

func infoFields(s *bufmap.Struct) {
	s.Number("Width", 4, bufmap.Signed())
	s.Number("Height", 4, bufmap.Signed())
	s.Number("Planes", 2)
	s.Number("Bits-Per-Pixel", 2)
	bufmap.EnumNumber(s, "Compression", 4, compressions)
	s.Number("Size of Image", 4)
	s.Number("Horizontal Pixels-Per-Meter", 4)
	s.Number("Vertical Pixels-Per-Meter", 4)
	s.Number("Color Indices Used", 4)
	s.Number("Number of Important Color Indices", 4)
}

func v3Fields(s *bufmap.Struct) {
	infoFields(s)
	s.Number("Red Mask", 4)
	s.Number("Green Mask", 4)
	s.Number("Blue Mask", 4)
	s.Number("Alpha Mask", 4)
}

func v4Fields(s *bufmap.Struct) {
	v3Fields(s)
	bufmap.EnumNumber(s, "Color Space Type", 4, colorSpaces)
	s.Composite("Endpoints", cieXYZTriple)
	s.Number("Gamma Red", 4)
	s.Number("Gamma Green", 4)
	s.Number("Gamma Blue", 4)
}

func v5Fields(s *bufmap.Struct) {
	v4Fields(s)
	bufmap.EnumNumber(s, "Rendering Intent", 4, renderingIntents)
	s.Number("Profile Data Offset", 4)
	s.Number("Profile Data Size", 4)
	s.Reserved(4)
}
