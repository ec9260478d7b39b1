// Package png declares the layout of PNG files: the 8-byte signature, the
// IHDR chunk and the list of chunks that fills the rest of the file. Chunk
// data is typed by the chunk tag, and for bKGD, sBIT and tRNS also by the
// colour type recorded in IHDR.
package png

import (
	"fmt"

	"github.com/twinfer/bufmap/pkg/bufmap"
	"github.com/twinfer/bufmap/pkg/byteview"
)

// Name is the top-level struct name used for PNG files.
const Name = "PNG File Format"

// Endian is the byte order of every PNG field.
const Endian = byteview.BigEndian

// FirstByte and Signature open every PNG file.
const (
	FirstByte = 0x89
	Signature = "PNG"
)

// text chunk encodings
const (
	latin1 = "ISO-8859-1"
	utf8   = "UTF-8"
)

// ColorType is the IHDR colour type.
type ColorType uint8

const (
	Greyscale          ColorType = 0
	Truecolor          ColorType = 2
	IndexedColor       ColorType = 3
	GreyscaleWithAlpha ColorType = 4
	TrueColorWithAlpha ColorType = 6
)

func (c ColorType) String() string {
	switch c {
	case Greyscale:
		return "Greyscale"
	case Truecolor:
		return "Truecolor"
	case IndexedColor:
		return "Indexed_color"
	case GreyscaleWithAlpha:
		return "GreyscaleWithAlpha"
	case TrueColorWithAlpha:
		return "TrueColorWithAlpha"
	}
	return "Unknown"
}

// UnitSpecifier is the pHYs unit.
type UnitSpecifier uint8

const (
	UnitUnknown UnitSpecifier = iota
	UnitMeter
)

func (u UnitSpecifier) String() string {
	if u == UnitMeter {
		return "Unit_is_the_meter"
	}
	return "Unit_is_unknown"
}

// RenderingIntent is the sRGB rendering intent.
type RenderingIntent uint8

const (
	Perceptual RenderingIntent = iota
	RelativeColorimetric
	Saturation
	AbsoluteColorimetric
)

var intentNames = [...]string{"Perceptual", "Relative_colorimetric", "Saturation", "Absolute_colorimetric"}

func (r RenderingIntent) String() string {
	if int(r) < len(intentNames) {
		return intentNames[r]
	}
	return "Unknown"
}

// Month is the tIME month, 1 based.
type Month uint8

var monthNames = [...]string{"INVALID_MONTH", "January", "February", "March", "April", "May", "June",
	"July", "August", "September", "October", "November", "December"}

func (m Month) String() string {
	if int(m) < len(monthNames) {
		return monthNames[m]
	}
	return "Unknown"
}

var (
	colorTypes = bufmap.NewEnumTable(Greyscale, Truecolor, IndexedColor, GreyscaleWithAlpha, TrueColorWithAlpha)
	units      = bufmap.NewEnumTable(UnitUnknown, UnitMeter)
	intents    = bufmap.NewEnumTable(Perceptual, RelativeColorimetric, Saturation, AbsoluteColorimetric)
	months     = bufmap.NewEnumTable(allMonths()...)
)

func allMonths() []Month {
	out := make([]Month, len(monthNames))
	for i := range out {
		out[i] = Month(i)
	}
	return out
}

// Shape is the whole PNG file.
var Shape = bufmap.Shape{Name: "PNG", Declare: func(s *bufmap.Struct) {
	s.Composite("PNG Header", Header)
	s.Composite("IHDR Chunk", ihdr)
	// chunk count is unknown, the list runs to the end of the file
	s.Array("Chunk", bufmap.ByteBudget(s.Remaining()), chunk)
}}

// Header is the 8-byte PNG signature.
var Header = bufmap.Shape{Name: "PNG Header", Declare: func(s *bufmap.Struct) {
	s.StaticNumber("First Byte", 1, FirstByte)
	s.StaticString("Signature", Signature)
	s.Number("DOS Line Ending", 2)
	s.Number("DOS End Of File", 1)
	s.Number("UNIX Line Ending", 1)
}}

var ihdr = bufmap.Shape{Name: "IHDR", Declare: func(s *bufmap.Struct) {
	s.Number("Length", 4)
	s.StaticString("Chunk type", "IHDR", bufmap.ShowHex())
	s.Number("Width", 4)
	s.Number("Height", 4)
	s.Number("Bit depth", 1)
	bufmap.EnumNumber(s, "Color Type", 1, colorTypes)
	s.Number("Compression Method", 1)
	s.Number("Filter Method", 1)
	s.Number("Interlace Method", 1)
	s.Number("CRC", 4)
}}

var chunk = bufmap.Shape{Name: "Chunk", Declare: func(s *bufmap.Struct) {
	length := s.IntOf(s.Number("Length", 4))
	tag := s.TextOf(s.FixedString("Chunk type", 4, bufmap.ShowHex()))
	data := s.Composite("Data", dataShape(s, tag))
	s.Reserved(length - data.Size())
	s.Number("CRC", 4)
}}

// dataShape picks the shape of a chunk's data from its tag and, for the
// colour dependent chunks, from the IHDR colour type two levels up.
func dataShape(s *bufmap.Struct, tag string) bufmap.Shape {
	if byColor, ok := ColorDependent[tag]; ok {
		return bufmap.Resolve(s, byColor, ColorType(s.Expr("_root.ihdr_chunk.color_type")))
	}
	return bufmap.Resolve(s, Chunks, tag)
}

// remaining is what is left of the enclosing chunk's declared data length.
func remaining(s *bufmap.Struct) int {
	return s.Discriminator("Length") - s.Size()
}

var genericData = bufmap.Shape{Name: "Generic", Declare: func(s *bufmap.Struct) {
	s.Buffer("Chunk Data", remaining(s), bufmap.ShowContents())
}}

// Chunks maps chunk tags to data shapes. Unknown tags keep their data as a
// buffer.
var Chunks = bufmap.NewVariants[string]("Chunk Data", genericData).
	On(bufmap.Shape{Name: "cHRM", Declare: func(s *bufmap.Struct) {
		for _, name := range []string{"White Point X", "White Point Y", "Red X", "Red Y", "Green X", "Green Y", "Blue X", "Blue Y"} {
			s.Number(name, 4)
		}
	}}, "cHRM").
	On(bufmap.Shape{Name: "gAMA", Declare: func(s *bufmap.Struct) {
		s.Number("Gamma", 4)
	}}, "gAMA").
	On(bufmap.Shape{Name: "iCCP", Declare: func(s *bufmap.Struct) {
		s.NullTerminatedString("Profile Name")
		s.Number("Compression Method", 1)
		s.Buffer("Compressed Data", remaining(s))
	}}, "iCCP").
	On(bufmap.Shape{Name: "IDAT", Declare: func(s *bufmap.Struct) {
		s.Buffer("Chunk Data", remaining(s))
	}}, "IDAT").
	On(bufmap.Shape{Name: "IEND"}, "IEND").
	On(bufmap.Shape{Name: "iTXt", Declare: func(s *bufmap.Struct) {
		s.NullTerminatedString("Keyword", bufmap.Encoding(latin1))
		compressed := s.Number("Compression Flag", 1)
		s.Number("Compression Method", 1)
		s.NullTerminatedString("Language Tag")
		s.NullTerminatedString("Translated Keyword", bufmap.Encoding(utf8))
		if s.IntOf(compressed) == 0 {
			s.FixedString("Uncompressed Text", remaining(s), bufmap.Encoding(utf8))
		} else {
			s.Buffer("Compressed Text", remaining(s))
		}
	}}, "iTXt").
	On(bufmap.Shape{Name: "pHYs", Declare: func(s *bufmap.Struct) {
		s.Number("Pixels Per Unit, X Axis", 4)
		s.Number("Pixels Per Unit, Y Axis", 4)
		bufmap.EnumNumber(s, "Unit Specifier", 1, units)
	}}, "pHYs").
	On(bufmap.Shape{Name: "PLTE", Declare: func(s *bufmap.Struct) {
		s.Array("PLTE Entries", bufmap.ByteBudget(remaining(s)), paletteEntry)
	}}, "PLTE").
	On(bufmap.Shape{Name: "sRGB", Declare: func(s *bufmap.Struct) {
		bufmap.EnumNumber(s, "Rendering Intent", 1, intents)
	}}, "sRGB").
	On(bufmap.Shape{Name: "tEXt", Declare: func(s *bufmap.Struct) {
		s.NullTerminatedString("Keyword", bufmap.Encoding(latin1))
		s.FixedString("Text String", remaining(s), bufmap.Encoding(latin1))
	}}, "tEXt").
	On(bufmap.Shape{Name: "tIME", Declare: func(s *bufmap.Struct) {
		s.Number("Year", 2)
		bufmap.EnumNumber(s, "Month", 1, months)
		s.Number("Day", 1)
		s.Number("Hour", 1)
		s.Number("Minute", 1)
		s.Number("Second", 1)
	}}, "tIME").
	On(bufmap.Shape{Name: "zTXt", Declare: func(s *bufmap.Struct) {
		s.NullTerminatedString("Keyword")
		s.Number("Compression Method", 1)
		s.Buffer("Compressed Text Datastream", remaining(s))
	}}, "zTXt")

var paletteEntry = bufmap.Shape{Name: "PLTE Entry", Declare: func(s *bufmap.Struct) {
	s.Number("Red", 1)
	s.Number("Green", 1)
	s.Number("Blue", 1)
}}

// ColorDependent holds the chunks whose data layout follows the IHDR colour
// type. Colour types a chunk does not allow fall back to a buffer.
var ColorDependent = map[string]*bufmap.Variants[ColorType]{
	"bKGD": bufmap.NewVariants[ColorType]("bKGD", genericData).
		On(bufmap.Shape{Name: "bKGD Indexed", Declare: func(s *bufmap.Struct) {
			s.Number("Palette Index", 1)
		}}, IndexedColor).
		On(bufmap.Shape{Name: "bKGD Greyscale", Declare: func(s *bufmap.Struct) {
			s.Number("Greyscale", 2)
		}}, Greyscale, GreyscaleWithAlpha).
		On(bufmap.Shape{Name: "bKGD Color", Declare: func(s *bufmap.Struct) {
			s.Number("Red", 2)
			s.Number("Green", 2)
			s.Number("Blue", 2)
		}}, Truecolor, TrueColorWithAlpha),

	"sBIT": bufmap.NewVariants[ColorType]("sBIT", genericData).
		On(sbit("sBIT Greyscale", "Greyscale"), Greyscale).
		On(sbit("sBIT Truecolor", "Red", "Green", "Blue"), Truecolor, IndexedColor).
		On(sbit("sBIT GreyscaleWithAlpha", "Greyscale", "Alpha"), GreyscaleWithAlpha).
		On(sbit("sBIT TrueColorWithAlpha", "Red", "Green", "Blue", "Alpha"), TrueColorWithAlpha),

	"tRNS": bufmap.NewVariants[ColorType]("tRNS", genericData).
		On(bufmap.Shape{Name: "tRNS Greyscale", Declare: func(s *bufmap.Struct) {
			s.Number("Grey Sample Value", 2)
		}}, Greyscale).
		On(bufmap.Shape{Name: "tRNS Truecolor", Declare: func(s *bufmap.Struct) {
			s.Number("Red Sample Value", 2)
			s.Number("Green Sample Value", 2)
			s.Number("Blue Sample Value", 2)
		}}, Truecolor).
		On(bufmap.Shape{Name: "tRNS Indexed", Declare: func(s *bufmap.Struct) {
			s.Buffer("Alpha for Palette Indexes", remaining(s), bufmap.ShowContents())
		}}, IndexedColor),
}

// sbit declares one significant-bits byte per channel.
func sbit(name string, channels ...string) bufmap.Shape {
	return bufmap.Shape{Name: name, Declare: func(s *bufmap.Struct) {
		for _, c := range channels {
			s.Number("Significant "+c+" Bits", 1)
		}
	}}
}

// TextChunks returns the keyword and text of every tEXt chunk and every
// uncompressed iTXt chunk of a built PNG file. tEXt is Latin-1, iTXt text
// is UTF-8.
func TextChunks(file *bufmap.Struct) (map[string]string, error) {
	chunks, err := bufmap.Get[*bufmap.ArrayField](file, "Chunk")
	if err != nil {
		return nil, err
	}
	out := make(map[string]string)
	for i := range chunks.Len() {
		c, err := chunks.Struct(i)
		if err != nil {
			return nil, err
		}
		data, ok := c.Child("Data")
		if !ok {
			continue
		}
		var field string
		switch data.Shape() {
		case "tEXt":
			field = "Text String"
		case "iTXt":
			if _, ok := data.Field("Uncompressed Text"); !ok {
				continue
			}
			field = "Uncompressed Text"
		default:
			continue
		}
		keyword, err := text(data, "Keyword")
		if err != nil {
			return nil, err
		}
		v, err := text(data, field)
		if err != nil {
			return nil, err
		}
		out[keyword] = v
	}
	return out, nil
}

func text(s *bufmap.Struct, name string) (string, error) {
	v, err := s.Decoded(name)
	if err != nil {
		return "", fmt.Errorf("%s: %w", s.Name(), err)
	}
	str, _ := v.(string)
	return str, nil
}
