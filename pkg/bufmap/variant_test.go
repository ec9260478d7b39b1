package bufmap

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/twinfer/bufmap/pkg/byteview"
	"github.com/twinfer/bufmap/testutil"
)

var (
	smallBody = Shape{Name: "Small", Declare: func(s *Struct) {
		s.Number("Width", 2)
	}}
	largeBody = Shape{Name: "Large", Declare: func(s *Struct) {
		s.Number("Width", 2)
		s.Number("Height", 2)
	}}
	rawBody = Shape{Name: "Raw", Declare: func(s *Struct) {
		s.Buffer("Data", s.Remaining())
	}}

	bodies = NewVariants[int]("Body", rawBody).
		On(smallBody, 1).
		On(largeBody, 2, 3)

	tagged = Shape{Name: "Tagged", Declare: func(s *Struct) {
		kind := s.Number("Kind", 1)
		s.Composite("Body", Resolve(s, bodies, s.IntOf(kind)))
	}}
)

func TestVariantSelection(t *testing.T) {
	tests := []struct {
		name  string
		data  string
		shape string
		size  int
	}{
		{"small", "01 10 00", "Small", 3},
		{"large", "02 10 00 20 00", "Large", 5},
		{"second key", "03 10 00 20 00", "Large", 5},
		{"fallback", "09 AA BB CC", "Raw", 4},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, _ := build(t, tt.data, byteview.LittleEndian, tagged)
			body, ok := s.Child("Body")
			require.True(t, ok)
			assert.Equal(t, tt.shape, body.Shape())
			assert.Equal(t, tt.size, s.Size())
		})
	}
}

func TestVariantResolutionIsDeterministic(t *testing.T) {
	first, _ := build(t, "02 10 00 20 00", byteview.LittleEndian, tagged)
	second, _ := build(t, "02 10 00 20 00", byteview.LittleEndian, tagged)
	assert.Equal(t, first.Render(RenderOptions{Debug: true}), second.Render(RenderOptions{Debug: true}))
}

func TestVariantFallbackKeepsBytes(t *testing.T) {
	s, data := build(t, "09 AA BB CC", byteview.LittleEndian, tagged)
	data[2] = 0xEE

	f, err := s.Find("Body", "Data")
	require.NoError(t, err)
	raw, err := f.Raw()
	require.NoError(t, err)
	assert.Equal(t, []byte{0xAA, 0xEE, 0xCC}, raw)

	buf, ok := f.(*BufferField)
	require.True(t, ok)
	require.NoError(t, buf.Set([]byte{1, 2, 3}))
	assert.Equal(t, testutil.Hex(t, "09 01 02 03"), data)
}

func TestVariantsRegistry(t *testing.T) {
	assert.Equal(t, "Body", bodies.Name())
	assert.Equal(t, "Raw", bodies.Fallback().Name)
	assert.Equal(t, "Large", bodies.Resolve(3).Name)
	assert.Equal(t, "Raw", bodies.Resolve(42).Name)
	_, ok := bodies.Lookup(42)
	assert.False(t, ok)
}

func TestDiscriminatorMissing(t *testing.T) {
	err := buildErr(t, "01", Shape{Name: "Bad", Declare: func(s *Struct) {
		s.Buffer("Data", s.Discriminator("Length"))
	}})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestProbeDoesNotMoveCursor(t *testing.T) {
	header := Shape{Name: "Header Size", Declare: func(s *Struct) {
		s.Number("Size", 4)
	}}
	headers := NewVariants[int]("DIB", rawBody).
		On(Shape{Name: "Core", Declare: func(s *Struct) {
			s.Number("Size", 4)
			s.Number("Width", 2)
		}}, 6).
		On(Shape{Name: "Info", Declare: func(s *Struct) {
			s.Number("Size", 4)
			s.Number("Width", 4)
		}}, 8)

	var dib *CompositeField
	s, _ := build(t, "08 00 00 00 40 00 00 00", byteview.LittleEndian, Shape{Name: "File", Declare: func(s *Struct) {
		size := s.ProbeInt(header, "Size")
		dib = s.Composite("DIB", Resolve(s, headers, size))
	}})

	assert.Equal(t, 0, dib.Offset())
	assert.Equal(t, "Info", dib.Struct().Shape())
	assert.Equal(t, 8, s.Size())
	assert.Len(t, s.Fields(), 1)

	err := buildErr(t, "08", Shape{Name: "File", Declare: func(s *Struct) {
		s.ProbeInt(header, "Size")
	}})
	assert.ErrorIs(t, err, ErrOutOfBounds)

	err = buildErr(t, "08 00 00 00", Shape{Name: "File", Declare: func(s *Struct) {
		s.ProbeInt(header, "Missing")
	}})
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = Build("File", []byte{0xFF}, byteview.LittleEndian, Shape{Name: "File", Declare: func(s *Struct) {
		s.Bits("Flag", 1)
		_, perr := s.Probe(header)
		assert.ErrorIs(t, perr, ErrMisaligned)
		s.Bits("Rest", 7)
	}}, WithLogger(testutil.DiscardLogger()))
	assert.NoError(t, err)
}
