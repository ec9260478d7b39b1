package bufmap

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/twinfer/bufmap/pkg/byteview"
	"github.com/twinfer/bufmap/testutil"
)

var simpleShape = Shape{Name: "Simple", Declare: func(s *Struct) {
	s.Number("Width", 2)
	s.Number("Flag", 1)
	s.FixedString("Tag", 3)
	s.Reserved(1)
	s.Buffer("Data", 2)
}}

const simpleData = "10 00 01 41 42 43 00 AA BB"

func TestRenderDefault(t *testing.T) {
	s, _ := build(t, simpleData, byteview.LittleEndian, simpleShape)

	want := strings.Join([]string{
		"---",
		"Top",
		"---",
		"Width   : 0x0010 (16)",
		"Flag    : 0x01",
		`Tag     : "ABC"`,
		"Data    : {2 bytes}",
	}, "\n")
	testutil.DiffLines(t, want, s.Render(RenderOptions{}))
	assert.Equal(t, s.Render(RenderOptions{}), s.String())
}

func TestRenderShowReserved(t *testing.T) {
	s, _ := build(t, simpleData, byteview.LittleEndian, simpleShape)

	lines := testutil.Lines(s.Render(RenderOptions{ShowReserved: true}))
	assert.Contains(t, lines, "Reserved: {1 byte}")
}

func TestRenderDebug(t *testing.T) {
	s, _ := build(t, simpleData, byteview.LittleEndian, simpleShape)

	title := "Top (offset: 0, size 9 bytes)"
	rule := strings.Repeat("-", len(title))
	want := strings.Join([]string{
		rule,
		title,
		rule,
		"Width   : (offset: 0, size: 2 bytes): 0x0010 (16)",
		"Flag    : (offset: 2, size: 1 byte): 0x01",
		`Tag     : (offset: 3, size: 3 bytes): "ABC" [0x41,0x42,0x43]`,
		"Reserved: (offset: 6, size: 1 byte): {1 byte}",
		"Data    : (offset: 7, size: 2 bytes): {2 bytes}",
	}, "\n")
	testutil.DiffLines(t, want, s.Render(RenderOptions{Debug: true}))
}

func TestRenderOptionsDoNotLeakBetweenCalls(t *testing.T) {
	s, _ := build(t, simpleData, byteview.LittleEndian, simpleShape)

	plain := s.Render(RenderOptions{})
	_ = s.Render(RenderOptions{Debug: true, ShowReserved: true})
	assert.Equal(t, plain, s.Render(RenderOptions{}))
}

func TestRenderOutOfBounds(t *testing.T) {
	s, _ := build(t, "10 00", byteview.LittleEndian, Shape{Name: "Short", Declare: func(s *Struct) {
		s.Number("Width", 2)
		s.Number("Height", 2)
		s.Number("Depth", 2)
	}})

	want := strings.Join([]string{
		"---",
		"Top",
		"---",
		"Width : 0x0010 (16)",
		"",
		"WARNING: The size of the buffer is 2 bytes. The remaining fields are outside the bounds of the buffer!",
		"",
		"Height (offset: 2, size: 2 bytes)",
		"Depth (offset: 4, size: 2 bytes)",
	}, "\n")
	testutil.DiffLines(t, want, s.Render(RenderOptions{}))
}

func TestRenderOutOfBoundsWarnsOncePerDump(t *testing.T) {
	s, _ := build(t, "01 02", byteview.LittleEndian, Shape{Name: "Short", Declare: func(s *Struct) {
		s.Number("A", 1)
		s.Composite("Inner", Shape{Name: "Inner", Declare: func(s *Struct) {
			s.Number("B", 1)
			s.Number("C", 2)
		}})
		s.Number("D", 2)
	}})

	out := s.Render(RenderOptions{})
	assert.Equal(t, 1, strings.Count(out, "WARNING:"))
	assert.Contains(t, out, "\nInner (offset: 1, size: 3 bytes)")
	assert.Contains(t, out, "\nD (offset: 4, size: 2 bytes)")
	assert.Equal(t, out, s.Render(RenderOptions{}), "every render call starts a new dump")
}

func TestRenderComposite(t *testing.T) {
	s, _ := build(t, "01 02 0C", byteview.LittleEndian, Shape{Name: "Outer", Declare: func(s *Struct) {
		s.Number("Id", 1)
		s.Composite("Inner", Shape{Name: "Inner", Declare: func(s *Struct) {
			s.Number("A", 1)
			s.Number("Bb", 1)
		}})
	}})

	want := strings.Join([]string{
		"---",
		"Top",
		"---",
		"Id   : 0x01",
		"Inner: ",
		"    A : 0x02",
		"    Bb: 0x0C (12)",
	}, "\n")
	testutil.DiffLines(t, want, s.Render(RenderOptions{}))
}

func TestRenderEmptyCompositeIsHidden(t *testing.T) {
	s, _ := build(t, "01", byteview.LittleEndian, Shape{Name: "Outer", Declare: func(s *Struct) {
		s.Number("Id", 1)
		s.Composite("Nothing", Shape{Name: "Nothing"})
		s.Number("Gone", 0)
	}})

	out := s.Render(RenderOptions{})
	assert.NotContains(t, out, "Nothing")
	assert.NotContains(t, out, "Gone")

	debug := s.Render(RenderOptions{Debug: true})
	assert.Contains(t, debug, "Nothing: (offset: 1, size: 0 bytes): ")
	assert.Contains(t, debug, "Gone   : (offset: 1, size: 0 bytes): ")
}

func TestRenderArrays(t *testing.T) {
	t.Run("compact", func(t *testing.T) {
		s, _ := build(t, "01 0A FF", byteview.LittleEndian, Shape{Name: "Arr", Declare: func(s *Struct) {
			s.NumberArray("Vals", 1, Count(3))
		}})
		lines := testutil.Lines(s.Render(RenderOptions{}))
		assert.Equal(t, "Vals   : [0x01,0x0A,0xFF]", lines[3])
	})

	t.Run("verbose", func(t *testing.T) {
		s, _ := build(t, "01 0A FF", byteview.LittleEndian, Shape{Name: "Arr", Declare: func(s *Struct) {
			s.NumberArray("Vals", 1, Count(3), Verbose())
		}})
		assert.Equal(t, []string{
			"Vals[0]: 0x01",
			"Vals[1]: 0x0A (10)",
			"Vals[2]: 0xFF (255)",
		}, testutil.Lines(s.Render(RenderOptions{}))[3:])
	})

	t.Run("empty arrays render compact", func(t *testing.T) {
		s, _ := build(t, "", byteview.LittleEndian, Shape{Name: "Arr", Declare: func(s *Struct) {
			s.NumberArray("Vals", 2, Count(0), Verbose())
		}})
		assert.Equal(t, "Vals: []", testutil.Lines(s.Render(RenderOptions{}))[3])
	})

	t.Run("composite elements", func(t *testing.T) {
		s, _ := build(t, "01 02 03 04", byteview.LittleEndian, Shape{Name: "Arr", Declare: func(s *Struct) {
			s.Array("Points", Count(2), Shape{Name: "Point", Declare: func(s *Struct) {
				s.Number("X", 1)
				s.Number("Y", 1)
			}})
		}})
		assert.Equal(t, []string{
			"Points[0]: ",
			"    X: 0x01",
			"    Y: 0x02",
			"Points[1]: ",
			"    X: 0x03",
			"    Y: 0x04",
		}, testutil.Lines(s.Render(RenderOptions{}))[3:])

		debug := testutil.Lines(s.Render(RenderOptions{Debug: true}))
		assert.Contains(t, debug, "Points[1]: (offset: 2, size: 2 bytes): ")
	})

	t.Run("reserved bits in debug", func(t *testing.T) {
		s, _ := build(t, "3F FF", byteview.LittleEndian, Shape{Name: "Arr", Declare: func(s *Struct) {
			s.Bits("Mode", 6)
			s.ReservedBits(10)
		}})
		assert.NotContains(t, s.Render(RenderOptions{}), "Reserved")
		assert.Contains(t, s.Render(RenderOptions{ShowReserved: true}), "Reserved[1]: 0xFF (11111111b)")
	})
}

func TestRenderBitsAndStrings(t *testing.T) {
	s, _ := build(t, "C5 41 01 42 43 44", byteview.LittleEndian, Shape{Name: "Mixed", Declare: func(s *Struct) {
		s.Bits("Low", 3)
		s.Bit("Flag")
		s.Bits("High", 4)
		s.FixedString("Bad", 3)
		s.FixedString("Hex", 2, ShowHex())
	}})

	// 0xC5 = 1100 0 101
	assert.Equal(t, []string{
		`Low : 0x5 (101b)`,
		`Flag: 0b`,
		`High: 0xC (1100b)`,
		`Bad : "AB" [0x41,0x01,0x42]`,
		`Hex : "CD" [0x43,0x44]`,
	}, testutil.Lines(s.Render(RenderOptions{}))[3:])

	debug := testutil.Lines(s.Render(RenderOptions{Debug: true}))
	assert.Equal(t, "High: (offset: 0, bit offset: 4, size: 4 bits): 0xC (1100b)", debug[5])
	assert.Equal(t, "Flag: (offset: 0, bit offset: 3, size: 1 bit): 0b", debug[4])
}

func TestRenderBufferContents(t *testing.T) {
	s, _ := build(t, "01 02 03", byteview.LittleEndian, Shape{Name: "Blob", Declare: func(s *Struct) {
		s.Buffer("Blob", 3, ShowContents())
	}})

	want := []string{"Blob: "}
	for _, l := range testutil.Lines(byteview.HexDump([]byte{1, 2, 3})) {
		want = append(want, "    "+l)
	}
	assert.Equal(t, want, testutil.Lines(s.Render(RenderOptions{}))[3:])
	assert.Equal(t, "    0x0X | 01 02 03 ", want[3])
}

func TestRenderBufferToggleContents(t *testing.T) {
	var blob *BufferField
	s, _ := build(t, "01 02 03", byteview.LittleEndian, Shape{Name: "Blob", Declare: func(s *Struct) {
		blob = s.Buffer("Blob", 3)
	}})

	assert.NotContains(t, s.Render(RenderOptions{}), "0x0X |")

	blob.SetShowContents(true)
	assert.Contains(t, s.Render(RenderOptions{}), "    0x0X | 01 02 03 ")

	blob.SetShowContents(false)
	assert.NotContains(t, s.Render(RenderOptions{}), "0x0X |")
}

func TestRenderToFile(t *testing.T) {
	s, _ := build(t, simpleData, byteview.LittleEndian, simpleShape)
	path := filepath.Join(t.TempDir(), "dump.txt")

	require.NoError(t, s.RenderToFile(path, RenderOptions{Debug: true}))
	got, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, s.Render(RenderOptions{Debug: true})+"\n", string(got))

	assert.Error(t, s.RenderToFile(filepath.Join(t.TempDir(), "missing", "dump.txt"), RenderOptions{}))
}

func TestLoadRenderOptions(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "render.yaml")
	require.NoError(t, os.WriteFile(path, []byte("debug: true\nshow_reserved: true\n"), 0o644))

	opts, err := LoadRenderOptions(path)
	require.NoError(t, err)
	assert.Equal(t, RenderOptions{Debug: true, ShowReserved: true}, opts)

	_, err = LoadRenderOptions(filepath.Join(dir, "missing.yaml"))
	assert.Error(t, err)

	bad := filepath.Join(dir, "bad.yaml")
	require.NoError(t, os.WriteFile(bad, []byte("debug: [\n"), 0o644))
	_, err = LoadRenderOptions(bad)
	assert.ErrorContains(t, err, "failed to parse render options YAML")
}
