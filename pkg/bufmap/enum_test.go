package bufmap

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/twinfer/bufmap/pkg/byteview"
	"github.com/twinfer/bufmap/testutil"
)

type testColor uint8

const (
	colorRed testColor = iota
	colorGreen
	colorBlue
)

func (c testColor) String() string {
	switch c {
	case colorRed:
		return "Red"
	case colorGreen:
		return "Green"
	case colorBlue:
		return "Blue"
	}
	return "Unknown"
}

type testMode int

const (
	modeSlow testMode = 3
	modeFast testMode = 5
)

func (m testMode) String() string {
	if m == modeFast {
		return "Fast"
	}
	return "Slow"
}

var (
	colors = NewEnumTable(colorRed, colorGreen, colorBlue)
	modes  = NewEnumTable(modeSlow, modeFast)
)

func TestEnumNumber(t *testing.T) {
	var color, unknown *EnumNumberField[testColor]
	s, data := build(t, "01 07", byteview.LittleEndian, Shape{Name: "Enum", Declare: func(s *Struct) {
		color = EnumNumber(s, "Color", 1, colors)
		unknown = EnumNumber(s, "Other", 1, colors)
	}})

	e, ok, err := color.Enum()
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, colorGreen, e)
	assert.Equal(t, "0x01 (Green)", color.Display())

	_, ok, err = unknown.Enum()
	require.NoError(t, err)
	assert.False(t, ok, "unmatched values are valid")
	assert.Equal(t, "0x07", unknown.Display())

	name, ok, err := s.Enum("Color")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "Green", name)

	_, _, err = s.Enum("Missing")
	assert.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, color.SetEnum(colorBlue))
	assert.Equal(t, byte(2), data[0])
	require.NoError(t, s.SetValue("Other", colorRed))
	assert.Equal(t, byte(0), data[1])

	assert.Equal(t, []string{
		"Color: 0x02 (Blue)",
		"Other: 0x00 (Red)",
	}, testutil.Lines(s.Render(RenderOptions{}))[3:])
}

func TestEnumBits(t *testing.T) {
	var mode *EnumBitsField[testMode]
	s, data := build(t, "F5", byteview.LittleEndian, Shape{Name: "Enum", Declare: func(s *Struct) {
		mode = EnumBits(s, "Mode", 3, modes)
		s.Bits("Rest", 5)
	}})

	e, ok, err := mode.Enum()
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, modeFast, e)
	assert.Equal(t, "0x5 (101b) (Fast)", mode.Display())

	require.NoError(t, mode.SetEnum(modeSlow))
	assert.Equal(t, byte(0xF3), data[0])
	assert.ErrorIs(t, mode.SetEnum(testMode(8)), ErrValueTooLarge)

	require.NoError(t, mode.Set(7))
	assert.Equal(t, "0x7 (111b)", mode.Display())

	name, ok, err := s.Enum("Mode")
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Empty(t, name)

	_, _, err = s.Enum("Rest")
	assert.ErrorContains(t, err, "not an enum field")
}

func TestEnumBitsDecimal(t *testing.T) {
	wide := NewEnumTable(testMode(12))
	var f *EnumBitsField[testMode]
	build(t, "0C", byteview.LittleEndian, Shape{Name: "Enum", Declare: func(s *Struct) {
		f = EnumBits(s, "Wide", 4, wide)
		s.Bits("Rest", 4)
	}})
	assert.Equal(t, "0xC (12) (1100b) (Slow)", f.Display())
}
