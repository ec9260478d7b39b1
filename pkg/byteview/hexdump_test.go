package byteview

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHexDump(t *testing.T) {
	t.Run("empty", func(t *testing.T) {
		assert.Equal(t, "[]", Make(0, BigEndian).HexDump())
	})

	t.Run("short row", func(t *testing.T) {
		v := New([]byte{0x0E, 0x1F, 0xBA}, BigEndian)
		want := strings.Join([]string{
			"        0  1  2 ",
			"       -- -- -- ",
			"0x0X | 0E 1F BA ",
		}, "\n")
		assert.Equal(t, want, v.HexDump())
	})

	t.Run("multiple rows", func(t *testing.T) {
		data := make([]byte, 20)
		for i := range data {
			data[i] = byte(i)
		}
		lines := strings.Split(New(data, LittleEndian).HexDump(), "\n")
		assert.Len(t, lines, 4)
		assert.Equal(t, "        0  1  2  3  4  5  6  7  8  9  A  B  C  D  E  F ", lines[0])
		assert.Equal(t, "0x0X | 00 01 02 03 04 05 06 07 08 09 0A 0B 0C 0D 0E 0F ", lines[2])
		assert.Equal(t, "0x1X | 10 11 12 13 ", lines[3])
	})

	t.Run("wide labels", func(t *testing.T) {
		lines := strings.Split(Make(0x120, BigEndian).HexDump(), "\n")
		assert.Equal(t, "0x00X | ", lines[2][:8])
		assert.Equal(t, "0x11X | ", lines[len(lines)-1][:8])
	})

	t.Run("window", func(t *testing.T) {
		v, err := NewWindow([]byte{1, 2, 3, 4}, BigEndian, 2, 2)
		assert.NoError(t, err)
		assert.True(t, strings.HasSuffix(v.HexDump(), "0x0X | 03 04 "))
	})
}
