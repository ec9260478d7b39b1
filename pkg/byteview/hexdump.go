package byteview

import (
	"fmt"
	"strconv"
	"strings"
)

const bytesPerRow = 16

// HexDump renders the window as a 16 column grid:
//
//	        0  1  2  3  4  5  6  7  8  9  A  B  C  D  E  F
//	       -- -- -- -- -- -- -- -- -- -- -- -- -- -- -- --
//	0x0X | 0E 1F BA 0E 00 B4 09 CD 21 B8 01 4C CD 21 54 68
//	0x1X | 69 73 20 70 72 6F 67 72 61 6D 20 63 61 6E 6E 6F
//
// Each row label is the row number followed by X, so row n covers offsets
// 0xn0 through 0xnF. An empty view renders as "[]".
func (v *View) HexDump() string {
	return HexDump(v.Bytes())
}

// HexDump renders b the same way View.HexDump does.
func HexDump(b []byte) string {
	size := len(b)
	if size == 0 {
		return "[]"
	}
	width := max(len(strconv.FormatInt(int64(size), 16))-1, 1)
	label := "0x%0" + strconv.Itoa(width) + "XX | "
	indent := strings.Repeat(" ", len(fmt.Sprintf(label, 0)))
	cols := min(size, bytesPerRow)

	var sb strings.Builder
	sb.WriteString(indent)
	for i := 0; i < cols; i++ {
		fmt.Fprintf(&sb, " %X ", i)
	}
	sb.WriteString("\n")
	sb.WriteString(indent)
	sb.WriteString(strings.Repeat("-- ", cols))

	for i, c := range b {
		if i%bytesPerRow == 0 {
			sb.WriteString("\n")
			fmt.Fprintf(&sb, label, i/bytesPerRow)
		}
		fmt.Fprintf(&sb, "%02X ", c)
	}
	return sb.String()
}
