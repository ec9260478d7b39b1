package bufmap_test

import (
	"fmt"
	"log"

	"github.com/twinfer/bufmap/pkg/bufmap"
	"github.com/twinfer/bufmap/pkg/byteview"
)

// Example lays a small header over a buffer and prints the dump
func Example() {
	data := []byte{
		'B', 'M',               // Magic
		0x0E, 0x00, 0x00, 0x00, // File size: 14
		0x00, 0x00, 0x00, 0x00, // Reserved
		0xAA, 0xBB, 0xCC, 0xDD, // Payload
	}

	header := bufmap.Shape{Name: "Header", Declare: func(s *bufmap.Struct) {
		s.StaticString("Magic", "BM")
		size := s.Number("File Size", 4)
		s.Reserved(4)
		s.Buffer("Payload", s.IntOf(size)-10)
	}}

	st, err := bufmap.Build("Bitmap", data, byteview.LittleEndian, header)
	if err != nil {
		log.Fatal(err)
	}
	fmt.Println(st.Render(bufmap.RenderOptions{}))

	// Output:
	// ------
	// Bitmap
	// ------
	// Magic    : "BM"
	// File Size: 0x0000000E (14)
	// Payload  : {4 bytes}
}

// Example_expressions sizes a field from earlier values with CEL
func Example_expressions() {
	data := []byte{24, 3, 1, 2, 3, 4, 5, 6, 7, 8, 9, 0, 0, 0}

	row := bufmap.Shape{Name: "Row", Declare: func(s *bufmap.Struct) {
		s.Number("Bits Per Pixel", 1)
		s.Number("Width", 1)
		s.Buffer("Pixels", s.Expr("align(ceilDiv(bits_per_pixel * width, 8), 4)"))
	}}

	st, err := bufmap.Build("Row", data, byteview.LittleEndian, row)
	if err != nil {
		log.Fatal(err)
	}
	pixels, err := st.Raw("Pixels")
	if err != nil {
		log.Fatal(err)
	}
	fmt.Println(len(pixels))

	// Output:
	// 12
}
