// Package pe declares the headers of Windows portable executables: the DOS
// header and stub, the PE signature, the COFF header, the optional header
// (whose pointer-sized fields widen for PE32+) and the section table.
package pe

import (
	"github.com/twinfer/bufmap/pkg/bufmap"
	"github.com/twinfer/bufmap/pkg/byteview"
)

// Name is the top-level struct name used for executables.
const Name = "Windows EXE File Header"

// Endian is the byte order of every PE field.
const Endian = byteview.LittleEndian

const (
	// DOSMagic opens the DOS header.
	DOSMagic = "MZ"
	// Signature opens the PE header.
	Signature = "PE\x00\x00"

	dataDirectories = 16
)

// Magic tells PE32 and PE32+ optional headers apart.
type Magic uint16

const (
	PE32     Magic = 0x10B
	PE32Plus Magic = 0x20B
)

func (m Magic) String() string {
	switch m {
	case PE32:
		return "HDR32_MAGIC"
	case PE32Plus:
		return "HDR64_MAGIC"
	}
	return "UNKNOWN"
}

// Machine is the COFF target machine.
type Machine uint16

var machineNames = map[Machine]string{
	0x0000: "UNKNOWN",
	0x014C: "INTEL_I386",
	0x0162: "MIPS_R3000",
	0x0166: "MIPS_R4000",
	0x0168: "MIPS_R10000",
	0x0169: "MIPS_WCEMIPSV2",
	0x0184: "ALPHA_XP",
	0x01A2: "SH3",
	0x01A3: "SH3DSP",
	0x01A4: "SH3E",
	0x01A6: "SH4",
	0x01A8: "SH5",
	0x01C0: "ARM",
	0x01C2: "THUMB",
	0x01D3: "AM33",
	0x01F0: "IBM_POWERPC",
	0x01F1: "POWERPCFP",
	0x0200: "IA64",
	0x0266: "MIPS16",
	0x0284: "ALPHA64",
	0x0366: "MIPSFPU",
	0x0466: "MIPSFPU16",
	0x0520: "INFINEON_TRICORE",
	0x0EBC: "EFI_BYTE_CODE",
	0x8664: "AMD64",
	0x9041: "M32R",
}

func (m Machine) String() string {
	if name, ok := machineNames[m]; ok {
		return name
	}
	return "UNKNOWN"
}

// Subsystem is the subsystem required to run the image.
type Subsystem uint16

var subsystemNames = map[Subsystem]string{
	0:  "UNKNOWN",
	1:  "NATIVE",
	2:  "WINDOWS_GUI",
	3:  "WINDOWS_CUI",
	5:  "OS2_CUI",
	7:  "POSIX_CUI",
	8:  "NATIVE_WINDOWS",
	9:  "WINDOWS_CE_GUI",
	10: "EFI_APPLICATION",
	11: "EFI_BOOT_SERVICE_DRIVER",
	12: "EFI_RUNTIME_DRIVER",
	13: "EFI_ROM",
	14: "XBOX",
	16: "WINDOWS_BOOT_APPLICATION",
}

func (s Subsystem) String() string {
	if name, ok := subsystemNames[s]; ok {
		return name
	}
	return "UNKNOWN"
}

var (
	magics     = bufmap.NewEnumTable(PE32, PE32Plus)
	machines   = bufmap.NewEnumTable(keys(machineNames)...)
	subsystems = bufmap.NewEnumTable(keys(subsystemNames)...)
)

func keys[K comparable](m map[K]string) []K {
	out := make([]K, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	return out
}

// Shape is the header region of an executable.
var Shape = bufmap.Shape{Name: "Windows EXE", Declare: func(s *bufmap.Struct) {
	dos := s.Composite("DOS Header", DOSHeader).Struct()
	lfanew, _ := dos.Field("File address of new exe header")
	s.Buffer("DOS Data", s.IntOf(lfanew)-s.Size())
	s.Composite("PE Header", peHeader)
}}

// DOSHeader is the 64-byte MS-DOS header.
var DOSHeader = bufmap.Shape{Name: "IMAGE_DOS_HEADER", Declare: func(s *bufmap.Struct) {
	s.StaticString("Magic number", DOSMagic)
	for _, name := range []string{
		"Bytes on last page of file",
		"Pages in file",
		"Relocations",
		"Size of header in paragraphs",
		"Minimum extra paragraphs needed",
		"Maximum extra paragraphs needed",
		"Initial (relative) SS value",
		"Initial SP value",
		"Checksum",
		"Initial IP value",
		"Initial (relative) CS value",
		"File address of relocation table",
		"Overlay number",
	} {
		s.Number(name, 2)
	}
	s.Reserved(4 * 2)
	s.Number("OEM identifier", 2)
	s.Number("OEM information", 2)
	s.Reserved(10 * 2)
	s.Number("File address of new exe header", 4)
}}

var peHeader = bufmap.Shape{Name: "IMAGE_NT_HEADERS", Declare: func(s *bufmap.Struct) {
	s.StaticString("Signature", Signature)
	coff := s.Composite("COFF Header", coffHeader).Struct()
	optional := s.Composite("PE Optional Header", OptionalHeader)

	declared, _ := coff.Field("Size of Optional Header")
	if pad := s.IntOf(declared) - optional.Size(); pad > 0 {
		s.Reserved(pad)
	}
	sections, _ := coff.Field("Number of Sections")
	s.Array("Section Table", bufmap.Count(s.IntOf(sections)), sectionHeader)
}}

var coffHeader = bufmap.Shape{Name: "IMAGE_FILE_HEADER", Declare: func(s *bufmap.Struct) {
	bufmap.EnumNumber(s, "Machine", 2, machines)
	s.Number("Number of Sections", 2)
	s.Number("Time-Date Stamp", 4)
	s.Number("Pointer To Symbol Table", 4)
	s.Number("Number of Symbols", 4)
	s.Number("Size of Optional Header", 2)
	s.Composite("Characteristics", coffCharacteristics)
}}

var coffCharacteristics = bufmap.Shape{Name: "Characteristics", Declare: func(s *bufmap.Struct) {
	s.Bit("Relocation Info Stripped")
	s.Bit("Executable File")
	s.Bit("Line Numbers Stripped")
	s.Bit("Local Symbols Stripped")
	s.Bit("Aggressive Working Set Trim")
	s.Bit("Large Address Aware (>2GB)")
	s.ReservedBits(1)
	s.Bit("Bytes of Machine Word Reversed (Low)")
	s.Bit("32 Bit Word Machine")
	s.Bit("Debug Info Stripped")
	s.Bit("Run From Swap File if on Removable Media")
	s.Bit("Run From Swap File if on Net")
	s.Bit("System File")
	s.Bit("DLL File")
	s.Bit("Run on UP Machine Only")
	s.Bit("Bytes of Machine Word Reversed (Hi)")
}}

// OptionalHeader is the PE optional header. Its Magic decides the width of
// the pointer-sized fields: PE32+ widens them to 8 bytes and drops Base of
// Data to zero bytes.
var OptionalHeader = bufmap.Shape{Name: "IMAGE_OPTIONAL_HEADER", Declare: func(s *bufmap.Struct) {
	magic := bufmap.EnumNumber(s, "Magic", 2, magics)
	ptr, baseOfData := 4, 4
	if Magic(s.IntOf(magic)) == PE32Plus {
		ptr, baseOfData = 8, 0
	}

	s.Number("Major Linker Version", 1)
	s.Number("Minor Linker Version", 1)
	s.Number("Size of Code", 4)
	s.Number("Size of Initialized Data", 4)
	s.Number("Size of Uninitialized Data", 4)
	s.Number("Address of Entry Point", 4)
	s.Number("Base of Code", 4)
	s.Number("Base of Data", baseOfData)
	s.Number("Image Base", ptr)
	s.Number("Section Alignment", 4)
	s.Number("File Alignment", 4)
	s.Number("Major OS Version", 2)
	s.Number("Minor OS Version", 2)
	s.Number("Major Image Version", 2)
	s.Number("Minor Image Version", 2)
	s.Number("Major Subsystem Version", 2)
	s.Number("Minor Subsystem Version", 2)
	s.Reserved(4)
	s.Number("Size of Image", 4)
	s.Number("Size Of Headers", 4)
	s.Number("Checksum", 4)
	bufmap.EnumNumber(s, "Subsystem", 2, subsystems)
	s.Composite("DLL Characteristics", dllCharacteristics)
	s.Number("Size of Stack Reserve", ptr)
	s.Number("Size of Stack Commit", ptr)
	s.Number("Size of Heap Reserve", ptr)
	s.Number("Size of Heap Commit", ptr)
	s.Number("Loader Flags", 4)
	s.Number("Number of Rva and Sizes", 4)
	s.Array("Data Directory", bufmap.Count(dataDirectories), dataDirectory)
}}

var dllCharacteristics = bufmap.Shape{Name: "DLL Characteristics", Declare: func(s *bufmap.Struct) {
	s.ReservedBits(6)
	s.Bit("Dynamic Base")
	s.Bit("Force Integrity")
	s.Bit("NX Compatible")
	s.Bit("Does not use isolation")
	s.Bit("Does not use SEH")
	s.Bit("Do not bind")
	s.ReservedBits(1)
	s.Bit("Driver uses WDM model")
	s.ReservedBits(1)
	s.Bit("Terminal Server Aware")
}}

var dataDirectory = bufmap.Shape{Name: "IMAGE_DATA_DIRECTORY", Declare: func(s *bufmap.Struct) {
	s.Number("Virtual Address", 4)
	s.Number("Size", 4)
}}

var sectionHeader = bufmap.Shape{Name: "IMAGE_SECTION_HEADER", Declare: func(s *bufmap.Struct) {
	s.FixedString("Name", 8)
	s.Number("Virtual Size", 4)
	s.Number("Virtual Address", 4)
	s.Number("Size of Raw Data", 4)
	s.Number("Pointer to Raw Data", 4)
	s.Number("Pointer to Relocations", 4)
	s.Number("Pointer to Line Numbers", 4)
	s.Number("Number of Relocations", 2)
	s.Number("Number of Line Numbers", 2)
	s.Number("Characteristics", 4)
}}
