// Package testutil holds helpers shared by the layout, format and plugin tests.
package testutil

import (
	"encoding/hex"
	"io"
	"log/slog"
	"math"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
)

// Hex decodes a hex string, ignoring whitespace, and fails the test on bad
// input. It keeps fixtures readable as grouped bytes: "42 4D 3A 00".
func Hex(t testing.TB, s string) []byte {
	t.Helper()
	b, err := hex.DecodeString(strings.Join(strings.Fields(s), ""))
	if err != nil {
		t.Fatalf("bad hex fixture %q: %v", s, err)
	}
	return b
}

// Lines splits a rendered dump into lines.
func Lines(s string) []string {
	return strings.Split(s, "\n")
}

// DiffLines reports a line-by-line diff between two dumps.
func DiffLines(t testing.TB, want, got string) {
	t.Helper()
	if diff := cmp.Diff(Lines(want), Lines(got)); diff != "" {
		t.Errorf("dump mismatch (-want +got):\n%s", diff)
	}
}

// DiscardLogger returns a logger that drops everything, for builds under test.
func DiscardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// ConvertToInt64 converts various numeric types to int64 for comparison.
// Returns the int64 value and a boolean indicating success.
func ConvertToInt64(i any) (int64, bool) {
	switch v := i.(type) {
	case float64:
		if v == float64(int64(v)) {
			return int64(v), true
		}
		return 0, false
	case int:
		return int64(v), true
	case int8:
		return int64(v), true
	case int16:
		return int64(v), true
	case int32:
		return int64(v), true
	case int64:
		return v, true
	case uint8:
		return int64(v), true
	case uint16:
		return int64(v), true
	case uint32:
		return int64(v), true
	case uint64:
		if v <= math.MaxInt64 {
			return int64(v), true
		}
		return 0, false
	default:
		return 0, false
	}
}

// NumericComparer compares numbers by value across Go types, so exported
// trees can be checked against JSON round trips where every number is a
// float64.
var NumericComparer = cmp.FilterValues(func(x, y any) bool {
	_, xOk := ConvertToInt64(x)
	_, yOk := ConvertToInt64(y)
	return xOk && yOk
}, cmp.Comparer(func(x, y any) bool {
	xInt, _ := ConvertToInt64(x)
	yInt, _ := ConvertToInt64(y)
	return xInt == yInt
}))
