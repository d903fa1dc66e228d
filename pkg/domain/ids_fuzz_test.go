package domain

import (
	"testing"
	"unicode/utf8"
)

// FuzzParseRegistrantID checks parsing never panics and accepted IDs survive a
// String round trip.
func FuzzParseRegistrantID(f *testing.F) {
	f.Add("")
	f.Add("550e8400-e29b-41d4-a716-446655440000")
	f.Add("00000000-0000-0000-0000-000000000000")
	f.Add("{550e8400-e29b-41d4-a716-446655440000}")
	f.Add(string([]byte{0xff, 0xfe}))

	f.Fuzz(func(t *testing.T, input string) {
		id, err := ParseRegistrantID(input)
		if err != nil {
			return
		}
		if id.IsNil() {
			t.Fatal("nil id accepted")
		}
		again, err := ParseRegistrantID(id.String())
		if err != nil || again != id {
			t.Fatalf("round trip failed for %q", input)
		}
		if !utf8.ValidString(input) {
			t.Fatalf("non-utf8 input accepted: %q", input)
		}
	})
}
