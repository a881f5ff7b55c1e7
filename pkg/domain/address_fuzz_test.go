//go:build go1.18

package domain

import (
	"testing"
)

// FuzzParseAddress tests that parsing never panics on arbitrary input
// and always returns either a valid address or an error.
//
// Justification: Trust boundary functions must handle arbitrary input safely.
func FuzzParseAddress(f *testing.F) {
	f.Add("")
	f.Add("0x00000000000000000000000000000000000000a1")
	f.Add("0x0000000000000000000000000000000000000000")
	f.Add("not-an-address")
	f.Add("0xZZ000000000000000000000000000000000000a1")
	f.Add(string([]byte{0x00, 0x01, 0x02}))

	f.Fuzz(func(t *testing.T, input string) {
		addr, err := ParseAddress(input)
		if err != nil {
			return
		}
		if IsZero(addr) {
			t.Fatal("parsed zero address without error")
		}
		roundTrip, err := ParseAddress(addr.Hex())
		if err != nil {
			t.Fatalf("valid address failed round-trip: %v", err)
		}
		if roundTrip != addr {
			t.Fatal("round-trip changed address value")
		}
	})
}
