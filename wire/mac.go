// Package wire implements the on-the-wire frame format shared by every node
// in the mesh: a 14-byte common header (to, from, magic) followed by a
// control or data body. Parsing is zero-copy — Frame holds a borrowed slice
// into the caller's buffer, never allocating. Serialization offers both a
// general path (build a fresh buffer) and specialized zero-copy forwarding
// writers for the hot device-receive loop.
package wire

import "fmt"

// MacAddress is a 6-byte layer-2 address. The zero value is not meaningful;
// BroadcastMAC (all-ones) is the only address with reserved semantics.
type MacAddress [6]byte

// BroadcastMAC is the all-ones L2 broadcast address.
var BroadcastMAC = MacAddress{0xff, 0xff, 0xff, 0xff, 0xff, 0xff}

// IsBroadcast reports whether m is the all-ones broadcast address.
func (m MacAddress) IsBroadcast() bool {
	return m == BroadcastMAC
}

// IsGroup reports whether the group bit (the low bit of the first octet) is
// set, which covers both the broadcast address and multicast addresses.
func (m MacAddress) IsGroup() bool {
	return m[0]&0x01 != 0
}

func (m MacAddress) String() string {
	return fmt.Sprintf("%02x:%02x:%02x:%02x:%02x:%02x", m[0], m[1], m[2], m[3], m[4], m[5])
}

// Less gives a deterministic byte-order total order over MAC addresses,
// used to break scoring ties during next-hop selection.
func (m MacAddress) Less(other MacAddress) bool {
	for i := 0; i < 6; i++ {
		if m[i] != other[i] {
			return m[i] < other[i]
		}
	}
	return false
}
