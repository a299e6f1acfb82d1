package wire

import (
	"encoding/binary"
	"time"
)

func writeHeader(buf []byte, to, from MacAddress) {
	copy(buf[offTo:offTo+6], to[:])
	copy(buf[offFrom:offFrom+6], from[:])
	buf[offMagic] = MagicByte1
	buf[offMagic+1] = MagicByte2
}

// grow returns a slice of length n backed by buf's array if it has enough
// capacity, or a freshly allocated slice otherwise. Used by the *Into
// writers so repeated calls on the hot forwarding path can reuse a single
// caller-owned buffer.
func grow(buf []byte, n int) []byte {
	if cap(buf) >= n {
		return buf[:n]
	}
	return make([]byte, n)
}

// SerializeHeartbeat builds a complete Heartbeat frame in a freshly sized
// buffer.
func SerializeHeartbeat(to, from, origin MacAddress, duration time.Duration, id, hops uint32) []byte {
	buf := make([]byte, HeartbeatSize)
	writeHeader(buf, to, from)
	buf[offPacketType] = byte(PacketControl)
	buf[offSubType] = byte(ControlHeartbeat)
	binary.LittleEndian.PutUint64(buf[hbDurationOff:hbDurationOff+8], uint64(duration/time.Microsecond))
	binary.LittleEndian.PutUint32(buf[hbIDOff:hbIDOff+4], id)
	binary.LittleEndian.PutUint32(buf[hbHopsOff:hbHopsOff+4], hops)
	copy(buf[hbSourceOff:hbSourceOff+6], origin[:])
	return buf
}

// SerializeHeartbeatReply builds a complete HeartbeatReply frame in a
// freshly sized buffer. The 11-byte padding region is zeroed.
func SerializeHeartbeatReply(to, from, origin, sender MacAddress, duration time.Duration, id uint32, hops uint8) []byte {
	buf := make([]byte, HeartbeatReplySize)
	writeHeartbeatReply(buf, to, from, origin, sender, duration, id, hops)
	return buf
}

func writeHeartbeatReply(buf []byte, to, from, origin, sender MacAddress, duration time.Duration, id uint32, hops uint8) {
	writeHeader(buf, to, from)
	buf[offPacketType] = byte(PacketControl)
	buf[offSubType] = byte(ControlHeartbeatReply)
	binary.LittleEndian.PutUint64(buf[hrDurationOff:hrDurationOff+8], uint64(duration/time.Microsecond))
	binary.LittleEndian.PutUint32(buf[hrIDOff:hrIDOff+4], id)
	copy(buf[hrSourceOff:hrSourceOff+6], origin[:])
	copy(buf[hrSenderOff:hrSenderOff+6], sender[:])
	buf[hrHopsOff] = hops
	for i := 0; i < hrPaddingLen; i++ {
		buf[hrPaddingOff+i] = 0
	}
}

// SerializeUpstream builds a complete Data::Upstream frame in a freshly
// sized buffer.
func SerializeUpstream(to, from, origin MacAddress, payload []byte) []byte {
	buf := make([]byte, upPayloadOff+len(payload))
	writeUpstream(buf, to, from, origin, payload)
	return buf
}

func writeUpstream(buf []byte, to, from, origin MacAddress, payload []byte) {
	writeHeader(buf, to, from)
	buf[offPacketType] = byte(PacketData)
	buf[offSubType] = byte(DataUpstream)
	copy(buf[upOriginOff:upOriginOff+6], origin[:])
	copy(buf[upPayloadOff:], payload)
}

// SerializeDownstream builds a complete Data::Downstream frame in a
// freshly sized buffer.
func SerializeDownstream(to, from, origin, destination MacAddress, payload []byte) []byte {
	buf := make([]byte, downPayloadOff+len(payload))
	writeDownstream(buf, to, from, origin, destination, payload)
	return buf
}

func writeDownstream(buf []byte, to, from, origin, destination MacAddress, payload []byte) {
	writeHeader(buf, to, from)
	buf[offPacketType] = byte(PacketData)
	buf[offSubType] = byte(DataDownstream)
	copy(buf[downOriginOff:downOriginOff+6], origin[:])
	copy(buf[downDestinationOff:downDestinationOff+6], destination[:])
	copy(buf[downPayloadOff:], payload)
}

// SerializeUpstreamForwardInto rewrites a parsed Upstream frame's L2
// to/from and re-serializes it into *out, borrowing the origin and
// payload directly from parsed without building an intermediate struct.
// Produces byte-identical output to SerializeUpstream for the same
// logical frame.
func SerializeUpstreamForwardInto(parsed Frame, from, to MacAddress, out *[]byte) {
	payload := parsed.Payload()
	*out = grow(*out, upPayloadOff+len(payload))
	writeUpstream(*out, to, from, parsed.DataOrigin(), payload)
}

// SerializeDownstreamInto writes a complete Data::Downstream frame into
// *out. Byte-identical to SerializeDownstream for the same arguments.
func SerializeDownstreamInto(origin, destination MacAddress, payload []byte, from, to MacAddress, out *[]byte) {
	*out = grow(*out, downPayloadOff+len(payload))
	writeDownstream(*out, to, from, origin, destination, payload)
}

// SerializeDownstreamForwardInto rewrites a parsed Downstream frame's L2
// to/from and re-serializes it into *out, borrowing origin/destination/
// payload directly from parsed.
func SerializeDownstreamForwardInto(parsed Frame, from, to MacAddress, out *[]byte) {
	payload := parsed.Payload()
	*out = grow(*out, downPayloadOff+len(payload))
	writeDownstream(*out, to, from, parsed.DataOrigin(), parsed.Destination(), payload)
}

// SerializeHeartbeatReplyInto builds a HeartbeatReply frame into *out from
// a parsed Heartbeat frame, borrowing its duration/id/origin without
// materializing an intermediate struct. sender is the node generating the
// reply (the local node when replying, or unchanged when forwarding a
// reply — see SerializeHeartbeatReplyForwardInto for the latter).
func SerializeHeartbeatReplyInto(parsed Frame, sender, from, to MacAddress, out *[]byte) {
	*out = grow(*out, HeartbeatReplySize)
	writeHeartbeatReply(*out, to, from, parsed.Origin(), sender, parsed.Duration(), parsed.ID(), uint8(parsed.Hops()))
}

// SerializeHeartbeatReplyForwardInto rewrites a parsed HeartbeatReply
// frame's L2 to/from for forwarding toward next_upstream, preserving its
// origin, sender, duration, id and hops unchanged.
func SerializeHeartbeatReplyForwardInto(parsed Frame, from, to MacAddress, out *[]byte) {
	*out = grow(*out, HeartbeatReplySize)
	writeHeartbeatReply(*out, to, from, parsed.Origin(), parsed.ReplySender(), parsed.Duration(), parsed.ID(), uint8(parsed.Hops()))
}
