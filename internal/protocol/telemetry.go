package protocol

import "encoding/binary"

// DecodeTelemetry extracts the sample values from an inbound telemetry
// frame. If the frame starts with UnsolicitedMarker it carries a 2-byte
// header [marker, length-or-type] which is skipped; otherwise the payload
// starts at offset 0.
//
// The payload is a flat sequence of big-endian uint16 values. An odd
// trailing byte is discarded. A frame shorter than the minimum viable
// length yields an empty (nil) slice: a noisy link degrades to missing
// samples, it never produces an error or a garbage value.
func DecodeTelemetry(data []byte) []uint16 {
	offset := 0
	if len(data) > 0 && data[0] == UnsolicitedMarker {
		offset = 2
	}
	if offset+1 >= len(data) {
		return nil
	}

	values := make([]uint16, 0, (len(data)-offset)/2)
	for ; offset+1 < len(data); offset += 2 {
		values = append(values, binary.BigEndian.Uint16(data[offset:]))
	}
	return values
}
