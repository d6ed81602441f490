package buzz

import "encoding/binary"

// minReportLen is the shortest input report that carries button state.
// The receiver occasionally emits shorter keep-alive reports; those are
// dropped without surfacing an error.
const minReportLen = 5

// ParseReport extracts the 24-bit pressed-buttons field from a raw input
// report.
//
// Report layout:
//
//	bytes[0-1]  unused
//	bytes[2-3]  pressed bits 0-15, little-endian
//	byte[4]     pressed bits 16-23
//
// Returns ErrShortReport when the report is shorter than 5 bytes.
func ParseReport(data []byte) (uint32, error) {
	if len(data) < minReportLen {
		return 0, ErrShortReport
	}
	field := uint32(binary.LittleEndian.Uint16(data[2:4]))
	field |= uint32(data[4]) << 16
	return field, nil
}

// LedState is the last commanded player LED configuration. It is telemetry
// only; the device itself is the source of truth for physical output.
type LedState struct {
	Player1 bool
	Player2 bool
	Player3 bool
	Player4 bool
}

// Players returns the state as an array indexed by player number - 1.
func (s LedState) Players() [4]bool {
	return [4]bool{s.Player1, s.Player2, s.Player3, s.Player4}
}

func ledByte(on bool) byte {
	if on {
		return 0xFF
	}
	return 0x00
}

// Encode builds the primary 8-byte LED output report:
// [0x00, 0x00, P1, P2, P3, P4, 0x00, 0x00] with Pn in {0x00, 0xFF}.
func (s LedState) Encode() []byte {
	return []byte{
		0x00, 0x00,
		ledByte(s.Player1), ledByte(s.Player2),
		ledByte(s.Player3), ledByte(s.Player4),
		0x00, 0x00,
	}
}

// EncodeShort builds the 6-byte fallback report used when the device
// rejects the primary form. Identical layout minus the two trailing zeros.
func (s LedState) EncodeShort() []byte {
	return s.Encode()[:6]
}
