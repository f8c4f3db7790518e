package device

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/ottobit/simbridge/pkg/messages"
)

// BuildHex encodes a compiled program as Intel HEX data records, the artifact
// format accepted by UploadCode. Each record carries up to 16 payload bytes.
func BuildHex(program *messages.ProgramData) (string, error) {
	if program == nil {
		return "", fmt.Errorf("program is nil")
	}

	payload, err := json.Marshal(program)
	if err != nil {
		return "", fmt.Errorf("failed to marshal program: %v", err)
	}

	var sb strings.Builder
	addr := 0
	for offset := 0; offset < len(payload); offset += 16 {
		end := offset + 16
		if end > len(payload) {
			end = len(payload)
		}
		sb.WriteString(hexRecord(addr, 0x00, payload[offset:end]))
		sb.WriteString("\n")
		addr += end - offset
	}
	// End-of-file record.
	sb.WriteString(hexRecord(0, 0x01, nil))
	sb.WriteString("\n")

	return sb.String(), nil
}

// hexRecord formats one Intel HEX record: start code, byte count, address,
// record type, data, and two's-complement checksum.
func hexRecord(addr int, recordType byte, data []byte) string {
	sum := byte(len(data)) + byte(addr>>8) + byte(addr&0xff) + recordType
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf(":%02X%04X%02X", len(data), addr&0xffff, recordType))
	for _, b := range data {
		sb.WriteString(fmt.Sprintf("%02X", b))
		sum += b
	}
	sb.WriteString(fmt.Sprintf("%02X", byte(-sum)))
	return sb.String()
}
