package memory

import (
	"strings"
	"unicode"
)

// cleanGameboyTitle converts NULL bytes to spaces, replaces non printable
// characters and trims the result.
func cleanGameboyTitle(titleBytes []byte) string {
	runes := make([]rune, 0, len(titleBytes))

	for _, b := range titleBytes {
		r := rune(b)
		if r == 0 {
			r = ' '
		} else if r > unicode.MaxASCII || !unicode.IsPrint(r) {
			r = '?'
		}
		runes = append(runes, r)
	}

	title := strings.TrimSpace(string(runes))
	if title == "" {
		return "(Untitled)"
	}

	return title
}

// decodeROMBanks maps the 0x148 size code to a count of 16KB banks.
func decodeROMBanks(code byte) int {
	switch {
	case code <= 0x08:
		return 2 << code
	case code == 0x52:
		return 72
	case code == 0x53:
		return 80
	case code == 0x54:
		return 96
	default:
		return 0
	}
}

// decodeRAMBanks maps the 0x149 size code to a count of 8KB banks.
// The 2KB variant (code 1) is backed by a whole bank.
func decodeRAMBanks(code byte) int {
	switch code {
	case 0x01, 0x02:
		return 1
	case 0x03:
		return 4
	case 0x04:
		return 16
	case 0x05:
		return 8
	default:
		return 0
	}
}

// kindForType maps the 0x147 cartridge type code to a controller kind.
func kindForType(cartType byte) (Kind, bool) {
	switch cartType {
	case 0x00, 0x08, 0x09:
		return KindNone, true
	case 0x01, 0x02, 0x03:
		return KindMBC1, true
	case 0x05, 0x06:
		return KindMBC2, true
	case 0x0F, 0x10, 0x11, 0x12, 0x13:
		return KindMBC3, true
	case 0x19, 0x1A, 0x1B, 0x1C, 0x1D, 0x1E:
		return KindMBC5, true
	default:
		return KindNone, false
	}
}
