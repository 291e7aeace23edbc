package memory

import (
	"fmt"
	"log/slog"
)

const titleLength = 16

const (
	titleAddress          = 0x134
	cartridgeTypeAddress  = 0x147
	romSizeAddress        = 0x148
	ramSizeAddress        = 0x149
	versionNumberAddress  = 0x14C
	headerChecksumAddress = 0x14D
	globalChecksumAddress = 0x14E
	headerEnd             = 0x14F
)

const (
	romBankSize = 0x4000
	ramBankSize = 0x2000
)

// Header holds the cartridge metadata stored at 0x0100-0x014F.
type Header struct {
	Title          string
	CartType       byte
	ROMSizeCode    byte
	RAMSizeCode    byte
	Version        byte
	HeaderChecksum byte
	GlobalChecksum uint16

	ROMBanks int
	RAMBanks int
}

// ParseHeader decodes the cartridge header of a ROM image.
func ParseHeader(rom []byte) (Header, error) {
	if len(rom) <= headerEnd {
		return Header{}, &HeaderError{Size: len(rom)}
	}

	h := Header{
		Title:          cleanGameboyTitle(rom[titleAddress : titleAddress+titleLength]),
		CartType:       rom[cartridgeTypeAddress],
		ROMSizeCode:    rom[romSizeAddress],
		RAMSizeCode:    rom[ramSizeAddress],
		Version:        rom[versionNumberAddress],
		HeaderChecksum: rom[headerChecksumAddress],
		GlobalChecksum: uint16(rom[globalChecksumAddress])<<8 | uint16(rom[globalChecksumAddress+1]),
	}
	h.ROMBanks = decodeROMBanks(h.ROMSizeCode)
	h.RAMBanks = decodeRAMBanks(h.RAMSizeCode)

	return h, nil
}

// HeaderChecksumOK runs the boot ROM header check over 0x0134-0x014C.
func HeaderChecksumOK(rom []byte) bool {
	if len(rom) <= headerChecksumAddress {
		return false
	}
	var sum byte
	for a := titleAddress; a < headerChecksumAddress; a++ {
		sum = sum - rom[a] - 1
	}
	return sum == rom[headerChecksumAddress]
}

// Cartridge is a loaded ROM image together with the bank controller that maps it.
type Cartridge struct {
	Header Header
	mbc    *Controller
}

// NewCartridge parses the header of data and builds the matching controller.
// The ROM is padded up to a whole number of banks so bank translation never
// reads past the image.
func NewCartridge(data []byte) (*Cartridge, error) {
	header, err := ParseHeader(data)
	if err != nil {
		return nil, err
	}

	if !HeaderChecksumOK(data) {
		slog.Warn("cartridge header checksum mismatch", "title", header.Title, "checksum", fmt.Sprintf("0x%02X", header.HeaderChecksum))
	}

	banks := (len(data) + romBankSize - 1) / romBankSize
	if banks < 2 {
		banks = 2
	}
	rom := make([]byte, banks*romBankSize)
	copy(rom, data)

	mbc, err := NewController(header.CartType, rom, banks, header.RAMBanks)
	if err != nil {
		return nil, fmt.Errorf("loading %q: %w", header.Title, err)
	}

	slog.Info("cartridge loaded",
		"title", header.Title,
		"mbc", mbc.Kind(),
		"rom_banks", banks,
		"ram_banks", header.RAMBanks)

	return &Cartridge{Header: header, mbc: mbc}, nil
}

// Controller returns the bank controller of the cartridge.
func (c *Cartridge) Controller() *Controller {
	return c.mbc
}
