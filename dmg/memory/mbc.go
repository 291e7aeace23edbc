package memory

import "github.com/valerio/dmgcore/dmg/addr"

// Kind identifies which memory bank controller a cartridge carries.
type Kind uint8

const (
	// KindNone is a plain 32KB cartridge, ROM is mapped directly to 0x0000-0x7FFF.
	KindNone Kind = iota
	// KindMBC1 supports up to 2MB ROM and 32KB RAM, with two banking modes:
	//   - Mode 0: the secondary register selects ROM bits 5-6, RAM is fixed to bank 0
	//   - Mode 1: the secondary register also maps 0x0000-0x3FFF and selects the RAM bank
	KindMBC1
	// KindMBC2 supports up to 256KB ROM and has 512 half-bytes of RAM built in.
	KindMBC2
	// KindMBC3 supports up to 2MB ROM and 32KB RAM. The RTC registers are not modeled.
	KindMBC3
	// KindMBC5 supports up to 8MB ROM via a 9 bit bank number and 128KB RAM.
	KindMBC5
)

func (k Kind) String() string {
	switch k {
	case KindNone:
		return "none"
	case KindMBC1:
		return "mbc1"
	case KindMBC2:
		return "mbc2"
	case KindMBC3:
		return "mbc3"
	case KindMBC5:
		return "mbc5"
	}
	return "unknown"
}

// mbc2RAMSize is the number of 4 bit cells built into MBC2 chips.
const mbc2RAMSize = 512

type target uint8

const (
	targetNone target = iota // open bus, reads return 0xFF
	targetROM
	targetRAM
)

// physicalOffset is a cartridge address resolved against the current bank registers.
type physicalOffset struct {
	target target
	offset int
}

// Controller is a memory bank controller. The variant is selected by kind and
// all of them share translate to resolve addresses into the backing buffers.
type Controller struct {
	kind Kind
	rom  []byte
	ram  []byte

	romBanks int
	ramBanks int

	// romBank is the full bank number for MBC2/3/5 and the low 5 bits for MBC1.
	romBank int
	// ramBank is the RAM bank for MBC3/5 and the 2 bit secondary register for MBC1.
	ramBank    int
	ramEnabled bool
	mode       uint8
}

// NewController builds the controller for the given cartridge type code.
// rom must hold romBanks * 16KB bytes.
func NewController(mbcType byte, rom []byte, romBanks, ramBanks int) (*Controller, error) {
	kind, ok := kindForType(mbcType)
	if !ok {
		return nil, &UnsupportedCartridgeError{Type: mbcType}
	}

	if romBanks < 1 {
		romBanks = 1
	}

	m := &Controller{
		kind:     kind,
		rom:      rom,
		romBanks: romBanks,
		ramBanks: ramBanks,
		romBank:  1,
	}

	switch kind {
	case KindMBC2:
		m.ram = make([]byte, mbc2RAMSize)
		m.ramBanks = 1
	case KindNone:
		m.ram = make([]byte, ramBanks*ramBankSize)
		m.ramEnabled = true
	default:
		m.ram = make([]byte, ramBanks*ramBankSize)
	}

	return m, nil
}

// Kind returns the controller variant.
func (m *Controller) Kind() Kind {
	return m.kind
}

// ROMBank returns the bank currently mapped at 0x4000-0x7FFF.
func (m *Controller) ROMBank() int {
	return m.switchableBank()
}

func (m *Controller) Read(address uint16) byte {
	p := m.translate(address)
	switch p.target {
	case targetROM:
		return m.rom[p.offset]
	case targetRAM:
		if m.kind == KindMBC2 {
			return m.ram[p.offset] | 0xF0
		}
		return m.ram[p.offset]
	default:
		return 0xFF
	}
}

func (m *Controller) Write(address uint16, value byte) {
	if address < addr.VRAMStart {
		m.writeRegister(address, value)
		return
	}

	p := m.translate(address)
	if p.target != targetRAM {
		return
	}
	if m.kind == KindMBC2 {
		value &= 0x0F
	}
	m.ram[p.offset] = value
}

// translate resolves a cartridge address into a ROM or RAM offset using the
// current bank registers. Addresses outside the cartridge windows are a
// caller bug and panic.
func (m *Controller) translate(address uint16) physicalOffset {
	switch {
	case address < addr.ROMBankN:
		bank := 0
		if m.kind == KindMBC1 && m.mode == 1 {
			bank = (m.ramBank << 5) % m.romBanks
		}
		return physicalOffset{targetROM, bank*romBankSize + int(address)}

	case address < addr.VRAMStart:
		bank := m.switchableBank()
		return physicalOffset{targetROM, bank*romBankSize + int(address-addr.ROMBankN)}

	case address >= addr.ExtRAMStart && address <= addr.ExtRAMEnd:
		if !m.ramEnabled || len(m.ram) == 0 {
			return physicalOffset{target: targetNone}
		}
		offset := int(address - addr.ExtRAMStart)
		if m.kind == KindMBC2 {
			return physicalOffset{targetRAM, offset % mbc2RAMSize}
		}
		bank, ok := m.ramBankIndex()
		if !ok {
			return physicalOffset{target: targetNone}
		}
		return physicalOffset{targetRAM, bank*ramBankSize + offset}
	}

	panic(&InvalidMBCAddressError{Kind: m.kind, Address: address})
}

func (m *Controller) switchableBank() int {
	switch m.kind {
	case KindNone:
		return 1 % m.romBanks
	case KindMBC1:
		return ((m.ramBank << 5) | m.romBank) % m.romBanks
	default:
		return m.romBank % m.romBanks
	}
}

func (m *Controller) ramBankIndex() (int, bool) {
	if m.ramBanks == 0 {
		return 0, false
	}
	switch m.kind {
	case KindMBC1:
		if m.mode == 1 {
			return m.ramBank % m.ramBanks, true
		}
		return 0, true
	case KindMBC3:
		// 0x08-0x0C select RTC registers
		if m.ramBank > 0x03 {
			return 0, false
		}
		return m.ramBank % m.ramBanks, true
	case KindMBC5:
		return m.ramBank % m.ramBanks, true
	default:
		return 0, true
	}
}

func (m *Controller) writeRegister(address uint16, value byte) {
	switch m.kind {
	case KindMBC1:
		switch {
		case address < 0x2000:
			m.ramEnabled = value&0x0F == 0x0A
		case address < 0x4000:
			m.romBank = int(value & 0x1F)
			if m.romBank == 0 {
				m.romBank = 1
			}
		case address < 0x6000:
			m.ramBank = int(value & 0x03)
		default:
			m.mode = value & 0x01
		}

	case KindMBC2:
		if address >= 0x4000 {
			return
		}
		// address bit 8 selects between RAM enable and ROM bank
		if address&0x0100 == 0 {
			m.ramEnabled = value&0x0F == 0x0A
			return
		}
		m.romBank = int(value & 0x0F)
		if m.romBank == 0 {
			m.romBank = 1
		}

	case KindMBC3:
		switch {
		case address < 0x2000:
			m.ramEnabled = value&0x0F == 0x0A
		case address < 0x4000:
			m.romBank = int(value & 0x7F)
			if m.romBank == 0 {
				m.romBank = 1
			}
		case address < 0x6000:
			m.ramBank = int(value & 0x0F)
		default:
			// RTC latch, not modeled
		}

	case KindMBC5:
		switch {
		case address < 0x2000:
			m.ramEnabled = value&0x0F == 0x0A
		case address < 0x3000:
			m.romBank = (m.romBank & 0x100) | int(value)
		case address < 0x4000:
			m.romBank = (m.romBank & 0xFF) | int(value&0x01)<<8
		case address < 0x6000:
			m.ramBank = int(value & 0x0F)
		}
	}
}
