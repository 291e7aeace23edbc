package cpu

import (
	"github.com/valerio/dmgcore/dmg/addr"
	"github.com/valerio/dmgcore/dmg/bit"
)

// Bus provides the interface for component communication
type Bus interface {
	Read(address uint16) byte
	Write(address uint16, value byte)
	RequestInterrupt(interrupt addr.Interrupt)
}

// Flag is one of the 4 possible flags used in the flag register (high part of AF)
type Flag uint8

const (
	zeroFlag      Flag = 0x80
	subFlag       Flag = 0x40
	halfCarryFlag Flag = 0x20
	carryFlag     Flag = 0x10
)

const (
	baseInterruptAddress uint16 = 0x40
	interruptCycles             = 20
	idleCycles                  = 4
)

// CPU is the main struct holding SM83 state
type CPU struct {
	// registers
	a  uint8
	f  uint8
	b  uint8
	c  uint8
	d  uint8
	e  uint8
	h  uint8
	l  uint8
	sp uint16
	pc uint16

	// metadata
	interruptsEnabled bool
	eiPending         bool // EI delay: interrupts enable after next instruction
	currentOpcode     uint16
	stopped           bool
	halted            bool
	cycles            uint64

	// haltBug makes the next fetch read PC without incrementing it. Set by
	// HALT when IME=0 and an interrupt is already pending.
	haltBug bool

	// fault is set on the first undecodable opcode, the CPU stays stopped after it.
	fault *DecodeError

	bus Bus
}

func initializeMemory(bus Bus) {
	bus.Write(addr.P1, 0xCF)
	bus.Write(addr.TIMA, 0x00)
	bus.Write(addr.TMA, 0x00)
	bus.Write(addr.TAC, 0x00)
	bus.Write(addr.LCDC, 0x91)
	bus.Write(addr.SCY, 0x00)
	bus.Write(addr.SCX, 0x00)
	bus.Write(addr.LYC, 0x00)
	bus.Write(addr.BGP, 0xFC)
	bus.Write(addr.OBP0, 0xFF)
	bus.Write(addr.OBP1, 0xFF)
	bus.Write(addr.WY, 0x00)
	bus.Write(addr.WX, 0x00)
	bus.Write(addr.IE, 0x00)
	bus.Write(addr.IF, 0x01)
}

// New returns a CPU in the state the DMG boot ROM leaves behind.
func New(bus Bus) *CPU {
	initializeMemory(bus)

	cpu := &CPU{
		bus: bus,
	}

	cpu.setAF(0x01B0)
	cpu.setBC(0x0013)
	cpu.setDE(0x00D8)
	cpu.setHL(0x014D)
	cpu.sp = 0xFFFE
	cpu.pc = 0x0100

	return cpu
}

// NewWithBootROM returns a CPU with cleared registers that starts executing at
// 0x0000, where the boot ROM overlay is expected to be mapped.
func NewWithBootROM(bus Bus) *CPU {
	return &CPU{bus: bus}
}

// Step services a pending interrupt or executes a single instruction.
// Returns the amount of cycles that took. A *DecodeError is returned for an
// opcode without a table entry; from then on every call returns it again.
func (c *CPU) Step() (int, error) {
	if c.fault != nil {
		return 0, c.fault
	}

	pending := c.pendingInterrupts()

	if c.halted {
		if pending == 0 {
			c.cycles += idleCycles
			return idleCycles, nil
		}
		// Waking from HALT does not trigger the HALT bug, that only happens
		// when HALT itself runs with IME=0 and something already pending.
		c.halted = false
	}

	if c.stopped {
		if c.bus.Read(addr.IF)&uint8(addr.JoypadInterrupt) == 0 {
			c.cycles += idleCycles
			return idleCycles, nil
		}
		c.stopped = false
	}

	if c.interruptsEnabled && pending != 0 {
		c.serviceInterrupt(pending)
		c.cycles += interruptCycles
		return interruptCycles, nil
	}

	pc := c.pc
	opcode := c.fetch()
	instr := &opcodes[opcode]
	c.currentOpcode = uint16(opcode)
	if opcode == 0xCB {
		code := c.fetch()
		instr = &opcodesCB[code]
		c.currentOpcode = bit.Combine(0xCB, code)
	}

	if instr.exec == nil {
		c.fault = &DecodeError{Opcode: c.currentOpcode, PC: pc}
		return 0, c.fault
	}

	enableInterrupts := c.eiPending

	cycles := instr.cycles
	if instr.exec(c) {
		cycles = instr.branchCycles
	}
	c.cycles += uint64(cycles)

	// EI takes effect once the instruction after it has run
	if enableInterrupts && c.eiPending {
		c.eiPending = false
		c.interruptsEnabled = true
	}

	return cycles, nil
}

// pendingInterrupts returns IE & IF restricted to the five interrupt bits.
func (c *CPU) pendingInterrupts() uint8 {
	return c.bus.Read(addr.IE) & c.bus.Read(addr.IF) & addr.InterruptMask
}

// serviceInterrupt jumps to the vector of the highest priority pending
// interrupt (lowest bit), clearing its IF bit and IME.
func (c *CPU) serviceInterrupt(pending uint8) {
	for i := uint8(0); i < 5; i++ {
		if !bit.IsSet(i, pending) {
			continue
		}

		// EI; HALT with a pending interrupt returns to the HALT itself
		if c.haltBug {
			c.haltBug = false
			c.pc--
		}

		c.bus.Write(addr.IF, bit.Reset(i, c.bus.Read(addr.IF)))
		c.interruptsEnabled = false
		c.eiPending = false

		c.pushStack(c.pc)
		// 0x40 - 0x48 - 0x50 - 0x58 - 0x60
		c.pc = baseInterruptAddress + uint16(i)*8
		return
	}
}

// fetch reads the byte at PC and advances it, unless the HALT bug is armed.
func (c *CPU) fetch() uint8 {
	value := c.bus.Read(c.pc)
	if c.haltBug {
		c.haltBug = false
		return value
	}
	c.pc++
	return value
}

func (c *CPU) fetchWord() uint16 {
	low := c.fetch()
	high := c.fetch()
	return bit.Combine(high, low)
}

func (c *CPU) fetchSigned() int8 {
	return int8(c.fetch())
}

func (c *CPU) pushStack(value uint16) {
	c.sp--
	c.bus.Write(c.sp, bit.High(value))
	c.sp--
	c.bus.Write(c.sp, bit.Low(value))
}

func (c *CPU) popStack() uint16 {
	low := c.bus.Read(c.sp)
	c.sp++
	high := c.bus.Read(c.sp)
	c.sp++
	return bit.Combine(high, low)
}

func (c *CPU) setFlag(flag Flag) {
	c.f |= uint8(flag)
}

func (c *CPU) resetFlag(flag Flag) {
	c.f &^= uint8(flag)
}

func (c CPU) isSetFlag(flag Flag) bool {
	return c.f&uint8(flag) != 0
}

// flagToBit will return 1 if the passed flag is set, 0 otherwise
func (c CPU) flagToBit(flag Flag) uint8 {
	if c.isSetFlag(flag) {
		return 1
	}

	return 0
}

func (c *CPU) setFlagToCondition(flag Flag, condition bool) {
	if !condition {
		c.resetFlag(flag)
		return
	}

	c.setFlag(flag)
}

// Debug getter methods for register display
func (c *CPU) GetA() uint8       { return c.a }
func (c *CPU) GetF() uint8       { return c.f }
func (c *CPU) GetB() uint8       { return c.b }
func (c *CPU) GetC() uint8       { return c.c }
func (c *CPU) GetD() uint8       { return c.d }
func (c *CPU) GetE() uint8       { return c.e }
func (c *CPU) GetH() uint8       { return c.h }
func (c *CPU) GetL() uint8       { return c.l }
func (c *CPU) GetSP() uint16     { return c.sp }
func (c *CPU) GetPC() uint16     { return c.pc }
func (c *CPU) GetCycles() uint64 { return c.cycles }

// Interrupt state getters
func (c *CPU) GetIME() bool   { return c.interruptsEnabled }
func (c *CPU) IsHalted() bool { return c.halted }

// GetFlagString returns a human-readable representation of the flag register, e.g. "Z-H-".
func (c *CPU) GetFlagString() string {
	flags := []byte("----")
	for i, f := range []Flag{zeroFlag, subFlag, halfCarryFlag, carryFlag} {
		if c.isSetFlag(f) {
			flags[i] = "ZNHC"[i]
		}
	}
	return string(flags)
}
