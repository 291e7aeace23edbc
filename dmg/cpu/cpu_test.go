package cpu

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/valerio/dmgcore/dmg/addr"
	"github.com/valerio/dmgcore/dmg/memory"
)

const programStart = 0xC000

// newTestCPU loads program into work RAM and points PC at it.
func newTestCPU(program ...byte) (*CPU, *memory.MMU) {
	mmu := memory.New()
	cpu := New(mmu)
	for i, b := range program {
		mmu.Write(programStart+uint16(i), b)
	}
	mmu.Write(addr.IF, 0x00)
	cpu.pc = programStart
	return cpu, mmu
}

func step(t *testing.T, cpu *CPU) int {
	t.Helper()
	cycles, err := cpu.Step()
	require.NoError(t, err)
	return cycles
}

func TestNew(t *testing.T) {
	mmu := memory.New()
	cpu := New(mmu)

	assert.Equal(t, uint16(0x01B0), cpu.getAF())
	assert.Equal(t, uint16(0x0013), cpu.getBC())
	assert.Equal(t, uint16(0x00D8), cpu.getDE())
	assert.Equal(t, uint16(0x014D), cpu.getHL())
	assert.Equal(t, uint16(0xFFFE), cpu.sp)
	assert.Equal(t, uint16(0x0100), cpu.pc)
	assert.Equal(t, byte(0x91), mmu.Read(addr.LCDC))

	boot := NewWithBootROM(mmu)
	assert.Equal(t, uint16(0x0000), boot.pc)
	assert.Equal(t, uint16(0x0000), boot.getAF())
}

func TestRegisterPairs(t *testing.T) {
	cpu, _ := newTestCPU()

	testCases := []struct {
		desc      string
		high, low *uint8
		get       func() uint16
		set       func(uint16)
	}{
		{"BC", &cpu.b, &cpu.c, cpu.getBC, cpu.setBC},
		{"DE", &cpu.d, &cpu.e, cpu.getDE, cpu.setDE},
		{"HL", &cpu.h, &cpu.l, cpu.getHL, cpu.setHL},
	}

	for _, tC := range testCases {
		t.Run(tC.desc, func(t *testing.T) {
			for _, value := range []uint16{0x0000, 0x1234, 0xABCD, 0xFF00, 0x00FF, 0xFFFF} {
				*tC.high = uint8(value >> 8)
				*tC.low = uint8(value)
				assert.Equal(t, value, tC.get())

				tC.set(^value)
				assert.Equal(t, uint8(^value>>8), *tC.high)
				assert.Equal(t, uint8(^value), *tC.low)
			}
		})
	}
}

func TestAFMasksLowNibble(t *testing.T) {
	cpu, _ := newTestCPU()

	cpu.setAF(0x12FF)
	assert.Equal(t, uint16(0x12F0), cpu.getAF())
}

func TestCPU_stack(t *testing.T) {
	cpu, _ := newTestCPU()

	cpu.sp = 0xFFFE
	cpu.pushStack(0x0102)
	assert.Equal(t, uint16(0xFFFC), cpu.sp)

	popped := cpu.popStack()
	assert.Equal(t, uint16(0x0102), popped)
	assert.Equal(t, uint16(0xFFFE), cpu.sp)
}

func TestPushPop(t *testing.T) {
	testCases := []struct {
		desc      string
		push, pop byte
		set       func(*CPU)
		get       func(*CPU) uint16
		want      uint16
	}{
		{"BC", 0xC5, 0xC1, func(c *CPU) { c.setBC(0x1234) }, func(c *CPU) uint16 { return c.getBC() }, 0x1234},
		{"DE", 0xD5, 0xD1, func(c *CPU) { c.setDE(0xBEEF) }, func(c *CPU) uint16 { return c.getDE() }, 0xBEEF},
		{"HL", 0xE5, 0xE1, func(c *CPU) { c.setHL(0x8001) }, func(c *CPU) uint16 { return c.getHL() }, 0x8001},
		{"AF", 0xF5, 0xF1, func(c *CPU) { c.a, c.f = 0x42, 0xF0 }, func(c *CPU) uint16 { return c.getAF() }, 0x42F0},
	}

	for _, tC := range testCases {
		t.Run(tC.desc, func(t *testing.T) {
			// PUSH rr, clear the pair with LD SP-neutral ops, POP rr
			cpu, _ := newTestCPU(tC.push, tC.pop)
			tC.set(cpu)
			sp := cpu.sp

			assert.Equal(t, 16, step(t, cpu))
			assert.Equal(t, sp-2, cpu.sp)

			cpu.setBC(0)
			cpu.setDE(0)
			cpu.setHL(0)
			cpu.a, cpu.f = 0, 0

			assert.Equal(t, 12, step(t, cpu))
			assert.Equal(t, tC.want, tC.get(cpu))
			assert.Equal(t, sp, cpu.sp)
		})
	}
}

func TestPopAFMasksFlags(t *testing.T) {
	cpu, mmu := newTestCPU(0xF1)
	cpu.sp = 0xD000
	mmu.Write(0xD000, 0xFF)
	mmu.Write(0xD001, 0x12)

	step(t, cpu)

	assert.Equal(t, uint16(0x12F0), cpu.getAF())
}

func TestIncA(t *testing.T) {
	for _, carry := range []bool{false, true} {
		cpu, _ := newTestCPU(0x3C)
		cpu.a = 0xFF
		cpu.f = 0
		cpu.setFlagToCondition(carryFlag, carry)
		cpu.setFlag(subFlag)

		assert.Equal(t, 4, step(t, cpu))

		assert.Equal(t, uint8(0x00), cpu.a)
		assert.True(t, cpu.isSetFlag(zeroFlag))
		assert.True(t, cpu.isSetFlag(halfCarryFlag))
		assert.False(t, cpu.isSetFlag(subFlag))
		assert.Equal(t, carry, cpu.isSetFlag(carryFlag))
	}
}

func TestIncDecRoundTrip(t *testing.T) {
	// INC r / DEC r opcodes for B, C, D, E, H, L, A
	pairs := map[string][2]byte{
		"B": {0x04, 0x05}, "C": {0x0C, 0x0D}, "D": {0x14, 0x15}, "E": {0x1C, 0x1D},
		"H": {0x24, 0x25}, "L": {0x2C, 0x2D}, "A": {0x3C, 0x3D},
	}

	for name, ops := range pairs {
		t.Run(name, func(t *testing.T) {
			for _, value := range []uint8{0x00, 0x0F, 0x10, 0x7F, 0xFF} {
				cpu, _ := newTestCPU(ops[0], ops[1])
				index := uint8((ops[0] >> 3) & 0x07)
				cpu.setReg8(index, value)

				step(t, cpu)
				step(t, cpu)

				assert.Equal(t, value, cpu.reg8(index))
			}
		})
	}
}

func TestIncDecMemory(t *testing.T) {
	cpu, mmu := newTestCPU(0x34, 0x35, 0x35)
	cpu.setHL(0xD000)
	mmu.Write(0xD000, 0x0F)

	assert.Equal(t, 12, step(t, cpu))
	assert.Equal(t, byte(0x10), mmu.Read(0xD000))
	assert.True(t, cpu.isSetFlag(halfCarryFlag))

	step(t, cpu)
	step(t, cpu)
	assert.Equal(t, byte(0x0E), mmu.Read(0xD000))
	assert.False(t, cpu.isSetFlag(halfCarryFlag))
	assert.True(t, cpu.isSetFlag(subFlag))
}

func TestInterruptDispatch(t *testing.T) {
	t.Run("interrupts disabled by default", func(t *testing.T) {
		cpu, mmu := newTestCPU(0x00)
		mmu.Write(addr.IF, 0x01)
		mmu.Write(addr.IE, 0x01)

		assert.Equal(t, 4, step(t, cpu))
		assert.Equal(t, uint16(programStart+1), cpu.pc)
	})

	t.Run("priority order and IF clearing", func(t *testing.T) {
		cpu, mmu := newTestCPU(0x00)
		cpu.interruptsEnabled = true
		cpu.sp = 0xD000
		mmu.Write(addr.IE, 0x1F)
		mmu.Write(addr.IF, 0x1C)

		assert.Equal(t, 20, step(t, cpu))

		assert.Equal(t, uint16(0x50), cpu.pc)
		assert.Equal(t, byte(0xF8), mmu.Read(addr.IF), "only the timer bit is cleared")
		assert.False(t, cpu.interruptsEnabled)
		assert.Equal(t, uint16(0xCFFE), cpu.sp)
		assert.Equal(t, uint16(programStart), cpu.popStack())
	})

	t.Run("vectors", func(t *testing.T) {
		for i := uint8(0); i < 5; i++ {
			cpu, mmu := newTestCPU(0x00)
			cpu.interruptsEnabled = true
			mmu.Write(addr.IE, 0x1F)
			mmu.Write(addr.IF, 1<<i)

			step(t, cpu)
			assert.Equal(t, uint16(0x40+8*uint16(i)), cpu.pc)
			assert.Equal(t, byte(0xE0), mmu.Read(addr.IF))
		}
	})

	t.Run("masked interrupts are not serviced", func(t *testing.T) {
		cpu, mmu := newTestCPU(0x00)
		cpu.interruptsEnabled = true
		mmu.Write(addr.IE, 0x02)
		mmu.Write(addr.IF, 0x01)

		assert.Equal(t, 4, step(t, cpu))
		assert.Equal(t, uint16(programStart+1), cpu.pc)
	})

	t.Run("RETI enables interrupts and returns", func(t *testing.T) {
		cpu, _ := newTestCPU(0xD9)
		cpu.sp = 0xD000
		cpu.pushStack(0x0150)

		assert.Equal(t, 16, step(t, cpu))
		assert.True(t, cpu.interruptsEnabled)
		assert.Equal(t, uint16(0x0150), cpu.pc)
	})
}

func TestEIDelay(t *testing.T) {
	// EI, NOP, NOP
	cpu, mmu := newTestCPU(0xFB, 0x00, 0x00)
	mmu.Write(addr.IE, 0x01)
	mmu.Write(addr.IF, 0x01)

	step(t, cpu)
	assert.False(t, cpu.interruptsEnabled)
	assert.True(t, cpu.eiPending)

	step(t, cpu)
	assert.True(t, cpu.interruptsEnabled)
	assert.Equal(t, uint16(programStart+2), cpu.pc)

	assert.Equal(t, 20, step(t, cpu))
	assert.Equal(t, uint16(0x40), cpu.pc)
}

func TestDICancelsPendingEI(t *testing.T) {
	// EI, DI, NOP
	cpu, _ := newTestCPU(0xFB, 0xF3, 0x00)

	step(t, cpu)
	step(t, cpu)
	step(t, cpu)

	assert.False(t, cpu.interruptsEnabled)
}

func TestHalt(t *testing.T) {
	t.Run("idles until an interrupt is pending", func(t *testing.T) {
		cpu, mmu := newTestCPU(0x76, 0x3C)
		mmu.Write(addr.IE, 0x04)

		step(t, cpu)
		assert.True(t, cpu.IsHalted())

		for i := 0; i < 3; i++ {
			assert.Equal(t, 4, step(t, cpu))
			assert.Equal(t, uint16(programStart+1), cpu.pc)
		}

		// IME=0: wake up and continue without dispatching
		mmu.RequestInterrupt(addr.TimerInterrupt)
		step(t, cpu)
		assert.False(t, cpu.IsHalted())
		assert.Equal(t, uint16(programStart+2), cpu.pc)
		assert.Equal(t, byte(0xE4), mmu.Read(addr.IF))
	})

	t.Run("wakes into the handler with IME=1", func(t *testing.T) {
		cpu, mmu := newTestCPU(0x76, 0x00)
		cpu.interruptsEnabled = true
		mmu.Write(addr.IE, 0x01)

		step(t, cpu)
		assert.Equal(t, 4, step(t, cpu))

		mmu.RequestInterrupt(addr.VBlankInterrupt)
		assert.Equal(t, 20, step(t, cpu))
		assert.Equal(t, uint16(0x40), cpu.pc)
		assert.Equal(t, uint16(programStart+1), cpu.popStack())
	})

	t.Run("halt bug reads the next byte twice", func(t *testing.T) {
		// HALT, INC A, NOP
		cpu, mmu := newTestCPU(0x76, 0x3C, 0x00)
		cpu.a = 0
		mmu.Write(addr.IE, 0x01)
		mmu.Write(addr.IF, 0x01)

		step(t, cpu)
		assert.False(t, cpu.IsHalted())
		assert.True(t, cpu.haltBug)
		assert.Equal(t, uint16(programStart+1), cpu.pc)

		step(t, cpu)
		assert.Equal(t, uint8(1), cpu.a)
		assert.Equal(t, uint16(programStart+1), cpu.pc, "PC did not advance past INC A")

		step(t, cpu)
		assert.Equal(t, uint8(2), cpu.a)
		assert.Equal(t, uint16(programStart+2), cpu.pc)
	})

	t.Run("halt bug with an operand", func(t *testing.T) {
		// HALT, LD A,n8 (0x3E 0x14)
		cpu, mmu := newTestCPU(0x76, 0x3E, 0x14)
		mmu.Write(addr.IE, 0x01)
		mmu.Write(addr.IF, 0x01)

		step(t, cpu)
		step(t, cpu)

		// the opcode byte is read again as the operand
		assert.Equal(t, uint8(0x3E), cpu.a)
		assert.Equal(t, uint16(programStart+2), cpu.pc)
	})
}

func TestStop(t *testing.T) {
	cpu, mmu := newTestCPU(0x10, 0x00, 0x3C)
	mmu.Timer().Advance(0x1234)
	a := cpu.a

	step(t, cpu)
	assert.Equal(t, byte(0), mmu.Read(addr.DIV))
	assert.Equal(t, uint16(programStart+2), cpu.pc)

	assert.Equal(t, 4, step(t, cpu))
	assert.Equal(t, a, cpu.a)

	mmu.HandleKeyPress(memory.JoypadA)
	step(t, cpu)
	assert.Equal(t, a+1, cpu.a)
}

func TestDecodeError(t *testing.T) {
	illegal := []byte{0xD3, 0xDB, 0xDD, 0xE3, 0xE4, 0xEB, 0xEC, 0xED, 0xF4, 0xFC, 0xFD}

	for _, opcode := range illegal {
		cpu, _ := newTestCPU(0x00, opcode)
		step(t, cpu)

		cycles, err := cpu.Step()
		assert.Equal(t, 0, cycles)

		var decodeErr *DecodeError
		require.True(t, errors.As(err, &decodeErr))
		assert.Equal(t, uint16(opcode), decodeErr.Opcode)
		assert.Equal(t, uint16(programStart+1), decodeErr.PC)

		// the fault is sticky
		_, again := cpu.Step()
		assert.Same(t, decodeErr, again)
	}

	err := &DecodeError{Opcode: 0xCB40, PC: 0x1234}
	assert.Equal(t, "illegal opcode 0xCB40 at PC 0x1234", err.Error())
}
