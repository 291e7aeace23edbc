package cpu

import "github.com/valerio/dmgcore/dmg/bit"

// Operand indices used by the opcode encoding (bits 0-2 or 3-5).
const (
	regB uint8 = iota
	regC
	regD
	regE
	regH
	regL
	regHLPointer
	regA
)

var reg8Names = [8]string{"B", "C", "D", "E", "H", "L", "[HL]", "A"}

// reg8 reads the operand selected by index, going through memory for [HL].
func (c *CPU) reg8(index uint8) uint8 {
	switch index {
	case regB:
		return c.b
	case regC:
		return c.c
	case regD:
		return c.d
	case regE:
		return c.e
	case regH:
		return c.h
	case regL:
		return c.l
	case regHLPointer:
		return c.bus.Read(c.getHL())
	default:
		return c.a
	}
}

func (c *CPU) setReg8(index, value uint8) {
	switch index {
	case regB:
		c.b = value
	case regC:
		c.c = value
	case regD:
		c.d = value
	case regE:
		c.e = value
	case regH:
		c.h = value
	case regL:
		c.l = value
	case regHLPointer:
		c.bus.Write(c.getHL(), value)
	default:
		c.a = value
	}
}

func (c *CPU) setBC(value uint16) {
	c.b = bit.High(value)
	c.c = bit.Low(value)
}

func (c CPU) getBC() uint16 {
	return bit.Combine(c.b, c.c)
}

func (c *CPU) setDE(value uint16) {
	c.d = bit.High(value)
	c.e = bit.Low(value)
}

func (c CPU) getDE() uint16 {
	return bit.Combine(c.d, c.e)
}

func (c *CPU) setHL(value uint16) {
	c.h = bit.High(value)
	c.l = bit.Low(value)
}

func (c CPU) getHL() uint16 {
	return bit.Combine(c.h, c.l)
}

func (c *CPU) setAF(value uint16) {
	c.a = bit.High(value)
	// F register lower 4 bits must be 0
	c.f = bit.Low(value) & 0xF0
}

func (c CPU) getAF() uint16 {
	return bit.Combine(c.a, c.f)
}

// Pairs as encoded in bits 4-5 of the 16 bit load/inc/dec/add opcodes.
// The last slot is SP there, AF for push/pop.
var (
	pairNames     = [4]string{"BC", "DE", "HL", "SP"}
	pairNamesPush = [4]string{"BC", "DE", "HL", "AF"}
)

func (c *CPU) pair(index uint8) uint16 {
	switch index {
	case 0:
		return c.getBC()
	case 1:
		return c.getDE()
	case 2:
		return c.getHL()
	default:
		return c.sp
	}
}

func (c *CPU) setPair(index uint8, value uint16) {
	switch index {
	case 0:
		c.setBC(value)
	case 1:
		c.setDE(value)
	case 2:
		c.setHL(value)
	default:
		c.sp = value
	}
}

func (c *CPU) pushPair(index uint8) uint16 {
	if index == 3 {
		return c.getAF()
	}
	return c.pair(index)
}

func (c *CPU) setPushPair(index uint8, value uint16) {
	if index == 3 {
		c.setAF(value)
		return
	}
	c.setPair(index, value)
}
