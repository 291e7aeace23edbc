package cpu

import "fmt"

// opcodesCB is the table for the byte following a 0xCB prefix. The layout is
//
//	00-3F: rotate/shift/swap, op in bits 3-5
//	40-7F: BIT b,r
//	80-BF: RES b,r
//	C0-FF: SET b,r
//
// with the operand in bits 0-2. [HL] forms take 16 cycles, 12 for BIT.
var opcodesCB [256]instruction

var shiftNames = [8]string{"RLC", "RRC", "RL", "RR", "SLA", "SRA", "SWAP", "SRL"}

func (c *CPU) shift(operation, value uint8) uint8 {
	switch operation {
	case 0:
		return c.rlc(value)
	case 1:
		return c.rrc(value)
	case 2:
		return c.rl(value)
	case 3:
		return c.rr(value)
	case 4:
		return c.sla(value)
	case 5:
		return c.sra(value)
	case 6:
		return c.swap(value)
	default:
		return c.srl(value)
	}
}

func initCB() {
	for i := 0; i < 256; i++ {
		code := uint8(i)
		r := code & 0x07
		y := (code >> 3) & 0x07

		cycles := 8
		if r == regHLPointer {
			cycles = 16
		}

		switch code >> 6 {
		case 0:
			opcodesCB[code] = op(fmt.Sprintf("%s %s", shiftNames[y], reg8Names[r]), 2, cycles, func(c *CPU) {
				c.setReg8(r, c.shift(y, c.reg8(r)))
			})
		case 1:
			if r == regHLPointer {
				cycles = 12
			}
			opcodesCB[code] = op(fmt.Sprintf("BIT %d,%s", y, reg8Names[r]), 2, cycles, func(c *CPU) {
				c.testBit(y, c.reg8(r))
			})
		case 2:
			mask := uint8(1) << y
			opcodesCB[code] = op(fmt.Sprintf("RES %d,%s", y, reg8Names[r]), 2, cycles, func(c *CPU) {
				c.setReg8(r, c.reg8(r)&^mask)
			})
		default:
			mask := uint8(1) << y
			opcodesCB[code] = op(fmt.Sprintf("SET %d,%s", y, reg8Names[r]), 2, cycles, func(c *CPU) {
				c.setReg8(r, c.reg8(r)|mask)
			})
		}
	}
}
