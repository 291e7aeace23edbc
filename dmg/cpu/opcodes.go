package cpu

import (
	"fmt"

	"github.com/valerio/dmgcore/dmg/addr"
)

// opcodes is the primary dispatch table. Entries left zero are opcodes that
// do not exist on the SM83 (0xD3, 0xDB, 0xDD, 0xE3, 0xE4, 0xEB, 0xEC, 0xED,
// 0xF4, 0xFC, 0xFD). 0xCB only prefixes opcodesCB.
var opcodes [256]instruction

// condition names and predicates as encoded in bits 3-4
var conditionNames = [4]string{"NZ", "Z", "NC", "C"}

func (c *CPU) condition(index uint8) bool {
	switch index {
	case 0:
		return !c.isSetFlag(zeroFlag)
	case 1:
		return c.isSetFlag(zeroFlag)
	case 2:
		return !c.isSetFlag(carryFlag)
	default:
		return c.isSetFlag(carryFlag)
	}
}

func op(mnemonic string, length, cycles int, exec func(*CPU)) instruction {
	return instruction{
		mnemonic: mnemonic,
		length:   length,
		cycles:   cycles,
		exec: func(c *CPU) bool {
			exec(c)
			return false
		},
	}
}

func branch(mnemonic string, length, cycles, taken int, exec func(*CPU) bool) instruction {
	return instruction{
		mnemonic:     mnemonic,
		length:       length,
		cycles:       cycles,
		branchCycles: taken,
		exec:         exec,
	}
}

func init() {
	initLoads()
	initALU()
	initControl()
	initMisc()
	initCB()
}

func initLoads() {
	for i := uint8(0); i < 4; i++ {
		rr := i
		base := rr << 4

		// LD rr,n16
		opcodes[0x01|base] = op(fmt.Sprintf("LD %s,n16", pairNames[rr]), 3, 12, func(c *CPU) {
			c.setPair(rr, c.fetchWord())
		})
		// INC rr / DEC rr
		opcodes[0x03|base] = op(fmt.Sprintf("INC %s", pairNames[rr]), 1, 8, func(c *CPU) {
			c.setPair(rr, c.pair(rr)+1)
		})
		opcodes[0x0B|base] = op(fmt.Sprintf("DEC %s", pairNames[rr]), 1, 8, func(c *CPU) {
			c.setPair(rr, c.pair(rr)-1)
		})
		// PUSH rr / POP rr
		opcodes[0xC5|base] = op(fmt.Sprintf("PUSH %s", pairNamesPush[rr]), 1, 16, func(c *CPU) {
			c.pushStack(c.pushPair(rr))
		})
		opcodes[0xC1|base] = op(fmt.Sprintf("POP %s", pairNamesPush[rr]), 1, 12, func(c *CPU) {
			c.setPushPair(rr, c.popStack())
		})
	}

	// LD r,n8 and LD r,r'
	for i := uint8(0); i < 8; i++ {
		dst := i
		cycles := 8
		if dst == regHLPointer {
			cycles = 12
		}
		opcodes[0x06|dst<<3] = op(fmt.Sprintf("LD %s,n8", reg8Names[dst]), 2, cycles, func(c *CPU) {
			c.setReg8(dst, c.fetch())
		})

		for j := uint8(0); j < 8; j++ {
			src := j
			if dst == regHLPointer && src == regHLPointer {
				continue // HALT
			}
			cycles := 4
			if dst == regHLPointer || src == regHLPointer {
				cycles = 8
			}
			opcodes[0x40|dst<<3|src] = op(fmt.Sprintf("LD %s,%s", reg8Names[dst], reg8Names[src]), 1, cycles, func(c *CPU) {
				c.setReg8(dst, c.reg8(src))
			})
		}
	}

	opcodes[0x02] = op("LD [BC],A", 1, 8, func(c *CPU) { c.bus.Write(c.getBC(), c.a) })
	opcodes[0x12] = op("LD [DE],A", 1, 8, func(c *CPU) { c.bus.Write(c.getDE(), c.a) })
	opcodes[0x22] = op("LD [HL+],A", 1, 8, func(c *CPU) {
		c.bus.Write(c.getHL(), c.a)
		c.setHL(c.getHL() + 1)
	})
	opcodes[0x32] = op("LD [HL-],A", 1, 8, func(c *CPU) {
		c.bus.Write(c.getHL(), c.a)
		c.setHL(c.getHL() - 1)
	})
	opcodes[0x0A] = op("LD A,[BC]", 1, 8, func(c *CPU) { c.a = c.bus.Read(c.getBC()) })
	opcodes[0x1A] = op("LD A,[DE]", 1, 8, func(c *CPU) { c.a = c.bus.Read(c.getDE()) })
	opcodes[0x2A] = op("LD A,[HL+]", 1, 8, func(c *CPU) {
		c.a = c.bus.Read(c.getHL())
		c.setHL(c.getHL() + 1)
	})
	opcodes[0x3A] = op("LD A,[HL-]", 1, 8, func(c *CPU) {
		c.a = c.bus.Read(c.getHL())
		c.setHL(c.getHL() - 1)
	})

	opcodes[0x08] = op("LD [a16],SP", 3, 20, func(c *CPU) {
		address := c.fetchWord()
		c.bus.Write(address, uint8(c.sp))
		c.bus.Write(address+1, uint8(c.sp>>8))
	})

	opcodes[0xE0] = op("LDH [a8],A", 2, 12, func(c *CPU) { c.bus.Write(0xFF00|uint16(c.fetch()), c.a) })
	opcodes[0xF0] = op("LDH A,[a8]", 2, 12, func(c *CPU) { c.a = c.bus.Read(0xFF00 | uint16(c.fetch())) })
	opcodes[0xE2] = op("LDH [C],A", 1, 8, func(c *CPU) { c.bus.Write(0xFF00|uint16(c.c), c.a) })
	opcodes[0xF2] = op("LDH A,[C]", 1, 8, func(c *CPU) { c.a = c.bus.Read(0xFF00 | uint16(c.c)) })
	opcodes[0xEA] = op("LD [a16],A", 3, 16, func(c *CPU) { c.bus.Write(c.fetchWord(), c.a) })
	opcodes[0xFA] = op("LD A,[a16]", 3, 16, func(c *CPU) { c.a = c.bus.Read(c.fetchWord()) })

	opcodes[0xF8] = op("LD HL,SP+e8", 2, 12, func(c *CPU) { c.setHL(c.addSPSigned(c.fetchSigned())) })
	opcodes[0xF9] = op("LD SP,HL", 1, 8, func(c *CPU) { c.sp = c.getHL() })
}

var aluNames = [8]string{"ADD A,", "ADC A,", "SUB A,", "SBC A,", "AND A,", "XOR A,", "OR A,", "CP A,"}

func (c *CPU) alu(operation, value uint8) {
	switch operation {
	case 0:
		c.add(value, false)
	case 1:
		c.add(value, true)
	case 2:
		c.sub(value, false, true)
	case 3:
		c.sub(value, true, true)
	case 4:
		c.and(value)
	case 5:
		c.xor(value)
	case 6:
		c.or(value)
	default:
		c.sub(value, false, false)
	}
}

func initALU() {
	for i := uint8(0); i < 8; i++ {
		operation := i

		// ALU A,r
		for j := uint8(0); j < 8; j++ {
			src := j
			cycles := 4
			if src == regHLPointer {
				cycles = 8
			}
			opcodes[0x80|operation<<3|src] = op(aluNames[operation]+reg8Names[src], 1, cycles, func(c *CPU) {
				c.alu(operation, c.reg8(src))
			})
		}

		// ALU A,n8
		opcodes[0xC6|operation<<3] = op(aluNames[operation]+"n8", 2, 8, func(c *CPU) {
			c.alu(operation, c.fetch())
		})

		// INC r / DEC r
		r := i
		cycles := 4
		if r == regHLPointer {
			cycles = 12
		}
		opcodes[0x04|r<<3] = op("INC "+reg8Names[r], 1, cycles, func(c *CPU) {
			c.setReg8(r, c.inc(c.reg8(r)))
		})
		opcodes[0x05|r<<3] = op("DEC "+reg8Names[r], 1, cycles, func(c *CPU) {
			c.setReg8(r, c.dec(c.reg8(r)))
		})
	}

	for i := uint8(0); i < 4; i++ {
		rr := i
		opcodes[0x09|rr<<4] = op("ADD HL,"+pairNames[rr], 1, 8, func(c *CPU) {
			c.addToHL(c.pair(rr))
		})
	}

	opcodes[0xE8] = op("ADD SP,e8", 2, 16, func(c *CPU) { c.sp = c.addSPSigned(c.fetchSigned()) })

	opcodes[0x07] = op("RLCA", 1, 4, func(c *CPU) {
		c.a = c.rlc(c.a)
		c.resetFlag(zeroFlag)
	})
	opcodes[0x0F] = op("RRCA", 1, 4, func(c *CPU) {
		c.a = c.rrc(c.a)
		c.resetFlag(zeroFlag)
	})
	opcodes[0x17] = op("RLA", 1, 4, func(c *CPU) {
		c.a = c.rl(c.a)
		c.resetFlag(zeroFlag)
	})
	opcodes[0x1F] = op("RRA", 1, 4, func(c *CPU) {
		c.a = c.rr(c.a)
		c.resetFlag(zeroFlag)
	})

	opcodes[0x27] = op("DAA", 1, 4, (*CPU).daa)
	opcodes[0x2F] = op("CPL", 1, 4, (*CPU).cpl)
	opcodes[0x37] = op("SCF", 1, 4, (*CPU).scf)
	opcodes[0x3F] = op("CCF", 1, 4, (*CPU).ccf)
}

func initControl() {
	opcodes[0x18] = op("JR e8", 2, 12, func(c *CPU) {
		offset := c.fetchSigned()
		c.pc += uint16(offset)
	})
	opcodes[0xC3] = op("JP a16", 3, 16, func(c *CPU) { c.pc = c.fetchWord() })
	opcodes[0xE9] = op("JP HL", 1, 4, func(c *CPU) { c.pc = c.getHL() })
	opcodes[0xCD] = op("CALL a16", 3, 24, func(c *CPU) {
		target := c.fetchWord()
		c.pushStack(c.pc)
		c.pc = target
	})
	opcodes[0xC9] = op("RET", 1, 16, func(c *CPU) { c.pc = c.popStack() })
	opcodes[0xD9] = op("RETI", 1, 16, func(c *CPU) {
		c.pc = c.popStack()
		c.interruptsEnabled = true
	})

	for i := uint8(0); i < 4; i++ {
		cc := i
		name := conditionNames[cc]

		opcodes[0x20|cc<<3] = branch("JR "+name+",e8", 2, 8, 12, func(c *CPU) bool {
			offset := c.fetchSigned()
			if !c.condition(cc) {
				return false
			}
			c.pc += uint16(offset)
			return true
		})
		opcodes[0xC2|cc<<3] = branch("JP "+name+",a16", 3, 12, 16, func(c *CPU) bool {
			target := c.fetchWord()
			if !c.condition(cc) {
				return false
			}
			c.pc = target
			return true
		})
		opcodes[0xC4|cc<<3] = branch("CALL "+name+",a16", 3, 12, 24, func(c *CPU) bool {
			target := c.fetchWord()
			if !c.condition(cc) {
				return false
			}
			c.pushStack(c.pc)
			c.pc = target
			return true
		})
		opcodes[0xC0|cc<<3] = branch("RET "+name, 1, 8, 20, func(c *CPU) bool {
			if !c.condition(cc) {
				return false
			}
			c.pc = c.popStack()
			return true
		})
	}

	for i := uint8(0); i < 8; i++ {
		vector := uint16(i) * 8
		opcodes[0xC7|i<<3] = op(fmt.Sprintf("RST $%02X", vector), 1, 16, func(c *CPU) {
			c.pushStack(c.pc)
			c.pc = vector
		})
	}
}

func initMisc() {
	opcodes[0x00] = op("NOP", 1, 4, func(*CPU) {})

	opcodes[0x10] = op("STOP", 2, 4, func(c *CPU) {
		c.fetch()
		c.stopped = true
		c.bus.Write(addr.DIV, 0)
	})

	opcodes[0x76] = op("HALT", 1, 4, func(c *CPU) {
		if !c.interruptsEnabled && c.pendingInterrupts() != 0 {
			c.haltBug = true
			return
		}
		c.halted = true
	})

	opcodes[0xF3] = op("DI", 1, 4, func(c *CPU) {
		c.interruptsEnabled = false
		c.eiPending = false
	})
	opcodes[0xFB] = op("EI", 1, 4, func(c *CPU) {
		if !c.interruptsEnabled {
			c.eiPending = true
		}
	})
}
