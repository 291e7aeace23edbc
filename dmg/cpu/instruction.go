package cpu

import (
	"fmt"
	"strings"

	"github.com/valerio/dmgcore/dmg/bit"
)

// instruction describes one opcode. exec returns true when a conditional
// jump, call or return was taken, in which case branchCycles applies.
type instruction struct {
	mnemonic     string
	length       int
	cycles       int
	branchCycles int
	exec         func(*CPU) bool
}

// DecodeError is returned when the CPU fetches an opcode that does not exist
// on the DMG. CB prefixed opcodes are reported as 0xCBxx.
type DecodeError struct {
	Opcode uint16
	PC     uint16
}

func (e *DecodeError) Error() string {
	if bit.High(e.Opcode) == 0xCB {
		return fmt.Sprintf("illegal opcode 0x%04X at PC 0x%04X", e.Opcode, e.PC)
	}
	return fmt.Sprintf("illegal opcode 0x%02X at PC 0x%04X", e.Opcode, e.PC)
}

// Reader is the read half of Bus, enough to disassemble.
type Reader interface {
	Read(address uint16) byte
}

// Disassemble renders the instruction at pc, immediates resolved.
// Returns the text and the instruction length in bytes.
func Disassemble(mem Reader, pc uint16) (string, int) {
	opcode := mem.Read(pc)
	if opcode == 0xCB {
		instr := opcodesCB[mem.Read(pc+1)]
		return instr.mnemonic, instr.length
	}

	instr := opcodes[opcode]
	if instr.exec == nil {
		return fmt.Sprintf("DB $%02X", opcode), 1
	}

	n := mem.Read(pc + 1)
	nn := bit.Combine(mem.Read(pc+2), n)
	text := instr.mnemonic
	switch {
	case strings.Contains(text, "n16"), strings.Contains(text, "a16"):
		text = strings.NewReplacer("n16", fmt.Sprintf("$%04X", nn), "a16", fmt.Sprintf("$%04X", nn)).Replace(text)
	case strings.Contains(text, "e8"):
		text = strings.Replace(text, "e8", fmt.Sprintf("%+d", int8(n)), 1)
	case strings.Contains(text, "n8"), strings.Contains(text, "a8"):
		text = strings.NewReplacer("n8", fmt.Sprintf("$%02X", n), "a8", fmt.Sprintf("$FF%02X", n)).Replace(text)
	}

	return text, instr.length
}

// CurrentInstruction disassembles the instruction at PC.
func (c *CPU) CurrentInstruction() string {
	text, _ := Disassemble(c.bus, c.pc)
	return text
}
