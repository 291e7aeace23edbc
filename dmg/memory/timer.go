package memory

import (
	"github.com/valerio/dmgcore/dmg/addr"
	"github.com/valerio/dmgcore/dmg/bit"
)

// tacThresholds maps TAC input clock select (bits 1-0) to the number of CPU
// cycles between TIMA increments.
//
//	00 -> 1024 (4096 Hz)
//	01 -> 16   (262144 Hz)
//	10 -> 64   (65536 Hz)
//	11 -> 256  (16384 Hz)
var tacThresholds = [4]int{1024, 16, 64, 256}

const timerEnableBit = 2

// Timer encapsulates the Game Boy DIV/TIMA/TMA/TAC behavior.
type Timer struct {
	divider uint16 // DIV is the upper 8 bits
	counter int    // cycles accumulated towards the next TIMA increment

	tima byte
	tma  byte
	tac  byte

	// IRQ requester callback
	TimerInterruptHandler func()
}

// Advance moves the timer forward by the given amount of CPU cycles.
func (t *Timer) Advance(cycles int) {
	t.divider += uint16(cycles)

	if !bit.IsSet(timerEnableBit, t.tac) {
		return
	}

	t.counter += cycles
	threshold := tacThresholds[t.tac&0x03]
	for t.counter >= threshold {
		t.counter -= threshold
		t.incrementTIMA()
	}
}

func (t *Timer) incrementTIMA() {
	t.tima++
	if t.tima != 0 {
		return
	}

	t.tima = t.tma
	if t.TimerInterruptHandler != nil {
		t.TimerInterruptHandler()
	}
}

// ResetDivider clears the internal counter, as a write to DIV or STOP does.
func (t *Timer) ResetDivider() {
	t.divider = 0
	t.counter = 0
}

func (t *Timer) Read(address uint16) byte {
	switch address {
	case addr.DIV:
		return bit.High(t.divider)
	case addr.TIMA:
		return t.tima
	case addr.TMA:
		return t.tma
	case addr.TAC:
		return t.tac | 0xF8
	default:
		return 0xFF
	}
}

func (t *Timer) Write(address uint16, value byte) {
	switch address {
	case addr.DIV:
		t.ResetDivider()
	case addr.TIMA:
		t.tima = value
	case addr.TMA:
		t.tma = value
	case addr.TAC:
		t.tac = value & 0x07
	}
}
