package cpu

func (c *CPU) inc(value uint8) uint8 {
	result := value + 1

	c.setFlagToCondition(zeroFlag, result == 0)
	c.setFlagToCondition(halfCarryFlag, value&0x0F == 0x0F)
	c.resetFlag(subFlag)

	return result
}

func (c *CPU) dec(value uint8) uint8 {
	result := value - 1

	c.setFlagToCondition(zeroFlag, result == 0)
	c.setFlagToCondition(halfCarryFlag, value&0x0F == 0x00)
	c.setFlag(subFlag)

	return result
}

// add sets the result of adding value (and the carry, for ADC) to A.
func (c *CPU) add(value uint8, withCarry bool) {
	carry := uint8(0)
	if withCarry {
		carry = c.flagToBit(carryFlag)
	}
	a := c.a
	result := uint16(a) + uint16(value) + uint16(carry)

	c.setFlagToCondition(zeroFlag, uint8(result) == 0)
	c.resetFlag(subFlag)
	c.setFlagToCondition(halfCarryFlag, (a&0x0F)+(value&0x0F)+carry > 0x0F)
	c.setFlagToCondition(carryFlag, result > 0xFF)

	c.a = uint8(result)
}

// sub subtracts value (and the carry, for SBC) from A. CP passes store=false.
func (c *CPU) sub(value uint8, withCarry, store bool) {
	carry := uint8(0)
	if withCarry {
		carry = c.flagToBit(carryFlag)
	}
	a := c.a
	result := int(a) - int(value) - int(carry)

	c.setFlagToCondition(zeroFlag, uint8(result) == 0)
	c.setFlag(subFlag)
	c.setFlagToCondition(halfCarryFlag, int(a&0x0F)-int(value&0x0F)-int(carry) < 0)
	c.setFlagToCondition(carryFlag, result < 0)

	if store {
		c.a = uint8(result)
	}
}

func (c *CPU) and(value uint8) {
	c.a &= value
	c.f = uint8(halfCarryFlag)
	c.setFlagToCondition(zeroFlag, c.a == 0)
}

func (c *CPU) or(value uint8) {
	c.a |= value
	c.f = 0
	c.setFlagToCondition(zeroFlag, c.a == 0)
}

func (c *CPU) xor(value uint8) {
	c.a ^= value
	c.f = 0
	c.setFlagToCondition(zeroFlag, c.a == 0)
}

// addToHL adds a 16 bit value to HL. Z is left untouched.
func (c *CPU) addToHL(value uint16) {
	hl := c.getHL()
	result := uint32(hl) + uint32(value)

	c.resetFlag(subFlag)
	c.setFlagToCondition(halfCarryFlag, (hl&0x0FFF)+(value&0x0FFF) > 0x0FFF)
	c.setFlagToCondition(carryFlag, result > 0xFFFF)

	c.setHL(uint16(result))
}

// addSPSigned returns SP+n for ADD SP,e8 and LD HL,SP+e8.
// H and C come from the unsigned add of the low byte, Z and N are cleared.
func (c *CPU) addSPSigned(n int8) uint16 {
	sp := c.sp
	value := uint16(n)

	c.f = 0
	c.setFlagToCondition(halfCarryFlag, (sp&0x0F)+(value&0x0F) > 0x0F)
	c.setFlagToCondition(carryFlag, (sp&0xFF)+(value&0xFF) > 0xFF)

	return sp + value
}

// daa adjusts A to a valid BCD number after an addition or subtraction.
func (c *CPU) daa() {
	a := c.a
	correction := uint8(0)
	carry := c.isSetFlag(carryFlag)

	if c.isSetFlag(subFlag) {
		if c.isSetFlag(halfCarryFlag) {
			correction |= 0x06
		}
		if carry {
			correction |= 0x60
		}
		a -= correction
	} else {
		if c.isSetFlag(halfCarryFlag) || a&0x0F > 0x09 {
			correction |= 0x06
		}
		if carry || a > 0x99 {
			correction |= 0x60
			carry = true
		}
		a += correction
	}

	c.a = a
	c.setFlagToCondition(zeroFlag, a == 0)
	c.resetFlag(halfCarryFlag)
	c.setFlagToCondition(carryFlag, carry)
}

func (c *CPU) cpl() {
	c.a = ^c.a
	c.setFlag(subFlag)
	c.setFlag(halfCarryFlag)
}

func (c *CPU) scf() {
	c.resetFlag(subFlag)
	c.resetFlag(halfCarryFlag)
	c.setFlag(carryFlag)
}

func (c *CPU) ccf() {
	c.resetFlag(subFlag)
	c.resetFlag(halfCarryFlag)
	c.setFlagToCondition(carryFlag, !c.isSetFlag(carryFlag))
}

// shiftFlags sets the flags shared by every rotate and shift: Z from the
// result, C from the bit shifted out, N and H cleared.
func (c *CPU) shiftFlags(result uint8, carry bool) uint8 {
	c.f = 0
	c.setFlagToCondition(zeroFlag, result == 0)
	c.setFlagToCondition(carryFlag, carry)
	return result
}

func (c *CPU) rlc(value uint8) uint8 {
	return c.shiftFlags(value<<1|value>>7, value&0x80 != 0)
}

func (c *CPU) rrc(value uint8) uint8 {
	return c.shiftFlags(value>>1|value<<7, value&0x01 != 0)
}

func (c *CPU) rl(value uint8) uint8 {
	return c.shiftFlags(value<<1|c.flagToBit(carryFlag), value&0x80 != 0)
}

func (c *CPU) rr(value uint8) uint8 {
	return c.shiftFlags(value>>1|c.flagToBit(carryFlag)<<7, value&0x01 != 0)
}

func (c *CPU) sla(value uint8) uint8 {
	return c.shiftFlags(value<<1, value&0x80 != 0)
}

func (c *CPU) sra(value uint8) uint8 {
	return c.shiftFlags(value>>1|value&0x80, value&0x01 != 0)
}

func (c *CPU) srl(value uint8) uint8 {
	return c.shiftFlags(value>>1, value&0x01 != 0)
}

func (c *CPU) swap(value uint8) uint8 {
	return c.shiftFlags(value<<4|value>>4, false)
}

// testBit implements BIT b,r: Z is set when the bit is 0, C is untouched.
func (c *CPU) testBit(index, value uint8) {
	c.setFlagToCondition(zeroFlag, (value>>index)&1 == 0)
	c.resetFlag(subFlag)
	c.setFlag(halfCarryFlag)
}
