package sh2

func (c *Cpu) addc(a, b uint32) uint32 {
	sum := a + b
	r := sum + c.tbit()
	c.SetT(a > sum || sum > r)
	return r
}

func (c *Cpu) subc(a, b uint32) uint32 {
	diff := a - b
	r := diff - c.tbit()
	c.SetT(a < diff || diff < r)
	return r
}

func (c *Cpu) addv(a, b uint32) uint32 {
	r := a + b
	c.SetT(int32((a^r)&(b^r)) < 0)
	return r
}

func (c *Cpu) subv(a, b uint32) uint32 {
	r := a - b
	c.SetT(int32((a^b)&(a^r)) < 0)
	return r
}

// true when any byte of a equals the same byte of b
func cmpstr(a, b uint32) bool {
	x := a ^ b
	return x&0xff000000 == 0 || x&0xff0000 == 0 || x&0xff00 == 0 || x&0xff == 0
}

// div1 is one step of the non-restoring division.
func (c *Cpu) div1(n, m int) {
	rm := c.R[m]
	oldq, mm := c.Q(), c.M()
	q := c.R[n]>>31 != 0
	rn := c.R[n]<<1 | c.tbit()
	var carry bool
	if oldq == mm {
		tmp := rn
		rn -= rm
		carry = rn > tmp
	} else {
		tmp := rn
		rn += rm
		carry = rn < tmp
	}
	c.R[n] = rn
	q = q != mm != carry
	c.SetQ(q)
	c.SetT(q == mm)
}

const (
	mac48Max = 1<<47 - 1
	mac48Min = -1 << 47
)

// macw multiplies @Rn+ by @Rm+ as signed words and accumulates. With S set
// only MACL accumulates, saturating at 32 bits and flagging MACH bit 0.
func (c *Cpu) macw(n, m int) {
	rn := int16(c.read16(c.R[n]))
	c.R[n] += 2
	rm := int16(c.read16(c.R[m]))
	c.R[m] += 2
	prod := int64(int32(rn) * int32(rm))
	if c.S() {
		sum := int64(int32(c.MACL)) + prod
		if sum > 0x7fffffff {
			sum = 0x7fffffff
			c.MACH |= 1
			c.MACSat = true
		} else if sum < -0x80000000 {
			sum = -0x80000000
			c.MACH |= 1
			c.MACSat = true
		}
		c.MACL = uint32(sum)
		return
	}
	acc := uint64(c.MACH)<<32 | uint64(c.MACL)
	acc += uint64(prod)
	c.MACH, c.MACL = uint32(acc>>32), uint32(acc)
}

// macl multiplies @Rn+ by @Rm+ as signed longs and accumulates into
// MACH:MACL. With S set the accumulator is a signed 48-bit value.
func (c *Cpu) macl(n, m int) {
	rn := int32(c.read32(c.R[n]))
	c.R[n] += 4
	rm := int32(c.read32(c.R[m]))
	c.R[m] += 4
	prod := int64(rn) * int64(rm)
	acc := int64(uint64(c.MACH)<<32 | uint64(c.MACL))
	if c.S() {
		// sign extend from bit 47
		acc = acc << 16 >> 16
		sum := acc + prod
		if sum > mac48Max {
			sum = mac48Max
			c.MACSat = true
		} else if sum < mac48Min {
			sum = mac48Min
			c.MACSat = true
		}
		acc = sum
	} else {
		acc += prod
	}
	c.MACH, c.MACL = uint32(uint64(acc)>>32), uint32(acc)
}

// tas is an indivisible test-and-set of the byte at addr. Nothing else runs
// between the read and the write, including the other core.
func (c *Cpu) tas(addr uint32) {
	if c.config.TASBypass {
		addr |= 0x20000000
	}
	v := c.read8(addr)
	c.SetT(v == 0)
	c.write8(addr, v|0x80)
}
