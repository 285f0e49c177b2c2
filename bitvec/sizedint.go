package bitvec

import "fmt"

// SizedInt is an unsigned integer with a declared bitwidth. Values are
// canonicalised modulo 2^width, so arithmetic wraps at the declared width.
// The lexer and parser guarantee widths are positive.
type SizedInt struct {
	Value uint64
	Width int
}

// NewSizedInt canonicalises value into the range [0, 2^width).
func NewSizedInt(value uint64, width int) SizedInt {
	if width > 0 && width < 64 {
		value &= 1<<uint(width) - 1
	}
	return SizedInt{Value: value, Width: width}
}

// Add returns a+b modulo 2^width. Both operands must have the same width.
func (a SizedInt) Add(b SizedInt) (SizedInt, error) {
	if a.Width != b.Width {
		return SizedInt{}, fmt.Errorf(
			"cannot add %s and %s: different widths", a, b)
	}
	return NewSizedInt(a.Value+b.Value, a.Width), nil
}

// Sub returns a-b modulo 2^width. Both operands must have the same width.
func (a SizedInt) Sub(b SizedInt) (SizedInt, error) {
	if a.Width != b.Width {
		return SizedInt{}, fmt.Errorf(
			"cannot subtract %s and %s: different widths", a, b)
	}
	return NewSizedInt(a.Value-b.Value, a.Width), nil
}

// Lsh shifts a left by b's value. The result keeps a's width; overflow bits
// are discarded. The operand widths need not match.
func (a SizedInt) Lsh(b SizedInt) SizedInt {
	if b.Value >= 64 {
		return NewSizedInt(0, a.Width)
	}
	return NewSizedInt(a.Value<<b.Value, a.Width)
}

// Rsh shifts a right by b's value. The result keeps a's width.
func (a SizedInt) Rsh(b SizedInt) SizedInt {
	if b.Value >= 64 {
		return NewSizedInt(0, a.Width)
	}
	return NewSizedInt(a.Value>>b.Value, a.Width)
}

// Bits converts the value to a width-bit vector in big-endian bit order.
func (a SizedInt) Bits() Vector {
	return FromUint(a.Value, a.Width)
}

func (a SizedInt) String() string {
	return fmt.Sprintf("%dw%d", a.Value, a.Width)
}
