package ir

import (
	"strings"

	"github.com/sarchlab/tcamsim/bitvec"
)

// ParsePattern decodes a ternary pattern literal into a value/mask pair. The
// literal is "0b" followed by binary digits or "0x" followed by hex digits,
// any of which may be '*'. A '*' digit is don't-care across its whole digit
// width: one bit for binary patterns, four bits for hex.
func ParsePattern(pat string) (Pattern, error) {
	reject := func() (Pattern, error) {
		return Pattern{}, parseErrorf(
			"error parsing pattern %q: patterns should start with either '0b' for"+
				" binary patterns or '0x' for hex patterns, followed by a string of"+
				" appropriate digits, some of which may be '*' instead", pat)
	}

	var binary bool
	switch {
	case strings.HasPrefix(pat, "0b"):
		binary = true
	case strings.HasPrefix(pat, "0x"):
		binary = false
	default:
		return reject()
	}
	body := pat[2:]
	if body == "" {
		return reject()
	}

	var valueStr, maskStr strings.Builder
	for i := 0; i < len(body); i++ {
		c := body[i]
		if c == '*' {
			valueStr.WriteByte('0')
			maskStr.WriteByte('0')
			continue
		}
		if binary {
			if c != '0' && c != '1' {
				return reject()
			}
			valueStr.WriteByte(c)
			maskStr.WriteByte('1')
		} else {
			if !isHexPatternDigit(c) {
				return reject()
			}
			valueStr.WriteByte(c)
			maskStr.WriteByte('f')
		}
	}

	prefix := pat[:2]
	value, err := bitvec.Parse(prefix + valueStr.String())
	if err != nil {
		return Pattern{}, parseErrorf("error parsing pattern %q: %v", pat, err)
	}
	mask, err := bitvec.Parse(prefix + maskStr.String())
	if err != nil {
		return Pattern{}, parseErrorf("error parsing pattern %q: %v", pat, err)
	}
	return Pattern{Value: value, Mask: mask}, nil
}

func isHexPatternDigit(c byte) bool {
	return (c >= '0' && c <= '9') || (c >= 'a' && c <= 'f') || (c >= 'A' && c <= 'F')
}
