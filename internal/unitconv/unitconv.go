// Package unitconv implements the §4.4 unit converter: parsing a decimal
// literal with an optional single-letter suffix into a byte count.
package unitconv

import (
	"strconv"
	"strings"

	"github.com/jtulak/xfsprogs-dev/internal/mkfserr"
)

// Bases supplies the block size and sector size needed to resolve the "b"
// and "s" suffixes. A zero value means "not yet known"; using the
// corresponding suffix before the base is known is a ParseSyntax error.
type Bases struct {
	BlockSize  uint64
	SectorSize uint64
}

// Parse converts a literal of the form "<decimal>[<suffix>]" to a byte
// count. Suffixes are case-insensitive: b = filesystem blocks, s = sectors
// of bases.SectorSize bytes, k/m/g/t/p/e = binary SI multipliers of 1024^n.
// No suffix means
// the literal is already a byte count.
func Parse(literal string, bases Bases) (uint64, error) {
	if literal == "" {
		return 0, mkfserr.New(mkfserr.ParseSyntax, "empty numeric literal")
	}

	i := 0
	for i < len(literal) && literal[i] >= '0' && literal[i] <= '9' {
		i++
	}
	if i == 0 {
		return 0, mkfserr.Newf(mkfserr.ParseSyntax, "illegal value %q: no numerical prefix", literal)
	}

	digits := literal[:i]
	rest := literal[i:]

	n, err := strconv.ParseUint(digits, 10, 64)
	if err != nil {
		return 0, mkfserr.Newf(mkfserr.ParseSyntax, "illegal value %q", literal)
	}

	if rest == "" {
		return n, nil
	}
	if len(rest) > 1 {
		return 0, mkfserr.Newf(mkfserr.ParseSyntax, "illegal value %q: trailing characters %q", literal, rest)
	}

	suffix := strings.ToLower(rest)[0]

	var multiplier uint64
	switch suffix {
	case 'b':
		if bases.BlockSize == 0 {
			return 0, mkfserr.Newf(mkfserr.ParseSyntax, "illegal value %q: block size not yet known", literal)
		}
		multiplier = bases.BlockSize
	case 's':
		if bases.SectorSize == 0 {
			return 0, mkfserr.Newf(mkfserr.ParseSyntax, "illegal value %q: sector size not yet known", literal)
		}
		multiplier = bases.SectorSize
	case 'k':
		multiplier = 1 << 10
	case 'm':
		multiplier = 1 << 20
	case 'g':
		multiplier = 1 << 30
	case 't':
		multiplier = 1 << 40
	case 'p':
		multiplier = 1 << 50
	case 'e':
		multiplier = 1 << 60
	default:
		return 0, mkfserr.Newf(mkfserr.ParseSyntax, "illegal value %q: unknown suffix %q", literal, rest)
	}

	result := n * multiplier
	if multiplier != 0 && result/multiplier != n {
		return 0, mkfserr.Newf(mkfserr.ParseSyntax, "value %q overflows 64 bits", literal)
	}
	return result, nil
}

// MustPowerOfTwo reports whether v is zero or a power of two, matching the
// schema invariant that a power-of-two suboption's default may be zero.
func MustPowerOfTwo(v uint64) bool {
	return v&(v-1) == 0
}

// Log2 returns the base-2 logarithm of v, assuming v is a nonzero power of two.
func Log2(v uint64) uint8 {
	var log uint8
	for v > 1 {
		v >>= 1
		log++
	}
	return log
}
