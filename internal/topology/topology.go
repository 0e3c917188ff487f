// Package topology implements the device-topology resolver: reconciling
// device-reported sector size and stripe geometry with whatever the user
// wrote on the command line, per §4.5.
package topology

import (
	"fmt"

	"github.com/jtulak/xfsprogs-dev/internal/mkfserr"
	"github.com/jtulak/xfsprogs-dev/internal/option"
	"github.com/jtulak/xfsprogs-dev/internal/unitconv"
)

// Info is what a caller learned about the data device before resolution:
// physical/logical sector size and, if the device reports one, a stripe
// geometry. Probing the actual hardware (sysfs, ioctls) lives outside this
// package; Info is the seam a caller fills in, possibly leaving every field
// zero for a device that reports nothing (e.g. a plain image file).
type Info struct {
	PhysicalSectorSize uint32
	LogicalSectorSize  uint32
	// StripeUnitBytes and StripeWidthBytes describe the device's reported
	// stripe geometry in bytes; StripeUnitBytes == 0 means "no stripe".
	StripeUnitBytes  uint64
	StripeWidthBytes uint64
}

// Result is the resolved topology, in the units the geometry solver and
// on-disk writer need: sector size in bytes, data and log stripe unit/width
// in "basic blocks" (BBSIZE, the fixed 512-byte unit used throughout the
// on-disk format regardless of the actual sector size).
type Result struct {
	SectorSize uint32
	SectorLog  uint8

	Sunit   uint32 // data stripe unit, basic blocks
	Swidth  uint32 // data stripe width, basic blocks
	NoAlign bool

	LogSunit uint32 // log stripe unit, basic blocks

	Warnings []string
}

const basicBlockSize = 512

// Resolve implements §4.5. blockSize is the filesystem block size already
// chosen by default fill-in (§4.3); it is needed both to validate the log
// stripe unit (lsu/lsunit) and to decide whether a too-large physical sector size forces
// a downgrade to the logical sector size.
func Resolve(ctx *option.Context, dev Info, blockSize uint64) (*Result, error) {
	res := &Result{}

	if err := resolveSectorSize(ctx, dev, blockSize, res); err != nil {
		return nil, err
	}
	if err := resolveDataStripe(ctx, dev, res); err != nil {
		return nil, err
	}
	if err := resolveLogStripe(ctx, blockSize, res); err != nil {
		return nil, err
	}

	if ctx.Bool('d', "noalign") || ctx.Bool('r', "noalign") {
		res.NoAlign = true
	}
	return res, nil
}

func (r *Result) warnf(format string, a ...interface{}) {
	r.Warnings = append(r.Warnings, fmt.Sprintf(format, a...))
}

func resolveSectorSize(ctx *option.Context, dev Info, blockSize uint64, res *Result) error {
	requested := ctx.Value('d', "sectsize").AsUint64()
	userSectSize := ctx.Seen('d', "sectsize") || ctx.Seen('d', "sectlog") ||
		ctx.Seen('s', "sectsize") || ctx.Seen('s', "sectlog")

	sectSize := requested
	switch {
	case dev.PhysicalSectorSize == 0:
		// No device opinion (e.g. a plain image file); keep the requested
		// or default sector size as-is.
	case uint64(dev.PhysicalSectorSize) > blockSize:
		// The filesystem block size can never be smaller than its sector
		// size; if the physical sector size would violate that, fall back
		// to the (smaller) logical sector size instead of failing outright.
		if dev.LogicalSectorSize > 0 && uint64(dev.LogicalSectorSize) <= blockSize {
			sectSize = uint64(dev.LogicalSectorSize)
			res.warnf("device physical sector size %d exceeds block size %d, using logical sector size %d",
				dev.PhysicalSectorSize, blockSize, dev.LogicalSectorSize)
		}
	case userSectSize:
		if requested != uint64(dev.PhysicalSectorSize) {
			res.warnf("specified sector size %d is not the same as the volume's %d",
				requested, dev.PhysicalSectorSize)
		}
	default:
		sectSize = uint64(dev.PhysicalSectorSize)
	}

	if !unitconv.MustPowerOfTwo(sectSize) {
		return mkfserr.Newf(mkfserr.PowerOfTwoViolation, "resolved sector size %d is not a power of two", sectSize)
	}
	res.SectorSize = uint32(sectSize)
	res.SectorLog = uint8(unitconv.Log2(sectSize))
	return nil
}

func resolveDataStripe(ctx *option.Context, dev Info, res *Result) error {
	userSunit, userSwidth := ctx.Seen('d', "sunit"), ctx.Seen('d', "swidth")
	userSu, userSw := ctx.Seen('d', "su"), ctx.Seen('d', "sw")

	switch {
	case userSu || userSw:
		if userSu != userSw {
			return mkfserr.New(mkfserr.StripePairIncomplete, "su and sw must be specified together")
		}
		su := ctx.Value('d', "su").AsUint64()
		sw := ctx.Value('d', "sw").AsUint64()
		if su%uint64(res.SectorSize) != 0 {
			return mkfserr.Newf(mkfserr.ParseSyntax,
				"su must be a multiple of the sector size %d", res.SectorSize)
		}
		res.Sunit = uint32(su / basicBlockSize)
		res.Swidth = res.Sunit * uint32(sw)

	case userSunit || userSwidth:
		if userSunit != userSwidth {
			return mkfserr.New(mkfserr.StripePairIncomplete, "sunit and swidth must be specified together")
		}
		sunit := uint32(ctx.Value('d', "sunit").AsUint64())
		swidth := uint32(ctx.Value('d', "swidth").AsUint64())
		if sunit == 0 && swidth == 0 {
			// Open question resolved per the "final version" behaviour:
			// explicit sunit=0,swidth=0 means "no alignment", not
			// "inherit whatever the device reports".
			res.NoAlign = true
			return nil
		}
		res.Sunit, res.Swidth = sunit, swidth
		if dev.StripeUnitBytes > 0 {
			devSunit := uint32(dev.StripeUnitBytes / basicBlockSize)
			devSwidth := devSunit * uint32(dev.StripeWidthBytes/dev.StripeUnitBytes)
			if devSunit != sunit || devSwidth != swidth {
				res.warnf("specified sunit %d / swidth %d is not the same as the volume's %d/%d",
					sunit, swidth, devSunit, devSwidth)
			}
		}

	default:
		if dev.StripeUnitBytes > 0 {
			res.Sunit = uint32(dev.StripeUnitBytes / basicBlockSize)
			res.Swidth = res.Sunit * uint32(dev.StripeWidthBytes/dev.StripeUnitBytes)
		} else {
			res.NoAlign = true
		}
	}
	return nil
}

func resolveLogStripe(ctx *option.Context, blockSize uint64, res *Result) error {
	userLsu, userLsunit := ctx.Seen('l', "su"), ctx.Seen('l', "sunit")

	switch {
	case userLsu:
		lsu := ctx.Value('l', "su").AsUint64()
		if lsu%blockSize != 0 {
			return mkfserr.Newf(mkfserr.ParseSyntax,
				"log stripe unit must be a multiple of the filesystem block size %d", blockSize)
		}
		res.LogSunit = uint32(lsu / basicBlockSize)

	case userLsunit:
		lsunit := uint32(ctx.Value('l', "sunit").AsUint64())
		if (uint64(lsunit)*basicBlockSize)%blockSize != 0 {
			return mkfserr.Newf(mkfserr.ParseSyntax,
				"log stripe unit must be a multiple of the filesystem block size %d", blockSize)
		}
		res.LogSunit = lsunit

	case !res.NoAlign && res.Sunit > 0:
		// No explicit log stripe unit: inherit the data stripe unit, the
		// common default when the log lives on the data device.
		res.LogSunit = res.Sunit
	}
	return nil
}
