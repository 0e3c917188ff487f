package geometry

import (
	"github.com/jtulak/xfsprogs-dev/internal/option"
	"github.com/jtulak/xfsprogs-dev/internal/topology"
	"github.com/jtulak/xfsprogs-dev/internal/unitconv"
)

// FillDefaults implements §4.3: it resolves the handful of defaults that
// depend on cross-field knowledge the static schema default can't express
// (sector size from device topology, inode size from CRC, directory block
// size from filesystem block size), then re-runs the conflict engine per
// §4.2's rule that defaults count toward conditional conflicts.
func FillDefaults(ctx *option.Context, dev topology.Info) (*topology.Result, error) {
	blockSize := ctx.Value('b', "size").AsUint64()
	ctx.FillDefaultIfUnseen('b', "log", option.UintValue(uint32(unitconv.Log2(blockSize))))

	topo, err := topology.Resolve(ctx, dev, blockSize)
	if err != nil {
		return nil, err
	}

	ctx.FillDefaultIfUnseen('d', "sectsize", option.Uint64Value(uint64(topo.SectorSize)))
	ctx.FillDefaultIfUnseen('d', "sectlog", option.UintValue(uint32(topo.SectorLog)))
	// Log sector size inherits data sector size unless the user gave the
	// log device its own.
	if !ctx.Seen('l', "sectsize") && !ctx.Seen('l', "sectlog") {
		ctx.FillDefaultIfUnseen('l', "sectsize", option.Uint64Value(uint64(topo.SectorSize)))
		ctx.FillDefaultIfUnseen('l', "sectlog", option.UintValue(uint32(topo.SectorLog)))
	}

	if !ctx.Seen('i', "log") && !ctx.Seen('i', "size") {
		if ctx.Bool('m', "crc") {
			ctx.FillDefaultIfUnseen('i', "log", option.UintValue(9))
		} else {
			ctx.FillDefaultIfUnseen('i', "log", option.UintValue(8))
		}
	}

	dirBlockSize := blockSize
	if dirBlockSize < 4096 {
		dirBlockSize = 4096
	}
	if !ctx.Seen('n', "size") && !ctx.Seen('n', "log") {
		ctx.FillDefaultIfUnseen('n', "size", option.Uint64Value(dirBlockSize))
		ctx.FillDefaultIfUnseen('n', "log", option.UintValue(uint32(unitconv.Log2(dirBlockSize))))
	}

	// §1: "CRC-disabled mode silently retracts features that depend on
	// CRCs." Only an explicit user request for one of these while CRC is
	// off is a hard conflict (enforced by the schema's Conflict entries);
	// an untouched default is quietly turned off instead of erroring.
	if !ctx.Bool('m', "crc") {
		for _, ref := range []option.SubOptRef{{'m', "finobt"}, {'m', "rmapbt"}, {'m', "reflink"}, {'i', "sparse"}} {
			if !ctx.Seen(ref.Group, ref.Name) {
				ctx.FillDefaultIfUnseen(ref.Group, ref.Name, option.BoolValue(false))
			}
		}
	}

	// UUID generation is an out-of-scope external collaborator (§1); an
	// unspecified -m uuid= is left unset here, not filled with a random
	// one. Solve leaves Geometry.UUID as the zero UUID in that case, for
	// whatever caller supplies the real one before the on-disk writer runs.

	if err := option.CheckAll(ctx); err != nil {
		return nil, err
	}
	return topo, nil
}

// imaxpctDefault is the §4.3 banded default for i.maxpct, which needs the
// final data-device byte count and so cannot be resolved until after phase 2
// of the geometry solver.
func imaxpctDefault(dataBytes uint64) uint8 {
	const (
		oneTiB  = 1 << 40
		fiftyTiB = 50 << 40
	)
	switch {
	case dataBytes < oneTiB:
		return 25
	case dataBytes < fiftyTiB:
		return 5
	default:
		return 1
	}
}
