package writer

import "github.com/jtulak/xfsprogs-dev/internal/geometry"

// RootInodeAllocator is the collaborator seam for root-inode placement.
// The real prototype-file parser that walks a directory tree and assigns
// inode numbers is out of scope (§1); this core only needs to know where
// the single, empty root directory's inode lives so it can format it and
// stamp the superblock's sb_rootino field.
type RootInodeAllocator interface {
	AllocateRootInode(g *geometry.Geometry) uint64
}

// DefaultRootInodeAllocator places the root inode at the conventional
// first slot of the first inode chunk in AG 0, immediately after the
// fixed per-AG header/btree-root reservation.
type DefaultRootInodeAllocator struct{}

func (DefaultRootInodeAllocator) AllocateRootInode(g *geometry.Geometry) uint64 {
	agblklog := ceilLog2(g.AGSize)
	inopblog := ceilLog2(uint32(g.BlockSize) / uint32(g.InodeSize))
	return EncodeIno(0, agblklog, inopblog, g.PreallocBlocks, 0)
}

// EncodeIno packs an (AG number, AG-relative block, inode-in-block offset)
// triple into the absolute inode number the on-disk format uses:
// ino = (agno << (agblklog+inopblog)) | (agbno << inopblog) | offset.
func EncodeIno(agno uint32, agblklog, inopblog uint8, agbno, offset uint32) uint64 {
	shift := uint(agblklog) + uint(inopblog)
	return uint64(agno)<<shift | uint64(agbno)<<uint(inopblog) | uint64(offset)
}

// ceilLog2 returns the smallest n such that 1<<n >= v (v must be > 0); used
// for sb_agblklog and sb_inopblog, neither of which needs its operand to
// already be a power of two.
func ceilLog2(v uint32) uint8 {
	if v <= 1 {
		return 0
	}
	var n uint8
	c := uint32(1)
	for c < v {
		c <<= 1
		n++
	}
	return n
}

// rootInoChunkBlocks is the number of filesystem blocks the root inode's
// containing chunk (XFS_INODES_PER_CHUNK inodes) occupies.
func rootInoChunkBlocks(g *geometry.Geometry) uint32 {
	perBlock := uint32(g.BlockSize) / uint32(g.InodeSize)
	if perBlock == 0 {
		return 1
	}
	blocks := (geometry.InodesPerChunk + perBlock - 1) / perBlock
	if blocks == 0 {
		blocks = 1
	}
	return blocks
}

// rootDirBlocks is the number of filesystem blocks the root directory's
// single-block data format occupies.
func rootDirBlocks(g *geometry.Geometry) uint32 {
	blocks := g.DirBlockSize / g.BlockSize
	if blocks == 0 {
		blocks = 1
	}
	return blocks
}
