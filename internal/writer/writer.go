// Package writer implements §4.7's on-disk writer: the single, synchronous
// pass that renders a solved Geometry into real superblock, AG-header,
// btree-root, log and root-directory bytes on the backing device(s).
package writer

import (
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/jtulak/xfsprogs-dev/internal/device"
	"github.com/jtulak/xfsprogs-dev/internal/geometry"
	"github.com/jtulak/xfsprogs-dev/internal/mkfserr"
	"github.com/jtulak/xfsprogs-dev/internal/xfsfmt"
)

// Writer drives the §4.7 write sequence against an already-solved
// Geometry and already-opened device handles.
type Writer struct {
	g      *geometry.Geometry
	fs     xfsfmt.FeatureSet
	data   *device.Device
	logDev *device.Device // nil when the log is internal
	rt     *device.Device // nil when no realtime section was requested

	rootAlloc RootInodeAllocator
	discard   bool // skip Discard entirely, e.g. when -K was given
	log       *logrus.Entry

	rootIno uint64 // set once, at the start of Write
}

// Option customizes a Writer beyond its required geometry/device inputs.
type Option func(*Writer)

// WithRootInodeAllocator overrides the default root-inode placement.
func WithRootInodeAllocator(a RootInodeAllocator) Option {
	return func(w *Writer) { w.rootAlloc = a }
}

// WithDiscardSkipped disables the best-effort TRIM pass entirely (-K).
func WithDiscardSkipped() Option {
	return func(w *Writer) { w.discard = true }
}

// WithLogger attaches a logrus entry the writer logs progress through;
// callers that omit this get an entry on logrus' standard logger, which
// prints Info-level progress to stderr.
func WithLogger(entry *logrus.Entry) Option {
	return func(w *Writer) { w.log = entry }
}

// New builds a Writer for g, writing to data (always non-nil), log (nil
// when the log is internal to data) and rt (nil when no realtime section
// was requested).
func New(g *geometry.Geometry, data, logDev, rt *device.Device, opts ...Option) *Writer {
	w := &Writer{
		g:         g,
		fs:        featureSet(g),
		data:      data,
		logDev:    logDev,
		rt:        rt,
		rootAlloc: DefaultRootInodeAllocator{},
		log:       logrus.NewEntry(logrus.StandardLogger()),
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Write renders the whole filesystem in the §4.7 order: a best-effort
// discard, truncation and device-edge hygiene, a primary superblock marked
// in-progress, every AG's headers and btree roots, the log, the root
// directory, the secondary-superblock root-inode patch-up, and a final
// clean primary superblock.
func (w *Writer) Write() error {
	g := w.g

	// Discard errors are ignored: TRIM is a pure optimization.
	_ = w.data.Discard(w.discard)
	if w.logDev != nil {
		_ = w.logDev.Discard(w.discard)
	}
	if w.rt != nil {
		_ = w.rt.Discard(w.discard)
	}

	dataSize := uint64(g.DataBlocks) * uint64(g.BlockSize)
	if err := w.data.Truncate(dataSize); err != nil {
		return err
	}
	if err := w.data.WhackSignatures(dataSize); err != nil {
		return err
	}
	if w.logDev != nil {
		logSize := uint64(g.LogBlocks) * uint64(g.BlockSize)
		if err := w.logDev.Truncate(logSize); err != nil {
			return err
		}
		if err := w.logDev.WhackSignatures(logSize); err != nil {
			return err
		}
	}
	if w.rt != nil {
		rtSize := uint64(g.RtBlocks) * uint64(g.BlockSize)
		if err := w.rt.Truncate(rtSize); err != nil {
			return err
		}
	}

	rootIno := w.rootAlloc.AllocateRootInode(g)
	w.rootIno = rootIno

	w.log.Infof("writing primary superblock (in-progress)")
	if err := w.writeAGHeaders(0, rootIno, true); err != nil {
		return mkfserr.Wrap(mkfserr.DeviceError, err, "write primary superblock")
	}
	if err := w.writeAGBtreeRoots(0); err != nil {
		return mkfserr.Wrap(mkfserr.DeviceError, err, "write AG 0 btree roots")
	}

	for ag := uint32(1); ag < g.AGCount; ag++ {
		w.log.Infof("writing AG %d of %d", ag, g.AGCount)
		if err := w.writeAGHeaders(ag, rootIno, true); err != nil {
			return mkfserr.Wrap(mkfserr.DeviceError, err, fmt.Sprintf("write AG %d headers", ag))
		}
		if err := w.writeAGBtreeRoots(ag); err != nil {
			return mkfserr.Wrap(mkfserr.DeviceError, err, fmt.Sprintf("write AG %d btree roots", ag))
		}
	}

	w.log.Infof("writing log")
	if err := w.writeLog(); err != nil {
		return mkfserr.Wrap(mkfserr.DeviceError, err, "write log")
	}

	w.log.Infof("writing root directory")
	if err := w.writeRootDirectory(rootIno); err != nil {
		return mkfserr.Wrap(mkfserr.DeviceError, err, "write root directory")
	}

	w.log.Infof("patching secondary superblocks")
	if err := w.patchSecondarySuperblocks(rootIno); err != nil {
		return mkfserr.Wrap(mkfserr.DeviceError, err, "patch secondary superblocks")
	}

	if err := w.data.Sync(); err != nil {
		return err
	}
	if w.logDev != nil {
		if err := w.logDev.Sync(); err != nil {
			return err
		}
	}

	w.log.Infof("clearing primary superblock in-progress flag")
	if err := w.writeAGHeaders(0, rootIno, false); err != nil {
		return mkfserr.Wrap(mkfserr.DeviceError, err, "clear primary superblock in-progress flag")
	}
	if err := w.data.Sync(); err != nil {
		return err
	}

	return nil
}
