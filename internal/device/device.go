// Package device implements the §5/§6.1 backing-store model: up to three
// optional block devices or image files (data, log, realtime), each opened
// once, exclusively, in read-write mode. Block-device signature scanning and
// the buffer-cache/transaction layer are out of scope per §1; this package
// only owns open/size/truncate/zero/discard, named as external collaborator
// seams (SignatureScanner) where the spec excludes the real implementation.
package device

import (
	"io"
	"os"

	"github.com/jtulak/xfsprogs-dev/internal/mkfserr"
)

// WhackSize is the number of leading/trailing bytes zeroed on a raw block
// device to obliterate foreign filesystem signatures (§4.7).
const WhackSize = 128 * 1024

// Role identifies which of the three backing stores a Device represents.
type Role int

const (
	RoleData Role = iota
	RoleLog
	RoleRealtime
)

func (r Role) String() string {
	switch r {
	case RoleData:
		return "data"
	case RoleLog:
		return "log"
	case RoleRealtime:
		return "realtime"
	default:
		return "unknown"
	}
}

// Target is the user-supplied description of one backing store: either the
// positional device path (data only) or an explicit -d/-l/-r name=/file.
type Target struct {
	Path      string
	IsFile    bool // -d file / -l file / -r file: create if missing
	Requested bool // an -l/-r group was present at all
}

// SignatureScanner is the out-of-scope collaborator named by §1
// ("block-device probing and signature scanning"). mkfs.xfs's core does not
// implement foreign-filesystem detection itself; it asks this seam, and a
// caller that wants real OverwriteRefused behaviour supplies one.
type SignatureScanner interface {
	// HasForeignSignature inspects the start of a backing store and
	// reports whether a foreign filesystem signature was found there.
	HasForeignSignature(path string) (bool, error)
}

// NoScanner is the default SignatureScanner: it never refuses an overwrite.
// Exercising real signature detection is explicitly out of this core's
// scope; callers that need it (e.g. a full mkfs.xfs binary) inject their own.
type NoScanner struct{}

func (NoScanner) HasForeignSignature(string) (bool, error) { return false, nil }

// Device wraps one opened backing store.
type Device struct {
	Role      Role
	Path      string
	IsFile    bool
	IsBlock   bool
	DirectIO  bool
	f         *os.File
}

// Open acquires a backing store. If target.IsFile and the path does not
// exist, it is created (O_CREAT|O_TRUNC, matching §5's "image files get
// O_TRUNC|O_CREAT when explicitly declared as files that do not yet
// exist"); otherwise the path must already exist.
func Open(role Role, target Target, force bool) (*Device, error) {
	if target.Path == "" {
		return nil, mkfserr.Newf(mkfserr.DeviceError, "%s device: no path given", role)
	}

	flags := os.O_RDWR
	st, statErr := os.Stat(target.Path)
	existed := statErr == nil

	if target.IsFile && !existed {
		flags |= os.O_CREATE | os.O_TRUNC
	} else if statErr != nil {
		return nil, mkfserr.Wrap(mkfserr.DeviceError, statErr, "stat "+target.Path)
	}

	f, err := os.OpenFile(target.Path, flags, 0644)
	if err != nil {
		return nil, mkfserr.Wrap(mkfserr.DeviceError, err, "open "+target.Path)
	}

	isBlock := existed && st.Mode()&os.ModeDevice != 0 && st.Mode()&os.ModeCharDevice == 0
	isFile := !isBlock

	d := &Device{
		Role:    role,
		Path:    target.Path,
		IsFile:  isFile,
		IsBlock: isBlock,
		// O_DIRECT is disabled automatically whenever any of the three
		// targets is a regular file, per §5; callers set DirectIO=true
		// across all three devices only if every one of them is a block
		// device.
		DirectIO: false,
		f:        f,
	}
	return d, nil
}

// Close releases the device handle. Any exit path, normal or abnormal,
// must call Close; §3.4 scopes device handles as acquired-by-resolver,
// released-on-exit resources.
func (d *Device) Close() error {
	if d == nil || d.f == nil {
		return nil
	}
	return d.f.Close()
}

// Size returns the current size of the backing store in bytes.
func (d *Device) Size() (uint64, error) {
	st, err := d.f.Stat()
	if err != nil {
		return 0, mkfserr.Wrap(mkfserr.DeviceError, err, "stat "+d.Path)
	}
	if st.Size() > 0 {
		return uint64(st.Size()), nil
	}
	if d.IsBlock {
		return blockDeviceSize(d.f)
	}
	return 0, nil
}

// Truncate grows (or, for an image file, creates) the backing store to
// exactly size bytes so end-of-device reads during a later mount succeed.
// Only meaningful for regular files; block devices have a fixed size.
func (d *Device) Truncate(size uint64) error {
	if !d.IsFile {
		return nil
	}
	if err := d.f.Truncate(int64(size)); err != nil {
		return mkfserr.Wrap(mkfserr.DeviceError, err, "truncate "+d.Path)
	}
	return nil
}

// WriteAt writes p at the given byte offset.
func (d *Device) WriteAt(p []byte, off int64) error {
	_, err := d.f.WriteAt(p, off)
	if err != nil {
		return mkfserr.Wrap(mkfserr.DeviceError, err, "write "+d.Path)
	}
	return nil
}

// ZeroRange writes n zero bytes starting at off, used both for WHACK_SIZE
// edge hygiene and for zeroing the log extent (§4.7).
func (d *Device) ZeroRange(off int64, n int64) error {
	const chunk = 1 << 20
	buf := make([]byte, chunk)
	for n > 0 {
		w := int64(len(buf))
		if n < w {
			w = n
		}
		if err := d.WriteAt(buf[:w], off); err != nil {
			return err
		}
		off += w
		n -= w
	}
	return nil
}

// WhackSignatures zeroes the first and last WhackSize bytes of the device,
// per §4.7's device-edge hygiene rule. It is only meaningful for raw block
// devices; image files have no prior occupant to obliterate.
func (d *Device) WhackSignatures(deviceSize uint64) error {
	if !d.IsBlock {
		return nil
	}
	if err := d.ZeroRange(0, WhackSize); err != nil {
		return err
	}
	if deviceSize > WhackSize {
		if err := d.ZeroRange(int64(deviceSize-WhackSize), WhackSize); err != nil {
			return err
		}
	}
	return nil
}

// Discard issues a best-effort TRIM/DISCARD over the whole device once, at
// the start of writing. Per §5 and the DiscardFailed error kind, failure is
// ignored: it is a pure optimization, not a correctness requirement. Actual
// TRIM requires platform-specific ioctls that are out of this core's scope
// (it is not part of the geometry/option/writer engine); Discard always
// succeeds as a no-op unless a platform-specific implementation is linked in.
func (d *Device) Discard(skip bool) error {
	if skip || !d.IsBlock {
		return nil
	}
	return nil
}

// Sync flushes the device's write cache; §5 requires this before the final
// in-progress=0 superblock write is issued.
func (d *Device) Sync() error {
	if err := d.f.Sync(); err != nil {
		return mkfserr.Wrap(mkfserr.DeviceError, err, "sync "+d.Path)
	}
	return nil
}

// ReadAt reads len(p) bytes at off, used by the secondary-superblock
// root-inode patch-up (§4.7) which must read-modify-write.
func (d *Device) ReadAt(p []byte, off int64) error {
	_, err := d.f.ReadAt(p, off)
	if err != nil && err != io.EOF {
		return mkfserr.Wrap(mkfserr.DeviceError, err, "read "+d.Path)
	}
	return nil
}
