package device

import (
	"os"

	"golang.org/x/sys/unix"

	"github.com/jtulak/xfsprogs-dev/internal/mkfserr"
)

// blockDeviceSize asks the kernel for the size of a block device via
// BLKGETSIZE64, since block devices report zero from os.File.Stat's Size.
func blockDeviceSize(f *os.File) (uint64, error) {
	size, err := unix.IoctlGetUint64(int(f.Fd()), unix.BLKGETSIZE64)
	if err != nil {
		return 0, mkfserr.Wrap(mkfserr.DeviceError, err, "BLKGETSIZE64")
	}
	return size, nil
}
