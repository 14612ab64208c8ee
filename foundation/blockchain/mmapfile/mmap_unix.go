//go:build unix

package mmapfile

import (
	"os"

	"golang.org/x/sys/unix"
)

// osReserve maps size bytes of the file read/write. The range past the end
// of the file is valid address space that must not be touched until the file
// has been extended over it.
func osReserve(f *os.File, size int) ([]byte, error) {
	return unix.Mmap(int(f.Fd()), 0, size, unix.PROT_READ|unix.PROT_WRITE, unix.MAP_SHARED)
}

func osUnmap(data []byte) error {
	return unix.Munmap(data)
}

func osSync(data []byte) error {
	if len(data) == 0 {
		return nil
	}
	return unix.Msync(data, unix.MS_SYNC)
}

// osAdviseRandom hints that records are read at random offsets. The hint is
// advisory so failures are ignored.
func osAdviseRandom(data []byte) {
	_ = unix.Madvise(data, unix.MADV_RANDOM)
}
