//go:build unix

package shmregion

import (
	"fmt"
	"os"
	"path/filepath"

	"golang.org/x/sys/unix"

	"github.com/inspectortrace/inspector/internal/errs"
)

// shmDir is where region files live. Linux conventionally backs POSIX
// shared memory with a tmpfs mount at /dev/shm; we reuse that mount when
// present (so inspected processes show up under `ls /dev/shm` the way a
// C producer using shm_open would expect) and fall back to a process-
// visible temp directory on platforms (e.g. macOS) without one.
func shmDir() string {
	if fi, err := os.Stat("/dev/shm"); err == nil && fi.IsDir() {
		return "/dev/shm"
	}
	return filepath.Join(os.TempDir(), "inspector-shm")
}

func shmPath(name string) (string, error) {
	dir := shmDir()
	if dir != "/dev/shm" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return "", fmt.Errorf("%w: creating shm dir %q: %v", errs.System, dir, err)
		}
	}
	return filepath.Join(dir, name), nil
}

// OpenOrCreate opens the named shared-memory region, creating and sizing
// it to size bytes if it does not already exist. If it does exist, its
// current size is used regardless of size (all attaching processes must
// agree on geometry out of band, exactly as with any POSIX shared-memory
// object).
func OpenOrCreate(name string, size, numWriters, numReaders, slotSize int) (*Region, error) {
	path, err := shmPath(name)
	if err != nil {
		return nil, err
	}

	fd, err := unix.Open(path, unix.O_RDWR|unix.O_CREAT, 0o644)
	if err != nil {
		return nil, fmt.Errorf("%w: open %q: %v", errs.System, path, err)
	}
	closeFD := true
	defer func() {
		if closeFD {
			_ = unix.Close(fd)
		}
	}()

	var stat unix.Stat_t
	if err := unix.Fstat(fd, &stat); err != nil {
		return nil, fmt.Errorf("%w: fstat %q: %v", errs.System, path, err)
	}

	actualSize := int(stat.Size)
	if actualSize == 0 {
		if err := unix.Ftruncate(fd, int64(size)); err != nil {
			return nil, fmt.Errorf("%w: truncate %q to %d: %v", errs.System, path, size, err)
		}
		actualSize = size
	}

	data, err := unix.Mmap(fd, 0, actualSize, unix.PROT_READ|unix.PROT_WRITE, unix.MAP_SHARED)
	if err != nil {
		return nil, fmt.Errorf("%w: mmap %q: %v", errs.System, path, err)
	}

	closeFD = false
	closer := func() error {
		munErr := unix.Munmap(data)
		closeErr := unix.Close(fd)
		if munErr != nil {
			return fmt.Errorf("%w: munmap %q: %v", errs.System, path, munErr)
		}
		if closeErr != nil {
			return fmt.Errorf("%w: close %q: %v", errs.System, path, closeErr)
		}
		return nil
	}

	region, err := newRegion(name, data, numWriters, numReaders, slotSize, closer)
	if err != nil {
		_ = closer()
		return nil, err
	}
	return region, nil
}

// Unlink removes the named region's backing file. Safe to call after
// every process holding a mapping has called Close; harmless (returns
// nil) if the region does not exist.
func Unlink(name string) error {
	path, err := shmPath(name)
	if err != nil {
		return err
	}
	if err := unix.Unlink(path); err != nil && err != unix.ENOENT {
		return fmt.Errorf("%w: unlink %q: %v", errs.System, path, err)
	}
	return nil
}
