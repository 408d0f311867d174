// Package shmregion owns the one piece of memory every attached process
// shares: a POSIX shared-memory file, mapped into each process's address
// space via mmap, laid out as a fixed control area (write head, read
// head, writer and reader cursor pools) followed by the circular record
// buffer, per spec.md §4.1.
//
// The open/truncate/map sequence below is grounded on the teacher
// eventloop package's poller_linux.go, which bridges Go code to raw OS
// resources (epoll fds) through golang.org/x/sys/unix rather than the
// stdlib syscall package; shmregion applies the same dependency to a
// different OS resource (a shared file mapping).
package shmregion

import (
	"fmt"

	"github.com/inspectortrace/inspector/internal/errs"
	"github.com/inspectortrace/inspector/internal/posmark"
)

// Control-area layout, in bytes from the start of the mapping:
//
//	[0:8)    write head  (posmark.Atomic)
//	[8:16)   read head   (posmark.Atomic)
//	[16:...) writer cursor pool (cursor.Footprint(numWriters) bytes)
//	[...:..) reader cursor pool (cursor.Footprint(numReaders) bytes)
//	[...:end) circular record buffer (bufferSize bytes)
const (
	writeHeadOffset = 0
	readHeadOffset  = posmark.WordSize
	poolsOffset     = 2 * posmark.WordSize
)

// Region is one mapped shared-memory segment.
type Region struct {
	name       string
	data       []byte
	writerPool []byte
	readerPool []byte
	buffer     []byte
	closer     func() error
}

// Footprint returns the total number of bytes a region needs to hold
// numWriters writer cursor slots, numReaders reader cursor slots, and a
// circular buffer of bufferSize bytes. slotSize is the per-cursor-slot
// byte footprint (cursor.SlotSize), passed in rather than imported
// directly to keep shmregion free of a dependency on the cursor package's
// internals beyond this one constant.
func Footprint(bufferSize, numWriters, numReaders, slotSize int) int {
	return poolsOffset + numWriters*slotSize + numReaders*slotSize + bufferSize
}

func newRegion(name string, data []byte, numWriters, numReaders, slotSize int, closer func() error) (*Region, error) {
	need := poolsOffset + numWriters*slotSize + numReaders*slotSize
	if len(data) < need {
		return nil, fmt.Errorf("%w: region %q too small for layout (have %d, need at least %d)", errs.System, name, len(data), need)
	}
	writerEnd := poolsOffset + numWriters*slotSize
	readerEnd := writerEnd + numReaders*slotSize
	return &Region{
		name:       name,
		data:       data,
		writerPool: data[poolsOffset:writerEnd],
		readerPool: data[writerEnd:readerEnd],
		buffer:     data[readerEnd:],
		closer:     closer,
	}, nil
}

// Name returns the region's identifier, as passed to OpenOrCreate.
func (r *Region) Name() string { return r.name }

// WriteHead returns the shared write-head position word.
func (r *Region) WriteHead() posmark.Atomic {
	return posmark.AtomicAt(r.data[writeHeadOffset : writeHeadOffset+posmark.WordSize])
}

// ReadHead returns the shared read-head position word.
func (r *Region) ReadHead() posmark.Atomic {
	return posmark.AtomicAt(r.data[readHeadOffset : readHeadOffset+posmark.WordSize])
}

// WriterPoolBytes returns the backing bytes for the writer cursor pool.
func (r *Region) WriterPoolBytes() []byte { return r.writerPool }

// ReaderPoolBytes returns the backing bytes for the reader cursor pool.
func (r *Region) ReaderPoolBytes() []byte { return r.readerPool }

// Buffer returns the circular record buffer.
func (r *Region) Buffer() []byte { return r.buffer }

// Close unmaps the region. It does not remove the underlying
// shared-memory object; call Unlink for that once no process needs it.
func (r *Region) Close() error {
	if r.closer == nil {
		return nil
	}
	closer := r.closer
	r.closer = nil
	return closer()
}
