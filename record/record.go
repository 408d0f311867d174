// Package record implements the trace-record view: a packed header
// followed by self-describing arguments, written and read through a
// framed ring block, per spec.md §4.6. The first argument is always the
// event's display name, encoded as a CSTR.
package record

import (
	"encoding/binary"
	"fmt"

	"github.com/inspectortrace/inspector/ring"
	"github.com/inspectortrace/inspector/wire"
)

// HeaderSize is sizeof({type u8, category u8, counter u64, timestamp_ns
// i64, pid i32, tid i32, args_count u8}).
const HeaderSize = 1 + 1 + 8 + 8 + 4 + 4 + 1

const (
	offType      = 0
	offCategory  = 1
	offCounter   = 2
	offTimestamp = 10
	offPID       = 18
	offTID       = 22
	offArgsCount = 26
)

// Header is the fixed, packed portion of a trace record.
type Header struct {
	Type        uint8
	Category    uint8
	Counter     uint64
	TimestampNS int64
	PID         int32
	TID         int32
	ArgsCount   uint8
}

func encodeHeader(h Header) []byte {
	buf := make([]byte, HeaderSize)
	buf[offType] = h.Type
	buf[offCategory] = h.Category
	binary.LittleEndian.PutUint64(buf[offCounter:], h.Counter)
	binary.LittleEndian.PutUint64(buf[offTimestamp:], uint64(h.TimestampNS))
	binary.LittleEndian.PutUint32(buf[offPID:], uint32(h.PID))
	binary.LittleEndian.PutUint32(buf[offTID:], uint32(h.TID))
	buf[offArgsCount] = h.ArgsCount
	return buf
}

func decodeHeader(buf []byte) (Header, error) {
	if len(buf) < HeaderSize {
		return Header{}, fmt.Errorf("record: body too short for header (%d < %d)", len(buf), HeaderSize)
	}
	return Header{
		Type:        buf[offType],
		Category:    buf[offCategory],
		Counter:     binary.LittleEndian.Uint64(buf[offCounter:]),
		TimestampNS: int64(binary.LittleEndian.Uint64(buf[offTimestamp:])),
		PID:         int32(binary.LittleEndian.Uint32(buf[offPID:])),
		TID:         int32(binary.LittleEndian.Uint32(buf[offTID:])),
		ArgsCount:   buf[offArgsCount],
	}, nil
}

// Writer builds one trace record into a reserved ring block. Construct
// with NewWriter once a block of the exact required size has been
// reserved via Publish (or manually via StorageSize + ring.Allocator.Reserve).
type Writer struct {
	wh        *ring.WriteHandle
	argsCount uint8
}

// NewWriter begins writing a trace record into wh. h.ArgsCount is ignored
// and recomputed as Append is called.
func NewWriter(wh *ring.WriteHandle, h Header) (*Writer, error) {
	h.ArgsCount = 0
	if _, err := wh.Write(encodeHeader(h)); err != nil {
		return nil, err
	}
	return &Writer{wh: wh}, nil
}

// Append writes one more self-describing argument and increments the
// header's args_count in place.
func (w *Writer) Append(arg wire.Arg) error {
	buf := make([]byte, arg.StorageSize())
	arg.Encode(buf)
	if _, err := w.wh.Write(buf); err != nil {
		return err
	}
	w.argsCount++
	w.wh.PatchByte(offArgsCount, w.argsCount)
	return nil
}

// Close finishes the record, flushing it into the shared buffer and
// releasing the producer cursor.
func (w *Writer) Close() error {
	return w.wh.Close()
}

// StorageSize computes the exact block payload size a trace record with
// the given name and args will require, per spec.md §4.6's construction
// contract: sizeof(header) + storage_size(name) + Σ storage_size(args).
func StorageSize(name string, args ...wire.Arg) int {
	return HeaderSize + wire.CStr(name).StorageSize() + wire.StorageSize(args...)
}

// Publish reserves a block sized exactly for a record named name with
// the given header fields and args, writes it, and releases the cursor.
// It is the convenience path spec.md §6's publish() operation reduces to.
func Publish(a *ring.Allocator, h Header, name string, args ...wire.Arg) error {
	size := StorageSize(name, args...)
	wh, err := a.Reserve(size)
	if err != nil {
		return err
	}

	w, err := NewWriter(wh, h)
	if err != nil {
		_ = wh.Close()
		return err
	}
	if err := w.Append(wire.CStr(name)); err != nil {
		_ = w.Close()
		return err
	}
	for _, arg := range args {
		if err := w.Append(arg); err != nil {
			_ = w.Close()
			return err
		}
	}
	return w.Close()
}

// Owned is a fully decoded trace record, copied out of the ring and
// independent of any cursor.
type Owned struct {
	Header Header
	Name   string
	Args   []wire.Arg
}

// Decode parses a complete record body (as produced by a ring.ReadHandle)
// into an Owned record.
func Decode(body []byte) (*Owned, error) {
	h, err := decodeHeader(body)
	if err != nil {
		return nil, err
	}

	rest := body[HeaderSize:]
	if h.ArgsCount == 0 {
		return &Owned{Header: h}, nil
	}

	nameArg, rest, err := wire.Decode(rest)
	if err != nil {
		return nil, fmt.Errorf("record: decoding name: %w", err)
	}
	name, err := wire.AsCStr(nameArg)
	if err != nil {
		return nil, fmt.Errorf("record: name argument: %w", err)
	}

	args := make([]wire.Arg, 0, int(h.ArgsCount)-1)
	for i := 1; i < int(h.ArgsCount); i++ {
		var arg wire.Arg
		arg, rest, err = wire.Decode(rest)
		if err != nil {
			return nil, fmt.Errorf("record: decoding argument %d: %w", i, err)
		}
		args = append(args, arg)
	}

	return &Owned{Header: h, Name: name, Args: args}, nil
}

// FromReadHandle decodes the record in rh and releases rh's cursor,
// regardless of decode success.
func FromReadHandle(rh *ring.ReadHandle) (*Owned, error) {
	defer rh.Close()
	return Decode(rh.Body)
}
