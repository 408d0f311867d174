package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"path/filepath"

	natomic "github.com/natefinch/atomic"

	"github.com/inspectortrace/inspector/record"
	"github.com/inspectortrace/inspector/wire"
)

// argToJSON converts one decoded wire.Arg into a JSON-safe value. wire's
// concrete argument types are unexported, so this works entirely through
// its exported Tag/As* accessors rather than reflection.
func argToJSON(a wire.Arg) any {
	switch a.Tag() {
	case wire.TagI16:
		v, _ := wire.AsI16(a)
		return v
	case wire.TagI32:
		v, _ := wire.AsI32(a)
		return v
	case wire.TagI64:
		v, _ := wire.AsI64(a)
		return v
	case wire.TagU8:
		v, _ := wire.AsU8(a)
		return v
	case wire.TagU16:
		v, _ := wire.AsU16(a)
		return v
	case wire.TagU32:
		v, _ := wire.AsU32(a)
		return v
	case wire.TagU64:
		v, _ := wire.AsU64(a)
		return v
	case wire.TagF32:
		v, _ := wire.AsF32(a)
		return v
	case wire.TagF64:
		v, _ := wire.AsF64(a)
		return v
	case wire.TagChar:
		v, _ := wire.AsChar(a)
		return string(rune(v))
	case wire.TagCStr:
		v, _ := wire.AsCStr(a)
		return v
	case wire.TagStr:
		v, _ := wire.AsStr(a)
		return v
	case wire.TagKwarg:
		name, nested, _ := wire.KwargParts(a)
		return map[string]any{name: argToJSON(nested)}
	default:
		return nil
	}
}

// recordView is the JSON-line shape a block file holds: a flattened,
// serializable projection of record.Owned (whose Args are wire.Arg
// interface values with unexported concrete types, and so cannot be
// json.Marshal'd directly).
type recordView struct {
	Type        uint8  `json:"type"`
	Category    uint8  `json:"category"`
	Counter     uint64 `json:"counter"`
	TimestampNS int64  `json:"timestamp_ns"`
	PID         int32  `json:"pid"`
	TID         int32  `json:"tid"`
	Name        string `json:"name"`
	Args        []any  `json:"args,omitempty"`
}

func toRecordView(rec *record.Owned) recordView {
	args := make([]any, len(rec.Args))
	for i, a := range rec.Args {
		args[i] = argToJSON(a)
	}
	return recordView{
		Type:        rec.Header.Type,
		Category:    rec.Header.Category,
		Counter:     rec.Header.Counter,
		TimestampNS: rec.Header.TimestampNS,
		PID:         rec.Header.PID,
		TID:         rec.Header.TID,
		Name:        rec.Name,
		Args:        args,
	}
}

// blockWriter accumulates recorded events into in-memory blocks and
// flushes each full (or final) block to --out atomically via
// natefinch/atomic, so a reader never observes a partially-written
// block file.
type blockWriter struct {
	dir       string
	maxBytes  int
	seq       int
	buf       bytes.Buffer
	enc       *json.Encoder
}

func newBlockWriter(dir string, maxBytes int) *blockWriter {
	w := &blockWriter{dir: dir, maxBytes: maxBytes}
	w.enc = json.NewEncoder(&w.buf)
	return w
}

// Append encodes rec as one JSON line into the current block, flushing
// the block first if it has already reached maxBytes.
func (w *blockWriter) Append(rec *record.Owned) error {
	if w.buf.Len() >= w.maxBytes {
		if err := w.Flush(); err != nil {
			return err
		}
	}
	if err := w.enc.Encode(toRecordView(rec)); err != nil {
		return fmt.Errorf("encoding record %q: %w", rec.Name, err)
	}
	return nil
}

// Flush atomically writes the current block to disk and starts a new
// one. A no-op if the current block is empty.
func (w *blockWriter) Flush() error {
	if w.buf.Len() == 0 {
		return nil
	}
	path := filepath.Join(w.dir, fmt.Sprintf("block-%08d.jsonl", w.seq))
	if err := natomic.WriteFile(path, bytes.NewReader(w.buf.Bytes())); err != nil {
		return fmt.Errorf("writing block %q: %w", path, err)
	}
	w.seq++
	w.buf.Reset()
	return nil
}
