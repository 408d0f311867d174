// Package wire implements the self-describing binary encoding of trace
// record arguments, per spec.md §4.5: a type-tagged union over fixed-
// width scalars, fixed-size chars, NUL-terminated C-strings,
// length-prefixed counted strings, and nested keyword arguments.
//
// There is no teacher analog for a tagged-union wire encoder anywhere in
// the example pack; this package is grounded directly on spec.md's byte-
// exact encoding table, written in the teacher's preferred idiom of a
// small sealed interface with unexported concrete implementations (the
// same shape as eventloop's LoopOption/loopOptionImpl).
package wire

import (
	"encoding/binary"
	"fmt"

	"github.com/inspectortrace/inspector/internal/errs"
)

// Tag identifies an argument's wire type. Values are bit-exact per
// spec.md §4.5 and must never be renumbered.
type Tag uint8

const (
	TagI16   Tag = 0
	TagI32   Tag = 1
	TagI64   Tag = 2
	TagU8    Tag = 3
	TagU16   Tag = 4
	TagU32   Tag = 5
	TagU64   Tag = 6
	TagF32   Tag = 7
	TagF64   Tag = 8
	TagChar  Tag = 9
	TagCStr  Tag = 10
	TagStr   Tag = 11
	TagKwarg Tag = 12
)

func (t Tag) String() string {
	switch t {
	case TagI16:
		return "I16"
	case TagI32:
		return "I32"
	case TagI64:
		return "I64"
	case TagU8:
		return "U8"
	case TagU16:
		return "U16"
	case TagU32:
		return "U32"
	case TagU64:
		return "U64"
	case TagF32:
		return "F32"
	case TagF64:
		return "F64"
	case TagChar:
		return "CHAR"
	case TagCStr:
		return "CSTR"
	case TagStr:
		return "STR"
	case TagKwarg:
		return "KWARG"
	default:
		return fmt.Sprintf("Tag(%d)", uint8(t))
	}
}

// strLenSize is the byte width of a counted string's length prefix. The
// original C++ uses size_t; spec.md §9 leaves the exact width an open
// question for a systems-language port, so this is fixed at 4 bytes LE
// (matching every other length/count field in the wire format, e.g. the
// frame header's size field) rather than carrying a platform-dependent
// width into a supposedly stable wire format.
const strLenSize = 4

// Arg is one self-describing trace-record argument.
type Arg interface {
	Tag() Tag
	// StorageSize returns the exact number of bytes Encode will write,
	// including the leading tag byte.
	StorageSize() int
	// Encode writes the argument into dst, which must be at least
	// StorageSize() bytes, and returns the number of bytes written.
	Encode(dst []byte) int
}

// Decode reads one argument from the front of buf, returning it and the
// remaining, unconsumed bytes.
func Decode(buf []byte) (Arg, []byte, error) {
	if len(buf) < 1 {
		return nil, nil, fmt.Errorf("wire: empty buffer has no tag byte")
	}
	tag := Tag(buf[0])
	body := buf[1:]

	switch tag {
	case TagI16:
		return i16Val(int16(binary.LittleEndian.Uint16(body))), body[2:], nil
	case TagI32:
		return i32Val(int32(binary.LittleEndian.Uint32(body))), body[4:], nil
	case TagI64:
		return i64Val(int64(binary.LittleEndian.Uint64(body))), body[8:], nil
	case TagU8:
		return u8Val(body[0]), body[1:], nil
	case TagU16:
		return u16Val(binary.LittleEndian.Uint16(body)), body[2:], nil
	case TagU32:
		return u32Val(binary.LittleEndian.Uint32(body)), body[4:], nil
	case TagU64:
		return u64Val(binary.LittleEndian.Uint64(body)), body[8:], nil
	case TagF32:
		return f32Val(decodeFloat32(body)), body[4:], nil
	case TagF64:
		return f64Val(decodeFloat64(body)), body[8:], nil
	case TagChar:
		return charVal(body[0]), body[1:], nil
	case TagCStr:
		i := indexNUL(body)
		if i < 0 {
			return nil, nil, fmt.Errorf("wire: CSTR missing NUL terminator")
		}
		return cstrVal(string(body[:i])), body[i+1:], nil
	case TagStr:
		n := int(binary.LittleEndian.Uint32(body[:strLenSize]))
		rest := body[strLenSize:]
		if len(rest) < n {
			return nil, nil, fmt.Errorf("wire: STR length %d exceeds remaining buffer", n)
		}
		return strVal(string(rest[:n])), rest[n:], nil
	case TagKwarg:
		i := indexNUL(body)
		if i < 0 {
			return nil, nil, fmt.Errorf("wire: KWARG name missing NUL terminator")
		}
		name := string(body[:i])
		nested, rest, err := Decode(body[i+1:])
		if err != nil {
			return nil, nil, fmt.Errorf("wire: decoding KWARG %q value: %w", name, err)
		}
		return kwargVal{name: name, value: nested}, rest, nil
	default:
		return nil, nil, fmt.Errorf("wire: unknown type tag %d", tag)
	}
}

func indexNUL(b []byte) int {
	for i, c := range b {
		if c == 0 {
			return i
		}
	}
	return -1
}

func typeMismatch(want Tag, got Arg) error {
	return fmt.Errorf("%w: wanted %s, argument is %s", errs.TypeMismatch, want, got.Tag())
}
