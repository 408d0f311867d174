package wire

import (
	"encoding/binary"
	"math"
)

func decodeFloat32(b []byte) float32 { return math.Float32frombits(binary.LittleEndian.Uint32(b)) }
func decodeFloat64(b []byte) float64 { return math.Float64frombits(binary.LittleEndian.Uint64(b)) }

type i16Val int16

func I16(v int16) Arg            { return i16Val(v) }
func (v i16Val) Tag() Tag         { return TagI16 }
func (v i16Val) StorageSize() int { return 1 + 2 }
func (v i16Val) Encode(dst []byte) int {
	dst[0] = byte(TagI16)
	binary.LittleEndian.PutUint16(dst[1:], uint16(v))
	return v.StorageSize()
}

// AsI16 returns v's value if it is an I16, else errs.TypeMismatch.
func AsI16(a Arg) (int16, error) {
	v, ok := a.(i16Val)
	if !ok {
		return 0, typeMismatch(TagI16, a)
	}
	return int16(v), nil
}

type i32Val int32

func I32(v int32) Arg            { return i32Val(v) }
func (v i32Val) Tag() Tag         { return TagI32 }
func (v i32Val) StorageSize() int { return 1 + 4 }
func (v i32Val) Encode(dst []byte) int {
	dst[0] = byte(TagI32)
	binary.LittleEndian.PutUint32(dst[1:], uint32(v))
	return v.StorageSize()
}

func AsI32(a Arg) (int32, error) {
	v, ok := a.(i32Val)
	if !ok {
		return 0, typeMismatch(TagI32, a)
	}
	return int32(v), nil
}

type i64Val int64

func I64(v int64) Arg            { return i64Val(v) }
func (v i64Val) Tag() Tag         { return TagI64 }
func (v i64Val) StorageSize() int { return 1 + 8 }
func (v i64Val) Encode(dst []byte) int {
	dst[0] = byte(TagI64)
	binary.LittleEndian.PutUint64(dst[1:], uint64(v))
	return v.StorageSize()
}

func AsI64(a Arg) (int64, error) {
	v, ok := a.(i64Val)
	if !ok {
		return 0, typeMismatch(TagI64, a)
	}
	return int64(v), nil
}

type u8Val uint8

func U8(v uint8) Arg              { return u8Val(v) }
func (v u8Val) Tag() Tag          { return TagU8 }
func (v u8Val) StorageSize() int  { return 1 + 1 }
func (v u8Val) Encode(dst []byte) int {
	dst[0] = byte(TagU8)
	dst[1] = byte(v)
	return v.StorageSize()
}

func AsU8(a Arg) (uint8, error) {
	v, ok := a.(u8Val)
	if !ok {
		return 0, typeMismatch(TagU8, a)
	}
	return uint8(v), nil
}

type u16Val uint16

func U16(v uint16) Arg           { return u16Val(v) }
func (v u16Val) Tag() Tag         { return TagU16 }
func (v u16Val) StorageSize() int { return 1 + 2 }
func (v u16Val) Encode(dst []byte) int {
	dst[0] = byte(TagU16)
	binary.LittleEndian.PutUint16(dst[1:], uint16(v))
	return v.StorageSize()
}

func AsU16(a Arg) (uint16, error) {
	v, ok := a.(u16Val)
	if !ok {
		return 0, typeMismatch(TagU16, a)
	}
	return uint16(v), nil
}

type u32Val uint32

func U32(v uint32) Arg           { return u32Val(v) }
func (v u32Val) Tag() Tag         { return TagU32 }
func (v u32Val) StorageSize() int { return 1 + 4 }
func (v u32Val) Encode(dst []byte) int {
	dst[0] = byte(TagU32)
	binary.LittleEndian.PutUint32(dst[1:], uint32(v))
	return v.StorageSize()
}

func AsU32(a Arg) (uint32, error) {
	v, ok := a.(u32Val)
	if !ok {
		return 0, typeMismatch(TagU32, a)
	}
	return uint32(v), nil
}

type u64Val uint64

func U64(v uint64) Arg           { return u64Val(v) }
func (v u64Val) Tag() Tag         { return TagU64 }
func (v u64Val) StorageSize() int { return 1 + 8 }
func (v u64Val) Encode(dst []byte) int {
	dst[0] = byte(TagU64)
	binary.LittleEndian.PutUint64(dst[1:], uint64(v))
	return v.StorageSize()
}

func AsU64(a Arg) (uint64, error) {
	v, ok := a.(u64Val)
	if !ok {
		return 0, typeMismatch(TagU64, a)
	}
	return uint64(v), nil
}

type f32Val float32

func F32(v float32) Arg          { return f32Val(v) }
func (v f32Val) Tag() Tag         { return TagF32 }
func (v f32Val) StorageSize() int { return 1 + 4 }
func (v f32Val) Encode(dst []byte) int {
	dst[0] = byte(TagF32)
	binary.LittleEndian.PutUint32(dst[1:], math.Float32bits(float32(v)))
	return v.StorageSize()
}

func AsF32(a Arg) (float32, error) {
	v, ok := a.(f32Val)
	if !ok {
		return 0, typeMismatch(TagF32, a)
	}
	return float32(v), nil
}

type f64Val float64

func F64(v float64) Arg          { return f64Val(v) }
func (v f64Val) Tag() Tag         { return TagF64 }
func (v f64Val) StorageSize() int { return 1 + 8 }
func (v f64Val) Encode(dst []byte) int {
	dst[0] = byte(TagF64)
	binary.LittleEndian.PutUint64(dst[1:], math.Float64bits(float64(v)))
	return v.StorageSize()
}

func AsF64(a Arg) (float64, error) {
	v, ok := a.(f64Val)
	if !ok {
		return 0, typeMismatch(TagF64, a)
	}
	return float64(v), nil
}

type charVal byte

func Char(v byte) Arg            { return charVal(v) }
func (v charVal) Tag() Tag         { return TagChar }
func (v charVal) StorageSize() int { return 1 + 1 }
func (v charVal) Encode(dst []byte) int {
	dst[0] = byte(TagChar)
	dst[1] = byte(v)
	return v.StorageSize()
}

func AsChar(a Arg) (byte, error) {
	v, ok := a.(charVal)
	if !ok {
		return 0, typeMismatch(TagChar, a)
	}
	return byte(v), nil
}
