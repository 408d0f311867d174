package wire

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/inspectortrace/inspector/internal/errs"
)

func roundTrip(t *testing.T, a Arg) Arg {
	t.Helper()
	buf := make([]byte, a.StorageSize())
	n := a.Encode(buf)
	require.Equal(t, len(buf), n)

	got, rest, err := Decode(buf)
	require.NoError(t, err)
	assert.Empty(t, rest)
	return got
}

func TestScalarRoundTrip(t *testing.T) {
	v, err := AsI16(roundTrip(t, I16(-7)))
	require.NoError(t, err)
	assert.Equal(t, int16(-7), v)

	i32, err := AsI32(roundTrip(t, I32(-123456)))
	require.NoError(t, err)
	assert.Equal(t, int32(-123456), i32)

	i64, err := AsI64(roundTrip(t, I64(-1)))
	require.NoError(t, err)
	assert.Equal(t, int64(-1), i64)

	u8, err := AsU8(roundTrip(t, U8(200)))
	require.NoError(t, err)
	assert.Equal(t, uint8(200), u8)

	u16, err := AsU16(roundTrip(t, U16(50000)))
	require.NoError(t, err)
	assert.Equal(t, uint16(50000), u16)

	u32, err := AsU32(roundTrip(t, U32(4000000000)))
	require.NoError(t, err)
	assert.Equal(t, uint32(4000000000), u32)

	u64, err := AsU64(roundTrip(t, U64(1<<63)))
	require.NoError(t, err)
	assert.Equal(t, uint64(1<<63), u64)

	f32, err := AsF32(roundTrip(t, F32(3.5)))
	require.NoError(t, err)
	assert.Equal(t, float32(3.5), f32)

	f64, err := AsF64(roundTrip(t, F64(2.718281828)))
	require.NoError(t, err)
	assert.Equal(t, 2.718281828, f64)

	c, err := AsChar(roundTrip(t, Char('x')))
	require.NoError(t, err)
	assert.Equal(t, byte('x'), c)
}

func TestStringRoundTrip(t *testing.T) {
	s, err := AsCStr(roundTrip(t, CStr("hello")))
	require.NoError(t, err)
	assert.Equal(t, "hello", s)

	s, err = AsStr(roundTrip(t, Str("counted string")))
	require.NoError(t, err)
	assert.Equal(t, "counted string", s)
}

func TestKwargRoundTrip(t *testing.T) {
	decoded := roundTrip(t, Kwarg("k", I32(50)))

	name, nested, err := KwargParts(decoded)
	require.NoError(t, err)
	assert.Equal(t, "k", name)

	v, err := AsI32(nested)
	require.NoError(t, err)
	assert.Equal(t, int32(50), v)
}

func TestTypeMismatch(t *testing.T) {
	_, err := AsI32(I16(1))
	assert.ErrorIs(t, err, errs.TypeMismatch)

	_, err = AsStr(CStr("x"))
	assert.ErrorIs(t, err, errs.TypeMismatch)

	_, _, err = KwargParts(I32(1))
	assert.ErrorIs(t, err, errs.TypeMismatch)
}

func TestStorageSizeAndEncodeAll(t *testing.T) {
	args := []Arg{CStr("event_name"), I32(1), Str("payload"), Kwarg("k", U8(9))}
	size := StorageSize(args...)

	buf := make([]byte, size)
	n := EncodeAll(buf, args...)
	require.Equal(t, size, n)

	rest := buf
	for _, want := range args {
		got, r, err := Decode(rest)
		require.NoError(t, err)
		assert.Equal(t, want.Tag(), got.Tag())
		rest = r
	}
	assert.Empty(t, rest)
}
