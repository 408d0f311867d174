package wire

import "encoding/binary"

type cstrVal string

// CStr returns a NUL-terminated string argument. v must not itself
// contain a NUL byte.
func CStr(v string) Arg { return cstrVal(v) }

func (v cstrVal) Tag() Tag         { return TagCStr }
func (v cstrVal) StorageSize() int { return 1 + len(v) + 1 }
func (v cstrVal) Encode(dst []byte) int {
	dst[0] = byte(TagCStr)
	n := copy(dst[1:], v)
	dst[1+n] = 0
	return v.StorageSize()
}

// AsCStr returns v's value if it is a CSTR, else errs.TypeMismatch.
func AsCStr(a Arg) (string, error) {
	v, ok := a.(cstrVal)
	if !ok {
		return "", typeMismatch(TagCStr, a)
	}
	return string(v), nil
}

type strVal string

// Str returns a length-prefixed counted-string argument.
func Str(v string) Arg { return strVal(v) }

func (v strVal) Tag() Tag         { return TagStr }
func (v strVal) StorageSize() int { return 1 + strLenSize + len(v) }
func (v strVal) Encode(dst []byte) int {
	dst[0] = byte(TagStr)
	binary.LittleEndian.PutUint32(dst[1:1+strLenSize], uint32(len(v)))
	copy(dst[1+strLenSize:], v)
	return v.StorageSize()
}

// AsStr returns v's value if it is a STR, else errs.TypeMismatch.
func AsStr(a Arg) (string, error) {
	v, ok := a.(strVal)
	if !ok {
		return "", typeMismatch(TagStr, a)
	}
	return string(v), nil
}

type kwargVal struct {
	name  string
	value Arg
}

// Kwarg returns a named argument wrapping value. name must not contain a
// NUL byte.
func Kwarg(name string, value Arg) Arg { return kwargVal{name: name, value: value} }

func (v kwargVal) Tag() Tag { return TagKwarg }
func (v kwargVal) StorageSize() int {
	return 1 + len(v.name) + 1 + v.value.StorageSize()
}
func (v kwargVal) Encode(dst []byte) int {
	dst[0] = byte(TagKwarg)
	n := copy(dst[1:], v.name)
	dst[1+n] = 0
	v.value.Encode(dst[1+n+1:])
	return v.StorageSize()
}

// KwargParts returns a KWARG's name and nested value, or errs.TypeMismatch
// if a is not a KWARG.
func KwargParts(a Arg) (name string, value Arg, err error) {
	v, ok := a.(kwargVal)
	if !ok {
		return "", nil, typeMismatch(TagKwarg, a)
	}
	return v.name, v.value, nil
}
