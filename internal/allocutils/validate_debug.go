//go:build extra_assertions

package allocutils

import "unsafe"

// poisonByte is written across a cell's entire payload when it is freed, so
// that a use-after-free shows up as an unmistakable pattern instead of
// silently reading stale data.
const poisonByte byte = 0xF7

// Validatable is implemented by anything Validate can check in debug builds.
type Validatable interface {
	Validate() error
}

// Poison overwrites size bytes at data with the poison pattern. No-ops
// unless built with extra_assertions.
func Poison(data unsafe.Pointer, size int) {
	dst := unsafe.Slice((*byte)(data), size)
	for i := range dst {
		dst[i] = poisonByte
	}
}

// IsPoisoned reports whether size bytes at data are entirely the poison
// pattern. No-ops (always true) unless built with extra_assertions.
func IsPoisoned(data unsafe.Pointer, size int) bool {
	src := unsafe.Slice((*byte)(data), size)
	for _, b := range src {
		if b != poisonByte {
			return false
		}
	}
	return true
}

// DebugValidate calls Validate and panics if it returns an error. No-ops
// unless built with extra_assertions.
func DebugValidate(v Validatable) {
	if err := v.Validate(); err != nil {
		panic(err)
	}
}

// DebugCheckPow2 panics if value is not a power of two. No-ops unless built
// with extra_assertions.
func DebugCheckPow2[T Number](value T, name string) {
	if err := CheckPow2(value, name); err != nil {
		panic(err)
	}
}
