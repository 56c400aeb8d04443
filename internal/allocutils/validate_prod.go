//go:build !extra_assertions

package allocutils

import "unsafe"

// Validatable is implemented by anything Validate can check in debug builds.
type Validatable interface {
	Validate() error
}

// Poison is a no-op without extra_assertions: release builds never pay to
// overwrite freed payloads.
func Poison(data unsafe.Pointer, size int) {}

// IsPoisoned always reports true without extra_assertions, since nothing
// was ever poisoned to check against.
func IsPoisoned(data unsafe.Pointer, size int) bool { return true }

// DebugValidate is a no-op without extra_assertions.
func DebugValidate(v Validatable) {}

// DebugCheckPow2 is a no-op without extra_assertions.
func DebugCheckPow2[T Number](value T, name string) {}
