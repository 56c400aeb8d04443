// Package allocutils holds the small ambient pieces the core allocator leans
// on: alignment arithmetic, sentinel errors, locking, statistics and the
// debug/release split for corruption checking. None of it understands cells
// or free lists; internal/cellmeta and internal/heap own that.
package allocutils

import (
	cerrors "github.com/cockroachdb/errors"
)

// Number is any integer type AlignUp/AlignDown/CheckPow2 can operate on.
type Number interface {
	~int | ~uint | ~uintptr
}

// CheckPow2 returns an error if number is not a power of two.
func CheckPow2[T Number](number T, name string) error {
	if number == 0 || number&(number-1) != 0 {
		return cerrors.Wrapf(ErrNotPowerOfTwo, "%s is %d", name, number)
	}
	return nil
}

// AlignUp rounds value up to the nearest multiple of alignment, which must
// be a power of two.
func AlignUp[T Number](value T, alignment T) T {
	return (value + alignment - 1) &^ (alignment - 1)
}

// AlignDown rounds value down to the nearest multiple of alignment, which
// must be a power of two.
func AlignDown[T Number](value T, alignment T) T {
	return value &^ (alignment - 1)
}
