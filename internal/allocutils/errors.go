package allocutils

import "github.com/pkg/errors"

// ErrNotPowerOfTwo is returned by CheckPow2 when a value that must be a
// power of two is not.
var ErrNotPowerOfTwo error = errors.New("value must be a power of two")

// ErrOutOfMemory is returned when a page provider has nothing left to give
// and no existing free cell satisfies a request.
var ErrOutOfMemory error = errors.New("tinyalloc: out of memory")

// ErrCorruption is returned by Validate implementations when a cell or
// free-list invariant does not hold.
var ErrCorruption error = errors.New("tinyalloc: heap corruption detected")
