package allocutils

import "sync"

// OptionalMutex is a mutex that can be compiled down to a no-op. The WASM
// target is single-threaded, so the global allocator lock there costs
// nothing but code size; everywhere else it guards the free lists for real.
type OptionalMutex struct {
	mutex    sync.Mutex
	UseMutex bool
}

func (m *OptionalMutex) Lock() {
	if m.UseMutex {
		m.mutex.Lock()
	}
}

func (m *OptionalMutex) Unlock() {
	if m.UseMutex {
		m.mutex.Unlock()
	}
}
