package cutledger

import (
	"sync"

	"github.com/google/uuid"
)

// deviceLocks hands out one mutex per device. Entries are dropped once no
// caller holds or waits on them.
type deviceLocks struct {
	mu    sync.Mutex
	locks map[uuid.UUID]*deviceLock
}

type deviceLock struct {
	sync.Mutex
	refs int
}

func newDeviceLocks() *deviceLocks {
	return &deviceLocks{locks: map[uuid.UUID]*deviceLock{}}
}

// lock blocks until the device's mutex is held and returns its release.
func (d *deviceLocks) lock(id uuid.UUID) func() {
	d.mu.Lock()
	l, ok := d.locks[id]
	if !ok {
		l = &deviceLock{}
		d.locks[id] = l
	}
	l.refs++
	d.mu.Unlock()

	l.Lock()
	return func() {
		l.Unlock()
		d.mu.Lock()
		l.refs--
		if l.refs == 0 {
			delete(d.locks, id)
		}
		d.mu.Unlock()
	}
}

func (d *deviceLocks) len() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.locks)
}
