package registry

import "sync"

// deviceLocks serializes binding mutations per device id. Pairing and
// quick-start read-modify-write the binding state; two concurrent bind
// attempts for the same device must not both succeed.
type deviceLocks struct {
	locks sync.Map // uint -> *sync.Mutex
}

// lock acquires the mutex for a device id and returns its unlock func
func (d *deviceLocks) lock(deviceID uint) func() {
	v, _ := d.locks.LoadOrStore(deviceID, &sync.Mutex{})
	mu := v.(*sync.Mutex)
	mu.Lock()
	return mu.Unlock
}
