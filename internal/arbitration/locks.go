package arbitration

import "sync"

// lockTable hands out one mutex per string key. It serializes the
// check-then-approve critical section per (room, date) and the
// decide-once path per request id, while leaving unrelated keys fully
// parallel. Entries are created on demand and kept for the process
// lifetime; the key space (rooms x dates in flight, request ids) is small.
type lockTable struct {
	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

func newLockTable() *lockTable {
	return &lockTable{locks: make(map[string]*sync.Mutex)}
}

// Acquire locks the mutex for key and returns the release function.
func (t *lockTable) Acquire(key string) func() {
	t.mu.Lock()
	lock, ok := t.locks[key]
	if !ok {
		lock = &sync.Mutex{}
		t.locks[key] = lock
	}
	t.mu.Unlock()

	lock.Lock()
	return lock.Unlock
}

// slotKey builds the critical-section key for a room on a date.
func slotKey(roomCode, date string) string {
	return roomCode + "|" + date
}
