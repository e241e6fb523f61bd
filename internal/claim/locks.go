package claim

import "sync"

// itemLocks hands out one mutex per item so transitions on the same item
// run one at a time while different items proceed in parallel.
type itemLocks struct {
	mu    sync.Mutex
	locks map[int64]*itemLock
}

type itemLock struct {
	sync.Mutex
	refs int
}

// lock blocks until the item's mutex is held and returns its release.
func (l *itemLocks) lock(itemID int64) func() {
	l.mu.Lock()
	if l.locks == nil {
		l.locks = make(map[int64]*itemLock)
	}
	il, ok := l.locks[itemID]
	if !ok {
		il = &itemLock{}
		l.locks[itemID] = il
	}
	il.refs++
	l.mu.Unlock()

	il.Lock()
	return func() {
		il.Unlock()
		l.mu.Lock()
		il.refs--
		if il.refs == 0 {
			delete(l.locks, itemID)
		}
		l.mu.Unlock()
	}
}
