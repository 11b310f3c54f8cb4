package broker

import "sync/atomic"

// connID identifies one connection for the lifetime of the broker. Ids are
// never reused.
type connID uint64

type connIDAllocator struct {
	next atomic.Uint64
}

func (a *connIDAllocator) acquire() connID {
	return connID(a.next.Add(1))
}
