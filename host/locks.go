package host

import (
	"bytes"
	"sort"
	"sync"

	"github.com/gagliardetto/solana-go"
)

// accountLocks hands out one mutex per account address. Instructions lock all
// their writable accounts in address order, so two instructions sharing an
// account run one after the other and no pair can deadlock.
type accountLocks struct {
	mu    sync.Mutex
	locks map[solana.PublicKey]*sync.Mutex
}

func newAccountLocks() *accountLocks {
	return &accountLocks{locks: make(map[solana.PublicKey]*sync.Mutex)}
}

func (l *accountLocks) get(addr solana.PublicKey) *sync.Mutex {
	l.mu.Lock()
	defer l.mu.Unlock()
	m, ok := l.locks[addr]
	if !ok {
		m = new(sync.Mutex)
		l.locks[addr] = m
	}
	return m
}

// lock acquires every address once and returns the release func.
func (l *accountLocks) lock(addrs []solana.PublicKey) (unlock func()) {
	sorted := append([]solana.PublicKey(nil), addrs...)
	sort.Slice(sorted, func(i, j int) bool {
		return bytes.Compare(sorted[i][:], sorted[j][:]) < 0
	})

	held := make([]*sync.Mutex, 0, len(sorted))
	for i, addr := range sorted {
		if i > 0 && sorted[i-1] == addr {
			continue
		}
		m := l.get(addr)
		m.Lock()
		held = append(held, m)
	}
	return func() {
		for i := len(held) - 1; i >= 0; i-- {
			held[i].Unlock()
		}
	}
}
