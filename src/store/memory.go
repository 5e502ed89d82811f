package store

import (
	"context"
	"sync"

	"halalinvest/src/ledger"
)

// Memory keeps snapshots in process. It backs tests and SNAPSHOT_STORE=memory.
type Memory struct {
	mu        sync.Mutex
	snapshots map[uint]ledger.Snapshot
}

func NewMemory() *Memory {
	return &Memory{snapshots: make(map[uint]ledger.Snapshot)}
}

func (m *Memory) Save(_ context.Context, snapshot ledger.Snapshot) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if current, ok := m.snapshots[snapshot.AccountID]; ok && current.Version >= snapshot.Version {
		return nil
	}
	m.snapshots[snapshot.AccountID] = snapshot
	return nil
}

func (m *Memory) Load(_ context.Context, accountID uint) (*ledger.Snapshot, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	snapshot, ok := m.snapshots[accountID]
	if !ok {
		return nil, nil
	}
	return &snapshot, nil
}
