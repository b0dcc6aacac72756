package checkpoint

import (
	"slices"
	"sync"
	"time"
)

// MemoryStore holds checkpoints in process memory. Tests and dry runs use
// it; nothing survives the process.
type MemoryStore struct {
	mu     sync.RWMutex
	runs   map[string][]entry // ordered by globalTime
	closed bool
}

type entry struct {
	globalTime int
	savedAt    time.Time
	data       []byte
}

func (e entry) info(runID string) Info {
	return Info{RunID: runID, GlobalTime: e.globalTime, Timestamp: e.savedAt, Size: int64(len(e.data))}
}

// NewMemoryStore returns an empty store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{runs: make(map[string][]entry)}
}

func (m *MemoryStore) Save(runID string, globalTime int, data []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return ErrStoreClosed
	}

	e := entry{globalTime: globalTime, savedAt: time.Now().UTC(), data: slices.Clone(data)}
	run := m.runs[runID]
	i, found := slices.BinarySearchFunc(run, globalTime, byTime)
	if found {
		run[i] = e
	} else {
		m.runs[runID] = slices.Insert(run, i, e)
	}
	return nil
}

func byTime(e entry, gt int) int { return e.globalTime - gt }

func (m *MemoryStore) Load(runID string, globalTime int) ([]byte, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.closed {
		return nil, ErrStoreClosed
	}

	run := m.runs[runID]
	i, found := slices.BinarySearchFunc(run, globalTime, byTime)
	if !found {
		return nil, ErrNotFound
	}
	return slices.Clone(run[i].data), nil
}

func (m *MemoryStore) Latest(runID string) ([]byte, Info, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.closed {
		return nil, Info{}, ErrStoreClosed
	}

	run := m.runs[runID]
	if len(run) == 0 {
		return nil, Info{}, ErrNotFound
	}
	last := run[len(run)-1]
	return slices.Clone(last.data), last.info(runID), nil
}

func (m *MemoryStore) List(runID string) ([]Info, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.closed {
		return nil, ErrStoreClosed
	}

	run := m.runs[runID]
	infos := make([]Info, len(run))
	for i, e := range run {
		infos[i] = e.info(runID)
	}
	return infos, nil
}

func (m *MemoryStore) DeleteRun(runID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return ErrStoreClosed
	}
	delete(m.runs, runID)
	return nil
}

// Close drops every checkpoint; later calls fail with ErrStoreClosed.
func (m *MemoryStore) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	m.runs = nil
	return nil
}

// Len counts checkpoints over all runs.
func (m *MemoryStore) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	n := 0
	for _, run := range m.runs {
		n += len(run)
	}
	return n
}
