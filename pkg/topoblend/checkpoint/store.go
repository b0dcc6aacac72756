// Package checkpoint persists blend progress so an interrupted run can be
// resumed from the last completed task.
package checkpoint

import (
	"errors"
	"time"
)

// Store keeps serialized checkpoints addressed by run ID and the global
// tick they were taken at. Implementations are safe for concurrent use.
type Store interface {
	// Save writes data for (runID, globalTime), replacing any earlier copy.
	Save(runID string, globalTime int, data []byte) error

	// Load reads one checkpoint, or fails with ErrNotFound.
	Load(runID string, globalTime int) ([]byte, error)

	// Latest reads the checkpoint with the highest tick, or fails with
	// ErrNotFound when the run has none.
	Latest(runID string) ([]byte, Info, error)

	// List describes a run's checkpoints by ascending tick. An unknown run
	// gives an empty list.
	List(runID string) ([]Info, error)

	DeleteRun(runID string) error

	Close() error
}

// Info describes a stored checkpoint without its payload.
type Info struct {
	RunID      string
	GlobalTime int
	Timestamp  time.Time
	Size       int64
}

var (
	ErrNotFound    = errors.New("checkpoint not found")
	ErrStoreClosed = errors.New("checkpoint store closed")
)
