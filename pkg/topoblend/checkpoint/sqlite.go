package checkpoint

import (
	"database/sql"
	"errors"
	"fmt"
	"sync"
	"time"

	_ "modernc.org/sqlite" // registers the "sqlite" driver
)

const (
	sqlSchema = `CREATE TABLE IF NOT EXISTS blend_checkpoints (
		run_id      TEXT    NOT NULL,
		global_time INTEGER NOT NULL,
		saved_at    TEXT    NOT NULL,
		payload     BLOB    NOT NULL,
		PRIMARY KEY (run_id, global_time)
	)`
	sqlUpsert = `INSERT INTO blend_checkpoints (run_id, global_time, saved_at, payload)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(run_id, global_time) DO UPDATE SET saved_at = excluded.saved_at, payload = excluded.payload`
	sqlAt     = `SELECT payload FROM blend_checkpoints WHERE run_id = ? AND global_time = ?`
	sqlNewest = `SELECT global_time, saved_at, payload FROM blend_checkpoints
		WHERE run_id = ? ORDER BY global_time DESC LIMIT 1`
	sqlIndex = `SELECT global_time, saved_at, LENGTH(payload) FROM blend_checkpoints
		WHERE run_id = ? ORDER BY global_time`
	sqlDrop = `DELETE FROM blend_checkpoints WHERE run_id = ?`
)

// SQLiteStore keeps checkpoints in a single SQLite file through the pure Go
// modernc driver, so the CLI can resume a run in a later process.
type SQLiteStore struct {
	mu     sync.RWMutex
	db     *sql.DB
	closed bool
}

// NewSQLiteStore opens path, creating the database and table on first use.
// ":memory:" gives a throwaway database.
func NewSQLiteStore(path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open checkpoint db %s: %w", path, err)
	}
	// One connection: every :memory: connection is its own database.
	db.SetMaxOpenConns(1)

	for _, stmt := range []string{"PRAGMA journal_mode=WAL", sqlSchema} {
		if _, err := db.Exec(stmt); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("init checkpoint db %s: %w", path, err)
		}
	}
	return &SQLiteStore{db: db}, nil
}

// read runs fn under the read lock unless the store is closed.
func (s *SQLiteStore) read(fn func() error) error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return ErrStoreClosed
	}
	return fn()
}

func (s *SQLiteStore) write(fn func() error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrStoreClosed
	}
	return fn()
}

func (s *SQLiteStore) Save(runID string, globalTime int, data []byte) error {
	return s.write(func() error {
		savedAt := time.Now().UTC().Format(time.RFC3339Nano)
		if _, err := s.db.Exec(sqlUpsert, runID, globalTime, savedAt, data); err != nil {
			return fmt.Errorf("save checkpoint %s@%d: %w", runID, globalTime, err)
		}
		return nil
	})
}

func (s *SQLiteStore) Load(runID string, globalTime int) ([]byte, error) {
	var data []byte
	err := s.read(func() error {
		err := s.db.QueryRow(sqlAt, runID, globalTime).Scan(&data)
		switch {
		case errors.Is(err, sql.ErrNoRows):
			return ErrNotFound
		case err != nil:
			return fmt.Errorf("load checkpoint %s@%d: %w", runID, globalTime, err)
		}
		return nil
	})
	return data, err
}

func (s *SQLiteStore) Latest(runID string) ([]byte, Info, error) {
	var (
		data    []byte
		savedAt string
		info    = Info{RunID: runID}
	)
	err := s.read(func() error {
		err := s.db.QueryRow(sqlNewest, runID).Scan(&info.GlobalTime, &savedAt, &data)
		switch {
		case errors.Is(err, sql.ErrNoRows):
			return ErrNotFound
		case err != nil:
			return fmt.Errorf("load latest checkpoint of %s: %w", runID, err)
		}
		return nil
	})
	if err != nil {
		return nil, Info{}, err
	}
	info.Timestamp = parseSavedAt(savedAt)
	info.Size = int64(len(data))
	return data, info, nil
}

func (s *SQLiteStore) List(runID string) ([]Info, error) {
	infos := []Info{}
	err := s.read(func() error {
		rows, err := s.db.Query(sqlIndex, runID)
		if err != nil {
			return fmt.Errorf("list checkpoints of %s: %w", runID, err)
		}
		defer rows.Close()

		for rows.Next() {
			info := Info{RunID: runID}
			var savedAt string
			if err := rows.Scan(&info.GlobalTime, &savedAt, &info.Size); err != nil {
				return fmt.Errorf("list checkpoints of %s: %w", runID, err)
			}
			info.Timestamp = parseSavedAt(savedAt)
			infos = append(infos, info)
		}
		return rows.Err()
	})
	if err != nil {
		return nil, err
	}
	return infos, nil
}

func (s *SQLiteStore) DeleteRun(runID string) error {
	return s.write(func() error {
		if _, err := s.db.Exec(sqlDrop, runID); err != nil {
			return fmt.Errorf("delete checkpoints of %s: %w", runID, err)
		}
		return nil
	})
}

// Close closes the database. Calling it again is a no-op.
func (s *SQLiteStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true
	return s.db.Close()
}

func parseSavedAt(v string) time.Time {
	t, _ := time.Parse(time.RFC3339Nano, v)
	return t
}
