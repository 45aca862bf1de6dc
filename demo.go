package peginsertion

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"
)

// A DemoRecorder passively logs the observation, action,
// and reward of every step in an episode.
type DemoRecorder interface {
	// Reset discards the buffer and starts a new demo.
	Reset()

	// AddInitial logs the first observation of an
	// episode, before any action has been taken.
	AddInitial(ob *Observation)

	// Add logs one step.
	Add(ob *Observation, action []float64, reward float64)

	// Save persists the buffered episode under the given
	// name.
	Save(name string) error
}

// A DemoStep is one recorded entry of a demo.
//
// The initial entry of an episode has a nil action and a
// zero reward.
type DemoStep struct {
	Ob     *Observation `json:"ob"`
	Action []float64    `json:"action,omitempty"`
	Reward float64      `json:"reward"`
}

const demoSchema = `
CREATE TABLE IF NOT EXISTS episodes (
	episode_id   TEXT PRIMARY KEY,
	name         TEXT NOT NULL,
	created_at   TEXT NOT NULL,
	num_steps    INTEGER NOT NULL,
	total_reward REAL NOT NULL
);

CREATE TABLE IF NOT EXISTS steps (
	episode_id  TEXT NOT NULL,
	step_idx    INTEGER NOT NULL,
	ob_json     TEXT NOT NULL,
	action_json TEXT,
	reward      REAL NOT NULL,
	PRIMARY KEY (episode_id, step_idx),
	FOREIGN KEY (episode_id) REFERENCES episodes(episode_id)
);
`

// A SQLiteRecorder is a DemoRecorder that buffers the
// episode in memory and persists it to a SQLite database
// on Save.
type SQLiteRecorder struct {
	db    *sql.DB
	steps []DemoStep
}

// NewSQLiteRecorder opens (or creates) the demo database
// demos.db under dir and runs migrations.
func NewSQLiteRecorder(dir string) (*SQLiteRecorder, error) {
	if dir == "" {
		dir = "."
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("open demo store: %w", err)
	}
	db, err := sql.Open("sqlite", filepath.Join(dir, "demos.db"))
	if err != nil {
		return nil, fmt.Errorf("open demo store: %w", err)
	}
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("demo store pragma: %w", err)
	}
	if _, err := db.Exec(demoSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("demo store migrate: %w", err)
	}
	return &SQLiteRecorder{db: db}, nil
}

// Reset discards the buffered episode.
func (s *SQLiteRecorder) Reset() {
	s.steps = nil
}

// AddInitial buffers an episode's first observation.
func (s *SQLiteRecorder) AddInitial(ob *Observation) {
	s.steps = append(s.steps, DemoStep{Ob: ob})
}

// Add buffers one step.
func (s *SQLiteRecorder) Add(ob *Observation, action []float64, reward float64) {
	s.steps = append(s.steps, DemoStep{Ob: ob, Action: action, Reward: reward})
}

// Save writes the buffered episode to the database in a
// single transaction.
// The buffer is kept, so a demo may be saved more than
// once under different names.
func (s *SQLiteRecorder) Save(name string) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("save demo: %w", err)
	}
	defer tx.Rollback()

	var total float64
	var numSteps int
	for _, st := range s.steps {
		total += st.Reward
		if st.Action != nil {
			numSteps++
		}
	}

	id := uuid.NewString()
	_, err = tx.Exec(
		`INSERT INTO episodes (episode_id, name, created_at, num_steps, total_reward)
		 VALUES (?, ?, ?, ?, ?)`,
		id, name, time.Now().UTC().Format(time.RFC3339), numSteps, total)
	if err != nil {
		return fmt.Errorf("save demo: %w", err)
	}

	for i, st := range s.steps {
		obJSON, err := json.Marshal(st.Ob)
		if err != nil {
			return fmt.Errorf("save demo: %w", err)
		}
		var actJSON interface{}
		if st.Action != nil {
			data, err := json.Marshal(st.Action)
			if err != nil {
				return fmt.Errorf("save demo: %w", err)
			}
			actJSON = string(data)
		}
		_, err = tx.Exec(
			`INSERT INTO steps (episode_id, step_idx, ob_json, action_json, reward)
			 VALUES (?, ?, ?, ?, ?)`,
			id, i, string(obJSON), actJSON, st.Reward)
		if err != nil {
			return fmt.Errorf("save demo: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("save demo: %w", err)
	}
	return nil
}

// Close closes the underlying database.
func (s *SQLiteRecorder) Close() error {
	return s.db.Close()
}
