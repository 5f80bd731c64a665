// Package history archives finished runs on the device, so results survive a
// battery swap or a mid-meet reboot.
package history

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/jonboulle/clockwork"
	_ "github.com/mattn/go-sqlite3"
	"github.com/rs/zerolog/log"

	"github.com/azckamp/lanetimer/internal/splits"
)

// Run is one archived race for this device.
type Run struct {
	ID         int64
	Event      string
	Heat       string
	Laps       []splits.Lap
	RecordedAt time.Time
}

// Store persists runs in a local sqlite database.
type Store struct {
	db    *sql.DB
	clock clockwork.Clock
}

// Open opens (creating if needed) the database at path.
func Open(path string, clock clockwork.Clock) (*Store, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("history: open %s: %w", path, err)
	}
	for _, stmt := range []string{buildCreateRunsTable(), buildCreateLapsTable()} {
		if _, err := db.Exec(stmt); err != nil {
			db.Close()
			return nil, fmt.Errorf("history: create schema: %w", err)
		}
	}
	return &Store{db: db, clock: clock}, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

// SaveRun archives one finished run with its laps.
func (s *Store) SaveRun(event, heat string, laps []splits.Lap) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("history: begin: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.Exec(buildInsertRun(), event, heat, len(laps), s.clock.Now().UnixMilli())
	if err != nil {
		return fmt.Errorf("history: insert run: %w", err)
	}
	runID, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("history: run id: %w", err)
	}

	for _, lap := range laps {
		if _, err := tx.Exec(buildInsertLap(), runID, lap.Index, lap.DurationMs, lap.TotalMs, lap.CapturedMs); err != nil {
			return fmt.Errorf("history: insert lap %d: %w", lap.Index, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("history: commit: %w", err)
	}

	log.Info().Int64("run_id", runID).Int("laps", len(laps)).Msg("run archived")
	return nil
}

// RecentRuns returns up to limit runs, newest first, laps included.
func (s *Store) RecentRuns(limit int) ([]Run, error) {
	rows, err := s.db.Query(buildSelectRecentRuns(), limit)
	if err != nil {
		return nil, fmt.Errorf("history: select runs: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		var r Run
		var lapCount int
		var recordedAt int64
		if err := rows.Scan(&r.ID, &r.Event, &r.Heat, &lapCount, &recordedAt); err != nil {
			return nil, fmt.Errorf("history: scan run: %w", err)
		}
		r.RecordedAt = time.UnixMilli(recordedAt)
		runs = append(runs, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("history: iterate runs: %w", err)
	}

	for i := range runs {
		laps, err := s.runLaps(runs[i].ID)
		if err != nil {
			return nil, err
		}
		runs[i].Laps = laps
	}
	return runs, nil
}

func (s *Store) runLaps(runID int64) ([]splits.Lap, error) {
	rows, err := s.db.Query(buildSelectRunLaps(), runID)
	if err != nil {
		return nil, fmt.Errorf("history: select laps: %w", err)
	}
	defer rows.Close()

	var laps []splits.Lap
	for rows.Next() {
		var lap splits.Lap
		if err := rows.Scan(&lap.Index, &lap.DurationMs, &lap.TotalMs, &lap.CapturedMs); err != nil {
			return nil, fmt.Errorf("history: scan lap: %w", err)
		}
		laps = append(laps, lap)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("history: iterate laps: %w", err)
	}
	return laps, nil
}
