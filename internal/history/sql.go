package history

func buildCreateRunsTable() string {
	return `CREATE TABLE IF NOT EXISTS runs (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		event TEXT NOT NULL,
		heat TEXT NOT NULL,
		lap_count INTEGER NOT NULL,
		recorded_at INTEGER NOT NULL);`
}

func buildCreateLapsTable() string {
	return `CREATE TABLE IF NOT EXISTS laps (
		run_id INTEGER NOT NULL,
		lap_index INTEGER NOT NULL,
		duration_ms INTEGER NOT NULL,
		total_ms INTEGER NOT NULL,
		captured_ms INTEGER NOT NULL,
		PRIMARY KEY (run_id, lap_index),
		FOREIGN KEY (run_id) REFERENCES runs(id));`
}

func buildInsertRun() string {
	return `INSERT INTO runs (event, heat, lap_count, recorded_at) VALUES (?, ?, ?, ?)`
}

func buildInsertLap() string {
	return `INSERT INTO laps (run_id, lap_index, duration_ms, total_ms, captured_ms) VALUES (?, ?, ?, ?, ?)`
}

func buildSelectRecentRuns() string {
	return `SELECT id, event, heat, lap_count, recorded_at FROM runs ORDER BY id DESC LIMIT ?`
}

func buildSelectRunLaps() string {
	return `SELECT lap_index, duration_ms, total_ms, captured_ms FROM laps WHERE run_id = ? ORDER BY lap_index`
}
