package store

// runMigrations executes all database migrations.
func (s *Store) runMigrations() error {
	migrations := []string{
		// Batches table - one row per benchmark session
		`CREATE TABLE IF NOT EXISTS batches (
			id TEXT PRIMARY KEY,
			started_at DATETIME NOT NULL,
			ended_at DATETIME
		)`,

		// Runs table - one row per workflow run within a batch
		`CREATE TABLE IF NOT EXISTS runs (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			batch_id TEXT NOT NULL REFERENCES batches(id) ON DELETE CASCADE,
			run_index INTEGER NOT NULL,
			flow_index INTEGER NOT NULL,
			workflow TEXT NOT NULL,
			family TEXT NOT NULL,
			outcome TEXT NOT NULL CHECK(outcome IN ('completed', 'incomplete', 'not_started', 'failed')),
			started_at DATETIME,
			ended_at DATETIME,
			elapsed_ms INTEGER NOT NULL DEFAULT 0,
			error_count INTEGER NOT NULL DEFAULT 0,
			false_negatives INTEGER NOT NULL DEFAULT 0,
			steps_done INTEGER NOT NULL DEFAULT 0,
			steps INTEGER NOT NULL,
			error TEXT NOT NULL DEFAULT '',
			UNIQUE(batch_id, run_index)
		)`,

		// Run errors table - the mismatch log of each run
		`CREATE TABLE IF NOT EXISTS run_errors (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			run_id INTEGER NOT NULL REFERENCES runs(id) ON DELETE CASCADE,
			at DATETIME NOT NULL,
			step INTEGER NOT NULL,
			expected TEXT NOT NULL,
			observed TEXT NOT NULL,
			kind TEXT NOT NULL
		)`,

		`CREATE INDEX IF NOT EXISTS idx_runs_batch_id ON runs(batch_id)`,
		`CREATE INDEX IF NOT EXISTS idx_run_errors_run_id ON run_errors(run_id)`,
	}

	for _, migration := range migrations {
		if _, err := s.db.Exec(migration); err != nil {
			return err
		}
	}

	return nil
}
