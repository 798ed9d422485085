package store

// runMigrations executes all database migrations.
func (s *Store) runMigrations() error {
	migrations := []string{
		// One row per explosion episode.
		`CREATE TABLE IF NOT EXISTS episodes (
			id TEXT PRIMARY KEY,
			started_at DATETIME NOT NULL,
			ends_at DATETIME NOT NULL,
			particles INTEGER NOT NULL,
			stars INTEGER NOT NULL,
			tones TEXT NOT NULL DEFAULT '[]',
			finished_at DATETIME,
			cancelled INTEGER NOT NULL DEFAULT 0
		)`,

		// One row per state machine transition. Enter rows point at their episode.
		`CREATE TABLE IF NOT EXISTS transitions (
			id TEXT PRIMARY KEY,
			event TEXT NOT NULL CHECK(event IN ('ENTER_TRANSFORMED', 'EXIT_TRANSFORMED')),
			raw TEXT NOT NULL,
			open_fingers INTEGER NOT NULL,
			episode_id TEXT REFERENCES episodes(id) ON DELETE SET NULL,
			occurred_at DATETIME NOT NULL
		)`,

		`CREATE INDEX IF NOT EXISTS idx_transitions_occurred_at ON transitions(occurred_at)`,
		`CREATE INDEX IF NOT EXISTS idx_episodes_started_at ON episodes(started_at)`,
	}

	for _, migration := range migrations {
		if _, err := s.db.Exec(migration); err != nil {
			return err
		}
	}

	return nil
}
