package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	// Postgres driver
	_ "github.com/lib/pq"
)

// DB wraps the sql connection pool
type DB struct {
	*sql.DB
}

// New connects to Postgres and verifies the connection
func New(databaseURL string) (*DB, error) {
	db, err := sql.Open("postgres", databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := db.PingContext(ctx); err != nil {
		if closeErr := db.Close(); closeErr != nil {
			_ = closeErr
		}
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &DB{DB: db}, nil
}

// Migrate applies the schema. Idempotent; safe to run on every start.
func (db *DB) Migrate(ctx context.Context) error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS users (
			id UUID PRIMARY KEY,
			email TEXT NOT NULL UNIQUE,
			provider_id TEXT,
			name TEXT,
			email_verified BOOLEAN NOT NULL DEFAULT FALSE,
			created_at TIMESTAMPTZ NOT NULL,
			updated_at TIMESTAMPTZ NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS profiles (
			user_id UUID PRIMARY KEY REFERENCES users(id) ON DELETE CASCADE,
			energy_level INT NOT NULL DEFAULT 3,
			north_star TEXT,
			onboarding_completed BOOLEAN NOT NULL DEFAULT FALSE,
			streak_days INT NOT NULL DEFAULT 0,
			total_tasks_completed INT NOT NULL DEFAULT 0,
			created_at TIMESTAMPTZ NOT NULL,
			updated_at TIMESTAMPTZ NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS tasks (
			id UUID PRIMARY KEY,
			user_id UUID NOT NULL REFERENCES users(id) ON DELETE CASCADE,
			title TEXT NOT NULL,
			description TEXT,
			energy_cost INT NOT NULL,
			estimated_minutes INT NOT NULL,
			priority TEXT NOT NULL,
			category TEXT,
			completed BOOLEAN NOT NULL DEFAULT FALSE,
			created_at TIMESTAMPTZ NOT NULL,
			updated_at TIMESTAMPTZ NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_tasks_user_id ON tasks(user_id)`,
		`CREATE TABLE IF NOT EXISTS energy_entries (
			id UUID PRIMARY KEY,
			user_id UUID NOT NULL REFERENCES users(id) ON DELETE CASCADE,
			ts TIMESTAMPTZ NOT NULL,
			level INT NOT NULL,
			source TEXT NOT NULL,
			confidence INT
		)`,
		`CREATE INDEX IF NOT EXISTS idx_energy_entries_user_ts ON energy_entries(user_id, ts)`,
		`CREATE TABLE IF NOT EXISTS signal_snapshots (
			user_id UUID PRIMARY KEY REFERENCES users(id) ON DELETE CASCADE,
			time_of_day TEXT NOT NULL,
			task_switching_freq INT NOT NULL,
			idle_time_minutes INT NOT NULL,
			completion_speed TEXT NOT NULL,
			late_night_usage BOOLEAN NOT NULL,
			sampled_at TIMESTAMPTZ NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS flow_scores (
			id UUID PRIMARY KEY,
			user_id UUID NOT NULL REFERENCES users(id) ON DELETE CASCADE,
			score_date DATE NOT NULL,
			score INT NOT NULL,
			energy_alignment INT NOT NULL,
			completion_efficiency INT NOT NULL,
			focus_consistency INT NOT NULL,
			calculated_at TIMESTAMPTZ NOT NULL,
			UNIQUE (user_id, score_date)
		)`,
		`CREATE TABLE IF NOT EXISTS reflections (
			id UUID PRIMARY KEY,
			user_id UUID NOT NULL REFERENCES users(id) ON DELETE CASCADE,
			reflection_date DATE NOT NULL,
			summary TEXT NOT NULL,
			energy_drains TEXT NOT NULL DEFAULT '',
			energy_boosts TEXT NOT NULL DEFAULT '',
			reflective_question TEXT NOT NULL DEFAULT '',
			tomorrow_focus TEXT NOT NULL DEFAULT '',
			generated BOOLEAN NOT NULL DEFAULT TRUE,
			created_at TIMESTAMPTZ NOT NULL,
			UNIQUE (user_id, reflection_date)
		)`,
		`CREATE TABLE IF NOT EXISTS cors_config (
			config_key TEXT PRIMARY KEY,
			allowed_origins TEXT NOT NULL,
			allow_credentials BOOLEAN NOT NULL DEFAULT TRUE,
			max_age INT NOT NULL DEFAULT 86400,
			created_at TIMESTAMPTZ NOT NULL,
			updated_at TIMESTAMPTZ NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS ratelimit_config (
			config_key TEXT PRIMARY KEY,
			rate TEXT NOT NULL,
			created_at TIMESTAMPTZ NOT NULL,
			updated_at TIMESTAMPTZ NOT NULL
		)`,
	}

	for _, stmt := range statements {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("failed to run migration: %w", err)
		}
	}
	return nil
}
