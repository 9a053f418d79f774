// Package store provides Postgres persistence for the gallery and the
// detection log.
package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"facewatch/pkg/emotion"
	"facewatch/pkg/gallery"
	"facewatch/pkg/history"
)

// Postgres implements gallery.Store and history.Store on one database.
type Postgres struct {
	db *sql.DB
}

// Open connects to the database and verifies the connection.
func Open(dsn string) (*Postgres, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	return &Postgres{db: db}, nil
}

// NewPostgres wraps an existing connection. Used by tests.
func NewPostgres(db *sql.DB) *Postgres {
	return &Postgres{db: db}
}

// Init creates the schema if it does not exist.
func (s *Postgres) Init(ctx context.Context) error {
	schema := `
		CREATE TABLE IF NOT EXISTS users (
			id            UUID PRIMARY KEY,
			name          TEXT NOT NULL UNIQUE,
			embedding     FLOAT8[] NOT NULL,
			registered_at TIMESTAMPTZ NOT NULL
		);
		CREATE TABLE IF NOT EXISTS detections (
			id         BIGSERIAL PRIMARY KEY,
			ts         TIMESTAMPTZ NOT NULL,
			user_name  TEXT,
			similarity FLOAT8 NOT NULL,
			emotion    TEXT NOT NULL,
			motion     FLOAT8 NOT NULL,
			is_known   BOOLEAN NOT NULL
		);
		CREATE INDEX IF NOT EXISTS detections_ts_idx ON detections (ts DESC);
	`
	if _, err := s.db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("%w: init schema: %v", history.ErrStorageUnavailable, err)
	}
	return nil
}

// SaveUser persists one registered user.
func (s *Postgres) SaveUser(ctx context.Context, u gallery.User) error {
	query := `
		INSERT INTO users (id, name, embedding, registered_at)
		VALUES ($1, $2, $3, $4)
	`
	emb := make([]float64, len(u.Embedding))
	for i, v := range u.Embedding {
		emb[i] = float64(v)
	}

	if _, err := s.db.ExecContext(ctx, query,
		u.ID, u.Name, pq.Array(emb), u.RegisteredAt); err != nil {
		return fmt.Errorf("%w: insert user: %v", history.ErrStorageUnavailable, err)
	}
	return nil
}

// LoadUsers returns every registered user, oldest first.
func (s *Postgres) LoadUsers(ctx context.Context) ([]gallery.User, error) {
	query := `
		SELECT id, name, embedding, registered_at
		FROM users
		ORDER BY registered_at
	`
	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("%w: query users: %v", history.ErrStorageUnavailable, err)
	}
	defer rows.Close()

	var users []gallery.User
	for rows.Next() {
		var (
			u   gallery.User
			id  uuid.UUID
			emb []float64
		)
		if err := rows.Scan(&id, &u.Name, pq.Array(&emb), &u.RegisteredAt); err != nil {
			return nil, fmt.Errorf("scan user: %w", err)
		}
		u.ID = id
		u.Embedding = make([]float32, len(emb))
		for i, v := range emb {
			u.Embedding[i] = float32(v)
		}
		users = append(users, u)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: iterate users: %v", history.ErrStorageUnavailable, err)
	}
	return users, nil
}

// Append records one detection event.
func (s *Postgres) Append(ctx context.Context, e history.Event) error {
	query := `
		INSERT INTO detections (ts, user_name, similarity, emotion, motion, is_known)
		VALUES ($1, $2, $3, $4, $5, $6)
	`
	var user sql.NullString
	if e.User != "" {
		user = sql.NullString{String: e.User, Valid: true}
	}

	if _, err := s.db.ExecContext(ctx, query,
		e.Timestamp, user, e.Similarity, string(e.Emotion), e.Motion, e.Known); err != nil {
		return fmt.Errorf("%w: insert detection: %v", history.ErrStorageUnavailable, err)
	}
	return nil
}

// Query returns the most recent events, newest first, within the optional
// half-open [from, to) range.
func (s *Postgres) Query(ctx context.Context, limit int, from, to time.Time) ([]history.Event, error) {
	limit = history.ClampLimit(limit)

	query := `
		SELECT ts, user_name, similarity, emotion, motion, is_known
		FROM detections
		WHERE ($2::timestamptz IS NULL OR ts >= $2)
		  AND ($3::timestamptz IS NULL OR ts < $3)
		ORDER BY ts DESC
		LIMIT $1
	`
	rows, err := s.db.QueryContext(ctx, query, limit, nullTime(from), nullTime(to))
	if err != nil {
		return nil, fmt.Errorf("%w: query detections: %v", history.ErrStorageUnavailable, err)
	}
	defer rows.Close()

	var events []history.Event
	for rows.Next() {
		var (
			e       history.Event
			user    sql.NullString
			emotionLabel string
		)
		if err := rows.Scan(&e.Timestamp, &user, &e.Similarity,
			&emotionLabel, &e.Motion, &e.Known); err != nil {
			return nil, fmt.Errorf("scan detection: %w", err)
		}
		e.User = user.String
		e.Emotion = emotion.Label(emotionLabel)
		events = append(events, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: iterate detections: %v", history.ErrStorageUnavailable, err)
	}
	return events, nil
}

// Aggregate recomputes statistics from the stored log.
func (s *Postgres) Aggregate(ctx context.Context) (history.Stats, error) {
	stats := history.Stats{EmotionCounts: emptyCounts()}

	summary := `
		SELECT
			COUNT(*),
			COUNT(*) FILTER (WHERE is_known),
			COUNT(*) FILTER (WHERE NOT is_known),
			COALESCE(AVG(motion), 0),
			COUNT(*) FILTER (WHERE ts > NOW() - INTERVAL '24 hours')
		FROM detections
	`
	if err := s.db.QueryRowContext(ctx, summary).Scan(
		&stats.TotalDetections, &stats.Known, &stats.Unknown,
		&stats.AverageMotion, &stats.Recent); err != nil {
		return history.Stats{}, fmt.Errorf("%w: aggregate detections: %v",
			history.ErrStorageUnavailable, err)
	}

	byEmotion := `
		SELECT emotion, COUNT(*)
		FROM detections
		GROUP BY emotion
	`
	rows, err := s.db.QueryContext(ctx, byEmotion)
	if err != nil {
		return history.Stats{}, fmt.Errorf("%w: aggregate emotions: %v",
			history.ErrStorageUnavailable, err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			label string
			count int
		)
		if err := rows.Scan(&label, &count); err != nil {
			return history.Stats{}, fmt.Errorf("scan emotion count: %w", err)
		}
		stats.EmotionCounts[emotion.Label(label)] = count
	}
	if err := rows.Err(); err != nil {
		return history.Stats{}, fmt.Errorf("%w: iterate emotion counts: %v",
			history.ErrStorageUnavailable, err)
	}
	return stats, nil
}

// Close releases the database connection.
func (s *Postgres) Close() error {
	return s.db.Close()
}

func nullTime(t time.Time) sql.NullTime {
	if t.IsZero() {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: t, Valid: true}
}

func emptyCounts() map[emotion.Label]int {
	counts := make(map[emotion.Label]int, len(emotion.Labels))
	for _, l := range emotion.Labels {
		counts[l] = 0
	}
	return counts
}
