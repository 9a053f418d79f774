package store

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"facewatch/pkg/emotion"
	"facewatch/pkg/gallery"
	"facewatch/pkg/history"
)

func setupMockDB(t *testing.T) (*sql.DB, sqlmock.Sqlmock, *Postgres) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	return db, mock, NewPostgres(db)
}

func TestSaveUser(t *testing.T) {
	db, mock, s := setupMockDB(t)
	defer db.Close()

	u := gallery.User{
		ID:           uuid.New(),
		Name:         "alice",
		Embedding:    []float32{0.1, 0.2, 0.3},
		RegisteredAt: time.Now(),
	}

	mock.ExpectExec(`INSERT INTO users`).
		WithArgs(u.ID, u.Name, sqlmock.AnyArg(), u.RegisteredAt).
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, s.SaveUser(context.Background(), u))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSaveUser_StorageUnavailable(t *testing.T) {
	db, mock, s := setupMockDB(t)
	defer db.Close()

	mock.ExpectExec(`INSERT INTO users`).
		WillReturnError(errors.New("connection refused"))

	err := s.SaveUser(context.Background(), gallery.User{ID: uuid.New(), Name: "bob"})
	assert.ErrorIs(t, err, history.ErrStorageUnavailable)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestLoadUsers(t *testing.T) {
	db, mock, s := setupMockDB(t)
	defer db.Close()

	id1 := uuid.New()
	id2 := uuid.New()
	now := time.Now()

	rows := sqlmock.NewRows([]string{"id", "name", "embedding", "registered_at"}).
		AddRow(id1, "alice", []byte("{0.5,0.5}"), now.Add(-time.Hour)).
		AddRow(id2, "bob", []byte("{0.1,0.9}"), now)

	mock.ExpectQuery(`SELECT id, name, embedding, registered_at`).
		WillReturnRows(rows)

	users, err := s.LoadUsers(context.Background())
	require.NoError(t, err)
	require.Len(t, users, 2)

	assert.Equal(t, "alice", users[0].Name)
	assert.Equal(t, id1, users[0].ID)
	assert.Equal(t, []float32{0.5, 0.5}, users[0].Embedding)
	assert.Equal(t, "bob", users[1].Name)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAppend(t *testing.T) {
	db, mock, s := setupMockDB(t)
	defer db.Close()

	e := history.Event{
		Timestamp:  time.Now(),
		User:       "alice",
		Similarity: 91.5,
		Emotion:    emotion.Happy,
		Motion:     3.2,
		Known:      true,
	}

	mock.ExpectExec(`INSERT INTO detections`).
		WithArgs(e.Timestamp, sqlmock.AnyArg(), e.Similarity, "happy", e.Motion, true).
		WillReturnResult(sqlmock.NewResult(1, 1))

	require.NoError(t, s.Append(context.Background(), e))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAppend_StorageUnavailableSurfaced(t *testing.T) {
	db, mock, s := setupMockDB(t)
	defer db.Close()

	mock.ExpectExec(`INSERT INTO detections`).
		WillReturnError(&pq.Error{Code: "57P01"})

	err := s.Append(context.Background(), history.Event{Timestamp: time.Now()})
	assert.ErrorIs(t, err, history.ErrStorageUnavailable)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestQuery(t *testing.T) {
	db, mock, s := setupMockDB(t)
	defer db.Close()

	now := time.Now()
	rows := sqlmock.NewRows([]string{"ts", "user_name", "similarity", "emotion", "motion", "is_known"}).
		AddRow(now, "alice", 92.0, "happy", 1.5, true).
		AddRow(now.Add(-time.Second), nil, 40.0, "neutral", 0.2, false)

	mock.ExpectQuery(`SELECT ts, user_name, similarity, emotion, motion, is_known`).
		WithArgs(10, sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnRows(rows)

	events, err := s.Query(context.Background(), 10, time.Time{}, time.Time{})
	require.NoError(t, err)
	require.Len(t, events, 2)

	assert.Equal(t, "alice", events[0].User)
	assert.True(t, events[0].Known)
	assert.Equal(t, emotion.Happy, events[0].Emotion)

	// Unknown face: empty user, best similarity still reported.
	assert.Equal(t, "", events[1].User)
	assert.False(t, events[1].Known)
	assert.Equal(t, 40.0, events[1].Similarity)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestQuery_ClampsLimit(t *testing.T) {
	db, mock, s := setupMockDB(t)
	defer db.Close()

	mock.ExpectQuery(`SELECT ts, user_name`).
		WithArgs(history.MaxQueryLimit, sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows(
			[]string{"ts", "user_name", "similarity", "emotion", "motion", "is_known"}))

	_, err := s.Query(context.Background(), history.MaxQueryLimit*10, time.Time{}, time.Time{})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAggregate(t *testing.T) {
	db, mock, s := setupMockDB(t)
	defer db.Close()

	mock.ExpectQuery(`SELECT\s+COUNT`).
		WillReturnRows(sqlmock.NewRows(
			[]string{"count", "known", "unknown", "avg", "recent"}).
			AddRow(12, 9, 3, 4.5, 7))

	mock.ExpectQuery(`SELECT emotion, COUNT`).
		WillReturnRows(sqlmock.NewRows([]string{"emotion", "count"}).
			AddRow("happy", 8).
			AddRow("neutral", 4))

	stats, err := s.Aggregate(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 12, stats.TotalDetections)
	assert.Equal(t, 9, stats.Known)
	assert.Equal(t, 3, stats.Unknown)
	assert.Equal(t, 4.5, stats.AverageMotion)
	assert.Equal(t, 7, stats.Recent)
	assert.Equal(t, 8, stats.EmotionCounts[emotion.Happy])
	assert.Equal(t, 0, stats.EmotionCounts[emotion.Sad])
	assert.Len(t, stats.EmotionCounts, 7)
	assert.NoError(t, mock.ExpectationsWereMet())
}
