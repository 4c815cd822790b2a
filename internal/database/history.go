// internal/database/history.go
package database

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jason-s-yu/taki/internal/models"
)

// Session statuses stored in game_sessions.status.
const (
	StatusInProgress = "in_progress"
	StatusCompleted  = "completed"
	StatusAbandoned  = "abandoned"
)

// ErrSessionNotFound is returned when no game_sessions row matches.
var ErrSessionNotFound = errors.New("game session not found")

var schema = []string{
	`CREATE TABLE IF NOT EXISTS game_sessions (
		id         UUID PRIMARY KEY,
		room_id    UUID,
		status     TEXT NOT NULL DEFAULT 'in_progress',
		start_time TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		end_time   TIMESTAMPTZ
	)`,
	`CREATE TABLE IF NOT EXISTS game_actions (
		game_id        UUID NOT NULL REFERENCES game_sessions (id) ON DELETE CASCADE,
		action_index   INT NOT NULL,
		actor_user_id  UUID,
		action_type    TEXT NOT NULL,
		action_payload JSONB,
		created_at     TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		PRIMARY KEY (game_id, action_index)
	)`,
}

// Session is one row of game_sessions plus its action count.
type Session struct {
	ID      uuid.UUID
	RoomID  uuid.UUID
	Status  string
	Actions int
}

// HistoryStore persists game action records written by the historian.
type HistoryStore struct {
	pool *pgxpool.Pool
}

func NewHistoryStore(pool *pgxpool.Pool) *HistoryStore {
	return &HistoryStore{pool: pool}
}

// EnsureSchema creates the history tables when missing.
func (s *HistoryStore) EnsureSchema(ctx context.Context) error {
	for _, stmt := range schema {
		if _, err := s.pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("ensure schema: %w", err)
		}
	}
	return nil
}

// InsertActions writes a batch in a single transaction. Sessions are created
// on first sight and completed by an action_end_game record. Redelivered
// records (same game and index) are ignored.
func (s *HistoryStore) InsertActions(ctx context.Context, recs []models.ActionRecord) error {
	if len(recs) == 0 {
		return nil
	}
	return pgx.BeginTxFunc(ctx, s.pool, pgx.TxOptions{}, func(tx pgx.Tx) error {
		for _, rec := range recs {
			if err := insertActionTx(ctx, tx, rec); err != nil {
				return fmt.Errorf("insert action %s#%d: %w", rec.GameID, rec.ActionIndex, err)
			}
		}
		return nil
	})
}

func insertActionTx(ctx context.Context, tx pgx.Tx, rec models.ActionRecord) error {
	at := time.UnixMilli(rec.Timestamp)
	if rec.Timestamp == 0 {
		at = time.Now()
	}

	upsertSessionQ := `
		INSERT INTO game_sessions (id, room_id, status, start_time)
		VALUES ($1, $2, 'in_progress', $3)
		ON CONFLICT (id) DO NOTHING
	`
	if _, err := tx.Exec(ctx, upsertSessionQ, rec.GameID, rec.RoomID, at); err != nil {
		return err
	}

	payload, err := json.Marshal(rec.ActionPayload)
	if err != nil {
		return err
	}
	insertQ := `
		INSERT INTO game_actions (
			game_id, action_index, actor_user_id, action_type, action_payload, created_at
		) VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (game_id, action_index) DO NOTHING
	`
	if _, err := tx.Exec(ctx, insertQ, rec.GameID, rec.ActionIndex, rec.ActorUserID, rec.ActionType, payload, at); err != nil {
		return err
	}

	if rec.ActionType == models.ActionTypeEndGame {
		finalizeQ := `
			UPDATE game_sessions
			SET status = 'completed', end_time = $2
			WHERE id = $1 AND status = 'in_progress'
		`
		if _, err := tx.Exec(ctx, finalizeQ, rec.GameID, at); err != nil {
			return err
		}
	}
	return nil
}

// MarkAbandoned flags a session still in progress as abandoned. It reports
// whether a row changed.
func (s *HistoryStore) MarkAbandoned(ctx context.Context, gameID uuid.UUID) (bool, error) {
	q := `
		UPDATE game_sessions
		SET status = 'abandoned', end_time = NOW()
		WHERE id = $1 AND status = 'in_progress'
	`
	tag, err := s.pool.Exec(ctx, q, gameID)
	if err != nil {
		return false, fmt.Errorf("mark %s abandoned: %w", gameID, err)
	}
	return tag.RowsAffected() > 0, nil
}

// GetSession loads a session and counts its recorded actions.
func (s *HistoryStore) GetSession(ctx context.Context, gameID uuid.UUID) (Session, error) {
	q := `
		SELECT s.id, s.room_id, s.status, COUNT(a.action_index)
		FROM game_sessions s
		LEFT JOIN game_actions a ON a.game_id = s.id
		WHERE s.id = $1
		GROUP BY s.id
	`
	var sess Session
	err := s.pool.QueryRow(ctx, q, gameID).Scan(&sess.ID, &sess.RoomID, &sess.Status, &sess.Actions)
	if errors.Is(err, pgx.ErrNoRows) {
		return Session{}, ErrSessionNotFound
	}
	if err != nil {
		return Session{}, err
	}
	return sess, nil
}
