package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/ragworks/finchat/internal/domain"
)

// TurnRecord is one finalized turn as persisted for the history views. The
// live session state stays in memory; this store is a write-behind audit
// trail and never feeds a session back.
type TurnRecord struct {
	ID         uuid.UUID          `json:"id"`
	SessionKey string             `json:"session_key"`
	Question   string             `json:"question"`
	Answer     string             `json:"answer"`
	Context    string             `json:"context,omitempty"`
	Company    string             `json:"company,omitempty"`
	Outcome    domain.TurnOutcome `json:"outcome"`
	Info       string             `json:"info,omitempty"`
	HasChart   bool               `json:"has_chart"`
	CreatedAt  time.Time          `json:"created_at"`
}

type TurnStore struct {
	db *pgxpool.Pool
}

func NewTurnStore(db *pgxpool.Pool) *TurnStore {
	return &TurnStore{db: db}
}

// Record persists the final message of a turn.
func (s *TurnStore) Record(ctx context.Context, sessionKey string, msg domain.Message) error {
	rec := TurnRecord{
		ID:         uuid.New(),
		SessionKey: sessionKey,
		Question:   msg.UserQuestion,
		Answer:     msg.Content,
		Context:    msg.Context,
		HasChart:   msg.Chart != nil,
	}
	if msg.Validation != nil {
		rec.Company = msg.Validation.Company
		rec.Outcome = msg.Validation.Outcome()
		rec.Info = msg.Validation.Info
	}

	_, err := s.db.Exec(ctx, `
		INSERT INTO turns (id, session_key, question, answer, context, company, outcome, info, has_chart)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		rec.ID, rec.SessionKey, rec.Question, rec.Answer, rec.Context,
		rec.Company, string(rec.Outcome), rec.Info, rec.HasChart,
	)
	if err != nil {
		return fmt.Errorf("insert turn: %w", err)
	}
	return nil
}

// Recent returns the latest turns of a session, newest first.
func (s *TurnStore) Recent(ctx context.Context, sessionKey string, limit int) ([]TurnRecord, error) {
	rows, err := s.db.Query(ctx, `
		SELECT id, session_key, question, answer, context, company, outcome, info, has_chart, created_at
		FROM turns
		WHERE session_key = $1
		ORDER BY created_at DESC
		LIMIT $2`,
		sessionKey, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("query turns: %w", err)
	}
	defer rows.Close()

	var records []TurnRecord
	for rows.Next() {
		var rec TurnRecord
		var outcome string
		if err := rows.Scan(&rec.ID, &rec.SessionKey, &rec.Question, &rec.Answer, &rec.Context,
			&rec.Company, &outcome, &rec.Info, &rec.HasChart, &rec.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan turn: %w", err)
		}
		rec.Outcome = domain.TurnOutcome(outcome)
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate turns: %w", err)
	}
	return records, nil
}
