package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"
)

// QASession is a generated quiz together with its answer key. The key never
// leaves the server.
type QASession struct {
	QAID      string
	ActorID   string
	SourceRef string
	TestMode  string
	Questions json.RawMessage
	AnswerKey []int
	CreatedAt time.Time
}

// QAAttempt is one scored submission.
type QAAttempt struct {
	QAID      string
	Answers   []int
	Score     int
	Total     int
	Passed    bool
	CreatedAt time.Time
}

// QARepo stores quiz sessions and attempts.
type QARepo struct {
	db *sql.DB
}

// SaveSession inserts s.
func (r *QARepo) SaveSession(ctx context.Context, s QASession) error {
	key, err := json.Marshal(s.AnswerKey)
	if err != nil {
		return fmt.Errorf("marshal answer key: %w", err)
	}
	if s.CreatedAt.IsZero() {
		s.CreatedAt = time.Now()
	}
	_, err = r.db.ExecContext(ctx, `INSERT INTO qa_sessions
		(qa_id, actor_id, source_ref, test_mode, questions, answer_key, created_at)
		VALUES (?,?,?,?,?,?,?)`,
		s.QAID, s.ActorID, s.SourceRef, s.TestMode, string(s.Questions), string(key), toMillis(s.CreatedAt))
	if err != nil {
		return fmt.Errorf("insert qa session %s: %w", s.QAID, err)
	}
	return nil
}

// GetSession returns the session for qaID, or ErrNotFound.
func (r *QARepo) GetSession(ctx context.Context, qaID string) (*QASession, error) {
	var s QASession
	var questions, key string
	var ts int64
	err := r.db.QueryRowContext(ctx, `SELECT qa_id, actor_id, source_ref, test_mode, questions,
		answer_key, created_at FROM qa_sessions WHERE qa_id = ?`, qaID).
		Scan(&s.QAID, &s.ActorID, &s.SourceRef, &s.TestMode, &questions, &key, &ts)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get qa session %s: %w", qaID, err)
	}
	if err := json.Unmarshal([]byte(key), &s.AnswerKey); err != nil {
		return nil, fmt.Errorf("decode answer key for %s: %w", qaID, err)
	}
	s.Questions = json.RawMessage(questions)
	s.CreatedAt = fromMillis(ts)
	return &s, nil
}

// RecordAttempt appends a scored submission.
func (r *QARepo) RecordAttempt(ctx context.Context, a QAAttempt) error {
	answers, err := json.Marshal(a.Answers)
	if err != nil {
		return fmt.Errorf("marshal answers: %w", err)
	}
	if a.CreatedAt.IsZero() {
		a.CreatedAt = time.Now()
	}
	_, err = r.db.ExecContext(ctx, `INSERT INTO qa_attempts (qa_id, answers, score, total, passed, created_at)
		VALUES (?,?,?,?,?,?)`,
		a.QAID, string(answers), a.Score, a.Total, boolInt(a.Passed), toMillis(a.CreatedAt))
	if err != nil {
		return fmt.Errorf("insert qa attempt for %s: %w", a.QAID, err)
	}
	return nil
}

// CountAttempts returns how many submissions qaID has received.
func (r *QARepo) CountAttempts(ctx context.Context, qaID string) (int, error) {
	var n int
	err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM qa_attempts WHERE qa_id = ?`, qaID).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count attempts for %s: %w", qaID, err)
	}
	return n, nil
}
