package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"
)

// eventRepo implements EventRepo on top of the global sequence counter.
type eventRepo struct {
	db  *sql.DB
	seq *sequenceCounter
}

// appendWithSeq runs insert in a transaction together with the sequence bump.
func (r *eventRepo) appendWithSeq(ctx context.Context, insert func(tx *sql.Tx, seq int64) error) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	seq, err := r.seq.Next(ctx, tx)
	if err != nil {
		return err
	}
	if err := insert(tx, seq); err != nil {
		return err
	}
	return tx.Commit()
}

func (r *eventRepo) AppendLLMRequest(ctx context.Context, d LLMRequestEventData) error {
	return r.appendWithSeq(ctx, func(tx *sql.Tx, seq int64) error {
		_, err := tx.ExecContext(ctx, `INSERT INTO llm_events
			(sequence, timestamp, provider, model, purpose, input_tokens, output_tokens,
			 latency_ms, success, error_message, request_body, response_body)
			VALUES (?,?,?,?,?,?,?,?,?,?,?,?)`,
			seq, toMillis(time.Now()), d.Provider, d.Model, d.Purpose, d.InputTokens, d.OutputTokens,
			d.LatencyMs, boolInt(d.Success), d.ErrorMessage, d.RequestBody, d.ResponseBody)
		if err != nil {
			return fmt.Errorf("save LLM request event: %w", err)
		}
		return nil
	})
}

const llmEventColumns = `id, sequence, timestamp, provider, model, purpose, input_tokens,
	output_tokens, latency_ms, success, error_message, request_body, response_body`

func scanLLMEvent(sc interface{ Scan(...any) error }) (LLMEvent, error) {
	var e LLMEvent
	var ts int64
	var ok int
	err := sc.Scan(&e.ID, &e.Sequence, &ts, &e.Provider, &e.Model, &e.Purpose, &e.InputTokens,
		&e.OutputTokens, &e.LatencyMs, &ok, &e.ErrorMessage, &e.RequestBody, &e.ResponseBody)
	e.Timestamp = fromMillis(ts)
	e.Success = ok != 0
	return e, err
}

func (r *eventRepo) QueryLLMEvents(ctx context.Context, opts QueryOpts) ([]LLMEvent, error) {
	where, args := opts.where()
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+llmEventColumns+` FROM llm_events`+where+` ORDER BY sequence DESC`+opts.limit(), args...)
	if err != nil {
		return nil, fmt.Errorf("query LLM events: %w", err)
	}
	defer rows.Close()

	var out []LLMEvent
	for rows.Next() {
		e, err := scanLLMEvent(rows)
		if err != nil {
			return nil, fmt.Errorf("scan LLM event: %w", err)
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

func (r *eventRepo) GetLLMEvent(ctx context.Context, id int64) (*LLMEvent, error) {
	e, err := scanLLMEvent(r.db.QueryRowContext(ctx, `SELECT `+llmEventColumns+` FROM llm_events WHERE id = ?`, id))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get LLM event %d: %w", id, err)
	}
	return &e, nil
}

func (r *eventRepo) LLMUsageByPurpose(ctx context.Context) ([]LLMUsage, error) {
	return r.llmUsage(ctx, "purpose")
}

func (r *eventRepo) LLMUsageByModel(ctx context.Context) ([]LLMUsage, error) {
	return r.llmUsage(ctx, "model")
}

// llmUsage groups by column, which is always a fixed identifier.
func (r *eventRepo) llmUsage(ctx context.Context, column string) ([]LLMUsage, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT `+column+`, COUNT(*), COALESCE(SUM(input_tokens),0),
		COALESCE(SUM(output_tokens),0), CAST(COALESCE(AVG(latency_ms),0) AS INTEGER)
		FROM llm_events GROUP BY `+column+` ORDER BY COUNT(*) DESC, `+column)
	if err != nil {
		return nil, fmt.Errorf("aggregate LLM usage by %s: %w", column, err)
	}
	defer rows.Close()

	var out []LLMUsage
	for rows.Next() {
		var u LLMUsage
		if err := rows.Scan(&u.Key, &u.Calls, &u.InputTokens, &u.OutputTokens, &u.AvgLatencyMs); err != nil {
			return nil, err
		}
		out = append(out, u)
	}
	return out, rows.Err()
}

func (r *eventRepo) AppendGateEvent(ctx context.Context, d GateEventData) error {
	return r.appendWithSeq(ctx, func(tx *sql.Tx, seq int64) error {
		_, err := tx.ExecContext(ctx, `INSERT INTO gate_events
			(sequence, timestamp, workflow_id, actor_id, intent, source_kind, required,
			 question_count, test_mode, outcome, reason, score, total, state_path, duration_ms)
			VALUES (?,?,?,?,?,?,?,?,?,?,?,?,?,?,?)`,
			seq, toMillis(time.Now()), d.WorkflowID, d.ActorID, d.Intent, d.SourceKind, boolInt(d.Required),
			d.QuestionCount, d.TestMode, d.Outcome, d.Reason, d.Score, d.Total, d.StatePath, d.DurationMs)
		if err != nil {
			return fmt.Errorf("save gate event: %w", err)
		}
		return nil
	})
}

func (r *eventRepo) QueryGateEvents(ctx context.Context, opts QueryOpts) ([]GateEvent, error) {
	where, args := opts.where()
	rows, err := r.db.QueryContext(ctx, `SELECT id, sequence, timestamp, workflow_id, actor_id, intent,
		source_kind, required, question_count, test_mode, outcome, reason, score, total, state_path,
		duration_ms FROM gate_events`+where+` ORDER BY sequence DESC`+opts.limit(), args...)
	if err != nil {
		return nil, fmt.Errorf("query gate events: %w", err)
	}
	defer rows.Close()

	var out []GateEvent
	for rows.Next() {
		var e GateEvent
		var ts int64
		var req int
		if err := rows.Scan(&e.ID, &e.Sequence, &ts, &e.WorkflowID, &e.ActorID, &e.Intent, &e.SourceKind,
			&req, &e.QuestionCount, &e.TestMode, &e.Outcome, &e.Reason, &e.Score, &e.Total,
			&e.StatePath, &e.DurationMs); err != nil {
			return nil, fmt.Errorf("scan gate event: %w", err)
		}
		e.Timestamp = fromMillis(ts)
		e.Required = req != 0
		out = append(out, e)
	}
	return out, rows.Err()
}

func (r *eventRepo) GateOutcomeCounts(ctx context.Context) ([]OutcomeCount, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT outcome, COUNT(*) FROM gate_events GROUP BY outcome ORDER BY outcome`)
	if err != nil {
		return nil, fmt.Errorf("count gate outcomes: %w", err)
	}
	defer rows.Close()

	var out []OutcomeCount
	for rows.Next() {
		var c OutcomeCount
		if err := rows.Scan(&c.Outcome, &c.Count); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func (o QueryOpts) where() (string, []any) {
	var conds []string
	var args []any
	if o.After > 0 {
		conds = append(conds, "sequence > ?")
		args = append(args, o.After)
	}
	if o.Before > 0 {
		conds = append(conds, "sequence < ?")
		args = append(args, o.Before)
	}
	if !o.From.IsZero() {
		conds = append(conds, "timestamp >= ?")
		args = append(args, toMillis(o.From))
	}
	if !o.To.IsZero() {
		conds = append(conds, "timestamp <= ?")
		args = append(args, toMillis(o.To))
	}
	if len(conds) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(conds, " AND "), args
}

func (o QueryOpts) limit() string {
	if o.Limit <= 0 {
		return ""
	}
	return fmt.Sprintf(" LIMIT %d", o.Limit)
}
