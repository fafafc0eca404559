package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/abhisek/readgate/internal/source"
)

// Action is a published post, comment or share.
type Action struct {
	ID                string
	ActorID           string
	Intent            source.Intent
	Body              string
	DirectSourceURL   string
	QuotedReferenceID string
	CreatedAt         time.Time
}

// ActionRepo stores actions. It doubles as the quoted-reference lookup for
// source resolution.
type ActionRepo struct {
	db *sql.DB
}

// Create inserts a new action.
func (r *ActionRepo) Create(ctx context.Context, a Action) error {
	if a.CreatedAt.IsZero() {
		a.CreatedAt = time.Now()
	}
	_, err := r.db.ExecContext(ctx, `INSERT INTO actions
		(id, actor_id, intent, body, direct_source_url, quoted_reference_id, created_at)
		VALUES (?,?,?,?,?,?,?)`,
		a.ID, a.ActorID, string(a.Intent), a.Body, a.DirectSourceURL, a.QuotedReferenceID, toMillis(a.CreatedAt))
	if err != nil {
		return fmt.Errorf("insert action %s: %w", a.ID, err)
	}
	return nil
}

// Get returns the action with id, or ErrNotFound.
func (r *ActionRepo) Get(ctx context.Context, id string) (Action, error) {
	var a Action
	var intent string
	var ts int64
	err := r.db.QueryRowContext(ctx, `SELECT id, actor_id, intent, body, direct_source_url,
		quoted_reference_id, created_at FROM actions WHERE id = ?`, id).
		Scan(&a.ID, &a.ActorID, &intent, &a.Body, &a.DirectSourceURL, &a.QuotedReferenceID, &ts)
	if err == sql.ErrNoRows {
		return a, ErrNotFound
	}
	if err != nil {
		return a, fmt.Errorf("get action %s: %w", id, err)
	}
	a.Intent = source.Intent(intent)
	a.CreatedAt = fromMillis(ts)
	return a, nil
}

// List returns the most recent actions, newest first.
func (r *ActionRepo) List(ctx context.Context, limit int) ([]Action, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := r.db.QueryContext(ctx, `SELECT id, actor_id, intent, body, direct_source_url,
		quoted_reference_id, created_at FROM actions ORDER BY created_at DESC, id LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("list actions: %w", err)
	}
	defer rows.Close()

	var out []Action
	for rows.Next() {
		var a Action
		var intent string
		var ts int64
		if err := rows.Scan(&a.ID, &a.ActorID, &intent, &a.Body, &a.DirectSourceURL, &a.QuotedReferenceID, &ts); err != nil {
			return nil, err
		}
		a.Intent = source.Intent(intent)
		a.CreatedAt = fromMillis(ts)
		out = append(out, a)
	}
	return out, rows.Err()
}

// GetReferencedAction implements source.ReferenceLookup. Unknown ids yield
// (nil, nil).
func (r *ActionRepo) GetReferencedAction(ctx context.Context, id string) (*source.ReferencedAction, error) {
	a, err := r.Get(ctx, id)
	if err == ErrNotFound {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &source.ReferencedAction{
		ID:                a.ID,
		DirectSourceURL:   a.DirectSourceURL,
		QuotedReferenceID: a.QuotedReferenceID,
		Body:              a.Body,
	}, nil
}

// EditorialRepo stores first-party editorial content.
type EditorialRepo struct {
	db *sql.DB
}

// Upsert creates or replaces an editorial.
func (r *EditorialRepo) Upsert(ctx context.Context, e source.Editorial) error {
	_, err := r.db.ExecContext(ctx, `INSERT INTO editorials (id, title, body, created_at)
		VALUES (?,?,?,?)
		ON CONFLICT(id) DO UPDATE SET title = excluded.title, body = excluded.body`,
		e.ID, e.Title, e.Body, toMillis(time.Now()))
	if err != nil {
		return fmt.Errorf("upsert editorial %s: %w", e.ID, err)
	}
	return nil
}

// GetEditorial implements source.EditorialLookup. Unknown ids yield
// (nil, nil).
func (r *EditorialRepo) GetEditorial(ctx context.Context, id string) (*source.Editorial, error) {
	var e source.Editorial
	err := r.db.QueryRowContext(ctx, `SELECT id, title, body FROM editorials WHERE id = ?`, id).
		Scan(&e.ID, &e.Title, &e.Body)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get editorial %s: %w", id, err)
	}
	return &e, nil
}
