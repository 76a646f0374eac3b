// Package history keeps a local log of mutations the client pushed to the
// backend (kanban moves, ITTO edits, stage activations). It is purely
// informational: entries are appended after a mutation succeeds and read back
// by `pd log tail`.
package history

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"procdeck/internal/domain"
)

type Writer struct {
	DB  *sql.DB
	Now func() time.Time
}

type Payload map[string]any

// Entry is one recorded mutation.
type Entry struct {
	ID          int64              `json:"id"`
	TS          string             `json:"ts"`
	Action      string             `json:"action"`
	ProcessType domain.ProcessType `json:"process_type"`
	ProcessID   int                `json:"process_id"`
	CountryCode string             `json:"country_code,omitempty"`
	Payload     string             `json:"payload_json"`
}

// Append records a successful mutation.
func (w Writer) Append(ctx context.Context, action string, pType domain.ProcessType, processID int, countryCode string, payload Payload) error {
	if w.Now == nil {
		w.Now = time.Now
	}
	ts := w.Now().UTC().Format(time.RFC3339)
	if payload == nil {
		payload = Payload{}
	}
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal history payload: %w", err)
	}
	_, err = w.DB.ExecContext(ctx, `INSERT INTO history(ts,action,process_type,process_id,country_code,payload_json) VALUES (?,?,?,?,?,?)`,
		ts, action, string(pType), processID, countryCode, string(data))
	return err
}

// Tail returns the most recent entries, newest first, optionally filtered by
// action.
func (w Writer) Tail(ctx context.Context, n int, action string) ([]Entry, error) {
	if n <= 0 {
		n = 20
	}
	query := `SELECT id,ts,action,process_type,process_id,country_code,payload_json FROM history`
	args := []any{}
	if action != "" {
		query += ` WHERE action=?`
		args = append(args, action)
	}
	query += ` ORDER BY id DESC LIMIT ?`
	args = append(args, n)

	rows, err := w.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []Entry
	for rows.Next() {
		var e Entry
		var pt string
		if err := rows.Scan(&e.ID, &e.TS, &e.Action, &pt, &e.ProcessID, &e.CountryCode, &e.Payload); err != nil {
			return nil, err
		}
		e.ProcessType = domain.ProcessType(pt)
		out = append(out, e)
	}
	return out, rows.Err()
}
