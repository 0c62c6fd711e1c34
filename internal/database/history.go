package database

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"media-router/internal/metrics"
)

// DefaultHistoryLimit is used by RecentPlays when limit is not positive.
const DefaultHistoryLimit = 50

// MaxHistoryLimit caps RecentPlays.
const MaxHistoryLimit = 1000

// ErrPlayNotFound is returned by FinishPlay for an unknown id.
var ErrPlayNotFound = errors.New("play not found")

// Play is one recorded player launch.
type Play struct {
	ID         int64      `json:"id"`
	Path       string     `json:"path"`
	Rule       string     `json:"rule"`
	Program    string     `json:"program"`
	Args       []string   `json:"args"`
	StartedAt  time.Time  `json:"startedAt"`
	FinishedAt *time.Time `json:"finishedAt,omitempty"`
	ExitCode   *int       `json:"exitCode,omitempty"`
	Error      string     `json:"error,omitempty"`
}

// RecordPlay inserts a launch and returns its id. StartedAt defaults to now.
func (d *Database) RecordPlay(ctx context.Context, p Play) (id int64, err error) {
	start := time.Now()
	defer func() {
		recordQuery("record_play", start, err)
		status := "success"
		if err != nil {
			status = "error"
		}
		metrics.HistoryWritesTotal.WithLabelValues(status).Inc()
	}()

	if p.StartedAt.IsZero() {
		p.StartedAt = time.Now()
	}
	args := p.Args
	if args == nil {
		args = []string{}
	}
	encoded, err := json.Marshal(args)
	if err != nil {
		return 0, fmt.Errorf("failed to encode args: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	res, err := d.db.ExecContext(ctx, `
		INSERT INTO plays (path, rule, program, args, started_at, error)
		VALUES (?, ?, ?, ?, ?, ?)
	`, p.Path, p.Rule, p.Program, string(encoded), p.StartedAt.UnixMilli(), p.Error)
	if err != nil {
		return 0, fmt.Errorf("failed to record play: %w", err)
	}
	return res.LastInsertId()
}

// FinishPlay stores the exit status of a recorded launch. A nil exitCode
// means the status is unknown (the process was killed, for example).
func (d *Database) FinishPlay(ctx context.Context, id int64, finishedAt time.Time, exitCode *int, errMsg string) (err error) {
	start := time.Now()
	defer func() { recordQuery("finish_play", start, err) }()

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	var code sql.NullInt64
	if exitCode != nil {
		code = sql.NullInt64{Int64: int64(*exitCode), Valid: true}
	}

	res, err := d.db.ExecContext(ctx, `
		UPDATE plays SET finished_at = ?, exit_code = ?, error = ? WHERE id = ?
	`, finishedAt.UnixMilli(), code, errMsg, id)
	if err != nil {
		return fmt.Errorf("failed to finish play: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrPlayNotFound
	}
	return nil
}

// RecentPlays returns the most recent launches, newest first.
func (d *Database) RecentPlays(ctx context.Context, limit int) (plays []Play, err error) {
	start := time.Now()
	defer func() { recordQuery("recent_plays", start, err) }()

	if limit <= 0 {
		limit = DefaultHistoryLimit
	}
	if limit > MaxHistoryLimit {
		limit = MaxHistoryLimit
	}

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	rows, err := d.db.QueryContext(ctx, `
		SELECT id, path, rule, program, args, started_at, finished_at, exit_code, error
		FROM plays
		ORDER BY started_at DESC, id DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query plays: %w", err)
	}
	defer rows.Close()

	plays = []Play{}
	for rows.Next() {
		var (
			p          Play
			args       string
			startedAt  int64
			finishedAt sql.NullInt64
			exitCode   sql.NullInt64
		)
		if err := rows.Scan(&p.ID, &p.Path, &p.Rule, &p.Program, &args, &startedAt, &finishedAt, &exitCode, &p.Error); err != nil {
			return nil, fmt.Errorf("failed to scan play: %w", err)
		}
		if err := json.Unmarshal([]byte(args), &p.Args); err != nil {
			return nil, fmt.Errorf("failed to decode args of play %d: %w", p.ID, err)
		}
		p.StartedAt = time.UnixMilli(startedAt)
		if finishedAt.Valid {
			t := time.UnixMilli(finishedAt.Int64)
			p.FinishedAt = &t
		}
		if exitCode.Valid {
			c := int(exitCode.Int64)
			p.ExitCode = &c
		}
		plays = append(plays, p)
	}
	return plays, rows.Err()
}
