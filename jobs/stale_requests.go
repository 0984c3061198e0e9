package jobs

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/seaboard-erp/seaboard-erp/internal/shared"
)

// StaleQueryJob reminds requesters about requests parked in QUERIED. A
// queried request goes nowhere until the requester corrects and resubmits,
// so idle ones get a reminder appended to their comment log.
type StaleQueryJob struct {
	pool     *pgxpool.Pool
	comments *shared.CommentLog
	logger   *slog.Logger
}

// NewStaleQueryJob constructs the job.
func NewStaleQueryJob(pool *pgxpool.Pool, comments *shared.CommentLog, logger *slog.Logger) *StaleQueryJob {
	return &StaleQueryJob{pool: pool, comments: comments, logger: logger}
}

// Handler processes TaskStaleQueryScan tasks.
func (j *StaleQueryJob) Handler(ctx context.Context, t *asynq.Task) error {
	var payload StaleQueryScanPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return asynq.SkipRetry
	}
	if payload.OlderThan <= 0 {
		payload.OlderThan = 72 * time.Hour
	}
	count, err := j.Run(ctx, payload.OlderThan)
	if err != nil {
		j.logger.Error("stale query scan", slog.Any("error", err))
		return err
	}
	j.logger.Info("stale query scan complete", slog.Int("reminded", count))
	return nil
}

// Run finds queried requests idle past the cutoff and appends one reminder
// each. A request already reminded since it was queried is skipped.
func (j *StaleQueryJob) Run(ctx context.Context, olderThan time.Duration) (int, error) {
	cutoff := time.Now().Add(-olderThan)
	rows, err := j.pool.Query(ctx, `SELECT r.id, r.number FROM requests r
WHERE r.state='QUERIED' AND r.updated_at < $1
AND NOT EXISTS (
	SELECT 1 FROM request_comments c
	WHERE c.request_id = r.id AND c.author_role='SYSTEM' AND c.at > r.updated_at
)`, cutoff)
	if err != nil {
		return 0, err
	}
	defer rows.Close()
	type stale struct {
		id     uuid.UUID
		number string
	}
	var found []stale
	for rows.Next() {
		var s stale
		if err := rows.Scan(&s.id, &s.number); err != nil {
			return 0, err
		}
		found = append(found, s)
	}
	if err := rows.Err(); err != nil {
		return 0, err
	}

	reminded := 0
	for _, s := range found {
		err := j.comments.Append(ctx, shared.Comment{
			RequestID: s.id,
			Role:      "SYSTEM",
			Body:      "Request " + s.number + " has been awaiting correction since being queried. Please update and resubmit.",
		})
		if err != nil {
			j.logger.Warn("stale query reminder", slog.String("request", s.id.String()), slog.Any("error", err))
			continue
		}
		reminded++
	}
	return reminded, nil
}
